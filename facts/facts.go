// Package facts defines AllFacts, the fixed schema of input and output
// relations the solver operates on. Every field is a sorted, deduplicated
// set of tuples; a store is built once per function analysis and is
// read-only from then on.
package facts

import (
	"github.com/go-polonius/polonius/atom"
	"github.com/go-polonius/polonius/internal/relation"
)

// Tuple shapes for every relation in the schema. These are plain structs
// rather than anonymous tuples so that join/antijoin key extractors read
// as field accesses instead of index arithmetic.

type CFGEdge struct{ Src, Dst atom.Point }

type LoanIssuedAt struct {
	Origin atom.Origin
	Loan   atom.Loan
	Point  atom.Point
}

type LoanKilledAt struct {
	Loan  atom.Loan
	Point atom.Point
}

type LoanInvalidatedAt struct {
	Loan  atom.Loan
	Point atom.Point
}

// SubsetBase records a non-transitive O1 ⊆ O2 fact at Point: loans of O1
// flow into O2 there.
type SubsetBase struct {
	O1, O2 atom.Origin
	Point  atom.Point
}

type Placeholder struct {
	Origin atom.Origin
	Loan   atom.Loan
}

// KnownPlaceholderSubset records a declared/implied O1 ⊆ O2 between two
// placeholder origins.
type KnownPlaceholderSubset struct{ O1, O2 atom.Origin }

type OriginLiveOnEntry struct {
	Origin atom.Origin
	Point  atom.Point
}

type VarAtPoint struct {
	Var   atom.Variable
	Point atom.Point
}

type VarDerefsOrigin struct {
	Var    atom.Variable
	Origin atom.Origin
}

type ChildPath struct{ Child, Parent atom.MovePath }

type PathAtPoint struct {
	Path  atom.MovePath
	Point atom.Point
}

type PathBelongsToVar struct {
	Path atom.MovePath
	Var  atom.Variable
}

// Output relation tuple shapes.

type AccessError struct {
	Loan  atom.Loan
	Point atom.Point
}

type SubsetError struct {
	O1, O2 atom.Origin
	Point  atom.Point
}

type MoveError struct {
	Path  atom.MovePath
	Point atom.Point
}

func lessCFGEdge(a, b CFGEdge) bool {
	if a.Src != b.Src {
		return a.Src < b.Src
	}
	return a.Dst < b.Dst
}

func lessLoanIssuedAt(a, b LoanIssuedAt) bool {
	if a.Origin != b.Origin {
		return a.Origin < b.Origin
	}
	if a.Loan != b.Loan {
		return a.Loan < b.Loan
	}
	return a.Point < b.Point
}

func lessLoanAtPoint2(a, b LoanKilledAt) bool {
	if a.Loan != b.Loan {
		return a.Loan < b.Loan
	}
	return a.Point < b.Point
}

func lessLoanInvalidatedAt(a, b LoanInvalidatedAt) bool {
	if a.Loan != b.Loan {
		return a.Loan < b.Loan
	}
	return a.Point < b.Point
}

func lessSubsetBase(a, b SubsetBase) bool {
	if a.O1 != b.O1 {
		return a.O1 < b.O1
	}
	if a.O2 != b.O2 {
		return a.O2 < b.O2
	}
	return a.Point < b.Point
}

func lessPlaceholder(a, b Placeholder) bool {
	if a.Origin != b.Origin {
		return a.Origin < b.Origin
	}
	return a.Loan < b.Loan
}

func lessOriginPair(a, b KnownPlaceholderSubset) bool {
	if a.O1 != b.O1 {
		return a.O1 < b.O1
	}
	return a.O2 < b.O2
}

func lessOriginLiveOnEntry(a, b OriginLiveOnEntry) bool {
	if a.Origin != b.Origin {
		return a.Origin < b.Origin
	}
	return a.Point < b.Point
}

func lessVarAtPoint(a, b VarAtPoint) bool {
	if a.Var != b.Var {
		return a.Var < b.Var
	}
	return a.Point < b.Point
}

func lessVarDerefsOrigin(a, b VarDerefsOrigin) bool {
	if a.Var != b.Var {
		return a.Var < b.Var
	}
	return a.Origin < b.Origin
}

func lessChildPath(a, b ChildPath) bool {
	if a.Child != b.Child {
		return a.Child < b.Child
	}
	return a.Parent < b.Parent
}

func lessPathAtPoint(a, b PathAtPoint) bool {
	if a.Path != b.Path {
		return a.Path < b.Path
	}
	return a.Point < b.Point
}

func lessPathBelongsToVar(a, b PathBelongsToVar) bool {
	if a.Path != b.Path {
		return a.Path < b.Path
	}
	return a.Var < b.Var
}

func lessAccessError(a, b AccessError) bool {
	if a.Loan != b.Loan {
		return a.Loan < b.Loan
	}
	return a.Point < b.Point
}

func lessSubsetError(a, b SubsetError) bool {
	if a.O1 != b.O1 {
		return a.O1 < b.O1
	}
	if a.O2 != b.O2 {
		return a.O2 < b.O2
	}
	return a.Point < b.Point
}

func lessMoveError(a, b MoveError) bool {
	if a.Path != b.Path {
		return a.Path < b.Path
	}
	return a.Point < b.Point
}

// AllFacts is the complete input fact store for one function analysis.
// Every pre-pass and variant reads from it; none mutate it.
type AllFacts struct {
	CFGEdge                *relation.Set[CFGEdge]
	LoanIssuedAt            *relation.Set[LoanIssuedAt]
	LoanKilledAt            *relation.Set[LoanKilledAt]
	LoanInvalidatedAt       *relation.Set[LoanInvalidatedAt]
	SubsetBase              *relation.Set[SubsetBase]
	Placeholder             *relation.Set[Placeholder]
	KnownPlaceholderSubset  *relation.Set[KnownPlaceholderSubset]
	OriginLiveOnEntry       *relation.Set[OriginLiveOnEntry]
	VarUsedAt               *relation.Set[VarAtPoint]
	VarDefinedAt            *relation.Set[VarAtPoint]
	VarDroppedAt            *relation.Set[VarAtPoint]
	UseOfVarDerefsOrigin    *relation.Set[VarDerefsOrigin]
	DropOfVarDerefsOrigin   *relation.Set[VarDerefsOrigin]
	Child                   *relation.Set[ChildPath]
	PathIsAssignedAt        *relation.Set[PathAtPoint]
	PathMovedAt             *relation.Set[PathAtPoint]
	PathAccessedAt          *relation.Set[PathAtPoint]
	PathBelongsToVar        *relation.Set[PathBelongsToVar]
}

// New returns an AllFacts with every relation initialized empty. The
// loader and test-grammar parser both build on top of an empty store
// returned here so that a relation missing from the source (§7.2 schema
// errors) is simply empty rather than nil.
func New() *AllFacts {
	return &AllFacts{
		CFGEdge:                relation.NewSet(lessCFGEdge),
		LoanIssuedAt:           relation.NewSet(lessLoanIssuedAt),
		LoanKilledAt:           relation.NewSet(lessLoanAtPoint2),
		LoanInvalidatedAt:      relation.NewSet(lessLoanInvalidatedAt),
		SubsetBase:             relation.NewSet(lessSubsetBase),
		Placeholder:            relation.NewSet(lessPlaceholder),
		KnownPlaceholderSubset: relation.NewSet(lessOriginPair),
		OriginLiveOnEntry:      relation.NewSet(lessOriginLiveOnEntry),
		VarUsedAt:              relation.NewSet(lessVarAtPoint),
		VarDefinedAt:           relation.NewSet(lessVarAtPoint),
		VarDroppedAt:           relation.NewSet(lessVarAtPoint),
		UseOfVarDerefsOrigin:   relation.NewSet(lessVarDerefsOrigin),
		DropOfVarDerefsOrigin:  relation.NewSet(lessVarDerefsOrigin),
		Child:                  relation.NewSet(lessChildPath),
		PathIsAssignedAt:       relation.NewSet(lessPathAtPoint),
		PathMovedAt:            relation.NewSet(lessPathAtPoint),
		PathAccessedAt:         relation.NewSet(lessPathAtPoint),
		PathBelongsToVar:       relation.NewSet(lessPathBelongsToVar),
	}
}

// NewAccessErrorSet, NewSubsetErrorSet and NewMoveErrorSet are exposed so
// that the loan and initialization packages can build their output
// relations without duplicating comparators.
func NewAccessErrorSet() *relation.Set[AccessError] { return relation.NewSet(lessAccessError) }
func NewSubsetErrorSet() *relation.Set[SubsetError] { return relation.NewSet(lessSubsetError) }
func NewMoveErrorSet() *relation.Set[MoveError]     { return relation.NewSet(lessMoveError) }

// PlaceholderOrigins projects the set of origins that have at least one
// placeholder loan.
func (f *AllFacts) PlaceholderOrigins() map[atom.Origin]struct{} {
	out := make(map[atom.Origin]struct{})
	f.Placeholder.Each(func(p Placeholder) { out[p.Origin] = struct{}{} })
	return out
}

// WithOriginLiveOnEntry returns a shallow copy of f with OriginLiveOnEntry
// replaced. The fact store is read-only once built (§3 "Lifecycle"), so
// the liveness pre-pass produces a new view rather than mutating f in
// place when it derives origin_live_on_entry.
func (f *AllFacts) WithOriginLiveOnEntry(s *relation.Set[OriginLiveOnEntry]) *AllFacts {
	c := *f
	c.OriginLiveOnEntry = s
	return &c
}
