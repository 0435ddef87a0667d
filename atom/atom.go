// Package atom defines the opaque, totally-ordered identifiers the solver
// operates on: Origin, Loan, Point, Variable, Path and MovePath. Their
// meaning is supplied entirely by the relations that mention them; the
// atoms themselves are nothing but small dense integers.
package atom

import "fmt"

// Origin is a set-of-loans variable; what the source language calls a
// lifetime.
type Origin uint32

// Loan is a single borrow expression.
type Loan uint32

// Point is a node in the control-flow graph. Every statement contributes a
// Start and a Mid point, with a mandatory Start->Mid edge.
type Point uint32

// Variable is a user-declared variable or parameter.
type Variable uint32

// Path is a memory location: a Variable, or a projection (field, index or
// deref) of another Path.
type Path uint32

// MovePath is the coarser granularity initialization tracking runs at; it
// is always a prefix of some Path.
type MovePath uint32

func (o Origin) String() string   { return fmt.Sprintf("'%d", uint32(o)) }
func (l Loan) String() string     { return fmt.Sprintf("L%d", uint32(l)) }
func (p Point) String() string    { return fmt.Sprintf("P%d", uint32(p)) }
func (v Variable) String() string { return fmt.Sprintf("V%d", uint32(v)) }
func (p Path) String() string     { return fmt.Sprintf("M%d", uint32(p)) }
func (m MovePath) String() string { return fmt.Sprintf("MP%d", uint32(m)) }

// Less orders atoms by their underlying integer. Every atom kind is
// comparable this way; Compare mirrors it for use with sorted containers.
func Less[A ~uint32](a, b A) bool { return a < b }

// Compare returns -1, 0 or 1 as a<b, a==b, a>b, for use as a gods
// comparator over a single atom kind.
func Compare[A ~uint32](a, b A) int {
	switch {
	case a < b:
		return -1
	case a > b:
		return 1
	default:
		return 0
	}
}

// Interner assigns dense, stable integer atoms to string tokens seen while
// loading facts. It is not used by the solver itself (spec: the core does
// not intern identifiers from strings) — it exists for the loader and test
// parsers that sit in front of the core.
type Interner[A ~uint32] struct {
	byName []string
	ids    map[string]A
}

// NewInterner returns an empty interner for atom kind A.
func NewInterner[A ~uint32]() *Interner[A] {
	return &Interner[A]{ids: make(map[string]A)}
}

// Intern returns the atom for name, allocating a fresh one on first sight.
func (in *Interner[A]) Intern(name string) A {
	if id, ok := in.ids[name]; ok {
		return id
	}
	id := A(len(in.byName))
	in.byName = append(in.byName, name)
	in.ids[name] = id
	return id
}

// Lookup returns the atom already assigned to name, if any.
func (in *Interner[A]) Lookup(name string) (A, bool) {
	id, ok := in.ids[name]
	return id, ok
}

// Name returns the original token an atom was interned from.
func (in *Interner[A]) Name(id A) string {
	if int(id) >= len(in.byName) {
		return fmt.Sprintf("?%d", uint32(id))
	}
	return in.byName[id]
}

// Len reports how many distinct atoms have been interned.
func (in *Interner[A]) Len() int { return len(in.byName) }
