// Package loan is the heart of the solver: it computes subset,
// origin_contains_loan_on_entry, loan_live_at, illegal-access errors and
// illegal-subset errors, in four algorithmic variants behind a shared
// Variant registry. Grounded on polonius-engine's output/{naive,
// location_insensitive, datafrog_opt, hybrid}.rs, reworked from the Rust
// datafrog crate's leapjoin combinators into hand-written indexed loops,
// with internal/relation's Variable/Iteration doing Naive's semi-naive
// bookkeeping, so the rules in §4.4-§4.7 read the same way the spec
// states them.
package loan

import (
	"log"

	"github.com/go-polonius/polonius/atom"
	"github.com/go-polonius/polonius/facts"
)

// Output is what every variant returns: the two error relations plus,
// for debugging (§6's "when debugging" dumps), the intermediate
// relations computed along the way. Not every variant populates every
// debug field — LocationInsensitive has no Point-indexed subset, for
// instance — so zero value means "not computed by this variant", not
// "computed empty".
type Output struct {
	Errors       []facts.AccessError
	SubsetErrors []facts.SubsetError

	Subset                    []SubsetTuple
	OriginContainsLoanOnEntry []OriginLoanPoint
	LoanLiveAt                []LoanPoint

	PotentialErrors       []facts.AccessError
	PotentialSubsetErrors []OriginPair
}

// context bundles the lookups every variant needs repeatedly: the
// placeholder-origin set, the killed-loan set, and (when used) the
// origin_live_on_entry index.
type context struct {
	f                  *facts.AllFacts
	placeholderOrigins map[atom.Origin]struct{}
	placeholderLoans   map[atom.Loan]struct{}
	killed             map[facts.LoanKilledAt]struct{}
	originLive         map[atom.Origin]map[atom.Point]struct{}
}

func newContext(f *facts.AllFacts) *context {
	c := &context{
		f:                  f,
		placeholderOrigins: make(map[atom.Origin]struct{}),
		placeholderLoans:   make(map[atom.Loan]struct{}),
		killed:             make(map[facts.LoanKilledAt]struct{}),
		originLive:         make(map[atom.Origin]map[atom.Point]struct{}),
	}
	f.Placeholder.Each(func(p facts.Placeholder) {
		c.placeholderOrigins[p.Origin] = struct{}{}
		c.placeholderLoans[p.Loan] = struct{}{}
	})
	f.LoanKilledAt.Each(func(k facts.LoanKilledAt) { c.killed[k] = struct{}{} })
	f.OriginLiveOnEntry.Each(func(t facts.OriginLiveOnEntry) {
		m, ok := c.originLive[t.Origin]
		if !ok {
			m = make(map[atom.Point]struct{})
			c.originLive[t.Origin] = m
		}
		m[t.Point] = struct{}{}
	})
	return c
}

func (c *context) isPlaceholder(o atom.Origin) bool {
	_, ok := c.placeholderOrigins[o]
	return ok
}

// liveOrPlaceholder is the spec's `live_or_placeholder(O,P)` shorthand:
// origin_live_on_entry(O,P) OR placeholder_origin(O). Global invariant
// (§3): placeholder origins are conceptually live at every point, so we
// special-case them here rather than materializing origin_live_on_entry
// tuples for every point in the function.
func (c *context) liveOrPlaceholder(o atom.Origin, p atom.Point) bool {
	if c.isPlaceholder(o) {
		return true
	}
	m, ok := c.originLive[o]
	if !ok {
		return false
	}
	_, ok = m[p]
	return ok
}

func (c *context) isKilled(l atom.Loan, p atom.Point) bool {
	_, ok := c.killed[facts.LoanKilledAt{Loan: l, Point: p}]
	return ok
}

// subsetErrorsFrom derives subset_errors from a completed subset
// relation, shared by Naive and DatafrogOpt (§4.4's last rule).
func subsetErrorsFrom(c *context, subset []SubsetTuple) []facts.SubsetError {
	var out []facts.SubsetError
	for _, s := range subset {
		if s.O1 == s.O2 {
			continue
		}
		if !c.isPlaceholder(s.O1) || !c.isPlaceholder(s.O2) {
			continue
		}
		if c.f.KnownPlaceholderSubset.Contains(facts.KnownPlaceholderSubset{O1: s.O1, O2: s.O2}) {
			continue
		}
		out = append(out, facts.SubsetError{O1: s.O1, O2: s.O2, Point: s.Point})
	}
	return out
}

// checkInvariants verifies a postcondition no correct rule schedule can
// violate: loan_live_at only ever derives from origin_contains_loan_on_entry,
// which is itself seeded from loan_issued_at, so every live loan must trace
// back to an issuance. A violation here is a programmer bug in a join or
// projection, not a malformed-input condition (§7.4), so it is reported the
// way analyze.go reports its own "should never happen" cases: log.Panicf,
// left for the driver to recover at the per-function analysis boundary.
func checkInvariants(f *facts.AllFacts, out *Output) {
	if out.LoanLiveAt == nil {
		return
	}
	issued := make(map[atom.Loan]struct{})
	f.LoanIssuedAt.Each(func(t facts.LoanIssuedAt) { issued[t.Loan] = struct{}{} })
	f.Placeholder.Each(func(p facts.Placeholder) { issued[p.Loan] = struct{}{} })

	for _, lp := range out.LoanLiveAt {
		if _, ok := issued[lp.Loan]; !ok {
			log.Panicf("loan: %s live at %s but never issued or placeholder-declared", lp.Loan, lp.Point)
		}
	}
}

// errorsFrom derives errors(L,P) from loan_invalidated_at and
// loan_live_at, shared by every Point-sensitive variant.
func errorsFrom(f *facts.AllFacts, loanLiveAt map[LoanPoint]struct{}) []facts.AccessError {
	var out []facts.AccessError
	f.LoanInvalidatedAt.Each(func(inv facts.LoanInvalidatedAt) {
		if _, ok := loanLiveAt[LoanPoint{Loan: inv.Loan, Point: inv.Point}]; ok {
			out = append(out, facts.AccessError{Loan: inv.Loan, Point: inv.Point})
		}
	})
	return out
}
