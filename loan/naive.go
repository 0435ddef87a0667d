package loan

import (
	"github.com/go-polonius/polonius/atom"
	"github.com/go-polonius/polonius/facts"
	"github.com/go-polonius/polonius/internal/relation"
)

// RunNaive implements §4.4, the reference semantics every other variant
// is checked against. Subset reaches its own fixpoint first (its rules
// never mention origin_contains_loan_on_entry), then
// origin_contains_loan_on_entry is iterated to its fixpoint against the
// now-stable subset relation — two phases instead of one combined
// fixpoint, which is a valid semi-naive schedule since phase 2 never
// feeds back into phase 1.
func RunNaive(f *facts.AllFacts) *Output {
	c := newContext(f)

	subset := computeSubset(c)
	oclo := computeOriginContainsLoanOnEntry(c, subset)

	loanLiveAt, loanLiveAtSet := computeLoanLiveAt(c, oclo)

	return &Output{
		Errors:                    errorsFrom(f, loanLiveAtSet),
		SubsetErrors:              subsetErrorsFrom(c, subset),
		Subset:                    subset,
		OriginContainsLoanOnEntry: oclo,
		LoanLiveAt:                loanLiveAt,
	}
}

// computeSubset runs the three subset rules of §4.4 to a semi-naive
// fixpoint.
func computeSubset(c *context) []SubsetTuple {
	v := relation.NewVariable[SubsetTuple]("subset")
	it := relation.NewIteration()
	relation.Add(it, v)

	var seed []SubsetTuple
	c.f.SubsetBase.Each(func(b facts.SubsetBase) {
		seed = append(seed, SubsetTuple{O1: b.O1, O2: b.O2, Point: b.Point})
	})
	v.Insert(seed)
	it.Step() // move the seed into recent for round 1

	cfgBySrc := make(map[atom.Point][]atom.Point)
	c.f.CFGEdge.Each(func(e facts.CFGEdge) { cfgBySrc[e.Src] = append(cfgBySrc[e.Src], e.Dst) })

	for {
		recent := v.Recent()
		if len(recent) == 0 {
			break
		}
		all := v.All()

		// rule 2: subset(O1,O3,P) :- subset(O1,O2,P), subset(O2,O3,P).
		byO1Point := indexSubsetByO1Point(all)
		var joined []SubsetTuple
		for _, a := range recent {
			for _, b := range byO1Point[o1PointKey{a.O2, a.Point}] {
				joined = append(joined, SubsetTuple{O1: a.O1, O2: b.O2, Point: a.Point})
			}
		}
		byO2Point := indexSubsetByO2Point(all)
		for _, b := range recent {
			for _, a := range byO2Point[o2PointKey{b.O1, b.Point}] {
				joined = append(joined, SubsetTuple{O1: a.O1, O2: b.O2, Point: b.Point})
			}
		}

		// rule 3: subset(O1,O2,Q) :- subset(O1,O2,P), cfg_edge(P,Q),
		// live_or_placeholder(O1,Q), live_or_placeholder(O2,Q).
		for _, a := range recent {
			for _, q := range cfgBySrc[a.Point] {
				if c.liveOrPlaceholder(a.O1, q) && c.liveOrPlaceholder(a.O2, q) {
					joined = append(joined, SubsetTuple{O1: a.O1, O2: a.O2, Point: q})
				}
			}
		}

		v.Insert(joined)
		if !it.Step() {
			break
		}
	}

	return v.All()
}

type o1PointKey struct {
	O1    atom.Origin
	Point atom.Point
}

func indexSubsetByO1Point(ts []SubsetTuple) map[o1PointKey][]SubsetTuple {
	idx := make(map[o1PointKey][]SubsetTuple)
	for _, t := range ts {
		idx[o1PointKey{t.O1, t.Point}] = append(idx[o1PointKey{t.O1, t.Point}], t)
	}
	return idx
}

type o2PointKey struct {
	O2    atom.Origin
	Point atom.Point
}

func indexSubsetByO2Point(ts []SubsetTuple) map[o2PointKey][]SubsetTuple {
	idx := make(map[o2PointKey][]SubsetTuple)
	for _, t := range ts {
		idx[o2PointKey{t.O2, t.Point}] = append(idx[o2PointKey{t.O2, t.Point}], t)
	}
	return idx
}

// computeOriginContainsLoanOnEntry runs §4.4's origin_contains_loan_on_entry
// rules to a semi-naive fixpoint, against the now-stable subset relation.
func computeOriginContainsLoanOnEntry(c *context, subset []SubsetTuple) []OriginLoanPoint {
	subsetByO1Point := indexSubsetByO1Point(subset)

	cfgBySrc := make(map[atom.Point][]atom.Point)
	c.f.CFGEdge.Each(func(e facts.CFGEdge) { cfgBySrc[e.Src] = append(cfgBySrc[e.Src], e.Dst) })

	v := relation.NewVariable[OriginLoanPoint]("origin_contains_loan_on_entry")
	it := relation.NewIteration()
	relation.Add(it, v)

	var seed []OriginLoanPoint
	c.f.LoanIssuedAt.Each(func(t facts.LoanIssuedAt) {
		seed = append(seed, OriginLoanPoint{Origin: t.Origin, Loan: t.Loan, Point: t.Point})
	})
	v.Insert(seed)
	it.Step()

	for {
		recent := v.Recent()
		if len(recent) == 0 {
			break
		}

		var derived []OriginLoanPoint

		// rule 2: origin_contains_loan_on_entry(O2,L,P) :-
		// origin_contains_loan_on_entry(O1,L,P), subset(O1,O2,P).
		for _, a := range recent {
			for _, s := range subsetByO1Point[o1PointKey{a.Origin, a.Point}] {
				derived = append(derived, OriginLoanPoint{Origin: s.O2, Loan: a.Loan, Point: a.Point})
			}
		}

		// rule 3: origin_contains_loan_on_entry(O,L,Q) :-
		// origin_contains_loan_on_entry(O,L,P), !loan_killed_at(L,P),
		// cfg_edge(P,Q), live_or_placeholder(O,Q).
		for _, a := range recent {
			if c.isKilled(a.Loan, a.Point) {
				continue
			}
			for _, q := range cfgBySrc[a.Point] {
				if c.liveOrPlaceholder(a.Origin, q) {
					derived = append(derived, OriginLoanPoint{Origin: a.Origin, Loan: a.Loan, Point: q})
				}
			}
		}

		v.Insert(derived)
		if !it.Step() {
			break
		}
	}

	return v.All()
}

// computeLoanLiveAt derives loan_live_at(L,P) and returns it both as a
// slice (for debug dumps) and as a lookup set (for errors derivation).
func computeLoanLiveAt(c *context, oclo []OriginLoanPoint) ([]LoanPoint, map[LoanPoint]struct{}) {
	set := make(map[LoanPoint]struct{})
	for _, t := range oclo {
		if c.liveOrPlaceholder(t.Origin, t.Point) {
			set[LoanPoint{Loan: t.Loan, Point: t.Point}] = struct{}{}
		}
	}
	out := make([]LoanPoint, 0, len(set))
	for t := range set {
		out = append(out, t)
	}
	return out, set
}
