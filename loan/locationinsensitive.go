package loan

import (
	"github.com/go-polonius/polonius/atom"
	"github.com/go-polonius/polonius/facts"
	"github.com/go-polonius/polonius/internal/maps"
)

// RunLocationInsensitive implements §4.5: drop the Point column from
// subset, approximate loan containment flow-insensitively, and use the
// result as a cheap pre-pass. Grounded on
// polonius-engine's output/location_insensitive.rs — translated closely,
// since that source is already a plain fixpoint over two small
// relations with no leapjoin machinery worth reworking.
func RunLocationInsensitive(f *facts.AllFacts) *Output {
	c := newContext(f)
	knownContains := computeKnownContains(f)

	subset := make(map[atom.Origin]map[atom.Origin]struct{})
	addSubset := func(o1, o2 atom.Origin) bool {
		m, ok := subset[o1]
		if !ok {
			m = make(map[atom.Origin]struct{})
			subset[o1] = m
		}
		if _, ok := m[o2]; ok {
			return false
		}
		m[o2] = struct{}{}
		return true
	}
	f.SubsetBase.Each(func(b facts.SubsetBase) { addSubset(b.O1, b.O2) })

	containsLoan := make(map[atom.Origin]map[atom.Loan]struct{})
	addContains := func(o atom.Origin, l atom.Loan) bool {
		m, ok := containsLoan[o]
		if !ok {
			m = make(map[atom.Loan]struct{})
			containsLoan[o] = m
		}
		if _, ok := m[l]; ok {
			return false
		}
		m[l] = struct{}{}
		return true
	}
	f.LoanIssuedAt.Each(func(t facts.LoanIssuedAt) { addContains(t.Origin, t.Loan) })
	// Extra rule (§4.5): a placeholder origin contains its own
	// placeholder loan from the start, with no issuance event needed.
	f.Placeholder.Each(func(p facts.Placeholder) { addContains(p.Origin, p.Loan) })

	for {
		changed := false

		// origin_contains_loan(o2,l) :- origin_contains_loan(o1,l), subset(o1,o2).
		for o1, loans := range containsLoan {
			for o2 := range subset[o1] {
				for l := range loans {
					if addContains(o2, l) {
						changed = true
					}
				}
			}
		}

		if !changed {
			break
		}
	}

	// maps.Keys gives a stable snapshot of the origins seen so far before
	// we start asking liveness questions about them.
	var potentialErrors []facts.AccessError
	f.LoanInvalidatedAt.Each(func(inv facts.LoanInvalidatedAt) {
		for _, o := range maps.Keys(containsLoan) {
			if _, ok := containsLoan[o][inv.Loan]; ok && c.liveOrPlaceholder(o, inv.Point) {
				potentialErrors = append(potentialErrors, facts.AccessError{Loan: inv.Loan, Point: inv.Point})
				return
			}
		}
	})

	// potential_subset_errors(o1,o2) :- placeholder(o1,l1), placeholder(o2,_),
	// origin_contains_loan(o2,l1), !known_contains(o2,l1), o1 != o2.
	seen := make(map[OriginPair]struct{})
	var potentialSubsetErrors []OriginPair
	f.Placeholder.Each(func(p1 facts.Placeholder) {
		f.Placeholder.Each(func(p2 facts.Placeholder) {
			if p1.Origin == p2.Origin {
				return
			}
			if _, ok := containsLoan[p2.Origin][p1.Loan]; !ok {
				return
			}
			if _, ok := knownContains[p2.Origin][p1.Loan]; ok {
				return
			}
			pair := OriginPair{O1: p1.Origin, O2: p2.Origin}
			if _, ok := seen[pair]; ok {
				return
			}
			seen[pair] = struct{}{}
			potentialSubsetErrors = append(potentialSubsetErrors, pair)
		})
	})

	return &Output{
		PotentialErrors:       potentialErrors,
		PotentialSubsetErrors: potentialSubsetErrors,
	}
}

// computeKnownContains is the transitive closure of
// known_placeholder_subset seeded by placeholder, shared by
// LocationInsensitive's soundness check. Grounded on
// polonius-engine's Output::compute_known_contains.
func computeKnownContains(f *facts.AllFacts) map[atom.Origin]map[atom.Loan]struct{} {
	known := make(map[atom.Origin]map[atom.Loan]struct{})
	add := func(o atom.Origin, l atom.Loan) bool {
		m, ok := known[o]
		if !ok {
			m = make(map[atom.Loan]struct{})
			known[o] = m
		}
		if _, ok := m[l]; ok {
			return false
		}
		m[l] = struct{}{}
		return true
	}
	f.Placeholder.Each(func(p facts.Placeholder) { add(p.Origin, p.Loan) })

	subset := make(map[atom.Origin][]atom.Origin)
	f.KnownPlaceholderSubset.Each(func(k facts.KnownPlaceholderSubset) {
		subset[k.O1] = append(subset[k.O1], k.O2)
	})

	for {
		changed := false
		for o1, loans := range known {
			for _, o2 := range subset[o1] {
				for l := range loans {
					if add(o2, l) {
						changed = true
					}
				}
			}
		}
		if !changed {
			break
		}
	}
	return known
}
