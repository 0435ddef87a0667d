package loan

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/go-polonius/polonius/atom"
	"github.com/go-polonius/polonius/facts"
	"github.com/go-polonius/polonius/internal/slices"
)

// §8 property 2: Naive's precise errors and subset_errors are always
// contained in LocationInsensitive's conservative potential_errors and
// potential_subset_errors.
func TestSoundnessLocationInsensitiveOverapproximates(t *testing.T) {
	const (
		a, b   atom.Origin = 0, 1
		La, Lb atom.Loan   = 0, 1
		L0     atom.Loan   = 0
		P0, P1 atom.Point  = 0, 1
	)

	scenarios := map[string]func() *facts.AllFacts{
		"S1": func() *facts.AllFacts {
			f := facts.New()
			f.LoanIssuedAt.Insert(facts.LoanIssuedAt{Origin: a, Loan: L0, Point: P0})
			f.CFGEdge.Insert(facts.CFGEdge{Src: P0, Dst: P1})
			f.OriginLiveOnEntry.Insert(facts.OriginLiveOnEntry{Origin: a, Point: P1})
			f.LoanInvalidatedAt.Insert(facts.LoanInvalidatedAt{Loan: L0, Point: P1})
			return f
		},
		"S5": func() *facts.AllFacts {
			f := facts.New()
			f.Placeholder.Insert(facts.Placeholder{Origin: a, Loan: La})
			f.Placeholder.Insert(facts.Placeholder{Origin: b, Loan: Lb})
			f.SubsetBase.Insert(facts.SubsetBase{O1: a, O2: b, Point: P0})
			return f
		},
	}

	for name, build := range scenarios {
		t.Run(name, func(t *testing.T) {
			f := build()
			naive := RunNaive(f)
			locIns := RunLocationInsensitive(f)

			assert.True(t, slices.Subset(naive.Errors, locIns.PotentialErrors),
				"errors(Naive) must be a subset of potential_errors(LocationInsensitive)")

			projected := slices.Map(naive.SubsetErrors, func(e facts.SubsetError) OriginPair {
				return OriginPair{O1: e.O1, O2: e.O2}
			})
			assert.True(t, slices.Subset(projected, locIns.PotentialSubsetErrors),
				"subset_errors(Naive) must be a subset of potential_subset_errors(LocationInsensitive)")
		})
	}
}
