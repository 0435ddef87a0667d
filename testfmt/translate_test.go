package testfmt

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// Mirrors program.rs's complete_program test: a two-block program
// exercising placeholders, both Start- and Mid-point facts, and the
// cfg_edge generation rules (intra-statement, inter-statement, goto).
func TestProgramCompleteProgram(t *testing.T) {
	program := `
		placeholders { 'a, 'b, 'c }

		block B0 {
			loan_invalidated_at(L0);

			loan_invalidated_at(L1), origin_live_on_entry('d) / loan_killed_at(L2);

			goto B1;
		}

		block B1 {
			use('a, 'b), outlives('a: 'b), loan_issued_at('b, L1);
		}
	`

	f, err := Program(program)
	require.NoError(t, err)

	assert.Equal(t, 3, f.Placeholder.Len())

	assert.Equal(t, 2, f.LoanInvalidatedAt.Len())
	assert.Equal(t, 1, f.LoanKilledAt.Len())
	assert.Equal(t, 1, f.SubsetBase.Len())
	assert.Equal(t, 1, f.LoanIssuedAt.Len())

	// 6 points (3 statements * 2 points), 5 edges including the goto.
	assert.Equal(t, 5, f.CFGEdge.Len())
}

func TestProgramKnownSubsetsSuppressError(t *testing.T) {
	program := `
		placeholders { 'a, 'b }
		known_subsets { 'a: 'b }

		block B0 {
			outlives('a: 'b);
		}
	`

	f, err := Program(program)
	require.NoError(t, err)
	assert.Equal(t, 1, f.KnownPlaceholderSubset.Len())
}

func TestProgramRejectsGarbage(t *testing.T) {
	_, err := Program("not a program at all")
	assert.Error(t, err)
}
