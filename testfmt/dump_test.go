package testfmt

import (
	"strings"
	"testing"

	"github.com/go-polonius/polonius/loan"
	"github.com/go-polonius/polonius/polonius"
)

// A loan invalidated downstream of a placeholder origin's issuance
// should surface as a canonicalized errors entry in the YAML snapshot:
// placeholder origins are conceptually live everywhere (§3), so no
// explicit origin_live_on_entry fact is needed to trigger this.
func TestMarshalCanonicalizesErrors(t *testing.T) {
	f, err := Program(`
		placeholders { 'a }

		block B0 {
			loan_issued_at('a, L0);

			goto B1;
		}

		block B1 {
			loan_invalidated_at(L0);
		}
	`)
	if err != nil {
		t.Fatalf("Program returned an error: %v", err)
	}

	out, err := polonius.Analyze(f, polonius.Config{Variant: loan.Naive})
	if err != nil {
		t.Fatalf("Analyze returned an error: %v", err)
	}

	b, err := Marshal(out)
	if err != nil {
		t.Fatalf("Marshal returned an error: %v", err)
	}
	doc := string(b)
	if !strings.Contains(doc, "errors:") {
		t.Fatalf("YAML document missing an errors key: %q", doc)
	}
	if !strings.Contains(doc, "run_id:") {
		t.Fatalf("YAML document missing the run_id field: %q", doc)
	}
}

// Dump must be order-independent: running the same facts through Naive
// twice should canonicalize to the same relation strings even though
// map iteration order inside the solver is not guaranteed.
func TestDumpIsDeterministic(t *testing.T) {
	f, err := Program(`
		placeholders { 'a, 'b }

		block B0 {
			outlives('a: 'b);
		}
	`)
	if err != nil {
		t.Fatalf("Program returned an error: %v", err)
	}

	out1, err := polonius.Analyze(f, polonius.Config{Variant: loan.Naive})
	if err != nil {
		t.Fatalf("Analyze returned an error: %v", err)
	}
	out2, err := polonius.Analyze(f, polonius.Config{Variant: loan.Naive})
	if err != nil {
		t.Fatalf("Analyze returned an error: %v", err)
	}

	s1, s2 := Dump(out1), Dump(out2)
	if len(s1.SubsetErrors) != len(s2.SubsetErrors) {
		t.Fatalf("SubsetErrors length differs across runs: %v vs %v", s1.SubsetErrors, s2.SubsetErrors)
	}
	for i := range s1.SubsetErrors {
		if s1.SubsetErrors[i] != s2.SubsetErrors[i] {
			t.Fatalf("SubsetErrors[%d] differs: %q vs %q", i, s1.SubsetErrors[i], s2.SubsetErrors[i])
		}
	}
}
