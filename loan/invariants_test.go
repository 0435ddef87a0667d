package loan

import (
	"strings"
	"testing"

	"github.com/go-polonius/polonius/atom"
	"github.com/go-polonius/polonius/facts"
)

// checkInvariants should accept an Output whose loan_live_at loans all
// trace back to an issuance or a placeholder declaration.
func TestCheckInvariantsAcceptsIssuedLoan(t *testing.T) {
	f := facts.New()
	f.LoanIssuedAt.Insert(facts.LoanIssuedAt{Origin: 0, Loan: 0, Point: 0})

	out := &Output{LoanLiveAt: []LoanPoint{{Loan: 0, Point: 0}}}
	checkInvariants(f, out) // must not panic
}

// A placeholder's own loan counts as issued even with no loan_issued_at
// fact, per §4.5's placeholder-contains-its-own-loan rule.
func TestCheckInvariantsAcceptsPlaceholderLoan(t *testing.T) {
	f := facts.New()
	f.Placeholder.Insert(facts.Placeholder{Origin: 0, Loan: 0})

	out := &Output{LoanLiveAt: []LoanPoint{{Loan: 0, Point: 0}}}
	checkInvariants(f, out) // must not panic
}

// A LoanLiveAt entry for a loan with no matching issuance anywhere is
// exactly the programmer-bug condition §7.4 calls an internal invariant
// violation: checkInvariants must log.Panicf rather than silently accept
// it.
func TestCheckInvariantsPanicsOnUntracedLoan(t *testing.T) {
	f := facts.New()

	out := &Output{LoanLiveAt: []LoanPoint{{Loan: atom.Loan(7), Point: 0}}}

	defer func() {
		r := recover()
		if r == nil {
			t.Fatal("checkInvariants should panic on a live loan with no issuance")
		}
		if !strings.Contains(r.(string), "L7") {
			t.Fatalf("panic message = %q, want it to name the offending loan", r)
		}
	}()
	checkInvariants(f, out)
}

// A variant that leaves LoanLiveAt nil (LocationInsensitive) has nothing
// for checkInvariants to verify.
func TestCheckInvariantsSkipsNilLoanLiveAt(t *testing.T) {
	f := facts.New()
	checkInvariants(f, &Output{}) // must not panic
}
