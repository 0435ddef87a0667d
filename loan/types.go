package loan

import "github.com/go-polonius/polonius/atom"

// SubsetTuple is the intermediate `subset` relation: O1 is a subset of O2
// at Point.
type SubsetTuple struct {
	O1, O2 atom.Origin
	Point  atom.Point
}

// OriginLoanPoint is `origin_contains_loan_on_entry`.
type OriginLoanPoint struct {
	Origin atom.Origin
	Loan   atom.Loan
	Point  atom.Point
}

// LoanPoint is `loan_live_at`.
type LoanPoint struct {
	Loan  atom.Loan
	Point atom.Point
}

// OriginPair is an origin pair without a Point column; LocationInsensitive
// reports its potential_subset_errors in this form.
type OriginPair struct{ O1, O2 atom.Origin }

// OriginLoan is the tuple shape of `origin_contains_loan`, the
// point-insensitive relation; LocationInsensitive keeps that relation in
// a nested map rather than as OriginLoan values.
type OriginLoan struct {
	Origin atom.Origin
	Loan   atom.Loan
}
