package loan

import (
	"fmt"

	"github.com/go-polonius/polonius/facts"
)

// Variant is a tagged selection of loan-analysis algorithm, not
// polymorphism over relation types (§9 "Variant registry"): the driver
// calls exactly one Solve per analysis.
type Variant int

const (
	Naive Variant = iota
	LocationInsensitive
	DatafrogOpt
	Hybrid
)

func (v Variant) String() string {
	switch v {
	case Naive:
		return "Naive"
	case LocationInsensitive:
		return "LocationInsensitive"
	case DatafrogOpt:
		return "DatafrogOpt"
	case Hybrid:
		return "Hybrid"
	default:
		return fmt.Sprintf("Variant(%d)", int(v))
	}
}

// ErrUnknownVariant is returned by Solve for any Variant value outside
// the four named constants.
var ErrUnknownVariant = fmt.Errorf("loan: unknown variant")

// Solve dispatches to the chosen variant's Run function.
func Solve(f *facts.AllFacts, v Variant) (*Output, error) {
	var out *Output
	switch v {
	case Naive:
		out = RunNaive(f)
	case LocationInsensitive:
		out = RunLocationInsensitive(f)
	case DatafrogOpt:
		out = RunDatafrogOpt(f)
	case Hybrid:
		out = RunHybrid(f)
	default:
		return nil, fmt.Errorf("%w: %d", ErrUnknownVariant, int(v))
	}
	checkInvariants(f, out)
	return out, nil
}

// ParseVariant accepts the CLI's `-a` flag values that name a Variant.
// The Compare pseudo-variant isn't itself a Variant (it runs Naive and
// DatafrogOpt and diffs); cmd/polonius handles it before calling
// ParseVariant, and ParseVariant rejects it with ErrUnknownVariant.
func ParseVariant(s string) (Variant, error) {
	switch s {
	case "Naive":
		return Naive, nil
	case "LocationInsensitive":
		return LocationInsensitive, nil
	case "DatafrogOpt":
		return DatafrogOpt, nil
	case "Hybrid":
		return Hybrid, nil
	default:
		return 0, fmt.Errorf("%w: %q", ErrUnknownVariant, s)
	}
}
