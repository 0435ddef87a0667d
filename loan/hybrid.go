package loan

import "github.com/go-polonius/polonius/facts"

// RunHybrid implements §4.7, the default variant: run LocationInsensitive
// first: if it finds neither potential errors nor potential subset
// errors, the expensive closure can't find real ones either (§8
// property 2, soundness of approximation), so return empty outputs
// without paying for DatafrogOpt. Otherwise run DatafrogOpt and return
// its outputs.
func RunHybrid(f *facts.AllFacts) *Output {
	pre := RunLocationInsensitive(f)
	if len(pre.PotentialErrors) == 0 && len(pre.PotentialSubsetErrors) == 0 {
		return &Output{
			PotentialErrors:       pre.PotentialErrors,
			PotentialSubsetErrors: pre.PotentialSubsetErrors,
		}
	}

	out := RunDatafrogOpt(f)
	out.PotentialErrors = pre.PotentialErrors
	out.PotentialSubsetErrors = pre.PotentialSubsetErrors
	return out
}
