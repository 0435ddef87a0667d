package testfmt

import (
	"sort"

	"gopkg.in/yaml.v3"

	"github.com/go-polonius/polonius/polonius"
)

// Snapshot is the canonicalized, YAML-serializable form of an Analyze
// result: every relation rendered as sorted strings rather than atoms,
// so two runs over equivalent-but-differently-ordered input produce byte
// -identical output. It is the stable, diffable golden-test format the
// CLI's --yaml_file flag writes; it holds the error relations only, not
// the intermediate relations the -v flag prints as plain text.
type Snapshot struct {
	RunID        string   `yaml:"run_id,omitempty"`
	Errors       []string `yaml:"errors,omitempty"`
	SubsetErrors []string `yaml:"subset_errors,omitempty"`
	MoveErrors   []string `yaml:"move_errors,omitempty"`
}

// Dump canonicalizes out into a Snapshot.
func Dump(out *polonius.Output) Snapshot {
	s := Snapshot{}
	for _, e := range out.Errors {
		s.Errors = append(s.Errors, e.Loan.String()+"@"+e.Point.String())
	}
	for _, e := range out.SubsetErrors {
		s.SubsetErrors = append(s.SubsetErrors, e.O1.String()+"<="+e.O2.String()+"@"+e.Point.String())
	}
	for _, e := range out.MoveErrors {
		s.MoveErrors = append(s.MoveErrors, e.Path.String()+"@"+e.Point.String())
	}
	sort.Strings(s.Errors)
	sort.Strings(s.SubsetErrors)
	sort.Strings(s.MoveErrors)
	return s
}

// Marshal renders out as YAML, for golden-file comparisons and the CLI's
// --yaml_file flag. RunID is intentionally part of the document (unlike
// the error slices it is not canonicalized away) so a golden file pins
// one specific run's identity when that matters to the test, and is
// simply omitted by callers who diff only the relations.
func Marshal(out *polonius.Output) ([]byte, error) {
	s := Dump(out)
	s.RunID = out.RunID
	return yaml.Marshal(s)
}
