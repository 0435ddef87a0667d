package main

import (
	"fmt"
	"log"
	"os"
	"runtime/pprof"
	"sort"

	"github.com/spf13/cobra"

	"github.com/go-polonius/polonius/atom"
	"github.com/go-polonius/polonius/facts"
	"github.com/go-polonius/polonius/graphviz"
	"github.com/go-polonius/polonius/loadfacts"
	"github.com/go-polonius/polonius/loan"
	"github.com/go-polonius/polonius/polonius"
	"github.com/go-polonius/polonius/testfmt"
)

var (
	cpuprofile   string
	variantFlag  string
	showTuples   bool
	verbose      bool
	graphvizFile string
	yamlFile     string
)

func init() {
	log.SetFlags(log.Ltime | log.Lshortfile)
}

func main() {
	root := &cobra.Command{
		Use:   "polonius <fact-dir>...",
		Short: "Run the alias-based borrow-check solver over one or more fact directories",
		Args:  cobra.MinimumNArgs(1),
		RunE:  run,
	}

	root.Flags().StringVarP(&variantFlag, "variant", "a", "Hybrid",
		"analysis variant: Naive|LocationInsensitive|DatafrogOpt|Hybrid|Compare")
	root.Flags().BoolVar(&showTuples, "show-tuples", false, "print the error relations to stdout")
	root.Flags().BoolVarP(&verbose, "verbose", "v", false, "dump intermediate relations")
	root.Flags().StringVar(&graphvizFile, "graphviz_file", "", "emit a GraphViz rendering of the CFG to this path")
	root.Flags().StringVar(&yamlFile, "yaml_file", "", "emit a canonicalized YAML snapshot of the error relations to this path")
	root.Flags().StringVar(&cpuprofile, "cpuprofile", "", "write cpu profile to `file`")

	if err := root.Execute(); err != nil {
		log.Fatalf("polonius: %v", err)
	}
}

func run(_ *cobra.Command, args []string) error {
	if cpuprofile != "" {
		f, err := os.Create(cpuprofile)
		if err != nil {
			return fmt.Errorf("could not create CPU profile: %w", err)
		}
		defer f.Close()
		if err := pprof.StartCPUProfile(f); err != nil {
			return fmt.Errorf("could not start CPU profile: %w", err)
		}
		defer pprof.StopCPUProfile()
	}

	if variantFlag == "Compare" {
		for _, dir := range args {
			if err := runCompare(dir); err != nil {
				log.Printf("%s: %v", dir, err)
			}
		}
		return nil
	}

	variant, err := loan.ParseVariant(variantFlag)
	if err != nil {
		return err
	}

	for _, dir := range args {
		if err := runOne(dir, variant); err != nil {
			// Input/parse errors abort this function's analysis but not the
			// process (spec §7's propagation policy): log and keep going.
			log.Printf("%s: %v", dir, err)
		}
	}
	return nil
}

func runOne(dir string, variant loan.Variant) error {
	tb := loadfacts.NewTables()
	f, err := loadfacts.Dir(dir, tb)
	if err != nil {
		return err
	}

	out, err := polonius.Analyze(f, polonius.Config{Variant: variant})
	if err != nil {
		return err
	}

	report(dir, out)

	if verbose {
		dumpIntermediate(out)
	}

	if graphvizFile != "" {
		if err := writeGraphviz(graphvizFile, f, out.Loan, tb); err != nil {
			return err
		}
	}

	if yamlFile != "" {
		if err := writeYAML(yamlFile, out); err != nil {
			return err
		}
	}

	return nil
}

// runCompare runs Naive and DatafrogOpt over the same facts and reports
// any disagreement, the concrete shape of the variant-agreement testable
// property (spec §8.1) exposed as a CLI mode.
func runCompare(dir string) error {
	tb := loadfacts.NewTables()
	f, err := loadfacts.Dir(dir, tb)
	if err != nil {
		return err
	}

	naive, err := polonius.Analyze(f, polonius.Config{Variant: loan.Naive})
	if err != nil {
		return err
	}
	opt, err := polonius.Analyze(f, polonius.Config{Variant: loan.DatafrogOpt})
	if err != nil {
		return err
	}

	report(dir+" (Naive)", naive)
	report(dir+" (DatafrogOpt)", opt)

	if !sameErrors(naive.Errors, opt.Errors) {
		fmt.Printf("%s: Naive and DatafrogOpt disagree on errors\n", dir)
	}
	if !sameSubsetErrors(naive.SubsetErrors, opt.SubsetErrors) {
		fmt.Printf("%s: Naive and DatafrogOpt disagree on subset_errors\n", dir)
	}
	return nil
}

func report(label string, out *polonius.Output) {
	if !showTuples {
		return
	}
	fmt.Printf("== %s [run %s] ==\n", label, out.RunID)
	for _, e := range sortedAccessErrors(out.Errors) {
		fmt.Printf("errors(%s, %s)\n", e.Loan, e.Point)
	}
	for _, e := range sortedSubsetErrors(out.SubsetErrors) {
		fmt.Printf("subset_errors(%s, %s, %s)\n", e.O1, e.O2, e.Point)
	}
	for _, e := range out.MoveErrors {
		fmt.Printf("move_errors(%s, %s)\n", e.Path, e.Point)
	}
}

func dumpIntermediate(out *polonius.Output) {
	if out.Loan != nil {
		for _, s := range out.Loan.Subset {
			fmt.Printf("subset(%s, %s, %s)\n", s.O1, s.O2, s.Point)
		}
		for _, s := range out.Loan.OriginContainsLoanOnEntry {
			fmt.Printf("origin_contains_loan_on_entry(%s, %s, %s)\n", s.Origin, s.Loan, s.Point)
		}
		for _, s := range out.Loan.LoanLiveAt {
			fmt.Printf("loan_live_at(%s, %s)\n", s.Loan, s.Point)
		}
	}
	if out.Liveness != nil {
		for v, pts := range out.Liveness.VarLiveOnEntry {
			for pt := range pts {
				fmt.Printf("var_live_on_entry(%s, %s)\n", v, pt)
			}
		}
		for v, pts := range out.Liveness.VarDropLiveOnEntry {
			for pt := range pts {
				fmt.Printf("var_drop_live_on_entry(%s, %s)\n", v, pt)
			}
		}
	}
}

func writeYAML(path string, out *polonius.Output) error {
	b, err := testfmt.Marshal(out)
	if err != nil {
		return err
	}
	return os.WriteFile(path, b, 0o644)
}

func writeGraphviz(path string, f *facts.AllFacts, loanOut *loan.Output, tb *loadfacts.Tables) error {
	file, err := os.Create(path)
	if err != nil {
		return err
	}
	defer file.Close()

	g := graphviz.Build(f, loanOut, func(p atom.Point) string { return tb.Points.Name(p) })
	return graphviz.Write(file, g)
}

func sameErrors(a, b []facts.AccessError) bool {
	return sameSet(sortedAccessErrors(a), sortedAccessErrors(b))
}

func sameSubsetErrors(a, b []facts.SubsetError) bool {
	as, bs := sortedSubsetErrors(a), sortedSubsetErrors(b)
	if len(as) != len(bs) {
		return false
	}
	for i := range as {
		if as[i] != bs[i] {
			return false
		}
	}
	return true
}

func sameSet(a, b []facts.AccessError) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}

func sortedAccessErrors(es []facts.AccessError) []facts.AccessError {
	out := append([]facts.AccessError(nil), es...)
	sort.Slice(out, func(i, j int) bool {
		if out[i].Loan != out[j].Loan {
			return out[i].Loan < out[j].Loan
		}
		return out[i].Point < out[j].Point
	})
	return out
}

func sortedSubsetErrors(es []facts.SubsetError) []facts.SubsetError {
	out := append([]facts.SubsetError(nil), es...)
	sort.Slice(out, func(i, j int) bool {
		if out[i].O1 != out[j].O1 {
			return out[i].O1 < out[j].O1
		}
		if out[i].O2 != out[j].O2 {
			return out[i].O2 < out[j].O2
		}
		return out[i].Point < out[j].Point
	})
	return out
}
