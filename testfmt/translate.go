package testfmt

import (
	"fmt"

	"github.com/go-polonius/polonius/atom"
	"github.com/go-polonius/polonius/facts"
	"github.com/go-polonius/polonius/loadfacts"
)

// Program parses and translates a test program directly into an
// AllFacts, for use in this repo's own table-driven tests where writing
// out typed struct literals for every fact would bury the scenario in
// boilerplate. Grounded on program.rs's parse_from_program: Start/Mid
// point naming, cfg_edge generation, and the effect-to-relation mapping
// below are all taken from there.
//
// Unlike the upstream parser this emits var_dropped_at as its own fact
// rather than reusing UseVariable's relation; that was a bug in the
// original (see DESIGN.md), not a semantics this repo preserves.
func Program(input string) (*facts.AllFacts, error) {
	prog, err := Parse(input)
	if err != nil {
		return nil, err
	}

	tb := loadfacts.NewTables()
	f := facts.New()

	for _, ph := range prog.placeholders {
		f.Placeholder.Insert(facts.Placeholder{
			Origin: tb.Origins.Intern(ph),
			Loan:   tb.Loans.Intern(ph),
		})
	}

	for _, vo := range prog.dropOfVarDerefsOrigin {
		f.DropOfVarDerefsOrigin.Insert(facts.VarDerefsOrigin{
			Var:    tb.Variables.Intern(vo.variable),
			Origin: tb.Origins.Intern(vo.origin),
		})
	}
	for _, vo := range prog.useOfVarDerefsOrigin {
		f.UseOfVarDerefsOrigin.Insert(facts.VarDerefsOrigin{
			Var:    tb.Variables.Intern(vo.variable),
			Origin: tb.Origins.Intern(vo.origin),
		})
	}

	for _, ks := range prog.knownSubsets {
		f.KnownPlaceholderSubset.Insert(facts.KnownPlaceholderSubset{
			O1: tb.Origins.Intern(ks.a),
			O2: tb.Origins.Intern(ks.b),
		})
	}

	for _, b := range prog.blocks {
		if err := translateBlock(f, tb, b); err != nil {
			return nil, err
		}
	}

	return f, nil
}

func translateBlock(f *facts.AllFacts, tb *loadfacts.Tables, b block) error {
	for i, stmt := range b.statements {
		start := tb.Points.Intern(pointName("Start", b.name, i))
		mid := tb.Points.Intern(pointName("Mid", b.name, i))

		if i > 0 {
			prevMid := tb.Points.Intern(pointName("Mid", b.name, i-1))
			f.CFGEdge.Insert(facts.CFGEdge{Src: prevMid, Dst: start})
		}
		f.CFGEdge.Insert(facts.CFGEdge{Src: start, Dst: mid})

		for _, e := range stmt.effectsMid {
			if err := emitEffect(f, tb, e, mid); err != nil {
				return err
			}
		}
		for _, e := range stmt.effectsStart {
			if err := emitEffect(f, tb, e, start); err != nil {
				return err
			}
		}
	}

	if len(b.goTo) > 0 {
		terminatorMid := tb.Points.Intern(pointName("Mid", b.name, len(b.statements)-1))
		for _, target := range b.goTo {
			to := tb.Points.Intern(pointName("Start", target, 0))
			f.CFGEdge.Insert(facts.CFGEdge{Src: terminatorMid, Dst: to})
		}
	}

	return nil
}

func pointName(prefix, block string, stmt int) string {
	return fmt.Sprintf("%s(%s[%d])", prefix, block, stmt)
}

// emitEffect ingests one effect at the given point. A use(...) effect is
// parsed but never turned into a fact: per program.rs's emit_fact, it
// falls through the match with no relation to populate in this version
// of the schema.
func emitEffect(f *facts.AllFacts, tb *loadfacts.Tables, e effect, point atom.Point) error {
	if e.kind == effectUse {
		return nil
	}

	switch e.fact.kind {
	case factOutlives:
		f.SubsetBase.Insert(facts.SubsetBase{
			O1:    tb.Origins.Intern(e.fact.a),
			O2:    tb.Origins.Intern(e.fact.b),
			Point: point,
		})
	case factLoanIssuedAt:
		f.LoanIssuedAt.Insert(facts.LoanIssuedAt{
			Origin: tb.Origins.Intern(e.fact.origin),
			Loan:   tb.Loans.Intern(e.fact.loan),
			Point:  point,
		})
	case factLoanInvalidatedAt:
		f.LoanInvalidatedAt.Insert(facts.LoanInvalidatedAt{Loan: tb.Loans.Intern(e.fact.loan), Point: point})
	case factLoanKilledAt:
		f.LoanKilledAt.Insert(facts.LoanKilledAt{Loan: tb.Loans.Intern(e.fact.loan), Point: point})
	case factVarUsedAt:
		f.VarUsedAt.Insert(facts.VarAtPoint{Var: tb.Variables.Intern(e.fact.variable), Point: point})
	case factVarDefinedAt:
		f.VarDefinedAt.Insert(facts.VarAtPoint{Var: tb.Variables.Intern(e.fact.variable), Point: point})
	case factVarDroppedAt:
		f.VarDroppedAt.Insert(facts.VarAtPoint{Var: tb.Variables.Intern(e.fact.variable), Point: point})
	case factOriginLiveOnEntry:
		// Purely textual-grammar compatibility: this falls through to a
		// no-op in the upstream translator too, since origin_live_on_entry
		// is derived by the liveness pre-pass rather than accepted as a
		// direct input in this version of the schema.
	default:
		return fmt.Errorf("testfmt: unhandled fact kind %d", e.fact.kind)
	}
	return nil
}
