// Package loadfacts reads a directory of `<relation>.facts` TSV files
// into an AllFacts store, interning the quoted string tokens to atoms.
// It is an external collaborator per spec §1/§6: the core never parses
// text, this package is what makes the driver runnable end to end from
// the command line. Grounded on polonius-engine's tab_delim.rs, reworked
// from its per-arity FromTabDelimited trait impls into a single
// reflection-free loader keyed by relation name, since Go has no trait
// impls to hang arity-specific parsing off of.
package loadfacts

import (
	"bufio"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/go-polonius/polonius/atom"
	"github.com/go-polonius/polonius/facts"
)

// ErrUnknownRelation is returned when a directory contains a
// `<name>.facts` file for a relation outside the fixed schema.
var ErrUnknownRelation = errors.New("loadfacts: unknown relation")

// ErrMalformedFact is returned when a `.facts` line has the wrong number
// of tab-separated fields for its relation's arity.
var ErrMalformedFact = errors.New("loadfacts: malformed fact line")

// Tables interns every atom kind seen while loading. A caller analyzing
// several functions from the same compilation unit can share one Tables
// across directories so cross-function atom identities line up; a
// caller analyzing one function in isolation can just build a fresh one.
type Tables struct {
	Origins   *atom.Interner[atom.Origin]
	Loans     *atom.Interner[atom.Loan]
	Points    *atom.Interner[atom.Point]
	Variables *atom.Interner[atom.Variable]
	Paths     *atom.Interner[atom.MovePath]
}

// NewTables returns a fresh, empty set of interners.
func NewTables() *Tables {
	return &Tables{
		Origins:   atom.NewInterner[atom.Origin](),
		Loans:     atom.NewInterner[atom.Loan](),
		Points:    atom.NewInterner[atom.Point](),
		Variables: atom.NewInterner[atom.Variable](),
		Paths:     atom.NewInterner[atom.MovePath](),
	}
}

// Dir loads every `<relation>.facts` file found directly under dir into
// an AllFacts store. Relations with no file present are left empty
// (§7.2 schema errors: the loader substitutes an empty set).
func Dir(dir string, tables *Tables) (*facts.AllFacts, error) {
	f := facts.New()

	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("loadfacts: reading %s: %w", dir, err)
	}

	for _, e := range entries {
		if e.IsDir() || !strings.HasSuffix(e.Name(), ".facts") {
			continue
		}
		name := strings.TrimSuffix(e.Name(), ".facts")
		path := filepath.Join(dir, e.Name())
		if err := loadRelation(f, tables, name, path); err != nil {
			return nil, err
		}
	}

	return f, nil
}

func loadRelation(f *facts.AllFacts, tb *Tables, name, path string) error {
	file, err := os.Open(path)
	if err != nil {
		return fmt.Errorf("loadfacts: opening %s: %w", path, err)
	}
	defer file.Close()

	scanner := bufio.NewScanner(file)
	lineNo := 0
	for scanner.Scan() {
		lineNo++
		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}
		fields, err := splitFields(line)
		if err != nil {
			return fmt.Errorf("loadfacts: %s:%d: %w", path, lineNo, err)
		}
		if err := ingest(f, tb, name, fields); err != nil {
			return fmt.Errorf("loadfacts: %s:%d: %w", path, lineNo, err)
		}
	}
	if err := scanner.Err(); err != nil {
		return fmt.Errorf("loadfacts: reading %s: %w", path, err)
	}
	return nil
}

// splitFields splits a tab-delimited line and strips the surrounding
// quotes each field carries (§6: "each field a quoted string token").
func splitFields(line string) ([]string, error) {
	raw := strings.Split(line, "\t")
	out := make([]string, len(raw))
	for i, r := range raw {
		unquoted, err := strconv.Unquote(r)
		if err != nil {
			// Not every fact file quotes plain numeric loan/point
			// names; fall back to the raw field.
			unquoted = r
		}
		out[i] = unquoted
	}
	return out, nil
}

func ingest(f *facts.AllFacts, tb *Tables, relation string, fields []string) error {
	arity := func(n int) error {
		if len(fields) != n {
			return fmt.Errorf("%w: relation %s wants %d fields, got %d", ErrMalformedFact, relation, n, len(fields))
		}
		return nil
	}

	switch relation {
	case "cfg_edge":
		if err := arity(2); err != nil {
			return err
		}
		f.CFGEdge.Insert(facts.CFGEdge{Src: tb.Points.Intern(fields[0]), Dst: tb.Points.Intern(fields[1])})
	case "loan_issued_at":
		if err := arity(3); err != nil {
			return err
		}
		f.LoanIssuedAt.Insert(facts.LoanIssuedAt{
			Origin: tb.Origins.Intern(fields[0]),
			Loan:   tb.Loans.Intern(fields[1]),
			Point:  tb.Points.Intern(fields[2]),
		})
	case "loan_killed_at":
		if err := arity(2); err != nil {
			return err
		}
		f.LoanKilledAt.Insert(facts.LoanKilledAt{Loan: tb.Loans.Intern(fields[0]), Point: tb.Points.Intern(fields[1])})
	case "loan_invalidated_at":
		if err := arity(2); err != nil {
			return err
		}
		f.LoanInvalidatedAt.Insert(facts.LoanInvalidatedAt{Loan: tb.Loans.Intern(fields[0]), Point: tb.Points.Intern(fields[1])})
	case "subset_base":
		if err := arity(3); err != nil {
			return err
		}
		f.SubsetBase.Insert(facts.SubsetBase{
			O1:    tb.Origins.Intern(fields[0]),
			O2:    tb.Origins.Intern(fields[1]),
			Point: tb.Points.Intern(fields[2]),
		})
	case "placeholder":
		if err := arity(2); err != nil {
			return err
		}
		f.Placeholder.Insert(facts.Placeholder{Origin: tb.Origins.Intern(fields[0]), Loan: tb.Loans.Intern(fields[1])})
	case "known_placeholder_subset":
		if err := arity(2); err != nil {
			return err
		}
		f.KnownPlaceholderSubset.Insert(facts.KnownPlaceholderSubset{O1: tb.Origins.Intern(fields[0]), O2: tb.Origins.Intern(fields[1])})
	case "origin_live_on_entry":
		if err := arity(2); err != nil {
			return err
		}
		f.OriginLiveOnEntry.Insert(facts.OriginLiveOnEntry{Origin: tb.Origins.Intern(fields[0]), Point: tb.Points.Intern(fields[1])})
	case "var_used_at":
		if err := arity(2); err != nil {
			return err
		}
		f.VarUsedAt.Insert(facts.VarAtPoint{Var: tb.Variables.Intern(fields[0]), Point: tb.Points.Intern(fields[1])})
	case "var_defined_at":
		if err := arity(2); err != nil {
			return err
		}
		f.VarDefinedAt.Insert(facts.VarAtPoint{Var: tb.Variables.Intern(fields[0]), Point: tb.Points.Intern(fields[1])})
	case "var_dropped_at":
		if err := arity(2); err != nil {
			return err
		}
		f.VarDroppedAt.Insert(facts.VarAtPoint{Var: tb.Variables.Intern(fields[0]), Point: tb.Points.Intern(fields[1])})
	case "use_of_var_derefs_origin":
		if err := arity(2); err != nil {
			return err
		}
		f.UseOfVarDerefsOrigin.Insert(facts.VarDerefsOrigin{Var: tb.Variables.Intern(fields[0]), Origin: tb.Origins.Intern(fields[1])})
	case "drop_of_var_derefs_origin":
		if err := arity(2); err != nil {
			return err
		}
		f.DropOfVarDerefsOrigin.Insert(facts.VarDerefsOrigin{Var: tb.Variables.Intern(fields[0]), Origin: tb.Origins.Intern(fields[1])})
	case "child":
		if err := arity(2); err != nil {
			return err
		}
		f.Child.Insert(facts.ChildPath{Child: tb.Paths.Intern(fields[0]), Parent: tb.Paths.Intern(fields[1])})
	case "path_is_assigned_at":
		if err := arity(2); err != nil {
			return err
		}
		f.PathIsAssignedAt.Insert(facts.PathAtPoint{Path: tb.Paths.Intern(fields[0]), Point: tb.Points.Intern(fields[1])})
	case "path_moved_at":
		if err := arity(2); err != nil {
			return err
		}
		f.PathMovedAt.Insert(facts.PathAtPoint{Path: tb.Paths.Intern(fields[0]), Point: tb.Points.Intern(fields[1])})
	case "path_accessed_at":
		if err := arity(2); err != nil {
			return err
		}
		f.PathAccessedAt.Insert(facts.PathAtPoint{Path: tb.Paths.Intern(fields[0]), Point: tb.Points.Intern(fields[1])})
	case "path_belongs_to_var":
		if err := arity(2); err != nil {
			return err
		}
		f.PathBelongsToVar.Insert(facts.PathBelongsToVar{Path: tb.Paths.Intern(fields[0]), Var: tb.Variables.Intern(fields[1])})
	default:
		return fmt.Errorf("%w: %s", ErrUnknownRelation, relation)
	}
	return nil
}
