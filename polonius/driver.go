// Package polonius is the public entry point: it orchestrates the
// per-function analysis state machine described in §4.8 — load facts,
// run initialization, run liveness if not supplied, run the chosen loan
// variant, return Output — the way the teacher's top-level pointer
// package exposes a single Analyze function over an AnalysisConfig.
package polonius

import (
	"fmt"

	"github.com/google/uuid"

	"github.com/go-polonius/polonius/atom"
	"github.com/go-polonius/polonius/facts"
	"github.com/go-polonius/polonius/initialization"
	"github.com/go-polonius/polonius/liveness"
	"github.com/go-polonius/polonius/loan"
)

// Stage names the driver's state machine per §4.8.
type Stage int

const (
	Created Stage = iota
	FactsLoaded
	InitDone
	LivenessDone
	LoanDone
	Reported
)

func (s Stage) String() string {
	return [...]string{"CREATED", "FACTS_LOADED", "INIT_DONE", "LIVENESS_DONE", "LOAN_DONE", "REPORTED"}[s]
}

// Config selects the variant and lets a caller pre-supply pre-pass
// outputs that would otherwise be derived, per §4.8 ("each transition
// may be skipped if its outputs were supplied directly as inputs").
type Config struct {
	Variant loan.Variant

	// SkipInitialization, when true, leaves move-error derivation out of
	// this run — used when a caller already has move_errors from
	// elsewhere and only wants loan analysis.
	SkipInitialization bool

	// SkipLiveness, when true, trusts Facts.OriginLiveOnEntry as already
	// complete instead of deriving it from var used/def/drop facts.
	SkipLiveness bool
}

// Output is the driver's deliverable: the three error relations plus
// whatever pre-pass results were computed, for debug dumps (§6).
type Output struct {
	Stage Stage

	// RunID correlates one Analyze call across the CLI's dumps when a
	// single invocation batches several fact directories (§6): it heads
	// the --show-tuples report and is written into the --yaml_file
	// snapshot. The --graphviz_file output does not carry it. It is not
	// an atom: atoms stay small dense integers per §3/§9, this is purely
	// a run-level label.
	RunID string

	Errors       []facts.AccessError
	SubsetErrors []facts.SubsetError
	MoveErrors   []facts.MoveError

	Init     *initialization.Result
	Liveness *liveness.Result
	Loan     *loan.Output
}

// Analyze runs one function's facts through the full driver state
// machine and returns the completed Output. Any computation error is
// wrapped with the stage it occurred at, per §7's propagation policy:
// fatal for this function, never a process crash. An internal invariant
// violation (§7.4) surfaces as a log.Panicf from deeper in the solver;
// Analyze is the recovery boundary that turns it into an error here
// rather than letting it reach the caller, so one bad function analysis
// never takes the whole process down.
func Analyze(f *facts.AllFacts, cfg Config) (out *Output, err error) {
	defer func() {
		if r := recover(); r != nil {
			stage := Created
			if out != nil {
				stage = out.Stage
			}
			out, err = nil, fmt.Errorf("stage %s: internal invariant violation: %v", stage, r)
		}
	}()

	out = &Output{Stage: FactsLoaded, RunID: uuid.NewString()}

	varMaybeInit := map[atom.Variable]map[atom.Point]struct{}{}
	if !cfg.SkipInitialization {
		out.Init = initialization.Run(f)
		out.MoveErrors = out.Init.MoveErrors
		varMaybeInit = out.Init.VarMaybeInitializedOnExit
	}
	out.Stage = InitDone

	if !cfg.SkipLiveness {
		out.Liveness = liveness.Run(f, varMaybeInit)

		merged := f.OriginLiveOnEntry.Clone()
		merged.InsertAll(out.Liveness.OriginLiveOnEntry)
		f = f.WithOriginLiveOnEntry(merged)
	}
	out.Stage = LivenessDone

	loanOut, err := loan.Solve(f, cfg.Variant)
	if err != nil {
		return out, fmt.Errorf("stage %s: %w", LivenessDone, err)
	}
	out.Loan = loanOut
	out.Errors = loanOut.Errors
	out.SubsetErrors = loanOut.SubsetErrors
	out.Stage = LoanDone

	out.Stage = Reported
	return out, nil
}
