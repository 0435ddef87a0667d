// Package liveness runs the backward dataflow pre-pass that derives
// origin_live_on_entry from variable use/def/drop facts when the caller
// hasn't supplied it directly. Grounded on polonius-engine's
// output/liveness.rs, reworked from leapjoins into a worklist over
// internal/queue for the same reason as the initialization package: the
// rules are plain backward propagation gated by a stable input relation.
package liveness

import (
	"github.com/go-polonius/polonius/atom"
	"github.com/go-polonius/polonius/facts"
	"github.com/go-polonius/polonius/internal/queue"
)

// Result carries both variable-level liveness (kept for debug dumps per
// §6's Output contract) and the origin-level lift the loan analysis
// actually consumes.
type Result struct {
	VarLiveOnEntry     map[atom.Variable]map[atom.Point]struct{}
	VarDropLiveOnEntry map[atom.Variable]map[atom.Point]struct{}
	OriginLiveOnEntry  []facts.OriginLiveOnEntry
}

type varPointSet struct {
	byVar map[atom.Variable]map[atom.Point]struct{}
}

func newVarPointSet() *varPointSet {
	return &varPointSet{byVar: make(map[atom.Variable]map[atom.Point]struct{})}
}

func (s *varPointSet) add(v atom.Variable, pt atom.Point) bool {
	m, ok := s.byVar[v]
	if !ok {
		m = make(map[atom.Point]struct{})
		s.byVar[v] = m
	}
	if _, ok := m[pt]; ok {
		return false
	}
	m[pt] = struct{}{}
	return true
}

func (s *varPointSet) has(v atom.Variable, pt atom.Point) bool {
	m, ok := s.byVar[v]
	if !ok {
		return false
	}
	_, ok = m[pt]
	return ok
}

type varPointKey [2]uint32

// backwardLive propagates liveness backward over the reverse of edges
// from a set of seeds, gated by gate(v, pt) at the point being entered
// (the predecessor, since we walk backward): a variable stays live
// across an edge P->Q into P only if gate(v, P) holds, mirroring
// "!var_defined_at(V, P)" in the Rust rules.
func backwardLive(reverseEdges map[atom.Point][]atom.Point, seeds map[atom.Variable][]atom.Point, gate func(atom.Variable, atom.Point) bool) *varPointSet {
	live := newVarPointSet()
	var q queue.Queue[varPointKey]
	enqueue := func(v atom.Variable, pt atom.Point) {
		if live.add(v, pt) {
			q.Push(varPointKey{uint32(v), uint32(pt)})
		}
	}

	for v, pts := range seeds {
		for _, pt := range pts {
			enqueue(v, pt)
		}
	}

	for !q.Empty() {
		k := q.Pop()
		v, pt := atom.Variable(k[0]), atom.Point(k[1])
		for _, pred := range reverseEdges[pt] {
			if gate(v, pred) {
				enqueue(v, pred)
			}
		}
	}
	return live
}

// Run computes var_live_on_entry, var_drop_live_on_entry and
// origin_live_on_entry per §4.3. varMaybeInitOnExit should be the
// initialization pre-pass's output; drop-liveness propagation is gated
// by it.
func Run(f *facts.AllFacts, varMaybeInitOnExit map[atom.Variable]map[atom.Point]struct{}) *Result {
	reverseEdges := make(map[atom.Point][]atom.Point)
	f.CFGEdge.Each(func(e facts.CFGEdge) { reverseEdges[e.Dst] = append(reverseEdges[e.Dst], e.Src) })

	defined := newVarPointSet()
	f.VarDefinedAt.Each(func(t facts.VarAtPoint) { defined.add(t.Var, t.Point) })

	// use-liveness: seeded by var_used_at, backward-propagated unless
	// the variable is (re)defined at the point being entered.
	usedSeeds := make(map[atom.Variable][]atom.Point)
	f.VarUsedAt.Each(func(t facts.VarAtPoint) { usedSeeds[t.Var] = append(usedSeeds[t.Var], t.Point) })
	varLive := backwardLive(reverseEdges, usedSeeds, func(v atom.Variable, pt atom.Point) bool {
		return !defined.has(v, pt)
	})

	// drop-liveness: seeded by var_dropped_at wherever the variable may
	// still be initialized on exit, then backward-propagated gated by
	// both !var_defined_at and var_maybe_initialized_on_exit: a dropped
	// variable needn't be kept live past a point where it's definitely
	// not initialized.
	maybeInit := func(v atom.Variable, pt atom.Point) bool {
		m, ok := varMaybeInitOnExit[v]
		if !ok {
			return false
		}
		_, ok = m[pt]
		return ok
	}

	dropSeeds := make(map[atom.Variable][]atom.Point)
	f.VarDroppedAt.Each(func(t facts.VarAtPoint) {
		if maybeInit(t.Var, t.Point) {
			dropSeeds[t.Var] = append(dropSeeds[t.Var], t.Point)
		}
	})
	varDropLive := backwardLive(reverseEdges, dropSeeds, func(v atom.Variable, pt atom.Point) bool {
		return !defined.has(v, pt) && maybeInit(v, pt)
	})

	// Lift to origins: live through use_of_var_derefs_origin, drop-live
	// through drop_of_var_derefs_origin.
	originLive := make(map[facts.OriginLiveOnEntry]struct{})
	f.UseOfVarDerefsOrigin.Each(func(d facts.VarDerefsOrigin) {
		m, ok := varLive.byVar[d.Var]
		if !ok {
			return
		}
		for pt := range m {
			originLive[facts.OriginLiveOnEntry{Origin: d.Origin, Point: pt}] = struct{}{}
		}
	})
	f.DropOfVarDerefsOrigin.Each(func(d facts.VarDerefsOrigin) {
		m, ok := varDropLive.byVar[d.Var]
		if !ok {
			return
		}
		for pt := range m {
			originLive[facts.OriginLiveOnEntry{Origin: d.Origin, Point: pt}] = struct{}{}
		}
	})

	out := make([]facts.OriginLiveOnEntry, 0, len(originLive))
	for t := range originLive {
		out = append(out, t)
	}

	return &Result{
		VarLiveOnEntry:     varLive.byVar,
		VarDropLiveOnEntry: varDropLive.byVar,
		OriginLiveOnEntry:  out,
	}
}
