// Package initialization runs the forward dataflow pre-pass that derives
// move errors and per-variable initialization status from the MovePath
// facts. Grounded on polonius-engine's output/initialization.rs, reworked
// from its leapjoin-per-relation style into a direct worklist over
// internal/queue, since the semantics are exactly "propagate a bit
// forward along cfg_edge until nothing changes".
package initialization

import (
	"github.com/go-polonius/polonius/atom"
	"github.com/go-polonius/polonius/facts"
	"github.com/go-polonius/polonius/internal/queue"
)

// Result carries everything the loan analysis and the caller need from
// the initialization pre-pass.
type Result struct {
	MoveErrors                []facts.MoveError
	VarMaybeInitializedOnExit map[atom.Variable]map[atom.Point]struct{}
}

// pathSet is a MovePath x Point relation, used internally for the four
// relations the algorithm threads through before lifting to move errors.
type pathSet struct {
	byPath map[atom.MovePath]map[atom.Point]struct{}
}

func newPathSet() *pathSet { return &pathSet{byPath: make(map[atom.MovePath]map[atom.Point]struct{})} }

func pathSetFrom(ts []facts.PathAtPoint) *pathSet {
	s := newPathSet()
	for _, t := range ts {
		s.add(t.Path, t.Point)
	}
	return s
}

func (s *pathSet) add(p atom.MovePath, pt atom.Point) {
	m, ok := s.byPath[p]
	if !ok {
		m = make(map[atom.Point]struct{})
		s.byPath[p] = m
	}
	m[pt] = struct{}{}
}

func (s *pathSet) has(p atom.MovePath, pt atom.Point) bool {
	m, ok := s.byPath[p]
	if !ok {
		return false
	}
	_, ok = m[pt]
	return ok
}

// treeIndex precomputes, for every MovePath, the set of its descendants
// (itself included) in the tree described by the Child relation. Child
// is a tree, so this is computed once by walking each node up to its
// root and memoizing, rather than as its own fixpoint.
type treeIndex struct {
	descendants map[atom.MovePath][]atom.MovePath
}

func buildTreeIndex(f *facts.AllFacts) *treeIndex {
	parent := make(map[atom.MovePath]atom.MovePath)
	f.Child.Each(func(c facts.ChildPath) { parent[c.Child] = c.Parent })

	allPaths := make(map[atom.MovePath]struct{})
	f.Child.Each(func(c facts.ChildPath) {
		allPaths[c.Child] = struct{}{}
		allPaths[c.Parent] = struct{}{}
	})
	f.PathIsAssignedAt.Each(func(p facts.PathAtPoint) { allPaths[p.Path] = struct{}{} })
	f.PathMovedAt.Each(func(p facts.PathAtPoint) { allPaths[p.Path] = struct{}{} })
	f.PathAccessedAt.Each(func(p facts.PathAtPoint) { allPaths[p.Path] = struct{}{} })
	f.PathBelongsToVar.Each(func(p facts.PathBelongsToVar) { allPaths[p.Path] = struct{}{} })

	memo := make(map[atom.MovePath][]atom.MovePath)
	var ancestorsOf func(atom.MovePath) []atom.MovePath
	ancestorsOf = func(p atom.MovePath) []atom.MovePath {
		if a, ok := memo[p]; ok {
			return a
		}
		a := []atom.MovePath{p}
		if par, ok := parent[p]; ok {
			a = append(a, ancestorsOf(par)...)
		}
		memo[p] = a
		return a
	}

	idx := &treeIndex{descendants: make(map[atom.MovePath][]atom.MovePath)}
	for p := range allPaths {
		for _, anc := range ancestorsOf(p) {
			idx.descendants[anc] = append(idx.descendants[anc], p)
		}
	}
	return idx
}

// transitive mirrors compute_transitive_paths: a write, move or access to
// a path also counts as one on every descendant path, because
// overwriting `a.b` overwrites `a.b.c` too.
func transitive(idx *treeIndex, base *pathSet) *pathSet {
	out := newPathSet()
	for p, pts := range base.byPath {
		for _, desc := range idx.descendants[p] {
			for pt := range pts {
				out.add(desc, pt)
			}
		}
	}
	return out
}

type pointKey [2]uint32

// propagateForward runs a forward worklist from seeds, following
// cfg_edge, only enqueueing a successor point2 when gate(path, point2)
// holds. Seeds are admitted unconditionally; the gate applies to every
// point reached by propagation, matching output/initialization.rs's
// antijoin against moved_out_at/initialized_at keyed on the destination
// of the edge, not its source.
func propagateForward(edges map[atom.Point][]atom.Point, seeds *pathSet, gate func(atom.MovePath, atom.Point) bool) *pathSet {
	reached := newPathSet()
	var q queue.Queue[pointKey]
	enqueue := func(p atom.MovePath, pt atom.Point) {
		if reached.has(p, pt) {
			return
		}
		reached.add(p, pt)
		q.Push(pointKey{uint32(p), uint32(pt)})
	}

	for p, pts := range seeds.byPath {
		for pt := range pts {
			enqueue(p, pt)
		}
	}
	for !q.Empty() {
		k := q.Pop()
		p, pt := atom.MovePath(k[0]), atom.Point(k[1])
		for _, succ := range edges[pt] {
			if gate(p, succ) {
				enqueue(p, succ)
			}
		}
	}
	return reached
}

// Run computes move_errors and var_maybe_initialized_on_exit per §4.2.
func Run(f *facts.AllFacts) *Result {
	idx := buildTreeIndex(f)

	assigned := transitive(idx, pathSetFrom(f.PathIsAssignedAt.Values()))
	moved := transitive(idx, pathSetFrom(f.PathMovedAt.Values()))
	accessed := transitive(idx, pathSetFrom(f.PathAccessedAt.Values()))

	edges := make(map[atom.Point][]atom.Point)
	f.CFGEdge.Each(func(e facts.CFGEdge) { edges[e.Src] = append(edges[e.Src], e.Dst) })

	// path_maybe_initialized_on_exit: seeded by assignment, propagated
	// forward unless the path is moved out at the point being entered.
	maybeInit := propagateForward(edges, assigned, func(p atom.MovePath, pt atom.Point) bool {
		return !moved.has(p, pt)
	})

	// path_maybe_moved_at: seeded by a move, propagated forward unless
	// the path is reassigned at the point being entered.
	maybeMoved := propagateForward(edges, moved, func(p atom.MovePath, pt atom.Point) bool {
		return !assigned.has(p, pt)
	})

	// path_definitely_initialized_at = maybeInit antijoin maybeMoved.
	definitelyInit := newPathSet()
	for p, pts := range maybeInit.byPath {
		for pt := range pts {
			if !maybeMoved.has(p, pt) {
				definitelyInit.add(p, pt)
			}
		}
	}

	// move_error = accessed antijoin definitelyInit: an access to a path
	// that is not definitely initialized at that point.
	var moveErrors []facts.MoveError
	for p, pts := range accessed.byPath {
		for pt := range pts {
			if !definitelyInit.has(p, pt) {
				moveErrors = append(moveErrors, facts.MoveError{Path: p, Point: pt})
			}
		}
	}

	// var_maybe_initialized_on_exit: lift maybeInit to variables through
	// path_belongs_to_var. A variable is maybe-initialized wherever any
	// path rooted at it is.
	pathVar := make(map[atom.MovePath]atom.Variable)
	f.PathBelongsToVar.Each(func(t facts.PathBelongsToVar) { pathVar[t.Path] = t.Var })

	varInit := make(map[atom.Variable]map[atom.Point]struct{})
	for p, pts := range maybeInit.byPath {
		v, ok := pathVar[p]
		if !ok {
			continue
		}
		m, ok := varInit[v]
		if !ok {
			m = make(map[atom.Point]struct{})
			varInit[v] = m
		}
		for pt := range pts {
			m[pt] = struct{}{}
		}
	}

	return &Result{MoveErrors: moveErrors, VarMaybeInitializedOnExit: varInit}
}
