// Package relation implements the tiny join engine the solver runs its
// rules through: sorted sets of tuples, natural joins on a caller-chosen
// key, antijoins, projections, and a semi-naive fixpoint driver.
package relation

import (
	"github.com/emirpasic/gods/sets/treeset"
	godsutils "github.com/emirpasic/gods/utils"
)

// Set is a sorted, deduplicated collection of tuples, backed by a
// red-black tree. Sorted storage gives deterministic iteration order for
// free, which is what makes dumped relations and variant outputs
// comparable across runs without a separate canonicalization step.
type Set[T any] struct {
	tree *treeset.Set
	less func(a, b T) bool
}

// NewSet returns an empty set ordered by less.
func NewSet[T any](less func(a, b T) bool) *Set[T] {
	cmp := func(a, b interface{}) int {
		x, y := a.(T), b.(T)
		switch {
		case less(x, y):
			return -1
		case less(y, x):
			return 1
		default:
			return 0
		}
	}
	return &Set[T]{tree: treeset.NewWith(godsutils.Comparator(cmp)), less: less}
}

// Insert adds t, reporting whether it was new.
func (s *Set[T]) Insert(t T) bool {
	if s.tree.Contains(t) {
		return false
	}
	s.tree.Add(t)
	return true
}

// InsertAll adds every element of ts, reporting how many were new.
func (s *Set[T]) InsertAll(ts []T) int {
	n := 0
	for _, t := range ts {
		if s.Insert(t) {
			n++
		}
	}
	return n
}

func (s *Set[T]) Contains(t T) bool { return s.tree.Contains(t) }

func (s *Set[T]) Len() int { return s.tree.Size() }

// Values returns every tuple in sorted order.
func (s *Set[T]) Values() []T {
	raw := s.tree.Values()
	out := make([]T, len(raw))
	for i, v := range raw {
		out[i] = v.(T)
	}
	return out
}

func (s *Set[T]) Each(f func(T)) {
	for _, v := range s.tree.Values() {
		f(v.(T))
	}
}

// Clone returns an independent copy of s.
func (s *Set[T]) Clone() *Set[T] {
	c := NewSet[T](s.less)
	s.Each(func(t T) { c.Insert(t) })
	return c
}

// Join groups bs by key and, for every a in as whose key matches some b,
// calls combine(a, b) and collects the result. This is a natural join on
// a synthetic key rather than literal shared columns, which lets callers
// join on any projection (e.g. the Origin column of two differently
// shaped tuples) without restating the rest of the tuple.
func Join[A, B any, K comparable, Out any](as []A, bs []B, keyA func(A) K, keyB func(B) K, combine func(A, B) Out) []Out {
	index := make(map[K][]B, len(bs))
	for _, b := range bs {
		index[keyB(b)] = append(index[keyB(b)], b)
	}

	var out []Out
	for _, a := range as {
		for _, b := range index[keyA(a)] {
			out = append(out, combine(a, b))
		}
	}
	return out
}

// Antijoin keeps every a in as whose key is absent from bs. The negated
// side (bs) must be a stable relation per the engine's monotone-negation
// contract.
func Antijoin[A, B any, K comparable](as []A, bs []B, keyA func(A) K, keyB func(B) K) []A {
	present := make(map[K]struct{}, len(bs))
	for _, b := range bs {
		present[keyB(b)] = struct{}{}
	}

	out := make([]A, 0, len(as))
	for _, a := range as {
		if _, ok := present[keyA(a)]; !ok {
			out = append(out, a)
		}
	}
	return out
}

// AntijoinSet is Antijoin specialized to a Set[B] keyed by identity,
// useful when B is itself the join key (e.g. antijoining against a set
// of killed loans).
func AntijoinSet[A any, B comparable](as []A, bs *Set[B], keyA func(A) B) []A {
	out := make([]A, 0, len(as))
	for _, a := range as {
		if !bs.Contains(keyA(a)) {
			out = append(out, a)
		}
	}
	return out
}

// Project maps every element of as through f.
func Project[A, Out any](as []A, f func(A) Out) []Out {
	out := make([]Out, len(as))
	for i, a := range as {
		out[i] = f(a)
	}
	return out
}

// Filter keeps the elements of as for which keep returns true.
func Filter[A any](as []A, keep func(A) bool) []A {
	out := make([]A, 0, len(as))
	for _, a := range as {
		if keep(a) {
			out = append(out, a)
		}
	}
	return out
}
