package relation

import "testing"

// TestIterationTransitiveClosure computes the transitive closure of a
// small edge relation via a two-variable semi-naive fixpoint, mirroring
// the shape loan/naive.go runs its subset rules through.
func TestIterationTransitiveClosure(t *testing.T) {
	type edge struct{ from, to int }

	base := NewVariable[edge]("base")
	reach := NewVariable[edge]("reach")

	it := NewIteration()
	Add(it, base)
	Add(it, reach)

	base.Insert([]edge{{1, 2}, {2, 3}, {3, 4}})
	it.Step()

	for {
		var derived []edge
		for _, b := range base.Recent() {
			reach.Insert([]edge{{b.from, b.to}})
		}
		for _, r := range reach.Recent() {
			for _, b := range base.All() {
				if b.from == r.to {
					derived = append(derived, edge{r.from, b.to})
				}
			}
		}
		reach.Insert(derived)

		if !it.Step() {
			break
		}
	}

	want := map[edge]bool{
		{1, 2}: true, {2, 3}: true, {3, 4}: true,
		{1, 3}: true, {2, 4}: true, {1, 4}: true,
	}
	got := reach.All()
	if len(got) != len(want) {
		t.Fatalf("reach = %v, want %d tuples", got, len(want))
	}
	for _, e := range got {
		if !want[e] {
			t.Fatalf("unexpected tuple %v in reach", e)
		}
	}
}

func TestVariableStableRecentSplit(t *testing.T) {
	v := NewVariable[int]("v")
	it := NewIteration()
	Add(it, v)

	v.Insert([]int{1, 2})
	it.Step()
	if len(v.Recent()) != 2 {
		t.Fatalf("after first Step, Recent = %v, want 2 elements", v.Recent())
	}
	if len(v.Stable()) != 0 {
		t.Fatalf("after first Step, Stable = %v, want empty", v.Stable())
	}

	v.Insert([]int{2, 3})
	it.Step()
	if len(v.Stable()) != 2 {
		t.Fatalf("after second Step, Stable = %v, want the first round's 2 elements", v.Stable())
	}
	// 2 was already seen, so only 3 should be recent.
	if len(v.Recent()) != 1 || v.Recent()[0] != 3 {
		t.Fatalf("after second Step, Recent = %v, want [3]", v.Recent())
	}

	if len(v.All()) != 3 {
		t.Fatalf("All() = %v, want 3 elements total", v.All())
	}
}

func TestIterationStepReportsNoChangeAtFixpoint(t *testing.T) {
	v := NewVariable[int]("v")
	it := NewIteration()
	Add(it, v)

	v.Insert([]int{1})
	if !it.Step() {
		t.Fatal("Step should report a change when new tuples were staged")
	}
	if it.Step() {
		t.Fatal("Step should report no change once the variable is empty and stable")
	}
}
