package relation

import "testing"

type pair struct{ a, b int }

func lessPair(x, y pair) bool {
	if x.a != y.a {
		return x.a < y.a
	}
	return x.b < y.b
}

func TestSetInsertDedups(t *testing.T) {
	s := NewSet(lessPair)
	if !s.Insert(pair{1, 2}) {
		t.Fatal("first insert should report new")
	}
	if s.Insert(pair{1, 2}) {
		t.Fatal("duplicate insert should report not-new")
	}
	if s.Len() != 1 {
		t.Fatalf("Len = %d, want 1", s.Len())
	}
}

func TestSetValuesSorted(t *testing.T) {
	s := NewSet(lessPair)
	s.InsertAll([]pair{{2, 0}, {1, 5}, {1, 1}})
	got := s.Values()
	want := []pair{{1, 1}, {1, 5}, {2, 0}}
	if len(got) != len(want) {
		t.Fatalf("len = %d, want %d", len(got), len(want))
	}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("Values()[%d] = %v, want %v", i, got[i], want[i])
		}
	}
}

func TestSetCloneIsIndependent(t *testing.T) {
	s := NewSet(lessPair)
	s.Insert(pair{1, 1})
	c := s.Clone()
	c.Insert(pair{2, 2})
	if s.Contains(pair{2, 2}) {
		t.Fatal("mutating the clone should not affect the original")
	}
	if !c.Contains(pair{1, 1}) {
		t.Fatal("clone should carry over the original's tuples")
	}
}

func TestJoin(t *testing.T) {
	type left struct{ key, val int }
	type right struct {
		key int
		tag string
	}

	as := []left{{1, 10}, {2, 20}, {1, 11}}
	bs := []right{{1, "x"}, {1, "y"}, {3, "z"}}

	got := Join(as, bs,
		func(l left) int { return l.key },
		func(r right) int { return r.key },
		func(l left, r right) string { return r.tag },
	)
	if len(got) != 4 {
		t.Fatalf("Join produced %d results, want 4 (two left rows x two matching right rows)", len(got))
	}
}

func TestAntijoin(t *testing.T) {
	as := []int{1, 2, 3, 4}
	bs := []int{2, 4}
	got := Antijoin(as, bs, func(x int) int { return x }, func(x int) int { return x })
	want := []int{1, 3}
	if len(got) != len(want) {
		t.Fatalf("Antijoin = %v, want %v", got, want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("Antijoin[%d] = %d, want %d", i, got[i], want[i])
		}
	}
}

func TestAntijoinSet(t *testing.T) {
	killed := NewSet(func(a, b int) bool { return a < b })
	killed.Insert(2)
	killed.Insert(4)

	as := []int{1, 2, 3, 4}
	got := AntijoinSet(as, killed, func(x int) int { return x })
	if len(got) != 2 || got[0] != 1 || got[1] != 3 {
		t.Fatalf("AntijoinSet = %v, want [1 3]", got)
	}
}

func TestProjectAndFilter(t *testing.T) {
	as := []int{1, 2, 3, 4, 5}
	doubled := Project(as, func(x int) int { return x * 2 })
	if len(doubled) != 5 || doubled[2] != 6 {
		t.Fatalf("Project = %v", doubled)
	}
	even := Filter(as, func(x int) bool { return x%2 == 0 })
	if len(even) != 2 || even[0] != 2 || even[1] != 4 {
		t.Fatalf("Filter = %v, want [2 4]", even)
	}
}
