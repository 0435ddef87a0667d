package relation

// Variable is a relation that participates in a semi-naive fixpoint.
// Tuples staged via Insert do not take effect immediately: Iteration.Step
// moves them into Recent at the start of the next round and folds the
// previous round's Recent into Stable. Rules should only read Recent when
// they want "what changed last round" and Stable plus Recent when they
// want the relation's full current content.
type Variable[T comparable] struct {
	name   string
	stable []T
	recent []T
	toAdd  [][]T
	seen   map[T]struct{}
}

// NewVariable returns an empty variable. name is used only for
// diagnostics.
func NewVariable[T comparable](name string) *Variable[T] {
	return &Variable[T]{name: name, seen: make(map[T]struct{})}
}

// Insert stages a batch of tuples for inclusion starting next round.
// Batches that are empty are a no-op.
func (v *Variable[T]) Insert(batch []T) {
	if len(batch) == 0 {
		return
	}
	v.toAdd = append(v.toAdd, batch)
}

// Recent returns the tuples derived in the previous round.
func (v *Variable[T]) Recent() []T { return v.recent }

// Stable returns every tuple derived before the previous round.
func (v *Variable[T]) Stable() []T { return v.stable }

// All returns the full current content, stable and recent tuples
// together.
func (v *Variable[T]) All() []T {
	out := make([]T, 0, len(v.stable)+len(v.recent))
	out = append(out, v.stable...)
	out = append(out, v.recent...)
	return out
}

// step folds recent into stable and dedups toAdd into the new recent,
// reporting whether anything changed.
func (v *Variable[T]) step() bool {
	v.stable = append(v.stable, v.recent...)
	v.recent = nil

	if len(v.toAdd) == 0 {
		return false
	}

	for _, batch := range v.toAdd {
		for _, t := range batch {
			if _, ok := v.seen[t]; ok {
				continue
			}
			v.seen[t] = struct{}{}
			v.recent = append(v.recent, t)
		}
	}
	v.toAdd = nil

	return len(v.recent) > 0
}

// Iteration drives a group of Variables to their joint least fixpoint:
// repeatedly step every variable until none of them produced anything
// new. Rules are ordinary Go code run once per round by the caller; this
// type only tracks the stable/recent bookkeeping, mirroring the
// datafrog crate's Iteration/Variable split.
type Iteration struct {
	variables []interface{ step() bool }
}

// NewIteration returns an empty iteration.
func NewIteration() *Iteration { return &Iteration{} }

// Add registers a variable with the iteration so Step accounts for it.
func Add[T comparable](it *Iteration, v *Variable[T]) {
	it.variables = append(it.variables, v)
}

// Step folds every registered variable's staged tuples into its relation,
// reporting whether any of them changed. Callers run their rules, call
// Step, and loop until it returns false.
func (it *Iteration) Step() bool {
	changed := false
	for _, v := range it.variables {
		if v.step() {
			changed = true
		}
	}
	return changed
}
