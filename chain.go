package xbind

// Stage transforms one row. It returns the replacement row, Skip to drop the
// row, or any other error to abort the fetch. A stage may change the row's
// shape; the next stage receives whatever this one returned.
type Stage func(row any) (any, error)

// Chain runs stages in order, each on the previous stage's output.
// A nil or empty Chain passes rows through unchanged.
type Chain []Stage

// Apply threads row through every stage. It stops at the first error, which
// is Skip when a stage eliminated the row.
func (c Chain) Apply(row any) (any, error) {
	for _, st := range c {
		if st == nil {
			continue
		}
		var err error
		if row, err = st(row); err != nil {
			return nil, err
		}
	}
	return row, nil
}

// Then returns a new chain with more appended; c is left untouched.
func (c Chain) Then(more ...Stage) Chain {
	out := make(Chain, 0, len(c)+len(more))
	out = append(out, c...)
	return append(out, more...)
}

// Map wraps a plain transformation as a Stage.
func Map(fn func(row any) any) Stage {
	return func(row any) (any, error) { return fn(row), nil }
}

// Filter keeps rows for which keep returns true and drops the rest.
func Filter(keep func(row any) bool) Stage {
	return func(row any) (any, error) {
		if !keep(row) {
			return nil, Skip
		}
		return row, nil
	}
}
