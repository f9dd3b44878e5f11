package xbind

import (
	"context"
	"errors"
	"iter"
)

// Cursor yields transformed rows one at a time from a statement's open
// result set. Rows dropped by the chain are skipped. The usual loop:
//
//	cur, err := st.Iterate(ctx, nil, "team", "core")
//	if err != nil {
//	    return err
//	}
//	defer cur.Close()
//	for cur.Next() {
//	    row := cur.Row().(map[string]any)
//	    ...
//	}
//	return cur.Err()
type Cursor struct {
	stmt  *Stmt
	style FetchStyle
	chain Chain
	owned bool

	row  any
	err  error
	done bool
}

// Iterate runs s with args (resolved as in Execute) and returns a cursor in
// the configured FetchStyle that applies chain to every row.
func (s *Stmt) Iterate(ctx context.Context, chain Chain, args ...any) (*Cursor, error) {
	if err := s.Query(ctx, args...); err != nil {
		return nil, err
	}
	return &Cursor{stmt: s, style: s.cfg.FetchStyle, chain: chain}, nil
}

// Iterate prepares query and returns a cursor over its rows. Closing the
// cursor closes the statement.
func (db *DB) Iterate(ctx context.Context, query string, chain Chain, args ...any) (*Cursor, error) {
	st, err := db.Prepare(ctx, query)
	if err != nil {
		return nil, err
	}
	cur, err := st.Iterate(ctx, chain, args...)
	if err != nil {
		_ = st.Close()
		return nil, db.track(err)
	}
	cur.owned = true
	return cur, nil
}

// Next advances to the next row that survives the chain. It returns false
// when rows run out or an error occurs; check Err afterward.
func (c *Cursor) Next() bool {
	if c.done {
		return false
	}
	for {
		row, ok, err := c.stmt.nextRow(c.style)
		if err != nil || !ok {
			c.stop(err)
			return false
		}
		out, err := c.chain.Apply(row)
		if errors.Is(err, Skip) {
			continue
		}
		if err != nil {
			c.stop(err)
			return false
		}
		c.row = out
		return true
	}
}

func (c *Cursor) stop(err error) {
	c.done, c.row = true, nil
	if err != nil && c.err == nil {
		c.err = err
	}
	if ferr := c.stmt.Finish(); ferr != nil && c.err == nil {
		c.err = ferr
	}
}

// Row is the current row, as returned by the last stage of the chain.
func (c *Cursor) Row() any { return c.row }

// Err returns the error that stopped the cursor, if any.
func (c *Cursor) Err() error { return c.err }

// Close stops the cursor and releases the result set; cursors made by
// DB.Iterate also close their statement. Close is idempotent.
func (c *Cursor) Close() error {
	if !c.done {
		c.stop(nil)
	}
	if c.owned {
		c.owned = false
		if err := c.stmt.Close(); err != nil {
			return err
		}
	}
	return c.err
}

// ForEach drains the cursor, applies extra on top of the cursor's own chain
// to each row and collects the results. The cursor is closed afterward.
func (c *Cursor) ForEach(extra Chain) (out []any, err error) {
	defer func() {
		if cerr := c.Close(); cerr != nil && err == nil {
			err = cerr
		}
	}()

	out = []any{}
	for c.Next() {
		v, err := extra.Apply(c.row)
		if errors.Is(err, Skip) {
			continue
		}
		if err != nil {
			return nil, err
		}
		out = append(out, v)
	}
	if err := c.Err(); err != nil {
		return nil, err
	}
	return out, nil
}

// All adapts the cursor to a range-over-func loop. Check Err after the loop.
func (c *Cursor) All() iter.Seq[any] {
	return func(yield func(any) bool) {
		for c.Next() {
			if !yield(c.row) {
				return
			}
		}
	}
}
