package xbind

import (
	"context"
	"errors"
)

// FetchRowArray fetches the next row as []any, threads it through chain and
// returns the result. It returns nil, nil when the result set is exhausted
// or chain drops the row.
func (s *Stmt) FetchRowArray(chain Chain) (any, error) { return s.fetchOne(FetchArray, chain) }

// FetchRowHash is FetchRowArray with the row as map[string]any keyed by column.
func (s *Stmt) FetchRowHash(chain Chain) (any, error) { return s.fetchOne(FetchHash, chain) }

// FetchRow fetches in the configured FetchStyle.
func (s *Stmt) FetchRow(chain Chain) (any, error) { return s.fetchOne(s.cfg.FetchStyle, chain) }

// FetchAllArray fetches every remaining row as []any, applying chain to each
// row independently, and finishes the result set. Dropped rows are omitted;
// the result is never nil.
func (s *Stmt) FetchAllArray(chain Chain) ([]any, error) { return s.fetchAll(FetchArray, chain) }

// FetchAllHash is FetchAllArray with map[string]any rows.
func (s *Stmt) FetchAllHash(chain Chain) ([]any, error) { return s.fetchAll(FetchHash, chain) }

// FetchAll fetches in the configured FetchStyle.
func (s *Stmt) FetchAll(chain Chain) ([]any, error) { return s.fetchAll(s.cfg.FetchStyle, chain) }

func (s *Stmt) fetchOne(style FetchStyle, chain Chain) (any, error) {
	if s.rows == nil && !s.drained {
		return nil, s.track(ErrNoResultSet)
	}
	row, ok, err := s.nextRow(style)
	if err != nil || !ok {
		return nil, s.track(err)
	}
	out, err := chain.Apply(row)
	if err != nil {
		if errors.Is(err, Skip) {
			return nil, s.track(nil)
		}
		return nil, s.track(err)
	}
	return out, s.track(nil)
}

func (s *Stmt) fetchAll(style FetchStyle, chain Chain) (out []any, err error) {
	if s.rows == nil && !s.drained {
		return nil, s.track(ErrNoResultSet)
	}
	defer func() {
		if ferr := s.Finish(); ferr != nil && err == nil {
			err = ferr
		}
		s.track(err)
	}()

	out = []any{}
	for {
		row, ok, err := s.nextRow(style)
		if err != nil {
			return nil, err
		}
		if !ok {
			return out, nil
		}
		v, err := chain.Apply(row)
		if err != nil {
			if errors.Is(err, Skip) {
				continue
			}
			return nil, err
		}
		out = append(out, v)
	}
}

// nextRow scans the next row in style. ok is false once the result set is
// exhausted, at which point it is finished.
func (s *Stmt) nextRow(style FetchStyle) (row any, ok bool, err error) {
	if s.rows == nil {
		return nil, false, nil
	}
	if !s.rows.Next() {
		err := s.rows.Err()
		if ferr := s.Finish(); err == nil {
			err = ferr
		}
		return nil, false, err
	}

	vals := make([]any, len(s.cols))
	ptrs := make([]any, len(vals))
	for i := range vals {
		ptrs[i] = &vals[i]
	}
	if err := s.rows.Scan(ptrs...); err != nil {
		return nil, false, err
	}
	if style == FetchArray {
		return vals, true, nil
	}
	m := make(map[string]any, len(vals))
	for i, k := range s.keys {
		m[k] = vals[i]
	}
	return m, true, nil
}

// SelectRowArray prepares query, runs it with args and returns the first row
// as []any after chain, or nil when there is none.
//
// Example:
//
//	row, err := db.SelectRowArray(ctx, `SELECT id, name FROM users WHERE id = :id`, nil,
//	    map[string]any{"id": 42})
func (db *DB) SelectRowArray(ctx context.Context, query string, chain Chain, args ...any) (any, error) {
	return db.selectOne(ctx, query, FetchArray, chain, args)
}

// SelectRowHash is SelectRowArray with a map[string]any row.
func (db *DB) SelectRowHash(ctx context.Context, query string, chain Chain, args ...any) (any, error) {
	return db.selectOne(ctx, query, FetchHash, chain, args)
}

// SelectRow uses the configured FetchStyle.
func (db *DB) SelectRow(ctx context.Context, query string, chain Chain, args ...any) (any, error) {
	return db.selectOne(ctx, query, db.cfg.FetchStyle, chain, args)
}

// SelectAllArray prepares query, runs it with args and returns every row as
// []any after chain.
//
// Example:
//
//	names, err := db.SelectAllArray(ctx, `SELECT name FROM users WHERE team = @team`,
//	    xbind.Chain{func(row any) (any, error) { return row.([]any)[0], nil }},
//	    "@team", "core")
func (db *DB) SelectAllArray(ctx context.Context, query string, chain Chain, args ...any) ([]any, error) {
	return db.selectAll(ctx, query, FetchArray, chain, args)
}

// SelectAllHash is SelectAllArray with map[string]any rows.
func (db *DB) SelectAllHash(ctx context.Context, query string, chain Chain, args ...any) ([]any, error) {
	return db.selectAll(ctx, query, FetchHash, chain, args)
}

// SelectAll uses the configured FetchStyle.
func (db *DB) SelectAll(ctx context.Context, query string, chain Chain, args ...any) ([]any, error) {
	return db.selectAll(ctx, query, db.cfg.FetchStyle, chain, args)
}

func (db *DB) selectOne(ctx context.Context, query string, style FetchStyle, chain Chain, args []any) (out any, err error) {
	defer func() { db.track(err) }()
	st, err := db.Prepare(ctx, query)
	if err != nil {
		return nil, err
	}
	defer func() {
		if cerr := st.Close(); cerr != nil && err == nil {
			err = cerr
		}
	}()

	if err := st.Query(ctx, args...); err != nil {
		return nil, err
	}
	return st.fetchOne(style, chain)
}

func (db *DB) selectAll(ctx context.Context, query string, style FetchStyle, chain Chain, args []any) (out []any, err error) {
	defer func() { db.track(err) }()
	st, err := db.Prepare(ctx, query)
	if err != nil {
		return nil, err
	}
	defer func() {
		if cerr := st.Close(); cerr != nil && err == nil {
			err = cerr
		}
	}()

	if err := st.Query(ctx, args...); err != nil {
		return nil, err
	}
	return st.fetchAll(style, chain)
}
