package xbind

import (
	"context"
	"errors"
)

// Do prepares query, executes it once with args and closes the statement.
//
// Binding follows the DB's AutoBind setting exactly as Stmt.Execute does, so
// named, numeric and positional statements all work:
//
//	n, err := xbind.New(sqlDB, xbind.DefaultConfig()).Do(ctx,
//	    `UPDATE items SET price = :p WHERE id = :id`,
//	    map[string]any{"p": 100, "id": 7},
//	)
//	if err != nil {
//	    log.Fatal(err)
//	}
//	fmt.Println("rows:", n) // "0E0" when nothing matched
//
// Driver errors from prepare or execute are returned as-is.
func (db *DB) Do(ctx context.Context, query string, args ...any) (n RowCount, err error) {
	defer func() { db.track(err) }()
	st, err := db.Prepare(ctx, query)
	if err != nil {
		return 0, err
	}
	defer func() {
		if cerr := st.Close(); cerr != nil && err == nil {
			err = cerr
		}
	}()
	return st.Execute(ctx, args...)
}

// DoChain is Do with the row count threaded through chain. It returns nil
// when a stage drops the count.
func (db *DB) DoChain(ctx context.Context, query string, chain Chain, args ...any) (any, error) {
	n, err := db.Do(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	out, err := applyCount(n, chain)
	return out, db.track(err)
}

// Do executes an already prepared statement and threads the row count
// through chain, like DB.DoChain.
func (s *Stmt) Do(ctx context.Context, chain Chain, args ...any) (any, error) {
	n, err := s.Execute(ctx, args...)
	if err != nil {
		return nil, err
	}
	return applyCount(n, chain)
}

func applyCount(n RowCount, chain Chain) (any, error) {
	out, err := chain.Apply(n)
	if errors.Is(err, Skip) {
		return nil, nil
	}
	return out, err
}
