package xbind

import (
	"context"
	"database/sql"
	"io"
	"log/slog"
	"sync"
)

// Preparer is implemented by *sql.DB, *sql.Tx, *sql.Conn, and any wrapper
// that can prepare a statement.
type Preparer interface {
	PrepareContext(ctx context.Context, query string) (*sql.Stmt, error)
}

// DB prepares statements against a Preparer with a fixed Config.
// It is safe for concurrent use when the Preparer is.
type DB struct {
	p      Preparer
	cfg    Config
	log    *slog.Logger
	closer io.Closer

	mu  sync.Mutex
	err error
}

// New wraps p. cfg is copied and never changes afterward.
func New(p Preparer, cfg Config) *DB {
	return &DB{p: p, cfg: cfg, log: cfg.logger()}
}

// Config returns the configuration the DB was created with.
func (db *DB) Config() Config { return db.cfg }

// Handle returns the wrapped Preparer.
func (db *DB) Handle() Preparer { return db.p }

// Err returns the error of the most recent Prepare, Do, DoChain, Select or
// Iterate call on db, or nil when it succeeded.
func (db *DB) Err() error {
	db.mu.Lock()
	defer db.mu.Unlock()
	return db.err
}

func (db *DB) track(err error) error {
	db.mu.Lock()
	db.err = err
	db.mu.Unlock()
	return err
}

// Close closes the connection pool when the DB was created by Connect.
// A DB built with New leaves its Preparer alone.
func (db *DB) Close() error {
	if db == nil || db.closer == nil {
		return nil
	}
	return db.closer.Close()
}

// Prepare translates query, prepares the rewritten text on the driver and
// returns a statement carrying the placeholder index.
//
// Example:
//
//	st, err := db.Prepare(ctx, `SELECT name FROM t WHERE a = :x AND b = :x`)
//	if err != nil {
//	    return err
//	}
//	defer st.Close()
//	if err := st.Query(ctx, map[string]any{"x": 5}); err != nil {
//	    return err
//	}
//	row, err := st.FetchRowHash(nil) // map[string]any{"name": ...} or nil
func (db *DB) Prepare(ctx context.Context, query string) (*Stmt, error) {
	t := Analyze(query)
	native, err := db.p.PrepareContext(ctx, rewritePlaceholders(t.SQL, db.cfg.Placeholder))
	if err != nil {
		return nil, db.track(err)
	}
	st := newStmt(db, query, t, native)
	db.log.Debug("prepared statement",
		"stmt", st.id,
		"scheme", t.Scheme.String(),
		"placeholders", t.Markers,
	)
	if t.Mixed() {
		db.log.Warn("native ? markers cannot be bound by name",
			"stmt", st.id,
			"markers", t.Markers,
			"rewritten", len(t.Names),
		)
	}
	return st, db.track(nil)
}
