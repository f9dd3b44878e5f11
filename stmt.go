package xbind

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"strconv"

	"github.com/google/uuid"
)

// RowCount is the normalized affected-row count of a successful execute.
// Zero affected rows is still success: ZeroButTrue reports it and String
// renders it as "0E0".
type RowCount int64

// RowsUnknown is reported when the driver cannot tell how many rows changed.
const RowsUnknown RowCount = -1

// ZeroButTrue reports a successful execute that touched no rows.
func (n RowCount) ZeroButTrue() bool { return n == 0 }

func (n RowCount) String() string {
	if n == 0 {
		return "0E0"
	}
	return strconv.FormatInt(int64(n), 10)
}

func rowCountOf(res sql.Result) RowCount {
	n, err := res.RowsAffected()
	if err != nil {
		return RowsUnknown
	}
	return RowCount(n)
}

type nativeStmt interface {
	ExecContext(ctx context.Context, args ...any) (sql.Result, error)
	QueryContext(ctx context.Context, args ...any) (*sql.Rows, error)
	Close() error
}

// Stmt is a prepared statement with its placeholder index, bound values and
// at most one open result set.
//
// A Stmt is not safe for concurrent use; the index it carries is read-only
// and may be shared.
type Stmt struct {
	id       uuid.UUID
	source   string
	sql      string
	index    *ParamIndex
	numInput int
	native   nativeStmt
	cfg      Config
	log      *slog.Logger
	autoBind bool

	slots []any
	bound []bool

	rows    *sql.Rows
	cols    []string
	keys    []string
	drained bool

	err error
}

func newStmt(db *DB, source string, t Translation, native nativeStmt) *Stmt {
	return &Stmt{
		id:       uuid.New(),
		source:   source,
		sql:      rewritePlaceholders(t.SQL, db.cfg.Placeholder),
		index:    t.Index(),
		numInput: t.Markers,
		native:   native,
		cfg:      db.cfg,
		log:      db.log,
		autoBind: db.cfg.AutoBind,
		slots:    make([]any, t.Markers),
		bound:    make([]bool, t.Markers),
	}
}

// ID identifies the statement in log records.
func (s *Stmt) ID() uuid.UUID { return s.id }

// Source is the SQL text as given to Prepare.
func (s *Stmt) Source() string { return s.source }

// SQL is the rewritten text sent to the driver.
func (s *Stmt) SQL() string { return s.sql }

// Index is the placeholder index, or nil for a pure positional statement.
func (s *Stmt) Index() *ParamIndex { return s.index }

// NumInput is the number of positional markers in SQL.
func (s *Stmt) NumInput() int { return s.numInput }

// AutoBind reports whether binding values are resolved through Index.
func (s *Stmt) AutoBind() bool { return s.autoBind }

// SetAutoBind switches automatic binding for this statement only.
func (s *Stmt) SetAutoBind(on bool) { s.autoBind = on }

// Err returns the error of the most recent operation on s, or nil.
func (s *Stmt) Err() error { return s.err }

func (s *Stmt) track(err error) error {
	s.err = err
	return err
}

// BindParam sets the value for the 1-based positional marker pos. The value
// is kept until it is bound again or an automatic bind replaces all values.
func (s *Stmt) BindParam(pos int, v any) error {
	if pos < 1 || pos > s.numInput {
		return s.track(fmt.Errorf("%w: %d (statement has %d)", ErrBindPosition, pos, s.numInput))
	}
	s.slots[pos-1] = v
	s.bound[pos-1] = true
	return s.track(nil)
}

// Bind clears all bound values and binds args through the placeholder index.
//
// Accepted shapes for named and numeric statements:
//
//	st.Bind("id", 7, "name", "bob")               // key/value pairs
//	st.Bind(map[string]any{"id": 7})               // mapping
//	st.Bind([]any{"id", 7})                        // one sequence of pairs
//	st.Bind(10, 20)                                // numeric: ?1=10, ?2=20
//
// A pure positional statement binds args in order.
func (s *Stmt) Bind(args ...any) error {
	req, err := requestFrom(args)
	if err != nil {
		return s.track(err)
	}
	return s.BindRequest(req)
}

// BindRequest is Bind for an already-built Request.
func (s *Stmt) BindRequest(req Request) error {
	clear(s.slots)
	clear(s.bound)
	return s.track(bindRequest(s, s.index, req, s.log.With("stmt", s.id)))
}

// boundArgs returns the slots up to the highest bound position. Holes are
// sent as NULL; trailing unbound markers are left for the driver to reject.
func (s *Stmt) boundArgs() []any {
	hi := 0
	for i, ok := range s.bound {
		if ok {
			hi = i + 1
		}
	}
	return append([]any(nil), s.slots[:hi]...)
}

// driverArgs resolves the values for one execution.
func (s *Stmt) driverArgs(args []any) ([]any, error) {
	if len(args) == 0 {
		return s.boundArgs(), nil
	}
	req, err := requestFrom(args)
	if s.autoBind && s.index != nil {
		if err == nil {
			err = s.BindRequest(req)
		}
		if err != nil {
			return nil, err
		}
		return s.boundArgs(), nil
	}
	// Pure positional and manual statements hand values to the driver in
	// order; it counts markers itself, including native ones like "$1".
	switch {
	case errors.Is(err, ErrNilParams):
		// a lone typed nil is a NULL value
		return args, nil
	case err != nil:
		return nil, err
	case req.kind == reqMap:
		return nil, fmt.Errorf("%w: named values for a statement bound by position", ErrShapeMismatch)
	}
	return req.values, nil
}

// Execute runs a statement that returns no rows.
//
// With auto-bind on, args are bound through the placeholder index first.
// With it off, or when the statement has only "?" markers, they go to the
// driver in order; a single slice or an Args or Seq request is spread into
// separate values, and a map, struct or Named request fails with
// ErrShapeMismatch. With no args the values set by Bind or BindParam are
// used.
func (s *Stmt) Execute(ctx context.Context, args ...any) (RowCount, error) {
	s.closeRows()
	vals, err := s.driverArgs(args)
	if err != nil {
		return 0, s.track(err)
	}
	res, err := s.native.ExecContext(ctx, vals...)
	if err != nil {
		return 0, s.track(err)
	}
	n := rowCountOf(res)
	s.log.Debug("executed statement", "stmt", s.id, "rows", int64(n))
	return n, s.track(nil)
}

// Query runs a statement that returns rows and keeps the result set open
// for the Fetch methods. Arguments are resolved as in Execute. A result set
// left open by an earlier Query is closed first.
func (s *Stmt) Query(ctx context.Context, args ...any) error {
	s.closeRows()
	vals, err := s.driverArgs(args)
	if err != nil {
		return s.track(err)
	}
	rows, err := s.native.QueryContext(ctx, vals...)
	if err != nil {
		return s.track(err)
	}
	cols, err := rows.Columns()
	if err != nil {
		_ = rows.Close()
		return s.track(err)
	}
	s.rows, s.cols, s.drained = rows, cols, false
	s.keys = make([]string, len(cols))
	for i, c := range cols {
		if s.cfg.LowerColumns {
			c = normalizeColAscii(c)
		}
		s.keys[i] = c
	}
	s.log.Debug("opened result set", "stmt", s.id, "columns", len(cols))
	return s.track(nil)
}

// Columns returns the column names of the open (or last) result set.
func (s *Stmt) Columns() []string { return append([]string(nil), s.cols...) }

// Finish closes the open result set, if any. Bound values are kept.
func (s *Stmt) Finish() error {
	if s.rows == nil {
		return nil
	}
	err := s.rows.Close()
	s.rows = nil
	s.drained = true
	return err
}

// closeRows drops a result set left open by an earlier Query.
func (s *Stmt) closeRows() {
	if err := s.Finish(); err != nil {
		s.log.Debug("closed previous result set", "stmt", s.id, "err", err)
	}
}

// Close finishes s and releases the driver statement.
func (s *Stmt) Close() error {
	ferr := s.Finish()
	if err := s.native.Close(); err != nil {
		return err
	}
	return ferr
}
