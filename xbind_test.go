package xbind

import (
	"context"
	"database/sql"
	"database/sql/driver"
	"errors"
	"io"
	"sync"
	"testing"

	"github.com/stretchr/testify/require"
	_ "modernc.org/sqlite"
)

// DBHandler serves one prepared-statement call. For Exec the number of rows
// returned is reported as rows affected.
type DBHandler func(query string, args []driver.NamedValue) (cols []string, rows [][]driver.Value, err error)

// recorder keeps what the driver saw.
type recorder struct {
	mu       sync.Mutex
	prepared []string
	execs    [][]any
	queries  [][]any

	// rowsCloseErr is returned when a result set is closed.
	rowsCloseErr error
}

func (r *recorder) addPrepared(q string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.prepared = append(r.prepared, q)
}

func (r *recorder) add(dst *[][]any, args []driver.NamedValue) {
	r.mu.Lock()
	defer r.mu.Unlock()
	vals := make([]any, len(args))
	for i, a := range args {
		vals[i] = a.Value
	}
	*dst = append(*dst, vals)
}

type testConnector struct {
	h   DBHandler
	rec *recorder
}

func (c *testConnector) Connect(context.Context) (driver.Conn, error) {
	return &testConn{h: c.h, rec: c.rec}, nil
}
func (c *testConnector) Driver() driver.Driver { return testDriver{} }

type testDriver struct{}

func (testDriver) Open(name string) (driver.Conn, error) {
	return nil, errors.New("testDriver.Open should not be called; use sql.OpenDB with connector")
}

type testConn struct {
	h   DBHandler
	rec *recorder
}

func (c *testConn) Prepare(query string) (driver.Stmt, error) {
	c.rec.addPrepared(query)
	return &testStmt{query: query, h: c.h, rec: c.rec}, nil
}
func (c *testConn) Close() error              { return nil }
func (c *testConn) Begin() (driver.Tx, error) { return nil, driver.ErrSkip }

type testStmt struct {
	query string
	h     DBHandler
	rec   *recorder
}

func (s *testStmt) Close() error  { return nil }
func (s *testStmt) NumInput() int { return -1 }

func (s *testStmt) Exec([]driver.Value) (driver.Result, error) { return nil, driver.ErrSkip }
func (s *testStmt) Query([]driver.Value) (driver.Rows, error)  { return nil, driver.ErrSkip }

func (s *testStmt) ExecContext(_ context.Context, args []driver.NamedValue) (driver.Result, error) {
	s.rec.add(&s.rec.execs, args)
	_, data, err := s.h(s.query, args)
	if err != nil {
		return nil, err
	}
	return driver.RowsAffected(len(data)), nil
}

func (s *testStmt) QueryContext(_ context.Context, args []driver.NamedValue) (driver.Rows, error) {
	s.rec.add(&s.rec.queries, args)
	cols, data, err := s.h(s.query, args)
	if err != nil {
		return nil, err
	}
	return &testRows{cols: cols, data: data, closeErr: s.rec.rowsCloseErr}, nil
}

type testRows struct {
	cols     []string
	data     [][]driver.Value
	i        int
	closeErr error
}

func (r *testRows) Columns() []string { return append([]string(nil), r.cols...) }
func (r *testRows) Close() error      { return r.closeErr }
func (r *testRows) Next(dest []driver.Value) error {
	if r.i >= len(r.data) {
		return io.EOF
	}
	row := r.data[r.i]
	for i := range dest {
		if i < len(row) {
			dest[i] = row[i]
		} else {
			dest[i] = nil
		}
	}
	r.i++
	return nil
}

// newTestDB creates a *sql.DB backed by the recording test driver.
func newTestDB(t *testing.T, h DBHandler) (*sql.DB, *recorder) {
	t.Helper()
	rec := &recorder{}
	db := sql.OpenDB(&testConnector{h: h, rec: rec})
	t.Cleanup(func() { _ = db.Close() })
	return db, rec
}

func noRows(string, []driver.NamedValue) ([]string, [][]driver.Value, error) {
	return nil, nil, nil
}

// newSQLite opens an in-memory SQLite database seeded with the people table.
func newSQLite(t *testing.T) *sql.DB {
	t.Helper()
	db, err := sql.Open("sqlite", ":memory:")
	require.NoError(t, err)
	db.SetMaxOpenConns(1)
	t.Cleanup(func() { _ = db.Close() })

	ctx := context.Background()
	_, err = db.ExecContext(ctx, `CREATE TABLE people (id INTEGER PRIMARY KEY, name TEXT NOT NULL, team TEXT, age INTEGER)`)
	require.NoError(t, err)
	_, err = db.ExecContext(ctx, `INSERT INTO people (id, name, team, age) VALUES
		(1, 'ada', 'core', 36),
		(2, 'bob', 'web', 41),
		(3, 'cyd', 'core', 29)`)
	require.NoError(t, err)
	return db
}
