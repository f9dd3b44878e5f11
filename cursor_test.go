package xbind

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var nameOf = Map(func(row any) any { return row.(map[string]any)["name"] })

func TestCursor_NextSkipsDroppedRows(t *testing.T) {
	db := New(newSQLite(t), DefaultConfig())
	ctx := context.Background()

	st, err := db.Prepare(ctx, `SELECT name, age FROM people ORDER BY id`)
	require.NoError(t, err)
	defer st.Close()

	under40 := Filter(func(row any) bool { return row.(map[string]any)["age"].(int64) < 40 })
	cur, err := st.Iterate(ctx, Chain{under40, nameOf})
	require.NoError(t, err)

	var names []any
	for cur.Next() {
		names = append(names, cur.Row())
	}
	require.NoError(t, cur.Err())
	require.NoError(t, cur.Close())
	assert.Equal(t, []any{"ada", "cyd"}, names)
	assert.Nil(t, cur.Row())

	// the statement is still usable
	require.NoError(t, st.Query(ctx))
	row, err := st.FetchRowHash(Chain{nameOf})
	require.NoError(t, err)
	assert.Equal(t, "ada", row)
}

func TestCursor_ForEachOnTopOfChain(t *testing.T) {
	db := New(newSQLite(t), DefaultConfig())
	ctx := context.Background()

	cur, err := db.Iterate(ctx, `SELECT name FROM people WHERE team = :team ORDER BY id`, Chain{nameOf}, "team", "core")
	require.NoError(t, err)

	upper := Map(func(row any) any { return row.(string) + "!" })
	got, err := cur.ForEach(Chain{upper})
	require.NoError(t, err)
	assert.Equal(t, []any{"ada!", "cyd!"}, got)

	// owned statement is released, so the single connection is free again
	rest, err := db.SelectAll(ctx, `SELECT id FROM people`, nil)
	require.NoError(t, err)
	assert.Len(t, rest, 3)
}

func TestCursor_All(t *testing.T) {
	db := New(newSQLite(t), DefaultConfig())
	ctx := context.Background()

	cur, err := db.Iterate(ctx, `SELECT name FROM people ORDER BY id`, Chain{nameOf})
	require.NoError(t, err)

	var first any
	for row := range cur.All() {
		first = row
		break
	}
	require.NoError(t, cur.Close())
	assert.Equal(t, "ada", first)

	// Close is idempotent
	assert.NoError(t, cur.Close())
	assert.False(t, cur.Next())
}

func TestCursor_StageErrorStops(t *testing.T) {
	boom := errors.New("bad row")
	db := New(newSQLite(t), DefaultConfig())
	ctx := context.Background()

	cur, err := db.Iterate(ctx, `SELECT name FROM people ORDER BY id`, Chain{func(any) (any, error) { return nil, boom }})
	require.NoError(t, err)

	assert.False(t, cur.Next())
	assert.ErrorIs(t, cur.Err(), boom)
	assert.ErrorIs(t, cur.Close(), boom)
}

func TestCursor_BindFailure(t *testing.T) {
	db := New(newSQLite(t), DefaultConfig())

	_, err := db.Iterate(context.Background(), `SELECT name FROM people WHERE id = :id`, nil, 1)
	assert.ErrorIs(t, err, ErrShapeMismatch)
}
