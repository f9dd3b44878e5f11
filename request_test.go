package xbind

import (
	"database/sql"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type baseEmb struct {
	Tenant int `db:"tenant"`
}

type argStruct struct {
	baseEmb
	Status string    `db:"status"`
	Since  time.Time `db:"since"`
	Skip   string    `db:"-"`
	Plain  int
	hidden int
}

func TestRequestFrom_Shapes(t *testing.T) {
	req, err := requestFrom([]any{"a", 1, "b", 2})
	require.NoError(t, err)
	assert.Equal(t, reqArgs, req.kind)
	assert.Equal(t, 4, req.Len())

	req, err = requestFrom([]any{map[string]any{"a": 1}})
	require.NoError(t, err)
	assert.Equal(t, reqMap, req.kind)

	req, err = requestFrom([]any{[]any{10, 20}})
	require.NoError(t, err)
	assert.Equal(t, reqSeq, req.kind)
	assert.Equal(t, []any{10, 20}, req.values)

	req, err = requestFrom([]any{[]int{1, 2, 3}})
	require.NoError(t, err)
	assert.Equal(t, reqSeq, req.kind)
	assert.Equal(t, []any{1, 2, 3}, req.values)

	req, err = requestFrom([]any{map[int]string{1: "x"}})
	require.NoError(t, err)
	assert.Equal(t, reqMap, req.kind)
	assert.Equal(t, map[string]any{"1": "x"}, req.named)

	passed := Named(map[string]any{"k": 1})
	req, err = requestFrom([]any{passed})
	require.NoError(t, err)
	assert.Equal(t, passed, req)
}

func TestRequestFrom_ScalarsStayScalar(t *testing.T) {
	now := time.Now()
	for _, v := range []any{[]byte("blob"), now, sql.NullString{String: "x", Valid: true}, 5, "s", nil} {
		req, err := requestFrom([]any{v})
		require.NoError(t, err)
		assert.Equal(t, reqArgs, req.kind, "%T", v)
		assert.Equal(t, 1, req.Len())
	}
}

func TestRequestFrom_Struct(t *testing.T) {
	since := time.Date(2024, 5, 1, 0, 0, 0, 0, time.UTC)
	a := argStruct{baseEmb: baseEmb{Tenant: 42}, Status: "active", Since: since, Skip: "no", Plain: 3}

	req, err := requestFrom([]any{&a})
	require.NoError(t, err)
	assert.Equal(t, reqMap, req.kind)
	assert.Equal(t, map[string]any{
		"tenant": 42,
		"status": "active",
		"since":  since,
		"Plain":  3,
	}, req.named)
}

func TestRequestFrom_NilPointer(t *testing.T) {
	var p *argStruct
	_, err := requestFrom([]any{p})
	assert.ErrorIs(t, err, ErrNilParams)
}

func TestRequestFrom_DuplicateTag(t *testing.T) {
	type dup struct {
		A int `db:"x"`
		B int `db:"x"`
	}
	_, err := requestFrom([]any{dup{}})
	assert.ErrorIs(t, err, ErrDuplicateKeyTag)
}

func TestPairsToMap(t *testing.T) {
	m, err := pairsToMap([]any{"a", 1, "b", 2, "a", 3})
	require.NoError(t, err)
	assert.Equal(t, map[string]any{"a": 3, "b": 2}, m)

	_, err = pairsToMap([]any{5})
	assert.ErrorIs(t, err, ErrShapeMismatch)

	_, err = pairsToMap([]any{"a", 1, "b"})
	assert.ErrorIs(t, err, ErrShapeMismatch)

	_, err = pairsToMap([]any{nil, 1})
	assert.ErrorIs(t, err, ErrMissingIdentifier)

	_, err = pairsToMap([]any{3.5, 1})
	assert.ErrorIs(t, err, ErrMalformedIdentifier)

	m, err = pairsToMap(nil)
	require.NoError(t, err)
	assert.Empty(t, m)
}

func TestValidateIdentifier(t *testing.T) {
	for _, ok := range []string{"id", "user_id", "@id", "1", "имя"} {
		assert.NoError(t, validateIdentifier(ok), ok)
	}
	assert.ErrorIs(t, validateIdentifier(""), ErrMissingIdentifier)
	for _, bad := range []string{"@", "a-b", "a b", ":id", "a@b", "@@x", "x;drop"} {
		assert.ErrorIs(t, validateIdentifier(bad), ErrMalformedIdentifier, bad)
	}
}
