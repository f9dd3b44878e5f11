package xbind

import (
	"errors"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type bindCall struct {
	pos int
	val any
}

// bindRecorder is a ParamBinder that records every call.
type bindRecorder struct {
	calls  []bindCall
	failAt int // position whose bind fails; 0 disables
}

var errBindFailed = errors.New("native bind failed")

func (r *bindRecorder) BindParam(pos int, v any) error {
	if r.failAt != 0 && pos == r.failAt {
		return errBindFailed
	}
	r.calls = append(r.calls, bindCall{pos: pos, val: v})
	return nil
}

var discard = slog.New(slog.DiscardHandler)

func indexFor(sql string) *ParamIndex {
	_, names := Translate(sql)
	return NewParamIndex(names)
}

func TestBind_MappingFansOut(t *testing.T) {
	ix := indexFor(`SELECT name FROM t WHERE a = :x AND b = :x`)
	rec := &bindRecorder{}

	require.NoError(t, bindRequest(rec, ix, Named(map[string]any{"x": 5}), discard))
	assert.Equal(t, []bindCall{{1, 5}, {2, 5}}, rec.calls)
}

func TestBind_FanOutCountMatchesOccurrences(t *testing.T) {
	ix := indexFor(`SELECT 1 WHERE a = :k OR b = :other OR c = :k OR d = :k`)
	rec := &bindRecorder{}

	require.NoError(t, bindRequest(rec, ix, Args("k", "v"), discard))
	require.Len(t, rec.calls, ix.Count("k"))
	for i, pos := range ix.PositionsFor("k") {
		assert.Equal(t, bindCall{pos, "v"}, rec.calls[i])
	}
}

func TestBind_NumericFlatList(t *testing.T) {
	ix := indexFor(`SELECT name FROM t WHERE a = ?1 AND b = ?2`)
	rec := &bindRecorder{}

	require.NoError(t, bindRequest(rec, ix, Args(10, 20), discard))
	assert.Equal(t, []bindCall{{1, 10}, {2, 20}}, rec.calls)
}

func TestBind_NumericSequenceFollowsIdentifiers(t *testing.T) {
	ix := indexFor(`SELECT 1 WHERE a = ?2 AND b = ?1 AND c = ?2`)
	rec := &bindRecorder{}

	require.NoError(t, bindRequest(rec, ix, Seq([]any{"one", "two"}), discard))
	assert.Equal(t, []bindCall{{2, "one"}, {1, "two"}, {3, "two"}}, rec.calls)
}

func TestBind_NumericMapping(t *testing.T) {
	ix := indexFor(`SELECT 1 WHERE a = ?1 AND b = ?2`)
	rec := &bindRecorder{}

	req, err := requestFrom([]any{map[int]any{2: "b", 1: "a"}})
	require.NoError(t, err)
	require.NoError(t, bindRequest(rec, ix, req, discard))
	assert.Equal(t, []bindCall{{1, "a"}, {2, "b"}}, rec.calls)
}

func TestBind_NamedSequenceIsPairs(t *testing.T) {
	ix := indexFor(`SELECT 1 WHERE a = @a AND b = @b`)
	rec := &bindRecorder{}

	require.NoError(t, bindRequest(rec, ix, Seq([]any{"@b", 2, "@a", 1}), discard))
	assert.Equal(t, []bindCall{{1, 1}, {2, 2}}, rec.calls)
}

func TestBind_AtAndColonNamesDoNotMix(t *testing.T) {
	ix := indexFor(`SELECT 1 WHERE a = @a`)
	rec := &bindRecorder{}

	require.NoError(t, bindRequest(rec, ix, Args("a", 1), discard))
	assert.Empty(t, rec.calls, "plain key does not reach an @ placeholder")
}

func TestBind_PurePositional(t *testing.T) {
	rec := &bindRecorder{}
	require.NoError(t, bindRequest(rec, nil, Args("x", "y"), discard))
	assert.Equal(t, []bindCall{{1, "x"}, {2, "y"}}, rec.calls)

	rec = &bindRecorder{}
	require.NoError(t, bindRequest(rec, nil, Seq([]any{"x"}), discard))
	assert.Equal(t, []bindCall{{1, "x"}}, rec.calls)

	err := bindRequest(&bindRecorder{}, nil, Named(map[string]any{"x": 1}), discard)
	assert.ErrorIs(t, err, ErrShapeMismatch)
}

func TestBind_ErrorsBeforeAnyNativeCall(t *testing.T) {
	ix := indexFor(`SELECT 1 WHERE a = :a AND b = :b`)

	cases := []struct {
		name string
		req  Request
		want error
	}{
		{"single scalar", Args(5), ErrShapeMismatch},
		{"odd pairs", Args("a", 1, "b"), ErrShapeMismatch},
		{"empty key", Named(map[string]any{"a": 1, "": 2}), ErrMissingIdentifier},
		{"nil key", Args(nil, 1), ErrMissingIdentifier},
		{"bad key", Named(map[string]any{"a": 1, "b-c": 2}), ErrMalformedIdentifier},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			rec := &bindRecorder{}
			err := bindRequest(rec, ix, tc.req, discard)
			assert.ErrorIs(t, err, tc.want)
			assert.Empty(t, rec.calls)
		})
	}
}

func TestBind_FailureStopsRemainingBinds(t *testing.T) {
	ix := indexFor(`SELECT 1 WHERE a = :a AND b = :a AND c = :b`)
	rec := &bindRecorder{failAt: 2}

	err := bindRequest(rec, ix, Named(map[string]any{"a": 1, "b": 2}), discard)
	assert.ErrorIs(t, err, errBindFailed)
	assert.Equal(t, []bindCall{{1, 1}}, rec.calls)
}

func TestBind_UnknownKeyIsIgnored(t *testing.T) {
	ix := indexFor(`SELECT 1 WHERE a = :a`)
	rec := &bindRecorder{}

	require.NoError(t, bindRequest(rec, ix, Named(map[string]any{"a": 1, "zzz": 2}), discard))
	assert.Equal(t, []bindCall{{1, 1}}, rec.calls)
}
