package xbind

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestChain_EmptyPassesThrough(t *testing.T) {
	var c Chain
	out, err := c.Apply("row")
	require.NoError(t, err)
	assert.Equal(t, "row", out)

	out, err = Chain{nil, nil}.Apply(7)
	require.NoError(t, err)
	assert.Equal(t, 7, out)
}

func TestChain_StagesRunInOrder(t *testing.T) {
	var trace []string
	step := func(name string) Stage {
		return func(row any) (any, error) {
			trace = append(trace, name)
			return row.(string) + name, nil
		}
	}

	out, err := Chain{step("a"), step("b"), step("c")}.Apply(">")
	require.NoError(t, err)
	assert.Equal(t, ">abc", out)
	assert.Equal(t, []string{"a", "b", "c"}, trace)
}

func TestChain_StopsAtFirstError(t *testing.T) {
	boom := errors.New("boom")
	called := false
	c := Chain{
		func(any) (any, error) { return nil, boom },
		func(row any) (any, error) { called = true; return row, nil },
	}

	_, err := c.Apply(1)
	assert.Same(t, boom, err)
	assert.False(t, called)
}

func TestChain_FilterSkips(t *testing.T) {
	even := Filter(func(row any) bool { return row.(int)%2 == 0 })

	out, err := Chain{even}.Apply(4)
	require.NoError(t, err)
	assert.Equal(t, 4, out)

	_, err = Chain{even, Map(func(any) any { panic("not reached") })}.Apply(3)
	assert.ErrorIs(t, err, Skip)
}

func TestChain_ThenDoesNotAlias(t *testing.T) {
	base := make(Chain, 1, 4)
	base[0] = Map(func(row any) any { return row.(int) + 1 })

	a := base.Then(Map(func(row any) any { return row.(int) * 10 }))
	b := base.Then(Map(func(row any) any { return row.(int) * 100 }))

	got, err := a.Apply(1)
	require.NoError(t, err)
	assert.Equal(t, 20, got)

	got, err = b.Apply(1)
	require.NoError(t, err)
	assert.Equal(t, 200, got)
	assert.Len(t, base, 1)
}
