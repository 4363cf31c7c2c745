package indicator

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestLevelUndefinedComparisonsAreFalse(t *testing.T) {
	u := Undefined()
	v := LevelOf(10)

	require.False(t, u.GreaterThan(v))
	require.False(t, u.LessThan(v))
	require.False(t, u.AtLeast(v))
	require.False(t, u.AtMost(v))
	require.False(t, v.GreaterThan(u))
	require.False(t, v.AtLeast(u))
	require.False(t, u.Above(0))
	require.False(t, u.Below(0))
	require.False(t, u.GreaterThan(u))
}

func TestLevelDefinedComparisons(t *testing.T) {
	a, b := LevelOf(1), LevelOf(2)

	require.True(t, b.GreaterThan(a))
	require.True(t, a.LessThan(b))
	require.True(t, a.AtLeast(a))
	require.True(t, a.AtMost(a))
	require.True(t, b.Above(1.5))
	require.True(t, a.Below(1.5))
}

func TestLevelArithmeticPropagatesUndefined(t *testing.T) {
	u := Undefined()
	v := LevelOf(3)

	require.False(t, u.Add(v).Defined())
	require.False(t, v.Sub(u).Defined())
	require.False(t, u.Scale(2).Defined())
	require.InDelta(t, 5, v.Add(LevelOf(2)).Float(), 1e-12)
	require.InDelta(t, 6, v.Scale(2).Float(), 1e-12)
}

func TestLevelPtr(t *testing.T) {
	require.Nil(t, Undefined().Ptr())

	p := LevelOf(7.5).Ptr()
	require.NotNil(t, p)
	require.InDelta(t, 7.5, *p, 1e-12)
}
