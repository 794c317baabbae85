package ndarray

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestZeroArray(t *testing.T) {
	var a Array[int]

	assert.Equal(t, 1, a.Rank())
	assert.Equal(t, []int{0}, a.Lengths())
	assert.Equal(t, 0, a.Len())
	_, err := a.At(0)
	assert.ErrorIs(t, err, ErrIndexOutOfRange)
}

func TestSetAt(t *testing.T) {
	a, err := New[bool](2, 3)
	require.NoError(t, err)

	require.NoError(t, a.Set(true, 1, 2))
	require.NoError(t, a.Set(true, 0, 1))

	v, err := a.At(1, 2)
	require.NoError(t, err)
	assert.True(t, v)
	assert.Equal(t, []bool{false, true, false, false, false, true}, a.Values())

	assert.ErrorIs(t, a.Set(true, 2, 0), ErrIndexOutOfRange)
}

func TestFromSlice(t *testing.T) {
	a, err := FromSlice([]int{1, 2, 3, 4, 5, 6}, 3, 2)
	require.NoError(t, err)
	v, err := a.At(2, 0)
	require.NoError(t, err)
	assert.Equal(t, 5, v)

	_, err = FromSlice([]int{1, 2, 3}, 2, 2)
	assert.ErrorIs(t, err, ErrIndexOutOfRange)
}

func TestEnsureGrowsLengthsAndRemaps(t *testing.T) {
	a, err := FromSlice([]int{1, 2, 3, 4, 5, 6}, 2, 3)
	require.NoError(t, err)

	require.NoError(t, a.Ensure(2, 4))

	assert.Equal(t, []int{3, 5}, a.Lengths())
	for i := 0; i < 2; i++ {
		for j := 0; j < 3; j++ {
			v, err := a.At(i, j)
			require.NoError(t, err)
			assert.Equal(t, i*3+j+1, v, "element (%d,%d)", i, j)
		}
	}
	v, err := a.At(2, 4)
	require.NoError(t, err)
	assert.Zero(t, v)
}

func TestEnsureGrowsRank(t *testing.T) {
	a, err := FromSlice([]string{"a", "b", "c"})
	require.NoError(t, err)

	require.NoError(t, a.Ensure(1, 2))

	assert.Equal(t, 2, a.Rank())
	assert.Equal(t, []int{3, 3}, a.Lengths())
	for i, want := range []string{"a", "b", "c"} {
		v, err := a.At(i, 0)
		require.NoError(t, err)
		assert.Equal(t, want, v)
	}
	v, err := a.At(0, 1)
	require.NoError(t, err)
	assert.Empty(t, v)
}

func TestEnsureRejectsShortIndex(t *testing.T) {
	a, err := New[int](2, 2)
	require.NoError(t, err)

	assert.ErrorIs(t, a.Ensure(1), ErrIndexOutOfRange)
	assert.ErrorIs(t, a.Ensure(-1, 0), ErrIndexOutOfRange)
}

func TestShrinkKeepsLeadingSlice(t *testing.T) {
	a, err := FromSlice([]int{1, 2, 3, 4, 5, 6, 7, 8}, 2, 2, 2)
	require.NoError(t, err)

	require.NoError(t, a.Shrink(2))

	assert.Equal(t, []int{2, 2}, a.Lengths())
	assert.Equal(t, []int{1, 3, 5, 7}, a.Values())

	assert.ErrorIs(t, a.Shrink(0), ErrIndexOutOfRange)
	assert.ErrorIs(t, a.Shrink(3), ErrIndexOutOfRange)
}

func TestGrowThenShrinkRestores(t *testing.T) {
	a, err := FromSlice([]int{1, 2, 3, 4, 5, 6}, 2, 3)
	require.NoError(t, err)

	require.NoError(t, a.Grow(2, 3, 4))
	require.NoError(t, a.Shrink(2))

	assert.Equal(t, []int{2, 3}, a.Lengths())
	assert.Equal(t, []int{1, 2, 3, 4, 5, 6}, a.Values())
}

func TestResizeDropsOutOfShape(t *testing.T) {
	a, err := FromSlice([]int{1, 2, 3, 4, 5, 6}, 2, 3)
	require.NoError(t, err)

	require.NoError(t, a.Resize(2, 2))

	assert.Equal(t, []int{1, 2, 4, 5}, a.Values())
}

func TestElemAtIsAddressable(t *testing.T) {
	a, err := New[int](2)
	require.NoError(t, err)

	var d Dynamic = a
	ev, err := d.ElemAt(1)
	require.NoError(t, err)
	ev.SetInt(42)

	v, err := a.At(1)
	require.NoError(t, err)
	assert.Equal(t, 42, v)
	assert.Equal(t, "int", d.ElemType().String())
}

func TestCloneIsIndependent(t *testing.T) {
	a, err := FromSlice([]int{1, 2})
	require.NoError(t, err)
	b := a.Clone()
	require.NoError(t, b.Set(9, 0))

	v, _ := a.At(0)
	assert.Equal(t, 1, v)
}
