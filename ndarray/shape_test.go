package ndarray

import (
	"errors"
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSize(t *testing.T) {
	tests := []struct {
		name    string
		lengths []int
		want    int
		wantErr error
	}{
		{"rank one", []int{4}, 4, nil},
		{"matrix", []int{2, 3}, 6, nil},
		{"empty dimension", []int{3, 0, 5}, 0, nil},
		{"no dimensions", nil, 0, ErrSizeOverflow},
		{"negative length", []int{2, -1}, 0, ErrSizeOverflow},
		{"overflow", []int{math.MaxInt / 2, 3}, 0, ErrSizeOverflow},
		{"above limit", []int{MaxSize, 2}, 0, ErrSizeOverflow},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := Size(tt.lengths)
			if tt.wantErr != nil {
				assert.ErrorIs(t, err, tt.wantErr)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestOffsetIndexBijection(t *testing.T) {
	shapes := [][]int{{1}, {7}, {2, 3}, {3, 1, 4}, {2, 2, 2, 2}}

	for _, lengths := range shapes {
		size, err := Size(lengths)
		require.NoError(t, err)
		for off := 0; off < size; off++ {
			idx, err := Index(lengths, off)
			require.NoError(t, err)
			back, err := Offset(lengths, idx)
			require.NoError(t, err)
			assert.Equal(t, off, back, "lengths %v offset %d", lengths, off)
		}
	}
}

func TestOffsetRowMajor(t *testing.T) {
	off, err := Offset([]int{2, 3, 4}, []int{1, 2, 3})
	require.NoError(t, err)
	assert.Equal(t, 1*12+2*4+3, off)
}

func TestOffsetRejects(t *testing.T) {
	_, err := Offset([]int{2, 3}, []int{1})
	assert.ErrorIs(t, err, ErrIndexOutOfRange)

	_, err = Offset([]int{2, 3}, []int{0, 3})
	assert.ErrorIs(t, err, ErrIndexOutOfRange)

	_, err = Offset([]int{2, 3}, []int{-1, 0})
	assert.ErrorIs(t, err, ErrIndexOutOfRange)

	_, err = Index([]int{2, 3}, 6)
	assert.ErrorIs(t, err, ErrIndexOutOfRange)
}

func TestIncrementVisitsRowMajorOrder(t *testing.T) {
	lengths := []int{2, 3}
	idx := []int{0, 0}
	var seen [][]int
	for i := 0; i < 6; i++ {
		seen = append(seen, append([]int(nil), idx...))
		Increment(lengths, idx)
	}

	assert.Equal(t, [][]int{{0, 0}, {0, 1}, {0, 2}, {1, 0}, {1, 1}, {1, 2}}, seen)
	assert.Equal(t, []int{2, 0}, idx, "dimension 0 runs past the end")
}

func TestDecrementMirrorsIncrement(t *testing.T) {
	lengths := []int{3, 2, 2}
	idx := []int{0, 0, 0}
	for i := 0; i < 11; i++ {
		Increment(lengths, idx)
	}
	require.Equal(t, []int{2, 1, 1}, idx)

	for i := 10; i >= 0; i-- {
		require.True(t, Decrement(lengths, idx))
		want, err := Index(lengths, i)
		require.NoError(t, err)
		assert.Equal(t, want, idx)
	}
	assert.False(t, Decrement(lengths, idx))
	assert.Equal(t, []int{0, 0, 0}, idx)
}

func TestParseIndex(t *testing.T) {
	idx, err := ParseIndex("1, 0,2")
	require.NoError(t, err)
	assert.Equal(t, []int{1, 0, 2}, idx)
	assert.Equal(t, "1,0,2", FormatIndex(idx))

	for _, bad := range []string{"", "a", "1,,2", "-1", "1,-2"} {
		_, err := ParseIndex(bad)
		assert.True(t, errors.Is(err, ErrIndexOutOfRange), "input %q", bad)
	}
}
