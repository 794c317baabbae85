package ndarray

import (
	"fmt"
	"math"
	"strconv"
	"strings"

	"github.com/hengadev/xmlcodec/internal/codecerr"
)

// MaxSize bounds the number of elements a single array may hold.
const MaxSize = 1 << 30

var (
	ErrIndexOutOfRange = codecerr.ErrIndexOutOfRange
	ErrSizeOverflow    = codecerr.ErrSizeOverflow
)

// Size returns the number of elements described by lengths.
func Size(lengths []int) (int, error) {
	if len(lengths) == 0 {
		return 0, fmt.Errorf("%w: rank must be at least 1", ErrSizeOverflow)
	}
	size := 1
	for _, l := range lengths {
		if l < 0 {
			return 0, fmt.Errorf("%w: negative length in %v", ErrSizeOverflow, lengths)
		}
		if l == 0 {
			// keep checking the remaining lengths for negatives
			size = 0
			continue
		}
		if size > 0 && size > math.MaxInt/l {
			return 0, fmt.Errorf("%w: lengths %v", ErrSizeOverflow, lengths)
		}
		size *= l
	}
	if size > MaxSize {
		return 0, fmt.Errorf("%w: %d elements exceeds limit of %d", ErrSizeOverflow, size, MaxSize)
	}
	return size, nil
}

// Offset converts an index vector into a row-major flat offset.
func Offset(lengths []int, idx []int) (int, error) {
	if len(idx) != len(lengths) {
		return 0, fmt.Errorf("%w: index %v has %d components, rank is %d",
			ErrIndexOutOfRange, idx, len(idx), len(lengths))
	}
	off := 0
	for k, i := range idx {
		if i < 0 || i >= lengths[k] {
			return 0, codecerr.NewIndexOutOfRangeError(idx, lengths)
		}
		off = off*lengths[k] + i
	}
	return off, nil
}

// Index converts a row-major flat offset back into an index vector.
func Index(lengths []int, off int) ([]int, error) {
	size, err := Size(lengths)
	if err != nil {
		return nil, err
	}
	if off < 0 || off >= size {
		return nil, fmt.Errorf("%w: offset %d for lengths %v", ErrIndexOutOfRange, off, lengths)
	}
	idx := make([]int, len(lengths))
	for k := len(lengths) - 1; k >= 0; k-- {
		idx[k] = off % lengths[k]
		off /= lengths[k]
	}
	return idx, nil
}

// Increment advances idx to the next row-major position in place. The
// last component moves fastest and overflow carries into the next higher
// dimension. Dimension 0 never wraps, so the cursor can move past the end.
func Increment(lengths []int, idx []int) {
	for k := len(idx) - 1; k > 0; k-- {
		idx[k]++
		if k >= len(lengths) || idx[k] < lengths[k] {
			return
		}
		idx[k] = 0
	}
	if len(idx) > 0 {
		idx[0]++
	}
}

// Decrement moves idx to the previous row-major position in place. It
// reports false, leaving idx untouched, when idx is already the origin.
func Decrement(lengths []int, idx []int) bool {
	origin := true
	for _, i := range idx {
		if i != 0 {
			origin = false
			break
		}
	}
	if origin {
		return false
	}
	for k := len(idx) - 1; k >= 0; k-- {
		if idx[k] > 0 {
			idx[k]--
			return true
		}
		if k < len(lengths) {
			idx[k] = lengths[k] - 1
		}
	}
	return true
}

// InBounds reports whether idx addresses an element inside lengths.
func InBounds(lengths []int, idx []int) bool {
	if len(idx) != len(lengths) {
		return false
	}
	for k, i := range idx {
		if i < 0 || i >= lengths[k] {
			return false
		}
	}
	return true
}

// ParseIndex parses a comma-separated list of zero-based indices.
func ParseIndex(text string) ([]int, error) {
	text = strings.TrimSpace(text)
	if text == "" {
		return nil, codecerr.NewMalformedIndexError(text, fmt.Errorf("empty index"))
	}
	parts := strings.Split(text, ",")
	idx := make([]int, len(parts))
	for k, p := range parts {
		v, err := strconv.Atoi(strings.TrimSpace(p))
		if err != nil {
			return nil, codecerr.NewMalformedIndexError(text, err)
		}
		if v < 0 {
			return nil, codecerr.NewMalformedIndexError(text, fmt.Errorf("negative component %d", v))
		}
		idx[k] = v
	}
	return idx, nil
}

// FormatIndex renders idx in the form ParseIndex accepts.
func FormatIndex(idx []int) string {
	parts := make([]string, len(idx))
	for k, i := range idx {
		parts[k] = strconv.Itoa(i)
	}
	return strings.Join(parts, ",")
}
