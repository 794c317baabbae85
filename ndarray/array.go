// Package ndarray implements a resizable multi-dimensional array whose rank
// is decided at runtime. Elements live in one flat row-major buffer next to
// a vector of per-dimension lengths.
package ndarray

import (
	"fmt"
	"reflect"
	"slices"
)

// Array is a dynamic N-dimensional array. The zero value is an empty
// array of rank 1.
type Array[T any] struct {
	lengths []int
	data    []T
}

// Dynamic gives reflective access to an Array of unknown element type.
// It is implemented by *Array[T].
type Dynamic interface {
	ElemType() reflect.Type
	Rank() int
	Lengths() []int
	Len() int
	Reset(lengths ...int) error
	Ensure(idx ...int) error
	ElemAt(idx ...int) (reflect.Value, error)
}

// New returns a zeroed array with the given lengths.
func New[T any](lengths ...int) (*Array[T], error) {
	a := &Array[T]{}
	if err := a.Reset(lengths...); err != nil {
		return nil, err
	}
	return a, nil
}

// FromSlice builds an array over a copy of values laid out row-major.
func FromSlice[T any](values []T, lengths ...int) (*Array[T], error) {
	if len(lengths) == 0 {
		lengths = []int{len(values)}
	}
	size, err := Size(lengths)
	if err != nil {
		return nil, err
	}
	if size != len(values) {
		return nil, fmt.Errorf("%w: %d values for lengths %v", ErrIndexOutOfRange, len(values), lengths)
	}
	return &Array[T]{lengths: slices.Clone(lengths), data: slices.Clone(values)}, nil
}

func (a *Array[T]) shape() []int {
	if len(a.lengths) == 0 {
		return []int{0}
	}
	return a.lengths
}

func (a *Array[T]) Rank() int {
	return len(a.shape())
}

// Lengths returns a copy of the per-dimension lengths.
func (a *Array[T]) Lengths() []int {
	return slices.Clone(a.shape())
}

// Len returns the total number of elements.
func (a *Array[T]) Len() int {
	return len(a.data)
}

func (a *Array[T]) ElemType() reflect.Type {
	return reflect.TypeOf((*T)(nil)).Elem()
}

func (a *Array[T]) Offset(idx ...int) (int, error) {
	return Offset(a.shape(), idx)
}

func (a *Array[T]) IndexOf(off int) ([]int, error) {
	return Index(a.shape(), off)
}

func (a *Array[T]) At(idx ...int) (T, error) {
	var zero T
	off, err := a.Offset(idx...)
	if err != nil {
		return zero, err
	}
	return a.data[off], nil
}

func (a *Array[T]) Set(v T, idx ...int) error {
	off, err := a.Offset(idx...)
	if err != nil {
		return err
	}
	a.data[off] = v
	return nil
}

// ElemAt returns an addressable value for the element at idx.
func (a *Array[T]) ElemAt(idx ...int) (reflect.Value, error) {
	off, err := a.Offset(idx...)
	if err != nil {
		return reflect.Value{}, err
	}
	return reflect.ValueOf(&a.data[off]).Elem(), nil
}

// Values returns a copy of the elements in row-major order.
func (a *Array[T]) Values() []T {
	return slices.Clone(a.data)
}

// Reset discards all elements and reallocates a zeroed buffer.
func (a *Array[T]) Reset(lengths ...int) error {
	if len(lengths) == 0 {
		lengths = []int{0}
	}
	size, err := Size(lengths)
	if err != nil {
		return err
	}
	a.lengths = slices.Clone(lengths)
	a.data = make([]T, size)
	return nil
}

// Ensure grows the array so that idx addresses an element. An index with
// more components than the current rank grows the rank. Existing elements
// keep their index, padded with zeros in any new dimension.
func (a *Array[T]) Ensure(idx ...int) error {
	cur := a.shape()
	if len(idx) < len(cur) {
		return fmt.Errorf("%w: index %v has %d components, rank is %d",
			ErrIndexOutOfRange, idx, len(idx), len(cur))
	}
	next := make([]int, len(idx))
	changed := len(idx) != len(cur)
	for k, i := range idx {
		if i < 0 {
			return fmt.Errorf("%w: negative component in %v", ErrIndexOutOfRange, idx)
		}
		l := 0
		if k < len(cur) {
			l = cur[k]
		}
		next[k] = max(l, i+1)
		if next[k] != l {
			changed = true
		}
	}
	if !changed {
		return nil
	}
	return a.reshape(next)
}

// Grow enlarges the array to at least lengths. It never shrinks a
// dimension and never lowers the rank.
func (a *Array[T]) Grow(lengths ...int) error {
	cur := a.shape()
	if len(lengths) < len(cur) {
		return fmt.Errorf("%w: cannot grow rank %d to %d", ErrIndexOutOfRange, len(cur), len(lengths))
	}
	next := make([]int, len(lengths))
	for k, l := range lengths {
		if k < len(cur) {
			l = max(l, cur[k])
		}
		next[k] = l
	}
	return a.reshape(next)
}

// Shrink lowers the rank, keeping the slice of the array where every
// dropped trailing dimension is at index 0.
func (a *Array[T]) Shrink(rank int) error {
	cur := a.shape()
	if rank < 1 || rank > len(cur) {
		return fmt.Errorf("%w: cannot shrink rank %d to %d", ErrIndexOutOfRange, len(cur), rank)
	}
	if rank == len(cur) {
		return nil
	}
	return a.reshape(slices.Clone(cur[:rank]))
}

// Resize reshapes the array to exactly lengths. Elements whose index still
// exists under the new shape are kept; the rest are dropped.
func (a *Array[T]) Resize(lengths ...int) error {
	return a.reshape(slices.Clone(lengths))
}

// Clone returns a deep copy of the array structure. Elements are copied
// by assignment.
func (a *Array[T]) Clone() *Array[T] {
	return &Array[T]{lengths: slices.Clone(a.lengths), data: slices.Clone(a.data)}
}

// reshape moves every element to the same index under next. Dimensions
// missing on either side are taken to be at index 0.
func (a *Array[T]) reshape(next []int) error {
	size, err := Size(next)
	if err != nil {
		return err
	}
	old := a.shape()
	data := make([]T, size)
	if size > 0 && len(a.data) > 0 {
		idx := make([]int, len(next))
		from := make([]int, len(old))
		for off := 0; off < size; off++ {
			if mapIndex(idx, from, old) {
				src, _ := Offset(old, from)
				data[off] = a.data[src]
			}
			Increment(next, idx)
		}
	}
	a.lengths = next
	a.data = data
	return nil
}

// mapIndex fills from with the index under old that corresponds to idx.
// It reports false when no such element exists.
func mapIndex(idx, from, old []int) bool {
	for k := range from {
		from[k] = 0
		if k < len(idx) {
			from[k] = idx[k]
		}
		if from[k] >= old[k] {
			return false
		}
	}
	for k := len(from); k < len(idx); k++ {
		if idx[k] != 0 {
			return false
		}
	}
	return true
}
