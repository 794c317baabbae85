package codec

import (
	"fmt"
	"reflect"
	"slices"

	"github.com/beevik/etree"
	"github.com/hengadev/xmlcodec/internal/codecerr"
	"github.com/hengadev/xmlcodec/internal/metadata"
	"github.com/hengadev/xmlcodec/internal/serialization"
	"github.com/hengadev/xmlcodec/ndarray"
)

// Wire names used by the array encoding.
const (
	ItemTag     = "a"
	IndexAttr   = "i"
	ValueAttr   = "v"
	LengthsAttr = "l"
	// NilAttr marks an item holding a nil pointer or interface, which
	// keeps it apart from a present value whose members are all default.
	NilAttr = "nil"
)

var dynamicType = reflect.TypeOf((*ndarray.Dynamic)(nil)).Elem()

// arrayAccess gives uniform indexed access to Go slices, Go arrays and
// ndarray values.
type arrayAccess interface {
	elemType() reflect.Type
	lengths() []int
	// shaped reports whether the lengths must be written out.
	shaped() bool
	// reset prepares the array to receive items. A nil shape means the
	// document did not declare one.
	reset(shape []int) error
	// ensure makes idx addressable, growing the array where allowed.
	ensure(idx []int) error
	at(idx []int) (reflect.Value, error)
}

func newAccess(v reflect.Value) (arrayAccess, error) {
	if v.CanAddr() && v.Addr().Type().Implements(dynamicType) {
		return &dynamicAccess{d: v.Addr().Interface().(ndarray.Dynamic)}, nil
	}
	switch v.Kind() {
	case reflect.Slice:
		return &sliceAccess{v: v}, nil
	case reflect.Array:
		a := &fixedAccess{v: v}
		t := v.Type()
		for t.Kind() == reflect.Array && !serialization.IsScalar(t) {
			a.dims = append(a.dims, t.Len())
			t = t.Elem()
		}
		a.elem = t
		return a, nil
	}
	return nil, fmt.Errorf("%w: %s is not an array", codecerr.ErrUnsupportedType, v.Type())
}

type sliceAccess struct {
	v reflect.Value
}

func (s *sliceAccess) elemType() reflect.Type { return s.v.Type().Elem() }
func (s *sliceAccess) lengths() []int         { return []int{s.v.Len()} }
func (s *sliceAccess) shaped() bool           { return false }

func (s *sliceAccess) reset(shape []int) error {
	n := 0
	if shape != nil {
		if len(shape) != 1 {
			return fmt.Errorf("%w: slice has rank 1, document declares lengths %v",
				codecerr.ErrIndexOutOfRange, shape)
		}
		n = shape[0]
		if _, err := ndarray.Size(shape); err != nil {
			return err
		}
	}
	s.v.Set(reflect.MakeSlice(s.v.Type(), n, n))
	return nil
}

func (s *sliceAccess) ensure(idx []int) error {
	if len(idx) != 1 || idx[0] < 0 {
		return codecerr.NewIndexOutOfRangeError(idx, s.lengths())
	}
	if idx[0] < s.v.Len() {
		return nil
	}
	if _, err := ndarray.Size([]int{idx[0] + 1}); err != nil {
		return err
	}
	grown := reflect.MakeSlice(s.v.Type(), idx[0]+1, idx[0]+1)
	reflect.Copy(grown, s.v)
	s.v.Set(grown)
	return nil
}

func (s *sliceAccess) at(idx []int) (reflect.Value, error) {
	if !ndarray.InBounds(s.lengths(), idx) {
		return reflect.Value{}, codecerr.NewIndexOutOfRangeError(idx, s.lengths())
	}
	return s.v.Index(idx[0]), nil
}

// fixedAccess treats nested Go arrays such as [2][3]T as one array of
// rank 2 with bounds that never change.
type fixedAccess struct {
	v    reflect.Value
	dims []int
	elem reflect.Type
}

func (f *fixedAccess) elemType() reflect.Type { return f.elem }
func (f *fixedAccess) lengths() []int         { return slices.Clone(f.dims) }
func (f *fixedAccess) shaped() bool           { return len(f.dims) > 1 }

func (f *fixedAccess) reset(shape []int) error {
	if shape != nil {
		if len(shape) != len(f.dims) {
			return fmt.Errorf("%w: array has rank %d, document declares lengths %v",
				codecerr.ErrIndexOutOfRange, len(f.dims), shape)
		}
		for k, l := range shape {
			if l > f.dims[k] {
				return fmt.Errorf("%w: document lengths %v exceed declared bounds %v",
					codecerr.ErrIndexOutOfRange, shape, f.dims)
			}
		}
	}
	f.v.Set(reflect.Zero(f.v.Type()))
	return nil
}

func (f *fixedAccess) ensure(idx []int) error {
	if !ndarray.InBounds(f.dims, idx) {
		return codecerr.NewIndexOutOfRangeError(idx, f.dims)
	}
	return nil
}

func (f *fixedAccess) at(idx []int) (reflect.Value, error) {
	if err := f.ensure(idx); err != nil {
		return reflect.Value{}, err
	}
	v := f.v
	for _, i := range idx {
		v = v.Index(i)
	}
	return v, nil
}

type dynamicAccess struct {
	d ndarray.Dynamic
}

func (d *dynamicAccess) elemType() reflect.Type { return d.d.ElemType() }
func (d *dynamicAccess) lengths() []int         { return d.d.Lengths() }
func (d *dynamicAccess) shaped() bool           { return true }

func (d *dynamicAccess) reset(shape []int) error {
	return d.d.Reset(shape...)
}

func (d *dynamicAccess) ensure(idx []int) error {
	return d.d.Ensure(idx...)
}

func (d *dynamicAccess) at(idx []int) (reflect.Value, error) {
	return d.d.ElemAt(idx...)
}

// encodeArray writes the items of v as children of container in row-major
// order. With sparse set, zero items are skipped, the next written item
// carries its index explicitly and the lengths are always written so
// trailing zero items survive.
func encodeArray(env Env, v reflect.Value, container *etree.Element, sparse bool) error {
	if !v.CanAddr() {
		// ndarray values need an address to expose their methods.
		tmp := reflect.New(v.Type()).Elem()
		tmp.Set(v)
		v = tmp
	}
	acc, err := newAccess(v)
	if err != nil {
		return err
	}
	lengths := acc.lengths()
	if acc.shaped() || sparse {
		container.CreateAttr(LengthsAttr, ndarray.FormatIndex(lengths))
	}
	size, err := ndarray.Size(lengths)
	if err != nil {
		return err
	}

	idx := make([]int, len(lengths))
	skipped := false
	for off := 0; off < size; off++ {
		ev, err := acc.at(idx)
		if err != nil {
			return err
		}
		if sparse && ev.IsZero() {
			skipped = true
			ndarray.Increment(lengths, idx)
			continue
		}
		item := container.CreateElement(ItemTag)
		if skipped {
			item.CreateAttr(IndexAttr, ndarray.FormatIndex(idx))
			skipped = false
		}
		if err := writeItem(env, ev, item, sparse); err != nil {
			return codecerr.Wrap(err, codecerr.Serialize, item.GetPath(), itemName(container, idx))
		}
		ndarray.Increment(lengths, idx)
	}
	return nil
}

func writeItem(env Env, ev reflect.Value, item *etree.Element, sparse bool) error {
	placement, err := metadata.Classify(ev.Type())
	if err != nil {
		return err
	}
	if placement == metadata.Element && isAbsent(ev) {
		item.CreateAttr(NilAttr, "true")
		return nil
	}
	if placement != metadata.Items && isNil(ev) {
		return nil
	}
	switch placement {
	case metadata.Attribute:
		text, err := serialization.Format(ev)
		if err != nil {
			return err
		}
		item.CreateAttr(ValueAttr, text)
		return nil
	case metadata.Element:
		return writeElement(env, ev, item)
	case metadata.Items:
		return encodeArray(env, ev, item, sparse)
	}
	return fmt.Errorf("%w: %s", codecerr.ErrUnsupportedType, ev.Type())
}

// decodeArray reads the item children of container into v. Items without
// an explicit index take the next row-major position.
func decodeArray(env Env, container *etree.Element, v reflect.Value) error {
	acc, err := newAccess(v)
	if err != nil {
		return err
	}
	var shape []int
	if attr := container.SelectAttr(LengthsAttr); attr != nil {
		if shape, err = ndarray.ParseIndex(attr.Value); err != nil {
			return err
		}
	}
	if err := acc.reset(shape); err != nil {
		return err
	}

	cursor := make([]int, len(acc.lengths()))
	for _, item := range container.SelectElements(ItemTag) {
		idx := cursor
		if attr := item.SelectAttr(IndexAttr); attr != nil {
			if idx, err = ndarray.ParseIndex(attr.Value); err != nil {
				return codecerr.Wrap(err, codecerr.Deserialize, item.GetPath(), container.Tag)
			}
		}
		if err := acc.ensure(idx); err != nil {
			return codecerr.Wrap(err, codecerr.Deserialize, item.GetPath(), container.Tag)
		}
		ev, err := acc.at(idx)
		if err != nil {
			return codecerr.Wrap(err, codecerr.Deserialize, item.GetPath(), container.Tag)
		}
		if err := readItem(env, item, ev); err != nil {
			return codecerr.Wrap(err, codecerr.Deserialize, item.GetPath(), itemName(container, idx))
		}
		cursor = slices.Clone(idx)
		ndarray.Increment(acc.lengths(), cursor)
	}
	return nil
}

func readItem(env Env, item *etree.Element, ev reflect.Value) error {
	placement, err := metadata.Classify(ev.Type())
	if err != nil {
		return err
	}
	switch placement {
	case metadata.Attribute:
		attr := item.SelectAttr(ValueAttr)
		if attr == nil {
			ev.Set(reflect.Zero(ev.Type()))
			return nil
		}
		return serialization.Parse(attr.Value, ev)
	case metadata.Element:
		if isNilItem(item, ev) {
			ev.Set(reflect.Zero(ev.Type()))
			return nil
		}
		return readElement(env, item, ev)
	case metadata.Items:
		return decodeArray(env, item, ev)
	}
	return fmt.Errorf("%w: %s", codecerr.ErrUnsupportedType, ev.Type())
}

// isNilItem reports whether item stands for a nil pointer or interface.
// An interface item without a concrete child has nothing to instantiate
// and is read as nil too.
func isNilItem(item *etree.Element, ev reflect.Value) bool {
	switch ev.Kind() {
	case reflect.Pointer:
		return item.SelectAttrValue(NilAttr, "") == "true" && len(item.ChildElements()) == 0
	case reflect.Interface:
		return len(item.ChildElements()) == 0
	}
	return false
}

func itemName(container *etree.Element, idx []int) string {
	return container.Tag + "[" + ndarray.FormatIndex(idx) + "]"
}
