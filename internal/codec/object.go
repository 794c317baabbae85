// Package codec converts Go values to etree elements and back, one
// struct type at a time.
package codec

import (
	"fmt"
	"reflect"

	"github.com/beevik/etree"
	"github.com/hengadev/xmlcodec/internal/codecerr"
	"github.com/hengadev/xmlcodec/internal/metadata"
	"github.com/hengadev/xmlcodec/internal/serialization"
)

// Env is what a serializer needs from the engine that owns it.
type Env interface {
	// Object returns the shared serializer for the struct type t.
	Object(t reflect.Type) (*Object, error)
	TagOf(t reflect.Type) (string, bool)
	TypeOf(tag string) (reflect.Type, bool)
	// New returns an addressable default instance of t.
	New(t reflect.Type) reflect.Value
}

// Object serializes one struct type. It is immutable after construction
// and safe for concurrent use.
type Object struct {
	meta *metadata.Type
}

// NewObject resolves the members of t. It never consults the cache, so
// nested member types are looked up lazily while (de)serializing.
func NewObject(t reflect.Type) (*Object, error) {
	meta, err := metadata.Resolve(t)
	if err != nil {
		return nil, err
	}
	return &Object{meta: meta}, nil
}

func (o *Object) Type() reflect.Type {
	return o.meta.GoType
}

func (o *Object) Metadata() *metadata.Type {
	return o.meta
}

// Serialize writes the members of v into el. v must have the object type.
func (o *Object) Serialize(env Env, v reflect.Value, el *etree.Element) error {
	for v.Kind() == reflect.Pointer {
		if v.IsNil() {
			return codecerr.Wrap(codecerr.ErrNilValue, codecerr.Serialize, el.GetPath(), "")
		}
		v = v.Elem()
	}
	for i := range o.meta.Members {
		m := &o.meta.Members[i]
		fv := v.FieldByIndex(m.Index)
		if !m.EmitDefault && m.IsDefault(fv) {
			continue
		}
		if err := o.serializeMember(env, m, fv, el); err != nil {
			return codecerr.Wrap(err, codecerr.Serialize, el.GetPath(), m.Name)
		}
	}
	return nil
}

func (o *Object) serializeMember(env Env, m *metadata.Member, fv reflect.Value, el *etree.Element) error {
	switch m.Placement {
	case metadata.Attribute:
		if isNil(fv) {
			return nil
		}
		text, err := serialization.Format(fv)
		if err != nil {
			return err
		}
		el.CreateAttr(m.Name, text)
		return nil
	case metadata.Element:
		if isAbsent(fv) {
			return nil
		}
		if serialization.IsScalar(fv.Type()) {
			text, err := serialization.Format(fv)
			if err != nil {
				return err
			}
			el.CreateElement(m.Name).SetText(text)
			return nil
		}
		return writeElement(env, fv, el.CreateElement(m.Name))
	case metadata.Items:
		if fv.Kind() == reflect.Slice && fv.IsNil() {
			return nil
		}
		return encodeArray(env, fv, el.CreateElement(m.Name), o.meta.Class.SparseArrays)
	}
	return codecerr.NewUnsupportedTypeError(m.Name, fv.Type().String())
}

// writeElement serializes a struct, pointer or interface value into el.
// Interface values get an extra child tagged with the concrete type. Nil
// values, including interfaces holding a nil pointer, write nothing.
func writeElement(env Env, v reflect.Value, el *etree.Element) error {
	if isAbsent(v) {
		return nil
	}
	if v.Kind() == reflect.Interface {
		concrete := v.Elem()
		t := indirect(concrete.Type())
		tag, ok := env.TagOf(t)
		if !ok {
			return codecerr.NewUnregisteredTypeError(t.String(), codecerr.Serialize)
		}
		el = el.CreateElement(tag)
		v = concrete
	}
	for v.Kind() == reflect.Pointer {
		v = v.Elem()
	}
	obj, err := env.Object(v.Type())
	if err != nil {
		return err
	}
	return obj.Serialize(env, v, el)
}

// Deserialize fills target, an addressable value of the object type, from
// el. Members absent from el take their declared default.
func (o *Object) Deserialize(env Env, el *etree.Element, target reflect.Value) error {
	if !target.CanSet() {
		return codecerr.Wrap(codecerr.NewReadOnlyMemberError(o.meta.GoType.String()),
			codecerr.Deserialize, el.GetPath(), "")
	}
	for i := range o.meta.Members {
		m := &o.meta.Members[i]
		fv := target.FieldByIndex(m.Index)
		if err := o.deserializeMember(env, m, el, fv); err != nil {
			return codecerr.Wrap(err, codecerr.Deserialize, el.GetPath(), m.Name)
		}
	}
	return nil
}

func (o *Object) deserializeMember(env Env, m *metadata.Member, el *etree.Element, fv reflect.Value) error {
	var (
		attr  *etree.Attr
		child *etree.Element
	)
	if m.Placement == metadata.Attribute {
		attr = el.SelectAttr(m.Name)
	} else {
		child = el.SelectElement(m.Name)
	}
	if attr == nil && child == nil {
		if m.Required {
			return codecerr.NewNodeNotFoundError(m.Name)
		}
		fv.Set(m.NewDefault())
		return nil
	}
	if m.ReadOnly || !fv.CanSet() {
		return codecerr.NewReadOnlyMemberError(m.Name)
	}

	switch m.Placement {
	case metadata.Attribute:
		return serialization.Parse(attr.Value, fv)
	case metadata.Element:
		if serialization.IsScalar(fv.Type()) {
			return serialization.Parse(child.Text(), fv)
		}
		return readElement(env, child, fv)
	case metadata.Items:
		return decodeArray(env, child, fv)
	}
	return codecerr.NewUnsupportedTypeError(m.Name, fv.Type().String())
}

// readElement is the inverse of writeElement.
func readElement(env Env, el *etree.Element, fv reflect.Value) error {
	switch fv.Kind() {
	case reflect.Interface:
		inner := firstChild(el)
		if inner == nil {
			return codecerr.NewAbstractInstantiationError(fv.Type().String())
		}
		v, err := instantiate(env, inner, fv.Type())
		if err != nil {
			return err
		}
		fv.Set(v)
		return nil
	case reflect.Pointer:
		nv, err := readStruct(env, el, fv.Type().Elem())
		if err != nil {
			return err
		}
		fv.Set(nv.Addr())
		return nil
	case reflect.Struct:
		nv, err := readStruct(env, el, fv.Type())
		if err != nil {
			return err
		}
		fv.Set(nv)
		return nil
	}
	return fmt.Errorf("%w: %s", codecerr.ErrUnsupportedType, fv.Type())
}

// instantiate builds the registered type named by el's tag and returns it
// as a value assignable to iface, preferring a pointer.
func instantiate(env Env, el *etree.Element, iface reflect.Type) (reflect.Value, error) {
	t, ok := env.TypeOf(el.Tag)
	if !ok {
		return reflect.Value{}, codecerr.NewUnregisteredTagError(el.Tag, codecerr.Deserialize)
	}
	nv, err := readStruct(env, el, t)
	if err != nil {
		return reflect.Value{}, err
	}
	switch {
	case nv.Addr().Type().AssignableTo(iface):
		return nv.Addr(), nil
	case nv.Type().AssignableTo(iface):
		return nv, nil
	}
	return reflect.Value{}, fmt.Errorf("%w: %s registered as '%s' does not implement %s",
		codecerr.ErrUnsupportedType, t, el.Tag, iface)
}

func readStruct(env Env, el *etree.Element, t reflect.Type) (reflect.Value, error) {
	obj, err := env.Object(t)
	if err != nil {
		return reflect.Value{}, err
	}
	nv := env.New(t)
	if err := obj.Deserialize(env, el, nv); err != nil {
		return reflect.Value{}, err
	}
	return nv, nil
}

func firstChild(el *etree.Element) *etree.Element {
	children := el.ChildElements()
	if len(children) == 0 {
		return nil
	}
	return children[0]
}

func isNil(v reflect.Value) bool {
	switch v.Kind() {
	case reflect.Pointer, reflect.Interface, reflect.Slice, reflect.Map:
		return v.IsNil()
	}
	return false
}

// isAbsent reports whether v is nil or an interface wrapping a nil pointer.
func isAbsent(v reflect.Value) bool {
	if v.Kind() == reflect.Interface && !v.IsNil() {
		return isNil(v.Elem())
	}
	return isNil(v)
}

func indirect(t reflect.Type) reflect.Type {
	for t.Kind() == reflect.Pointer {
		t = t.Elem()
	}
	return t
}
