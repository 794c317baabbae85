// Package metadata resolves which fields of a struct type take part in
// XML serialization and how each one is placed.
package metadata

import (
	"errors"
	"fmt"
	"reflect"
	"strings"

	"github.com/hengadev/errsx"
	"github.com/hengadev/xmlcodec/internal/serialization"
	"github.com/hengadev/xmlcodec/ndarray"
)

// StructTag is the struct tag key read by the resolver.
const StructTag = "xmlc"

var (
	dynamicType    = reflect.TypeOf((*ndarray.Dynamic)(nil)).Elem()
	describerType  = reflect.TypeOf((*Describer)(nil)).Elem()
	configurerType = reflect.TypeOf((*Configurer)(nil)).Elem()
)

// Member is the resolved description of one serializable field.
type Member struct {
	Name      string
	Field     string
	Index     []int
	Type      reflect.Type
	Placement Placement
	// Default is never invalid; it holds the zero value when no default
	// was declared.
	Default     reflect.Value
	HasDefault  bool
	Required    bool
	ReadOnly    bool
	EmitDefault bool
}

// IsDefault reports whether v equals the member default.
func (m *Member) IsDefault(v reflect.Value) bool {
	if !m.HasDefault {
		return v.IsZero()
	}
	return reflect.DeepEqual(v.Interface(), m.Default.Interface())
}

// NewDefault returns a copy of the member default that shares no pointer,
// slice or map storage with it, so decoded values can be mutated freely.
func (m *Member) NewDefault() reflect.Value {
	return copyValue(m.Default)
}

func copyValue(v reflect.Value) reflect.Value {
	switch v.Kind() {
	case reflect.Pointer:
		if v.IsNil() {
			return v
		}
		out := reflect.New(v.Type().Elem())
		out.Elem().Set(copyValue(v.Elem()))
		return out
	case reflect.Slice:
		if v.IsNil() {
			return v
		}
		out := reflect.MakeSlice(v.Type(), v.Len(), v.Len())
		for i := 0; i < v.Len(); i++ {
			out.Index(i).Set(copyValue(v.Index(i)))
		}
		return out
	case reflect.Map:
		if v.IsNil() {
			return v
		}
		out := reflect.MakeMapWithSize(v.Type(), v.Len())
		iter := v.MapRange()
		for iter.Next() {
			out.SetMapIndex(iter.Key(), copyValue(iter.Value()))
		}
		return out
	case reflect.Array:
		out := reflect.New(v.Type()).Elem()
		for i := 0; i < v.Len(); i++ {
			out.Index(i).Set(copyValue(v.Index(i)))
		}
		return out
	case reflect.Struct:
		out := reflect.New(v.Type()).Elem()
		out.Set(v)
		for i := 0; i < v.NumField(); i++ {
			if f := out.Field(i); f.CanSet() {
				f.Set(copyValue(v.Field(i)))
			}
		}
		return out
	}
	return v
}

// Type is the resolved member list of one struct type. It is immutable
// once returned by Resolve.
type Type struct {
	GoType  reflect.Type
	Class   ClassConfig
	Members []Member
	byName  map[string]int
}

// Member looks a member up by its effective name.
func (t *Type) Member(name string) (*Member, bool) {
	i, ok := t.byName[name]
	if !ok {
		return nil, false
	}
	return &t.Members[i], true
}

// Resolve builds the member list of the struct type t. Pointer types are
// resolved through to their element.
func Resolve(t reflect.Type) (*Type, error) {
	for t.Kind() == reflect.Pointer {
		t = t.Elem()
	}
	if t.Kind() != reflect.Struct {
		return nil, fmt.Errorf("%w: %s is not a struct", ErrUnsupportedType, t)
	}

	rt := &Type{GoType: t, byName: make(map[string]int)}
	if c, ok := implements(t, configurerType); ok {
		rt.Class = c.(Configurer).XMLClass()
	}
	described := make(map[string]MemberConfig)
	if d, ok := implements(t, describerType); ok {
		var errs errsx.Map
		for _, mc := range d.(Describer).XMLMembers() {
			if f, found := t.FieldByName(mc.Field); !found || !f.IsExported() {
				errs.Set(mc.Field, fmt.Errorf("%w: described field '%s' is not an exported field of %s",
					ErrInvalidMetadata, mc.Field, t))
				continue
			}
			described[mc.Field] = mc
		}
		if !errs.IsEmpty() {
			return nil, fmt.Errorf("%w: resolve %s: %w", ErrInvalidMetadata, t, errs.AsError())
		}
	}

	r := resolver{owner: rt, described: described, owners: make(map[string]string)}
	r.walk(t, nil)
	if !r.errs.IsEmpty() {
		sentinel := ErrInvalidMetadata
		if r.unsupported {
			sentinel = ErrUnsupportedType
		}
		return nil, fmt.Errorf("%w: resolve %s: %w", sentinel, t, r.errs.AsError())
	}
	return rt, nil
}

type resolver struct {
	owner     *Type
	described map[string]MemberConfig
	owners    map[string]string
	errs      errsx.Map
	// unsupported is set once any field has a type no placement fits.
	unsupported bool
}

func (r *resolver) walk(t reflect.Type, index []int) {
	for i := 0; i < t.NumField(); i++ {
		field := t.Field(i)
		path := append(append([]int(nil), index...), i)

		if field.Anonymous && field.IsExported() && field.Type.Kind() == reflect.Struct &&
			!serialization.IsScalar(field.Type) && field.Tag.Get(StructTag) == "" {
			if _, ok := r.described[field.Name]; !ok {
				r.walk(field.Type, path)
				continue
			}
		}
		if !field.IsExported() {
			continue
		}

		mc, explicit, err := r.config(field)
		if err != nil {
			r.errs.Set(field.Name, err)
			continue
		}
		if mc.Skip || (!explicit && r.owner.Class.ExplicitOnly) {
			continue
		}

		m, err := r.member(field, path, mc)
		if err != nil {
			r.unsupported = r.unsupported || errors.Is(err, ErrUnsupportedType)
			r.errs.Set(field.Name, err)
			continue
		}
		if prev, dup := r.owners[m.Name]; dup {
			r.errs.Set(field.Name, newDuplicateNameError(m.Name, prev, field.Name))
			continue
		}
		r.owners[m.Name] = field.Name
		r.owner.byName[m.Name] = len(r.owner.Members)
		r.owner.Members = append(r.owner.Members, m)
	}
}

// config returns the explicit configuration of field, either from the
// descriptor table or from its struct tag.
func (r *resolver) config(field reflect.StructField) (MemberConfig, bool, error) {
	if mc, ok := r.described[field.Name]; ok {
		return mc, true, nil
	}
	tag, ok := field.Tag.Lookup(StructTag)
	if !ok {
		return MemberConfig{Field: field.Name}, false, nil
	}
	mc, err := ParseTag(field.Name, tag)
	return mc, true, err
}

func (r *resolver) member(field reflect.StructField, path []int, mc MemberConfig) (Member, error) {
	natural, err := Classify(field.Type)
	if err != nil {
		return Member{}, fmt.Errorf("field '%s': %w", field.Name, err)
	}
	placement := natural
	switch {
	case mc.Placement == Infer:
	case mc.Placement == Element && natural == Attribute:
		placement = Element
	case mc.Placement != natural:
		return Member{}, newPlacementConflictError(field.Name, mc.Placement, natural)
	}

	m := Member{
		Name:      mc.Name,
		Field:     field.Name,
		Index:     path,
		Type:      field.Type,
		Placement: placement,
		Default:   reflect.Zero(field.Type),
		Required:  mc.Required,
		ReadOnly:  mc.ReadOnly,
	}
	if m.Name == "" {
		m.Name = field.Name
	}
	if mc.Default != nil {
		def, err := convertDefault(field, mc.Default)
		if err != nil {
			return Member{}, err
		}
		m.Default = def
		m.HasDefault = true
	}

	class := r.owner.Class
	switch {
	case m.Required:
		m.EmitDefault = true
	case class.ClassOverridesMembers || mc.Emit == EmitInherit:
		m.EmitDefault = class.EmitDefaults
	default:
		m.EmitDefault = mc.Emit == EmitAlways
	}
	return m, nil
}

// Classify returns the natural placement of values of type t.
func Classify(t reflect.Type) (Placement, error) {
	if serialization.IsScalar(t) {
		return Attribute, nil
	}
	if reflect.PointerTo(t).Implements(dynamicType) {
		return Items, nil
	}
	switch t.Kind() {
	case reflect.Slice, reflect.Array:
		if _, err := Classify(t.Elem()); err != nil {
			return 0, err
		}
		return Items, nil
	case reflect.Struct, reflect.Interface:
		return Element, nil
	case reflect.Pointer:
		if t.Elem().Kind() == reflect.Struct {
			return Element, nil
		}
	}
	return 0, fmt.Errorf("%w: %s", ErrUnsupportedType, t)
}

func convertDefault(field reflect.StructField, def any) (reflect.Value, error) {
	v := reflect.ValueOf(def)
	t := field.Type
	switch {
	case v.Type().AssignableTo(t):
		out := reflect.New(t).Elem()
		out.Set(v)
		return out, nil
	case v.Kind() == reflect.String && serialization.IsScalar(t):
		out := reflect.New(t).Elem()
		if err := serialization.Parse(v.String(), out); err != nil {
			return reflect.Value{}, fmt.Errorf("%w: default of '%s': %w", ErrInvalidMetadata, field.Name, err)
		}
		return out, nil
	case v.Type().ConvertibleTo(t) && serialization.IsScalar(t):
		return v.Convert(t), nil
	}
	return reflect.Value{}, fmt.Errorf("%w: default %v cannot be assigned to '%s' of type %s",
		ErrInvalidMetadata, def, field.Name, t)
}

// implements returns an instance of t, or of *t, that implements iface.
func implements(t reflect.Type, iface reflect.Type) (any, bool) {
	if t.Implements(iface) {
		return reflect.Zero(t).Interface(), true
	}
	if reflect.PointerTo(t).Implements(iface) {
		return reflect.New(t).Interface(), true
	}
	return nil, false
}

// ParseTag parses an xmlc struct tag of the form
// "name,attr|elem|items,required,readonly,always,omitdefault,default=text".
// The default option must come last; its text runs to the end of the tag.
func ParseTag(field, tag string) (MemberConfig, error) {
	mc := MemberConfig{Field: field}
	if tag == "-" {
		mc.Skip = true
		return mc, nil
	}
	name, rest, _ := strings.Cut(tag, ",")
	mc.Name = strings.TrimSpace(name)
	for rest != "" {
		var opt string
		if strings.HasPrefix(strings.TrimSpace(rest), "default=") {
			mc.Default = strings.TrimPrefix(strings.TrimSpace(rest), "default=")
			break
		}
		opt, rest, _ = strings.Cut(rest, ",")
		switch strings.TrimSpace(opt) {
		case "attr":
			mc.Placement = Attribute
		case "elem":
			mc.Placement = Element
		case "items":
			mc.Placement = Items
		case "required":
			mc.Required = true
		case "readonly":
			mc.ReadOnly = true
		case "always":
			mc.Emit = EmitAlways
		case "omitdefault":
			mc.Emit = EmitOmitDefault
		case "":
		default:
			return mc, newInvalidOptionError(field, opt)
		}
	}
	return mc, nil
}
