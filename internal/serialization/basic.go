// Package serialization converts scalar values to and from the text form
// used for XML attributes.
package serialization

import (
	"encoding"
	"encoding/base64"
	"fmt"
	"reflect"
	"strconv"

	"github.com/hengadev/xmlcodec/internal/codecerr"
)

var (
	textMarshalerType   = reflect.TypeOf((*encoding.TextMarshaler)(nil)).Elem()
	textUnmarshalerType = reflect.TypeOf((*encoding.TextUnmarshaler)(nil)).Elem()
)

// IsTextual reports whether t round-trips through its own MarshalText and
// UnmarshalText methods.
func IsTextual(t reflect.Type) bool {
	return t.Implements(textMarshalerType) && reflect.PointerTo(t).Implements(textUnmarshalerType)
}

// IsScalar reports whether values of t convert losslessly to text.
// Pointers to scalars are scalars.
func IsScalar(t reflect.Type) bool {
	if t.Kind() == reflect.Pointer {
		t = t.Elem()
		if t.Kind() == reflect.Pointer {
			return false
		}
	}
	if IsTextual(t) {
		return true
	}
	switch t.Kind() {
	case reflect.Bool, reflect.String,
		reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64,
		reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64,
		reflect.Float32, reflect.Float64:
		return true
	case reflect.Slice:
		return t.Elem().Kind() == reflect.Uint8
	}
	return false
}

// Format renders a scalar value as text. A nil pointer yields ErrNilValue.
func Format(v reflect.Value) (string, error) {
	if v.Kind() == reflect.Pointer {
		if v.IsNil() {
			return "", codecerr.ErrNilValue
		}
		v = v.Elem()
	}
	if IsTextual(v.Type()) {
		text, err := v.Interface().(encoding.TextMarshaler).MarshalText()
		if err != nil {
			return "", fmt.Errorf("%w: %s: %v", codecerr.ErrTypeConversion, v.Type(), err)
		}
		return string(text), nil
	}

	switch v.Kind() {
	case reflect.String:
		return v.String(), nil
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		return strconv.FormatInt(v.Int(), 10), nil
	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64:
		return strconv.FormatUint(v.Uint(), 10), nil
	case reflect.Float32:
		return strconv.FormatFloat(v.Float(), 'g', -1, 32), nil
	case reflect.Float64:
		return strconv.FormatFloat(v.Float(), 'g', -1, 64), nil
	case reflect.Bool:
		return strconv.FormatBool(v.Bool()), nil
	case reflect.Slice:
		if v.Type().Elem().Kind() == reflect.Uint8 {
			return base64.StdEncoding.EncodeToString(v.Bytes()), nil
		}
	}
	return "", fmt.Errorf("%w: %s is not a scalar", codecerr.ErrUnsupportedType, v.Type())
}

// Parse converts text into the settable value v. Nil pointers are
// allocated.
func Parse(text string, v reflect.Value) error {
	if v.Kind() == reflect.Pointer {
		if v.IsNil() {
			v.Set(reflect.New(v.Type().Elem()))
		}
		v = v.Elem()
	}
	t := v.Type()
	if IsTextual(t) {
		if err := v.Addr().Interface().(encoding.TextUnmarshaler).UnmarshalText([]byte(text)); err != nil {
			return codecerr.NewTypeConversionError(text, t.String(), err)
		}
		return nil
	}

	switch v.Kind() {
	case reflect.String:
		v.SetString(text)
		return nil
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		val, err := strconv.ParseInt(text, 10, t.Bits())
		if err != nil {
			return codecerr.NewTypeConversionError(text, t.String(), err)
		}
		v.SetInt(val)
		return nil
	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64:
		val, err := strconv.ParseUint(text, 10, t.Bits())
		if err != nil {
			return codecerr.NewTypeConversionError(text, t.String(), err)
		}
		v.SetUint(val)
		return nil
	case reflect.Float32, reflect.Float64:
		val, err := strconv.ParseFloat(text, t.Bits())
		if err != nil {
			return codecerr.NewTypeConversionError(text, t.String(), err)
		}
		v.SetFloat(val)
		return nil
	case reflect.Bool:
		val, err := strconv.ParseBool(text)
		if err != nil {
			return codecerr.NewTypeConversionError(text, t.String(), err)
		}
		v.SetBool(val)
		return nil
	case reflect.Slice:
		if t.Elem().Kind() == reflect.Uint8 {
			b, err := base64.StdEncoding.DecodeString(text)
			if err != nil {
				return codecerr.NewTypeConversionError(text, t.String(), err)
			}
			v.SetBytes(b)
			return nil
		}
	}
	return fmt.Errorf("%w: %s is not a scalar", codecerr.ErrUnsupportedType, t)
}
