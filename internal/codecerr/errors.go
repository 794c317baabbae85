package codecerr

import (
	"errors"
	"fmt"
	"strings"
)

var (
	// Schema errors
	ErrUnregisteredType      = errors.New("unregistered type")
	ErrUnsupportedType       = errors.New("unsupported type")
	ErrAbstractInstantiation = errors.New("cannot instantiate abstract type")
	ErrInvalidMetadata       = errors.New("invalid member metadata")

	// Data errors
	ErrNodeNotFound      = errors.New("node not found")
	ErrReadOnlyMember    = errors.New("read-only member")
	ErrIndexOutOfRange   = errors.New("index out of range")
	ErrSizeOverflow      = errors.New("array size overflow")
	ErrTypeConversion    = errors.New("type conversion failed")
	ErrMalformedDocument = errors.New("malformed document")
	ErrNilValue          = errors.New("nil value")
)

func NewUnregisteredTagError(tag string, action Action) error {
	return fmt.Errorf("%w: no type registered for tag '%s' to %s", ErrUnregisteredType, tag, action)
}

func NewUnregisteredTypeError(typeName string, action Action) error {
	return fmt.Errorf("%w: no tag registered for type %s and no default tag supplied to %s",
		ErrUnregisteredType, typeName, action)
}

func NewUnsupportedTypeError(member string, typeName string) error {
	return fmt.Errorf("%w: member '%s' has type %s which matches no placement policy",
		ErrUnsupportedType, member, typeName)
}

func NewAbstractInstantiationError(typeName string) error {
	return fmt.Errorf("%w: %s needs a concrete type hint", ErrAbstractInstantiation, typeName)
}

func NewNodeNotFoundError(name string) error {
	return fmt.Errorf("%w: %q", ErrNodeNotFound, name)
}

func NewReadOnlyMemberError(member string) error {
	return fmt.Errorf("%w: '%s' cannot be assigned", ErrReadOnlyMember, member)
}

func NewIndexOutOfRangeError(index []int, lengths []int) error {
	return fmt.Errorf("%w: index %v for lengths %v", ErrIndexOutOfRange, index, lengths)
}

func NewMalformedIndexError(text string, cause error) error {
	return fmt.Errorf("%w: malformed index %q: %v", ErrIndexOutOfRange, text, cause)
}

func NewTypeConversionError(text string, typeName string, cause error) error {
	if cause != nil {
		return fmt.Errorf("%w: cannot convert %q to %s: %v", ErrTypeConversion, text, typeName, cause)
	}
	return fmt.Errorf("%w: cannot convert %q to %s", ErrTypeConversion, text, typeName)
}

// NodeError annotates a failure with the XML node and member being
// processed when it happened.
type NodeError struct {
	Path   string
	Member string
	Action Action
	Err    error
}

func (e *NodeError) Error() string {
	var b strings.Builder
	b.WriteString(e.Action.String())
	b.WriteString(" ")
	b.WriteString(e.Path)
	if e.Member != "" {
		b.WriteString(" member '")
		b.WriteString(e.Member)
		b.WriteString("'")
	}
	b.WriteString(": ")
	b.WriteString(e.Err.Error())
	return b.String()
}

func (e *NodeError) Unwrap() error {
	return e.Err
}

// Wrap annotates err with node context. Errors that already carry a
// NodeError are returned as is, so the innermost context is kept.
func Wrap(err error, action Action, path, member string) error {
	if err == nil {
		return nil
	}
	var ne *NodeError
	if errors.As(err, &ne) {
		return err
	}
	return &NodeError{Path: path, Member: member, Action: action, Err: err}
}

// IsSchemaError reports whether err stems from how types are declared or
// registered rather than from document content.
func IsSchemaError(err error) bool {
	return errors.Is(err, ErrUnregisteredType) ||
		errors.Is(err, ErrUnsupportedType) ||
		errors.Is(err, ErrAbstractInstantiation) ||
		errors.Is(err, ErrInvalidMetadata)
}

// IsDataError reports whether err stems from document content.
func IsDataError(err error) bool {
	return errors.Is(err, ErrNodeNotFound) ||
		errors.Is(err, ErrReadOnlyMember) ||
		errors.Is(err, ErrIndexOutOfRange) ||
		errors.Is(err, ErrSizeOverflow) ||
		errors.Is(err, ErrTypeConversion) ||
		errors.Is(err, ErrMalformedDocument)
}
