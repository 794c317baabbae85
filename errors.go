package xmlcodec

import (
	"errors"

	"github.com/hengadev/xmlcodec/internal/codecerr"
)

var (
	// Schema errors
	ErrUnregisteredType      = codecerr.ErrUnregisteredType
	ErrUnsupportedType       = codecerr.ErrUnsupportedType
	ErrAbstractInstantiation = codecerr.ErrAbstractInstantiation
	ErrInvalidMetadata       = codecerr.ErrInvalidMetadata

	// Data errors
	ErrNodeNotFound      = codecerr.ErrNodeNotFound
	ErrReadOnlyMember    = codecerr.ErrReadOnlyMember
	ErrIndexOutOfRange   = codecerr.ErrIndexOutOfRange
	ErrSizeOverflow      = codecerr.ErrSizeOverflow
	ErrTypeConversion    = codecerr.ErrTypeConversion
	ErrMalformedDocument = codecerr.ErrMalformedDocument
	ErrNilValue          = codecerr.ErrNilValue

	// High-level errors
	ErrInvalidConfiguration = errors.New("invalid configuration")
)

// NodeError carries the XML path and member being processed when a
// (de)serialization failed. Use errors.As to retrieve it.
type NodeError = codecerr.NodeError

// IsSchemaError reports whether err comes from how types are declared or
// registered. Fixing it requires a code change, not a different document.
func IsSchemaError(err error) bool {
	return codecerr.IsSchemaError(err)
}

// IsDataError reports whether err comes from the content of a document.
func IsDataError(err error) bool {
	return codecerr.IsDataError(err)
}

// IsConfigurationError reports whether err comes from invalid engine or
// application configuration.
func IsConfigurationError(err error) bool {
	return errors.Is(err, ErrInvalidConfiguration)
}

// ErrorPath returns the XML path of the node being processed when err
// occurred, or "" when err carries no node context.
func ErrorPath(err error) string {
	var ne *NodeError
	if errors.As(err, &ne) {
		return ne.Path
	}
	return ""
}
