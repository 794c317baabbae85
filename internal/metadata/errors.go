package metadata

import (
	"fmt"

	"github.com/hengadev/xmlcodec/internal/codecerr"
)

var (
	ErrInvalidMetadata = codecerr.ErrInvalidMetadata
	ErrUnsupportedType = codecerr.ErrUnsupportedType
)

func newInvalidOptionError(field, option string) error {
	return fmt.Errorf("%w: field '%s' has unknown option '%s'", ErrInvalidMetadata, field, option)
}

func newPlacementConflictError(field string, want, got Placement) error {
	return fmt.Errorf("%w: field '%s' cannot be placed as %s, its type requires %s",
		ErrInvalidMetadata, field, want, got)
}

func newDuplicateNameError(name string, first, second string) error {
	return fmt.Errorf("%w: name '%s' used by both '%s' and '%s'", ErrInvalidMetadata, name, first, second)
}
