package receipt

import (
	"errors"
	"fmt"
	"strings"
)

var (
	ErrValidation                   = errors.New("validation failed")
	ErrMissingTaxationType          = errors.New("missing taxation type")
	ErrIncompleteCorrectionMetadata = errors.New("incomplete correction metadata")
)

// MissingTaxationTypeError lists every item that has no taxation type.
type MissingTaxationTypeError struct {
	Descriptions []string
}

func (e *MissingTaxationTypeError) Error() string {
	return fmt.Sprintf("taxation type is not set for items: %s", strings.Join(e.Descriptions, "; "))
}

func (e *MissingTaxationTypeError) Unwrap() []error {
	return []error{ErrValidation, ErrMissingTaxationType}
}

// IncompleteCorrectionError names the correction field the device's FFD
// version requires but the request left empty.
type IncompleteCorrectionError struct {
	Field   string
	Version string
}

func (e *IncompleteCorrectionError) Error() string {
	return fmt.Sprintf("%s is required for correction receipts in FFD %s", e.Field, e.Version)
}

func (e *IncompleteCorrectionError) Unwrap() []error {
	return []error{ErrValidation, ErrIncompleteCorrectionMetadata}
}

func invalid(format string, args ...any) error {
	return fmt.Errorf("%w: %s", ErrValidation, fmt.Sprintf(format, args...))
}
