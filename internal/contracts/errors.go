package contracts

import (
	"errors"
	"fmt"
)

// Sentinel errors shared across the quote pipeline
var (
	// ErrNotFound indicates a requested symbol has no observation for the pricing date
	ErrNotFound = errors.New("observation not found")
	// ErrNoSnapshot indicates no pricing dates are available at all
	ErrNoSnapshot = errors.New("no market snapshot available")
)

// ValidationError indicates deal terms violate an invariant or an input range.
// 계산 시작 전에 발견되며 재시도 의미 없음
type ValidationError struct {
	Field   string
	Message string
}

// NewValidationError creates a validation error for a field
func NewValidationError(field, message string) *ValidationError {
	return &ValidationError{Field: field, Message: message}
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("validation failed: %s: %s", e.Field, e.Message)
}

// IsValidation reports whether err is a ValidationError
func IsValidation(err error) bool {
	var ve *ValidationError
	return errors.As(err, &ve)
}
