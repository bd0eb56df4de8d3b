// Package errors defines the error values shared by the services and the
// handlers that translate them into HTTP responses.
package errors

import (
	stderrors "errors"
	"fmt"
)

var (
	// ErrNotFound covers both a missing row and a row owned by someone else.
	ErrNotFound = stderrors.New("not found")

	// ErrUnauthorized is returned for any rejected credential. The cause is
	// logged where it happens and never wrapped into this error.
	ErrUnauthorized = stderrors.New("invalid authentication credentials")

	ErrEmailTaken = stderrors.New("email already registered")
)

// ValidationError reports a rejected request field.
type ValidationError struct {
	Field   string            `json:"field"`
	Message string            `json:"message"`
	Details map[string]string `json:"details,omitempty"`
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("validation failed on %s: %s", e.Field, e.Message)
}

// NewValidationError creates a validation error for a single field.
func NewValidationError(field, message string) *ValidationError {
	return &ValidationError{
		Field:   field,
		Message: message,
		Details: map[string]string{field: message},
	}
}

func Is(err, target error) bool {
	return stderrors.Is(err, target)
}

func As(err error, target interface{}) bool {
	return stderrors.As(err, target)
}

func New(text string) error {
	return stderrors.New(text)
}
