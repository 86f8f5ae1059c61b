// Package errors provides shared error types for the strategy store.
package errors

import (
	"errors"
	"fmt"
)

// NotFoundError indicates an edition's source file could not be found.
type NotFoundError struct {
	Edition  string // effective edition key after default substitution
	Location string // source location that was attempted
}

func (e *NotFoundError) Error() string {
	if e.Edition != "" {
		return fmt.Sprintf("strategy file not found: %s (edition %s)", e.Location, e.Edition)
	}
	return fmt.Sprintf("strategy file not found: %s", e.Location)
}

// NewNotFoundError creates a NotFoundError for an edition source.
func NewNotFoundError(edition, location string) *NotFoundError {
	return &NotFoundError{
		Edition:  edition,
		Location: location,
	}
}

// ValidationError indicates invalid configuration or input parameters.
type ValidationError struct {
	Field   string // field name that failed validation
	Value   string // the invalid value
	Message string // human-readable error message
}

func (e *ValidationError) Error() string {
	if e.Field != "" && e.Value != "" {
		return fmt.Sprintf("validation failed for %s=%q: %s", e.Field, e.Value, e.Message)
	}
	if e.Field != "" {
		return fmt.Sprintf("validation failed for %s: %s", e.Field, e.Message)
	}
	return fmt.Sprintf("validation failed: %s", e.Message)
}

// NewValidationError creates a ValidationError.
func NewValidationError(field, value, message string) *ValidationError {
	return &ValidationError{
		Field:   field,
		Value:   value,
		Message: message,
	}
}

// IsNotFound reports whether err is or wraps a NotFoundError.
func IsNotFound(err error) bool {
	var nf *NotFoundError
	return errors.As(err, &nf)
}

// IsValidation reports whether err is or wraps a ValidationError.
func IsValidation(err error) bool {
	var ve *ValidationError
	return errors.As(err, &ve)
}
