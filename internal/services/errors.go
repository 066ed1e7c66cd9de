package services

import (
	"errors"
	"fmt"
)

// ErrForbidden is returned when the caller may not modify a record.
var ErrForbidden = errors.New("You are not authorized to perform this action")

// ValidationError reports input that breaks a business rule. Its message
// is safe to show to clients.
type ValidationError struct {
	Message string
}

func (e *ValidationError) Error() string {
	return e.Message
}

func invalid(format string, args ...any) error {
	return &ValidationError{Message: fmt.Sprintf(format, args...)}
}

// ConflictError reports a uniqueness violation.
type ConflictError struct {
	Message string
}

func (e *ConflictError) Error() string {
	return e.Message
}
