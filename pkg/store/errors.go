package store

import (
	"errors"
	"fmt"
)

var (
	// ErrForbidden is returned when the actor's role may not perform the operation
	ErrForbidden = errors.New("forbidden")
	// ErrNotFound is returned when an event or absence id does not exist
	ErrNotFound = errors.New("not found")
	// ErrInvalidTransition is returned for absence status changes the lifecycle does not allow
	ErrInvalidTransition = errors.New("invalid status transition")
)

// ValidationError reports a bad field in caller-supplied input
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("invalid %s: %s", e.Field, e.Message)
}

func invalid(field, format string, args ...any) error {
	return &ValidationError{Field: field, Message: fmt.Sprintf(format, args...)}
}
