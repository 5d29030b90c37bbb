package delivery

import (
	"errors"
	"fmt"
)

// ErrValidation is matched by every ValidationError returned from this package.
var ErrValidation = errors.New("validation error")

// ValidationError reports an input the engine refuses to compute over.
type ValidationError struct {
	Field  string
	Reason string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("invalid %s: %s", e.Field, e.Reason)
}

func (e *ValidationError) Unwrap() error {
	return ErrValidation
}

func invalid(field, format string, args ...interface{}) error {
	return &ValidationError{Field: field, Reason: fmt.Sprintf(format, args...)}
}
