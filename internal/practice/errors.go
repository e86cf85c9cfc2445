package practice

import (
	"errors"
	"fmt"
)

var (
	// ErrDataUnavailable means one or more counter sources could not be
	// read. Callers must not score partial counters.
	ErrDataUnavailable = errors.New("progress data unavailable")

	ErrNotFound = errors.New("not found")
)

// ValidationError reports a rejected request field.
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}

func invalid(field, format string, args ...interface{}) error {
	return &ValidationError{Field: field, Message: fmt.Sprintf(format, args...)}
}
