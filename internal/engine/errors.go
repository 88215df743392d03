package engine

import (
	"errors"
	"fmt"
)

// OutputError is returned when the output directory cannot be prepared.
type OutputError struct {
	Path    string
	Message string
	Err     error
}

// Error implements the error interface.
func (e *OutputError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("output %s: %s: %v", e.Path, e.Message, e.Err)
	}
	return fmt.Sprintf("output %s: %s", e.Path, e.Message)
}

// Unwrap returns the underlying error.
func (e *OutputError) Unwrap() error {
	return e.Err
}

// IsOutputError returns true if the error is an OutputError.
// Uses errors.As to handle wrapped errors.
func IsOutputError(err error) bool {
	var oe *OutputError
	return errors.As(err, &oe)
}

// ItemErrors splits a joined compositing error into per-item errors.
func ItemErrors(err error) []error {
	if err == nil {
		return nil
	}
	if joined, ok := err.(interface{ Unwrap() []error }); ok {
		return joined.Unwrap()
	}
	return []error{err}
}
