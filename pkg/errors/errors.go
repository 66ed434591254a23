package errors

import (
	"errors"
	"fmt"
)

// Domain error types for business logic

var (
	// ErrNotFound indicates a resource was not found
	ErrNotFound = errors.New("resource not found")

	// ErrAlreadyExists indicates a resource already exists
	ErrAlreadyExists = errors.New("resource already exists")

	// ErrInternal indicates an internal error
	ErrInternal = errors.New("internal error")
)

// Analysis-specific errors

var (
	// ErrInvalidConfig indicates a detector threshold outside its valid range.
	// Configuration problems are rejected at load time, never mid-computation.
	ErrInvalidConfig = errors.New("invalid analysis configuration")

	// ErrUnorderedBars indicates a bar series that is not strictly ascending
	// by timestamp or contains duplicate timestamps
	ErrUnorderedBars = errors.New("bar series not strictly ascending")

	// ErrUnknownDetector indicates a detector name missing from the registry
	ErrUnknownDetector = errors.New("unknown detector")
)

// Helper functions

// Is checks if err is or wraps target
func Is(err, target error) bool {
	return errors.Is(err, target)
}

// As finds the first error in err's chain that matches target type
func As(err error, target interface{}) bool {
	return errors.As(err, target)
}

// Wrap wraps an error with context
func Wrap(err error, message string) error {
	if err == nil {
		return nil
	}
	return fmt.Errorf("%s: %w", message, err)
}

// Wrapf wraps an error with formatted context
func Wrapf(err error, format string, args ...interface{}) error {
	if err == nil {
		return nil
	}
	return fmt.Errorf("%s: %w", fmt.Sprintf(format, args...), err)
}
