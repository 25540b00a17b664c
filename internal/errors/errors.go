package errors

import (
	"errors"
	"fmt"
)

// Common error types for the managed identity client
var (
	// Request construction errors
	ErrEmptyResource     = errors.New("resource is required")
	ErrAmbiguousSelector = errors.New("only one identity selector may be set")
	ErrMissingEndpoint   = errors.New("identity endpoint is not configured")

	// Source capability errors
	ErrUserAssignedNotSupported = errors.New("user-assigned identity is not supported by this source")
	ErrMissingKey               = errors.New("proof-of-possession key is required")

	// General errors
	ErrInternal    = errors.New("internal error")
	ErrUnsupported = errors.New("unsupported operation")
)

// Wrapf wraps an error with context using fmt.Errorf
func Wrapf(err error, format string, args ...interface{}) error {
	if err == nil {
		return nil
	}
	return fmt.Errorf(format+": %w", append(args, err)...)
}

// Is reports whether any error in err's chain matches target
func Is(err, target error) bool {
	return errors.Is(err, target)
}

// As finds the first error in err's chain that matches target
func As(err error, target interface{}) bool {
	return errors.As(err, target)
}
