package errors

import (
	"errors"
	"fmt"
)

// Common error types for the admin console
var (
	// Authentication errors
	ErrMissingCredentials = errors.New("username and password are required")
	ErrUnauthorized       = errors.New("unauthorized")
	ErrForbidden          = errors.New("forbidden")

	// Session errors
	ErrSessionNotFound = errors.New("session not found")
	ErrSessionExpired  = errors.New("session expired")
	ErrInvalidCSRF     = errors.New("invalid CSRF token")

	// Form and action errors
	ErrMissingMentionID = errors.New("missing mention id")
	ErrEmptyPermissions = errors.New("select at least one permission for a moderator")
	ErrInvalidRole      = errors.New("invalid role")
	ErrNotConfirmed     = errors.New("action not confirmed")
	ErrInvalidStatus    = errors.New("status must be posted or skipped")

	// General errors
	ErrNotFound  = errors.New("not found")
	ErrTransport = errors.New("transport error")
	ErrInternal  = errors.New("internal error")
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

// New is errors.New, re-exported so callers need a single errors import
func New(text string) error {
	return errors.New(text)
}
