// Package service provides business logic for the application.
package service

import (
	"errors"
	"strings"
)

// Service errors.
var (
	ErrInvalidCredentials  = errors.New("invalid credentials")
	ErrEmailExists         = errors.New("email already exists")
	ErrUserNotFound        = errors.New("user not found")
	ErrNoteNotFound        = errors.New("note not found")
	ErrInvalidNoteType     = errors.New("invalid note type")
	ErrRefreshTokenInvalid = errors.New("invalid refresh token")
	ErrNoSearchCriteria    = errors.New("no search criteria provided")
)

// ValidationError reports required request fields that were absent.
type ValidationError struct {
	Missing []string
}

func (e *ValidationError) Error() string {
	return "missing required fields: " + strings.Join(e.Missing, ", ")
}

// newValidationError returns a ValidationError, or nil when nothing is
// missing.
func newValidationError(missing []string) error {
	if len(missing) == 0 {
		return nil
	}
	return &ValidationError{Missing: missing}
}
