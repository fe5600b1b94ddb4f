package service

import (
	"errors"
	"fmt"
)

// Error taxonomy for account lifecycle operations. Handlers match these
// with errors.Is and map them to a single user-facing message; nothing is
// retried automatically.
var (
	ErrDuplicateEmail      = errors.New("email already exists")
	ErrDuplicateUsername   = errors.New("username already exists")
	ErrWeakPassword        = errors.New("password should be at least 6 characters")
	ErrEmailInUse          = errors.New("email address is already registered")
	ErrInvalidCredentials  = errors.New("invalid credentials")
	ErrWrongPassword       = errors.New("incorrect password")
	ErrRequiresRecentLogin = errors.New("recent login required")
	ErrProfileNotFound     = errors.New("profile not found")
	ErrIdentityNotFound    = errors.New("identity not found")
)

// ValidationError reports an empty or mismatched form field. It aborts the
// operation before any remote call is made.
type ValidationError struct {
	Message string
}

func (e *ValidationError) Error() string {
	return e.Message
}

func validationErrorf(format string, args ...any) *ValidationError {
	return &ValidationError{Message: fmt.Sprintf(format, args...)}
}

// IsValidationError reports whether err is a local validation failure
func IsValidationError(err error) bool {
	var ve *ValidationError
	return errors.As(err, &ve)
}
