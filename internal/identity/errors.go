package identity

import (
	"errors"
	"fmt"

	"github.com/uptrace/bun/driver/pgdriver"
)

// Backend error codes. Postgres SQLSTATE values are reused where the fault
// originates from the database so hosted and local backends classify alike.
const (
	// CodeRecursivePolicy is the SQLSTATE for infinite recursion detected in
	// a row-level policy. A profile read failing with this code means the
	// backend policy set is broken, not that the user is absent.
	CodeRecursivePolicy = "42P17"

	CodeInvalidCredentials = "invalid_credentials"
	CodeUserNotFound       = "user_not_found"
	CodeEmailTaken         = "email_taken"
)

// Error is a coded identity-backend failure.
type Error struct {
	Code    string
	Message string
}

func (e *Error) Error() string {
	return fmt.Sprintf("identity: %s (%s)", e.Message, e.Code)
}

// NewError builds a coded backend error.
func NewError(code, format string, args ...any) *Error {
	return &Error{Code: code, Message: fmt.Sprintf(format, args...)}
}

// ErrorCode extracts the backend code from err, or "" when err carries none.
// Postgres driver errors expose their SQLSTATE through the same call.
func ErrorCode(err error) string {
	var ie *Error
	if errors.As(err, &ie) {
		return ie.Code
	}

	var pe pgdriver.Error
	if errors.As(err, &pe) {
		return pe.Field('C')
	}

	return ""
}

// IsRecursivePolicy reports whether err is a recursive row-level policy
// failure.
func IsRecursivePolicy(err error) bool {
	return ErrorCode(err) == CodeRecursivePolicy
}

// IsInvalidCredentials reports whether err is a credential mismatch.
func IsInvalidCredentials(err error) bool {
	return ErrorCode(err) == CodeInvalidCredentials
}

// IsUserNotFound reports whether err means the identity does not exist.
func IsUserNotFound(err error) bool {
	return ErrorCode(err) == CodeUserNotFound
}
