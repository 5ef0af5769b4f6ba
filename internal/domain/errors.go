// Package domain contains the core business entities for Sebastian Contacts.
package domain

import (
	"errors"
	"fmt"
)

// Domain errors - these represent business rule violations.
// They are distinct from infrastructure errors (database, network, etc.).

var (
	// ===========================================
	// User / Authentication Errors
	// ===========================================

	// ErrUserNotFound indicates the requested user does not exist.
	ErrUserNotFound = errors.New("user not found")

	// ErrUserAlreadyExists indicates a user with the same username exists.
	ErrUserAlreadyExists = errors.New("username already registered")

	// ErrInvalidCredentials indicates login failed. Unknown username and
	// wrong password are deliberately collapsed into this single error.
	ErrInvalidCredentials = errors.New("username or password is wrong")

	// ErrUnauthenticated indicates the request carried no token, an
	// unknown token, or an expired token. The three cases are never
	// distinguished on the error surface.
	ErrUnauthenticated = errors.New("unauthenticated")

	// ===========================================
	// Contact Errors
	// ===========================================

	// ErrContactNotFound indicates the contact does not exist or does
	// not belong to the requesting user. Absence and foreign ownership
	// are deliberately indistinguishable to prevent enumeration.
	ErrContactNotFound = errors.New("contact is not found")

	// ===========================================
	// Address Errors
	// ===========================================

	// ErrAddressNotFound indicates the address does not exist under the
	// addressed contact. Same collapse as ErrContactNotFound.
	ErrAddressNotFound = errors.New("address is not found")
)

// ValidationError reports a field-level constraint violation on inbound
// request data. It is terminal for the request; nothing in the core
// retries validation failures.
type ValidationError struct {
	// Field is the offending request field.
	Field string

	// Message describes the violated constraint.
	Message string
}

// Error implements the error interface.
func (e *ValidationError) Error() string {
	return fmt.Sprintf("validation failed: %s %s", e.Field, e.Message)
}

// NewValidationError creates a ValidationError for the given field.
func NewValidationError(field, message string) *ValidationError {
	return &ValidationError{Field: field, Message: message}
}

// IsValidation reports whether err is (or wraps) a ValidationError.
func IsValidation(err error) bool {
	var ve *ValidationError
	return errors.As(err, &ve)
}
