// Package service provides business logic services for Sebastian Contacts.
package service

import "errors"

// Common service errors. Business rule violations live in the domain
// package; these cover infrastructure failures surfaced by services.
var (
	// ErrInternalError indicates an unexpected infrastructure failure.
	ErrInternalError = errors.New("internal server error")
)
