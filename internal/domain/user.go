// Package domain contains the core business entities for Sebastian Contacts.
// These are pure Go structs with no external dependencies, representing
// the fundamental concepts of the contact book.
package domain

import (
	"time"
)

// User represents a registered account. Users own contacts, and every
// contact transitively owns its addresses.
type User struct {
	// Username is the unique, immutable identity key.
	// Constraints: 1-100 characters.
	Username string `json:"username"`

	// Name is the display name of the user.
	Name string `json:"name"`

	// PasswordHash is the bcrypt hash of the user's password.
	// This should never be exposed in API responses.
	PasswordHash string `json:"-"`

	// Token is the current opaque session token, or nil when the user
	// is logged out. Unique across users when present.
	Token *string `json:"-"`

	// TokenExpiresAt is the token expiry as epoch milliseconds.
	// Token and TokenExpiresAt are always both nil or both set.
	TokenExpiresAt *int64 `json:"-"`

	// CreatedAt is the timestamp when the user was created.
	CreatedAt time.Time `json:"created_at"`

	// UpdatedAt is the timestamp when the user was last updated.
	UpdatedAt time.Time `json:"updated_at"`
}

// NewUser creates a new User with default values.
func NewUser(username, name, passwordHash string) *User {
	now := time.Now().UTC()
	return &User{
		Username:     username,
		Name:         name,
		PasswordHash: passwordHash,
		CreatedAt:    now,
		UpdatedAt:    now,
	}
}

// SetToken installs a fresh session token, replacing any previous one.
func (u *User) SetToken(token string, expiresAt int64) {
	u.Token = &token
	u.TokenExpiresAt = &expiresAt
}

// ClearToken removes the current session token.
func (u *User) ClearToken() {
	u.Token = nil
	u.TokenExpiresAt = nil
}

// TokenValidAt reports whether the user holds a token that has not
// expired at the given instant. Expiry is an exclusive upper bound:
// a token is invalid the moment now reaches TokenExpiresAt.
func (u *User) TokenValidAt(now time.Time) bool {
	if u.Token == nil || u.TokenExpiresAt == nil {
		return false
	}
	return now.UnixMilli() < *u.TokenExpiresAt
}
