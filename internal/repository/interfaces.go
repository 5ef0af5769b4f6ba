// Package repository defines data access interfaces for Sebastian Contacts.
// These interfaces abstract database operations, allowing for different
// implementations (SQLite, PostgreSQL, in-memory for testing) while keeping
// the service layer clean.
package repository

import (
	"context"

	"github.com/prn-tf/sebastian-contacts/internal/domain"
)

// PageSize is the fixed number of items per search page. Callers supply
// a zero-based page index; the size is not configurable.
const PageSize = 10

// =============================================================================
// User Repository
// =============================================================================

// UserRepository defines the interface for user data access.
type UserRepository interface {
	// Create creates a new user.
	// Returns domain.ErrUserAlreadyExists on a duplicate username.
	Create(ctx context.Context, user *domain.User) error

	// GetByUsername retrieves a user by username.
	GetByUsername(ctx context.Context, username string) (*domain.User, error)

	// GetByToken retrieves the user holding the given session token.
	// Returns domain.ErrUserNotFound when no user holds the token.
	GetByToken(ctx context.Context, token string) (*domain.User, error)

	// Update updates an existing user, including token fields.
	Update(ctx context.Context, user *domain.User) error

	// UpdateToken writes only the user's token fields. Session
	// mutations run on a principal that may lag behind the profile
	// columns; this narrower write can never clobber them.
	UpdateToken(ctx context.Context, user *domain.User) error

	// ExistsByUsername checks if a user with the given username exists.
	ExistsByUsername(ctx context.Context, username string) (bool, error)

	// List returns all users ordered by username. Admin tooling only.
	List(ctx context.Context) ([]*domain.User, error)
}

// =============================================================================
// Contact Repository
// =============================================================================

// ContactFilter carries the optional search predicates. A nil/empty field
// imposes no constraint. All present fields are combined with AND; each
// matches as a case-insensitive substring. Name matches against first or
// last name.
type ContactFilter struct {
	Name  string
	Email string
	Phone string
}

// IsZero reports whether no filter fields are set.
func (f ContactFilter) IsZero() bool {
	return f.Name == "" && f.Email == "" && f.Phone == ""
}

// PageRequest is a zero-based fixed-size page of an ordered result set.
type PageRequest struct {
	// Page is the zero-based page index. Out-of-range values are served
	// as empty pages, never clamped.
	Page int

	// Size is the page size (PageSize everywhere in this system).
	Size int
}

// Offset returns the slice offset for the page.
func (p PageRequest) Offset() int {
	return p.Page * p.Size
}

// PageResult holds one page of items plus the total match count of the
// underlying predicate, for page arithmetic in the service layer.
type PageResult[T any] struct {
	Items []*T
	Total int64
}

// ContactRepository defines the interface for contact data access.
// All lookups are owner-scoped: a contact owned by a different user is
// reported as absent, never as forbidden.
type ContactRepository interface {
	// Create creates a new contact.
	Create(ctx context.Context, contact *domain.Contact) error

	// GetByIDAndOwner retrieves a contact by ID, scoped to the owner.
	// Returns domain.ErrContactNotFound when the contact does not exist
	// or belongs to another user.
	GetByIDAndOwner(ctx context.Context, id, ownerUsername string) (*domain.Contact, error)

	// Update updates an existing contact. The owner is never changed.
	Update(ctx context.Context, contact *domain.Contact) error

	// Delete deletes a contact and all of its addresses in one atomic
	// unit of work. Returns domain.ErrContactNotFound when absent.
	Delete(ctx context.Context, id string) error

	// Search returns the page of the owner's contacts matching the
	// filter, ordered by ID ascending, plus the total match count.
	Search(ctx context.Context, ownerUsername string, filter ContactFilter, page PageRequest) (*PageResult[domain.Contact], error)
}

// =============================================================================
// Address Repository
// =============================================================================

// AddressRepository defines the interface for address data access.
// Lookups are contact-scoped the same way contacts are owner-scoped.
type AddressRepository interface {
	// Create creates a new address.
	Create(ctx context.Context, address *domain.Address) error

	// GetByIDAndContact retrieves an address by ID, scoped to a contact.
	// Returns domain.ErrAddressNotFound when the address does not exist
	// or belongs to another contact.
	GetByIDAndContact(ctx context.Context, id, contactID string) (*domain.Address, error)

	// ListByContact returns all addresses of a contact, ordered by ID.
	ListByContact(ctx context.Context, contactID string) ([]*domain.Address, error)

	// Update updates an existing address.
	Update(ctx context.Context, address *domain.Address) error

	// Delete deletes an address by ID.
	Delete(ctx context.Context, id string) error
}

// =============================================================================
// Aggregate
// =============================================================================

// Repositories holds all repository instances for wiring at startup.
type Repositories struct {
	User    UserRepository
	Contact ContactRepository
	Address AddressRepository
}

// DatabaseHealth is an interface for database health checks.
type DatabaseHealth interface {
	Ping(ctx context.Context) error
	Close() error
}
