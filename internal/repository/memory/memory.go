// Package memory provides in-memory repository implementations.
// These back the test suites and are NOT suitable for durable deployments.
package memory

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"sync"

	"github.com/prn-tf/sebastian-contacts/internal/domain"
	"github.com/prn-tf/sebastian-contacts/internal/repository"
)

// Store holds all in-memory tables behind one lock, giving the same
// per-record atomicity the durable stores provide.
type Store struct {
	mu        sync.RWMutex
	users     map[string]*domain.User    // keyed by username
	contacts  map[string]*domain.Contact // keyed by id
	addresses map[string]*domain.Address // keyed by id
}

// NewStore creates an empty in-memory store.
func NewStore() *Store {
	return &Store{
		users:     make(map[string]*domain.User),
		contacts:  make(map[string]*domain.Contact),
		addresses: make(map[string]*domain.Address),
	}
}

// Repositories returns the repository set backed by this store.
func (s *Store) Repositories() *repository.Repositories {
	return &repository.Repositories{
		User:    &userRepository{store: s},
		Contact: &contactRepository{store: s},
		Address: &addressRepository{store: s},
	}
}

// Ping implements repository.DatabaseHealth.
func (s *Store) Ping(ctx context.Context) error { return nil }

// Close implements repository.DatabaseHealth.
func (s *Store) Close() error { return nil }

// =============================================================================
// User repository
// =============================================================================

type userRepository struct {
	store *Store
}

func (r *userRepository) Create(ctx context.Context, user *domain.User) error {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()

	if _, exists := r.store.users[user.Username]; exists {
		return fmt.Errorf("%w: %s", domain.ErrUserAlreadyExists, user.Username)
	}

	r.store.users[user.Username] = cloneUser(user)
	return nil
}

func (r *userRepository) GetByUsername(ctx context.Context, username string) (*domain.User, error) {
	r.store.mu.RLock()
	defer r.store.mu.RUnlock()

	user, exists := r.store.users[username]
	if !exists {
		return nil, domain.ErrUserNotFound
	}
	return cloneUser(user), nil
}

func (r *userRepository) GetByToken(ctx context.Context, token string) (*domain.User, error) {
	r.store.mu.RLock()
	defer r.store.mu.RUnlock()

	for _, user := range r.store.users {
		if user.Token != nil && *user.Token == token {
			return cloneUser(user), nil
		}
	}
	return nil, domain.ErrUserNotFound
}

func (r *userRepository) Update(ctx context.Context, user *domain.User) error {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()

	if _, exists := r.store.users[user.Username]; !exists {
		return domain.ErrUserNotFound
	}

	r.store.users[user.Username] = cloneUser(user)
	return nil
}

func (r *userRepository) UpdateToken(ctx context.Context, user *domain.User) error {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()

	stored, exists := r.store.users[user.Username]
	if !exists {
		return domain.ErrUserNotFound
	}

	// Only the token fields move; profile columns keep their stored
	// values even when the passed user carries stale ones.
	stored.Token = cloneStringPtr(user.Token)
	stored.TokenExpiresAt = cloneInt64Ptr(user.TokenExpiresAt)
	return nil
}

func (r *userRepository) ExistsByUsername(ctx context.Context, username string) (bool, error) {
	r.store.mu.RLock()
	defer r.store.mu.RUnlock()

	_, exists := r.store.users[username]
	return exists, nil
}

func (r *userRepository) List(ctx context.Context) ([]*domain.User, error) {
	r.store.mu.RLock()
	defer r.store.mu.RUnlock()

	users := make([]*domain.User, 0, len(r.store.users))
	for _, user := range r.store.users {
		users = append(users, cloneUser(user))
	}
	sort.Slice(users, func(i, j int) bool { return users[i].Username < users[j].Username })
	return users, nil
}

// =============================================================================
// Contact repository
// =============================================================================

type contactRepository struct {
	store *Store
}

func (r *contactRepository) Create(ctx context.Context, contact *domain.Contact) error {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()

	r.store.contacts[contact.ID] = cloneContact(contact)
	return nil
}

func (r *contactRepository) GetByIDAndOwner(ctx context.Context, id, ownerUsername string) (*domain.Contact, error) {
	r.store.mu.RLock()
	defer r.store.mu.RUnlock()

	contact, exists := r.store.contacts[id]
	if !exists || !contact.OwnedBy(ownerUsername) {
		return nil, domain.ErrContactNotFound
	}
	return cloneContact(contact), nil
}

func (r *contactRepository) Update(ctx context.Context, contact *domain.Contact) error {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()

	existing, exists := r.store.contacts[contact.ID]
	if !exists {
		return domain.ErrContactNotFound
	}

	updated := cloneContact(contact)
	updated.OwnerUsername = existing.OwnerUsername
	r.store.contacts[contact.ID] = updated
	return nil
}

func (r *contactRepository) Delete(ctx context.Context, id string) error {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()

	if _, exists := r.store.contacts[id]; !exists {
		return domain.ErrContactNotFound
	}

	// Cascade to addresses first, same order as the durable stores.
	for addrID, addr := range r.store.addresses {
		if addr.ContactID == id {
			delete(r.store.addresses, addrID)
		}
	}
	delete(r.store.contacts, id)
	return nil
}

func (r *contactRepository) Search(ctx context.Context, ownerUsername string, filter repository.ContactFilter, page repository.PageRequest) (*repository.PageResult[domain.Contact], error) {
	r.store.mu.RLock()
	defer r.store.mu.RUnlock()

	var matches []*domain.Contact
	for _, contact := range r.store.contacts {
		if contact.OwnedBy(ownerUsername) && matchesFilter(contact, filter) {
			matches = append(matches, cloneContact(contact))
		}
	}

	sort.Slice(matches, func(i, j int) bool { return matches[i].ID < matches[j].ID })

	total := int64(len(matches))
	start := page.Offset()
	if start > len(matches) {
		start = len(matches)
	}
	end := start + page.Size
	if end > len(matches) {
		end = len(matches)
	}

	return &repository.PageResult[domain.Contact]{
		Items: matches[start:end],
		Total: total,
	}, nil
}

// matchesFilter applies the search predicate: present fields AND
// together, each as a case-insensitive substring match, name against
// first or last name.
func matchesFilter(contact *domain.Contact, filter repository.ContactFilter) bool {
	if filter.Name != "" {
		name := strings.ToLower(filter.Name)
		if !strings.Contains(strings.ToLower(contact.FirstName), name) &&
			!strings.Contains(strings.ToLower(contact.LastName), name) {
			return false
		}
	}
	if filter.Email != "" {
		if !strings.Contains(strings.ToLower(contact.Email), strings.ToLower(filter.Email)) {
			return false
		}
	}
	if filter.Phone != "" {
		if !strings.Contains(strings.ToLower(contact.Phone), strings.ToLower(filter.Phone)) {
			return false
		}
	}
	return true
}

// =============================================================================
// Address repository
// =============================================================================

type addressRepository struct {
	store *Store
}

func (r *addressRepository) Create(ctx context.Context, address *domain.Address) error {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()

	r.store.addresses[address.ID] = cloneAddress(address)
	return nil
}

func (r *addressRepository) GetByIDAndContact(ctx context.Context, id, contactID string) (*domain.Address, error) {
	r.store.mu.RLock()
	defer r.store.mu.RUnlock()

	address, exists := r.store.addresses[id]
	if !exists || address.ContactID != contactID {
		return nil, domain.ErrAddressNotFound
	}
	return cloneAddress(address), nil
}

func (r *addressRepository) ListByContact(ctx context.Context, contactID string) ([]*domain.Address, error) {
	r.store.mu.RLock()
	defer r.store.mu.RUnlock()

	var addresses []*domain.Address
	for _, address := range r.store.addresses {
		if address.ContactID == contactID {
			addresses = append(addresses, cloneAddress(address))
		}
	}

	sort.Slice(addresses, func(i, j int) bool { return addresses[i].ID < addresses[j].ID })
	return addresses, nil
}

func (r *addressRepository) Update(ctx context.Context, address *domain.Address) error {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()

	existing, exists := r.store.addresses[address.ID]
	if !exists {
		return domain.ErrAddressNotFound
	}

	updated := cloneAddress(address)
	updated.ContactID = existing.ContactID
	r.store.addresses[address.ID] = updated
	return nil
}

func (r *addressRepository) Delete(ctx context.Context, id string) error {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()

	if _, exists := r.store.addresses[id]; !exists {
		return domain.ErrAddressNotFound
	}
	delete(r.store.addresses, id)
	return nil
}

// =============================================================================
// Clone helpers - callers never share pointers with the store.
// =============================================================================

func cloneUser(u *domain.User) *domain.User {
	clone := *u
	if u.Token != nil {
		token := *u.Token
		clone.Token = &token
	}
	if u.TokenExpiresAt != nil {
		expires := *u.TokenExpiresAt
		clone.TokenExpiresAt = &expires
	}
	return &clone
}

func cloneStringPtr(s *string) *string {
	if s == nil {
		return nil
	}
	clone := *s
	return &clone
}

func cloneInt64Ptr(i *int64) *int64 {
	if i == nil {
		return nil
	}
	clone := *i
	return &clone
}

func cloneContact(c *domain.Contact) *domain.Contact {
	clone := *c
	return &clone
}

func cloneAddress(a *domain.Address) *domain.Address {
	clone := *a
	return &clone
}
