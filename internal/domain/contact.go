package domain

// Contact is an entry in one user's contact book. A contact belongs to
// exactly one owner and is never reassigned.
type Contact struct {
	// ID is the unique identifier (UUID string, generated at creation).
	ID string `json:"id"`

	// OwnerUsername is the username of the owning user.
	// This should never be exposed in API responses.
	OwnerUsername string `json:"-"`

	// FirstName is required and non-empty.
	// Constraints: 1-100 characters.
	FirstName string `json:"first_name"`

	// LastName is optional.
	LastName string `json:"last_name"`

	// Email is optional, but must be syntactically valid when present.
	Email string `json:"email"`

	// Phone is optional.
	Phone string `json:"phone"`
}

// NewContact creates a Contact owned by the given user.
func NewContact(id, ownerUsername, firstName, lastName, email, phone string) *Contact {
	return &Contact{
		ID:            id,
		OwnerUsername: ownerUsername,
		FirstName:     firstName,
		LastName:      lastName,
		Email:         email,
		Phone:         phone,
	}
}

// OwnedBy reports whether the contact belongs to the given username.
func (c *Contact) OwnedBy(username string) bool {
	return c.OwnerUsername == username
}
