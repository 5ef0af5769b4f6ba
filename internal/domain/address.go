package domain

// Address is a postal address attached to a single contact. It is owned
// transitively by the contact's user.
type Address struct {
	// ID is the unique identifier (UUID string, generated at creation).
	ID string `json:"id"`

	// ContactID is the ID of the owning contact.
	// This should never be exposed in API responses.
	ContactID string `json:"-"`

	// Street is optional.
	Street string `json:"street"`

	// City is optional.
	City string `json:"city"`

	// Province is optional.
	Province string `json:"province"`

	// PostalCode is optional.
	// Constraints: at most 10 characters.
	PostalCode string `json:"postal_code"`

	// Country is required and non-empty.
	Country string `json:"country"`
}

// NewAddress creates an Address attached to the given contact.
func NewAddress(id, contactID, street, city, province, postalCode, country string) *Address {
	return &Address{
		ID:         id,
		ContactID:  contactID,
		Street:     street,
		City:       city,
		Province:   province,
		PostalCode: postalCode,
		Country:    country,
	}
}
