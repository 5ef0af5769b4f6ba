package sqlite

import (
	"context"
	"fmt"

	"github.com/prn-tf/sebastian-contacts/internal/domain"
	"github.com/prn-tf/sebastian-contacts/internal/repository"
)

// addressRepository implements repository.AddressRepository for SQLite.
type addressRepository struct {
	db *DB
}

// NewAddressRepository creates a new SQLite address repository.
func NewAddressRepository(db *DB) repository.AddressRepository {
	return &addressRepository{db: db}
}

// Create creates a new address.
func (r *addressRepository) Create(ctx context.Context, address *domain.Address) error {
	query := `
		INSERT INTO addresses (id, contact_id, street, city, province, postal_code, country)
		VALUES (?, ?, ?, ?, ?, ?, ?)
	`

	_, err := r.db.ExecContext(ctx, query,
		address.ID,
		address.ContactID,
		address.Street,
		address.City,
		address.Province,
		address.PostalCode,
		address.Country,
	)

	if err != nil {
		return fmt.Errorf("failed to create address: %w", err)
	}

	return nil
}

// GetByIDAndContact retrieves an address by ID, scoped to a contact.
// An address hanging off a different contact is reported as absent.
func (r *addressRepository) GetByIDAndContact(ctx context.Context, id, contactID string) (*domain.Address, error) {
	query := `
		SELECT id, contact_id, street, city, province, postal_code, country
		FROM addresses
		WHERE id = ? AND contact_id = ?
	`

	address := &domain.Address{}
	err := r.db.QueryRowContext(ctx, query, id, contactID).Scan(
		&address.ID,
		&address.ContactID,
		&address.Street,
		&address.City,
		&address.Province,
		&address.PostalCode,
		&address.Country,
	)

	if err != nil {
		if isNoRows(err) {
			return nil, domain.ErrAddressNotFound
		}
		return nil, fmt.Errorf("failed to get address: %w", err)
	}

	return address, nil
}

// ListByContact returns all addresses of a contact, ordered by ID.
func (r *addressRepository) ListByContact(ctx context.Context, contactID string) ([]*domain.Address, error) {
	query := `
		SELECT id, contact_id, street, city, province, postal_code, country
		FROM addresses
		WHERE contact_id = ?
		ORDER BY id
	`

	rows, err := r.db.QueryContext(ctx, query, contactID)
	if err != nil {
		return nil, fmt.Errorf("failed to list addresses: %w", err)
	}
	defer rows.Close()

	var addresses []*domain.Address
	for rows.Next() {
		address := &domain.Address{}
		err := rows.Scan(
			&address.ID,
			&address.ContactID,
			&address.Street,
			&address.City,
			&address.Province,
			&address.PostalCode,
			&address.Country,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to scan address: %w", err)
		}
		addresses = append(addresses, address)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating addresses: %w", err)
	}

	return addresses, nil
}

// Update updates an existing address.
func (r *addressRepository) Update(ctx context.Context, address *domain.Address) error {
	query := `
		UPDATE addresses
		SET street = ?, city = ?, province = ?, postal_code = ?, country = ?
		WHERE id = ?
	`

	result, err := r.db.ExecContext(ctx, query,
		address.Street,
		address.City,
		address.Province,
		address.PostalCode,
		address.Country,
		address.ID,
	)

	if err != nil {
		return fmt.Errorf("failed to update address: %w", err)
	}

	rowsAffected, _ := result.RowsAffected()
	if rowsAffected == 0 {
		return domain.ErrAddressNotFound
	}

	return nil
}

// Delete deletes an address by ID.
func (r *addressRepository) Delete(ctx context.Context, id string) error {
	result, err := r.db.ExecContext(ctx, `DELETE FROM addresses WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("failed to delete address: %w", err)
	}

	rowsAffected, _ := result.RowsAffected()
	if rowsAffected == 0 {
		return domain.ErrAddressNotFound
	}

	return nil
}

// Ensure addressRepository implements repository.AddressRepository.
var _ repository.AddressRepository = (*addressRepository)(nil)
