package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"

	"github.com/prn-tf/sebastian-contacts/internal/domain"
	"github.com/prn-tf/sebastian-contacts/internal/repository"
)

// addressRepository implements repository.AddressRepository for PostgreSQL.
type addressRepository struct {
	db *DB
}

// NewAddressRepository creates a new PostgreSQL address repository.
func NewAddressRepository(db *DB) repository.AddressRepository {
	return &addressRepository{db: db}
}

// Create creates a new address.
func (r *addressRepository) Create(ctx context.Context, address *domain.Address) error {
	query := `
		INSERT INTO addresses (id, contact_id, street, city, province, postal_code, country)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
	`

	_, err := r.db.Pool.Exec(ctx, query,
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
func (r *addressRepository) GetByIDAndContact(ctx context.Context, id, contactID string) (*domain.Address, error) {
	query := `
		SELECT id, contact_id, street, city, province, postal_code, country
		FROM addresses
		WHERE id = $1 AND contact_id = $2
	`

	address := &domain.Address{}
	err := r.db.Pool.QueryRow(ctx, query, id, contactID).Scan(
		&address.ID,
		&address.ContactID,
		&address.Street,
		&address.City,
		&address.Province,
		&address.PostalCode,
		&address.Country,
	)

	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
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
		WHERE contact_id = $1
		ORDER BY id
	`

	rows, err := r.db.Pool.Query(ctx, query, contactID)
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
		SET street = $1, city = $2, province = $3, postal_code = $4, country = $5
		WHERE id = $6
	`

	tag, err := r.db.Pool.Exec(ctx, query,
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

	if tag.RowsAffected() == 0 {
		return domain.ErrAddressNotFound
	}

	return nil
}

// Delete deletes an address by ID.
func (r *addressRepository) Delete(ctx context.Context, id string) error {
	tag, err := r.db.Pool.Exec(ctx, `DELETE FROM addresses WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("failed to delete address: %w", err)
	}

	if tag.RowsAffected() == 0 {
		return domain.ErrAddressNotFound
	}

	return nil
}

// Ensure addressRepository implements repository.AddressRepository.
var _ repository.AddressRepository = (*addressRepository)(nil)
