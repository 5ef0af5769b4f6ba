package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"strings"

	"github.com/prn-tf/sebastian-contacts/internal/domain"
	"github.com/prn-tf/sebastian-contacts/internal/repository"
)

// contactRepository implements repository.ContactRepository for SQLite.
type contactRepository struct {
	db *DB
}

// NewContactRepository creates a new SQLite contact repository.
func NewContactRepository(db *DB) repository.ContactRepository {
	return &contactRepository{db: db}
}

// Create creates a new contact.
func (r *contactRepository) Create(ctx context.Context, contact *domain.Contact) error {
	query := `
		INSERT INTO contacts (id, owner_username, first_name, last_name, email, phone)
		VALUES (?, ?, ?, ?, ?, ?)
	`

	_, err := r.db.ExecContext(ctx, query,
		contact.ID,
		contact.OwnerUsername,
		contact.FirstName,
		contact.LastName,
		contact.Email,
		contact.Phone,
	)

	if err != nil {
		return fmt.Errorf("failed to create contact: %w", err)
	}

	return nil
}

// GetByIDAndOwner retrieves a contact by ID, scoped to the owner.
// A contact owned by a different user is reported as absent.
func (r *contactRepository) GetByIDAndOwner(ctx context.Context, id, ownerUsername string) (*domain.Contact, error) {
	query := `
		SELECT id, owner_username, first_name, last_name, email, phone
		FROM contacts
		WHERE id = ? AND owner_username = ?
	`

	contact := &domain.Contact{}
	err := r.db.QueryRowContext(ctx, query, id, ownerUsername).Scan(
		&contact.ID,
		&contact.OwnerUsername,
		&contact.FirstName,
		&contact.LastName,
		&contact.Email,
		&contact.Phone,
	)

	if err != nil {
		if isNoRows(err) {
			return nil, domain.ErrContactNotFound
		}
		return nil, fmt.Errorf("failed to get contact: %w", err)
	}

	return contact, nil
}

// Update updates an existing contact. The owner column is never touched.
func (r *contactRepository) Update(ctx context.Context, contact *domain.Contact) error {
	query := `
		UPDATE contacts
		SET first_name = ?, last_name = ?, email = ?, phone = ?
		WHERE id = ?
	`

	result, err := r.db.ExecContext(ctx, query,
		contact.FirstName,
		contact.LastName,
		contact.Email,
		contact.Phone,
		contact.ID,
	)

	if err != nil {
		return fmt.Errorf("failed to update contact: %w", err)
	}

	rowsAffected, _ := result.RowsAffected()
	if rowsAffected == 0 {
		return domain.ErrContactNotFound
	}

	return nil
}

// Delete deletes a contact and all of its addresses in one transaction.
// The address delete runs first so the contact row never outlives its
// children outside the transaction.
func (r *contactRepository) Delete(ctx context.Context, id string) error {
	return r.db.WithTx(ctx, func(tx *sql.Tx) error {
		if _, err := tx.ExecContext(ctx, `DELETE FROM addresses WHERE contact_id = ?`, id); err != nil {
			return fmt.Errorf("failed to delete contact addresses: %w", err)
		}

		result, err := tx.ExecContext(ctx, `DELETE FROM contacts WHERE id = ?`, id)
		if err != nil {
			return fmt.Errorf("failed to delete contact: %w", err)
		}

		rowsAffected, _ := result.RowsAffected()
		if rowsAffected == 0 {
			return domain.ErrContactNotFound
		}

		return nil
	})
}

// Search returns one page of the owner's contacts matching the filter,
// ordered by ID, plus the total match count. The owner predicate is
// always present; filter fields are ANDed in as case-insensitive
// substring matches.
func (r *contactRepository) Search(ctx context.Context, ownerUsername string, filter repository.ContactFilter, page repository.PageRequest) (*repository.PageResult[domain.Contact], error) {
	where, args := buildContactPredicate(ownerUsername, filter)

	countQuery := `SELECT COUNT(*) FROM contacts WHERE ` + where
	var total int64
	if err := r.db.QueryRowContext(ctx, countQuery, args...).Scan(&total); err != nil {
		return nil, fmt.Errorf("failed to count contacts: %w", err)
	}

	query := `
		SELECT id, owner_username, first_name, last_name, email, phone
		FROM contacts
		WHERE ` + where + `
		ORDER BY id
		LIMIT ? OFFSET ?
	`
	args = append(args, page.Size, page.Offset())

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to search contacts: %w", err)
	}
	defer rows.Close()

	var contacts []*domain.Contact
	for rows.Next() {
		contact := &domain.Contact{}
		err := rows.Scan(
			&contact.ID,
			&contact.OwnerUsername,
			&contact.FirstName,
			&contact.LastName,
			&contact.Email,
			&contact.Phone,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to scan contact: %w", err)
		}
		contacts = append(contacts, contact)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating contacts: %w", err)
	}

	return &repository.PageResult[domain.Contact]{
		Items: contacts,
		Total: total,
	}, nil
}

// buildContactPredicate composes the WHERE clause for Search. SQLite's
// LIKE is case-insensitive for ASCII, which matches the search contract.
func buildContactPredicate(ownerUsername string, filter repository.ContactFilter) (string, []interface{}) {
	clauses := []string{"owner_username = ?"}
	args := []interface{}{ownerUsername}

	if filter.Name != "" {
		clauses = append(clauses, "(first_name LIKE ? OR last_name LIKE ?)")
		pattern := "%" + filter.Name + "%"
		args = append(args, pattern, pattern)
	}
	if filter.Email != "" {
		clauses = append(clauses, "email LIKE ?")
		args = append(args, "%"+filter.Email+"%")
	}
	if filter.Phone != "" {
		clauses = append(clauses, "phone LIKE ?")
		args = append(args, "%"+filter.Phone+"%")
	}

	return strings.Join(clauses, " AND "), args
}

// Ensure contactRepository implements repository.ContactRepository.
var _ repository.ContactRepository = (*contactRepository)(nil)
