package postgres

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/jackc/pgx/v5"

	"github.com/prn-tf/sebastian-contacts/internal/domain"
	"github.com/prn-tf/sebastian-contacts/internal/repository"
)

// contactRepository implements repository.ContactRepository for PostgreSQL.
type contactRepository struct {
	db *DB
}

// NewContactRepository creates a new PostgreSQL contact repository.
func NewContactRepository(db *DB) repository.ContactRepository {
	return &contactRepository{db: db}
}

// Create creates a new contact.
func (r *contactRepository) Create(ctx context.Context, contact *domain.Contact) error {
	query := `
		INSERT INTO contacts (id, owner_username, first_name, last_name, email, phone)
		VALUES ($1, $2, $3, $4, $5, $6)
	`

	_, err := r.db.Pool.Exec(ctx, query,
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
func (r *contactRepository) GetByIDAndOwner(ctx context.Context, id, ownerUsername string) (*domain.Contact, error) {
	query := `
		SELECT id, owner_username, first_name, last_name, email, phone
		FROM contacts
		WHERE id = $1 AND owner_username = $2
	`

	contact := &domain.Contact{}
	err := r.db.Pool.QueryRow(ctx, query, id, ownerUsername).Scan(
		&contact.ID,
		&contact.OwnerUsername,
		&contact.FirstName,
		&contact.LastName,
		&contact.Email,
		&contact.Phone,
	)

	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
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
		SET first_name = $1, last_name = $2, email = $3, phone = $4
		WHERE id = $5
	`

	tag, err := r.db.Pool.Exec(ctx, query,
		contact.FirstName,
		contact.LastName,
		contact.Email,
		contact.Phone,
		contact.ID,
	)

	if err != nil {
		return fmt.Errorf("failed to update contact: %w", err)
	}

	if tag.RowsAffected() == 0 {
		return domain.ErrContactNotFound
	}

	return nil
}

// Delete deletes a contact and all of its addresses in one transaction.
func (r *contactRepository) Delete(ctx context.Context, id string) error {
	return r.db.WithTx(ctx, func(tx pgx.Tx) error {
		if _, err := tx.Exec(ctx, `DELETE FROM addresses WHERE contact_id = $1`, id); err != nil {
			return fmt.Errorf("failed to delete contact addresses: %w", err)
		}

		tag, err := tx.Exec(ctx, `DELETE FROM contacts WHERE id = $1`, id)
		if err != nil {
			return fmt.Errorf("failed to delete contact: %w", err)
		}

		if tag.RowsAffected() == 0 {
			return domain.ErrContactNotFound
		}

		return nil
	})
}

// Search returns one page of the owner's contacts matching the filter,
// ordered by ID, plus the total match count.
func (r *contactRepository) Search(ctx context.Context, ownerUsername string, filter repository.ContactFilter, page repository.PageRequest) (*repository.PageResult[domain.Contact], error) {
	where, args := buildContactPredicate(ownerUsername, filter)

	countQuery := `SELECT COUNT(*) FROM contacts WHERE ` + where
	var total int64
	if err := r.db.Pool.QueryRow(ctx, countQuery, args...).Scan(&total); err != nil {
		return nil, fmt.Errorf("failed to count contacts: %w", err)
	}

	query := fmt.Sprintf(`
		SELECT id, owner_username, first_name, last_name, email, phone
		FROM contacts
		WHERE %s
		ORDER BY id
		LIMIT $%d OFFSET $%d
	`, where, len(args)+1, len(args)+2)
	args = append(args, page.Size, page.Offset())

	rows, err := r.db.Pool.Query(ctx, query, args...)
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

// buildContactPredicate composes the WHERE clause for Search using
// positional placeholders. ILIKE gives the case-insensitive substring
// semantics of the search contract.
func buildContactPredicate(ownerUsername string, filter repository.ContactFilter) (string, []interface{}) {
	clauses := []string{"owner_username = $1"}
	args := []interface{}{ownerUsername}

	next := func() int { return len(args) + 1 }

	if filter.Name != "" {
		pattern := "%" + filter.Name + "%"
		clauses = append(clauses, fmt.Sprintf("(first_name ILIKE $%d OR last_name ILIKE $%d)", next(), next()+1))
		args = append(args, pattern, pattern)
	}
	if filter.Email != "" {
		clauses = append(clauses, fmt.Sprintf("email ILIKE $%d", next()))
		args = append(args, "%"+filter.Email+"%")
	}
	if filter.Phone != "" {
		clauses = append(clauses, fmt.Sprintf("phone ILIKE $%d", next()))
		args = append(args, "%"+filter.Phone+"%")
	}

	return strings.Join(clauses, " AND "), args
}

// Ensure contactRepository implements repository.ContactRepository.
var _ repository.ContactRepository = (*contactRepository)(nil)
