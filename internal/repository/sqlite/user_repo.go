package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/prn-tf/sebastian-contacts/internal/domain"
	"github.com/prn-tf/sebastian-contacts/internal/repository"
)

// userRepository implements repository.UserRepository for SQLite.
type userRepository struct {
	db *DB
}

// NewUserRepository creates a new SQLite user repository.
func NewUserRepository(db *DB) repository.UserRepository {
	return &userRepository{db: db}
}

// Create creates a new user.
func (r *userRepository) Create(ctx context.Context, user *domain.User) error {
	query := `
		INSERT INTO users (username, name, password_hash, token, token_expires_at, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?)
	`

	_, err := r.db.ExecContext(ctx, query,
		user.Username,
		user.Name,
		user.PasswordHash,
		user.Token,
		user.TokenExpiresAt,
		user.CreatedAt.Format(time.RFC3339),
		user.UpdatedAt.Format(time.RFC3339),
	)

	if err != nil {
		if isUniqueViolation(err) {
			return fmt.Errorf("%w: %s", domain.ErrUserAlreadyExists, user.Username)
		}
		return fmt.Errorf("failed to create user: %w", err)
	}

	return nil
}

// GetByUsername retrieves a user by username.
func (r *userRepository) GetByUsername(ctx context.Context, username string) (*domain.User, error) {
	query := `
		SELECT username, name, password_hash, token, token_expires_at, created_at, updated_at
		FROM users
		WHERE username = ?
	`

	return r.scanUser(r.db.QueryRowContext(ctx, query, username))
}

// GetByToken retrieves the user holding the given session token.
func (r *userRepository) GetByToken(ctx context.Context, token string) (*domain.User, error) {
	query := `
		SELECT username, name, password_hash, token, token_expires_at, created_at, updated_at
		FROM users
		WHERE token = ?
	`

	return r.scanUser(r.db.QueryRowContext(ctx, query, token))
}

// Update updates an existing user, including token fields.
func (r *userRepository) Update(ctx context.Context, user *domain.User) error {
	user.UpdatedAt = time.Now().UTC()

	query := `
		UPDATE users
		SET name = ?, password_hash = ?, token = ?, token_expires_at = ?, updated_at = ?
		WHERE username = ?
	`

	result, err := r.db.ExecContext(ctx, query,
		user.Name,
		user.PasswordHash,
		user.Token,
		user.TokenExpiresAt,
		user.UpdatedAt.Format(time.RFC3339),
		user.Username,
	)

	if err != nil {
		return fmt.Errorf("failed to update user: %w", err)
	}

	rowsAffected, _ := result.RowsAffected()
	if rowsAffected == 0 {
		return domain.ErrUserNotFound
	}

	return nil
}

// UpdateToken writes only the token columns. Profile columns are left
// untouched regardless of what the passed user carries.
func (r *userRepository) UpdateToken(ctx context.Context, user *domain.User) error {
	user.UpdatedAt = time.Now().UTC()

	query := `
		UPDATE users
		SET token = ?, token_expires_at = ?, updated_at = ?
		WHERE username = ?
	`

	result, err := r.db.ExecContext(ctx, query,
		user.Token,
		user.TokenExpiresAt,
		user.UpdatedAt.Format(time.RFC3339),
		user.Username,
	)

	if err != nil {
		return fmt.Errorf("failed to update user token: %w", err)
	}

	rowsAffected, _ := result.RowsAffected()
	if rowsAffected == 0 {
		return domain.ErrUserNotFound
	}

	return nil
}

// ExistsByUsername checks if a user with the given username exists.
func (r *userRepository) ExistsByUsername(ctx context.Context, username string) (bool, error) {
	var count int
	err := r.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM users WHERE username = ?`, username).Scan(&count)
	if err != nil {
		return false, fmt.Errorf("failed to check username existence: %w", err)
	}
	return count > 0, nil
}

// List returns all users ordered by username.
func (r *userRepository) List(ctx context.Context) ([]*domain.User, error) {
	query := `
		SELECT username, name, password_hash, token, token_expires_at, created_at, updated_at
		FROM users
		ORDER BY username
	`

	rows, err := r.db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to list users: %w", err)
	}
	defer rows.Close()

	var users []*domain.User
	for rows.Next() {
		user := &domain.User{}
		var token sql.NullString
		var tokenExpiresAt sql.NullInt64
		var createdAt, updatedAt string

		if err := rows.Scan(
			&user.Username,
			&user.Name,
			&user.PasswordHash,
			&token,
			&tokenExpiresAt,
			&createdAt,
			&updatedAt,
		); err != nil {
			return nil, fmt.Errorf("failed to scan user: %w", err)
		}

		if token.Valid {
			user.Token = &token.String
		}
		if tokenExpiresAt.Valid {
			user.TokenExpiresAt = &tokenExpiresAt.Int64
		}
		user.CreatedAt, _ = time.Parse(time.RFC3339, createdAt)
		user.UpdatedAt, _ = time.Parse(time.RFC3339, updatedAt)

		users = append(users, user)
	}

	return users, rows.Err()
}

// scanUser scans a single user row.
func (r *userRepository) scanUser(row *sql.Row) (*domain.User, error) {
	user := &domain.User{}
	var token sql.NullString
	var tokenExpiresAt sql.NullInt64
	var createdAt, updatedAt string

	err := row.Scan(
		&user.Username,
		&user.Name,
		&user.PasswordHash,
		&token,
		&tokenExpiresAt,
		&createdAt,
		&updatedAt,
	)

	if err != nil {
		if isNoRows(err) {
			return nil, domain.ErrUserNotFound
		}
		return nil, fmt.Errorf("failed to get user: %w", err)
	}

	if token.Valid {
		user.Token = &token.String
	}
	if tokenExpiresAt.Valid {
		user.TokenExpiresAt = &tokenExpiresAt.Int64
	}
	user.CreatedAt, _ = time.Parse(time.RFC3339, createdAt)
	user.UpdatedAt, _ = time.Parse(time.RFC3339, updatedAt)

	return user, nil
}

// Ensure userRepository implements repository.UserRepository.
var _ repository.UserRepository = (*userRepository)(nil)
