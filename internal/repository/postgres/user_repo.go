package postgres

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"

	"github.com/prn-tf/sebastian-contacts/internal/domain"
	"github.com/prn-tf/sebastian-contacts/internal/repository"
)

// uniqueViolationCode is the PostgreSQL error code for unique violations.
const uniqueViolationCode = "23505"

// isUniqueViolation checks if an error is a unique constraint violation.
func isUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == uniqueViolationCode
}

// userRepository implements repository.UserRepository for PostgreSQL.
type userRepository struct {
	db *DB
}

// NewUserRepository creates a new PostgreSQL user repository.
func NewUserRepository(db *DB) repository.UserRepository {
	return &userRepository{db: db}
}

// Create creates a new user.
func (r *userRepository) Create(ctx context.Context, user *domain.User) error {
	query := `
		INSERT INTO users (username, name, password_hash, token, token_expires_at, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
	`

	_, err := r.db.Pool.Exec(ctx, query,
		user.Username,
		user.Name,
		user.PasswordHash,
		user.Token,
		user.TokenExpiresAt,
		user.CreatedAt,
		user.UpdatedAt,
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
		WHERE username = $1
	`

	return r.scanUser(r.db.Pool.QueryRow(ctx, query, username))
}

// GetByToken retrieves the user holding the given session token.
func (r *userRepository) GetByToken(ctx context.Context, token string) (*domain.User, error) {
	query := `
		SELECT username, name, password_hash, token, token_expires_at, created_at, updated_at
		FROM users
		WHERE token = $1
	`

	return r.scanUser(r.db.Pool.QueryRow(ctx, query, token))
}

// Update updates an existing user, including token fields.
func (r *userRepository) Update(ctx context.Context, user *domain.User) error {
	user.UpdatedAt = time.Now().UTC()

	query := `
		UPDATE users
		SET name = $1, password_hash = $2, token = $3, token_expires_at = $4, updated_at = $5
		WHERE username = $6
	`

	tag, err := r.db.Pool.Exec(ctx, query,
		user.Name,
		user.PasswordHash,
		user.Token,
		user.TokenExpiresAt,
		user.UpdatedAt,
		user.Username,
	)

	if err != nil {
		return fmt.Errorf("failed to update user: %w", err)
	}

	if tag.RowsAffected() == 0 {
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
		SET token = $1, token_expires_at = $2, updated_at = $3
		WHERE username = $4
	`

	tag, err := r.db.Pool.Exec(ctx, query,
		user.Token,
		user.TokenExpiresAt,
		user.UpdatedAt,
		user.Username,
	)

	if err != nil {
		return fmt.Errorf("failed to update user token: %w", err)
	}

	if tag.RowsAffected() == 0 {
		return domain.ErrUserNotFound
	}

	return nil
}

// ExistsByUsername checks if a user with the given username exists.
func (r *userRepository) ExistsByUsername(ctx context.Context, username string) (bool, error) {
	var exists bool
	err := r.db.Pool.QueryRow(ctx, `SELECT EXISTS (SELECT 1 FROM users WHERE username = $1)`, username).Scan(&exists)
	if err != nil {
		return false, fmt.Errorf("failed to check username existence: %w", err)
	}
	return exists, nil
}

// List returns all users ordered by username.
func (r *userRepository) List(ctx context.Context) ([]*domain.User, error) {
	query := `
		SELECT username, name, password_hash, token, token_expires_at, created_at, updated_at
		FROM users
		ORDER BY username
	`

	rows, err := r.db.Pool.Query(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to list users: %w", err)
	}
	defer rows.Close()

	var users []*domain.User
	for rows.Next() {
		user := &domain.User{}
		if err := rows.Scan(
			&user.Username,
			&user.Name,
			&user.PasswordHash,
			&user.Token,
			&user.TokenExpiresAt,
			&user.CreatedAt,
			&user.UpdatedAt,
		); err != nil {
			return nil, fmt.Errorf("failed to scan user: %w", err)
		}
		users = append(users, user)
	}

	return users, rows.Err()
}

// scanUser scans a single user row.
func (r *userRepository) scanUser(row pgx.Row) (*domain.User, error) {
	user := &domain.User{}

	err := row.Scan(
		&user.Username,
		&user.Name,
		&user.PasswordHash,
		&user.Token,
		&user.TokenExpiresAt,
		&user.CreatedAt,
		&user.UpdatedAt,
	)

	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrUserNotFound
		}
		return nil, fmt.Errorf("failed to get user: %w", err)
	}

	return user, nil
}

// Ensure userRepository implements repository.UserRepository.
var _ repository.UserRepository = (*userRepository)(nil)
