package service

import (
	"context"
	"strings"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"github.com/prn-tf/sebastian-contacts/internal/domain"
	"github.com/prn-tf/sebastian-contacts/internal/repository/memory"
)

func newUserService(store *memory.Store) *UserService {
	return NewUserService(store.Repositories().User, UserOptions{BcryptCost: bcrypt.MinCost}, zerolog.Nop())
}

func TestUserService_Register(t *testing.T) {
	ctx := context.Background()
	store := memory.NewStore()
	svc := newUserService(store)

	err := svc.Register(ctx, RegisterInput{Username: "alice", Password: "secret", Name: "Alice"})
	require.NoError(t, err)

	user, err := store.Repositories().User.GetByUsername(ctx, "alice")
	require.NoError(t, err)
	require.Equal(t, "Alice", user.Name)

	// The stored credential is a verifiable hash, never the password.
	require.NotEqual(t, "secret", user.PasswordHash)
	require.NoError(t, bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte("secret")))
}

func TestUserService_RegisterDuplicateUsername(t *testing.T) {
	ctx := context.Background()
	svc := newUserService(memory.NewStore())

	require.NoError(t, svc.Register(ctx, RegisterInput{Username: "alice", Password: "secret", Name: "Alice"}))

	err := svc.Register(ctx, RegisterInput{Username: "alice", Password: "other", Name: "Other"})
	require.ErrorIs(t, err, domain.ErrUserAlreadyExists)
}

func TestUserService_RegisterValidation(t *testing.T) {
	ctx := context.Background()
	svc := newUserService(memory.NewStore())

	tests := []struct {
		name  string
		input RegisterInput
	}{
		{"blank username", RegisterInput{Username: "", Password: "secret", Name: "Alice"}},
		{"blank password", RegisterInput{Username: "alice", Password: "", Name: "Alice"}},
		{"blank name", RegisterInput{Username: "alice", Password: "secret", Name: ""}},
		{"username too long", RegisterInput{Username: strings.Repeat("a", 101), Password: "secret", Name: "Alice"}},
		{"password too long", RegisterInput{Username: "alice", Password: strings.Repeat("p", 101), Name: "Alice"}},
		{"name too long", RegisterInput{Username: "alice", Password: "secret", Name: strings.Repeat("n", 101)}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := svc.Register(ctx, tt.input)
			require.True(t, domain.IsValidation(err), "expected validation error, got %v", err)
		})
	}
}

func TestUserService_UpdateProfilePartial(t *testing.T) {
	ctx := context.Background()
	store := memory.NewStore()
	svc := newUserService(store)

	require.NoError(t, svc.Register(ctx, RegisterInput{Username: "alice", Password: "secret", Name: "Alice"}))

	principal, err := store.Repositories().User.GetByUsername(ctx, "alice")
	require.NoError(t, err)
	originalHash := principal.PasswordHash

	// Only the name changes; the password hash stays untouched.
	newName := "Alice B"
	updated, err := svc.UpdateProfile(ctx, principal, UpdateProfileInput{Name: &newName})
	require.NoError(t, err)
	require.Equal(t, "Alice B", updated.Name)
	require.Equal(t, originalHash, updated.PasswordHash)

	// Only the password changes; the name stays untouched.
	newPassword := "rotated"
	updated, err = svc.UpdateProfile(ctx, updated, UpdateProfileInput{Password: &newPassword})
	require.NoError(t, err)
	require.Equal(t, "Alice B", updated.Name)
	require.NoError(t, bcrypt.CompareHashAndPassword([]byte(updated.PasswordHash), []byte("rotated")))
}

func TestUserService_UpdateProfileRejectsBlankFields(t *testing.T) {
	ctx := context.Background()
	store := memory.NewStore()
	svc := newUserService(store)

	require.NoError(t, svc.Register(ctx, RegisterInput{Username: "alice", Password: "secret", Name: "Alice"}))

	principal, err := store.Repositories().User.GetByUsername(ctx, "alice")
	require.NoError(t, err)

	blank := "   "
	_, err = svc.UpdateProfile(ctx, principal, UpdateProfileInput{Name: &blank})
	require.True(t, domain.IsValidation(err))

	_, err = svc.UpdateProfile(ctx, principal, UpdateProfileInput{Password: &blank})
	require.True(t, domain.IsValidation(err))
}
