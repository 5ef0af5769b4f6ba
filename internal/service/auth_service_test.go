package service

import (
	"context"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	cachemem "github.com/prn-tf/sebastian-contacts/internal/cache/memory"
	"github.com/prn-tf/sebastian-contacts/internal/domain"
	"github.com/prn-tf/sebastian-contacts/internal/repository"
	"github.com/prn-tf/sebastian-contacts/internal/repository/memory"
)

// newTestUser registers a user directly against the store with a known
// password.
func newTestUser(t *testing.T, repos *repository.Repositories, username, password string) *domain.User {
	t.Helper()

	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.MinCost)
	require.NoError(t, err)

	user := domain.NewUser(username, "Test "+username, string(hash))
	require.NoError(t, repos.User.Create(context.Background(), user))
	return user
}

func newAuthService(repos *repository.Repositories, cache repository.Cache) *AuthService {
	return NewAuthService(repos.User, cache, AuthOptions{}, zerolog.Nop())
}

func TestAuthService_LoginIssuesResolvableToken(t *testing.T) {
	ctx := context.Background()
	repos := memory.NewStore().Repositories()
	newTestUser(t, repos, "alice", "secret")

	svc := newAuthService(repos, nil)

	out, err := svc.Login(ctx, LoginInput{Username: "alice", Password: "secret"})
	require.NoError(t, err)
	require.NotEmpty(t, out.Token)
	require.Greater(t, out.ExpiresAt, time.Now().UnixMilli())

	principal, err := svc.Resolve(ctx, out.Token)
	require.NoError(t, err)
	require.Equal(t, "alice", principal.Username)
}

func TestAuthService_LoginCollapsesFailureCauses(t *testing.T) {
	ctx := context.Background()
	repos := memory.NewStore().Repositories()
	newTestUser(t, repos, "alice", "secret")

	svc := newAuthService(repos, nil)

	_, unknownErr := svc.Login(ctx, LoginInput{Username: "nobody", Password: "secret"})
	require.ErrorIs(t, unknownErr, domain.ErrInvalidCredentials)

	_, wrongErr := svc.Login(ctx, LoginInput{Username: "alice", Password: "wrong"})
	require.ErrorIs(t, wrongErr, domain.ErrInvalidCredentials)

	// Identical observable failure either way.
	require.Equal(t, unknownErr.Error(), wrongErr.Error())
}

func TestAuthService_ReloginReplacesToken(t *testing.T) {
	ctx := context.Background()
	repos := memory.NewStore().Repositories()
	newTestUser(t, repos, "alice", "secret")

	svc := newAuthService(repos, nil)

	first, err := svc.Login(ctx, LoginInput{Username: "alice", Password: "secret"})
	require.NoError(t, err)

	second, err := svc.Login(ctx, LoginInput{Username: "alice", Password: "secret"})
	require.NoError(t, err)
	require.NotEqual(t, first.Token, second.Token)

	_, err = svc.Resolve(ctx, first.Token)
	require.ErrorIs(t, err, domain.ErrUnauthenticated)

	_, err = svc.Resolve(ctx, second.Token)
	require.NoError(t, err)
}

func TestAuthService_ResolveRejectsMissingAndUnknownTokens(t *testing.T) {
	ctx := context.Background()
	repos := memory.NewStore().Repositories()
	newTestUser(t, repos, "alice", "secret")

	svc := newAuthService(repos, nil)

	_, err := svc.Resolve(ctx, "")
	require.ErrorIs(t, err, domain.ErrUnauthenticated)

	_, err = svc.Resolve(ctx, "no-such-token")
	require.ErrorIs(t, err, domain.ErrUnauthenticated)
}

func TestAuthService_ResolveRejectsExpiredToken(t *testing.T) {
	ctx := context.Background()
	repos := memory.NewStore().Repositories()
	newTestUser(t, repos, "alice", "secret")

	svc := newAuthService(repos, nil)

	now := time.Now()
	svc.now = func() time.Time { return now }

	out, err := svc.Login(ctx, LoginInput{Username: "alice", Password: "secret"})
	require.NoError(t, err)

	// One millisecond before expiry the token still resolves.
	svc.now = func() time.Time { return time.UnixMilli(out.ExpiresAt - 1) }
	_, err = svc.Resolve(ctx, out.Token)
	require.NoError(t, err)

	// Exactly at expiry it does not.
	svc.now = func() time.Time { return time.UnixMilli(out.ExpiresAt) }
	_, err = svc.Resolve(ctx, out.Token)
	require.ErrorIs(t, err, domain.ErrUnauthenticated)
}

func TestAuthService_LogoutInvalidatesToken(t *testing.T) {
	ctx := context.Background()
	repos := memory.NewStore().Repositories()
	newTestUser(t, repos, "alice", "secret")

	svc := newAuthService(repos, nil)

	out, err := svc.Login(ctx, LoginInput{Username: "alice", Password: "secret"})
	require.NoError(t, err)

	principal, err := svc.Resolve(ctx, out.Token)
	require.NoError(t, err)

	require.NoError(t, svc.Logout(ctx, principal))

	_, err = svc.Resolve(ctx, out.Token)
	require.ErrorIs(t, err, domain.ErrUnauthenticated)

	// Logging out an already logged-out principal is a no-op.
	require.NoError(t, svc.Logout(ctx, principal))
}

func TestAuthService_CachedPrincipalHonorsExpiry(t *testing.T) {
	ctx := context.Background()
	repos := memory.NewStore().Repositories()
	newTestUser(t, repos, "alice", "secret")

	cache := cachemem.NewCache()
	defer cache.Stop()

	svc := newAuthService(repos, cache)

	now := time.Now()
	svc.now = func() time.Time { return now }

	out, err := svc.Login(ctx, LoginInput{Username: "alice", Password: "secret"})
	require.NoError(t, err)

	// Populate the cache.
	_, err = svc.Resolve(ctx, out.Token)
	require.NoError(t, err)

	// A cache hit must not outlive the token itself.
	svc.now = func() time.Time { return time.UnixMilli(out.ExpiresAt) }
	_, err = svc.Resolve(ctx, out.Token)
	require.ErrorIs(t, err, domain.ErrUnauthenticated)
}

func TestAuthService_LogoutEvictsCachedPrincipal(t *testing.T) {
	ctx := context.Background()
	repos := memory.NewStore().Repositories()
	newTestUser(t, repos, "alice", "secret")

	cache := cachemem.NewCache()
	defer cache.Stop()

	svc := newAuthService(repos, cache)

	out, err := svc.Login(ctx, LoginInput{Username: "alice", Password: "secret"})
	require.NoError(t, err)

	principal, err := svc.Resolve(ctx, out.Token)
	require.NoError(t, err)

	require.NoError(t, svc.Logout(ctx, principal))

	// The cached entry must be gone along with the stored token.
	_, err = svc.Resolve(ctx, out.Token)
	require.ErrorIs(t, err, domain.ErrUnauthenticated)
}

func TestAuthService_ProfileUpdateRefreshesCachedPrincipal(t *testing.T) {
	ctx := context.Background()
	repos := memory.NewStore().Repositories()
	newTestUser(t, repos, "alice", "secret")

	cache := cachemem.NewCache()
	defer cache.Stop()

	authSvc := newAuthService(repos, cache)
	userSvc := NewUserService(repos.User, UserOptions{
		BcryptCost: bcrypt.MinCost,
		Cache:      cache,
	}, zerolog.Nop())

	out, err := authSvc.Login(ctx, LoginInput{Username: "alice", Password: "secret"})
	require.NoError(t, err)

	// Populate the cache.
	principal, err := authSvc.Resolve(ctx, out.Token)
	require.NoError(t, err)

	newName := "Alice Renamed"
	_, err = userSvc.UpdateProfile(ctx, principal, UpdateProfileInput{Name: &newName})
	require.NoError(t, err)

	// The next resolution must see the new profile, not the cached one.
	resolved, err := authSvc.Resolve(ctx, out.Token)
	require.NoError(t, err)
	require.Equal(t, newName, resolved.Name)
}

func TestAuthService_LogoutKeepsProfileChanges(t *testing.T) {
	ctx := context.Background()
	repos := memory.NewStore().Repositories()
	newTestUser(t, repos, "alice", "secret")

	cache := cachemem.NewCache()
	defer cache.Stop()

	authSvc := newAuthService(repos, cache)
	userSvc := NewUserService(repos.User, UserOptions{
		BcryptCost: bcrypt.MinCost,
		Cache:      cache,
	}, zerolog.Nop())

	out, err := authSvc.Login(ctx, LoginInput{Username: "alice", Password: "secret"})
	require.NoError(t, err)

	// This copy goes stale the moment the profile changes below.
	stale, err := authSvc.Resolve(ctx, out.Token)
	require.NoError(t, err)

	fresh, err := authSvc.Resolve(ctx, out.Token)
	require.NoError(t, err)

	newName := "Alice Renamed"
	newPassword := "rotated"
	_, err = userSvc.UpdateProfile(ctx, fresh, UpdateProfileInput{Name: &newName, Password: &newPassword})
	require.NoError(t, err)

	// Logging out with the stale principal revokes the token but must
	// not write its old profile fields back.
	require.NoError(t, authSvc.Logout(ctx, stale))

	stored, err := repos.User.GetByUsername(ctx, "alice")
	require.NoError(t, err)
	require.Equal(t, newName, stored.Name)
	require.Nil(t, stored.Token)

	_, err = authSvc.Login(ctx, LoginInput{Username: "alice", Password: "secret"})
	require.ErrorIs(t, err, domain.ErrInvalidCredentials)

	relogin, err := authSvc.Login(ctx, LoginInput{Username: "alice", Password: newPassword})
	require.NoError(t, err)
	require.NotEmpty(t, relogin.Token)
}

func TestAuthService_LoginValidation(t *testing.T) {
	ctx := context.Background()
	repos := memory.NewStore().Repositories()

	svc := newAuthService(repos, nil)

	_, err := svc.Login(ctx, LoginInput{Username: "", Password: "secret"})
	require.True(t, domain.IsValidation(err))

	_, err = svc.Login(ctx, LoginInput{Username: "alice", Password: ""})
	require.True(t, domain.IsValidation(err))
}
