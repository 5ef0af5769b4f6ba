// Package service provides business logic services for Sebastian Contacts.
package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/rs/zerolog"
	"golang.org/x/crypto/bcrypt"

	"github.com/prn-tf/sebastian-contacts/internal/domain"
	"github.com/prn-tf/sebastian-contacts/internal/lock"
	"github.com/prn-tf/sebastian-contacts/internal/pkg/crypto"
	"github.com/prn-tf/sebastian-contacts/internal/repository"
)

// DefaultTokenTTL is how long a session token stays valid after login.
const DefaultTokenTTL = 30 * 24 * time.Hour

// DefaultPrincipalCacheTTL bounds how long a resolved principal may be
// served from cache. Expiry is still re-checked on every cache hit.
const DefaultPrincipalCacheTTL = 5 * time.Minute

// Session lock parameters. The lock only covers the short
// read-modify-write on the user row, so the TTL can stay small.
const (
	sessionLockTTL        = 3 * time.Second
	sessionLockRetries    = 5
	sessionLockRetryDelay = 50 * time.Millisecond
)

// AuthOptions configures the AuthService.
type AuthOptions struct {
	// TokenTTL is the session token lifetime. Zero means DefaultTokenTTL.
	TokenTTL time.Duration

	// PrincipalCacheTTL is the cache lifetime for resolved principals.
	// Zero means DefaultPrincipalCacheTTL.
	PrincipalCacheTTL time.Duration

	// Locker serializes login/logout per account. Nil means no
	// serialization (single-writer deployments and tests).
	Locker lock.Locker
}

// AuthService issues, revokes, and resolves opaque session tokens.
// Each user holds at most one active token; a new login overwrites the
// previous session.
type AuthService struct {
	userRepo repository.UserRepository
	cache    repository.Cache
	opts     AuthOptions
	logger   zerolog.Logger

	// now is swapped out in tests.
	now func() time.Time
}

// NewAuthService creates a new AuthService. The cache is optional; pass
// nil to resolve every token against the store.
func NewAuthService(userRepo repository.UserRepository, cache repository.Cache, opts AuthOptions, logger zerolog.Logger) *AuthService {
	if opts.TokenTTL <= 0 {
		opts.TokenTTL = DefaultTokenTTL
	}
	if opts.PrincipalCacheTTL <= 0 {
		opts.PrincipalCacheTTL = DefaultPrincipalCacheTTL
	}
	if opts.Locker == nil {
		opts.Locker = lock.NewNoOpLocker()
	}
	return &AuthService{
		userRepo: userRepo,
		cache:    cache,
		opts:     opts,
		logger:   logger.With().Str("service", "auth").Logger(),
		now:      time.Now,
	}
}

// LoginInput contains the credentials presented at login.
type LoginInput struct {
	Username string
	Password string
}

// LoginOutput contains the issued session token and its expiry as
// epoch milliseconds.
type LoginOutput struct {
	Token     string
	ExpiresAt int64
}

// Login verifies credentials and issues a fresh session token, replacing
// any previously issued one. Unknown username and wrong password yield
// the same domain.ErrInvalidCredentials.
func (s *AuthService) Login(ctx context.Context, input LoginInput) (*LoginOutput, error) {
	if err := validateLoginInput(input); err != nil {
		return nil, err
	}

	unlock, err := s.lockSession(ctx, input.Username)
	if err != nil {
		return nil, err
	}
	defer unlock()

	user, err := s.userRepo.GetByUsername(ctx, input.Username)
	if err != nil {
		if errors.Is(err, domain.ErrUserNotFound) {
			s.logger.Debug().Str("username", input.Username).Msg("login for unknown user")
			return nil, domain.ErrInvalidCredentials
		}
		s.logger.Error().Err(err).Str("username", input.Username).Msg("failed to load user for login")
		return nil, fmt.Errorf("%w: %v", ErrInternalError, err)
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(input.Password)); err != nil {
		s.logger.Debug().Str("username", input.Username).Msg("invalid password during login")
		return nil, domain.ErrInvalidCredentials
	}

	// Drop the cached principal of the session being replaced.
	s.evictCachedPrincipal(ctx, user.Token)

	token, err := crypto.GenerateSessionToken()
	if err != nil {
		s.logger.Error().Err(err).Msg("failed to generate session token")
		return nil, fmt.Errorf("%w: %v", ErrInternalError, err)
	}

	expiresAt := s.now().Add(s.opts.TokenTTL).UnixMilli()
	user.SetToken(token, expiresAt)

	if err := s.userRepo.UpdateToken(ctx, user); err != nil {
		s.logger.Error().Err(err).Str("username", user.Username).Msg("failed to persist session token")
		return nil, fmt.Errorf("%w: %v", ErrInternalError, err)
	}

	s.logger.Info().
		Str("username", user.Username).
		Int64("expires_at", expiresAt).
		Msg("user logged in")

	return &LoginOutput{
		Token:     token,
		ExpiresAt: expiresAt,
	}, nil
}

// Logout revokes the principal's current session token. Idempotent:
// logging out an already logged-out user succeeds.
func (s *AuthService) Logout(ctx context.Context, principal *domain.User) error {
	unlock, err := s.lockSession(ctx, principal.Username)
	if err != nil {
		return err
	}
	defer unlock()

	s.evictCachedPrincipal(ctx, principal.Token)

	principal.ClearToken()
	// The principal may be a cached copy with stale profile fields, so
	// only the token columns are written here.
	if err := s.userRepo.UpdateToken(ctx, principal); err != nil {
		s.logger.Error().Err(err).Str("username", principal.Username).Msg("failed to clear session token")
		return fmt.Errorf("%w: %v", ErrInternalError, err)
	}

	s.logger.Info().Str("username", principal.Username).Msg("user logged out")
	return nil
}

// Resolve maps a presented token to its authenticated principal. Empty,
// unknown, and expired tokens all yield domain.ErrUnauthenticated;
// callers can never tell the cases apart. Expiry is checked against the
// wall clock on every resolution, cache hit or not.
func (s *AuthService) Resolve(ctx context.Context, token string) (*domain.User, error) {
	if token == "" {
		return nil, domain.ErrUnauthenticated
	}

	if user, ok := s.cachedPrincipal(ctx, token); ok {
		if user.TokenValidAt(s.now()) {
			return user, nil
		}
		s.evictCachedPrincipal(ctx, &token)
		return nil, domain.ErrUnauthenticated
	}

	user, err := s.userRepo.GetByToken(ctx, token)
	if err != nil {
		if errors.Is(err, domain.ErrUserNotFound) {
			return nil, domain.ErrUnauthenticated
		}
		s.logger.Error().Err(err).Msg("failed to resolve token")
		return nil, fmt.Errorf("%w: %v", ErrInternalError, err)
	}

	if !user.TokenValidAt(s.now()) {
		return nil, domain.ErrUnauthenticated
	}

	s.cachePrincipal(ctx, token, user)
	return user, nil
}

// lockSession serializes session mutations for one account so an
// interleaved login/logout pair cannot leave a half-replaced token.
// Returns the release function.
func (s *AuthService) lockSession(ctx context.Context, username string) (func(), error) {
	key := lock.Keys.Session(username)

	acquired, err := s.opts.Locker.AcquireWithRetry(ctx, key, sessionLockTTL, sessionLockRetries, sessionLockRetryDelay)
	if err != nil {
		s.logger.Error().Err(err).Str("username", username).Msg("session lock failed")
		return nil, fmt.Errorf("%w: %v", ErrInternalError, err)
	}
	if !acquired {
		s.logger.Warn().Str("username", username).Msg("session lock contended")
		return nil, fmt.Errorf("%w: session busy", ErrInternalError)
	}

	return func() {
		if _, err := s.opts.Locker.Release(ctx, key); err != nil {
			s.logger.Warn().Err(err).Str("username", username).Msg("session lock release failed")
		}
	}, nil
}

// cachedPrincipal looks up a resolved principal by token digest.
func (s *AuthService) cachedPrincipal(ctx context.Context, token string) (*domain.User, bool) {
	if s.cache == nil {
		return nil, false
	}

	key := repository.CacheKey{}.Principal(crypto.DigestToken(token))
	data, err := s.cache.Get(ctx, key)
	if err != nil {
		if !errors.Is(err, repository.ErrCacheMiss) {
			s.logger.Warn().Err(err).Msg("principal cache unavailable")
		}
		return nil, false
	}

	user := &domain.User{}
	if err := json.Unmarshal(data, &cachedUser{User: user}); err != nil {
		return nil, false
	}
	return user, true
}

// cachePrincipal stores a resolved principal, bounded by both the cache
// TTL and the token's remaining lifetime.
func (s *AuthService) cachePrincipal(ctx context.Context, token string, user *domain.User) {
	if s.cache == nil || user.TokenExpiresAt == nil {
		return
	}

	ttl := s.opts.PrincipalCacheTTL
	if remaining := time.UnixMilli(*user.TokenExpiresAt).Sub(s.now()); remaining < ttl {
		ttl = remaining
	}
	if ttl <= 0 {
		return
	}

	data, err := json.Marshal(cachedUser{User: user})
	if err != nil {
		return
	}

	key := repository.CacheKey{}.Principal(crypto.DigestToken(token))
	if err := s.cache.Set(ctx, key, data, ttl); err != nil {
		s.logger.Warn().Err(err).Msg("failed to cache principal")
	}
}

// evictCachedPrincipal removes the cached principal for a token, if any.
func (s *AuthService) evictCachedPrincipal(ctx context.Context, token *string) {
	if s.cache == nil || token == nil || *token == "" {
		return
	}

	key := repository.CacheKey{}.Principal(crypto.DigestToken(*token))
	if err := s.cache.Delete(ctx, key); err != nil {
		s.logger.Warn().Err(err).Msg("failed to evict cached principal")
	}
}

// cachedUser is the cache wire format for a principal. Hash and token
// fields are serialized explicitly since the domain type hides them
// from JSON.
type cachedUser struct {
	User *domain.User
}

type cachedUserJSON struct {
	Username       string  `json:"username"`
	Name           string  `json:"name"`
	PasswordHash   string  `json:"password_hash"`
	Token          *string `json:"token"`
	TokenExpiresAt *int64  `json:"token_expires_at"`
}

// MarshalJSON implements json.Marshaler.
func (c cachedUser) MarshalJSON() ([]byte, error) {
	return json.Marshal(cachedUserJSON{
		Username:       c.User.Username,
		Name:           c.User.Name,
		PasswordHash:   c.User.PasswordHash,
		Token:          c.User.Token,
		TokenExpiresAt: c.User.TokenExpiresAt,
	})
}

// UnmarshalJSON implements json.Unmarshaler.
func (c *cachedUser) UnmarshalJSON(data []byte) error {
	var wire cachedUserJSON
	if err := json.Unmarshal(data, &wire); err != nil {
		return err
	}
	c.User.Username = wire.Username
	c.User.Name = wire.Name
	c.User.PasswordHash = wire.PasswordHash
	c.User.Token = wire.Token
	c.User.TokenExpiresAt = wire.TokenExpiresAt
	return nil
}

// validateLoginInput validates login credentials before touching the
// store. Field constraints mirror the registration limits.
func validateLoginInput(input LoginInput) error {
	if input.Username == "" {
		return domain.NewValidationError("username", "must not be blank")
	}
	if len(input.Username) > 100 {
		return domain.NewValidationError("username", "must be at most 100 characters")
	}
	if input.Password == "" {
		return domain.NewValidationError("password", "must not be blank")
	}
	if len(input.Password) > 100 {
		return domain.NewValidationError("password", "must be at most 100 characters")
	}
	return nil
}
