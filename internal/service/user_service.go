package service

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/rs/zerolog"
	"golang.org/x/crypto/bcrypt"

	"github.com/prn-tf/sebastian-contacts/internal/domain"
	"github.com/prn-tf/sebastian-contacts/internal/pkg/crypto"
	"github.com/prn-tf/sebastian-contacts/internal/repository"
)

// UserOptions configures the UserService.
type UserOptions struct {
	// BcryptCost is the password hashing cost factor. Zero means
	// bcrypt.DefaultCost.
	BcryptCost int

	// Cache is the principal cache shared with the AuthService. Nil
	// disables eviction on profile changes.
	Cache repository.Cache
}

// UserService handles account registration and profile management.
type UserService struct {
	userRepo   repository.UserRepository
	cache      repository.Cache
	bcryptCost int
	logger     zerolog.Logger
}

// NewUserService creates a new UserService.
func NewUserService(userRepo repository.UserRepository, opts UserOptions, logger zerolog.Logger) *UserService {
	if opts.BcryptCost <= 0 {
		opts.BcryptCost = bcrypt.DefaultCost
	}
	return &UserService{
		userRepo:   userRepo,
		cache:      opts.Cache,
		bcryptCost: opts.BcryptCost,
		logger:     logger.With().Str("service", "user").Logger(),
	}
}

// RegisterInput contains the data needed to register a new account.
type RegisterInput struct {
	Username string
	Password string
	Name     string
}

// Register creates a new account with a bcrypt-hashed password.
// Returns domain.ErrUserAlreadyExists when the username is taken.
func (s *UserService) Register(ctx context.Context, input RegisterInput) error {
	if err := validateRegisterInput(input); err != nil {
		return err
	}

	exists, err := s.userRepo.ExistsByUsername(ctx, input.Username)
	if err != nil {
		s.logger.Error().Err(err).Str("username", input.Username).Msg("failed to check username existence")
		return fmt.Errorf("%w: %v", ErrInternalError, err)
	}
	if exists {
		return fmt.Errorf("%w: %s", domain.ErrUserAlreadyExists, input.Username)
	}

	passwordHash, err := bcrypt.GenerateFromPassword([]byte(input.Password), s.bcryptCost)
	if err != nil {
		s.logger.Error().Err(err).Msg("failed to hash password")
		return fmt.Errorf("%w: failed to hash password", ErrInternalError)
	}

	user := domain.NewUser(input.Username, input.Name, string(passwordHash))

	if err := s.userRepo.Create(ctx, user); err != nil {
		// Two concurrent registrations can race past the existence
		// check; the unique constraint settles it.
		if errors.Is(err, domain.ErrUserAlreadyExists) {
			return err
		}
		s.logger.Error().Err(err).Str("username", input.Username).Msg("failed to create user")
		return fmt.Errorf("%w: %v", ErrInternalError, err)
	}

	s.logger.Info().Str("username", user.Username).Msg("user registered")
	return nil
}

// UpdateProfileInput carries the optional profile changes. A nil field
// is left unchanged; a present-but-blank field is rejected.
type UpdateProfileInput struct {
	Name     *string
	Password *string
}

// UpdateProfile applies partial changes to the principal's own profile.
func (s *UserService) UpdateProfile(ctx context.Context, principal *domain.User, input UpdateProfileInput) (*domain.User, error) {
	if input.Name != nil {
		name := *input.Name
		if strings.TrimSpace(name) == "" {
			return nil, domain.NewValidationError("name", "must not be blank")
		}
		if len(name) > 100 {
			return nil, domain.NewValidationError("name", "must be at most 100 characters")
		}
		principal.Name = name
	}

	if input.Password != nil {
		password := *input.Password
		if strings.TrimSpace(password) == "" {
			return nil, domain.NewValidationError("password", "must not be blank")
		}
		if len(password) > 100 {
			return nil, domain.NewValidationError("password", "must be at most 100 characters")
		}
		passwordHash, err := bcrypt.GenerateFromPassword([]byte(password), s.bcryptCost)
		if err != nil {
			s.logger.Error().Err(err).Msg("failed to hash password")
			return nil, fmt.Errorf("%w: failed to hash password", ErrInternalError)
		}
		principal.PasswordHash = string(passwordHash)
	}

	if err := s.userRepo.Update(ctx, principal); err != nil {
		s.logger.Error().Err(err).Str("username", principal.Username).Msg("failed to update profile")
		return nil, fmt.Errorf("%w: %v", ErrInternalError, err)
	}

	// The auth layer caches resolved principals by token digest; drop
	// the entry so the next resolution sees the new profile.
	s.evictCachedPrincipal(ctx, principal.Token)

	s.logger.Info().Str("username", principal.Username).Msg("profile updated")
	return principal, nil
}

// evictCachedPrincipal removes the cached principal for the session
// token, if any.
func (s *UserService) evictCachedPrincipal(ctx context.Context, token *string) {
	if s.cache == nil || token == nil || *token == "" {
		return
	}

	key := repository.CacheKey{}.Principal(crypto.DigestToken(*token))
	if err := s.cache.Delete(ctx, key); err != nil {
		s.logger.Warn().Err(err).Msg("failed to evict cached principal")
	}
}

// validateRegisterInput validates the input for registering an account.
func validateRegisterInput(input RegisterInput) error {
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
	if input.Name == "" {
		return domain.NewValidationError("name", "must not be blank")
	}
	if len(input.Name) > 100 {
		return domain.NewValidationError("name", "must be at most 100 characters")
	}
	return nil
}
