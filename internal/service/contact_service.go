package service

import (
	"context"
	"fmt"
	"net/mail"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/prn-tf/sebastian-contacts/internal/domain"
	"github.com/prn-tf/sebastian-contacts/internal/repository"
)

// ContactService handles contact CRUD and filtered search. Every
// operation is scoped to the authenticated principal: a contact owned
// by another user is indistinguishable from a missing one.
type ContactService struct {
	contactRepo repository.ContactRepository
	logger      zerolog.Logger
}

// NewContactService creates a new ContactService.
func NewContactService(contactRepo repository.ContactRepository, logger zerolog.Logger) *ContactService {
	return &ContactService{
		contactRepo: contactRepo,
		logger:      logger.With().Str("service", "contact").Logger(),
	}
}

// ContactInput contains the writable contact fields, used by both
// create and full update.
type ContactInput struct {
	FirstName string
	LastName  string
	Email     string
	Phone     string
}

// Create creates a contact owned by the principal.
func (s *ContactService) Create(ctx context.Context, principal *domain.User, input ContactInput) (*domain.Contact, error) {
	if err := validateContactInput(input); err != nil {
		return nil, err
	}

	contact := domain.NewContact(
		uuid.NewString(),
		principal.Username,
		input.FirstName,
		input.LastName,
		input.Email,
		input.Phone,
	)

	if err := s.contactRepo.Create(ctx, contact); err != nil {
		s.logger.Error().Err(err).Str("username", principal.Username).Msg("failed to create contact")
		return nil, fmt.Errorf("%w: %v", ErrInternalError, err)
	}

	s.logger.Info().
		Str("username", principal.Username).
		Str("contact_id", contact.ID).
		Msg("contact created")

	return contact, nil
}

// Get retrieves one of the principal's contacts by ID.
func (s *ContactService) Get(ctx context.Context, principal *domain.User, contactID string) (*domain.Contact, error) {
	return s.contactRepo.GetByIDAndOwner(ctx, contactID, principal.Username)
}

// Update replaces the writable fields of one of the principal's
// contacts. The owner never changes.
func (s *ContactService) Update(ctx context.Context, principal *domain.User, contactID string, input ContactInput) (*domain.Contact, error) {
	if err := validateContactInput(input); err != nil {
		return nil, err
	}

	contact, err := s.contactRepo.GetByIDAndOwner(ctx, contactID, principal.Username)
	if err != nil {
		return nil, err
	}

	contact.FirstName = input.FirstName
	contact.LastName = input.LastName
	contact.Email = input.Email
	contact.Phone = input.Phone

	if err := s.contactRepo.Update(ctx, contact); err != nil {
		s.logger.Error().Err(err).Str("contact_id", contactID).Msg("failed to update contact")
		return nil, fmt.Errorf("%w: %v", ErrInternalError, err)
	}

	return contact, nil
}

// Delete removes one of the principal's contacts together with all of
// its addresses.
func (s *ContactService) Delete(ctx context.Context, principal *domain.User, contactID string) error {
	// Ownership check first; the repository delete is by bare ID.
	if _, err := s.contactRepo.GetByIDAndOwner(ctx, contactID, principal.Username); err != nil {
		return err
	}

	if err := s.contactRepo.Delete(ctx, contactID); err != nil {
		s.logger.Error().Err(err).Str("contact_id", contactID).Msg("failed to delete contact")
		return fmt.Errorf("%w: %v", ErrInternalError, err)
	}

	s.logger.Info().
		Str("username", principal.Username).
		Str("contact_id", contactID).
		Msg("contact deleted")

	return nil
}

// SearchInput contains the optional filters and the zero-based page
// index. Absent filters impose no constraint; the page size is fixed.
type SearchInput struct {
	Name  string
	Email string
	Phone string
	Page  int
}

// PageMeta describes one page of a search result.
type PageMeta struct {
	// CurrentPage echoes the requested page, even when out of range.
	CurrentPage int

	// TotalPages is ceil(totalMatches / Size), 0 when nothing matched.
	TotalPages int

	// Size is the fixed page size.
	Size int
}

// SearchOutput contains one page of matches plus paging metadata.
type SearchOutput struct {
	Contacts []*domain.Contact
	Paging   PageMeta
}

// Search returns the requested page of the principal's contacts
// matching the filters. Pages beyond the result set come back empty
// with truthful totals; the page index is never clamped.
func (s *ContactService) Search(ctx context.Context, principal *domain.User, input SearchInput) (*SearchOutput, error) {
	filter := repository.ContactFilter{
		Name:  input.Name,
		Email: input.Email,
		Phone: input.Phone,
	}
	page := repository.PageRequest{
		Page: input.Page,
		Size: repository.PageSize,
	}

	result, err := s.contactRepo.Search(ctx, principal.Username, filter, page)
	if err != nil {
		s.logger.Error().Err(err).Str("username", principal.Username).Msg("failed to search contacts")
		return nil, fmt.Errorf("%w: %v", ErrInternalError, err)
	}

	totalPages := int((result.Total + int64(page.Size) - 1) / int64(page.Size))

	return &SearchOutput{
		Contacts: result.Items,
		Paging: PageMeta{
			CurrentPage: input.Page,
			TotalPages:  totalPages,
			Size:        page.Size,
		},
	}, nil
}

// validateContactInput validates the writable contact fields.
func validateContactInput(input ContactInput) error {
	if input.FirstName == "" {
		return domain.NewValidationError("firstName", "must not be blank")
	}
	if len(input.FirstName) > 100 {
		return domain.NewValidationError("firstName", "must be at most 100 characters")
	}
	if len(input.LastName) > 100 {
		return domain.NewValidationError("lastName", "must be at most 100 characters")
	}
	if len(input.Email) > 100 {
		return domain.NewValidationError("email", "must be at most 100 characters")
	}
	if input.Email != "" {
		if _, err := mail.ParseAddress(input.Email); err != nil {
			return domain.NewValidationError("email", "must be a valid email address")
		}
	}
	if len(input.Phone) > 100 {
		return domain.NewValidationError("phone", "must be at most 100 characters")
	}
	return nil
}
