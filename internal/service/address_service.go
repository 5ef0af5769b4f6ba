package service

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/prn-tf/sebastian-contacts/internal/domain"
	"github.com/prn-tf/sebastian-contacts/internal/repository"
)

// AddressService handles addresses nested under a contact. Every
// operation first scopes the contact to the principal, then scopes the
// address to the contact, so a foreign or dangling ID at either level
// surfaces as not-found.
type AddressService struct {
	contactRepo repository.ContactRepository
	addressRepo repository.AddressRepository
	logger      zerolog.Logger
}

// NewAddressService creates a new AddressService.
func NewAddressService(contactRepo repository.ContactRepository, addressRepo repository.AddressRepository, logger zerolog.Logger) *AddressService {
	return &AddressService{
		contactRepo: contactRepo,
		addressRepo: addressRepo,
		logger:      logger.With().Str("service", "address").Logger(),
	}
}

// AddressInput contains the writable address fields, used by both
// create and full update.
type AddressInput struct {
	Street     string
	City       string
	Province   string
	PostalCode string
	Country    string
}

// Create creates an address under one of the principal's contacts.
func (s *AddressService) Create(ctx context.Context, principal *domain.User, contactID string, input AddressInput) (*domain.Address, error) {
	if err := validateAddressInput(input); err != nil {
		return nil, err
	}

	if _, err := s.contactRepo.GetByIDAndOwner(ctx, contactID, principal.Username); err != nil {
		return nil, err
	}

	address := domain.NewAddress(
		uuid.NewString(),
		contactID,
		input.Street,
		input.City,
		input.Province,
		input.PostalCode,
		input.Country,
	)

	if err := s.addressRepo.Create(ctx, address); err != nil {
		s.logger.Error().Err(err).Str("contact_id", contactID).Msg("failed to create address")
		return nil, fmt.Errorf("%w: %v", ErrInternalError, err)
	}

	s.logger.Info().
		Str("contact_id", contactID).
		Str("address_id", address.ID).
		Msg("address created")

	return address, nil
}

// Get retrieves an address under one of the principal's contacts.
func (s *AddressService) Get(ctx context.Context, principal *domain.User, contactID, addressID string) (*domain.Address, error) {
	if _, err := s.contactRepo.GetByIDAndOwner(ctx, contactID, principal.Username); err != nil {
		return nil, err
	}

	return s.addressRepo.GetByIDAndContact(ctx, addressID, contactID)
}

// List returns all addresses of one of the principal's contacts.
func (s *AddressService) List(ctx context.Context, principal *domain.User, contactID string) ([]*domain.Address, error) {
	if _, err := s.contactRepo.GetByIDAndOwner(ctx, contactID, principal.Username); err != nil {
		return nil, err
	}

	addresses, err := s.addressRepo.ListByContact(ctx, contactID)
	if err != nil {
		s.logger.Error().Err(err).Str("contact_id", contactID).Msg("failed to list addresses")
		return nil, fmt.Errorf("%w: %v", ErrInternalError, err)
	}

	return addresses, nil
}

// Update replaces the writable fields of an address under one of the
// principal's contacts.
func (s *AddressService) Update(ctx context.Context, principal *domain.User, contactID, addressID string, input AddressInput) (*domain.Address, error) {
	if err := validateAddressInput(input); err != nil {
		return nil, err
	}

	if _, err := s.contactRepo.GetByIDAndOwner(ctx, contactID, principal.Username); err != nil {
		return nil, err
	}

	address, err := s.addressRepo.GetByIDAndContact(ctx, addressID, contactID)
	if err != nil {
		return nil, err
	}

	address.Street = input.Street
	address.City = input.City
	address.Province = input.Province
	address.PostalCode = input.PostalCode
	address.Country = input.Country

	if err := s.addressRepo.Update(ctx, address); err != nil {
		s.logger.Error().Err(err).Str("address_id", addressID).Msg("failed to update address")
		return nil, fmt.Errorf("%w: %v", ErrInternalError, err)
	}

	return address, nil
}

// Delete removes an address under one of the principal's contacts.
func (s *AddressService) Delete(ctx context.Context, principal *domain.User, contactID, addressID string) error {
	if _, err := s.contactRepo.GetByIDAndOwner(ctx, contactID, principal.Username); err != nil {
		return err
	}

	if _, err := s.addressRepo.GetByIDAndContact(ctx, addressID, contactID); err != nil {
		return err
	}

	if err := s.addressRepo.Delete(ctx, addressID); err != nil {
		s.logger.Error().Err(err).Str("address_id", addressID).Msg("failed to delete address")
		return fmt.Errorf("%w: %v", ErrInternalError, err)
	}

	s.logger.Info().
		Str("contact_id", contactID).
		Str("address_id", addressID).
		Msg("address deleted")

	return nil
}

// validateAddressInput validates the writable address fields.
func validateAddressInput(input AddressInput) error {
	if input.Country == "" {
		return domain.NewValidationError("country", "must not be blank")
	}
	if len(input.Country) > 100 {
		return domain.NewValidationError("country", "must be at most 100 characters")
	}
	if len(input.Street) > 200 {
		return domain.NewValidationError("street", "must be at most 200 characters")
	}
	if len(input.City) > 100 {
		return domain.NewValidationError("city", "must be at most 100 characters")
	}
	if len(input.Province) > 100 {
		return domain.NewValidationError("province", "must be at most 100 characters")
	}
	if len(input.PostalCode) > 10 {
		return domain.NewValidationError("postalCode", "must be at most 10 characters")
	}
	return nil
}
