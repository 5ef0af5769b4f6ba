package handler

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog"

	"github.com/prn-tf/sebastian-contacts/internal/auth"
	"github.com/prn-tf/sebastian-contacts/internal/domain"
	"github.com/prn-tf/sebastian-contacts/internal/service"
)

// AddressHandler handles the address endpoints nested under a contact.
type AddressHandler struct {
	addressService *service.AddressService
	logger         zerolog.Logger
}

// NewAddressHandler creates a new AddressHandler.
func NewAddressHandler(addressService *service.AddressService, logger zerolog.Logger) *AddressHandler {
	return &AddressHandler{
		addressService: addressService,
		logger:         logger.With().Str("handler", "address").Logger(),
	}
}

// RegisterRoutes registers the nested address routes.
func (h *AddressHandler) RegisterRoutes(protected chi.Router) {
	protected.Post("/api/contacts/{contactId}/addresses", h.handleCreate)
	protected.Get("/api/contacts/{contactId}/addresses", h.handleList)
	protected.Get("/api/contacts/{contactId}/addresses/{addressId}", h.handleGet)
	protected.Put("/api/contacts/{contactId}/addresses/{addressId}", h.handleUpdate)
	protected.Delete("/api/contacts/{contactId}/addresses/{addressId}", h.handleDelete)
}

// addressRequest is the create/update payload.
type addressRequest struct {
	Street     string `json:"street"`
	City       string `json:"city"`
	Province   string `json:"province"`
	PostalCode string `json:"postalCode"`
	Country    string `json:"country"`
}

// addressResponse is the public view of an address.
type addressResponse struct {
	ID         string `json:"id"`
	Street     string `json:"street"`
	City       string `json:"city"`
	Province   string `json:"province"`
	PostalCode string `json:"postalCode"`
	Country    string `json:"country"`
}

func (h *AddressHandler) handleCreate(w http.ResponseWriter, r *http.Request) {
	principal, err := auth.RequirePrincipal(r.Context())
	if err != nil {
		writeError(w, err)
		return
	}

	var req addressRequest
	if err := decodeJSON(r, &req); err != nil {
		writeBadRequest(w, "invalid request body")
		return
	}

	address, err := h.addressService.Create(r.Context(), principal, chi.URLParam(r, "contactId"), toAddressInput(req))
	if err != nil {
		writeError(w, err)
		return
	}

	writeData(w, http.StatusOK, toAddressResponse(address))
}

func (h *AddressHandler) handleList(w http.ResponseWriter, r *http.Request) {
	principal, err := auth.RequirePrincipal(r.Context())
	if err != nil {
		writeError(w, err)
		return
	}

	addresses, err := h.addressService.List(r.Context(), principal, chi.URLParam(r, "contactId"))
	if err != nil {
		writeError(w, err)
		return
	}

	items := make([]addressResponse, 0, len(addresses))
	for _, address := range addresses {
		items = append(items, toAddressResponse(address))
	}

	writeData(w, http.StatusOK, items)
}

func (h *AddressHandler) handleGet(w http.ResponseWriter, r *http.Request) {
	principal, err := auth.RequirePrincipal(r.Context())
	if err != nil {
		writeError(w, err)
		return
	}

	address, err := h.addressService.Get(r.Context(), principal, chi.URLParam(r, "contactId"), chi.URLParam(r, "addressId"))
	if err != nil {
		writeError(w, err)
		return
	}

	writeData(w, http.StatusOK, toAddressResponse(address))
}

func (h *AddressHandler) handleUpdate(w http.ResponseWriter, r *http.Request) {
	principal, err := auth.RequirePrincipal(r.Context())
	if err != nil {
		writeError(w, err)
		return
	}

	var req addressRequest
	if err := decodeJSON(r, &req); err != nil {
		writeBadRequest(w, "invalid request body")
		return
	}

	address, err := h.addressService.Update(r.Context(), principal, chi.URLParam(r, "contactId"), chi.URLParam(r, "addressId"), toAddressInput(req))
	if err != nil {
		writeError(w, err)
		return
	}

	writeData(w, http.StatusOK, toAddressResponse(address))
}

func (h *AddressHandler) handleDelete(w http.ResponseWriter, r *http.Request) {
	principal, err := auth.RequirePrincipal(r.Context())
	if err != nil {
		writeError(w, err)
		return
	}

	err = h.addressService.Delete(r.Context(), principal, chi.URLParam(r, "contactId"), chi.URLParam(r, "addressId"))
	if err != nil {
		writeError(w, err)
		return
	}

	writeData(w, http.StatusOK, "OK")
}

func toAddressInput(req addressRequest) service.AddressInput {
	return service.AddressInput{
		Street:     req.Street,
		City:       req.City,
		Province:   req.Province,
		PostalCode: req.PostalCode,
		Country:    req.Country,
	}
}

func toAddressResponse(address *domain.Address) addressResponse {
	return addressResponse{
		ID:         address.ID,
		Street:     address.Street,
		City:       address.City,
		Province:   address.Province,
		PostalCode: address.PostalCode,
		Country:    address.Country,
	}
}
