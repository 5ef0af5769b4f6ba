package handler

import (
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog"

	"github.com/prn-tf/sebastian-contacts/internal/auth"
	"github.com/prn-tf/sebastian-contacts/internal/domain"
	"github.com/prn-tf/sebastian-contacts/internal/service"
)

// ContactHandler handles the contact CRUD and search endpoints.
type ContactHandler struct {
	contactService *service.ContactService
	logger         zerolog.Logger
}

// NewContactHandler creates a new ContactHandler.
func NewContactHandler(contactService *service.ContactService, logger zerolog.Logger) *ContactHandler {
	return &ContactHandler{
		contactService: contactService,
		logger:         logger.With().Str("handler", "contact").Logger(),
	}
}

// RegisterRoutes registers the contact routes. All of them require an
// authenticated principal.
func (h *ContactHandler) RegisterRoutes(protected chi.Router) {
	protected.Post("/api/contacts", h.handleCreate)
	protected.Get("/api/contacts", h.handleSearch)
	protected.Get("/api/contacts/{contactId}", h.handleGet)
	protected.Put("/api/contacts/{contactId}", h.handleUpdate)
	protected.Delete("/api/contacts/{contactId}", h.handleDelete)
}

// contactRequest is the create/update payload.
type contactRequest struct {
	FirstName string `json:"firstName"`
	LastName  string `json:"lastName"`
	Email     string `json:"email"`
	Phone     string `json:"phone"`
}

// contactResponse is the public view of a contact.
type contactResponse struct {
	ID        string `json:"id"`
	FirstName string `json:"firstName"`
	LastName  string `json:"lastName"`
	Email     string `json:"email"`
	Phone     string `json:"phone"`
}

func (h *ContactHandler) handleCreate(w http.ResponseWriter, r *http.Request) {
	principal, err := auth.RequirePrincipal(r.Context())
	if err != nil {
		writeError(w, err)
		return
	}

	var req contactRequest
	if err := decodeJSON(r, &req); err != nil {
		writeBadRequest(w, "invalid request body")
		return
	}

	contact, err := h.contactService.Create(r.Context(), principal, toContactInput(req))
	if err != nil {
		writeError(w, err)
		return
	}

	writeData(w, http.StatusOK, toContactResponse(contact))
}

func (h *ContactHandler) handleGet(w http.ResponseWriter, r *http.Request) {
	principal, err := auth.RequirePrincipal(r.Context())
	if err != nil {
		writeError(w, err)
		return
	}

	contact, err := h.contactService.Get(r.Context(), principal, chi.URLParam(r, "contactId"))
	if err != nil {
		writeError(w, err)
		return
	}

	writeData(w, http.StatusOK, toContactResponse(contact))
}

func (h *ContactHandler) handleUpdate(w http.ResponseWriter, r *http.Request) {
	principal, err := auth.RequirePrincipal(r.Context())
	if err != nil {
		writeError(w, err)
		return
	}

	var req contactRequest
	if err := decodeJSON(r, &req); err != nil {
		writeBadRequest(w, "invalid request body")
		return
	}

	contact, err := h.contactService.Update(r.Context(), principal, chi.URLParam(r, "contactId"), toContactInput(req))
	if err != nil {
		writeError(w, err)
		return
	}

	writeData(w, http.StatusOK, toContactResponse(contact))
}

func (h *ContactHandler) handleDelete(w http.ResponseWriter, r *http.Request) {
	principal, err := auth.RequirePrincipal(r.Context())
	if err != nil {
		writeError(w, err)
		return
	}

	if err := h.contactService.Delete(r.Context(), principal, chi.URLParam(r, "contactId")); err != nil {
		writeError(w, err)
		return
	}

	writeData(w, http.StatusOK, "OK")
}

func (h *ContactHandler) handleSearch(w http.ResponseWriter, r *http.Request) {
	principal, err := auth.RequirePrincipal(r.Context())
	if err != nil {
		writeError(w, err)
		return
	}

	query := r.URL.Query()

	page := 0
	if raw := query.Get("page"); raw != "" {
		parsed, err := strconv.Atoi(raw)
		if err != nil || parsed < 0 {
			writeBadRequest(w, "page must be a non-negative integer")
			return
		}
		page = parsed
	}

	out, err := h.contactService.Search(r.Context(), principal, service.SearchInput{
		Name:  query.Get("name"),
		Email: query.Get("email"),
		Phone: query.Get("phone"),
		Page:  page,
	})
	if err != nil {
		writeError(w, err)
		return
	}

	items := make([]contactResponse, 0, len(out.Contacts))
	for _, contact := range out.Contacts {
		items = append(items, toContactResponse(contact))
	}

	writeDataWithPaging(w, http.StatusOK, items, out.Paging)
}

func toContactInput(req contactRequest) service.ContactInput {
	return service.ContactInput{
		FirstName: req.FirstName,
		LastName:  req.LastName,
		Email:     req.Email,
		Phone:     req.Phone,
	}
}

func toContactResponse(contact *domain.Contact) contactResponse {
	return contactResponse{
		ID:        contact.ID,
		FirstName: contact.FirstName,
		LastName:  contact.LastName,
		Email:     contact.Email,
		Phone:     contact.Phone,
	}
}
