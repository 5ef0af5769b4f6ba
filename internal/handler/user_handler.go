package handler

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog"

	"github.com/prn-tf/sebastian-contacts/internal/auth"
	"github.com/prn-tf/sebastian-contacts/internal/domain"
	"github.com/prn-tf/sebastian-contacts/internal/service"
)

// UserHandler handles registration and current-user endpoints.
type UserHandler struct {
	userService *service.UserService
	logger      zerolog.Logger
}

// NewUserHandler creates a new UserHandler.
func NewUserHandler(userService *service.UserService, logger zerolog.Logger) *UserHandler {
	return &UserHandler{
		userService: userService,
		logger:      logger.With().Str("handler", "user").Logger(),
	}
}

// RegisterRoutes registers user routes on the protected router and the
// public registration endpoint on the public router.
func (h *UserHandler) RegisterRoutes(public, protected chi.Router) {
	public.Post("/api/users", h.handleRegister)
	protected.Get("/api/users/current", h.handleGetCurrent)
	protected.Patch("/api/users/current", h.handleUpdateCurrent)
}

// registerRequest is the registration payload.
type registerRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
	Name     string `json:"name"`
}

// userResponse is the public view of a user.
type userResponse struct {
	Username string `json:"username"`
	Name     string `json:"name"`
}

func (h *UserHandler) handleRegister(w http.ResponseWriter, r *http.Request) {
	var req registerRequest
	if err := decodeJSON(r, &req); err != nil {
		writeBadRequest(w, "invalid request body")
		return
	}

	err := h.userService.Register(r.Context(), service.RegisterInput{
		Username: req.Username,
		Password: req.Password,
		Name:     req.Name,
	})
	if err != nil {
		writeError(w, err)
		return
	}

	writeData(w, http.StatusOK, "OK")
}

func (h *UserHandler) handleGetCurrent(w http.ResponseWriter, r *http.Request) {
	principal, err := auth.RequirePrincipal(r.Context())
	if err != nil {
		writeError(w, err)
		return
	}

	writeData(w, http.StatusOK, toUserResponse(principal))
}

// updateUserRequest carries the optional profile changes. Absent fields
// stay unchanged.
type updateUserRequest struct {
	Name     *string `json:"name"`
	Password *string `json:"password"`
}

func (h *UserHandler) handleUpdateCurrent(w http.ResponseWriter, r *http.Request) {
	principal, err := auth.RequirePrincipal(r.Context())
	if err != nil {
		writeError(w, err)
		return
	}

	var req updateUserRequest
	if err := decodeJSON(r, &req); err != nil {
		writeBadRequest(w, "invalid request body")
		return
	}

	updated, err := h.userService.UpdateProfile(r.Context(), principal, service.UpdateProfileInput{
		Name:     req.Name,
		Password: req.Password,
	})
	if err != nil {
		writeError(w, err)
		return
	}

	writeData(w, http.StatusOK, toUserResponse(updated))
}

// toUserResponse converts a domain user to its wire form.
func toUserResponse(user *domain.User) userResponse {
	return userResponse{
		Username: user.Username,
		Name:     user.Name,
	}
}
