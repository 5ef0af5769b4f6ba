package handler

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog"

	"github.com/prn-tf/sebastian-contacts/internal/auth"
	"github.com/prn-tf/sebastian-contacts/internal/service"
)

// AuthHandler handles the login and logout endpoints.
type AuthHandler struct {
	authService *service.AuthService
	logger      zerolog.Logger
}

// NewAuthHandler creates a new AuthHandler.
func NewAuthHandler(authService *service.AuthService, logger zerolog.Logger) *AuthHandler {
	return &AuthHandler{
		authService: authService,
		logger:      logger.With().Str("handler", "auth").Logger(),
	}
}

// RegisterRoutes registers login on the public router and logout on the
// protected one.
func (h *AuthHandler) RegisterRoutes(public, protected chi.Router) {
	public.Post("/api/auth/login", h.handleLogin)
	protected.Delete("/api/auth/logout", h.handleLogout)
}

// loginRequest is the login payload.
type loginRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

// tokenResponse carries a freshly issued session token.
type tokenResponse struct {
	Token     string `json:"token"`
	ExpiredAt int64  `json:"expiredAt"`
}

func (h *AuthHandler) handleLogin(w http.ResponseWriter, r *http.Request) {
	var req loginRequest
	if err := decodeJSON(r, &req); err != nil {
		writeBadRequest(w, "invalid request body")
		return
	}

	out, err := h.authService.Login(r.Context(), service.LoginInput{
		Username: req.Username,
		Password: req.Password,
	})
	if err != nil {
		writeError(w, err)
		return
	}

	writeData(w, http.StatusOK, tokenResponse{
		Token:     out.Token,
		ExpiredAt: out.ExpiresAt,
	})
}

func (h *AuthHandler) handleLogout(w http.ResponseWriter, r *http.Request) {
	principal, err := auth.RequirePrincipal(r.Context())
	if err != nil {
		writeError(w, err)
		return
	}

	if err := h.authService.Logout(r.Context(), principal); err != nil {
		writeError(w, err)
		return
	}

	writeData(w, http.StatusOK, "OK")
}
