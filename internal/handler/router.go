package handler

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/rs/zerolog"
)

// Router assembles the HTTP routing for the contact API.
type Router struct {
	authHandler    *AuthHandler
	userHandler    *UserHandler
	contactHandler *ContactHandler
	addressHandler *AddressHandler
	authMiddleware func(http.Handler) http.Handler
	middlewares    []func(http.Handler) http.Handler
	logger         zerolog.Logger
}

// RouterConfig contains configuration for the router.
type RouterConfig struct {
	AuthHandler    *AuthHandler
	UserHandler    *UserHandler
	ContactHandler *ContactHandler
	AddressHandler *AddressHandler
	AuthMiddleware func(http.Handler) http.Handler

	// Middlewares are applied to every route, before the auth gate.
	Middlewares []func(http.Handler) http.Handler

	Logger zerolog.Logger
}

// NewRouter creates a new Router.
func NewRouter(config RouterConfig) *Router {
	return &Router{
		authHandler:    config.AuthHandler,
		userHandler:    config.UserHandler,
		contactHandler: config.ContactHandler,
		addressHandler: config.AddressHandler,
		authMiddleware: config.AuthMiddleware,
		middlewares:    config.Middlewares,
		logger:         config.Logger.With().Str("component", "router").Logger(),
	}
}

// Handler returns the main HTTP handler. Registration and login stay
// outside the auth gate; everything else under /api requires a valid
// token.
func (rt *Router) Handler() http.Handler {
	r := chi.NewRouter()

	r.Use(middleware.Recoverer)
	for _, mw := range rt.middlewares {
		r.Use(mw)
	}

	r.Get("/health", rt.handleHealth)

	protected := r.With(rt.authMiddleware)

	rt.authHandler.RegisterRoutes(r, protected)
	rt.userHandler.RegisterRoutes(r, protected)
	rt.contactHandler.RegisterRoutes(protected)
	rt.addressHandler.RegisterRoutes(protected)

	return r
}

// handleHealth handles health check requests.
func (rt *Router) handleHealth(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte(`{"status":"healthy"}`))
}
