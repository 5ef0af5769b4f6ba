// Package auth provides the bearer-token authorization gate for
// Sebastian Contacts. Every protected request passes through the
// middleware, which resolves the X-API-TOKEN header to a principal
// before any handler runs.
package auth

import (
	"context"
	"encoding/json"
	"net/http"

	"github.com/rs/zerolog"

	"github.com/prn-tf/sebastian-contacts/internal/domain"
)

// TokenHeader is the request header carrying the opaque session token.
const TokenHeader = "X-API-TOKEN"

// contextKey is a private type for context keys defined in this package.
type contextKey struct{}

// principalKey is the context key under which the resolved principal
// is stored.
var principalKey = contextKey{}

// TokenResolver maps a presented token to its authenticated principal.
// Implemented by service.AuthService.
type TokenResolver interface {
	Resolve(ctx context.Context, token string) (*domain.User, error)
}

// Config contains configuration for the auth middleware.
type Config struct {
	// SkipPaths are paths that skip authentication.
	SkipPaths []string
}

// DefaultConfig returns the default auth configuration.
func DefaultConfig() Config {
	return Config{
		SkipPaths: []string{"/health", "/metrics"},
	}
}

// Middleware creates the authentication middleware. A missing header
// fails closed before the resolver (and therefore the store) is ever
// consulted; missing, unknown, and expired tokens all produce the same
// 401 response.
func Middleware(resolver TokenResolver, config Config, logger zerolog.Logger) func(http.Handler) http.Handler {
	log := logger.With().Str("component", "auth").Logger()

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			for _, path := range config.SkipPaths {
				if r.URL.Path == path {
					next.ServeHTTP(w, r)
					return
				}
			}

			token := r.Header.Get(TokenHeader)
			if token == "" {
				writeAuthError(w)
				return
			}

			principal, err := resolver.Resolve(r.Context(), token)
			if err != nil {
				log.Debug().Str("path", r.URL.Path).Msg("token resolution failed")
				writeAuthError(w)
				return
			}

			ctx := context.WithValue(r.Context(), principalKey, principal)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// writeAuthError writes the single authentication failure response.
// The body never varies by failure cause.
func writeAuthError(w http.ResponseWriter) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusUnauthorized)
	_ = json.NewEncoder(w).Encode(map[string]string{"errors": "Unauthorized"})
}

// GetPrincipal retrieves the authenticated principal from a request
// context, or nil when the request did not pass the gate.
func GetPrincipal(ctx context.Context) *domain.User {
	if principal, ok := ctx.Value(principalKey).(*domain.User); ok {
		return principal
	}
	return nil
}

// RequirePrincipal retrieves the authenticated principal or fails with
// domain.ErrUnauthenticated. Handlers behind the middleware use this
// instead of trusting that the gate ran.
func RequirePrincipal(ctx context.Context) (*domain.User, error) {
	principal := GetPrincipal(ctx)
	if principal == nil {
		return nil, domain.ErrUnauthenticated
	}
	return principal, nil
}

// WithPrincipal returns a context carrying the given principal.
// Intended for tests exercising handlers without the middleware.
func WithPrincipal(ctx context.Context, principal *domain.User) context.Context {
	return context.WithValue(ctx, principalKey, principal)
}
