package auth

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"

	"github.com/prn-tf/sebastian-contacts/internal/domain"
)

// stubResolver resolves a single known token.
type stubResolver struct {
	token string
	user  *domain.User
	calls int
}

func (s *stubResolver) Resolve(ctx context.Context, token string) (*domain.User, error) {
	s.calls++
	if token == s.token {
		return s.user, nil
	}
	return nil, domain.ErrUnauthenticated
}

func newGatedHandler(resolver *stubResolver) (http.Handler, *string) {
	var seenUsername string

	inner := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if principal := GetPrincipal(r.Context()); principal != nil {
			seenUsername = principal.Username
		}
		w.WriteHeader(http.StatusOK)
	})

	mw := Middleware(resolver, DefaultConfig(), zerolog.Nop())
	return mw(inner), &seenUsername
}

func TestMiddleware_ValidTokenInjectsPrincipal(t *testing.T) {
	resolver := &stubResolver{
		token: "good-token",
		user:  &domain.User{Username: "alice", Name: "Alice"},
	}
	gated, seenUsername := newGatedHandler(resolver)

	req := httptest.NewRequest(http.MethodGet, "/api/users/current", nil)
	req.Header.Set(TokenHeader, "good-token")
	rec := httptest.NewRecorder()

	gated.ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	require.Equal(t, "alice", *seenUsername)
}

func TestMiddleware_MissingHeaderFailsClosedWithoutResolver(t *testing.T) {
	resolver := &stubResolver{token: "good-token", user: &domain.User{Username: "alice"}}
	gated, _ := newGatedHandler(resolver)

	req := httptest.NewRequest(http.MethodGet, "/api/users/current", nil)
	rec := httptest.NewRecorder()

	gated.ServeHTTP(rec, req)

	require.Equal(t, http.StatusUnauthorized, rec.Code)
	// The store is never consulted for an absent header.
	require.Zero(t, resolver.calls)
}

func TestMiddleware_RejectionBodyIsUniform(t *testing.T) {
	resolver := &stubResolver{token: "good-token", user: &domain.User{Username: "alice"}}
	gated, _ := newGatedHandler(resolver)

	bodies := make(map[string]struct{})
	for _, token := range []string{"", "unknown-token"} {
		req := httptest.NewRequest(http.MethodGet, "/api/users/current", nil)
		if token != "" {
			req.Header.Set(TokenHeader, token)
		}
		rec := httptest.NewRecorder()

		gated.ServeHTTP(rec, req)

		require.Equal(t, http.StatusUnauthorized, rec.Code)

		var body map[string]string
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
		require.Equal(t, "Unauthorized", body["errors"])
		bodies[rec.Body.String()] = struct{}{}
	}

	// Missing and unknown tokens produce byte-identical rejections.
	require.Len(t, bodies, 1)
}

func TestMiddleware_SkipPathsBypassTheGate(t *testing.T) {
	resolver := &stubResolver{}
	gated, _ := newGatedHandler(resolver)

	for _, path := range []string{"/health", "/metrics"} {
		req := httptest.NewRequest(http.MethodGet, path, nil)
		rec := httptest.NewRecorder()

		gated.ServeHTTP(rec, req)

		require.Equal(t, http.StatusOK, rec.Code)
	}
	require.Zero(t, resolver.calls)
}

func TestRequirePrincipal(t *testing.T) {
	_, err := RequirePrincipal(context.Background())
	require.ErrorIs(t, err, domain.ErrUnauthenticated)

	user := &domain.User{Username: "alice"}
	principal, err := RequirePrincipal(WithPrincipal(context.Background(), user))
	require.NoError(t, err)
	require.Equal(t, user, principal)
}
