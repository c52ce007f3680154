package middleware

import (
	"context"
	"encoding/json"
	"net/http"
	"strings"

	"habitcraft/internal/model"
)

// IdentityResolver extracts the authenticated identity from a request.
// The JWT path is the real one; a header-based resolver exists for local
// development and is wired only when configuration asks for it.
type IdentityResolver interface {
	Resolve(r *http.Request) (*model.Claims, error)
}

type tokenVerifier interface {
	Verify(tokenString string, expectedType string) (*model.Claims, error)
}

// TokenResolver verifies a stateless access token taken from the
// Authorization header or the accessToken cookie. No database access.
type TokenResolver struct {
	verifier tokenVerifier
}

func NewTokenResolver(verifier tokenVerifier) *TokenResolver {
	return &TokenResolver{verifier: verifier}
}

func (t *TokenResolver) Resolve(r *http.Request) (*model.Claims, error) {
	token := bearerToken(r)
	if token == "" {
		if cookie, err := r.Cookie("accessToken"); err == nil {
			token = strings.TrimSpace(cookie.Value)
		}
	}
	if token == "" {
		return nil, model.ErrUnauthorized
	}

	return t.verifier.Verify(token, "access")
}

// HeaderResolver trusts an X-User-ID header. Development convenience
// only; config refuses to enable it in production.
type HeaderResolver struct{}

func (HeaderResolver) Resolve(r *http.Request) (*model.Claims, error) {
	userID := strings.TrimSpace(r.Header.Get("X-User-ID"))
	if userID == "" {
		return nil, model.ErrUnauthorized
	}

	return &model.Claims{UserID: userID, Type: "access"}, nil
}

type contextKey string

const claimsContextKey contextKey = "auth_claims"

type AuthMiddleware struct {
	resolver IdentityResolver
}

func NewAuthMiddleware(resolver IdentityResolver) *AuthMiddleware {
	return &AuthMiddleware{resolver: resolver}
}

// RequireAuth gates a route on a valid identity. Every failure collapses
// to the same 401 body; the reason is not echoed back to the caller.
func (m *AuthMiddleware) RequireAuth(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		claims, err := m.resolver.Resolve(r)
		if err != nil {
			writeUnauthorized(w)
			return
		}

		ctx := context.WithValue(r.Context(), claimsContextKey, claims)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

func ClaimsFromContext(ctx context.Context) (*model.Claims, bool) {
	claims, ok := ctx.Value(claimsContextKey).(*model.Claims)
	return claims, ok
}

func bearerToken(r *http.Request) string {
	header := strings.TrimSpace(r.Header.Get("Authorization"))
	if header == "" || !strings.HasPrefix(strings.ToLower(header), "bearer ") {
		return ""
	}

	return strings.TrimSpace(header[7:])
}

func writeUnauthorized(w http.ResponseWriter) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusUnauthorized)

	_ = json.NewEncoder(w).Encode(model.APIResponse{
		Success: false,
		Error: &model.APIError{
			Code:    "UNAUTHORIZED",
			Message: "Authentication required",
		},
	})
}
