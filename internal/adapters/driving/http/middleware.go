package http

import (
	"context"
	"errors"
	"net/http"
	"strings"

	"github.com/edustack-labs/meetlink/internal/core/domain"
	"github.com/edustack-labs/meetlink/internal/core/ports/driven"
)

type contextKey string

const authContextKey contextKey = "auth_claims"

// AuthMiddleware validates bearer tokens on protected routes
type AuthMiddleware struct {
	authAdapter driven.AuthAdapter
}

// NewAuthMiddleware creates a new auth middleware
func NewAuthMiddleware(authAdapter driven.AuthAdapter) *AuthMiddleware {
	return &AuthMiddleware{authAdapter: authAdapter}
}

// Authenticate wraps a handler with bearer token validation
func (m *AuthMiddleware) Authenticate(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		token := extractBearerToken(r)
		if token == "" {
			writeError(w, http.StatusUnauthorized, "missing or invalid authorization header")
			return
		}

		claims, err := m.authAdapter.ParseToken(token)
		if err != nil {
			if errors.Is(err, domain.ErrTokenExpired) {
				writeError(w, http.StatusUnauthorized, "token expired")
				return
			}
			writeError(w, http.StatusUnauthorized, "invalid token")
			return
		}

		ctx := context.WithValue(r.Context(), authContextKey, claims)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// claimsFromContext retrieves the authenticated claims, if any
func claimsFromContext(ctx context.Context) (*domain.TokenClaims, bool) {
	claims, ok := ctx.Value(authContextKey).(*domain.TokenClaims)
	return claims, ok
}

func extractBearerToken(r *http.Request) string {
	header := r.Header.Get("Authorization")
	if header == "" {
		return ""
	}
	parts := strings.SplitN(header, " ", 2)
	if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") {
		return ""
	}
	return parts[1]
}
