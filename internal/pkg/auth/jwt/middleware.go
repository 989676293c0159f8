package jwt

import (
	"context"
	"net/http"
	"strings"

	"layoutsync/internal/pkg/errs"
	"layoutsync/internal/pkg/resp"
)

// contextKey scopes values stored in the request context to this package.
type contextKey string

// ContextClaimsKey is the key under which validated Claims live in the
// request context.
const ContextClaimsKey contextKey = "auth_claims"

// BearerFromRequest extracts the bearer credential from the Authorization
// header, falling back to the "token" query parameter for WebSocket
// upgrades, where browsers cannot set headers.
func BearerFromRequest(r *http.Request) string {
	authHeader := r.Header.Get("Authorization")
	if authHeader != "" {
		parts := strings.SplitN(authHeader, " ", 2)
		if len(parts) == 2 && parts[0] == "Bearer" {
			return parts[1]
		}
		return ""
	}

	return r.URL.Query().Get("token")
}

// RequireAuth validates the bearer credential and injects the Claims into
// the request context. Requests without a valid token are refused with
// 401 before any handler runs.
func RequireAuth(secretKey string) func(next http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			tokenString := BearerFromRequest(r)
			if tokenString == "" {
				resp.RespondError(w, r, errs.NewError(errs.ErrUnauthenticated))
				return
			}

			claims, err := ParseToken(tokenString, secretKey)
			if err != nil {
				resp.RespondError(w, r, errs.NewError(errs.ErrUnauthenticated))
				return
			}

			ctx := context.WithValue(r.Context(), ContextClaimsKey, claims)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// ClaimsFromContext returns the validated Claims, or nil when the request
// did not pass through RequireAuth.
func ClaimsFromContext(r *http.Request) *Claims {
	claims, ok := r.Context().Value(ContextClaimsKey).(*Claims)
	if !ok {
		return nil
	}
	return claims
}
