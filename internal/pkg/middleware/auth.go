package middleware

import (
	"context"
	"log/slog"
	"net/http"
	"strings"

	"github.com/gamma-omg/bookstore/internal/pkg/router"
	"github.com/gamma-omg/bookstore/internal/token"
)

type ctxKey struct{}

var identityKey ctxKey

// TokenValidator turns a raw bearer token into an identity or fails.
type TokenValidator interface {
	Validate(raw string) (token.Identity, error)
}

// Auth extracts the bearer token from the Authorization header, validates it
// and attaches the identity to the request context. All failure modes answer
// an identical 401; the distinction between a missing, expired, tampered or
// malformed token exists only in the logs.
func Auth(v TokenValidator) router.Middleware {
	return func(next http.Handler) http.Handler {
		return authMiddleware(next, v)
	}
}

func authMiddleware(next http.Handler, v TokenValidator) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		raw := r.Header.Get("Authorization")
		if raw == "" {
			http.Error(w, "Unauthorized", http.StatusUnauthorized)
			return
		}

		raw = strings.TrimPrefix(raw, "Bearer ")

		id, err := v.Validate(raw)
		if err != nil {
			authError("token validation failed", w, r, err)
			return
		}

		ctx := context.WithValue(r.Context(), identityKey, id)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// RequireAdmin gates a route on the Admin role. It must run after Auth;
// without an identity in context the request is treated as unauthenticated.
func RequireAdmin() router.Middleware {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			id, ok := IdentityFromContext(r.Context())
			if !ok {
				http.Error(w, "Unauthorized", http.StatusUnauthorized)
				return
			}

			if id.Role != token.RoleAdmin {
				http.Error(w, "Forbidden", http.StatusForbidden)
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}

func authError(msg string, w http.ResponseWriter, r *http.Request, err error) {
	slog.Error(msg,
		"error", err,
		"method", r.Method,
		"url", r.URL.String(),
		"remote_addr", r.RemoteAddr,
	)
	http.Error(w, "Unauthorized", http.StatusUnauthorized)
}

func IdentityFromContext(ctx context.Context) (token.Identity, bool) {
	id, ok := ctx.Value(identityKey).(token.Identity)
	return id, ok
}
