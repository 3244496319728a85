package auth

import (
	"context"
	"errors"
	"net/http"

	"github.com/sakif/inkwell/internal/model"
)

// CookieName is the session cookie the browser carries the token in.
const CookieName = "token"

// contextKey is an unexported type for context keys in this package.
// Using a package-private type means no other package can read or shadow
// the claims we attach to the request context.
type contextKey string

const claimsKey contextKey = "claims"

// RequireAuth enforces authentication on protected routes.
//
// It reads the session cookie, validates the token, and stores the decoded
// claims in the request context. The three failure modes are distinct on
// the wire:
//
//	missing cookie → 401 "authentication required"
//	expired token  → 401 "token expired"
//	anything else  → 401 "invalid token"
//
// Validation is a pure function of the cookie, the clock, and the secret —
// this middleware never touches the store.
func RequireAuth(tokens *TokenService) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			cookie, err := r.Cookie(CookieName)
			if err != nil {
				unauthorized(w, "authentication required")
				return
			}

			claims, err := tokens.Validate(cookie.Value)
			if err != nil {
				if errors.Is(err, ErrTokenExpired) {
					unauthorized(w, "token expired")
					return
				}
				unauthorized(w, "invalid token")
				return
			}

			ctx := context.WithValue(r.Context(), claimsKey, claims)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// RequireRole enforces that the authenticated caller holds exactly the
// given role. It must be mounted after RequireAuth — a request with no
// claims in context is rejected the same way as a wrong role.
//
// ROLE ONLY, NOT OWNERSHIP: a caller holding the required role passes this
// gate for any resource, not only resources they created.
func RequireRole(role model.Role) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			claims, ok := ClaimsFromContext(r.Context())
			if !ok || claims.Role != role {
				w.Header().Set("Content-Type", "application/json")
				w.WriteHeader(http.StatusForbidden)
				w.Write([]byte(`{"error":"forbidden","message":"access denied"}`))
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

// OptionalAuth attaches claims when a valid token is present but never
// blocks the request. Page routes use it so templates can show a logged-in
// state without forcing login.
func OptionalAuth(tokens *TokenService) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if cookie, err := r.Cookie(CookieName); err == nil {
				if claims, err := tokens.Validate(cookie.Value); err == nil {
					r = r.WithContext(context.WithValue(r.Context(), claimsKey, claims))
				}
			}
			next.ServeHTTP(w, r)
		})
	}
}

// ClaimsFromContext retrieves the authenticated session claims.
// The second return is false for anonymous requests.
func ClaimsFromContext(ctx context.Context) (*Claims, bool) {
	claims, ok := ctx.Value(claimsKey).(*Claims)
	return claims, ok && claims != nil
}

func unauthorized(w http.ResponseWriter, message string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusUnauthorized)
	w.Write([]byte(`{"error":"unauthorized","message":"` + message + `"}`))
}
