package auth

import (
	"context"
	"encoding/json"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/sakif/foodbridge/internal/model"
)

// contextKey is an unexported type used for context keys in this package.
//
// WHY A CUSTOM TYPE FOR CONTEXT KEYS?
// context.WithValue uses any as the key type. If you use a plain string like
// context.WithValue(ctx, "email", v), ANY package that knows the string
// "email" can read or shadow your value. A package-private key type prevents
// collisions: only this package can read or write identity values.
type contextKey string

const emailKey contextKey = "email"

// RoleLookup resolves the CURRENT role for an email. The user service
// implements it; a missing account resolves to the plain "user" role rather
// than an error, so this read path never fails a request on its own.
type RoleLookup interface {
	RoleByEmail(ctx context.Context, email string) (model.Role, error)
}

// RequireAuth enforces authentication on protected routes.
//
// It reads the JWT from the "Authorization: Bearer <token>" header, validates
// it, and stores the asserted email in the request context. A missing or
// malformed header is 401; a token that fails validation (bad signature,
// expired, wrong issuer) is 403. That status split — and the exact response
// messages — are part of the API contract the client app was built against.
//
// No handler behind this middleware runs before the token check passes, so a
// rejected request touches no mutable state.
func RequireAuth(tokens *TokenService) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			header := r.Header.Get("Authorization")
			if header == "" {
				writeAuthError(w, http.StatusUnauthorized, "unauthorized access")
				return
			}

			parts := strings.SplitN(header, " ", 2)
			if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") || parts[1] == "" {
				writeAuthError(w, http.StatusUnauthorized, "unauthorized access")
				return
			}

			email, err := tokens.Validate(parts[1])
			if err != nil {
				writeAuthError(w, http.StatusForbidden, "forbidden access")
				return
			}

			// Store the identity in context so handlers can read it
			ctx := context.WithValue(r.Context(), emailKey, email)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// RequireRole allows the request through only if the account's current role
// is one of the given roles. Must be mounted after RequireAuth.
//
// STALE-PRIVILEGE GUARD:
// The role is looked up live, never taken from the token. An admin demoted a
// second ago is a plain user on their very next request, even though their
// token is still valid for days.
func RequireRole(lookup RoleLookup, roles ...model.Role) func(http.Handler) http.Handler {
	allowed := make(map[model.Role]bool, len(roles))
	for _, role := range roles {
		allowed[role] = true
	}

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			email, ok := EmailFromContext(r.Context())
			if !ok {
				writeAuthError(w, http.StatusUnauthorized, "unauthorized access")
				return
			}

			role, err := lookup.RoleByEmail(r.Context(), email)
			if err != nil {
				writeAuthError(w, http.StatusInternalServerError, "could not resolve role")
				return
			}
			if !allowed[role] {
				writeAuthError(w, http.StatusForbidden, "forbidden access")
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}

// RequireSelf enforces the identity-scoping rule for routes addressed by an
// email path parameter: the token's email must equal the path's. A mismatch
// is an explicit 403, never a silent filter. Must be mounted after
// RequireAuth.
//
// The comparison is case-insensitive: stored emails are lowercased at login,
// but the path parameter arrives exactly as the client typed it.
func RequireSelf(param string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			email, ok := EmailFromContext(r.Context())
			if !ok {
				writeAuthError(w, http.StatusUnauthorized, "unauthorized access")
				return
			}

			if !strings.EqualFold(chi.URLParam(r, param), email) {
				writeAuthError(w, http.StatusForbidden, "forbidden access")
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}

// EmailFromContext retrieves the authenticated account email from the
// request context.
//
// Returns ("", false) if the request carries no validated identity.
//
// Usage in handlers:
//
//	email, ok := auth.EmailFromContext(r.Context())
//	if !ok {
//	    // route was mounted without RequireAuth — a wiring bug
//	}
func EmailFromContext(ctx context.Context) (string, bool) {
	email, ok := ctx.Value(emailKey).(string)
	return email, ok && email != ""
}

// writeAuthError emits the same {"message": ...} body shape the rest of the
// handler layer uses, without importing it (auth must not depend on handler).
func writeAuthError(w http.ResponseWriter, status int, message string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(map[string]string{"message": message})
}
