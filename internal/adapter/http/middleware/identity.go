package middleware

import (
	"context"
	"net/http"
	"sync"
)

// ContextKey is the type for context keys
type ContextKey string

const (
	// UserIDContextKey is the context key for the calling user's ID.
	UserIDContextKey ContextKey = "user_id"

	// UserIDHeader carries the caller identity, set by the gateway after
	// authentication. Authentication itself happens upstream.
	UserIDHeader = "X-User-ID"

	// UserEmailHeader and UserNameHeader carry optional profile fields the
	// gateway forwards alongside the identity.
	UserEmailHeader = "X-User-Email"
	UserNameHeader  = "X-User-Name"
)

// RequireUser rejects requests without a caller identity and puts the user
// ID on the request context for handlers.
func RequireUser(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		userID := r.Header.Get(UserIDHeader)
		if userID == "" {
			http.Error(w, "missing user identity", http.StatusUnauthorized)
			return
		}

		ctx := context.WithValue(r.Context(), UserIDContextKey, userID)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// UserIDFromContext extracts the calling user's ID from context.
func UserIDFromContext(ctx context.Context) (string, bool) {
	userID, ok := ctx.Value(UserIDContextKey).(string)
	return userID, ok
}

// UserProvisioner ensures a user row exists for a gateway identity.
type UserProvisioner interface {
	EnsureUser(ctx context.Context, id, email, name string) error
}

// ProvisionUser upserts a user row the first time an identity is seen, so
// accounts, transactions and budgets created by the request have a user to
// reference. Runs after RequireUser. Identities already provisioned by this
// process are remembered and skipped; the upsert itself keeps restarts and
// multiple replicas safe.
func ProvisionUser(provisioner UserProvisioner) func(http.Handler) http.Handler {
	var seen sync.Map

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			userID, ok := UserIDFromContext(r.Context())
			if !ok {
				next.ServeHTTP(w, r)
				return
			}

			if _, done := seen.Load(userID); !done {
				email := r.Header.Get(UserEmailHeader)
				name := r.Header.Get(UserNameHeader)

				if err := provisioner.EnsureUser(r.Context(), userID, email, name); err != nil {
					http.Error(w, "internal server error", http.StatusInternalServerError)
					return
				}
				seen.Store(userID, struct{}{})
			}

			next.ServeHTTP(w, r)
		})
	}
}
