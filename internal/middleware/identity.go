// Package middleware provides the HTTP middleware stack: caller
// identity, request IDs, and per-client rate limiting.
package middleware

import (
	"context"
	"encoding/json"
	"net/http"

	"whereabouts/internal/domain"
)

// DefaultIdentityHeader carries the authenticated caller identity.
// Authentication itself happens upstream (gateway, sidecar); this
// service trusts the header it is handed.
const DefaultIdentityHeader = "X-User-ID"

type identityKey struct{}

// WithIdentity stores the caller identity in the context.
func WithIdentity(ctx context.Context, id string) context.Context {
	return context.WithValue(ctx, identityKey{}, id)
}

// IdentityFromContext extracts the caller identity from the context.
func IdentityFromContext(ctx context.Context) (string, bool) {
	id, ok := ctx.Value(identityKey{}).(string)
	return id, ok
}

// Identity returns a middleware that requires a well-formed caller
// identity in the given header. Requests without one get 401.
func Identity(header string) func(http.Handler) http.Handler {
	if header == "" {
		header = DefaultIdentityHeader
	}
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			id := r.Header.Get(header)
			if !domain.ValidIdentifier(id) {
				writeUnauthorized(w, header)
				return
			}
			next.ServeHTTP(w, r.WithContext(WithIdentity(r.Context(), id)))
		})
	}
}

func writeUnauthorized(w http.ResponseWriter, header string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusUnauthorized)
	_ = json.NewEncoder(w).Encode(map[string]interface{}{
		"code":    http.StatusUnauthorized,
		"message": "missing or invalid " + header + " header",
	})
}
