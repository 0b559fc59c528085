package httputil

import (
	"context"
	"net/http"

	"chatrelay/internal/domain/models"
)

// Context key type to avoid collisions
type contextKey string

const identityKey contextKey = "identity"

// WithIdentity returns a request whose context carries the resolved caller
// identity.
func WithIdentity(r *http.Request, ident models.Identity) *http.Request {
	ctx := context.WithValue(r.Context(), identityKey, ident)
	return r.WithContext(ctx)
}

// GetIdentity retrieves the caller identity from the request context.
// Requests that never went through the identity middleware, or whose token
// failed verification, resolve to models.Anonymous.
func GetIdentity(r *http.Request) models.Identity {
	ident, ok := r.Context().Value(identityKey).(models.Identity)
	if !ok {
		return models.Anonymous
	}
	return ident
}
