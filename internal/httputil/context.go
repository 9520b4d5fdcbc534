package httputil

import (
	"context"
	"net/http"
)

// Identity is the authenticated caller attached to a request by the auth
// middleware.
type Identity struct {
	UserID   string
	Username string
	Role     string
}

// Context key type to avoid collisions
type contextKey string

const identityKey contextKey = "identity"

// WithIdentity adds the authenticated identity to the request context
func WithIdentity(r *http.Request, id *Identity) *http.Request {
	ctx := context.WithValue(r.Context(), identityKey, id)
	return r.WithContext(ctx)
}

// GetIdentity retrieves the authenticated identity, or nil if the request
// never passed the auth middleware.
func GetIdentity(r *http.Request) *Identity {
	id, _ := r.Context().Value(identityKey).(*Identity)
	return id
}
