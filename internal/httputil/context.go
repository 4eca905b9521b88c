package httputil

import (
	"context"
	"net/http"

	"atelier/internal/domain"
)

// Context key type to avoid collisions
type contextKey string

const (
	principalKey contextKey = "principal"
)

// WithPrincipal attaches the caller identity to the request context
func WithPrincipal(r *http.Request, p domain.Principal) *http.Request {
	ctx := context.WithValue(r.Context(), principalKey, p)
	return r.WithContext(ctx)
}

// PrincipalFrom retrieves the caller identity from the request context.
// Requests that never went through the auth middleware are anonymous.
func PrincipalFrom(r *http.Request) domain.Principal {
	p, ok := r.Context().Value(principalKey).(domain.Principal)
	if !ok {
		return domain.Anonymous
	}
	return p
}
