package common

import (
	"context"
	"strings"
)

// UserContext identifies the caller of a request. It is populated by the HTTP
// middleware from a bearer token or, when auth is not required, from the
// X-Folio-User-ID header.
type UserContext struct {
	UserID string
	Source string // "jwt" or "header"
}

type contextKey int

const userContextKey contextKey = iota

// WithUserContext stores a UserContext in the request context.
func WithUserContext(ctx context.Context, uc *UserContext) context.Context {
	return context.WithValue(ctx, userContextKey, uc)
}

// UserContextFromContext retrieves the UserContext from context, or nil if absent.
func UserContextFromContext(ctx context.Context) *UserContext {
	uc, _ := ctx.Value(userContextKey).(*UserContext)
	return uc
}

// ResolveUserID returns the UserID from context, or "" when no user context is present.
func ResolveUserID(ctx context.Context) string {
	if uc := UserContextFromContext(ctx); uc != nil {
		return strings.TrimSpace(uc.UserID)
	}
	return ""
}
