// Package context provides request-scoped values extraction.
package context

import (
	"context"
	"strconv"
)

// Principal kinds issued by the login endpoints.
const (
	KindUsuario = "usuario"
	KindCliente = "cliente"
)

// UserContext contains the authenticated principal.
type UserContext struct {
	UserID string
	Kind   string
	Roles  []string
}

// NumericID returns the principal id as stored in the relational half.
func (u *UserContext) NumericID() (int64, bool) {
	if u == nil {
		return 0, false
	}
	id, err := strconv.ParseInt(u.UserID, 10, 64)
	if err != nil {
		return 0, false
	}
	return id, true
}

type userContextKey struct{}

// WithUser adds UserContext to context.
func WithUser(ctx context.Context, user *UserContext) context.Context {
	return context.WithValue(ctx, userContextKey{}, user)
}

// GetUser returns UserContext from context.
func GetUser(ctx context.Context) *UserContext {
	if v, ok := ctx.Value(userContextKey{}).(*UserContext); ok {
		return v
	}
	return nil
}

// GetUserID returns user ID from context or empty string.
func GetUserID(ctx context.Context) string {
	if u := GetUser(ctx); u != nil {
		return u.UserID
	}
	return ""
}

// HasRole checks if user has specific role.
func HasRole(ctx context.Context, role string) bool {
	u := GetUser(ctx)
	if u == nil {
		return false
	}
	for _, r := range u.Roles {
		if r == role {
			return true
		}
	}
	return false
}
