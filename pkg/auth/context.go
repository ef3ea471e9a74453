package auth

import (
	"context"
	"errors"
)

type contextKey string

const userContextKey contextKey = "user"

// ErrNoUserInContext is returned when a request context carries no user.
var ErrNoUserInContext = errors.New("no user in context")

// UserContext carries the authenticated user through a request.
type UserContext struct {
	UserID string
	Email  string
	Roles  []string
}

// HasRole reports whether the user holds the given role.
func (u *UserContext) HasRole(role string) bool {
	for _, r := range u.Roles {
		if r == role {
			return true
		}
	}
	return false
}

// SetUserInContext returns a context carrying the authenticated user.
func SetUserInContext(ctx context.Context, user *UserContext) context.Context {
	return context.WithValue(ctx, userContextKey, user)
}

// GetUserFromContext extracts the authenticated user from a context.
func GetUserFromContext(ctx context.Context) (*UserContext, error) {
	user, ok := ctx.Value(userContextKey).(*UserContext)
	if !ok || user == nil {
		return nil, ErrNoUserInContext
	}
	return user, nil
}
