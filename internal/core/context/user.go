// Package context provides request-scoped values extraction.
package context

import (
	"context"

	"tillbook/internal/core/id"
)

// UserContext contains authenticated user information.
// Tenant/employee approval happens in the external onboarding workflows;
// by the time a request reaches the engine the token already encodes an
// active tenant and actor.
type UserContext struct {
	UserID   id.ID
	TenantID id.ID
	Email    string
	Role     string
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

// GetUserID returns user ID from context or nil ID.
func GetUserID(ctx context.Context) id.ID {
	if u := GetUser(ctx); u != nil {
		return u.UserID
	}
	return id.Nil()
}

// GetTenantID returns tenant ID from context or nil ID.
func GetTenantID(ctx context.Context) id.ID {
	if u := GetUser(ctx); u != nil {
		return u.TenantID
	}
	return id.Nil()
}

// HasRole checks if user has specific role.
func HasRole(ctx context.Context, role string) bool {
	u := GetUser(ctx)
	return u != nil && u.Role == role
}
