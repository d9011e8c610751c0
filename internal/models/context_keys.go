package models

import (
	"context"

	"github.com/google/uuid"
)

// contextKey is a private type for context keys to avoid collisions.
type contextKey string

const (
	// UserContextKey stores the authenticated user's ID in the request context.
	UserContextKey contextKey = "userID"
	// RoleContextKey stores the authenticated user's role in the request context.
	RoleContextKey contextKey = "userRole"
)

// GetUserIDFromContext extracts the user ID placed by the auth middleware.
func GetUserIDFromContext(ctx context.Context) (uuid.UUID, bool) {
	userID, ok := ctx.Value(UserContextKey).(uuid.UUID)
	return userID, ok
}

// GetRoleFromContext extracts the user role placed by the auth middleware.
func GetRoleFromContext(ctx context.Context) (UserRole, bool) {
	role, ok := ctx.Value(RoleContextKey).(UserRole)
	return role, ok
}
