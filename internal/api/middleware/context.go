package middleware

import (
	"context"
	"fmt"

	"github.com/google/uuid"
)

// contextKey is a custom type for context keys to avoid collisions with
// other packages' string keys.
type contextKey string

// Context keys for request-scoped identity values, grounded on the
// reference's context.go pattern (tenant_id/user_role dropped — this
// module has no tenancy or role concept; SessionIDKey added to carry the
// access token's jti claim).
const (
	UserIDKey    contextKey = "user_id"
	SessionIDKey contextKey = "session_id"
)

// GetUserID safely extracts the authenticated user's ID from context.
func GetUserID(ctx context.Context) (uuid.UUID, error) {
	val := ctx.Value(UserIDKey)
	if val == nil {
		return uuid.Nil, fmt.Errorf("user_id not found in context")
	}
	id, ok := val.(uuid.UUID)
	if !ok {
		return uuid.Nil, fmt.Errorf("user_id has wrong type: %T", val)
	}
	return id, nil
}

// GetSessionID safely extracts the current request's session (jti) ID
// from context.
func GetSessionID(ctx context.Context) (uuid.UUID, error) {
	val := ctx.Value(SessionIDKey)
	if val == nil {
		return uuid.Nil, fmt.Errorf("session_id not found in context")
	}
	id, ok := val.(uuid.UUID)
	if !ok {
		return uuid.Nil, fmt.Errorf("session_id has wrong type: %T", val)
	}
	return id, nil
}

// MustGetUserID extracts the user ID and panics if absent. Use only in
// handlers mounted behind RequireAuth, where UserID is guaranteed set.
func MustGetUserID(ctx context.Context) uuid.UUID {
	id, err := GetUserID(ctx)
	if err != nil {
		panic(fmt.Sprintf("CRITICAL: %v", err))
	}
	return id
}

func withIdentity(ctx context.Context, userID, sessionID uuid.UUID) context.Context {
	ctx = context.WithValue(ctx, UserIDKey, userID)
	ctx = context.WithValue(ctx, SessionIDKey, sessionID)
	return ctx
}
