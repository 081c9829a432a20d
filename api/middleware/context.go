package middleware

import (
	"context"

	"github.com/google/uuid"

	"github.com/sweetdelights/bakery-backend/internal/cart"
)

type contextKey string

const (
	ctxUserID       contextKey = "user_id"
	ctxRole         contextKey = "actor_role"
	ctxGuestSession contextKey = "guest_session"
)

func UserIDFromContext(ctx context.Context) string {
	if ctx == nil {
		return ""
	}
	if v, ok := ctx.Value(ctxUserID).(string); ok {
		return v
	}
	return ""
}

func RoleFromContext(ctx context.Context) string {
	if ctx == nil {
		return ""
	}
	if v, ok := ctx.Value(ctxRole).(string); ok {
		return v
	}
	return ""
}

func GuestSessionFromContext(ctx context.Context) string {
	if ctx == nil {
		return ""
	}
	if v, ok := ctx.Value(ctxGuestSession).(string); ok {
		return v
	}
	return ""
}

// ShopperFromContext assembles the cart identity seeded by the auth and guest
// session middleware. A malformed user id yields an anonymous shopper.
func ShopperFromContext(ctx context.Context) cart.Shopper {
	shopper := cart.Shopper{GuestID: GuestSessionFromContext(ctx)}
	if raw := UserIDFromContext(ctx); raw != "" {
		if id, err := uuid.Parse(raw); err == nil {
			shopper.UserID = id
		}
	}
	return shopper
}

// WithUserID injects the user identifier into the context.
func WithUserID(ctx context.Context, userID string) context.Context {
	if ctx == nil {
		ctx = context.Background()
	}
	return context.WithValue(ctx, ctxUserID, userID)
}

// WithRole injects the caller's application role.
func WithRole(ctx context.Context, role string) context.Context {
	if ctx == nil {
		ctx = context.Background()
	}
	return context.WithValue(ctx, ctxRole, role)
}

// WithGuestSession injects the anonymous cart session identifier.
func WithGuestSession(ctx context.Context, sessionID string) context.Context {
	if ctx == nil {
		ctx = context.Background()
	}
	return context.WithValue(ctx, ctxGuestSession, sessionID)
}
