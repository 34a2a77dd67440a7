package auth

import (
	"context"

	"github.com/hongminglow/finance-dashboard-be/internal/models"
)

type ctxKey string

const currentUserKey ctxKey = "currentUser"

// WithUser returns a copy of ctx carrying the authenticated user.
func WithUser(ctx context.Context, u models.User) context.Context {
	return context.WithValue(ctx, currentUserKey, u)
}

// UserFromContext returns the authenticated user and whether one was set.
func UserFromContext(ctx context.Context) (models.User, bool) {
	u, ok := ctx.Value(currentUserKey).(models.User)
	return u, ok
}
