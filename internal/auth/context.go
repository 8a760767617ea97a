package auth

import (
	"context"

	"github.com/catalogapp/catalog-server/internal/domain"
)

type ctxKey struct{}

// WithUser returns a context carrying the authenticated user.
func WithUser(ctx context.Context, u *domain.User) context.Context {
	return context.WithValue(ctx, ctxKey{}, u)
}

// UserFromContext returns the authenticated user, if any.
func UserFromContext(ctx context.Context) (*domain.User, bool) {
	u, ok := ctx.Value(ctxKey{}).(*domain.User)
	return u, ok && u != nil
}

// Cookie names shared by the login handler, the authenticate stage and the
// page renderer.
const (
	SessionCookie  = "session"
	UserDataCookie = "user-data"
)
