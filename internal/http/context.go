package httpx

import (
	"context"

	domainauth "github.com/campusdesk/campusdesk/internal/domain/auth"
)

type contextKey string

const userContextKey contextKey = "current_user"

// withUser stores the current user snapshot in the request context.
func withUser(ctx context.Context, user domainauth.CurrentUser) context.Context {
	return context.WithValue(ctx, userContextKey, user)
}

// UserFromContext retrieves the current user snapshot placed by the guard
// middleware. The zero value means no guard ran for this request.
func UserFromContext(ctx context.Context) domainauth.CurrentUser {
	user, _ := ctx.Value(userContextKey).(domainauth.CurrentUser)
	return user
}
