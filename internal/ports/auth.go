package ports

// Package ports defines interfaces (hexagonal ports) for auth-related behavior.
// Implementations live in internal/adapters; orchestration in internal/service.

import (
	"context"

	domainauth "github.com/campusdesk/campusdesk/internal/domain/auth"
)

// SessionChange is a notification from the identity provider's event stream.
// Session is nil when the notification reports a sign-out or expiry.
type SessionChange struct {
	Session *domainauth.Session
}

// Unsubscribe releases a session-change subscription. Safe to call more
// than once.
type Unsubscribe func()

// OAuthInput carries inputs for initiating an external OAuth redirect.
type OAuthInput struct {
	// Provider is the external OAuth provider name (e.g. "google").
	Provider string
	// RedirectTo is the callback target, normally the application's own origin.
	RedirectTo string
}

// IdentityProvider is the external identity service this core consumes.
// It owns credential checks, token issuance, and transparent refresh.
type IdentityProvider interface {
	// CurrentSession returns the provider's current session, or nil when
	// no user is signed in.
	CurrentSession(ctx context.Context) (*domainauth.Session, error)

	// SessionChanges subscribes to the provider's session lifecycle events
	// (login, logout, token refresh). Events are delivered in occurrence
	// order. The returned Unsubscribe must be called to release the
	// subscription.
	SessionChanges(buffer int) (<-chan SessionChange, Unsubscribe)

	// SignInWithPassword checks credentials against the provider. A
	// rejected credential is returned as a credential-class error whose
	// message is suitable for inline display.
	SignInWithPassword(ctx context.Context, email, password string) (*domainauth.Session, error)

	// SignInWithOAuth begins an external OAuth flow and returns the
	// provider authorization URL to redirect the browser to.
	SignInWithOAuth(ctx context.Context, in OAuthInput) (string, error)

	// SignOut invalidates the provider session.
	SignOut(ctx context.Context) error

	// UpdateCredential replaces the signed-in user's password.
	UpdateCredential(ctx context.Context, newPassword string) error
}

// ProfileStore fetches and updates application-level user profiles keyed by
// identity user id.
type ProfileStore interface {
	// GetByIdentityID looks up exactly one profile row. A missing row is a
	// valid absent result and returns (nil, nil), since a freshly
	// provisioned identity may not have a linked profile yet.
	GetByIdentityID(ctx context.Context, identityUserID string) (*domainauth.Profile, error)

	// SetPasswordChanged marks the profile's forced password change as
	// completed. Called at most once per profile.
	SetPasswordChanged(ctx context.Context, identityUserID string) error
}

// LoginLimiter throttles password login attempts per normalized identifier.
type LoginLimiter interface {
	// Allow reports whether another attempt for key is permitted within
	// the current window.
	Allow(ctx context.Context, key string) (bool, error)
}
