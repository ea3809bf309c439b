package auth

// Package auth contains domain-level types for identity, sessions, and
// authorization. It is pure and free of framework/adapter concerns.

import "time"

// Role represents an application's authorization role.
// Keep string form for easy persistence and JSON transport.
// Valid values are defined as constants below.
type Role string

const (
	RoleOwner      Role = "owner"
	RoleDean       Role = "dean"
	RoleSupervisor Role = "supervisor"
	RoleHOD        Role = "hod"
	RoleTeacher    Role = "teacher"
	RoleStudent    Role = "student"
)

// Roles lists every valid role, in descending order of authority.
func Roles() []Role {
	return []Role{RoleOwner, RoleDean, RoleSupervisor, RoleHOD, RoleTeacher, RoleStudent}
}

// Valid reports whether r is one of the closed role enumeration.
func (r Role) Valid() bool {
	switch r {
	case RoleOwner, RoleDean, RoleSupervisor, RoleHOD, RoleTeacher, RoleStudent:
		return true
	default:
		return false
	}
}

// Session is the opaque credential bundle issued by the external identity
// provider: a bearer access token, its expiry, and the provider-level user id.
// It is never persisted by this core beyond a short-lived in-memory cache.
type Session struct {
	AccessToken  string    `json:"access_token"`
	RefreshToken string    `json:"refresh_token,omitempty"`
	UserID       string    `json:"user_id"`
	ExpiresAt    time.Time `json:"expires_at"`
}

// Expired reports whether the session's access token has passed its expiry
// at the given instant.
func (s Session) Expired(now time.Time) bool {
	return !s.ExpiresAt.IsZero() && now.After(s.ExpiresAt)
}

// Profile is the application-level user record keyed 1:1 by the identity
// provider's user id. Created externally when an account is provisioned;
// this core fetches it and mutates only the PasswordChanged flag.
type Profile struct {
	ID              string         `json:"id"`
	Role            Role           `json:"role"`
	FirstName       string         `json:"first_name"`
	LastName        string         `json:"last_name"`
	Email           string         `json:"email"`
	PasswordChanged bool           `json:"password_changed"`
	DisplayFields   map[string]any `json:"display_fields,omitempty"`
}

// MustResetPassword reports whether the mandatory one-time password-change
// flow still applies. The rule is student-only: staff accounts are
// provisioned with real credentials and never carry a temp password.
func (p Profile) MustResetPassword() bool {
	return p.Role == RoleStudent && !p.PasswordChanged
}

// CurrentUser is the derived, published view of the active profile.
// Loading is true from controller initialization until the first
// resolution (success, profile-absent, or no-session) completes.
type CurrentUser struct {
	Profile *Profile `json:"profile,omitempty"`
	Loading bool     `json:"loading"`
}

// IsAuthenticated reports whether a profile is present.
func (u CurrentUser) IsAuthenticated() bool { return u.Profile != nil }

// IsOwner reports whether the current user holds the owner role.
func (u CurrentUser) IsOwner() bool {
	return u.Profile != nil && u.Profile.Role == RoleOwner
}
