package config

import "time"

// IdentityConfig points at the hosted identity service that owns credential
// checks, token issuance, and refresh.
type IdentityConfig struct {
	// URL is the base URL of the identity service (e.g. "https://id.college.edu").
	URL string `env:"URL"`

	// APIKey is the public (anon) API key sent with every identity request.
	APIKey string `env:"API_KEY"`
}

// GoogleOAuthConfig contains the external Google OAuth client used for
// social login. Discovery runs against the standard Google issuer.
type GoogleOAuthConfig struct {
	ClientID     string `env:"CLIENT_ID"`
	ClientSecret string `env:"CLIENT_SECRET"`
	DiscoveryURL string `env:"DISCOVERY_URL" envDefault:"https://accounts.google.com"`
}

// ThrottleConfig bounds password login attempts per identifier.
type ThrottleConfig struct {
	// MaxAttempts is the number of attempts allowed per window.
	MaxAttempts int `env:"MAX_ATTEMPTS" envDefault:"10"`
	// Window is the fixed throttle window.
	Window time.Duration `env:"WINDOW" envDefault:"5m"`
}

// AuthConfig groups all authentication-related configuration.
type AuthConfig struct {
	// Identity service configuration.
	Identity IdentityConfig `envPrefix:"IDENTITY_"`

	// Google OAuth configuration for social login.
	Google GoogleOAuthConfig `envPrefix:"GOOGLE_"`

	// Throttle configuration for password login attempts.
	Throttle ThrottleConfig `envPrefix:"LOGIN_THROTTLE_"`

	// EmailDomain is appended to bare usernames at login
	// ("amr" -> "amr@college.edu").
	EmailDomain string `env:"EMAIL_DOMAIN" envDefault:"college.edu"`

	// SessionCacheTTL is the staleness bound for the outbound-request
	// session cache. Entries older than this are refetched before use.
	SessionCacheTTL time.Duration `env:"SESSION_CACHE_TTL" envDefault:"10s"`

	// DisplayFields maps profile view field names to JMESPath expressions
	// evaluated against the profile metadata column
	// (e.g. "department:academic.department;batch:enrollment.batch").
	DisplayFields map[string]string `env:"PROFILE_DISPLAY_FIELDS" envSeparator:";" envKeyValSeparator:":"`
}

// Sanitize applies guardrails to auth configuration values.
func (a *AuthConfig) Sanitize() {
	if a.SessionCacheTTL <= 0 {
		a.SessionCacheTTL = 10 * time.Second
	}
	if a.Throttle.MaxAttempts <= 0 {
		a.Throttle.MaxAttempts = 10
	}
	if a.Throttle.Window <= 0 {
		a.Throttle.Window = 5 * time.Minute
	}
}
