package config

import "strings"

// HTTPConfig contains HTTP server configuration.
type HTTPConfig struct {
	// Addr is the address to bind the HTTP server to.
	Addr string `env:"HTTP_ADDR" envDefault:":8080"`

	// BaseURL is the base URL of the application (e.g., "https://app.college.edu").
	// Used as the OAuth redirect target for social login.
	BaseURL string `env:"APP_BASE_URL" envDefault:"http://localhost:8080"`

	// DataAPIURL is the base URL of the scheduling data API. When set, the
	// server proxies /api/* there with the cached bearer token attached.
	// Leave empty to run without a data backend.
	DataAPIURL string `env:"DATA_API_URL" envDefault:""`
}

// GuardConfig holds the redirect targets the route guard decides between.
type GuardConfig struct {
	// LoginPath is the public entry view unauthenticated users are sent to.
	LoginPath string `env:"GUARD_LOGIN_PATH" envDefault:"/"`

	// LandingPath is the default authenticated landing view.
	LandingPath string `env:"GUARD_LANDING_PATH" envDefault:"/dashboard"`

	// ResetPath is the forced password-reset view.
	ResetPath string `env:"GUARD_RESET_PATH" envDefault:"/reset-password"`
}

// Sanitize applies guardrails to guard configuration values.
func (g *GuardConfig) Sanitize() {
	g.LoginPath = sanitizePath(g.LoginPath, "/")
	g.LandingPath = sanitizePath(g.LandingPath, "/dashboard")
	g.ResetPath = sanitizePath(g.ResetPath, "/reset-password")
}

// sanitizePath keeps guard targets as absolute in-app paths.
func sanitizePath(p, fallback string) string {
	p = strings.TrimSpace(p)
	if p == "" || !strings.HasPrefix(p, "/") {
		return fallback
	}
	return p
}
