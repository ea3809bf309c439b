package guard

// Package guard holds the route access decision engine. Decisions are pure
// functions of (route, current user); enforcement lives in the HTTP layer.

import (
	"net/url"
	"strings"

	domainauth "github.com/campusdesk/campusdesk/internal/domain/auth"
)

// Action says what to do with a navigation attempt.
type Action int

const (
	// Render serves the requested view.
	Render Action = iota
	// Redirect sends the browser to Decision.Location instead.
	Redirect
)

// Decision is the outcome of evaluating a navigation attempt.
type Decision struct {
	Action Action
	// Location is the redirect target when Action is Redirect.
	Location string
}

func render() Decision { return Decision{Action: Render} }

func redirect(location string) Decision {
	return Decision{Action: Redirect, Location: location}
}

// Route describes one guarded view.
type Route struct {
	// Path is the route's canonical path.
	Path string
	// AllowedRoles lists the roles that may enter. Empty with RequiresAuth
	// means any authenticated role.
	AllowedRoles []domainauth.Role
	// RequiresAuth marks the route as needing a signed-in user. Routes with
	// RequiresAuth false are public-only entry views (login) that signed-in
	// users are bounced away from.
	RequiresAuth bool
}

// allows reports whether role may enter the route.
func (r Route) allows(role domainauth.Role) bool {
	if len(r.AllowedRoles) == 0 {
		return true
	}
	for _, allowed := range r.AllowedRoles {
		if allowed == role {
			return true
		}
	}
	return false
}

// Table evaluates navigation attempts against configured redirect targets.
type Table struct {
	loginPath   string
	landingPath string
	resetPath   string
	routes      map[string]Route
}

// TableOptions configures the guard's redirect targets.
type TableOptions struct {
	// LoginPath is where unauthenticated users are sent. Defaults to "/".
	LoginPath string
	// LandingPath is where role-rejected users are sent. Defaults to "/dashboard".
	LandingPath string
	// ResetPath is the forced password-change view. Defaults to "/reset-password".
	ResetPath string
}

// NewTable builds a guard table over the given routes.
func NewTable(routes []Route, opts TableOptions) *Table {
	t := &Table{
		loginPath:   opts.LoginPath,
		landingPath: opts.LandingPath,
		resetPath:   opts.ResetPath,
		routes:      make(map[string]Route, len(routes)),
	}
	if t.loginPath == "" {
		t.loginPath = "/"
	}
	if t.landingPath == "" {
		t.landingPath = "/dashboard"
	}
	if t.resetPath == "" {
		t.resetPath = "/reset-password"
	}
	for _, r := range routes {
		t.routes[r.Path] = r
	}
	return t
}

// Lookup returns the route registered for path.
func (t *Table) Lookup(path string) (Route, bool) {
	r, ok := t.routes[path]
	return r, ok
}

// Routes returns every registered route.
func (t *Table) Routes() []Route {
	out := make([]Route, 0, len(t.routes))
	for _, r := range t.routes {
		out = append(out, r)
	}
	return out
}

// Evaluate decides a navigation attempt against a protected route. The rules
// apply in strict order:
//
//  1. No authenticated user: redirect to the login view, carrying the
//     requested path so it can be resumed after login.
//  2. A student who has not completed the forced password change: redirect
//     to the reset view. This outranks role checks; such a student cannot
//     reach any other view, including ones their role allows.
//  3. Role not in the route's allowed set: redirect to the default landing
//     view, not an error page.
//  4. Otherwise: render.
func (t *Table) Evaluate(route Route, user domainauth.CurrentUser) Decision {
	if !user.IsAuthenticated() {
		return redirect(t.loginRedirect(route.Path))
	}

	profile := user.Profile
	if profile.MustResetPassword() && route.Path != t.resetPath {
		return redirect(t.resetPath)
	}

	if !route.allows(profile.Role) {
		return redirect(t.landingPath)
	}

	return render()
}

// EvaluatePublic decides a navigation attempt against a public-only route
// (the login view). A signed-in user is bounced to the path they originally
// asked for, falling back to the landing view, or to the reset view when the
// forced password change is still pending.
func (t *Table) EvaluatePublic(user domainauth.CurrentUser, requested string) Decision {
	if !user.IsAuthenticated() {
		return render()
	}
	if user.Profile.MustResetPassword() {
		return redirect(t.resetPath)
	}
	if target := safeInternalPath(requested); target != "" {
		return redirect(target)
	}
	return redirect(t.landingPath)
}

// safeInternalPath accepts only absolute in-app paths, so a crafted
// redirect_uri can never send the browser off-site.
func safeInternalPath(p string) string {
	if !strings.HasPrefix(p, "/") || strings.HasPrefix(p, "//") {
		return ""
	}
	return p
}

// loginRedirect builds the login redirect carrying the originally requested
// path, so navigation can resume there after login.
func (t *Table) loginRedirect(requested string) string {
	if requested == "" || requested == t.loginPath {
		return t.loginPath
	}
	q := url.Values{"redirect_uri": {requested}}
	return t.loginPath + "?" + q.Encode()
}

// DefaultRoutes is the application's route table. Staff roles cover
// everything except student self-service views; students see their own
// schedule and attendance plus the reset view.
func DefaultRoutes() []Route {
	staff := []domainauth.Role{
		domainauth.RoleOwner, domainauth.RoleDean, domainauth.RoleSupervisor,
		domainauth.RoleHOD, domainauth.RoleTeacher,
	}
	everyone := append(append([]domainauth.Role{}, staff...), domainauth.RoleStudent)

	return []Route{
		{Path: "/", RequiresAuth: false},
		{Path: "/dashboard", AllowedRoles: everyone, RequiresAuth: true},
		{Path: "/schedule", AllowedRoles: everyone, RequiresAuth: true},
		{Path: "/attendance", AllowedRoles: everyone, RequiresAuth: true},
		{Path: "/students", AllowedRoles: staff, RequiresAuth: true},
		{Path: "/staff", AllowedRoles: []domainauth.Role{
			domainauth.RoleOwner, domainauth.RoleDean, domainauth.RoleSupervisor,
		}, RequiresAuth: true},
		{Path: "/settings", AllowedRoles: []domainauth.Role{domainauth.RoleOwner}, RequiresAuth: true},
		{Path: "/reset-password", AllowedRoles: []domainauth.Role{domainauth.RoleStudent}, RequiresAuth: true},
	}
}
