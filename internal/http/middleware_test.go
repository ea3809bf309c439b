package httpx

import (
	"context"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	domainauth "github.com/campusdesk/campusdesk/internal/domain/auth"
)

func get(t *testing.T, f *routerFixture, path string) *http.Response {
	t.Helper()
	resp, err := f.client.Get(f.srv.URL + path)
	require.NoError(t, err)
	_ = resp.Body.Close()
	return resp
}

func TestGuard_UnauthenticatedRedirectsToLoginWithPath(t *testing.T) {
	f := newRouterFixture(t, activeStudent())

	resp := get(t, f, "/dashboard")

	require.Equal(t, http.StatusFound, resp.StatusCode)
	assert.Equal(t, "/?redirect_uri=%2Fdashboard", resp.Header.Get("Location"))
}

func TestGuard_AuthenticatedRendersAllowedView(t *testing.T) {
	f := newRouterFixture(t, activeStudent())
	require.NoError(t, f.ctrl.Login(context.Background(), "amr", testPassword))

	resp := get(t, f, "/schedule")
	assert.Equal(t, http.StatusOK, resp.StatusCode)
}

func TestGuard_RoleRejectionRedirectsToLanding(t *testing.T) {
	f := newRouterFixture(t, activeStudent())
	require.NoError(t, f.ctrl.Login(context.Background(), "amr", testPassword))

	resp := get(t, f, "/settings")

	require.Equal(t, http.StatusFound, resp.StatusCode)
	assert.Equal(t, "/dashboard", resp.Header.Get("Location"))
}

func TestGuard_PendingResetRedirectsEverywhere(t *testing.T) {
	pending := activeStudent()
	pending.PasswordChanged = false
	f := newRouterFixture(t, pending)
	require.NoError(t, f.ctrl.Login(context.Background(), "amr", testPassword))

	for _, path := range []string{"/dashboard", "/schedule", "/attendance"} {
		resp := get(t, f, path)
		require.Equal(t, http.StatusFound, resp.StatusCode, path)
		assert.Equal(t, "/reset-password", resp.Header.Get("Location"), path)
	}

	resp := get(t, f, "/reset-password")
	assert.Equal(t, http.StatusOK, resp.StatusCode)
}

func TestGuard_PublicOnlyBouncesAuthenticatedUser(t *testing.T) {
	f := newRouterFixture(t, activeStudent())
	require.NoError(t, f.ctrl.Login(context.Background(), "amr", testPassword))

	resp := get(t, f, "/")

	require.Equal(t, http.StatusFound, resp.StatusCode)
	assert.Equal(t, "/dashboard", resp.Header.Get("Location"))
}

func TestGuard_PublicOnlyResumesRequestedPath(t *testing.T) {
	f := newRouterFixture(t, activeStudent())
	require.NoError(t, f.ctrl.Login(context.Background(), "amr", testPassword))

	resp := get(t, f, "/?redirect_uri=%2Fattendance")

	require.Equal(t, http.StatusFound, resp.StatusCode)
	assert.Equal(t, "/attendance", resp.Header.Get("Location"))
}

func TestGuard_PublicOnlyRendersForAnonymous(t *testing.T) {
	f := newRouterFixture(t, activeStudent())

	resp := get(t, f, "/")
	assert.Equal(t, http.StatusOK, resp.StatusCode)
}

func TestGuard_LogoutTakesEffectImmediately(t *testing.T) {
	f := newRouterFixture(t, activeStudent())
	require.NoError(t, f.ctrl.Login(context.Background(), "amr", testPassword))
	require.NoError(t, f.ctrl.Logout(context.Background()))

	resp := get(t, f, "/dashboard")

	require.Equal(t, http.StatusFound, resp.StatusCode)
	assert.Equal(t, "/?redirect_uri=%2Fdashboard", resp.Header.Get("Location"))
}

func TestUserFromContext_ZeroWithoutGuard(t *testing.T) {
	user := UserFromContext(context.Background())
	assert.Nil(t, user.Profile)
	assert.False(t, user.Loading)
}

func TestWithUserRoundTrip(t *testing.T) {
	want := domainauth.CurrentUser{Profile: &domainauth.Profile{ID: "p1", Role: domainauth.RoleDean}}
	ctx := withUser(context.Background(), want)
	assert.Equal(t, want, UserFromContext(ctx))
}
