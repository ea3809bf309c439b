package httpx

import (
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	domainauth "github.com/campusdesk/campusdesk/internal/domain/auth"
	apperrors "github.com/campusdesk/campusdesk/internal/errors"
	"github.com/campusdesk/campusdesk/internal/guard"
	mockauth "github.com/campusdesk/campusdesk/internal/mocks/auth"
	"github.com/campusdesk/campusdesk/internal/ports"
	"github.com/campusdesk/campusdesk/internal/service"
)

const testPassword = "correct-horse"

func quietLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

type routerFixture struct {
	idp      *mockauth.ScriptedIdentityProvider
	profiles *mockauth.MemoryProfileStore
	ctrl     *service.SessionController
	srv      *httptest.Server
	client   *http.Client
}

func newRouterFixture(t *testing.T, profile *domainauth.Profile) *routerFixture {
	t.Helper()

	session := domainauth.Session{
		AccessToken: "token-abc",
		UserID:      profile.ID,
		ExpiresAt:   time.Now().Add(time.Hour),
	}

	f := &routerFixture{
		idp:      mockauth.NewScriptedIdentityProvider(testPassword, session),
		profiles: mockauth.NewMemoryProfileStore(profile),
	}

	ctrl, err := service.NewSessionController(service.SessionControllerOptions{
		Identity:    f.idp,
		Profiles:    f.profiles,
		EmailDomain: "college.edu",
		Logger:      quietLogger(),
	})
	require.NoError(t, err)
	t.Cleanup(ctrl.Close)
	f.ctrl = ctrl

	require.Eventually(t, func() bool {
		return !ctrl.CurrentUser().Loading
	}, 2*time.Second, 5*time.Millisecond)

	handler := NewRouter(RouterServices{
		Sessions: ctrl,
		Guard:    guard.NewTable(guard.DefaultRoutes(), guard.TableOptions{}),
		Logger:   quietLogger(),
	})

	f.srv = httptest.NewServer(handler)
	t.Cleanup(f.srv.Close)

	f.client = &http.Client{
		CheckRedirect: func(*http.Request, []*http.Request) error {
			return http.ErrUseLastResponse
		},
	}
	return f
}

func activeStudent() *domainauth.Profile {
	return &domainauth.Profile{
		ID:              "student-1",
		Role:            domainauth.RoleStudent,
		FirstName:       "Amr",
		Email:           "amr@college.edu",
		PasswordChanged: true,
	}
}

func (f *routerFixture) postJSON(t *testing.T, path, body string) *http.Response {
	t.Helper()
	resp, err := f.client.Post(f.srv.URL+path, "application/json", strings.NewReader(body))
	require.NoError(t, err)
	return resp
}

func decodeBody(t *testing.T, resp *http.Response) map[string]any {
	t.Helper()
	defer func() { _ = resp.Body.Close() }()
	var out map[string]any
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&out))
	return out
}

func TestLoginHandler_Success(t *testing.T) {
	f := newRouterFixture(t, activeStudent())

	resp := f.postJSON(t, "/auth/login", `{"identifier":"Amr","password":"correct-horse"}`)
	require.Equal(t, http.StatusOK, resp.StatusCode)

	body := decodeBody(t, resp)
	profile, ok := body["profile"].(map[string]any)
	require.True(t, ok)
	assert.Equal(t, "student-1", profile["id"])
	assert.Equal(t, "student", profile["role"])
}

func TestLoginHandler_RejectedCredentialShowsMessage(t *testing.T) {
	f := newRouterFixture(t, activeStudent())

	resp := f.postJSON(t, "/auth/login", `{"identifier":"amr","password":"wrong"}`)
	require.Equal(t, http.StatusUnauthorized, resp.StatusCode)

	body := decodeBody(t, resp)
	assert.Equal(t, "credential", body["error"])
	assert.Equal(t, "Invalid login credentials", body["message"])
}

func TestLoginHandler_InvalidJSON(t *testing.T) {
	f := newRouterFixture(t, activeStudent())

	resp := f.postJSON(t, "/auth/login", `{nope`)
	require.Equal(t, http.StatusBadRequest, resp.StatusCode)
	_ = resp.Body.Close()
}

func TestSessionHandler_ReportsState(t *testing.T) {
	f := newRouterFixture(t, activeStudent())

	resp, err := f.client.Get(f.srv.URL + "/auth/session")
	require.NoError(t, err)
	require.Equal(t, http.StatusOK, resp.StatusCode)

	body := decodeBody(t, resp)
	assert.Equal(t, false, body["loading"])
	_, authed := body["profile"]
	assert.False(t, authed)
}

func TestLogoutHandler_ClearsState(t *testing.T) {
	f := newRouterFixture(t, activeStudent())
	require.NoError(t, f.ctrl.Login(context.Background(), "amr", testPassword))

	resp := f.postJSON(t, "/auth/logout", `{}`)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	_ = resp.Body.Close()

	assert.False(t, f.ctrl.CurrentUser().IsAuthenticated())
}

func TestChangePasswordHandler_RejectsShortPassword(t *testing.T) {
	f := newRouterFixture(t, activeStudent())

	resp := f.postJSON(t, "/auth/password", `{"password":"short"}`)
	require.Equal(t, http.StatusBadRequest, resp.StatusCode)
	_ = resp.Body.Close()
}

func TestChangePasswordHandler_FlipsResetFlag(t *testing.T) {
	pending := activeStudent()
	pending.PasswordChanged = false
	f := newRouterFixture(t, pending)

	require.NoError(t, f.ctrl.Login(context.Background(), "amr", testPassword))
	require.True(t, f.ctrl.CurrentUser().Profile.MustResetPassword())

	resp := f.postJSON(t, "/auth/password", `{"password":"much-longer-password"}`)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	_ = resp.Body.Close()

	assert.False(t, f.ctrl.CurrentUser().Profile.MustResetPassword())
}

func TestGoogleHandler_RedirectsToProvider(t *testing.T) {
	f := newRouterFixture(t, activeStudent())

	resp, err := f.client.Get(f.srv.URL + "/auth/google")
	require.NoError(t, err)
	_ = resp.Body.Close()

	require.Equal(t, http.StatusFound, resp.StatusCode)
	assert.Contains(t, resp.Header.Get("Location"), "mock-idp")
}

func TestGoogleHandler_FailureFallsBackToLogin(t *testing.T) {
	f := newRouterFixture(t, activeStudent())
	f.idp.SignInWithOAuthFunc = func(context.Context, ports.OAuthInput) (string, error) {
		return "", apperrors.OAuthRedirect(assert.AnError, "begin oauth flow")
	}

	resp, err := f.client.Get(f.srv.URL + "/auth/google")
	require.NoError(t, err)
	_ = resp.Body.Close()

	require.Equal(t, http.StatusFound, resp.StatusCode)
	assert.Equal(t, "/", resp.Header.Get("Location"))
}
