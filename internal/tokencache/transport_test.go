package tokencache

import (
	"context"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/campusdesk/campusdesk/internal/clock"
	domainauth "github.com/campusdesk/campusdesk/internal/domain/auth"
	mockauth "github.com/campusdesk/campusdesk/internal/mocks/auth"
)

func TestRoundTrip_AttachesBearerToken(t *testing.T) {
	base := time.Date(2026, 2, 1, 9, 0, 0, 0, time.UTC)
	idp := mockauth.NewScriptedIdentityProvider("pw", domainauth.Session{})
	sess := testSession(base.Add(time.Hour))
	idp.SetSession(&sess)

	var gotAuth string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotAuth = r.Header.Get("Authorization")
		w.WriteHeader(http.StatusOK)
	}))
	defer srv.Close()

	client := &http.Client{Transport: &Transport{
		Cache: New(idp, Options{Clock: clock.NewFixedClock(base)}),
	}}

	resp, err := client.Get(srv.URL)
	require.NoError(t, err)
	_ = resp.Body.Close()

	assert.Equal(t, "Bearer token-abc", gotAuth)
}

func TestRoundTrip_NoSessionSendsUnauthenticated(t *testing.T) {
	idp := mockauth.NewScriptedIdentityProvider("pw", domainauth.Session{})

	var gotAuth string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotAuth = r.Header.Get("Authorization")
		w.WriteHeader(http.StatusOK)
	}))
	defer srv.Close()

	client := &http.Client{Transport: &Transport{Cache: New(idp, Options{})}}

	resp, err := client.Get(srv.URL)
	require.NoError(t, err)
	_ = resp.Body.Close()

	assert.Empty(t, gotAuth)
}

func TestRoundTrip_CacheErrorDegradesToUnauthenticated(t *testing.T) {
	idp := mockauth.NewScriptedIdentityProvider("pw", domainauth.Session{})
	idp.CurrentSessionFunc = func(context.Context) (*domainauth.Session, error) {
		return nil, assert.AnError
	}

	var gotAuth string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotAuth = r.Header.Get("Authorization")
		w.WriteHeader(http.StatusOK)
	}))
	defer srv.Close()

	client := &http.Client{Transport: &Transport{
		Cache:  New(idp, Options{}),
		Logger: slog.New(slog.NewTextHandler(io.Discard, nil)),
	}}

	// The request still succeeds; it just goes out without a token.
	resp, err := client.Get(srv.URL)
	require.NoError(t, err)
	_ = resp.Body.Close()

	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Empty(t, gotAuth)
}

func TestRoundTrip_DoesNotMutateOriginalRequest(t *testing.T) {
	base := time.Date(2026, 2, 1, 9, 0, 0, 0, time.UTC)
	idp := mockauth.NewScriptedIdentityProvider("pw", domainauth.Session{})
	sess := testSession(base.Add(time.Hour))
	idp.SetSession(&sess)

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))
	defer srv.Close()

	tr := &Transport{Cache: New(idp, Options{Clock: clock.NewFixedClock(base)})}

	req, err := http.NewRequest(http.MethodGet, srv.URL, nil)
	require.NoError(t, err)

	resp, err := tr.RoundTrip(req)
	require.NoError(t, err)
	_ = resp.Body.Close()

	assert.Empty(t, req.Header.Get("Authorization"))
}
