package tokencache

import (
	"log/slog"
	"net/http"
)

// Transport is an http.RoundTripper that attaches the cached bearer token to
// every outgoing request. When no session is available the request goes out
// unauthenticated; the backend decides what anonymous callers may see.
type Transport struct {
	// Cache supplies the current session. Required.
	Cache *Cache

	// Base is the underlying round tripper. Defaults to http.DefaultTransport.
	Base http.RoundTripper

	// Logger reports cache failures. Defaults to slog.Default().
	Logger *slog.Logger
}

// RoundTrip implements http.RoundTripper. Per the RoundTripper contract the
// original request is never mutated; headers are set on a shallow clone.
func (t *Transport) RoundTrip(req *http.Request) (*http.Response, error) {
	sess, err := t.Cache.ValidSession(req.Context())
	if err != nil {
		// Degrade to an unauthenticated request rather than failing the
		// call; the identity provider's own timeout already bounded us.
		t.logger().WarnContext(req.Context(), "session lookup failed, sending unauthenticated",
			"error", err, "host", req.URL.Host)
		sess = nil
	}

	if sess != nil && sess.AccessToken != "" {
		req = req.Clone(req.Context())
		req.Header.Set("Authorization", "Bearer "+sess.AccessToken)
	}

	return t.base().RoundTrip(req)
}

func (t *Transport) base() http.RoundTripper {
	if t.Base != nil {
		return t.Base
	}
	return http.DefaultTransport
}

func (t *Transport) logger() *slog.Logger {
	if t.Logger != nil {
		return t.Logger
	}
	return slog.Default()
}
