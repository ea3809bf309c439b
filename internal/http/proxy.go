package httpx

import (
	"errors"
	"log/slog"
	"net/http"
	"net/http/httputil"
	"net/url"
)

// NewDataProxy forwards browser calls under /api to the scheduling data API.
// The transport attaches the cached bearer token, so the backend sees each
// request authenticated as the signed-in user.
func NewDataProxy(target *url.URL, transport http.RoundTripper, logger *slog.Logger) http.Handler {
	return &httputil.ReverseProxy{
		Rewrite: func(r *httputil.ProxyRequest) {
			r.SetURL(target)
			r.SetXForwarded()
		},
		Transport: transport,
		ErrorHandler: func(w http.ResponseWriter, r *http.Request, err error) {
			logger.ErrorContext(r.Context(), "data api unreachable",
				"error", err, "path", r.URL.Path)
			WriteError(w, ErrorParams{
				Code:    http.StatusBadGateway,
				ErrCode: "bad_gateway",
				Err:     errors.New("data api unreachable"),
			})
		},
	}
}
