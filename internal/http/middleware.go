package httpx

import (
	"log/slog"
	"net/http"
	"runtime/debug"
	"time"

	domainauth "github.com/campusdesk/campusdesk/internal/domain/auth"
	"github.com/campusdesk/campusdesk/internal/guard"
)

// Logging returns a middleware that logs HTTP requests and responses.
func Logging(logger *slog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()
			const defaultHTTPStatus = 200
			ww := &respWriter{ResponseWriter: w, status: defaultHTTPStatus}
			next.ServeHTTP(ww, r)
			logger.Info("http",
				slog.String("method", r.Method),
				slog.String("path", r.URL.Path),
				slog.Int("status", ww.status),
				slog.Duration("duration", time.Since(start)),
			)
		})
	}
}

type respWriter struct {
	http.ResponseWriter
	status int
}

func (w *respWriter) WriteHeader(status int) {
	w.status = status
	w.ResponseWriter.WriteHeader(status)
}

// Recover returns a middleware that recovers from panics and logs them.
func Recover(logger *slog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			defer func() {
				if err := recover(); err != nil {
					logger.Error("panic",
						slog.Any("error", err),
						slog.String("path", r.URL.Path),
						slog.String("method", r.Method),
						slog.String("stack", string(debug.Stack())))
					http.Error(w, "Internal Server Error", http.StatusInternalServerError)
				}
			}()
			next.ServeHTTP(w, r)
		})
	}
}

// SessionSource supplies the guard middleware with the published auth state.
type SessionSource interface {
	CurrentUser() domainauth.CurrentUser
}

// Protected returns a middleware that enforces the guard decision for a
// protected route. While the initial session resolution is still in flight
// the shell is served without a redirect; the client settles the final view
// once the session endpoint answers.
func Protected(table *guard.Table, route guard.Route, sessions SessionSource) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			user := sessions.CurrentUser()
			if user.Loading {
				next.ServeHTTP(w, r.WithContext(withUser(r.Context(), user)))
				return
			}

			decision := table.Evaluate(route, user)
			if decision.Action == guard.Redirect {
				http.Redirect(w, r, decision.Location, http.StatusFound)
				return
			}
			next.ServeHTTP(w, r.WithContext(withUser(r.Context(), user)))
		})
	}
}

// PublicOnly returns a middleware for entry views that signed-in users are
// bounced away from.
func PublicOnly(table *guard.Table, sessions SessionSource) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			user := sessions.CurrentUser()
			if !user.Loading {
				decision := table.EvaluatePublic(user, r.URL.Query().Get("redirect_uri"))
				if decision.Action == guard.Redirect {
					http.Redirect(w, r, decision.Location, http.StatusFound)
					return
				}
			}
			next.ServeHTTP(w, r.WithContext(withUser(r.Context(), user)))
		})
	}
}
