package httpx

// Package httpx is the HTTP edge: the auth API consumed by the browser shell
// and the guarded view routes that serve it.

import (
	"fmt"
	"html"
	"log/slog"
	"net/http"

	"github.com/campusdesk/campusdesk/internal/guard"
	"github.com/campusdesk/campusdesk/internal/service"
)

// RouterServices holds everything the HTTP router needs.
type RouterServices struct {
	Sessions *service.SessionController
	Guard    *guard.Table
	// DataProxy forwards /api/* to the scheduling data API. Optional; when
	// nil the server runs without a data backend.
	DataProxy http.Handler
	Logger    *slog.Logger
}

// NewRouter creates and configures the HTTP router: the /auth API plus every
// view route from the guard table, each wrapped in its access middleware.
func NewRouter(services RouterServices) http.Handler {
	logger := services.Logger
	if logger == nil {
		logger = slog.Default()
	}

	mux := http.NewServeMux()

	authHandlers := &AuthHandlers{Sessions: services.Sessions, Logger: logger}
	mux.HandleFunc("POST /auth/login", authHandlers.Login)
	mux.HandleFunc("GET /auth/google", authHandlers.LoginWithGoogle)
	mux.HandleFunc("POST /auth/logout", authHandlers.Logout)
	mux.HandleFunc("POST /auth/password", authHandlers.ChangePassword)
	mux.HandleFunc("GET /auth/session", authHandlers.Session)

	mux.HandleFunc("GET /healthz", func(w http.ResponseWriter, _ *http.Request) {
		WriteJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	})

	if services.DataProxy != nil {
		mux.Handle("/api/", http.StripPrefix("/api", services.DataProxy))
	}

	for _, route := range services.Guard.Routes() {
		view := viewHandler(route.Path)
		var wrapped http.Handler
		if route.RequiresAuth {
			wrapped = Protected(services.Guard, route, services.Sessions)(view)
		} else {
			wrapped = PublicOnly(services.Guard, services.Sessions)(view)
		}
		if route.Path == "/" {
			// "GET /" in the 1.22 mux would swallow every unregistered path.
			mux.Handle("GET /{$}", wrapped)
			continue
		}
		mux.Handle("GET "+route.Path, wrapped)
	}

	var handler http.Handler = mux
	handler = Logging(logger)(handler)
	handler = Recover(logger)(handler)
	return handler
}

// viewHandler serves the shell for a view route. The browser application
// takes over from here; which view it mounts is already settled by the guard.
func viewHandler(path string) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "text/html; charset=utf-8")
		fmt.Fprintf(w, `<!doctype html><html><head><title>CampusDesk</title></head><body><div id="app" data-view=%q></div></body></html>`,
			html.EscapeString(path))
	})
}
