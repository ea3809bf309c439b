package bootstrap

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"net/url"
	"time"

	"github.com/campusdesk/campusdesk/config"
	"github.com/campusdesk/campusdesk/internal/guard"
	httpx "github.com/campusdesk/campusdesk/internal/http"
	"github.com/campusdesk/campusdesk/internal/service"
)

// HTTPServerConfig contains configuration for the HTTP server.
type HTTPServerConfig struct {
	Config   *config.AppConfig
	Sessions *service.SessionController
	// Outbound carries the bearer-attaching transport for the data proxy.
	// Optional; without it /api is not served.
	Outbound *http.Client
	Logger   *slog.Logger
}

// StartHTTPServer creates and starts the HTTP server.
// Returns the server instance for graceful shutdown.
func StartHTTPServer(cfg *HTTPServerConfig) *http.Server {
	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}
	appCfg := cfg.Config

	table := guard.NewTable(guard.DefaultRoutes(), guard.TableOptions{
		LoginPath:   appCfg.Guard.LoginPath,
		LandingPath: appCfg.Guard.LandingPath,
		ResetPath:   appCfg.Guard.ResetPath,
	})

	var dataProxy http.Handler
	if appCfg.HTTP.DataAPIURL != "" && cfg.Outbound != nil {
		target, err := url.Parse(appCfg.HTTP.DataAPIURL)
		if err != nil {
			logger.Error("invalid data api url, /api disabled", "error", err)
		} else {
			dataProxy = httpx.NewDataProxy(target, cfg.Outbound.Transport, logger)
		}
	}

	handler := httpx.NewRouter(httpx.RouterServices{
		Sessions:  cfg.Sessions,
		Guard:     table,
		DataProxy: dataProxy,
		Logger:    logger,
	})

	srv := &http.Server{
		Addr:              appCfg.HTTP.Addr,
		Handler:           handler,
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		logger.Info("http server listening", "addr", srv.Addr)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Error("http server failed", "error", err)
		}
	}()

	return srv
}

// ShutdownHTTPServer gracefully shuts down the HTTP server.
func ShutdownHTTPServer(ctx context.Context, srv *http.Server) error {
	shutdownCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("shutdown http server: %w", err)
	}
	return nil
}
