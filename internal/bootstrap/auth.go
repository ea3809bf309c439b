package bootstrap

import (
	"database/sql"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/campusdesk/campusdesk/config"
	"github.com/campusdesk/campusdesk/internal/adapters/identity"
	redisadapter "github.com/campusdesk/campusdesk/internal/adapters/redis"
	"github.com/campusdesk/campusdesk/internal/data"
	"github.com/campusdesk/campusdesk/internal/ports"
	"github.com/campusdesk/campusdesk/internal/service"
	"github.com/campusdesk/campusdesk/internal/tokencache"
)

// AuthStackConfig contains configuration for building the auth stack.
type AuthStackConfig struct {
	Config      *config.AppConfig
	DB          *sql.DB
	RedisClient *redis.Client
	Logger      *slog.Logger
}

// AuthStack is the wired auth core: the session controller the HTTP layer
// talks to, plus the session cache backing outbound API calls.
type AuthStack struct {
	Sessions *service.SessionController
	Cache    *tokencache.Cache
	Identity *identity.Client
	// Outbound is the HTTP client for calls to the data backend. Its
	// transport attaches the cached bearer token to every request.
	Outbound *http.Client
}

// BuildAuthStack wires the identity client, profile repo, login limiter,
// session controller, and session cache.
func BuildAuthStack(cfg AuthStackConfig) (*AuthStack, error) {
	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}
	appCfg := cfg.Config

	idClient, err := identity.NewClient(identity.Config{
		BaseURL: appCfg.Auth.Identity.URL,
		APIKey:  appCfg.Auth.Identity.APIKey,
		Google: identity.GoogleConfig{
			ClientID:     appCfg.Auth.Google.ClientID,
			ClientSecret: appCfg.Auth.Google.ClientSecret,
			DiscoveryURL: appCfg.Auth.Google.DiscoveryURL,
		},
		Logger: logger,
	})
	if err != nil {
		return nil, fmt.Errorf("build identity client: %w", err)
	}

	profileRepo, err := data.NewProfileRepo(cfg.DB, data.ProfileRepoOptions{
		DisplayFields: appCfg.Auth.DisplayFields,
	})
	if err != nil {
		return nil, fmt.Errorf("build profile repo: %w", err)
	}

	// The limiter is optional; without Redis, logins simply go unthrottled.
	var limiter ports.LoginLimiter
	if cfg.RedisClient != nil {
		limiter = redisadapter.NewAttemptLimiter(cfg.RedisClient, redisadapter.AttemptLimiterOptions{
			MaxAttempts: appCfg.Auth.Throttle.MaxAttempts,
			Window:      appCfg.Auth.Throttle.Window,
		})
	} else {
		logger.Warn("login throttling disabled: redis client not configured")
	}

	sessions, err := service.NewSessionController(service.SessionControllerOptions{
		Identity:    idClient,
		Profiles:    profileRepo,
		Limiter:     limiter,
		EmailDomain: appCfg.Auth.EmailDomain,
		Origin:      appCfg.HTTP.BaseURL,
		Logger:      logger,
	})
	if err != nil {
		return nil, fmt.Errorf("build session controller: %w", err)
	}

	cache := tokencache.New(idClient, tokencache.Options{
		Staleness: appCfg.Auth.SessionCacheTTL,
	})
	outbound := &http.Client{
		Transport: &tokencache.Transport{Cache: cache, Logger: logger},
		Timeout:   30 * time.Second,
	}

	return &AuthStack{Sessions: sessions, Cache: cache, Identity: idClient, Outbound: outbound}, nil
}
