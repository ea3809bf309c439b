package identity

// Package identity provides the HTTP adapter for the hosted identity service
// that owns credential checks, token issuance, and refresh. Social login is
// delegated to Google through standard OIDC discovery.

import (
	"bytes"
	"context"
	"crypto/rand"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"sync"
	"time"

	gooidc "github.com/coreos/go-oidc/v3/oidc"
	"github.com/google/uuid"
	"golang.org/x/oauth2"

	"github.com/campusdesk/campusdesk/internal/clock"
	domainauth "github.com/campusdesk/campusdesk/internal/domain/auth"
	apperrors "github.com/campusdesk/campusdesk/internal/errors"
	"github.com/campusdesk/campusdesk/internal/ports"
)

// refreshLeeway is how close to expiry a session may get before
// CurrentSession refreshes it instead of handing it out.
const refreshLeeway = 30 * time.Second

// Config holds configuration for the identity client.
type Config struct {
	// BaseURL is the identity service base URL (token endpoints live under it).
	BaseURL string
	// APIKey is the public API key sent with every request.
	APIKey string
	// Google configures the external OAuth client for social login.
	// Leave ClientID empty to disable Google login.
	Google GoogleConfig
	// HTTPClient is optional and defaults to a 30s-timeout client.
	HTTPClient *http.Client
	// Clock is the expiry time source. Defaults to real time.
	Clock clock.Clock
	// Logger is optional and defaults to slog.Default().
	Logger *slog.Logger
}

// GoogleConfig holds the Google OAuth client settings.
type GoogleConfig struct {
	ClientID     string
	ClientSecret string
	DiscoveryURL string
}

// Client implements ports.IdentityProvider against a GoTrue-style identity
// service REST API.
type Client struct {
	baseURL    string
	apiKey     string
	httpClient *http.Client
	clock      clock.Clock
	logger     *slog.Logger

	// oauthConfig is non-nil when Google login is configured.
	oauthConfig *oauth2.Config

	mu      sync.Mutex
	session *domainauth.Session
	subs    map[string]chan ports.SessionChange
}

var _ ports.IdentityProvider = (*Client)(nil)

// NewClient creates an identity client. When Google login is configured the
// provider endpoints are discovered once, up front, so a bad issuer fails at
// startup.
func NewClient(cfg Config) (*Client, error) {
	if cfg.BaseURL == "" {
		return nil, errors.New("identity base URL is required")
	}
	if cfg.APIKey == "" {
		return nil, errors.New("identity API key is required")
	}

	httpClient := cfg.HTTPClient
	if httpClient == nil {
		httpClient = &http.Client{Timeout: 30 * time.Second}
	}
	ck := cfg.Clock
	if ck == nil {
		ck = clock.RealClock{}
	}
	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}

	c := &Client{
		baseURL:    strings.TrimSuffix(cfg.BaseURL, "/"),
		apiKey:     cfg.APIKey,
		httpClient: httpClient,
		clock:      ck,
		logger:     logger,
		subs:       make(map[string]chan ports.SessionChange),
	}

	if cfg.Google.ClientID != "" {
		ctx := context.WithValue(context.Background(), oauth2.HTTPClient, httpClient)
		issuer := strings.TrimSuffix(cfg.Google.DiscoveryURL, "/")
		issuer = strings.TrimSuffix(issuer, "/.well-known/openid-configuration")
		op, err := gooidc.NewProvider(ctx, issuer)
		if err != nil {
			return nil, fmt.Errorf("oidc discovery: %w", err)
		}
		c.oauthConfig = &oauth2.Config{
			ClientID:     cfg.Google.ClientID,
			ClientSecret: cfg.Google.ClientSecret,
			Scopes:       []string{gooidc.ScopeOpenID, "profile", "email"},
			Endpoint:     op.Endpoint(),
		}
	}

	return c, nil
}

// tokenResponse is the identity service's token grant response shape.
type tokenResponse struct {
	AccessToken  string `json:"access_token"`
	RefreshToken string `json:"refresh_token"`
	ExpiresIn    int64  `json:"expires_in"`
	User         struct {
		ID string `json:"id"`
	} `json:"user"`
}

// errorResponse is the identity service's error payload. Field names vary
// between endpoints, so all known spellings are tried.
type errorResponse struct {
	ErrorDescription string `json:"error_description"`
	Msg              string `json:"msg"`
	ErrorCode        string `json:"error"`
	Message          string `json:"message"`
}

func (e errorResponse) text() string {
	for _, s := range []string{e.ErrorDescription, e.Msg, e.Message, e.ErrorCode} {
		if s != "" {
			return s
		}
	}
	return "authentication failed"
}

// SignInWithPassword checks credentials against the identity service.
// A rejected credential comes back as a credential-class error carrying the
// provider's own message for inline display.
func (c *Client) SignInWithPassword(ctx context.Context, email, password string) (*domainauth.Session, error) {
	body := map[string]string{"email": email, "password": password}
	resp, err := c.post(ctx, "/token?grant_type=password", "", body)
	if err != nil {
		return nil, fmt.Errorf("password grant: %w", err)
	}
	defer closeBody(resp, c.logger)

	if resp.StatusCode == http.StatusBadRequest || resp.StatusCode == http.StatusUnauthorized ||
		resp.StatusCode == http.StatusUnprocessableEntity {
		var e errorResponse
		decodeLenient(resp.Body, &e)
		return nil, apperrors.Credential(e.text())
	}
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("password grant: unexpected status %d", resp.StatusCode)
	}

	sess, err := c.decodeSession(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("password grant: %w", err)
	}
	c.setSession(sess)
	return sess, nil
}

// SignInWithOAuth returns the Google authorization URL to redirect the
// browser to. The identity service completes the code exchange on its own
// callback and the resulting session arrives through the change feed.
func (c *Client) SignInWithOAuth(_ context.Context, in ports.OAuthInput) (string, error) {
	if in.Provider != "google" || c.oauthConfig == nil {
		return "", apperrors.OAuthRedirect(
			fmt.Errorf("provider %q not configured", in.Provider), "begin oauth flow")
	}

	state, err := randomString(32)
	if err != nil {
		return "", apperrors.OAuthRedirect(err, "generate state")
	}
	nonce, err := randomString(32)
	if err != nil {
		return "", apperrors.OAuthRedirect(err, "generate nonce")
	}

	authURL := c.oauthConfig.AuthCodeURL(state,
		oauth2.SetAuthURLParam("nonce", nonce),
		oauth2.SetAuthURLParam("redirect_to", in.RedirectTo),
		oauth2.SetAuthURLParam("prompt", "select_account"),
	)
	return authURL, nil
}

// CurrentSession returns the provider's current session, refreshing it
// transparently when it is at or near expiry. Returns (nil, nil) when no
// user is signed in.
func (c *Client) CurrentSession(ctx context.Context) (*domainauth.Session, error) {
	c.mu.Lock()
	sess := c.session
	c.mu.Unlock()
	if sess == nil {
		return nil, nil
	}

	now := c.clock.Now()
	if !sess.Expired(now) && sess.ExpiresAt.Sub(now) > refreshLeeway {
		copied := *sess
		return &copied, nil
	}

	refreshed, err := c.refresh(ctx, sess.RefreshToken)
	if err != nil {
		// A dead refresh token means the provider session is gone.
		c.logger.WarnContext(ctx, "session refresh failed, signing out", "error", err)
		c.setSession(nil)
		return nil, nil
	}
	c.setSession(refreshed)
	return refreshed, nil
}

// SignOut invalidates the provider session and notifies subscribers.
func (c *Client) SignOut(ctx context.Context) error {
	c.mu.Lock()
	sess := c.session
	c.mu.Unlock()

	// Published state is cleared regardless of the revoke call's outcome.
	defer c.setSession(nil)

	if sess == nil {
		return nil
	}
	resp, err := c.post(ctx, "/logout", sess.AccessToken, nil)
	if err != nil {
		return fmt.Errorf("sign out: %w", err)
	}
	closeBody(resp, c.logger)
	return nil
}

// UpdateCredential replaces the signed-in user's password.
func (c *Client) UpdateCredential(ctx context.Context, newPassword string) error {
	c.mu.Lock()
	sess := c.session
	c.mu.Unlock()
	if sess == nil {
		return apperrors.Credential("not signed in")
	}

	payload, err := json.Marshal(map[string]string{"password": newPassword})
	if err != nil {
		return fmt.Errorf("update credential: %w", err)
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPut, c.baseURL+"/user", bytes.NewReader(payload))
	if err != nil {
		return fmt.Errorf("update credential: %w", err)
	}
	c.setHeaders(req, sess.AccessToken)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("update credential: %w", err)
	}
	defer closeBody(resp, c.logger)

	if resp.StatusCode == http.StatusBadRequest || resp.StatusCode == http.StatusUnprocessableEntity {
		var e errorResponse
		decodeLenient(resp.Body, &e)
		return apperrors.Credential(e.text())
	}
	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("update credential: unexpected status %d", resp.StatusCode)
	}
	return nil
}

// SessionChanges subscribes to session lifecycle notifications. Events are
// delivered in occurrence order; a subscriber that falls behind has the
// oldest pending event dropped rather than blocking the feed.
func (c *Client) SessionChanges(buffer int) (<-chan ports.SessionChange, ports.Unsubscribe) {
	if buffer <= 0 {
		buffer = 1
	}
	ch := make(chan ports.SessionChange, buffer)
	id := uuid.NewString()

	c.mu.Lock()
	c.subs[id] = ch
	c.mu.Unlock()

	var once sync.Once
	unsubscribe := func() {
		once.Do(func() {
			c.mu.Lock()
			delete(c.subs, id)
			c.mu.Unlock()
			close(ch)
		})
	}
	return ch, unsubscribe
}

// refresh exchanges a refresh token for a new session.
func (c *Client) refresh(ctx context.Context, refreshToken string) (*domainauth.Session, error) {
	if refreshToken == "" {
		return nil, errors.New("no refresh token")
	}
	resp, err := c.post(ctx, "/token?grant_type=refresh_token", "", map[string]string{"refresh_token": refreshToken})
	if err != nil {
		return nil, err
	}
	defer closeBody(resp, c.logger)

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("refresh grant: unexpected status %d", resp.StatusCode)
	}
	return c.decodeSession(resp.Body)
}

// setSession stores the current session and fans the change out to all
// subscribers.
func (c *Client) setSession(sess *domainauth.Session) {
	c.mu.Lock()
	c.session = sess
	subs := make([]chan ports.SessionChange, 0, len(c.subs))
	for _, ch := range c.subs {
		subs = append(subs, ch)
	}
	c.mu.Unlock()

	change := ports.SessionChange{Session: sess}
	for _, ch := range subs {
		select {
		case ch <- change:
		default:
			// Drop the oldest pending event so the latest state wins.
			select {
			case <-ch:
			default:
			}
			select {
			case ch <- change:
			default:
			}
		}
	}
}

func (c *Client) decodeSession(r io.Reader) (*domainauth.Session, error) {
	var tr tokenResponse
	if err := json.NewDecoder(r).Decode(&tr); err != nil {
		return nil, fmt.Errorf("decode token response: %w", err)
	}
	if tr.AccessToken == "" || tr.User.ID == "" {
		return nil, errors.New("token response missing access token or user id")
	}
	return &domainauth.Session{
		AccessToken:  tr.AccessToken,
		RefreshToken: tr.RefreshToken,
		UserID:       tr.User.ID,
		ExpiresAt:    c.clock.Now().Add(time.Duration(tr.ExpiresIn) * time.Second),
	}, nil
}

func (c *Client) post(ctx context.Context, path, bearer string, body any) (*http.Response, error) {
	var rd io.Reader
	if body != nil {
		payload, err := json.Marshal(body)
		if err != nil {
			return nil, err
		}
		rd = bytes.NewReader(payload)
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+path, rd)
	if err != nil {
		return nil, err
	}
	c.setHeaders(req, bearer)
	return c.httpClient.Do(req)
}

func (c *Client) setHeaders(req *http.Request, bearer string) {
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("apikey", c.apiKey)
	if bearer != "" {
		req.Header.Set("Authorization", "Bearer "+bearer)
	}
}

func closeBody(resp *http.Response, logger *slog.Logger) {
	if err := resp.Body.Close(); err != nil {
		logger.Warn("close response body failed", "error", err)
	}
}

// decodeLenient decodes best-effort; a malformed error payload still yields
// the generic message.
func decodeLenient(r io.Reader, dst any) {
	_ = json.NewDecoder(r).Decode(dst)
}

// randomString generates a cryptographically secure URL-safe random string
// of exact length.
func randomString(length int) (string, error) {
	if length <= 0 {
		return "", nil
	}
	nBytes := (length*3 + 3) / 4
	b := make([]byte, nBytes)
	if _, err := rand.Read(b); err != nil {
		return "", err
	}
	s := base64.RawURLEncoding.EncodeToString(b)
	for len(s) < length {
		extra := make([]byte, 1)
		if _, err := rand.Read(extra); err != nil {
			return "", err
		}
		s += base64.RawURLEncoding.EncodeToString(extra)
	}
	return s[:length], nil
}
