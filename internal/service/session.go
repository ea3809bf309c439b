package service

// Package service contains auth orchestration: the session controller that
// owns the published authentication state, and the profile resolver it leans
// on. Adapters do I/O; this package decides what the rest of the application
// believes about the current user.

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"sync"

	"github.com/google/uuid"
	"golang.org/x/net/idna"

	domainauth "github.com/campusdesk/campusdesk/internal/domain/auth"
	apperrors "github.com/campusdesk/campusdesk/internal/errors"
	"github.com/campusdesk/campusdesk/internal/ports"
)

// changeBuffer sizes the identity change subscription. Resolutions are
// sequence-checked, so a dropped intermediate event is harmless.
const changeBuffer = 8

// SessionController owns the authenticated-user state machine. It holds
// exactly one identity change subscription for its lifetime, resolves each
// session event to a profile, and publishes the result to subscribers.
// Resolutions are tagged with a monotonic sequence number; a resolution that
// finishes after a newer one started is discarded, so the latest event
// always wins regardless of backend latency.
type SessionController struct {
	identity    ports.IdentityProvider
	resolver    *ProfileResolver
	limiter     ports.LoginLimiter
	emailDomain string
	origin      string
	logger      *slog.Logger

	mu      sync.Mutex
	current domainauth.CurrentUser
	seq     uint64
	// loginSeq is nonzero while Login is resolving the session it obtained;
	// feed events observed in that window are superseded by the login's own
	// synchronous resolution.
	loginSeq uint64
	// absorb holds access tokens of sessions a login already resolved. The
	// provider echoes each sign-in on the change feed; echoes matched here
	// are skipped instead of re-resolved.
	absorb map[string]struct{}
	subs   map[string]func(domainauth.CurrentUser)

	changes     <-chan ports.SessionChange
	unsubscribe ports.Unsubscribe
	done        chan struct{}
	closeOnce   sync.Once
	wg          sync.WaitGroup
}

// SessionControllerOptions groups dependencies for SessionController.
type SessionControllerOptions struct {
	// Identity is the external identity provider. Required.
	Identity ports.IdentityProvider
	// Profiles is the application profile store. Required.
	Profiles ports.ProfileStore
	// Limiter throttles password login attempts. Optional; when nil every
	// attempt is allowed.
	Limiter ports.LoginLimiter
	// EmailDomain is appended to bare usernames at login.
	EmailDomain string
	// Origin is the application base URL used as the OAuth redirect target.
	Origin string
	// Logger is optional and defaults to slog.Default().
	Logger *slog.Logger
}

// NewSessionController creates the controller, takes its single identity
// change subscription, and starts resolving. The initial published state is
// loading until the first resolution completes.
func NewSessionController(opts SessionControllerOptions) (*SessionController, error) {
	if opts.Identity == nil {
		return nil, apperrors.Internal("session controller requires an identity provider")
	}
	if opts.Profiles == nil {
		return nil, apperrors.Internal("session controller requires a profile store")
	}
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}

	c := &SessionController{
		identity:    opts.Identity,
		resolver:    NewProfileResolver(opts.Profiles, logger),
		limiter:     opts.Limiter,
		emailDomain: opts.EmailDomain,
		origin:      opts.Origin,
		logger:      logger,
		current:     domainauth.CurrentUser{Loading: true},
		absorb:      make(map[string]struct{}),
		subs:        make(map[string]func(domainauth.CurrentUser)),
		done:        make(chan struct{}),
	}
	c.changes, c.unsubscribe = opts.Identity.SessionChanges(changeBuffer)

	c.wg.Add(1)
	go c.run()
	return c, nil
}

// Close releases the identity subscription and stops the resolve loop.
// Safe to call more than once.
func (c *SessionController) Close() {
	c.closeOnce.Do(func() {
		close(c.done)
		c.unsubscribe()
	})
	c.wg.Wait()
}

// CurrentUser returns a snapshot of the published state.
func (c *SessionController) CurrentUser() domainauth.CurrentUser {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.current
}

// Subscribe registers fn for state updates and invokes it synchronously with
// the current snapshot before returning, so subscribers never observe a gap
// between the snapshot and the stream.
func (c *SessionController) Subscribe(fn func(domainauth.CurrentUser)) ports.Unsubscribe {
	id := uuid.NewString()

	c.mu.Lock()
	c.subs[id] = fn
	snapshot := c.current
	c.mu.Unlock()

	fn(snapshot)

	var once sync.Once
	return func() {
		once.Do(func() {
			c.mu.Lock()
			delete(c.subs, id)
			c.mu.Unlock()
		})
	}
}

// Login authenticates a username or email plus password. A bare username is
// completed with the configured email domain and lowercased first. The
// profile is resolved before Login returns, so callers observe the final
// state, not an intermediate loading one. A rejected credential comes back
// as a credential-class error whose message is meant for inline display.
func (c *SessionController) Login(ctx context.Context, identifier, password string) error {
	email, err := c.normalizeIdentifier(identifier)
	if err != nil {
		return err
	}

	if c.limiter != nil {
		allowed, limitErr := c.limiter.Allow(ctx, email)
		if limitErr != nil {
			// The limiter is advisory. Fail open rather than locking
			// everyone out when Redis is down.
			c.logger.WarnContext(ctx, "login limiter unavailable, allowing attempt",
				"error", limitErr)
		} else if !allowed {
			return apperrors.Credential("Too many login attempts. Try again in a few minutes.")
		}
	}

	// The sequence is claimed before the provider call: the provider emits a
	// change-feed event from inside a successful sign-in, and the feed loop
	// must not claim a newer sequence for that echo while this resolution is
	// still the caller's answer.
	seq := c.beginLogin()
	sess, err := c.identity.SignInWithPassword(ctx, email, password)
	if err != nil {
		c.endLogin(seq)
		if apperrors.IsCredential(err) {
			return err
		}
		return fmt.Errorf("password sign-in: %w", err)
	}

	c.mu.Lock()
	c.absorb[sess.AccessToken] = struct{}{}
	c.mu.Unlock()

	c.resolve(ctx, seq, sess)
	c.endLogin(seq)
	return nil
}

// LoginWithGoogle begins the Google OAuth flow and returns the authorization
// URL to redirect the browser to. Failures are logged and reported as an
// empty URL; control is about to leave the application, so there is nobody
// to show an error to.
func (c *SessionController) LoginWithGoogle(ctx context.Context) string {
	authURL, err := c.identity.SignInWithOAuth(ctx, ports.OAuthInput{
		Provider:   "google",
		RedirectTo: c.origin,
	})
	if err != nil {
		c.logger.ErrorContext(ctx, "google login redirect failed", "error", err)
		return ""
	}
	return authURL
}

// Logout clears the published state immediately, then revokes the provider
// session. The local sign-out never waits on the network.
func (c *SessionController) Logout(ctx context.Context) error {
	seq := c.nextSeq()
	c.publish(seq, domainauth.CurrentUser{})

	if err := c.identity.SignOut(ctx); err != nil {
		return fmt.Errorf("sign out: %w", err)
	}
	return nil
}

// ChangePassword completes the forced password change: the credential is
// replaced at the identity provider, the profile flag is flipped, and the
// published state is refreshed so route decisions see the new flag.
func (c *SessionController) ChangePassword(ctx context.Context, newPassword string) error {
	sess, err := c.identity.CurrentSession(ctx)
	if err != nil {
		return fmt.Errorf("change password: %w", err)
	}
	if sess == nil {
		return apperrors.Credential("not signed in")
	}

	if err := c.identity.UpdateCredential(ctx, newPassword); err != nil {
		if apperrors.IsCredential(err) {
			return err
		}
		return fmt.Errorf("update credential: %w", err)
	}
	if err := c.resolver.store.SetPasswordChanged(ctx, sess.UserID); err != nil {
		return fmt.Errorf("mark password changed: %w", err)
	}

	seq := c.nextSeq()
	c.resolve(ctx, seq, sess)
	return nil
}

// run performs the initial resolution and then follows the identity change
// feed until Close.
func (c *SessionController) run() {
	defer c.wg.Done()
	ctx := context.Background()

	seq := c.nextSeq()
	sess, err := c.identity.CurrentSession(ctx)
	if err != nil {
		c.logger.ErrorContext(ctx, "initial session fetch failed", "error", err)
		c.publish(seq, domainauth.CurrentUser{})
	} else {
		c.resolve(ctx, seq, sess)
	}

	for {
		select {
		case <-c.done:
			return
		case change, ok := <-c.changes:
			if !ok {
				return
			}
			if c.skipChange(change) {
				continue
			}
			c.resolve(ctx, c.nextSeq(), change.Session)
		}
	}
}

// resolve turns a session (or its absence) into published state. The result
// is dropped when a newer resolution started in the meantime.
func (c *SessionController) resolve(ctx context.Context, seq uint64, sess *domainauth.Session) {
	if sess == nil {
		c.publish(seq, domainauth.CurrentUser{})
		return
	}

	profile, err := c.resolver.Resolve(ctx, sess.UserID)
	if err != nil {
		// A backend failure must not strand the UI in loading. Degrade to
		// signed-out; the next session event retries naturally.
		c.logger.ErrorContext(ctx, "profile resolution failed",
			"error", err, "identity_user_id", sess.UserID)
		c.publish(seq, domainauth.CurrentUser{})
		return
	}
	c.publish(seq, domainauth.CurrentUser{Profile: profile})
}

// nextSeq claims the next resolution sequence number.
func (c *SessionController) nextSeq() uint64 {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.seq++
	return c.seq
}

// beginLogin claims the resolution sequence for a password login and marks
// the login in flight, pausing the change feed until endLogin.
func (c *SessionController) beginLogin() uint64 {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.seq++
	c.loginSeq = c.seq
	return c.seq
}

// endLogin releases the in-flight login marker, unless a later login has
// already claimed it.
func (c *SessionController) endLogin(seq uint64) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.loginSeq == seq {
		c.loginSeq = 0
	}
}

// skipChange reports whether a feed event is already accounted for by a
// password login: either one is in flight and will resolve its own session,
// or the event echoes a sign-in a login already resolved. Skipped events
// claim no sequence number.
func (c *SessionController) skipChange(change ports.SessionChange) bool {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.loginSeq != 0 {
		return true
	}
	if change.Session == nil {
		// A sign-out invalidates any sessions still pending absorption.
		clear(c.absorb)
		return false
	}
	if _, ok := c.absorb[change.Session.AccessToken]; ok {
		delete(c.absorb, change.Session.AccessToken)
		return true
	}
	return false
}

// publish installs state for sequence seq and notifies subscribers, unless a
// newer sequence has been claimed since.
func (c *SessionController) publish(seq uint64, user domainauth.CurrentUser) {
	c.mu.Lock()
	if seq != c.seq {
		c.mu.Unlock()
		return
	}
	c.current = user
	subs := make([]func(domainauth.CurrentUser), 0, len(c.subs))
	for _, fn := range c.subs {
		subs = append(subs, fn)
	}
	c.mu.Unlock()

	for _, fn := range subs {
		fn(user)
	}
}

// normalizeIdentifier lowercases the identifier, completes a bare username
// with the configured email domain, and normalizes the domain part to its
// ASCII (punycode) form.
func (c *SessionController) normalizeIdentifier(identifier string) (string, error) {
	id := strings.ToLower(strings.TrimSpace(identifier))
	if id == "" {
		return "", apperrors.Credential("Enter your username or email.")
	}

	local, domain, hasDomain := strings.Cut(id, "@")
	if !hasDomain {
		domain = c.emailDomain
	}
	if local == "" || domain == "" {
		return "", apperrors.Credential("Enter a valid username or email.")
	}

	ascii, err := idna.Lookup.ToASCII(domain)
	if err != nil {
		return "", apperrors.Credential("Enter a valid username or email.")
	}
	return local + "@" + ascii, nil
}
