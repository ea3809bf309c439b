package auth

// Package auth contains simple hand-written test doubles for auth ports.
// These are lightweight and suitable for unit tests without codegen.

import (
	"context"
	"sync"

	domainauth "github.com/campusdesk/campusdesk/internal/domain/auth"
	apperrors "github.com/campusdesk/campusdesk/internal/errors"
	"github.com/campusdesk/campusdesk/internal/ports"
)

// Ensure compile-time conformance to ports.
var (
	_ ports.IdentityProvider = (*ScriptedIdentityProvider)(nil)
	_ ports.ProfileStore     = (*MemoryProfileStore)(nil)
	_ ports.LoginLimiter     = (*StaticLimiter)(nil)
)

// ScriptedIdentityProvider simulates the identity service for tests. Its
// session can be set directly and change notifications emitted on demand.
// Per-method Func hooks override the default behavior when set.
type ScriptedIdentityProvider struct {
	CurrentSessionFunc     func(ctx context.Context) (*domainauth.Session, error)
	SignInWithPasswordFunc func(ctx context.Context, email, password string) (*domainauth.Session, error)
	SignInWithOAuthFunc    func(ctx context.Context, in ports.OAuthInput) (string, error)
	SignOutFunc            func(ctx context.Context) error
	UpdateCredentialFunc   func(ctx context.Context, newPassword string) error

	// Password is the accepted password for the default SignInWithPassword
	// behavior. Sessions issued on success carry Session's fields.
	Password string
	Session  domainauth.Session

	mu           sync.Mutex
	current      *domainauth.Session
	subs         []chan ports.SessionChange
	fetchCount   int
	signInEmails []string
}

// NewScriptedIdentityProvider creates a provider with no active session that
// accepts the given password.
func NewScriptedIdentityProvider(password string, session domainauth.Session) *ScriptedIdentityProvider {
	return &ScriptedIdentityProvider{Password: password, Session: session}
}

// SetSession replaces the current session without notifying subscribers.
func (p *ScriptedIdentityProvider) SetSession(sess *domainauth.Session) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.current = sess
}

// EmitChange publishes a session change to every subscriber, blocking until
// each has accepted it.
func (p *ScriptedIdentityProvider) EmitChange(sess *domainauth.Session) {
	p.mu.Lock()
	p.current = sess
	subs := make([]chan ports.SessionChange, len(p.subs))
	copy(subs, p.subs)
	p.mu.Unlock()

	for _, ch := range subs {
		ch <- ports.SessionChange{Session: sess}
	}
}

// notify fans a session change out to subscribers without blocking, dropping
// the oldest pending event on a full channel. Same delivery contract as the
// real identity adapter.
func (p *ScriptedIdentityProvider) notify(sess *domainauth.Session) {
	p.mu.Lock()
	subs := make([]chan ports.SessionChange, len(p.subs))
	copy(subs, p.subs)
	p.mu.Unlock()

	for _, ch := range subs {
		change := ports.SessionChange{Session: sess}
		select {
		case ch <- change:
		default:
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

// FetchCount reports how many times CurrentSession has been called.
func (p *ScriptedIdentityProvider) FetchCount() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.fetchCount
}

// SignInEmails reports the emails passed to SignInWithPassword, in order.
func (p *ScriptedIdentityProvider) SignInEmails() []string {
	p.mu.Lock()
	defer p.mu.Unlock()
	out := make([]string, len(p.signInEmails))
	copy(out, p.signInEmails)
	return out
}

func (p *ScriptedIdentityProvider) CurrentSession(ctx context.Context) (*domainauth.Session, error) {
	p.mu.Lock()
	p.fetchCount++
	p.mu.Unlock()
	if p.CurrentSessionFunc != nil {
		return p.CurrentSessionFunc(ctx)
	}
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.current == nil {
		return nil, nil
	}
	copied := *p.current
	return &copied, nil
}

func (p *ScriptedIdentityProvider) SessionChanges(buffer int) (<-chan ports.SessionChange, ports.Unsubscribe) {
	if buffer <= 0 {
		buffer = 1
	}
	ch := make(chan ports.SessionChange, buffer)
	p.mu.Lock()
	p.subs = append(p.subs, ch)
	p.mu.Unlock()

	var once sync.Once
	return ch, func() {
		once.Do(func() {
			p.mu.Lock()
			for i, sub := range p.subs {
				if sub == ch {
					p.subs = append(p.subs[:i], p.subs[i+1:]...)
					break
				}
			}
			p.mu.Unlock()
			close(ch)
		})
	}
}

// SubscriberCount reports how many subscriptions are currently registered.
func (p *ScriptedIdentityProvider) SubscriberCount() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return len(p.subs)
}

func (p *ScriptedIdentityProvider) SignInWithPassword(ctx context.Context, email, password string) (*domainauth.Session, error) {
	p.mu.Lock()
	p.signInEmails = append(p.signInEmails, email)
	p.mu.Unlock()
	if p.SignInWithPasswordFunc != nil {
		return p.SignInWithPasswordFunc(ctx, email, password)
	}
	if password != p.Password {
		return nil, apperrors.Credential("Invalid login credentials")
	}
	sess := p.Session
	p.mu.Lock()
	p.current = &sess
	p.mu.Unlock()
	// The real identity client announces a successful sign-in on the change
	// feed from inside the call; mirror that here.
	p.notify(&sess)
	return &sess, nil
}

func (p *ScriptedIdentityProvider) SignInWithOAuth(ctx context.Context, in ports.OAuthInput) (string, error) {
	if p.SignInWithOAuthFunc != nil {
		return p.SignInWithOAuthFunc(ctx, in)
	}
	return "https://mock-idp/authorize?provider=" + in.Provider, nil
}

func (p *ScriptedIdentityProvider) SignOut(ctx context.Context) error {
	if p.SignOutFunc != nil {
		return p.SignOutFunc(ctx)
	}
	p.mu.Lock()
	p.current = nil
	p.mu.Unlock()
	return nil
}

func (p *ScriptedIdentityProvider) UpdateCredential(ctx context.Context, newPassword string) error {
	if p.UpdateCredentialFunc != nil {
		return p.UpdateCredentialFunc(ctx, newPassword)
	}
	return nil
}

// MemoryProfileStore is an in-memory ProfileStore keyed by identity user id.
type MemoryProfileStore struct {
	// GetErr, when set, is returned by every GetByIdentityID call.
	GetErr error

	mu       sync.Mutex
	profiles map[string]*domainauth.Profile
}

// NewMemoryProfileStore creates a store seeded with the given profiles.
func NewMemoryProfileStore(profiles ...*domainauth.Profile) *MemoryProfileStore {
	s := &MemoryProfileStore{profiles: make(map[string]*domainauth.Profile)}
	for _, p := range profiles {
		s.profiles[p.ID] = p
	}
	return s
}

// Put inserts or replaces a profile.
func (s *MemoryProfileStore) Put(p *domainauth.Profile) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.profiles[p.ID] = p
}

func (s *MemoryProfileStore) GetByIdentityID(_ context.Context, identityUserID string) (*domainauth.Profile, error) {
	if s.GetErr != nil {
		return nil, s.GetErr
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	p, ok := s.profiles[identityUserID]
	if !ok {
		return nil, nil
	}
	copied := *p
	return &copied, nil
}

func (s *MemoryProfileStore) SetPasswordChanged(_ context.Context, identityUserID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	p, ok := s.profiles[identityUserID]
	if !ok {
		return apperrors.NotFoundf("profile %q not found", identityUserID)
	}
	p.PasswordChanged = true
	return nil
}

// StaticLimiter is a LoginLimiter that always answers the same way.
type StaticLimiter struct {
	Allowed bool
	Err     error

	mu   sync.Mutex
	keys []string
}

// NewAllowAllLimiter creates a limiter that permits every attempt.
func NewAllowAllLimiter() *StaticLimiter {
	return &StaticLimiter{Allowed: true}
}

func (l *StaticLimiter) Allow(_ context.Context, key string) (bool, error) {
	l.mu.Lock()
	l.keys = append(l.keys, key)
	l.mu.Unlock()
	return l.Allowed, l.Err
}

// Keys reports the keys passed to Allow, in order.
func (l *StaticLimiter) Keys() []string {
	l.mu.Lock()
	defer l.mu.Unlock()
	out := make([]string, len(l.keys))
	copy(out, l.keys)
	return out
}
