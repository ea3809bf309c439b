package tokencache

// Package tokencache holds the short-lived session cache consulted on every
// outbound API request, and the transport that attaches the cached bearer
// token. The cache is an optimization to collapse request bursts into a
// single identity-provider round trip; it is never the source of truth for
// authorization decisions.

import (
	"context"
	"fmt"
	"sync"
	"time"

	"golang.org/x/sync/singleflight"

	"github.com/campusdesk/campusdesk/internal/clock"
	domainauth "github.com/campusdesk/campusdesk/internal/domain/auth"
	"github.com/campusdesk/campusdesk/internal/ports"
)

// DefaultStaleness is the default staleness bound for cached sessions.
// Entries older than this are refetched before use.
const DefaultStaleness = 10 * time.Second

// Cache answers "give me a currently valid bearer session" with a bounded
// staleness guarantee. Absent sessions are cached too, so an unauthenticated
// burst does not hammer the identity provider either.
type Cache struct {
	idp   ports.IdentityProvider
	clock clock.Clock
	ttl   time.Duration

	mu    sync.Mutex
	entry *entry

	group singleflight.Group
}

// entry is a cached session snapshot: the session (or nil for "no session")
// and when it was fetched.
type entry struct {
	session   *domainauth.Session
	fetchedAt time.Time
}

// Options groups optional dependencies for Cache.
type Options struct {
	// Clock is the staleness time source. Defaults to real time.
	Clock clock.Clock
	// Staleness overrides DefaultStaleness when positive.
	Staleness time.Duration
}

// New creates a session cache over the given identity provider.
func New(idp ports.IdentityProvider, opts Options) *Cache {
	ck := opts.Clock
	if ck == nil {
		ck = clock.RealClock{}
	}
	ttl := opts.Staleness
	if ttl <= 0 {
		ttl = DefaultStaleness
	}
	return &Cache{idp: idp, clock: ck, ttl: ttl}
}

// ValidSession returns the cached session when fresh, otherwise performs a
// blocking fetch from the identity provider and caches the result. Returns
// (nil, nil) when no user is signed in. Concurrent callers during a miss
// share a single provider round trip.
func (c *Cache) ValidSession(ctx context.Context) (*domainauth.Session, error) {
	if s, ok := c.fresh(); ok {
		return s, nil
	}

	v, err, _ := c.group.Do("session", func() (any, error) {
		// A concurrent flight may have refreshed the entry already.
		if s, ok := c.fresh(); ok {
			return s, nil
		}
		sess, err := c.idp.CurrentSession(ctx)
		if err != nil {
			return nil, fmt.Errorf("fetch current session: %w", err)
		}
		c.store(sess)
		return sess, nil
	})
	if err != nil {
		return nil, err
	}
	sess, _ := v.(*domainauth.Session)
	return sess, nil
}

// fresh returns the cached session when the entry is within the staleness
// bound.
func (c *Cache) fresh() (*domainauth.Session, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.entry == nil {
		return nil, false
	}
	if c.clock.Now().Sub(c.entry.fetchedAt) > c.ttl {
		return nil, false
	}
	return c.entry.session, true
}

func (c *Cache) store(sess *domainauth.Session) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.entry = &entry{session: sess, fetchedAt: c.clock.Now()}
}
