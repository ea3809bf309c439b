package redis

// Package redis provides Redis-backed adapters. The only one the auth core
// needs is the login attempt limiter.

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/campusdesk/campusdesk/internal/ports"
)

// AttemptLimiter throttles password login attempts with a fixed window
// counter per normalized identifier. The window starts at the first attempt
// and the key expires on its own, so there is nothing to clean up.
type AttemptLimiter struct {
	client      *redis.Client
	maxAttempts int
	window      time.Duration
	keyPrefix   string
}

var _ ports.LoginLimiter = (*AttemptLimiter)(nil)

// AttemptLimiterOptions groups optional settings for AttemptLimiter.
type AttemptLimiterOptions struct {
	// MaxAttempts is the number of attempts allowed per window. Defaults to 10.
	MaxAttempts int
	// Window is the fixed throttle window. Defaults to 5 minutes.
	Window time.Duration
	// KeyPrefix namespaces limiter keys. Defaults to "login_attempts:".
	KeyPrefix string
}

// NewAttemptLimiter creates a Redis-backed login attempt limiter.
func NewAttemptLimiter(client *redis.Client, opts AttemptLimiterOptions) *AttemptLimiter {
	maxAttempts := opts.MaxAttempts
	if maxAttempts <= 0 {
		maxAttempts = 10
	}
	window := opts.Window
	if window <= 0 {
		window = 5 * time.Minute
	}
	keyPrefix := opts.KeyPrefix
	if keyPrefix == "" {
		keyPrefix = "login_attempts:"
	}
	return &AttemptLimiter{
		client:      client,
		maxAttempts: maxAttempts,
		window:      window,
		keyPrefix:   keyPrefix,
	}
}

// Allow counts one attempt for key and reports whether it fits in the
// current window. The expiry is set only when the counter is created, so
// the window is fixed from the first attempt rather than sliding.
func (l *AttemptLimiter) Allow(ctx context.Context, key string) (bool, error) {
	redisKey := l.keyPrefix + key

	n, err := l.client.Incr(ctx, redisKey).Result()
	if err != nil {
		return false, fmt.Errorf("increment attempt counter: %w", err)
	}
	if n == 1 {
		if err := l.client.Expire(ctx, redisKey, l.window).Err(); err != nil {
			return false, fmt.Errorf("set attempt window: %w", err)
		}
	}
	return n <= int64(l.maxAttempts), nil
}

// Reset clears the attempt counter for key, typically after a successful
// login.
func (l *AttemptLimiter) Reset(ctx context.Context, key string) error {
	if err := l.client.Del(ctx, l.keyPrefix+key).Err(); err != nil {
		return fmt.Errorf("reset attempt counter: %w", err)
	}
	return nil
}
