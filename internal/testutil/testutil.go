package testutil

// Package testutil provides helpers for integration tests that need real
// backing services. Tests using them skip cleanly when the service is not
// reachable, so the unit suite stays runnable anywhere.

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"os"
	"time"

	"github.com/redis/go-redis/v9"
)

// TestingTB is the subset of testing.TB these helpers need.
type TestingTB interface {
	Helper()
	Skip(args ...any)
	Fatal(args ...any)
	Cleanup(func())
}

// SetupTestRedis creates a Redis client for tests, skipping when Redis is
// unreachable. The client is closed automatically at test cleanup.
func SetupTestRedis(t TestingTB) *redis.Client {
	t.Helper()

	addr := getEnvOrDefault("TEST_REDIS_ADDR", "localhost:6379")
	client := redis.NewClient(&redis.Options{Addr: addr})

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		t.Skip("redis not available at", addr, ":", err)
		return nil
	}

	t.Cleanup(func() {
		_ = client.Close()
	})
	return client
}

// RandomKey returns a random key with the given prefix, so parallel test
// runs against a shared Redis never collide.
func RandomKey(t TestingTB, prefix string) string {
	t.Helper()
	b := make([]byte, 8)
	if _, err := rand.Read(b); err != nil {
		t.Fatal("generate random key:", err)
	}
	return prefix + hex.EncodeToString(b)
}

func getEnvOrDefault(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}
