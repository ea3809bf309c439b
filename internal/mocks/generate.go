// Package mocks provides generated mock implementations for testing.
//
// This package uses go.uber.org/mock (gomock) to generate type-safe mocks for
// the auth port interfaces. Hand-written doubles for the same ports live in
// internal/mocks/auth; prefer those for simple unit tests and the generated
// mocks when expectation ordering matters.
//
// To regenerate mocks after interface changes, run:
//
//	go generate ./internal/mocks
package mocks

// Generate mock for IdentityProvider interface from internal/ports.
// This creates MockIdentityProvider with methods for all IdentityProvider
// interface methods: CurrentSession, SessionChanges, SignInWithPassword,
// SignInWithOAuth, SignOut, UpdateCredential
//go:generate go run go.uber.org/mock/mockgen -package=mocks -destination=identity_provider_mock.go github.com/campusdesk/campusdesk/internal/ports IdentityProvider

// Generate mock for ProfileStore interface from internal/ports.
// This creates MockProfileStore with methods for all ProfileStore interface
// methods: GetByIdentityID, SetPasswordChanged
//go:generate go run go.uber.org/mock/mockgen -package=mocks -destination=profile_store_mock.go github.com/campusdesk/campusdesk/internal/ports ProfileStore

// Generate mock for LoginLimiter interface from internal/ports.
// This creates MockLoginLimiter with methods for all LoginLimiter interface
// methods: Allow
//go:generate go run go.uber.org/mock/mockgen -package=mocks -destination=login_limiter_mock.go github.com/campusdesk/campusdesk/internal/ports LoginLimiter
