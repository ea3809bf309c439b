package auth

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestRoleValid(t *testing.T) {
	for _, role := range Roles() {
		assert.True(t, role.Valid(), string(role))
	}
	assert.False(t, Role("admin").Valid())
	assert.False(t, Role("").Valid())
	assert.False(t, Role("Owner").Valid())
}

func TestSessionExpired(t *testing.T) {
	now := time.Date(2026, 2, 1, 9, 0, 0, 0, time.UTC)

	s := Session{ExpiresAt: now.Add(time.Minute)}
	assert.False(t, s.Expired(now))

	s = Session{ExpiresAt: now.Add(-time.Minute)}
	assert.True(t, s.Expired(now))

	// A zero expiry means the provider did not report one; treat as live.
	s = Session{}
	assert.False(t, s.Expired(now))
}

func TestMustResetPassword(t *testing.T) {
	tests := []struct {
		name    string
		role    Role
		changed bool
		want    bool
	}{
		{"student with pending change", RoleStudent, false, true},
		{"student after change", RoleStudent, true, false},
		{"teacher with unset flag", RoleTeacher, false, false},
		{"owner with unset flag", RoleOwner, false, false},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			p := Profile{Role: tc.role, PasswordChanged: tc.changed}
			assert.Equal(t, tc.want, p.MustResetPassword())
		})
	}
}

func TestCurrentUser(t *testing.T) {
	assert.False(t, CurrentUser{}.IsAuthenticated())
	assert.False(t, CurrentUser{}.IsOwner())

	teacher := CurrentUser{Profile: &Profile{Role: RoleTeacher}}
	assert.True(t, teacher.IsAuthenticated())
	assert.False(t, teacher.IsOwner())

	owner := CurrentUser{Profile: &Profile{Role: RoleOwner}}
	assert.True(t, owner.IsOwner())
}
