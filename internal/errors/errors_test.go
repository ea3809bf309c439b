package errors

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/jackc/pgerrcode"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAppErrorError(t *testing.T) {
	assert.Equal(t, "boom", Credential("boom").Error())

	wrapped := Wrap(errors.New("cause"), ErrCodeInternal, "outer")
	assert.Equal(t, "outer: cause", wrapped.Error())
}

func TestUnwrapPreservesCause(t *testing.T) {
	cause := errors.New("connection refused")
	err := ProfileFetch(cause, "fetch profile")

	assert.ErrorIs(t, err, cause)

	var appErr *AppError
	require.ErrorAs(t, err, &appErr)
	assert.Equal(t, ErrCodeProfileFetch, appErr.Code)
}

func TestPredicates(t *testing.T) {
	assert.True(t, IsCredential(Credential("bad password")))
	assert.True(t, IsProfileFetch(ProfileFetch(errors.New("x"), "fetch")))
	assert.True(t, IsOAuthRedirect(OAuthRedirect(errors.New("x"), "redirect")))
	assert.True(t, IsNotFound(NotFoundf("profile %q not found", "p1")))
	assert.True(t, IsValidation(Validation("bad input")))
	assert.True(t, IsInternal(Internal("oops")))

	assert.False(t, IsCredential(Internal("oops")))
	assert.False(t, IsCredential(errors.New("plain")))
	assert.False(t, IsCredential(nil))
}

func TestPredicatesSeeThroughWrapping(t *testing.T) {
	inner := Credential("Invalid login credentials")
	outer := fmt.Errorf("login: %w", inner)

	assert.True(t, IsCredential(outer))
	assert.Equal(t, ErrCodeCredential, GetCode(outer))
}

func TestWrapNilReturnsNil(t *testing.T) {
	assert.Nil(t, Wrap(nil, ErrCodeInternal, "x"))
}

func TestGetCode(t *testing.T) {
	assert.Equal(t, ErrCodeValidation, GetCode(Validation("x")))
	assert.Equal(t, ErrorCode(""), GetCode(errors.New("plain")))
	assert.Equal(t, ErrorCode(""), GetCode(nil))
}

func TestMapDBError(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want ErrorCode
	}{
		{"no rows", pgx.ErrNoRows, ErrCodeNotFound},
		{"wrapped no rows", fmt.Errorf("query: %w", pgx.ErrNoRows), ErrCodeNotFound},
		{"deadline", context.DeadlineExceeded, ErrCodeTimeout},
		{"canceled", context.Canceled, ErrCodeCanceled},
		{"unique violation", &pgconn.PgError{Code: pgerrcode.UniqueViolation}, ErrCodeConflict},
		{"check violation", &pgconn.PgError{Code: pgerrcode.CheckViolation}, ErrCodeValidation},
		// Unrecognized errors pass through untouched.
		{"other", errors.New("disk on fire"), ErrorCode("")},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.want, GetCode(MapDBError(tc.err)))
		})
	}

	assert.Nil(t, MapDBError(nil))
}
