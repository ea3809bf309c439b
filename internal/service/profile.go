package service

import (
	"context"
	"fmt"
	"log/slog"

	domainauth "github.com/campusdesk/campusdesk/internal/domain/auth"
	apperrors "github.com/campusdesk/campusdesk/internal/errors"
	"github.com/campusdesk/campusdesk/internal/ports"
)

// ProfileResolver maps an identity user id to its application profile.
// Exactly three outcomes exist: a profile, a logged warning for an identity
// with no profile row yet, or a profile-fetch error for a backend failure.
type ProfileResolver struct {
	store  ports.ProfileStore
	logger *slog.Logger
}

// NewProfileResolver creates a resolver over the given store.
func NewProfileResolver(store ports.ProfileStore, logger *slog.Logger) *ProfileResolver {
	if logger == nil {
		logger = slog.Default()
	}
	return &ProfileResolver{store: store, logger: logger}
}

// Resolve looks up the profile for an identity user id. An identity with no
// linked profile is a valid absent result: it is logged as a warning and
// returns (nil, nil), never an error. Backend failures come back as
// profile-fetch errors.
func (r *ProfileResolver) Resolve(ctx context.Context, identityUserID string) (*domainauth.Profile, error) {
	profile, err := r.store.GetByIdentityID(ctx, identityUserID)
	if err != nil {
		if apperrors.IsProfileFetch(err) {
			return nil, err
		}
		return nil, apperrors.ProfileFetch(fmt.Errorf("resolve profile: %w", err), "resolve profile")
	}
	if profile == nil {
		r.logger.WarnContext(ctx, "no profile linked to identity user",
			"identity_user_id", identityUserID)
		return nil, nil
	}
	return profile, nil
}
