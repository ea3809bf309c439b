package data

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	jmespath "github.com/jmespath-community/go-jmespath"

	"github.com/campusdesk/campusdesk/internal/clock"
	"github.com/campusdesk/campusdesk/internal/data/pgxutil"
	domainauth "github.com/campusdesk/campusdesk/internal/domain/auth"
	apperrors "github.com/campusdesk/campusdesk/internal/errors"
)

// ProfileRepo provides database operations for application user profiles.
// Profiles are created by account provisioning, never by this repo; the only
// mutation here is completing the forced password change.
type ProfileRepo struct {
	DB            *sql.DB
	clock         clock.Clock
	displayFields map[string]string
}

// ProfileRepoOptions groups optional dependencies for ProfileRepo.
type ProfileRepoOptions struct {
	// Clock is the time source for updated_at stamps. Defaults to real time.
	Clock clock.Clock
	// DisplayFields maps profile view field names to JMESPath expressions
	// evaluated against the profile's metadata column.
	DisplayFields map[string]string
}

// NewProfileRepo creates a new ProfileRepo. Display field expressions are
// validated up front so a bad expression fails at startup, not per lookup.
func NewProfileRepo(db *sql.DB, opts ProfileRepoOptions) (*ProfileRepo, error) {
	ck := opts.Clock
	if ck == nil {
		ck = clock.RealClock{}
	}
	for name, expr := range opts.DisplayFields {
		if _, err := jmespath.Compile(expr); err != nil {
			return nil, apperrors.Validationf("display field %q: invalid expression %q: %v", name, expr, err)
		}
	}
	return &ProfileRepo{DB: db, clock: ck, displayFields: opts.DisplayFields}, nil
}

// profileRow mirrors the profiles table shape for pgx struct scanning.
type profileRow struct {
	ID              string          `db:"id"`
	Role            string          `db:"role"`
	FirstName       string          `db:"first_name"`
	LastName        string          `db:"last_name"`
	Email           string          `db:"email"`
	PasswordChanged bool            `db:"password_changed"`
	Metadata        json.RawMessage `db:"metadata"`
	CreatedAt       time.Time       `db:"created_at"`
	UpdatedAt       *time.Time      `db:"updated_at"`
}

const profileGetByIDQuery = `
	SELECT id, role, first_name, last_name, email, password_changed, metadata, created_at, updated_at
	FROM profiles
	WHERE id = $1`

// GetByIdentityID retrieves the profile linked to an identity user id.
// A missing row is a valid absent result and returns (nil, nil): a freshly
// provisioned identity may not have a linked profile yet. Any other failure
// is a profile-fetch error.
func (r *ProfileRepo) GetByIdentityID(ctx context.Context, identityUserID string) (*domainauth.Profile, error) {
	if identityUserID == "" {
		return nil, apperrors.Validation("identity user id is required")
	}

	var row profileRow
	err := pgxutil.WithPgxConn(ctx, r.DB, func(conn *pgx.Conn) error {
		rows, err := conn.Query(ctx, profileGetByIDQuery, identityUserID)
		if err != nil {
			return err
		}
		defer rows.Close()
		row, err = pgx.CollectOneRow(rows, pgx.RowToStructByName[profileRow])
		return err
	})
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, apperrors.ProfileFetch(err, "fetch profile")
	}

	return r.toProfile(row)
}

// SetPasswordChanged marks the forced password change as completed.
// The flag only ever moves false -> true; repeating the call is a no-op
// for an already-flagged profile.
func (r *ProfileRepo) SetPasswordChanged(ctx context.Context, identityUserID string) error {
	if identityUserID == "" {
		return apperrors.Validation("identity user id is required")
	}

	var affected int64
	err := pgxutil.WithPgxConn(ctx, r.DB, func(conn *pgx.Conn) error {
		ct, err := conn.Exec(ctx,
			`UPDATE profiles SET password_changed = TRUE, updated_at = $2 WHERE id = $1`,
			identityUserID, r.clock.Now().UTC(),
		)
		if err != nil {
			return err
		}
		affected = ct.RowsAffected()
		return nil
	})
	if err != nil {
		return apperrors.MapDBError(fmt.Errorf("set password changed: %w", err))
	}
	if affected == 0 {
		return apperrors.NotFoundf("profile %q not found", identityUserID)
	}
	return nil
}

// toProfile maps a table row to the domain profile, projecting configured
// display fields out of the metadata column.
func (r *ProfileRepo) toProfile(row profileRow) (*domainauth.Profile, error) {
	role := domainauth.Role(row.Role)
	if !role.Valid() {
		return nil, apperrors.Validationf("profile %q has unknown role %q", row.ID, row.Role)
	}

	display, err := ProjectDisplayFields(row.Metadata, r.displayFields)
	if err != nil {
		return nil, apperrors.ProfileFetch(err, "project display fields")
	}

	return &domainauth.Profile{
		ID:              row.ID,
		Role:            role,
		FirstName:       row.FirstName,
		LastName:        row.LastName,
		Email:           row.Email,
		PasswordChanged: row.PasswordChanged,
		DisplayFields:   display,
	}, nil
}

// ProjectDisplayFields evaluates the configured JMESPath expressions against
// the raw metadata document. Fields that evaluate to null are omitted.
func ProjectDisplayFields(metadata json.RawMessage, fields map[string]string) (map[string]any, error) {
	if len(fields) == 0 || len(metadata) == 0 {
		return nil, nil
	}

	var doc any
	if err := json.Unmarshal(metadata, &doc); err != nil {
		return nil, fmt.Errorf("decode profile metadata: %w", err)
	}

	out := make(map[string]any, len(fields))
	for name, expr := range fields {
		v, err := jmespath.Search(expr, doc)
		if err != nil {
			return nil, fmt.Errorf("evaluate display field %q: %w", name, err)
		}
		if v != nil {
			out[name] = v
		}
	}
	if len(out) == 0 {
		return nil, nil
	}
	return out, nil
}
