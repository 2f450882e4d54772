package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/lotmarket/auction-api/internal/core/domain"
)

const profileColumns = `public_id, auth_id, username, created_at, modified_at, deleted, deleted_at`

const (
	insertProfile = `INSERT INTO profiles (public_id, auth_id, username, created_at) VALUES ($1, $2, $3, $4)
ON CONFLICT (auth_id) DO NOTHING`
	selectProfileByAuth = `SELECT ` + profileColumns + ` FROM profiles WHERE auth_id = $1`
	selectProfile       = `SELECT ` + profileColumns + ` FROM profiles WHERE public_id = $1 AND deleted = FALSE`
	countProfiles       = `SELECT count(*) FROM profiles WHERE deleted = FALSE`
	listProfiles        = `SELECT ` + profileColumns + ` FROM profiles WHERE deleted = FALSE ORDER BY created_at ASC, public_id ASC LIMIT $1 OFFSET $2`

	insertIdentity = `INSERT INTO identities (id, username, email, password_hash, role, created_at) VALUES ($1, $2, $3, $4, $5, $6)`
	selectIdentity = `SELECT id, username, email, password_hash, role, created_at FROM identities WHERE username = $1`
)

type ProfileRepository struct {
	db *sql.DB
}

func NewProfileRepository(db *sql.DB) *ProfileRepository {
	return &ProfileRepository{db: db}
}

// EnsureForAuthID relies on the unique auth_id so concurrent first requests
// of one identity converge on a single profile.
func (r *ProfileRepository) EnsureForAuthID(ctx context.Context, candidate *domain.Profile) (*domain.Profile, bool, error) {
	res, err := r.db.ExecContext(ctx, insertProfile, candidate.PublicID, candidate.AuthID, candidate.Username, candidate.CreatedAt.UTC())
	if err != nil {
		return nil, false, fmt.Errorf("insert profile: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return nil, false, err
	}

	profile, err := scanProfile(r.db.QueryRowContext(ctx, selectProfileByAuth, candidate.AuthID))
	if err != nil {
		return nil, false, fmt.Errorf("load profile: %w", err)
	}
	return profile, n == 1, nil
}

func (r *ProfileRepository) FindByPublicID(ctx context.Context, publicID string) (*domain.Profile, error) {
	profile, err := scanProfile(r.db.QueryRowContext(ctx, selectProfile, publicID))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, domain.ErrProfileNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("find profile: %w", err)
	}
	return profile, nil
}

func (r *ProfileRepository) List(ctx context.Context, limit, offset int) ([]*domain.Profile, int64, error) {
	var total int64
	if err := r.db.QueryRowContext(ctx, countProfiles).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("count profiles: %w", err)
	}

	rows, err := r.db.QueryContext(ctx, listProfiles, limit, offset)
	if err != nil {
		return nil, 0, fmt.Errorf("list profiles: %w", err)
	}
	defer rows.Close()

	var out []*domain.Profile
	for rows.Next() {
		p, err := scanProfile(rows)
		if err != nil {
			return nil, 0, err
		}
		out = append(out, p)
	}
	return out, total, rows.Err()
}

func scanProfile(row scanner) (*domain.Profile, error) {
	var (
		p          domain.Profile
		modifiedAt sql.NullTime
		deletedAt  sql.NullTime
	)
	if err := row.Scan(&p.PublicID, &p.AuthID, &p.Username, &p.CreatedAt, &modifiedAt, &p.Deleted, &deletedAt); err != nil {
		return nil, err
	}
	p.CreatedAt = p.CreatedAt.UTC()
	p.ModifiedAt = timePtr(modifiedAt)
	p.DeletedAt = timePtr(deletedAt)
	return &p, nil
}

// IdentityRepository stores dev credentials.
type IdentityRepository struct {
	db *sql.DB
}

func NewIdentityRepository(db *sql.DB) *IdentityRepository {
	return &IdentityRepository{db: db}
}

func (r *IdentityRepository) Create(ctx context.Context, identity *domain.Identity) (*domain.Identity, error) {
	_, err := r.db.ExecContext(ctx, insertIdentity,
		identity.ID, identity.Username, identity.Email, identity.PasswordHash, identity.Role, identity.CreatedAt.UTC())
	if err != nil {
		if isUniqueViolation(err) {
			return nil, domain.ErrIdentityExists
		}
		return nil, fmt.Errorf("insert identity: %w", err)
	}
	out := *identity
	return &out, nil
}

func (r *IdentityRepository) FindByUsername(ctx context.Context, username string) (*domain.Identity, error) {
	var u domain.Identity
	err := r.db.QueryRowContext(ctx, selectIdentity, username).Scan(&u.ID, &u.Username, &u.Email, &u.PasswordHash, &u.Role, &u.CreatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, domain.ErrIdentityNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("find identity: %w", err)
	}
	return &u, nil
}
