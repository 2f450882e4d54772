package ports

import (
	"context"

	"github.com/lotmarket/auction-api/internal/core/domain"
)

// IdentityRepository persists credentials of the dev token-issuing collaborator.
type IdentityRepository interface {
	FindByUsername(ctx context.Context, username string) (*domain.Identity, error)
	Create(ctx context.Context, identity *domain.Identity) (*domain.Identity, error)
}

// ProfileRepository persists user profiles. Profiles are created lazily, at
// most one per auth identity.
type ProfileRepository interface {
	// EnsureForAuthID returns the profile bound to authID, creating it from
	// candidate when none exists. created reports whether a row was inserted.
	EnsureForAuthID(ctx context.Context, candidate *domain.Profile) (profile *domain.Profile, created bool, err error)
	FindByPublicID(ctx context.Context, publicID string) (*domain.Profile, error)
	List(ctx context.Context, limit, offset int) ([]*domain.Profile, int64, error)
}
