package ports

import (
	"context"

	"github.com/lotmarket/auction-api/internal/core/domain"
)

// RegisterInput is the DTO for dev identity registration.
type RegisterInput struct {
	Username string
	Password string
	Email    string
	Role     string
}

type AuthService interface {
	Register(ctx context.Context, in RegisterInput) (*domain.Identity, *domain.Profile, error)
	Login(ctx context.Context, username, password string) (string, *domain.Identity, error)
}

// ProfilePage is one page of profiles.
type ProfilePage struct {
	Items  []*domain.Profile
	Total  int64
	Limit  int
	Offset int
}

type ProfileService interface {
	// EnsureProfile is idempotent: the first observation of authID creates the
	// profile, later calls return it.
	EnsureProfile(ctx context.Context, authID, username string) (*domain.Profile, error)
	GetProfile(ctx context.Context, publicID string) (*domain.Profile, error)
	ListProfiles(ctx context.Context, limit, offset int) (*ProfilePage, error)
}
