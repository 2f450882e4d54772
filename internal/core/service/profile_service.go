package service

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/lotmarket/auction-api/internal/core/domain"
	"github.com/lotmarket/auction-api/internal/core/ports"
)

// ProfileService manages the internal profiles anchoring lot and bid ownership.
type ProfileService struct {
	repo   ports.ProfileRepository
	logger zerolog.Logger
	now    func() time.Time
}

func NewProfileService(repo ports.ProfileRepository, logger zerolog.Logger) *ProfileService {
	return &ProfileService{repo: repo, logger: logger, now: func() time.Time { return time.Now().UTC() }}
}

func (s *ProfileService) EnsureProfile(ctx context.Context, authID, username string) (*domain.Profile, error) {
	if authID == "" {
		return nil, fmt.Errorf("%w: auth identity", domain.ErrMissingField)
	}
	profile, created, err := s.repo.EnsureForAuthID(ctx, &domain.Profile{
		PublicID:  uuid.NewString(),
		AuthID:    authID,
		Username:  username,
		CreatedAt: s.now(),
	})
	if err != nil {
		return nil, err
	}
	if created {
		s.logger.Info().Str("profile_id", profile.PublicID).Str("username", username).Msg("profile created")
	}
	return profile, nil
}

func (s *ProfileService) GetProfile(ctx context.Context, publicID string) (*domain.Profile, error) {
	return s.repo.FindByPublicID(ctx, publicID)
}

func (s *ProfileService) ListProfiles(ctx context.Context, limit, offset int) (*ports.ProfilePage, error) {
	limit, offset = clampPage(limit, offset)
	items, total, err := s.repo.List(ctx, limit, offset)
	if err != nil {
		return nil, err
	}
	return &ports.ProfilePage{Items: items, Total: total, Limit: limit, Offset: offset}, nil
}
