package memory

import (
	"cmp"
	"context"
	"slices"

	"github.com/lotmarket/auction-api/internal/core/domain"
)

type ProfileRepository struct {
	s *Store
}

func NewProfileRepository(s *Store) *ProfileRepository {
	return &ProfileRepository{s: s}
}

func (r *ProfileRepository) EnsureForAuthID(_ context.Context, candidate *domain.Profile) (*domain.Profile, bool, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	if id, ok := r.s.profileByAuth[candidate.AuthID]; ok {
		p := *r.s.profiles[id]
		return &p, false, nil
	}
	stored := *candidate
	r.s.profiles[stored.PublicID] = &stored
	r.s.profileByAuth[stored.AuthID] = stored.PublicID
	out := stored
	return &out, true, nil
}

func (r *ProfileRepository) FindByPublicID(_ context.Context, publicID string) (*domain.Profile, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	p, ok := r.s.profiles[publicID]
	if !ok || p.Deleted {
		return nil, domain.ErrProfileNotFound
	}
	out := *p
	return &out, nil
}

func (r *ProfileRepository) List(_ context.Context, limit, offset int) ([]*domain.Profile, int64, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	var all []*domain.Profile
	for _, p := range r.s.profiles {
		if !p.Deleted {
			all = append(all, p)
		}
	}
	slices.SortFunc(all, func(a, b *domain.Profile) int {
		if c := a.CreatedAt.Compare(b.CreatedAt); c != 0 {
			return c
		}
		return cmp.Compare(a.PublicID, b.PublicID)
	})

	out := page(all, limit, offset)
	res := make([]*domain.Profile, len(out))
	for i, p := range out {
		c := *p
		res[i] = &c
	}
	return res, int64(len(all)), nil
}

// IdentityRepository stores dev credentials keyed by username.
type IdentityRepository struct {
	s *Store
}

func NewIdentityRepository(s *Store) *IdentityRepository {
	return &IdentityRepository{s: s}
}

func (r *IdentityRepository) Create(_ context.Context, identity *domain.Identity) (*domain.Identity, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if _, exists := r.s.identities[identity.Username]; exists {
		return nil, domain.ErrIdentityExists
	}
	stored := *identity
	r.s.identities[identity.Username] = &stored
	out := stored
	return &out, nil
}

func (r *IdentityRepository) FindByUsername(_ context.Context, username string) (*domain.Identity, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	u, ok := r.s.identities[username]
	if !ok {
		return nil, domain.ErrIdentityNotFound
	}
	out := *u
	return &out, nil
}
