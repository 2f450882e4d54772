package memory

import (
	"cmp"
	"context"
	"slices"
	"strings"
	"time"

	"github.com/lotmarket/auction-api/internal/core/domain"
	"github.com/lotmarket/auction-api/internal/core/ports"
)

type LotRepository struct {
	s *Store
}

func NewLotRepository(s *Store) *LotRepository {
	return &LotRepository{s: s}
}

func (r *LotRepository) Create(_ context.Context, lot *domain.Lot) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	r.s.lots[lot.PublicID] = cloneLot(lot)
	return nil
}

func (r *LotRepository) FindByPublicID(_ context.Context, publicID string) (*domain.Lot, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	lot, ok := r.s.lots[publicID]
	if !ok || lot.Deleted {
		return nil, domain.ErrLotNotFound
	}
	return cloneLot(lot), nil
}

func (r *LotRepository) Update(_ context.Context, lot *domain.Lot) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	stored, ok := r.s.lots[lot.PublicID]
	if !ok || stored.Deleted {
		return domain.ErrLotNotFound
	}
	r.s.lots[lot.PublicID] = cloneLot(lot)
	return nil
}

func (r *LotRepository) SoftDelete(_ context.Context, publicID string, at time.Time) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	lot, ok := r.s.lots[publicID]
	if !ok || lot.Deleted {
		return domain.ErrLotNotFound
	}
	at = at.UTC()
	lot.Deleted = true
	lot.DeletedAt = &at
	return nil
}

func (r *LotRepository) List(_ context.Context, f ports.ListLotsFilter) ([]*domain.Lot, int64, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	search := strings.ToLower(f.Search)
	var matched []*domain.Lot
	for _, lot := range r.s.lots {
		if lot.Deleted {
			continue
		}
		if f.OwnerID != "" && lot.OwnerID != f.OwnerID {
			continue
		}
		if f.Name != "" && lot.Name != f.Name {
			continue
		}
		if f.Currency != "" && lot.BasePrice.Currency() != f.Currency {
			continue
		}
		if f.Active != nil && lot.IsActive(f.Now) != *f.Active {
			continue
		}
		if search != "" && !matchesSearch(lot, search) {
			continue
		}
		matched = append(matched, lot)
	}

	slices.SortFunc(matched, func(a, b *domain.Lot) int {
		if f.Desc {
			a, b = b, a
		}
		if c := compareLots(a, b, f.OrderBy); c != 0 {
			return c
		}
		return cmp.Compare(a.PublicID, b.PublicID)
	})

	out := page(matched, f.Limit, f.Offset)
	res := make([]*domain.Lot, len(out))
	for i, lot := range out {
		res[i] = cloneLot(lot)
	}
	return res, int64(len(matched)), nil
}

func (r *LotRepository) ListExpiredUnsold(_ context.Context, now time.Time, limit int) ([]string, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	var expired []*domain.Lot
	for id, lot := range r.s.lots {
		if lot.Deleted || lot.IsActive(now) {
			continue
		}
		if _, sold := r.s.sales[id]; sold {
			continue
		}
		expired = append(expired, lot)
	}
	slices.SortFunc(expired, func(a, b *domain.Lot) int { return a.ExpiresAt.Compare(b.ExpiresAt) })

	out := page(expired, limit, 0)
	ids := make([]string, len(out))
	for i, lot := range out {
		ids[i] = lot.PublicID
	}
	return ids, nil
}

func matchesSearch(lot *domain.Lot, needle string) bool {
	if strings.Contains(strings.ToLower(lot.Name), needle) {
		return true
	}
	return lot.Description != nil && strings.Contains(strings.ToLower(*lot.Description), needle)
}

func compareLots(a, b *domain.Lot, field string) int {
	switch field {
	case "name":
		return cmp.Compare(a.Name, b.Name)
	case "modified_at":
		return compareOptionalTime(a.ModifiedAt, b.ModifiedAt)
	case "base_price":
		return a.BasePrice.Amount().Cmp(b.BasePrice.Amount())
	case "expires_at":
		return a.ExpiresAt.Compare(b.ExpiresAt)
	default:
		return a.CreatedAt.Compare(b.CreatedAt)
	}
}

// compareOptionalTime orders nil first.
func compareOptionalTime(a, b *time.Time) int {
	switch {
	case a == nil && b == nil:
		return 0
	case a == nil:
		return -1
	case b == nil:
		return 1
	}
	return a.Compare(*b)
}
