package memory

import (
	"context"
	"slices"

	"github.com/lotmarket/auction-api/internal/core/domain"
	"github.com/lotmarket/auction-api/internal/core/ports"
)

type BidRepository struct {
	s *Store
}

func NewBidRepository(s *Store) *BidRepository {
	return &BidRepository{s: s}
}

// Append admits bid only above the lot's base price and its current highest.
func (r *BidRepository) Append(_ context.Context, bid *domain.Bid) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	lot, ok := r.s.lots[bid.LotID]
	if !ok || lot.Deleted {
		return domain.ErrLotNotFound
	}
	if err := domain.CheckPrice(domain.AdmissionFloor(lot, domain.HighestBid(r.s.bids[bid.LotID])), bid.Price); err != nil {
		return err
	}

	stored := cloneBid(bid)
	r.s.bids[bid.LotID] = append(r.s.bids[bid.LotID], stored)
	r.s.bidsByID[bid.PublicID] = stored
	return nil
}

func (r *BidRepository) Highest(_ context.Context, lotID string) (*domain.Bid, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	top := domain.HighestBid(r.s.bids[lotID])
	if top == nil {
		return nil, nil
	}
	return cloneBid(top), nil
}

func (r *BidRepository) List(_ context.Context, lotID string, q ports.BidQuery) ([]*domain.Bid, int64, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	var matched []*domain.Bid
	for _, b := range r.s.bids[lotID] {
		if b.Deleted || (q.BidderID != "" && b.BidderID != q.BidderID) {
			continue
		}
		matched = append(matched, b)
	}
	slices.SortStableFunc(matched, func(a, b *domain.Bid) int {
		if q.Desc {
			a, b = b, a
		}
		if q.OrderBy == ports.BidOrderPrice {
			return a.Price.Amount().Cmp(b.Price.Amount())
		}
		return a.SubmittedAt.Compare(b.SubmittedAt)
	})

	out := page(matched, q.Limit, q.Offset)
	res := make([]*domain.Bid, len(out))
	for i, b := range out {
		res[i] = cloneBid(b)
	}
	return res, int64(len(matched)), nil
}

func (r *BidRepository) FindByPublicID(_ context.Context, publicID string) (*domain.Bid, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	b, ok := r.s.bidsByID[publicID]
	if !ok || b.Deleted {
		return nil, domain.ErrBidNotFound
	}
	return cloneBid(b), nil
}
