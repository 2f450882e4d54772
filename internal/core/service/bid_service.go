package service

import (
	"context"
	"errors"
	"fmt"
	"iter"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/lotmarket/auction-api/internal/core/domain"
	"github.com/lotmarket/auction-api/internal/core/ports"
)

var bidOrderFields = map[string]bool{
	ports.BidOrderSubmittedAt: true,
	ports.BidOrderPrice:       true,
}

// BidService is the bid admission engine and the read side of the ledger.
type BidService struct {
	lots   ports.LotRepository
	bids   ports.BidRepository
	locker ports.LotLocker
	audit  ports.AuditLog
	logger zerolog.Logger
	now    func() time.Time
}

func NewBidService(
	lots ports.LotRepository,
	bids ports.BidRepository,
	locker ports.LotLocker,
	audit ports.AuditLog,
	logger zerolog.Logger,
) *BidService {
	return &BidService{
		lots:   lots,
		bids:   bids,
		locker: locker,
		audit:  audit,
		logger: logger,
		now:    func() time.Time { return time.Now().UTC() },
	}
}

// SubmitBid admits a bid if it strictly exceeds the lot's current floor.
// The floor is read and the bid appended inside the lot's critical section.
func (s *BidService) SubmitBid(ctx context.Context, in ports.SubmitBidInput) (*ports.BidView, error) {
	if in.BidderID == "" {
		return nil, fmt.Errorf("%w: bidder", domain.ErrMissingField)
	}

	unlock, err := s.locker.Lock(ctx, in.LotID)
	if err != nil {
		return nil, err
	}
	defer unlock()

	lot, err := s.lots.FindByPublicID(ctx, in.LotID)
	if err != nil {
		return nil, err
	}
	now := s.now()
	if !lot.IsActive(now) {
		return nil, fmt.Errorf("%w: bidding ended at %s", domain.ErrAuctionClosed, lot.ExpiresAt.Format(time.RFC3339))
	}
	if lot.IsOwnedBy(in.BidderID) {
		return nil, domain.ErrOwnerCannotBid
	}

	currency := in.Currency
	if currency == "" {
		currency = lot.BasePrice.Currency()
	}
	price, err := domain.NewMoney(in.Amount, currency)
	if err != nil {
		return nil, fmt.Errorf("price: %w", err)
	}
	if !price.IsPositive() {
		return nil, fmt.Errorf("%w: price must be positive", domain.ErrInvalidAmount)
	}

	highest, err := s.bids.Highest(ctx, lot.PublicID)
	if err != nil {
		return nil, err
	}
	if err := domain.CheckPrice(domain.AdmissionFloor(lot, highest), price); err != nil {
		return nil, err
	}

	bid := &domain.Bid{
		PublicID:    uuid.NewString(),
		LotID:       lot.PublicID,
		BidderID:    in.BidderID,
		Price:       price,
		SubmittedAt: now,
	}
	if err := s.bids.Append(ctx, bid); err != nil {
		if !errors.Is(err, domain.ErrBidTooLow) {
			s.logger.Error().Err(err).Str("lot_id", lot.PublicID).Msg("failed to append bid")
		}
		return nil, err
	}

	recordAudit(ctx, s.audit, s.logger, domain.AuditEvent{
		Kind:    domain.AuditBidAdmitted,
		LotID:   lot.PublicID,
		ActorID: in.BidderID,
		BidID:   bid.PublicID,
		Amount:  price.String(),
		At:      now,
	})
	s.logger.Info().Str("lot_id", lot.PublicID).Str("bid_id", bid.PublicID).Str("price", price.String()).Msg("bid admitted")

	return &ports.BidView{Bid: bid, IsHighest: true}, nil
}

// ListBids returns one page of the lot's ledger.
func (s *BidService) ListBids(ctx context.Context, lotID string, q ports.BidQuery) (*ports.BidPage, error) {
	q, err := normaliseBidQuery(q)
	if err != nil {
		return nil, err
	}
	if _, err := s.lots.FindByPublicID(ctx, lotID); err != nil {
		return nil, err
	}
	bids, total, err := s.bids.List(ctx, lotID, q)
	if err != nil {
		return nil, err
	}
	return &ports.BidPage{Items: bids, Total: total, Limit: q.Limit, Offset: q.Offset}, nil
}

// IterateBids walks the ledger lazily, one page at a time. Every range over
// the returned sequence starts again from q.Offset.
func (s *BidService) IterateBids(ctx context.Context, lotID string, q ports.BidQuery) iter.Seq2[*domain.Bid, error] {
	return func(yield func(*domain.Bid, error) bool) {
		page, err := normaliseBidQuery(q)
		if err != nil {
			yield(nil, err)
			return
		}
		if _, err := s.lots.FindByPublicID(ctx, lotID); err != nil {
			yield(nil, err)
			return
		}
		for {
			bids, _, err := s.bids.List(ctx, lotID, page)
			if err != nil {
				yield(nil, err)
				return
			}
			for _, b := range bids {
				if !yield(b, nil) {
					return
				}
			}
			if len(bids) < page.Limit {
				return
			}
			page.Offset += len(bids)
		}
	}
}

// GetHighestBid returns nil without error for a lot with no bids.
func (s *BidService) GetHighestBid(ctx context.Context, lotID string) (*domain.Bid, error) {
	if _, err := s.lots.FindByPublicID(ctx, lotID); err != nil {
		return nil, err
	}
	return s.bids.Highest(ctx, lotID)
}

// GetBid returns a single bid. Bids of deleted lots are reported missing.
func (s *BidService) GetBid(ctx context.Context, bidID string) (*ports.BidView, error) {
	bid, err := s.bids.FindByPublicID(ctx, bidID)
	if err != nil {
		return nil, err
	}
	if _, err := s.lots.FindByPublicID(ctx, bid.LotID); err != nil {
		if errors.Is(err, domain.ErrLotNotFound) {
			return nil, domain.ErrBidNotFound
		}
		return nil, err
	}
	highest, err := s.bids.Highest(ctx, bid.LotID)
	if err != nil {
		return nil, err
	}
	return &ports.BidView{Bid: bid, IsHighest: highest != nil && highest.PublicID == bid.PublicID}, nil
}

func normaliseBidQuery(q ports.BidQuery) (ports.BidQuery, error) {
	if q.OrderBy == "" {
		q.OrderBy = ports.BidOrderSubmittedAt
	}
	if !bidOrderFields[q.OrderBy] {
		return q, fmt.Errorf("%w: cannot order bids by %q", domain.ErrValidation, q.OrderBy)
	}
	q.Limit, q.Offset = clampPage(q.Limit, q.Offset)
	return q, nil
}
