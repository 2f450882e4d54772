package service

import (
	"context"
	"errors"
	"time"

	"github.com/rs/zerolog"

	"github.com/lotmarket/auction-api/internal/core/domain"
	"github.com/lotmarket/auction-api/internal/core/ports"
)

// SaleService finalizes expired auctions into immutable sales.
type SaleService struct {
	lots   ports.LotRepository
	bids   ports.BidRepository
	sales  ports.SaleRepository
	locker ports.LotLocker
	audit  ports.AuditLog
	logger zerolog.Logger
	now    func() time.Time
}

func NewSaleService(
	lots ports.LotRepository,
	bids ports.BidRepository,
	sales ports.SaleRepository,
	locker ports.LotLocker,
	audit ports.AuditLog,
	logger zerolog.Logger,
) *SaleService {
	return &SaleService{
		lots:   lots,
		bids:   bids,
		sales:  sales,
		locker: locker,
		audit:  audit,
		logger: logger,
		now:    func() time.Time { return time.Now().UTC() },
	}
}

// CloseLot finalizes the lot on behalf of its owner. Calling it again returns
// the sale created the first time.
func (s *SaleService) CloseLot(ctx context.Context, lotID, actorID string) (*domain.Sale, error) {
	return s.finalize(ctx, lotID, func(lot *domain.Lot) error {
		if !lot.IsOwnedBy(actorID) {
			return domain.ErrNotOwner
		}
		return nil
	}, actorID)
}

// GetSale returns the lot's sale, finalizing an expired lot on first request.
func (s *SaleService) GetSale(ctx context.Context, lotID string) (*domain.Sale, error) {
	if _, err := s.lots.FindByPublicID(ctx, lotID); err != nil {
		return nil, err
	}
	sale, err := s.sales.FindByLot(ctx, lotID)
	if err == nil {
		return sale, nil
	}
	if !errors.Is(err, domain.ErrSaleNotFound) {
		return nil, err
	}
	return s.FinalizeExpired(ctx, lotID)
}

// FinalizeExpired closes an expired lot without an acting user.
func (s *SaleService) FinalizeExpired(ctx context.Context, lotID string) (*domain.Sale, error) {
	return s.finalize(ctx, lotID, nil, "")
}

// PendingFinalization lists expired lots that have no sale yet.
func (s *SaleService) PendingFinalization(ctx context.Context, limit int) ([]string, error) {
	if limit <= 0 {
		limit = ports.MaxPageSize
	}
	return s.lots.ListExpiredUnsold(ctx, s.now(), limit)
}

func (s *SaleService) finalize(ctx context.Context, lotID string, authorize func(*domain.Lot) error, actorID string) (*domain.Sale, error) {
	unlock, err := s.locker.Lock(ctx, lotID)
	if err != nil {
		return nil, err
	}
	defer unlock()

	lot, err := s.lots.FindByPublicID(ctx, lotID)
	if err != nil {
		return nil, err
	}
	if authorize != nil {
		if err := authorize(lot); err != nil {
			return nil, err
		}
	}

	existing, err := s.sales.FindByLot(ctx, lotID)
	if err == nil {
		return existing, nil
	}
	if !errors.Is(err, domain.ErrSaleNotFound) {
		return nil, err
	}

	now := s.now()
	if lot.IsActive(now) {
		return nil, domain.ErrLotStillActive
	}

	highest, err := s.bids.Highest(ctx, lotID)
	if err != nil {
		return nil, err
	}
	sale := domain.NewSale(lot, highest, now)
	if err := s.sales.Create(ctx, sale); err != nil {
		if errors.Is(err, domain.ErrSaleExists) {
			return s.sales.FindByLot(ctx, lotID)
		}
		s.logger.Error().Err(err).Str("lot_id", lotID).Msg("failed to create sale")
		return nil, err
	}

	event := domain.AuditEvent{Kind: domain.AuditSaleClosed, LotID: lotID, ActorID: actorID, At: now}
	if sale.HasWinner() {
		event.BidID = sale.WinningBid.PublicID
		event.Amount = sale.WinningBid.Price.String()
	}
	recordAudit(ctx, s.audit, s.logger, event)
	s.logger.Info().Str("lot_id", lotID).Bool("has_winner", sale.HasWinner()).Msg("sale finalized")

	return sale, nil
}
