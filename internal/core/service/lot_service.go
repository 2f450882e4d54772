package service

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/lotmarket/auction-api/internal/core/domain"
	"github.com/lotmarket/auction-api/internal/core/ports"
)

// LotService implements the lot lifecycle use cases.
type LotService struct {
	lots            ports.LotRepository
	bids            ports.BidRepository
	locker          ports.LotLocker
	audit           ports.AuditLog
	defaultCurrency string
	logger          zerolog.Logger
	now             func() time.Time
}

func NewLotService(
	lots ports.LotRepository,
	bids ports.BidRepository,
	locker ports.LotLocker,
	audit ports.AuditLog,
	defaultCurrency string,
	logger zerolog.Logger,
) *LotService {
	return &LotService{
		lots:            lots,
		bids:            bids,
		locker:          locker,
		audit:           audit,
		defaultCurrency: defaultCurrency,
		logger:          logger,
		now:             func() time.Time { return time.Now().UTC() },
	}
}

// CreateLot lists a new lot. An expires_at in the past yields an expired lot.
func (s *LotService) CreateLot(ctx context.Context, in ports.CreateLotInput) (*ports.LotDetail, error) {
	condition, err := domain.ParseCondition(in.Condition)
	if err != nil {
		return nil, err
	}
	currency := in.Currency
	if currency == "" {
		currency = s.defaultCurrency
	}
	price, err := domain.NewMoney(in.BasePrice, currency)
	if err != nil {
		return nil, fmt.Errorf("base_price: %w", err)
	}

	now := s.now()
	lot, err := domain.NewLot(domain.NewLotParams{
		PublicID:    uuid.NewString(),
		OwnerID:     in.OwnerID,
		Name:        in.Name,
		Description: in.Description,
		Condition:   condition,
		BasePrice:   price,
		ExpiresAt:   in.ExpiresAt,
		Now:         now,
	})
	if err != nil {
		return nil, err
	}

	if err := s.lots.Create(ctx, lot); err != nil {
		s.logger.Error().Err(err).Msg("failed to create lot")
		return nil, err
	}

	recordAudit(ctx, s.audit, s.logger, domain.AuditEvent{
		Kind:    domain.AuditLotCreated,
		LotID:   lot.PublicID,
		ActorID: lot.OwnerID,
		Amount:  lot.BasePrice.String(),
		At:      now,
	})
	s.logger.Info().Str("lot_id", lot.PublicID).Str("owner_id", lot.OwnerID).Time("expires_at", lot.ExpiresAt).Msg("lot created")

	return &ports.LotDetail{Lot: lot, IsActive: lot.IsActive(now)}, nil
}

func (s *LotService) GetLot(ctx context.Context, lotID string) (*ports.LotDetail, error) {
	lot, err := s.lots.FindByPublicID(ctx, lotID)
	if err != nil {
		return nil, err
	}
	return s.detail(ctx, lot, s.now())
}

// ListLots returns one page of undeleted lots.
func (s *LotService) ListLots(ctx context.Context, in ports.ListLotsInput) (*ports.LotPage, error) {
	orderBy, desc, err := parseOrdering(in.Ordering, "created_at", ports.LotOrderFields)
	if err != nil {
		return nil, err
	}
	limit, offset := clampPage(in.Limit, in.Offset)
	now := s.now()

	lots, total, err := s.lots.List(ctx, ports.ListLotsFilter{
		OwnerID:  in.OwnerID,
		Name:     in.Name,
		Currency: strings.ToUpper(in.Currency),
		Search:   in.Search,
		Active:   in.Active,
		Now:      now,
		OrderBy:  orderBy,
		Desc:     desc,
		Limit:    limit,
		Offset:   offset,
	})
	if err != nil {
		return nil, err
	}

	items := make([]ports.LotDetail, 0, len(lots))
	for _, lot := range lots {
		d, err := s.detail(ctx, lot, now)
		if err != nil {
			return nil, err
		}
		items = append(items, *d)
	}
	return &ports.LotPage{Items: items, Total: total, Limit: limit, Offset: offset}, nil
}

// UpdateLot applies field deltas to an active lot owned by the actor.
func (s *LotService) UpdateLot(ctx context.Context, in ports.UpdateLotInput) (*ports.LotDetail, error) {
	unlock, err := s.locker.Lock(ctx, in.LotID)
	if err != nil {
		return nil, err
	}
	defer unlock()

	lot, err := s.lots.FindByPublicID(ctx, in.LotID)
	if err != nil {
		return nil, err
	}
	if !lot.IsOwnedBy(in.ActorID) {
		return nil, domain.ErrNotOwner
	}
	now := s.now()
	if err := lot.CheckModifiable(now); err != nil {
		return nil, err
	}

	changes, err := buildLotChanges(lot, in)
	if err != nil {
		return nil, err
	}
	if changes.IsEmpty() {
		return s.detail(ctx, lot, now)
	}

	highest, err := s.bids.Highest(ctx, lot.PublicID)
	if err != nil {
		return nil, err
	}
	if changes.BasePrice != nil && highest != nil {
		return nil, fmt.Errorf("%w: base price is fixed once bidding has started", domain.ErrLotNotModifiable)
	}

	updated, err := lot.Apply(changes, now)
	if err != nil {
		return nil, err
	}
	if err := s.lots.Update(ctx, &updated); err != nil {
		s.logger.Error().Err(err).Str("lot_id", lot.PublicID).Msg("failed to update lot")
		return nil, err
	}

	recordAudit(ctx, s.audit, s.logger, domain.AuditEvent{
		Kind:    domain.AuditLotUpdated,
		LotID:   lot.PublicID,
		ActorID: in.ActorID,
		At:      now,
	})
	s.logger.Info().Str("lot_id", lot.PublicID).Msg("lot updated")

	return &ports.LotDetail{Lot: &updated, IsActive: updated.IsActive(now), HighestBid: highest}, nil
}

// DeleteLot soft-deletes an inactive lot owned by the actor.
func (s *LotService) DeleteLot(ctx context.Context, lotID, actorID string) error {
	unlock, err := s.locker.Lock(ctx, lotID)
	if err != nil {
		return err
	}
	defer unlock()

	lot, err := s.lots.FindByPublicID(ctx, lotID)
	if err != nil {
		return err
	}
	if !lot.IsOwnedBy(actorID) {
		return domain.ErrNotOwner
	}
	now := s.now()
	if err := lot.CheckDeletable(now); err != nil {
		return err
	}
	if err := s.lots.SoftDelete(ctx, lotID, now); err != nil {
		s.logger.Error().Err(err).Str("lot_id", lotID).Msg("failed to delete lot")
		return err
	}

	recordAudit(ctx, s.audit, s.logger, domain.AuditEvent{
		Kind:    domain.AuditLotDeleted,
		LotID:   lotID,
		ActorID: actorID,
		At:      now,
	})
	s.logger.Info().Str("lot_id", lotID).Msg("lot deleted")
	return nil
}

func (s *LotService) detail(ctx context.Context, lot *domain.Lot, now time.Time) (*ports.LotDetail, error) {
	highest, err := s.bids.Highest(ctx, lot.PublicID)
	if err != nil {
		return nil, err
	}
	return &ports.LotDetail{Lot: lot, IsActive: lot.IsActive(now), HighestBid: highest}, nil
}

func buildLotChanges(lot *domain.Lot, in ports.UpdateLotInput) (domain.LotChanges, error) {
	changes := domain.LotChanges{Name: in.Name, Description: in.Description}
	if in.Condition != nil {
		c, err := domain.ParseCondition(*in.Condition)
		if err != nil {
			return changes, err
		}
		changes.Condition = &c
	}
	if in.BasePrice != nil || in.Currency != nil {
		amount := lot.BasePrice.Amount().StringFixed(2)
		if in.BasePrice != nil {
			amount = *in.BasePrice
		}
		currency := lot.BasePrice.Currency()
		if in.Currency != nil {
			currency = *in.Currency
		}
		price, err := domain.NewMoney(amount, currency)
		if err != nil {
			return changes, fmt.Errorf("base_price: %w", err)
		}
		changes.BasePrice = &price
	}
	return changes, nil
}

// parseOrdering splits "-field" into (field, desc) and checks it against allowed.
func parseOrdering(raw, fallback string, allowed map[string]bool) (string, bool, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return fallback, false, nil
	}
	desc := strings.HasPrefix(raw, "-")
	field := strings.TrimPrefix(raw, "-")
	if !allowed[field] {
		return "", false, fmt.Errorf("%w: cannot order by %q", domain.ErrValidation, field)
	}
	return field, desc, nil
}
