package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/shopspring/decimal"

	"github.com/lotmarket/auction-api/internal/core/domain"
)

const (
	selectSale = `SELECT s.lot_public_id, s.closed_at,
       b.public_id, b.bidder_id, b.price, b.currency, b.submitted_at
FROM sales s
LEFT JOIN bids b ON b.public_id = s.winning_bid_id
WHERE s.lot_public_id = $1`

	insertSale = `INSERT INTO sales (lot_public_id, winning_bid_id, closed_at) VALUES ($1, $2, $3)`
)

type SaleRepository struct {
	db *sql.DB
}

func NewSaleRepository(db *sql.DB) *SaleRepository {
	return &SaleRepository{db: db}
}

func (r *SaleRepository) FindByLot(ctx context.Context, lotID string) (*domain.Sale, error) {
	var (
		sale        domain.Sale
		bidID       sql.NullString
		bidderID    sql.NullString
		amount      decimal.NullDecimal
		currency    sql.NullString
		submittedAt sql.NullTime
	)
	err := r.db.QueryRowContext(ctx, selectSale, lotID).Scan(
		&sale.LotID, &sale.ClosedAt, &bidID, &bidderID, &amount, &currency, &submittedAt,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, domain.ErrSaleNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("find sale: %w", err)
	}
	sale.ClosedAt = sale.ClosedAt.UTC()

	if bidID.Valid {
		price, err := domain.NewMoneyFromDecimal(amount.Decimal, currency.String)
		if err != nil {
			return nil, fmt.Errorf("sale %s winning price: %w", lotID, err)
		}
		sale.WinningBid = &domain.Bid{
			PublicID:    bidID.String,
			LotID:       sale.LotID,
			BidderID:    bidderID.String,
			Price:       price,
			SubmittedAt: submittedAt.Time.UTC(),
		}
	}
	return &sale, nil
}

func (r *SaleRepository) Create(ctx context.Context, sale *domain.Sale) error {
	var winner sql.NullString
	if sale.WinningBid != nil {
		winner = nullString(sale.WinningBid.PublicID)
	}
	if _, err := r.db.ExecContext(ctx, insertSale, sale.LotID, winner, sale.ClosedAt.UTC()); err != nil {
		if isUniqueViolation(err) {
			return domain.ErrSaleExists
		}
		return fmt.Errorf("insert sale: %w", err)
	}
	return nil
}
