package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/shopspring/decimal"

	"github.com/lotmarket/auction-api/internal/core/domain"
	"github.com/lotmarket/auction-api/internal/core/ports"
)

const bidColumns = `public_id, lot_public_id, bidder_id, price, currency, submitted_at, deleted, deleted_at`

const (
	// lockLotForBid takes the lot row lock. Concurrent appends on one lot
	// queue behind it, so appendBid's NOT EXISTS sees every committed bid
	// even under READ COMMITTED and without the service lot lock.
	lockLotForBid = `SELECT 1 FROM lots WHERE public_id = $1 AND deleted = FALSE FOR UPDATE`

	// appendBid inserts only when the price beats the base price and every
	// live bid of the lot.
	appendBid = `INSERT INTO bids (public_id, lot_public_id, bidder_id, price, currency, submitted_at)
SELECT $1::text, l.public_id, $3::text, $4::numeric, $5::text, $6::timestamptz
FROM lots l
WHERE l.public_id = $2 AND l.deleted = FALSE AND l.currency = $5 AND $4::numeric > l.base_price
  AND NOT EXISTS (
    SELECT 1 FROM bids b WHERE b.lot_public_id = l.public_id AND b.deleted = FALSE AND b.price >= $4::numeric
  )`

	selectHighestBid = `SELECT ` + bidColumns + ` FROM bids
WHERE lot_public_id = $1 AND deleted = FALSE
ORDER BY price DESC, submitted_at ASC, public_id ASC
LIMIT 1`

	selectBid = `SELECT ` + bidColumns + ` FROM bids WHERE public_id = $1 AND deleted = FALSE`
)

var bidOrderColumns = map[string]string{
	ports.BidOrderSubmittedAt: "submitted_at",
	ports.BidOrderPrice:       "price",
}

type BidRepository struct {
	db *sql.DB
}

func NewBidRepository(db *sql.DB) *BidRepository {
	return &BidRepository{db: db}
}

func (r *BidRepository) Append(ctx context.Context, bid *domain.Bid) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin bid append: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	var one int
	if err := tx.QueryRowContext(ctx, lockLotForBid, bid.LotID).Scan(&one); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return domain.ErrLotNotFound
		}
		return fmt.Errorf("lock lot for bid: %w", err)
	}

	res, err := tx.ExecContext(ctx, appendBid,
		bid.PublicID,
		bid.LotID,
		bid.BidderID,
		bid.Price.Amount(),
		bid.Price.Currency(),
		bid.SubmittedAt.UTC(),
	)
	if err != nil {
		return fmt.Errorf("insert bid: %w", err)
	}
	if err := expectOneRow(res, domain.ErrBidTooLow); err != nil {
		return err
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit bid: %w", err)
	}
	return nil
}

func (r *BidRepository) Highest(ctx context.Context, lotID string) (*domain.Bid, error) {
	bid, err := scanBid(r.db.QueryRowContext(ctx, selectHighestBid, lotID))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("highest bid: %w", err)
	}
	return bid, nil
}

func (r *BidRepository) List(ctx context.Context, lotID string, q ports.BidQuery) ([]*domain.Bid, int64, error) {
	where := "lot_public_id = $1 AND deleted = FALSE"
	args := []any{lotID}
	if q.BidderID != "" {
		args = append(args, q.BidderID)
		where += " AND bidder_id = $2"
	}

	var total int64
	if err := r.db.QueryRowContext(ctx, `SELECT count(*) FROM bids WHERE `+where, args...).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("count bids: %w", err)
	}

	column, ok := bidOrderColumns[q.OrderBy]
	if !ok {
		column = "submitted_at"
	}
	direction := "ASC"
	if q.Desc {
		direction = "DESC"
	}
	query := fmt.Sprintf(`SELECT %s FROM bids WHERE %s ORDER BY %s %s, public_id ASC LIMIT $%d OFFSET $%d`,
		bidColumns, where, column, direction, len(args)+1, len(args)+2)
	args = append(args, q.Limit, q.Offset)

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, 0, fmt.Errorf("list bids: %w", err)
	}
	defer rows.Close()

	bids := make([]*domain.Bid, 0, q.Limit)
	for rows.Next() {
		b, err := scanBid(rows)
		if err != nil {
			return nil, 0, fmt.Errorf("scan bid: %w", err)
		}
		bids = append(bids, b)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, err
	}
	return bids, total, nil
}

func (r *BidRepository) FindByPublicID(ctx context.Context, publicID string) (*domain.Bid, error) {
	bid, err := scanBid(r.db.QueryRowContext(ctx, selectBid, publicID))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, domain.ErrBidNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("find bid: %w", err)
	}
	return bid, nil
}

func scanBid(row scanner) (*domain.Bid, error) {
	var (
		bid       domain.Bid
		amount    decimal.Decimal
		currency  string
		deletedAt sql.NullTime
	)
	if err := row.Scan(&bid.PublicID, &bid.LotID, &bid.BidderID, &amount, &currency, &bid.SubmittedAt, &bid.Deleted, &deletedAt); err != nil {
		return nil, err
	}
	price, err := domain.NewMoneyFromDecimal(amount, currency)
	if err != nil {
		return nil, fmt.Errorf("bid %s price: %w", bid.PublicID, err)
	}
	bid.Price = price
	bid.SubmittedAt = bid.SubmittedAt.UTC()
	bid.DeletedAt = timePtr(deletedAt)
	return &bid, nil
}
