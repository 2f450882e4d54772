package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"github.com/lotmarket/auction-api/internal/core/domain"
	"github.com/lotmarket/auction-api/internal/core/ports"
)

const lotColumns = `public_id, owner_id, name, description, condition, base_price, currency, created_at, modified_at, expires_at, deleted, deleted_at`

const (
	insertLot = `INSERT INTO lots (public_id, owner_id, name, description, condition, base_price, currency, created_at, modified_at, expires_at)
VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)`

	selectLot = `SELECT ` + lotColumns + ` FROM lots WHERE public_id = $1 AND deleted = FALSE`

	updateLot = `UPDATE lots SET name = $2, description = $3, condition = $4, base_price = $5, currency = $6, modified_at = $7
WHERE public_id = $1 AND deleted = FALSE`

	softDeleteLot = `UPDATE lots SET deleted = TRUE, deleted_at = $2 WHERE public_id = $1 AND deleted = FALSE`

	selectExpiredUnsold = `SELECT l.public_id FROM lots l
LEFT JOIN sales s ON s.lot_public_id = l.public_id
WHERE l.deleted = FALSE AND l.expires_at <= $1 AND s.lot_public_id IS NULL
ORDER BY l.expires_at ASC
LIMIT $2`
)

// lotOrderColumns maps ordering fields onto columns. Only these are ever
// interpolated into SQL.
var lotOrderColumns = map[string]string{
	"name":        "name",
	"created_at":  "created_at",
	"modified_at": "modified_at",
	"base_price":  "base_price",
	"expires_at":  "expires_at",
}

type LotRepository struct {
	db *sql.DB
}

func NewLotRepository(db *sql.DB) *LotRepository {
	return &LotRepository{db: db}
}

func (r *LotRepository) Create(ctx context.Context, lot *domain.Lot) error {
	_, err := r.db.ExecContext(ctx, insertLot,
		lot.PublicID,
		nullString(lot.OwnerID),
		lot.Name,
		lot.Description,
		string(lot.Condition),
		lot.BasePrice.Amount(),
		lot.BasePrice.Currency(),
		lot.CreatedAt.UTC(),
		nullTime(lot.ModifiedAt),
		lot.ExpiresAt.UTC(),
	)
	if err != nil {
		return fmt.Errorf("insert lot: %w", err)
	}
	return nil
}

func (r *LotRepository) FindByPublicID(ctx context.Context, publicID string) (*domain.Lot, error) {
	lot, err := scanLot(r.db.QueryRowContext(ctx, selectLot, publicID))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, domain.ErrLotNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("find lot: %w", err)
	}
	return lot, nil
}

func (r *LotRepository) Update(ctx context.Context, lot *domain.Lot) error {
	res, err := r.db.ExecContext(ctx, updateLot,
		lot.PublicID,
		lot.Name,
		lot.Description,
		string(lot.Condition),
		lot.BasePrice.Amount(),
		lot.BasePrice.Currency(),
		nullTime(lot.ModifiedAt),
	)
	if err != nil {
		return fmt.Errorf("update lot: %w", err)
	}
	return expectOneRow(res, domain.ErrLotNotFound)
}

func (r *LotRepository) SoftDelete(ctx context.Context, publicID string, at time.Time) error {
	res, err := r.db.ExecContext(ctx, softDeleteLot, publicID, at.UTC())
	if err != nil {
		return fmt.Errorf("delete lot: %w", err)
	}
	return expectOneRow(res, domain.ErrLotNotFound)
}

func (r *LotRepository) List(ctx context.Context, f ports.ListLotsFilter) ([]*domain.Lot, int64, error) {
	where, args := buildLotFilter(f)

	var total int64
	if err := r.db.QueryRowContext(ctx, `SELECT count(*) FROM lots WHERE `+where, args...).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("count lots: %w", err)
	}

	column, ok := lotOrderColumns[f.OrderBy]
	if !ok {
		column = "created_at"
	}
	direction := "ASC"
	if f.Desc {
		direction = "DESC"
	}
	query := fmt.Sprintf(`SELECT %s FROM lots WHERE %s ORDER BY %s %s, public_id ASC LIMIT $%d OFFSET $%d`,
		lotColumns, where, column, direction, len(args)+1, len(args)+2)
	args = append(args, f.Limit, f.Offset)

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, 0, fmt.Errorf("list lots: %w", err)
	}
	defer rows.Close()

	lots := make([]*domain.Lot, 0, f.Limit)
	for rows.Next() {
		lot, err := scanLot(rows)
		if err != nil {
			return nil, 0, fmt.Errorf("scan lot: %w", err)
		}
		lots = append(lots, lot)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, err
	}
	return lots, total, nil
}

func (r *LotRepository) ListExpiredUnsold(ctx context.Context, now time.Time, limit int) ([]string, error) {
	rows, err := r.db.QueryContext(ctx, selectExpiredUnsold, now.UTC(), limit)
	if err != nil {
		return nil, fmt.Errorf("list expired lots: %w", err)
	}
	defer rows.Close()

	var ids []string
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, err
		}
		ids = append(ids, id)
	}
	return ids, rows.Err()
}

func buildLotFilter(f ports.ListLotsFilter) (string, []any) {
	clauses := []string{"deleted = FALSE"}
	var args []any
	add := func(clause string, v any) {
		args = append(args, v)
		clauses = append(clauses, fmt.Sprintf(clause, len(args)))
	}

	if f.OwnerID != "" {
		add("owner_id = $%d", f.OwnerID)
	}
	if f.Name != "" {
		add("name = $%d", f.Name)
	}
	if f.Currency != "" {
		add("currency = $%d", f.Currency)
	}
	if f.Active != nil {
		if *f.Active {
			add("expires_at > $%d", f.Now.UTC())
		} else {
			add("expires_at <= $%d", f.Now.UTC())
		}
	}
	if f.Search != "" {
		args = append(args, "%"+f.Search+"%")
		n := len(args)
		clauses = append(clauses, fmt.Sprintf("(name ILIKE $%d OR description ILIKE $%d)", n, n))
	}
	return strings.Join(clauses, " AND "), args
}

func scanLot(row scanner) (*domain.Lot, error) {
	var (
		lot         domain.Lot
		ownerID     sql.NullString
		description sql.NullString
		condition   string
		amount      decimal.Decimal
		currency    string
		modifiedAt  sql.NullTime
		deletedAt   sql.NullTime
	)
	if err := row.Scan(
		&lot.PublicID, &ownerID, &lot.Name, &description, &condition, &amount, &currency,
		&lot.CreatedAt, &modifiedAt, &lot.ExpiresAt, &lot.Deleted, &deletedAt,
	); err != nil {
		return nil, err
	}

	price, err := domain.NewMoneyFromDecimal(amount, currency)
	if err != nil {
		return nil, fmt.Errorf("lot %s base price: %w", lot.PublicID, err)
	}
	lot.OwnerID = ownerID.String
	lot.Description = strPtr(description)
	lot.Condition = domain.Condition(condition)
	lot.BasePrice = price
	lot.CreatedAt = lot.CreatedAt.UTC()
	lot.ExpiresAt = lot.ExpiresAt.UTC()
	lot.ModifiedAt = timePtr(modifiedAt)
	lot.DeletedAt = timePtr(deletedAt)
	return &lot, nil
}

func expectOneRow(res sql.Result, notFound error) error {
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return notFound
	}
	return nil
}
