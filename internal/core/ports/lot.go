package ports

import (
	"context"
	"time"

	"github.com/lotmarket/auction-api/internal/core/domain"
)

// MaxPageSize caps every list endpoint.
const MaxPageSize = 100

// LotOrderFields are the columns lots can be ordered by.
var LotOrderFields = map[string]bool{
	"name":        true,
	"created_at":  true,
	"modified_at": true,
	"base_price":  true,
	"expires_at":  true,
}

// ListLotsFilter carries the query parameters for listing lots.
// Soft-deleted lots are always excluded.
type ListLotsFilter struct {
	OwnerID  string // optional
	Name     string // optional, exact match
	Currency string // optional
	Search   string // optional: partial match on name or description
	Active   *bool  // optional: nil = any state
	Now      time.Time
	OrderBy  string // one of LotOrderFields, default created_at
	Desc     bool
	Limit    int
	Offset   int
}

// LotRepository defines persistence operations for lots.
type LotRepository interface {
	Create(ctx context.Context, lot *domain.Lot) error
	// FindByPublicID returns domain.ErrLotNotFound for missing and soft-deleted lots.
	FindByPublicID(ctx context.Context, publicID string) (*domain.Lot, error)
	Update(ctx context.Context, lot *domain.Lot) error
	SoftDelete(ctx context.Context, publicID string, at time.Time) error
	List(ctx context.Context, filter ListLotsFilter) ([]*domain.Lot, int64, error)
	// ListExpiredUnsold returns ids of undeleted lots expired at now without a sale.
	ListExpiredUnsold(ctx context.Context, now time.Time, limit int) ([]string, error)
}

// CreateLotInput carries all data needed to list a new lot.
type CreateLotInput struct {
	OwnerID     string
	Name        string
	Description *string
	Condition   string
	BasePrice   string
	Currency    string // empty = configured default
	ExpiresAt   time.Time
}

// UpdateLotInput carries field deltas. Nil fields are left untouched.
type UpdateLotInput struct {
	LotID       string
	ActorID     string
	Name        *string
	Description *string
	Condition   *string
	BasePrice   *string
	Currency    *string
}

// ListLotsInput is the transport-level list request.
type ListLotsInput struct {
	OwnerID  string
	Name     string
	Currency string
	Search   string
	Active   *bool
	Ordering string // e.g. "-created_at"
	Limit    int
	Offset   int
}

// LotDetail is a lot with its read-time derived fields.
type LotDetail struct {
	Lot        *domain.Lot
	IsActive   bool
	HighestBid *domain.Bid
}

// LotPage is one page of lots.
type LotPage struct {
	Items  []LotDetail
	Total  int64
	Limit  int
	Offset int
}

type LotService interface {
	CreateLot(ctx context.Context, in CreateLotInput) (*LotDetail, error)
	GetLot(ctx context.Context, lotID string) (*LotDetail, error)
	ListLots(ctx context.Context, in ListLotsInput) (*LotPage, error)
	UpdateLot(ctx context.Context, in UpdateLotInput) (*LotDetail, error)
	DeleteLot(ctx context.Context, lotID, actorID string) error
}
