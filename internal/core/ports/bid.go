package ports

import (
	"context"
	"iter"

	"github.com/lotmarket/auction-api/internal/core/domain"
)

// Bid orderings.
const (
	BidOrderSubmittedAt = "submitted_at"
	BidOrderPrice       = "price"
)

// BidQuery filters and orders a lot's ledger. Soft-deleted bids are always excluded.
type BidQuery struct {
	BidderID string // optional
	OrderBy  string // BidOrderSubmittedAt (default) or BidOrderPrice
	Desc     bool
	Limit    int
	Offset   int
}

// BidRepository is the append-only bid ledger.
type BidRepository interface {
	// Append inserts bid only if its price is strictly greater than every
	// undeleted bid of the lot; otherwise it returns domain.ErrBidTooLow.
	Append(ctx context.Context, bid *domain.Bid) error
	// Highest returns nil without error when the lot has no bids.
	Highest(ctx context.Context, lotID string) (*domain.Bid, error)
	List(ctx context.Context, lotID string, q BidQuery) ([]*domain.Bid, int64, error)
	FindByPublicID(ctx context.Context, publicID string) (*domain.Bid, error)
}

// SubmitBidInput is the DTO for bid admission.
type SubmitBidInput struct {
	LotID    string
	BidderID string
	Amount   string
	Currency string // empty = the lot's currency
}

// BidView is a bid with its derived highest flag.
type BidView struct {
	Bid       *domain.Bid
	IsHighest bool
}

// BidPage is one page of a lot's ledger.
type BidPage struct {
	Items  []*domain.Bid
	Total  int64
	Limit  int
	Offset int
}

type BidService interface {
	SubmitBid(ctx context.Context, in SubmitBidInput) (*BidView, error)
	ListBids(ctx context.Context, lotID string, q BidQuery) (*BidPage, error)
	IterateBids(ctx context.Context, lotID string, q BidQuery) iter.Seq2[*domain.Bid, error]
	GetHighestBid(ctx context.Context, lotID string) (*domain.Bid, error)
	GetBid(ctx context.Context, bidID string) (*BidView, error)
}
