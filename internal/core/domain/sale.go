package domain

import "time"

// Sale is the immutable outcome of a closed auction. WinningBid is nil when the
// lot closed without bids.
type Sale struct {
	LotID      string    `json:"lot_id"`
	WinningBid *Bid      `json:"winning_bid"`
	ClosedAt   time.Time `json:"closed_at"`
}

// NewSale snapshots the ledger's highest bid at closure time.
func NewSale(lot *Lot, highest *Bid, now time.Time) *Sale {
	var winner *Bid
	if highest != nil {
		snap := *highest
		winner = &snap
	}
	return &Sale{LotID: lot.PublicID, WinningBid: winner, ClosedAt: now.UTC()}
}

// HasWinner reports whether the auction closed with at least one bid.
func (s *Sale) HasWinner() bool { return s.WinningBid != nil }
