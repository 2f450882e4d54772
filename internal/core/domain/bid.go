package domain

import (
	"fmt"
	"time"
)

// Bid is a monetary offer against a lot. Admitted bids are immutable.
type Bid struct {
	PublicID    string     `json:"public_id"`
	LotID       string     `json:"lot_id"`
	BidderID    string     `json:"bidder_id"`
	Price       Money      `json:"price"`
	SubmittedAt time.Time  `json:"submitted_at"`
	Deleted     bool       `json:"-"`
	DeletedAt   *time.Time `json:"-"`
}

// outranks reports whether b beats other as the lot's highest bid: a higher
// price wins, equal prices go to the earliest submission.
func (b *Bid) outranks(other *Bid) bool {
	c := b.Price.Amount().Cmp(other.Price.Amount())
	if c != 0 {
		return c > 0
	}
	if !b.SubmittedAt.Equal(other.SubmittedAt) {
		return b.SubmittedAt.Before(other.SubmittedAt)
	}
	return b.PublicID < other.PublicID
}

// HighestBid returns the highest undeleted bid in bids, or nil.
func HighestBid(bids []*Bid) *Bid {
	var best *Bid
	for _, b := range bids {
		if b == nil || b.Deleted {
			continue
		}
		if best == nil || b.outranks(best) {
			best = b
		}
	}
	return best
}

// AdmissionFloor is the price the next bid must strictly exceed: the current
// highest bid, or the base price when the ledger is empty.
func AdmissionFloor(lot *Lot, highest *Bid) Money {
	if highest != nil {
		return highest.Price
	}
	return lot.BasePrice
}

// CheckPrice enforces the ladder rule against floor.
func CheckPrice(floor, price Money) error {
	above, err := price.GreaterThan(floor)
	if err != nil {
		return err
	}
	if !above {
		return fmt.Errorf("%w: must be greater than %s", ErrBidTooLow, floor)
	}
	return nil
}
