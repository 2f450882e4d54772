package metrics

import (
	"fmt"
	"testing"

	"github.com/prometheus/client_golang/prometheus/testutil"

	"github.com/lotmarket/auction-api/internal/core/domain"
	"github.com/lotmarket/auction-api/internal/core/ports"
)

func TestRejectReason(t *testing.T) {
	cases := []struct {
		err  error
		want string
	}{
		{fmt.Errorf("%w: must be greater than 10.00 GBP", domain.ErrBidTooLow), "too_low"},
		{domain.ErrAuctionClosed, "closed"},
		{domain.ErrOwnerCannotBid, "owner"},
		{domain.ErrInvalidAmount, "invalid"},
		{domain.ErrLotNotFound, "not_found"},
		{ports.ErrLockTimeout, "busy"},
		{fmt.Errorf("boom"), "error"},
	}
	for _, tc := range cases {
		if got := RejectReason(tc.err); got != tc.want {
			t.Errorf("RejectReason(%v) = %q, want %q", tc.err, got, tc.want)
		}
	}
}

func TestObserveSale(t *testing.T) {
	won := SalesFinalizedTotal.WithLabelValues("won")
	unsold := SalesFinalizedTotal.WithLabelValues("unsold")
	beforeWon, beforeUnsold := testutil.ToFloat64(won), testutil.ToFloat64(unsold)

	ObserveSale(&domain.Sale{LotID: "l1", WinningBid: &domain.Bid{PublicID: "b1"}})
	ObserveSale(&domain.Sale{LotID: "l2"})

	if got := testutil.ToFloat64(won) - beforeWon; got != 1 {
		t.Errorf("won delta = %v, want 1", got)
	}
	if got := testutil.ToFloat64(unsold) - beforeUnsold; got != 1 {
		t.Errorf("unsold delta = %v, want 1", got)
	}
}
