// Package metrics defines the Prometheus metrics of the auction API. It is
// the single source of truth for metric names, labels and help strings.
//
// Metrics register with the default registry on package init through
// promauto and are exposed on /metrics.
package metrics

import (
	"errors"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"github.com/lotmarket/auction-api/internal/core/domain"
	"github.com/lotmarket/auction-api/internal/core/ports"
)

const namespace = "auction"

// ── Bid metrics ───────────────────────────────────────────────────────────────

// BidsAdmittedTotal counts bids appended to a ledger.
var BidsAdmittedTotal = promauto.NewCounter(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "bids_admitted_total",
		Help:      "Total number of bids admitted.",
	},
)

// BidsRejectedTotal counts refused bids.
// Label:
//   - reason: "too_low", "closed", "owner", "invalid", "not_found", "busy" or "error"
var BidsRejectedTotal = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "bids_rejected_total",
		Help:      "Total number of bids rejected, by reason.",
	},
	[]string{"reason"},
)

// BidAdmissionDuration measures submit_bid end to end, lock wait included.
var BidAdmissionDuration = promauto.NewHistogram(
	prometheus.HistogramOpts{
		Namespace: namespace,
		Name:      "bid_admission_duration_seconds",
		Help:      "Duration of bid admission including the per-lot lock wait.",
		Buckets:   prometheus.DefBuckets,
	},
)

// ── Lot metrics ───────────────────────────────────────────────────────────────

// LotsCreatedTotal counts listed lots.
// Label:
//   - condition: NEW_UNOPENED, NEW_UNUSED, USED or DEFECTIVE
var LotsCreatedTotal = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "lots_created_total",
		Help:      "Total number of lots created, by condition.",
	},
	[]string{"condition"},
)

// SalesFinalizedTotal counts closed auctions.
// Label:
//   - outcome: "won" or "unsold"
var SalesFinalizedTotal = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "sales_finalized_total",
		Help:      "Total number of sales finalized, by outcome.",
	},
	[]string{"outcome"},
)

// ── HTTP metrics ──────────────────────────────────────────────────────────────

// HTTPRequestDuration measures request handling per route template.
var HTTPRequestDuration = promauto.NewHistogramVec(
	prometheus.HistogramOpts{
		Namespace: namespace,
		Name:      "http_request_duration_seconds",
		Help:      "Duration of HTTP requests by method, route and status.",
		Buckets:   prometheus.DefBuckets,
	},
	[]string{"method", "route", "status"},
)

// RejectReason maps a submit_bid failure onto the bids_rejected_total label.
func RejectReason(err error) string {
	switch {
	case errors.Is(err, domain.ErrBidTooLow):
		return "too_low"
	case errors.Is(err, domain.ErrAuctionClosed):
		return "closed"
	case errors.Is(err, domain.ErrOwnerCannotBid):
		return "owner"
	case errors.Is(err, domain.ErrValidation):
		return "invalid"
	case errors.Is(err, domain.ErrNotFound):
		return "not_found"
	case errors.Is(err, ports.ErrLockTimeout):
		return "busy"
	default:
		return "error"
	}
}

// ObserveSale counts a finalized sale under its outcome.
func ObserveSale(sale *domain.Sale) {
	outcome := "unsold"
	if sale.HasWinner() {
		outcome = "won"
	}
	SalesFinalizedTotal.WithLabelValues(outcome).Inc()
}
