package domain

import "time"

// AuditKind names a lot-lifecycle mutation.
type AuditKind string

const (
	AuditLotCreated  AuditKind = "lot_created"
	AuditLotUpdated  AuditKind = "lot_updated"
	AuditLotDeleted  AuditKind = "lot_deleted"
	AuditBidAdmitted AuditKind = "bid_admitted"
	AuditSaleClosed  AuditKind = "sale_closed"
)

// AuditEvent is one entry of the lot audit trail.
type AuditEvent struct {
	Kind    AuditKind
	LotID   string
	ActorID string // empty for system actions such as the expiry sweep
	BidID   string // optional
	Amount  string // optional, e.g. "10.01 GBP"
	At      time.Time
}
