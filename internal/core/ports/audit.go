package ports

import (
	"context"
	"errors"

	"github.com/lotmarket/auction-api/internal/core/domain"
)

// AuditLog appends entries to the lot audit trail.
type AuditLog interface {
	Record(ctx context.Context, event domain.AuditEvent) error
}

// ErrLockTimeout is returned by a LotLocker that could not acquire the lot
// within its wait budget.
var ErrLockTimeout = errors.New("lot is busy, retry later")

// LotLocker provides the per-lot critical section shared by bid admission,
// lot mutation and sale finalization. Different lots never contend.
type LotLocker interface {
	Lock(ctx context.Context, lotID string) (unlock func(), err error)
}

// AuditReader reads back the trail of one lot.
type AuditReader interface {
	ListByLot(ctx context.Context, lotID string, limit int64) ([]domain.AuditEvent, error)
}
