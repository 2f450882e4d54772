package service

import (
	"context"

	"github.com/rs/zerolog"

	"github.com/lotmarket/auction-api/internal/core/domain"
	"github.com/lotmarket/auction-api/internal/core/ports"
)

// recordAudit appends to the audit trail. Failures are logged, never returned.
func recordAudit(ctx context.Context, audit ports.AuditLog, log zerolog.Logger, event domain.AuditEvent) {
	if audit == nil {
		return
	}
	if err := audit.Record(ctx, event); err != nil {
		log.Warn().Err(err).Str("lot_id", event.LotID).Str("kind", string(event.Kind)).Msg("failed to record audit event")
	}
}

// clampPage applies the default and maximum page size.
func clampPage(limit, offset int) (int, int) {
	if limit <= 0 || limit > ports.MaxPageSize {
		limit = ports.MaxPageSize
	}
	if offset < 0 {
		offset = 0
	}
	return limit, offset
}
