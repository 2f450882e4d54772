package handler

import (
	"context"
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/lotmarket/auction-api/internal/core/domain"
	"github.com/lotmarket/auction-api/internal/core/ports"
)

const maxAuditEvents = 500

// Sweeper is the interface the handler uses to trigger an expiry sweep.
type Sweeper interface {
	RunOnce(ctx context.Context) (int, error)
}

// AdminHandler serves operator endpoints. audit may be nil when the audit
// trail is disabled.
type AdminHandler struct {
	sweeper Sweeper
	lots    ports.LotService
	audit   ports.AuditReader
}

func NewAdminHandler(sweeper Sweeper, lots ports.LotService, audit ports.AuditReader) *AdminHandler {
	return &AdminHandler{sweeper: sweeper, lots: lots, audit: audit}
}

// Sweep handles POST /v1/admin/sweep: queues every expired, unsold lot for
// finalization and returns 202.
//
// @Summary      Run the expiry sweep now
// @Tags         admin
// @Produce      json
// @Security     BearerAuth
// @Success      202  {object}  sweepResponse
// @Failure      403  {object}  errorResponse
// @Router       /v1/admin/sweep [post]
func (h *AdminHandler) Sweep(c echo.Context) error {
	n, err := h.sweeper.RunOnce(c.Request().Context())
	if err != nil {
		return err
	}
	return c.JSON(http.StatusAccepted, sweepResponse{Queued: n})
}

// Events handles GET /v1/admin/lots/:lot_id/events.
//
// @Summary      Audit trail of a lot
// @Tags         admin
// @Produce      json
// @Security     BearerAuth
// @Param        lot_id  path      string  true  "Lot public id"
// @Success      200     {array}   auditEventResponse
// @Failure      403     {object}  errorResponse
// @Failure      404     {object}  errorResponse
// @Failure      501     {object}  errorResponse
// @Router       /v1/admin/lots/{lot_id}/events [get]
func (h *AdminHandler) Events(c echo.Context) error {
	if h.audit == nil {
		return echo.NewHTTPError(http.StatusNotImplemented, "audit trail is disabled")
	}
	lotID := c.Param("lot_id")
	if _, err := h.lots.GetLot(c.Request().Context(), lotID); err != nil {
		return err
	}

	events, err := h.audit.ListByLot(c.Request().Context(), lotID, maxAuditEvents)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, mapSlice(events, func(e domain.AuditEvent) auditEventResponse {
		return auditEventResponse{Kind: e.Kind, ActorID: e.ActorID, BidID: e.BidID, Amount: e.Amount, At: formatTime(e.At)}
	}))
}
