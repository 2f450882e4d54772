package handler

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/lotmarket/auction-api/internal/core/ports"
)

// SaleHandler exposes auction closure.
type SaleHandler struct {
	service ports.SaleService
}

func NewSaleHandler(service ports.SaleService) *SaleHandler {
	return &SaleHandler{service: service}
}

// Close handles POST /v1/lots/:lot_id/close.
//
// @Summary      Close an expired lot
// @Description  Idempotent: closing an already closed lot returns the existing sale.
// @Tags         sales
// @Produce      json
// @Security     BearerAuth
// @Param        lot_id  path      string  true  "Lot public id"
// @Success      200     {object}  saleResponse
// @Failure      403     {object}  errorResponse
// @Failure      404     {object}  errorResponse
// @Failure      409     {object}  errorResponse
// @Router       /v1/lots/{lot_id}/close [post]
func (h *SaleHandler) Close(c echo.Context) error {
	profile, err := ctxProfile(c)
	if err != nil {
		return err
	}
	sale, err := h.service.CloseLot(c.Request().Context(), c.Param("lot_id"), profile.PublicID)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, toSaleResponse(sale))
}

// Get handles GET /v1/lots/:lot_id/sale.
//
// @Summary      Get the sale of a lot
// @Description  An expired lot without a sale is finalized on first request.
// @Tags         sales
// @Produce      json
// @Security     BearerAuth
// @Param        lot_id  path      string  true  "Lot public id"
// @Success      200     {object}  saleResponse
// @Failure      404     {object}  errorResponse
// @Failure      409     {object}  errorResponse
// @Router       /v1/lots/{lot_id}/sale [get]
func (h *SaleHandler) Get(c echo.Context) error {
	sale, err := h.service.GetSale(c.Request().Context(), c.Param("lot_id"))
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, toSaleResponse(sale))
}
