package handler

import (
	"net/http"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/lotmarket/auction-api/internal/api/metrics"
	"github.com/lotmarket/auction-api/internal/core/ports"
)

// LotHandler handles HTTP requests for lot operations.
type LotHandler struct {
	service ports.LotService
}

func NewLotHandler(service ports.LotService) *LotHandler {
	return &LotHandler{service: service}
}

// Create handles POST /v1/lots.
//
// @Summary      List a new lot
// @Tags         lots
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        body  body      createLotRequest  true  "Lot details"
// @Success      201   {object}  lotResponse
// @Failure      400   {object}  errorResponse
// @Failure      401   {object}  errorResponse
// @Failure      422   {object}  errorResponse
// @Router       /v1/lots [post]
func (h *LotHandler) Create(c echo.Context) error {
	profile, err := ctxProfile(c)
	if err != nil {
		return err
	}
	var req createLotRequest
	if err := bindAndValidate(c, &req); err != nil {
		return err
	}
	expiresAt, err := time.Parse(time.RFC3339, req.ExpiresAt)
	if err != nil {
		return echo.NewHTTPError(http.StatusUnprocessableEntity, "expires_at must be an RFC3339 timestamp")
	}

	detail, err := h.service.CreateLot(c.Request().Context(), ports.CreateLotInput{
		OwnerID:     profile.PublicID,
		Name:        req.Name,
		Description: req.Description,
		Condition:   req.Condition,
		BasePrice:   req.BasePrice.Amount,
		Currency:    req.BasePrice.Currency,
		ExpiresAt:   expiresAt,
	})
	if err != nil {
		return err
	}
	metrics.LotsCreatedTotal.WithLabelValues(string(detail.Lot.Condition)).Inc()

	c.Response().Header().Set(echo.HeaderLocation, "/v1/lots/"+detail.Lot.PublicID)
	return c.JSON(http.StatusCreated, toLotResponse(detail))
}

// Get handles GET /v1/lots/:lot_id.
//
// @Summary      Get a lot
// @Tags         lots
// @Produce      json
// @Security     BearerAuth
// @Param        lot_id  path      string  true  "Lot public id"
// @Success      200     {object}  lotResponse
// @Failure      404     {object}  errorResponse
// @Router       /v1/lots/{lot_id} [get]
func (h *LotHandler) Get(c echo.Context) error {
	detail, err := h.service.GetLot(c.Request().Context(), c.Param("lot_id"))
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, toLotResponse(detail))
}

// List handles GET /v1/lots.
//
// @Summary      List lots
// @Tags         lots
// @Produce      json
// @Security     BearerAuth
// @Param        owner     query     string  false  "Owner profile id"
// @Param        name      query     string  false  "Exact name"
// @Param        currency  query     string  false  "Currency code"
// @Param        search    query     string  false  "Free text over name and description"
// @Param        active    query     bool    false  "Only active (true) or only closed (false) lots"
// @Param        ordering  query     string  false  "name, created_at, modified_at, base_price or expires_at; prefix - for descending"
// @Param        limit     query     int     false  "Page size (max 100)"
// @Param        offset    query     int     false  "Page offset"
// @Success      200       {object}  pageResponse[lotResponse]
// @Failure      422       {object}  errorResponse
// @Router       /v1/lots [get]
func (h *LotHandler) List(c echo.Context) error {
	in := ports.ListLotsInput{
		OwnerID:  c.QueryParam("owner"),
		Name:     c.QueryParam("name"),
		Currency: c.QueryParam("currency"),
		Search:   c.QueryParam("search"),
		Ordering: c.QueryParam("ordering"),
	}
	var active *bool
	err := echo.QueryParamsBinder(c).
		Int("limit", &in.Limit).
		Int("offset", &in.Offset).
		CustomFunc("active", func(values []string) []error {
			v := values[0] == "true" || values[0] == "1"
			active = &v
			return nil
		}).
		BindError()
	if err != nil {
		return echo.NewHTTPError(http.StatusUnprocessableEntity, "limit and offset must be integers")
	}
	in.Active = active

	page, err := h.service.ListLots(c.Request().Context(), in)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, pageResponse[lotResponse]{
		Items:  mapSlice(page.Items, func(d ports.LotDetail) lotResponse { return toLotResponse(&d) }),
		Total:  page.Total,
		Limit:  page.Limit,
		Offset: page.Offset,
	})
}

// Update handles PATCH /v1/lots/:lot_id.
//
// @Summary      Update an active lot
// @Tags         lots
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        lot_id  path      string            true  "Lot public id"
// @Param        body    body      updateLotRequest  true  "Field deltas"
// @Success      200     {object}  lotResponse
// @Failure      403     {object}  errorResponse
// @Failure      404     {object}  errorResponse
// @Failure      409     {object}  errorResponse
// @Failure      422     {object}  errorResponse
// @Router       /v1/lots/{lot_id} [patch]
func (h *LotHandler) Update(c echo.Context) error {
	profile, err := ctxProfile(c)
	if err != nil {
		return err
	}
	var req updateLotRequest
	if err := bindAndValidate(c, &req); err != nil {
		return err
	}

	in := ports.UpdateLotInput{
		LotID:       c.Param("lot_id"),
		ActorID:     profile.PublicID,
		Name:        req.Name,
		Description: req.Description,
		Condition:   req.Condition,
	}
	if req.BasePrice != nil {
		in.BasePrice = &req.BasePrice.Amount
		if req.BasePrice.Currency != "" {
			in.Currency = &req.BasePrice.Currency
		}
	}

	detail, err := h.service.UpdateLot(c.Request().Context(), in)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, toLotResponse(detail))
}

// Delete handles DELETE /v1/lots/:lot_id.
//
// @Summary      Soft-delete a closed lot
// @Tags         lots
// @Security     BearerAuth
// @Param        lot_id  path  string  true  "Lot public id"
// @Success      204
// @Failure      403     {object}  errorResponse
// @Failure      404     {object}  errorResponse
// @Failure      409     {object}  errorResponse
// @Router       /v1/lots/{lot_id} [delete]
func (h *LotHandler) Delete(c echo.Context) error {
	profile, err := ctxProfile(c)
	if err != nil {
		return err
	}
	if err := h.service.DeleteLot(c.Request().Context(), c.Param("lot_id"), profile.PublicID); err != nil {
		return err
	}
	return c.NoContent(http.StatusNoContent)
}
