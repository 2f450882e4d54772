package handler

import (
	"encoding/json"
	"net/http"
	"strings"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog"

	"github.com/lotmarket/auction-api/internal/api/metrics"
	"github.com/lotmarket/auction-api/internal/core/ports"
)

// BidHandler handles bid admission and ledger queries.
type BidHandler struct {
	service ports.BidService
	log     zerolog.Logger
}

func NewBidHandler(service ports.BidService, log zerolog.Logger) *BidHandler {
	return &BidHandler{service: service, log: log}
}

// Submit handles POST /v1/lots/:lot_id/bid.
//
// @Summary      Submit a bid
// @Description  The price must be strictly greater than the current highest bid, or the base price when there is none.
// @Tags         bids
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        lot_id  path      string            true  "Lot public id"
// @Param        body    body      submitBidRequest  true  "Bid price"
// @Success      201     {object}  bidResponse
// @Failure      403     {object}  errorResponse
// @Failure      404     {object}  errorResponse
// @Failure      409     {object}  errorResponse
// @Failure      422     {object}  errorResponse
// @Failure      503     {object}  errorResponse
// @Router       /v1/lots/{lot_id}/bid [post]
func (h *BidHandler) Submit(c echo.Context) error {
	profile, err := ctxProfile(c)
	if err != nil {
		return err
	}
	var req submitBidRequest
	if err := bindAndValidate(c, &req); err != nil {
		return err
	}

	start := time.Now()
	view, err := h.service.SubmitBid(c.Request().Context(), ports.SubmitBidInput{
		LotID:    c.Param("lot_id"),
		BidderID: profile.PublicID,
		Amount:   req.Price.Amount,
		Currency: req.Price.Currency,
	})
	metrics.BidAdmissionDuration.Observe(time.Since(start).Seconds())
	if err != nil {
		metrics.BidsRejectedTotal.WithLabelValues(metrics.RejectReason(err)).Inc()
		return err
	}
	metrics.BidsAdmittedTotal.Inc()

	return c.JSON(http.StatusCreated, toBidViewResponse(view))
}

// History handles GET /v1/lots/:lot_id/history.
//
// @Summary      List a lot's bids
// @Description  With stream=true the whole ledger is written as newline-delimited JSON.
// @Tags         bids
// @Produce      json
// @Security     BearerAuth
// @Param        lot_id    path      string  true   "Lot public id"
// @Param        bidder    query     string  false  "Bidder profile id"
// @Param        ordering  query     string  false  "submitted_at or price; prefix - for descending"
// @Param        limit     query     int     false  "Page size (max 100)"
// @Param        offset    query     int     false  "Page offset"
// @Param        stream    query     bool    false  "Stream every bid as NDJSON"
// @Success      200       {object}  pageResponse[bidResponse]
// @Failure      404       {object}  errorResponse
// @Failure      422       {object}  errorResponse
// @Router       /v1/lots/{lot_id}/history [get]
func (h *BidHandler) History(c echo.Context) error {
	q := ports.BidQuery{BidderID: c.QueryParam("bidder")}
	q.OrderBy, q.Desc = parseBidOrdering(c.QueryParam("ordering"))

	var stream bool
	err := echo.QueryParamsBinder(c).
		Int("limit", &q.Limit).
		Int("offset", &q.Offset).
		Bool("stream", &stream).
		BindError()
	if err != nil {
		return echo.NewHTTPError(http.StatusUnprocessableEntity, "invalid query parameters")
	}

	lotID := c.Param("lot_id")
	if stream {
		return h.streamHistory(c, lotID, q)
	}

	page, err := h.service.ListBids(c.Request().Context(), lotID, q)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, pageResponse[bidResponse]{
		Items:  mapSlice(page.Items, toBidResponse),
		Total:  page.Total,
		Limit:  page.Limit,
		Offset: page.Offset,
	})
}

// streamHistory writes the ledger one bid per line. Errors before the first
// line go through the error handler; later ones end the stream.
func (h *BidHandler) streamHistory(c echo.Context, lotID string, q ports.BidQuery) error {
	res := c.Response()
	enc := json.NewEncoder(res)
	started := false

	for bid, err := range h.service.IterateBids(c.Request().Context(), lotID, q) {
		if err != nil {
			if !started {
				return err
			}
			h.log.Warn().Err(err).Str("lot_id", lotID).Msg("bid stream aborted")
			return nil
		}
		if !started {
			res.Header().Set(echo.HeaderContentType, "application/x-ndjson")
			res.WriteHeader(http.StatusOK)
			started = true
		}
		if err := enc.Encode(toBidResponse(bid)); err != nil {
			return nil
		}
		res.Flush()
	}
	if !started {
		res.Header().Set(echo.HeaderContentType, "application/x-ndjson")
		res.WriteHeader(http.StatusOK)
	}
	return nil
}

// Highest handles GET /v1/lots/:lot_id/highest.
//
// @Summary      Get the highest bid
// @Tags         bids
// @Produce      json
// @Security     BearerAuth
// @Param        lot_id  path      string  true  "Lot public id"
// @Success      200     {object}  bidResponse
// @Success      204
// @Failure      404     {object}  errorResponse
// @Router       /v1/lots/{lot_id}/highest [get]
func (h *BidHandler) Highest(c echo.Context) error {
	bid, err := h.service.GetHighestBid(c.Request().Context(), c.Param("lot_id"))
	if err != nil {
		return err
	}
	if bid == nil {
		return c.NoContent(http.StatusNoContent)
	}
	return c.JSON(http.StatusOK, toBidResponse(bid))
}

// Get handles GET /v1/bids/:bid_id.
//
// @Summary      Get a bid
// @Tags         bids
// @Produce      json
// @Security     BearerAuth
// @Param        bid_id  path      string  true  "Bid public id"
// @Success      200     {object}  bidResponse
// @Failure      404     {object}  errorResponse
// @Router       /v1/bids/{bid_id} [get]
func (h *BidHandler) Get(c echo.Context) error {
	view, err := h.service.GetBid(c.Request().Context(), c.Param("bid_id"))
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, toBidViewResponse(view))
}

func parseBidOrdering(raw string) (string, bool) {
	field, desc := strings.CutPrefix(strings.TrimSpace(raw), "-")
	return field, desc
}
