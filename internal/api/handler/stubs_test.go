package handler

import (
	"context"
	"io"
	"iter"
	"net/http/httptest"
	"strings"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/lotmarket/auction-api/internal/core/domain"
	"github.com/lotmarket/auction-api/internal/core/ports"
)

var testNow = time.Date(2026, 5, 4, 10, 0, 0, 0, time.UTC)

// newContext builds an echo context with the validator installed, the
// caller's profile set and path params bound.
func newContext(method, target, body string, params map[string]string) (echo.Context, *httptest.ResponseRecorder, *echo.Echo) {
	e := echo.New()
	e.Validator = NewValidator()

	var r io.Reader
	if body != "" {
		r = strings.NewReader(body)
	}
	req := httptest.NewRequest(method, target, r)
	if body != "" {
		req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	}
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)
	c.Set(ContextProfileKey, &domain.Profile{PublicID: "caller-1", AuthID: "auth-1", Username: "alice"})

	names := make([]string, 0, len(params))
	values := make([]string, 0, len(params))
	for k, v := range params {
		names = append(names, k)
		values = append(values, v)
	}
	c.SetParamNames(names...)
	c.SetParamValues(values...)
	return c, rec, e
}

func sampleLot() *domain.Lot {
	desc := "brass"
	return &domain.Lot{
		PublicID:    "lot-1",
		OwnerID:     "owner-1",
		Name:        "Lamp",
		Description: &desc,
		Condition:   domain.ConditionUsed,
		BasePrice:   domain.MustMoney("10.00", "GBP"),
		CreatedAt:   testNow,
		ExpiresAt:   testNow.Add(time.Hour),
	}
}

func sampleBid(id, amount string) *domain.Bid {
	return &domain.Bid{
		PublicID:    id,
		LotID:       "lot-1",
		BidderID:    "caller-1",
		Price:       domain.MustMoney(amount, "GBP"),
		SubmittedAt: testNow,
	}
}

// ---------------------------------------------------------------------------
// Service stubs
// ---------------------------------------------------------------------------

type stubLotService struct {
	createFn func(ctx context.Context, in ports.CreateLotInput) (*ports.LotDetail, error)
	getFn    func(ctx context.Context, lotID string) (*ports.LotDetail, error)
	listFn   func(ctx context.Context, in ports.ListLotsInput) (*ports.LotPage, error)
	updateFn func(ctx context.Context, in ports.UpdateLotInput) (*ports.LotDetail, error)
	deleteFn func(ctx context.Context, lotID, actorID string) error
}

func (s *stubLotService) CreateLot(ctx context.Context, in ports.CreateLotInput) (*ports.LotDetail, error) {
	return s.createFn(ctx, in)
}

func (s *stubLotService) GetLot(ctx context.Context, lotID string) (*ports.LotDetail, error) {
	return s.getFn(ctx, lotID)
}

func (s *stubLotService) ListLots(ctx context.Context, in ports.ListLotsInput) (*ports.LotPage, error) {
	return s.listFn(ctx, in)
}

func (s *stubLotService) UpdateLot(ctx context.Context, in ports.UpdateLotInput) (*ports.LotDetail, error) {
	return s.updateFn(ctx, in)
}

func (s *stubLotService) DeleteLot(ctx context.Context, lotID, actorID string) error {
	return s.deleteFn(ctx, lotID, actorID)
}

type stubBidService struct {
	submitFn  func(ctx context.Context, in ports.SubmitBidInput) (*ports.BidView, error)
	listFn    func(ctx context.Context, lotID string, q ports.BidQuery) (*ports.BidPage, error)
	ledger    []*domain.Bid
	ledgerErr error
	highestFn func(ctx context.Context, lotID string) (*domain.Bid, error)
	getFn     func(ctx context.Context, bidID string) (*ports.BidView, error)
}

func (s *stubBidService) SubmitBid(ctx context.Context, in ports.SubmitBidInput) (*ports.BidView, error) {
	return s.submitFn(ctx, in)
}

func (s *stubBidService) ListBids(ctx context.Context, lotID string, q ports.BidQuery) (*ports.BidPage, error) {
	return s.listFn(ctx, lotID, q)
}

func (s *stubBidService) IterateBids(_ context.Context, _ string, _ ports.BidQuery) iter.Seq2[*domain.Bid, error] {
	return func(yield func(*domain.Bid, error) bool) {
		if s.ledgerErr != nil {
			yield(nil, s.ledgerErr)
			return
		}
		for _, b := range s.ledger {
			if !yield(b, nil) {
				return
			}
		}
	}
}

func (s *stubBidService) GetHighestBid(ctx context.Context, lotID string) (*domain.Bid, error) {
	return s.highestFn(ctx, lotID)
}

func (s *stubBidService) GetBid(ctx context.Context, bidID string) (*ports.BidView, error) {
	return s.getFn(ctx, bidID)
}

type stubSaleService struct {
	closeFn func(ctx context.Context, lotID, actorID string) (*domain.Sale, error)
	getFn   func(ctx context.Context, lotID string) (*domain.Sale, error)
}

func (s *stubSaleService) CloseLot(ctx context.Context, lotID, actorID string) (*domain.Sale, error) {
	return s.closeFn(ctx, lotID, actorID)
}

func (s *stubSaleService) GetSale(ctx context.Context, lotID string) (*domain.Sale, error) {
	return s.getFn(ctx, lotID)
}

func (s *stubSaleService) FinalizeExpired(context.Context, string) (*domain.Sale, error) {
	return nil, nil
}

func (s *stubSaleService) PendingFinalization(context.Context, int) ([]string, error) {
	return nil, nil
}

type stubProfileService struct {
	getFn  func(ctx context.Context, publicID string) (*domain.Profile, error)
	listFn func(ctx context.Context, limit, offset int) (*ports.ProfilePage, error)
}

func (s *stubProfileService) EnsureProfile(context.Context, string, string) (*domain.Profile, error) {
	return nil, nil
}

func (s *stubProfileService) GetProfile(ctx context.Context, publicID string) (*domain.Profile, error) {
	return s.getFn(ctx, publicID)
}

func (s *stubProfileService) ListProfiles(ctx context.Context, limit, offset int) (*ports.ProfilePage, error) {
	return s.listFn(ctx, limit, offset)
}
