package handler

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"testing"

	"github.com/lotmarket/auction-api/internal/core/domain"
)

func TestSaleHandler_Close_WithWinner(t *testing.T) {
	stub := &stubSaleService{
		closeFn: func(ctx context.Context, lotID, actorID string) (*domain.Sale, error) {
			if lotID != "lot-1" || actorID != "caller-1" {
				t.Fatalf("unexpected args %s %s", lotID, actorID)
			}
			return &domain.Sale{LotID: lotID, WinningBid: sampleBid("b9", "15.00"), ClosedAt: testNow}, nil
		},
	}
	c, rec, _ := newContext(http.MethodPost, "/v1/lots/lot-1/close", "", map[string]string{"lot_id": "lot-1"})

	if err := NewSaleHandler(stub).Close(c); err != nil {
		t.Fatalf("handler error: %v", err)
	}

	var resp saleResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("invalid json: %v", err)
	}
	if resp.WinningBid == nil || resp.WinningBid.PublicID != "b9" || resp.ClosedAt != "2026-05-04T10:00:00Z" {
		t.Fatalf("unexpected payload: %+v", resp)
	}
}

func TestSaleHandler_Get_NoWinner(t *testing.T) {
	stub := &stubSaleService{
		getFn: func(ctx context.Context, lotID string) (*domain.Sale, error) {
			return &domain.Sale{LotID: lotID, ClosedAt: testNow}, nil
		},
	}
	c, rec, _ := newContext(http.MethodGet, "/v1/lots/lot-1/sale", "", map[string]string{"lot_id": "lot-1"})

	if err := NewSaleHandler(stub).Get(c); err != nil {
		t.Fatalf("handler error: %v", err)
	}

	var resp map[string]any
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("invalid json: %v", err)
	}
	if v, ok := resp["winning_bid"]; !ok || v != nil {
		t.Fatalf("expected explicit null winning_bid, got %+v", resp)
	}
}

func TestSaleHandler_Get_StillActive(t *testing.T) {
	stub := &stubSaleService{
		getFn: func(ctx context.Context, lotID string) (*domain.Sale, error) {
			return nil, domain.ErrLotStillActive
		},
	}
	c, _, _ := newContext(http.MethodGet, "/v1/lots/lot-1/sale", "", map[string]string{"lot_id": "lot-1"})

	if err := NewSaleHandler(stub).Get(c); !errors.Is(err, domain.ErrLotStillActive) {
		t.Fatalf("expected ErrLotStillActive, got %v", err)
	}
}
