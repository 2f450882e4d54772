package handler

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"testing"
)

func TestHealth_Liveness(t *testing.T) {
	c, rec, _ := newContext(http.MethodGet, "/health", "", nil)

	if err := NewHealthHandler().Liveness(c); err != nil {
		t.Fatalf("handler error: %v", err)
	}
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
}

func TestHealth_ReadinessDegraded(t *testing.T) {
	h := NewHealthDependenciesHandler(map[string]PingFunc{
		"postgres": func(context.Context) error { return nil },
		"redis":    func(context.Context) error { return errors.New("connection refused") },
	})
	c, rec, _ := newContext(http.MethodGet, "/health/ready", "", nil)

	if err := h.Readiness(c); err != nil {
		t.Fatalf("handler error: %v", err)
	}
	if rec.Code != http.StatusServiceUnavailable {
		t.Fatalf("expected 503, got %d", rec.Code)
	}

	var resp readinessResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("invalid json: %v", err)
	}
	if resp.Status != "degraded" || resp.Dependencies["postgres"].Status != "ok" || resp.Dependencies["redis"].Error == "" {
		t.Fatalf("unexpected payload: %+v", resp)
	}
}

func TestHealth_ReadinessNoDependencies(t *testing.T) {
	c, rec, _ := newContext(http.MethodGet, "/health/ready", "", nil)

	if err := NewHealthDependenciesHandler(nil).Readiness(c); err != nil {
		t.Fatalf("handler error: %v", err)
	}
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
}
