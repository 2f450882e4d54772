package api

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/lotmarket/auction-api/internal/core/service"
	"github.com/lotmarket/auction-api/internal/infrastructure/db/memory"
	"github.com/lotmarket/auction-api/internal/infrastructure/lock"
	"github.com/lotmarket/auction-api/internal/infrastructure/queue"
)

const testSecret = "router-test-secret"

type testApp struct {
	t *testing.T
	e *echo.Echo
}

func newTestApp(t *testing.T, authOpts ...service.AuthOption) *testApp {
	t.Helper()
	log := zerolog.Nop()
	store := memory.NewStore()
	lots := memory.NewLotRepository(store)
	bids := memory.NewBidRepository(store)
	sales := memory.NewSaleRepository(store)
	locker := lock.NewKeyed(time.Second)

	profiles := service.NewProfileService(memory.NewProfileRepository(store), log)
	saleSvc := service.NewSaleService(lots, bids, sales, locker, nil, log)
	lotSvc := service.NewLotService(lots, bids, locker, nil, "GBP", log)

	dispatcher := queue.NewDispatcher(1, saleSvc, log)
	ctx, cancel := context.WithCancel(context.Background())
	t.Cleanup(cancel)
	dispatcher.Start(ctx)

	e := NewRouter(Dependencies{
		Lots:      lotSvc,
		Bids:      service.NewBidService(lots, bids, locker, nil, log),
		Sales:     saleSvc,
		Profiles:  profiles,
		Auth:      service.NewAuthService(memory.NewIdentityRepository(store), profiles, testSecret, time.Hour, authOpts...),
		Sweeper:   queue.NewSweeper(saleSvc, dispatcher, 10, log),
		JWTSecret: testSecret,
		Logger:    log,
	})
	return &testApp{t: t, e: e}
}

func (a *testApp) do(method, path, token string, body any) *httptest.ResponseRecorder {
	a.t.Helper()
	var payload []byte
	if body != nil {
		var err error
		payload, err = json.Marshal(body)
		require.NoError(a.t, err)
	}
	req := httptest.NewRequest(method, path, bytes.NewReader(payload))
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	if token != "" {
		req.Header.Set(echo.HeaderAuthorization, "Bearer "+token)
	}
	rec := httptest.NewRecorder()
	a.e.ServeHTTP(rec, req)
	return rec
}

func (a *testApp) login(username, role string) string {
	a.t.Helper()
	rec := a.do(http.MethodPost, "/auth/register", "", map[string]string{
		"username": username, "password": "correct-horse", "role": role,
	})
	require.Equal(a.t, http.StatusCreated, rec.Code, rec.Body.String())

	rec = a.do(http.MethodPost, "/auth/login", "", map[string]string{
		"username": username, "password": "correct-horse",
	})
	require.Equal(a.t, http.StatusOK, rec.Code, rec.Body.String())
	var out struct {
		Token string `json:"token"`
	}
	require.NoError(a.t, json.Unmarshal(rec.Body.Bytes(), &out))
	return out.Token
}

func decode[T any](t *testing.T, rec *httptest.ResponseRecorder) T {
	t.Helper()
	var out T
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &out), rec.Body.String())
	return out
}

func bid(amount string) map[string]any {
	return map[string]any{"price": map[string]string{"amount": amount, "currency": "GBP"}}
}

type lotBody struct {
	PublicID   string `json:"public_id"`
	IsActive   bool   `json:"is_active"`
	HighestBid *struct {
		Price struct {
			Amount string `json:"amount"`
		} `json:"price"`
	} `json:"highest_bid"`
}

func TestRouter_LadderScenario(t *testing.T) {
	app := newTestApp(t)
	seller := app.login("seller", "")
	bob := app.login("bob", "")
	carol := app.login("carol", "")

	rec := app.do(http.MethodPost, "/v1/lots", seller, map[string]any{
		"name":       "Gramophone",
		"condition":  "USED",
		"base_price": map[string]string{"amount": "10.00"},
		"expires_at": time.Now().Add(300 * time.Second).UTC().Format(time.RFC3339),
	})
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	lot := decode[lotBody](t, rec)
	assert.True(t, lot.IsActive)
	assert.Equal(t, "/v1/lots/"+lot.PublicID, rec.Header().Get(echo.HeaderLocation))

	bidPath := "/v1/lots/" + lot.PublicID + "/bid"
	assert.Equal(t, http.StatusConflict, app.do(http.MethodPost, bidPath, bob, bid("10.00")).Code)
	assert.Equal(t, http.StatusCreated, app.do(http.MethodPost, bidPath, bob, bid("10.01")).Code)
	assert.Equal(t, http.StatusConflict, app.do(http.MethodPost, bidPath, carol, bid("10.01")).Code)
	assert.Equal(t, http.StatusCreated, app.do(http.MethodPost, bidPath, carol, bid("15.00")).Code)
	assert.Equal(t, http.StatusForbidden, app.do(http.MethodPost, bidPath, seller, bid("99.00")).Code)

	rec = app.do(http.MethodGet, "/v1/lots/"+lot.PublicID, bob, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	got := decode[lotBody](t, rec)
	require.NotNil(t, got.HighestBid)
	assert.Equal(t, "15.00", got.HighestBid.Price.Amount)

	rec = app.do(http.MethodGet, "/v1/lots/"+lot.PublicID+"/history", bob, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	history := decode[struct {
		Total int64 `json:"total"`
	}](t, rec)
	assert.EqualValues(t, 2, history.Total)

	assert.Equal(t, http.StatusConflict, app.do(http.MethodDelete, "/v1/lots/"+lot.PublicID, seller, nil).Code)
	assert.Equal(t, http.StatusConflict, app.do(http.MethodPost, "/v1/lots/"+lot.PublicID+"/close", seller, nil).Code)
}

func TestRouter_ExpiredLotClosesWithoutWinner(t *testing.T) {
	app := newTestApp(t)
	seller := app.login("seller", "")

	rec := app.do(http.MethodPost, "/v1/lots", seller, map[string]any{
		"name":       "Lamp",
		"condition":  "NEW_UNUSED",
		"base_price": map[string]string{"amount": "5.00"},
		"expires_at": time.Now().Add(-time.Minute).UTC().Format(time.RFC3339),
	})
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	lot := decode[lotBody](t, rec)
	assert.False(t, lot.IsActive)

	closePath := "/v1/lots/" + lot.PublicID + "/close"
	first := app.do(http.MethodPost, closePath, seller, nil)
	require.Equal(t, http.StatusOK, first.Code, first.Body.String())
	second := app.do(http.MethodPost, closePath, seller, nil)
	require.Equal(t, http.StatusOK, second.Code)
	assert.JSONEq(t, first.Body.String(), second.Body.String())

	sale := decode[struct {
		WinningBid *json.RawMessage `json:"winning_bid"`
	}](t, first)
	assert.Nil(t, sale.WinningBid)

	assert.Equal(t, http.StatusNoContent, app.do(http.MethodDelete, "/v1/lots/"+lot.PublicID, seller, nil).Code)
	assert.Equal(t, http.StatusNotFound, app.do(http.MethodGet, "/v1/lots/"+lot.PublicID, seller, nil).Code)
}

func TestRouter_AccessControl(t *testing.T) {
	app := newTestApp(t, service.WithAdminSignup())
	member := app.login("member", "")
	admin := app.login("root", "admin")

	assert.Equal(t, http.StatusUnauthorized, app.do(http.MethodGet, "/v1/lots", "", nil).Code)
	assert.Equal(t, http.StatusUnauthorized, app.do(http.MethodGet, "/v1/lots", "not-a-token", nil).Code)
	assert.Equal(t, http.StatusForbidden, app.do(http.MethodPost, "/v1/admin/sweep", member, nil).Code)
	assert.Equal(t, http.StatusAccepted, app.do(http.MethodPost, "/v1/admin/sweep", admin, nil).Code)

	rec := app.do(http.MethodGet, "/v1/users/me", member, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	me := decode[struct {
		Username string `json:"username"`
	}](t, rec)
	assert.Equal(t, "member", me.Username)
}

func TestRouter_AdminRegistrationClosedByDefault(t *testing.T) {
	app := newTestApp(t)

	rec := app.do(http.MethodPost, "/auth/register", "", map[string]string{
		"username": "root", "password": "correct-horse", "role": "admin",
	})
	assert.Equal(t, http.StatusForbidden, rec.Code, rec.Body.String())

	rec = app.do(http.MethodPost, "/auth/login", "", map[string]string{
		"username": "root", "password": "correct-horse",
	})
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	member := app.login("member", "")
	assert.Equal(t, http.StatusForbidden, app.do(http.MethodPost, "/v1/admin/sweep", member, nil).Code)
}

func TestRouter_PublicEndpoints(t *testing.T) {
	app := newTestApp(t)

	assert.Equal(t, http.StatusOK, app.do(http.MethodGet, "/health", "", nil).Code)
	assert.Equal(t, http.StatusOK, app.do(http.MethodGet, "/health/ready", "", nil).Code)
	assert.Equal(t, http.StatusOK, app.do(http.MethodGet, "/metrics", "", nil).Code)
	assert.Equal(t, http.StatusNotFound, app.do(http.MethodGet, "/nowhere", "", nil).Code)
}
