package api

import (
	"github.com/labstack/echo-contrib/echoprometheus"
	"github.com/labstack/echo/v4"
	echomiddleware "github.com/labstack/echo/v4/middleware"
	"github.com/rs/zerolog"
	echoSwagger "github.com/swaggo/echo-swagger"

	"github.com/lotmarket/auction-api/internal/api/handler"
	"github.com/lotmarket/auction-api/internal/api/middleware"
	"github.com/lotmarket/auction-api/internal/core/domain"
	"github.com/lotmarket/auction-api/internal/core/ports"
)

// Dependencies are the services the router exposes. Audit may be nil when
// the audit trail is disabled; Health may be empty.
type Dependencies struct {
	Lots     ports.LotService
	Bids     ports.BidService
	Sales    ports.SaleService
	Profiles ports.ProfileService
	Auth     ports.AuthService
	Audit    ports.AuditReader
	Sweeper  handler.Sweeper
	Health   map[string]handler.PingFunc

	JWTSecret string
	Logger    zerolog.Logger
}

// NewRouter builds and returns the Echo instance with all routes registered.
func NewRouter(deps Dependencies) *echo.Echo {
	e := echo.New()
	e.HideBanner = true
	e.HidePort = true
	e.Validator = handler.NewValidator()
	e.HTTPErrorHandler = NewHTTPErrorHandler(deps.Logger)

	// --- Global middleware ---
	e.Use(echomiddleware.Recover())
	e.Use(echomiddleware.RequestID())
	e.Use(middleware.RequestLogger(deps.Logger))
	e.Use(middleware.Metrics())

	// --- Auth routes ---
	authHandler := handler.NewAuthHandler(deps.Auth)
	e.POST("/auth/register", authHandler.Register)
	e.POST("/auth/login", authHandler.Login)

	// --- Health probes, metrics and docs (no auth required) ---
	healthHandler := handler.NewHealthHandler()
	healthDepsHandler := handler.NewHealthDependenciesHandler(deps.Health)

	e.GET("/health", healthHandler.Liveness)            // liveness  – is the process alive?
	e.GET("/health/ready", healthDepsHandler.Readiness) // readiness – are dependencies up?
	e.GET("/metrics", echoprometheus.NewHandler())
	e.GET("/swagger/*", echoSwagger.WrapHandler)

	// --- Authenticated API ---
	lotHandler := handler.NewLotHandler(deps.Lots)
	bidHandler := handler.NewBidHandler(deps.Bids, deps.Logger)
	saleHandler := handler.NewSaleHandler(deps.Sales)
	userHandler := handler.NewUserHandler(deps.Profiles)

	v1 := e.Group("/v1", middleware.Auth(deps.JWTSecret), middleware.Identity(deps.Profiles))

	v1.POST("/lots", lotHandler.Create)
	v1.GET("/lots", lotHandler.List)
	v1.GET("/lots/:lot_id", lotHandler.Get)
	v1.PATCH("/lots/:lot_id", lotHandler.Update)
	v1.DELETE("/lots/:lot_id", lotHandler.Delete)

	v1.POST("/lots/:lot_id/bid", bidHandler.Submit)
	v1.GET("/lots/:lot_id/history", bidHandler.History)
	v1.GET("/lots/:lot_id/highest", bidHandler.Highest)
	v1.GET("/bids/:bid_id", bidHandler.Get)

	v1.POST("/lots/:lot_id/close", saleHandler.Close)
	v1.GET("/lots/:lot_id/sale", saleHandler.Get)

	v1.GET("/users/me", userHandler.Me)
	v1.GET("/users", userHandler.List)
	v1.GET("/users/:public_id", userHandler.Get)

	// --- Operator routes ---
	adminHandler := handler.NewAdminHandler(deps.Sweeper, deps.Lots, deps.Audit)
	admin := v1.Group("/admin", middleware.RBAC(domain.RoleAdmin))
	admin.POST("/sweep", adminHandler.Sweep)
	admin.GET("/lots/:lot_id/events", adminHandler.Events)

	return e
}
