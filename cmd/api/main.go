// @title                       Auction API
// @version                     1.0
// @description                 Lot listing, ladder bidding and sale finalization.
// @BasePath                    /
// @securityDefinitions.apikey  BearerAuth
// @in                          header
// @name                        Authorization
// @description                 Type "Bearer" followed by a space and the JWT.
package main

import (
	"context"
	"database/sql"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog"

	_ "github.com/lotmarket/auction-api/docs"
	"github.com/lotmarket/auction-api/internal/api"
	"github.com/lotmarket/auction-api/internal/api/handler"
	"github.com/lotmarket/auction-api/internal/core/ports"
	"github.com/lotmarket/auction-api/internal/core/service"
	"github.com/lotmarket/auction-api/internal/infrastructure/db/memory"
	mongostore "github.com/lotmarket/auction-api/internal/infrastructure/db/mongo"
	"github.com/lotmarket/auction-api/internal/infrastructure/db/postgres"
	redisstore "github.com/lotmarket/auction-api/internal/infrastructure/db/redis"
	"github.com/lotmarket/auction-api/internal/infrastructure/lock"
	"github.com/lotmarket/auction-api/internal/infrastructure/queue"
	"github.com/lotmarket/auction-api/internal/pkg/config"
	"github.com/lotmarket/auction-api/pkg/logger"
)

const shutdownTimeout = 15 * time.Second

// repositories groups the store implementations selected by STORAGE_DRIVER.
type repositories struct {
	lots       ports.LotRepository
	bids       ports.BidRepository
	sales      ports.SaleRepository
	profiles   ports.ProfileRepository
	identities ports.IdentityRepository
}

func main() {
	cfg := config.MustLoad()
	log := logger.Init(logger.Options{
		Level:   cfg.LogLevel,
		Pretty:  cfg.IsDevelopment(),
		Service: "auction-api",
		Env:     cfg.Env,
	})

	if err := run(cfg, log); err != nil {
		log.Fatal().Err(err).Msg("server stopped with error")
	}
}

func run(cfg *config.Config, log zerolog.Logger) error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	health := map[string]handler.PingFunc{}

	// --- Storage ---
	var repos repositories
	switch cfg.StorageDriver {
	case config.StoragePostgres:
		db, err := postgres.Connect(ctx, postgres.Config{
			DSN:          cfg.Postgres.DSN,
			MaxOpenConns: cfg.Postgres.MaxOpenConns,
		})
		if err != nil {
			return err
		}
		defer closeDB(db, log)
		if err := postgres.ApplyMigrations(ctx, db, logger.Component("migrations")); err != nil {
			return err
		}
		repos = repositories{
			lots:       postgres.NewLotRepository(db),
			bids:       postgres.NewBidRepository(db),
			sales:      postgres.NewSaleRepository(db),
			profiles:   postgres.NewProfileRepository(db),
			identities: postgres.NewIdentityRepository(db),
		}
		health["postgres"] = db.PingContext
		log.Info().Msg("postgres store ready")
	default:
		store := memory.NewStore()
		repos = repositories{
			lots:       memory.NewLotRepository(store),
			bids:       memory.NewBidRepository(store),
			sales:      memory.NewSaleRepository(store),
			profiles:   memory.NewProfileRepository(store),
			identities: memory.NewIdentityRepository(store),
		}
		log.Warn().Msg("using in-memory store, data is lost on restart")
	}

	// --- Per-lot lock ---
	var locker ports.LotLocker
	switch cfg.LockDriver {
	case config.LockRedis:
		rdb, err := redisstore.Connect(ctx, redisstore.Config{
			Addr:     cfg.Redis.Addr,
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
		})
		if err != nil {
			return err
		}
		defer func() { _ = rdb.Close() }()
		locker = redisstore.NewLocker(rdb, cfg.Lock.TTL, cfg.Lock.Wait, logger.Component("lock"))
		health["redis"] = redisstore.Pinger(rdb)
	default:
		locker = lock.NewKeyed(cfg.Lock.Wait)
	}

	// --- Audit trail (optional) ---
	var (
		auditLog    ports.AuditLog
		auditReader ports.AuditReader
	)
	if cfg.AuditEnabled() {
		client, mdb, err := mongostore.Connect(ctx, mongostore.Config{URI: cfg.Mongo.URI, Database: cfg.Mongo.Database})
		if err != nil {
			return err
		}
		defer func() {
			dctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
			defer cancel()
			_ = client.Disconnect(dctx)
		}()
		if err := mongostore.EnsureIndexes(ctx, mdb); err != nil {
			return err
		}
		audit := mongostore.NewAuditRepository(mdb)
		auditLog, auditReader = audit, audit
		health["mongo"] = func(ctx context.Context) error { return client.Ping(ctx, nil) }
	} else {
		log.Info().Msg("audit trail disabled, MONGO_URI is empty")
	}

	// --- Services ---
	svcLog := logger.Component("service")
	profileSvc := service.NewProfileService(repos.profiles, svcLog)
	lotSvc := service.NewLotService(repos.lots, repos.bids, locker, auditLog, cfg.DefaultCurrency, svcLog)
	bidSvc := service.NewBidService(repos.lots, repos.bids, locker, auditLog, svcLog)
	saleSvc := service.NewSaleService(repos.lots, repos.bids, repos.sales, locker, auditLog, svcLog)
	var authOpts []service.AuthOption
	if cfg.AdminSignup {
		authOpts = append(authOpts, service.WithAdminSignup())
		log.Warn().Msg("admin self-registration is enabled")
	}
	authSvc := service.NewAuthService(repos.identities, profileSvc, cfg.JWTSecret, cfg.TokenTTL, authOpts...)

	// --- Expiry sweep ---
	workerCtx, cancelWorkers := context.WithCancel(context.Background())
	defer cancelWorkers()

	sweepLog := logger.Component("sweeper")
	dispatcher := queue.NewDispatcher(cfg.Sweep.Workers, saleSvc, sweepLog)
	dispatcher.Start(workerCtx)
	sweeper := queue.NewSweeper(saleSvc, dispatcher, 0, sweepLog)
	if err := sweeper.Start(workerCtx, cfg.Sweep.Schedule); err != nil {
		return err
	}

	// --- HTTP ---
	e := api.NewRouter(api.Dependencies{
		Lots:      lotSvc,
		Bids:      bidSvc,
		Sales:     saleSvc,
		Profiles:  profileSvc,
		Auth:      authSvc,
		Audit:     auditReader,
		Sweeper:   sweeper,
		Health:    health,
		JWTSecret: cfg.JWTSecret,
		Logger:    logger.Component("http"),
	})

	errCh := make(chan error, 1)
	go func() {
		log.Info().Str("port", cfg.Port).Str("storage", cfg.StorageDriver).Str("lock", cfg.LockDriver).Msg("server starting")
		if err := e.Start(":" + cfg.Port); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		if err != nil {
			return err
		}
	case <-ctx.Done():
		log.Info().Msg("shutdown signal received")
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := e.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("http shutdown")
	}

	// Stop scheduling, then let queued finalizations drain.
	sweeper.Stop()
	drained := make(chan struct{})
	go func() {
		dispatcher.Wait()
		close(drained)
	}()
	select {
	case <-drained:
	case <-shutdownCtx.Done():
		log.Warn().Msg("finalization queue not drained before shutdown timeout")
	}
	cancelWorkers()

	log.Info().Msg("server stopped")
	return nil
}

func closeDB(db *sql.DB, log zerolog.Logger) {
	if err := db.Close(); err != nil {
		log.Error().Err(err).Msg("postgres close")
	}
}
