package config

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/joho/godotenv"
	"github.com/sethvargo/go-envconfig"
)

const (
	StoragePostgres = "postgres"
	StorageMemory   = "memory"

	LockMemory = "memory"
	LockRedis  = "redis"
)

type Config struct {
	Port            string        `env:"PORT,             default=8080"        validate:"required,numeric"`
	Env             string        `env:"ENV,              default=development"`
	JWTSecret       string        `env:"JWT_SECRET"                            validate:"required"`
	TokenTTL        time.Duration `env:"TOKEN_TTL,        default=24h"         validate:"gt=0"`
	AdminSignup     bool          `env:"ALLOW_ADMIN_SIGNUP, default=false"`
	LogLevel        string        `env:"LOG_LEVEL,        default=info"`
	DefaultCurrency string        `env:"DEFAULT_CURRENCY, default=GBP"         validate:"len=3,alpha"`
	StorageDriver   string        `env:"STORAGE_DRIVER,   default=postgres"    validate:"oneof=postgres memory"`
	LockDriver      string        `env:"LOCK_DRIVER,      default=memory"      validate:"oneof=memory redis"`

	Sweep    SweepConfig
	Postgres PostgresConfig
	Redis    RedisConfig
	Lock     LockConfig
	Mongo    MongoConfig
}

type SweepConfig struct {
	Schedule string `env:"SWEEP_SCHEDULE, default=@every 30s" validate:"required"`
	Workers  int    `env:"SWEEP_WORKERS,  default=4"          validate:"gte=1"`
}

type PostgresConfig struct {
	DSN          string `env:"POSTGRES_DSN"`
	MaxOpenConns int    `env:"POSTGRES_MAX_OPEN_CONNS, default=50" validate:"gte=1"`
}

type RedisConfig struct {
	Addr     string `env:"REDIS_ADDR, default=localhost:6379"`
	Password string `env:"REDIS_PASSWORD"`
	DB       int    `env:"REDIS_DB,   default=0" validate:"gte=0"`
}

type LockConfig struct {
	TTL  time.Duration `env:"LOCK_TTL,  default=10s" validate:"gt=0"`
	Wait time.Duration `env:"LOCK_WAIT, default=5s"  validate:"gt=0"`
}

// MongoConfig points at the audit trail database. An empty URI disables it.
type MongoConfig struct {
	URI      string `env:"MONGO_URI"`
	Database string `env:"MONGO_DB, default=auction"`
}

// IsDevelopment reports whether console logging should be used.
func (c *Config) IsDevelopment() bool {
	return c.Env == "development"
}

// AuditEnabled reports whether a Mongo audit trail is configured.
func (c *Config) AuditEnabled() bool {
	return c.Mongo.URI != ""
}

// Load reads an optional .env file and then the process environment.
func Load(ctx context.Context) (*Config, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("config: read .env: %w", err)
	}
	return process(ctx, envconfig.OsLookuper())
}

// MustLoad is Load for process start-up; it panics on invalid configuration.
func MustLoad() *Config {
	cfg, err := Load(context.Background())
	if err != nil {
		panic(fmt.Sprintf("config: failed to load configuration: %v", err))
	}
	return cfg
}

func process(ctx context.Context, lookuper envconfig.Lookuper) (*Config, error) {
	var cfg Config
	if err := envconfig.ProcessWith(ctx, &envconfig.Config{
		Target:   &cfg,
		Lookuper: lookuper,
	}); err != nil {
		return nil, fmt.Errorf("config: %w", err)
	}
	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func (c *Config) validate() error {
	if err := validator.New().Struct(c); err != nil {
		return fmt.Errorf("config: %w", err)
	}
	if c.StorageDriver == StoragePostgres && c.Postgres.DSN == "" {
		return errors.New("config: POSTGRES_DSN is required when STORAGE_DRIVER=postgres")
	}
	if c.LockDriver == LockRedis && c.Redis.Addr == "" {
		return errors.New("config: REDIS_ADDR is required when LOCK_DRIVER=redis")
	}
	if c.StorageDriver == StorageMemory && c.LockDriver == LockRedis {
		return errors.New("config: LOCK_DRIVER=redis needs a shared store, use STORAGE_DRIVER=postgres")
	}
	return nil
}
