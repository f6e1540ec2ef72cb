package main

import (
	"context"
	"errors"
	"fmt"
	"os"

	goredis "github.com/redis/go-redis/v9"

	"github.com/lifequest/lifequest-core/config"
	"github.com/lifequest/lifequest-core/internal/domain/reward"
	"github.com/lifequest/lifequest-core/internal/domain/uow"
	"github.com/lifequest/lifequest-core/internal/infrastructure/persistence/memory"
	"github.com/lifequest/lifequest-core/internal/infrastructure/persistence/postgres"
	"github.com/lifequest/lifequest-core/internal/infrastructure/persistence/redis"
	"github.com/lifequest/lifequest-core/pkg/circuitbreaker"
	"github.com/lifequest/lifequest-core/pkg/logger"
)

// ══════════════════════════════════════════════════════════════════════════════
// APPLICATION WIRING
// ══════════════════════════════════════════════════════════════════════════════

// app holds the storage side of the process. Commands open it, use what
// they need and close it.
type app struct {
	cfg *config.Config
	log *logger.Logger

	tx      uow.Transactor
	catalog reward.Catalog
	writer  reward.CatalogWriter
	db      interface{ Ping(context.Context) error }

	// conn is nil with the memory driver.
	conn *postgres.Connection

	redisClient *goredis.Client
	cache       *redis.Cache

	closers []func()
}

func newLogger(cfg *config.Config) *logger.Logger {
	return logger.New(logger.Options{
		Output:    os.Stdout,
		Level:     logger.ParseLevel(cfg.App.LogLevel),
		AddCaller: true,
	}).With(
		logger.String("service", cfg.App.Name),
		logger.String("env", string(cfg.App.Environment)),
	)
}

// openApp loads the configuration and connects to storage. Redis is only
// dialed when withRedis is set and it is enabled in the configuration.
func openApp(ctx context.Context, withRedis bool) (*app, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}
	a := &app{cfg: cfg, log: newLogger(cfg)}

	switch cfg.Database.Driver {
	case config.StorageMemory:
		store := memory.NewStore()
		a.tx, a.catalog, a.writer, a.db = store, store, store, store
		a.log.Warn("using in-memory storage; data is lost on exit")

	case config.StoragePostgres:
		pgCfg := postgres.DefaultConfig(cfg.Database.URL)
		pgCfg.MaxConns = cfg.Database.MaxConns
		pgCfg.MinConns = cfg.Database.MinConns
		pgCfg.MaxConnLifetime = cfg.Database.ConnMaxLifetime
		pgCfg.MaxConnIdleTime = cfg.Database.ConnMaxIdleTime

		conn, err := postgres.NewConnection(ctx, pgCfg)
		if err != nil {
			return nil, fmt.Errorf("failed to connect to database: %w", err)
		}
		a.conn = conn
		a.closers = append(a.closers, func() {
			a.log.Info("closing database connection")
			conn.Close()
		})

		store := postgres.NewStore(conn, cfg.Database.TxMaxAttempts, a.log)
		rewards := postgres.NewRewardCatalog(conn)
		a.tx, a.catalog, a.writer, a.db = store, rewards, rewards, store
		a.log.Info("database connection established")

	default:
		return nil, fmt.Errorf("unsupported storage driver %q", cfg.Database.Driver)
	}

	if withRedis && cfg.Redis.Enabled {
		if err := a.openRedis(ctx); err != nil {
			a.Close()
			return nil, err
		}
	}
	return a, nil
}

func (a *app) openRedis(ctx context.Context) error {
	rc := redis.DefaultConfig()
	rc.Host = a.cfg.Redis.Host
	rc.Port = a.cfg.Redis.Port
	rc.Password = a.cfg.Redis.Password
	rc.DB = a.cfg.Redis.DB
	rc.PoolSize = a.cfg.Redis.PoolSize
	rc.MinIdleConns = a.cfg.Redis.MinIdleConns
	rc.DialTimeout = a.cfg.Redis.DialTimeout
	rc.ReadTimeout = a.cfg.Redis.ReadTimeout
	rc.WriteTimeout = a.cfg.Redis.WriteTimeout

	client, err := redis.NewClient(ctx, rc)
	if err != nil {
		return fmt.Errorf("failed to connect to redis: %w", err)
	}
	a.redisClient = client
	breaker := circuitbreaker.CacheBreaker(redis.IsBreakerFailure, func(name string, from, to circuitbreaker.State) {
		a.log.Warn("circuit breaker state changed",
			logger.String("breaker", name),
			logger.Stringer("from", from),
			logger.Stringer("to", to),
		)
	})
	a.cache = redis.NewCache(client).WithBreaker(breaker)
	a.closers = append(a.closers, func() {
		a.log.Info("closing redis connection")
		_ = a.cache.Close()
	})
	a.log.Info("redis connection established", logger.String("addr", rc.Addr()))
	return nil
}

// requirePostgres fails for commands that only make sense against a
// database.
func (a *app) requirePostgres() error {
	if a.conn == nil {
		return errors.New("this command requires STORAGE_DRIVER=postgres")
	}
	return nil
}

// Close releases connections in reverse order of opening.
func (a *app) Close() {
	for i := len(a.closers) - 1; i >= 0; i-- {
		a.closers[i]()
	}
	a.closers = nil
}

// emptyCatalog is used when reward evaluation is switched off.
type emptyCatalog struct{}

func (emptyCatalog) ListActive(context.Context) ([]reward.Definition, error) { return nil, nil }
