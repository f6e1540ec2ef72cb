package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/lifequest/lifequest-core/config"
	"github.com/lifequest/lifequest-core/internal/application/command"
	"github.com/lifequest/lifequest-core/internal/application/eventhandler"
	"github.com/lifequest/lifequest-core/internal/application/query"
	"github.com/lifequest/lifequest-core/internal/domain/reward"
	"github.com/lifequest/lifequest-core/internal/domain/shared"
	"github.com/lifequest/lifequest-core/internal/infrastructure/catalog"
	"github.com/lifequest/lifequest-core/internal/infrastructure/messaging"
	"github.com/lifequest/lifequest-core/internal/infrastructure/persistence/redis"
	"github.com/lifequest/lifequest-core/internal/infrastructure/scheduler"
	"github.com/lifequest/lifequest-core/internal/infrastructure/scheduler/jobs"
	httpapi "github.com/lifequest/lifequest-core/internal/interface/http"
	"github.com/lifequest/lifequest-core/internal/interface/http/handlers"
	"github.com/lifequest/lifequest-core/pkg/logger"
	"github.com/lifequest/lifequest-core/pkg/timeutil"
)

func newServeCmd() *cobra.Command {
	var addr string

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the HTTP API",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()
			return serve(ctx, addr)
		},
	}
	cmd.Flags().StringVar(&addr, "addr", "", "listen address (overrides HTTP_ADDR)")
	return cmd
}

func serve(ctx context.Context, addrOverride string) error {
	a, err := openApp(ctx, true)
	if err != nil {
		return err
	}
	defer a.Close()

	cfg, log := a.cfg, a.log
	log.Info("starting lifequest",
		logger.String("version", cfg.App.Version),
		logger.String("storage", string(cfg.Database.Driver)),
		logger.Bool("redis", a.cache != nil),
	)

	if cfg.Database.Driver == config.StorageMemory {
		seedMemoryCatalog(ctx, a)
	}

	// ─────────────────────────────────────────────────────────────────────────
	// READ-SIDE CACHES
	// ─────────────────────────────────────────────────────────────────────────
	var (
		rewardCatalog reward.Catalog = a.catalog
		catalogCache  *redis.RewardCatalogCache
		levelCache    *redis.LevelCache
	)
	if a.cache != nil {
		catalogCache = redis.NewRewardCatalogCache(a.cache, a.catalog, cfg.Redis.CatalogTTL, log)
		rewardCatalog = catalogCache
		if cfg.Features.IsEnabled(config.FeatureLevelCache) {
			levelCache = redis.NewLevelCache(a.cache, log).WithTTL(cfg.Redis.LevelTTL)
		}
	}
	if !cfg.Features.IsEnabled(config.FeatureRewardEvaluation) {
		log.Warn("reward evaluation disabled")
		rewardCatalog = emptyCatalog{}
	}

	// ─────────────────────────────────────────────────────────────────────────
	// EVENT BUS
	// ─────────────────────────────────────────────────────────────────────────
	bus, closeBus, err := newEventBus(ctx, a)
	if err != nil {
		return err
	}
	defer closeBus()

	subs := eventhandler.Options{
		AuditLog: cfg.Features.IsEnabled(config.FeatureAuditLog),
		Logger:   log,
	}
	var levelReads query.LevelCache
	if levelCache != nil {
		subs.LevelCache = levelCache
		levelReads = levelCache
	}
	if err := eventhandler.Register(bus, subs); err != nil {
		return fmt.Errorf("failed to register event handlers: %w", err)
	}

	// ─────────────────────────────────────────────────────────────────────────
	// APPLICATION HANDLERS
	// ─────────────────────────────────────────────────────────────────────────
	clock := timeutil.SystemClock()
	engine := reward.NewEngine(reward.DefaultRegistry(), log)

	health := handlers.NewCompositeHealthChecker(cfg.App.Version)
	health.AddCheck("database", handlers.NewDatabaseCheck(a.db))
	if a.cache != nil {
		health.AddCheck("cache", handlers.NewCacheCheck(a.cache))
	}

	// ─────────────────────────────────────────────────────────────────────────
	// SCHEDULER
	// ─────────────────────────────────────────────────────────────────────────
	sched, err := startScheduler(cfg, log, catalogCache)
	if err != nil {
		return err
	}
	if sched != nil {
		defer func() {
			if err := sched.Stop(); err != nil {
				log.Warn("scheduler stop failed", logger.Err(err))
			}
		}()
	}

	// ─────────────────────────────────────────────────────────────────────────
	// HTTP SERVER
	// ─────────────────────────────────────────────────────────────────────────
	httpCfg := httpapi.DefaultConfig()
	httpCfg.Addr = cfg.HTTP.Addr
	if addrOverride != "" {
		httpCfg.Addr = addrOverride
	}
	httpCfg.ReadTimeout = cfg.HTTP.ReadTimeout
	httpCfg.WriteTimeout = cfg.HTTP.WriteTimeout
	httpCfg.RequestTimeout = cfg.HTTP.RequestTimeout
	httpCfg.AllowedOrigins = cfg.HTTP.AllowedOrigins
	httpCfg.ServiceTokenHash = cfg.HTTP.ServiceTokenHash

	server, err := httpapi.NewServer(httpCfg, httpapi.Dependencies{
		SubmitTaskLog:   command.NewSubmitTaskLogHandler(a.tx, rewardCatalog, engine, bus, clock, log),
		GetTaskProgress: query.NewGetTaskProgressHandler(a.tx, clock, log),
		GetUserLevel:    query.NewGetUserLevelHandler(a.tx, levelReads, log),
		HealthChecker:   health,
		Logger:          log,
	})
	if err != nil {
		return fmt.Errorf("failed to create http server: %w", err)
	}

	errCh := server.StartAsync()
	select {
	case <-ctx.Done():
		log.Info("shutdown signal received")
	case err := <-errCh:
		if err != nil {
			return err
		}
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.App.ShutdownTimeout)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil && !errors.Is(err, context.Canceled) {
		return fmt.Errorf("http shutdown: %w", err)
	}
	log.Info("lifequest stopped")
	return nil
}

// newEventBus fans events out through Redis when it is available so that
// every instance drops its stale cache entries.
func newEventBus(ctx context.Context, a *app) (shared.EventBus, func(), error) {
	local := messaging.DefaultInMemoryEventBusConfig()
	local.Logger = a.log

	if a.redisClient == nil {
		bus := messaging.NewInMemoryEventBus(local)
		return bus, func() { _ = bus.Close() }, nil
	}

	bus, err := messaging.NewRedisEventBus(ctx, messaging.RedisEventBusConfig{
		Client:      a.redisClient,
		ChannelName: redis.PubSubChannel("events"),
		Local:       local,
		Logger:      a.log,
	})
	if err != nil {
		return nil, nil, fmt.Errorf("failed to start redis event bus: %w", err)
	}
	return bus, func() { _ = bus.Close() }, nil
}

func startScheduler(cfg *config.Config, log *logger.Logger, catalogCache *redis.RewardCatalogCache) (*scheduler.Scheduler, error) {
	if !cfg.Scheduler.Enabled {
		return nil, nil
	}
	if catalogCache == nil || !cfg.Features.IsEnabled(config.FeatureCatalogRefresh) {
		log.Info("no background jobs to schedule")
		return nil, nil
	}

	sc := scheduler.DefaultConfig()
	sc.Logger = log
	sc.JobTimeout = cfg.Scheduler.JobTimeout

	sched, err := scheduler.New(sc)
	if err != nil {
		return nil, fmt.Errorf("failed to create scheduler: %w", err)
	}
	job := jobs.NewRefreshRewardCatalogJob(catalogCache, log)
	if err := sched.Every(job, cfg.Scheduler.CatalogRefresh, true); err != nil {
		return nil, fmt.Errorf("failed to schedule %s: %w", job.Name(), err)
	}
	if err := sched.Start(); err != nil {
		return nil, fmt.Errorf("failed to start scheduler: %w", err)
	}
	log.Info("scheduler started", logger.Duration("catalog_refresh", cfg.Scheduler.CatalogRefresh))
	return sched, nil
}

// seedMemoryCatalog loads the catalog file into a fresh in-memory store.
// A missing file leaves the catalog empty.
func seedMemoryCatalog(ctx context.Context, a *app) {
	path := a.cfg.Rewards.CatalogFile
	defs, err := catalog.Load(path)
	if err != nil {
		a.log.Warn("reward catalog not loaded", logger.String("file", path), logger.Err(err))
		return
	}
	res, err := command.NewSeedRewardsHandler(a.writer, nil, a.log).Handle(ctx, defs)
	if err != nil {
		a.log.Warn("reward catalog seeding failed", logger.Err(err))
		return
	}
	a.log.Info("reward catalog loaded",
		logger.String("file", path),
		logger.Int("rewards", res.Upserted),
	)
}
