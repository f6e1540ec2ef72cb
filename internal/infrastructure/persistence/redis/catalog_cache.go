package redis

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/lifequest/lifequest-core/internal/domain/reward"
	"github.com/lifequest/lifequest-core/pkg/logger"
)

// ══════════════════════════════════════════════════════════════════════════════
// REWARD CATALOG CACHE
// ══════════════════════════════════════════════════════════════════════════════

// RewardCatalogCache is a read-through reward.Catalog. Redis errors are
// logged and the source is read instead.
type RewardCatalogCache struct {
	cache  *Cache
	source reward.Catalog
	ttl    time.Duration
	logger *logger.Logger
}

var _ reward.Catalog = (*RewardCatalogCache)(nil)

// NewRewardCatalogCache creates a RewardCatalogCache over source.
func NewRewardCatalogCache(cache *Cache, source reward.Catalog, ttl time.Duration, log *logger.Logger) *RewardCatalogCache {
	if ttl <= 0 {
		ttl = TTLRewardCatalog
	}
	if log == nil {
		log = logger.Nop()
	}
	return &RewardCatalogCache{cache: cache, source: source, ttl: ttl, logger: log.With(logger.Component("reward_catalog_cache"))}
}

// ListActive implements reward.Catalog.
func (c *RewardCatalogCache) ListActive(ctx context.Context) ([]reward.Definition, error) {
	var defs []reward.Definition
	err := c.cache.Get(ctx, RewardCatalogKey(), &defs)
	if err == nil {
		return defs, nil
	}
	if !errors.Is(err, ErrCacheMiss) {
		c.logger.Warn("reward catalog cache read failed", logger.Err(err))
	}
	return c.Refresh(ctx)
}

// Refresh reloads the catalog from the source and stores it.
func (c *RewardCatalogCache) Refresh(ctx context.Context) ([]reward.Definition, error) {
	defs, err := c.source.ListActive(ctx)
	if err != nil {
		return nil, fmt.Errorf("load reward catalog: %w", err)
	}
	if defs == nil {
		defs = []reward.Definition{}
	}
	if err := c.cache.Set(ctx, RewardCatalogKey(), defs, c.ttl); err != nil {
		c.logger.Warn("reward catalog cache write failed", logger.Err(err))
	}
	return defs, nil
}

// Invalidate drops the cached catalog.
func (c *RewardCatalogCache) Invalidate(ctx context.Context) error {
	return c.cache.Delete(ctx, RewardCatalogKey())
}
