package redis

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"

	"github.com/lifequest/lifequest-core/internal/application/query"
	"github.com/lifequest/lifequest-core/pkg/logger"
)

// ══════════════════════════════════════════════════════════════════════════════
// LEVEL CACHE
// ══════════════════════════════════════════════════════════════════════════════

// LevelCache stores query.LevelView values and drops them when a task log
// for the user is committed.
type LevelCache struct {
	cache  *Cache
	ttl    time.Duration
	logger *logger.Logger
}

var _ query.LevelCache = (*LevelCache)(nil)

// NewLevelCache creates a LevelCache.
func NewLevelCache(cache *Cache, log *logger.Logger) *LevelCache {
	if log == nil {
		log = logger.Nop()
	}
	return &LevelCache{cache: cache, ttl: TTLLevelView, logger: log.With(logger.Component("level_cache"))}
}

// WithTTL overrides TTLLevelView. Non-positive values are ignored.
func (c *LevelCache) WithTTL(ttl time.Duration) *LevelCache {
	if ttl > 0 {
		c.ttl = ttl
	}
	return c
}

// GetLevel implements query.LevelCache.
func (c *LevelCache) GetLevel(ctx context.Context, userID uuid.UUID) (*query.LevelView, bool) {
	var view query.LevelView
	if err := c.cache.Get(ctx, LevelKey(userID.String()), &view); err != nil {
		if !errors.Is(err, ErrCacheMiss) {
			c.logger.Warn("level cache read failed", logger.UserID(userID), logger.Err(err))
		}
		return nil, false
	}
	return &view, true
}

// SetLevel implements query.LevelCache.
func (c *LevelCache) SetLevel(ctx context.Context, view *query.LevelView) {
	if err := c.cache.Set(ctx, LevelKey(view.UserID.String()), view, c.ttl); err != nil {
		c.logger.Warn("level cache write failed", logger.UserID(view.UserID), logger.Err(err))
	}
}

// Invalidate drops the cached view of userID.
func (c *LevelCache) Invalidate(ctx context.Context, userID string) error {
	return c.cache.Delete(ctx, LevelKey(userID))
}
