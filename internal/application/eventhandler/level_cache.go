package eventhandler

import (
	"context"
	"time"

	"github.com/lifequest/lifequest-core/internal/domain/shared"
	"github.com/lifequest/lifequest-core/pkg/logger"
)

// LevelInvalidator drops a cached level view for one user.
type LevelInvalidator interface {
	Invalidate(ctx context.Context, userID string) error
}

// LevelCacheHandler evicts the cached level view after any event that
// changes the user's XP or level.
type LevelCacheHandler struct {
	cache   LevelInvalidator
	timeout time.Duration
	log     *logger.Logger
}

// NewLevelCacheHandler creates a LevelCacheHandler.
func NewLevelCacheHandler(cache LevelInvalidator, log *logger.Logger) *LevelCacheHandler {
	if log == nil {
		log = logger.Nop()
	}
	return &LevelCacheHandler{
		cache:   cache,
		timeout: 2 * time.Second,
		log:     log.With(logger.Component("level_cache_handler")),
	}
}

// EventTypes lists the events that invalidate the level view.
func (h *LevelCacheHandler) EventTypes() []shared.EventType {
	return []shared.EventType{shared.EventTaskLogged, shared.EventLevelUp}
}

// Handle implements shared.EventHandler.
func (h *LevelCacheHandler) Handle(event shared.Event) error {
	if event == nil || event.AggregateID() == "" {
		return nil
	}
	ctx, cancel := context.WithTimeout(context.Background(), h.timeout)
	defer cancel()

	if err := h.cache.Invalidate(ctx, event.AggregateID()); err != nil {
		h.log.Warn("level cache invalidation failed",
			logger.String("user_id", event.AggregateID()),
			logger.String("event_type", string(event.EventType())),
			logger.Err(err),
		)
		return err
	}
	return nil
}
