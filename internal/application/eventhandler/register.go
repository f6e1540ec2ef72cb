package eventhandler

import (
	"fmt"

	"github.com/lifequest/lifequest-core/internal/domain/shared"
	"github.com/lifequest/lifequest-core/pkg/logger"
)

// Options selects which subscribers Register attaches.
type Options struct {
	AuditLog bool
	// LevelCache is optional; nil skips cache invalidation.
	LevelCache LevelInvalidator
	Logger     *logger.Logger
}

// Register attaches the configured subscribers to bus.
func Register(bus shared.EventSubscriber, opts Options) error {
	if opts.AuditLog {
		audit := NewAuditLogHandler(opts.Logger)
		if err := bus.SubscribeAll(audit.Handle); err != nil {
			return fmt.Errorf("subscribe audit log: %w", err)
		}
	}

	if opts.LevelCache != nil {
		h := NewLevelCacheHandler(opts.LevelCache, opts.Logger)
		for _, t := range h.EventTypes() {
			if err := bus.Subscribe(t, h.Handle); err != nil {
				return fmt.Errorf("subscribe level cache to %s: %w", t, err)
			}
		}
	}
	return nil
}
