// Package eventhandler contains subscribers that react to committed domain
// events: the audit trail and read-side cache invalidation.
package eventhandler

import (
	"github.com/lifequest/lifequest-core/internal/domain/shared"
	"github.com/lifequest/lifequest-core/pkg/logger"
)

// AuditLogHandler writes one structured line per published event.
type AuditLogHandler struct {
	log *logger.Logger
}

// NewAuditLogHandler creates an AuditLogHandler.
func NewAuditLogHandler(log *logger.Logger) *AuditLogHandler {
	if log == nil {
		log = logger.Nop()
	}
	return &AuditLogHandler{log: log.With(logger.Component("audit"))}
}

// Handle implements shared.EventHandler.
func (h *AuditLogHandler) Handle(event shared.Event) error {
	if event == nil {
		return nil
	}
	fields := []logger.Field{
		logger.String("event_type", string(event.EventType())),
		logger.String("user_id", event.AggregateID()),
		logger.Time("occurred_at", event.OccurredAt()),
		logger.Any("payload", event.Payload()),
	}
	h.log.Info("domain event", fields...)
	return nil
}
