package shared

import (
	"time"
)

// EventType names a domain event.
type EventType string

const (
	EventTaskLogged     EventType = "tasklog.logged"
	EventLevelUp        EventType = "progress.level_up"
	EventStreakUpdated  EventType = "progress.streak_updated"
	EventRewardUnlocked EventType = "reward.unlocked"
)

// Event is something that happened in the domain. Events are published
// only after the transaction that produced them has committed.
type Event interface {
	EventType() EventType
	OccurredAt() time.Time
	// AggregateID is the id of the user the event belongs to.
	AggregateID() string
	Payload() map[string]any
}

// BaseEvent carries the fields common to all events.
type BaseEvent struct {
	Type          EventType `json:"type"`
	Timestamp     time.Time `json:"timestamp"`
	AggregateId   string    `json:"aggregate_id"`
	CorrelationID string    `json:"correlation_id,omitempty"`
}

func (e BaseEvent) EventType() EventType  { return e.Type }
func (e BaseEvent) OccurredAt() time.Time { return e.Timestamp }
func (e BaseEvent) AggregateID() string   { return e.AggregateId }

// NewBaseEvent creates a BaseEvent stamped with at.
func NewBaseEvent(eventType EventType, aggregateID string, at time.Time) BaseEvent {
	return BaseEvent{Type: eventType, Timestamp: at.UTC(), AggregateId: aggregateID}
}

// TaskLoggedEvent is emitted for every committed submission.
type TaskLoggedEvent struct {
	BaseEvent
	EventID    string `json:"event_id"`
	CategoryID int64  `json:"category_id"`
	XP         int64  `json:"xp"`
	Points     int64  `json:"points"`
}

func (e TaskLoggedEvent) Payload() map[string]any {
	return map[string]any{
		"event_id":    e.EventID,
		"category_id": e.CategoryID,
		"xp":          e.XP,
		"points":      e.Points,
	}
}

// LevelUpEvent is emitted when a submission raised the user's level.
type LevelUpEvent struct {
	BaseEvent
	FromLevel int `json:"from_level"`
	ToLevel   int `json:"to_level"`
}

func (e LevelUpEvent) Payload() map[string]any {
	return map[string]any{"from_level": e.FromLevel, "to_level": e.ToLevel}
}

// StreakUpdatedEvent is emitted when a streak started, grew or reset.
type StreakUpdatedEvent struct {
	BaseEvent
	CategoryID int64  `json:"category_id"`
	Current    int    `json:"current"`
	Best       int    `json:"best"`
	Outcome    string `json:"outcome"`
}

func (e StreakUpdatedEvent) Payload() map[string]any {
	return map[string]any{
		"category_id": e.CategoryID,
		"current":     e.Current,
		"best":        e.Best,
		"outcome":     e.Outcome,
	}
}

// RewardUnlockedEvent is emitted for each newly granted reward.
type RewardUnlockedEvent struct {
	BaseEvent
	RewardID  string `json:"reward_id"`
	RewardKey string `json:"reward_key"`
}

func (e RewardUnlockedEvent) Payload() map[string]any {
	return map[string]any{"reward_id": e.RewardID, "reward_key": e.RewardKey}
}

// EventHandler handles one event.
type EventHandler func(event Event) error

// EventPublisher publishes events to subscribers.
type EventPublisher interface {
	Publish(event Event) error
}

// EventSubscriber registers handlers.
type EventSubscriber interface {
	Subscribe(eventType EventType, handler EventHandler) error
	SubscribeAll(handler EventHandler) error
}

// EventBus combines publishing and subscribing.
type EventBus interface {
	EventPublisher
	EventSubscriber
}
