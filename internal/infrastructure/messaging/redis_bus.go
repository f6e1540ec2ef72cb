package messaging

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"

	"github.com/lifequest/lifequest-core/internal/domain/shared"
	"github.com/lifequest/lifequest-core/pkg/logger"
)

// ══════════════════════════════════════════════════════════════════════════════
// REDIS EVENT BUS
// ══════════════════════════════════════════════════════════════════════════════

// RedisEventBus fans events out to every instance subscribed to the same
// channel. Local handlers run once per event: events published here are
// delivered locally right away and ignored when they come back from Redis.
type RedisEventBus struct {
	client      *redis.Client
	pubsub      *redis.PubSub
	local       *InMemoryEventBus
	channelName string
	instanceID  string
	logger      *logger.Logger
	ctx         context.Context
	cancel      context.CancelFunc
	wg          sync.WaitGroup
	mu          sync.RWMutex
	closed      bool
}

// RedisEventBusConfig configures a RedisEventBus.
type RedisEventBusConfig struct {
	Client      *redis.Client
	ChannelName string
	Local       InMemoryEventBusConfig
	Logger      *logger.Logger
}

// NewRedisEventBus subscribes to the channel and starts the receive loop.
func NewRedisEventBus(ctx context.Context, config RedisEventBusConfig) (*RedisEventBus, error) {
	if config.Client == nil {
		return nil, errors.New("redis client is required")
	}
	if config.ChannelName == "" {
		config.ChannelName = "lifequest:events"
	}
	if config.Logger == nil {
		config.Logger = logger.Nop()
	}
	if config.Local.Logger == nil {
		config.Local.Logger = config.Logger
	}

	pubsub := config.Client.Subscribe(ctx, config.ChannelName)
	if _, err := pubsub.Receive(ctx); err != nil {
		_ = pubsub.Close()
		return nil, fmt.Errorf("subscribe %s: %w", config.ChannelName, err)
	}

	loopCtx, cancel := context.WithCancel(context.Background())
	bus := &RedisEventBus{
		client:      config.Client,
		pubsub:      pubsub,
		local:       NewInMemoryEventBus(config.Local),
		channelName: config.ChannelName,
		instanceID:  uuid.NewString(),
		logger:      config.Logger.With(logger.Component("redis_eventbus")),
		ctx:         loopCtx,
		cancel:      cancel,
	}

	bus.wg.Add(1)
	go func() {
		defer bus.wg.Done()
		bus.receiveLoop(pubsub.Channel())
	}()
	return bus, nil
}

func (b *RedisEventBus) Subscribe(eventType shared.EventType, handler shared.EventHandler) error {
	return b.local.Subscribe(eventType, handler)
}

func (b *RedisEventBus) SubscribeAll(handler shared.EventHandler) error {
	return b.local.SubscribeAll(handler)
}

// Publish sends event to Redis and to local handlers. A Redis failure is
// logged; local delivery still happens.
func (b *RedisEventBus) Publish(event shared.Event) error {
	if event == nil {
		return errors.New("event cannot be nil")
	}
	b.mu.RLock()
	closed := b.closed
	b.mu.RUnlock()
	if closed {
		return ErrEventBusClosed
	}

	data, err := json.Marshal(envelope{
		InstanceID:  b.instanceID,
		EventType:   event.EventType(),
		AggregateID: event.AggregateID(),
		OccurredAt:  event.OccurredAt(),
		Payload:     event.Payload(),
	})
	if err != nil {
		return fmt.Errorf("marshal event: %w", err)
	}

	if err := b.client.Publish(b.ctx, b.channelName, data).Err(); err != nil {
		b.logger.Warn("failed to publish event to redis", logger.Err(err))
	}
	return b.local.Publish(event)
}

func (b *RedisEventBus) receiveLoop(messages <-chan *redis.Message) {
	for {
		select {
		case <-b.ctx.Done():
			return
		case msg, ok := <-messages:
			if !ok {
				return
			}
			b.handleMessage(msg.Payload)
		}
	}
}

func (b *RedisEventBus) handleMessage(payload string) {
	var env envelope
	if err := json.Unmarshal([]byte(payload), &env); err != nil {
		b.logger.Error("failed to decode remote event", logger.Err(err))
		return
	}
	if env.InstanceID == b.instanceID {
		return
	}
	if err := b.local.Publish(&remoteEvent{env: env}); err != nil {
		b.logger.Error("failed to dispatch remote event", logger.Err(err))
	}
}

// Close unsubscribes and drains local handlers.
func (b *RedisEventBus) Close() error {
	b.mu.Lock()
	if b.closed {
		b.mu.Unlock()
		return nil
	}
	b.closed = true
	b.mu.Unlock()

	b.cancel()
	err := b.pubsub.Close()
	b.wg.Wait()
	return errors.Join(err, b.local.Close())
}

// Metrics returns the local bus counters.
func (b *RedisEventBus) Metrics() MetricsSnapshot {
	return b.local.Metrics()
}

type envelope struct {
	InstanceID  string           `json:"instance_id"`
	EventType   shared.EventType `json:"event_type"`
	AggregateID string           `json:"aggregate_id"`
	OccurredAt  time.Time        `json:"occurred_at"`
	Payload     map[string]any   `json:"payload"`
}

// remoteEvent is an event received from another instance.
type remoteEvent struct {
	env envelope
}

func (e *remoteEvent) EventType() shared.EventType { return e.env.EventType }
func (e *remoteEvent) AggregateID() string         { return e.env.AggregateID }
func (e *remoteEvent) OccurredAt() time.Time       { return e.env.OccurredAt }
func (e *remoteEvent) Payload() map[string]any     { return e.env.Payload }
