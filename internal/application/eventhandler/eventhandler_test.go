package eventhandler_test

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/lifequest/lifequest-core/internal/application/eventhandler"
	"github.com/lifequest/lifequest-core/internal/domain/shared"
	"github.com/lifequest/lifequest-core/internal/infrastructure/messaging"
	"github.com/lifequest/lifequest-core/pkg/logger"
)

type fakeInvalidator struct {
	mu    sync.Mutex
	users []string
	err   error
}

func (f *fakeInvalidator) Invalidate(_ context.Context, userID string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.users = append(f.users, userID)
	return f.err
}

var at = time.Date(2024, 5, 15, 18, 0, 0, 0, time.UTC)

func taskLogged(user string) shared.Event {
	return shared.TaskLoggedEvent{
		BaseEvent:  shared.NewBaseEvent(shared.EventTaskLogged, user, at),
		EventID:    "evt-1",
		CategoryID: 3,
		XP:         40,
		Points:     5,
	}
}

func TestAuditLogHandler_WritesEvent(t *testing.T) {
	var buf bytes.Buffer
	h := eventhandler.NewAuditLogHandler(logger.New(logger.Options{Output: &buf, Level: logger.LevelInfo}))

	require.NoError(t, h.Handle(taskLogged("u-1")))

	var line struct {
		Message string         `json:"message"`
		Fields  map[string]any `json:"fields"`
	}
	require.NoError(t, json.Unmarshal(bytes.TrimSpace(buf.Bytes()), &line))
	assert.Equal(t, "domain event", line.Message)
	assert.Equal(t, "tasklog.logged", line.Fields["event_type"])
	assert.Equal(t, "u-1", line.Fields["user_id"])
	assert.Equal(t, "audit", line.Fields["component"])

	payload, ok := line.Fields["payload"].(map[string]any)
	require.True(t, ok)
	assert.Equal(t, "evt-1", payload["event_id"])
}

func TestAuditLogHandler_NilEvent(t *testing.T) {
	var buf bytes.Buffer
	h := eventhandler.NewAuditLogHandler(logger.New(logger.Options{Output: &buf}))
	assert.NoError(t, h.Handle(nil))
	assert.Zero(t, buf.Len())
}

func TestLevelCacheHandler(t *testing.T) {
	inv := &fakeInvalidator{}
	h := eventhandler.NewLevelCacheHandler(inv, nil)

	require.NoError(t, h.Handle(taskLogged("u-1")))
	assert.Equal(t, []string{"u-1"}, inv.users)

	inv.err = errors.New("redis down")
	assert.Error(t, h.Handle(taskLogged("u-2")))
}

func TestRegister(t *testing.T) {
	var buf bytes.Buffer
	log := logger.New(logger.Options{Output: &buf, Level: logger.LevelInfo})
	bus := messaging.NewInMemoryEventBus(messaging.DefaultInMemoryEventBusConfig())
	inv := &fakeInvalidator{}

	require.NoError(t, eventhandler.Register(bus, eventhandler.Options{
		AuditLog:   true,
		LevelCache: inv,
		Logger:     log,
	}))

	require.NoError(t, bus.Publish(taskLogged("u-1")))
	require.NoError(t, bus.Publish(shared.LevelUpEvent{
		BaseEvent: shared.NewBaseEvent(shared.EventLevelUp, "u-1", at),
		FromLevel: 1,
		ToLevel:   2,
	}))
	require.NoError(t, bus.Publish(shared.RewardUnlockedEvent{
		BaseEvent: shared.NewBaseEvent(shared.EventRewardUnlocked, "u-1", at),
		RewardKey: "first_log",
	}))

	assert.Equal(t, []string{"u-1", "u-1"}, inv.users)
	assert.Equal(t, 3, strings.Count(buf.String(), `"message":"domain event"`))
}

func TestRegister_NothingEnabled(t *testing.T) {
	bus := messaging.NewInMemoryEventBus(messaging.DefaultInMemoryEventBusConfig())
	require.NoError(t, eventhandler.Register(bus, eventhandler.Options{}))
	assert.NoError(t, bus.Publish(taskLogged("u-1")))
}
