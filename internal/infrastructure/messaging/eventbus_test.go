package messaging

import (
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roastery-academy/training-hub/internal/domain/shared"
)

// syncBus returns a bus that runs handlers inline, so tests see handler
// effects as soon as Publish returns.
func syncBus() *InMemoryEventBus {
	config := DefaultInMemoryEventBusConfig()
	config.AsyncMode = false
	return NewInMemoryEventBus(config)
}

func TestInMemoryEventBus_PublishRoutesByType(t *testing.T) {
	bus := syncBus()

	var scheduled, cancelled []string
	require.NoError(t, bus.Subscribe(shared.EventSessionScheduled, func(e shared.Event) error {
		scheduled = append(scheduled, e.AggregateID())
		return nil
	}))
	require.NoError(t, bus.Subscribe(shared.EventSessionCancelled, func(e shared.Event) error {
		cancelled = append(cancelled, e.AggregateID())
		return nil
	}))

	require.NoError(t, bus.Publish(shared.NewBaseSessionEvent(shared.EventSessionScheduled, "s1")))
	require.NoError(t, bus.Publish(shared.NewBaseSessionEvent(shared.EventSessionScheduled, "s2")))
	require.NoError(t, bus.Publish(shared.NewBaseSessionEvent(shared.EventSessionCancelled, "s1")))

	assert.Equal(t, []string{"s1", "s2"}, scheduled)
	assert.Equal(t, []string{"s1"}, cancelled)
}

func TestInMemoryEventBus_SubscribeAllSeesEverything(t *testing.T) {
	bus := syncBus()

	var seen []shared.EventType
	require.NoError(t, bus.SubscribeAll(func(e shared.Event) error {
		seen = append(seen, e.EventType())
		return nil
	}))

	require.NoError(t, bus.Publish(shared.NewBaseSessionEvent(shared.EventSessionScheduled, "s1")))
	require.NoError(t, bus.Publish(shared.NewBaseSessionEvent(shared.EventSessionCancelled, "s1")))

	assert.Equal(t, []shared.EventType{shared.EventSessionScheduled, shared.EventSessionCancelled}, seen)
}

func TestInMemoryEventBus_HandlerErrorDoesNotFailPublish(t *testing.T) {
	bus := syncBus()

	called := false
	require.NoError(t, bus.Subscribe(shared.EventSessionScheduled, func(e shared.Event) error {
		return errors.New("boom")
	}))
	require.NoError(t, bus.Subscribe(shared.EventSessionScheduled, func(e shared.Event) error {
		called = true
		return nil
	}))

	// A failing subscriber is logged, not propagated to the publisher.
	require.NoError(t, bus.Publish(shared.NewBaseSessionEvent(shared.EventSessionScheduled, "s1")))
	assert.True(t, called)
}

func TestInMemoryEventBus_AsyncDeliveryCompletesOnClose(t *testing.T) {
	config := DefaultInMemoryEventBusConfig()
	config.WorkerPoolSize = 2
	bus := NewInMemoryEventBus(config)

	var mu sync.Mutex
	delivered := 0
	require.NoError(t, bus.SubscribeAll(func(e shared.Event) error {
		time.Sleep(5 * time.Millisecond)
		mu.Lock()
		delivered++
		mu.Unlock()
		return nil
	}))

	for i := 0; i < 10; i++ {
		require.NoError(t, bus.Publish(shared.NewBaseSessionEvent(shared.EventSessionScheduled, "s1")))
	}

	// Close waits for in-flight handlers.
	require.NoError(t, bus.Close())

	mu.Lock()
	defer mu.Unlock()
	assert.Equal(t, 10, delivered)
}

func TestInMemoryEventBus_ClosedBusRejectsPublish(t *testing.T) {
	bus := syncBus()
	require.NoError(t, bus.Close())

	err := bus.Publish(shared.NewBaseSessionEvent(shared.EventSessionScheduled, "s1"))
	assert.ErrorIs(t, err, ErrEventBusClosed)

	err = bus.Subscribe(shared.EventSessionScheduled, func(e shared.Event) error { return nil })
	assert.ErrorIs(t, err, ErrEventBusClosed)
}

func TestInMemoryEventBus_MetricsCountDeliveries(t *testing.T) {
	bus := syncBus()

	require.NoError(t, bus.Subscribe(shared.EventSessionScheduled, func(e shared.Event) error { return nil }))
	require.NoError(t, bus.Subscribe(shared.EventSessionScheduled, func(e shared.Event) error { return errors.New("boom") }))

	require.NoError(t, bus.Publish(shared.NewBaseSessionEvent(shared.EventSessionScheduled, "s1")))

	snapshot := bus.Metrics().Snapshot()
	assert.Equal(t, int64(1), snapshot.TotalPublished)
	assert.Equal(t, int64(2), snapshot.TotalHandlerExecs)
	assert.InDelta(t, 0.5, snapshot.HandlerSuccessRate, 0.001)
}
