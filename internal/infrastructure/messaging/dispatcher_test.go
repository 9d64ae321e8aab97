package messaging

import (
	"errors"
	"log/slog"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roastery-academy/training-hub/internal/domain/shared"
)

func testDispatcher(t *testing.T) *Dispatcher {
	t.Helper()

	config := DefaultDispatcherConfig(syncBus())
	config.RetryConfig = RetryConfig{
		MaxRetries:        2,
		InitialBackoff:    time.Millisecond,
		MaxBackoff:        5 * time.Millisecond,
		BackoffMultiplier: 2.0,
	}
	return NewDispatcher(config)
}

func TestDispatcher_RoutesToRegisteredHandler(t *testing.T) {
	d := testDispatcher(t)

	var got []string
	require.NoError(t, d.Register(shared.EventSessionScheduled, "roster-projection", func(e shared.Event) error {
		got = append(got, e.AggregateID())
		return nil
	}))

	require.NoError(t, d.Dispatch(shared.NewBaseSessionEvent(shared.EventSessionScheduled, "s1")))
	require.NoError(t, d.Dispatch(shared.NewBaseSessionEvent(shared.EventSessionCancelled, "s2")))

	assert.Equal(t, []string{"s1"}, got)
}

func TestDispatcher_RetriesTransientFailures(t *testing.T) {
	d := testDispatcher(t)

	attempts := 0
	require.NoError(t, d.Register(shared.EventSessionScheduled, "flaky", func(e shared.Event) error {
		attempts++
		if attempts < 3 {
			return errors.New("transient")
		}
		return nil
	}))

	require.NoError(t, d.Dispatch(shared.NewBaseSessionEvent(shared.EventSessionScheduled, "s1")))

	assert.Equal(t, 3, attempts)
	assert.Zero(t, d.DeadLetterQueue().Size())
}

func TestDispatcher_ExhaustedRetriesParkInDeadLetterQueue(t *testing.T) {
	d := testDispatcher(t)

	attempts := 0
	require.NoError(t, d.Register(shared.EventSessionScheduled, "broken", func(e shared.Event) error {
		attempts++
		return errors.New("permanent")
	}))

	err := d.Dispatch(shared.NewBaseSessionEvent(shared.EventSessionScheduled, "s1"))
	assert.Error(t, err)

	// MaxRetries 2 means one initial try plus two retries.
	assert.Equal(t, 3, attempts)

	entries := d.DeadLetterQueue().Entries()
	require.Len(t, entries, 1)
	assert.Equal(t, "broken", entries[0].HandlerName)
	assert.Equal(t, "s1", entries[0].Event.AggregateID())
	assert.Equal(t, 3, entries[0].Attempts)
}

func TestDispatcher_RecoveryMiddlewareContainsPanics(t *testing.T) {
	d := testDispatcher(t)
	d.Use(RecoveryMiddleware(slog.Default()))

	require.NoError(t, d.Register(shared.EventSessionScheduled, "panicky", func(e shared.Event) error {
		panic("unexpected payload shape")
	}))

	// The panic becomes a handler error and lands in the DLQ instead of
	// crashing the dispatch loop.
	err := d.Dispatch(shared.NewBaseSessionEvent(shared.EventSessionScheduled, "s1"))
	assert.Error(t, err)
	assert.Equal(t, 1, d.DeadLetterQueue().Size())
}

func TestDispatcher_StartSubscribesToBus(t *testing.T) {
	bus := syncBus()
	config := DefaultDispatcherConfig(bus)
	d := NewDispatcher(config)

	var got []string
	require.NoError(t, d.Register(shared.EventSessionScheduled, "listener", func(e shared.Event) error {
		got = append(got, e.AggregateID())
		return nil
	}))
	require.NoError(t, d.Start())

	require.NoError(t, bus.Publish(shared.NewBaseSessionEvent(shared.EventSessionScheduled, "s1")))
	assert.Equal(t, []string{"s1"}, got)
}

func TestDeadLetterQueue_EvictsOldestAtCapacity(t *testing.T) {
	q := NewDeadLetterQueue(2)

	for _, id := range []string{"s1", "s2", "s3"} {
		q.Add(DeadLetterEntry{Event: shared.NewBaseSessionEvent(shared.EventSessionScheduled, id)})
	}

	require.Equal(t, 2, q.Size())

	first, ok := q.Pop()
	require.True(t, ok)
	assert.Equal(t, "s2", first.Event.AggregateID())

	second, ok := q.Pop()
	require.True(t, ok)
	assert.Equal(t, "s3", second.Event.AggregateID())

	_, ok = q.Pop()
	assert.False(t, ok)
}
