package memory

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roastery-academy/training-hub/internal/domain/session"
)

func newTestSession(t *testing.T, id string, capacity int) *session.Session {
	t.Helper()

	s, err := session.NewSession(session.NewSessionParams{
		ID:              id,
		Title:           "Espresso Fundamentals",
		TrainerID:       "trainer-1",
		ScheduledAt:     time.Date(2026, 4, 1, 9, 0, 0, 0, time.UTC),
		DurationMinutes: 120,
		MaxCapacity:     session.Capacity(capacity),
	})
	require.NoError(t, err)
	return s
}

func TestSessionRepository_CreateAndGet(t *testing.T) {
	ctx := context.Background()
	store := NewStore()
	repo := NewSessionRepository(store)

	s := newTestSession(t, "s1", 10)
	require.NoError(t, repo.Create(ctx, s))

	assert.ErrorIs(t, repo.Create(ctx, s), session.ErrSessionAlreadyExists)

	got, err := repo.GetByID(ctx, "s1")
	require.NoError(t, err)
	assert.Equal(t, "Espresso Fundamentals", got.Title)

	_, err = repo.GetByID(ctx, "missing")
	assert.ErrorIs(t, err, session.ErrSessionNotFound)
}

func TestSessionRepository_UpdatePreservesEnrolledCount(t *testing.T) {
	ctx := context.Background()
	store := NewStore()
	repo := NewSessionRepository(store)
	ledger := NewCapacityLedger(store)

	require.NoError(t, repo.Create(ctx, newTestSession(t, "s1", 10)))

	reserved, err := ledger.TryReserve(ctx, "s1")
	require.NoError(t, err)
	require.True(t, reserved)

	// A stale snapshot must not overwrite the ledger-owned count.
	stale, err := repo.GetByID(ctx, "s1")
	require.NoError(t, err)
	stale.Title = "Espresso Fundamentals II"
	stale.EnrolledCount = 0
	require.NoError(t, repo.Update(ctx, stale))

	got, err := repo.GetByID(ctx, "s1")
	require.NoError(t, err)
	assert.Equal(t, "Espresso Fundamentals II", got.Title)
	assert.Equal(t, 1, got.EnrolledCount)
}

func TestSessionRepository_FindTrainerConflict(t *testing.T) {
	ctx := context.Background()
	store := NewStore()
	repo := NewSessionRepository(store)

	s := newTestSession(t, "s1", 10)
	require.NoError(t, repo.Create(ctx, s))

	conflict, err := repo.FindTrainerConflict(ctx, "trainer-1", s.ScheduledAt)
	require.NoError(t, err)
	assert.True(t, conflict)

	conflict, err = repo.FindTrainerConflict(ctx, "trainer-1", s.ScheduledAt.Add(time.Hour))
	require.NoError(t, err)
	assert.False(t, conflict)

	conflict, err = repo.FindTrainerConflict(ctx, "trainer-2", s.ScheduledAt)
	require.NoError(t, err)
	assert.False(t, conflict)

	// Cancelled sessions do not block the slot.
	require.NoError(t, s.Cancel())
	require.NoError(t, repo.Update(ctx, s))

	conflict, err = repo.FindTrainerConflict(ctx, "trainer-1", s.ScheduledAt)
	require.NoError(t, err)
	assert.False(t, conflict)
}

func TestCapacityLedger_TryReserve(t *testing.T) {
	ctx := context.Background()
	store := NewStore()
	repo := NewSessionRepository(store)
	ledger := NewCapacityLedger(store)

	require.NoError(t, repo.Create(ctx, newTestSession(t, "s1", 2)))

	for i := 0; i < 2; i++ {
		reserved, err := ledger.TryReserve(ctx, "s1")
		require.NoError(t, err)
		assert.True(t, reserved)
	}

	// Full is a decision, not an error.
	reserved, err := ledger.TryReserve(ctx, "s1")
	require.NoError(t, err)
	assert.False(t, reserved)

	_, err = ledger.TryReserve(ctx, "missing")
	assert.ErrorIs(t, err, session.ErrSessionNotFound)
}

func TestCapacityLedger_ReleaseSignalsWasFull(t *testing.T) {
	ctx := context.Background()
	store := NewStore()
	repo := NewSessionRepository(store)
	ledger := NewCapacityLedger(store)

	require.NoError(t, repo.Create(ctx, newTestSession(t, "s1", 2)))

	for i := 0; i < 2; i++ {
		_, err := ledger.TryReserve(ctx, "s1")
		require.NoError(t, err)
	}

	// The first release frees the slot of a full session.
	wasFull, err := ledger.Release(ctx, "s1")
	require.NoError(t, err)
	assert.True(t, wasFull)

	// The second one releases from a non-full session.
	wasFull, err = ledger.Release(ctx, "s1")
	require.NoError(t, err)
	assert.False(t, wasFull)

	// Releasing with zero enrolled never goes negative.
	wasFull, err = ledger.Release(ctx, "s1")
	require.NoError(t, err)
	assert.False(t, wasFull)

	got, err := repo.GetByID(ctx, "s1")
	require.NoError(t, err)
	assert.Equal(t, 0, got.EnrolledCount)
}

func TestCapacityLedger_ConcurrentReservations(t *testing.T) {
	ctx := context.Background()
	store := NewStore()
	repo := NewSessionRepository(store)
	ledger := NewCapacityLedger(store)

	const capacity = 5
	const contenders = 50

	require.NoError(t, repo.Create(ctx, newTestSession(t, "s1", capacity)))

	var wg sync.WaitGroup
	var mu sync.Mutex
	wins := 0

	for i := 0; i < contenders; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			reserved, err := ledger.TryReserve(ctx, "s1")
			if err != nil {
				return
			}
			if reserved {
				mu.Lock()
				wins++
				mu.Unlock()
			}
		}()
	}
	wg.Wait()

	// The count never exceeds capacity, whatever the interleaving.
	assert.Equal(t, capacity, wins)

	got, err := repo.GetByID(ctx, "s1")
	require.NoError(t, err)
	assert.Equal(t, capacity, got.EnrolledCount)
}

func TestCapacityLedger_ReconcileSettlesStrandedReservations(t *testing.T) {
	ctx := context.Background()
	store := NewStore()
	repo := NewSessionRepository(store)
	ledger := NewCapacityLedger(store)
	enrollments := NewEnrollmentRepository(store)

	require.NoError(t, repo.Create(ctx, newTestSession(t, "s1", 5)))

	// Three reservations taken, but only two enrollment writes landed:
	// the third reservation is stranded, as after a crash between the
	// reserve and the insert.
	for i := 0; i < 3; i++ {
		reserved, err := ledger.TryReserve(ctx, "s1")
		require.NoError(t, err)
		require.True(t, reserved)
	}
	require.NoError(t, enrollments.Create(ctx, newTestEnrollment(t, "e1", "t1", "s1")))
	require.NoError(t, enrollments.Create(ctx, newTestEnrollment(t, "e2", "t2", "s1")))

	// A cancelled enrollment does not count toward capacity.
	cancelled := newTestEnrollment(t, "e3", "t3", "s1")
	require.NoError(t, enrollments.Create(ctx, cancelled))
	require.NoError(t, cancelled.Cancel())
	require.NoError(t, enrollments.Update(ctx, cancelled))

	corrected, err := ledger.Reconcile(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, corrected)

	got, err := repo.GetByID(ctx, "s1")
	require.NoError(t, err)
	assert.Equal(t, 2, got.EnrolledCount)

	// A settled ledger reconciles to a no-op.
	corrected, err = ledger.Reconcile(ctx)
	require.NoError(t, err)
	assert.Zero(t, corrected)
}
