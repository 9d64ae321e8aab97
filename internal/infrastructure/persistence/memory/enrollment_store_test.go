package memory

import (
	"context"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roastery-academy/training-hub/internal/domain/enrollment"
)

func newTestEnrollment(t *testing.T, id, traineeID, sessionID string) *enrollment.Enrollment {
	t.Helper()

	e, err := enrollment.NewEnrollment(id, traineeID, sessionID, false)
	require.NoError(t, err)
	return e
}

func TestEnrollmentRepository_DuplicateActivePairRejected(t *testing.T) {
	ctx := context.Background()
	store := NewStore()
	repo := NewEnrollmentRepository(store)

	require.NoError(t, repo.Create(ctx, newTestEnrollment(t, "e1", "t1", "s1")))

	err := repo.Create(ctx, newTestEnrollment(t, "e2", "t1", "s1"))
	assert.ErrorIs(t, err, enrollment.ErrEnrollmentExists)

	// Other pairs are unaffected.
	require.NoError(t, repo.Create(ctx, newTestEnrollment(t, "e3", "t2", "s1")))
	require.NoError(t, repo.Create(ctx, newTestEnrollment(t, "e4", "t1", "s2")))
}

func TestEnrollmentRepository_ReEnrollAfterCancellation(t *testing.T) {
	ctx := context.Background()
	store := NewStore()
	repo := NewEnrollmentRepository(store)

	first := newTestEnrollment(t, "e1", "t1", "s1")
	require.NoError(t, repo.Create(ctx, first))

	require.NoError(t, first.Cancel())
	require.NoError(t, repo.Update(ctx, first))

	// The partial uniqueness only covers active enrollments.
	require.NoError(t, repo.Create(ctx, newTestEnrollment(t, "e2", "t1", "s1")))

	active, err := repo.GetActive(ctx, "t1", "s1")
	require.NoError(t, err)
	assert.Equal(t, "e2", active.ID)
}

func TestEnrollmentRepository_GetActiveNotFound(t *testing.T) {
	ctx := context.Background()
	repo := NewEnrollmentRepository(NewStore())

	_, err := repo.GetActive(ctx, "t1", "s1")
	assert.ErrorIs(t, err, enrollment.ErrEnrollmentNotFound)
}

func TestEnrollmentRepository_CountRegistered(t *testing.T) {
	ctx := context.Background()
	store := NewStore()
	repo := NewEnrollmentRepository(store)

	e1 := newTestEnrollment(t, "e1", "t1", "s1")
	require.NoError(t, repo.Create(ctx, e1))
	require.NoError(t, repo.Create(ctx, newTestEnrollment(t, "e2", "t2", "s1")))
	require.NoError(t, repo.Create(ctx, newTestEnrollment(t, "e3", "t3", "s2")))

	require.NoError(t, e1.Cancel())
	require.NoError(t, repo.Update(ctx, e1))

	count, err := repo.CountRegistered(ctx, "s1")
	require.NoError(t, err)
	assert.Equal(t, 1, count)
}

func TestQueueRepository_PositionsNeverReused(t *testing.T) {
	ctx := context.Background()
	store := NewStore()
	repo := NewQueueRepository(store)

	p1, err := repo.NextPosition(ctx, "s1")
	require.NoError(t, err)
	p2, err := repo.NextPosition(ctx, "s1")
	require.NoError(t, err)

	assert.Equal(t, 1, p1)
	assert.Equal(t, 2, p2)

	// Withdrawing the head does not recycle its position.
	entry, err := enrollment.NewQueueEntry("q1", "t1", "s1", p1)
	require.NoError(t, err)
	require.NoError(t, repo.Create(ctx, entry))
	require.NoError(t, entry.Withdraw())
	require.NoError(t, repo.Update(ctx, entry))

	p3, err := repo.NextPosition(ctx, "s1")
	require.NoError(t, err)
	assert.Equal(t, 3, p3)

	// Each session counts independently.
	other, err := repo.NextPosition(ctx, "s2")
	require.NoError(t, err)
	assert.Equal(t, 1, other)
}

func TestQueueRepository_PeekHeadFIFO(t *testing.T) {
	ctx := context.Background()
	store := NewStore()
	repo := NewQueueRepository(store)

	for i, traineeID := range []string{"t1", "t2", "t3"} {
		pos, err := repo.NextPosition(ctx, "s1")
		require.NoError(t, err)

		entry, err := enrollment.NewQueueEntry(fmt.Sprintf("q%d", i+1), traineeID, "s1", pos)
		require.NoError(t, err)
		require.NoError(t, repo.Create(ctx, entry))
	}

	head, err := repo.PeekHead(ctx, "s1")
	require.NoError(t, err)
	assert.Equal(t, "t1", head.TraineeID)

	// After the head leaves, the next position wins.
	require.NoError(t, head.Withdraw())
	require.NoError(t, repo.Update(ctx, head))

	head, err = repo.PeekHead(ctx, "s1")
	require.NoError(t, err)
	assert.Equal(t, "t2", head.TraineeID)

	waiting, err := repo.ListWaiting(ctx, "s1")
	require.NoError(t, err)
	require.Len(t, waiting, 2)
	assert.Equal(t, "t2", waiting[0].TraineeID)
	assert.Equal(t, "t3", waiting[1].TraineeID)
}

func TestQueueRepository_DuplicateWaitingPairRejected(t *testing.T) {
	ctx := context.Background()
	repo := NewQueueRepository(NewStore())

	entry, err := enrollment.NewQueueEntry("q1", "t1", "s1", 1)
	require.NoError(t, err)
	require.NoError(t, repo.Create(ctx, entry))

	dup, err := enrollment.NewQueueEntry("q2", "t1", "s1", 2)
	require.NoError(t, err)
	assert.ErrorIs(t, repo.Create(ctx, dup), enrollment.ErrQueueEntryExists)
}

func TestQueueRepository_EmptyQueue(t *testing.T) {
	ctx := context.Background()
	repo := NewQueueRepository(NewStore())

	_, err := repo.PeekHead(ctx, "s1")
	assert.ErrorIs(t, err, enrollment.ErrQueueEntryNotFound)

	count, err := repo.CountWaiting(ctx, "s1")
	require.NoError(t, err)
	assert.Zero(t, count)
}
