package query

import (
	"context"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roastery-academy/training-hub/internal/domain/enrollment"
	"github.com/roastery-academy/training-hub/internal/domain/shared"
	"github.com/roastery-academy/training-hub/internal/infrastructure/persistence/memory"
)

func seedQueue(t *testing.T, repo *memory.QueueRepository, sessionID string, traineeIDs ...string) {
	t.Helper()

	ctx := context.Background()
	for i, traineeID := range traineeIDs {
		pos, err := repo.NextPosition(ctx, sessionID)
		require.NoError(t, err)

		entry, err := enrollment.NewQueueEntry(fmt.Sprintf("%s-q%d", sessionID, i+1), traineeID, sessionID, pos)
		require.NoError(t, err)
		require.NoError(t, repo.Create(ctx, entry))
	}
}

func TestGetQueueStatus_RankFollowsWaitingOrder(t *testing.T) {
	ctx := context.Background()
	repo := memory.NewQueueRepository(memory.NewStore())
	handler := NewGetQueueStatusHandler(repo)

	seedQueue(t, repo, "s1", "t1", "t2", "t3")

	view, err := handler.Handle(ctx, "t2", "s1")
	require.NoError(t, err)

	assert.Equal(t, 2, view.Rank)
	assert.Equal(t, 3, view.TotalWaiting)
	assert.Equal(t, 2, view.Entry.Position)
}

func TestGetQueueStatus_RankShrinksAfterWithdrawals(t *testing.T) {
	ctx := context.Background()
	repo := memory.NewQueueRepository(memory.NewStore())
	handler := NewGetQueueStatusHandler(repo)

	seedQueue(t, repo, "s1", "t1", "t2", "t3")

	head, err := repo.PeekHead(ctx, "s1")
	require.NoError(t, err)
	require.NoError(t, head.Withdraw())
	require.NoError(t, repo.Update(ctx, head))

	// t3 keeps raw position 3 but is now second in line.
	view, err := handler.Handle(ctx, "t3", "s1")
	require.NoError(t, err)

	assert.Equal(t, 2, view.Rank)
	assert.Equal(t, 2, view.TotalWaiting)
	assert.Equal(t, 3, view.Entry.Position)
}

func TestGetQueueStatus_NotQueued(t *testing.T) {
	ctx := context.Background()
	handler := NewGetQueueStatusHandler(memory.NewQueueRepository(memory.NewStore()))

	_, err := handler.Handle(ctx, "t1", "s1")
	assert.ErrorIs(t, err, shared.ErrQueueEntryNotFound)
}

func TestListTraineeQueues(t *testing.T) {
	ctx := context.Background()
	repo := memory.NewQueueRepository(memory.NewStore())
	handler := NewListTraineeQueuesHandler(repo)

	seedQueue(t, repo, "s1", "t1", "t2")
	seedQueue(t, repo, "s2", "t1")

	entries, err := handler.Handle(ctx, "t1")
	require.NoError(t, err)
	assert.Len(t, entries, 2)

	entries, err = handler.Handle(ctx, "t3")
	require.NoError(t, err)
	assert.Empty(t, entries)
}
