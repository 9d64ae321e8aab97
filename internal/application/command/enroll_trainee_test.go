package command

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roastery-academy/training-hub/internal/domain/session"
	"github.com/roastery-academy/training-hub/internal/domain/shared"
	"github.com/roastery-academy/training-hub/internal/infrastructure/persistence/memory"
)

// seqIDs is a deterministic IDGenerator for tests.
type seqIDs struct{ n int }

func (s *seqIDs) GenerateID() string {
	s.n++
	return fmt.Sprintf("id-%04d", s.n)
}

// enrollmentEnv bundles the admission side of the system on the
// in-memory store.
type enrollmentEnv struct {
	store  *memory.Store
	enroll *EnrollTraineeHandler
	cancel *CancelEnrollmentHandler
	queue  *QueueManager
}

func newEnrollmentEnv(t *testing.T, capacity int) (*enrollmentEnv, string) {
	t.Helper()

	store := memory.NewStore()
	sessionRepo := memory.NewSessionRepository(store)
	enrollRepo := memory.NewEnrollmentRepository(store)
	queueRepo := memory.NewQueueRepository(store)
	ledger := memory.NewCapacityLedger(store)
	ids := &seqIDs{}

	queue := NewQueueManager(queueRepo, enrollRepo, ledger, nil, ids)

	sess, err := session.NewSession(session.NewSessionParams{
		ID:              "session-1",
		Title:           "Latte Art Basics",
		ScheduledAt:     time.Date(2026, 5, 1, 10, 0, 0, 0, time.UTC),
		DurationMinutes: 90,
		MaxCapacity:     session.Capacity(capacity),
	})
	require.NoError(t, err)
	require.NoError(t, sessionRepo.Create(context.Background(), sess))

	return &enrollmentEnv{
		store:  store,
		enroll: NewEnrollTraineeHandler(sessionRepo, enrollRepo, queueRepo, ledger, queue, nil, ids),
		cancel: NewCancelEnrollmentHandler(enrollRepo, ledger, queue, nil, nil),
		queue:  queue,
	}, sess.ID
}

func TestEnrollTrainee_AdmitsUntilFullThenQueues(t *testing.T) {
	ctx := context.Background()
	env, sessionID := newEnrollmentEnv(t, 2)

	for _, traineeID := range []string{"alice", "bob"} {
		result, err := env.enroll.Handle(ctx, EnrollTraineeCommand{TraineeID: traineeID, SessionID: sessionID})
		require.NoError(t, err)
		assert.True(t, result.Admitted)
		assert.False(t, result.Queued)
		require.NotNil(t, result.Enrollment)
		assert.False(t, result.Enrollment.Promoted)
	}

	// The third request hits a full session and lands on the waitlist.
	result, err := env.enroll.Handle(ctx, EnrollTraineeCommand{TraineeID: "carol", SessionID: sessionID})
	require.NoError(t, err)
	assert.False(t, result.Admitted)
	assert.True(t, result.Queued)
	assert.Equal(t, 1, result.Position)

	result, err = env.enroll.Handle(ctx, EnrollTraineeCommand{TraineeID: "dave", SessionID: sessionID})
	require.NoError(t, err)
	assert.True(t, result.Queued)
	assert.Equal(t, 2, result.Position)
}

func TestEnrollTrainee_DuplicateRequestsRejected(t *testing.T) {
	ctx := context.Background()
	env, sessionID := newEnrollmentEnv(t, 1)

	_, err := env.enroll.Handle(ctx, EnrollTraineeCommand{TraineeID: "alice", SessionID: sessionID})
	require.NoError(t, err)

	_, err = env.enroll.Handle(ctx, EnrollTraineeCommand{TraineeID: "alice", SessionID: sessionID})
	assert.ErrorIs(t, err, shared.ErrAlreadyEnrolled)

	_, err = env.enroll.Handle(ctx, EnrollTraineeCommand{TraineeID: "bob", SessionID: sessionID})
	require.NoError(t, err)

	_, err = env.enroll.Handle(ctx, EnrollTraineeCommand{TraineeID: "bob", SessionID: sessionID})
	assert.ErrorIs(t, err, shared.ErrAlreadyQueued)
}

func TestEnrollTrainee_SessionNotFound(t *testing.T) {
	ctx := context.Background()
	env, _ := newEnrollmentEnv(t, 1)

	_, err := env.enroll.Handle(ctx, EnrollTraineeCommand{TraineeID: "alice", SessionID: "missing"})
	assert.ErrorIs(t, err, shared.ErrSessionNotFound)
}

func TestEnrollTrainee_ClosedSessionRejected(t *testing.T) {
	ctx := context.Background()
	store := memory.NewStore()
	sessionRepo := memory.NewSessionRepository(store)
	ids := &seqIDs{}
	ledger := memory.NewCapacityLedger(store)
	enrollRepo := memory.NewEnrollmentRepository(store)
	queueRepo := memory.NewQueueRepository(store)
	queue := NewQueueManager(queueRepo, enrollRepo, ledger, nil, ids)
	handler := NewEnrollTraineeHandler(sessionRepo, enrollRepo, queueRepo, ledger, queue, nil, ids)

	sess, err := session.NewSession(session.NewSessionParams{
		ID:              "session-1",
		Title:           "Latte Art Basics",
		ScheduledAt:     time.Date(2026, 5, 1, 10, 0, 0, 0, time.UTC),
		DurationMinutes: 90,
		MaxCapacity:     5,
	})
	require.NoError(t, err)
	require.NoError(t, sess.Cancel())
	require.NoError(t, sessionRepo.Create(ctx, sess))

	_, err = handler.Handle(ctx, EnrollTraineeCommand{TraineeID: "alice", SessionID: sess.ID})
	assert.ErrorIs(t, err, shared.ErrSessionNotSchedulable)
}

func TestCancelEnrollment_PromotesQueueHeadFIFO(t *testing.T) {
	ctx := context.Background()
	env, sessionID := newEnrollmentEnv(t, 2)

	for _, traineeID := range []string{"alice", "bob", "carol", "dave"} {
		_, err := env.enroll.Handle(ctx, EnrollTraineeCommand{TraineeID: traineeID, SessionID: sessionID})
		require.NoError(t, err)
	}

	// Alice leaves: her slot goes to carol, the queue head.
	result, err := env.cancel.Handle(ctx, CancelEnrollmentCommand{ActorID: "alice", TraineeID: "alice", SessionID: sessionID})
	require.NoError(t, err)
	assert.True(t, result.SlotFreed)
	require.NotNil(t, result.Promoted)
	assert.Equal(t, "carol", result.Promoted.TraineeID)
	assert.True(t, result.Promoted.Promoted)

	// Bob leaves: dave follows in insertion order.
	result, err = env.cancel.Handle(ctx, CancelEnrollmentCommand{ActorID: "bob", TraineeID: "bob", SessionID: sessionID})
	require.NoError(t, err)
	require.NotNil(t, result.Promoted)
	assert.Equal(t, "dave", result.Promoted.TraineeID)

	// Carol leaves with an empty queue: the slot stays free.
	result, err = env.cancel.Handle(ctx, CancelEnrollmentCommand{ActorID: "carol", TraineeID: "carol", SessionID: sessionID})
	require.NoError(t, err)
	assert.True(t, result.SlotFreed)
	assert.Nil(t, result.Promoted)
}

func TestCancelEnrollment_NotEnrolled(t *testing.T) {
	ctx := context.Background()
	env, sessionID := newEnrollmentEnv(t, 2)

	_, err := env.cancel.Handle(ctx, CancelEnrollmentCommand{ActorID: "alice", TraineeID: "alice", SessionID: sessionID})
	assert.ErrorIs(t, err, shared.ErrNotEnrolled)
}

func TestCancelEnrollment_ForceCancelRequiresDirectory(t *testing.T) {
	ctx := context.Background()
	env, sessionID := newEnrollmentEnv(t, 2)

	_, err := env.enroll.Handle(ctx, EnrollTraineeCommand{TraineeID: "alice", SessionID: sessionID})
	require.NoError(t, err)

	// Without a directory to check roles against, cancelling another
	// trainee's enrollment is refused.
	_, err = env.cancel.Handle(ctx, CancelEnrollmentCommand{ActorID: "bob", TraineeID: "alice", SessionID: sessionID})
	assert.ErrorIs(t, err, shared.ErrForbidden)
}

func TestQueueManager_WithdrawDoesNotPromote(t *testing.T) {
	ctx := context.Background()
	env, sessionID := newEnrollmentEnv(t, 1)

	for _, traineeID := range []string{"alice", "bob", "carol"} {
		_, err := env.enroll.Handle(ctx, EnrollTraineeCommand{TraineeID: traineeID, SessionID: sessionID})
		require.NoError(t, err)
	}

	// Bob withdraws from position 1; carol keeps her raw position but
	// becomes the head.
	require.NoError(t, env.queue.Withdraw(ctx, "bob", sessionID))

	assert.ErrorIs(t, env.queue.Withdraw(ctx, "bob", sessionID), shared.ErrQueueEntryNotFound)

	// Alice leaves and carol, not bob, gets the slot.
	result, err := env.cancel.Handle(ctx, CancelEnrollmentCommand{ActorID: "alice", TraineeID: "alice", SessionID: sessionID})
	require.NoError(t, err)
	require.NotNil(t, result.Promoted)
	assert.Equal(t, "carol", result.Promoted.TraineeID)
	assert.True(t, result.Promoted.Promoted)
}

func TestQueueManager_PromoteNextEmptyQueue(t *testing.T) {
	ctx := context.Background()
	env, sessionID := newEnrollmentEnv(t, 2)

	promoted, err := env.queue.PromoteNext(ctx, sessionID)
	require.NoError(t, err)
	assert.Nil(t, promoted)
}
