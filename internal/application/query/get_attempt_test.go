package query

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roastery-academy/training-hub/internal/domain/exam"
	"github.com/roastery-academy/training-hub/internal/domain/shared"
	"github.com/roastery-academy/training-hub/internal/infrastructure/persistence/memory"
)

// readClock is a settable shared.Clock.
type readClock struct{ now time.Time }

func (c *readClock) Now() time.Time { return c.now }

func (c *readClock) advance(d time.Duration) { c.now = c.now.Add(d) }

type attemptViewEnv struct {
	attempts *memory.AttemptRepository
	clock    *readClock
	handler  *GetAttemptHandler
}

func newAttemptViewEnv(t *testing.T) *attemptViewEnv {
	t.Helper()

	attempts := memory.NewAttemptRepository(memory.NewStore())
	bank := memory.NewQuestionBank()
	bank.Put(&exam.Exam{
		ID:              "exam-1",
		SessionID:       "session-1",
		Title:           "Espresso Fundamentals",
		DurationMinutes: 60,
		PassingScore:    70,
		Questions: []exam.Question{
			{ID: "q1", Type: exam.QuestionTypeMultipleChoice, CorrectAnswer: "a", Points: 50},
			{ID: "q2", Type: exam.QuestionTypeTrueFalse, CorrectAnswer: "true", Points: 50},
		},
	})
	clock := &readClock{now: time.Date(2026, 5, 1, 10, 0, 0, 0, time.UTC)}

	return &attemptViewEnv{
		attempts: attempts,
		clock:    clock,
		handler:  NewGetAttemptHandler(attempts, bank, nil, clock),
	}
}

// openAttempt stores an in-progress attempt started at the current clock
// reading, with the given draft answers recorded.
func (e *attemptViewEnv) openAttempt(t *testing.T, answers map[string]string) *exam.Attempt {
	t.Helper()

	attempt, err := exam.StartAttempt("a1", "alice", "exam-1", "session-1", e.clock.now)
	require.NoError(t, err)
	if len(answers) > 0 {
		require.NoError(t, attempt.RecordAnswers(answers))
	}
	require.NoError(t, e.attempts.Create(context.Background(), attempt))
	return attempt
}

func TestGetAttempt_CountdownWhileInProgress(t *testing.T) {
	ctx := context.Background()
	env := newAttemptViewEnv(t)
	env.openAttempt(t, nil)

	env.clock.advance(15 * time.Minute)

	view, err := env.handler.Handle(ctx, GetAttemptQuery{TraineeID: "alice", ExamID: "exam-1"})
	require.NoError(t, err)

	assert.Equal(t, exam.AttemptStatusInProgress, view.Attempt.Status)
	assert.Equal(t, 60, view.DurationMinutes)
	assert.InDelta(t, 70.0, view.PassingScore, 0.001)
	assert.Equal(t, 45*60, view.RemainingSeconds)
}

func TestGetAttempt_ReadPastDeadlineExpires(t *testing.T) {
	ctx := context.Background()
	env := newAttemptViewEnv(t)
	env.openAttempt(t, map[string]string{"q1": "a", "q2": "false"})

	env.clock.advance(61 * time.Minute)

	// The read itself performs the transition: the abandoned attempt
	// comes back expired, graded from the recorded draft.
	view, err := env.handler.Handle(ctx, GetAttemptQuery{TraineeID: "alice", ExamID: "exam-1"})
	require.NoError(t, err)

	assert.Equal(t, exam.AttemptStatusExpired, view.Attempt.Status)
	assert.InDelta(t, 50.0, view.Attempt.PercentageScore, 0.001)
	assert.False(t, view.Attempt.Passed)
	assert.Zero(t, view.RemainingSeconds)

	// The transition is persisted, not just reflected in the view.
	stored, err := env.attempts.Get(ctx, "alice", "exam-1")
	require.NoError(t, err)
	assert.Equal(t, exam.AttemptStatusExpired, stored.Status)
}

func TestGetAttempt_ExpiryPublishesFinalization(t *testing.T) {
	ctx := context.Background()
	env := newAttemptViewEnv(t)
	env.openAttempt(t, nil)

	var published []shared.Event
	env.handler.publisher = publisherFunc(func(e shared.Event) error {
		published = append(published, e)
		return nil
	})

	env.clock.advance(2 * time.Hour)

	_, err := env.handler.Handle(ctx, GetAttemptQuery{TraineeID: "alice", ExamID: "exam-1"})
	require.NoError(t, err)

	require.Len(t, published, 1)
	assert.Equal(t, shared.EventExamExpired, published[0].EventType())
	assert.Equal(t, "a1", published[0].AggregateID())
}

func TestGetAttempt_ReadAfterSubmitDoesNotRefinalize(t *testing.T) {
	ctx := context.Background()
	env := newAttemptViewEnv(t)
	attempt := env.openAttempt(t, nil)

	result := exam.Score([]exam.Question{
		{ID: "q1", Type: exam.QuestionTypeMultipleChoice, CorrectAnswer: "a", Points: 50},
		{ID: "q2", Type: exam.QuestionTypeTrueFalse, CorrectAnswer: "true", Points: 50},
	}, map[string]string{"q1": "a", "q2": "true"})
	require.NoError(t, attempt.FinalizeSubmitted(result, 70, env.clock.now.Add(30*time.Minute)))
	require.NoError(t, env.attempts.Finalize(ctx, attempt))

	// Reading long after the deadline must not turn a submitted attempt
	// into an expired one.
	env.clock.advance(24 * time.Hour)

	view, err := env.handler.Handle(ctx, GetAttemptQuery{TraineeID: "alice", ExamID: "exam-1"})
	require.NoError(t, err)

	assert.Equal(t, exam.AttemptStatusSubmitted, view.Attempt.Status)
	assert.True(t, view.Attempt.Passed)
	assert.InDelta(t, 100.0, view.Attempt.PercentageScore, 0.001)
	assert.Zero(t, view.RemainingSeconds)
}

func TestGetAttempt_NotFound(t *testing.T) {
	ctx := context.Background()
	env := newAttemptViewEnv(t)

	_, err := env.handler.Handle(ctx, GetAttemptQuery{TraineeID: "alice", ExamID: "exam-1"})
	assert.ErrorIs(t, err, shared.ErrAttemptNotFound)
}

// publisherFunc adapts a function to shared.EventPublisher.
type publisherFunc func(shared.Event) error

func (f publisherFunc) Publish(event shared.Event) error { return f(event) }
