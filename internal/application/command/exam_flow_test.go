package command

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

// testClock is a settable shared.Clock.
type testClock struct{ now time.Time }

func (c *testClock) Now() time.Time { return c.now }

func (c *testClock) advance(d time.Duration) { c.now = c.now.Add(d) }

func seededBank(t *testing.T) *memory.QuestionBank {
	t.Helper()

	bank := memory.NewQuestionBank()
	bank.Put(&exam.Exam{
		ID:              "exam-1",
		SessionID:       "session-1",
		Title:           "Barista Certification Exam",
		DurationMinutes: 60,
		PassingScore:    70,
		Questions: []exam.Question{
			{ID: "q1", Type: exam.QuestionTypeMultipleChoice, CorrectAnswer: "a", Points: 50},
			{ID: "q2", Type: exam.QuestionTypeTrueFalse, CorrectAnswer: "true", Points: 50},
		},
	})
	return bank
}

type examEnv struct {
	attempts *memory.AttemptRepository
	clock    *testClock
	start    *StartExamHandler
	submit   *SubmitExamHandler
	record   *RecordAnswersHandler
}

func newExamEnv(t *testing.T) *examEnv {
	t.Helper()

	store := memory.NewStore()
	attempts := memory.NewAttemptRepository(store)
	bank := seededBank(t)
	clock := &testClock{now: time.Date(2026, 5, 1, 10, 0, 0, 0, time.UTC)}
	ids := &seqIDs{}

	return &examEnv{
		attempts: attempts,
		clock:    clock,
		start:    NewStartExamHandler(attempts, bank, nil, ids, clock),
		submit:   NewSubmitExamHandler(attempts, bank, nil, clock),
		record:   NewRecordAnswersHandler(attempts),
	}
}

func TestStartExam(t *testing.T) {
	ctx := context.Background()
	env := newExamEnv(t)

	result, err := env.start.Handle(ctx, StartExamCommand{TraineeID: "alice", ExamID: "exam-1"})
	require.NoError(t, err)

	assert.Equal(t, exam.AttemptStatusInProgress, result.Attempt.Status)
	assert.Equal(t, "session-1", result.Attempt.SessionID)
	assert.Equal(t, 60, result.DurationMinutes)
	assert.Equal(t, env.clock.now, result.Attempt.StartedAt)
}

func TestStartExam_SecondStartRejected(t *testing.T) {
	ctx := context.Background()
	env := newExamEnv(t)

	_, err := env.start.Handle(ctx, StartExamCommand{TraineeID: "alice", ExamID: "exam-1"})
	require.NoError(t, err)

	_, err = env.start.Handle(ctx, StartExamCommand{TraineeID: "alice", ExamID: "exam-1"})
	assert.ErrorIs(t, err, shared.ErrAttemptAlreadyExists)
}

func TestStartExam_UnknownExam(t *testing.T) {
	ctx := context.Background()
	env := newExamEnv(t)

	_, err := env.start.Handle(ctx, StartExamCommand{TraineeID: "alice", ExamID: "missing"})
	assert.ErrorIs(t, err, shared.ErrExamNotFound)
}

func TestSubmitExam_InWindowPasses(t *testing.T) {
	ctx := context.Background()
	env := newExamEnv(t)

	_, err := env.start.Handle(ctx, StartExamCommand{TraineeID: "alice", ExamID: "exam-1"})
	require.NoError(t, err)

	env.clock.advance(30 * time.Minute)

	attempt, err := env.submit.Handle(ctx, SubmitExamCommand{
		TraineeID: "alice",
		ExamID:    "exam-1",
		Answers:   map[string]string{"q1": "a", "q2": "true"},
	})
	require.NoError(t, err)

	assert.Equal(t, exam.AttemptStatusSubmitted, attempt.Status)
	assert.Equal(t, 100, attempt.Score)
	assert.True(t, attempt.Passed)
}

func TestSubmitExam_BelowThresholdFails(t *testing.T) {
	ctx := context.Background()
	env := newExamEnv(t)

	_, err := env.start.Handle(ctx, StartExamCommand{TraineeID: "alice", ExamID: "exam-1"})
	require.NoError(t, err)

	attempt, err := env.submit.Handle(ctx, SubmitExamCommand{
		TraineeID: "alice",
		ExamID:    "exam-1",
		Answers:   map[string]string{"q1": "a", "q2": "false"},
	})
	require.NoError(t, err)

	assert.Equal(t, exam.AttemptStatusSubmitted, attempt.Status)
	assert.InDelta(t, 50.0, attempt.PercentageScore, 0.001)
	assert.False(t, attempt.Passed)
}

func TestSubmitExam_LateSubmissionExpires(t *testing.T) {
	ctx := context.Background()
	env := newExamEnv(t)

	_, err := env.start.Handle(ctx, StartExamCommand{TraineeID: "alice", ExamID: "exam-1"})
	require.NoError(t, err)

	env.clock.advance(61 * time.Minute)

	// A perfect answer set after the deadline is graded but never passes.
	attempt, err := env.submit.Handle(ctx, SubmitExamCommand{
		TraineeID: "alice",
		ExamID:    "exam-1",
		Answers:   map[string]string{"q1": "a", "q2": "true"},
	})
	require.NoError(t, err)

	assert.Equal(t, exam.AttemptStatusExpired, attempt.Status)
	assert.Equal(t, 100, attempt.Score)
	assert.False(t, attempt.Passed)
}

func TestSubmitExam_SecondSubmitRejected(t *testing.T) {
	ctx := context.Background()
	env := newExamEnv(t)

	_, err := env.start.Handle(ctx, StartExamCommand{TraineeID: "alice", ExamID: "exam-1"})
	require.NoError(t, err)

	_, err = env.submit.Handle(ctx, SubmitExamCommand{
		TraineeID: "alice",
		ExamID:    "exam-1",
		Answers:   map[string]string{"q1": "a", "q2": "false"},
	})
	require.NoError(t, err)

	// A retried submit with better answers must not re-score.
	_, err = env.submit.Handle(ctx, SubmitExamCommand{
		TraineeID: "alice",
		ExamID:    "exam-1",
		Answers:   map[string]string{"q1": "a", "q2": "true"},
	})
	assert.ErrorIs(t, err, shared.ErrAttemptAlreadyFinalized)

	attempt, err := env.attempts.Get(ctx, "alice", "exam-1")
	require.NoError(t, err)
	assert.InDelta(t, 50.0, attempt.PercentageScore, 0.001)
}

func TestSubmitExam_NoActiveAttempt(t *testing.T) {
	ctx := context.Background()
	env := newExamEnv(t)

	_, err := env.submit.Handle(ctx, SubmitExamCommand{
		TraineeID: "alice",
		ExamID:    "exam-1",
		Answers:   map[string]string{"q1": "a"},
	})
	assert.ErrorIs(t, err, shared.ErrNoActiveAttempt)
}

func TestRecordAnswers_DraftMergesIntoSubmission(t *testing.T) {
	ctx := context.Background()
	env := newExamEnv(t)

	_, err := env.start.Handle(ctx, StartExamCommand{TraineeID: "alice", ExamID: "exam-1"})
	require.NoError(t, err)

	require.NoError(t, env.record.Handle(ctx, RecordAnswersCommand{
		TraineeID: "alice",
		ExamID:    "exam-1",
		Answers:   map[string]string{"q1": "a"},
	}))

	// Submit carries only q2; q1 comes from the saved draft.
	attempt, err := env.submit.Handle(ctx, SubmitExamCommand{
		TraineeID: "alice",
		ExamID:    "exam-1",
		Answers:   map[string]string{"q2": "true"},
	})
	require.NoError(t, err)

	assert.Equal(t, 100, attempt.Score)
	assert.True(t, attempt.Passed)
}

func TestResetAttempt_OnlyTerminalAttempts(t *testing.T) {
	ctx := context.Background()
	env := newExamEnv(t)

	staff := staffDirectory{"admin-1"}
	reset := NewResetAttemptHandler(env.attempts, staff)

	_, err := env.start.Handle(ctx, StartExamCommand{TraineeID: "alice", ExamID: "exam-1"})
	require.NoError(t, err)

	// An open attempt cannot be reset.
	err = reset.Handle(ctx, ResetAttemptCommand{ActorID: "admin-1", TraineeID: "alice", ExamID: "exam-1"})
	assert.Error(t, err)

	_, err = env.submit.Handle(ctx, SubmitExamCommand{
		TraineeID: "alice",
		ExamID:    "exam-1",
		Answers:   map[string]string{"q1": "b"},
	})
	require.NoError(t, err)

	require.NoError(t, reset.Handle(ctx, ResetAttemptCommand{ActorID: "admin-1", TraineeID: "alice", ExamID: "exam-1"}))

	// The one-attempt rule opens up again after the reset.
	_, err = env.start.Handle(ctx, StartExamCommand{TraineeID: "alice", ExamID: "exam-1"})
	require.NoError(t, err)
}
