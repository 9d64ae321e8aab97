package exam

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func openAttempt(t *testing.T, startedAt time.Time) *Attempt {
	t.Helper()

	attempt, err := StartAttempt("attempt-1", "trainee-1", "exam-1", "session-1", startedAt)
	require.NoError(t, err)
	return attempt
}

func TestStartAttempt(t *testing.T) {
	started := time.Date(2026, 3, 10, 9, 0, 0, 0, time.UTC)
	attempt := openAttempt(t, started)

	assert.Equal(t, AttemptStatusInProgress, attempt.Status)
	assert.Equal(t, started, attempt.StartedAt)
	assert.Nil(t, attempt.SubmittedAt)
	assert.NotNil(t, attempt.Answers)
}

func TestStartAttempt_Validation(t *testing.T) {
	now := time.Now()

	_, err := StartAttempt("id", "", "exam-1", "session-1", now)
	assert.ErrorIs(t, err, ErrInvalidTraineeID)

	_, err = StartAttempt("id", "trainee-1", "", "session-1", now)
	assert.ErrorIs(t, err, ErrInvalidExamID)
}

func TestAttempt_Deadline(t *testing.T) {
	started := time.Date(2026, 3, 10, 9, 0, 0, 0, time.UTC)
	attempt := openAttempt(t, started)

	duration := 90 * time.Minute
	assert.Equal(t, started.Add(duration), attempt.Deadline(duration))

	assert.False(t, attempt.IsOverdue(duration, started.Add(89*time.Minute)))
	// The deadline itself is still within the window.
	assert.False(t, attempt.IsOverdue(duration, started.Add(90*time.Minute)))
	assert.True(t, attempt.IsOverdue(duration, started.Add(90*time.Minute+time.Second)))
}

func TestAttempt_RecordAnswersMerges(t *testing.T) {
	attempt := openAttempt(t, time.Now())

	require.NoError(t, attempt.RecordAnswers(map[string]string{"q1": "a", "q2": "b"}))
	require.NoError(t, attempt.RecordAnswers(map[string]string{"q2": "c", "q3": "d"}))

	assert.Equal(t, map[string]string{"q1": "a", "q2": "c", "q3": "d"}, attempt.Answers)
}

func TestAttempt_FinalizeSubmitted(t *testing.T) {
	started := time.Date(2026, 3, 10, 9, 0, 0, 0, time.UTC)
	attempt := openAttempt(t, started)

	submittedAt := started.Add(30 * time.Minute)
	result := ScoreResult{Score: 80, TotalPoints: 100, Percentage: 80}

	require.NoError(t, attempt.FinalizeSubmitted(result, 70, submittedAt))

	assert.Equal(t, AttemptStatusSubmitted, attempt.Status)
	assert.True(t, attempt.Passed)
	assert.Equal(t, 80, attempt.Score)
	require.NotNil(t, attempt.SubmittedAt)
	assert.Equal(t, submittedAt, *attempt.SubmittedAt)
}

func TestAttempt_FinalizeSubmittedAtThreshold(t *testing.T) {
	attempt := openAttempt(t, time.Now())

	result := ScoreResult{Score: 70, TotalPoints: 100, Percentage: 70}
	require.NoError(t, attempt.FinalizeSubmitted(result, 70, time.Now()))

	// Exactly the passing score passes.
	assert.True(t, attempt.Passed)
}

func TestAttempt_FinalizeExpiredNeverPasses(t *testing.T) {
	attempt := openAttempt(t, time.Now())

	// A perfect score graded after the deadline still fails.
	result := ScoreResult{Score: 100, TotalPoints: 100, Percentage: 100}
	require.NoError(t, attempt.FinalizeExpired(result, time.Now()))

	assert.Equal(t, AttemptStatusExpired, attempt.Status)
	assert.False(t, attempt.Passed)
	assert.Equal(t, 100, attempt.Score)
}

func TestAttempt_DoubleFinalization(t *testing.T) {
	attempt := openAttempt(t, time.Now())
	result := ScoreResult{Score: 50, TotalPoints: 100, Percentage: 50}

	require.NoError(t, attempt.FinalizeSubmitted(result, 70, time.Now()))

	// Terminal attempts never transition or re-score.
	assert.ErrorIs(t, attempt.FinalizeSubmitted(ScoreResult{Percentage: 100}, 70, time.Now()), ErrAlreadyFinalized)
	assert.ErrorIs(t, attempt.FinalizeExpired(ScoreResult{}, time.Now()), ErrAlreadyFinalized)
	assert.ErrorIs(t, attempt.RecordAnswers(map[string]string{"q1": "a"}), ErrAlreadyFinalized)

	assert.Equal(t, 50, attempt.Score)
	assert.False(t, attempt.Passed)
}

func TestAttempt_Clone(t *testing.T) {
	attempt := openAttempt(t, time.Now())
	require.NoError(t, attempt.RecordAnswers(map[string]string{"q1": "a"}))

	clone := attempt.Clone()
	clone.Answers["q1"] = "tampered"

	assert.Equal(t, "a", attempt.Answers["q1"])
}
