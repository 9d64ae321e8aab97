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

type certEnv struct {
	attempts *memory.AttemptRepository
	certs    *memory.CertificateRepository
	issue    *IssueCertificateHandler
}

func newCertEnv(t *testing.T) *certEnv {
	t.Helper()

	store := memory.NewStore()
	attempts := memory.NewAttemptRepository(store)
	certs := memory.NewCertificateRepository(store)

	return &certEnv{
		attempts: attempts,
		certs:    certs,
		issue:    NewIssueCertificateHandler(certs, attempts, memory.NewNumberAllocator(), nil, &seqIDs{}),
	}
}

// finalizedAttempt stores an attempt in the given terminal state.
func (e *certEnv) finalizedAttempt(t *testing.T, id string, percentage float64, passingScore float64, expired bool) *exam.Attempt {
	t.Helper()

	started := time.Date(2026, 5, 1, 10, 0, 0, 0, time.UTC)
	attempt, err := exam.StartAttempt(id, "alice", "exam-"+id, "session-1", started)
	require.NoError(t, err)

	result := exam.ScoreResult{Score: int(percentage), TotalPoints: 100, Percentage: percentage}
	if expired {
		require.NoError(t, attempt.FinalizeExpired(result, started.Add(2*time.Hour)))
	} else {
		require.NoError(t, attempt.FinalizeSubmitted(result, passingScore, started.Add(30*time.Minute)))
	}

	require.NoError(t, e.attempts.Create(context.Background(), attempt))
	return attempt
}

func TestIssueCertificate(t *testing.T) {
	ctx := context.Background()
	env := newCertEnv(t)
	attempt := env.finalizedAttempt(t, "a1", 85, 70, false)

	result, err := env.issue.Handle(ctx, IssueCertificateCommand{AttemptID: attempt.ID})
	require.NoError(t, err)

	assert.True(t, result.Created)
	assert.Equal(t, "alice", result.Certificate.TraineeID)
	assert.Equal(t, attempt.ID, result.Certificate.AttemptID)
	assert.Contains(t, result.Certificate.Number, "CERT-")
	assert.NotEmpty(t, result.Certificate.VerificationCode)
}

func TestIssueCertificate_IdempotentUnderRetries(t *testing.T) {
	ctx := context.Background()
	env := newCertEnv(t)
	attempt := env.finalizedAttempt(t, "a1", 85, 70, false)

	first, err := env.issue.Handle(ctx, IssueCertificateCommand{AttemptID: attempt.ID})
	require.NoError(t, err)
	require.True(t, first.Created)

	// A redelivered finalization event must return the original
	// certificate, never mint a second one.
	second, err := env.issue.Handle(ctx, IssueCertificateCommand{AttemptID: attempt.ID})
	require.NoError(t, err)

	assert.False(t, second.Created)
	assert.Equal(t, first.Certificate.ID, second.Certificate.ID)
	assert.Equal(t, first.Certificate.Number, second.Certificate.Number)

	certs, err := env.certs.ListByTrainee(ctx, "alice")
	require.NoError(t, err)
	assert.Len(t, certs, 1)
}

func TestIssueCertificate_FailingAttemptRejected(t *testing.T) {
	ctx := context.Background()
	env := newCertEnv(t)
	attempt := env.finalizedAttempt(t, "a1", 60, 70, false)

	_, err := env.issue.Handle(ctx, IssueCertificateCommand{AttemptID: attempt.ID})
	assert.ErrorIs(t, err, shared.ErrAttemptNotPassing)
}

func TestIssueCertificate_ExpiredAttemptNeverCertifies(t *testing.T) {
	ctx := context.Background()
	env := newCertEnv(t)

	// Expired attempts carry Passed=false even with a perfect score.
	attempt := env.finalizedAttempt(t, "a1", 100, 70, true)

	_, err := env.issue.Handle(ctx, IssueCertificateCommand{AttemptID: attempt.ID})
	assert.ErrorIs(t, err, shared.ErrAttemptNotPassing)
}

func TestIssueCertificate_UnknownAttempt(t *testing.T) {
	ctx := context.Background()
	env := newCertEnv(t)

	_, err := env.issue.Handle(ctx, IssueCertificateCommand{AttemptID: "missing"})
	assert.ErrorIs(t, err, shared.ErrAttemptNotFound)
}

func TestRevokeCertificate(t *testing.T) {
	ctx := context.Background()
	env := newCertEnv(t)
	attempt := env.finalizedAttempt(t, "a1", 85, 70, false)

	issued, err := env.issue.Handle(ctx, IssueCertificateCommand{AttemptID: attempt.ID})
	require.NoError(t, err)

	revoke := NewRevokeCertificateHandler(env.certs, staffDirectory{"admin-1"}, nil)

	// Revocation is staff-only.
	err = revoke.Handle(ctx, RevokeCertificateCommand{ActorID: "alice", Number: issued.Certificate.Number})
	assert.ErrorIs(t, err, shared.ErrForbidden)

	require.NoError(t, revoke.Handle(ctx, RevokeCertificateCommand{ActorID: "admin-1", Number: issued.Certificate.Number}))

	stored, err := env.certs.GetByNumber(ctx, issued.Certificate.Number)
	require.NoError(t, err)
	assert.False(t, stored.Verify(stored.VerificationCode))
}
