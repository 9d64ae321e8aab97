package exam

import (
	"context"
)

// ══════════════════════════════════════════════════════════════════════════════
// REPOSITORY INTERFACES
// ══════════════════════════════════════════════════════════════════════════════

// AttemptRepository defines the storage operations for exam attempts.
// Implementations must serialize writes per (trainee, exam) pair;
// different trainees' attempts proceed without contention.
type AttemptRepository interface {
	// Create persists a new attempt.
	// Returns ErrAttemptExists if an attempt already exists for the
	// (trainee, exam) pair.
	Create(ctx context.Context, a *Attempt) error

	// Get returns the attempt for the pair.
	// Returns ErrAttemptNotFound if no attempt exists.
	Get(ctx context.Context, traineeID, examID string) (*Attempt, error)

	// GetByID returns an attempt by its identifier.
	GetByID(ctx context.Context, id string) (*Attempt, error)

	// Update persists an attempt state transition. The guard column is
	// the status: a terminal attempt row is never overwritten, so a
	// racing finalization loses cleanly.
	Update(ctx context.Context, a *Attempt) error

	// Finalize persists a transition into a terminal state. It must be
	// conditional on the stored status still being in_progress and
	// return ErrAlreadyFinalized otherwise, so concurrent submit and
	// lazy-expiry reconciliation cannot both apply.
	Finalize(ctx context.Context, a *Attempt) error

	// ListByTrainee returns all attempts for a trainee, newest first.
	ListByTrainee(ctx context.Context, traineeID string) ([]*Attempt, error)

	// Delete removes an attempt. Used only by the administrative reset.
	Delete(ctx context.Context, id string) error
}

// QuestionBank supplies static exam content keyed by exam ID. It is
// read-only reference data consumed during scoring; the engine never
// writes to it.
type QuestionBank interface {
	// GetExam returns the exam configuration including its ordered
	// questions. Returns ErrExamNotFound if the exam does not exist.
	GetExam(ctx context.Context, examID string) (*Exam, error)
}
