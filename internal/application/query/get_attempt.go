// Package query contains read operations (CQRS - Queries).
package query

import (
	"context"
	"errors"

	"github.com/roastery-academy/training-hub/internal/domain/exam"
	"github.com/roastery-academy/training-hub/internal/domain/shared"
)

// ══════════════════════════════════════════════════════════════════════════════
// GET ATTEMPT QUERY
// The read side of the attempt engine's deadline: any read of an open
// attempt whose time box has elapsed lazily transitions it to expired,
// graded from the last recorded answers, before returning it. There is no
// background scheduler - a client that disconnects for a week still finds
// a correctly expired attempt on its next read.
// ══════════════════════════════════════════════════════════════════════════════

// GetAttemptQuery identifies the attempt to read.
type GetAttemptQuery struct {
	TraineeID string
	ExamID    string
}

// AttemptView is the attempt plus the reference data a client needs to
// render a countdown.
type AttemptView struct {
	Attempt         *exam.Attempt
	DurationMinutes int
	PassingScore    float64
	// RemainingSeconds is the server-computed countdown, zero for a
	// terminal attempt.
	RemainingSeconds int
}

// GetAttemptHandler handles the GetAttemptQuery.
type GetAttemptHandler struct {
	attemptRepo exam.AttemptRepository
	bank        exam.QuestionBank
	publisher   shared.EventPublisher
	clock       shared.Clock
}

// NewGetAttemptHandler creates a new GetAttemptHandler.
func NewGetAttemptHandler(
	attemptRepo exam.AttemptRepository,
	bank exam.QuestionBank,
	publisher shared.EventPublisher,
	clock shared.Clock,
) *GetAttemptHandler {
	if clock == nil {
		clock = shared.SystemClock()
	}
	return &GetAttemptHandler{
		attemptRepo: attemptRepo,
		bank:        bank,
		publisher:   publisher,
		clock:       clock,
	}
}

// Handle reads the attempt, reconciling expiry first when needed.
func (h *GetAttemptHandler) Handle(ctx context.Context, q GetAttemptQuery) (*AttemptView, error) {
	if q.TraineeID == "" || q.ExamID == "" {
		return nil, shared.NewDomainError("exam", "GetAttempt", shared.ErrValidation, "trainee_id and exam_id are required")
	}

	attempt, err := h.attemptRepo.Get(ctx, q.TraineeID, q.ExamID)
	if err != nil {
		if errors.Is(err, exam.ErrAttemptNotFound) {
			return nil, shared.ErrAttemptNotFound
		}
		return nil, shared.WrapError("exam", "GetAttempt", shared.ErrExternalService, "failed to load attempt", err)
	}

	examCfg, err := h.bank.GetExam(ctx, q.ExamID)
	if err != nil {
		return nil, shared.WrapError("exam", "GetAttempt", shared.ErrServiceUnavailable, "failed to load exam", err)
	}

	now := h.clock.Now()

	if attempt.Status == exam.AttemptStatusInProgress && attempt.IsOverdue(examCfg.Duration(), now) {
		attempt, err = h.reconcileExpiry(ctx, attempt, examCfg)
		if err != nil {
			return nil, err
		}
	}

	view := &AttemptView{
		Attempt:         attempt,
		DurationMinutes: examCfg.DurationMinutes,
		PassingScore:    examCfg.PassingScore,
	}

	if attempt.Status == exam.AttemptStatusInProgress {
		remaining := attempt.Deadline(examCfg.Duration()).Sub(now)
		if remaining > 0 {
			view.RemainingSeconds = int(remaining.Seconds())
		}
	}

	return view, nil
}

// reconcileExpiry grades the overdue attempt from its recorded answers
// and persists the expired transition. A concurrent submit may win the
// race; in that case the freshly stored attempt is returned as-is.
func (h *GetAttemptHandler) reconcileExpiry(ctx context.Context, attempt *exam.Attempt, examCfg *exam.Exam) (*exam.Attempt, error) {
	result := exam.Score(examCfg.Questions, attempt.Answers)

	if err := attempt.FinalizeExpired(result, h.clock.Now()); err != nil {
		return h.reload(ctx, attempt)
	}

	if err := h.attemptRepo.Finalize(ctx, attempt); err != nil {
		if errors.Is(err, exam.ErrAlreadyFinalized) {
			return h.reload(ctx, attempt)
		}
		return nil, shared.WrapError("exam", "GetAttempt", shared.ErrExternalService, "failed to expire attempt", err)
	}

	if h.publisher != nil {
		_ = h.publisher.Publish(shared.NewExamFinalizedEvent(
			attempt.ID,
			attempt.TraineeID,
			attempt.ExamID,
			attempt.SessionID,
			false,
			true,
			attempt.PercentageScore,
		))
	}

	return attempt, nil
}

func (h *GetAttemptHandler) reload(ctx context.Context, attempt *exam.Attempt) (*exam.Attempt, error) {
	fresh, err := h.attemptRepo.GetByID(ctx, attempt.ID)
	if err != nil {
		return nil, shared.WrapError("exam", "GetAttempt", shared.ErrExternalService, "failed to reload attempt", err)
	}
	return fresh, nil
}

// ══════════════════════════════════════════════════════════════════════════════
// LIST ATTEMPTS QUERY
// ══════════════════════════════════════════════════════════════════════════════

// ListAttemptsHandler returns a trainee's attempts, newest first.
type ListAttemptsHandler struct {
	attemptRepo exam.AttemptRepository
}

// NewListAttemptsHandler creates a new ListAttemptsHandler.
func NewListAttemptsHandler(attemptRepo exam.AttemptRepository) *ListAttemptsHandler {
	return &ListAttemptsHandler{attemptRepo: attemptRepo}
}

// Handle lists the attempts.
func (h *ListAttemptsHandler) Handle(ctx context.Context, traineeID string) ([]*exam.Attempt, error) {
	if traineeID == "" {
		return nil, shared.NewDomainError("exam", "ListAttempts", shared.ErrValidation, "trainee_id is required")
	}

	attempts, err := h.attemptRepo.ListByTrainee(ctx, traineeID)
	if err != nil {
		return nil, shared.WrapError("exam", "ListAttempts", shared.ErrExternalService, "failed to list attempts", err)
	}
	return attempts, nil
}
