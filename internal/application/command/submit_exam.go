package command

import (
	"context"
	"errors"

	"github.com/roastery-academy/training-hub/internal/domain/exam"
	"github.com/roastery-academy/training-hub/internal/domain/shared"
)

// ══════════════════════════════════════════════════════════════════════════════
// SUBMIT EXAM COMMAND
// Finalizes the open attempt exactly once. An in-window submission is
// scored against the question bank; a late submission is still accepted
// but graded as expired rather than rejected - answers already typed are
// not silently discarded. A second submit on a terminal attempt fails
// with AttemptAlreadyFinalized, never re-scores.
// ══════════════════════════════════════════════════════════════════════════════

// SubmitExamCommand contains the data to submit an attempt.
type SubmitExamCommand struct {
	// TraineeID is the examinee.
	TraineeID string

	// ExamID is the examination being submitted.
	ExamID string

	// Answers maps question IDs to the trainee's answers.
	Answers map[string]string
}

// Validate validates the command.
func (c SubmitExamCommand) Validate() error {
	if c.TraineeID == "" {
		return errors.New("submit_exam: trainee_id is required")
	}
	if c.ExamID == "" {
		return errors.New("submit_exam: exam_id is required")
	}
	return nil
}

// ══════════════════════════════════════════════════════════════════════════════
// HANDLER
// ══════════════════════════════════════════════════════════════════════════════

// SubmitExamHandler handles the SubmitExamCommand.
type SubmitExamHandler struct {
	attemptRepo exam.AttemptRepository
	bank        exam.QuestionBank
	publisher   shared.EventPublisher
	clock       shared.Clock
}

// NewSubmitExamHandler creates a new SubmitExamHandler.
func NewSubmitExamHandler(
	attemptRepo exam.AttemptRepository,
	bank exam.QuestionBank,
	publisher shared.EventPublisher,
	clock shared.Clock,
) *SubmitExamHandler {
	if clock == nil {
		clock = shared.SystemClock()
	}
	return &SubmitExamHandler{
		attemptRepo: attemptRepo,
		bank:        bank,
		publisher:   publisher,
		clock:       clock,
	}
}

// Handle executes the submission.
func (h *SubmitExamHandler) Handle(ctx context.Context, cmd SubmitExamCommand) (*exam.Attempt, error) {
	if err := cmd.Validate(); err != nil {
		return nil, shared.WrapError("exam", "Submit", shared.ErrValidation, "invalid command", err)
	}

	attempt, err := h.attemptRepo.Get(ctx, cmd.TraineeID, cmd.ExamID)
	if err != nil {
		if errors.Is(err, exam.ErrAttemptNotFound) {
			return nil, shared.ErrNoActiveAttempt
		}
		return nil, shared.WrapError("exam", "Submit", shared.ErrExternalService, "failed to load attempt", err)
	}

	if attempt.Status.IsTerminal() {
		return nil, shared.ErrAttemptAlreadyFinalized
	}
	if attempt.Status != exam.AttemptStatusInProgress {
		return nil, shared.ErrNoActiveAttempt
	}

	examCfg, err := h.bank.GetExam(ctx, cmd.ExamID)
	if err != nil {
		return nil, shared.WrapError("exam", "Submit", shared.ErrServiceUnavailable, "failed to load exam", err)
	}

	if err := attempt.RecordAnswers(cmd.Answers); err != nil {
		return nil, shared.ErrAttemptAlreadyFinalized
	}

	now := h.clock.Now()
	result := exam.Score(examCfg.Questions, attempt.Answers)

	if attempt.IsOverdue(examCfg.Duration(), now) {
		if err := attempt.FinalizeExpired(result, now); err != nil {
			return nil, shared.ErrAttemptAlreadyFinalized
		}
	} else {
		if err := attempt.FinalizeSubmitted(result, examCfg.PassingScore, now); err != nil {
			return nil, shared.ErrAttemptAlreadyFinalized
		}
	}

	// The conditional status guard in Finalize is what makes a retried
	// submit lose instead of double-applying the transition.
	if err := h.attemptRepo.Finalize(ctx, attempt); err != nil {
		if errors.Is(err, exam.ErrAlreadyFinalized) {
			return nil, shared.ErrAttemptAlreadyFinalized
		}
		return nil, shared.WrapError("exam", "Submit", shared.ErrExternalService, "failed to finalize attempt", err)
	}

	if h.publisher != nil {
		_ = h.publisher.Publish(shared.NewExamFinalizedEvent(
			attempt.ID,
			attempt.TraineeID,
			attempt.ExamID,
			attempt.SessionID,
			attempt.Passed,
			attempt.Status == exam.AttemptStatusExpired,
			attempt.PercentageScore,
		))
	}

	return attempt, nil
}
