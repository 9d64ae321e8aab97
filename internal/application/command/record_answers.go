package command

import (
	"context"
	"errors"

	"github.com/roastery-academy/training-hub/internal/domain/exam"
	"github.com/roastery-academy/training-hub/internal/domain/shared"
)

// ══════════════════════════════════════════════════════════════════════════════
// RECORD ANSWERS COMMAND
// Saves a draft of the trainee's answers mid-attempt. Lazy expiry grades
// from this draft, so a disconnected client still gets credit for
// whatever was recorded before the deadline.
// ══════════════════════════════════════════════════════════════════════════════

// RecordAnswersCommand contains the draft answers to store.
type RecordAnswersCommand struct {
	TraineeID string
	ExamID    string
	Answers   map[string]string
}

// Validate validates the command.
func (c RecordAnswersCommand) Validate() error {
	if c.TraineeID == "" {
		return errors.New("record_answers: trainee_id is required")
	}
	if c.ExamID == "" {
		return errors.New("record_answers: exam_id is required")
	}
	return nil
}

// RecordAnswersHandler handles the RecordAnswersCommand.
type RecordAnswersHandler struct {
	attemptRepo exam.AttemptRepository
}

// NewRecordAnswersHandler creates a new RecordAnswersHandler.
func NewRecordAnswersHandler(attemptRepo exam.AttemptRepository) *RecordAnswersHandler {
	return &RecordAnswersHandler{attemptRepo: attemptRepo}
}

// Handle merges the draft into the open attempt.
func (h *RecordAnswersHandler) Handle(ctx context.Context, cmd RecordAnswersCommand) error {
	if err := cmd.Validate(); err != nil {
		return shared.WrapError("exam", "RecordAnswers", shared.ErrValidation, "invalid command", err)
	}

	attempt, err := h.attemptRepo.Get(ctx, cmd.TraineeID, cmd.ExamID)
	if err != nil {
		if errors.Is(err, exam.ErrAttemptNotFound) {
			return shared.ErrNoActiveAttempt
		}
		return shared.WrapError("exam", "RecordAnswers", shared.ErrExternalService, "failed to load attempt", err)
	}

	if err := attempt.RecordAnswers(cmd.Answers); err != nil {
		if errors.Is(err, exam.ErrAlreadyFinalized) {
			return shared.ErrAttemptAlreadyFinalized
		}
		return shared.ErrNoActiveAttempt
	}

	if err := h.attemptRepo.Update(ctx, attempt); err != nil {
		if errors.Is(err, exam.ErrAlreadyFinalized) {
			return shared.ErrAttemptAlreadyFinalized
		}
		return shared.WrapError("exam", "RecordAnswers", shared.ErrExternalService, "failed to store answers", err)
	}

	return nil
}
