package command

import (
	"context"
	"errors"

	"github.com/roastery-academy/training-hub/internal/domain/exam"
	"github.com/roastery-academy/training-hub/internal/domain/shared"
)

// ══════════════════════════════════════════════════════════════════════════════
// RESET ATTEMPT COMMAND
// Administrative escape hatch for the one-attempt-per-exam rule: deletes
// a finished attempt so the trainee may start again. An open attempt is
// never reset - it must expire or be submitted first.
// ══════════════════════════════════════════════════════════════════════════════

// ResetAttemptCommand contains the data to reset an attempt.
type ResetAttemptCommand struct {
	ActorID   string
	TraineeID string
	ExamID    string
}

// Validate validates the command.
func (c ResetAttemptCommand) Validate() error {
	if c.ActorID == "" {
		return errors.New("reset_attempt: actor_id is required")
	}
	if c.TraineeID == "" {
		return errors.New("reset_attempt: trainee_id is required")
	}
	if c.ExamID == "" {
		return errors.New("reset_attempt: exam_id is required")
	}
	return nil
}

// ResetAttemptHandler handles the ResetAttemptCommand.
type ResetAttemptHandler struct {
	attemptRepo exam.AttemptRepository
	directory   shared.Directory
}

// NewResetAttemptHandler creates a new ResetAttemptHandler.
func NewResetAttemptHandler(attemptRepo exam.AttemptRepository, directory shared.Directory) *ResetAttemptHandler {
	return &ResetAttemptHandler{
		attemptRepo: attemptRepo,
		directory:   directory,
	}
}

// Handle executes the reset.
func (h *ResetAttemptHandler) Handle(ctx context.Context, cmd ResetAttemptCommand) error {
	if err := cmd.Validate(); err != nil {
		return shared.WrapError("exam", "Reset", shared.ErrValidation, "invalid command", err)
	}

	if err := authorizeStaff(ctx, h.directory, "exam", "Reset", cmd.ActorID); err != nil {
		return err
	}

	attempt, err := h.attemptRepo.Get(ctx, cmd.TraineeID, cmd.ExamID)
	if err != nil {
		if errors.Is(err, exam.ErrAttemptNotFound) {
			return shared.ErrAttemptNotFound
		}
		return shared.WrapError("exam", "Reset", shared.ErrExternalService, "failed to load attempt", err)
	}

	if !attempt.Status.IsTerminal() {
		return shared.NewDomainError("exam", "Reset", shared.ErrInvalidState, "only a finished attempt can be reset")
	}

	if err := h.attemptRepo.Delete(ctx, attempt.ID); err != nil {
		return shared.WrapError("exam", "Reset", shared.ErrExternalService, "failed to delete attempt", err)
	}

	return nil
}
