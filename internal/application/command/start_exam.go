package command

import (
	"context"
	"errors"

	"github.com/roastery-academy/training-hub/internal/domain/exam"
	"github.com/roastery-academy/training-hub/internal/domain/shared"
)

// ══════════════════════════════════════════════════════════════════════════════
// START EXAM COMMAND
// Opens the single attempt a trainee gets for an exam. The start time is
// the server clock; the returned duration is what a client derives its
// countdown from. The server keeps no timer task - expiry is checked
// lazily on every subsequent read.
// ══════════════════════════════════════════════════════════════════════════════

// StartExamCommand contains the data to start an attempt.
type StartExamCommand struct {
	// TraineeID is the examinee.
	TraineeID string

	// ExamID is the examination to attempt.
	ExamID string
}

// Validate validates the command.
func (c StartExamCommand) Validate() error {
	if c.TraineeID == "" {
		return errors.New("start_exam: trainee_id is required")
	}
	if c.ExamID == "" {
		return errors.New("start_exam: exam_id is required")
	}
	return nil
}

// StartExamResult contains the opened attempt and the exam's time box.
type StartExamResult struct {
	// Attempt is the newly opened attempt.
	Attempt *exam.Attempt

	// DurationMinutes is the exam's configured time box.
	DurationMinutes int
}

// ══════════════════════════════════════════════════════════════════════════════
// HANDLER
// ══════════════════════════════════════════════════════════════════════════════

// StartExamHandler handles the StartExamCommand.
type StartExamHandler struct {
	attemptRepo exam.AttemptRepository
	bank        exam.QuestionBank
	publisher   shared.EventPublisher
	ids         shared.IDGenerator
	clock       shared.Clock
}

// NewStartExamHandler creates a new StartExamHandler.
func NewStartExamHandler(
	attemptRepo exam.AttemptRepository,
	bank exam.QuestionBank,
	publisher shared.EventPublisher,
	ids shared.IDGenerator,
	clock shared.Clock,
) *StartExamHandler {
	if clock == nil {
		clock = shared.SystemClock()
	}
	return &StartExamHandler{
		attemptRepo: attemptRepo,
		bank:        bank,
		publisher:   publisher,
		ids:         ids,
		clock:       clock,
	}
}

// Handle executes the start request.
func (h *StartExamHandler) Handle(ctx context.Context, cmd StartExamCommand) (*StartExamResult, error) {
	if err := cmd.Validate(); err != nil {
		return nil, shared.WrapError("exam", "Start", shared.ErrValidation, "invalid command", err)
	}

	examCfg, err := h.bank.GetExam(ctx, cmd.ExamID)
	if err != nil {
		if errors.Is(err, exam.ErrExamNotFound) {
			return nil, shared.ErrExamNotFound
		}
		return nil, shared.WrapError("exam", "Start", shared.ErrServiceUnavailable, "failed to load exam", err)
	}

	// Re-starting a finished exam is an error, not a reset.
	if _, err := h.attemptRepo.Get(ctx, cmd.TraineeID, cmd.ExamID); err == nil {
		return nil, shared.ErrAttemptAlreadyExists
	} else if !errors.Is(err, exam.ErrAttemptNotFound) {
		return nil, shared.WrapError("exam", "Start", shared.ErrExternalService, "failed to check existing attempt", err)
	}

	attempt, err := exam.StartAttempt(h.ids.GenerateID(), cmd.TraineeID, cmd.ExamID, examCfg.SessionID, h.clock.Now())
	if err != nil {
		return nil, shared.WrapError("exam", "Start", shared.ErrValidation, "invalid attempt", err)
	}

	if err := h.attemptRepo.Create(ctx, attempt); err != nil {
		if errors.Is(err, exam.ErrAttemptExists) {
			return nil, shared.ErrAttemptAlreadyExists
		}
		return nil, shared.WrapError("exam", "Start", shared.ErrExternalService, "failed to create attempt", err)
	}

	if h.publisher != nil {
		_ = h.publisher.Publish(shared.NewBaseSessionEvent(shared.EventExamStarted, attempt.ID))
	}

	return &StartExamResult{
		Attempt:         attempt,
		DurationMinutes: examCfg.DurationMinutes,
	}, nil
}
