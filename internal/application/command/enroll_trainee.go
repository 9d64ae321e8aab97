package command

import (
	"context"
	"errors"

	"github.com/roastery-academy/training-hub/internal/domain/enrollment"
	"github.com/roastery-academy/training-hub/internal/domain/session"
	"github.com/roastery-academy/training-hub/internal/domain/shared"
)

// ══════════════════════════════════════════════════════════════════════════════
// ENROLL TRAINEE COMMAND
// The admission controller: decides, for a single enroll request, whether
// to admit directly, enqueue, or reject. The capacity decision itself is
// delegated to the ledger's atomic tryReserve - two concurrent requests
// for the last slot can never both be admitted.
// ══════════════════════════════════════════════════════════════════════════════

// EnrollTraineeCommand contains the data to enroll a trainee.
type EnrollTraineeCommand struct {
	// TraineeID is the trainee requesting enrollment.
	TraineeID string

	// SessionID is the target session.
	SessionID string

	// CorrelationID for tracing.
	CorrelationID string
}

// Validate validates the command.
func (c EnrollTraineeCommand) Validate() error {
	if c.TraineeID == "" {
		return errors.New("enroll_trainee: trainee_id is required")
	}
	if c.SessionID == "" {
		return errors.New("enroll_trainee: session_id is required")
	}
	return nil
}

// EnrollTraineeResult contains the outcome of an enroll request.
type EnrollTraineeResult struct {
	// Admitted is true if a capacity slot was reserved and an active
	// enrollment was created.
	Admitted bool

	// Queued is true if the session was full and the trainee was placed
	// on the waitlist instead.
	Queued bool

	// Position is the assigned waitlist position when Queued.
	Position int

	// Enrollment is the created enrollment when Admitted.
	Enrollment *enrollment.Enrollment
}

// ══════════════════════════════════════════════════════════════════════════════
// HANDLER
// ══════════════════════════════════════════════════════════════════════════════

// EnrollTraineeHandler handles the EnrollTraineeCommand.
type EnrollTraineeHandler struct {
	sessionRepo session.Repository
	enrollRepo  enrollment.Repository
	queueRepo   enrollment.QueueRepository
	ledger      session.Ledger
	queue       *QueueManager
	publisher   shared.EventPublisher
	ids         shared.IDGenerator
}

// NewEnrollTraineeHandler creates a new EnrollTraineeHandler.
func NewEnrollTraineeHandler(
	sessionRepo session.Repository,
	enrollRepo enrollment.Repository,
	queueRepo enrollment.QueueRepository,
	ledger session.Ledger,
	queue *QueueManager,
	publisher shared.EventPublisher,
	ids shared.IDGenerator,
) *EnrollTraineeHandler {
	return &EnrollTraineeHandler{
		sessionRepo: sessionRepo,
		enrollRepo:  enrollRepo,
		queueRepo:   queueRepo,
		ledger:      ledger,
		queue:       queue,
		publisher:   publisher,
		ids:         ids,
	}
}

// Handle executes the enroll request.
func (h *EnrollTraineeHandler) Handle(ctx context.Context, cmd EnrollTraineeCommand) (*EnrollTraineeResult, error) {
	if err := cmd.Validate(); err != nil {
		return nil, shared.WrapError("enrollment", "Enroll", shared.ErrValidation, "invalid command", err)
	}

	sess, err := h.sessionRepo.GetByID(ctx, cmd.SessionID)
	if err != nil {
		if errors.Is(err, session.ErrSessionNotFound) {
			return nil, shared.ErrSessionNotFound
		}
		return nil, shared.WrapError("enrollment", "Enroll", shared.ErrExternalService, "failed to load session", err)
	}

	if !sess.Status.IsSchedulable() {
		return nil, shared.ErrSessionNotSchedulable
	}

	if _, err := h.enrollRepo.GetActive(ctx, cmd.TraineeID, cmd.SessionID); err == nil {
		return nil, shared.ErrAlreadyEnrolled
	} else if !errors.Is(err, enrollment.ErrEnrollmentNotFound) {
		return nil, shared.WrapError("enrollment", "Enroll", shared.ErrExternalService, "failed to check enrollment", err)
	}

	if _, err := h.queueRepo.GetWaiting(ctx, cmd.TraineeID, cmd.SessionID); err == nil {
		return nil, shared.ErrAlreadyQueued
	} else if !errors.Is(err, enrollment.ErrQueueEntryNotFound) {
		return nil, shared.WrapError("enrollment", "Enroll", shared.ErrExternalService, "failed to check queue membership", err)
	}

	reserved, err := h.ledger.TryReserve(ctx, cmd.SessionID)
	if err != nil {
		return nil, shared.WrapError("enrollment", "Enroll", shared.ErrExternalService, "capacity reservation failed", err)
	}

	if !reserved {
		// Reservation failure is not an error: it routes the trainee
		// into the waitlist.
		position, err := h.queue.Enqueue(ctx, cmd.TraineeID, cmd.SessionID)
		if err != nil {
			return nil, err
		}
		return &EnrollTraineeResult{Queued: true, Position: position}, nil
	}

	enr, err := enrollment.NewEnrollment(h.ids.GenerateID(), cmd.TraineeID, cmd.SessionID, false)
	if err != nil {
		h.releaseQuietly(ctx, cmd.SessionID)
		return nil, shared.WrapError("enrollment", "Enroll", shared.ErrValidation, "invalid enrollment", err)
	}

	if err := h.enrollRepo.Create(ctx, enr); err != nil {
		h.releaseQuietly(ctx, cmd.SessionID)
		if errors.Is(err, enrollment.ErrEnrollmentExists) {
			return nil, shared.ErrAlreadyEnrolled
		}
		return nil, shared.WrapError("enrollment", "Enroll", shared.ErrExternalService, "failed to create enrollment", err)
	}

	// Notification is fire-and-forget: a failing dispatch never rolls
	// back the admission.
	if h.publisher != nil {
		event := shared.NewEnrollmentConfirmedEvent(enr.ID, enr.TraineeID, enr.SessionID, false)
		event.BaseEvent = event.WithCorrelationID(cmd.CorrelationID)
		_ = h.publisher.Publish(event)
	}

	return &EnrollTraineeResult{Admitted: true, Enrollment: enr}, nil
}

// releaseQuietly gives a reserved slot back after a failed admission.
func (h *EnrollTraineeHandler) releaseQuietly(ctx context.Context, sessionID string) {
	_, _ = h.ledger.Release(ctx, sessionID)
}
