package command

import (
	"context"
	"errors"

	"github.com/roastery-academy/training-hub/internal/domain/enrollment"
	"github.com/roastery-academy/training-hub/internal/domain/session"
	"github.com/roastery-academy/training-hub/internal/domain/shared"
)

// ══════════════════════════════════════════════════════════════════════════════
// CANCEL ENROLLMENT COMMAND
// Cancels an active enrollment, releases its capacity slot, and - when a
// slot actually freed - promotes exactly one waiting entry. A trainee may
// cancel their own enrollment; cancelling someone else's requires a
// trainer or admin role, checked against the user directory.
// ══════════════════════════════════════════════════════════════════════════════

// CancelEnrollmentCommand contains the data to cancel an enrollment.
type CancelEnrollmentCommand struct {
	// ActorID is the user performing the cancellation.
	ActorID string

	// TraineeID is the owner of the enrollment.
	TraineeID string

	// SessionID is the session being left.
	SessionID string
}

// Validate validates the command.
func (c CancelEnrollmentCommand) Validate() error {
	if c.ActorID == "" {
		return errors.New("cancel_enrollment: actor_id is required")
	}
	if c.TraineeID == "" {
		return errors.New("cancel_enrollment: trainee_id is required")
	}
	if c.SessionID == "" {
		return errors.New("cancel_enrollment: session_id is required")
	}
	return nil
}

// CancelEnrollmentResult contains the outcome of a cancellation.
type CancelEnrollmentResult struct {
	// SlotFreed is true if the release dropped the count from capacity.
	SlotFreed bool

	// Promoted is the enrollment created for the promoted queue head,
	// nil when the queue was empty or the promotion lost a race.
	Promoted *enrollment.Enrollment
}

// ══════════════════════════════════════════════════════════════════════════════
// HANDLER
// ══════════════════════════════════════════════════════════════════════════════

// CancelEnrollmentHandler handles the CancelEnrollmentCommand.
type CancelEnrollmentHandler struct {
	enrollRepo enrollment.Repository
	ledger     session.Ledger
	queue      *QueueManager
	directory  shared.Directory
	publisher  shared.EventPublisher
}

// NewCancelEnrollmentHandler creates a new CancelEnrollmentHandler.
func NewCancelEnrollmentHandler(
	enrollRepo enrollment.Repository,
	ledger session.Ledger,
	queue *QueueManager,
	directory shared.Directory,
	publisher shared.EventPublisher,
) *CancelEnrollmentHandler {
	return &CancelEnrollmentHandler{
		enrollRepo: enrollRepo,
		ledger:     ledger,
		queue:      queue,
		directory:  directory,
		publisher:  publisher,
	}
}

// Handle executes the cancellation.
func (h *CancelEnrollmentHandler) Handle(ctx context.Context, cmd CancelEnrollmentCommand) (*CancelEnrollmentResult, error) {
	if err := cmd.Validate(); err != nil {
		return nil, shared.WrapError("enrollment", "Cancel", shared.ErrValidation, "invalid command", err)
	}

	if cmd.ActorID != cmd.TraineeID {
		if err := h.authorizeForceCancel(ctx, cmd.ActorID); err != nil {
			return nil, err
		}
	}

	enr, err := h.enrollRepo.GetActive(ctx, cmd.TraineeID, cmd.SessionID)
	if err != nil {
		if errors.Is(err, enrollment.ErrEnrollmentNotFound) {
			return nil, shared.ErrNotEnrolled
		}
		return nil, shared.WrapError("enrollment", "Cancel", shared.ErrExternalService, "failed to load enrollment", err)
	}

	if err := enr.Cancel(); err != nil {
		return nil, shared.ErrNotEnrolled
	}

	if err := h.enrollRepo.Update(ctx, enr); err != nil {
		return nil, shared.WrapError("enrollment", "Cancel", shared.ErrExternalService, "failed to update enrollment", err)
	}

	freed, err := h.ledger.Release(ctx, cmd.SessionID)
	if err != nil {
		return nil, shared.WrapError("enrollment", "Cancel", shared.ErrExternalService, "capacity release failed", err)
	}

	if h.publisher != nil {
		_ = h.publisher.Publish(shared.NewEnrollmentCancelledEvent(enr.ID, enr.TraineeID, enr.SessionID, freed))
	}

	result := &CancelEnrollmentResult{SlotFreed: freed}

	// Exactly one promotion per freed slot.
	if freed {
		promoted, err := h.queue.PromoteNext(ctx, cmd.SessionID)
		if err != nil {
			return result, err
		}
		result.Promoted = promoted
	}

	return result, nil
}

// authorizeForceCancel verifies the actor may cancel another trainee's
// enrollment.
func (h *CancelEnrollmentHandler) authorizeForceCancel(ctx context.Context, actorID string) error {
	if h.directory == nil {
		return shared.NewDomainError("enrollment", "Cancel", shared.ErrForbidden, "cannot cancel another trainee's enrollment")
	}

	actor, err := h.directory.GetUser(ctx, actorID)
	if err != nil {
		return shared.WrapError("enrollment", "Cancel", shared.ErrServiceUnavailable, "failed to resolve actor", err)
	}

	if !actor.Role.CanManageOthers() {
		return shared.NewDomainError("enrollment", "Cancel", shared.ErrForbidden, "only trainers and admins may cancel another trainee's enrollment")
	}

	return nil
}
