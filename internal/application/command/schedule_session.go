package command

import (
	"context"
	"errors"
	"time"

	"github.com/roastery-academy/training-hub/internal/domain/enrollment"
	"github.com/roastery-academy/training-hub/internal/domain/session"
	"github.com/roastery-academy/training-hub/internal/domain/shared"
)

// ══════════════════════════════════════════════════════════════════════════════
// SCHEDULE SESSION COMMAND
// Administrative creation of a training session. Only trainers and admins
// may schedule; a trainer cannot be double-booked at the same start time.
// ══════════════════════════════════════════════════════════════════════════════

// ScheduleSessionCommand contains the data to schedule a session.
type ScheduleSessionCommand struct {
	ActorID         string
	Title           string
	Description     string
	ProgramID       string
	TrainerID       string
	ScheduledAt     time.Time
	DurationMinutes int
	Location        string
	MaxCapacity     int
}

// Validate validates the command.
func (c ScheduleSessionCommand) Validate() error {
	if c.ActorID == "" {
		return errors.New("schedule_session: actor_id is required")
	}
	if c.Title == "" {
		return errors.New("schedule_session: title is required")
	}
	if c.MaxCapacity <= 0 {
		return errors.New("schedule_session: max_capacity must be positive")
	}
	if c.DurationMinutes <= 0 {
		return errors.New("schedule_session: duration_minutes must be positive")
	}
	if c.ScheduledAt.IsZero() {
		return errors.New("schedule_session: scheduled_at is required")
	}
	return nil
}

// ScheduleSessionHandler handles the ScheduleSessionCommand.
type ScheduleSessionHandler struct {
	sessionRepo session.Repository
	directory   shared.Directory
	publisher   shared.EventPublisher
	ids         shared.IDGenerator
}

// NewScheduleSessionHandler creates a new ScheduleSessionHandler.
func NewScheduleSessionHandler(
	sessionRepo session.Repository,
	directory shared.Directory,
	publisher shared.EventPublisher,
	ids shared.IDGenerator,
) *ScheduleSessionHandler {
	return &ScheduleSessionHandler{
		sessionRepo: sessionRepo,
		directory:   directory,
		publisher:   publisher,
		ids:         ids,
	}
}

// Handle executes the scheduling.
func (h *ScheduleSessionHandler) Handle(ctx context.Context, cmd ScheduleSessionCommand) (*session.Session, error) {
	if err := cmd.Validate(); err != nil {
		return nil, shared.WrapError("session", "Schedule", shared.ErrValidation, "invalid command", err)
	}

	if err := authorizeStaff(ctx, h.directory, "session", "Schedule", cmd.ActorID); err != nil {
		return nil, err
	}

	if cmd.TrainerID != "" {
		conflict, err := h.sessionRepo.FindTrainerConflict(ctx, cmd.TrainerID, cmd.ScheduledAt)
		if err != nil {
			return nil, shared.WrapError("session", "Schedule", shared.ErrExternalService, "failed to check trainer schedule", err)
		}
		if conflict {
			return nil, shared.ErrTrainerConflict
		}
	}

	sess, err := session.NewSession(session.NewSessionParams{
		ID:              h.ids.GenerateID(),
		Title:           cmd.Title,
		Description:     cmd.Description,
		ProgramID:       cmd.ProgramID,
		TrainerID:       cmd.TrainerID,
		ScheduledAt:     cmd.ScheduledAt,
		DurationMinutes: cmd.DurationMinutes,
		Location:        cmd.Location,
		MaxCapacity:     session.Capacity(cmd.MaxCapacity),
	})
	if err != nil {
		return nil, shared.WrapError("session", "Schedule", shared.ErrValidation, "invalid session", err)
	}

	if err := h.sessionRepo.Create(ctx, sess); err != nil {
		return nil, shared.WrapError("session", "Schedule", shared.ErrExternalService, "failed to create session", err)
	}

	if h.publisher != nil {
		_ = h.publisher.Publish(shared.NewBaseSessionEvent(shared.EventSessionScheduled, sess.ID))
	}

	return sess, nil
}

// ══════════════════════════════════════════════════════════════════════════════
// CANCEL SESSION COMMAND
// Administrative cancellation. Registered enrollments are cancelled and
// waiting queue entries withdrawn; no promotions happen on a cancelled
// session.
// ══════════════════════════════════════════════════════════════════════════════

// CancelSessionCommand contains the data to cancel a session.
type CancelSessionCommand struct {
	ActorID   string
	SessionID string
}

// Validate validates the command.
func (c CancelSessionCommand) Validate() error {
	if c.ActorID == "" {
		return errors.New("cancel_session: actor_id is required")
	}
	if c.SessionID == "" {
		return errors.New("cancel_session: session_id is required")
	}
	return nil
}

// CancelSessionHandler handles the CancelSessionCommand.
type CancelSessionHandler struct {
	sessionRepo session.Repository
	enrollRepo  enrollment.Repository
	queueRepo   enrollment.QueueRepository
	directory   shared.Directory
	publisher   shared.EventPublisher
}

// NewCancelSessionHandler creates a new CancelSessionHandler.
func NewCancelSessionHandler(
	sessionRepo session.Repository,
	enrollRepo enrollment.Repository,
	queueRepo enrollment.QueueRepository,
	directory shared.Directory,
	publisher shared.EventPublisher,
) *CancelSessionHandler {
	return &CancelSessionHandler{
		sessionRepo: sessionRepo,
		enrollRepo:  enrollRepo,
		queueRepo:   queueRepo,
		directory:   directory,
		publisher:   publisher,
	}
}

// Handle executes the session cancellation.
func (h *CancelSessionHandler) Handle(ctx context.Context, cmd CancelSessionCommand) error {
	if err := cmd.Validate(); err != nil {
		return shared.WrapError("session", "Cancel", shared.ErrValidation, "invalid command", err)
	}

	if err := authorizeStaff(ctx, h.directory, "session", "Cancel", cmd.ActorID); err != nil {
		return err
	}

	sess, err := h.sessionRepo.GetByID(ctx, cmd.SessionID)
	if err != nil {
		if errors.Is(err, session.ErrSessionNotFound) {
			return shared.ErrSessionNotFound
		}
		return shared.WrapError("session", "Cancel", shared.ErrExternalService, "failed to load session", err)
	}

	if err := sess.Cancel(); err != nil {
		return shared.NewDomainError("session", "Cancel", shared.ErrInvalidState, "session is already in a terminal state")
	}

	if err := h.sessionRepo.Update(ctx, sess); err != nil {
		return shared.WrapError("session", "Cancel", shared.ErrExternalService, "failed to update session", err)
	}

	// Cancel active enrollments. Capacity bookkeeping is irrelevant on a
	// cancelled session, so slots are not individually released.
	enrollments, err := h.enrollRepo.ListBySession(ctx, cmd.SessionID)
	if err != nil {
		return shared.WrapError("session", "Cancel", shared.ErrExternalService, "failed to list enrollments", err)
	}
	for _, enr := range enrollments {
		if !enr.Status.IsActive() {
			continue
		}
		if err := enr.Cancel(); err != nil {
			continue
		}
		if err := h.enrollRepo.Update(ctx, enr); err != nil {
			return shared.WrapError("session", "Cancel", shared.ErrExternalService, "failed to cancel enrollment", err)
		}
		if h.publisher != nil {
			_ = h.publisher.Publish(shared.NewEnrollmentCancelledEvent(enr.ID, enr.TraineeID, enr.SessionID, false))
		}
	}

	// Withdraw the waitlist.
	waiting, err := h.queueRepo.ListWaiting(ctx, cmd.SessionID)
	if err != nil {
		return shared.WrapError("session", "Cancel", shared.ErrExternalService, "failed to list queue", err)
	}
	for _, entry := range waiting {
		if err := entry.Withdraw(); err != nil {
			continue
		}
		if err := h.queueRepo.Update(ctx, entry); err != nil {
			return shared.WrapError("session", "Cancel", shared.ErrExternalService, "failed to withdraw queue entry", err)
		}
	}

	if h.publisher != nil {
		_ = h.publisher.Publish(shared.NewBaseSessionEvent(shared.EventSessionCancelled, sess.ID))
	}

	return nil
}

// authorizeStaff verifies the actor holds a trainer or admin role.
func authorizeStaff(ctx context.Context, directory shared.Directory, domain, op, actorID string) error {
	if directory == nil {
		return shared.NewDomainError(domain, op, shared.ErrForbidden, "administrative action requires a directory")
	}

	actor, err := directory.GetUser(ctx, actorID)
	if err != nil {
		return shared.WrapError(domain, op, shared.ErrServiceUnavailable, "failed to resolve actor", err)
	}

	if !actor.Role.CanManageOthers() {
		return shared.NewDomainError(domain, op, shared.ErrForbidden, "only trainers and admins may perform this action")
	}

	return nil
}
