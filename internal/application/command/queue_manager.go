// Package command contains write operations (CQRS - Commands).
package command

import (
	"context"
	"errors"

	"github.com/roastery-academy/training-hub/internal/domain/enrollment"
	"github.com/roastery-academy/training-hub/internal/domain/session"
	"github.com/roastery-academy/training-hub/internal/domain/shared"
)

// ══════════════════════════════════════════════════════════════════════════════
// QUEUE MANAGER
// Maintains the per-session waitlist and promotes the head entry when a
// capacity slot frees up. Positions are monotonically increasing and
// never reused, so FIFO ordering is a plain minimum-position query.
// ══════════════════════════════════════════════════════════════════════════════

// QueueManager coordinates waitlist membership and promotion.
type QueueManager struct {
	queueRepo  enrollment.QueueRepository
	enrollRepo enrollment.Repository
	ledger     session.Ledger
	publisher  shared.EventPublisher
	ids        shared.IDGenerator
}

// NewQueueManager creates a new QueueManager.
func NewQueueManager(
	queueRepo enrollment.QueueRepository,
	enrollRepo enrollment.Repository,
	ledger session.Ledger,
	publisher shared.EventPublisher,
	ids shared.IDGenerator,
) *QueueManager {
	return &QueueManager{
		queueRepo:  queueRepo,
		enrollRepo: enrollRepo,
		ledger:     ledger,
		publisher:  publisher,
		ids:        ids,
	}
}

// Enqueue appends a trainee to a session's waitlist and returns the
// assigned position. Returns AlreadyQueued if a waiting entry exists.
func (m *QueueManager) Enqueue(ctx context.Context, traineeID, sessionID string) (int, error) {
	if _, err := m.queueRepo.GetWaiting(ctx, traineeID, sessionID); err == nil {
		return 0, shared.ErrAlreadyQueued
	} else if !errors.Is(err, enrollment.ErrQueueEntryNotFound) {
		return 0, shared.WrapError("enrollment", "Enqueue", shared.ErrExternalService, "failed to check queue membership", err)
	}

	position, err := m.queueRepo.NextPosition(ctx, sessionID)
	if err != nil {
		return 0, shared.WrapError("enrollment", "Enqueue", shared.ErrExternalService, "failed to compute queue position", err)
	}

	entry, err := enrollment.NewQueueEntry(m.ids.GenerateID(), traineeID, sessionID, position)
	if err != nil {
		return 0, shared.WrapError("enrollment", "Enqueue", shared.ErrValidation, "invalid queue entry", err)
	}

	if err := m.queueRepo.Create(ctx, entry); err != nil {
		if errors.Is(err, enrollment.ErrQueueEntryExists) {
			return 0, shared.ErrAlreadyQueued
		}
		return 0, shared.WrapError("enrollment", "Enqueue", shared.ErrExternalService, "failed to create queue entry", err)
	}

	m.publish(shared.NewTraineeQueuedEvent(entry.ID, traineeID, sessionID, position))

	return position, nil
}

// PromoteNext promotes the waiting entry with the smallest position. A
// no-op when the queue is empty. The promotion itself goes back through
// the capacity ledger: if the reservation races with another admission
// and loses, the entry stays waiting and the caller may retry.
func (m *QueueManager) PromoteNext(ctx context.Context, sessionID string) (*enrollment.Enrollment, error) {
	head, err := m.queueRepo.PeekHead(ctx, sessionID)
	if err != nil {
		if errors.Is(err, enrollment.ErrQueueEntryNotFound) {
			return nil, nil
		}
		return nil, shared.WrapError("enrollment", "PromoteNext", shared.ErrExternalService, "failed to read queue head", err)
	}

	reserved, err := m.ledger.TryReserve(ctx, sessionID)
	if err != nil {
		return nil, shared.WrapError("enrollment", "PromoteNext", shared.ErrExternalService, "capacity reservation failed", err)
	}
	if !reserved {
		// Lost the race against a direct admission. Not an error.
		return nil, nil
	}

	if err := head.Promote(); err != nil {
		// Entry left the waiting state underneath us; give the slot back.
		m.releaseQuietly(ctx, sessionID)
		return nil, shared.WrapError("enrollment", "PromoteNext", shared.ErrConcurrentModification, "queue head changed state", err)
	}

	if err := m.queueRepo.Update(ctx, head); err != nil {
		m.releaseQuietly(ctx, sessionID)
		return nil, shared.WrapError("enrollment", "PromoteNext", shared.ErrExternalService, "failed to update queue entry", err)
	}

	enr, err := enrollment.NewEnrollment(m.ids.GenerateID(), head.TraineeID, sessionID, true)
	if err != nil {
		m.releaseQuietly(ctx, sessionID)
		return nil, shared.WrapError("enrollment", "PromoteNext", shared.ErrValidation, "invalid enrollment", err)
	}

	if err := m.enrollRepo.Create(ctx, enr); err != nil {
		m.releaseQuietly(ctx, sessionID)
		return nil, shared.WrapError("enrollment", "PromoteNext", shared.ErrExternalService, "failed to create enrollment", err)
	}

	m.publish(shared.NewQueuePromotedEvent(head.ID, head.TraineeID, sessionID, head.Position))
	m.publish(shared.NewEnrollmentConfirmedEvent(enr.ID, enr.TraineeID, sessionID, true))

	return enr, nil
}

// Withdraw removes a trainee's waiting entry. Positions of other entries
// are untouched and no promotion is triggered: no slot was freed.
func (m *QueueManager) Withdraw(ctx context.Context, traineeID, sessionID string) error {
	entry, err := m.queueRepo.GetWaiting(ctx, traineeID, sessionID)
	if err != nil {
		if errors.Is(err, enrollment.ErrQueueEntryNotFound) {
			return shared.ErrQueueEntryNotFound
		}
		return shared.WrapError("enrollment", "Withdraw", shared.ErrExternalService, "failed to read queue entry", err)
	}

	if err := entry.Withdraw(); err != nil {
		return shared.WrapError("enrollment", "Withdraw", shared.ErrStateTransition, "queue entry is not waiting", err)
	}

	if err := m.queueRepo.Update(ctx, entry); err != nil {
		return shared.WrapError("enrollment", "Withdraw", shared.ErrExternalService, "failed to update queue entry", err)
	}

	return nil
}

// releaseQuietly gives a reserved slot back after a failed promotion.
func (m *QueueManager) releaseQuietly(ctx context.Context, sessionID string) {
	_, _ = m.ledger.Release(ctx, sessionID)
}

// publish emits an event, ignoring publish errors: notification dispatch
// is fire-and-forget and never rolls back queue state.
func (m *QueueManager) publish(event shared.Event) {
	if m.publisher != nil {
		_ = m.publisher.Publish(event)
	}
}
