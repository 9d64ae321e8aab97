package enrollment

import (
	"context"
)

// ══════════════════════════════════════════════════════════════════════════════
// REPOSITORY INTERFACES
// These interfaces define the contract for enrollment and waitlist storage.
// Implementations live in infrastructure/persistence.
// ══════════════════════════════════════════════════════════════════════════════

// Repository defines the storage operations for enrollments.
type Repository interface {
	// Create persists a new enrollment.
	// Returns ErrEnrollmentExists if an enrollment already exists for
	// the (trainee, session) pair.
	Create(ctx context.Context, e *Enrollment) error

	// GetActive returns the registered enrollment for the pair.
	// Returns ErrEnrollmentNotFound if no active enrollment exists.
	GetActive(ctx context.Context, traineeID, sessionID string) (*Enrollment, error)

	// Update persists an enrollment state transition.
	Update(ctx context.Context, e *Enrollment) error

	// ListBySession returns all enrollments for a session, newest first.
	ListBySession(ctx context.Context, sessionID string) ([]*Enrollment, error)

	// ListByTrainee returns all enrollments for a trainee, newest first.
	ListByTrainee(ctx context.Context, traineeID string) ([]*Enrollment, error)

	// CountRegistered returns the number of registered enrollments for a
	// session. Used by invariant checks and roster views, never by
	// admission decisions - those go through the Ledger.
	CountRegistered(ctx context.Context, sessionID string) (int, error)
}

// QueueRepository defines the storage operations for the waitlist.
type QueueRepository interface {
	// Create persists a new queue entry.
	// Returns ErrQueueEntryExists if a waiting entry already exists for
	// the (trainee, session) pair.
	Create(ctx context.Context, entry *QueueEntry) error

	// GetWaiting returns the waiting entry for the pair.
	// Returns ErrQueueEntryNotFound if no waiting entry exists.
	GetWaiting(ctx context.Context, traineeID, sessionID string) (*QueueEntry, error)

	// Update persists a queue entry state transition.
	Update(ctx context.Context, entry *QueueEntry) error

	// NextPosition returns the next position for a session: one past the
	// maximum position ever assigned, regardless of entry status.
	// Positions are never reused, even after withdrawal or promotion.
	NextPosition(ctx context.Context, sessionID string) (int, error)

	// PeekHead returns the waiting entry with the smallest position for
	// the session. Returns ErrQueueEntryNotFound if the queue is empty.
	PeekHead(ctx context.Context, sessionID string) (*QueueEntry, error)

	// ListWaiting returns all waiting entries for a session in position
	// order.
	ListWaiting(ctx context.Context, sessionID string) ([]*QueueEntry, error)

	// ListWaitingByTrainee returns all waiting entries for a trainee.
	ListWaitingByTrainee(ctx context.Context, traineeID string) ([]*QueueEntry, error)

	// CountWaiting returns the number of waiting entries for a session.
	CountWaiting(ctx context.Context, sessionID string) (int, error)
}
