package session

import (
	"context"
	"time"
)

// ══════════════════════════════════════════════════════════════════════════════
// REPOSITORY INTERFACES
// These interfaces define the contract for session storage. Implementations
// live in infrastructure/persistence.
// ══════════════════════════════════════════════════════════════════════════════

// Repository defines the storage operations for sessions.
type Repository interface {
	// Create persists a new session.
	// Returns ErrSessionAlreadyExists if the session already exists.
	Create(ctx context.Context, s *Session) error

	// GetByID returns a session by ID.
	// Returns ErrSessionNotFound if the session does not exist.
	GetByID(ctx context.Context, id string) (*Session, error)

	// Update persists changes to a session's mutable fields (status,
	// schedule details). The enrolled count is owned by the Ledger and
	// is not written through this method.
	Update(ctx context.Context, s *Session) error

	// ListByStatus returns sessions with the given status, ordered by
	// scheduled start time.
	ListByStatus(ctx context.Context, status Status) ([]*Session, error)

	// FindTrainerConflict reports whether the trainer already has a
	// non-cancelled session at the given start time.
	FindTrainerConflict(ctx context.Context, trainerID string, scheduledAt time.Time) (bool, error)
}

// Ledger is the atomicity primitive that all admission decisions depend
// on. Both operations must be indivisible with respect to concurrent
// calls for the same session: the Postgres implementation uses a single
// conditional UPDATE on the session row, the in-memory implementation a
// per-session mutex. A capacity decision is never made from a stale read
// followed by a separate write.
type Ledger interface {
	// TryReserve atomically increments the enrolled count only if it is
	// currently below MaxCapacity. Returns true if a slot was reserved.
	// A false return is not an error: it is the expected signal that
	// routes the caller into the waitlist path.
	TryReserve(ctx context.Context, sessionID string) (bool, error)

	// Release decrements the enrolled count and reports whether a slot
	// became free, i.e. the count was previously at capacity. The caller
	// uses that signal to trigger exactly one queue promotion.
	Release(ctx context.Context, sessionID string) (freed bool, err error)
}
