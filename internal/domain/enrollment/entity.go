// Package enrollment contains the enrollment and waitlist aggregates: a
// trainee's registered place in a session, and the fairness-ordered queue
// entry used when the session is full.
package enrollment

import (
	"errors"
	"fmt"
	"time"
)

// ══════════════════════════════════════════════════════════════════════════════
// ENUMS
// ══════════════════════════════════════════════════════════════════════════════

// Status defines the lifecycle state of an enrollment.
type Status string

const (
	// StatusRegistered - the trainee holds a capacity slot.
	StatusRegistered Status = "registered"
	// StatusCancelled - the enrollment was cancelled; the slot was released.
	StatusCancelled Status = "cancelled"
	// StatusAttended - the trainee attended the session.
	StatusAttended Status = "attended"
	// StatusNoShow - the trainee did not show up.
	StatusNoShow Status = "no_show"
)

// IsValid checks that the status is one of the known values.
func (s Status) IsValid() bool {
	switch s {
	case StatusRegistered, StatusCancelled, StatusAttended, StatusNoShow:
		return true
	default:
		return false
	}
}

// IsActive returns true if the enrollment still holds a capacity slot.
func (s Status) IsActive() bool {
	return s == StatusRegistered
}

// QueueStatus defines the lifecycle state of a queue entry.
type QueueStatus string

const (
	// QueueStatusWaiting - the entry is waiting for a freed slot.
	QueueStatusWaiting QueueStatus = "waiting"
	// QueueStatusPromoted - the entry won a freed slot and became an enrollment.
	QueueStatusPromoted QueueStatus = "promoted"
	// QueueStatusWithdrawn - the trainee left the queue voluntarily.
	QueueStatusWithdrawn QueueStatus = "withdrawn"
)

// IsValid checks that the queue status is one of the known values.
func (s QueueStatus) IsValid() bool {
	switch s {
	case QueueStatusWaiting, QueueStatusPromoted, QueueStatusWithdrawn:
		return true
	default:
		return false
	}
}

// ══════════════════════════════════════════════════════════════════════════════
// ENTITY: ENROLLMENT
// ══════════════════════════════════════════════════════════════════════════════

// Enrollment represents a trainee's place in a session. The
// (TraineeID, SessionID) pair is unique; an active enrollment counts
// against the session's capacity.
type Enrollment struct {
	// ID - unique identifier (UUID in string form).
	ID string

	// TraineeID - the enrolled trainee.
	TraineeID string

	// SessionID - the session being attended.
	SessionID string

	// Status - current lifecycle state.
	Status Status

	// Promoted - true if this enrollment was created by queue promotion
	// rather than direct admission.
	Promoted bool

	// EnrolledAt - when the enrollment was created.
	EnrolledAt time.Time

	// UpdatedAt - last modification time.
	UpdatedAt time.Time
}

// NewEnrollment creates a registered enrollment for a trainee.
func NewEnrollment(id, traineeID, sessionID string, promoted bool) (*Enrollment, error) {
	if id == "" {
		return nil, errors.New("enrollment id is required")
	}
	if traineeID == "" {
		return nil, ErrInvalidTraineeID
	}
	if sessionID == "" {
		return nil, ErrInvalidSessionID
	}

	now := time.Now().UTC()

	return &Enrollment{
		ID:         id,
		TraineeID:  traineeID,
		SessionID:  sessionID,
		Status:     StatusRegistered,
		Promoted:   promoted,
		EnrolledAt: now,
		UpdatedAt:  now,
	}, nil
}

// Cancel marks the enrollment as cancelled. Releasing the capacity slot
// is the ledger's job; this only records the state transition.
func (e *Enrollment) Cancel() error {
	if !e.Status.IsActive() {
		return ErrNotActive
	}
	e.Status = StatusCancelled
	e.UpdatedAt = time.Now().UTC()
	return nil
}

// MarkAttended records attendance after the session ran.
func (e *Enrollment) MarkAttended() error {
	if !e.Status.IsActive() {
		return ErrNotActive
	}
	e.Status = StatusAttended
	e.UpdatedAt = time.Now().UTC()
	return nil
}

// MarkNoShow records a no-show after the session ran.
func (e *Enrollment) MarkNoShow() error {
	if !e.Status.IsActive() {
		return ErrNotActive
	}
	e.Status = StatusNoShow
	e.UpdatedAt = time.Now().UTC()
	return nil
}

// String returns a string representation of the enrollment for logging.
func (e *Enrollment) String() string {
	return fmt.Sprintf(
		"Enrollment{ID: %s, Trainee: %s, Session: %s, Status: %s}",
		e.ID, e.TraineeID, e.SessionID, e.Status,
	)
}

// ══════════════════════════════════════════════════════════════════════════════
// ENTITY: QUEUE ENTRY
// ══════════════════════════════════════════════════════════════════════════════

// QueueEntry represents a trainee waiting for a freed capacity slot.
// Position is a per-session monotonically increasing integer assigned at
// insertion time and never reused or renumbered, so FIFO ordering is
// computable purely from position comparison.
type QueueEntry struct {
	// ID - unique identifier (UUID in string form).
	ID string

	// TraineeID - the waiting trainee.
	TraineeID string

	// SessionID - the full session being waited on.
	SessionID string

	// Position - per-session insertion order, dense and strictly increasing.
	Position int

	// Status - current lifecycle state.
	Status QueueStatus

	// JoinedAt - when the trainee entered the queue.
	JoinedAt time.Time

	// UpdatedAt - last modification time.
	UpdatedAt time.Time
}

// NewQueueEntry creates a waiting queue entry at the given position.
func NewQueueEntry(id, traineeID, sessionID string, position int) (*QueueEntry, error) {
	if id == "" {
		return nil, errors.New("queue entry id is required")
	}
	if traineeID == "" {
		return nil, ErrInvalidTraineeID
	}
	if sessionID == "" {
		return nil, ErrInvalidSessionID
	}
	if position <= 0 {
		return nil, ErrInvalidPosition
	}

	now := time.Now().UTC()

	return &QueueEntry{
		ID:        id,
		TraineeID: traineeID,
		SessionID: sessionID,
		Position:  position,
		Status:    QueueStatusWaiting,
		JoinedAt:  now,
		UpdatedAt: now,
	}, nil
}

// Promote marks the entry as promoted. Positions of other entries are
// untouched.
func (q *QueueEntry) Promote() error {
	if q.Status != QueueStatusWaiting {
		return ErrNotWaiting
	}
	q.Status = QueueStatusPromoted
	q.UpdatedAt = time.Now().UTC()
	return nil
}

// Withdraw marks the entry as withdrawn. No slot was held, so no
// promotion is triggered.
func (q *QueueEntry) Withdraw() error {
	if q.Status != QueueStatusWaiting {
		return ErrNotWaiting
	}
	q.Status = QueueStatusWithdrawn
	q.UpdatedAt = time.Now().UTC()
	return nil
}

// String returns a string representation of the entry for logging.
func (q *QueueEntry) String() string {
	return fmt.Sprintf(
		"QueueEntry{ID: %s, Trainee: %s, Session: %s, Position: %d, Status: %s}",
		q.ID, q.TraineeID, q.SessionID, q.Position, q.Status,
	)
}

// ══════════════════════════════════════════════════════════════════════════════
// DOMAIN ERRORS
// ══════════════════════════════════════════════════════════════════════════════

var (
	// ErrInvalidTraineeID - the trainee identifier is missing.
	ErrInvalidTraineeID = errors.New("invalid trainee id")

	// ErrInvalidSessionID - the session identifier is missing.
	ErrInvalidSessionID = errors.New("invalid session id")

	// ErrInvalidPosition - queue positions start at 1.
	ErrInvalidPosition = errors.New("invalid queue position: must be positive")

	// ErrNotActive - the enrollment is not in the registered state.
	ErrNotActive = errors.New("enrollment is not active")

	// ErrNotWaiting - the queue entry is not in the waiting state.
	ErrNotWaiting = errors.New("queue entry is not waiting")

	// ErrEnrollmentNotFound - no enrollment exists for the pair.
	ErrEnrollmentNotFound = errors.New("enrollment not found")

	// ErrEnrollmentExists - an active enrollment already exists for the pair.
	ErrEnrollmentExists = errors.New("enrollment already exists")

	// ErrQueueEntryNotFound - no waiting entry exists for the pair.
	ErrQueueEntryNotFound = errors.New("queue entry not found")

	// ErrQueueEntryExists - a waiting entry already exists for the pair.
	ErrQueueEntryExists = errors.New("queue entry already exists")
)
