// Package session contains the training session aggregate: the schedule
// entry, its fixed capacity, and the capacity ledger contract that all
// admission decisions are serialized through.
package session

import (
	"errors"
	"fmt"
	"strings"
	"time"
)

// ══════════════════════════════════════════════════════════════════════════════
// VALUE OBJECTS
// ══════════════════════════════════════════════════════════════════════════════

// Capacity represents the fixed maximum number of registered trainees.
type Capacity int

// IsValid checks that the capacity is a positive integer.
func (c Capacity) IsValid() bool {
	return c > 0
}

// ══════════════════════════════════════════════════════════════════════════════
// ENUMS
// ══════════════════════════════════════════════════════════════════════════════

// Status defines the lifecycle state of a training session.
type Status string

const (
	// StatusScheduled - the session is planned and open for enrollment.
	StatusScheduled Status = "scheduled"
	// StatusInProgress - the session is currently running.
	StatusInProgress Status = "in_progress"
	// StatusCompleted - the session has finished.
	StatusCompleted Status = "completed"
	// StatusCancelled - the session was cancelled by an administrator.
	StatusCancelled Status = "cancelled"
)

// IsValid checks that the status is one of the known values.
func (s Status) IsValid() bool {
	switch s {
	case StatusScheduled, StatusInProgress, StatusCompleted, StatusCancelled:
		return true
	default:
		return false
	}
}

// IsSchedulable returns true if the session accepts new enrollments.
// Only scheduled sessions do; everything else rejects with
// SessionNotSchedulable at the admission controller.
func (s Status) IsSchedulable() bool {
	return s == StatusScheduled
}

// IsTerminal returns true if the session can no longer change state.
func (s Status) IsTerminal() bool {
	return s == StatusCompleted || s == StatusCancelled
}

// ══════════════════════════════════════════════════════════════════════════════
// MAIN ENTITY: SESSION
// ══════════════════════════════════════════════════════════════════════════════

// Session represents a scheduled training session with a fixed capacity.
// The enrolled count lives on the session row and is mutated only through
// the Ledger's atomic operations, never by a read-modify-write cycle.
type Session struct {
	// ID - unique identifier (UUID in string form).
	ID string

	// Title - human-readable session title.
	Title string

	// Description - optional free-form description.
	Description string

	// ProgramID - optional reference to the owning training program.
	ProgramID string

	// TrainerID - optional assigned trainer.
	TrainerID string

	// ScheduledAt - when the session starts.
	ScheduledAt time.Time

	// DurationMinutes - planned session length.
	DurationMinutes int

	// Location - optional physical or virtual location.
	Location string

	// MaxCapacity - fixed enrollment limit, positive.
	MaxCapacity Capacity

	// EnrolledCount - current number of registered enrollments. Owned by
	// the Ledger; kept on the entity for reads and roster views.
	EnrolledCount int

	// Status - current lifecycle state.
	Status Status

	// CreatedAt - record creation time.
	CreatedAt time.Time

	// UpdatedAt - last modification time.
	UpdatedAt time.Time
}

// ══════════════════════════════════════════════════════════════════════════════
// DOMAIN ERRORS
// ══════════════════════════════════════════════════════════════════════════════

var (
	// ErrInvalidTitle - the title is empty or too long.
	ErrInvalidTitle = errors.New("invalid title: must be 1-200 chars")

	// ErrInvalidCapacity - the capacity is not a positive integer.
	ErrInvalidCapacity = errors.New("invalid max capacity: must be positive")

	// ErrInvalidDuration - the duration is not positive.
	ErrInvalidDuration = errors.New("invalid duration: must be positive minutes")

	// ErrInvalidScheduledAt - the start time is missing.
	ErrInvalidScheduledAt = errors.New("invalid scheduled time")

	// ErrNotSchedulable - the session does not accept enrollments.
	ErrNotSchedulable = errors.New("session is not open for enrollment")

	// ErrAlreadyTerminal - the session has already completed or been cancelled.
	ErrAlreadyTerminal = errors.New("session is already in a terminal state")

	// ErrSessionNotFound - the session does not exist.
	ErrSessionNotFound = errors.New("session not found")

	// ErrSessionAlreadyExists - a session with the same ID already exists.
	ErrSessionAlreadyExists = errors.New("session already exists")
)

// ══════════════════════════════════════════════════════════════════════════════
// FACTORY & VALIDATION
// ══════════════════════════════════════════════════════════════════════════════

// NewSessionParams contains parameters for scheduling a new session.
type NewSessionParams struct {
	ID              string
	Title           string
	Description     string
	ProgramID       string
	TrainerID       string
	ScheduledAt     time.Time
	DurationMinutes int
	Location        string
	MaxCapacity     Capacity
}

// NewSession creates a new scheduled session with validation of all fields.
func NewSession(params NewSessionParams) (*Session, error) {
	if params.ID == "" {
		return nil, errors.New("session id is required")
	}

	title := strings.TrimSpace(params.Title)
	if len(title) == 0 || len(title) > 200 {
		return nil, ErrInvalidTitle
	}

	if !params.MaxCapacity.IsValid() {
		return nil, ErrInvalidCapacity
	}

	if params.DurationMinutes <= 0 {
		return nil, ErrInvalidDuration
	}

	if params.ScheduledAt.IsZero() {
		return nil, ErrInvalidScheduledAt
	}

	now := time.Now().UTC()

	return &Session{
		ID:              params.ID,
		Title:           title,
		Description:     strings.TrimSpace(params.Description),
		ProgramID:       params.ProgramID,
		TrainerID:       params.TrainerID,
		ScheduledAt:     params.ScheduledAt,
		DurationMinutes: params.DurationMinutes,
		Location:        params.Location,
		MaxCapacity:     params.MaxCapacity,
		EnrolledCount:   0,
		Status:          StatusScheduled,
		CreatedAt:       now,
		UpdatedAt:       now,
	}, nil
}

// ══════════════════════════════════════════════════════════════════════════════
// DOMAIN METHODS
// ══════════════════════════════════════════════════════════════════════════════

// IsFull returns true if the registered count has reached capacity.
func (s *Session) IsFull() bool {
	return s.EnrolledCount >= int(s.MaxCapacity)
}

// RemainingSlots returns the number of free capacity slots.
func (s *Session) RemainingSlots() int {
	remaining := int(s.MaxCapacity) - s.EnrolledCount
	if remaining < 0 {
		return 0
	}
	return remaining
}

// Begin marks the session as in progress.
func (s *Session) Begin() error {
	if s.Status != StatusScheduled {
		return ErrNotSchedulable
	}
	s.Status = StatusInProgress
	s.UpdatedAt = time.Now().UTC()
	return nil
}

// Complete marks the session as completed.
func (s *Session) Complete() error {
	if s.Status.IsTerminal() {
		return ErrAlreadyTerminal
	}
	s.Status = StatusCompleted
	s.UpdatedAt = time.Now().UTC()
	return nil
}

// Cancel marks the session as cancelled. Enrollment and queue cleanup is
// the admission controller's job, not the entity's.
func (s *Session) Cancel() error {
	if s.Status.IsTerminal() {
		return ErrAlreadyTerminal
	}
	s.Status = StatusCancelled
	s.UpdatedAt = time.Now().UTC()
	return nil
}

// String returns a string representation of the session for logging.
func (s *Session) String() string {
	return fmt.Sprintf(
		"Session{ID: %s, Title: %s, Enrolled: %d/%d, Status: %s}",
		s.ID, s.Title, s.EnrolledCount, s.MaxCapacity, s.Status,
	)
}

// Clone creates a deep copy of the session.
func (s *Session) Clone() *Session {
	if s == nil {
		return nil
	}

	clone := *s
	return &clone
}
