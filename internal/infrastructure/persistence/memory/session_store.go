package memory

import (
	"context"
	"sort"
	"time"

	"github.com/roastery-academy/training-hub/internal/domain/enrollment"
	"github.com/roastery-academy/training-hub/internal/domain/session"
)

// ══════════════════════════════════════════════════════════════════════════════
// SESSION REPOSITORY
// ══════════════════════════════════════════════════════════════════════════════

// SessionRepository implements session.Repository on the store.
type SessionRepository struct {
	store *Store
}

// NewSessionRepository creates a new SessionRepository.
func NewSessionRepository(store *Store) *SessionRepository {
	return &SessionRepository{store: store}
}

// Create persists a new session.
func (r *SessionRepository) Create(ctx context.Context, s *session.Session) error {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()

	if _, ok := r.store.sessions[s.ID]; ok {
		return session.ErrSessionAlreadyExists
	}

	r.store.sessions[s.ID] = s.Clone()
	return nil
}

// GetByID returns a session by ID.
func (r *SessionRepository) GetByID(ctx context.Context, id string) (*session.Session, error) {
	r.store.mu.RLock()
	defer r.store.mu.RUnlock()

	s, ok := r.store.sessions[id]
	if !ok {
		return nil, session.ErrSessionNotFound
	}

	return s.Clone(), nil
}

// Update persists a session's mutable fields. The enrolled count is
// owned by the ledger and is deliberately not written here.
func (r *SessionRepository) Update(ctx context.Context, s *session.Session) error {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()

	existing, ok := r.store.sessions[s.ID]
	if !ok {
		return session.ErrSessionNotFound
	}

	updated := s.Clone()
	updated.EnrolledCount = existing.EnrolledCount
	r.store.sessions[s.ID] = updated
	return nil
}

// ListByStatus returns sessions with the given status ordered by start
// time.
func (r *SessionRepository) ListByStatus(ctx context.Context, status session.Status) ([]*session.Session, error) {
	r.store.mu.RLock()
	defer r.store.mu.RUnlock()

	var result []*session.Session
	for _, s := range r.store.sessions {
		if s.Status == status {
			result = append(result, s.Clone())
		}
	}

	sort.Slice(result, func(i, j int) bool {
		return result[i].ScheduledAt.Before(result[j].ScheduledAt)
	})

	return result, nil
}

// FindTrainerConflict reports whether the trainer already has a
// non-cancelled session at the given start time.
func (r *SessionRepository) FindTrainerConflict(ctx context.Context, trainerID string, scheduledAt time.Time) (bool, error) {
	r.store.mu.RLock()
	defer r.store.mu.RUnlock()

	for _, s := range r.store.sessions {
		if s.TrainerID == trainerID &&
			s.ScheduledAt.Equal(scheduledAt) &&
			(s.Status == session.StatusScheduled || s.Status == session.StatusInProgress) {
			return true, nil
		}
	}

	return false, nil
}

// ══════════════════════════════════════════════════════════════════════════════
// CAPACITY LEDGER
// ══════════════════════════════════════════════════════════════════════════════

// CapacityLedger implements session.Ledger with a per-session mutex.
// Check and increment happen under the same lock, so a race between two
// reservations for the last slot resolves to exactly one winner.
type CapacityLedger struct {
	store *Store
}

// NewCapacityLedger creates a new CapacityLedger.
func NewCapacityLedger(store *Store) *CapacityLedger {
	return &CapacityLedger{store: store}
}

// TryReserve atomically claims a slot if one is free.
func (l *CapacityLedger) TryReserve(ctx context.Context, sessionID string) (bool, error) {
	lock := l.store.sessionLock(sessionID)
	lock.Lock()
	defer lock.Unlock()

	l.store.mu.Lock()
	defer l.store.mu.Unlock()

	s, ok := l.store.sessions[sessionID]
	if !ok {
		return false, session.ErrSessionNotFound
	}

	if s.EnrolledCount >= int(s.MaxCapacity) {
		return false, nil
	}

	s.EnrolledCount++
	return true, nil
}

// Release returns a slot and reports whether the session was full
// before the decrement, which is the signal for exactly one promotion.
func (l *CapacityLedger) Release(ctx context.Context, sessionID string) (bool, error) {
	lock := l.store.sessionLock(sessionID)
	lock.Lock()
	defer lock.Unlock()

	l.store.mu.Lock()
	defer l.store.mu.Unlock()

	s, ok := l.store.sessions[sessionID]
	if !ok {
		return false, nil
	}

	if s.EnrolledCount <= 0 {
		return false, nil
	}

	wasFull := s.EnrolledCount == int(s.MaxCapacity)
	s.EnrolledCount--
	return wasFull, nil
}

// Reconcile resets every enrolled count to the number of registered
// enrollments, settling any drift left by a failure between a
// reservation and its enrollment write. Returns the number of corrected
// sessions.
func (l *CapacityLedger) Reconcile(ctx context.Context) (int, error) {
	l.store.mu.Lock()
	defer l.store.mu.Unlock()

	registered := make(map[string]int, len(l.store.sessions))
	for _, e := range l.store.enrollments {
		if e.Status == enrollment.StatusRegistered {
			registered[e.SessionID]++
		}
	}

	corrected := 0
	for id, s := range l.store.sessions {
		if actual := registered[id]; s.EnrolledCount != actual {
			s.EnrolledCount = actual
			corrected++
		}
	}

	return corrected, nil
}
