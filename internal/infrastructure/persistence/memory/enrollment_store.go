package memory

import (
	"context"
	"sort"

	"github.com/roastery-academy/training-hub/internal/domain/enrollment"
)

// ══════════════════════════════════════════════════════════════════════════════
// ENROLLMENT REPOSITORY
// ══════════════════════════════════════════════════════════════════════════════

// EnrollmentRepository implements enrollment.Repository on the store.
type EnrollmentRepository struct {
	store *Store
}

// NewEnrollmentRepository creates a new EnrollmentRepository.
func NewEnrollmentRepository(store *Store) *EnrollmentRepository {
	return &EnrollmentRepository{store: store}
}

func cloneEnrollment(e *enrollment.Enrollment) *enrollment.Enrollment {
	clone := *e
	return &clone
}

// Create persists a new enrollment. A second registered enrollment for
// the same (trainee, session) pair is rejected, matching the partial
// unique index in Postgres.
func (r *EnrollmentRepository) Create(ctx context.Context, e *enrollment.Enrollment) error {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()

	for _, existing := range r.store.enrollments {
		if existing.TraineeID == e.TraineeID &&
			existing.SessionID == e.SessionID &&
			existing.Status.IsActive() {
			return enrollment.ErrEnrollmentExists
		}
	}

	r.store.enrollments[e.ID] = cloneEnrollment(e)
	return nil
}

// GetActive returns the registered enrollment for the pair.
func (r *EnrollmentRepository) GetActive(ctx context.Context, traineeID, sessionID string) (*enrollment.Enrollment, error) {
	r.store.mu.RLock()
	defer r.store.mu.RUnlock()

	for _, e := range r.store.enrollments {
		if e.TraineeID == traineeID && e.SessionID == sessionID && e.Status.IsActive() {
			return cloneEnrollment(e), nil
		}
	}

	return nil, enrollment.ErrEnrollmentNotFound
}

// Update persists an enrollment state transition.
func (r *EnrollmentRepository) Update(ctx context.Context, e *enrollment.Enrollment) error {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()

	if _, ok := r.store.enrollments[e.ID]; !ok {
		return enrollment.ErrEnrollmentNotFound
	}

	r.store.enrollments[e.ID] = cloneEnrollment(e)
	return nil
}

// ListBySession returns all enrollments for a session, newest first.
func (r *EnrollmentRepository) ListBySession(ctx context.Context, sessionID string) ([]*enrollment.Enrollment, error) {
	r.store.mu.RLock()
	defer r.store.mu.RUnlock()

	var result []*enrollment.Enrollment
	for _, e := range r.store.enrollments {
		if e.SessionID == sessionID {
			result = append(result, cloneEnrollment(e))
		}
	}

	sort.Slice(result, func(i, j int) bool {
		return result[i].EnrolledAt.After(result[j].EnrolledAt)
	})

	return result, nil
}

// ListByTrainee returns all enrollments for a trainee, newest first.
func (r *EnrollmentRepository) ListByTrainee(ctx context.Context, traineeID string) ([]*enrollment.Enrollment, error) {
	r.store.mu.RLock()
	defer r.store.mu.RUnlock()

	var result []*enrollment.Enrollment
	for _, e := range r.store.enrollments {
		if e.TraineeID == traineeID {
			result = append(result, cloneEnrollment(e))
		}
	}

	sort.Slice(result, func(i, j int) bool {
		return result[i].EnrolledAt.After(result[j].EnrolledAt)
	})

	return result, nil
}

// CountRegistered returns the number of registered enrollments for a
// session.
func (r *EnrollmentRepository) CountRegistered(ctx context.Context, sessionID string) (int, error) {
	r.store.mu.RLock()
	defer r.store.mu.RUnlock()

	count := 0
	for _, e := range r.store.enrollments {
		if e.SessionID == sessionID && e.Status.IsActive() {
			count++
		}
	}

	return count, nil
}

// ══════════════════════════════════════════════════════════════════════════════
// QUEUE REPOSITORY
// ══════════════════════════════════════════════════════════════════════════════

// QueueRepository implements enrollment.QueueRepository on the store.
type QueueRepository struct {
	store *Store
}

// NewQueueRepository creates a new QueueRepository.
func NewQueueRepository(store *Store) *QueueRepository {
	return &QueueRepository{store: store}
}

func cloneQueueEntry(q *enrollment.QueueEntry) *enrollment.QueueEntry {
	clone := *q
	return &clone
}

// Create persists a new queue entry.
func (r *QueueRepository) Create(ctx context.Context, entry *enrollment.QueueEntry) error {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()

	for _, existing := range r.store.queueEntries {
		if existing.TraineeID == entry.TraineeID &&
			existing.SessionID == entry.SessionID &&
			existing.Status == enrollment.QueueStatusWaiting {
			return enrollment.ErrQueueEntryExists
		}
	}

	r.store.queueEntries[entry.ID] = cloneQueueEntry(entry)
	return nil
}

// GetWaiting returns the waiting entry for the pair.
func (r *QueueRepository) GetWaiting(ctx context.Context, traineeID, sessionID string) (*enrollment.QueueEntry, error) {
	r.store.mu.RLock()
	defer r.store.mu.RUnlock()

	for _, q := range r.store.queueEntries {
		if q.TraineeID == traineeID && q.SessionID == sessionID && q.Status == enrollment.QueueStatusWaiting {
			return cloneQueueEntry(q), nil
		}
	}

	return nil, enrollment.ErrQueueEntryNotFound
}

// Update persists a queue entry state transition.
func (r *QueueRepository) Update(ctx context.Context, entry *enrollment.QueueEntry) error {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()

	if _, ok := r.store.queueEntries[entry.ID]; !ok {
		return enrollment.ErrQueueEntryNotFound
	}

	r.store.queueEntries[entry.ID] = cloneQueueEntry(entry)
	return nil
}

// NextPosition returns the next never-reused position for a session.
func (r *QueueRepository) NextPosition(ctx context.Context, sessionID string) (int, error) {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()

	r.store.nextQueuePos[sessionID]++
	return r.store.nextQueuePos[sessionID], nil
}

// PeekHead returns the waiting entry with the smallest position.
func (r *QueueRepository) PeekHead(ctx context.Context, sessionID string) (*enrollment.QueueEntry, error) {
	r.store.mu.RLock()
	defer r.store.mu.RUnlock()

	var head *enrollment.QueueEntry
	for _, q := range r.store.queueEntries {
		if q.SessionID != sessionID || q.Status != enrollment.QueueStatusWaiting {
			continue
		}
		if head == nil || q.Position < head.Position {
			head = q
		}
	}

	if head == nil {
		return nil, enrollment.ErrQueueEntryNotFound
	}

	return cloneQueueEntry(head), nil
}

// ListWaiting returns all waiting entries for a session in position
// order.
func (r *QueueRepository) ListWaiting(ctx context.Context, sessionID string) ([]*enrollment.QueueEntry, error) {
	r.store.mu.RLock()
	defer r.store.mu.RUnlock()

	var result []*enrollment.QueueEntry
	for _, q := range r.store.queueEntries {
		if q.SessionID == sessionID && q.Status == enrollment.QueueStatusWaiting {
			result = append(result, cloneQueueEntry(q))
		}
	}

	sort.Slice(result, func(i, j int) bool {
		return result[i].Position < result[j].Position
	})

	return result, nil
}

// ListWaitingByTrainee returns all waiting entries for a trainee.
func (r *QueueRepository) ListWaitingByTrainee(ctx context.Context, traineeID string) ([]*enrollment.QueueEntry, error) {
	r.store.mu.RLock()
	defer r.store.mu.RUnlock()

	var result []*enrollment.QueueEntry
	for _, q := range r.store.queueEntries {
		if q.TraineeID == traineeID && q.Status == enrollment.QueueStatusWaiting {
			result = append(result, cloneQueueEntry(q))
		}
	}

	sort.Slice(result, func(i, j int) bool {
		return result[i].JoinedAt.Before(result[j].JoinedAt)
	})

	return result, nil
}

// CountWaiting returns the number of waiting entries for a session.
func (r *QueueRepository) CountWaiting(ctx context.Context, sessionID string) (int, error) {
	r.store.mu.RLock()
	defer r.store.mu.RUnlock()

	count := 0
	for _, q := range r.store.queueEntries {
		if q.SessionID == sessionID && q.Status == enrollment.QueueStatusWaiting {
			count++
		}
	}

	return count, nil
}
