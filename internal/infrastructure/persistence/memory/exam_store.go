package memory

import (
	"context"
	"sort"
	"sync"

	"github.com/roastery-academy/training-hub/internal/domain/exam"
)

// ══════════════════════════════════════════════════════════════════════════════
// ATTEMPT REPOSITORY
// ══════════════════════════════════════════════════════════════════════════════

// AttemptRepository implements exam.AttemptRepository on the store.
type AttemptRepository struct {
	store *Store
}

// NewAttemptRepository creates a new AttemptRepository.
func NewAttemptRepository(store *Store) *AttemptRepository {
	return &AttemptRepository{store: store}
}

func cloneAttempt(a *exam.Attempt) *exam.Attempt {
	clone := *a

	if a.SubmittedAt != nil {
		t := *a.SubmittedAt
		clone.SubmittedAt = &t
	}

	clone.Answers = make(map[string]string, len(a.Answers))
	for k, v := range a.Answers {
		clone.Answers[k] = v
	}

	return &clone
}

// Create persists a new attempt.
func (r *AttemptRepository) Create(ctx context.Context, a *exam.Attempt) error {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()

	for _, existing := range r.store.attempts {
		if existing.TraineeID == a.TraineeID && existing.ExamID == a.ExamID {
			return exam.ErrAttemptExists
		}
	}

	r.store.attempts[a.ID] = cloneAttempt(a)
	return nil
}

// Get returns the attempt for the (trainee, exam) pair.
func (r *AttemptRepository) Get(ctx context.Context, traineeID, examID string) (*exam.Attempt, error) {
	r.store.mu.RLock()
	defer r.store.mu.RUnlock()

	for _, a := range r.store.attempts {
		if a.TraineeID == traineeID && a.ExamID == examID {
			return cloneAttempt(a), nil
		}
	}

	return nil, exam.ErrAttemptNotFound
}

// GetByID returns an attempt by its identifier.
func (r *AttemptRepository) GetByID(ctx context.Context, id string) (*exam.Attempt, error) {
	r.store.mu.RLock()
	defer r.store.mu.RUnlock()

	a, ok := r.store.attempts[id]
	if !ok {
		return nil, exam.ErrAttemptNotFound
	}

	return cloneAttempt(a), nil
}

// Update persists an attempt transition. The stored row must still be
// in progress, matching the conditional UPDATE in Postgres.
func (r *AttemptRepository) Update(ctx context.Context, a *exam.Attempt) error {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()

	existing, ok := r.store.attempts[a.ID]
	if !ok {
		return exam.ErrAttemptNotFound
	}
	if existing.Status != exam.AttemptStatusInProgress {
		return exam.ErrAlreadyFinalized
	}

	r.store.attempts[a.ID] = cloneAttempt(a)
	return nil
}

// Finalize persists a transition into a terminal state, guarded the
// same way as Update: a racing finalization loses with
// ErrAlreadyFinalized.
func (r *AttemptRepository) Finalize(ctx context.Context, a *exam.Attempt) error {
	return r.Update(ctx, a)
}

// ListByTrainee returns all attempts for a trainee, newest first.
func (r *AttemptRepository) ListByTrainee(ctx context.Context, traineeID string) ([]*exam.Attempt, error) {
	r.store.mu.RLock()
	defer r.store.mu.RUnlock()

	var result []*exam.Attempt
	for _, a := range r.store.attempts {
		if a.TraineeID == traineeID {
			result = append(result, cloneAttempt(a))
		}
	}

	sort.Slice(result, func(i, j int) bool {
		return result[i].StartedAt.After(result[j].StartedAt)
	})

	return result, nil
}

// Delete removes an attempt. Used only by the administrative reset.
func (r *AttemptRepository) Delete(ctx context.Context, id string) error {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()

	if _, ok := r.store.attempts[id]; !ok {
		return exam.ErrAttemptNotFound
	}

	delete(r.store.attempts, id)
	return nil
}

// ══════════════════════════════════════════════════════════════════════════════
// QUESTION BANK
// ══════════════════════════════════════════════════════════════════════════════

// QuestionBank implements exam.QuestionBank on a fixed exam set. Tests
// and development mode seed it directly.
type QuestionBank struct {
	mu    sync.RWMutex
	exams map[string]*exam.Exam
}

// NewQuestionBank creates an empty QuestionBank.
func NewQuestionBank() *QuestionBank {
	return &QuestionBank{exams: make(map[string]*exam.Exam)}
}

// Put stores an exam.
func (b *QuestionBank) Put(e *exam.Exam) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.exams[e.ID] = e
}

// GetExam returns the exam configuration.
func (b *QuestionBank) GetExam(ctx context.Context, examID string) (*exam.Exam, error) {
	b.mu.RLock()
	defer b.mu.RUnlock()

	e, ok := b.exams[examID]
	if !ok {
		return nil, exam.ErrExamNotFound
	}

	return e, nil
}
