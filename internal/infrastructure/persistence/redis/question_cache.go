package redis

import (
	"context"
	"errors"

	"github.com/roastery-academy/training-hub/internal/domain/exam"
)

// ══════════════════════════════════════════════════════════════════════════════
// QUESTION BANK CACHE
// Read-through cache in front of the external question bank. Exam content
// is immutable once published, so serving a slightly stale copy is safe
// and keeps scoring off the external service's latency path.
// ══════════════════════════════════════════════════════════════════════════════

// QuestionBankCache decorates an exam.QuestionBank with Redis caching.
type QuestionBankCache struct {
	cache  *Cache
	origin exam.QuestionBank
}

// NewQuestionBankCache creates a new QuestionBankCache.
func NewQuestionBankCache(cache *Cache, origin exam.QuestionBank) *QuestionBankCache {
	return &QuestionBankCache{
		cache:  cache,
		origin: origin,
	}
}

// GetExam returns cached exam content, falling back to the origin on a
// miss. Cache failures degrade to origin reads rather than erroring: the
// cache is an optimization, not a dependency.
func (q *QuestionBankCache) GetExam(ctx context.Context, examID string) (*exam.Exam, error) {
	key := ExamKey(examID)

	var cached exam.Exam
	err := q.cache.Get(ctx, key, &cached)
	if err == nil {
		return &cached, nil
	}
	if !errors.Is(err, ErrCacheMiss) {
		// Fall through to the origin; a broken cache must not block exams.
		_ = err
	}

	e, err := q.origin.GetExam(ctx, examID)
	if err != nil {
		return nil, err
	}

	_ = q.cache.Set(ctx, key, e, TTLExamCache)

	return e, nil
}

// Invalidate drops the cached copy of an exam.
func (q *QuestionBankCache) Invalidate(ctx context.Context, examID string) error {
	return q.cache.Delete(ctx, ExamKey(examID))
}
