package redis

import (
	"context"
	"fmt"
	"time"
)

// ══════════════════════════════════════════════════════════════════════════════
// CERTIFICATE NUMBER ALLOCATOR
// Certificate numbers come from a per-year Redis INCR sequence. INCR is
// atomic, so two concurrent issuances can never draw the same number,
// and the sequence survives process restarts.
// ══════════════════════════════════════════════════════════════════════════════

// NumberAllocator implements certificate.NumberAllocator on Redis.
type NumberAllocator struct {
	cache *Cache
	now   func() time.Time
}

// NewNumberAllocator creates a new NumberAllocator.
func NewNumberAllocator(cache *Cache) *NumberAllocator {
	return &NumberAllocator{
		cache: cache,
		now:   time.Now,
	}
}

// Next allocates the next certificate number, e.g. CERT-2026-000042.
// The sequence resets each calendar year because the year is part of the
// key, not by any explicit reset.
func (a *NumberAllocator) Next(ctx context.Context) (string, error) {
	year := a.now().UTC().Year()

	seq, err := a.cache.Incr(ctx, CertSequenceKey(year))
	if err != nil {
		return "", fmt.Errorf("failed to allocate certificate number: %w", err)
	}

	return fmt.Sprintf("CERT-%d-%06d", year, seq), nil
}
