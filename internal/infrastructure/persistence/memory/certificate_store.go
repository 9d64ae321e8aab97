package memory

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/roastery-academy/training-hub/internal/domain/certificate"
)

// ══════════════════════════════════════════════════════════════════════════════
// CERTIFICATE REPOSITORY
// ══════════════════════════════════════════════════════════════════════════════

// CertificateRepository implements certificate.Repository on the store.
type CertificateRepository struct {
	store *Store
}

// NewCertificateRepository creates a new CertificateRepository.
func NewCertificateRepository(store *Store) *CertificateRepository {
	return &CertificateRepository{store: store}
}

func cloneCertificate(c *certificate.Certificate) *certificate.Certificate {
	clone := *c
	return &clone
}

// Create persists a new certificate. The attempt uniqueness check is
// what makes the certification gate idempotent.
func (r *CertificateRepository) Create(ctx context.Context, c *certificate.Certificate) error {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()

	for _, existing := range r.store.certificates {
		if existing.AttemptID == c.AttemptID {
			return certificate.ErrCertificateExists
		}
	}

	r.store.certificates[c.ID] = cloneCertificate(c)
	return nil
}

// GetByAttempt returns the certificate for an exam attempt.
func (r *CertificateRepository) GetByAttempt(ctx context.Context, attemptID string) (*certificate.Certificate, error) {
	r.store.mu.RLock()
	defer r.store.mu.RUnlock()

	for _, c := range r.store.certificates {
		if c.AttemptID == attemptID {
			return cloneCertificate(c), nil
		}
	}

	return nil, certificate.ErrCertificateNotFound
}

// GetByNumber returns a certificate by its public number.
func (r *CertificateRepository) GetByNumber(ctx context.Context, number string) (*certificate.Certificate, error) {
	r.store.mu.RLock()
	defer r.store.mu.RUnlock()

	for _, c := range r.store.certificates {
		if c.Number == number {
			return cloneCertificate(c), nil
		}
	}

	return nil, certificate.ErrCertificateNotFound
}

// Update persists a certificate state transition.
func (r *CertificateRepository) Update(ctx context.Context, c *certificate.Certificate) error {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()

	if _, ok := r.store.certificates[c.ID]; !ok {
		return certificate.ErrCertificateNotFound
	}

	r.store.certificates[c.ID] = cloneCertificate(c)
	return nil
}

// ListByTrainee returns all certificates for a trainee, newest first.
func (r *CertificateRepository) ListByTrainee(ctx context.Context, traineeID string) ([]*certificate.Certificate, error) {
	r.store.mu.RLock()
	defer r.store.mu.RUnlock()

	var result []*certificate.Certificate
	for _, c := range r.store.certificates {
		if c.TraineeID == traineeID {
			result = append(result, cloneCertificate(c))
		}
	}

	sort.Slice(result, func(i, j int) bool {
		return result[i].IssuedAt.After(result[j].IssuedAt)
	})

	return result, nil
}

// ══════════════════════════════════════════════════════════════════════════════
// NUMBER ALLOCATOR
// ══════════════════════════════════════════════════════════════════════════════

// NumberAllocator implements certificate.NumberAllocator with a counter
// behind a mutex. Numbers match the Redis allocator's format but the
// sequence does not survive a restart, which is acceptable for tests
// and development.
type NumberAllocator struct {
	mu  sync.Mutex
	seq int64
	now func() time.Time
}

// NewNumberAllocator creates a new NumberAllocator.
func NewNumberAllocator() *NumberAllocator {
	return &NumberAllocator{now: time.Now}
}

// Next returns the next certificate number.
func (a *NumberAllocator) Next(ctx context.Context) (string, error) {
	a.mu.Lock()
	defer a.mu.Unlock()

	a.seq++
	return fmt.Sprintf("CERT-%d-%06d", a.now().UTC().Year(), a.seq), nil
}
