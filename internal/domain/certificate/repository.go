package certificate

import (
	"context"
)

// ══════════════════════════════════════════════════════════════════════════════
// REPOSITORY INTERFACES
// ══════════════════════════════════════════════════════════════════════════════

// Repository defines the storage operations for certificates.
type Repository interface {
	// Create persists a new certificate. The attempt ID carries a unique
	// constraint: Create returns ErrCertificateExists when a certificate
	// for the attempt already exists, which is what makes the
	// certification gate idempotent under retried completion events.
	Create(ctx context.Context, c *Certificate) error

	// GetByAttempt returns the certificate for an exam attempt.
	// Returns ErrCertificateNotFound if none exists.
	GetByAttempt(ctx context.Context, attemptID string) (*Certificate, error)

	// GetByNumber returns a certificate by its public number.
	// Returns ErrCertificateNotFound if none exists.
	GetByNumber(ctx context.Context, number string) (*Certificate, error)

	// Update persists a certificate state transition (revoke, expire).
	Update(ctx context.Context, c *Certificate) error

	// ListByTrainee returns all certificates for a trainee, newest first.
	ListByTrainee(ctx context.Context, traineeID string) ([]*Certificate, error)
}

// NumberAllocator allocates globally unique certificate numbers. The
// Redis implementation uses a yearly INCR sequence; the in-memory
// implementation a counter behind a mutex.
type NumberAllocator interface {
	// Next returns a freshly allocated, never-reused certificate number.
	Next(ctx context.Context) (string, error)
}
