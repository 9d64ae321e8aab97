// Package certificate contains the certificate aggregate and the
// idempotent issuance rules of the certification gate: exactly one
// certificate per passing attempt, never duplicated on re-evaluation.
package certificate

import (
	"errors"
	"fmt"
	"time"

	"golang.org/x/crypto/sha3"
)

// ══════════════════════════════════════════════════════════════════════════════
// ENUMS
// ══════════════════════════════════════════════════════════════════════════════

// Status defines the lifecycle state of a certificate.
type Status string

const (
	// StatusIssued - the certificate is valid.
	StatusIssued Status = "issued"
	// StatusRevoked - the certificate was revoked by an administrator.
	StatusRevoked Status = "revoked"
	// StatusExpired - the certificate's validity period has ended.
	StatusExpired Status = "expired"
)

// IsValid checks that the status is one of the known values.
func (s Status) IsValid() bool {
	switch s {
	case StatusIssued, StatusRevoked, StatusExpired:
		return true
	default:
		return false
	}
}

// ══════════════════════════════════════════════════════════════════════════════
// MAIN ENTITY: CERTIFICATE
// ══════════════════════════════════════════════════════════════════════════════

// Certificate records a passed examination for a session. The AttemptID
// is unique: retries of the completion notification can never produce a
// second certificate for the same attempt.
type Certificate struct {
	// ID - unique identifier (UUID in string form).
	ID string

	// TraineeID - the certified trainee.
	TraineeID string

	// SessionID - the session the certificate covers.
	SessionID string

	// AttemptID - the passing exam attempt, unique per certificate.
	AttemptID string

	// Number - globally unique certificate number, e.g. CERT-2026-000042.
	Number string

	// VerificationCode - short digest printed into the QR code so the
	// public verify endpoint can check authenticity without a database
	// round trip for tampered numbers.
	VerificationCode string

	// Status - current lifecycle state.
	Status Status

	// IssuedAt - issue date.
	IssuedAt time.Time

	// UpdatedAt - last modification time.
	UpdatedAt time.Time
}

// ══════════════════════════════════════════════════════════════════════════════
// DOMAIN ERRORS
// ══════════════════════════════════════════════════════════════════════════════

var (
	// ErrInvalidNumber - the certificate number is missing.
	ErrInvalidNumber = errors.New("certificate number is required")

	// ErrCertificateNotFound - the certificate does not exist.
	ErrCertificateNotFound = errors.New("certificate not found")

	// ErrCertificateExists - a certificate already exists for the attempt.
	ErrCertificateExists = errors.New("certificate already issued for this attempt")

	// ErrNotIssued - only an issued certificate can be revoked or verified.
	ErrNotIssued = errors.New("certificate is not in issued state")
)

// ══════════════════════════════════════════════════════════════════════════════
// FACTORY & DOMAIN METHODS
// ══════════════════════════════════════════════════════════════════════════════

// NewCertificate issues a certificate for a passing attempt.
func NewCertificate(id, traineeID, sessionID, attemptID, number string) (*Certificate, error) {
	if id == "" {
		return nil, errors.New("certificate id is required")
	}
	if traineeID == "" || sessionID == "" || attemptID == "" {
		return nil, errors.New("trainee, session and attempt ids are required")
	}
	if number == "" {
		return nil, ErrInvalidNumber
	}

	now := time.Now().UTC()

	return &Certificate{
		ID:               id,
		TraineeID:        traineeID,
		SessionID:        sessionID,
		AttemptID:        attemptID,
		Number:           number,
		VerificationCode: VerificationCode(number, traineeID, now),
		Status:           StatusIssued,
		IssuedAt:         now,
		UpdatedAt:        now,
	}, nil
}

// VerificationCode derives the short digest embedded in the QR code.
// The inputs pin the code to the number, the trainee, and the issue day.
func VerificationCode(number, traineeID string, issuedAt time.Time) string {
	h := sha3.Sum256([]byte(number + "|" + traineeID + "|" + issuedAt.UTC().Format("2006-01-02")))
	return fmt.Sprintf("%x", h[:8])
}

// Verify reports whether the given code matches this certificate.
func (c *Certificate) Verify(code string) bool {
	return c.Status == StatusIssued && c.VerificationCode == code
}

// Revoke marks the certificate as revoked.
func (c *Certificate) Revoke() error {
	if c.Status != StatusIssued {
		return ErrNotIssued
	}
	c.Status = StatusRevoked
	c.UpdatedAt = time.Now().UTC()
	return nil
}

// Expire marks the certificate as expired.
func (c *Certificate) Expire() error {
	if c.Status != StatusIssued {
		return ErrNotIssued
	}
	c.Status = StatusExpired
	c.UpdatedAt = time.Now().UTC()
	return nil
}

// String returns a string representation of the certificate for logging.
func (c *Certificate) String() string {
	return fmt.Sprintf(
		"Certificate{ID: %s, Number: %s, Trainee: %s, Status: %s}",
		c.ID, c.Number, c.TraineeID, c.Status,
	)
}
