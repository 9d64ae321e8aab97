// Package postgres implements the PostgreSQL persistence layer for Training Hub.
package postgres

import (
	"context"
	"fmt"
	"time"

	"github.com/roastery-academy/training-hub/internal/domain/certificate"

	"github.com/jackc/pgx/v5"
)

// ══════════════════════════════════════════════════════════════════════════════
// CERTIFICATE REPOSITORY IMPLEMENTATION
// ══════════════════════════════════════════════════════════════════════════════

// CertificateRepository implements certificate.Repository for PostgreSQL.
type CertificateRepository struct {
	conn *Connection
}

// NewCertificateRepository creates a new CertificateRepository.
func NewCertificateRepository(conn *Connection) *CertificateRepository {
	return &CertificateRepository{conn: conn}
}

// Create persists a new certificate. The unique constraint on attempt_id
// is the idempotency anchor of the certification gate: a second insert
// for the same attempt fails with ErrCertificateExists no matter which
// process got there first.
func (r *CertificateRepository) Create(ctx context.Context, c *certificate.Certificate) error {
	query := `
		INSERT INTO certificates (
			id, number, trainee_id, session_id, attempt_id,
			verification_code, status, issued_at, updated_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
	`

	_, err := r.conn.Exec(ctx, query,
		c.ID,
		c.Number,
		c.TraineeID,
		c.SessionID,
		c.AttemptID,
		c.VerificationCode,
		string(c.Status),
		c.IssuedAt,
		c.UpdatedAt,
	)
	if err != nil {
		if IsUniqueViolation(err) {
			return certificate.ErrCertificateExists
		}
		return fmt.Errorf("failed to create certificate: %w", err)
	}

	return nil
}

// GetByAttempt returns the certificate for an exam attempt.
func (r *CertificateRepository) GetByAttempt(ctx context.Context, attemptID string) (*certificate.Certificate, error) {
	query := `
		SELECT id, number, trainee_id, session_id, attempt_id,
			   verification_code, status, issued_at, updated_at
		FROM certificates
		WHERE attempt_id = $1
	`

	row := r.conn.QueryRow(ctx, query, attemptID)
	return r.scanCertificate(row)
}

// GetByNumber returns a certificate by its public number.
func (r *CertificateRepository) GetByNumber(ctx context.Context, number string) (*certificate.Certificate, error) {
	query := `
		SELECT id, number, trainee_id, session_id, attempt_id,
			   verification_code, status, issued_at, updated_at
		FROM certificates
		WHERE number = $1
	`

	row := r.conn.QueryRow(ctx, query, number)
	return r.scanCertificate(row)
}

// Update persists a certificate state transition.
func (r *CertificateRepository) Update(ctx context.Context, c *certificate.Certificate) error {
	query := `
		UPDATE certificates SET
			status = $1,
			updated_at = $2
		WHERE id = $3
	`

	result, err := r.conn.Exec(ctx, query, string(c.Status), time.Now().UTC(), c.ID)
	if err != nil {
		return fmt.Errorf("failed to update certificate: %w", err)
	}

	if result.RowsAffected() == 0 {
		return certificate.ErrCertificateNotFound
	}

	return nil
}

// ListByTrainee returns all certificates for a trainee, newest first.
func (r *CertificateRepository) ListByTrainee(ctx context.Context, traineeID string) ([]*certificate.Certificate, error) {
	query := `
		SELECT id, number, trainee_id, session_id, attempt_id,
			   verification_code, status, issued_at, updated_at
		FROM certificates
		WHERE trainee_id = $1
		ORDER BY issued_at DESC
	`

	rows, err := r.conn.Query(ctx, query, traineeID)
	if err != nil {
		return nil, fmt.Errorf("failed to query certificates: %w", err)
	}
	defer rows.Close()

	var certs []*certificate.Certificate
	for rows.Next() {
		c, err := r.scanCertificate(rows)
		if err != nil {
			return nil, err
		}
		certs = append(certs, c)
	}

	return certs, rows.Err()
}

func (r *CertificateRepository) scanCertificate(row pgx.Row) (*certificate.Certificate, error) {
	var c certificate.Certificate
	var status string

	err := row.Scan(
		&c.ID,
		&c.Number,
		&c.TraineeID,
		&c.SessionID,
		&c.AttemptID,
		&c.VerificationCode,
		&status,
		&c.IssuedAt,
		&c.UpdatedAt,
	)
	if err != nil {
		if IsNoRows(err) {
			return nil, certificate.ErrCertificateNotFound
		}
		return nil, fmt.Errorf("failed to scan certificate: %w", err)
	}

	c.Status = certificate.Status(status)

	return &c, nil
}
