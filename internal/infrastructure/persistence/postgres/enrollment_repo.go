// Package postgres implements the PostgreSQL persistence layer for Training Hub.
package postgres

import (
	"context"
	"fmt"
	"time"

	"github.com/roastery-academy/training-hub/internal/domain/enrollment"

	"github.com/jackc/pgx/v5"
)

// ══════════════════════════════════════════════════════════════════════════════
// ENROLLMENT REPOSITORY IMPLEMENTATION
// ══════════════════════════════════════════════════════════════════════════════

// EnrollmentRepository implements enrollment.Repository for PostgreSQL.
type EnrollmentRepository struct {
	conn *Connection
}

// NewEnrollmentRepository creates a new EnrollmentRepository.
func NewEnrollmentRepository(conn *Connection) *EnrollmentRepository {
	return &EnrollmentRepository{conn: conn}
}

// Create persists a new enrollment. The partial unique index on
// (trainee_id, session_id) WHERE status = 'registered' enforces the
// one-active-enrollment invariant at the storage level.
func (r *EnrollmentRepository) Create(ctx context.Context, e *enrollment.Enrollment) error {
	query := `
		INSERT INTO session_enrollments (
			id, trainee_id, session_id, status, promoted, enrolled_at, updated_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7)
	`

	_, err := r.conn.Exec(ctx, query,
		e.ID,
		e.TraineeID,
		e.SessionID,
		string(e.Status),
		e.Promoted,
		e.EnrolledAt,
		e.UpdatedAt,
	)
	if err != nil {
		if IsUniqueViolation(err) {
			return enrollment.ErrEnrollmentExists
		}
		return fmt.Errorf("failed to create enrollment: %w", err)
	}

	return nil
}

// GetActive returns the registered enrollment for the pair.
func (r *EnrollmentRepository) GetActive(ctx context.Context, traineeID, sessionID string) (*enrollment.Enrollment, error) {
	query := `
		SELECT id, trainee_id, session_id, status, promoted, enrolled_at, updated_at
		FROM session_enrollments
		WHERE trainee_id = $1 AND session_id = $2 AND status = 'registered'
	`

	row := r.conn.QueryRow(ctx, query, traineeID, sessionID)
	return r.scanEnrollment(row)
}

// Update persists an enrollment state transition.
func (r *EnrollmentRepository) Update(ctx context.Context, e *enrollment.Enrollment) error {
	query := `
		UPDATE session_enrollments SET
			status = $1,
			updated_at = $2
		WHERE id = $3
	`

	result, err := r.conn.Exec(ctx, query, string(e.Status), time.Now().UTC(), e.ID)
	if err != nil {
		return fmt.Errorf("failed to update enrollment: %w", err)
	}

	if result.RowsAffected() == 0 {
		return enrollment.ErrEnrollmentNotFound
	}

	return nil
}

// ListBySession returns all enrollments for a session, newest first.
func (r *EnrollmentRepository) ListBySession(ctx context.Context, sessionID string) ([]*enrollment.Enrollment, error) {
	query := `
		SELECT id, trainee_id, session_id, status, promoted, enrolled_at, updated_at
		FROM session_enrollments
		WHERE session_id = $1
		ORDER BY enrolled_at DESC
	`

	return r.queryEnrollments(ctx, query, sessionID)
}

// ListByTrainee returns all enrollments for a trainee, newest first.
func (r *EnrollmentRepository) ListByTrainee(ctx context.Context, traineeID string) ([]*enrollment.Enrollment, error) {
	query := `
		SELECT id, trainee_id, session_id, status, promoted, enrolled_at, updated_at
		FROM session_enrollments
		WHERE trainee_id = $1
		ORDER BY enrolled_at DESC
	`

	return r.queryEnrollments(ctx, query, traineeID)
}

// CountRegistered returns the number of registered enrollments for a session.
func (r *EnrollmentRepository) CountRegistered(ctx context.Context, sessionID string) (int, error) {
	query := `
		SELECT COUNT(*) FROM session_enrollments
		WHERE session_id = $1 AND status = 'registered'
	`

	var count int
	if err := r.conn.QueryRow(ctx, query, sessionID).Scan(&count); err != nil {
		return 0, fmt.Errorf("failed to count enrollments: %w", err)
	}

	return count, nil
}

func (r *EnrollmentRepository) queryEnrollments(ctx context.Context, query string, args ...interface{}) ([]*enrollment.Enrollment, error) {
	rows, err := r.conn.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query enrollments: %w", err)
	}
	defer rows.Close()

	var enrollments []*enrollment.Enrollment
	for rows.Next() {
		e, err := r.scanEnrollment(rows)
		if err != nil {
			return nil, err
		}
		enrollments = append(enrollments, e)
	}

	return enrollments, rows.Err()
}

func (r *EnrollmentRepository) scanEnrollment(row pgx.Row) (*enrollment.Enrollment, error) {
	var e enrollment.Enrollment
	var status string

	err := row.Scan(
		&e.ID,
		&e.TraineeID,
		&e.SessionID,
		&status,
		&e.Promoted,
		&e.EnrolledAt,
		&e.UpdatedAt,
	)
	if err != nil {
		if IsNoRows(err) {
			return nil, enrollment.ErrEnrollmentNotFound
		}
		return nil, fmt.Errorf("failed to scan enrollment: %w", err)
	}

	e.Status = enrollment.Status(status)

	return &e, nil
}

// ══════════════════════════════════════════════════════════════════════════════
// QUEUE REPOSITORY IMPLEMENTATION
// ══════════════════════════════════════════════════════════════════════════════

// QueueRepository implements enrollment.QueueRepository for PostgreSQL.
type QueueRepository struct {
	conn *Connection
}

// NewQueueRepository creates a new QueueRepository.
func NewQueueRepository(conn *Connection) *QueueRepository {
	return &QueueRepository{conn: conn}
}

// Create persists a new queue entry.
func (r *QueueRepository) Create(ctx context.Context, entry *enrollment.QueueEntry) error {
	query := `
		INSERT INTO queue_entries (
			id, trainee_id, session_id, position, status, joined_at, updated_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7)
	`

	_, err := r.conn.Exec(ctx, query,
		entry.ID,
		entry.TraineeID,
		entry.SessionID,
		entry.Position,
		string(entry.Status),
		entry.JoinedAt,
		entry.UpdatedAt,
	)
	if err != nil {
		if IsUniqueViolation(err) {
			return enrollment.ErrQueueEntryExists
		}
		return fmt.Errorf("failed to create queue entry: %w", err)
	}

	return nil
}

// GetWaiting returns the waiting entry for the pair.
func (r *QueueRepository) GetWaiting(ctx context.Context, traineeID, sessionID string) (*enrollment.QueueEntry, error) {
	query := `
		SELECT id, trainee_id, session_id, position, status, joined_at, updated_at
		FROM queue_entries
		WHERE trainee_id = $1 AND session_id = $2 AND status = 'waiting'
	`

	row := r.conn.QueryRow(ctx, query, traineeID, sessionID)
	return r.scanEntry(row)
}

// Update persists a queue entry state transition.
func (r *QueueRepository) Update(ctx context.Context, entry *enrollment.QueueEntry) error {
	query := `
		UPDATE queue_entries SET
			status = $1,
			updated_at = $2
		WHERE id = $3
	`

	result, err := r.conn.Exec(ctx, query, string(entry.Status), time.Now().UTC(), entry.ID)
	if err != nil {
		return fmt.Errorf("failed to update queue entry: %w", err)
	}

	if result.RowsAffected() == 0 {
		return enrollment.ErrQueueEntryNotFound
	}

	return nil
}

// NextPosition atomically allocates the next position from the session's
// counter. The counter only ever moves forward, so positions are never
// reused even after entries are withdrawn or promoted.
func (r *QueueRepository) NextPosition(ctx context.Context, sessionID string) (int, error) {
	query := `
		UPDATE training_sessions
		SET next_queue_position = next_queue_position + 1
		WHERE id = $1
		RETURNING next_queue_position
	`

	var position int
	err := r.conn.QueryRow(ctx, query, sessionID).Scan(&position)
	if err != nil {
		if IsNoRows(err) {
			return 0, fmt.Errorf("failed to allocate queue position: session %s not found", sessionID)
		}
		return 0, fmt.Errorf("failed to allocate queue position: %w", err)
	}

	return position, nil
}

// PeekHead returns the waiting entry with the smallest position.
func (r *QueueRepository) PeekHead(ctx context.Context, sessionID string) (*enrollment.QueueEntry, error) {
	query := `
		SELECT id, trainee_id, session_id, position, status, joined_at, updated_at
		FROM queue_entries
		WHERE session_id = $1 AND status = 'waiting'
		ORDER BY position ASC
		LIMIT 1
	`

	row := r.conn.QueryRow(ctx, query, sessionID)
	return r.scanEntry(row)
}

// ListWaiting returns all waiting entries for a session in position order.
func (r *QueueRepository) ListWaiting(ctx context.Context, sessionID string) ([]*enrollment.QueueEntry, error) {
	query := `
		SELECT id, trainee_id, session_id, position, status, joined_at, updated_at
		FROM queue_entries
		WHERE session_id = $1 AND status = 'waiting'
		ORDER BY position ASC
	`

	return r.queryEntries(ctx, query, sessionID)
}

// ListWaitingByTrainee returns all waiting entries for a trainee.
func (r *QueueRepository) ListWaitingByTrainee(ctx context.Context, traineeID string) ([]*enrollment.QueueEntry, error) {
	query := `
		SELECT id, trainee_id, session_id, position, status, joined_at, updated_at
		FROM queue_entries
		WHERE trainee_id = $1 AND status = 'waiting'
		ORDER BY joined_at ASC
	`

	return r.queryEntries(ctx, query, traineeID)
}

// CountWaiting returns the number of waiting entries for a session.
func (r *QueueRepository) CountWaiting(ctx context.Context, sessionID string) (int, error) {
	query := `
		SELECT COUNT(*) FROM queue_entries
		WHERE session_id = $1 AND status = 'waiting'
	`

	var count int
	if err := r.conn.QueryRow(ctx, query, sessionID).Scan(&count); err != nil {
		return 0, fmt.Errorf("failed to count queue entries: %w", err)
	}

	return count, nil
}

func (r *QueueRepository) queryEntries(ctx context.Context, query string, args ...interface{}) ([]*enrollment.QueueEntry, error) {
	rows, err := r.conn.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query queue entries: %w", err)
	}
	defer rows.Close()

	var entries []*enrollment.QueueEntry
	for rows.Next() {
		entry, err := r.scanEntry(rows)
		if err != nil {
			return nil, err
		}
		entries = append(entries, entry)
	}

	return entries, rows.Err()
}

func (r *QueueRepository) scanEntry(row pgx.Row) (*enrollment.QueueEntry, error) {
	var entry enrollment.QueueEntry
	var status string

	err := row.Scan(
		&entry.ID,
		&entry.TraineeID,
		&entry.SessionID,
		&entry.Position,
		&status,
		&entry.JoinedAt,
		&entry.UpdatedAt,
	)
	if err != nil {
		if IsNoRows(err) {
			return nil, enrollment.ErrQueueEntryNotFound
		}
		return nil, fmt.Errorf("failed to scan queue entry: %w", err)
	}

	entry.Status = enrollment.QueueStatus(status)

	return &entry, nil
}
