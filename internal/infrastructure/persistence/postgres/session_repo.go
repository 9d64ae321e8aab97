// Package postgres implements the PostgreSQL persistence layer for Training Hub.
package postgres

import (
	"context"
	"fmt"
	"time"

	"github.com/roastery-academy/training-hub/internal/domain/session"

	"github.com/jackc/pgx/v5"
)

// ══════════════════════════════════════════════════════════════════════════════
// SESSION REPOSITORY IMPLEMENTATION
// ══════════════════════════════════════════════════════════════════════════════

// SessionRepository implements session.Repository for PostgreSQL.
type SessionRepository struct {
	conn *Connection
}

// NewSessionRepository creates a new SessionRepository.
func NewSessionRepository(conn *Connection) *SessionRepository {
	return &SessionRepository{conn: conn}
}

// ─────────────────────────────────────────────────────────────────────────────
// CRUD Operations
// ─────────────────────────────────────────────────────────────────────────────

// Create persists a new session.
func (r *SessionRepository) Create(ctx context.Context, s *session.Session) error {
	query := `
		INSERT INTO training_sessions (
			id, program_id, title, description, location, trainer_id,
			starts_at, duration_minutes, max_capacity, enrolled_count,
			status, created_at, updated_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13)
	`

	_, err := r.conn.Exec(ctx, query,
		s.ID,
		s.ProgramID,
		s.Title,
		s.Description,
		s.Location,
		s.TrainerID,
		s.ScheduledAt,
		s.DurationMinutes,
		int(s.MaxCapacity),
		s.EnrolledCount,
		string(s.Status),
		s.CreatedAt,
		s.UpdatedAt,
	)
	if err != nil {
		if IsUniqueViolation(err) {
			return session.ErrSessionAlreadyExists
		}
		return fmt.Errorf("failed to create session: %w", err)
	}

	return nil
}

// GetByID returns a session by ID.
func (r *SessionRepository) GetByID(ctx context.Context, id string) (*session.Session, error) {
	query := `
		SELECT id, program_id, title, description, location, trainer_id,
			   starts_at, duration_minutes, max_capacity, enrolled_count,
			   status, created_at, updated_at
		FROM training_sessions
		WHERE id = $1
	`

	row := r.conn.QueryRow(ctx, query, id)
	return r.scanSession(row)
}

// Update persists changes to a session's mutable fields. The enrolled
// count is deliberately excluded: it is owned by the Ledger and only
// changes through conditional updates.
func (r *SessionRepository) Update(ctx context.Context, s *session.Session) error {
	query := `
		UPDATE training_sessions SET
			program_id = $1,
			title = $2,
			description = $3,
			location = $4,
			trainer_id = $5,
			starts_at = $6,
			duration_minutes = $7,
			status = $8,
			updated_at = $9
		WHERE id = $10
	`

	result, err := r.conn.Exec(ctx, query,
		s.ProgramID,
		s.Title,
		s.Description,
		s.Location,
		s.TrainerID,
		s.ScheduledAt,
		s.DurationMinutes,
		string(s.Status),
		time.Now().UTC(),
		s.ID,
	)
	if err != nil {
		return fmt.Errorf("failed to update session: %w", err)
	}

	if result.RowsAffected() == 0 {
		return session.ErrSessionNotFound
	}

	return nil
}

// ListByStatus returns sessions with the given status, ordered by start time.
func (r *SessionRepository) ListByStatus(ctx context.Context, status session.Status) ([]*session.Session, error) {
	query := `
		SELECT id, program_id, title, description, location, trainer_id,
			   starts_at, duration_minutes, max_capacity, enrolled_count,
			   status, created_at, updated_at
		FROM training_sessions
		WHERE status = $1
		ORDER BY starts_at ASC
	`

	rows, err := r.conn.Query(ctx, query, string(status))
	if err != nil {
		return nil, fmt.Errorf("failed to list sessions: %w", err)
	}
	defer rows.Close()

	var sessions []*session.Session
	for rows.Next() {
		s, err := r.scanSessionFromRows(rows)
		if err != nil {
			return nil, err
		}
		sessions = append(sessions, s)
	}

	return sessions, rows.Err()
}

// FindTrainerConflict reports whether the trainer already has a
// non-cancelled session starting at the same time.
func (r *SessionRepository) FindTrainerConflict(ctx context.Context, trainerID string, scheduledAt time.Time) (bool, error) {
	query := `
		SELECT EXISTS (
			SELECT 1 FROM training_sessions
			WHERE trainer_id = $1
			  AND starts_at = $2
			  AND status IN ('scheduled', 'in_progress')
		)
	`

	var exists bool
	if err := r.conn.QueryRow(ctx, query, trainerID, scheduledAt).Scan(&exists); err != nil {
		return false, fmt.Errorf("failed to check trainer conflict: %w", err)
	}

	return exists, nil
}

// ─────────────────────────────────────────────────────────────────────────────
// Scan Helpers
// ─────────────────────────────────────────────────────────────────────────────

func (r *SessionRepository) scanSession(row pgx.Row) (*session.Session, error) {
	var s session.Session
	var maxCapacity int
	var status string

	err := row.Scan(
		&s.ID,
		&s.ProgramID,
		&s.Title,
		&s.Description,
		&s.Location,
		&s.TrainerID,
		&s.ScheduledAt,
		&s.DurationMinutes,
		&maxCapacity,
		&s.EnrolledCount,
		&status,
		&s.CreatedAt,
		&s.UpdatedAt,
	)
	if err != nil {
		if IsNoRows(err) {
			return nil, session.ErrSessionNotFound
		}
		return nil, fmt.Errorf("failed to scan session: %w", err)
	}

	s.MaxCapacity = session.Capacity(maxCapacity)
	s.Status = session.Status(status)

	return &s, nil
}

func (r *SessionRepository) scanSessionFromRows(rows pgx.Rows) (*session.Session, error) {
	return r.scanSession(rows)
}

// ══════════════════════════════════════════════════════════════════════════════
// CAPACITY LEDGER IMPLEMENTATION
// Both operations are single conditional UPDATE statements. Postgres row
// locking serializes concurrent executions on the same session row, so
// the read of enrolled_count and its increment happen indivisibly.
// ══════════════════════════════════════════════════════════════════════════════

// CapacityLedger implements session.Ledger for PostgreSQL.
type CapacityLedger struct {
	conn *Connection
}

// NewCapacityLedger creates a new CapacityLedger.
func NewCapacityLedger(conn *Connection) *CapacityLedger {
	return &CapacityLedger{conn: conn}
}

// TryReserve atomically takes one slot if the session is below capacity.
// Zero rows affected means the session was full (or absent); the caller
// distinguishes the two by having loaded the session beforehand.
func (l *CapacityLedger) TryReserve(ctx context.Context, sessionID string) (bool, error) {
	query := `
		UPDATE training_sessions
		SET enrolled_count = enrolled_count + 1
		WHERE id = $1 AND enrolled_count < max_capacity
	`

	result, err := l.conn.Exec(ctx, query, sessionID)
	if err != nil {
		return false, fmt.Errorf("failed to reserve slot: %w", err)
	}

	return result.RowsAffected() > 0, nil
}

// Release gives one slot back and reports whether the session was at
// capacity before the decrement. That signal drives exactly one queue
// promotion per freed slot.
func (l *CapacityLedger) Release(ctx context.Context, sessionID string) (bool, error) {
	query := `
		UPDATE training_sessions
		SET enrolled_count = enrolled_count - 1
		WHERE id = $1 AND enrolled_count > 0
		RETURNING enrolled_count + 1 = max_capacity
	`

	var wasFull bool
	err := l.conn.QueryRow(ctx, query, sessionID).Scan(&wasFull)
	if err != nil {
		if IsNoRows(err) {
			// Count already at zero or session missing; nothing to free.
			return false, nil
		}
		return false, fmt.Errorf("failed to release slot: %w", err)
	}

	return wasFull, nil
}

// Reconcile resets every enrolled_count to the number of registered
// enrollments. The admission path reserves a slot before inserting the
// enrollment and compensates by releasing it when the insert fails, but
// a crash between the two statements strands the reservation. Run at
// startup; returns the number of corrected sessions.
func (l *CapacityLedger) Reconcile(ctx context.Context) (int64, error) {
	query := `
		UPDATE training_sessions ts
		SET enrolled_count = counted.actual
		FROM (
			SELECT s.id, COUNT(e.id) AS actual
			FROM training_sessions s
			LEFT JOIN session_enrollments e
				ON e.session_id = s.id AND e.status = 'registered'
			GROUP BY s.id
		) counted
		WHERE ts.id = counted.id AND ts.enrolled_count <> counted.actual
	`

	result, err := l.conn.Exec(ctx, query)
	if err != nil {
		return 0, fmt.Errorf("failed to reconcile enrolled counts: %w", err)
	}

	return result.RowsAffected(), nil
}
