// Package postgres implements the PostgreSQL persistence layer for Training Hub.
package postgres

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/roastery-academy/training-hub/internal/domain/exam"

	"github.com/jackc/pgx/v5"
)

// ══════════════════════════════════════════════════════════════════════════════
// ATTEMPT REPOSITORY IMPLEMENTATION
// ══════════════════════════════════════════════════════════════════════════════

// AttemptRepository implements exam.AttemptRepository for PostgreSQL.
type AttemptRepository struct {
	conn *Connection
}

// NewAttemptRepository creates a new AttemptRepository.
func NewAttemptRepository(conn *Connection) *AttemptRepository {
	return &AttemptRepository{conn: conn}
}

// Create persists a new attempt. The UNIQUE(trainee_id, exam_id)
// constraint enforces the single-attempt policy at the storage level.
func (r *AttemptRepository) Create(ctx context.Context, a *exam.Attempt) error {
	answersJSON, err := json.Marshal(a.Answers)
	if err != nil {
		return fmt.Errorf("failed to marshal answers: %w", err)
	}

	query := `
		INSERT INTO exam_attempts (
			id, trainee_id, exam_id, session_id, status, started_at,
			finished_at, answers, score, total_points, percentage_score,
			passed, created_at, updated_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14)
	`

	_, err = r.conn.Exec(ctx, query,
		a.ID,
		a.TraineeID,
		a.ExamID,
		a.SessionID,
		string(a.Status),
		a.StartedAt,
		a.SubmittedAt,
		answersJSON,
		a.Score,
		a.TotalPoints,
		a.PercentageScore,
		a.Passed,
		a.CreatedAt,
		a.UpdatedAt,
	)
	if err != nil {
		if IsUniqueViolation(err) {
			return exam.ErrAttemptExists
		}
		return fmt.Errorf("failed to create attempt: %w", err)
	}

	return nil
}

// Get returns the attempt for the (trainee, exam) pair.
func (r *AttemptRepository) Get(ctx context.Context, traineeID, examID string) (*exam.Attempt, error) {
	query := `
		SELECT id, trainee_id, exam_id, session_id, status, started_at,
			   finished_at, answers, score, total_points, percentage_score,
			   passed, created_at, updated_at
		FROM exam_attempts
		WHERE trainee_id = $1 AND exam_id = $2
	`

	row := r.conn.QueryRow(ctx, query, traineeID, examID)
	return r.scanAttempt(row)
}

// GetByID returns an attempt by its identifier.
func (r *AttemptRepository) GetByID(ctx context.Context, id string) (*exam.Attempt, error) {
	query := `
		SELECT id, trainee_id, exam_id, session_id, status, started_at,
			   finished_at, answers, score, total_points, percentage_score,
			   passed, created_at, updated_at
		FROM exam_attempts
		WHERE id = $1
	`

	row := r.conn.QueryRow(ctx, query, id)
	return r.scanAttempt(row)
}

// Update persists the attempt's mutable fields while it is still open.
// The status guard means a terminal row is never overwritten by a stale
// draft save.
func (r *AttemptRepository) Update(ctx context.Context, a *exam.Attempt) error {
	answersJSON, err := json.Marshal(a.Answers)
	if err != nil {
		return fmt.Errorf("failed to marshal answers: %w", err)
	}

	query := `
		UPDATE exam_attempts SET
			answers = $1,
			updated_at = $2
		WHERE id = $3 AND status = 'in_progress'
	`

	result, err := r.conn.Exec(ctx, query, answersJSON, time.Now().UTC(), a.ID)
	if err != nil {
		return fmt.Errorf("failed to update attempt: %w", err)
	}

	if result.RowsAffected() == 0 {
		return exam.ErrAlreadyFinalized
	}

	return nil
}

// Finalize persists a terminal transition. The WHERE status =
// 'in_progress' condition is the double-apply guard: of a concurrent
// submit and lazy-expiry reconciliation, exactly one wins.
func (r *AttemptRepository) Finalize(ctx context.Context, a *exam.Attempt) error {
	answersJSON, err := json.Marshal(a.Answers)
	if err != nil {
		return fmt.Errorf("failed to marshal answers: %w", err)
	}

	query := `
		UPDATE exam_attempts SET
			status = $1,
			finished_at = $2,
			answers = $3,
			score = $4,
			total_points = $5,
			percentage_score = $6,
			passed = $7,
			updated_at = $8
		WHERE id = $9 AND status = 'in_progress'
	`

	result, err := r.conn.Exec(ctx, query,
		string(a.Status),
		a.SubmittedAt,
		answersJSON,
		a.Score,
		a.TotalPoints,
		a.PercentageScore,
		a.Passed,
		time.Now().UTC(),
		a.ID,
	)
	if err != nil {
		return fmt.Errorf("failed to finalize attempt: %w", err)
	}

	if result.RowsAffected() == 0 {
		return exam.ErrAlreadyFinalized
	}

	return nil
}

// ListByTrainee returns all attempts for a trainee, newest first.
func (r *AttemptRepository) ListByTrainee(ctx context.Context, traineeID string) ([]*exam.Attempt, error) {
	query := `
		SELECT id, trainee_id, exam_id, session_id, status, started_at,
			   finished_at, answers, score, total_points, percentage_score,
			   passed, created_at, updated_at
		FROM exam_attempts
		WHERE trainee_id = $1
		ORDER BY started_at DESC
	`

	rows, err := r.conn.Query(ctx, query, traineeID)
	if err != nil {
		return nil, fmt.Errorf("failed to query attempts: %w", err)
	}
	defer rows.Close()

	var attempts []*exam.Attempt
	for rows.Next() {
		a, err := r.scanAttempt(rows)
		if err != nil {
			return nil, err
		}
		attempts = append(attempts, a)
	}

	return attempts, rows.Err()
}

// Delete removes an attempt. Used only by the administrative reset.
func (r *AttemptRepository) Delete(ctx context.Context, id string) error {
	query := `DELETE FROM exam_attempts WHERE id = $1`

	result, err := r.conn.Exec(ctx, query, id)
	if err != nil {
		return fmt.Errorf("failed to delete attempt: %w", err)
	}

	if result.RowsAffected() == 0 {
		return exam.ErrAttemptNotFound
	}

	return nil
}

func (r *AttemptRepository) scanAttempt(row pgx.Row) (*exam.Attempt, error) {
	var a exam.Attempt
	var status string
	var answersJSON []byte

	err := row.Scan(
		&a.ID,
		&a.TraineeID,
		&a.ExamID,
		&a.SessionID,
		&status,
		&a.StartedAt,
		&a.SubmittedAt,
		&answersJSON,
		&a.Score,
		&a.TotalPoints,
		&a.PercentageScore,
		&a.Passed,
		&a.CreatedAt,
		&a.UpdatedAt,
	)
	if err != nil {
		if IsNoRows(err) {
			return nil, exam.ErrAttemptNotFound
		}
		return nil, fmt.Errorf("failed to scan attempt: %w", err)
	}

	a.Status = exam.AttemptStatus(status)

	if len(answersJSON) > 0 {
		if err := json.Unmarshal(answersJSON, &a.Answers); err != nil {
			return nil, fmt.Errorf("failed to unmarshal answers: %w", err)
		}
	}
	if a.Answers == nil {
		a.Answers = make(map[string]string)
	}

	return &a, nil
}
