// Package exam contains the examination aggregate: the exam reference
// data, the per-(trainee, exam) attempt state machine, and automatic
// scoring. The attempt's clock is the server's clock - a client-supplied
// timestamp is never trusted, and expiry is derived lazily at read time
// rather than by a background timer.
package exam

import (
	"errors"
	"fmt"
	"time"
)

// ══════════════════════════════════════════════════════════════════════════════
// REFERENCE DATA: EXAM & QUESTIONS
// ══════════════════════════════════════════════════════════════════════════════

// QuestionType defines how a question is answered and scored.
type QuestionType string

const (
	// QuestionTypeMultipleChoice - answered by selecting one option;
	// scored by exact match against the correct answer.
	QuestionTypeMultipleChoice QuestionType = "multiple_choice"
	// QuestionTypeTrueFalse - a two-option multiple choice.
	QuestionTypeTrueFalse QuestionType = "true_false"
	// QuestionTypeFreeText - answered in free form; excluded from
	// automatic scoring, graded by manual review outside this core.
	QuestionTypeFreeText QuestionType = "free_text"
)

// IsAutoScorable returns true if the question contributes to automatic
// scoring.
func (t QuestionType) IsAutoScorable() bool {
	return t == QuestionTypeMultipleChoice || t == QuestionTypeTrueFalse
}

// Question is a single exam question, supplied read-only by the question
// bank.
type Question struct {
	// ID - question identifier within the bank.
	ID string

	// Text - the question prompt.
	Text string

	// Type - how the question is answered.
	Type QuestionType

	// Options - answer options for multiple choice questions.
	Options []string

	// CorrectAnswer - the expected answer for auto-scorable questions.
	CorrectAnswer string

	// Points - points awarded for a correct answer.
	Points int
}

// Exam is the configuration of one examination: its time box, passing
// threshold, and ordered questions. Owned by the content store; the
// attempt engine treats it as read-only reference data.
type Exam struct {
	// ID - unique identifier.
	ID string

	// SessionID - the training session this exam certifies.
	SessionID string

	// Title - human-readable exam title.
	Title string

	// Description - optional free-form description.
	Description string

	// DurationMinutes - the authoritative time box for one attempt.
	DurationMinutes int

	// PassingScore - minimal percentage score required to pass.
	PassingScore float64

	// Questions - ordered question list from the question bank.
	Questions []Question
}

// Duration returns the exam's time box as a duration.
func (e *Exam) Duration() time.Duration {
	return time.Duration(e.DurationMinutes) * time.Minute
}

// ══════════════════════════════════════════════════════════════════════════════
// ENUMS
// ══════════════════════════════════════════════════════════════════════════════

// AttemptStatus defines the state machine of an attempt:
// not_started -> in_progress -> {submitted | expired}. Terminal states do
// not transition further; no attempt regresses back to in_progress.
type AttemptStatus string

const (
	// AttemptStatusNotStarted - no attempt row exists yet; the zero state.
	AttemptStatusNotStarted AttemptStatus = "not_started"
	// AttemptStatusInProgress - the attempt is open and the clock is running.
	AttemptStatusInProgress AttemptStatus = "in_progress"
	// AttemptStatusSubmitted - the trainee submitted within the time box.
	AttemptStatusSubmitted AttemptStatus = "submitted"
	// AttemptStatusExpired - the time box elapsed before submission, or a
	// late submission arrived and was graded as expired.
	AttemptStatusExpired AttemptStatus = "expired"
)

// IsValid checks that the status is one of the known values.
func (s AttemptStatus) IsValid() bool {
	switch s {
	case AttemptStatusNotStarted, AttemptStatusInProgress, AttemptStatusSubmitted, AttemptStatusExpired:
		return true
	default:
		return false
	}
}

// IsTerminal returns true if the attempt can no longer transition.
func (s AttemptStatus) IsTerminal() bool {
	return s == AttemptStatusSubmitted || s == AttemptStatusExpired
}

// ══════════════════════════════════════════════════════════════════════════════
// MAIN ENTITY: ATTEMPT
// ══════════════════════════════════════════════════════════════════════════════

// Attempt is a single trainee's timed pass through one examination. The
// (TraineeID, ExamID) pair is unique: one attempt per trainee per exam
// unless explicitly reset by an administrator.
type Attempt struct {
	// ID - unique identifier (UUID in string form).
	ID string

	// TraineeID - the examinee.
	TraineeID string

	// ExamID - the examination being attempted.
	ExamID string

	// SessionID - the training session the exam belongs to.
	SessionID string

	// Status - current state machine position.
	Status AttemptStatus

	// StartedAt - server timestamp of the start call; authoritative for
	// the deadline. Never client-supplied.
	StartedAt time.Time

	// SubmittedAt - server timestamp of finalization, nil while open.
	SubmittedAt *time.Time

	// Answers - last recorded answers keyed by question ID. Lazy expiry
	// grades whatever is here, so answers already typed are not lost
	// when a client disconnects.
	Answers map[string]string

	// Score - raw points earned.
	Score int

	// TotalPoints - total auto-scorable points in the exam.
	TotalPoints int

	// PercentageScore - 100 * Score / TotalPoints.
	PercentageScore float64

	// Passed - PercentageScore >= the exam's passing score. Only a
	// submitted attempt can pass; an expired one never does.
	Passed bool

	// CreatedAt - record creation time.
	CreatedAt time.Time

	// UpdatedAt - last modification time.
	UpdatedAt time.Time
}

// ══════════════════════════════════════════════════════════════════════════════
// DOMAIN ERRORS
// ══════════════════════════════════════════════════════════════════════════════

var (
	// ErrInvalidTraineeID - the trainee identifier is missing.
	ErrInvalidTraineeID = errors.New("invalid trainee id")

	// ErrInvalidExamID - the exam identifier is missing.
	ErrInvalidExamID = errors.New("invalid exam id")

	// ErrAttemptNotFound - no attempt exists for the pair.
	ErrAttemptNotFound = errors.New("attempt not found")

	// ErrAttemptExists - an attempt already exists for the pair.
	// Re-starting a finished exam is an error, not a reset.
	ErrAttemptExists = errors.New("attempt already exists")

	// ErrNotInProgress - the attempt is not open.
	ErrNotInProgress = errors.New("attempt is not in progress")

	// ErrAlreadyFinalized - the attempt is terminal; it is never
	// re-scored or re-transitioned.
	ErrAlreadyFinalized = errors.New("attempt already finalized")

	// ErrNotResettable - only terminal attempts may be reset.
	ErrNotResettable = errors.New("only a finished attempt can be reset")

	// ErrExamNotFound - the exam does not exist in the content store.
	ErrExamNotFound = errors.New("exam not found")
)

// ══════════════════════════════════════════════════════════════════════════════
// FACTORY & STATE TRANSITIONS
// ══════════════════════════════════════════════════════════════════════════════

// StartAttempt creates an open attempt with the server clock as the
// authoritative start time.
func StartAttempt(id, traineeID, examID, sessionID string, now time.Time) (*Attempt, error) {
	if id == "" {
		return nil, errors.New("attempt id is required")
	}
	if traineeID == "" {
		return nil, ErrInvalidTraineeID
	}
	if examID == "" {
		return nil, ErrInvalidExamID
	}

	now = now.UTC()

	return &Attempt{
		ID:        id,
		TraineeID: traineeID,
		ExamID:    examID,
		SessionID: sessionID,
		Status:    AttemptStatusInProgress,
		StartedAt: now,
		Answers:   make(map[string]string),
		CreatedAt: now,
		UpdatedAt: now,
	}, nil
}

// Deadline returns the server-side moment the attempt expires.
func (a *Attempt) Deadline(duration time.Duration) time.Time {
	return a.StartedAt.Add(duration)
}

// IsOverdue reports whether the time box has elapsed at the given moment.
func (a *Attempt) IsOverdue(duration time.Duration, now time.Time) bool {
	return now.After(a.Deadline(duration))
}

// RecordAnswers merges the given answers into the attempt's draft. Only
// an open attempt accepts answers.
func (a *Attempt) RecordAnswers(answers map[string]string) error {
	if a.Status.IsTerminal() {
		return ErrAlreadyFinalized
	}
	if a.Status != AttemptStatusInProgress {
		return ErrNotInProgress
	}

	if a.Answers == nil {
		a.Answers = make(map[string]string, len(answers))
	}
	for questionID, answer := range answers {
		a.Answers[questionID] = answer
	}
	a.UpdatedAt = time.Now().UTC()
	return nil
}

// FinalizeSubmitted records an in-window submission: the attempt becomes
// submitted with the given score. The finalization guard makes a second
// call fail rather than re-score.
func (a *Attempt) FinalizeSubmitted(result ScoreResult, passingScore float64, now time.Time) error {
	if a.Status.IsTerminal() {
		return ErrAlreadyFinalized
	}
	if a.Status != AttemptStatusInProgress {
		return ErrNotInProgress
	}

	now = now.UTC()
	a.Status = AttemptStatusSubmitted
	a.SubmittedAt = &now
	a.Score = result.Score
	a.TotalPoints = result.TotalPoints
	a.PercentageScore = result.Percentage
	a.Passed = result.Percentage >= passingScore
	a.UpdatedAt = now
	return nil
}

// FinalizeExpired records an overdue attempt: graded from whatever
// answers were last recorded, but marked expired and never passing.
func (a *Attempt) FinalizeExpired(result ScoreResult, now time.Time) error {
	if a.Status.IsTerminal() {
		return ErrAlreadyFinalized
	}
	if a.Status != AttemptStatusInProgress {
		return ErrNotInProgress
	}

	now = now.UTC()
	a.Status = AttemptStatusExpired
	a.SubmittedAt = &now
	a.Score = result.Score
	a.TotalPoints = result.TotalPoints
	a.PercentageScore = result.Percentage
	a.Passed = false
	a.UpdatedAt = now
	return nil
}

// String returns a string representation of the attempt for logging.
func (a *Attempt) String() string {
	return fmt.Sprintf(
		"Attempt{ID: %s, Trainee: %s, Exam: %s, Status: %s, Score: %d/%d}",
		a.ID, a.TraineeID, a.ExamID, a.Status, a.Score, a.TotalPoints,
	)
}

// Clone creates a deep copy of the attempt.
func (a *Attempt) Clone() *Attempt {
	if a == nil {
		return nil
	}

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
