package shared

import (
	"context"
	"time"
)

// ══════════════════════════════════════════════════════════════════════════════
// EXTERNAL COLLABORATOR CONTRACTS
// The core consumes these as logical call contracts; the HTTP adapters
// live in infrastructure/external.
// ══════════════════════════════════════════════════════════════════════════════

// Role defines a user's role in the training center.
type Role string

const (
	RoleTrainee Role = "trainee"
	RoleTrainer Role = "trainer"
	RoleAdmin   Role = "admin"
)

// CanManageOthers returns true if the role may act on other trainees'
// enrollments and attempts.
func (r Role) CanManageOthers() bool {
	return r == RoleTrainer || r == RoleAdmin
}

// User is the slice of the directory record the core needs: a stable
// identifier, a role for authorization, and an account status.
type User struct {
	ID     string
	Role   Role
	Status string
}

// IsActive returns true if the account may act in the system.
func (u User) IsActive() bool {
	return u.Status == "active"
}

// Directory is the read-only user directory service.
type Directory interface {
	// GetUser returns identity, role and status for a user ID.
	GetUser(ctx context.Context, id string) (User, error)
}

// NotificationType identifies what a notification is about.
type NotificationType string

const (
	NotifyEnrollmentConfirmed NotificationType = "enrollment_confirmed"
	NotifyQueuePromoted       NotificationType = "queue_promoted"
	NotifyExamPassed          NotificationType = "exam_passed"
	NotifyExamFailed          NotificationType = "exam_failed"
)

// Notifier is the fire-and-forget notification service. Dispatch happens
// after the core transaction commits; a failure is logged and never
// rolls back the state transition that triggered it.
type Notifier interface {
	Notify(ctx context.Context, userID string, eventType NotificationType, payload map[string]interface{}) error
}

// IDGenerator produces unique entity identifiers.
type IDGenerator interface {
	GenerateID() string
}

// Clock supplies the authoritative server time. Injected so tests can
// control exam deadlines.
type Clock interface {
	Now() time.Time
}

// ClockFunc adapts a function to the Clock interface.
type ClockFunc func() time.Time

// Now implements Clock.
func (f ClockFunc) Now() time.Time {
	return f()
}

// SystemClock returns a Clock backed by time.Now.
func SystemClock() Clock {
	return ClockFunc(time.Now)
}
