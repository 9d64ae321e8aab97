// Package shared contains common domain types, errors, and events
// that are used across all domain packages.
package shared

import (
	"time"
)

// EventType represents the type of domain event.
type EventType string

// Domain event types - these drive the event-driven architecture.
// Notification dispatch and certificate issuance both hang off these,
// so core transactions never block on external I/O.
const (
	// Enrollment events
	EventEnrollmentConfirmed EventType = "enrollment.confirmed"
	EventEnrollmentCancelled EventType = "enrollment.cancelled"

	// Queue events
	EventTraineeQueued    EventType = "queue.trainee_queued"
	EventQueuePromoted    EventType = "queue.promoted"
	EventQueueWithdrawn   EventType = "queue.withdrawn"

	// Session events
	EventSessionScheduled EventType = "session.scheduled"
	EventSessionCancelled EventType = "session.cancelled"

	// Exam events
	EventExamStarted EventType = "exam.started"
	EventExamPassed  EventType = "exam.passed"
	EventExamFailed  EventType = "exam.failed"
	EventExamExpired EventType = "exam.expired"

	// Certificate events
	EventCertificateIssued  EventType = "certificate.issued"
	EventCertificateRevoked EventType = "certificate.revoked"

	// Notification events
	EventNotificationSent   EventType = "notification.sent"
	EventNotificationFailed EventType = "notification.failed"
)

// Event is the base interface for all domain events.
type Event interface {
	// EventType returns the type of the event.
	EventType() EventType

	// OccurredAt returns when the event occurred.
	OccurredAt() time.Time

	// AggregateID returns the ID of the aggregate that produced this event.
	AggregateID() string

	// Payload returns the event data as a map for serialization.
	Payload() map[string]interface{}
}

// EventHandler processes a single domain event.
type EventHandler func(event Event) error

// EventPublisher publishes domain events to interested subscribers.
// Publishing is fire-and-forget from the caller's perspective: a failing
// subscriber never rolls back the state transition that emitted the event.
type EventPublisher interface {
	Publish(event Event) error
}

// EventBus is the full bus contract: publishing plus subscription
// management. Command handlers depend only on EventPublisher; the bus
// itself is wired at startup.
type EventBus interface {
	EventPublisher

	// Subscribe registers a handler for a specific event type.
	Subscribe(eventType EventType, handler EventHandler) error

	// SubscribeAll registers a handler for all events.
	SubscribeAll(handler EventHandler) error

	// Close shuts the bus down after draining in-flight handlers.
	Close() error
}

// BaseEvent provides common event functionality.
type BaseEvent struct {
	Type          EventType `json:"type"`
	Timestamp     time.Time `json:"timestamp"`
	AggregateId   string    `json:"aggregate_id"`
	Version       int       `json:"version"`
	CorrelationID string    `json:"correlation_id,omitempty"`
}

// EventType implements Event interface.
func (e BaseEvent) EventType() EventType {
	return e.Type
}

// OccurredAt implements Event interface.
func (e BaseEvent) OccurredAt() time.Time {
	return e.Timestamp
}

// AggregateID implements Event interface.
func (e BaseEvent) AggregateID() string {
	return e.AggregateId
}

// NewBaseEvent creates a new base event.
func NewBaseEvent(eventType EventType, aggregateID string) BaseEvent {
	return BaseEvent{
		Type:        eventType,
		Timestamp:   time.Now(),
		AggregateId: aggregateID,
		Version:     1,
	}
}

// WithCorrelationID sets the correlation ID for tracing.
func (e BaseEvent) WithCorrelationID(id string) BaseEvent {
	e.CorrelationID = id
	return e
}

// ═══════════════════════════════════════════════════════════════════════════
// Enrollment Events
// ═══════════════════════════════════════════════════════════════════════════

// EnrollmentConfirmedEvent is emitted when a trainee gains an active
// enrollment, either by direct admission or by queue promotion.
type EnrollmentConfirmedEvent struct {
	BaseEvent
	TraineeID string `json:"trainee_id"`
	SessionID string `json:"session_id"`
	Promoted  bool   `json:"promoted"`
}

// Payload implements Event interface.
func (e EnrollmentConfirmedEvent) Payload() map[string]interface{} {
	return map[string]interface{}{
		"trainee_id": e.TraineeID,
		"session_id": e.SessionID,
		"promoted":   e.Promoted,
	}
}

// NewEnrollmentConfirmedEvent creates a new EnrollmentConfirmedEvent.
func NewEnrollmentConfirmedEvent(enrollmentID, traineeID, sessionID string, promoted bool) EnrollmentConfirmedEvent {
	return EnrollmentConfirmedEvent{
		BaseEvent: NewBaseEvent(EventEnrollmentConfirmed, enrollmentID),
		TraineeID: traineeID,
		SessionID: sessionID,
		Promoted:  promoted,
	}
}

// EnrollmentCancelledEvent is emitted when an active enrollment is cancelled.
type EnrollmentCancelledEvent struct {
	BaseEvent
	TraineeID string `json:"trainee_id"`
	SessionID string `json:"session_id"`
	SlotFreed bool   `json:"slot_freed"`
}

// Payload implements Event interface.
func (e EnrollmentCancelledEvent) Payload() map[string]interface{} {
	return map[string]interface{}{
		"trainee_id": e.TraineeID,
		"session_id": e.SessionID,
		"slot_freed": e.SlotFreed,
	}
}

// NewEnrollmentCancelledEvent creates a new EnrollmentCancelledEvent.
func NewEnrollmentCancelledEvent(enrollmentID, traineeID, sessionID string, slotFreed bool) EnrollmentCancelledEvent {
	return EnrollmentCancelledEvent{
		BaseEvent: NewBaseEvent(EventEnrollmentCancelled, enrollmentID),
		TraineeID: traineeID,
		SessionID: sessionID,
		SlotFreed: slotFreed,
	}
}

// ═══════════════════════════════════════════════════════════════════════════
// Queue Events
// ═══════════════════════════════════════════════════════════════════════════

// TraineeQueuedEvent is emitted when a full session routes a trainee to
// the waitlist.
type TraineeQueuedEvent struct {
	BaseEvent
	TraineeID string `json:"trainee_id"`
	SessionID string `json:"session_id"`
	Position  int    `json:"position"`
}

// Payload implements Event interface.
func (e TraineeQueuedEvent) Payload() map[string]interface{} {
	return map[string]interface{}{
		"trainee_id": e.TraineeID,
		"session_id": e.SessionID,
		"position":   e.Position,
	}
}

// NewTraineeQueuedEvent creates a new TraineeQueuedEvent.
func NewTraineeQueuedEvent(entryID, traineeID, sessionID string, position int) TraineeQueuedEvent {
	return TraineeQueuedEvent{
		BaseEvent: NewBaseEvent(EventTraineeQueued, entryID),
		TraineeID: traineeID,
		SessionID: sessionID,
		Position:  position,
	}
}

// QueuePromotedEvent is emitted when a waiting entry wins a freed slot.
type QueuePromotedEvent struct {
	BaseEvent
	TraineeID string `json:"trainee_id"`
	SessionID string `json:"session_id"`
	Position  int    `json:"position"`
}

// Payload implements Event interface.
func (e QueuePromotedEvent) Payload() map[string]interface{} {
	return map[string]interface{}{
		"trainee_id": e.TraineeID,
		"session_id": e.SessionID,
		"position":   e.Position,
	}
}

// NewQueuePromotedEvent creates a new QueuePromotedEvent.
func NewQueuePromotedEvent(entryID, traineeID, sessionID string, position int) QueuePromotedEvent {
	return QueuePromotedEvent{
		BaseEvent: NewBaseEvent(EventQueuePromoted, entryID),
		TraineeID: traineeID,
		SessionID: sessionID,
		Position:  position,
	}
}

// ═══════════════════════════════════════════════════════════════════════════
// Session Events
// ═══════════════════════════════════════════════════════════════════════════

// SessionLifecycleEvent is emitted on administrative session transitions.
type SessionLifecycleEvent struct {
	BaseEvent
}

// Payload implements Event interface.
func (e SessionLifecycleEvent) Payload() map[string]interface{} {
	return map[string]interface{}{"session_id": e.AggregateId}
}

// NewBaseSessionEvent creates a lifecycle event for a session.
func NewBaseSessionEvent(eventType EventType, sessionID string) SessionLifecycleEvent {
	return SessionLifecycleEvent{BaseEvent: NewBaseEvent(eventType, sessionID)}
}

// ═══════════════════════════════════════════════════════════════════════════
// Exam Events
// ═══════════════════════════════════════════════════════════════════════════

// ExamFinalizedEvent is emitted when an attempt reaches a terminal state
// (submitted or expired). The certification gate subscribes to this.
type ExamFinalizedEvent struct {
	BaseEvent
	TraineeID       string  `json:"trainee_id"`
	ExamID          string  `json:"exam_id"`
	SessionID       string  `json:"session_id"`
	Passed          bool    `json:"passed"`
	PercentageScore float64 `json:"percentage_score"`
	Expired         bool    `json:"expired"`
}

// Payload implements Event interface.
func (e ExamFinalizedEvent) Payload() map[string]interface{} {
	return map[string]interface{}{
		"trainee_id":       e.TraineeID,
		"exam_id":          e.ExamID,
		"session_id":       e.SessionID,
		"passed":           e.Passed,
		"percentage_score": e.PercentageScore,
		"expired":          e.Expired,
	}
}

// NewExamFinalizedEvent creates the terminal event for an attempt. The
// event type reflects the outcome: passed, failed, or expired.
func NewExamFinalizedEvent(attemptID, traineeID, examID, sessionID string, passed, expired bool, percentage float64) ExamFinalizedEvent {
	eventType := EventExamFailed
	switch {
	case expired:
		eventType = EventExamExpired
	case passed:
		eventType = EventExamPassed
	}

	return ExamFinalizedEvent{
		BaseEvent:       NewBaseEvent(eventType, attemptID),
		TraineeID:       traineeID,
		ExamID:          examID,
		SessionID:       sessionID,
		Passed:          passed,
		PercentageScore: percentage,
		Expired:         expired,
	}
}

// ═══════════════════════════════════════════════════════════════════════════
// Certificate Events
// ═══════════════════════════════════════════════════════════════════════════

// CertificateIssuedEvent is emitted exactly once per passing attempt.
// The renderer handoff subscribes to this.
type CertificateIssuedEvent struct {
	BaseEvent
	TraineeID         string `json:"trainee_id"`
	SessionID         string `json:"session_id"`
	AttemptID         string `json:"attempt_id"`
	CertificateNumber string `json:"certificate_number"`
}

// Payload implements Event interface.
func (e CertificateIssuedEvent) Payload() map[string]interface{} {
	return map[string]interface{}{
		"trainee_id":         e.TraineeID,
		"session_id":         e.SessionID,
		"attempt_id":         e.AttemptID,
		"certificate_number": e.CertificateNumber,
	}
}

// NewCertificateIssuedEvent creates a new CertificateIssuedEvent.
func NewCertificateIssuedEvent(certificateID, traineeID, sessionID, attemptID, number string) CertificateIssuedEvent {
	return CertificateIssuedEvent{
		BaseEvent:         NewBaseEvent(EventCertificateIssued, certificateID),
		TraineeID:         traineeID,
		SessionID:         sessionID,
		AttemptID:         attemptID,
		CertificateNumber: number,
	}
}
