// Package shared contains common domain types, errors, and events
// that are used across all domain packages. This package has zero external dependencies.
package shared

import (
	"errors"
	"fmt"
)

// Base domain errors that can be used for error checking with errors.Is().
var (
	// Entity errors
	ErrNotFound      = errors.New("entity not found")
	ErrAlreadyExists = errors.New("entity already exists")
	ErrInvalidEntity = errors.New("invalid entity")

	// Validation errors
	ErrValidation      = errors.New("validation error")
	ErrInvalidID       = errors.New("invalid ID")
	ErrInvalidInput    = errors.New("invalid input")
	ErrEmptyValue      = errors.New("value cannot be empty")
	ErrValueOutOfRange = errors.New("value out of range")

	// State errors
	ErrInvalidState     = errors.New("invalid state")
	ErrStateTransition  = errors.New("invalid state transition")
	ErrAlreadyFinalized = errors.New("already finalized")
	ErrExpired          = errors.New("expired")

	// Authorization errors
	ErrUnauthorized = errors.New("unauthorized")
	ErrForbidden    = errors.New("forbidden")

	// Concurrency errors
	ErrConcurrentModification = errors.New("concurrent modification detected")

	// External service errors
	ErrExternalService    = errors.New("external service error")
	ErrServiceUnavailable = errors.New("service unavailable")
	ErrTimeout            = errors.New("operation timeout")
)

// DomainError represents a domain-specific error with context.
type DomainError struct {
	Domain  string // e.g., "session", "enrollment", "exam"
	Op      string // Operation that failed, e.g., "Enroll", "Submit"
	Kind    error  // Base error type for errors.Is() checking
	Message string // Human-readable message
	Err     error  // Underlying error (optional)
}

// Error implements the error interface.
func (e *DomainError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s.%s: %s: %v", e.Domain, e.Op, e.Message, e.Err)
	}
	return fmt.Sprintf("%s.%s: %s", e.Domain, e.Op, e.Message)
}

// Unwrap returns the underlying error for errors.Unwrap().
func (e *DomainError) Unwrap() error {
	if e.Err != nil {
		return e.Err
	}
	return e.Kind
}

// Is implements errors.Is() matching.
func (e *DomainError) Is(target error) bool {
	if e.Kind != nil && errors.Is(e.Kind, target) {
		return true
	}
	if e.Err != nil && errors.Is(e.Err, target) {
		return true
	}
	return false
}

// NewDomainError creates a new domain error.
func NewDomainError(domain, op string, kind error, message string) *DomainError {
	return &DomainError{
		Domain:  domain,
		Op:      op,
		Kind:    kind,
		Message: message,
	}
}

// WrapError wraps an existing error with domain context.
func WrapError(domain, op string, kind error, message string, err error) *DomainError {
	return &DomainError{
		Domain:  domain,
		Op:      op,
		Kind:    kind,
		Message: message,
		Err:     err,
	}
}

// Session domain errors
var (
	ErrSessionNotFound       = NewDomainError("session", "Find", ErrNotFound, "session not found")
	ErrSessionNotSchedulable = NewDomainError("session", "Enroll", ErrInvalidState, "session is not open for enrollment")
	ErrSessionAlreadyExists  = NewDomainError("session", "Create", ErrAlreadyExists, "session already exists")
	ErrTrainerConflict       = NewDomainError("session", "Schedule", ErrAlreadyExists, "trainer has a conflicting session at this time")
	ErrInvalidCapacity       = NewDomainError("session", "Validate", ErrValueOutOfRange, "max capacity must be positive")
)

// Enrollment domain errors
var (
	ErrAlreadyEnrolled    = NewDomainError("enrollment", "Enroll", ErrAlreadyExists, "trainee already enrolled in this session")
	ErrAlreadyQueued      = NewDomainError("enrollment", "Enqueue", ErrAlreadyExists, "trainee already waiting in this session's queue")
	ErrNotEnrolled        = NewDomainError("enrollment", "Cancel", ErrNotFound, "no active enrollment for this session")
	ErrQueueEntryNotFound = NewDomainError("enrollment", "Withdraw", ErrNotFound, "no waiting queue entry for this session")
)

// Exam domain errors
var (
	ErrExamNotFound            = NewDomainError("exam", "Find", ErrNotFound, "exam not found")
	ErrAttemptNotFound         = NewDomainError("exam", "FindAttempt", ErrNotFound, "exam attempt not found")
	ErrAttemptAlreadyExists    = NewDomainError("exam", "Start", ErrAlreadyExists, "an attempt for this exam already exists")
	ErrNoActiveAttempt         = NewDomainError("exam", "Submit", ErrInvalidState, "no attempt is in progress for this exam")
	ErrAttemptAlreadyFinalized = NewDomainError("exam", "Submit", ErrAlreadyFinalized, "attempt has already been finalized")
)

// Certificate domain errors
var (
	ErrCertificateNotFound = NewDomainError("certificate", "Find", ErrNotFound, "certificate not found")
	ErrCertificateExists   = NewDomainError("certificate", "Issue", ErrAlreadyExists, "certificate already issued for this attempt")
	ErrAttemptNotPassing   = NewDomainError("certificate", "Issue", ErrInvalidState, "attempt did not pass the exam")
	ErrCertificateRevoked  = NewDomainError("certificate", "Verify", ErrInvalidState, "certificate has been revoked")
)

// External service errors
var (
	ErrDirectoryUnavailable    = NewDomainError("directory", "Request", ErrServiceUnavailable, "user directory is unavailable")
	ErrQuestionBankUnavailable = NewDomainError("questionbank", "Request", ErrServiceUnavailable, "question bank is unavailable")
	ErrNotifyFailed            = NewDomainError("notify", "Send", ErrExternalService, "failed to dispatch notification")
	ErrRendererFailed          = NewDomainError("renderer", "Issue", ErrExternalService, "certificate renderer request failed")
)

// IsNotFound checks if the error is a "not found" error.
func IsNotFound(err error) bool {
	return errors.Is(err, ErrNotFound)
}

// IsConflict checks if the error is a uniqueness/conflict error.
func IsConflict(err error) bool {
	return errors.Is(err, ErrAlreadyExists) || errors.Is(err, ErrAlreadyFinalized)
}

// IsPreconditionFailure checks if the entity was not in a state that
// permits the requested transition.
func IsPreconditionFailure(err error) bool {
	return errors.Is(err, ErrInvalidState) || errors.Is(err, ErrStateTransition)
}

// IsRetryable checks if the whole operation can safely be retried at the
// caller's boundary. The core never retries internally.
func IsRetryable(err error) bool {
	return errors.Is(err, ErrServiceUnavailable) ||
		errors.Is(err, ErrTimeout) ||
		errors.Is(err, ErrConcurrentModification)
}
