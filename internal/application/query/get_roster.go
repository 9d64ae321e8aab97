package query

import (
	"context"
	"errors"

	"github.com/roastery-academy/training-hub/internal/domain/enrollment"
	"github.com/roastery-academy/training-hub/internal/domain/session"
	"github.com/roastery-academy/training-hub/internal/domain/shared"
)

// ══════════════════════════════════════════════════════════════════════════════
// SESSION ROSTER QUERY
// ══════════════════════════════════════════════════════════════════════════════

// RosterView is a session together with its enrollments and queue depth.
type RosterView struct {
	Session     *session.Session
	Enrollments []*enrollment.Enrollment

	// RegisteredCount is the count of active enrollments; always at most
	// the session's max capacity.
	RegisteredCount int

	// WaitingCount is the current queue depth.
	WaitingCount int
}

// GetRosterHandler builds the roster view for a session.
type GetRosterHandler struct {
	sessionRepo session.Repository
	enrollRepo  enrollment.Repository
	queueRepo   enrollment.QueueRepository
}

// NewGetRosterHandler creates a new GetRosterHandler.
func NewGetRosterHandler(
	sessionRepo session.Repository,
	enrollRepo enrollment.Repository,
	queueRepo enrollment.QueueRepository,
) *GetRosterHandler {
	return &GetRosterHandler{
		sessionRepo: sessionRepo,
		enrollRepo:  enrollRepo,
		queueRepo:   queueRepo,
	}
}

// Handle returns the roster for a session.
func (h *GetRosterHandler) Handle(ctx context.Context, sessionID string) (*RosterView, error) {
	if sessionID == "" {
		return nil, shared.NewDomainError("session", "GetRoster", shared.ErrValidation, "session_id is required")
	}

	sess, err := h.sessionRepo.GetByID(ctx, sessionID)
	if err != nil {
		if errors.Is(err, session.ErrSessionNotFound) {
			return nil, shared.ErrSessionNotFound
		}
		return nil, shared.WrapError("session", "GetRoster", shared.ErrExternalService, "failed to load session", err)
	}

	enrollments, err := h.enrollRepo.ListBySession(ctx, sessionID)
	if err != nil {
		return nil, shared.WrapError("session", "GetRoster", shared.ErrExternalService, "failed to list enrollments", err)
	}

	registered := 0
	for _, e := range enrollments {
		if e.Status.IsActive() {
			registered++
		}
	}

	waiting, err := h.queueRepo.CountWaiting(ctx, sessionID)
	if err != nil {
		return nil, shared.WrapError("session", "GetRoster", shared.ErrExternalService, "failed to count queue", err)
	}

	return &RosterView{
		Session:         sess,
		Enrollments:     enrollments,
		RegisteredCount: registered,
		WaitingCount:    waiting,
	}, nil
}

// ListTraineeEnrollmentsHandler returns a trainee's enrollments.
type ListTraineeEnrollmentsHandler struct {
	enrollRepo enrollment.Repository
}

// NewListTraineeEnrollmentsHandler creates a new ListTraineeEnrollmentsHandler.
func NewListTraineeEnrollmentsHandler(enrollRepo enrollment.Repository) *ListTraineeEnrollmentsHandler {
	return &ListTraineeEnrollmentsHandler{enrollRepo: enrollRepo}
}

// Handle lists the trainee's enrollments, newest first.
func (h *ListTraineeEnrollmentsHandler) Handle(ctx context.Context, traineeID string) ([]*enrollment.Enrollment, error) {
	if traineeID == "" {
		return nil, shared.NewDomainError("enrollment", "ListEnrollments", shared.ErrValidation, "trainee_id is required")
	}

	enrollments, err := h.enrollRepo.ListByTrainee(ctx, traineeID)
	if err != nil {
		return nil, shared.WrapError("enrollment", "ListEnrollments", shared.ErrExternalService, "failed to list enrollments", err)
	}
	return enrollments, nil
}
