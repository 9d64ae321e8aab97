package query

import (
	"context"
	"errors"

	"github.com/roastery-academy/training-hub/internal/domain/enrollment"
	"github.com/roastery-academy/training-hub/internal/domain/shared"
)

// ══════════════════════════════════════════════════════════════════════════════
// QUEUE STATUS QUERIES
// ══════════════════════════════════════════════════════════════════════════════

// QueueStatusView describes one trainee's place in a session queue.
type QueueStatusView struct {
	Entry *enrollment.QueueEntry

	// Rank is the 1-based place among currently waiting entries - what
	// a trainee sees as "position X of Y". Distinct from Entry.Position,
	// which is the raw never-reused insertion counter.
	Rank int

	// TotalWaiting is the number of waiting entries in the session queue.
	TotalWaiting int
}

// GetQueueStatusHandler resolves a trainee's queue standing.
type GetQueueStatusHandler struct {
	queueRepo enrollment.QueueRepository
}

// NewGetQueueStatusHandler creates a new GetQueueStatusHandler.
func NewGetQueueStatusHandler(queueRepo enrollment.QueueRepository) *GetQueueStatusHandler {
	return &GetQueueStatusHandler{queueRepo: queueRepo}
}

// Handle returns the trainee's standing in a session queue.
func (h *GetQueueStatusHandler) Handle(ctx context.Context, traineeID, sessionID string) (*QueueStatusView, error) {
	if traineeID == "" || sessionID == "" {
		return nil, shared.NewDomainError("enrollment", "GetQueueStatus", shared.ErrValidation, "trainee_id and session_id are required")
	}

	entry, err := h.queueRepo.GetWaiting(ctx, traineeID, sessionID)
	if err != nil {
		if errors.Is(err, enrollment.ErrQueueEntryNotFound) {
			return nil, shared.ErrQueueEntryNotFound
		}
		return nil, shared.WrapError("enrollment", "GetQueueStatus", shared.ErrExternalService, "failed to load queue entry", err)
	}

	waiting, err := h.queueRepo.ListWaiting(ctx, sessionID)
	if err != nil {
		return nil, shared.WrapError("enrollment", "GetQueueStatus", shared.ErrExternalService, "failed to list queue", err)
	}

	view := &QueueStatusView{
		Entry:        entry,
		TotalWaiting: len(waiting),
	}
	for i, e := range waiting {
		if e.ID == entry.ID {
			view.Rank = i + 1
			break
		}
	}

	return view, nil
}

// ListTraineeQueuesHandler returns every queue a trainee is waiting in.
type ListTraineeQueuesHandler struct {
	queueRepo enrollment.QueueRepository
}

// NewListTraineeQueuesHandler creates a new ListTraineeQueuesHandler.
func NewListTraineeQueuesHandler(queueRepo enrollment.QueueRepository) *ListTraineeQueuesHandler {
	return &ListTraineeQueuesHandler{queueRepo: queueRepo}
}

// Handle lists the trainee's waiting entries.
func (h *ListTraineeQueuesHandler) Handle(ctx context.Context, traineeID string) ([]*enrollment.QueueEntry, error) {
	if traineeID == "" {
		return nil, shared.NewDomainError("enrollment", "ListQueues", shared.ErrValidation, "trainee_id is required")
	}

	entries, err := h.queueRepo.ListWaitingByTrainee(ctx, traineeID)
	if err != nil {
		return nil, shared.WrapError("enrollment", "ListQueues", shared.ErrExternalService, "failed to list queues", err)
	}
	return entries, nil
}
