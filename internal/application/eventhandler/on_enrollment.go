package eventhandler

import (
	"context"
	"log/slog"
	"time"

	"github.com/roastery-academy/training-hub/internal/domain/shared"
)

// ═══════════════════════════════════════════════════════════════════════════
// ON ENROLLMENT HANDLER
// Dispatches enrollment-confirmed and queue-promoted notifications after
// the admission transaction has committed.
// ═══════════════════════════════════════════════════════════════════════════

// OnEnrollmentHandler reacts to enrollment and queue events.
type OnEnrollmentHandler struct {
	notifier shared.Notifier
	logger   *slog.Logger
	timeout  time.Duration
}

// NewOnEnrollmentHandler creates a new OnEnrollmentHandler.
func NewOnEnrollmentHandler(notifier shared.Notifier, logger *slog.Logger) *OnEnrollmentHandler {
	if logger == nil {
		logger = slog.Default()
	}
	return &OnEnrollmentHandler{
		notifier: notifier,
		logger:   logger,
		timeout:  10 * time.Second,
	}
}

// Handle processes one enrollment event.
func (h *OnEnrollmentHandler) Handle(event shared.Event) error {
	if h.notifier == nil {
		return nil
	}

	confirmed, ok := event.(shared.EnrollmentConfirmedEvent)
	if !ok {
		return nil
	}

	ctx, cancel := context.WithTimeout(context.Background(), h.timeout)
	defer cancel()

	eventType := shared.NotifyEnrollmentConfirmed
	if confirmed.Promoted {
		eventType = shared.NotifyQueuePromoted
	}

	err := h.notifier.Notify(ctx, confirmed.TraineeID, eventType, map[string]interface{}{
		"session_id": confirmed.SessionID,
		"promoted":   confirmed.Promoted,
	})
	if err != nil {
		// Fire-and-forget: the enrollment stands whatever happens here.
		h.logger.Warn("enrollment notification failed",
			"trainee_id", confirmed.TraineeID,
			"session_id", confirmed.SessionID,
			"error", err,
		)
	}

	return nil
}
