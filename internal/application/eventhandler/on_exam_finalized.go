// Package eventhandler contains domain event handlers: the certification
// gate, notification dispatch, and the renderer handoff. Handlers run on
// the event bus worker pool, outside the transaction that emitted the
// event, so no core operation ever blocks on external I/O while holding
// a capacity or attempt lock.
package eventhandler

import (
	"context"
	"log/slog"
	"time"

	"github.com/roastery-academy/training-hub/internal/application/command"
	"github.com/roastery-academy/training-hub/internal/domain/shared"
)

// ═══════════════════════════════════════════════════════════════════════════
// ON EXAM FINALIZED HANDLER
// The certification gate's trigger: a passing, submitted attempt leads to
// exactly one certificate. The issue command is idempotent, so a redelivered
// or retried event is harmless. Pass/fail notifications also go out here.
// ═══════════════════════════════════════════════════════════════════════════

// OnExamFinalizedHandler reacts to attempt finalization events.
type OnExamFinalizedHandler struct {
	issueCert *command.IssueCertificateHandler
	notifier  shared.Notifier
	logger    *slog.Logger
	timeout   time.Duration
}

// NewOnExamFinalizedHandler creates a new OnExamFinalizedHandler.
func NewOnExamFinalizedHandler(
	issueCert *command.IssueCertificateHandler,
	notifier shared.Notifier,
	logger *slog.Logger,
) *OnExamFinalizedHandler {
	if logger == nil {
		logger = slog.Default()
	}
	return &OnExamFinalizedHandler{
		issueCert: issueCert,
		notifier:  notifier,
		logger:    logger,
		timeout:   15 * time.Second,
	}
}

// Handle processes one finalization event.
func (h *OnExamFinalizedHandler) Handle(event shared.Event) error {
	finalized, ok := event.(shared.ExamFinalizedEvent)
	if !ok {
		return nil
	}

	ctx, cancel := context.WithTimeout(context.Background(), h.timeout)
	defer cancel()

	h.notifyOutcome(ctx, finalized)

	if !finalized.Passed {
		return nil
	}

	result, err := h.issueCert.Handle(ctx, command.IssueCertificateCommand{AttemptID: finalized.AggregateID()})
	if err != nil {
		h.logger.Error("certification gate failed",
			"attempt_id", finalized.AggregateID(),
			"trainee_id", finalized.TraineeID,
			"error", err,
		)
		return err
	}

	if result.Created {
		h.logger.Info("certificate issued",
			"attempt_id", finalized.AggregateID(),
			"certificate_number", result.Certificate.Number,
		)
	}

	return nil
}

// notifyOutcome dispatches the pass/fail notification. Fire-and-forget:
// a failure is logged and swallowed.
func (h *OnExamFinalizedHandler) notifyOutcome(ctx context.Context, event shared.ExamFinalizedEvent) {
	if h.notifier == nil {
		return
	}

	eventType := shared.NotifyExamFailed
	if event.Passed {
		eventType = shared.NotifyExamPassed
	}

	err := h.notifier.Notify(ctx, event.TraineeID, eventType, map[string]interface{}{
		"exam_id":          event.ExamID,
		"session_id":       event.SessionID,
		"percentage_score": event.PercentageScore,
		"expired":          event.Expired,
	})
	if err != nil {
		h.logger.Warn("exam outcome notification failed",
			"trainee_id", event.TraineeID,
			"exam_id", event.ExamID,
			"error", err,
		)
	}
}
