package eventhandler

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/roastery-academy/training-hub/internal/domain/certificate"
	"github.com/roastery-academy/training-hub/internal/domain/shared"
	"github.com/roastery-academy/training-hub/pkg/retry"
)

// ═══════════════════════════════════════════════════════════════════════════
// ON CERTIFICATE ISSUED HANDLER
// Hands a freshly issued certificate off to the external renderer. A
// renderer failure never rolls back the issued status; the handoff is
// retried with backoff and, past that, left for a later re-run.
// ═══════════════════════════════════════════════════════════════════════════

// OnCertificateIssuedHandler reacts to certificate issuance events.
type OnCertificateIssuedHandler struct {
	certRepo certificate.Repository
	renderer certificate.Renderer
	logger   *slog.Logger
	retrier  *retry.Retrier
	timeout  time.Duration
}

// NewOnCertificateIssuedHandler creates a new OnCertificateIssuedHandler.
func NewOnCertificateIssuedHandler(
	certRepo certificate.Repository,
	renderer certificate.Renderer,
	logger *slog.Logger,
) *OnCertificateIssuedHandler {
	if logger == nil {
		logger = slog.Default()
	}
	return &OnCertificateIssuedHandler{
		certRepo: certRepo,
		renderer: renderer,
		logger:   logger,
		retrier:  retry.RendererRetrier(),
		timeout:  30 * time.Second,
	}
}

// Handle processes one issuance event.
func (h *OnCertificateIssuedHandler) Handle(event shared.Event) error {
	issued, ok := event.(shared.CertificateIssuedEvent)
	if !ok {
		return nil
	}

	if h.renderer == nil {
		return nil
	}

	ctx, cancel := context.WithTimeout(context.Background(), h.timeout)
	defer cancel()

	cert, err := h.certRepo.GetByAttempt(ctx, issued.AttemptID)
	if err != nil {
		if errors.Is(err, certificate.ErrCertificateNotFound) {
			return nil
		}
		return err
	}

	var artifactRef string
	err = h.retrier.Do(ctx, func(ctx context.Context) error {
		ref, renderErr := h.renderer.Issue(ctx, cert)
		if renderErr != nil {
			return retry.Retryable(renderErr)
		}
		artifactRef = ref
		return nil
	})
	if err != nil {
		h.logger.Error("certificate render handoff failed",
			"certificate_number", cert.Number,
			"attempt_id", issued.AttemptID,
			"error", err,
		)
		return err
	}

	h.logger.Info("certificate rendered",
		"certificate_number", cert.Number,
		"artifact_ref", artifactRef,
	)

	return nil
}
