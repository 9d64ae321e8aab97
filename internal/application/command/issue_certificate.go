package command

import (
	"context"
	"errors"

	"github.com/roastery-academy/training-hub/internal/domain/certificate"
	"github.com/roastery-academy/training-hub/internal/domain/exam"
	"github.com/roastery-academy/training-hub/internal/domain/shared"
)

// ══════════════════════════════════════════════════════════════════════════════
// ISSUE CERTIFICATE COMMAND
// The certification gate: a submitted, passing attempt yields exactly one
// certificate. Check-then-create is idempotent under retries - the unique
// constraint on the attempt ID means duplicate completion events can
// never mint a second certificate.
// ══════════════════════════════════════════════════════════════════════════════

// IssueCertificateCommand contains the data to issue a certificate.
type IssueCertificateCommand struct {
	// AttemptID is the passing exam attempt.
	AttemptID string
}

// Validate validates the command.
func (c IssueCertificateCommand) Validate() error {
	if c.AttemptID == "" {
		return errors.New("issue_certificate: attempt_id is required")
	}
	return nil
}

// IssueCertificateResult contains the issued (or pre-existing) certificate.
type IssueCertificateResult struct {
	// Certificate is the certificate for the attempt.
	Certificate *certificate.Certificate

	// Created is false when the certificate already existed and the call
	// was a retried duplicate.
	Created bool
}

// ══════════════════════════════════════════════════════════════════════════════
// HANDLER
// ══════════════════════════════════════════════════════════════════════════════

// IssueCertificateHandler handles the IssueCertificateCommand.
type IssueCertificateHandler struct {
	certRepo    certificate.Repository
	attemptRepo exam.AttemptRepository
	numbers     certificate.NumberAllocator
	publisher   shared.EventPublisher
	ids         shared.IDGenerator
}

// NewIssueCertificateHandler creates a new IssueCertificateHandler.
func NewIssueCertificateHandler(
	certRepo certificate.Repository,
	attemptRepo exam.AttemptRepository,
	numbers certificate.NumberAllocator,
	publisher shared.EventPublisher,
	ids shared.IDGenerator,
) *IssueCertificateHandler {
	return &IssueCertificateHandler{
		certRepo:    certRepo,
		attemptRepo: attemptRepo,
		numbers:     numbers,
		publisher:   publisher,
		ids:         ids,
	}
}

// Handle executes the issuance.
func (h *IssueCertificateHandler) Handle(ctx context.Context, cmd IssueCertificateCommand) (*IssueCertificateResult, error) {
	if err := cmd.Validate(); err != nil {
		return nil, shared.WrapError("certificate", "Issue", shared.ErrValidation, "invalid command", err)
	}

	attempt, err := h.attemptRepo.GetByID(ctx, cmd.AttemptID)
	if err != nil {
		if errors.Is(err, exam.ErrAttemptNotFound) {
			return nil, shared.ErrAttemptNotFound
		}
		return nil, shared.WrapError("certificate", "Issue", shared.ErrExternalService, "failed to load attempt", err)
	}

	// Only a submitted, passing attempt certifies. An expired attempt
	// never does, whatever its score.
	if attempt.Status != exam.AttemptStatusSubmitted || !attempt.Passed {
		return nil, shared.ErrAttemptNotPassing
	}

	if existing, err := h.certRepo.GetByAttempt(ctx, cmd.AttemptID); err == nil {
		return &IssueCertificateResult{Certificate: existing, Created: false}, nil
	} else if !errors.Is(err, certificate.ErrCertificateNotFound) {
		return nil, shared.WrapError("certificate", "Issue", shared.ErrExternalService, "failed to check existing certificate", err)
	}

	number, err := h.numbers.Next(ctx)
	if err != nil {
		return nil, shared.WrapError("certificate", "Issue", shared.ErrServiceUnavailable, "failed to allocate certificate number", err)
	}

	cert, err := certificate.NewCertificate(h.ids.GenerateID(), attempt.TraineeID, attempt.SessionID, attempt.ID, number)
	if err != nil {
		return nil, shared.WrapError("certificate", "Issue", shared.ErrValidation, "invalid certificate", err)
	}

	if err := h.certRepo.Create(ctx, cert); err != nil {
		if errors.Is(err, certificate.ErrCertificateExists) {
			// Lost a race against a concurrent retry; the winner's row
			// is the certificate.
			existing, getErr := h.certRepo.GetByAttempt(ctx, cmd.AttemptID)
			if getErr != nil {
				return nil, shared.WrapError("certificate", "Issue", shared.ErrExternalService, "failed to load winning certificate", getErr)
			}
			return &IssueCertificateResult{Certificate: existing, Created: false}, nil
		}
		return nil, shared.WrapError("certificate", "Issue", shared.ErrExternalService, "failed to create certificate", err)
	}

	if h.publisher != nil {
		_ = h.publisher.Publish(shared.NewCertificateIssuedEvent(cert.ID, cert.TraineeID, cert.SessionID, cert.AttemptID, cert.Number))
	}

	return &IssueCertificateResult{Certificate: cert, Created: true}, nil
}

// ══════════════════════════════════════════════════════════════════════════════
// REVOKE CERTIFICATE COMMAND
// ══════════════════════════════════════════════════════════════════════════════

// RevokeCertificateCommand contains the data to revoke a certificate.
type RevokeCertificateCommand struct {
	ActorID string
	Number  string
}

// Validate validates the command.
func (c RevokeCertificateCommand) Validate() error {
	if c.ActorID == "" {
		return errors.New("revoke_certificate: actor_id is required")
	}
	if c.Number == "" {
		return errors.New("revoke_certificate: number is required")
	}
	return nil
}

// RevokeCertificateHandler handles the RevokeCertificateCommand.
type RevokeCertificateHandler struct {
	certRepo  certificate.Repository
	directory shared.Directory
	publisher shared.EventPublisher
}

// NewRevokeCertificateHandler creates a new RevokeCertificateHandler.
func NewRevokeCertificateHandler(
	certRepo certificate.Repository,
	directory shared.Directory,
	publisher shared.EventPublisher,
) *RevokeCertificateHandler {
	return &RevokeCertificateHandler{
		certRepo:  certRepo,
		directory: directory,
		publisher: publisher,
	}
}

// Handle executes the revocation.
func (h *RevokeCertificateHandler) Handle(ctx context.Context, cmd RevokeCertificateCommand) error {
	if err := cmd.Validate(); err != nil {
		return shared.WrapError("certificate", "Revoke", shared.ErrValidation, "invalid command", err)
	}

	if err := authorizeStaff(ctx, h.directory, "certificate", "Revoke", cmd.ActorID); err != nil {
		return err
	}

	cert, err := h.certRepo.GetByNumber(ctx, cmd.Number)
	if err != nil {
		if errors.Is(err, certificate.ErrCertificateNotFound) {
			return shared.ErrCertificateNotFound
		}
		return shared.WrapError("certificate", "Revoke", shared.ErrExternalService, "failed to load certificate", err)
	}

	if err := cert.Revoke(); err != nil {
		return shared.NewDomainError("certificate", "Revoke", shared.ErrInvalidState, "certificate is not in issued state")
	}

	if err := h.certRepo.Update(ctx, cert); err != nil {
		return shared.WrapError("certificate", "Revoke", shared.ErrExternalService, "failed to update certificate", err)
	}

	if h.publisher != nil {
		_ = h.publisher.Publish(shared.NewBaseSessionEvent(shared.EventCertificateRevoked, cert.ID))
	}

	return nil
}
