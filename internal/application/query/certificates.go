package query

import (
	"context"
	"errors"

	"github.com/roastery-academy/training-hub/internal/domain/certificate"
	"github.com/roastery-academy/training-hub/internal/domain/shared"
)

// ══════════════════════════════════════════════════════════════════════════════
// CERTIFICATE QUERIES
// ══════════════════════════════════════════════════════════════════════════════

// ListCertificatesHandler returns a trainee's certificates.
type ListCertificatesHandler struct {
	certRepo certificate.Repository
}

// NewListCertificatesHandler creates a new ListCertificatesHandler.
func NewListCertificatesHandler(certRepo certificate.Repository) *ListCertificatesHandler {
	return &ListCertificatesHandler{certRepo: certRepo}
}

// Handle lists the trainee's certificates, newest first.
func (h *ListCertificatesHandler) Handle(ctx context.Context, traineeID string) ([]*certificate.Certificate, error) {
	if traineeID == "" {
		return nil, shared.NewDomainError("certificate", "List", shared.ErrValidation, "trainee_id is required")
	}

	certs, err := h.certRepo.ListByTrainee(ctx, traineeID)
	if err != nil {
		return nil, shared.WrapError("certificate", "List", shared.ErrExternalService, "failed to list certificates", err)
	}
	return certs, nil
}

// VerificationResult is the public outcome of a certificate check.
type VerificationResult struct {
	// Valid is true when the certificate exists, is issued, and the
	// verification code matches.
	Valid bool

	// Certificate is returned for a known number regardless of validity,
	// so the verify page can show a revoked certificate as revoked.
	Certificate *certificate.Certificate
}

// VerifyCertificateHandler checks a certificate number and QR code.
type VerifyCertificateHandler struct {
	certRepo certificate.Repository
}

// NewVerifyCertificateHandler creates a new VerifyCertificateHandler.
func NewVerifyCertificateHandler(certRepo certificate.Repository) *VerifyCertificateHandler {
	return &VerifyCertificateHandler{certRepo: certRepo}
}

// Handle verifies the certificate by number and code.
func (h *VerifyCertificateHandler) Handle(ctx context.Context, number, code string) (*VerificationResult, error) {
	if number == "" {
		return nil, shared.NewDomainError("certificate", "Verify", shared.ErrValidation, "certificate number is required")
	}

	cert, err := h.certRepo.GetByNumber(ctx, number)
	if err != nil {
		if errors.Is(err, certificate.ErrCertificateNotFound) {
			return nil, shared.ErrCertificateNotFound
		}
		return nil, shared.WrapError("certificate", "Verify", shared.ErrExternalService, "failed to load certificate", err)
	}

	return &VerificationResult{
		Valid:       cert.Verify(code),
		Certificate: cert,
	}, nil
}
