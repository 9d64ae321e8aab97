package query

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roastery-academy/training-hub/internal/domain/certificate"
	"github.com/roastery-academy/training-hub/internal/domain/shared"
	"github.com/roastery-academy/training-hub/internal/infrastructure/persistence/memory"
)

func storedCertificate(t *testing.T, repo *memory.CertificateRepository) *certificate.Certificate {
	t.Helper()

	cert, err := certificate.NewCertificate("c1", "alice", "s1", "a1", "CERT-2026-000001")
	require.NoError(t, err)
	require.NoError(t, repo.Create(context.Background(), cert))
	return cert
}

func TestVerifyCertificate(t *testing.T) {
	ctx := context.Background()
	repo := memory.NewCertificateRepository(memory.NewStore())
	handler := NewVerifyCertificateHandler(repo)
	cert := storedCertificate(t, repo)

	result, err := handler.Handle(ctx, cert.Number, cert.VerificationCode)
	require.NoError(t, err)

	assert.True(t, result.Valid)
	assert.Equal(t, cert.Number, result.Certificate.Number)
}

func TestVerifyCertificate_WrongCode(t *testing.T) {
	ctx := context.Background()
	repo := memory.NewCertificateRepository(memory.NewStore())
	handler := NewVerifyCertificateHandler(repo)
	cert := storedCertificate(t, repo)

	result, err := handler.Handle(ctx, cert.Number, "0000000000000000")
	require.NoError(t, err)

	// The certificate itself is still returned for display.
	assert.False(t, result.Valid)
	assert.NotNil(t, result.Certificate)
}

func TestVerifyCertificate_RevokedIsInvalid(t *testing.T) {
	ctx := context.Background()
	repo := memory.NewCertificateRepository(memory.NewStore())
	handler := NewVerifyCertificateHandler(repo)
	cert := storedCertificate(t, repo)

	require.NoError(t, cert.Revoke())
	require.NoError(t, repo.Update(ctx, cert))

	result, err := handler.Handle(ctx, cert.Number, cert.VerificationCode)
	require.NoError(t, err)

	assert.False(t, result.Valid)
	assert.Equal(t, certificate.StatusRevoked, result.Certificate.Status)
}

func TestVerifyCertificate_UnknownNumber(t *testing.T) {
	ctx := context.Background()
	handler := NewVerifyCertificateHandler(memory.NewCertificateRepository(memory.NewStore()))

	_, err := handler.Handle(ctx, "CERT-2026-999999", "whatever")
	assert.ErrorIs(t, err, shared.ErrCertificateNotFound)
}

func TestListCertificates(t *testing.T) {
	ctx := context.Background()
	repo := memory.NewCertificateRepository(memory.NewStore())
	handler := NewListCertificatesHandler(repo)
	storedCertificate(t, repo)

	certs, err := handler.Handle(ctx, "alice")
	require.NoError(t, err)
	assert.Len(t, certs, 1)

	certs, err = handler.Handle(ctx, "bob")
	require.NoError(t, err)
	assert.Empty(t, certs)
}
