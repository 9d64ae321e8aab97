package certificate

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func issuedCertificate(t *testing.T) *Certificate {
	t.Helper()

	cert, err := NewCertificate("cert-1", "trainee-1", "session-1", "attempt-1", "CERT-2026-000042")
	require.NoError(t, err)
	return cert
}

func TestNewCertificate(t *testing.T) {
	cert := issuedCertificate(t)

	assert.Equal(t, StatusIssued, cert.Status)
	assert.Equal(t, "CERT-2026-000042", cert.Number)
	assert.Len(t, cert.VerificationCode, 16)
}

func TestNewCertificate_Validation(t *testing.T) {
	_, err := NewCertificate("cert-1", "", "session-1", "attempt-1", "CERT-2026-000001")
	assert.Error(t, err)

	_, err = NewCertificate("cert-1", "trainee-1", "session-1", "attempt-1", "")
	assert.ErrorIs(t, err, ErrInvalidNumber)
}

func TestVerificationCode_Deterministic(t *testing.T) {
	issuedAt := time.Date(2026, 3, 10, 14, 30, 0, 0, time.UTC)

	code := VerificationCode("CERT-2026-000042", "trainee-1", issuedAt)

	// The same inputs always produce the same code; the hour of issue
	// does not matter, only the day.
	sameDay := time.Date(2026, 3, 10, 23, 59, 0, 0, time.UTC)
	assert.Equal(t, code, VerificationCode("CERT-2026-000042", "trainee-1", sameDay))

	nextDay := issuedAt.AddDate(0, 0, 1)
	assert.NotEqual(t, code, VerificationCode("CERT-2026-000042", "trainee-1", nextDay))
	assert.NotEqual(t, code, VerificationCode("CERT-2026-000043", "trainee-1", issuedAt))
	assert.NotEqual(t, code, VerificationCode("CERT-2026-000042", "trainee-2", issuedAt))
}

func TestCertificate_Verify(t *testing.T) {
	cert := issuedCertificate(t)

	assert.True(t, cert.Verify(cert.VerificationCode))
	assert.False(t, cert.Verify("0000000000000000"))
}

func TestCertificate_VerifyAfterRevocation(t *testing.T) {
	cert := issuedCertificate(t)
	code := cert.VerificationCode

	require.NoError(t, cert.Revoke())

	// A revoked certificate fails verification even with the right code.
	assert.False(t, cert.Verify(code))
}

func TestCertificate_RevokeOnlyOnce(t *testing.T) {
	cert := issuedCertificate(t)

	require.NoError(t, cert.Revoke())
	assert.ErrorIs(t, cert.Revoke(), ErrNotIssued)
	assert.ErrorIs(t, cert.Expire(), ErrNotIssued)
}
