// Package renderer implements the HTTP client for the certificate
// renderer, the service that turns an issued certificate row into a PDF
// with an embedded QR code and stores the artifact. Rendering happens
// after issuance and can be retried independently; the certificate row
// is already committed when this client is called.
package renderer

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"time"

	"github.com/roastery-academy/training-hub/internal/domain/certificate"
	"github.com/roastery-academy/training-hub/internal/domain/shared"
	"github.com/roastery-academy/training-hub/pkg/circuitbreaker"
)

// ══════════════════════════════════════════════════════════════════════════════
// CONFIGURATION
// ══════════════════════════════════════════════════════════════════════════════

// ClientConfig contains configuration for the renderer client.
type ClientConfig struct {
	// BaseURL is the renderer service base URL
	BaseURL string

	// APIKey is the bearer token for service-to-service authentication
	APIKey string

	// Timeout is the HTTP request timeout. Rendering a PDF is slower
	// than a lookup, so the default is generous.
	Timeout time.Duration

	// Logger for structured logging
	Logger *slog.Logger
}

// DefaultClientConfig returns sensible defaults.
func DefaultClientConfig(baseURL string) ClientConfig {
	return ClientConfig{
		BaseURL: baseURL,
		Timeout: 30 * time.Second,
	}
}

// ══════════════════════════════════════════════════════════════════════════════
// CLIENT
// ══════════════════════════════════════════════════════════════════════════════

// Client is the certificate renderer HTTP client. It implements
// certificate.Renderer. Retries live in the calling event handler, so
// this client carries only the circuit breaker.
type Client struct {
	config         ClientConfig
	httpClient     *http.Client
	logger         *slog.Logger
	circuitBreaker *circuitbreaker.CircuitBreaker
}

// NewClient creates a new renderer client.
func NewClient(config ClientConfig) *Client {
	if config.Logger == nil {
		config.Logger = slog.Default()
	}

	c := &Client{
		config: config,
		httpClient: &http.Client{
			Timeout: config.Timeout,
		},
		logger: config.Logger,
	}

	c.circuitBreaker = circuitbreaker.New(
		"renderer",
		circuitbreaker.WithFailureThreshold(5),
		circuitbreaker.WithSuccessThreshold(1),
		circuitbreaker.WithTimeout(30*time.Second),
		circuitbreaker.WithOnStateChange(func(name string, from, to circuitbreaker.State) {
			c.logger.Warn("circuit breaker state change",
				"breaker", name,
				"from", from,
				"to", to,
			)
		}),
	)

	return c
}

// ══════════════════════════════════════════════════════════════════════════════
// RENDERER OPERATIONS
// ══════════════════════════════════════════════════════════════════════════════

// issueRequestDTO is the wire representation of a render request.
type issueRequestDTO struct {
	CertificateID    string    `json:"certificate_id"`
	Number           string    `json:"number"`
	TraineeID        string    `json:"trainee_id"`
	SessionID        string    `json:"session_id"`
	VerificationCode string    `json:"verification_code"`
	IssuedAt         time.Time `json:"issued_at"`
}

// issueResponseDTO is the renderer's answer: where the artifact lives.
type issueResponseDTO struct {
	ArtifactRef string `json:"artifact_ref"`
}

// Issue renders the certificate and returns the stored artifact
// reference.
func (c *Client) Issue(ctx context.Context, cert *certificate.Certificate) (string, error) {
	dto := issueRequestDTO{
		CertificateID:    cert.ID,
		Number:           cert.Number,
		TraineeID:        cert.TraineeID,
		SessionID:        cert.SessionID,
		VerificationCode: cert.VerificationCode,
		IssuedAt:         cert.IssuedAt,
	}

	var response issueResponseDTO
	err := c.circuitBreaker.Execute(ctx, func(ctx context.Context) error {
		return c.doSingleRequest(ctx, dto, &response)
	})
	if err != nil {
		return "", shared.WrapError("renderer", "Issue", shared.ErrExternalService, "render request failed", err)
	}

	return response.ArtifactRef, nil
}

// IsHealthy checks if the renderer service is reachable.
func (c *Client) IsHealthy(ctx context.Context) bool {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.config.BaseURL+"/health", nil)
	if err != nil {
		return false
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return false
	}
	defer resp.Body.Close()

	return resp.StatusCode == http.StatusOK
}

// ══════════════════════════════════════════════════════════════════════════════
// HTTP REQUEST HELPERS
// ══════════════════════════════════════════════════════════════════════════════

// doSingleRequest performs a single render POST.
func (c *Client) doSingleRequest(ctx context.Context, dto issueRequestDTO, result *issueResponseDTO) error {
	jsonBody, err := json.Marshal(dto)
	if err != nil {
		return fmt.Errorf("marshal body: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.config.BaseURL+"/certificates/render", bytes.NewReader(jsonBody))
	if err != nil {
		return fmt.Errorf("create request: %w", err)
	}

	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")
	if c.config.APIKey != "" {
		req.Header.Set("Authorization", "Bearer "+c.config.APIKey)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("http request: %w", err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("read response: %w", err)
	}

	if resp.StatusCode >= 400 {
		return fmt.Errorf("renderer api error: status %d: %s", resp.StatusCode, string(respBody))
	}

	if err := json.Unmarshal(respBody, result); err != nil {
		return fmt.Errorf("unmarshal response: %w", err)
	}

	return nil
}
