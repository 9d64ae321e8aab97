// Package notify implements the HTTP client for the notification
// service. Delivery is fire-and-forget: the core hands a payload over
// after its own transaction has committed, and a delivery failure is
// logged but never propagated back into the state transition.
package notify

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"time"

	"github.com/roastery-academy/training-hub/internal/domain/shared"
	"github.com/roastery-academy/training-hub/pkg/retry"
)

// ══════════════════════════════════════════════════════════════════════════════
// CONFIGURATION
// ══════════════════════════════════════════════════════════════════════════════

// ClientConfig contains configuration for the notification client.
type ClientConfig struct {
	// BaseURL is the notification service base URL
	BaseURL string

	// APIKey is the bearer token for service-to-service authentication
	APIKey string

	// Timeout is the HTTP request timeout
	Timeout time.Duration

	// Logger for structured logging
	Logger *slog.Logger
}

// DefaultClientConfig returns sensible defaults.
func DefaultClientConfig(baseURL string) ClientConfig {
	return ClientConfig{
		BaseURL: baseURL,
		Timeout: 10 * time.Second,
	}
}

// ══════════════════════════════════════════════════════════════════════════════
// CLIENT
// ══════════════════════════════════════════════════════════════════════════════

// Client is the notification service HTTP client. It implements
// shared.Notifier.
type Client struct {
	config     ClientConfig
	httpClient *http.Client
	logger     *slog.Logger
	retrier    *retry.Retrier
}

// NewClient creates a new notification client.
func NewClient(config ClientConfig) *Client {
	if config.Logger == nil {
		config.Logger = slog.Default()
	}

	return &Client{
		config: config,
		httpClient: &http.Client{
			Timeout: config.Timeout,
		},
		logger:  config.Logger,
		retrier: retry.NotifyRetrier(),
	}
}

// ══════════════════════════════════════════════════════════════════════════════
// NOTIFICATION OPERATIONS
// ══════════════════════════════════════════════════════════════════════════════

// notificationDTO is the wire representation of one notification.
type notificationDTO struct {
	UserID  string                 `json:"user_id"`
	Type    string                 `json:"type"`
	Payload map[string]interface{} `json:"payload,omitempty"`
}

// Notify dispatches a notification to a user. The event handlers treat
// a returned error as log-and-continue, so this method retries hard
// before giving up.
func (c *Client) Notify(ctx context.Context, userID string, eventType shared.NotificationType, payload map[string]interface{}) error {
	dto := notificationDTO{
		UserID:  userID,
		Type:    string(eventType),
		Payload: payload,
	}

	err := c.retrier.Do(ctx, func(ctx context.Context) error {
		return retry.Retryable(c.doSingleRequest(ctx, dto))
	})
	if err != nil {
		return shared.WrapError("notify", "Notify", shared.ErrExternalService, "notification dispatch failed", err)
	}

	return nil
}

// IsHealthy checks if the notification service is reachable.
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

// doSingleRequest performs a single notification POST.
func (c *Client) doSingleRequest(ctx context.Context, dto notificationDTO) error {
	jsonBody, err := json.Marshal(dto)
	if err != nil {
		return fmt.Errorf("marshal body: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.config.BaseURL+"/notifications", bytes.NewReader(jsonBody))
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

	if resp.StatusCode >= 400 {
		respBody, _ := io.ReadAll(resp.Body)
		return fmt.Errorf("notify api error: status %d: %s", resp.StatusCode, string(respBody))
	}

	return nil
}
