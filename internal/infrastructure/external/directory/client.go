// Package directory implements the HTTP client for the user directory
// service. The directory owns identity, roles, and account status; the
// core consults it on every admission decision and never caches the
// answer, because a suspended account must be rejected immediately.
package directory

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"time"

	"github.com/roastery-academy/training-hub/internal/domain/shared"
	"github.com/roastery-academy/training-hub/pkg/circuitbreaker"
	"github.com/roastery-academy/training-hub/pkg/retry"
)

// ══════════════════════════════════════════════════════════════════════════════
// CONFIGURATION
// ══════════════════════════════════════════════════════════════════════════════

// ClientConfig contains configuration for the directory client.
type ClientConfig struct {
	// BaseURL is the directory service base URL
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

// Client is the user directory HTTP client. It implements
// shared.Directory.
type Client struct {
	config         ClientConfig
	httpClient     *http.Client
	logger         *slog.Logger
	circuitBreaker *circuitbreaker.CircuitBreaker
	retrier        *retry.Retrier
}

// NewClient creates a new directory client.
func NewClient(config ClientConfig) *Client {
	if config.Logger == nil {
		config.Logger = slog.Default()
	}

	c := &Client{
		config: config,
		httpClient: &http.Client{
			Timeout: config.Timeout,
		},
		logger:  config.Logger,
		retrier: retry.DirectoryRetrier(),
	}

	c.circuitBreaker = circuitbreaker.DirectoryBreaker(func(name string, from, to circuitbreaker.State) {
		c.logger.Warn("circuit breaker state change",
			"breaker", name,
			"from", from,
			"to", to,
		)
	})

	return c
}

// ══════════════════════════════════════════════════════════════════════════════
// DIRECTORY OPERATIONS
// ══════════════════════════════════════════════════════════════════════════════

// userDTO is the wire representation of a directory record.
type userDTO struct {
	ID     string `json:"id"`
	Role   string `json:"role"`
	Status string `json:"status"`
}

// GetUser fetches identity, role and status for a user ID.
func (c *Client) GetUser(ctx context.Context, id string) (shared.User, error) {
	path := fmt.Sprintf("/users/%s", url.PathEscape(id))

	var dto userDTO
	if err := c.doRequest(ctx, http.MethodGet, path, &dto); err != nil {
		if errors.Is(err, errStatusNotFound) {
			return shared.User{}, shared.WrapError("directory", "GetUser", shared.ErrNotFound, "user not found", err)
		}
		return shared.User{}, shared.WrapError("directory", "GetUser", shared.ErrServiceUnavailable, "directory request failed", err)
	}

	return shared.User{
		ID:     dto.ID,
		Role:   shared.Role(dto.Role),
		Status: dto.Status,
	}, nil
}

// IsHealthy checks if the directory service is reachable.
func (c *Client) IsHealthy(ctx context.Context) bool {
	return c.doSingleRequest(ctx, http.MethodGet, "/health", nil) == nil
}

// ══════════════════════════════════════════════════════════════════════════════
// HTTP REQUEST HELPERS
// ══════════════════════════════════════════════════════════════════════════════

var errStatusNotFound = errors.New("directory: user not found")

// doRequest performs an HTTP request with circuit breaking and retries.
// The directory API is read-only from this side, so there is no request
// body to carry.
func (c *Client) doRequest(ctx context.Context, method, path string, result interface{}) error {
	return c.circuitBreaker.Execute(ctx, func(ctx context.Context) error {
		return c.retrier.Do(ctx, func(ctx context.Context) error {
			err := c.doSingleRequest(ctx, method, path, result)
			if err == nil {
				return nil
			}
			// A 404 is an answer, not an outage, so never retry it.
			if errors.Is(err, errStatusNotFound) {
				return retry.Permanent(err)
			}
			return retry.Retryable(err)
		})
	})
}

// doSingleRequest performs a single HTTP request.
func (c *Client) doSingleRequest(ctx context.Context, method, path string, result interface{}) error {
	fullURL := c.config.BaseURL + path

	req, err := http.NewRequestWithContext(ctx, method, fullURL, nil)
	if err != nil {
		return fmt.Errorf("create request: %w", err)
	}

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

	switch {
	case resp.StatusCode == http.StatusNotFound:
		return errStatusNotFound
	case resp.StatusCode >= 400:
		return fmt.Errorf("directory api error: status %d: %s", resp.StatusCode, string(respBody))
	}

	if result != nil && len(respBody) > 0 {
		if err := json.Unmarshal(respBody, result); err != nil {
			return fmt.Errorf("unmarshal response: %w", err)
		}
	}

	return nil
}
