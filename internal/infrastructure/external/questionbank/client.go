// Package questionbank implements the HTTP client for the exam content
// store. Exams and their questions are authored there; this core only
// reads them, and usually through the Redis read-through cache rather
// than directly.
package questionbank

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

	"github.com/roastery-academy/training-hub/internal/domain/exam"
	"github.com/roastery-academy/training-hub/internal/domain/shared"
	"github.com/roastery-academy/training-hub/pkg/circuitbreaker"
	"github.com/roastery-academy/training-hub/pkg/retry"
)

// ══════════════════════════════════════════════════════════════════════════════
// CONFIGURATION
// ══════════════════════════════════════════════════════════════════════════════

// ClientConfig contains configuration for the question bank client.
type ClientConfig struct {
	// BaseURL is the question bank base URL
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
		Timeout: 15 * time.Second,
	}
}

// ══════════════════════════════════════════════════════════════════════════════
// CLIENT
// ══════════════════════════════════════════════════════════════════════════════

// Client is the question bank HTTP client. It implements
// exam.QuestionBank.
type Client struct {
	config         ClientConfig
	httpClient     *http.Client
	logger         *slog.Logger
	circuitBreaker *circuitbreaker.CircuitBreaker
	retrier        *retry.Retrier
}

// NewClient creates a new question bank client.
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

	c.circuitBreaker = circuitbreaker.QuestionBankBreaker(func(name string, from, to circuitbreaker.State) {
		c.logger.Warn("circuit breaker state change",
			"breaker", name,
			"from", from,
			"to", to,
		)
	})

	return c
}

// ══════════════════════════════════════════════════════════════════════════════
// DTO & MAPPING
// ══════════════════════════════════════════════════════════════════════════════

// questionDTO is the wire representation of one question.
type questionDTO struct {
	ID            string   `json:"id"`
	Text          string   `json:"text"`
	Type          string   `json:"type"`
	Options       []string `json:"options,omitempty"`
	CorrectAnswer string   `json:"correct_answer,omitempty"`
	Points        int      `json:"points"`
}

// examDTO is the wire representation of one exam.
type examDTO struct {
	ID              string        `json:"id"`
	SessionID       string        `json:"session_id"`
	Title           string        `json:"title"`
	Description     string        `json:"description,omitempty"`
	DurationMinutes int           `json:"duration_minutes"`
	PassingScore    float64       `json:"passing_score"`
	Questions       []questionDTO `json:"questions"`
}

// toDomain maps the wire representation to the domain entity.
func (d examDTO) toDomain() *exam.Exam {
	questions := make([]exam.Question, 0, len(d.Questions))
	for _, q := range d.Questions {
		questions = append(questions, exam.Question{
			ID:            q.ID,
			Text:          q.Text,
			Type:          exam.QuestionType(q.Type),
			Options:       q.Options,
			CorrectAnswer: q.CorrectAnswer,
			Points:        q.Points,
		})
	}

	return &exam.Exam{
		ID:              d.ID,
		SessionID:       d.SessionID,
		Title:           d.Title,
		Description:     d.Description,
		DurationMinutes: d.DurationMinutes,
		PassingScore:    d.PassingScore,
		Questions:       questions,
	}
}

// ══════════════════════════════════════════════════════════════════════════════
// QUESTION BANK OPERATIONS
// ══════════════════════════════════════════════════════════════════════════════

// GetExam fetches an exam with its ordered questions.
func (c *Client) GetExam(ctx context.Context, examID string) (*exam.Exam, error) {
	path := fmt.Sprintf("/exams/%s", url.PathEscape(examID))

	var dto examDTO
	if err := c.doRequest(ctx, http.MethodGet, path, &dto); err != nil {
		if errors.Is(err, errStatusNotFound) {
			return nil, exam.ErrExamNotFound
		}
		return nil, shared.WrapError("questionbank", "GetExam", shared.ErrServiceUnavailable, "question bank request failed", err)
	}

	return dto.toDomain(), nil
}

// IsHealthy checks if the question bank is reachable.
func (c *Client) IsHealthy(ctx context.Context) bool {
	return c.doSingleRequest(ctx, http.MethodGet, "/health", nil) == nil
}

// ══════════════════════════════════════════════════════════════════════════════
// HTTP REQUEST HELPERS
// ══════════════════════════════════════════════════════════════════════════════

var errStatusNotFound = errors.New("questionbank: exam not found")

// doRequest performs an HTTP request with circuit breaking and retries.
func (c *Client) doRequest(ctx context.Context, method, path string, result interface{}) error {
	return c.circuitBreaker.Execute(ctx, func(ctx context.Context) error {
		return c.retrier.Do(ctx, func(ctx context.Context) error {
			err := c.doSingleRequest(ctx, method, path, result)
			if err == nil {
				return nil
			}
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
		return fmt.Errorf("question bank api error: status %d: %s", resp.StatusCode, string(respBody))
	}

	if result != nil && len(respBody) > 0 {
		if err := json.Unmarshal(respBody, result); err != nil {
			return fmt.Errorf("unmarshal response: %w", err)
		}
	}

	return nil
}
