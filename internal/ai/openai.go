package ai

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"math"
	"math/rand"
	"net/http"
	"strconv"
	"strings"
	"time"

	"golang.org/x/oauth2"

	"github.com/Attamusc/epic-digest/internal/config"
	"github.com/Attamusc/epic-digest/internal/logging"
)

// OpenAIClient implements Summarizer using an OpenAI-compatible chat completions API
type OpenAIClient struct {
	HTTP       *http.Client
	BaseURL    string
	Model      string
	RetryDelay time.Duration // base delay of the exponential backoff
	MaxWait    time.Duration // upper bound on any single wait, including Retry-After
}

// NewOpenAIClient creates a client authenticating with a static bearer key
func NewOpenAIClient(cfg config.ModelsConfig, timeout time.Duration) *OpenAIClient {
	if timeout <= 0 {
		timeout = config.DefaultHTTPTimeout
	}

	ts := oauth2.StaticTokenSource(&oauth2.Token{AccessToken: cfg.APIKey})

	return &OpenAIClient{
		HTTP: &http.Client{
			Timeout: timeout,
			Transport: &oauth2.Transport{
				Source: ts,
				Base:   http.DefaultTransport,
			},
		},
		BaseURL:    strings.TrimRight(cfg.BaseURL, "/"),
		Model:      cfg.Model,
		RetryDelay: baseDelay,
		MaxWait:    maxRetryAfter,
	}
}

// chatCompletionRequest represents the OpenAI-compatible request format
type chatCompletionRequest struct {
	Model       string    `json:"model"`
	Messages    []message `json:"messages"`
	Temperature float64   `json:"temperature"`
}

type message struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

// chatCompletionResponse represents the OpenAI-compatible response format
type chatCompletionResponse struct {
	Choices []choice `json:"choices"`
}

type choice struct {
	Message message `json:"message"`
}

const (
	temperature = 0
	maxRetries  = 2 // retries after the first attempt
	baseDelay   = 1 * time.Second

	maxRetryAfter = 30 * time.Second
	userAgent   = "epic-digest/1.0"
)

// Summarize sends the formatted block with the fixed template and returns the generated text verbatim
func (c *OpenAIClient) Summarize(ctx context.Context, question string) (string, error) {
	logger := logging.FromContext(ctx)

	request := chatCompletionRequest{
		Model:       c.Model,
		Temperature: temperature,
		Messages:    buildMessages(question),
	}

	logger.Debug("Starting AI API request", "model", c.Model, "temperature", temperature, "maxRetries", maxRetries)

	var lastErr error
	for attempt := 0; attempt <= maxRetries; attempt++ {
		if attempt > 0 {
			delay := c.backoff(attempt, lastErr)
			logger.Debug("AI API retry backoff", "attempt", attempt, "delay", delay)
			select {
			case <-ctx.Done():
				return "", ctx.Err()
			case <-time.After(delay):
			}
		}

		logger.Debug("AI API request attempt", "attempt", attempt+1, "maxAttempts", maxRetries+1)
		response, err := c.makeHTTPRequest(ctx, request)
		if err != nil {
			lastErr = err
			if ctx.Err() != nil {
				return "", ctx.Err()
			}
			if isTransient(err) {
				logger.Warn("AI API transient failure", "attempt", attempt+1, "error", err)
				continue
			}

			logger.Error("AI API request failed", "attempt", attempt+1, "error", err)
			return "", fmt.Errorf("chat completion request failed: %w", err)
		}

		if len(response.Choices) == 0 {
			logger.Error("AI API returned empty response")
			return "", fmt.Errorf("chat completion API returned empty response")
		}

		summary := response.Choices[0].Message.Content
		logger.Info("AI summary generated", "model", c.Model, "attempt", attempt+1, "length", len(summary))
		return summary, nil
	}

	logger.Error("AI API failed after all retries", "maxRetries", maxRetries, "error", lastErr)
	return "", fmt.Errorf("chat completion API failed after %d retries: %w", maxRetries, lastErr)
}

// backoff returns the wait before the given retry attempt, honouring Retry-After on rate limits.
// The result never exceeds MaxWait.
func (c *OpenAIClient) backoff(attempt int, lastErr error) time.Duration {
	var httpErr *HTTPError
	if errors.As(lastErr, &httpErr) && httpErr.StatusCode == http.StatusTooManyRequests {
		if seconds, err := strconv.Atoi(httpErr.Headers.Get("Retry-After")); err == nil && seconds >= 0 {
			return c.capWait(time.Duration(seconds) * time.Second)
		}
	}

	// Jittered exponential backoff
	delay := time.Duration(float64(c.RetryDelay) * math.Pow(2, float64(attempt-1)))
	jitter := time.Duration(rand.Float64() * float64(delay) * 0.1) // 10% jitter
	return c.capWait(delay + jitter)
}

func (c *OpenAIClient) capWait(d time.Duration) time.Duration {
	limit := c.MaxWait
	if limit <= 0 {
		limit = maxRetryAfter
	}
	// Large Retry-After values overflow into negative durations
	if d < 0 || d > limit {
		return limit
	}
	return d
}

// isTransient reports whether a failed request is worth retrying
func isTransient(err error) bool {
	var httpErr *HTTPError
	if errors.As(err, &httpErr) {
		return httpErr.StatusCode == http.StatusTooManyRequests || httpErr.StatusCode >= 500
	}
	var transportErr *transportError
	return errors.As(err, &transportErr)
}

// makeHTTPRequest performs the actual HTTP request
func (c *OpenAIClient) makeHTTPRequest(ctx context.Context, request chatCompletionRequest) (*chatCompletionResponse, error) {
	requestBody, err := json.Marshal(request)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal request: %w", err)
	}

	url := c.BaseURL + "/chat/completions"
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewBuffer(requestBody))
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}

	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("User-Agent", userAgent)

	resp, err := c.HTTP.Do(req)
	if err != nil {
		return nil, &transportError{err: err}
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, &transportError{err: fmt.Errorf("failed to read response body: %w", err)}
	}

	if resp.StatusCode != http.StatusOK {
		return nil, &HTTPError{
			StatusCode: resp.StatusCode,
			Body:       string(body),
			Headers:    resp.Header,
		}
	}

	var response chatCompletionResponse
	if err := json.Unmarshal(body, &response); err != nil {
		return nil, fmt.Errorf("failed to unmarshal response: %w", err)
	}

	return &response, nil
}

// HTTPError represents an HTTP error response
type HTTPError struct {
	StatusCode int
	Body       string
	Headers    http.Header
}

func (e *HTTPError) Error() string {
	return fmt.Sprintf("HTTP %d: %s", e.StatusCode, e.Body)
}

// transportError marks failures below HTTP, such as refused connections
type transportError struct {
	err error
}

func (e *transportError) Error() string {
	return "HTTP request failed: " + e.err.Error()
}

func (e *transportError) Unwrap() error {
	return e.err
}
