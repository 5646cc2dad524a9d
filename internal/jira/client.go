// Package jira talks to the Jira Cloud REST API (v3).
package jira

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/Attamusc/epic-digest/internal/config"
)

const (
	userAgent = "epic-digest/1.0"
	apiPrefix = "/rest/api/3"
)

// Client is an authenticated Jira REST client
type Client struct {
	HTTP       *http.Client
	BaseURL    string
	EpicJQL    string
	MaxResults int
}

// New creates a Jira client using basic authentication (email + API token)
func New(cfg config.JiraConfig, timeout time.Duration) *Client {
	if timeout <= 0 {
		timeout = config.DefaultHTTPTimeout
	}

	jql := cfg.EpicJQL
	if jql == "" {
		jql = config.DefaultEpicJQL
	}

	maxResults := cfg.MaxResults
	if maxResults <= 0 {
		maxResults = config.DefaultMaxResults
	}

	return &Client{
		HTTP: &http.Client{
			Timeout: timeout,
			Transport: &basicAuthTransport{
				username: cfg.Email,
				password: cfg.APIToken,
				base:     http.DefaultTransport,
			},
		},
		BaseURL:    strings.TrimRight(cfg.BaseURL, "/"),
		EpicJQL:    jql,
		MaxResults: maxResults,
	}
}

// basicAuthTransport decorates every request with credentials and JSON headers
type basicAuthTransport struct {
	username string
	password string
	base     http.RoundTripper
}

// RoundTrip implements http.RoundTripper
func (t *basicAuthTransport) RoundTrip(req *http.Request) (*http.Response, error) {
	// RoundTrippers must not modify the caller's request
	clone := req.Clone(req.Context())
	clone.SetBasicAuth(t.username, t.password)
	clone.Header.Set("Accept", "application/json")
	clone.Header.Set("User-Agent", userAgent)
	if clone.Body != nil && clone.Header.Get("Content-Type") == "" {
		clone.Header.Set("Content-Type", "application/json")
	}
	return t.base.RoundTrip(clone)
}

// APIError is returned for non-2xx responses
type APIError struct {
	Method     string
	URL        string
	StatusCode int
	Body       string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("jira %s %s returned HTTP %d: %s", e.Method, e.URL, e.StatusCode, e.Body)
}

// do performs a request against the API and returns the raw response body
func (c *Client) do(ctx context.Context, method, path string, query url.Values, payload any) ([]byte, error) {
	endpoint := c.BaseURL + apiPrefix + path
	if len(query) > 0 {
		endpoint += "?" + query.Encode()
	}

	var body io.Reader
	if payload != nil {
		data, err := json.Marshal(payload)
		if err != nil {
			return nil, fmt.Errorf("failed to marshal request: %w", err)
		}
		body = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, endpoint, body)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}

	resp, err := c.HTTP.Do(req)
	if err != nil {
		return nil, fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read response body: %w", err)
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, &APIError{
			Method:     method,
			URL:        c.BaseURL + apiPrefix + path,
			StatusCode: resp.StatusCode,
			Body:       string(respBody),
		}
	}

	return respBody, nil
}

// getJSON performs a GET request and decodes the response into out
func (c *Client) getJSON(ctx context.Context, path string, query url.Values, out any) error {
	body, err := c.do(ctx, http.MethodGet, path, query, nil)
	if err != nil {
		return err
	}
	if err := json.Unmarshal(body, out); err != nil {
		return fmt.Errorf("failed to decode response: %w", err)
	}
	return nil
}

// enhanceError adds a hint for the common credential and permission failures
func enhanceError(err error, key string) error {
	var apiErr *APIError
	if !errors.As(err, &apiErr) {
		return err
	}

	switch apiErr.StatusCode {
	case http.StatusUnauthorized:
		return fmt.Errorf("jira authentication failed for %s, check JIRA_EMAIL and JIRA_API_TOKEN: %w", key, err)
	case http.StatusForbidden:
		return fmt.Errorf("jira access denied for %s, the account may lack browse permission: %w", key, err)
	case http.StatusNotFound:
		return fmt.Errorf("jira issue %s not found or not visible to this account: %w", key, err)
	}
	return err
}
