// Package confluence creates pages through the Confluence Cloud REST API.
package confluence

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/Attamusc/epic-digest/internal/config"
	"github.com/Attamusc/epic-digest/internal/logging"
)

const (
	contentPath = "/wiki/rest/api/content"
	userAgent   = "epic-digest/1.0"
)

// Client creates Confluence pages in one space
type Client struct {
	HTTP     *http.Client
	BaseURL  string
	Username string
	Password string
	SpaceKey string
}

// New creates a Confluence client using basic authentication
func New(cfg config.ConfluenceConfig, timeout time.Duration) *Client {
	if timeout <= 0 {
		timeout = config.DefaultHTTPTimeout
	}
	spaceKey := cfg.SpaceKey
	if spaceKey == "" {
		spaceKey = config.DefaultSpaceKey
	}

	return &Client{
		HTTP:     &http.Client{Timeout: timeout},
		BaseURL:  strings.TrimRight(cfg.BaseURL, "/"),
		Username: cfg.Username,
		Password: cfg.Password,
		SpaceKey: spaceKey,
	}
}

type createPageRequest struct {
	Type  string      `json:"type"`
	Title string      `json:"title"`
	Space spaceRef    `json:"space"`
	Body  pageBodyRef `json:"body"`
}

type spaceRef struct {
	Key string `json:"key"`
}

type pageBodyRef struct {
	Storage storageBody `json:"storage"`
}

type storageBody struct {
	Value          string `json:"value"`
	Representation string `json:"representation"`
}

// Page is the metadata of a created page
type Page struct {
	ID     string `json:"id"`
	Type   string `json:"type"`
	Status string `json:"status"`
	Title  string `json:"title"`
	Space  struct {
		Key string `json:"key"`
	} `json:"space"`
	Links struct {
		Base  string `json:"base"`
		WebUI string `json:"webui"`
	} `json:"_links"`

	// Raw is the full decoded response body
	Raw map[string]any `json:"-"`
}

// URL returns the browser link of the page, or "" when the response carried none
func (p *Page) URL() string {
	if p == nil || p.Links.WebUI == "" {
		return ""
	}
	return p.Links.Base + p.Links.WebUI
}

// APIError is returned for non-2xx responses
type APIError struct {
	StatusCode int
	Body       string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("confluence returned HTTP %d: %s", e.StatusCode, e.Body)
}

// CreatePage creates a new page with body as storage-format content.
// Every call creates a new page; on failure the error is logged and a nil page is returned.
func (c *Client) CreatePage(ctx context.Context, title, body string) (*Page, error) {
	logger := logging.FromContext(ctx)

	payload := createPageRequest{
		Type:  "page",
		Title: title,
		Space: spaceRef{Key: c.SpaceKey},
		Body: pageBodyRef{
			Storage: storageBody{Value: body, Representation: "storage"},
		},
	}

	logger.Debug("Creating page", "title", title, "space", c.SpaceKey, "bodyLength", len(body))

	page, err := c.createPage(ctx, payload)
	if err != nil {
		logger.Error("Failed to create page", "title", title, "space", c.SpaceKey, "error", err)
		return nil, fmt.Errorf("failed to create page %q: %w", title, err)
	}

	logger.Info("Page created", "title", title, "id", page.ID, "url", page.URL())
	return page, nil
}

func (c *Client) createPage(ctx context.Context, payload createPageRequest) (*Page, error) {
	data, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.BaseURL+contentPath, bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.SetBasicAuth(c.Username, c.Password)
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")
	req.Header.Set("User-Agent", userAgent)

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
		return nil, &APIError{StatusCode: resp.StatusCode, Body: string(respBody)}
	}

	var page Page
	if err := json.Unmarshal(respBody, &page); err != nil {
		return nil, fmt.Errorf("failed to decode response: %w", err)
	}
	if err := json.Unmarshal(respBody, &page.Raw); err != nil {
		return nil, fmt.Errorf("failed to decode response: %w", err)
	}
	return &page, nil
}
