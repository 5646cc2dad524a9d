package confluence

import (
	"bytes"
	"context"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Attamusc/epic-digest/internal/config"
	"github.com/Attamusc/epic-digest/internal/logging"
)

const createdBody = `{
	"id": "98765",
	"type": "page",
	"status": "current",
	"title": "Epic A status",
	"space": {"key": "ENG"},
	"_links": {"base": "https://example.atlassian.net/wiki", "webui": "/spaces/ENG/pages/98765"}
}`

func newTestClient(t *testing.T, handler http.HandlerFunc) *Client {
	t.Helper()
	server := httptest.NewServer(handler)
	t.Cleanup(server.Close)

	return New(config.ConfluenceConfig{
		BaseURL:  server.URL,
		Username: "wiki@example.com",
		Password: "wiki-token",
		SpaceKey: "ENG",
	}, time.Second)
}

func TestCreatePage_Created(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "/wiki/rest/api/content", r.URL.Path)

		user, pass, ok := r.BasicAuth()
		require.True(t, ok)
		assert.Equal(t, "wiki@example.com", user)
		assert.Equal(t, "wiki-token", pass)

		body, err := io.ReadAll(r.Body)
		require.NoError(t, err)
		assert.JSONEq(t, `{
			"type": "page",
			"title": "Epic A status",
			"space": {"key": "ENG"},
			"body": {"storage": {"value": "<h2>Epic Summary</h2>", "representation": "storage"}}
		}`, string(body))

		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusCreated)
		_, _ = io.WriteString(w, createdBody)
	})

	page, err := client.CreatePage(context.Background(), "Epic A status", "<h2>Epic Summary</h2>")
	require.NoError(t, err)
	require.NotNil(t, page)

	assert.Equal(t, "98765", page.ID)
	assert.Equal(t, "page", page.Type)
	assert.Equal(t, "Epic A status", page.Title)
	assert.Equal(t, "ENG", page.Space.Key)
	assert.Equal(t, "https://example.atlassian.net/wiki/spaces/ENG/pages/98765", page.URL())
	assert.Equal(t, "current", page.Raw["status"])
	assert.Equal(t, map[string]any{"key": "ENG"}, page.Raw["space"])
}

func TestCreatePage_ServerError(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
		_, _ = io.WriteString(w, `{"message":"boom"}`)
	})

	var logs bytes.Buffer
	ctx := logging.WithLogger(context.Background(), logging.NewWithWriter(&logs, logging.Options{}))

	page, err := client.CreatePage(ctx, "Epic A status", "<p/>")
	assert.Nil(t, page)
	require.Error(t, err)

	var apiErr *APIError
	require.True(t, errors.As(err, &apiErr))
	assert.Equal(t, http.StatusInternalServerError, apiErr.StatusCode)
	assert.Contains(t, logs.String(), "Failed to create page")
}

func TestCreatePage_MalformedBody(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = io.WriteString(w, "not json")
	})

	page, err := client.CreatePage(context.Background(), "t", "b")
	assert.Nil(t, page)
	assert.ErrorContains(t, err, "failed to decode response")
}

func TestNew_DefaultSpaceKey(t *testing.T) {
	client := New(config.ConfluenceConfig{BaseURL: "https://x.atlassian.net/"}, 0)
	assert.Equal(t, config.DefaultSpaceKey, client.SpaceKey)
	assert.Equal(t, "https://x.atlassian.net", client.BaseURL)
}

func TestPageURL_Empty(t *testing.T) {
	var page *Page
	assert.Equal(t, "", page.URL())
	assert.Equal(t, "", (&Page{}).URL())
}
