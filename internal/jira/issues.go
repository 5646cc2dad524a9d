package jira

import (
	"context"
	"fmt"
	"net/url"
	"strconv"
	"strings"

	"github.com/Attamusc/epic-digest/internal/logging"
)

// searchResponse is the relevant subset of the search endpoint response
type searchResponse struct {
	StartAt    int        `json:"startAt"`
	MaxResults int        `json:"maxResults"`
	Total      int        `json:"total"`
	Issues     []rawIssue `json:"issues"`
}

// FetchIssue retrieves one issue restricted to fields and returns it as an epic record.
// On failure the error is logged and a nil record is returned.
func (c *Client) FetchIssue(ctx context.Context, key string, fields []string) (*Record, error) {
	logger := logging.FromContext(ctx)

	query := url.Values{}
	query.Set("fields", strings.Join(apiFields(fields), ","))

	logger.Debug("Fetching issue", "issue", key, "fields", query.Get("fields"))

	var issue rawIssue
	if err := c.getJSON(ctx, "/issue/"+url.PathEscape(key), query, &issue); err != nil {
		err = enhanceError(err, key)
		logger.Error("Failed to fetch issue", "issue", key, "error", err)
		return nil, fmt.Errorf("failed to fetch issue %s: %w", key, err)
	}

	if issue.Key == "" {
		issue.Key = key
	}

	logger.Info("Issue fetched", "issue", issue.Key)

	record := BuildRecord(issue, fields, CategoryEpic, c.CommentText(ctx, issue.Key))
	return &record, nil
}

// FetchChildren retrieves the issues whose parent is parentKey as story records.
// On failure the error is logged and a nil slice is returned.
func (c *Client) FetchChildren(ctx context.Context, parentKey string, fields []string) ([]Record, error) {
	logger := logging.FromContext(ctx)

	query := url.Values{}
	query.Set("jql", c.ChildJQL(parentKey))
	query.Set("fields", strings.Join(apiFields(fields), ","))
	query.Set("maxResults", strconv.Itoa(c.MaxResults))
	query.Set("startAt", "0")

	logger.Debug("Fetching child issues", "parent", parentKey, "jql", query.Get("jql"), "maxResults", c.MaxResults)

	var resp searchResponse
	if err := c.getJSON(ctx, "/search", query, &resp); err != nil {
		err = enhanceError(err, parentKey)
		logger.Error("Failed to fetch child issues", "parent", parentKey, "error", err)
		return nil, fmt.Errorf("failed to fetch children of %s: %w", parentKey, err)
	}

	logger.Info("Child issues fetched", "parent", parentKey, "count", len(resp.Issues), "total", resp.Total)

	records := make([]Record, 0, len(resp.Issues))
	for _, issue := range resp.Issues {
		records = append(records, BuildRecord(issue, fields, CategoryStory, c.CommentText(ctx, issue.Key)))
	}
	return records, nil
}

// ChildJQL renders the JQL query selecting the children of parentKey
func (c *Client) ChildJQL(parentKey string) string {
	return fmt.Sprintf(c.EpicJQL, parentKey)
}
