package jira

import (
	"context"
	"encoding/json"
	"fmt"
	"net/url"
	"strings"

	"github.com/Attamusc/epic-digest/internal/adf"
	"github.com/Attamusc/epic-digest/internal/logging"
)

// Comment is the flat form of one issue comment
type Comment struct {
	Author string
	Text   string
}

type rawComment struct {
	Author struct {
		DisplayName string `json:"displayName"`
	} `json:"author"`
	Body json.RawMessage `json:"body"`
}

type commentsResponse struct {
	StartAt  int          `json:"startAt"`
	Total    int          `json:"total"`
	Comments []rawComment `json:"comments"`
}

// FetchComments retrieves the comments of an issue in the order the API returns them
func (c *Client) FetchComments(ctx context.Context, key string) ([]Comment, error) {
	logger := logging.FromContext(ctx)
	logger.Debug("Fetching comments", "issue", key)

	var resp commentsResponse
	if err := c.getJSON(ctx, "/issue/"+url.PathEscape(key)+"/comment", nil, &resp); err != nil {
		err = enhanceError(err, key)
		logger.Error("Failed to fetch comments", "issue", key, "error", err)
		return nil, fmt.Errorf("failed to fetch comments for %s: %w", key, err)
	}

	comments := make([]Comment, 0, len(resp.Comments))
	for _, raw := range resp.Comments {
		comments = append(comments, Comment{
			Author: raw.Author.DisplayName,
			Text:   adf.Text(raw.Body),
		})
	}

	logger.Debug("Comments fetched", "issue", key, "count", len(comments))
	return comments, nil
}

// CommentText returns the aggregated comments of an issue, or "" if they cannot be fetched
func (c *Client) CommentText(ctx context.Context, key string) string {
	comments, err := c.FetchComments(ctx, key)
	if err != nil {
		return ""
	}
	return AggregateComments(comments)
}

// AggregateComments renders comments as "{position}. {author}: {text};" lines, positions starting at 0
func AggregateComments(comments []Comment) string {
	lines := make([]string, 0, len(comments))
	for i, comment := range comments {
		lines = append(lines, fmt.Sprintf("%d. %s: %s;", i, comment.Author, comment.Text))
	}
	return strings.Join(lines, "\n")
}
