package jira

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strings"

	"github.com/Attamusc/epic-digest/internal/adf"
	"github.com/Attamusc/epic-digest/internal/logging"
)

// DefaultIssueType is used by CreateIssue when no type is given
const DefaultIssueType = "Task"

// NewIssue describes an issue to create
type NewIssue struct {
	ProjectKey  string
	Summary     string
	Description string
	IssueType   string
}

type createIssueRequest struct {
	Fields createIssueFields `json:"fields"`
}

type createIssueFields struct {
	Project     keyRef       `json:"project"`
	Summary     string       `json:"summary"`
	Description adf.Document `json:"description"`
	IssueType   nameRef      `json:"issuetype"`
}

type keyRef struct {
	Key string `json:"key"`
}

type nameRef struct {
	Name string `json:"name"`
}

// ProjectJQL selects every issue of a project, with the key quoted as a JQL string
func ProjectJQL(projectKey string) string {
	escaped := strings.NewReplacer(`\`, `\\`, `"`, `\"`).Replace(projectKey)
	return fmt.Sprintf(`project = "%s"`, escaped)
}

// SearchProject returns the raw search response for every issue of a project
func (c *Client) SearchProject(ctx context.Context, projectKey string) (json.RawMessage, error) {
	logger := logging.FromContext(ctx)

	query := url.Values{}
	query.Set("jql", ProjectJQL(projectKey))

	body, err := c.do(ctx, http.MethodGet, "/search", query, nil)
	if err != nil {
		logger.Error("Failed to search project issues", "project", projectKey, "error", err)
		return nil, fmt.Errorf("failed to search issues of %s: %w", projectKey, err)
	}
	if !json.Valid(body) {
		logger.Error("Search returned malformed JSON", "project", projectKey)
		return nil, fmt.Errorf("failed to decode search response for %s", projectKey)
	}
	return body, nil
}

// CreateIssue creates an issue and returns the raw creation response
func (c *Client) CreateIssue(ctx context.Context, issue NewIssue) (json.RawMessage, error) {
	logger := logging.FromContext(ctx)

	issueType := issue.IssueType
	if issueType == "" {
		issueType = DefaultIssueType
	}

	payload := createIssueRequest{
		Fields: createIssueFields{
			Project:     keyRef{Key: issue.ProjectKey},
			Summary:     issue.Summary,
			Description: adf.FromText(issue.Description),
			IssueType:   nameRef{Name: issueType},
		},
	}

	logger.Debug("Creating issue", "project", issue.ProjectKey, "type", issueType)

	body, err := c.do(ctx, http.MethodPost, "/issue", nil, payload)
	if err != nil {
		logger.Error("Failed to create issue", "project", issue.ProjectKey, "error", err)
		return nil, fmt.Errorf("failed to create issue in %s: %w", issue.ProjectKey, err)
	}
	if !json.Valid(body) {
		return nil, fmt.Errorf("failed to decode create response for %s", issue.ProjectKey)
	}

	logger.Info("Issue created", "project", issue.ProjectKey)
	return body, nil
}

// ListProjects returns the raw list of projects visible to the account
func (c *Client) ListProjects(ctx context.Context) (json.RawMessage, error) {
	body, err := c.do(ctx, http.MethodGet, "/project", nil, nil)
	if err != nil {
		logging.FromContext(ctx).Error("Failed to list projects", "error", err)
		return nil, fmt.Errorf("failed to list projects: %w", err)
	}
	if !json.Valid(body) {
		return nil, fmt.Errorf("failed to decode project list")
	}
	return body, nil
}
