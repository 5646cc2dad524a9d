// Package pipeline turns one epic into one documentation page:
// fetch, aggregate comments, format, summarize, publish.
package pipeline

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/Attamusc/epic-digest/internal/ai"
	"github.com/Attamusc/epic-digest/internal/confluence"
	"github.com/Attamusc/epic-digest/internal/format"
	"github.com/Attamusc/epic-digest/internal/input"
	"github.com/Attamusc/epic-digest/internal/jira"
	"github.com/Attamusc/epic-digest/internal/logging"
)

// Stage names used in StageError
const (
	StageInput     = "input"
	StageEpic      = "fetch epic"
	StageStories   = "fetch stories"
	StageFormat    = "format"
	StageSummarize = "summarize"
	StagePublish   = "publish"
)

// IssueSource fetches the epic and its child issues
type IssueSource interface {
	FetchIssue(ctx context.Context, key string, fields []string) (*jira.Record, error)
	FetchChildren(ctx context.Context, parentKey string, fields []string) ([]jira.Record, error)
}

// Publisher creates documentation pages
type Publisher interface {
	CreatePage(ctx context.Context, title, body string) (*confluence.Page, error)
}

// Runner wires the external clients together. It holds no per-run state and is safe for concurrent use.
type Runner struct {
	Issues        IssueSource
	Summarizer    ai.Summarizer
	Publisher     Publisher
	BrowseBaseURL string   // base URL used for the epic link line
	Fields        []string // defaults to jira.DefaultFields
}

// Request is one pipeline invocation
type Request struct {
	EpicKey   string
	PageTitle string
	DryRun    bool // stop after summarizing
}

// Result carries the intermediate and final products of a run
type Result struct {
	EpicKey   string
	EpicTitle string
	PageTitle string
	Stories   int
	Prompt    string
	Markup    string
	Page      *confluence.Page // nil on dry runs
}

// StageError reports which stage aborted a run
type StageError struct {
	Stage string
	Err   error
}

func (e *StageError) Error() string {
	return fmt.Sprintf("%s: %v", e.Stage, e.Err)
}

func (e *StageError) Unwrap() error {
	return e.Err
}

// FailedStage returns the stage of a StageError, or "" for any other error
func FailedStage(err error) string {
	var stageErr *StageError
	if errors.As(err, &stageErr) {
		return stageErr.Stage
	}
	return ""
}

// Run executes the stages in order; the first failure aborts the rest
func (r *Runner) Run(ctx context.Context, req Request) (*Result, error) {
	logger := logging.FromContext(ctx)

	key, err := input.ParseIssueKey(req.EpicKey)
	if err != nil {
		return nil, &StageError{Stage: StageInput, Err: err}
	}
	title := strings.TrimSpace(req.PageTitle)
	if title == "" && !req.DryRun {
		return nil, &StageError{Stage: StageInput, Err: errors.New("page title is empty")}
	}

	fields := r.Fields
	if len(fields) == 0 {
		fields = jira.DefaultFields
	}

	logger.Info("Generating epic page", "epic", key, "title", title, "dryRun", req.DryRun)

	epic, err := r.Issues.FetchIssue(ctx, key, fields)
	if err != nil {
		return nil, &StageError{Stage: StageEpic, Err: err}
	}
	if epic == nil {
		return nil, &StageError{Stage: StageEpic, Err: fmt.Errorf("no data returned for %s", key)}
	}

	stories, err := r.Issues.FetchChildren(ctx, key, fields)
	if err != nil {
		return nil, &StageError{Stage: StageStories, Err: err}
	}

	records := append([]jira.Record{*epic}, stories...)
	parent, children, err := format.Split(records)
	if err != nil {
		return nil, &StageError{Stage: StageFormat, Err: err}
	}

	prompt := format.Prompt(parent, children, format.IssueURL(r.BrowseBaseURL, key))
	logger.Debug("Produced model prompt", "epic", key, "stories", len(children), "length", len(prompt))

	markup, err := r.Summarizer.Summarize(ctx, prompt)
	if err != nil {
		return nil, &StageError{Stage: StageSummarize, Err: err}
	}

	result := &Result{
		EpicKey:   key,
		EpicTitle: parent.Title,
		PageTitle: title,
		Stories:   len(children),
		Prompt:    prompt,
		Markup:    markup,
	}

	if req.DryRun {
		logger.Info("Dry run, page not published", "epic", key)
		return result, nil
	}

	page, err := r.Publisher.CreatePage(ctx, title, markup)
	if err != nil {
		return nil, &StageError{Stage: StagePublish, Err: err}
	}
	result.Page = page

	logger.Info("Epic page published", "epic", key, "title", title, "url", page.URL())
	return result, nil
}
