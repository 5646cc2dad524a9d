package ai

import (
	"context"
	"html"
	"strings"
)

// Summarizer turns the formatted epic block into Confluence storage-format markup
type Summarizer interface {
	// Summarize returns the generated markup verbatim
	Summarize(ctx context.Context, question string) (string, error)
}

// NoopSummarizer provides a fallback implementation that publishes the raw block without AI processing
type NoopSummarizer struct{}

// NewNoopSummarizer creates a new no-op summarizer
func NewNoopSummarizer() *NoopSummarizer {
	return &NoopSummarizer{}
}

// Summarize wraps the escaped block in a preformatted element
func (n *NoopSummarizer) Summarize(_ context.Context, question string) (string, error) {
	return "<pre>" + html.EscapeString(strings.TrimSpace(question)) + "</pre>", nil
}
