package cmd

import (
	"context"
	"fmt"
	"log/slog"
	"os"

	"github.com/fatih/color"

	"github.com/Attamusc/epic-digest/internal/ai"
	"github.com/Attamusc/epic-digest/internal/config"
	"github.com/Attamusc/epic-digest/internal/confluence"
	"github.com/Attamusc/epic-digest/internal/jira"
	"github.com/Attamusc/epic-digest/internal/logging"
	"github.com/Attamusc/epic-digest/internal/pipeline"
)

var (
	successColor = color.New(color.FgGreen, color.Bold)
	errorColor   = color.New(color.FgRed, color.Bold)
	warningColor = color.New(color.FgYellow)
	infoColor    = color.New(color.FgCyan)
)

// PrintError writes a red error line to stderr
func PrintError(format string, args ...any) {
	errorColor.Fprintf(os.Stderr, "error: "+format+"\n", args...)
}

// loadConfig reads configuration and builds the logger for a command run.
// Missing credentials are reported as warnings; the command still runs.
func loadConfig(timestamps bool) (config.Config, *slog.Logger, error) {
	cfg, err := config.Load(config.Flags{
		ConfigPath: configPath,
		Verbose:    verbose,
		Quiet:      quiet,
	})
	if err != nil {
		return config.Config{}, nil, fmt.Errorf("configuration error: %w", err)
	}

	logger := setupLogger(cfg, timestamps)
	for _, name := range cfg.Missing() {
		logger.Warn("Required setting is not set", "name", name)
	}
	return cfg, logger, nil
}

// setupLogger creates a logger configured for progress output on stderr
func setupLogger(cfg config.Config, timestamps bool) *slog.Logger {
	return logging.New(logging.Options{
		Verbose:    cfg.Verbose,
		Quiet:      cfg.Quiet,
		Timestamps: timestamps,
	})
}

// initSummarizer creates the appropriate AI summarizer based on configuration
func initSummarizer(cfg config.Config, logger *slog.Logger) ai.Summarizer {
	if cfg.Models.Enabled {
		logger.Debug("AI summarization enabled", "model", cfg.Models.Model)
		return ai.NewOpenAIClient(cfg.Models, cfg.HTTPTimeout)
	}
	logger.Debug("AI summarization disabled")
	return ai.NewNoopSummarizer()
}

// newRunner wires the tracker, summarizer and wiki clients into a pipeline
func newRunner(cfg config.Config, tracker *jira.Client, logger *slog.Logger) *pipeline.Runner {
	return &pipeline.Runner{
		Issues:        tracker,
		Summarizer:    initSummarizer(cfg, logger),
		Publisher:     confluence.New(cfg.Confluence, cfg.HTTPTimeout),
		BrowseBaseURL: cfg.Jira.BaseURL,
	}
}

// commandContext returns the command's context carrying logger
func commandContext(ctx context.Context, logger *slog.Logger) context.Context {
	if ctx == nil {
		ctx = context.Background()
	}
	return logging.WithLogger(ctx, logger)
}
