package logging

import (
	"context"
	"io"
	"log/slog"
	"os"
)

type ctxKey struct{}

// WithLogger returns a copy of ctx carrying logger
func WithLogger(ctx context.Context, logger *slog.Logger) context.Context {
	return context.WithValue(ctx, ctxKey{}, logger)
}

// FromContext returns the logger stored in ctx, or slog.Default() if there is none
func FromContext(ctx context.Context) *slog.Logger {
	if ctx != nil {
		if logger, ok := ctx.Value(ctxKey{}).(*slog.Logger); ok && logger != nil {
			return logger
		}
	}
	return slog.Default()
}

// Options controls the logger built by New
type Options struct {
	Verbose    bool
	Quiet      bool
	Timestamps bool
}

// New creates a text logger on stderr
func New(opts Options) *slog.Logger {
	return NewWithWriter(os.Stderr, opts)
}

// NewWithWriter creates a text logger writing to w
func NewWithWriter(w io.Writer, opts Options) *slog.Logger {
	if opts.Quiet {
		// Discard all log output when quiet
		return slog.New(slog.NewTextHandler(io.Discard, &slog.HandlerOptions{
			Level: slog.LevelError + 1,
		}))
	}

	level := slog.LevelInfo
	if opts.Verbose {
		level = slog.LevelDebug
	}

	return slog.New(slog.NewTextHandler(w, &slog.HandlerOptions{
		Level: level,
		ReplaceAttr: func(groups []string, a slog.Attr) slog.Attr {
			// Remove time stamps for cleaner CLI output
			if a.Key == slog.TimeKey && !opts.Timestamps {
				return slog.Attr{}
			}
			return a
		},
	}))
}
