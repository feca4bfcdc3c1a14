package treeman

import (
	"context"
	"io"
	"log/slog"
	"os"

	"github.com/hupe1980/treeman/internal/logging"
)

// Logger wraps slog.Logger with treeman-specific context.
// This provides structured logging with consistent field names.
type Logger struct {
	*slog.Logger
}

// NewLogger creates a new Logger with the given handler.
// If handler is nil, uses default text handler to stderr.
func NewLogger(handler slog.Handler) *Logger {
	if handler == nil {
		handler = slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{
			Level: slog.LevelInfo,
		})
	}
	return &Logger{
		Logger: slog.New(handler),
	}
}

// NewJSONLogger creates a Logger that outputs JSON-formatted logs.
// level sets the minimum log level (e.g., slog.LevelDebug, slog.LevelInfo).
func NewJSONLogger(level slog.Level) *Logger {
	handler := slog.NewJSONHandler(os.Stderr, &slog.HandlerOptions{
		Level: level,
	})
	return &Logger{
		Logger: slog.New(handler),
	}
}

// NewTextLogger creates a Logger that outputs human-readable text logs.
func NewTextLogger(level slog.Level) *Logger {
	handler := slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{
		Level: level,
	})
	return &Logger{
		Logger: slog.New(handler),
	}
}

// NoopLogger creates a Logger that discards all log output.
func NoopLogger() *Logger {
	return &Logger{
		Logger: slog.New(slog.NewTextHandler(io.Discard, nil)),
	}
}

// WithIndex adds an index name field to the logger.
func (l *Logger) WithIndex(name string) *Logger {
	return &Logger{
		Logger: l.Logger.With(logging.KeyIndex, name),
	}
}

// WithLevel adds a history level field to the logger.
func (l *Logger) WithLevel(level int) *Logger {
	return &Logger{
		Logger: l.Logger.With(logging.KeyHistoryLevel, level),
	}
}

// LogFilter logs a filter commit.
func (l *Logger) LogFilter(ctx context.Context, label string, in, out int, err error) {
	logging.Filter(ctx, l.Logger, label, in, out, err)
}

// LogIndexBuild logs an index build.
func (l *Logger) LogIndexBuild(ctx context.Context, name, kind string, records int, err error) {
	logging.IndexBuild(ctx, l.Logger, name, kind, records, err)
}

// LogNavigation logs a move between tree nodes.
func (l *Logger) LogNavigation(ctx context.Context, from, to string, depth int) {
	logging.Navigation(ctx, l.Logger, from, to, depth)
}

// LogGroupBy logs a grouping.
func (l *Logger) LogGroupBy(ctx context.Context, description string, groups int, err error) {
	logging.GroupBy(ctx, l.Logger, description, groups, err)
}
