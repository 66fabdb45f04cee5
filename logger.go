package rtdec

import (
	"context"
	"log/slog"
	"os"
	"time"

	"github.com/qecflow/rtdec/kernel"
)

// Logger wraps slog.Logger with rtdec-specific context.
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
	return &Logger{Logger: slog.New(handler)}
}

// NewJSONLogger creates a Logger that outputs JSON-formatted logs.
func NewJSONLogger(level slog.Level) *Logger {
	return &Logger{Logger: slog.New(slog.NewJSONHandler(os.Stderr, &slog.HandlerOptions{
		Level: level,
	}))}
}

// NewTextLogger creates a Logger that outputs human-readable text logs.
func NewTextLogger(level slog.Level) *Logger {
	return &Logger{Logger: slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{
		Level: level,
	}))}
}

// NoopLogger creates a Logger that discards all log output.
func NoopLogger() *Logger {
	return &Logger{Logger: slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{
		Level: slog.Level(1000), // Unreachable level
	}))}
}

// WithCycle adds a cycle field to the logger.
func (l *Logger) WithCycle(cycleID uint64) *Logger {
	return &Logger{Logger: l.Logger.With("cycle", cycleID)}
}

// LogSubmit logs a syndrome submission.
func (l *Logger) LogSubmit(ctx context.Context, cycleID uint64, tag uint64, err error) {
	if err != nil {
		l.WarnContext(ctx, "submit rejected",
			"cycle", cycleID,
			"tag", tag,
			"error", err,
		)
	} else {
		l.DebugContext(ctx, "submit accepted",
			"cycle", cycleID,
			"tag", tag,
		)
	}
}

// LogDecode logs a decode outcome.
func (l *Logger) LogDecode(ctx context.Context, cycleID uint64, status kernel.Status, flips int, elapsed time.Duration, err error) {
	switch {
	case err != nil:
		l.ErrorContext(ctx, "decode failed",
			"cycle", cycleID,
			"error", err,
		)
	case status == kernel.StatusTimeout:
		l.WarnContext(ctx, "decode timed out",
			"cycle", cycleID,
			"elapsed", elapsed,
		)
	default:
		l.DebugContext(ctx, "decode completed",
			"cycle", cycleID,
			"flips", flips,
			"elapsed", elapsed,
		)
	}
}

// LogBuild logs a decoding-graph build.
func (l *Logger) LogBuild(ctx context.Context, checks, edges int, elapsed time.Duration, err error) {
	if err != nil {
		l.ErrorContext(ctx, "graph build failed",
			"checks", checks,
			"error", err,
		)
	} else {
		l.InfoContext(ctx, "graph built",
			"checks", checks,
			"edges", edges,
			"elapsed", elapsed,
		)
	}
}

// LogSessionClose logs session teardown.
func (l *Logger) LogSessionClose(ctx context.Context, cycles uint64, err error) {
	if err != nil {
		l.ErrorContext(ctx, "session close failed", "error", err)
	} else {
		l.InfoContext(ctx, "session closed", "cycles", cycles)
	}
}
