package sparsego

import (
	"log/slog"
	"os"
)

// Logger wraps slog.Logger with sparsego-specific context. The engine
// logs only at debug level (pass summaries: nonzero counts, dispatch
// statistics), so a default logger is silent in normal operation.
type Logger struct {
	*slog.Logger
}

// NewLogger creates a Logger backed by the given handler. A nil handler
// falls back to a text handler on stderr at info level.
func NewLogger(handler slog.Handler) *Logger {
	if handler == nil {
		handler = slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{
			Level: slog.LevelInfo,
		})
	}
	return &Logger{Logger: slog.New(handler)}
}

// NewTextLogger creates a Logger that writes human-readable text to
// stderr. level sets the minimum log level; pass slog.LevelDebug to see
// the engine's pass summaries.
func NewTextLogger(level slog.Level) *Logger {
	return NewLogger(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{
		Level: level,
	}))
}

// NewJSONLogger creates a Logger that writes JSON records to stderr.
func NewJSONLogger(level slog.Level) *Logger {
	return NewLogger(slog.NewJSONHandler(os.Stderr, &slog.HandlerOptions{
		Level: level,
	}))
}

// NoopLogger creates a Logger that discards all output.
func NoopLogger() *Logger {
	return &Logger{Logger: slog.New(slog.DiscardHandler)}
}
