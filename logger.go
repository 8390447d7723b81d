package hypha

import (
	"log/slog"
	"os"
)

// Logger wraps slog.Logger with hypha-specific helpers. All components
// log structured key/value pairs through it: per-operation detail at
// Debug, best-effort failures at Warn, genuine faults at Error.
type Logger struct {
	*slog.Logger
}

// NewLogger creates a new Logger with the given handler. If handler is
// nil, a text handler to stderr at Info level is used.
func NewLogger(handler slog.Handler) *Logger {
	if handler == nil {
		handler = slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{
			Level: slog.LevelInfo,
		})
	}
	return &Logger{Logger: slog.New(handler)}
}

// NewJSONLogger creates a Logger that emits JSON-formatted logs at the
// given minimum level.
func NewJSONLogger(level slog.Level) *Logger {
	return &Logger{Logger: slog.New(slog.NewJSONHandler(os.Stderr, &slog.HandlerOptions{
		Level: level,
	}))}
}

// NewTextLogger creates a Logger that emits human-readable text logs.
func NewTextLogger(level slog.Level) *Logger {
	return &Logger{Logger: slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{
		Level: level,
	}))}
}

// NoopLogger creates a Logger that discards all output. Use in tests to
// silence diagnostics.
func NoopLogger() *Logger {
	return &Logger{Logger: slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{
		Level: slog.Level(1000), // unreachable level
	}))}
}

// WithBranch tags the logger with a branch field.
func (l *Logger) WithBranch(branch string) *Logger {
	return &Logger{Logger: l.Logger.With("branch", branch)}
}

// WithID tags the logger with an entity ID field.
func (l *Logger) WithID(id string) *Logger {
	return &Logger{Logger: l.Logger.With("id", id)}
}
