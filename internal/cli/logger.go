package cli

import (
	"fmt"
	"io"
	"log/slog"
	"strings"
)

// Logger wraps slog.Logger for the CLI. Commands log at debug level; the
// user picks what reaches stderr through log_level.
type Logger struct {
	*slog.Logger
}

// NewLogger creates a Logger writing to w in the given format ("text" or
// "json") at the given level. Level "off" or "" returns [NoopLogger].
func NewLogger(w io.Writer, format, level string) (*Logger, error) {
	var lvl slog.Level

	switch strings.ToLower(level) {
	case "", "off":
		return NoopLogger(), nil
	case "debug":
		lvl = slog.LevelDebug
	case "info":
		lvl = slog.LevelInfo
	case "warn":
		lvl = slog.LevelWarn
	case "error":
		lvl = slog.LevelError
	default:
		return nil, fmt.Errorf("%w, got %q", ErrLogLevel, level)
	}

	opts := &slog.HandlerOptions{Level: lvl}

	var handler slog.Handler

	switch strings.ToLower(format) {
	case "", "text":
		handler = slog.NewTextHandler(w, opts)
	case "json":
		handler = slog.NewJSONHandler(w, opts)
	default:
		return nil, fmt.Errorf("%w, got %q", ErrLogFormat, format)
	}

	return &Logger{Logger: slog.New(handler)}, nil
}

// NoopLogger creates a Logger that discards all log output.
func NoopLogger() *Logger {
	return &Logger{Logger: slog.New(slog.DiscardHandler)}
}

// WithCommand tags every record with the CLI command being run.
func (l *Logger) WithCommand(name string) *Logger {
	return &Logger{Logger: l.With("command", name)}
}
