package logging

import (
	"io"
	"log/slog"
	"os"
	"strings"
)

// New creates a configured application logger.
// It writes to Stderr (to separate from Stdout UI output).
// It standardizes common keys (e.g., "error" -> "err").
func New(level slog.Level) *slog.Logger {
	return slog.New(consoleHandler(os.Stderr, level))
}

// NewWithSink creates a logger writing both to Stderr and, in the
// "[HH:mm:ss] [LEVEL] message" line format, to sink.
func NewWithSink(level slog.Level, sink io.Writer) *slog.Logger {
	return NewConsole(os.Stderr, level, sink)
}

// NewConsole is NewWithSink with an explicit console writer. A nil sink
// leaves only the console.
func NewConsole(console io.Writer, level slog.Level, sink io.Writer) *slog.Logger {
	if sink == nil {
		return slog.New(consoleHandler(console, level))
	}
	return slog.New(Fanout(
		consoleHandler(console, level),
		NewLineHandler(sink, level),
	))
}

// NewNop returns a no-op logger.
func NewNop() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

// ParseLevel maps "debug", "info", "warn" and "error" to a level. Unknown
// values fall back to info.
func ParseLevel(s string) slog.Level {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "debug":
		return slog.LevelDebug
	case "warn", "warning":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

func consoleHandler(w io.Writer, level slog.Level) slog.Handler {
	return slog.NewTextHandler(w, &slog.HandlerOptions{
		Level: level,
		ReplaceAttr: func(groups []string, a slog.Attr) slog.Attr {
			// Standardize 'error' key to 'err'
			if a.Key == "error" {
				a.Key = "err"
			}
			return a
		},
	})
}
