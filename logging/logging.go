// Package logging provides the harness logger and per-run file logging for
// captured runner output.
package logging

import (
	"log/slog"
	"os"
	"strings"

	"github.com/lmittmann/tint"
	"github.com/mattn/go-isatty"
)

// ParseLevel converts a level name into a slog.Level, defaulting to info.
func ParseLevel(name string) slog.Level {
	switch strings.ToLower(strings.TrimSpace(name)) {
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

// NewLogger builds the harness logger. On a terminal it uses a colored tint
// handler, otherwise a plain text handler suitable for log collection.
func NewLogger(level slog.Level) *slog.Logger {
	var handler slog.Handler
	if isatty.IsTerminal(os.Stderr.Fd()) {
		handler = tint.NewHandler(os.Stderr, &tint.Options{
			Level: level,
			ReplaceAttr: func(groups []string, a slog.Attr) slog.Attr {
				if a.Key == slog.LevelKey {
					v := a.Value.Any().(slog.Level)
					a.Value = slog.StringValue(strings.ToLower(v.String()))
				}
				return a
			},
		})
	} else {
		handler = slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{
			Level: level,
		})
	}
	return slog.New(handler)
}

// SetDefault installs the logger as the process-wide default so that
// package-level slog calls share the same handler.
func SetDefault(log *slog.Logger) {
	slog.SetDefault(log)
}
