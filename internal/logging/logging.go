package logging

import (
	"io"
	"log/slog"
	"os"
	"strings"
)

// Init sets the package-level default slog logger. Logs always go to stderr
// so a run report printed on stdout stays machine readable. jsonOutput picks
// the JSON handler; otherwise the text handler is used.
func Init(jsonOutput bool, level slog.Level) {
	slog.SetDefault(slog.New(NewHandler(os.Stderr, jsonOutput, level)))
}

// NewHandler builds the handler Init installs, writing to w.
func NewHandler(w io.Writer, jsonOutput bool, level slog.Level) slog.Handler {
	opts := &slog.HandlerOptions{Level: level}
	if jsonOutput {
		return slog.NewJSONHandler(w, opts)
	}
	return slog.NewTextHandler(w, opts)
}

// ParseLevel converts a string ("debug", "info", "warn", "error") to slog.Level.
// Unknown strings default to LevelInfo.
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
