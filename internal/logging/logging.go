// Package logging configures the process-wide slog logger for the delorean
// commands.
package logging

import (
	"log/slog"
	"os"
	"strings"
)

// Init installs the default logger. Diagnostics always go to stderr; when
// machineStdout is true (extract -stdout streams change records on stdout)
// the handler switches to JSON so log lines stay one-per-line and never
// interleave with the record stream a consumer is parsing.
func Init(machineStdout bool, level string) {
	opts := &slog.HandlerOptions{Level: parseLevel(level)}
	var h slog.Handler
	if machineStdout {
		h = slog.NewJSONHandler(os.Stderr, opts)
	} else {
		h = slog.NewTextHandler(os.Stderr, opts)
	}
	slog.SetDefault(slog.New(h))
}

// parseLevel maps the DELOREAN_LOG_LEVEL / config value to a slog.Level.
// Unknown values fall back to info.
func parseLevel(s string) slog.Level {
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
