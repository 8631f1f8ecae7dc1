// Package logging configures the process-wide structured logger.
package logging

import (
	"fmt"
	"log/slog"
	"os"
	"strings"
)

var level slog.LevelVar

// Init installs a text handler on stderr as the default logger.
// The level defaults to info and can be changed later with SetLevel.
func Init() {
	level.Set(slog.LevelInfo)
	h := slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: &level})
	slog.SetDefault(slog.New(h))
}

// SetLevel parses and applies a logging level. Accepts debug, info,
// warn/warning, error (case-insensitive).
func SetLevel(s string) error {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "debug":
		level.Set(slog.LevelDebug)
	case "", "info":
		level.Set(slog.LevelInfo)
	case "warn", "warning":
		level.Set(slog.LevelWarn)
	case "error":
		level.Set(slog.LevelError)
	default:
		return fmt.Errorf("unknown log level: %s", s)
	}
	return nil
}
