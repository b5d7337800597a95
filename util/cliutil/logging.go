package cliutil

import (
	"io"
	"log/slog"
	"strings"
)

// ConfigLogger builds the process-wide logger and installs it as the slog default.
//
// level is one of debug|info|warn|error (unknown values fall back to info); format is text|json (default json).
func ConfigLogger(level, format string, writer io.Writer) *slog.Logger {
	var lvl slog.Level
	switch strings.ToLower(level) {
	case "error":
		lvl = slog.LevelError
	case "warn":
		lvl = slog.LevelWarn
	case "debug":
		lvl = slog.LevelDebug
	default:
		lvl = slog.LevelInfo
	}
	hopts := &slog.HandlerOptions{Level: lvl}

	var handler slog.Handler
	if strings.ToLower(format) == "text" {
		handler = slog.NewTextHandler(writer, hopts)
	} else {
		handler = slog.NewJSONHandler(writer, hopts)
	}
	logger := slog.New(handler)
	slog.SetDefault(logger)
	return logger
}
