package app

import (
	"io"
	"log/slog"
)

// newLogger builds the session logger without touching the global default,
// so concurrent App instances stay isolated. Level and format strings have
// already been validated by config parsing; anything unrecognized falls back
// to the CLI defaults (warn, text).
func newLogger(levelStr, formatStr string, outW io.Writer) *slog.Logger {
	level := slog.LevelWarn
	switch levelStr {
	case "debug":
		level = slog.LevelDebug
	case "info":
		level = slog.LevelInfo
	case "error":
		level = slog.LevelError
	}

	opts := &slog.HandlerOptions{Level: level}
	if formatStr == "json" {
		return slog.New(slog.NewJSONHandler(outW, opts))
	}
	return slog.New(slog.NewTextHandler(outW, opts))
}
