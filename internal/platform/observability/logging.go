package observability

import (
	"io"
	"log/slog"
	"os"
	"strings"
)

// LoggerOptions selects the slog handler for a process.
type LoggerOptions struct {
	Level  slog.Level
	Format string // "json" or "text"
	Source bool
}

// LoggerOptionsFromEnv reads LOG_LEVEL and LOG_FORMAT. Unknown values keep the defaults.
func LoggerOptionsFromEnv() LoggerOptions {
	opts := LoggerOptions{Level: slog.LevelInfo, Format: "json", Source: true}
	if raw := strings.TrimSpace(os.Getenv("LOG_LEVEL")); raw != "" {
		var level slog.Level
		if err := level.UnmarshalText([]byte(raw)); err == nil {
			opts.Level = level
		}
	}
	if raw := strings.ToLower(strings.TrimSpace(os.Getenv("LOG_FORMAT"))); raw == "text" || raw == "json" {
		opts.Format = raw
	}
	return opts
}

// NewLogger builds a structured logger writing to w.
func NewLogger(w io.Writer, opts LoggerOptions) *slog.Logger {
	handlerOpts := &slog.HandlerOptions{Level: opts.Level, AddSource: opts.Source}
	if opts.Format == "text" {
		return slog.New(slog.NewTextHandler(w, handlerOpts))
	}
	return slog.New(slog.NewJSONHandler(w, handlerOpts))
}
