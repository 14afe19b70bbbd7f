// Package logger builds the slog loggers used across the summarizer.
package logger

import (
	"context"
	"io"
	"log/slog"
	"os"
	"strings"
)

// Format selects the handler.
type Format string

const (
	FormatText Format = "text"
	FormatJSON Format = "json"
)

// Config holds configuration options for the logger.
type Config struct {
	Level       string
	Format      Format
	Output      io.Writer
	AddSource   bool
	DefaultTags map[string]any
}

// DefaultConfig logs text at info level to stderr. Stdout is left free for
// command output and the MCP stdio transport.
func DefaultConfig() *Config {
	return &Config{
		Level:       "info",
		Format:      FormatText,
		Output:      os.Stderr,
		DefaultTags: map[string]any{"service": "aisummarizer"},
	}
}

// ParseLevel converts a level name to a slog level. Unknown names are info;
// "disabled" silences everything.
func ParseLevel(level string) slog.Level {
	switch strings.ToLower(strings.TrimSpace(level)) {
	case "debug":
		return slog.LevelDebug
	case "warn", "warning":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	case "disabled", "off":
		return slog.LevelError + 100
	default:
		return slog.LevelInfo
	}
}

// New creates a logger from config.
func New(config *Config) *slog.Logger {
	if config == nil {
		config = DefaultConfig()
	}
	out := config.Output
	if out == nil {
		out = os.Stderr
	}

	opts := &slog.HandlerOptions{
		Level:     ParseLevel(config.Level),
		AddSource: config.AddSource,
	}

	var handler slog.Handler
	if Format(strings.ToLower(string(config.Format))) == FormatJSON {
		handler = slog.NewJSONHandler(out, opts)
	} else {
		handler = slog.NewTextHandler(out, opts)
	}

	l := slog.New(handler)
	if len(config.DefaultTags) > 0 {
		l = WithFields(l, config.DefaultTags)
	}
	return l
}

// WithFields returns a logger with additional structured fields.
func WithFields(l *slog.Logger, fields map[string]any) *slog.Logger {
	args := make([]any, 0, len(fields)*2)
	for k, v := range fields {
		args = append(args, k, v)
	}
	return l.With(args...)
}

// WithComponent tags a logger with the component path, e.g. "summarizer.chunk".
func WithComponent(l *slog.Logger, components ...string) *slog.Logger {
	if l == nil {
		l = slog.Default()
	}
	return l.With("component", strings.Join(components, "."))
}

type contextKey struct{}

// WithLogger stores l in ctx.
func WithLogger(ctx context.Context, l *slog.Logger) context.Context {
	return context.WithValue(ctx, contextKey{}, l)
}

// FromContext returns the logger stored in ctx or the default logger.
func FromContext(ctx context.Context) *slog.Logger {
	if l, ok := ctx.Value(contextKey{}).(*slog.Logger); ok {
		return l
	}
	return slog.Default()
}

// Setup builds a logger and installs it as the slog default.
func Setup(config *Config) *slog.Logger {
	l := New(config)
	slog.SetDefault(l)
	return l
}
