// Package logger builds the structured slog logger used across the echo bot
// and carries it through request contexts.
package logger

import (
	"context"
	"io"
	"log/slog"
	"os"
	"strings"
	"time"
)

// Format is the log output encoding.
type Format string

const (
	FormatJSON Format = "json"
	FormatText Format = "text"
)

// Options configures the root logger.
type Options struct {
	// Output is where log lines are written (default: os.Stdout).
	Output io.Writer

	// Format selects the handler: "json" or "text".
	Format Format

	// Debug lowers the level to slog.LevelDebug.
	Debug bool

	// AddSource adds file:line to each record.
	AddSource bool

	// Service is attached to every record as "service".
	Service string
}

// DefaultOptions returns sensible defaults.
func DefaultOptions() Options {
	return Options{
		Output: os.Stdout,
		Format: FormatJSON,
	}
}

// New creates a slog.Logger from options.
func New(opts Options) *slog.Logger {
	if opts.Output == nil {
		opts.Output = os.Stdout
	}

	level := slog.LevelInfo
	if opts.Debug {
		level = slog.LevelDebug
	}

	handlerOpts := &slog.HandlerOptions{
		Level:     level,
		AddSource: opts.AddSource,
	}

	var handler slog.Handler
	switch Format(strings.ToLower(string(opts.Format))) {
	case FormatText:
		handler = slog.NewTextHandler(opts.Output, handlerOpts)
	default:
		handler = slog.NewJSONHandler(opts.Output, handlerOpts)
	}

	l := slog.New(handler)
	if opts.Service != "" {
		l = l.With(slog.String("service", opts.Service))
	}
	return l
}

// Discard returns a logger that drops everything. Handy in tests.
func Discard() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, &slog.HandlerOptions{Level: slog.LevelError + 1}))
}

// Context key for logger.
type ctxKey struct{}

// WithContext returns a new context with the logger attached.
func WithContext(ctx context.Context, l *slog.Logger) context.Context {
	return context.WithValue(ctx, ctxKey{}, l)
}

// FromContext retrieves the logger from context, or returns slog.Default().
func FromContext(ctx context.Context) *slog.Logger {
	if l, ok := ctx.Value(ctxKey{}).(*slog.Logger); ok && l != nil {
		return l
	}
	return slog.Default()
}

// RequestIDKey is a common field key for request tracing.
const RequestIDKey = "request_id"

// Field helpers for the keys this service logs most.
func Err(err error) slog.Attr           { return slog.Any("error", err) }
func RequestID(id string) slog.Attr     { return slog.String(RequestIDKey, id) }
func UpdateID(id int64) slog.Attr       { return slog.Int64("update_id", id) }
func TelegramID(id int64) slog.Attr     { return slog.Int64("telegram_id", id) }
func ChatID(id int64) slog.Attr         { return slog.Int64("chat_id", id) }
func Command(name string) slog.Attr     { return slog.String("command", name) }
func Component(name string) slog.Attr   { return slog.String("component", name) }
func Latency(d time.Duration) slog.Attr { return slog.Duration("latency", d) }
