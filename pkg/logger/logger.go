// Package logger configures structured logging for Training Hub. All
// components share a single *slog.Logger; this package owns how that
// logger is built from configuration and provides attribute helpers
// for the identifiers that recur across the domain.
package logger

import (
	"context"
	"io"
	"log/slog"
	"os"
	"strings"
	"time"
)

// Options configures the logger.
type Options struct {
	// Level is the minimum level as a string: debug, info, warn, error.
	Level string

	// Format selects the handler: "json" or "text".
	Format string

	// Output defaults to os.Stdout.
	Output io.Writer

	// SetDefault also installs the logger as slog's process default, so
	// third-party code that logs via slog.Default lands in the same stream.
	SetDefault bool
}

// ParseLevel parses a level string, defaulting to info.
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

// New builds a logger from the options.
func New(opts Options) *slog.Logger {
	if opts.Output == nil {
		opts.Output = os.Stdout
	}

	handlerOpts := &slog.HandlerOptions{Level: ParseLevel(opts.Level)}

	var handler slog.Handler
	if strings.EqualFold(opts.Format, "text") {
		handler = slog.NewTextHandler(opts.Output, handlerOpts)
	} else {
		handler = slog.NewJSONHandler(opts.Output, handlerOpts)
	}

	log := slog.New(handler)
	if opts.SetDefault {
		slog.SetDefault(log)
	}

	return log
}

// ──────────────────────────────────────────────────────────────────────────────
// Context propagation
// ──────────────────────────────────────────────────────────────────────────────

type ctxKey struct{}

// WithContext returns a new context with the logger attached.
func WithContext(ctx context.Context, l *slog.Logger) context.Context {
	return context.WithValue(ctx, ctxKey{}, l)
}

// FromContext retrieves the logger from context, or the process default.
func FromContext(ctx context.Context) *slog.Logger {
	if l, ok := ctx.Value(ctxKey{}).(*slog.Logger); ok {
		return l
	}
	return slog.Default()
}

// ──────────────────────────────────────────────────────────────────────────────
// Domain attribute helpers
// ──────────────────────────────────────────────────────────────────────────────

func TraineeID(id string) slog.Attr     { return slog.String("trainee_id", id) }
func SessionID(id string) slog.Attr     { return slog.String("session_id", id) }
func ExamID(id string) slog.Attr        { return slog.String("exam_id", id) }
func AttemptID(id string) slog.Attr     { return slog.String("attempt_id", id) }
func EnrollmentID(id string) slog.Attr  { return slog.String("enrollment_id", id) }
func CertNumber(n string) slog.Attr     { return slog.String("certificate_number", n) }
func QueuePosition(pos int) slog.Attr   { return slog.Int("queue_position", pos) }
func Latency(d time.Duration) slog.Attr { return slog.Duration("latency", d) }

// Err standardizes the error attribute key.
func Err(err error) slog.Attr {
	if err == nil {
		return slog.Attr{}
	}
	return slog.String("error", err.Error())
}
