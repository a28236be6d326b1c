package logger

import (
	"context"
	"io"
	"log/slog"
	"os"
)

const service = "consult-signaling"

// New returns a JSON logger on stdout. Every record carries the service name
// plus any attrs given (node_id in practice).
func New(appEnv string, attrs ...any) *slog.Logger {
	return NewWithWriter(os.Stdout, appEnv, attrs...)
}

// NewWithWriter is New with an explicit sink.
func NewWithWriter(w io.Writer, appEnv string, attrs ...any) *slog.Logger {
	h := slog.NewJSONHandler(w, &slog.HandlerOptions{Level: Level(appEnv)})
	return slog.New(h).With("service", service).With(attrs...)
}

// Level is debug for local and dev, info elsewhere.
func Level(appEnv string) slog.Level {
	switch appEnv {
	case "local", "dev":
		return slog.LevelDebug
	default:
		return slog.LevelInfo
	}
}

type ctxKey struct{}

// With stores a logger in context.
func With(ctx context.Context, l *slog.Logger) context.Context {
	return context.WithValue(ctx, ctxKey{}, l)
}

// From gets a logger from context, falling back to slog.Default().
func From(ctx context.Context) *slog.Logger {
	if v := ctx.Value(ctxKey{}); v != nil {
		if l, ok := v.(*slog.Logger); ok && l != nil {
			return l
		}
	}
	return slog.Default()
}
