package distgraph

import (
	"context"
	"log/slog"
	"os"

	"github.com/hupe1980/distgraph/distid"
	"github.com/hupe1980/distgraph/transport"
)

// Logger wraps slog.Logger with distgraph-specific context.
// This provides structured logging with consistent field names.
type Logger struct {
	*slog.Logger
}

// NewLogger creates a new Logger with the given handler.
// If handler is nil, uses default text handler to stderr.
func NewLogger(handler slog.Handler) *Logger {
	if handler == nil {
		handler = slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{
			Level: slog.LevelInfo,
		})
	}
	return &Logger{
		Logger: slog.New(handler),
	}
}

// NewJSONLogger creates a Logger that outputs JSON-formatted logs.
// level sets the minimum log level; pass a *slog.LevelVar to change it at runtime.
func NewJSONLogger(level slog.Leveler) *Logger {
	handler := slog.NewJSONHandler(os.Stderr, &slog.HandlerOptions{
		Level: level,
	})
	return &Logger{
		Logger: slog.New(handler),
	}
}

// NewTextLogger creates a Logger that outputs human-readable text logs.
func NewTextLogger(level slog.Leveler) *Logger {
	handler := slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{
		Level: level,
	})
	return &Logger{
		Logger: slog.New(handler),
	}
}

// NoopLogger creates a Logger that discards all log output.
// Use this to disable logging entirely.
func NoopLogger() *Logger {
	return &Logger{
		Logger: slog.New(slog.DiscardHandler),
	}
}

// WithRank adds the rank and group size to the logger.
func (l *Logger) WithRank(rank, size int) *Logger {
	return &Logger{
		Logger: l.Logger.With("rank", rank, "ranks", size),
	}
}

// WithTag adds a message tag field to the logger.
func (l *Logger) WithTag(tag transport.Tag) *Logger {
	return &Logger{
		Logger: l.Logger.With("tag", tag.String()),
	}
}

// LogAddVertex logs a vertex creation.
func (l *Logger) LogAddVertex(ctx context.Context, route Route, id distid.ID, err error) {
	if err != nil {
		l.ErrorContext(ctx, "add vertex failed",
			"route", route.String(),
			"error", err,
		)
	} else {
		l.DebugContext(ctx, "add vertex completed",
			"route", route.String(),
			"id", int64(id),
		)
	}
}

// LogAddEdge logs an edge creation.
func (l *Logger) LogAddEdge(ctx context.Context, route Route, id distid.ID, err error) {
	if err != nil {
		l.ErrorContext(ctx, "add edge failed",
			"route", route.String(),
			"error", err,
		)
	} else {
		l.DebugContext(ctx, "add edge completed",
			"route", route.String(),
			"id", int64(id),
		)
	}
}

// LogSynchronize logs a barrier.
func (l *Logger) LogSynchronize(ctx context.Context, err error) {
	if err != nil {
		l.WarnContext(ctx, "synchronize completed with errors",
			"error", err,
		)
	} else {
		l.DebugContext(ctx, "synchronize completed")
	}
}

// LogHandlerError logs a failed inbound message.
func (l *Logger) LogHandlerError(ctx context.Context, m transport.Message, err error) {
	l.WarnContext(ctx, "message handler failed",
		"tag", m.Tag.String(),
		"from", m.From,
		"error", err,
	)
}
