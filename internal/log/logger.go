// Package log wraps log/slog with the conventions shared by the todoask
// binaries: a service attribute on every record, component scoping, and
// AppError-aware error fields.
package log

import (
	"context"
	"errors"
	"log/slog"
	"os"
	"sync/atomic"

	apperrors "github.com/felixgeelhaar/todoask/internal/errors"
)

// Logger is a structured logger.
type Logger struct {
	slog *slog.Logger
}

var defaultLogger atomic.Pointer[Logger]

// New builds a Logger from config.
func New(config Config) *Logger {
	w := config.Writer
	if w == nil {
		w = os.Stderr
	}
	opts := &slog.HandlerOptions{Level: config.Level, AddSource: config.AddSource}

	var handler slog.Handler = slog.NewJSONHandler(w, opts)
	if config.Format == FormatText {
		handler = slog.NewTextHandler(w, opts)
	}

	l := slog.New(handler)
	if config.Service != "" {
		l = l.With("service", config.Service)
	}
	return &Logger{slog: l}
}

// Nop returns a logger that discards everything.
func Nop() *Logger {
	return &Logger{slog: slog.New(slog.DiscardHandler)}
}

// SetDefaultLogger sets the process-wide default logger.
func SetDefaultLogger(logger *Logger) {
	defaultLogger.Store(logger)
}

// DefaultLogger returns the process-wide logger, a CLIConfig logger until
// SetDefaultLogger is called.
func DefaultLogger() *Logger {
	if l := defaultLogger.Load(); l != nil {
		return l
	}
	defaultLogger.CompareAndSwap(nil, New(CLIConfig()))
	return defaultLogger.Load()
}

// With returns a Logger that adds args to every record.
func (l *Logger) With(args ...any) *Logger {
	return &Logger{slog: l.slog.With(args...)}
}

// WithComponent scopes the logger to a named component.
func (l *Logger) WithComponent(name string) *Logger {
	return l.With("component", name)
}

// WithError records err. An AppError contributes its code, suggestions and
// cause as separate fields.
func (l *Logger) WithError(err error) *Logger {
	if err == nil {
		return l
	}

	var appErr *apperrors.AppError
	if !errors.As(err, &appErr) {
		return l.With("error", err.Error())
	}

	args := []any{"error", appErr.Message, "error_code", string(appErr.Code)}
	if len(appErr.Suggestions) > 0 {
		args = append(args, "suggestions", appErr.Suggestions)
	}
	if appErr.Cause != nil {
		args = append(args, "cause", appErr.Cause.Error())
	}
	return l.With(args...)
}

func (l *Logger) Debug(msg string, args ...any) { l.slog.Debug(msg, args...) }
func (l *Logger) Info(msg string, args ...any)  { l.slog.Info(msg, args...) }
func (l *Logger) Warn(msg string, args ...any)  { l.slog.Warn(msg, args...) }
func (l *Logger) Error(msg string, args ...any) { l.slog.Error(msg, args...) }

func (l *Logger) DebugContext(ctx context.Context, msg string, args ...any) {
	l.slog.DebugContext(ctx, msg, args...)
}

func (l *Logger) InfoContext(ctx context.Context, msg string, args ...any) {
	l.slog.InfoContext(ctx, msg, args...)
}

func (l *Logger) WarnContext(ctx context.Context, msg string, args ...any) {
	l.slog.WarnContext(ctx, msg, args...)
}

func (l *Logger) ErrorContext(ctx context.Context, msg string, args ...any) {
	l.slog.ErrorContext(ctx, msg, args...)
}

// LogError logs err at error level as "operation failed".
func (l *Logger) LogError(ctx context.Context, err error) {
	if err == nil {
		return
	}
	l.WithError(err).ErrorContext(ctx, "operation failed")
}

// Enabled reports whether records at level are emitted.
func (l *Logger) Enabled(ctx context.Context, level Level) bool {
	return l.slog.Enabled(ctx, level)
}
