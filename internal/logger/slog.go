package logger

import (
	"context"
	"io"
	"log/slog"
	"os"
)

var (
	slogger  *slog.Logger
	slogFile *os.File
)

// InitSlog initializes the structured logger. JSON output is meant for
// production log shipping; text output is easier to read locally.
func InitSlog(logDir string, jsonOutput bool) error {
	writer := io.Writer(os.Stdout)
	if logDir != "" {
		f, err := openDailyFile(logDir)
		if err != nil {
			return err
		}
		slogFile = f
		writer = io.MultiWriter(os.Stdout, f)
	}

	opts := &slog.HandlerOptions{Level: slog.LevelInfo}
	var handler slog.Handler
	if jsonOutput {
		handler = slog.NewJSONHandler(writer, opts)
	} else {
		handler = slog.NewTextHandler(writer, opts)
	}

	slogger = slog.New(handler)
	slog.SetDefault(slogger)
	return nil
}

// CloseSlog closes the slog log file
func CloseSlog() error {
	if slogFile != nil {
		return slogFile.Close()
	}
	return nil
}

// Slog returns the slog.Logger instance for structured logging
func Slog() *slog.Logger {
	if slogger == nil {
		return slog.Default()
	}
	return slogger
}

// Context keys for structured logging
type contextKey string

const (
	ContextKeyRequestID contextKey = "request_id"
	ContextKeyTenantID  contextKey = "tenant_id"
	ContextKeyTool      contextKey = "tool"
)

// WithTenant tags ctx so later log lines carry the tenant id.
func WithTenant(ctx context.Context, tenantID string) context.Context {
	return context.WithValue(ctx, ContextKeyTenantID, tenantID)
}

// WithTool tags ctx with the tool being executed.
func WithTool(ctx context.Context, tool string) context.Context {
	return context.WithValue(ctx, ContextKeyTool, tool)
}

// WithContext returns a logger carrying the request, tenant and tool fields
// found in ctx.
func WithContext(ctx context.Context) *slog.Logger {
	l := Slog()
	for _, key := range []contextKey{ContextKeyRequestID, ContextKeyTenantID, ContextKeyTool} {
		if v := ctx.Value(key); v != nil {
			l = l.With(string(key), v)
		}
	}
	return l
}

// InfoContext logs an info message with context
func InfoContext(ctx context.Context, msg string, args ...any) {
	WithContext(ctx).Info(msg, args...)
}

// ErrorContext logs an error with context
func ErrorContext(ctx context.Context, msg string, args ...any) {
	WithContext(ctx).Error(msg, args...)
}

// WarnContext logs a warning with context
func WarnContext(ctx context.Context, msg string, args ...any) {
	WithContext(ctx).Warn(msg, args...)
}

// DebugContext logs debug info with context
func DebugContext(ctx context.Context, msg string, args ...any) {
	WithContext(ctx).Debug(msg, args...)
}
