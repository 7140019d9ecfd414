// Package audit records security-relevant gateway operations as JSON lines.
package audit

import (
	"encoding/json"
	"io"
	"log/slog"
	"os"
	"sync"
	"time"
)

// Operation represents the type of auditable operation
type Operation string

const (
	OpSessionCreate Operation = "session.create"
	OpSessionRemove Operation = "session.remove"
	OpSessionExpire Operation = "session.expire"
	OpSelectAccount Operation = "session.select_account"
	OpTokenCreate   Operation = "token.create"
	OpTokenRevoke   Operation = "token.revoke"
)

// Event represents an audit log entry
type Event struct {
	Timestamp  time.Time              `json:"timestamp"`
	Operation  Operation              `json:"operation"`
	TenantID   string                 `json:"tenant_id,omitempty"`
	AccountID  string                 `json:"account_id,omitempty"`
	TokenID    string                 `json:"token_id,omitempty"`
	TokenScope string                 `json:"token_scope,omitempty"`
	RequestID  string                 `json:"request_id,omitempty"`
	Success    bool                   `json:"success"`
	Error      string                 `json:"error,omitempty"`
	Details    map[string]interface{} `json:"details,omitempty"`
}

// Logger handles audit logging
type Logger struct {
	logger  *slog.Logger
	enabled bool
	mu      sync.RWMutex
}

var (
	defaultLogger *Logger
	once          sync.Once
)

// Default returns the process-wide audit logger writing to stdout.
func Default() *Logger {
	once.Do(func() {
		defaultLogger = New(os.Stdout, true)
	})
	return defaultLogger
}

// New creates an audit logger writing JSON records to w.
func New(w io.Writer, enabled bool) *Logger {
	handler := slog.NewJSONHandler(w, &slog.HandlerOptions{
		Level: slog.LevelInfo,
	})
	return &Logger{
		logger:  slog.New(handler),
		enabled: enabled,
	}
}

// SetEnabled enables or disables audit logging
func (l *Logger) SetEnabled(enabled bool) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.enabled = enabled
}

// Log records an audit event
func (l *Logger) Log(event *Event) {
	l.mu.RLock()
	enabled := l.enabled
	l.mu.RUnlock()
	if !enabled {
		return
	}

	if event.Timestamp.IsZero() {
		event.Timestamp = time.Now().UTC()
	}

	attrs := []any{
		slog.String("audit", "true"),
		slog.String("operation", string(event.Operation)),
		slog.Bool("success", event.Success),
	}
	optional := []struct{ key, value string }{
		{"tenant_id", event.TenantID},
		{"account_id", event.AccountID},
		{"token_id", maskToken(event.TokenID)},
		{"token_scope", event.TokenScope},
		{"request_id", event.RequestID},
		{"error", event.Error},
	}
	for _, kv := range optional {
		if kv.value != "" {
			attrs = append(attrs, slog.String(kv.key, kv.value))
		}
	}
	if event.Details != nil {
		detailsJSON, _ := json.Marshal(event.Details)
		attrs = append(attrs, slog.String("details", string(detailsJSON)))
	}

	l.logger.Info("AUDIT", attrs...)
}

// LogTenant records an operation on a tenant session.
func (l *Logger) LogTenant(op Operation, tenantID, accountID string, err error) {
	event := &Event{
		Operation: op,
		TenantID:  tenantID,
		AccountID: accountID,
		Success:   err == nil,
	}
	if err != nil {
		event.Error = err.Error()
	}
	l.Log(event)
}

func maskToken(tokenID string) string {
	if tokenID == "" {
		return ""
	}
	if len(tokenID) <= 12 {
		return "***"
	}
	return tokenID[:8] + "..."
}

// Convenience functions using default logger

func Log(event *Event) {
	Default().Log(event)
}

func LogTenant(op Operation, tenantID, accountID string, err error) {
	Default().LogTenant(op, tenantID, accountID, err)
}
