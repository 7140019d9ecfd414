package mcp

import (
	"context"
	"fmt"
	"time"

	"github.com/HyphaGroup/adgate/internal/auth"
	"github.com/HyphaGroup/adgate/internal/logger"
	"github.com/HyphaGroup/adgate/internal/metrics"
	"github.com/HyphaGroup/adgate/internal/session"
)

// Failure messages the transports and clients match on
const (
	msgInvalidSession = "Invalid session"
	msgUnknownTool    = "Unknown tool: %s"
	msgToolPanicked   = "Tool execution failed: %v"
)

// Dispatcher routes tool invocations for a tenant to registered handlers.
// Every call ends in exactly one ToolResult; nothing is retried here.
type Dispatcher struct {
	registry *Registry
	sessions *session.Store
	accounts *session.Resolver
}

// NewDispatcher creates a dispatcher over the registry and session store
func NewDispatcher(registry *Registry, sessions *session.Store) *Dispatcher {
	return &Dispatcher{
		registry: registry,
		sessions: sessions,
		accounts: session.NewResolver(sessions),
	}
}

// Registry returns the tools the dispatcher routes to
func (d *Dispatcher) Registry() *Registry {
	return d.registry
}

// Dispatch runs toolName for tenantID. A gateway token in ctx restricts which
// tools may run.
func (d *Dispatcher) Dispatch(ctx context.Context, toolName string, args Arguments, tenantID string) (result ToolResult) {
	start := time.Now()
	ctx = logger.WithTool(logger.WithTenant(ctx, tenantID), toolName)
	defer func() {
		status := "success"
		if !result.Success {
			status = string(result.Kind)
		}
		metrics.RecordToolCall(toolName, status, time.Since(start))
	}()

	view, ok := d.sessions.Get(tenantID)
	if !ok {
		return Failed(toolName, KindSessionMissing, msgInvalidSession)
	}

	def, handler, ok := d.registry.Lookup(toolName)
	if !ok {
		result = Failed(toolName, KindUnknownTool, fmt.Sprintf(msgUnknownTool, toolName))
		result.Details = map[string]any{"availableTools": d.registry.Names()}
		return result
	}

	if authCtx := auth.FromContext(ctx); authCtx != nil && authCtx.Token != nil {
		if !IsToolAllowed(def, authCtx.Token.Scope, tenantID) {
			logger.WarnContext(ctx, "tool denied for token", "token_id", authCtx.Token.ID)
			return d.failure(ctx, toolName, ErrPermissionDenied)
		}
	}

	call := &Call{Tool: toolName, TenantID: tenantID, Session: view}
	if def.Target == TargetAccount {
		account, err := d.accounts.RequireAccount(tenantID)
		if err != nil {
			return d.failure(ctx, toolName, err)
		}
		call.Account = account
	}

	payload, err := d.invoke(ctx, handler, call, args)
	if err != nil {
		if panicErr, ok := err.(*handlerPanic); ok {
			logger.ErrorContext(ctx, "tool panicked", "panic", panicErr.value)
			return Failed(toolName, KindUnexpected, fmt.Sprintf(msgToolPanicked, panicErr.value))
		}
		return d.failure(ctx, toolName, err)
	}

	if payload == nil {
		payload = map[string]any{}
	}
	logger.DebugContext(ctx, "tool succeeded", "duration", time.Since(start))
	return Succeeded(toolName, payload)
}

// handlerPanic carries a recovered panic value out of invoke
type handlerPanic struct {
	value any
}

func (p *handlerPanic) Error() string {
	return fmt.Sprint(p.value)
}

func (d *Dispatcher) invoke(ctx context.Context, handler ToolHandler, call *Call, args Arguments) (payload map[string]any, err error) {
	defer func() {
		if v := recover(); v != nil {
			payload = nil
			err = &handlerPanic{value: v}
		}
	}()
	return handler(ctx, call, args)
}

func (d *Dispatcher) failure(ctx context.Context, toolName string, err error) ToolResult {
	kind := Classify(err)
	if kind == KindUnexpected {
		logger.ErrorContext(ctx, "tool failed", "error", err)
		return Failed(toolName, kind, fmt.Sprintf(msgToolPanicked, SanitizeError(err, toolName)))
	}
	logger.WarnContext(ctx, "tool failed", "kind", string(kind), "error", err)
	return Failed(toolName, kind, SanitizeError(err, toolName))
}
