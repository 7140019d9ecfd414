package mcp

import (
	"context"
	"net/http"

	"github.com/HyphaGroup/adgate/internal/graph"
	"github.com/HyphaGroup/adgate/internal/validation"
)

// Paging defaults for list tools
const (
	defaultLimit = 25
	maxLimit     = 100
)

// EmptyParams is used by tools that take no arguments
type EmptyParams struct{}

// LimitParams is used by list tools that only page
type LimitParams struct {
	Limit int `json:"limit,omitempty" jsonschema:"Maximum number of items to return (1-100, default 25)"`
}

func clampLimit(limit int) int {
	switch {
	case limit <= 0:
		return defaultLimit
	case limit > maxLimit:
		return maxLimit
	default:
		return limit
	}
}

// upstreamCall performs a call with the tenant's own token and no fallback.
func (s *Server) upstreamCall(ctx context.Context, call *Call, method, path string, params map[string]any) (map[string]any, error) {
	return s.upstream.Call(ctx, graph.Request{
		Method: method,
		Path:   path,
		Token:  call.Session.Credentials.AccessToken,
		Params: params,
	})
}

func (s *Server) upstreamGet(ctx context.Context, call *Call, path string, params map[string]any) (map[string]any, error) {
	return s.upstreamCall(ctx, call, http.MethodGet, path, params)
}

// upstreamWithFallback retries with the token of the resource owning
// targetID when the tenant token is refused.
func (s *Server) upstreamWithFallback(ctx context.Context, call *Call, targetID, method, path string, params map[string]any) (map[string]any, error) {
	return s.fallback.InvokeWithFallback(ctx, call.TenantID, targetID, path, method, params)
}

// listPayload reshapes an upstream list response as {key: [...], count, paging}.
func listPayload(body map[string]any, key string) map[string]any {
	data, _ := body["data"].([]any)
	if data == nil {
		data = []any{}
	}
	out := map[string]any{
		key:     data,
		"count": len(data),
	}
	if paging, ok := body["paging"]; ok {
		out["paging"] = paging
	}
	return out
}

// requireObjectID validates an upstream object id argument
func requireObjectID(field, id string) error {
	if err := validation.ValidateObjectID(field, id); err != nil {
		return &ArgumentError{Field: field, Message: err.Error()}
	}
	return nil
}

func requireText(field, value string) error {
	if value == "" {
		return argError(field, "%s is required", field)
	}
	return nil
}

// oneOf checks value against the allowed upstream enum values
func oneOf(field, value string, allowed ...string) error {
	for _, a := range allowed {
		if value == a {
			return nil
		}
	}
	return argError(field, "%s must be one of %v, got %q", field, allowed, value)
}
