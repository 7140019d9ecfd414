package mcp

import (
	"context"
	"encoding/json"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"
	lru "github.com/hashicorp/golang-lru/v2"
	mcp_sdk "github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/HyphaGroup/adgate/internal/auth"
)

// sdkCacheSize bounds the number of per-tenant MCP servers kept
const sdkCacheSize = 256

// sdkServers hands out one MCP SDK server per tenant and gateway token. Each
// server exposes the registry's tools and routes calls through the
// dispatcher.
type sdkServers struct {
	dispatcher *Dispatcher
	cache      *lru.Cache[string, *mcp_sdk.Server]
}

func newSDKServers(dispatcher *Dispatcher, size int) *sdkServers {
	cache, err := lru.New[string, *mcp_sdk.Server](size)
	if err != nil {
		// only returned for a non-positive size
		panic(err)
	}
	return &sdkServers{dispatcher: dispatcher, cache: cache}
}

// handler serves the streamable HTTP transport on /mcp/{tenantID}
func (s *sdkServers) handler() http.Handler {
	return mcp_sdk.NewStreamableHTTPHandler(func(r *http.Request) *mcp_sdk.Server {
		return s.serverFor(chi.URLParam(r, "tenantID"), auth.FromContext(r.Context()))
	}, &mcp_sdk.StreamableHTTPOptions{
		EventStore: mcp_sdk.NewMemoryEventStore(nil),
	})
}

func (s *sdkServers) serverFor(tenantID string, authCtx *auth.AuthContext) *mcp_sdk.Server {
	key := tenantID + "|"
	if authCtx != nil && authCtx.Token != nil {
		key += authCtx.Token.ID
	}
	if server, ok := s.cache.Get(key); ok {
		return server
	}

	server := mcp_sdk.NewServer(&mcp_sdk.Implementation{
		Name:    "adgate",
		Version: Version,
	}, nil)

	for _, def := range s.dispatcher.Registry().Tools() {
		if authCtx != nil && authCtx.Token != nil && !IsToolAllowed(def, authCtx.Token.Scope, tenantID) {
			continue
		}
		name := def.Name
		server.AddTool(&mcp_sdk.Tool{
			Name:        name,
			Description: def.Description,
			InputSchema: def.InputSchema,
		}, func(ctx context.Context, req *mcp_sdk.CallToolRequest) (*mcp_sdk.CallToolResult, error) {
			var args Arguments
			if req.Params != nil && len(req.Params.Arguments) > 0 {
				if err := json.Unmarshal(req.Params.Arguments, &args); err != nil {
					return NewErrorResult("invalid arguments: " + err.Error()), nil
				}
			}
			// tool calls run on the session context, not the HTTP request
			if authCtx != nil {
				ctx = auth.WithContext(ctx, authCtx)
			}
			return toCallToolResult(s.dispatcher.Dispatch(ctx, name, args, tenantID)), nil
		})
	}

	s.cache.Add(key, server)
	return server
}

// forget drops cached servers of a tenant so the next MCP session starts
// fresh.
func (s *sdkServers) forget(tenantID string) {
	prefix := tenantID + "|"
	for _, key := range s.cache.Keys() {
		if strings.HasPrefix(key, prefix) {
			s.cache.Remove(key)
		}
	}
}
