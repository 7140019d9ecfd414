package mcp

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"

	"github.com/coder/websocket"
	"github.com/coder/websocket/wsjson"
	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/HyphaGroup/adgate/internal/auth"
	"github.com/HyphaGroup/adgate/internal/logger"
)

const (
	// protocolVersion is reported by initialize
	protocolVersion = "2025-06-18"
	wsReadLimit     = 1 << 20
)

// JSONRPCRequest represents a JSON-RPC 2.0 request
type JSONRPCRequest struct {
	JSONRPC string          `json:"jsonrpc"`
	ID      any             `json:"id,omitempty"`
	Method  string          `json:"method"`
	Params  json.RawMessage `json:"params,omitempty"`
}

// JSONRPCResponse represents a JSON-RPC 2.0 response
type JSONRPCResponse struct {
	JSONRPC string        `json:"jsonrpc"`
	ID      any           `json:"id"`
	Result  any           `json:"result,omitempty"`
	Error   *JSONRPCError `json:"error,omitempty"`
}

// JSONRPCError represents a JSON-RPC 2.0 error
type JSONRPCError struct {
	Code    int    `json:"code"`
	Message string `json:"message"`
	Data    any    `json:"data,omitempty"`
}

func rpcResult(id, result any) *JSONRPCResponse {
	return &JSONRPCResponse{JSONRPC: "2.0", ID: id, Result: result}
}

func rpcError(id any, code int, message string, data any) *JSONRPCResponse {
	return &JSONRPCResponse{
		JSONRPC: "2.0",
		ID:      id,
		Error:   &JSONRPCError{Code: code, Message: message, Data: data},
	}
}

// handleWebSocket serves JSON-RPC over a WebSocket for one tenant
func (s *Server) handleWebSocket(w http.ResponseWriter, r *http.Request) {
	tenantID := chi.URLParam(r, "tenantID")
	if _, ok := s.sessions.Get(tenantID); !ok {
		writeError(w, http.StatusNotFound, msgInvalidSession, nil)
		return
	}

	conn, err := websocket.Accept(w, r, nil)
	if err != nil {
		logger.WarnContext(r.Context(), "websocket accept failed", "error", err)
		return
	}
	conn.SetReadLimit(wsReadLimit)

	connID := uuid.NewString()
	ctx := r.Context()

	logger.InfoContext(ctx, "websocket connected", "connection_id", connID)
	err = s.serveWebSocket(ctx, conn, tenantID)

	status := websocket.CloseStatus(err)
	switch {
	case status == websocket.StatusNormalClosure || status == websocket.StatusGoingAway:
		logger.InfoContext(ctx, "websocket closed", "connection_id", connID)
	case err != nil && !errors.Is(err, context.Canceled):
		logger.WarnContext(ctx, "websocket error", "connection_id", connID, "error", err)
	}
	_ = conn.Close(websocket.StatusNormalClosure, "")
}

// serveWebSocket reads requests until the peer closes. Requests are handled
// in order on the connection.
func (s *Server) serveWebSocket(ctx context.Context, conn *websocket.Conn, tenantID string) error {
	for {
		var raw json.RawMessage
		if err := wsjson.Read(ctx, conn, &raw); err != nil {
			return err
		}

		var req JSONRPCRequest
		var resp *JSONRPCResponse
		if err := json.Unmarshal(raw, &req); err != nil {
			resp = rpcError(nil, codeParseError, "Parse error: "+err.Error(), nil)
		} else {
			resp = s.processRequest(ctx, &req, tenantID)
		}

		// notifications get no response
		if resp == nil {
			continue
		}
		if err := wsjson.Write(ctx, conn, resp); err != nil {
			return err
		}
	}
}

func (s *Server) processRequest(ctx context.Context, req *JSONRPCRequest, tenantID string) *JSONRPCResponse {
	if req.JSONRPC != "2.0" {
		return rpcError(req.ID, codeInvalidRequest, "Invalid request: jsonrpc must be \"2.0\"", nil)
	}
	if req.ID == nil {
		// notifications/initialized and friends
		return nil
	}

	switch req.Method {
	case "initialize":
		return rpcResult(req.ID, map[string]any{
			"protocolVersion": protocolVersion,
			"serverInfo": map[string]any{
				"name":    "adgate",
				"version": Version,
			},
			"capabilities": map[string]any{
				"tools": map[string]any{"listChanged": false},
			},
		})
	case "ping":
		return rpcResult(req.ID, map[string]any{})
	case "tools/list":
		_, scope := scopeOf(ctx)
		return rpcResult(req.ID, map[string]any{"tools": s.registry.catalog(scope, tenantID)})
	case "tools/call":
		return s.handleRPCToolCall(ctx, req, tenantID)
	default:
		return rpcError(req.ID, codeMethodNotFound, fmt.Sprintf("Method not found: %s", req.Method), nil)
	}
}

func (s *Server) handleRPCToolCall(ctx context.Context, req *JSONRPCRequest, tenantID string) *JSONRPCResponse {
	var params struct {
		Name      string    `json:"name"`
		Arguments Arguments `json:"arguments"`
	}
	if len(req.Params) > 0 {
		if err := json.Unmarshal(req.Params, &params); err != nil {
			return rpcError(req.ID, codeInvalidParams, "Invalid params: "+err.Error(), nil)
		}
	}
	if params.Name == "" {
		return rpcError(req.ID, codeInvalidParams, "name is required", nil)
	}

	result := s.dispatcher.Dispatch(ctx, params.Name, params.Arguments, tenantID)
	if !result.Success {
		return rpcError(req.ID, result.Kind.RPCCode(), result.Error, result)
	}
	return rpcResult(req.ID, wireContent(result))
}

func scopeOf(ctx context.Context) (string, string) {
	if authCtx := auth.FromContext(ctx); authCtx != nil && authCtx.Token != nil {
		return authCtx.Token.ID, authCtx.Token.Scope
	}
	return "", ""
}
