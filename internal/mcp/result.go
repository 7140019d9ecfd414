package mcp

import "encoding/json"

// ToolResult is the outcome of exactly one tool invocation.
type ToolResult struct {
	Success bool
	Tool    string
	// Payload is merged into the success envelope.
	Payload map[string]any

	Error string
	Kind  ErrorKind
	// Details is attached to a failure, e.g. the known tool names.
	Details map[string]any
}

// Succeeded builds a success result
func Succeeded(tool string, payload map[string]any) ToolResult {
	return ToolResult{Success: true, Tool: tool, Payload: payload}
}

// Failed builds a failure result of the given kind
func Failed(tool string, kind ErrorKind, message string) ToolResult {
	return ToolResult{Tool: tool, Kind: kind, Error: message}
}

// MarshalJSON renders the {success, ...} envelope. On success the payload
// keys sit next to "success"; on failure the envelope carries the message,
// the tool name and the error kind.
func (r ToolResult) MarshalJSON() ([]byte, error) {
	out := make(map[string]any, len(r.Payload)+len(r.Details)+4)
	if r.Success {
		for k, v := range r.Payload {
			out[k] = v
		}
		out["success"] = true
		return json.Marshal(out)
	}

	for k, v := range r.Details {
		out[k] = v
	}
	out["success"] = false
	out["error"] = r.Error
	out["kind"] = r.Kind
	if r.Tool != "" {
		out["tool"] = r.Tool
	}
	return json.Marshal(out)
}
