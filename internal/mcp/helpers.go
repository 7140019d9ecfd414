package mcp

import (
	"encoding/json"

	mcp_sdk "github.com/modelcontextprotocol/go-sdk/mcp"
)

// NewTextResult creates a CallToolResult with text content
func NewTextResult(text string) *mcp_sdk.CallToolResult {
	return &mcp_sdk.CallToolResult{
		Content: []mcp_sdk.Content{
			&mcp_sdk.TextContent{Text: text},
		},
	}
}

// NewErrorResult creates a CallToolResult indicating an error
func NewErrorResult(msg string) *mcp_sdk.CallToolResult {
	return &mcp_sdk.CallToolResult{
		IsError: true,
		Content: []mcp_sdk.Content{
			&mcp_sdk.TextContent{Text: msg},
		},
	}
}

// toCallToolResult renders a ToolResult envelope as MCP text content.
func toCallToolResult(result ToolResult) *mcp_sdk.CallToolResult {
	data, err := json.Marshal(result)
	if err != nil {
		return NewErrorResult(err.Error())
	}
	if !result.Success {
		return NewErrorResult(string(data))
	}
	return NewTextResult(string(data))
}

// wireContent is the JSON form of CallToolResult used on the WebSocket
// transport.
func wireContent(result ToolResult) map[string]any {
	data, _ := json.Marshal(result)
	return map[string]any{
		"content": []map[string]any{
			{"type": "text", "text": string(data)},
		},
		"isError": !result.Success,
	}
}
