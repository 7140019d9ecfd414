package testutil

import (
	"context"
	"sync"
	"testing"

	"github.com/HyphaGroup/adgate/internal/graph"
)

// MockCaller is a test double for graph.Caller.
// It records calls and allows configuring responses for testing.
type MockCaller struct {
	mu sync.Mutex

	// Respond answers each call. When nil, Response and Err are returned.
	Respond  func(graph.Request) (map[string]any, error)
	Response map[string]any
	Err      error

	// Call tracking
	Calls []graph.Request
}

// NewMockCaller creates a mock that answers every call with an empty object.
func NewMockCaller(t *testing.T) *MockCaller {
	t.Helper()
	return &MockCaller{Response: map[string]any{}}
}

// Call implements graph.Caller.
func (m *MockCaller) Call(_ context.Context, req graph.Request) (map[string]any, error) {
	m.mu.Lock()
	m.Calls = append(m.Calls, req)
	respond, resp, err := m.Respond, m.Response, m.Err
	m.mu.Unlock()

	if respond != nil {
		return respond(req)
	}
	if err != nil {
		return nil, err
	}
	if resp == nil {
		resp = map[string]any{}
	}
	return resp, nil
}

// Count returns the number of recorded calls.
func (m *MockCaller) Count() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.Calls)
}

// Requests returns a copy of the recorded calls.
func (m *MockCaller) Requests() []graph.Request {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]graph.Request(nil), m.Calls...)
}

// IsTokenLookup reports whether req fetches a resource access token.
func IsTokenLookup(req graph.Request) bool {
	return req.Params["fields"] == "access_token"
}

// Lookups counts recorded resource token lookups.
func (m *MockCaller) Lookups() int {
	n := 0
	for _, req := range m.Requests() {
		if IsTokenLookup(req) {
			n++
		}
	}
	return n
}

// EndpointCalls returns the recorded calls that were not token lookups.
func (m *MockCaller) EndpointCalls() []graph.Request {
	var out []graph.Request
	for _, req := range m.Requests() {
		if !IsTokenLookup(req) {
			out = append(out, req)
		}
	}
	return out
}
