package mcp

import (
	"context"
	"encoding/json"
	"errors"
	"strings"
	"sync/atomic"
	"testing"

	"github.com/HyphaGroup/adgate/internal/auth"
	"github.com/HyphaGroup/adgate/internal/graph"
	"github.com/HyphaGroup/adgate/internal/session"
)

// newTestDispatcher registers stub tools on a fresh registry
func newTestDispatcher(t *testing.T) (*Dispatcher, *session.Store, *atomic.Int32) {
	t.Helper()
	store := session.NewStore()
	r := NewRegistry()
	calls := &atomic.Int32{}

	Register(r, ToolDef{Name: "account_tool", Target: TargetAccount, Access: AccessRead},
		func(_ context.Context, call *Call, _ EmptyParams) (map[string]any, error) {
			calls.Add(1)
			return map[string]any{"accountId": call.Account.ID}, nil
		})
	Register(r, ToolDef{Name: "panics", Target: TargetTenant, Access: AccessRead},
		func(context.Context, *Call, EmptyParams) (map[string]any, error) {
			calls.Add(1)
			panic("boom")
		})
	Register(r, ToolDef{Name: "rejects", Target: TargetTenant, Access: AccessRead},
		func(context.Context, *Call, EmptyParams) (map[string]any, error) {
			calls.Add(1)
			return nil, &graph.APIError{Status: 400, Message: "Invalid parameter", Code: 100}
		})
	Register(r, ToolDef{Name: "breaks", Target: TargetTenant, Access: AccessRead},
		func(context.Context, *Call, EmptyParams) (map[string]any, error) {
			calls.Add(1)
			return nil, errors.New("decoding upstream response: invalid character '<'")
		})
	Register(r, ToolDef{Name: "writes", Target: TargetTenant, Access: AccessWrite},
		func(context.Context, *Call, EmptyParams) (map[string]any, error) {
			calls.Add(1)
			return nil, nil
		})

	return NewDispatcher(r, store), store, calls
}

func TestDispatch_MissingSession(t *testing.T) {
	d, _, calls := newTestDispatcher(t)

	result := d.Dispatch(context.Background(), "account_tool", Arguments{}, "nobody")
	if result.Success {
		t.Fatal("expected failure")
	}
	if result.Error != "Invalid session" || result.Tool != "account_tool" {
		t.Errorf("result = {%q, %q}, want {Invalid session, account_tool}", result.Error, result.Tool)
	}
	if result.Kind != KindSessionMissing {
		t.Errorf("Kind = %v, want %v", result.Kind, KindSessionMissing)
	}
	if calls.Load() != 0 {
		t.Error("handler must not run without a session")
	}
}

func TestDispatch_UnknownTool(t *testing.T) {
	d, store, _ := newTestDispatcher(t)
	mustCreate(t, store, "t1")

	result := d.Dispatch(context.Background(), "does_not_exist", Arguments{}, "t1")
	if result.Success {
		t.Fatal("expected failure")
	}
	if !strings.Contains(result.Error, "Unknown tool") {
		t.Errorf("Error = %q, want it to contain Unknown tool", result.Error)
	}
	if result.Kind != KindUnknownTool {
		t.Errorf("Kind = %v, want %v", result.Kind, KindUnknownTool)
	}
	names, ok := result.Details["availableTools"].([]string)
	if !ok || len(names) != 5 {
		t.Errorf("availableTools = %v, want the 5 registered names", result.Details["availableTools"])
	}
	for _, n := range names {
		if strings.Contains(result.Error, n) {
			t.Errorf("message %q should not enumerate tool names", result.Error)
		}
	}
}

func TestDispatch_AccountGate(t *testing.T) {
	d, store, calls := newTestDispatcher(t)
	mustCreate(t, store, "t1")

	result := d.Dispatch(context.Background(), "account_tool", Arguments{}, "t1")
	if result.Success || result.Kind != KindNoResourceSelected {
		t.Fatalf("result = %+v, want no_resource_selected failure", result)
	}
	if !strings.Contains(result.Error, "no ad account selected") {
		t.Errorf("Error = %q", result.Error)
	}
	if calls.Load() != 0 {
		t.Error("handler must not run before an account is selected")
	}

	if _, err := store.SelectResource("t1", "123"); err != nil {
		t.Fatalf("SelectResource() error = %v", err)
	}
	result = d.Dispatch(context.Background(), "account_tool", Arguments{}, "t1")
	if !result.Success {
		t.Fatalf("result = %+v, want success", result)
	}
	if result.Payload["accountId"] != "act_123" {
		t.Errorf("accountId = %v, want act_123", result.Payload["accountId"])
	}
}

func TestDispatch_HandlerPanicIsCaught(t *testing.T) {
	d, store, _ := newTestDispatcher(t)
	mustCreate(t, store, "t1")

	var result ToolResult
	func() {
		defer func() {
			if r := recover(); r != nil {
				t.Fatalf("Dispatch let a panic escape: %v", r)
			}
		}()
		result = d.Dispatch(context.Background(), "panics", Arguments{}, "t1")
	}()

	if result.Success {
		t.Fatal("expected failure")
	}
	if result.Error != "Tool execution failed: boom" {
		t.Errorf("Error = %q, want %q", result.Error, "Tool execution failed: boom")
	}
	if result.Kind != KindUnexpected {
		t.Errorf("Kind = %v, want %v", result.Kind, KindUnexpected)
	}

	// the tenant is unaffected by the failure
	if _, ok := store.Get("t1"); !ok {
		t.Error("session should survive a handler panic")
	}
}

func TestDispatch_UnexpectedErrorIsPrefixed(t *testing.T) {
	d, store, _ := newTestDispatcher(t)
	mustCreate(t, store, "t1")

	result := d.Dispatch(context.Background(), "breaks", Arguments{}, "t1")
	if result.Success || result.Kind != KindUnexpected {
		t.Fatalf("result = %+v, want unexpected failure", result)
	}
	want := "Tool execution failed: decoding upstream response: invalid character '<'"
	if result.Error != want {
		t.Errorf("Error = %q, want %q", result.Error, want)
	}
}

func TestDispatch_UpstreamRejection(t *testing.T) {
	d, store, calls := newTestDispatcher(t)
	mustCreate(t, store, "t1")

	result := d.Dispatch(context.Background(), "rejects", Arguments{}, "t1")
	if result.Success || result.Kind != KindUpstreamRejection {
		t.Fatalf("result = %+v, want upstream_rejection", result)
	}
	if !strings.Contains(result.Error, "Invalid parameter") {
		t.Errorf("Error = %q, want the upstream message", result.Error)
	}
	if calls.Load() != 1 {
		t.Errorf("handler calls = %d, want exactly 1 (no retries)", calls.Load())
	}
}

func TestDispatch_ReadOnlyTokenCannotWrite(t *testing.T) {
	d, store, calls := newTestDispatcher(t)
	mustCreate(t, store, "t1")

	ctx := auth.WithContext(context.Background(), &auth.AuthContext{
		Token: &auth.Token{ID: "tok_ro", Scope: auth.ScopeTenantRO("t1")},
	})
	result := d.Dispatch(ctx, "writes", Arguments{}, "t1")
	if result.Success || result.Kind != KindForbidden {
		t.Fatalf("result = %+v, want forbidden", result)
	}
	if calls.Load() != 0 {
		t.Error("handler must not run for a denied token")
	}

	result = d.Dispatch(ctx, "rejects", Arguments{}, "t1")
	if result.Kind == KindForbidden {
		t.Error("read tool should be allowed for a read-only token")
	}
}

func TestToolResult_MarshalJSON(t *testing.T) {
	success, _ := json.Marshal(Succeeded("get_pages", map[string]any{"count": 2}))
	var got map[string]any
	_ = json.Unmarshal(success, &got)
	if got["success"] != true || got["count"] != float64(2) {
		t.Errorf("success envelope = %s", success)
	}

	failure := Failed("get_pages", KindSessionMissing, "Invalid session")
	failure.Details = map[string]any{"hint": "re-authenticate"}
	data, _ := json.Marshal(failure)
	got = nil
	_ = json.Unmarshal(data, &got)
	if got["success"] != false || got["error"] != "Invalid session" || got["tool"] != "get_pages" {
		t.Errorf("failure envelope = %s", data)
	}
	if got["kind"] != "session_missing" || got["hint"] != "re-authenticate" {
		t.Errorf("failure envelope = %s", data)
	}
}

func TestClassify(t *testing.T) {
	tests := []struct {
		err  error
		want ErrorKind
	}{
		{&ArgumentError{Message: "x"}, KindValidation},
		{&session.ValidationError{Field: "resourceId"}, KindValidation},
		{session.ErrSessionNotFound, KindSessionMissing},
		{session.ErrNoResourceSelected, KindNoResourceSelected},
		{&graph.APIError{Message: "denied"}, KindUpstreamRejection},
		{ErrPermissionDenied, KindForbidden},
		{errors.New("anything else"), KindUnexpected},
	}
	for _, tt := range tests {
		if got := Classify(tt.err); got != tt.want {
			t.Errorf("Classify(%v) = %v, want %v", tt.err, got, tt.want)
		}
	}
}

func TestSanitizeError(t *testing.T) {
	upstream := &graph.APIError{Message: "Error validating access token", Code: 190}
	if got := SanitizeError(upstream, "get_pages"); got != upstream.Error() {
		t.Errorf("upstream message altered: %q", got)
	}

	got := SanitizeError(errors.New(`Get "https://graph/x": dial tcp: connection refused`), "get_pages")
	if got != "get_pages failed: upstream unavailable" {
		t.Errorf("transport error = %q", got)
	}

	got = SanitizeError(errors.New("bad client_secret=abc"), "get_pages")
	if strings.Contains(got, "abc") {
		t.Errorf("sensitive detail leaked: %q", got)
	}
}
