package mcp

import (
	"context"
	"net/http"
	"strings"
	"testing"

	"github.com/HyphaGroup/adgate/internal/graph"
	"github.com/HyphaGroup/adgate/internal/testutil"
)

var errTokenRefused = &graph.APIError{Status: 403, Message: "(#200) Requires pages_manage_engagement", Code: 200}

// pageTokenUpstream refuses the tenant token on everything except the
// resource token lookup, and accepts "page-tok" through accept.
func pageTokenUpstream(accept func(graph.Request) (map[string]any, error)) *testutil.MockCaller {
	return &testutil.MockCaller{Respond: func(req graph.Request) (map[string]any, error) {
		if req.Token == "page-tok" {
			return accept(req)
		}
		if testutil.IsTokenLookup(req) {
			return map[string]any{"access_token": "page-tok", "id": req.Path}, nil
		}
		return nil, errTokenRefused
	}}
}

func TestGetAdAccounts_CachesResources(t *testing.T) {
	upstream := &testutil.MockCaller{Respond: func(req graph.Request) (map[string]any, error) {
		return map[string]any{"data": []any{
			map[string]any{"id": "act_1", "name": "One", "account_status": float64(1), "currency": "USD"},
			map[string]any{"id": "act_2", "name": "Two", "account_status": float64(2), "currency": "EUR"},
		}}, nil
	}}
	srv, store := newTestServer(t, upstream)
	mustCreate(t, store, "t1")

	result := srv.Dispatcher().Dispatch(context.Background(), "get_ad_accounts", Arguments{}, "t1")
	if !result.Success {
		t.Fatalf("result = %+v", result)
	}
	if result.Payload["count"] != 2 {
		t.Errorf("count = %v, want 2", result.Payload["count"])
	}

	reqs := upstream.Requests()
	if len(reqs) != 1 || reqs[0].Path != "me/adaccounts" || reqs[0].Token != "user-token-t1" {
		t.Fatalf("requests = %+v", reqs)
	}

	view, _ := store.Get("t1")
	if len(view.Resources) != 2 || view.Resources[1].Currency != "EUR" || view.Resources[0].Status != 1 {
		t.Errorf("cached resources = %+v", view.Resources)
	}

	result = srv.Dispatcher().Dispatch(context.Background(), "select_ad_account", Arguments{"accountId": "2"}, "t1")
	if !result.Success || result.Payload["selectedAccountId"] != "act_2" {
		t.Fatalf("select result = %+v", result)
	}
	if _, ok := result.Payload["account"]; !ok {
		t.Error("select should echo the cached account summary")
	}
}

func TestGetCampaigns_UsesSelectedAccount(t *testing.T) {
	upstream := &testutil.MockCaller{Respond: func(graph.Request) (map[string]any, error) {
		return map[string]any{"data": []any{map[string]any{"id": "9"}}}, nil
	}}
	srv, store := newTestServer(t, upstream)
	mustCreate(t, store, "t1")
	if _, err := store.SelectResource("t1", "123"); err != nil {
		t.Fatal(err)
	}

	result := srv.Dispatcher().Dispatch(context.Background(), "get_campaigns",
		Arguments{"status": []any{"active"}, "limit": float64(500)}, "t1")
	if !result.Success {
		t.Fatalf("result = %+v", result)
	}

	req := upstream.Requests()[0]
	if req.Method != http.MethodGet || req.Path != "act_123/campaigns" {
		t.Errorf("request = %s %s, want GET act_123/campaigns", req.Method, req.Path)
	}
	if req.Params["limit"] != maxLimit {
		t.Errorf("limit = %v, want clamp to %d", req.Params["limit"], maxLimit)
	}
	filter, _ := req.Params["effective_status"].([]string)
	if len(filter) != 1 || filter[0] != "ACTIVE" {
		t.Errorf("effective_status = %v, want [ACTIVE]", req.Params["effective_status"])
	}
	if result.Payload["accountId"] != "act_123" || result.Payload["count"] != 1 {
		t.Errorf("payload = %+v", result.Payload)
	}
}

func TestGetCampaigns_NoSelectionMakesNoUpstreamCall(t *testing.T) {
	upstream := testutil.NewMockCaller(t)
	srv, store := newTestServer(t, upstream)
	mustCreate(t, store, "t1")

	result := srv.Dispatcher().Dispatch(context.Background(), "get_campaigns", Arguments{}, "t1")
	if result.Success || result.Kind != KindNoResourceSelected {
		t.Fatalf("result = %+v", result)
	}
	if upstream.Count() != 0 {
		t.Errorf("upstream calls = %d, want 0", upstream.Count())
	}
}

func TestGetPages_StripsTokens(t *testing.T) {
	upstream := &testutil.MockCaller{Respond: func(graph.Request) (map[string]any, error) {
		return map[string]any{"data": []any{
			map[string]any{"id": "111", "name": "Shop", "access_token": "secret-page-token"},
		}}, nil
	}}
	srv, store := newTestServer(t, upstream)
	mustCreate(t, store, "t1")

	result := srv.Dispatcher().Dispatch(context.Background(), "get_pages", Arguments{}, "t1")
	if !result.Success {
		t.Fatalf("result = %+v", result)
	}
	pages := result.Payload["pages"].([]any)
	page := pages[0].(map[string]any)
	if _, ok := page["access_token"]; ok {
		t.Error("page access token leaked to client")
	}
	if page["name"] != "Shop" {
		t.Errorf("page = %v", page)
	}
}

func TestReplyToComment_FallsBackToPageToken(t *testing.T) {
	upstream := pageTokenUpstream(func(req graph.Request) (map[string]any, error) {
		return map[string]any{"id": "111_999"}, nil
	})
	srv, store := newTestServer(t, upstream)
	mustCreate(t, store, "t1")

	args := Arguments{"commentId": "111_222", "message": "thanks!"}
	result := srv.Dispatcher().Dispatch(context.Background(), "reply_to_comment", args, "t1")
	if !result.Success {
		t.Fatalf("result = %+v", result)
	}
	if result.Payload["replyId"] != "111_999" {
		t.Errorf("replyId = %v", result.Payload["replyId"])
	}

	reqs := upstream.Requests()
	if len(reqs) != 3 {
		t.Fatalf("upstream calls = %d, want 3 (broad, lookup, retry)", len(reqs))
	}
	if reqs[1].Path != "111" {
		t.Errorf("lookup path = %q, want owning page 111", reqs[1].Path)
	}
	if reqs[2].Path != "111_222/comments" || reqs[2].Token != "page-tok" || reqs[2].Params["message"] != "thanks!" {
		t.Errorf("retry = %+v", reqs[2])
	}

	// second reply reuses the cached page token
	args["commentId"] = "111_333"
	if result := srv.Dispatcher().Dispatch(context.Background(), "reply_to_comment", args, "t1"); !result.Success {
		t.Fatalf("second result = %+v", result)
	}
	if got := upstream.Count(); got != 5 {
		t.Errorf("upstream calls = %d, want 5 after a cached retry", got)
	}
}

func TestReplyToComment_BothAttemptsFail(t *testing.T) {
	upstream := pageTokenUpstream(func(graph.Request) (map[string]any, error) {
		return nil, &graph.APIError{Status: 400, Message: "Comment does not exist", Code: 100}
	})
	srv, store := newTestServer(t, upstream)
	mustCreate(t, store, "t1")

	result := srv.Dispatcher().Dispatch(context.Background(), "reply_to_comment",
		Arguments{"commentId": "111_222", "message": "hi"}, "t1")
	if result.Success || result.Kind != KindUpstreamRejection {
		t.Fatalf("result = %+v", result)
	}
	if !strings.Contains(result.Error, "Requires pages_manage_engagement") || !strings.Contains(result.Error, "Comment does not exist") {
		t.Errorf("Error = %q, want both failure reasons", result.Error)
	}
}

func TestBulkDeleteComments_PartialFailure(t *testing.T) {
	upstream := pageTokenUpstream(func(req graph.Request) (map[string]any, error) {
		if req.Path == "111_2" {
			return nil, &graph.APIError{Status: 400, Message: "Comment does not exist", Code: 100}
		}
		return map[string]any{"success": true}, nil
	})
	srv, store := newTestServer(t, upstream)
	mustCreate(t, store, "t1")

	result := srv.Dispatcher().Dispatch(context.Background(), "bulk_delete_comments",
		Arguments{"commentIds": []any{"111_1", "111_2"}}, "t1")
	if !result.Success {
		t.Fatalf("result = %+v", result)
	}
	if result.Payload["succeeded"] != 1 || result.Payload["failed"] != 1 || result.Payload["total"] != 2 {
		t.Errorf("report = %+v", result.Payload)
	}
	items := result.Payload["results"].([]bulkItem)
	if !items[0].Success || items[1].Success || items[1].Error == "" {
		t.Errorf("items = %+v", items)
	}
}

func TestHideComment_DefaultsToHidden(t *testing.T) {
	upstream := testutil.NewMockCaller(t)
	srv, store := newTestServer(t, upstream)
	mustCreate(t, store, "t1")

	result := srv.Dispatcher().Dispatch(context.Background(), "hide_comment", Arguments{"commentId": "111_5"}, "t1")
	if !result.Success || result.Payload["hidden"] != true {
		t.Fatalf("result = %+v", result)
	}
	req := upstream.Requests()[0]
	if req.Method != http.MethodPost || req.Params["is_hidden"] != true {
		t.Errorf("request = %+v", req)
	}
}

func TestHandlers_ArgumentValidation(t *testing.T) {
	tests := []struct {
		name string
		tool string
		args Arguments
	}{
		{"missing required message", "reply_to_comment", Arguments{"commentId": "111_222"}},
		{"empty message", "reply_to_comment", Arguments{"commentId": "111_222", "message": ""}},
		{"malformed comment id", "delete_comment", Arguments{"commentId": "../me"}},
		{"bad comment order", "get_post_comments", Arguments{"postId": "111_2", "order": "random"}},
		{"empty bulk list", "bulk_delete_comments", Arguments{"commentIds": []any{}}},
		{"malformed account id", "select_ad_account", Arguments{"accountId": "act_abc"}},
		{"update without fields", "update_campaign", Arguments{"campaignId": "42"}},
		{"bad campaign status", "update_campaign", Arguments{"campaignId": "42", "status": "RUNNING"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			upstream := testutil.NewMockCaller(t)
			srv, store := newTestServer(t, upstream)
			mustCreate(t, store, "t1")

			result := srv.Dispatcher().Dispatch(context.Background(), tt.tool, tt.args, "t1")
			if result.Success || result.Kind != KindValidation {
				t.Fatalf("result = %+v, want validation failure", result)
			}
			if upstream.Count() != 0 {
				t.Errorf("upstream calls = %d, want 0", upstream.Count())
			}
		})
	}
}

func TestCreateCampaign_Defaults(t *testing.T) {
	upstream := &testutil.MockCaller{Respond: func(graph.Request) (map[string]any, error) {
		return map[string]any{"id": "777"}, nil
	}}
	srv, store := newTestServer(t, upstream)
	mustCreate(t, store, "t1")
	if _, err := store.SelectResource("t1", "act_5"); err != nil {
		t.Fatal(err)
	}

	result := srv.Dispatcher().Dispatch(context.Background(), "create_campaign",
		Arguments{"name": "Spring", "objective": "outcome_traffic", "dailyBudget": float64(1000)}, "t1")
	if !result.Success {
		t.Fatalf("result = %+v", result)
	}
	req := upstream.Requests()[0]
	if req.Path != "act_5/campaigns" || req.Params["status"] != "PAUSED" || req.Params["objective"] != "OUTCOME_TRAFFIC" {
		t.Errorf("request = %+v", req)
	}
	if cats, ok := req.Params["special_ad_categories"].([]string); !ok || len(cats) != 0 {
		t.Errorf("special_ad_categories = %v, want empty list", req.Params["special_ad_categories"])
	}
	if result.Payload["campaignId"] != "777" {
		t.Errorf("payload = %+v", result.Payload)
	}
}
