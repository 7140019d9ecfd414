package mcp

import (
	"context"
	"net/http"
)

const (
	pageFields = "id,name,category,fan_count,tasks,access_token"
	postFields = "id,message,created_time,permalink_url,status_type"
)

// stripPageTokens removes access tokens from upstream page objects
func stripPageTokens(pages []any) []any {
	out := make([]any, 0, len(pages))
	for _, p := range pages {
		page, ok := p.(map[string]any)
		if !ok {
			continue
		}
		clean := make(map[string]any, len(page))
		for k, v := range page {
			if k == "access_token" {
				continue
			}
			clean[k] = v
		}
		out = append(out, clean)
	}
	return out
}

func (s *Server) handleGetPages(ctx context.Context, call *Call, params LimitParams) (map[string]any, error) {
	body, err := s.upstreamGet(ctx, call, "me/accounts", map[string]any{
		"fields": pageFields,
		"limit":  clampLimit(params.Limit),
	})
	if err != nil {
		return nil, err
	}
	data, _ := body["data"].([]any)
	body["data"] = stripPageTokens(data)
	return listPayload(body, "pages"), nil
}

type PagePostsParams struct {
	PageID string `json:"pageId" jsonschema:"Page id"`
	Limit  int    `json:"limit,omitempty" jsonschema:"Maximum number of posts to return (1-100, default 25)"`
}

func (s *Server) handleGetPagePosts(ctx context.Context, call *Call, params PagePostsParams) (map[string]any, error) {
	if err := requireObjectID("pageId", params.PageID); err != nil {
		return nil, err
	}
	body, err := s.upstreamWithFallback(ctx, call, params.PageID, http.MethodGet, params.PageID+"/posts", map[string]any{
		"fields": postFields,
		"limit":  clampLimit(params.Limit),
	})
	if err != nil {
		return nil, err
	}
	out := listPayload(body, "posts")
	out["pageId"] = params.PageID
	return out, nil
}

type CreatePagePostParams struct {
	PageID  string `json:"pageId" jsonschema:"Page id"`
	Message string `json:"message" jsonschema:"Post text"`
	Link    string `json:"link,omitempty" jsonschema:"URL to attach"`
}

func (s *Server) handleCreatePagePost(ctx context.Context, call *Call, params CreatePagePostParams) (map[string]any, error) {
	if err := requireObjectID("pageId", params.PageID); err != nil {
		return nil, err
	}
	if err := requireText("message", params.Message); err != nil {
		return nil, err
	}
	body := map[string]any{"message": params.Message}
	if params.Link != "" {
		body["link"] = params.Link
	}

	resp, err := s.upstreamWithFallback(ctx, call, params.PageID, http.MethodPost, params.PageID+"/feed", body)
	if err != nil {
		return nil, err
	}
	return map[string]any{"postId": resp["id"], "pageId": params.PageID}, nil
}
