package mcp

import (
	"context"
	"net/http"
	"strings"
)

const audienceFields = "id,name,subtype,description,approximate_count_lower_bound,approximate_count_upper_bound,operation_status,time_created"

var audienceSubtypes = []string{"CUSTOM", "WEBSITE", "APP", "ENGAGEMENT", "OFFLINE_CONVERSION"}

func (s *Server) handleGetCustomAudiences(ctx context.Context, call *Call, params LimitParams) (map[string]any, error) {
	body, err := s.upstreamGet(ctx, call, call.Account.Edge("customaudiences"), map[string]any{
		"fields": audienceFields,
		"limit":  clampLimit(params.Limit),
	})
	if err != nil {
		return nil, err
	}
	return listPayload(body, "audiences"), nil
}

type CreateCustomAudienceParams struct {
	Name               string `json:"name" jsonschema:"Audience name"`
	Subtype            string `json:"subtype,omitempty" jsonschema:"Audience subtype (default CUSTOM)"`
	Description        string `json:"description,omitempty" jsonschema:"Free-text description"`
	CustomerFileSource string `json:"customerFileSource,omitempty" jsonschema:"Where customer data came from, e.g. USER_PROVIDED_ONLY"`
}

func (s *Server) handleCreateCustomAudience(ctx context.Context, call *Call, params CreateCustomAudienceParams) (map[string]any, error) {
	if err := requireText("name", params.Name); err != nil {
		return nil, err
	}
	subtype := strings.ToUpper(params.Subtype)
	if subtype == "" {
		subtype = "CUSTOM"
	}
	if err := oneOf("subtype", subtype, audienceSubtypes...); err != nil {
		return nil, err
	}

	body := map[string]any{
		"name":    params.Name,
		"subtype": subtype,
	}
	if params.Description != "" {
		body["description"] = params.Description
	}
	if params.CustomerFileSource != "" {
		body["customer_file_source"] = params.CustomerFileSource
	}

	resp, err := s.upstreamCall(ctx, call, http.MethodPost, call.Account.Edge("customaudiences"), body)
	if err != nil {
		return nil, err
	}
	return map[string]any{
		"audienceId": resp["id"],
		"accountId":  call.Account.ID,
		"subtype":    subtype,
	}, nil
}
