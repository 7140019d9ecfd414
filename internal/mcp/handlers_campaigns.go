package mcp

import (
	"context"
	"net/http"
	"sort"
	"strings"
)

const campaignFields = "id,name,objective,status,effective_status,daily_budget,lifetime_budget,budget_remaining,start_time,stop_time,created_time"

// Statuses a client may set on a campaign
var campaignStatuses = []string{"ACTIVE", "PAUSED", "ARCHIVED"}

// effectiveStatuses are accepted by list filters
var effectiveStatuses = []string{
	"ACTIVE", "PAUSED", "DELETED", "ARCHIVED", "IN_PROCESS", "WITH_ISSUES",
	"CAMPAIGN_PAUSED", "ADSET_PAUSED", "PENDING_REVIEW", "DISAPPROVED",
}

type CampaignsParams struct {
	Status []string `json:"status,omitempty" jsonschema:"Effective statuses to include, e.g. ACTIVE or PAUSED"`
	Limit  int      `json:"limit,omitempty" jsonschema:"Maximum number of campaigns to return (1-100, default 25)"`
}

// statusFilter validates and uppercases an effective_status filter
func statusFilter(statuses []string) ([]string, error) {
	out := make([]string, 0, len(statuses))
	for _, st := range statuses {
		st = strings.ToUpper(strings.TrimSpace(st))
		if err := oneOf("status", st, effectiveStatuses...); err != nil {
			return nil, err
		}
		out = append(out, st)
	}
	return out, nil
}

// listParams builds fields, limit and the optional status filter
func listParams(fields string, statuses []string, limit int) (map[string]any, error) {
	params := map[string]any{
		"fields": fields,
		"limit":  clampLimit(limit),
	}
	if len(statuses) > 0 {
		filter, err := statusFilter(statuses)
		if err != nil {
			return nil, err
		}
		params["effective_status"] = filter
	}
	return params, nil
}

func (s *Server) handleGetCampaigns(ctx context.Context, call *Call, params CampaignsParams) (map[string]any, error) {
	query, err := listParams(campaignFields, params.Status, params.Limit)
	if err != nil {
		return nil, err
	}
	body, err := s.upstreamGet(ctx, call, call.Account.Edge("campaigns"), query)
	if err != nil {
		return nil, err
	}
	out := listPayload(body, "campaigns")
	out["accountId"] = call.Account.ID
	return out, nil
}

type CampaignDetailsParams struct {
	CampaignID string `json:"campaignId" jsonschema:"Campaign id"`
}

func (s *Server) handleGetCampaignDetails(ctx context.Context, call *Call, params CampaignDetailsParams) (map[string]any, error) {
	if err := requireObjectID("campaignId", params.CampaignID); err != nil {
		return nil, err
	}
	body, err := s.upstreamGet(ctx, call, params.CampaignID, map[string]any{"fields": campaignFields})
	if err != nil {
		return nil, err
	}
	return map[string]any{"campaign": body}, nil
}

type CreateCampaignParams struct {
	Name                string   `json:"name" jsonschema:"Campaign name"`
	Objective           string   `json:"objective" jsonschema:"Campaign objective, e.g. OUTCOME_TRAFFIC"`
	Status              string   `json:"status,omitempty" jsonschema:"ACTIVE or PAUSED (default PAUSED)"`
	DailyBudget         int      `json:"dailyBudget,omitempty" jsonschema:"Daily budget in the currency's minor unit"`
	LifetimeBudget      int      `json:"lifetimeBudget,omitempty" jsonschema:"Lifetime budget in the currency's minor unit"`
	SpecialAdCategories []string `json:"specialAdCategories,omitempty" jsonschema:"Special ad categories, e.g. HOUSING; empty when none apply"`
}

func (s *Server) handleCreateCampaign(ctx context.Context, call *Call, params CreateCampaignParams) (map[string]any, error) {
	if err := requireText("name", params.Name); err != nil {
		return nil, err
	}
	if err := requireText("objective", params.Objective); err != nil {
		return nil, err
	}
	status := strings.ToUpper(params.Status)
	if status == "" {
		status = "PAUSED"
	}
	if err := oneOf("status", status, "ACTIVE", "PAUSED"); err != nil {
		return nil, err
	}
	if params.DailyBudget > 0 && params.LifetimeBudget > 0 {
		return nil, argError("dailyBudget", "set dailyBudget or lifetimeBudget, not both")
	}

	categories := params.SpecialAdCategories
	if categories == nil {
		categories = []string{}
	}
	body := map[string]any{
		"name":                  params.Name,
		"objective":             strings.ToUpper(params.Objective),
		"status":                status,
		"special_ad_categories": categories,
	}
	if params.DailyBudget > 0 {
		body["daily_budget"] = params.DailyBudget
	}
	if params.LifetimeBudget > 0 {
		body["lifetime_budget"] = params.LifetimeBudget
	}

	resp, err := s.upstreamCall(ctx, call, http.MethodPost, call.Account.Edge("campaigns"), body)
	if err != nil {
		return nil, err
	}
	return map[string]any{
		"campaignId": resp["id"],
		"accountId":  call.Account.ID,
		"status":     status,
	}, nil
}

type UpdateCampaignParams struct {
	CampaignID     string `json:"campaignId" jsonschema:"Campaign id"`
	Name           string `json:"name,omitempty" jsonschema:"New campaign name"`
	Status         string `json:"status,omitempty" jsonschema:"ACTIVE, PAUSED or ARCHIVED"`
	DailyBudget    int    `json:"dailyBudget,omitempty" jsonschema:"New daily budget in the currency's minor unit"`
	LifetimeBudget int    `json:"lifetimeBudget,omitempty" jsonschema:"New lifetime budget in the currency's minor unit"`
}

func (s *Server) handleUpdateCampaign(ctx context.Context, call *Call, params UpdateCampaignParams) (map[string]any, error) {
	if err := requireObjectID("campaignId", params.CampaignID); err != nil {
		return nil, err
	}

	body := map[string]any{}
	if params.Name != "" {
		body["name"] = params.Name
	}
	if params.Status != "" {
		status := strings.ToUpper(params.Status)
		if err := oneOf("status", status, campaignStatuses...); err != nil {
			return nil, err
		}
		body["status"] = status
	}
	if params.DailyBudget > 0 {
		body["daily_budget"] = params.DailyBudget
	}
	if params.LifetimeBudget > 0 {
		body["lifetime_budget"] = params.LifetimeBudget
	}
	if len(body) == 0 {
		return nil, argError("campaignId", "nothing to update: set name, status, dailyBudget or lifetimeBudget")
	}

	resp, err := s.upstreamCall(ctx, call, http.MethodPost, params.CampaignID, body)
	if err != nil {
		return nil, err
	}
	updated := make([]string, 0, len(body))
	for k := range body {
		updated = append(updated, k)
	}
	sort.Strings(updated)
	return map[string]any{
		"campaignId": params.CampaignID,
		"updated":    updated,
		"result":     resp,
	}, nil
}

func (s *Server) handleDeleteCampaign(ctx context.Context, call *Call, params CampaignDetailsParams) (map[string]any, error) {
	if err := requireObjectID("campaignId", params.CampaignID); err != nil {
		return nil, err
	}
	if _, err := s.upstreamCall(ctx, call, http.MethodDelete, params.CampaignID, nil); err != nil {
		return nil, err
	}
	return map[string]any{"campaignId": params.CampaignID, "deleted": true}, nil
}
