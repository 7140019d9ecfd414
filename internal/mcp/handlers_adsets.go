package mcp

import (
	"context"
)

const (
	adSetFields = "id,name,campaign_id,status,effective_status,daily_budget,lifetime_budget,optimization_goal,billing_event,start_time,end_time"
	adFields    = "id,name,adset_id,campaign_id,status,effective_status,creative{id,name},created_time"
)

type AdSetsParams struct {
	CampaignID string   `json:"campaignId,omitempty" jsonschema:"Only list ad sets of this campaign"`
	Status     []string `json:"status,omitempty" jsonschema:"Effective statuses to include"`
	Limit      int      `json:"limit,omitempty" jsonschema:"Maximum number of ad sets to return (1-100, default 25)"`
}

func (s *Server) handleGetAdSets(ctx context.Context, call *Call, params AdSetsParams) (map[string]any, error) {
	parent := call.Account.ID
	if params.CampaignID != "" {
		if err := requireObjectID("campaignId", params.CampaignID); err != nil {
			return nil, err
		}
		parent = params.CampaignID
	}

	query, err := listParams(adSetFields, params.Status, params.Limit)
	if err != nil {
		return nil, err
	}
	body, err := s.upstreamGet(ctx, call, parent+"/adsets", query)
	if err != nil {
		return nil, err
	}
	out := listPayload(body, "adSets")
	out["parentId"] = parent
	return out, nil
}

type AdsParams struct {
	AdSetID string   `json:"adSetId,omitempty" jsonschema:"Only list ads of this ad set"`
	Status  []string `json:"status,omitempty" jsonschema:"Effective statuses to include"`
	Limit   int      `json:"limit,omitempty" jsonschema:"Maximum number of ads to return (1-100, default 25)"`
}

func (s *Server) handleGetAds(ctx context.Context, call *Call, params AdsParams) (map[string]any, error) {
	parent := call.Account.ID
	if params.AdSetID != "" {
		if err := requireObjectID("adSetId", params.AdSetID); err != nil {
			return nil, err
		}
		parent = params.AdSetID
	}

	query, err := listParams(adFields, params.Status, params.Limit)
	if err != nil {
		return nil, err
	}
	body, err := s.upstreamGet(ctx, call, parent+"/ads", query)
	if err != nil {
		return nil, err
	}
	out := listPayload(body, "ads")
	out["parentId"] = parent
	return out, nil
}
