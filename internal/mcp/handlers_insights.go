package mcp

import (
	"context"
	"strings"
)

var (
	defaultInsightFields = []string{"impressions", "clicks", "spend", "reach", "ctr", "cpc", "cpm", "actions"}

	datePresets = []string{
		"today", "yesterday", "this_month", "last_month", "last_3d", "last_7d",
		"last_14d", "last_28d", "last_30d", "last_90d", "this_year", "last_year", "maximum",
	}

	insightLevels = []string{"account", "campaign", "adset", "ad"}
)

type InsightsParams struct {
	ObjectID   string   `json:"objectId,omitempty" jsonschema:"Campaign, ad set or ad id; defaults to the selected account"`
	DatePreset string   `json:"datePreset,omitempty" jsonschema:"Reporting window, e.g. last_7d (default last_30d)"`
	Level      string   `json:"level,omitempty" jsonschema:"Aggregation level: account, campaign, adset or ad"`
	Fields     []string `json:"fields,omitempty" jsonschema:"Metrics to return"`
	Breakdowns []string `json:"breakdowns,omitempty" jsonschema:"Breakdowns such as age or country"`
	Limit      int      `json:"limit,omitempty" jsonschema:"Maximum number of rows to return (1-100, default 25)"`
}

func (s *Server) handleGetInsights(ctx context.Context, call *Call, params InsightsParams) (map[string]any, error) {
	target := call.Account.ID
	if params.ObjectID != "" {
		if err := requireObjectID("objectId", params.ObjectID); err != nil {
			return nil, err
		}
		target = params.ObjectID
	}

	preset := params.DatePreset
	if preset == "" {
		preset = "last_30d"
	}
	if err := oneOf("datePreset", preset, datePresets...); err != nil {
		return nil, err
	}

	fields := params.Fields
	if len(fields) == 0 {
		fields = defaultInsightFields
	}

	query := map[string]any{
		"fields":      strings.Join(fields, ","),
		"date_preset": preset,
		"limit":       clampLimit(params.Limit),
	}
	if params.Level != "" {
		if err := oneOf("level", params.Level, insightLevels...); err != nil {
			return nil, err
		}
		query["level"] = params.Level
	}
	if len(params.Breakdowns) > 0 {
		query["breakdowns"] = strings.Join(params.Breakdowns, ",")
	}

	body, err := s.upstreamGet(ctx, call, target+"/insights", query)
	if err != nil {
		return nil, err
	}
	out := listPayload(body, "insights")
	out["objectId"] = target
	out["datePreset"] = preset
	return out, nil
}
