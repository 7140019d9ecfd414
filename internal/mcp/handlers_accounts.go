package mcp

import (
	"context"

	"github.com/HyphaGroup/adgate/internal/audit"
	"github.com/HyphaGroup/adgate/internal/session"
	"github.com/HyphaGroup/adgate/internal/validation"
)

const (
	accountFields     = "id,name,account_status,currency,timezone_name"
	accountInfoFields = accountFields + ",amount_spent,balance,spend_cap,business_name"
)

func (s *Server) handleGetAdAccounts(ctx context.Context, call *Call, params LimitParams) (map[string]any, error) {
	body, err := s.upstreamGet(ctx, call, "me/adaccounts", map[string]any{
		"fields": accountFields,
		"limit":  clampLimit(params.Limit),
	})
	if err != nil {
		return nil, err
	}

	data, _ := body["data"].([]any)
	accounts := make([]session.ResourceSummary, 0, len(data))
	for _, item := range data {
		obj, ok := item.(map[string]any)
		if !ok {
			continue
		}
		accounts = append(accounts, resourceSummary(obj))
	}

	if err := s.sessions.CacheResources(call.TenantID, accounts); err != nil {
		return nil, err
	}

	out := map[string]any{
		"accounts": accounts,
		"count":    len(accounts),
	}
	if call.Session.Account != nil {
		out["selectedAccountId"] = call.Session.Account.ID
	}
	return out, nil
}

func resourceSummary(obj map[string]any) session.ResourceSummary {
	summary := session.ResourceSummary{}
	summary.ID, _ = obj["id"].(string)
	summary.Name, _ = obj["name"].(string)
	summary.Currency, _ = obj["currency"].(string)
	summary.TimezoneName, _ = obj["timezone_name"].(string)
	if status, ok := obj["account_status"].(float64); ok {
		summary.Status = int(status)
	}
	return summary
}

type SelectAdAccountParams struct {
	AccountID string `json:"accountId" jsonschema:"Ad account id, with or without the act_ prefix"`
}

func (s *Server) handleSelectAdAccount(ctx context.Context, call *Call, params SelectAdAccountParams) (map[string]any, error) {
	if err := validation.ValidateAccountID(params.AccountID); err != nil {
		return nil, &ArgumentError{Field: "accountId", Message: err.Error()}
	}

	account, err := s.sessions.SelectResource(call.TenantID, params.AccountID)
	audit.LogTenant(audit.OpSelectAccount, call.TenantID, account.ID, err)
	if err != nil {
		return nil, err
	}

	out := map[string]any{"selectedAccountId": account.ID}
	for _, r := range call.Session.Resources {
		if r.ID == account.ID {
			out["account"] = r
			break
		}
	}
	return out, nil
}

func (s *Server) handleGetAccountInfo(ctx context.Context, call *Call, params EmptyParams) (map[string]any, error) {
	body, err := s.upstreamGet(ctx, call, call.Account.ID, map[string]any{
		"fields": accountInfoFields,
	})
	if err != nil {
		return nil, err
	}
	return map[string]any{"account": body}, nil
}
