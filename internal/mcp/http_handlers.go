package mcp

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/url"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/HyphaGroup/adgate/internal/audit"
	"github.com/HyphaGroup/adgate/internal/auth"
	"github.com/HyphaGroup/adgate/internal/logger"
	"github.com/HyphaGroup/adgate/internal/metrics"
	"github.com/HyphaGroup/adgate/internal/session"
	"github.com/HyphaGroup/adgate/internal/validation"
)

const maxRequestBody = 1 << 20

func writeJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(body)
}

func writeError(w http.ResponseWriter, status int, message string, extra map[string]any) {
	body := map[string]any{"success": false, "error": message}
	for k, v := range extra {
		body[k] = v
	}
	writeJSON(w, status, body)
}

func decodeBody(r *http.Request, v any) error {
	dec := json.NewDecoder(io.LimitReader(r.Body, maxRequestBody))
	if err := dec.Decode(v); err != nil {
		if errors.Is(err, io.EOF) {
			return errors.New("request body is empty")
		}
		return errors.New("request body must be a JSON object")
	}
	return nil
}

// endpoints lists the URLs a tenant uses after authenticating
func (s *Server) endpoints(tenantID string) map[string]string {
	base := strings.TrimRight(s.cfg.Server.PublicURL, "/")
	wsBase := base
	switch {
	case strings.HasPrefix(base, "https://"):
		wsBase = "wss://" + strings.TrimPrefix(base, "https://")
	case strings.HasPrefix(base, "http://"):
		wsBase = "ws://" + strings.TrimPrefix(base, "http://")
	}
	id := url.PathEscape(tenantID)
	return map[string]string{
		"http":          base + "/call/" + id,
		"websocket":     wsBase + "/ws/" + id,
		"mcp":           base + "/mcp/" + id,
		"selectAccount": base + "/select-account",
		"logout":        base + "/sessions/" + id,
	}
}

func tokenInfo(r *http.Request) (string, string) {
	return scopeOf(r.Context())
}

func requestIDOf(r *http.Request) string {
	id, _ := r.Context().Value(logger.ContextKeyRequestID).(string)
	return id
}

// handleAuth validates tenant credentials and opens a session
func (s *Server) handleAuth(w http.ResponseWriter, r *http.Request) {
	var raw map[string]any
	if err := decodeBody(r, &raw); err != nil {
		writeError(w, http.StatusBadRequest, err.Error(), nil)
		return
	}

	creds, err := session.ParseCredentials(raw)
	if err != nil {
		var verr *session.ValidationError
		extra := map[string]any{}
		if errors.As(err, &verr) {
			extra["field"] = verr.Field
		}
		writeError(w, http.StatusBadRequest, err.Error(), extra)
		return
	}
	if err := validation.ValidateTenantID(creds.TenantID); err != nil {
		writeError(w, http.StatusBadRequest, err.Error(), map[string]any{"field": "tenantId"})
		return
	}
	if creds.SelectedResourceID != "" {
		if err := validation.ValidateAccountID(creds.SelectedResourceID); err != nil {
			writeError(w, http.StatusBadRequest, err.Error(), map[string]any{"field": "selectedResourceId"})
			return
		}
	}

	if s.authStore != nil && !auth.FromContext(r.Context()).CanAccessTenant(creds.TenantID) {
		writeError(w, http.StatusForbidden, "token may not act for tenant "+creds.TenantID, nil)
		return
	}

	tokenID, scope := tokenInfo(r)
	if err := s.sessions.Create(creds); err != nil {
		audit.Log(&audit.Event{
			Operation: audit.OpSessionCreate, TenantID: creds.TenantID,
			TokenID: tokenID, TokenScope: scope, RequestID: requestIDOf(r), Error: err.Error(),
		})
		writeError(w, http.StatusBadRequest, err.Error(), nil)
		return
	}
	// resource tokens were fetched with the previous user token
	if s.fallback != nil {
		s.fallback.Forget(creds.TenantID)
	}
	s.sdk.forget(creds.TenantID)
	metrics.SetActiveSessions(s.sessions.ActiveCount())

	account := ""
	if view, ok := s.sessions.Get(creds.TenantID); ok && view.Account != nil {
		account = view.Account.ID
	}
	audit.Log(&audit.Event{
		Operation: audit.OpSessionCreate, TenantID: creds.TenantID, AccountID: account,
		TokenID: tokenID, TokenScope: scope, RequestID: requestIDOf(r), Success: true,
	})
	logger.InfoContext(logger.WithTenant(r.Context(), creds.TenantID), "session created", "account_id", account)

	body := map[string]any{
		"success":   true,
		"tenantId":  creds.TenantID,
		"endpoints": s.endpoints(creds.TenantID),
	}
	if account != "" {
		body["selectedAccountId"] = account
	}
	writeJSON(w, http.StatusOK, body)
}

type selectAccountRequest struct {
	TenantID   string `json:"tenantId"`
	ResourceID string `json:"resourceId"`
	// AccountID is accepted as an alias of ResourceID
	AccountID string `json:"accountId"`
}

// handleSelectAccount binds an ad account to a tenant session
func (s *Server) handleSelectAccount(w http.ResponseWriter, r *http.Request) {
	var req selectAccountRequest
	if err := decodeBody(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, err.Error(), nil)
		return
	}
	if req.ResourceID == "" {
		req.ResourceID = req.AccountID
	}
	if req.TenantID == "" {
		writeError(w, http.StatusBadRequest, "tenantId is required", map[string]any{"field": "tenantId"})
		return
	}
	if s.authStore != nil {
		authCtx := auth.FromContext(r.Context())
		if !authCtx.CanAccessTenant(req.TenantID) || !authCtx.CanWrite() {
			writeError(w, http.StatusForbidden, "token may not select accounts for tenant "+req.TenantID, nil)
			return
		}
	}
	if req.ResourceID != "" {
		if err := validation.ValidateAccountID(req.ResourceID); err != nil {
			writeError(w, http.StatusBadRequest, err.Error(), map[string]any{"field": "resourceId"})
			return
		}
	}

	account, err := s.sessions.SelectResource(req.TenantID, req.ResourceID)
	audit.LogTenant(audit.OpSelectAccount, req.TenantID, account.ID, err)
	if err != nil {
		var verr *session.ValidationError
		switch {
		case errors.As(err, &verr):
			writeError(w, http.StatusBadRequest, err.Error(), map[string]any{"field": verr.Field})
		case errors.Is(err, session.ErrSessionNotFound):
			writeError(w, http.StatusNotFound, msgInvalidSession, nil)
		default:
			writeError(w, http.StatusInternalServerError, err.Error(), nil)
		}
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"success":           true,
		"tenantId":          req.TenantID,
		"selectedAccountId": account.ID,
	})
}

// handleLogout removes a tenant session
func (s *Server) handleLogout(w http.ResponseWriter, r *http.Request) {
	tenantID := chi.URLParam(r, "tenantID")
	removed := s.sessions.Remove(tenantID)
	if s.fallback != nil {
		s.fallback.Forget(tenantID)
	}
	s.sdk.forget(tenantID)
	metrics.SetActiveSessions(s.sessions.ActiveCount())

	if !removed {
		writeError(w, http.StatusNotFound, msgInvalidSession, nil)
		return
	}
	audit.LogTenant(audit.OpSessionRemove, tenantID, "", nil)
	writeJSON(w, http.StatusOK, map[string]any{"success": true, "tenantId": tenantID})
}

// handleListTools returns the tool catalog visible to the caller
func (s *Server) handleListTools(w http.ResponseWriter, r *http.Request) {
	_, scope := tokenInfo(r)
	tenantID := ""
	if auth.IsTenantScope(scope) {
		tenantID = auth.ExtractTenantID(scope)
	}
	tools := s.registry.catalog(scope, tenantID)
	writeJSON(w, http.StatusOK, map[string]any{
		"success": true,
		"tools":   tools,
		"count":   len(tools),
	})
}

type callRequest struct {
	Method string    `json:"method"`
	Params Arguments `json:"params"`
}

// handleCall runs one tool call in the {method, params} form
func (s *Server) handleCall(w http.ResponseWriter, r *http.Request) {
	tenantID := chi.URLParam(r, "tenantID")

	var req callRequest
	if err := decodeBody(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, err.Error(), nil)
		return
	}
	if req.Method == "" {
		writeError(w, http.StatusBadRequest, "method is required", nil)
		return
	}

	result := s.dispatcher.Dispatch(r.Context(), req.Method, req.Params, tenantID)
	status := http.StatusOK
	if !result.Success {
		status = result.Kind.HTTPStatus()
	}
	writeJSON(w, status, result)
}
