package mcp

import "github.com/HyphaGroup/adgate/internal/auth"

// IsToolAllowed checks if a tool may be called by a token scope on behalf of
// tenantID.
func IsToolAllowed(tool *ToolDef, tokenScope, tenantID string) bool {
	isAdmin := auth.IsAdminScope(tokenScope)
	isTenantScope := auth.IsTenantScope(tokenScope)
	isReadOnly := auth.IsReadOnlyScope(tokenScope)

	// Write access check - read-only tokens can't write
	if tool.Access == AccessWrite && isReadOnly {
		return false
	}

	if isAdmin {
		return true
	}

	if isTenantScope {
		// Empty tenantID means we can't verify - deny
		if tenantID == "" {
			return false
		}
		return auth.ExtractTenantID(tokenScope) == tenantID
	}

	return false
}
