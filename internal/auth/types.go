package auth

import (
	"fmt"
	"strings"
	"time"
)

// Token is a gateway access token. ID is the public handle used for listing
// and revocation; the bearer secret itself is only shown once at creation.
type Token struct {
	ID         string     `json:"id"`
	Name       string     `json:"name"`
	Scope      string     `json:"scope"`
	CreatedAt  time.Time  `json:"created_at"`
	LastUsedAt *time.Time `json:"last_used_at,omitempty"`
	ExpiresAt  *time.Time `json:"expires_at,omitempty"`
}

// Scope constants
const (
	ScopeAdmin   = "admin"
	ScopeAdminRO = "admin:ro"

	tenantScopePrefix = "tenant:"
	readOnlySuffix    = ":ro"
)

// ScopeTenant returns a scope limited to one tenant
func ScopeTenant(tenantID string) string {
	return tenantScopePrefix + tenantID
}

// ScopeTenantRO returns a read-only scope limited to one tenant
func ScopeTenantRO(tenantID string) string {
	return tenantScopePrefix + tenantID + readOnlySuffix
}

// IsAdminScope returns true if scope is admin or admin:ro
func IsAdminScope(scope string) bool {
	return scope == ScopeAdmin || scope == ScopeAdminRO
}

// IsTenantScope returns true if scope is tenant:<id> or tenant:<id>:ro
func IsTenantScope(scope string) bool {
	return strings.HasPrefix(scope, tenantScopePrefix) && ExtractTenantID(scope) != ""
}

// IsReadOnlyScope returns true for admin:ro and tenant:*:ro
func IsReadOnlyScope(scope string) bool {
	return strings.HasSuffix(scope, readOnlySuffix)
}

// ExtractTenantID returns the tenant of a tenant scope, or "" for other scopes
func ExtractTenantID(scope string) string {
	if !strings.HasPrefix(scope, tenantScopePrefix) {
		return ""
	}
	return strings.TrimSuffix(strings.TrimPrefix(scope, tenantScopePrefix), readOnlySuffix)
}

// ValidateScope rejects scope strings the gateway does not understand
func ValidateScope(scope string) error {
	if IsAdminScope(scope) || IsTenantScope(scope) {
		return nil
	}
	return fmt.Errorf("invalid scope %q (want admin, admin:ro, tenant:<id> or tenant:<id>:ro)", scope)
}

// AuthContext holds authentication information for a request
type AuthContext struct {
	Token *Token
}

// CanAccessTenant checks if the token may act for tenantID
func (a *AuthContext) CanAccessTenant(tenantID string) bool {
	if a == nil || a.Token == nil {
		return false
	}
	if IsAdminScope(a.Token.Scope) {
		return true
	}
	return IsTenantScope(a.Token.Scope) && ExtractTenantID(a.Token.Scope) == tenantID
}

// CanWrite checks if the auth context allows write operations
func (a *AuthContext) CanWrite() bool {
	if a == nil || a.Token == nil {
		return false
	}
	return !IsReadOnlyScope(a.Token.Scope)
}
