package mcp

import (
	"testing"

	"github.com/HyphaGroup/adgate/internal/auth"
	"github.com/HyphaGroup/adgate/internal/testutil"
)

func TestIsToolAllowed(t *testing.T) {
	readTool := &ToolDef{Name: "get_campaigns", Target: TargetAccount, Access: AccessRead}
	writeTool := &ToolDef{Name: "create_campaign", Target: TargetAccount, Access: AccessWrite}

	tests := []struct {
		name       string
		tool       *ToolDef
		tokenScope string
		tenantID   string
		want       bool
	}{
		{"admin can read", readTool, auth.ScopeAdmin, "t1", true},
		{"admin can write", writeTool, auth.ScopeAdmin, "t1", true},
		{"admin:ro can read", readTool, auth.ScopeAdminRO, "t1", true},
		{"admin:ro cannot write", writeTool, auth.ScopeAdminRO, "t1", false},
		{"tenant can read own tenant", readTool, auth.ScopeTenant("t1"), "t1", true},
		{"tenant can write own tenant", writeTool, auth.ScopeTenant("t1"), "t1", true},
		{"tenant cannot read other tenant", readTool, auth.ScopeTenant("t1"), "t2", false},
		{"tenant with empty tenant id denied", readTool, auth.ScopeTenant("t1"), "", false},
		{"tenant:ro can read", readTool, auth.ScopeTenantRO("t1"), "t1", true},
		{"tenant:ro cannot write", writeTool, auth.ScopeTenantRO("t1"), "t1", false},
		{"unknown scope denied", readTool, "superuser", "t1", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := IsToolAllowed(tt.tool, tt.tokenScope, tt.tenantID); got != tt.want {
				t.Errorf("IsToolAllowed(%s, %q, %q) = %v, want %v", tt.tool.Name, tt.tokenScope, tt.tenantID, got, tt.want)
			}
		})
	}
}

func TestRegistryCatalog_FiltersByScope(t *testing.T) {
	srv, _ := newTestServer(t, testutil.NewMockCaller(t))
	all := srv.Registry().catalog("", "")
	readOnly := srv.Registry().catalog(auth.ScopeTenantRO("t1"), "t1")

	if len(readOnly) == 0 || len(readOnly) >= len(all) {
		t.Fatalf("read-only catalog has %d of %d tools", len(readOnly), len(all))
	}
	for _, tool := range readOnly {
		if tool.Access != AccessRead {
			t.Errorf("read-only catalog contains write tool %s", tool.Name)
		}
	}
	if other := srv.Registry().catalog(auth.ScopeTenant("t1"), "t2"); len(other) != 0 {
		t.Errorf("catalog for another tenant has %d tools, want 0", len(other))
	}
}
