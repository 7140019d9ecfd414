package mcp

// ToolTarget defines what a tool operates on
type ToolTarget string

const (
	// TargetTenant - tool needs only a live session (pages, comments, object ids)
	TargetTenant ToolTarget = "tenant"
	// TargetAccount - tool operates on the selected ad account
	TargetAccount ToolTarget = "account"
)

// ToolAccess defines the access level required for a tool
type ToolAccess string

const (
	// AccessRead - read-only operation
	AccessRead ToolAccess = "read"
	// AccessWrite - modifies upstream data or session state
	AccessWrite ToolAccess = "write"
)

// ToolDefinition is the public catalog entry for a tool
type ToolDefinition struct {
	Name        string     `json:"name"`
	Description string     `json:"description"`
	Target      ToolTarget `json:"target"`
	Access      ToolAccess `json:"access"`
	InputSchema any        `json:"inputSchema"`
}

// catalog returns the tools visible to a token scope, in registration order.
// An empty scope means gateway tokens are not in use.
func (r *Registry) catalog(scope, tenantID string) []ToolDefinition {
	tools := r.Tools()
	result := make([]ToolDefinition, 0, len(tools))
	for _, t := range tools {
		if scope != "" && !IsToolAllowed(t, scope, tenantID) {
			continue
		}
		result = append(result, ToolDefinition{
			Name:        t.Name,
			Description: t.Description,
			Target:      t.Target,
			Access:      t.Access,
			InputSchema: t.InputSchema,
		})
	}
	return result
}
