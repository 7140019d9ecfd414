package mcp

import (
	"context"
	"errors"
	"testing"

	"github.com/HyphaGroup/adgate/internal/testutil"
)

func TestGenerateSchema(t *testing.T) {
	type Params struct {
		Name  string   `json:"name" jsonschema:"display name"`
		Limit int      `json:"limit,omitempty"`
		Tags  []string `json:"tags,omitempty"`
		Force bool     `json:"force,omitempty"`
	}
	schema := GenerateSchema[Params]()

	if schema.Type != "object" {
		t.Errorf("Type = %q, want object", schema.Type)
	}
	if len(schema.Required) != 1 || schema.Required[0] != "name" {
		t.Errorf("Required = %v, want [name]", schema.Required)
	}
	if schema.AdditionalProperties != nil {
		t.Error("AdditionalProperties should be unset so extra arguments are tolerated")
	}

	tests := []struct {
		prop string
		want string
	}{
		{"name", "string"},
		{"limit", "integer"},
		{"tags", "array"},
		{"force", "boolean"},
	}
	for _, tt := range tests {
		prop, ok := schema.Properties[tt.prop]
		if !ok {
			t.Errorf("missing property %q", tt.prop)
			continue
		}
		if prop.Type != tt.want {
			t.Errorf("%s type = %q, want %q", tt.prop, prop.Type, tt.want)
		}
	}
	if schema.Properties["name"].Description != "display name" {
		t.Errorf("name description = %q", schema.Properties["name"].Description)
	}
}

type echoParams struct {
	ID    string `json:"id"`
	Limit int    `json:"limit,omitempty"`
}

func echoHandler(_ context.Context, _ *Call, p echoParams) (map[string]any, error) {
	return map[string]any{"id": p.ID, "limit": p.Limit}, nil
}

func TestRegister_ValidatesAndDecodes(t *testing.T) {
	r := NewRegistry()
	Register(r, ToolDef{Name: "echo", Target: TargetTenant, Access: AccessRead}, echoHandler)

	_, handler, ok := r.Lookup("echo")
	if !ok {
		t.Fatal("echo not registered")
	}

	tests := []struct {
		name    string
		args    Arguments
		wantErr bool
	}{
		{"valid", Arguments{"id": "42", "limit": float64(5)}, false},
		{"extra keys tolerated", Arguments{"id": "42", "tenantId": "t1"}, false},
		{"missing required", Arguments{"limit": float64(5)}, true},
		{"nil arguments", nil, true},
		{"wrong type", Arguments{"id": 42}, true},
		{"fractional integer", Arguments{"id": "42", "limit": 2.5}, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			out, err := handler(context.Background(), &Call{}, tt.args)
			if tt.wantErr {
				var argErr *ArgumentError
				if !errors.As(err, &argErr) {
					t.Errorf("error = %v, want *ArgumentError", err)
				}
				return
			}
			if err != nil {
				t.Fatalf("handler error = %v", err)
			}
			if out["id"] != "42" {
				t.Errorf("decoded id = %v, want 42", out["id"])
			}
		})
	}
}

func TestRegistry_OrderAndNames(t *testing.T) {
	r := NewRegistry()
	Register(r, ToolDef{Name: "zeta"}, echoHandler)
	Register(r, ToolDef{Name: "alpha"}, echoHandler)

	tools := r.Tools()
	if len(tools) != 2 || tools[0].Name != "zeta" || tools[1].Name != "alpha" {
		t.Errorf("Tools() order = %v, want registration order", []string{tools[0].Name, tools[1].Name})
	}

	names := r.Names()
	if names[0] != "alpha" || names[1] != "zeta" {
		t.Errorf("Names() = %v, want sorted", names)
	}

	if _, _, ok := r.Lookup("missing"); ok {
		t.Error("Lookup(missing) should fail")
	}
}

func TestRegister_DuplicatePanics(t *testing.T) {
	r := NewRegistry()
	Register(r, ToolDef{Name: "echo"}, echoHandler)

	defer func() {
		if recover() == nil {
			t.Error("registering a name twice should panic")
		}
	}()
	Register(r, ToolDef{Name: "echo"}, echoHandler)
}

func TestServerRegistersToolSet(t *testing.T) {
	srv, _ := newTestServer(t, testutil.NewMockCaller(t))

	want := []string{
		"get_ad_accounts", "select_ad_account", "get_account_info",
		"get_campaigns", "get_campaign_details", "create_campaign", "update_campaign", "delete_campaign",
		"get_ad_sets", "get_ads", "get_custom_audiences", "create_custom_audience", "get_insights",
		"get_pages", "get_page_posts", "create_page_post",
		"get_post_comments", "reply_to_comment", "hide_comment", "delete_comment",
		"bulk_reply_to_comments", "bulk_delete_comments",
	}
	for _, name := range want {
		def, _, ok := srv.Registry().Lookup(name)
		if !ok {
			t.Errorf("tool %s not registered", name)
			continue
		}
		if def.InputSchema == nil || def.InputSchema.Type != "object" {
			t.Errorf("tool %s has no object input schema", name)
		}
		if def.Target == "" || def.Access == "" {
			t.Errorf("tool %s missing target or access", name)
		}
	}
	if got := len(srv.Registry().Tools()); got != len(want) {
		t.Errorf("registered %d tools, want %d", got, len(want))
	}
}
