package mcp

import (
	"context"
	"encoding/json"
	"fmt"
	"sort"
	"sync"

	"github.com/google/jsonschema-go/jsonschema"

	"github.com/HyphaGroup/adgate/internal/session"
)

// Arguments are the raw tool arguments as decoded from JSON.
type Arguments map[string]any

// Call carries what the dispatcher resolved before the handler runs.
type Call struct {
	Tool     string
	TenantID string
	Session  session.View
	// Account is set for TargetAccount tools only.
	Account session.AdAccount
}

// ToolHandler is a function that handles a tool call. The returned map is
// merged into the success envelope.
type ToolHandler func(ctx context.Context, call *Call, args Arguments) (map[string]any, error)

// ToolDef defines a tool with all metadata
type ToolDef struct {
	Name        string
	Description string
	Target      ToolTarget
	Access      ToolAccess
	InputSchema *jsonschema.Schema

	resolved *jsonschema.Resolved
}

// Registry stores tool definitions and handlers
type Registry struct {
	mu       sync.RWMutex
	tools    map[string]*ToolDef
	handlers map[string]ToolHandler
	order    []string // preserve registration order
}

// NewRegistry creates a new tool registry
func NewRegistry() *Registry {
	return &Registry{
		tools:    make(map[string]*ToolDef),
		handlers: make(map[string]ToolHandler),
		order:    make([]string, 0),
	}
}

// Register adds a tool with its handler to the registry. The input schema is
// generated from P when def does not provide one; arguments are validated
// against it and decoded into P before handler runs. Registering an invalid
// schema panics.
func Register[P any](r *Registry, def ToolDef, handler func(ctx context.Context, call *Call, params P) (map[string]any, error)) {
	if def.InputSchema == nil {
		def.InputSchema = GenerateSchema[P]()
	}
	resolved, err := def.InputSchema.Resolve(nil)
	if err != nil {
		panic(fmt.Sprintf("tool %s: invalid input schema: %v", def.Name, err))
	}
	def.resolved = resolved

	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.tools[def.Name]; exists {
		panic(fmt.Sprintf("tool %s registered twice", def.Name))
	}
	r.tools[def.Name] = &def
	r.handlers[def.Name] = wrapHandler(&def, handler)
	r.order = append(r.order, def.Name)
}

// GenerateSchema creates the input schema for P. Arguments not named by P are
// tolerated so clients may send extra keys.
func GenerateSchema[P any]() *jsonschema.Schema {
	schema, err := jsonschema.For[P](nil)
	if err != nil {
		panic(fmt.Sprintf("schema for %T: %v", *new(P), err))
	}
	schema.AdditionalProperties = nil
	return schema
}

// Lookup returns a tool definition and handler by name
func (r *Registry) Lookup(name string) (*ToolDef, ToolHandler, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	def, ok := r.tools[name]
	if !ok {
		return nil, nil, false
	}
	return def, r.handlers[name], true
}

// Tools returns all tool definitions in registration order
func (r *Registry) Tools() []*ToolDef {
	r.mu.RLock()
	defer r.mu.RUnlock()

	tools := make([]*ToolDef, 0, len(r.order))
	for _, name := range r.order {
		if tool, ok := r.tools[name]; ok {
			tools = append(tools, tool)
		}
	}
	return tools
}

// Names returns the registered tool names, sorted
func (r *Registry) Names() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()

	names := append([]string(nil), r.order...)
	sort.Strings(names)
	return names
}

// wrapHandler wraps a typed handler into a ToolHandler
func wrapHandler[P any](def *ToolDef, handler func(ctx context.Context, call *Call, params P) (map[string]any, error)) ToolHandler {
	return func(ctx context.Context, call *Call, args Arguments) (map[string]any, error) {
		params, err := decodeArguments[P](def, args)
		if err != nil {
			return nil, err
		}
		return handler(ctx, call, params)
	}
}

func decodeArguments[P any](def *ToolDef, args Arguments) (P, error) {
	var params P
	if args == nil {
		args = Arguments{}
	}

	if def.resolved != nil {
		if err := def.resolved.Validate(map[string]any(args)); err != nil {
			return params, &ArgumentError{Message: fmt.Sprintf("invalid arguments: %v", err)}
		}
	}

	data, err := json.Marshal(args)
	if err != nil {
		return params, &ArgumentError{Message: fmt.Sprintf("invalid arguments: %v", err)}
	}
	if err := json.Unmarshal(data, &params); err != nil {
		return params, &ArgumentError{Message: fmt.Sprintf("invalid arguments: %v", err)}
	}
	return params, nil
}
