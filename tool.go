package finchat

import (
	"context"
	"encoding/json"
	"fmt"
	"sort"

	"github.com/asim800/finchat/providers"
)

// ToolHandler executes a tool with its parsed arguments.
type ToolHandler func(ctx context.Context, args map[string]any) (any, error)

// Tool is a named capability the model can invoke.
type Tool struct {
	name        string
	description string
	params      map[string]*ParameterSchema
	paramOrder  []string
	rawParams   map[string]any
	handler     ToolHandler
}

// ToolBuilder constructs tools with a fluent API.
type ToolBuilder struct {
	tool Tool
}

// NewTool creates a tool builder for the given name.
func NewTool(name string) *ToolBuilder {
	return &ToolBuilder{
		tool: Tool{
			name:   name,
			params: map[string]*ParameterSchema{},
		},
	}
}

// WithDescription sets the tool description disclosed to the model.
func (tb *ToolBuilder) WithDescription(desc string) *ToolBuilder {
	tb.tool.description = desc
	return tb
}

// WithParameter declares a parameter. Declaration order is preserved; it
// matters for text-mode dispatch, which binds the raw Action Input to a
// tool's single declared parameter.
func (tb *ToolBuilder) WithParameter(name string, schema *ParameterSchema) *ToolBuilder {
	if _, exists := tb.tool.params[name]; !exists {
		tb.tool.paramOrder = append(tb.tool.paramOrder, name)
	}
	tb.tool.params[name] = schema
	return tb
}

// WithRawParameters sets the complete JSON-schema parameter object directly,
// bypassing per-parameter declaration. Used by struct-derived schemas.
func (tb *ToolBuilder) WithRawParameters(schema map[string]any) *ToolBuilder {
	tb.tool.rawParams = schema
	return tb
}

// WithHandler sets the tool handler function.
func (tb *ToolBuilder) WithHandler(handler ToolHandler) *ToolBuilder {
	tb.tool.handler = handler
	return tb
}

// Build returns the constructed tool.
func (tb *ToolBuilder) Build() Tool {
	return tb.tool
}

// Name returns the tool name.
func (t *Tool) Name() string { return t.name }

// Description returns the tool description.
func (t *Tool) Description() string { return t.description }

// ParameterNames returns declared parameter names in declaration order.
func (t *Tool) ParameterNames() []string {
	names := make([]string, len(t.paramOrder))
	copy(names, t.paramOrder)
	return names
}

// ToToolDefinition converts the tool to the provider-agnostic definition.
func (t *Tool) ToToolDefinition() providers.ToolDefinition {
	if t.rawParams != nil {
		return providers.ToolDefinition{
			Name:        t.name,
			Description: t.description,
			Parameters:  t.rawParams,
		}
	}

	properties := make(map[string]any, len(t.params))
	var required []string
	for _, name := range t.paramOrder {
		schema := t.params[name]
		properties[name] = schema.ToMap()
		if schema.required {
			required = append(required, name)
		}
	}

	params := map[string]any{
		"type":       "object",
		"properties": properties,
	}
	if len(required) > 0 {
		params["required"] = required
	}

	return providers.ToolDefinition{
		Name:        t.name,
		Description: t.description,
		Parameters:  params,
	}
}

// Execute runs the tool handler and renders its result as a string. Handler
// failures are wrapped as *ToolExecutionError.
func (t *Tool) Execute(ctx context.Context, args map[string]any) (string, error) {
	if t.handler == nil {
		return "", &ToolExecutionError{Tool: t.name, Err: fmt.Errorf("no handler configured")}
	}
	if args == nil {
		args = map[string]any{}
	}

	result, err := t.handler(ctx, args)
	if err != nil {
		return "", &ToolExecutionError{Tool: t.name, Err: err}
	}

	return formatToolResult(result), nil
}

func formatToolResult(result any) string {
	switch v := result.(type) {
	case nil:
		return ""
	case string:
		return v
	case error:
		return fmt.Sprintf("Error: %v", v)
	default:
		if data, err := json.Marshal(result); err == nil {
			return string(data)
		}
		return fmt.Sprintf("%v", result)
	}
}

// ParameterSchema describes one tool parameter for model-side disclosure.
type ParameterSchema struct {
	paramType   string
	description string
	required    bool
	enum        []string
}

// String creates a string parameter schema.
func String() *ParameterSchema {
	return &ParameterSchema{paramType: "string"}
}

// Number creates a number parameter schema.
func Number() *ParameterSchema {
	return &ParameterSchema{paramType: "number"}
}

// WithDescription sets the parameter description.
func (ps *ParameterSchema) WithDescription(desc string) *ParameterSchema {
	ps.description = desc
	return ps
}

// Required marks the parameter as required.
func (ps *ParameterSchema) Required() *ParameterSchema {
	ps.required = true
	return ps
}

// WithEnum restricts the parameter to the given values.
func (ps *ParameterSchema) WithEnum(values ...string) *ParameterSchema {
	ps.enum = values
	return ps
}

// ToMap converts the schema to its JSON-schema map form.
func (ps *ParameterSchema) ToMap() map[string]any {
	m := map[string]any{"type": ps.paramType}
	if ps.description != "" {
		m["description"] = ps.description
	}
	if len(ps.enum) > 0 {
		m["enum"] = ps.enum
	}
	return m
}

// Registry maps tool names to tools. It is populated at agent construction
// and read-only afterwards, so concurrent loop runs can share it.
type Registry struct {
	tools map[string]Tool
}

// NewRegistry creates a registry holding the given tools. Duplicate names
// resolve to the last tool registered.
func NewRegistry(tools ...Tool) *Registry {
	r := &Registry{tools: make(map[string]Tool, len(tools))}
	for _, t := range tools {
		r.tools[t.Name()] = t
	}
	return r
}

// Register adds a tool, replacing any existing tool with the same name.
// Must not be called once an agent is running over the registry.
func (r *Registry) Register(t Tool) {
	r.tools[t.Name()] = t
}

// Resolve looks up a tool by name.
func (r *Registry) Resolve(name string) (Tool, bool) {
	t, ok := r.tools[name]
	return t, ok
}

// Names returns registered tool names, sorted.
func (r *Registry) Names() []string {
	names := make([]string, 0, len(r.tools))
	for name := range r.tools {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Len returns the number of registered tools.
func (r *Registry) Len() int { return len(r.tools) }

// Definitions returns provider-agnostic definitions for all registered
// tools, in sorted name order.
func (r *Registry) Definitions() []providers.ToolDefinition {
	defs := make([]providers.ToolDefinition, 0, len(r.tools))
	for _, name := range r.Names() {
		t := r.tools[name]
		defs = append(defs, t.ToToolDefinition())
	}
	return defs
}
