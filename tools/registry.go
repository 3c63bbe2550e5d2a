// Package tools holds the tool specifications offered to providers and the
// converters between the MCP tool schema and each provider's wire format.
package tools

import (
	"fmt"

	mcptypes "github.com/mark3labs/mcp-go/mcp"
)

// Registry is a named collection of tool specifications. The MCP Tool type
// is the canonical in-memory representation; provider-specific shapes are
// derived at request time.
type Registry struct {
	tools map[string]mcptypes.Tool
	order []string
}

// NewRegistry creates an empty registry.
func NewRegistry() *Registry {
	return &Registry{tools: make(map[string]mcptypes.Tool)}
}

// Register adds a tool spec. A duplicate name is an error: silently
// overriding a tool would change request behavior without a trace.
func (r *Registry) Register(tool mcptypes.Tool) error {
	if tool.Name == "" {
		return fmt.Errorf("tool has no name")
	}
	if _, exists := r.tools[tool.Name]; exists {
		return fmt.Errorf("tool %q already registered", tool.Name)
	}
	r.tools[tool.Name] = tool
	r.order = append(r.order, tool.Name)
	return nil
}

// Get returns a tool spec by name.
func (r *Registry) Get(name string) (mcptypes.Tool, bool) {
	tool, ok := r.tools[name]
	return tool, ok
}

// List returns all registered tools in registration order.
func (r *Registry) List() []mcptypes.Tool {
	out := make([]mcptypes.Tool, 0, len(r.order))
	for _, name := range r.order {
		out = append(out, r.tools[name])
	}
	return out
}

// Builtin returns the built-in tool specifications offered to chatbots with
// tools enabled.
func Builtin() []mcptypes.Tool {
	return []mcptypes.Tool{
		{
			Name:        "get_weather",
			Description: "Get the current weather for a location",
			InputSchema: mcptypes.ToolInputSchema{
				Type: "object",
				Properties: map[string]any{
					"location": map[string]any{
						"type":        "string",
						"description": "City name, e.g. \"Paris\" or \"San Francisco, CA\"",
					},
					"unit": map[string]any{
						"type":        "string",
						"description": "Temperature unit",
						"enum":        []any{"celsius", "fahrenheit"},
					},
				},
				Required: []string{"location"},
			},
		},
		{
			Name:        "web_search",
			Description: "Search the web and return relevant results",
			InputSchema: mcptypes.ToolInputSchema{
				Type: "object",
				Properties: map[string]any{
					"query": map[string]any{
						"type":        "string",
						"description": "Search query",
					},
				},
				Required: []string{"query"},
			},
		},
	}
}

// NewBuiltinRegistry returns a registry preloaded with the built-in specs.
func NewBuiltinRegistry() *Registry {
	r := NewRegistry()
	for _, tool := range Builtin() {
		// Builtin names are unique by construction.
		_ = r.Register(tool)
	}
	return r
}
