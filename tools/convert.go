package tools

import (
	"encoding/json"

	"github.com/anthropics/anthropic-sdk-go"
	mcptypes "github.com/mark3labs/mcp-go/mcp"
	"github.com/ollama/ollama/api"
	"github.com/openai/openai-go/v3"
)

// ToOpenAI converts tool specs to the OpenAI chat-completions tool format.
// Both sides are JSON Schema; the input schema converts structurally.
func ToOpenAI(specs []mcptypes.Tool) []openai.ChatCompletionToolUnionParam {
	if len(specs) == 0 {
		return nil
	}

	out := make([]openai.ChatCompletionToolUnionParam, len(specs))
	for i, spec := range specs {
		params := openai.FunctionParameters{
			"type":       spec.InputSchema.Type,
			"properties": spec.InputSchema.Properties,
		}
		if len(spec.InputSchema.Required) > 0 {
			params["required"] = spec.InputSchema.Required
		}
		if spec.InputSchema.Defs != nil {
			params["$defs"] = spec.InputSchema.Defs
		}

		out[i] = openai.ChatCompletionFunctionTool(
			openai.FunctionDefinitionParam{
				Name:        spec.Name,
				Description: openai.String(spec.Description),
				Parameters:  params,
			},
		)
	}
	return out
}

// ToAnthropic converts tool specs to Anthropic's tool-use format.
func ToAnthropic(specs []mcptypes.Tool) []anthropic.ToolUnionParam {
	if len(specs) == 0 {
		return nil
	}

	out := make([]anthropic.ToolUnionParam, len(specs))
	for i, spec := range specs {
		schema := anthropic.ToolInputSchemaParam{
			Properties: spec.InputSchema.Properties,
		}
		if len(spec.InputSchema.Required) > 0 {
			schema.Required = spec.InputSchema.Required
		}
		if spec.InputSchema.Defs != nil {
			schema.ExtraFields = map[string]any{"$defs": spec.InputSchema.Defs}
		}

		out[i] = anthropic.ToolUnionParamOfTool(schema, spec.Name)
		if spec.Description != "" {
			out[i].OfTool.Description = anthropic.String(spec.Description)
		}
	}
	return out
}

// ToOllama converts tool specs to the Ollama API tool format. Ollama wants a
// typed property tree rather than a raw schema map, so each property is
// rebuilt field by field.
func ToOllama(specs []mcptypes.Tool) []api.Tool {
	out := make([]api.Tool, 0, len(specs))
	for _, spec := range specs {
		out = append(out, api.Tool{
			Type: "function",
			Function: api.ToolFunction{
				Name:        spec.Name,
				Description: spec.Description,
				Parameters:  schemaToOllamaParameters(spec.InputSchema),
			},
		})
	}
	return out
}

func schemaToOllamaParameters(schema mcptypes.ToolInputSchema) api.ToolFunctionParameters {
	params := api.ToolFunctionParameters{
		Type:       schema.Type,
		Required:   schema.Required,
		Properties: make(map[string]api.ToolProperty),
	}
	if schema.Defs != nil {
		params.Defs = schema.Defs
	}
	for name, value := range schema.Properties {
		params.Properties[name] = toOllamaProperty(value)
	}
	return params
}

func toOllamaProperty(value any) api.ToolProperty {
	var prop api.ToolProperty

	m, ok := value.(map[string]any)
	if !ok {
		// Schemas decoded into concrete structs round-trip through JSON.
		raw, err := json.Marshal(value)
		if err != nil {
			return prop
		}
		if err := json.Unmarshal(raw, &m); err != nil {
			return prop
		}
	}

	switch t := m["type"].(type) {
	case string:
		prop.Type = api.PropertyType{t}
	case []string:
		prop.Type = api.PropertyType(t)
	case []any:
		types := make([]string, 0, len(t))
		for _, v := range t {
			if s, ok := v.(string); ok {
				types = append(types, s)
			}
		}
		prop.Type = api.PropertyType(types)
	}

	if desc, ok := m["description"].(string); ok {
		prop.Description = desc
	}
	if enum, ok := m["enum"].([]any); ok {
		prop.Enum = enum
	}
	if items, ok := m["items"]; ok {
		prop.Items = items
	}
	if anyOf, ok := m["anyOf"].([]any); ok {
		props := make([]api.ToolProperty, 0, len(anyOf))
		for _, item := range anyOf {
			props = append(props, toOllamaProperty(item))
		}
		prop.AnyOf = props
	}
	return prop
}
