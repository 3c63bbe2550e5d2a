// Package provider implements the completion stream providers: OpenAI,
// Anthropic, Ollama and a raw-wire gateway backend. Each adapts its API's
// streaming responses into the typed event sequence consumed by the
// conversation reducer.
package provider

import (
	"fmt"

	"chatui/config"
	"chatui/model"
)

// New creates a provider from configuration, dispatching on the type field.
func New(cfg config.ProviderConfig) (model.Provider, error) {
	if err := Validate(cfg); err != nil {
		return nil, err
	}
	switch cfg.Type {
	case "ollama":
		return NewOllamaProvider(cfg.BaseURL, cfg.Model)
	case "openai":
		return NewOpenAIProvider(cfg.BaseURL, cfg.APIKey, cfg.Model)
	case "anthropic":
		return NewAnthropicProvider(cfg.BaseURL, cfg.APIKey, cfg.Model)
	case "gateway":
		return NewGatewayProvider(cfg.BaseURL, cfg.APIKey, cfg.Model)
	default:
		return nil, fmt.Errorf("unknown provider type: %s", cfg.Type)
	}
}
