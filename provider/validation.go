package provider

import (
	"context"
	"fmt"

	"chatui/config"
	"chatui/model"
)

// Validate checks a provider configuration statically, without touching the
// network.
func Validate(cfg config.ProviderConfig) error {
	switch cfg.Type {
	case "openai", "anthropic":
		if cfg.APIKey == "" {
			return fmt.Errorf("provider %s requires an API key", cfg.Type)
		}
	case "gateway":
		if cfg.BaseURL == "" {
			return fmt.Errorf("provider gateway requires a base URL")
		}
	case "ollama":
	case "":
		return fmt.Errorf("provider type is not set")
	default:
		return fmt.Errorf("unknown provider type: %s", cfg.Type)
	}
	return nil
}

// CheckConnection pings a provider to verify credentials and reachability
// before the first chat request.
func CheckConnection(ctx context.Context, p model.Provider, providerType string) error {
	if err := p.Ping(ctx); err != nil {
		return fmt.Errorf("provider %s is not reachable: %w", providerType, err)
	}
	if config.Debug {
		config.DebugLog.Printf("[Provider] %s ping successful", providerType)
	}
	return nil
}
