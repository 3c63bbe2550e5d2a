package config

import (
	"fmt"
	"log"
	"os"
	"path/filepath"

	"github.com/BurntSushi/toml"
)

// ProviderConfig selects and parameterizes one completion backend.
type ProviderConfig struct {
	Type    string `toml:"type"` // openai | anthropic | ollama | gateway
	BaseURL string `toml:"base_url,omitempty"`
	APIKey  string `toml:"api_key,omitempty"`
	Model   string `toml:"default_model,omitempty"`
}

// UserConfig is the on-disk shape of settings.toml.
type UserConfig struct {
	DataDirectory  string         `toml:"data_directory"`
	Storage        string         `toml:"storage"` // file | sqlite
	Provider       ProviderConfig `toml:"provider"`
	MaxSessions    int            `toml:"max_sessions,omitempty"`
	StreamTimeout  string         `toml:"stream_timeout,omitempty"`
	DefaultChatbot string         `toml:"default_chatbot,omitempty"`
}

// Config is the resolved runtime configuration.
type Config struct {
	DataDirectory  string
	Storage        string
	Provider       ProviderConfig
	MaxSessions    int
	StreamTimeout  string
	DefaultChatbot string
	Chatbots       []Chatbot
}

var Debug = false
var DebugLog *log.Logger

// DataDir returns the expanded data directory path.
func (c *Config) DataDir() string {
	return ExpandPath(c.DataDirectory)
}

func (c *Config) applyEnvOverrides() {
	if dataDir := os.Getenv("CHATUI_DATA_DIR"); dataDir != "" {
		c.DataDirectory = dataDir
	}
	if typ := os.Getenv("CHATUI_PROVIDER"); typ != "" {
		c.Provider.Type = typ
	}
	if url := os.Getenv("CHATUI_BASE_URL"); url != "" {
		c.Provider.BaseURL = url
	}
	if key := os.Getenv("CHATUI_API_KEY"); key != "" {
		c.Provider.APIKey = key
	}
	if model := os.Getenv("CHATUI_MODEL"); model != "" {
		c.Provider.Model = model
	}
}

// CheckDebug reports whether debug logging is requested via environment.
func CheckDebug() bool {
	debug := os.Getenv("CHATUI_DEBUG")
	return debug == "true" || debug == "1"
}

// InitDebugLog opens the debug log under the data directory when
// CHATUI_DEBUG is set.
func InitDebugLog(dataDir string) {
	if !CheckDebug() {
		return
	}

	Debug = true
	logPath := filepath.Join(dataDir, "debug.log")

	// 0600 - the log may contain conversation fragments.
	f, err := os.OpenFile(logPath, os.O_RDWR|os.O_CREATE|os.O_APPEND, 0600)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Warning: Could not open debug log at %s: %v\n", logPath, err)
		return
	}

	DebugLog = log.New(f, "", log.Ldate|log.Ltime|log.Lmicroseconds|log.Lshortfile)
	DebugLog.Printf("=== Debug logging started (CHATUI_DEBUG=%s) ===", os.Getenv("CHATUI_DEBUG"))
}

// Load reads settings.toml and chatbots.toml, applies environment overrides
// and ensures the data directory exists. Missing files fall back to
// defaults so a first run works without any setup.
func Load() (*Config, error) {
	cfg := defaultConfig()

	settingsPath := SettingsPath()
	if FileExists(settingsPath) {
		var userCfg UserConfig
		if _, err := toml.DecodeFile(settingsPath, &userCfg); err != nil {
			return nil, fmt.Errorf("failed to load settings: %w", err)
		}
		applyUserConfig(cfg, &userCfg)
	}
	cfg.applyEnvOverrides()

	dataDir := cfg.DataDir()
	if err := os.MkdirAll(dataDir, 0700); err != nil {
		return nil, fmt.Errorf("failed to create data directory: %w", err)
	}

	chatbots, err := LoadChatbots(ChatbotsPath())
	if err != nil {
		return nil, fmt.Errorf("failed to load chatbots: %w", err)
	}
	cfg.Chatbots = chatbots
	if cfg.DefaultChatbot == "" && len(chatbots) > 0 {
		cfg.DefaultChatbot = chatbots[0].ID
	}

	return cfg, nil
}

func defaultConfig() *Config {
	return &Config{
		DataDirectory: "~/.local/share/chatui",
		Storage:       "file",
		Provider: ProviderConfig{
			Type:  "openai",
			Model: "gpt-4o-mini",
		},
		MaxSessions:   0, // storage default
		StreamTimeout: "60s",
	}
}

func applyUserConfig(cfg *Config, userCfg *UserConfig) {
	if userCfg.DataDirectory != "" {
		cfg.DataDirectory = userCfg.DataDirectory
	}
	if userCfg.Storage != "" {
		cfg.Storage = userCfg.Storage
	}
	if userCfg.Provider.Type != "" {
		cfg.Provider = userCfg.Provider
	}
	if userCfg.MaxSessions > 0 {
		cfg.MaxSessions = userCfg.MaxSessions
	}
	if userCfg.StreamTimeout != "" {
		cfg.StreamTimeout = userCfg.StreamTimeout
	}
	if userCfg.DefaultChatbot != "" {
		cfg.DefaultChatbot = userCfg.DefaultChatbot
	}
}

// FindChatbot returns the chatbot with the given id, or nil.
func (c *Config) FindChatbot(id string) *Chatbot {
	for i := range c.Chatbots {
		if c.Chatbots[i].ID == id {
			return &c.Chatbots[i]
		}
	}
	return nil
}
