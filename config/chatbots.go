package config

import (
	"fmt"

	"github.com/BurntSushi/toml"
)

// Chatbot is one persona definition: which model it runs, how it is
// prompted, and the welcome message a fresh conversation is seeded with.
type Chatbot struct {
	ID               string   `toml:"id"`
	Name             string   `toml:"name"`
	Description      string   `toml:"description,omitempty"`
	Model            string   `toml:"model,omitempty"`
	SystemPrompt     string   `toml:"system_prompt,omitempty"`
	WelcomeMessage   string   `toml:"welcome_message,omitempty"`
	SuggestedPrompts []string `toml:"suggested_prompts,omitempty"`
	ToolsEnabled     bool     `toml:"tools_enabled"`
}

// Welcome returns the configured welcome message, or a generic one.
func (b *Chatbot) Welcome() string {
	if b.WelcomeMessage != "" {
		return b.WelcomeMessage
	}
	return fmt.Sprintf("Hello! I'm %s. How can I help you today?", b.Name)
}

type chatbotsFile struct {
	Chatbots []Chatbot `toml:"chatbots"`
}

// LoadChatbots reads persona definitions from a TOML file. A missing file
// yields the built-in defaults.
func LoadChatbots(path string) ([]Chatbot, error) {
	if !FileExists(path) {
		return DefaultChatbots(), nil
	}

	var cf chatbotsFile
	if _, err := toml.DecodeFile(path, &cf); err != nil {
		return nil, fmt.Errorf("failed to parse %s: %w", path, err)
	}
	if len(cf.Chatbots) == 0 {
		return DefaultChatbots(), nil
	}
	for i := range cf.Chatbots {
		if cf.Chatbots[i].ID == "" {
			return nil, fmt.Errorf("chatbot %d in %s has no id", i, path)
		}
	}
	return cf.Chatbots, nil
}

// DefaultChatbots returns the built-in personas used when no chatbots.toml
// exists.
func DefaultChatbots() []Chatbot {
	return []Chatbot{
		{
			ID:             "general-assistant",
			Name:           "General Assistant",
			Description:    "Everyday questions, research and advice on a wide range of topics.",
			SystemPrompt:   "You are a helpful, knowledgeable assistant. Give accurate, clear answers and include concrete examples where they help.",
			WelcomeMessage: "Hello! I'm your general assistant. Ask me anything.",
			SuggestedPrompts: []string{
				"Summarize today's tech news",
				"Suggest a healthy meal plan",
				"How can I work more effectively?",
			},
			ToolsEnabled: true,
		},
		{
			ID:             "writing-coach",
			Name:           "Writing Coach",
			Description:    "Story structure, character work and prose style for fiction writers.",
			SystemPrompt:   "You are an experienced novelist and writing teacher. Help with plot structure, character development, scene setting and prose technique, with practical examples.",
			WelcomeMessage: "Welcome! Tell me about the story you're working on.",
			SuggestedPrompts: []string{
				"How do I write a compelling opening?",
				"Help me develop my protagonist",
			},
		},
		{
			ID:             "code-helper",
			Name:           "Code Helper",
			Description:    "Programming questions, code review and debugging help.",
			SystemPrompt:   "You are a pragmatic senior software engineer. Answer programming questions with working code and point out pitfalls.",
			WelcomeMessage: "Hi! Paste some code or describe the problem you're debugging.",
			ToolsEnabled:   true,
		},
	}
}

// GenerateChatbotsTemplate returns a commented chatbots.toml starter file.
func GenerateChatbotsTemplate() string {
	return `# chatui persona definitions
# Location: ~/.config/chatui/chatbots.toml

[[chatbots]]
id = "general-assistant"
name = "General Assistant"
description = "Everyday questions and advice."
# model = "gpt-4o-mini"        # overrides the provider default
system_prompt = "You are a helpful, knowledgeable assistant."
welcome_message = "Hello! I'm your general assistant. Ask me anything."
tools_enabled = true
`
}
