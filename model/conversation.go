package model

import "time"

// Turn is the minimal provider-replay representation of one conversation
// turn. APIHistory is what gets resent to the provider on the next request;
// it deliberately omits display-only detail like annotations.
type Turn struct {
	Role          Role           `json:"role"`
	Content       string         `json:"content"`
	ToolCallID    string         `json:"tool_call_id,omitempty"`
	ToolName      string         `json:"tool_name,omitempty"`
	ToolArguments map[string]any `json:"tool_arguments,omitempty"`
}

// Conversation is the canonical per-chatbot state: the UI-facing item list
// plus the API-replay history. Both grow strictly append-only except on
// explicit reset. Tool-call display entries may have no API echo, so
// len(APIHistory) never exceeds len(Items) plus the system turn.
type Conversation struct {
	ChatbotID  string `json:"chatbot_id"`
	Items      []Item `json:"items"`
	APIHistory []Turn `json:"api_history"`
}

// AppendMessage appends a message item and its API echo.
func (c *Conversation) AppendMessage(item Item) {
	c.Items = append(c.Items, item)
	if item.Message != nil {
		c.APIHistory = append(c.APIHistory, Turn{
			Role:    item.Message.Role,
			Content: item.Message.Text(),
		})
	}
}

// AppendToolCall appends a completed tool-call item. Only completed calls
// echo into the API history; failed ones stay display-only.
func (c *Conversation) AppendToolCall(call *ToolCallItem) {
	c.Items = append(c.Items, Item{Kind: ItemKindToolCall, ToolCall: call})
	if call.Status == ToolStatusCompleted {
		c.APIHistory = append(c.APIHistory, Turn{
			Role:          RoleAssistant,
			Content:       call.Output,
			ToolCallID:    call.ID,
			ToolName:      call.Name,
			ToolArguments: call.ParsedArguments,
		})
	}
}

// MessageCount returns the number of message items.
func (c *Conversation) MessageCount() int {
	n := 0
	for _, item := range c.Items {
		if item.Kind == ItemKindMessage {
			n++
		}
	}
	return n
}

// LastUserText returns the text of the most recent user message, or "".
func (c *Conversation) LastUserText() string {
	for i := len(c.Items) - 1; i >= 0; i-- {
		item := c.Items[i]
		if item.Kind == ItemKindMessage && item.Message.Role == RoleUser {
			return item.Message.Text()
		}
	}
	return ""
}

// Session is lightweight metadata identifying one conversation instance,
// used for listing without loading full history.
type Session struct {
	ID             string    `json:"id"`
	ChatbotID      string    `json:"chatbot_id"`
	Name           string    `json:"name"`
	MessageCount   int       `json:"message_count"`
	CreatedAt      time.Time `json:"created_at"`
	LastActivityAt time.Time `json:"last_activity_at"`
}
