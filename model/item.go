package model

import (
	"time"

	"github.com/google/uuid"
)

// Role identifies the author of a message item.
type Role string

const (
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
	RoleSystem    Role = "system"
)

// ItemKind discriminates the Item union.
type ItemKind string

const (
	ItemKindMessage  ItemKind = "message"
	ItemKindToolCall ItemKind = "tool_call"
)

// ContentBlockKind discriminates content block payloads. There is no runtime
// shape probing anywhere: every block carries its kind explicitly.
type ContentBlockKind string

const (
	ContentInputText  ContentBlockKind = "input_text"
	ContentOutputText ContentBlockKind = "output_text"
	ContentRefusal    ContentBlockKind = "refusal"
)

// Annotation is structured citation metadata attached to a content block.
// Annotations accumulate append-only while an item streams.
type Annotation struct {
	Type       string `json:"type"`
	Title      string `json:"title,omitempty"`
	URL        string `json:"url,omitempty"`
	FileID     string `json:"file_id,omitempty"`
	StartIndex int    `json:"start_index,omitempty"`
	EndIndex   int    `json:"end_index,omitempty"`
}

// ContentBlock is one ordered content entry of a message item.
type ContentBlock struct {
	Kind        ContentBlockKind `json:"kind"`
	Text        string           `json:"text"`
	Annotations []Annotation     `json:"annotations,omitempty"`
}

// MessageItem is a user/assistant/system message in a conversation.
type MessageItem struct {
	ID        string         `json:"id"`
	Role      Role           `json:"role"`
	Content   []ContentBlock `json:"content"`
	CreatedAt time.Time      `json:"created_at"`
}

// Text returns the concatenated text of all content blocks.
func (m *MessageItem) Text() string {
	if len(m.Content) == 1 {
		return m.Content[0].Text
	}
	var out string
	for _, block := range m.Content {
		out += block.Text
	}
	return out
}

// ToolCallKind identifies the tool family of a tool-call item.
type ToolCallKind string

const (
	ToolCallFunction        ToolCallKind = "function"
	ToolCallWebSearch       ToolCallKind = "web_search"
	ToolCallFileSearch      ToolCallKind = "file_search"
	ToolCallCodeInterpreter ToolCallKind = "code_interpreter"
	ToolCallMCP             ToolCallKind = "mcp"
)

// ToolCallStatus is the lifecycle state of a tool call. Completed and failed
// are terminal and absorbing.
type ToolCallStatus string

const (
	ToolStatusPending    ToolCallStatus = "pending"
	ToolStatusInProgress ToolCallStatus = "in_progress"
	ToolStatusCompleted  ToolCallStatus = "completed"
	ToolStatusFailed     ToolCallStatus = "failed"
)

// Terminal reports whether the status is absorbing.
func (s ToolCallStatus) Terminal() bool {
	return s == ToolStatusCompleted || s == ToolStatusFailed
}

// ToolCallItem is a tool call spanning multiple stream events.
//
// ArgumentsBuffer accumulates raw argument text and is not necessarily valid
// JSON until the call completes; ParsedArguments stays nil until then.
type ToolCallItem struct {
	ID              string         `json:"id"`
	Kind            ToolCallKind   `json:"kind"`
	Status          ToolCallStatus `json:"status"`
	Name            string         `json:"name"`
	ArgumentsBuffer string         `json:"arguments_buffer"`
	ParsedArguments map[string]any `json:"parsed_arguments,omitempty"`
	Output          string         `json:"output,omitempty"`
	CreatedAt       time.Time      `json:"created_at"`
}

// Item is the tagged union of conversation entries. Exactly one of Message
// and ToolCall is non-nil, selected by Kind. Ordering in a conversation is
// array position, which is chronological.
type Item struct {
	Kind     ItemKind      `json:"kind"`
	Message  *MessageItem  `json:"message,omitempty"`
	ToolCall *ToolCallItem `json:"tool_call,omitempty"`
}

// ID returns the id of whichever payload is set.
func (it *Item) ID() string {
	switch it.Kind {
	case ItemKindMessage:
		if it.Message != nil {
			return it.Message.ID
		}
	case ItemKindToolCall:
		if it.ToolCall != nil {
			return it.ToolCall.ID
		}
	}
	return ""
}

// NewMessageItem builds a single-block message item with a fresh id.
func NewMessageItem(role Role, text string) Item {
	kind := ContentOutputText
	if role == RoleUser {
		kind = ContentInputText
	}
	return Item{
		Kind: ItemKindMessage,
		Message: &MessageItem{
			ID:        uuid.New().String(),
			Role:      role,
			Content:   []ContentBlock{{Kind: kind, Text: text}},
			CreatedAt: time.Now().UTC(),
		},
	}
}

// ToolCallKindFromWire maps wire item types ("function_call",
// "web_search_call", ...) to tool-call kinds. Unknown types map to function.
func ToolCallKindFromWire(wireType string) ToolCallKind {
	switch wireType {
	case "web_search_call", "web_search":
		return ToolCallWebSearch
	case "file_search_call", "file_search":
		return ToolCallFileSearch
	case "code_interpreter_call", "code_interpreter":
		return ToolCallCodeInterpreter
	case "mcp_call", "mcp":
		return ToolCallMCP
	default:
		return ToolCallFunction
	}
}
