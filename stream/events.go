// Package stream decodes the newline-delimited completion event wire format
// into typed events.
//
// The wire format is SSE-style: each record is a single line prefixed with
// "data: " carrying a JSON envelope {"event": <name>, "data": {...}}, and the
// stream is terminated by the literal sentinel [DONE]. Some gateways wrap an
// already-prefixed line in a second "data: " layer, so the prefix is stripped
// repeatedly until none remains.
package stream

// EventKind identifies one incremental unit emitted during generation.
type EventKind string

const (
	// EventTextDelta carries one fragment of assistant output text.
	EventTextDelta EventKind = "response.output_text.delta"
	// EventItemAdded announces a new output item (message or tool call).
	EventItemAdded EventKind = "response.output_item.added"
	// EventItemDone carries the authoritative final form of an item.
	EventItemDone EventKind = "response.output_item.done"
	// EventToolArgsDelta carries one fragment of tool-call arguments.
	EventToolArgsDelta EventKind = "response.function_call_arguments.delta"
	// EventToolArgsDone signals that a tool call's arguments are complete.
	EventToolArgsDone EventKind = "response.function_call_arguments.done"
	// EventCompleted signals that the response finished generating.
	EventCompleted EventKind = "response.completed"
	// EventError carries a backend-reported error. The stream continues
	// unless the transport itself closes.
	EventError EventKind = "error"

	// EventDone is the terminal marker synthesized from the [DONE] sentinel.
	EventDone EventKind = "done"
	// EventParseError is synthesized locally for a malformed data line.
	// A single bad line never loses subsequent valid events.
	EventParseError EventKind = "parse_error"
)

// Annotation is citation metadata attached to a text fragment.
type Annotation struct {
	Type       string `json:"type"`
	Title      string `json:"title,omitempty"`
	URL        string `json:"url,omitempty"`
	FileID     string `json:"file_id,omitempty"`
	StartIndex int    `json:"start_index,omitempty"`
	EndIndex   int    `json:"end_index,omitempty"`
}

// WireContent is one content entry of a wire item.
type WireContent struct {
	Type        string       `json:"type"`
	Text        string       `json:"text,omitempty"`
	Annotations []Annotation `json:"annotations,omitempty"`
}

// WireItem is the item payload of item_added/item_done events. Type is
// "message" for assistant messages; tool calls use "function_call",
// "web_search_call", "file_search_call", "code_interpreter_call" or
// "mcp_call".
type WireItem struct {
	ID        string        `json:"id"`
	Type      string        `json:"type"`
	Role      string        `json:"role,omitempty"`
	Content   []WireContent `json:"content,omitempty"`
	Name      string        `json:"name,omitempty"`
	Arguments string        `json:"arguments,omitempty"`
	Status    string        `json:"status,omitempty"`
	Output    string        `json:"output,omitempty"`
}

// Event is one decoded stream event.
type Event struct {
	Kind EventKind

	// ItemID is set for text and tool-argument deltas. For tool events it
	// is the call id.
	ItemID string
	// Delta is the text or argument fragment for delta events.
	Delta string
	// Annotation is optional citation metadata arriving with a text delta.
	Annotation *Annotation
	// Item is the payload of item_added/item_done events.
	Item *WireItem
	// Arguments is the full argument string of EventToolArgsDone.
	Arguments string
	// Output is the tool output attached to EventToolArgsDone, if any.
	Output string
	// Message is the backend error text for EventError.
	Message string
	// Err is the local decode error for EventParseError.
	Err error
}

// envelope is the JSON shape of one data line.
type envelope struct {
	Event string       `json:"event"`
	Data  envelopeData `json:"data"`
}

type envelopeData struct {
	Delta      string      `json:"delta,omitempty"`
	ItemID     string      `json:"item_id,omitempty"`
	Text       string      `json:"text,omitempty"`
	Annotation *Annotation `json:"annotation,omitempty"`
	Item       *WireItem   `json:"item,omitempty"`
	Arguments  string      `json:"arguments,omitempty"`
	Output     string      `json:"output,omitempty"`
	Message    string      `json:"message,omitempty"`
	Type       string      `json:"type,omitempty"`
}
