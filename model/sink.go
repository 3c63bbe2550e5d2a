package model

// Severity classifies user-visible notifications.
type Severity string

const (
	SeverityError   Severity = "error"
	SeverityWarning Severity = "warning"
	SeveritySuccess Severity = "success"
)

// Sink receives incremental UI updates during streaming. Implementations are
// display glue (terminal printer, web socket forwarder); the conversation
// core treats them as write-only callbacks and keeps no state in them.
//
// UpdateStreamingItem is an idempotent re-render of an existing item by id:
// it may be called many times for the same item as deltas arrive.
type Sink interface {
	RenderMessage(item Item)
	UpdateStreamingItem(item Item)
	RenderToolCall(call ToolCallItem)
	Notify(severity Severity, message string)
}

// NopSink discards all updates. Useful in tests and batch contexts.
type NopSink struct{}

func (NopSink) RenderMessage(Item)          {}
func (NopSink) UpdateStreamingItem(Item)    {}
func (NopSink) RenderToolCall(ToolCallItem) {}
func (NopSink) Notify(Severity, string)     {}
