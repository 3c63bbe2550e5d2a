package chat

import (
	"testing"

	"chatui/model"
	"chatui/stream"
)

// recordSink captures sink calls for assertions.
type recordSink struct {
	rendered []model.Item
	updated  []model.Item
	tools    []model.ToolCallItem
	notices  []string
}

func (s *recordSink) RenderMessage(item model.Item)         { s.rendered = append(s.rendered, item) }
func (s *recordSink) UpdateStreamingItem(item model.Item)   { s.updated = append(s.updated, item) }
func (s *recordSink) RenderToolCall(call model.ToolCallItem) { s.tools = append(s.tools, call) }
func (s *recordSink) Notify(_ model.Severity, message string) {
	s.notices = append(s.notices, message)
}

func textDelta(itemID, delta string) *stream.Event {
	return &stream.Event{Kind: stream.EventTextDelta, ItemID: itemID, Delta: delta}
}

func TestReducerTextAccumulation(t *testing.T) {
	r := NewReducer(nil, nil)
	r.Apply(textDelta("msg_1", "He"))
	r.Apply(textDelta("msg_1", "llo"))
	r.Apply(textDelta("msg_1", " world"))

	state := r.State()
	if state.AccumulatedText != "Hello world" {
		t.Errorf("AccumulatedText = %q", state.AccumulatedText)
	}
	if state.ActiveItemID != "msg_1" {
		t.Errorf("ActiveItemID = %q", state.ActiveItemID)
	}
	if got := state.working.Text(); got != "Hello world" {
		t.Errorf("working text = %q", got)
	}
}

func TestReducerNewItemOnChangedID(t *testing.T) {
	r := NewReducer(nil, nil)
	r.Apply(textDelta("msg_1", "first"))
	r.Apply(textDelta("msg_2", "second"))

	state := r.State()
	if state.ActiveItemID != "msg_2" {
		t.Fatalf("ActiveItemID = %q", state.ActiveItemID)
	}
	if got := state.working.Text(); got != "second" {
		t.Errorf("working text = %q", got)
	}
	// The stale partial is left exactly as received, never merged.
	if len(state.superseded) != 1 || state.superseded[0].Text() != "first" {
		t.Errorf("superseded = %+v", state.superseded)
	}
	if state.AccumulatedText != "firstsecond" {
		t.Errorf("AccumulatedText = %q", state.AccumulatedText)
	}
}

func TestReducerItemDoneOverwrites(t *testing.T) {
	r := NewReducer(nil, nil)
	r.Apply(textDelta("msg_1", "He"))
	r.Apply(textDelta("msg_1", "llo"))
	r.Apply(&stream.Event{
		Kind: stream.EventItemDone,
		Item: &stream.WireItem{
			ID:   "msg_1",
			Type: "message",
			Role: "assistant",
			Content: []stream.WireContent{
				{Type: "output_text", Text: "Hello!"},
			},
		},
	})

	finalized := r.Finalized()
	if len(finalized) != 1 {
		t.Fatalf("expected 1 finalized item, got %d", len(finalized))
	}
	if got := finalized[0].Message.Text(); got != "Hello!" {
		t.Errorf("finalized text = %q, want the done payload verbatim", got)
	}
	if r.State().working != nil {
		t.Error("working item should be closed after done")
	}
	if r.State().ActiveItemID != "" {
		t.Error("ActiveItemID should clear after done")
	}
}

func TestReducerPartialNotFinalized(t *testing.T) {
	r := NewReducer(nil, nil)
	r.Apply(textDelta("msg_1", "partial answer without a done signal"))

	if got := len(r.Finalized()); got != 0 {
		t.Fatalf("expected no finalized items, got %d", got)
	}
}

func TestReducerToolCallFlow(t *testing.T) {
	sink := &recordSink{}
	r := NewReducer(sink, nil)

	r.Apply(&stream.Event{
		Kind: stream.EventItemAdded,
		Item: &stream.WireItem{ID: "call_1", Type: "function_call", Name: "get_weather"},
	})
	r.Apply(&stream.Event{Kind: stream.EventToolArgsDelta, ItemID: "call_1", Delta: `{"location":`})
	r.Apply(&stream.Event{Kind: stream.EventToolArgsDelta, ItemID: "call_1", Delta: `"Paris"}`})
	r.Apply(&stream.Event{Kind: stream.EventToolArgsDone, ItemID: "call_1"})

	finalized := r.Finalized()
	if len(finalized) != 1 {
		t.Fatalf("expected 1 finalized item, got %d", len(finalized))
	}
	call := finalized[0].ToolCall
	if call == nil {
		t.Fatal("finalized item is not a tool call")
	}
	if call.Status != model.ToolStatusCompleted {
		t.Errorf("status = %s", call.Status)
	}
	if got := call.ParsedArguments["location"]; got != "Paris" {
		t.Errorf("ParsedArguments[location] = %v", got)
	}
	if len(sink.tools) == 0 {
		t.Error("tool-call renders were not emitted")
	}
}

func TestReducerToolCallEchoedByItemDone(t *testing.T) {
	r := NewReducer(nil, nil)
	r.Apply(&stream.Event{Kind: stream.EventToolArgsDelta, ItemID: "call_1", Delta: `{"x":1}`})
	r.Apply(&stream.Event{Kind: stream.EventToolArgsDone, ItemID: "call_1"})
	r.Apply(&stream.Event{
		Kind: stream.EventItemDone,
		Item: &stream.WireItem{ID: "call_1", Type: "function_call", Output: "42"},
	})

	// The echo closes the same call; it must not duplicate the item.
	if got := len(r.Finalized()); got != 1 {
		t.Fatalf("expected 1 finalized item, got %d", got)
	}
}

func TestReducerToolArgumentFailureNotifies(t *testing.T) {
	sink := &recordSink{}
	r := NewReducer(sink, nil)
	r.Apply(&stream.Event{Kind: stream.EventToolArgsDelta, ItemID: "call_1", Delta: `{"x":`})
	r.Apply(&stream.Event{Kind: stream.EventToolArgsDone, ItemID: "call_1"})

	finalized := r.Finalized()
	if len(finalized) != 1 {
		t.Fatalf("expected the failed call to finalize, got %d items", len(finalized))
	}
	if finalized[0].ToolCall.Status != model.ToolStatusFailed {
		t.Errorf("status = %s", finalized[0].ToolCall.Status)
	}
	if len(sink.notices) == 0 {
		t.Error("expected a warning notification for the argument failure")
	}
}

func TestReducerAnnotationsAccumulate(t *testing.T) {
	r := NewReducer(nil, nil)
	r.Apply(&stream.Event{
		Kind: stream.EventTextDelta, ItemID: "msg_1", Delta: "cited",
		Annotation: &stream.Annotation{Type: "url_citation", URL: "https://a.example"},
	})
	r.Apply(&stream.Event{
		Kind: stream.EventTextDelta, ItemID: "msg_1", Delta: " twice",
		Annotation: &stream.Annotation{Type: "url_citation", URL: "https://b.example"},
	})

	block := r.State().working.Content[0]
	if len(block.Annotations) != 2 {
		t.Fatalf("expected 2 annotations, got %d", len(block.Annotations))
	}
	if block.Annotations[0].URL != "https://a.example" {
		t.Errorf("earlier annotation was replaced: %+v", block.Annotations[0])
	}
}

func TestReducerBackendErrorNotifies(t *testing.T) {
	sink := &recordSink{}
	r := NewReducer(sink, nil)
	r.Apply(&stream.Event{Kind: stream.EventError, Message: "model overloaded"})
	if len(sink.notices) != 1 || sink.notices[0] != "model overloaded" {
		t.Errorf("notices = %v", sink.notices)
	}
}
