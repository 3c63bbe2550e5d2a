package chat

import (
	"log"
	"time"

	"chatui/model"
	"chatui/stream"
)

// StreamState is the ephemeral per-request state of one in-flight stream.
// It is created when the request starts and discarded when the stream ends,
// whatever the outcome; it is never persisted.
type StreamState struct {
	// AccumulatedText is the running concatenation of all text deltas seen
	// during this stream, across items.
	AccumulatedText string
	// ActiveItemID is the id of the currently open assistant item, or "".
	ActiveItemID string

	working    *model.MessageItem
	superseded []*model.MessageItem
}

// Reducer folds stream events, in arrival order, into finalized conversation
// items. It is driven single-threaded: one Apply call per event, no
// reordering, no speculative application.
type Reducer struct {
	state     StreamState
	tracker   *Tracker
	sink      model.Sink
	logger    *log.Logger
	finalized []model.Item
	finalIdx  map[string]int
}

// NewReducer creates a reducer emitting UI deltas to sink. A nil sink
// discards them; a nil logger silences parse notices.
func NewReducer(sink model.Sink, logger *log.Logger) *Reducer {
	if sink == nil {
		sink = model.NopSink{}
	}
	return &Reducer{
		tracker:  NewTracker(),
		sink:     sink,
		logger:   logger,
		finalIdx: make(map[string]int),
	}
}

// Apply folds one event into the state.
func (r *Reducer) Apply(evt *stream.Event) {
	switch evt.Kind {
	case stream.EventTextDelta:
		r.applyTextDelta(evt)
	case stream.EventItemAdded:
		r.applyItemAdded(evt)
	case stream.EventItemDone:
		r.applyItemDone(evt)
	case stream.EventToolArgsDelta:
		call := r.tracker.ArgumentsDelta(evt.ItemID, evt.Delta)
		r.sink.RenderToolCall(*call)
	case stream.EventToolArgsDone:
		r.completeToolCall(evt.ItemID, evt.Arguments, evt.Output)
	case stream.EventError:
		r.sink.Notify(model.SeverityError, evt.Message)
	case stream.EventParseError:
		if r.logger != nil {
			r.logger.Printf("skipping malformed event line: %v", evt.Err)
		}
	case stream.EventCompleted, stream.EventDone:
		// Terminal bookkeeping happens in the store, which owns persistence.
	}
}

func (r *Reducer) applyTextDelta(evt *stream.Event) {
	r.state.AccumulatedText += evt.Delta

	// A changed id always signals a new logical message, even if an item is
	// already open. The stale partial is left as-is, never merged.
	if r.state.working == nil || r.state.working.ID != evt.ItemID {
		if r.state.working != nil {
			r.state.superseded = append(r.state.superseded, r.state.working)
		}
		block := model.ContentBlock{Kind: model.ContentOutputText, Text: evt.Delta}
		if evt.Annotation != nil {
			block.Annotations = []model.Annotation{annotationFromWire(evt.Annotation)}
		}
		r.state.working = &model.MessageItem{
			ID:        evt.ItemID,
			Role:      model.RoleAssistant,
			Content:   []model.ContentBlock{block},
			CreatedAt: time.Now().UTC(),
		}
		r.state.ActiveItemID = evt.ItemID
		r.sink.RenderMessage(model.Item{Kind: model.ItemKindMessage, Message: r.state.working})
		return
	}

	block := &r.state.working.Content[len(r.state.working.Content)-1]
	block.Text += evt.Delta
	if evt.Annotation != nil {
		// Annotations accumulate monotonically; earlier ones are never
		// replaced or dropped.
		block.Annotations = append(block.Annotations, annotationFromWire(evt.Annotation))
	}
	r.sink.UpdateStreamingItem(model.Item{Kind: model.ItemKindMessage, Message: r.state.working})
}

func (r *Reducer) applyItemAdded(evt *stream.Event) {
	if evt.Item == nil {
		return
	}
	if evt.Item.Type == "message" {
		return
	}
	call := r.tracker.Announce(evt.Item)
	r.sink.RenderToolCall(*call)
}

func (r *Reducer) applyItemDone(evt *stream.Event) {
	if evt.Item == nil {
		return
	}
	if evt.Item.Type != "message" {
		r.completeToolCall(evt.Item.ID, evt.Item.Arguments, evt.Item.Output)
		return
	}
	if evt.Item.Role != string(model.RoleAssistant) {
		return
	}

	// The provider's done payload is the source of truth: it overwrites the
	// locally accumulated content even when they differ.
	final := &model.MessageItem{
		ID:        evt.Item.ID,
		Role:      model.RoleAssistant,
		Content:   contentFromWire(evt.Item.Content),
		CreatedAt: time.Now().UTC(),
	}
	if r.state.working != nil && r.state.working.ID == evt.Item.ID {
		final.CreatedAt = r.state.working.CreatedAt
		r.state.working = nil
		r.state.ActiveItemID = ""
	}
	r.addFinalized(final.ID, model.Item{Kind: model.ItemKindMessage, Message: final})
	r.sink.UpdateStreamingItem(model.Item{Kind: model.ItemKindMessage, Message: final})
}

func (r *Reducer) completeToolCall(callID, arguments, output string) {
	call, err := r.tracker.Complete(callID, arguments, output)
	if err != nil {
		// Failed is a terminal state of the call, not of the conversation.
		r.sink.Notify(model.SeverityWarning, err.Error())
		if r.logger != nil {
			r.logger.Printf("%v", err)
		}
	}
	r.addFinalized(call.ID, model.Item{Kind: model.ItemKindToolCall, ToolCall: call})
	r.sink.RenderToolCall(*call)
}

// addFinalized appends a closed item, or updates it in place when the same
// id closes twice (a tool call closed by arguments.done and then echoed by
// output_item.done).
func (r *Reducer) addFinalized(id string, item model.Item) {
	if idx, ok := r.finalIdx[id]; ok {
		r.finalized[idx] = item
		return
	}
	r.finalIdx[id] = len(r.finalized)
	r.finalized = append(r.finalized, item)
}

// Finalized returns the items closed during this stream, in close order.
// Partial items that never received their done signal are not included.
func (r *Reducer) Finalized() []model.Item {
	return r.finalized
}

// OpenToolCalls exposes the non-terminal tool calls for display.
func (r *Reducer) OpenToolCalls() []*model.ToolCallItem {
	return r.tracker.Open()
}

// State returns the ephemeral stream state, for inspection.
func (r *Reducer) State() *StreamState {
	return &r.state
}

func annotationFromWire(a *stream.Annotation) model.Annotation {
	return model.Annotation{
		Type:       a.Type,
		Title:      a.Title,
		URL:        a.URL,
		FileID:     a.FileID,
		StartIndex: a.StartIndex,
		EndIndex:   a.EndIndex,
	}
}

func contentFromWire(blocks []stream.WireContent) []model.ContentBlock {
	out := make([]model.ContentBlock, 0, len(blocks))
	for _, b := range blocks {
		kind := model.ContentBlockKind(b.Type)
		switch kind {
		case model.ContentInputText, model.ContentOutputText, model.ContentRefusal:
		default:
			kind = model.ContentOutputText
		}
		block := model.ContentBlock{Kind: kind, Text: b.Text}
		for _, a := range b.Annotations {
			ann := a
			block.Annotations = append(block.Annotations, annotationFromWire(&ann))
		}
		out = append(out, block)
	}
	return out
}
