package chat

import (
	"encoding/json"
	"time"

	"chatui/model"
	"chatui/stream"
)

// Tracker manages the lifecycle of tool calls that span multiple stream
// events: pending → in_progress → {completed | failed}. Terminal states are
// absorbing; events for a terminal call are ignored.
type Tracker struct {
	calls map[string]*model.ToolCallItem
	order []string
}

// NewTracker creates an empty tracker.
func NewTracker() *Tracker {
	return &Tracker{calls: make(map[string]*model.ToolCallItem)}
}

// Announce registers a call from an item_added event in pending state (or
// the wire status, if in_progress). Announcing an existing call only fills
// in a missing name.
func (t *Tracker) Announce(item *stream.WireItem) *model.ToolCallItem {
	if call, ok := t.calls[item.ID]; ok {
		if call.Name == "" {
			call.Name = item.Name
		}
		return call
	}

	status := model.ToolStatusPending
	if item.Status == string(model.ToolStatusInProgress) {
		status = model.ToolStatusInProgress
	}
	call := &model.ToolCallItem{
		ID:              item.ID,
		Kind:            model.ToolCallKindFromWire(item.Type),
		Status:          status,
		Name:            item.Name,
		ArgumentsBuffer: item.Arguments,
		CreatedAt:       time.Now().UTC(),
	}
	t.calls[item.ID] = call
	t.order = append(t.order, item.ID)
	return call
}

// ArgumentsDelta appends raw argument text for a call. The first delta for
// an unknown call id creates it in in_progress with an empty buffer; a
// pending call moves to in_progress. The buffer is never parsed here:
// partial JSON is invalid by construction.
func (t *Tracker) ArgumentsDelta(callID, delta string) *model.ToolCallItem {
	call, ok := t.calls[callID]
	if !ok {
		call = &model.ToolCallItem{
			ID:        callID,
			Kind:      model.ToolCallFunction,
			Status:    model.ToolStatusInProgress,
			CreatedAt: time.Now().UTC(),
		}
		t.calls[callID] = call
		t.order = append(t.order, callID)
	}
	if call.Status.Terminal() {
		return call
	}
	call.Status = model.ToolStatusInProgress
	call.ArgumentsBuffer += delta
	return call
}

// Complete transitions a call to its terminal state. The accumulated buffer
// is parsed exactly once, here: success yields completed with
// ParsedArguments set, parse failure yields failed and a ToolArgumentError
// so callers can tell "never completed" apart from "completed with garbage".
// arguments, when non-empty, is the authoritative full argument string and
// replaces the accumulated buffer.
func (t *Tracker) Complete(callID, arguments, output string) (*model.ToolCallItem, error) {
	call, ok := t.calls[callID]
	if !ok {
		call = &model.ToolCallItem{
			ID:        callID,
			Kind:      model.ToolCallFunction,
			CreatedAt: time.Now().UTC(),
		}
		t.calls[callID] = call
		t.order = append(t.order, callID)
	}
	if call.Status.Terminal() {
		// A later echo (output_item.done after arguments.done) may still
		// carry the output the first completion lacked.
		if call.Output == "" && output != "" {
			call.Output = output
		}
		return call, nil
	}

	if arguments != "" {
		call.ArgumentsBuffer = arguments
	}
	if output != "" {
		call.Output = output
	}

	// An empty buffer is a call without arguments (web search, code
	// interpreter), not a parse failure.
	if call.ArgumentsBuffer == "" {
		call.Status = model.ToolStatusCompleted
		return call, nil
	}

	var parsed map[string]any
	if err := json.Unmarshal([]byte(call.ArgumentsBuffer), &parsed); err != nil {
		call.Status = model.ToolStatusFailed
		return call, &ToolArgumentError{CallID: callID, Name: call.Name, Err: err}
	}
	call.ParsedArguments = parsed
	call.Status = model.ToolStatusCompleted
	return call, nil
}

// Open returns the non-terminal calls in creation order, for display.
func (t *Tracker) Open() []*model.ToolCallItem {
	var open []*model.ToolCallItem
	for _, id := range t.order {
		if call := t.calls[id]; !call.Status.Terminal() {
			open = append(open, call)
		}
	}
	return open
}

// Closed returns the terminal calls in creation order. Closed calls belong
// in the permanent item list.
func (t *Tracker) Closed() []*model.ToolCallItem {
	var closed []*model.ToolCallItem
	for _, id := range t.order {
		if call := t.calls[id]; call.Status.Terminal() {
			closed = append(closed, call)
		}
	}
	return closed
}

// Get returns a tracked call by id, or nil.
func (t *Tracker) Get(callID string) *model.ToolCallItem {
	return t.calls[callID]
}
