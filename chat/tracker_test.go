package chat

import (
	"errors"
	"testing"

	"chatui/model"
	"chatui/stream"
)

func TestTrackerLifecycle(t *testing.T) {
	tr := NewTracker()

	call := tr.Announce(&stream.WireItem{ID: "call_1", Type: "function_call", Name: "get_weather"})
	if call.Status != model.ToolStatusPending {
		t.Fatalf("expected pending after announce, got %s", call.Status)
	}
	if call.Kind != model.ToolCallFunction {
		t.Errorf("expected function kind, got %s", call.Kind)
	}

	tr.ArgumentsDelta("call_1", `{"loc`)
	call = tr.ArgumentsDelta("call_1", `ation":"Paris"}`)
	if call.Status != model.ToolStatusInProgress {
		t.Fatalf("expected in_progress after delta, got %s", call.Status)
	}
	if call.ArgumentsBuffer != `{"location":"Paris"}` {
		t.Errorf("buffer = %q", call.ArgumentsBuffer)
	}
	if call.ParsedArguments != nil {
		t.Error("buffer must not be parsed before completion")
	}

	call, err := tr.Complete("call_1", "", "")
	if err != nil {
		t.Fatalf("Complete failed: %v", err)
	}
	if call.Status != model.ToolStatusCompleted {
		t.Fatalf("expected completed, got %s", call.Status)
	}
	if got := call.ParsedArguments["location"]; got != "Paris" {
		t.Errorf("ParsedArguments[location] = %v", got)
	}
}

func TestTrackerParseFailure(t *testing.T) {
	tr := NewTracker()
	tr.Announce(&stream.WireItem{ID: "call_1", Type: "function_call", Name: "get_weather"})
	tr.ArgumentsDelta("call_1", `{"x":`)

	call, err := tr.Complete("call_1", "", "")
	if err == nil {
		t.Fatal("expected error for truncated arguments")
	}
	var argErr *ToolArgumentError
	if !errors.As(err, &argErr) {
		t.Fatalf("expected ToolArgumentError, got %T", err)
	}
	if argErr.CallID != "call_1" || argErr.Name != "get_weather" {
		t.Errorf("error identifies %s/%s", argErr.CallID, argErr.Name)
	}
	if call.Status != model.ToolStatusFailed {
		t.Fatalf("expected failed, got %s", call.Status)
	}
	if call.ParsedArguments != nil {
		t.Error("failed call must not carry parsed arguments")
	}
}

func TestTrackerValidArguments(t *testing.T) {
	tr := NewTracker()
	tr.ArgumentsDelta("call_1", `{"x":1}`)
	call, err := tr.Complete("call_1", "", "")
	if err != nil {
		t.Fatalf("Complete failed: %v", err)
	}
	if call.Status != model.ToolStatusCompleted {
		t.Fatalf("expected completed, got %s", call.Status)
	}
	if got, ok := call.ParsedArguments["x"].(float64); !ok || got != 1 {
		t.Errorf("ParsedArguments[x] = %v", call.ParsedArguments["x"])
	}
}

func TestTrackerTerminalAbsorbing(t *testing.T) {
	tr := NewTracker()
	tr.ArgumentsDelta("call_1", `{"x":1}`)
	if _, err := tr.Complete("call_1", "", ""); err != nil {
		t.Fatalf("Complete failed: %v", err)
	}

	call := tr.ArgumentsDelta("call_1", "garbage")
	if call.ArgumentsBuffer != `{"x":1}` {
		t.Errorf("delta after completion mutated buffer: %q", call.ArgumentsBuffer)
	}
	call, err := tr.Complete("call_1", `{"y":2}`, "")
	if err != nil {
		t.Fatalf("repeated Complete failed: %v", err)
	}
	if call.ArgumentsBuffer != `{"x":1}` {
		t.Errorf("repeated completion mutated buffer: %q", call.ArgumentsBuffer)
	}
	if call.Status != model.ToolStatusCompleted {
		t.Errorf("status changed to %s", call.Status)
	}
}

func TestTrackerLateOutputEcho(t *testing.T) {
	tr := NewTracker()
	tr.ArgumentsDelta("call_1", `{"x":1}`)
	if _, err := tr.Complete("call_1", "", ""); err != nil {
		t.Fatalf("Complete failed: %v", err)
	}

	// The item_done echo after arguments.done often carries the output the
	// first completion lacked. It must stick without reopening the call.
	call, err := tr.Complete("call_1", "", "42")
	if err != nil {
		t.Fatalf("echo Complete failed: %v", err)
	}
	if call.Output != "42" {
		t.Errorf("Output = %q, want %q", call.Output, "42")
	}
	if call.Status != model.ToolStatusCompleted {
		t.Errorf("status changed to %s", call.Status)
	}

	// An already-attached output is never overwritten.
	call, _ = tr.Complete("call_1", "", "other")
	if call.Output != "42" {
		t.Errorf("output overwritten: %q", call.Output)
	}
}

func TestTrackerDeltaCreatesUnknownCall(t *testing.T) {
	tr := NewTracker()
	call := tr.ArgumentsDelta("call_9", `{"a"`)
	if call.Status != model.ToolStatusInProgress {
		t.Fatalf("expected in_progress, got %s", call.Status)
	}
	if call.Kind != model.ToolCallFunction {
		t.Errorf("expected function kind, got %s", call.Kind)
	}
	if call.ArgumentsBuffer != `{"a"` {
		t.Errorf("buffer = %q", call.ArgumentsBuffer)
	}
}

func TestTrackerAuthoritativeArguments(t *testing.T) {
	tr := NewTracker()
	tr.ArgumentsDelta("call_1", `{"x":`)
	call, err := tr.Complete("call_1", `{"x":1}`, "result text")
	if err != nil {
		t.Fatalf("Complete failed: %v", err)
	}
	if call.Status != model.ToolStatusCompleted {
		t.Fatalf("expected completed, got %s", call.Status)
	}
	if call.ArgumentsBuffer != `{"x":1}` {
		t.Errorf("authoritative arguments not applied: %q", call.ArgumentsBuffer)
	}
	if call.Output != "result text" {
		t.Errorf("output = %q", call.Output)
	}
}

func TestTrackerEmptyArguments(t *testing.T) {
	tr := NewTracker()
	tr.Announce(&stream.WireItem{ID: "ws_1", Type: "web_search_call", Status: "in_progress"})
	call, err := tr.Complete("ws_1", "", "search results")
	if err != nil {
		t.Fatalf("Complete failed: %v", err)
	}
	if call.Status != model.ToolStatusCompleted {
		t.Fatalf("expected completed, got %s", call.Status)
	}
	if call.Kind != model.ToolCallWebSearch {
		t.Errorf("kind = %s", call.Kind)
	}
	if call.ParsedArguments != nil {
		t.Error("no arguments should mean no parsed map")
	}
}

func TestTrackerOpenAndClosed(t *testing.T) {
	tr := NewTracker()
	tr.Announce(&stream.WireItem{ID: "a", Type: "function_call", Name: "one"})
	tr.Announce(&stream.WireItem{ID: "b", Type: "function_call", Name: "two"})
	tr.ArgumentsDelta("b", `{}`)
	if _, err := tr.Complete("b", "", ""); err != nil {
		t.Fatalf("Complete failed: %v", err)
	}

	open := tr.Open()
	if len(open) != 1 || open[0].ID != "a" {
		t.Errorf("open = %v", open)
	}
	closed := tr.Closed()
	if len(closed) != 1 || closed[0].ID != "b" {
		t.Errorf("closed = %v", closed)
	}
}
