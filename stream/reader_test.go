package stream

import (
	"io"
	"strings"
	"testing"
)

// chunkReader yields the underlying data in fixed-size pieces to exercise
// lines split across transport chunk boundaries.
type chunkReader struct {
	data []byte
	size int
	pos  int
}

func (c *chunkReader) Read(p []byte) (int, error) {
	if c.pos >= len(c.data) {
		return 0, io.EOF
	}
	n := c.size
	if n > len(p) {
		n = len(p)
	}
	if c.pos+n > len(c.data) {
		n = len(c.data) - c.pos
	}
	copy(p, c.data[c.pos:c.pos+n])
	c.pos += n
	return n, nil
}

func TestReader(t *testing.T) {
	wire := `data: {"event":"response.output_text.delta","data":{"delta":"Hello","item_id":"msg_1"}}

data: {"event":"response.output_text.delta","data":{"delta":" world","item_id":"msg_1"}}

data: {"event":"response.completed","data":{}}

data: [DONE]

`
	r := NewReader(strings.NewReader(wire))

	evt, err := r.Next()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if evt.Kind != EventTextDelta {
		t.Errorf("kind: got %s, want %s", evt.Kind, EventTextDelta)
	}
	if evt.Delta != "Hello" || evt.ItemID != "msg_1" {
		t.Errorf("got delta %q item %q", evt.Delta, evt.ItemID)
	}

	evt, err = r.Next()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if evt.Delta != " world" {
		t.Errorf("delta: got %q, want %q", evt.Delta, " world")
	}

	evt, err = r.Next()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if evt.Kind != EventCompleted {
		t.Errorf("kind: got %s, want %s", evt.Kind, EventCompleted)
	}

	evt, err = r.Next()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if evt.Kind != EventDone {
		t.Errorf("kind: got %s, want %s", evt.Kind, EventDone)
	}

	if _, err = r.Next(); err != io.EOF {
		t.Errorf("after done: got %v, want io.EOF", err)
	}
}

func TestReaderChunkBoundaries(t *testing.T) {
	wire := `data: {"event":"response.output_text.delta","data":{"delta":"split across chunks","item_id":"msg_1"}}

data: [DONE]

`
	for _, size := range []int{1, 3, 7, 16} {
		r := NewReader(&chunkReader{data: []byte(wire), size: size})

		evt, err := r.Next()
		if err != nil {
			t.Fatalf("chunk size %d: unexpected error: %v", size, err)
		}
		if evt.Delta != "split across chunks" {
			t.Errorf("chunk size %d: got delta %q", size, evt.Delta)
		}

		evt, err = r.Next()
		if err != nil {
			t.Fatalf("chunk size %d: unexpected error: %v", size, err)
		}
		if evt.Kind != EventDone {
			t.Errorf("chunk size %d: got %s, want done", size, evt.Kind)
		}
	}
}

func TestReaderDoubledPrefix(t *testing.T) {
	wire := `data: data: {"event":"response.output_text.delta","data":{"delta":"wrapped","item_id":"msg_1"}}
data: data: [DONE]
`
	r := NewReader(strings.NewReader(wire))

	evt, err := r.Next()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if evt.Delta != "wrapped" {
		t.Errorf("delta: got %q, want %q", evt.Delta, "wrapped")
	}

	evt, err = r.Next()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if evt.Kind != EventDone {
		t.Errorf("kind: got %s, want done", evt.Kind)
	}
}

func TestReaderBareSentinel(t *testing.T) {
	wire := `[DONE]
data: {"event":"response.output_text.delta","data":{"delta":"late","item_id":"msg_1"}}
`
	r := NewReader(strings.NewReader(wire))

	evt, err := r.Next()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if evt.Kind != EventDone {
		t.Fatalf("kind: got %s, want done", evt.Kind)
	}

	// Nothing after the sentinel may be consumed.
	if _, err = r.Next(); err != io.EOF {
		t.Errorf("after done: got %v, want io.EOF", err)
	}
}

func TestReaderEmptyPayloadSkipped(t *testing.T) {
	wire := `data: data:
data: {"event":"response.output_text.delta","data":{"delta":"ok","item_id":"msg_1"}}
data: [DONE]
`
	r := NewReader(strings.NewReader(wire))

	evt, err := r.Next()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if evt.Delta != "ok" {
		t.Errorf("delta: got %q, want %q", evt.Delta, "ok")
	}
}

func TestReaderMalformedLine(t *testing.T) {
	wire := `data: not json at all
data: {"event":"response.output_text.delta","data":{"delta":"still here","item_id":"msg_1"}}
data: [DONE]
`
	r := NewReader(strings.NewReader(wire))

	evt, err := r.Next()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if evt.Kind != EventParseError {
		t.Fatalf("kind: got %s, want parse_error", evt.Kind)
	}
	if evt.Err == nil {
		t.Error("parse error event should carry the decode error")
	}

	// The bad line must not lose subsequent valid events.
	evt, err = r.Next()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if evt.Delta != "still here" {
		t.Errorf("delta: got %q, want %q", evt.Delta, "still here")
	}
}

func TestReaderItemDone(t *testing.T) {
	wire := `data: {"event":"response.output_item.done","data":{"item":{"id":"msg_1","type":"message","role":"assistant","content":[{"type":"output_text","text":"Hello!"}]}}}
data: [DONE]
`
	r := NewReader(strings.NewReader(wire))

	evt, err := r.Next()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if evt.Kind != EventItemDone {
		t.Fatalf("kind: got %s, want item done", evt.Kind)
	}
	if evt.Item == nil || evt.Item.ID != "msg_1" || evt.Item.Role != "assistant" {
		t.Fatalf("unexpected item: %+v", evt.Item)
	}
	if len(evt.Item.Content) != 1 || evt.Item.Content[0].Text != "Hello!" {
		t.Errorf("unexpected content: %+v", evt.Item.Content)
	}
}

func TestWriterRoundTrip(t *testing.T) {
	var sb strings.Builder
	w := NewWriter(&sb)

	events := []*Event{
		{Kind: EventTextDelta, ItemID: "msg_1", Delta: "Hi"},
		{Kind: EventToolArgsDelta, ItemID: "call_1", Delta: `{"x":`},
		{Kind: EventToolArgsDone, ItemID: "call_1", Arguments: `{"x":1}`, Output: "42"},
		{Kind: EventError, Message: "backend hiccup"},
	}
	for _, evt := range events {
		if err := w.Write(evt); err != nil {
			t.Fatalf("write: %v", err)
		}
	}
	if err := w.WriteDone(); err != nil {
		t.Fatalf("write done: %v", err)
	}

	r := NewReader(strings.NewReader(sb.String()))
	for i, want := range events {
		got, err := r.Next()
		if err != nil {
			t.Fatalf("event %d: %v", i, err)
		}
		if got.Kind != want.Kind {
			t.Errorf("event %d kind: got %s, want %s", i, got.Kind, want.Kind)
		}
		if got.ItemID != want.ItemID || got.Delta != want.Delta {
			t.Errorf("event %d: got %+v", i, got)
		}
		if got.Arguments != want.Arguments || got.Output != want.Output {
			t.Errorf("event %d args/output: got %+v", i, got)
		}
		if got.Message != want.Message {
			t.Errorf("event %d message: got %q, want %q", i, got.Message, want.Message)
		}
	}
	got, err := r.Next()
	if err != nil {
		t.Fatalf("done event: %v", err)
	}
	if got.Kind != EventDone {
		t.Errorf("kind: got %s, want done", got.Kind)
	}
}
