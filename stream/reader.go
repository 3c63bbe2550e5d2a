package stream

import (
	"bufio"
	"encoding/json"
	"fmt"
	"io"
	"strings"
)

const (
	linePrefix   = "data: "
	doneSentinel = "[DONE]"
)

// Reader decodes wire events from an io.Reader.
//
// Partial trailing lines split across transport chunks are buffered by the
// underlying scanner and only surfaced once the full line is available.
type Reader struct {
	scanner *bufio.Scanner
	done    bool
}

// NewReader creates a Reader over r.
func NewReader(r io.Reader) *Reader {
	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 0, 256*1024), 1024*1024)
	return &Reader{scanner: scanner}
}

// Next returns the next event. After the [DONE] sentinel it returns a single
// EventDone event and io.EOF on every call after that; no further input is
// consumed. A malformed data line yields an EventParseError event instead of
// aborting the stream.
func (r *Reader) Next() (*Event, error) {
	if r.done {
		return nil, io.EOF
	}

	for r.scanner.Scan() {
		line := strings.TrimSpace(r.scanner.Text())
		if line == "" {
			continue
		}
		// The sentinel may arrive bare or behind one prefix layer.
		if line == doneSentinel {
			r.done = true
			return &Event{Kind: EventDone}, nil
		}
		if !strings.HasPrefix(line, linePrefix) {
			continue
		}

		// Gateways sometimes wrap an already-prefixed record in another
		// "data: " layer; strip until no prefix remains.
		data := line
		for strings.HasPrefix(data, linePrefix) {
			data = strings.TrimSpace(data[len(linePrefix):])
		}
		if data == "" {
			continue
		}
		if data == doneSentinel {
			r.done = true
			return &Event{Kind: EventDone}, nil
		}

		var env envelope
		if err := json.Unmarshal([]byte(data), &env); err != nil {
			return &Event{
				Kind: EventParseError,
				Err:  fmt.Errorf("malformed event line: %w", err),
			}, nil
		}
		return decodeEnvelope(&env), nil
	}

	if err := r.scanner.Err(); err != nil {
		return nil, err
	}
	return nil, io.EOF
}

func decodeEnvelope(env *envelope) *Event {
	evt := &Event{Kind: EventKind(env.Event)}

	switch evt.Kind {
	case EventTextDelta:
		evt.ItemID = env.Data.ItemID
		evt.Delta = env.Data.Delta
		evt.Annotation = env.Data.Annotation
	case EventItemAdded, EventItemDone:
		evt.Item = env.Data.Item
	case EventToolArgsDelta:
		evt.ItemID = env.Data.ItemID
		evt.Delta = env.Data.Delta
	case EventToolArgsDone:
		evt.ItemID = env.Data.ItemID
		evt.Arguments = env.Data.Arguments
		evt.Output = env.Data.Output
	case EventCompleted:
		// No payload the reducer needs; the terminal [DONE] follows.
	case EventError:
		evt.Message = env.Data.Message
	default:
		// Unknown event kinds pass through with their name preserved so
		// callers can log them; the reducer ignores them.
	}
	return evt
}
