package stream

import (
	"encoding/json"
	"fmt"
	"io"
)

// Writer emits wire events in the same format the Reader consumes. It is
// used by the raw-SSE backend tests and the scripted mock provider.
type Writer struct {
	w io.Writer
}

// NewWriter creates a Writer over w.
func NewWriter(w io.Writer) *Writer {
	return &Writer{w: w}
}

// Write encodes one event as a prefixed data line.
func (sw *Writer) Write(evt *Event) error {
	env := envelope{Event: string(evt.Kind)}
	switch evt.Kind {
	case EventTextDelta:
		env.Data = envelopeData{ItemID: evt.ItemID, Delta: evt.Delta, Annotation: evt.Annotation}
	case EventItemAdded, EventItemDone:
		env.Data = envelopeData{Item: evt.Item}
	case EventToolArgsDelta:
		env.Data = envelopeData{ItemID: evt.ItemID, Delta: evt.Delta}
	case EventToolArgsDone:
		env.Data = envelopeData{ItemID: evt.ItemID, Arguments: evt.Arguments, Output: evt.Output}
	case EventError:
		env.Data = envelopeData{Message: evt.Message}
	case EventDone:
		_, err := fmt.Fprintf(sw.w, "%s%s\n\n", linePrefix, doneSentinel)
		return err
	}

	data, err := json.Marshal(env)
	if err != nil {
		return fmt.Errorf("failed to encode event: %w", err)
	}
	_, err = fmt.Fprintf(sw.w, "%s%s\n\n", linePrefix, data)
	return err
}

// WriteDone emits the terminal sentinel.
func (sw *Writer) WriteDone() error {
	return sw.Write(&Event{Kind: EventDone})
}
