// Package testutil provides a scripted in-memory provider for tests.
package testutil

import (
	"context"
	"io"

	"chatui/model"
	"chatui/stream"
)

// MockProvider replays a scripted event sequence instead of calling a
// backend. It records the last request for assertions.
type MockProvider struct {
	Events      []*stream.Event
	Err         error
	Model       string
	LastRequest model.Request
	Streams     int
}

// Stream implements model.Provider.
func (p *MockProvider) Stream(_ context.Context, req model.Request) (model.EventStream, error) {
	p.LastRequest = req
	p.Streams++
	if p.Err != nil {
		return nil, p.Err
	}
	return &mockStream{events: p.Events}, nil
}

// GetModel implements model.Provider.
func (p *MockProvider) GetModel() string { return p.Model }

// SetModel implements model.Provider.
func (p *MockProvider) SetModel(m string) { p.Model = m }

// Ping implements model.Provider.
func (p *MockProvider) Ping(context.Context) error { return nil }

type mockStream struct {
	events []*stream.Event
	idx    int
}

func (s *mockStream) Next() (*stream.Event, error) {
	if s.idx >= len(s.events) {
		return nil, io.EOF
	}
	evt := s.events[s.idx]
	s.idx++
	return evt, nil
}

func (s *mockStream) Close() error { return nil }

// TextCompletion scripts a full assistant reply: deltas for each chunk, an
// authoritative item_done carrying the joined text, then the terminal events.
func TextCompletion(itemID string, chunks ...string) []*stream.Event {
	var events []*stream.Event
	var full string
	for _, chunk := range chunks {
		full += chunk
		events = append(events, &stream.Event{
			Kind:   stream.EventTextDelta,
			ItemID: itemID,
			Delta:  chunk,
		})
	}
	events = append(events,
		&stream.Event{
			Kind: stream.EventItemDone,
			Item: &stream.WireItem{
				ID:      itemID,
				Type:    "message",
				Role:    "assistant",
				Content: []stream.WireContent{{Type: "output_text", Text: full}},
			},
		},
		&stream.Event{Kind: stream.EventCompleted},
		&stream.Event{Kind: stream.EventDone},
	)
	return events
}
