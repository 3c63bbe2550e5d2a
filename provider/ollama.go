package provider

import (
	"context"
	"encoding/json"
	"fmt"
	"io"

	"github.com/google/uuid"
	"github.com/ollama/ollama/api"

	"chatui/model"
	"chatui/ollama"
	"chatui/stream"
	"chatui/tools"
)

// OllamaProvider adapts the ollama client's push-style chat stream to the
// pull-based typed event sequence.
type OllamaProvider struct {
	client *ollama.Client
}

// NewOllamaProvider creates an Ollama provider.
func NewOllamaProvider(baseURL, modelName string) (*OllamaProvider, error) {
	client, err := ollama.NewClient(baseURL, modelName)
	if err != nil {
		return nil, fmt.Errorf("failed to create Ollama client: %w", err)
	}
	return &OllamaProvider{client: client}, nil
}

// Stream implements model.Provider. The client's callback API runs in a
// goroutine feeding a channel; Close cancels the request, which unwinds the
// goroutine even when the consumer stopped pulling.
func (p *OllamaProvider) Stream(ctx context.Context, req model.Request) (model.EventStream, error) {
	messages := ollamaMessages(req)

	var ollamaTools []api.Tool
	if len(req.Tools) > 0 && ollama.ModelSupportsToolCalling(p.client.GetModel()) {
		ollamaTools = tools.ToOllama(req.Tools)
	}

	ctx, cancel := context.WithCancel(ctx)
	s := &ollamaStream{
		ctx:    ctx,
		events: make(chan *stream.Event, 8),
		errs:   make(chan error, 1),
		cancel: cancel,
		itemID: "msg_" + uuid.NewString(),
	}

	go func() {
		err := p.client.Chat(ctx, messages, ollamaTools, s.handleResponse)
		if err != nil {
			s.errs <- err
		} else {
			s.finish()
			s.errs <- io.EOF
		}
		close(s.events)
	}()

	return s, nil
}

// GetModel implements model.Provider.
func (p *OllamaProvider) GetModel() string { return p.client.GetModel() }

// SetModel implements model.Provider.
func (p *OllamaProvider) SetModel(m string) { p.client.SetModel(m) }

// Ping implements model.Provider.
func (p *OllamaProvider) Ping(ctx context.Context) error {
	return p.client.Ping(ctx)
}

// ListModels returns the models available on the Ollama server.
func (p *OllamaProvider) ListModels(ctx context.Context) ([]ollama.ModelInfo, error) {
	return p.client.ListModels(ctx)
}

func ollamaMessages(req model.Request) []api.Message {
	out := make([]api.Message, 0, len(req.History)+1)
	if req.System != "" {
		out = append(out, api.Message{Role: "system", Content: req.System})
	}
	for _, turn := range req.History {
		out = append(out, api.Message{Role: string(turn.Role), Content: turn.Content})
	}
	return out
}

type ollamaStream struct {
	ctx    context.Context
	events chan *stream.Event
	errs   chan error
	cancel context.CancelFunc
	err    error

	itemID string
	text   string
}

func (s *ollamaStream) emit(evt *stream.Event) error {
	select {
	case s.events <- evt:
		return nil
	case <-s.ctx.Done():
		return s.ctx.Err()
	}
}

// handleResponse runs on the client goroutine, translating one chat chunk
// into typed events.
func (s *ollamaStream) handleResponse(resp api.ChatResponse) error {
	if resp.Message.Content != "" {
		s.text += resp.Message.Content
		if err := s.emit(&stream.Event{
			Kind:   stream.EventTextDelta,
			ItemID: s.itemID,
			Delta:  resp.Message.Content,
		}); err != nil {
			return err
		}
	}
	for _, call := range resp.Message.ToolCalls {
		callID := "call_" + uuid.NewString()
		args, err := json.Marshal(map[string]any(call.Function.Arguments))
		if err != nil {
			args = []byte("{}")
		}
		if err := s.emit(&stream.Event{
			Kind: stream.EventItemAdded,
			Item: &stream.WireItem{ID: callID, Type: "function_call", Name: call.Function.Name},
		}); err != nil {
			return err
		}
		if err := s.emit(&stream.Event{
			Kind:      stream.EventToolArgsDone,
			ItemID:    callID,
			Arguments: string(args),
		}); err != nil {
			return err
		}
	}
	return nil
}

func (s *ollamaStream) finish() {
	if s.text != "" {
		_ = s.emit(&stream.Event{
			Kind: stream.EventItemDone,
			Item: &stream.WireItem{
				ID:      s.itemID,
				Type:    "message",
				Role:    "assistant",
				Content: []stream.WireContent{{Type: "output_text", Text: s.text}},
			},
		})
	}
	_ = s.emit(&stream.Event{Kind: stream.EventCompleted})
	_ = s.emit(&stream.Event{Kind: stream.EventDone})
}

func (s *ollamaStream) Next() (*stream.Event, error) {
	evt, ok := <-s.events
	if !ok {
		if s.err == nil {
			s.err = <-s.errs
		}
		return nil, s.err
	}
	return evt, nil
}

func (s *ollamaStream) Close() error {
	s.cancel()
	return nil
}
