package provider

import (
	"context"
	"fmt"
	"io"

	"github.com/anthropics/anthropic-sdk-go"
	"github.com/anthropics/anthropic-sdk-go/option"
	"github.com/anthropics/anthropic-sdk-go/packages/ssestream"
	"github.com/google/uuid"

	"chatui/model"
	"chatui/stream"
	"chatui/tools"
)

// AnthropicProvider streams messages from the Anthropic API and adapts them
// into the typed event sequence.
type AnthropicProvider struct {
	client  *anthropic.Client
	model   anthropic.Model
	baseURL string
}

// NewAnthropicProvider creates an Anthropic provider.
func NewAnthropicProvider(baseURL, apiKey, modelName string) (*AnthropicProvider, error) {
	if baseURL == "" {
		baseURL = "https://api.anthropic.com"
	}
	if apiKey == "" {
		return nil, fmt.Errorf("Anthropic API key is required")
	}

	anthropicModel := anthropic.ModelClaudeSonnet4_5_20250929
	if modelName != "" {
		anthropicModel = anthropic.Model(modelName)
	}

	client := anthropic.NewClient(
		option.WithBaseURL(baseURL),
		option.WithAPIKey(apiKey),
	)

	return &AnthropicProvider{
		client:  &client,
		model:   anthropicModel,
		baseURL: baseURL,
	}, nil
}

// Stream implements model.Provider.
func (p *AnthropicProvider) Stream(ctx context.Context, req model.Request) (model.EventStream, error) {
	params := anthropic.MessageNewParams{
		Model:     p.requestModel(req),
		Messages:  anthropicMessages(req.History),
		MaxTokens: 4096, // required by the API
	}
	if req.System != "" {
		params.System = []anthropic.TextBlockParam{{Text: req.System}}
	}
	if len(req.Tools) > 0 {
		params.Tools = tools.ToAnthropic(req.Tools)
	}

	inner := p.client.Messages.NewStreaming(ctx, params)
	return &anthropicStream{inner: inner}, nil
}

func (p *AnthropicProvider) requestModel(req model.Request) anthropic.Model {
	if req.Model != "" {
		return anthropic.Model(req.Model)
	}
	return p.model
}

// GetModel implements model.Provider.
func (p *AnthropicProvider) GetModel() string { return string(p.model) }

// SetModel implements model.Provider.
func (p *AnthropicProvider) SetModel(m string) { p.model = anthropic.Model(m) }

// Ping implements model.Provider. There is no health endpoint, so ping is a
// minimal one-token request.
func (p *AnthropicProvider) Ping(ctx context.Context) error {
	_, err := p.client.Messages.New(ctx, anthropic.MessageNewParams{
		Model:     p.model,
		MaxTokens: 1,
		Messages: []anthropic.MessageParam{
			anthropic.NewUserMessage(anthropic.NewTextBlock("ping")),
		},
	})
	if err != nil {
		return fmt.Errorf("Anthropic ping failed: %w", err)
	}
	return nil
}

func anthropicMessages(history []model.Turn) []anthropic.MessageParam {
	out := make([]anthropic.MessageParam, 0, len(history))
	for _, turn := range history {
		switch turn.Role {
		case model.RoleAssistant:
			out = append(out, anthropic.NewAssistantMessage(anthropic.NewTextBlock(turn.Content)))
		default:
			// System turns never land in History; everything else replays
			// as user input.
			out = append(out, anthropic.NewUserMessage(anthropic.NewTextBlock(turn.Content)))
		}
	}
	return out
}

// anthropicStream adapts the SDK's event stream to typed events. Text deltas
// forward as they arrive; tool use blocks surface from the accumulated
// message when the stream closes, arguments already complete.
type anthropicStream struct {
	inner  *ssestream.Stream[anthropic.MessageStreamEventUnion]
	msg    anthropic.Message
	queue  []*stream.Event
	itemID string
	done   bool
}

func (s *anthropicStream) Next() (*stream.Event, error) {
	for {
		if len(s.queue) > 0 {
			evt := s.queue[0]
			s.queue = s.queue[1:]
			return evt, nil
		}
		if s.done {
			return nil, io.EOF
		}

		if !s.inner.Next() {
			if err := s.inner.Err(); err != nil {
				return nil, err
			}
			s.done = true
			s.finish()
			continue
		}

		event := s.inner.Current()
		if err := s.msg.Accumulate(event); err != nil {
			return nil, fmt.Errorf("error accumulating message: %w", err)
		}

		if deltaEvent, ok := event.AsAny().(anthropic.ContentBlockDeltaEvent); ok {
			if textDelta, ok := deltaEvent.Delta.AsAny().(anthropic.TextDelta); ok {
				s.queue = append(s.queue, &stream.Event{
					Kind:   stream.EventTextDelta,
					ItemID: s.messageItemID(),
					Delta:  textDelta.Text,
				})
			}
		}
	}
}

func (s *anthropicStream) messageItemID() string {
	if s.itemID == "" {
		if s.msg.ID != "" {
			s.itemID = s.msg.ID
		} else {
			s.itemID = "msg_" + uuid.NewString()
		}
	}
	return s.itemID
}

func (s *anthropicStream) finish() {
	var text string
	for _, block := range s.msg.Content {
		switch variant := block.AsAny().(type) {
		case anthropic.TextBlock:
			text += variant.Text
		case anthropic.ToolUseBlock:
			s.queue = append(s.queue,
				&stream.Event{
					Kind: stream.EventItemAdded,
					Item: &stream.WireItem{ID: variant.ID, Type: "function_call", Name: variant.Name},
				},
				&stream.Event{
					Kind:      stream.EventToolArgsDone,
					ItemID:    variant.ID,
					Arguments: string(variant.Input),
				},
			)
		}
	}
	if text != "" {
		s.queue = append(s.queue, &stream.Event{
			Kind: stream.EventItemDone,
			Item: &stream.WireItem{
				ID:      s.messageItemID(),
				Type:    "message",
				Role:    "assistant",
				Content: []stream.WireContent{{Type: "output_text", Text: text}},
			},
		})
	}
	s.queue = append(s.queue,
		&stream.Event{Kind: stream.EventCompleted},
		&stream.Event{Kind: stream.EventDone},
	)
}

func (s *anthropicStream) Close() error {
	return s.inner.Close()
}
