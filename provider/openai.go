package provider

import (
	"context"
	"fmt"
	"io"

	"github.com/openai/openai-go/v3"
	"github.com/openai/openai-go/v3/option"
	"github.com/openai/openai-go/v3/packages/ssestream"

	"chatui/model"
	"chatui/stream"
	"chatui/tools"
)

// OpenAIProvider streams chat completions from the OpenAI API and adapts
// them into the typed event sequence.
type OpenAIProvider struct {
	client  openai.Client
	model   string
	baseURL string
}

// NewOpenAIProvider creates an OpenAI provider. baseURL and model fall back
// to the API default and an affordable model.
func NewOpenAIProvider(baseURL, apiKey, model string) (*OpenAIProvider, error) {
	if baseURL == "" {
		baseURL = "https://api.openai.com/v1"
	}
	if apiKey == "" {
		return nil, fmt.Errorf("OpenAI API key is required")
	}
	if model == "" {
		model = "gpt-4o-mini"
	}

	client := openai.NewClient(
		option.WithBaseURL(baseURL),
		option.WithAPIKey(apiKey),
	)

	return &OpenAIProvider{
		client:  client,
		model:   model,
		baseURL: baseURL,
	}, nil
}

// Stream implements model.Provider.
func (p *OpenAIProvider) Stream(ctx context.Context, req model.Request) (model.EventStream, error) {
	params := openai.ChatCompletionNewParams{
		Messages: openaiMessages(req),
		Model:    openai.ChatModel(p.requestModel(req)),
	}
	if len(req.Tools) > 0 {
		params.Tools = tools.ToOpenAI(req.Tools)
	}

	inner := p.client.Chat.Completions.NewStreaming(ctx, params)
	return &openaiStream{inner: inner}, nil
}

func (p *OpenAIProvider) requestModel(req model.Request) string {
	if req.Model != "" {
		return req.Model
	}
	return p.model
}

// GetModel implements model.Provider.
func (p *OpenAIProvider) GetModel() string { return p.model }

// SetModel implements model.Provider.
func (p *OpenAIProvider) SetModel(m string) { p.model = m }

// Ping implements model.Provider by listing models.
func (p *OpenAIProvider) Ping(ctx context.Context) error {
	if _, err := p.client.Models.List(ctx); err != nil {
		return fmt.Errorf("OpenAI ping failed: %w", err)
	}
	return nil
}

// openaiMessages converts the replay history to the chat-completions shape.
// Tool turns replay as plain assistant text: the next request needs the
// outcome, not the original wire structure.
func openaiMessages(req model.Request) []openai.ChatCompletionMessageParamUnion {
	out := make([]openai.ChatCompletionMessageParamUnion, 0, len(req.History)+1)
	if req.System != "" {
		out = append(out, openai.SystemMessage(req.System))
	}
	for _, turn := range req.History {
		switch turn.Role {
		case model.RoleUser:
			out = append(out, openai.UserMessage(turn.Content))
		case model.RoleAssistant:
			out = append(out, openai.AssistantMessage(turn.Content))
		case model.RoleSystem:
			out = append(out, openai.SystemMessage(turn.Content))
		default:
			out = append(out, openai.UserMessage(turn.Content))
		}
	}
	return out
}

// openaiStream adapts the SDK's chunk stream to typed events. One chunk can
// yield several events, so decoded events queue until pulled.
type openaiStream struct {
	inner  *ssestream.Stream[openai.ChatCompletionChunk]
	acc    openai.ChatCompletionAccumulator
	queue  []*stream.Event
	itemID string
	done   bool
}

func (s *openaiStream) Next() (*stream.Event, error) {
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

		chunk := s.inner.Current()
		s.acc.AddChunk(chunk)
		if s.itemID == "" {
			s.itemID = chunk.ID
		}

		if tool, ok := s.acc.JustFinishedToolCall(); ok {
			callID := fmt.Sprintf("%s_call_%d", s.itemID, tool.Index)
			s.queue = append(s.queue,
				&stream.Event{
					Kind: stream.EventItemAdded,
					Item: &stream.WireItem{ID: callID, Type: "function_call", Name: tool.Name},
				},
				&stream.Event{
					Kind:      stream.EventToolArgsDone,
					ItemID:    callID,
					Arguments: tool.Arguments,
				},
			)
		}
		if len(chunk.Choices) > 0 && chunk.Choices[0].Delta.Content != "" {
			s.queue = append(s.queue, &stream.Event{
				Kind:   stream.EventTextDelta,
				ItemID: s.itemID,
				Delta:  chunk.Choices[0].Delta.Content,
			})
		}
	}
}

// finish synthesizes the terminal events: the accumulated message closes
// with an authoritative item_done, then completed and the done sentinel.
func (s *openaiStream) finish() {
	if len(s.acc.Choices) > 0 && s.acc.Choices[0].Message.Content != "" {
		s.queue = append(s.queue, &stream.Event{
			Kind: stream.EventItemDone,
			Item: &stream.WireItem{
				ID:   s.itemID,
				Type: "message",
				Role: "assistant",
				Content: []stream.WireContent{
					{Type: "output_text", Text: s.acc.Choices[0].Message.Content},
				},
			},
		})
	}
	s.queue = append(s.queue,
		&stream.Event{Kind: stream.EventCompleted},
		&stream.Event{Kind: stream.EventDone},
	)
}

func (s *openaiStream) Close() error {
	return s.inner.Close()
}
