package model

import (
	"context"

	mcptypes "github.com/mark3labs/mcp-go/mcp"

	"chatui/stream"
)

// Request is one streamed completion request: the full replay history, the
// tool specs offered to the backend, and the chatbot this turn belongs to.
type Request struct {
	History   []Turn
	Tools     []mcptypes.Tool
	ChatbotID string
	Model     string
	System    string
}

// EventStream is an ordered, finite sequence of typed stream events with a
// distinguished terminal state. Next returns io.EOF after the terminal
// EventDone has been delivered; Close releases the transport and may be
// called at any time to abort.
type EventStream interface {
	Next() (*stream.Event, error)
	Close() error
}

// Provider abstracts completion backends (OpenAI, Anthropic, Ollama, raw
// SSE endpoint).
//
// This interface is defined in the model package rather than the provider
// package to avoid import cycles: provider implementations import model, and
// everything else consumes the interface without importing provider.
type Provider interface {
	// Stream starts a completion request and returns its event stream.
	// Cancelling ctx aborts the transport.
	Stream(ctx context.Context, req Request) (EventStream, error)

	// GetModel returns the currently selected model name.
	GetModel() string

	// SetModel changes the active model.
	SetModel(model string)

	// Ping checks if the backend is reachable.
	Ping(ctx context.Context) error
}
