package provider

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	mcptypes "github.com/mark3labs/mcp-go/mcp"

	"chatui/model"
	"chatui/stream"
)

// GatewayProvider talks to a chat backend that speaks the raw completion
// wire format directly: POST /api/chat/stream returning "data: "-prefixed
// event lines. The backend owns the model and the replay history; the
// client sends only the new message.
type GatewayProvider struct {
	baseURL    string
	apiKey     string
	model      string
	httpClient *http.Client
}

// NewGatewayProvider creates a gateway provider. baseURL is required.
func NewGatewayProvider(baseURL, apiKey, modelName string) (*GatewayProvider, error) {
	if baseURL == "" {
		return nil, fmt.Errorf("gateway base URL is required")
	}
	return &GatewayProvider{
		baseURL: baseURL,
		apiKey:  apiKey,
		model:   modelName,
		// No overall timeout: streams are long-lived. Idle streams are the
		// consumer's watchdog problem.
		httpClient: &http.Client{},
	}, nil
}

type gatewayRequest struct {
	SessionID string          `json:"session_id"`
	Message   string          `json:"message"`
	Model     string          `json:"model,omitempty"`
	Tools     []mcptypes.Tool `json:"tools,omitempty"`
}

// Stream implements model.Provider.
func (p *GatewayProvider) Stream(ctx context.Context, req model.Request) (model.EventStream, error) {
	body, err := json.Marshal(gatewayRequest{
		SessionID: req.ChatbotID,
		Message:   lastUserContent(req.History),
		Model:     req.Model,
		Tools:     req.Tools,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to encode request: %w", err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, p.baseURL+"/api/chat/stream", bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("failed to build request: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set("Accept", "text/event-stream")
	if p.apiKey != "" {
		httpReq.Header.Set("Authorization", "Bearer "+p.apiKey)
	}

	resp, err := p.httpClient.Do(httpReq)
	if err != nil {
		return nil, fmt.Errorf("stream request failed: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		detail, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		resp.Body.Close()
		return nil, fmt.Errorf("stream request returned %s: %s", resp.Status, detail)
	}

	return &gatewayStream{
		reader: stream.NewReader(resp.Body),
		body:   resp.Body,
	}, nil
}

// GetModel implements model.Provider.
func (p *GatewayProvider) GetModel() string { return p.model }

// SetModel implements model.Provider.
func (p *GatewayProvider) SetModel(m string) { p.model = m }

// Ping implements model.Provider using the backend's health endpoint.
func (p *GatewayProvider) Ping(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, p.baseURL+"/health", nil)
	if err != nil {
		return fmt.Errorf("failed to build request: %w", err)
	}
	resp, err := p.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("gateway ping failed: %w", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("gateway ping returned %s", resp.Status)
	}
	return nil
}

func lastUserContent(history []model.Turn) string {
	for i := len(history) - 1; i >= 0; i-- {
		if history[i].Role == model.RoleUser {
			return history[i].Content
		}
	}
	return ""
}

// gatewayStream reads wire events straight off the response body.
type gatewayStream struct {
	reader *stream.Reader
	body   io.ReadCloser
}

func (s *gatewayStream) Next() (*stream.Event, error) {
	return s.reader.Next()
}

func (s *gatewayStream) Close() error {
	return s.body.Close()
}
