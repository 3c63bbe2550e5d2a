package provider

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"chatui/model"
	"chatui/stream"
)

func TestGatewayProviderStream(t *testing.T) {
	var gotBody gatewayRequest
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/api/chat/stream" {
			t.Errorf("path = %s", r.URL.Path)
		}
		if r.Header.Get("Authorization") != "Bearer secret" {
			t.Errorf("auth header = %q", r.Header.Get("Authorization"))
		}
		if err := json.NewDecoder(r.Body).Decode(&gotBody); err != nil {
			t.Errorf("decode body: %v", err)
		}

		w.Header().Set("Content-Type", "text/event-stream")
		sw := stream.NewWriter(w)
		sw.Write(&stream.Event{Kind: stream.EventTextDelta, ItemID: "msg_1", Delta: "Hi"})
		sw.Write(&stream.Event{
			Kind: stream.EventItemDone,
			Item: &stream.WireItem{
				ID: "msg_1", Type: "message", Role: "assistant",
				Content: []stream.WireContent{{Type: "output_text", Text: "Hi"}},
			},
		})
		sw.WriteDone()
	}))
	defer server.Close()

	p, err := NewGatewayProvider(server.URL, "secret", "")
	if err != nil {
		t.Fatalf("NewGatewayProvider failed: %v", err)
	}

	es, err := p.Stream(context.Background(), model.Request{
		ChatbotID: "general-assistant",
		History: []model.Turn{
			{Role: model.RoleUser, Content: "old question"},
			{Role: model.RoleAssistant, Content: "old answer"},
			{Role: model.RoleUser, Content: "say hi"},
		},
	})
	if err != nil {
		t.Fatalf("Stream failed: %v", err)
	}
	defer es.Close()

	var kinds []stream.EventKind
	for {
		evt, err := es.Next()
		if err == io.EOF {
			break
		}
		if err != nil {
			t.Fatalf("Next failed: %v", err)
		}
		kinds = append(kinds, evt.Kind)
	}
	want := []stream.EventKind{stream.EventTextDelta, stream.EventItemDone, stream.EventDone}
	if len(kinds) != len(want) {
		t.Fatalf("kinds = %v", kinds)
	}
	for i := range want {
		if kinds[i] != want[i] {
			t.Errorf("kinds[%d] = %s, want %s", i, kinds[i], want[i])
		}
	}

	if gotBody.SessionID != "general-assistant" {
		t.Errorf("session_id = %q", gotBody.SessionID)
	}
	// Only the newest user message travels; the backend owns the history.
	if gotBody.Message != "say hi" {
		t.Errorf("message = %q", gotBody.Message)
	}
}

func TestGatewayProviderErrorStatus(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "bad chatbot", http.StatusBadRequest)
	}))
	defer server.Close()

	p, err := NewGatewayProvider(server.URL, "", "")
	if err != nil {
		t.Fatalf("NewGatewayProvider failed: %v", err)
	}
	if _, err := p.Stream(context.Background(), model.Request{ChatbotID: "x"}); err == nil {
		t.Fatal("expected error for non-200 response")
	}
}

func TestGatewayProviderPing(t *testing.T) {
	healthy := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/health" {
			t.Errorf("path = %s", r.URL.Path)
		}
		w.WriteHeader(http.StatusOK)
	}))
	defer healthy.Close()

	p, _ := NewGatewayProvider(healthy.URL, "", "")
	if err := p.Ping(context.Background()); err != nil {
		t.Errorf("Ping failed: %v", err)
	}

	down := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusServiceUnavailable)
	}))
	defer down.Close()

	p, _ = NewGatewayProvider(down.URL, "", "")
	if err := p.Ping(context.Background()); err == nil {
		t.Error("expected ping failure for unhealthy backend")
	}
}

func TestGatewayProviderRequiresBaseURL(t *testing.T) {
	if _, err := NewGatewayProvider("", "", ""); err == nil {
		t.Fatal("expected error for missing base URL")
	}
}
