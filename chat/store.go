package chat

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log"
	"time"

	mcptypes "github.com/mark3labs/mcp-go/mcp"

	"chatui/config"
	"chatui/model"
	"chatui/storage"
	"chatui/stream"
)

// DefaultStreamTimeout bounds the wait for the next stream event before the
// request is aborted as timed out.
const DefaultStreamTimeout = 60 * time.Second

// Options configures a Store.
type Options struct {
	Provider model.Provider
	Sessions *storage.SessionCache
	Sink     model.Sink
	Chatbots []config.Chatbot
	Tools    []mcptypes.Tool
	// StreamTimeout <= 0 selects DefaultStreamTimeout.
	StreamTimeout time.Duration
	Logger        *log.Logger
}

// Store owns the canonical per-chatbot conversation: the UI item list and
// the API replay history. Every mutation persists synchronously through the
// session cache; persistence failures are logged and swallowed, so the
// in-memory state stays authoritative for the life of the process.
//
// The store is driven single-threaded: all mutation happens on the caller's
// goroutine, including during streaming.
type Store struct {
	provider model.Provider
	sessions *storage.SessionCache
	sink     model.Sink
	chatbots map[string]config.Chatbot
	tools    []mcptypes.Tool
	timeout  time.Duration
	logger   *log.Logger

	conv      *model.Conversation
	chatbot   *config.Chatbot
	streaming bool
}

// NewStore creates a conversation store.
func NewStore(opts Options) *Store {
	sink := opts.Sink
	if sink == nil {
		sink = model.NopSink{}
	}
	timeout := opts.StreamTimeout
	if timeout <= 0 {
		timeout = DefaultStreamTimeout
	}
	chatbots := make(map[string]config.Chatbot, len(opts.Chatbots))
	for _, b := range opts.Chatbots {
		chatbots[b.ID] = b
	}
	return &Store{
		provider: opts.Provider,
		sessions: opts.Sessions,
		sink:     sink,
		chatbots: chatbots,
		tools:    opts.Tools,
		timeout:  timeout,
		logger:   opts.Logger,
	}
}

// Conversation returns the active conversation, or nil before the first
// SelectChatbot.
func (s *Store) Conversation() *model.Conversation {
	return s.conv
}

// ActiveChatbot returns the selected persona, or nil.
func (s *Store) ActiveChatbot() *config.Chatbot {
	return s.chatbot
}

// Streaming reports whether a completion stream is in flight.
func (s *Store) Streaming() bool {
	return s.streaming
}

// SelectChatbot switches the active conversation. A cached conversation for
// the chatbot is restored verbatim; otherwise a fresh one is seeded with the
// persona's welcome message and an empty API history. Either way the result
// is persisted immediately so a reload lands on the same view.
func (s *Store) SelectChatbot(id string) (*model.Conversation, error) {
	if s.streaming {
		return nil, ErrStreamInFlight
	}
	bot, ok := s.chatbots[id]
	if !ok {
		return nil, fmt.Errorf("unknown chatbot %q", id)
	}

	conv, err := s.sessions.LoadConversation(id)
	if err != nil {
		// Unreadable cache entries degrade to a fresh conversation.
		s.logf("failed to restore conversation for %s: %v", id, err)
		conv = nil
	}
	if conv == nil {
		conv = &model.Conversation{ChatbotID: id}
		welcome := model.NewMessageItem(model.RoleAssistant, bot.Welcome())
		conv.Items = append(conv.Items, welcome)
	}

	s.conv = conv
	s.chatbot = &bot
	s.persist()
	if err := s.sessions.SaveCurrentChatbotID(id); err != nil {
		s.logf("failed to save current chatbot id: %v", err)
	}

	for _, item := range conv.Items {
		switch item.Kind {
		case model.ItemKindMessage:
			s.sink.RenderMessage(item)
		case model.ItemKindToolCall:
			s.sink.RenderToolCall(*item.ToolCall)
		}
	}
	return conv, nil
}

// Reset clears the active conversation back to a single welcome message,
// evicts the superseded cache entry and persists the seeded state.
func (s *Store) Reset() error {
	if s.streaming {
		return ErrStreamInFlight
	}
	if s.chatbot == nil {
		return errors.New("no chatbot selected")
	}

	if err := s.sessions.Remove(s.chatbot.ID); err != nil {
		s.logf("failed to evict cache entry for %s: %v", s.chatbot.ID, err)
	}

	conv := &model.Conversation{ChatbotID: s.chatbot.ID}
	conv.Items = append(conv.Items, model.NewMessageItem(model.RoleAssistant, s.chatbot.Welcome()))
	s.conv = conv
	s.persist()
	s.sink.RenderMessage(conv.Items[0])
	return nil
}

// SendUserMessage appends a user item, persists it and runs one streamed
// completion to the end, folding events into the conversation. It blocks
// until the stream finishes, fails or ctx is cancelled. At most one stream
// per conversation may be in flight.
//
// Items that received their done signal are merged into the conversation
// even when the stream later fails; a partially streamed item that never
// received its done signal is deliberately dropped, not saved.
func (s *Store) SendUserMessage(ctx context.Context, text string) error {
	if s.streaming {
		return ErrStreamInFlight
	}
	if s.conv == nil || s.chatbot == nil {
		return errors.New("no chatbot selected")
	}

	userItem := model.NewMessageItem(model.RoleUser, text)
	s.conv.AppendMessage(userItem)
	s.sink.RenderMessage(userItem)
	s.persist()

	req := model.Request{
		History:   append([]model.Turn(nil), s.conv.APIHistory...),
		ChatbotID: s.chatbot.ID,
		Model:     s.chatbot.Model,
		System:    s.chatbot.SystemPrompt,
	}
	if s.chatbot.ToolsEnabled {
		req.Tools = s.tools
	}

	es, err := s.provider.Stream(ctx, req)
	if err != nil {
		terr := &TransportError{Err: err}
		s.sink.Notify(model.SeverityError, terr.Error())
		return terr
	}

	s.streaming = true
	defer func() { s.streaming = false }()

	reducer := NewReducer(s.sink, s.logger)
	err = s.consume(ctx, es, reducer)

	// Whatever happened, merge the items that were finalized before the
	// stream ended. The ephemeral stream state is discarded with the
	// reducer.
	s.merge(reducer.Finalized())

	if err != nil {
		s.sink.Notify(model.SeverityError, err.Error())
		return err
	}
	return nil
}

// consume pumps events from the stream into the reducer, applying them in
// arrival order. A watchdog timer bounds the wait for each event.
func (s *Store) consume(ctx context.Context, es model.EventStream, reducer *Reducer) error {
	defer es.Close()

	type nextResult struct {
		evt *stream.Event
		err error
	}
	events := make(chan nextResult)
	done := make(chan struct{})
	defer close(done)

	go func() {
		for {
			evt, err := es.Next()
			select {
			case events <- nextResult{evt, err}:
			case <-done:
				return
			}
			if err != nil {
				return
			}
		}
	}()

	timer := time.NewTimer(s.timeout)
	defer timer.Stop()

	for {
		select {
		case res := <-events:
			if res.err != nil {
				if errors.Is(res.err, io.EOF) {
					return nil
				}
				if ctx.Err() != nil {
					return ctx.Err()
				}
				return &TransportError{Err: res.err}
			}
			reducer.Apply(res.evt)
			if res.evt.Kind == stream.EventDone {
				return nil
			}
			if !timer.Stop() {
				<-timer.C
			}
			timer.Reset(s.timeout)

		case <-timer.C:
			es.Close()
			return &TimeoutError{After: s.timeout}

		case <-ctx.Done():
			es.Close()
			return ctx.Err()
		}
	}
}

func (s *Store) merge(finalized []model.Item) {
	if len(finalized) == 0 {
		return
	}
	for _, item := range finalized {
		switch item.Kind {
		case model.ItemKindMessage:
			s.conv.AppendMessage(item)
		case model.ItemKindToolCall:
			s.conv.AppendToolCall(item.ToolCall)
		}
	}
	s.persist()
}

// persist writes the full conversation through the session cache. Failures
// are logged, never surfaced: durability is best-effort and the in-memory
// state remains authoritative.
func (s *Store) persist() {
	if s.conv == nil {
		return
	}
	name := s.sessionName()
	if err := s.sessions.SaveConversation(s.conv, name); err != nil {
		s.logf("failed to persist conversation for %s: %v", s.conv.ChatbotID, err)
	}
}

func (s *Store) sessionName() string {
	for _, item := range s.conv.Items {
		if item.Kind == model.ItemKindMessage && item.Message.Role == model.RoleUser {
			return storage.GenerateSessionName(item.Message.Text())
		}
	}
	if s.chatbot != nil {
		return "Chat with " + s.chatbot.Name
	}
	return ""
}

func (s *Store) logf(format string, args ...any) {
	if s.logger != nil {
		s.logger.Printf(format, args...)
	}
}
