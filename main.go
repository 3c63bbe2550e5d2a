package main

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"strings"
	"time"

	"chatui/chat"
	"chatui/config"
	"chatui/model"
	"chatui/provider"
	"chatui/storage"
	"chatui/tools"
)

const Version = "v0.1.0"

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}
	config.InitDebugLog(cfg.DataDir())

	kv, closeKV, err := openStorage(cfg)
	if err != nil {
		return fmt.Errorf("failed to initialize storage: %w", err)
	}
	defer closeKV()

	prov, err := provider.New(cfg.Provider)
	if err != nil {
		return fmt.Errorf("failed to create provider: %w", err)
	}

	timeout, err := time.ParseDuration(cfg.StreamTimeout)
	if err != nil {
		timeout = chat.DefaultStreamTimeout
	}

	sessions := storage.NewSessionCache(kv, cfg.MaxSessions)
	sink := newConsoleSink(os.Stdout)
	registry := tools.NewBuiltinRegistry()
	store := chat.NewStore(chat.Options{
		Provider:      prov,
		Sessions:      sessions,
		Sink:          sink,
		Chatbots:      cfg.Chatbots,
		Tools:         registry.List(),
		StreamTimeout: timeout,
		Logger:        config.DebugLog,
	})

	fmt.Printf("chatui %s — type /help for commands\n\n", Version)

	chatbotID := cfg.DefaultChatbot
	if saved, err := sessions.LoadCurrentChatbotID(); err == nil && saved != "" && cfg.FindChatbot(saved) != nil {
		chatbotID = saved
	}
	if _, err := store.SelectChatbot(chatbotID); err != nil {
		return fmt.Errorf("failed to select chatbot: %w", err)
	}

	c := &cli{
		store:    store,
		sessions: sessions,
		cfg:      cfg,
		sink:     sink,
		out:      os.Stdout,
	}

	scanner := bufio.NewScanner(os.Stdin)
	for {
		fmt.Print("> ")
		if !scanner.Scan() {
			break
		}
		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}
		quit, err := c.handleLine(context.Background(), line)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		}
		if quit {
			break
		}
	}
	return scanner.Err()
}

func openStorage(cfg *config.Config) (storage.KV, func(), error) {
	switch cfg.Storage {
	case "sqlite":
		kv, err := storage.NewSQLiteKV(cfg.DataDir())
		if err != nil {
			return nil, nil, err
		}
		return kv, func() { kv.Close() }, nil
	default:
		kv, err := storage.NewFileKV(cfg.DataDir())
		if err != nil {
			return nil, nil, err
		}
		return kv, func() {}, nil
	}
}

// cli dispatches REPL lines: slash commands mutate local state, anything
// else goes to the model.
type cli struct {
	store    *chat.Store
	sessions *storage.SessionCache
	cfg      *config.Config
	sink     *consoleSink
	out      io.Writer
}

func (c *cli) handleLine(ctx context.Context, line string) (quit bool, err error) {
	if !strings.HasPrefix(line, "/") {
		return false, c.send(ctx, line)
	}

	cmd, arg, _ := strings.Cut(line, " ")
	arg = strings.TrimSpace(arg)

	switch cmd {
	case "/quit", "/exit":
		return true, nil
	case "/help":
		c.printHelp()
	case "/chatbots":
		c.printChatbots()
	case "/switch":
		if arg == "" {
			return false, errors.New("usage: /switch <chatbot-id>")
		}
		_, err = c.store.SelectChatbot(arg)
		return false, err
	case "/reset":
		return false, c.store.Reset()
	case "/sessions":
		return false, c.printSessions()
	case "/search":
		if arg == "" {
			return false, errors.New("usage: /search <query>")
		}
		return false, c.search(arg)
	case "/export":
		return false, c.export(arg)
	case "/cleanup":
		removed, err := c.sessions.CleanupEmpty()
		if err != nil {
			return false, err
		}
		fmt.Fprintf(c.out, "Removed %d empty session(s)\n", removed)
	default:
		return false, fmt.Errorf("unknown command %s (try /help)", cmd)
	}
	return false, nil
}

// send runs one message exchange. Ctrl-C aborts the in-flight stream
// without quitting the program; the partial reply is discarded.
func (c *cli) send(ctx context.Context, text string) error {
	ctx, stop := signal.NotifyContext(ctx, os.Interrupt)
	defer stop()

	c.sink.beginStream()
	err := c.store.SendUserMessage(ctx, text)
	c.sink.endStream()
	fmt.Fprintln(c.out)
	if errors.Is(err, context.Canceled) {
		fmt.Fprintln(c.out, "(interrupted)")
		return nil
	}
	return err
}

func (c *cli) printHelp() {
	fmt.Fprint(c.out, `Commands:
  /chatbots           list available chatbots
  /switch <id>        switch to another chatbot
  /reset              clear the current conversation
  /sessions           list cached sessions
  /search <query>     search across all session histories
  /export [json|md]   export the current session (default json)
  /cleanup            remove sessions without user messages
  /quit               exit
Anything else is sent to the current chatbot.
`)
}

func (c *cli) printChatbots() {
	active := ""
	if bot := c.store.ActiveChatbot(); bot != nil {
		active = bot.ID
	}
	for _, bot := range c.cfg.Chatbots {
		marker := " "
		if bot.ID == active {
			marker = "*"
		}
		fmt.Fprintf(c.out, "%s %-20s %s\n", marker, bot.ID, bot.Description)
	}
}

func (c *cli) printSessions() error {
	sessions, err := c.sessions.List(0, 0)
	if err != nil {
		return err
	}
	if len(sessions) == 0 {
		fmt.Fprintln(c.out, "No cached sessions")
		return nil
	}
	for _, s := range sessions {
		fmt.Fprintf(c.out, "%-20s %-30s %3d messages  %s\n",
			s.ChatbotID, s.Name, s.MessageCount, s.LastActivityAt.Local().Format("Jan 2 15:04"))
	}
	return nil
}

func (c *cli) search(query string) error {
	matches, err := c.sessions.SearchAllSessions(query)
	if err != nil {
		return err
	}
	if len(matches) == 0 {
		fmt.Fprintln(c.out, "No matches")
		return nil
	}
	for _, m := range matches {
		fmt.Fprintf(c.out, "[%s] %s: %s\n", m.SessionName, m.Role, m.Preview)
	}
	return nil
}

func (c *cli) export(format string) error {
	bot := c.store.ActiveChatbot()
	if bot == nil {
		return errors.New("no chatbot selected")
	}
	session, err := c.sessions.Get(bot.ID)
	if err != nil {
		return err
	}
	if session == nil {
		return errors.New("nothing to export")
	}

	switch format {
	case "md", "markdown":
		path := storage.GenerateExportPath(session.Name, "markdown")
		if err := c.sessions.ExportMarkdown(bot.ID, path); err != nil {
			return err
		}
		fmt.Fprintf(c.out, "Exported to %s\n", path)
	case "", "json":
		path := storage.GenerateExportPath(session.Name, "json")
		if err := c.sessions.ExportJSON(bot.ID, path); err != nil {
			return err
		}
		fmt.Fprintf(c.out, "Exported to %s\n", path)
	default:
		return fmt.Errorf("unknown export format %q (json or md)", format)
	}
	return nil
}

// consoleSink renders streaming updates to the terminal. During a live
// stream it tracks how much of each item has been printed so repeated
// full-item updates only emit the unseen suffix; outside a stream (session
// replay after a switch) it prints whole transcript lines.
type consoleSink struct {
	w       io.Writer
	live    bool
	printed map[string]int
}

func newConsoleSink(w io.Writer) *consoleSink {
	return &consoleSink{w: w, printed: make(map[string]int)}
}

func (s *consoleSink) beginStream() {
	s.live = true
	s.printed = make(map[string]int)
}

func (s *consoleSink) endStream() { s.live = false }

func (s *consoleSink) RenderMessage(item model.Item) {
	msg := item.Message
	if msg == nil {
		return
	}
	if !s.live {
		fmt.Fprintf(s.w, "%s: %s\n", msg.Role, msg.Text())
		return
	}
	switch msg.Role {
	case model.RoleAssistant:
		text := msg.Text()
		fmt.Fprint(s.w, text)
		s.printed[msg.ID] = len(text)
	case model.RoleUser:
		// The user typed it; re-echoing would duplicate the prompt line.
	}
}

func (s *consoleSink) UpdateStreamingItem(item model.Item) {
	msg := item.Message
	if msg == nil {
		return
	}
	text := msg.Text()
	if n := s.printed[msg.ID]; len(text) > n {
		fmt.Fprint(s.w, text[n:])
		s.printed[msg.ID] = len(text)
	}
}

func (s *consoleSink) RenderToolCall(call model.ToolCallItem) {
	if call.Status.Terminal() {
		fmt.Fprintf(s.w, "\n[tool %s: %s]\n", call.Name, call.Status)
	}
}

func (s *consoleSink) Notify(severity model.Severity, message string) {
	fmt.Fprintf(s.w, "\n[%s] %s\n", severity, message)
}
