package storage

import (
	"encoding/json"
	"fmt"
	"sort"
	"strings"
	"time"

	"chatui/model"
)

const (
	indexKey      = "sessions/index"
	historyPrefix = "history/"
	currentKey    = "sessions/current"

	// DefaultMaxSessions caps retained sessions; the oldest are evicted
	// first, history blobs included, to bound storage growth.
	DefaultMaxSessions = 50
)

func historyKey(id string) string { return historyPrefix + id }

// SessionCache is the keyed persistence layer for session metadata and
// per-session message history. The metadata index supports listing without
// loading full histories.
type SessionCache struct {
	kv  KV
	max int
}

// NewSessionCache creates a cache over kv. maxSessions <= 0 selects the
// default cap.
func NewSessionCache(kv KV, maxSessions int) *SessionCache {
	if maxSessions <= 0 {
		maxSessions = DefaultMaxSessions
	}
	return &SessionCache{kv: kv, max: maxSessions}
}

func (c *SessionCache) readIndex() ([]model.Session, error) {
	data, err := c.kv.Get(indexKey)
	if err != nil {
		return nil, fmt.Errorf("failed to read session index: %w", err)
	}
	if data == nil {
		return nil, nil
	}
	var sessions []model.Session
	if err := json.Unmarshal(data, &sessions); err != nil {
		return nil, fmt.Errorf("failed to decode session index: %w", err)
	}
	return sessions, nil
}

func (c *SessionCache) writeIndex(sessions []model.Session) error {
	data, err := json.Marshal(sessions)
	if err != nil {
		return fmt.Errorf("failed to encode session index: %w", err)
	}
	if err := c.kv.Set(indexKey, data); err != nil {
		return fmt.Errorf("failed to write session index: %w", err)
	}
	return nil
}

// List returns sessions ordered by last activity, newest first. limit <= 0
// means no limit.
func (c *SessionCache) List(limit, offset int) ([]model.Session, error) {
	sessions, err := c.readIndex()
	if err != nil {
		return nil, err
	}
	sort.Slice(sessions, func(i, j int) bool {
		return sessions[i].LastActivityAt.After(sessions[j].LastActivityAt)
	})
	if offset >= len(sessions) {
		return nil, nil
	}
	sessions = sessions[offset:]
	if limit > 0 && limit < len(sessions) {
		sessions = sessions[:limit]
	}
	return sessions, nil
}

// Get returns the session with the given id, or nil if unknown.
func (c *SessionCache) Get(id string) (*model.Session, error) {
	sessions, err := c.readIndex()
	if err != nil {
		return nil, err
	}
	for i := range sessions {
		if sessions[i].ID == id {
			return &sessions[i], nil
		}
	}
	return nil, nil
}

// Put inserts or updates a session in the index and enforces the retention
// cap: when the cap is exceeded, the least recently active sessions are
// evicted together with their history blobs.
func (c *SessionCache) Put(session model.Session) error {
	sessions, err := c.readIndex()
	if err != nil {
		return err
	}

	replaced := false
	for i := range sessions {
		if sessions[i].ID == session.ID {
			sessions[i] = session
			replaced = true
			break
		}
	}
	if !replaced {
		sessions = append(sessions, session)
	}

	sort.Slice(sessions, func(i, j int) bool {
		return sessions[i].LastActivityAt.After(sessions[j].LastActivityAt)
	})
	for len(sessions) > c.max {
		evicted := sessions[len(sessions)-1]
		sessions = sessions[:len(sessions)-1]
		if err := c.kv.Remove(historyKey(evicted.ID)); err != nil {
			return fmt.Errorf("failed to evict history for %s: %w", evicted.ID, err)
		}
	}

	return c.writeIndex(sessions)
}

// Remove deletes a session and its history blob.
func (c *SessionCache) Remove(id string) error {
	sessions, err := c.readIndex()
	if err != nil {
		return err
	}
	kept := sessions[:0]
	for _, s := range sessions {
		if s.ID != id {
			kept = append(kept, s)
		}
	}
	if err := c.writeIndex(kept); err != nil {
		return err
	}
	return c.kv.Remove(historyKey(id))
}

// RemoveAll purges the index and every per-session history entry. History
// blobs are discovered by prefix scan rather than from the index, so an
// orphaned blob whose index entry was lost is purged too.
func (c *SessionCache) RemoveAll() error {
	keys, err := c.kv.Keys(historyPrefix)
	if err != nil {
		return fmt.Errorf("failed to enumerate histories: %w", err)
	}
	for _, key := range keys {
		if err := c.kv.Remove(key); err != nil {
			return fmt.Errorf("failed to remove %q: %w", key, err)
		}
	}
	return c.kv.Remove(indexKey)
}

// Rename updates a session's display name.
func (c *SessionCache) Rename(id, name string) error {
	sessions, err := c.readIndex()
	if err != nil {
		return err
	}
	for i := range sessions {
		if sessions[i].ID == id {
			sessions[i].Name = name
			return c.writeIndex(sessions)
		}
	}
	return fmt.Errorf("session %s not found", id)
}

// SaveConversation persists the full conversation as the session's history
// blob and refreshes its metadata. The session id is the chatbot id: one
// active conversation per chatbot per device.
func (c *SessionCache) SaveConversation(conv *model.Conversation, name string) error {
	data, err := json.Marshal(conv)
	if err != nil {
		return fmt.Errorf("failed to encode conversation: %w", err)
	}
	if err := c.kv.Set(historyKey(conv.ChatbotID), data); err != nil {
		return fmt.Errorf("failed to write conversation: %w", err)
	}

	now := time.Now().UTC()
	session := model.Session{
		ID:             conv.ChatbotID,
		ChatbotID:      conv.ChatbotID,
		Name:           name,
		MessageCount:   conv.MessageCount(),
		CreatedAt:      now,
		LastActivityAt: now,
	}
	if existing, err := c.Get(conv.ChatbotID); err == nil && existing != nil {
		session.CreatedAt = existing.CreatedAt
		if name == "" {
			session.Name = existing.Name
		}
	}
	return c.Put(session)
}

// LoadConversation restores a persisted conversation, or returns nil when
// none is cached for the chatbot.
func (c *SessionCache) LoadConversation(chatbotID string) (*model.Conversation, error) {
	data, err := c.kv.Get(historyKey(chatbotID))
	if err != nil {
		return nil, fmt.Errorf("failed to read conversation: %w", err)
	}
	if data == nil {
		return nil, nil
	}
	var conv model.Conversation
	if err := json.Unmarshal(data, &conv); err != nil {
		return nil, fmt.Errorf("failed to decode conversation: %w", err)
	}
	return &conv, nil
}

// CleanupEmpty removes sessions whose conversations hold no user messages.
func (c *SessionCache) CleanupEmpty() (int, error) {
	sessions, err := c.readIndex()
	if err != nil {
		return 0, err
	}
	removed := 0
	for _, s := range sessions {
		conv, err := c.LoadConversation(s.ChatbotID)
		if err != nil {
			continue
		}
		if conv == nil || conv.LastUserText() == "" {
			if err := c.Remove(s.ID); err != nil {
				return removed, err
			}
			removed++
		}
	}
	return removed, nil
}

// RemoveOlderThan removes sessions with no activity since the cutoff.
func (c *SessionCache) RemoveOlderThan(age time.Duration) (int, error) {
	sessions, err := c.readIndex()
	if err != nil {
		return 0, err
	}
	cutoff := time.Now().UTC().Add(-age)
	removed := 0
	for _, s := range sessions {
		if s.LastActivityAt.Before(cutoff) {
			if err := c.Remove(s.ID); err != nil {
				return removed, err
			}
			removed++
		}
	}
	return removed, nil
}

// SaveCurrentChatbotID records the active chatbot so a restart lands on the
// same conversation.
func (c *SessionCache) SaveCurrentChatbotID(id string) error {
	return c.kv.Set(currentKey, []byte(id))
}

// LoadCurrentChatbotID returns the recorded active chatbot id, or "".
func (c *SessionCache) LoadCurrentChatbotID() (string, error) {
	data, err := c.kv.Get(currentKey)
	if err != nil {
		return "", err
	}
	return strings.TrimSpace(string(data)), nil
}

// GenerateSessionName derives a session name from the first user message.
func GenerateSessionName(firstMessage string) string {
	if firstMessage == "" {
		return fmt.Sprintf("Session %s", time.Now().Format("Jan 2, 3:04 PM"))
	}

	name := firstMessage
	if len(name) > 30 {
		name = name[:30] + "..."
	}
	name = strings.ReplaceAll(name, "\n", " ")
	name = strings.ReplaceAll(name, "\r", " ")
	name = strings.TrimSpace(name)

	if name == "" {
		return fmt.Sprintf("Session %s", time.Now().Format("Jan 2, 3:04 PM"))
	}
	return name
}
