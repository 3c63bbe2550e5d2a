package storage

import (
	"strings"
	"time"

	"github.com/sahilm/fuzzy"

	"chatui/model"
)

// MessageMatch is one search hit inside a session's history.
type MessageMatch struct {
	SessionID   string
	SessionName string
	ItemIndex   int
	Role        model.Role
	Content     string
	Preview     string
	Timestamp   time.Time
	Score       int
}

// SearchMessages matches a query against one conversation's message items.
// Substring hits rank above fuzzy-only hits.
func SearchMessages(conv *model.Conversation, sessionID, sessionName, query string) []MessageMatch {
	if query == "" {
		return []MessageMatch{}
	}

	queryLower := strings.ToLower(query)
	var matches []MessageMatch
	for i, item := range conv.Items {
		if item.Kind != model.ItemKindMessage {
			continue
		}
		msg := item.Message
		if msg.Role == model.RoleSystem {
			continue
		}

		text := msg.Text()
		score := 0
		if strings.Contains(strings.ToLower(text), queryLower) {
			score = len(query) * 2
		} else if res := fuzzy.Find(query, []string{text}); len(res) > 0 {
			score = res[0].Score
		} else {
			continue
		}

		preview := text
		if len(preview) > 100 {
			preview = preview[:100] + "..."
		}
		matches = append(matches, MessageMatch{
			SessionID:   sessionID,
			SessionName: sessionName,
			ItemIndex:   i,
			Role:        msg.Role,
			Content:     text,
			Preview:     preview,
			Timestamp:   msg.CreatedAt,
			Score:       score,
		})
	}
	return matches
}

// SearchAllSessions runs SearchMessages across every cached session.
func (c *SessionCache) SearchAllSessions(query string) ([]MessageMatch, error) {
	if query == "" {
		return []MessageMatch{}, nil
	}

	sessions, err := c.List(0, 0)
	if err != nil {
		return nil, err
	}

	var matches []MessageMatch
	for _, session := range sessions {
		conv, err := c.LoadConversation(session.ChatbotID)
		if err != nil || conv == nil {
			continue
		}
		matches = append(matches, SearchMessages(conv, session.ID, session.Name, query)...)
	}
	return matches, nil
}
