package storage

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"chatui/model"
)

// sessionExport is the JSON export envelope.
type sessionExport struct {
	Session      model.Session       `json:"session"`
	Conversation *model.Conversation `json:"conversation"`
}

// ExportJSON writes a session and its full conversation as indented JSON.
func (c *SessionCache) ExportJSON(id, exportPath string) error {
	session, conv, err := c.loadForExport(id)
	if err != nil {
		return err
	}

	data, err := json.MarshalIndent(sessionExport{Session: *session, Conversation: conv}, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal session: %w", err)
	}
	return writeExport(exportPath, data)
}

// ExportMarkdown writes a session transcript as a markdown document.
func (c *SessionCache) ExportMarkdown(id, exportPath string) error {
	session, conv, err := c.loadForExport(id)
	if err != nil {
		return err
	}

	var sb strings.Builder
	fmt.Fprintf(&sb, "# Chat Session: %s\n\n", session.Name)
	fmt.Fprintf(&sb, "**Date**: %s\n", session.CreatedAt.Format("2006-01-02 15:04"))
	fmt.Fprintf(&sb, "**Chatbot**: %s\n\n---\n\n", session.ChatbotID)

	for _, item := range conv.Items {
		switch item.Kind {
		case model.ItemKindMessage:
			role := strings.ToUpper(string(item.Message.Role)[:1]) + string(item.Message.Role)[1:]
			fmt.Fprintf(&sb, "**%s**: %s\n\n", role, item.Message.Text())
		case model.ItemKindToolCall:
			call := item.ToolCall
			fmt.Fprintf(&sb, "**Tool** (%s, %s): `%s`\n\n", call.Name, call.Status, call.ArgumentsBuffer)
		}
	}
	return writeExport(exportPath, []byte(sb.String()))
}

func (c *SessionCache) loadForExport(id string) (*model.Session, *model.Conversation, error) {
	session, err := c.Get(id)
	if err != nil {
		return nil, nil, err
	}
	if session == nil {
		return nil, nil, fmt.Errorf("session %s not found", id)
	}
	conv, err := c.LoadConversation(session.ChatbotID)
	if err != nil {
		return nil, nil, err
	}
	if conv == nil {
		return nil, nil, fmt.Errorf("no history for session %s", id)
	}
	return session, conv, nil
}

func writeExport(exportPath string, data []byte) error {
	if err := os.MkdirAll(filepath.Dir(exportPath), 0700); err != nil {
		return fmt.Errorf("failed to create directory: %w", err)
	}
	// 0600 - exports contain conversation history.
	if err := os.WriteFile(exportPath, data, 0600); err != nil {
		return fmt.Errorf("failed to write file: %w", err)
	}
	return nil
}

// SanitizeFilename replaces characters that are invalid in filenames.
func SanitizeFilename(name string) string {
	for _, ch := range []string{"/", "\\", ":", "*", "?", "\"", "<", ">", "|", " ", "\n", "\r"} {
		name = strings.ReplaceAll(name, ch, "-")
	}
	name = strings.Trim(name, "-.")
	if len(name) > 50 {
		name = name[:50]
	}
	if name == "" {
		name = "session"
	}
	return name
}

// GenerateExportPath builds a default export path under ~/Downloads.
func GenerateExportPath(sessionName, format string) string {
	homeDir := os.Getenv("HOME")
	if homeDir == "" {
		homeDir = os.Getenv("USERPROFILE")
	}
	ext := "json"
	if format == "markdown" {
		ext = "md"
	}
	filename := fmt.Sprintf("chatui-session-%s-%s.%s",
		SanitizeFilename(sessionName), time.Now().Format("20060102-150405"), ext)
	return filepath.Join(homeDir, "Downloads", filename)
}
