package services

import (
	"strings"

	"github.com/taskmaster/assistant/internal/domain/entities"
	"github.com/taskmaster/assistant/internal/ports"
)

// DefaultHistoryWindow is how many past messages accompany a new one
const DefaultHistoryWindow = 5

// BackendKind selects the message layout of a chat protocol
type BackendKind int

const (
	BackendLocal BackendKind = iota
	BackendCloud
)

// ContextOptions tunes AssembleContext
type ContextOptions struct {
	Window       int
	SystemPrompt string
}

// AssembleContext builds the message list for one request: at most
// Window recent history entries, oldest first, then the new user
// message. The cloud layout starts with the system persona.
//
// Blank entries and roles other than user/assistant are dropped after
// the window is cut, so the result may hold fewer than Window entries.
func AssembleContext(history []*entities.ChatMessage, userMessage string, kind BackendKind, opts ContextOptions) []ports.Message {
	window := opts.Window
	if window <= 0 {
		window = DefaultHistoryWindow
	}

	recent := history
	if len(recent) > window {
		recent = recent[len(recent)-window:]
	}

	messages := make([]ports.Message, 0, len(recent)+2)
	if kind == BackendCloud {
		messages = append(messages, ports.Message{Role: entities.ChatRoleSystem, Content: opts.SystemPrompt})
	}

	for _, msg := range recent {
		if msg == nil || strings.TrimSpace(msg.Content) == "" {
			continue
		}
		if msg.Role != entities.ChatRoleUser && msg.Role != entities.ChatRoleAssistant {
			continue
		}
		messages = append(messages, ports.Message{Role: msg.Role, Content: msg.Content})
	}

	return append(messages, ports.Message{Role: entities.ChatRoleUser, Content: userMessage})
}
