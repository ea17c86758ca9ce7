package ports

import (
	"context"

	"github.com/taskmaster/assistant/internal/domain/entities"
)

// CloudBackend is the model name that selects the cloud chat-completion protocol.
const CloudBackend = "openai"

// Message is one {role, content} pair sent to a chat backend
type Message struct {
	Role    entities.ChatRole `json:"role"`
	Content string            `json:"content"`
}

// ChatBackend speaks one LLM wire protocol
type ChatBackend interface {
	Chat(ctx context.Context, model string, messages []Message) (string, error)
	Name() string
}

// CloudChatBackend is a backend that needs an API key
type CloudChatBackend interface {
	ChatBackend
	HasCredential() bool
	SetAPIKey(key string)
}

// LocalChatBackend is a self-hosted backend that can report its version
type LocalChatBackend interface {
	ChatBackend
	Ping(ctx context.Context) (string, error)
}

// LLMGateway interface for dispatching conversations to the selected backend
type LLMGateway interface {
	Respond(ctx context.Context, userMessage string, history []*entities.ChatMessage) Reply
	ChangeModel(model string) bool
	Model() string
	AvailableModels() []string
}

// Reply is what the gateway hands back to the shell. Text is always displayable;
// Err is set when Text explains a failure instead of carrying a model answer.
type Reply struct {
	Text    string `json:"text"`
	Backend string `json:"backend"`
	Err     error  `json:"-"`
}

// Failed reports whether the reply describes a failure
func (r Reply) Failed() bool {
	return r.Err != nil
}

// Request/Response Types

// Note related types
type CreateNoteRequest struct {
	Title   string `json:"title" validate:"max=500"`
	Content string `json:"content"`
}

type UpdateNoteRequest struct {
	Title   string `json:"title" validate:"max=500"`
	Content string `json:"content"`
}

// Task related types
type CreateTaskRequest struct {
	Text     string `json:"text" validate:"required"`
	Priority string `json:"priority" validate:"omitempty,oneof=High Medium Low high medium low"`
}

// Event related types
type CreateEventRequest struct {
	Title       string  `json:"title" validate:"required"`
	Description *string `json:"description"`
	Date        string  `json:"date" validate:"required,datetime=2006-01-02"`
	Time        *string `json:"time" validate:"omitempty,datetime=15:04"`
}

type UpdateEventRequest = CreateEventRequest

// Chat related types
type SendMessageRequest struct {
	Message string `json:"message" validate:"required"`
}

type ChangeModelRequest struct {
	Model string `json:"model" validate:"required"`
}

type ChatResponse struct {
	UserMessageID      int64  `json:"user_message_id"`
	AssistantMessageID int64  `json:"assistant_message_id"`
	Reply              string `json:"reply"`
	Backend            string `json:"backend"`
	Failed             bool   `json:"failed"`
}

// Pomodoro related types
type AddPomodoroSessionRequest struct {
	Duration int `json:"duration" validate:"gt=0"`
}

// Status related types
type StatusReport struct {
	CloudConfigured   bool     `json:"cloud_configured"`
	WeatherConfigured bool     `json:"weather_configured"`
	Model             string   `json:"model"`
	AvailableModels   []string `json:"available_models"`
	LocalReachable    bool     `json:"local_reachable"`
	LocalVersion      string   `json:"local_version,omitempty"`
	Issues            []string `json:"issues"`
}

// Common response types
type IDResponse struct {
	ID int64 `json:"id"`
}

type CountResponse struct {
	Count int64 `json:"count"`
}

type MessageResponse struct {
	Message string `json:"message"`
}
