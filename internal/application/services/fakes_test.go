package services

import (
	"context"
	"slices"
	"sync"

	"github.com/taskmaster/assistant/internal/domain/entities"
	"github.com/taskmaster/assistant/internal/ports"
)

// fakeBackend records every request and answers with a canned reply
type fakeBackend struct {
	name    string
	reply   string
	err     error
	version string

	mu     sync.Mutex
	apiKey string
	calls  []fakeCall
}

type fakeCall struct {
	model    string
	messages []ports.Message
}

func (b *fakeBackend) Name() string { return b.name }

func (b *fakeBackend) Chat(ctx context.Context, model string, messages []ports.Message) (string, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.calls = append(b.calls, fakeCall{model: model, messages: slices.Clone(messages)})
	if b.err != nil {
		return "", b.err
	}
	return b.reply, nil
}

func (b *fakeBackend) Ping(ctx context.Context) (string, error) {
	if b.err != nil {
		return "", b.err
	}
	return b.version, nil
}

func (b *fakeBackend) HasCredential() bool {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.apiKey != ""
}

func (b *fakeBackend) SetAPIKey(key string) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.apiKey = key
}

func (b *fakeBackend) Calls() []fakeCall {
	b.mu.Lock()
	defer b.mu.Unlock()
	return slices.Clone(b.calls)
}

// memoryChatRepo keeps the conversation in a slice
type memoryChatRepo struct {
	mu        sync.Mutex
	messages  []*entities.ChatMessage
	createErr error
}

func (r *memoryChatRepo) Create(ctx context.Context, msg *entities.ChatMessage) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.createErr != nil {
		return r.createErr
	}
	msg.ID = int64(len(r.messages) + 1)
	copied := *msg
	r.messages = append(r.messages, &copied)
	return nil
}

func (r *memoryChatRepo) History(ctx context.Context, limit int) ([]*entities.ChatMessage, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	msgs := r.messages
	if limit > 0 && len(msgs) > limit {
		msgs = msgs[len(msgs)-limit:]
	}
	return slices.Clone(msgs), nil
}

func (r *memoryChatRepo) Clear(ctx context.Context) (int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	n := int64(len(r.messages))
	r.messages = nil
	return n, nil
}

func (r *memoryChatRepo) All() []*entities.ChatMessage {
	r.mu.Lock()
	defer r.mu.Unlock()
	return slices.Clone(r.messages)
}

// stubGateway replies without a backend and remembers the history it saw
type stubGateway struct {
	reply ports.Reply

	mu       sync.Mutex
	received [][]*entities.ChatMessage
	release  chan struct{}
}

func (g *stubGateway) Respond(ctx context.Context, userMessage string, history []*entities.ChatMessage) ports.Reply {
	if g.release != nil {
		<-g.release
	}
	g.mu.Lock()
	g.received = append(g.received, history)
	g.mu.Unlock()
	return g.reply
}

func (g *stubGateway) ChangeModel(model string) bool { return true }
func (g *stubGateway) Model() string                 { return "stub" }
func (g *stubGateway) AvailableModels() []string     { return []string{"stub"} }
