package services

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/taskmaster/assistant/internal/domain/entities"
	"github.com/taskmaster/assistant/internal/infrastructure/logger"
	"github.com/taskmaster/assistant/internal/ports"
)

// ChatResult is delivered once per Send
type ChatResult struct {
	UserMessage      *entities.ChatMessage
	AssistantMessage *entities.ChatMessage
	Reply            ports.Reply
	// Err reports invalid input or a failure to persist either message.
	// The reply is still delivered when only persistence failed.
	Err error
}

// ChatService runs the conversation: it persists both sides and keeps
// the gateway call off the caller's goroutine.
type ChatService struct {
	chatRepo ports.ChatRepository
	gateway  ports.LLMGateway
	window   int
	logger   *logger.Logger
	now      func() time.Time

	inflight sync.WaitGroup
}

// NewChatService creates a new chat service; window is the number of past
// messages sent along with each request.
func NewChatService(chatRepo ports.ChatRepository, gateway ports.LLMGateway, window int, logger *logger.Logger) *ChatService {
	if window <= 0 {
		window = DefaultHistoryWindow
	}
	return &ChatService{
		chatRepo: chatRepo,
		gateway:  gateway,
		window:   window,
		logger:   logger.WithComponent("chat"),
		now:      time.Now,
	}
}

// Send stores the user message and asks the gateway for a reply on a new
// goroutine. The returned channel yields exactly one result and is then closed.
func (s *ChatService) Send(ctx context.Context, text string) <-chan ChatResult {
	results := make(chan ChatResult, 1)

	text = strings.TrimSpace(text)
	if text == "" {
		results <- ChatResult{Err: fmt.Errorf("%w: message is empty", entities.ErrInvalidInput)}
		close(results)
		return results
	}

	// The window is read before the new message is stored so it is not sent twice
	history, err := s.chatRepo.History(ctx, s.window)
	if err != nil {
		s.logger.Errorw("Failed to load chat history", "error", err)
		history = nil
	}

	userMsg := &entities.ChatMessage{Role: entities.ChatRoleUser, Content: text, CreatedAt: s.now()}
	storeErr := s.chatRepo.Create(ctx, userMsg)
	if storeErr != nil {
		s.logger.Errorw("Failed to save user message", "error", storeErr)
		storeErr = fmt.Errorf("failed to save user message: %w", storeErr)
	}

	s.inflight.Add(1)
	go func() {
		defer s.inflight.Done()
		defer close(results)

		reply := s.gateway.Respond(ctx, text, history)

		// The reply is kept even when the caller has gone away
		assistantMsg := &entities.ChatMessage{Role: entities.ChatRoleAssistant, Content: reply.Text, CreatedAt: s.now()}
		if err := s.chatRepo.Create(context.WithoutCancel(ctx), assistantMsg); err != nil {
			s.logger.Errorw("Failed to save assistant message", "error", err)
			if storeErr == nil {
				storeErr = fmt.Errorf("failed to save assistant message: %w", err)
			}
		}

		results <- ChatResult{
			UserMessage:      userMsg,
			AssistantMessage: assistantMsg,
			Reply:            reply,
			Err:              storeErr,
		}
	}()

	return results
}

// SendAndWait is Send for callers that want to block
func (s *ChatService) SendAndWait(ctx context.Context, text string) ChatResult {
	return <-s.Send(ctx, text)
}

// Wait blocks until every in-flight Send has delivered its result
func (s *ChatService) Wait() {
	s.inflight.Wait()
}

// AddMessage stores one message as is, without asking the model
func (s *ChatService) AddMessage(ctx context.Context, role, content string) (int64, error) {
	r, err := entities.ParseChatRole(role)
	if err != nil {
		return 0, err
	}

	msg := &entities.ChatMessage{Role: r, Content: content, CreatedAt: s.now()}
	if err := s.chatRepo.Create(ctx, msg); err != nil {
		s.logger.Errorw("Failed to save chat message", "role", r, "error", err)
		return 0, fmt.Errorf("failed to save chat message: %w", err)
	}
	return msg.ID, nil
}

// History returns the newest limit messages in conversation order; limit <= 0 means all
func (s *ChatService) History(ctx context.Context, limit int) ([]*entities.ChatMessage, error) {
	messages, err := s.chatRepo.History(ctx, limit)
	if err != nil {
		s.logger.Errorw("Failed to load chat history", "error", err)
		return []*entities.ChatMessage{}, fmt.Errorf("failed to load chat history: %w", err)
	}
	return messages, nil
}

// Clear deletes the whole conversation
func (s *ChatService) Clear(ctx context.Context) (int64, error) {
	count, err := s.chatRepo.Clear(ctx)
	if err != nil {
		s.logger.Errorw("Failed to clear chat history", "error", err)
		return 0, fmt.Errorf("failed to clear chat history: %w", err)
	}

	s.logger.Infow("Chat history cleared", "count", count)
	return count, nil
}
