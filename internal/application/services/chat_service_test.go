package services

import (
	"context"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"

	"github.com/taskmaster/assistant/internal/domain/entities"
	"github.com/taskmaster/assistant/internal/infrastructure/logger"
	"github.com/taskmaster/assistant/internal/ports"
)

func TestChatSendPersistsBothSides(t *testing.T) {
	defer goleak.VerifyNone(t)

	repo := &memoryChatRepo{}
	gw := &stubGateway{reply: ports.Reply{Text: "Здравей! С какво да помогна?", Backend: "ollama"}}
	svc := NewChatService(repo, gw, 5, logger.NewNop())

	results := svc.Send(context.Background(), "  Здравей  ")
	result, ok := <-results
	require.True(t, ok)
	require.NoError(t, result.Err)

	_, open := <-results
	assert.False(t, open, "channel is closed after the single result")

	assert.Equal(t, "Здравей", result.UserMessage.Content)
	assert.Equal(t, "Здравей! С какво да помогна?", result.AssistantMessage.Content)
	assert.False(t, result.Reply.Failed())

	all := repo.All()
	require.Len(t, all, 2)
	assert.Equal(t, entities.ChatRoleUser, all[0].Role)
	assert.Equal(t, entities.ChatRoleAssistant, all[1].Role)
}

func TestChatSendWindowExcludesNewMessage(t *testing.T) {
	defer goleak.VerifyNone(t)

	repo := &memoryChatRepo{}
	for _, msg := range chatHistory(7) {
		require.NoError(t, repo.Create(context.Background(), msg))
	}
	gw := &stubGateway{reply: ports.Reply{Text: "ok"}}
	svc := NewChatService(repo, gw, 5, logger.NewNop())

	svc.SendAndWait(context.Background(), "latest")

	require.Len(t, gw.received, 1)
	seen := gw.received[0]
	require.Len(t, seen, 5)
	assert.Equal(t, "m2", seen[0].Content)
	assert.Equal(t, "m6", seen[4].Content)
}

func TestChatSendEmptyMessage(t *testing.T) {
	defer goleak.VerifyNone(t)

	repo := &memoryChatRepo{}
	svc := NewChatService(repo, &stubGateway{}, 5, logger.NewNop())

	result := svc.SendAndWait(context.Background(), "   ")
	assert.ErrorIs(t, result.Err, entities.ErrInvalidInput)
	assert.Nil(t, result.UserMessage)
	assert.Empty(t, repo.All())
}

func TestChatSendStoresFailureText(t *testing.T) {
	defer goleak.VerifyNone(t)

	repo := &memoryChatRepo{}
	gw := &stubGateway{reply: ports.Reply{
		Text:    "OpenAI API ключ не е намерен. Моля, добавете го в настройките.",
		Backend: "openai",
		Err:     entities.ErrMissingCredential,
	}}
	svc := NewChatService(repo, gw, 5, logger.NewNop())

	result := svc.SendAndWait(context.Background(), "hi")
	assert.NoError(t, result.Err)
	assert.True(t, result.Reply.Failed())

	all := repo.All()
	require.Len(t, all, 2)
	assert.Equal(t, gw.reply.Text, all[1].Content)
}

func TestChatSendDoesNotBlockCaller(t *testing.T) {
	defer goleak.VerifyNone(t)

	repo := &memoryChatRepo{}
	gw := &stubGateway{reply: ports.Reply{Text: "late"}, release: make(chan struct{})}
	svc := NewChatService(repo, gw, 5, logger.NewNop())

	results := make([]<-chan ChatResult, 0, 3)
	for i := 0; i < 3; i++ {
		results = append(results, svc.Send(context.Background(), fmt.Sprintf("q%d", i)))
	}

	// All user messages are stored before any reply arrives
	assert.Len(t, repo.All(), 3)

	close(gw.release)
	for _, ch := range results {
		result := <-ch
		assert.Equal(t, "late", result.Reply.Text)
	}
	svc.Wait()

	assert.Len(t, repo.All(), 6)
}

func TestChatSendReportsStorageFailure(t *testing.T) {
	defer goleak.VerifyNone(t)

	repo := &memoryChatRepo{createErr: &entities.StorageError{Op: "create chat message", Err: assert.AnError}}
	svc := NewChatService(repo, &stubGateway{reply: ports.Reply{Text: "still answered"}}, 5, logger.NewNop())

	result := svc.SendAndWait(context.Background(), "hi")
	assert.True(t, entities.IsStorageError(result.Err))
	assert.Equal(t, "still answered", result.Reply.Text)
}

func TestChatHistoryAndClear(t *testing.T) {
	repo := &memoryChatRepo{}
	for _, msg := range chatHistory(4) {
		require.NoError(t, repo.Create(context.Background(), msg))
	}
	svc := NewChatService(repo, &stubGateway{}, 5, logger.NewNop())

	history, err := svc.History(context.Background(), 2)
	require.NoError(t, err)
	require.Len(t, history, 2)
	assert.Equal(t, "m3", history[1].Content)

	cleared, err := svc.Clear(context.Background())
	require.NoError(t, err)
	assert.Equal(t, int64(4), cleared)
}

func TestChatAddMessage(t *testing.T) {
	repo := &memoryChatRepo{}
	svc := NewChatService(repo, &stubGateway{}, 5, logger.NewNop())

	id, err := svc.AddMessage(context.Background(), "System", "Ти си асистент")
	require.NoError(t, err)
	assert.Equal(t, int64(1), id)
	assert.Equal(t, entities.ChatRoleSystem, repo.All()[0].Role)

	_, err = svc.AddMessage(context.Background(), "robot", "beep")
	assert.ErrorIs(t, err, entities.ErrInvalidRole)
}
