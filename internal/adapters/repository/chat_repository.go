package repository

import (
	"context"
	"slices"
	"sync"

	"github.com/jmoiron/sqlx"

	"github.com/taskmaster/assistant/internal/domain/entities"
	"github.com/taskmaster/assistant/internal/ports"
)

// ChatRepositoryImpl implements the ChatRepository interface
type ChatRepositoryImpl struct {
	db sqlx.ExtContext
	mu *sync.RWMutex
}

// NewChatRepository creates a new chat repository
func NewChatRepository(db *sqlx.DB) ports.ChatRepository {
	return &ChatRepositoryImpl{db: db, mu: &sync.RWMutex{}}
}

func (r *ChatRepositoryImpl) Create(ctx context.Context, msg *entities.ChatMessage) error {
	query := `INSERT INTO chat_messages (role, content, created_at) VALUES (?, ?, ?)`

	r.mu.Lock()
	defer r.mu.Unlock()

	id, err := insertReturningID(ctx, r.db, query, string(msg.Role), msg.Content, msg.CreatedAt.UTC())
	if err != nil {
		return entities.NewStorageError("create chat message", err)
	}

	msg.ID = id
	return nil
}

func (r *ChatRepositoryImpl) History(ctx context.Context, limit int) ([]*entities.ChatMessage, error) {
	query := `
		SELECT id, role, content, created_at
		FROM chat_messages
		ORDER BY created_at ASC, id ASC`
	var args []interface{}

	// Newest window first, flipped below
	if limit > 0 {
		query = `
			SELECT id, role, content, created_at
			FROM chat_messages
			ORDER BY created_at DESC, id DESC
			LIMIT ?`
		args = append(args, limit)
	}

	r.mu.RLock()
	defer r.mu.RUnlock()

	messages := []*entities.ChatMessage{}
	if err := sqlx.SelectContext(ctx, r.db, &messages, r.db.Rebind(query), args...); err != nil {
		return nil, entities.NewStorageError("chat history", err)
	}

	if limit > 0 {
		slices.Reverse(messages)
	}

	return messages, nil
}

func (r *ChatRepositoryImpl) Clear(ctx context.Context) (int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	rowsAffected, err := execAffected(ctx, r.db, `DELETE FROM chat_messages`)
	if err != nil {
		return 0, entities.NewStorageError("clear chat history", err)
	}

	return rowsAffected, nil
}
