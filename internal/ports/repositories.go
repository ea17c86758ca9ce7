package ports

import (
	"context"

	"github.com/taskmaster/assistant/internal/domain/entities"
)

// NoteRepository defines the interface for note data operations
type NoteRepository interface {
	Create(ctx context.Context, note *entities.Note) error
	GetByID(ctx context.Context, id int64) (*entities.Note, error)
	Update(ctx context.Context, note *entities.Note) error
	Delete(ctx context.Context, id int64) error
	List(ctx context.Context, filter NoteFilter) ([]*entities.Note, error)
}

// TaskRepository defines the interface for task data operations
type TaskRepository interface {
	Create(ctx context.Context, task *entities.Task) error
	GetByID(ctx context.Context, id int64) (*entities.Task, error)
	Toggle(ctx context.Context, id int64) error
	Delete(ctx context.Context, id int64) error
	List(ctx context.Context, filter entities.TaskFilter) ([]*entities.Task, error)
	DeleteCompleted(ctx context.Context) (int64, error)
	Stats(ctx context.Context) (*entities.TaskStats, error)
}

// EventRepository defines the interface for calendar event operations
type EventRepository interface {
	Create(ctx context.Context, event *entities.Event) error
	GetByID(ctx context.Context, id int64) (*entities.Event, error)
	Update(ctx context.Context, event *entities.Event) error
	Delete(ctx context.Context, id int64) error
	ListByDate(ctx context.Context, date string) ([]*entities.Event, error)
	List(ctx context.Context) ([]*entities.Event, error)
}

// ChatRepository defines the interface for chat history operations
type ChatRepository interface {
	Create(ctx context.Context, msg *entities.ChatMessage) error
	// History returns the newest limit messages in conversation order.
	// A limit <= 0 returns the whole history.
	History(ctx context.Context, limit int) ([]*entities.ChatMessage, error)
	Clear(ctx context.Context) (int64, error)
}

// PomodoroRepository defines the interface for pomodoro session operations
type PomodoroRepository interface {
	Create(ctx context.Context, session *entities.PomodoroSession) error
	Stats(ctx context.Context, recent int) (*entities.PomodoroStats, error)
	List(ctx context.Context) ([]*entities.PomodoroSession, error)
}

// RecordStore groups the repositories that share one relational store.
type RecordStore interface {
	Notes() NoteRepository
	Tasks() TaskRepository
	Events() EventRepository
	Chat() ChatRepository
	Pomodoro() PomodoroRepository

	// WithinTransaction runs fn against a store whose writes commit
	// together when fn returns nil and roll back otherwise.
	WithinTransaction(ctx context.Context, fn func(tx RecordStore) error) error
}

// Filter types for repository queries
type NoteFilter struct {
	Search *string
	Limit  int
}
