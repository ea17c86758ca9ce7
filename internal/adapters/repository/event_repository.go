package repository

import (
	"context"
	"database/sql"
	"errors"
	"sync"

	"github.com/jmoiron/sqlx"

	"github.com/taskmaster/assistant/internal/domain/entities"
	"github.com/taskmaster/assistant/internal/ports"
)

const eventColumns = `id, title, description, event_date, event_time, created_at, modified_at`

// Timed events by clock, untimed ones after them
const eventTimeOrder = `
	CASE WHEN event_time IS NULL OR event_time = '' THEN 1 ELSE 0 END ASC,
	event_time ASC, id ASC`

// EventRepositoryImpl implements the EventRepository interface
type EventRepositoryImpl struct {
	db sqlx.ExtContext
	mu *sync.RWMutex
}

// NewEventRepository creates a new event repository
func NewEventRepository(db *sqlx.DB) ports.EventRepository {
	return &EventRepositoryImpl{db: db, mu: &sync.RWMutex{}}
}

func (r *EventRepositoryImpl) Create(ctx context.Context, event *entities.Event) error {
	query := `
		INSERT INTO events (title, description, event_date, event_time, created_at, modified_at)
		VALUES (?, ?, ?, ?, ?, ?)`

	r.mu.Lock()
	defer r.mu.Unlock()

	id, err := insertReturningID(ctx, r.db, query,
		event.Title, event.Description, event.Date, event.Time, event.CreatedAt.UTC(), utcPtr(event.ModifiedAt))
	if err != nil {
		return entities.NewStorageError("create event", err)
	}

	event.ID = id
	return nil
}

func (r *EventRepositoryImpl) GetByID(ctx context.Context, id int64) (*entities.Event, error) {
	query := `SELECT ` + eventColumns + ` FROM events WHERE id = ?`

	r.mu.RLock()
	defer r.mu.RUnlock()

	var event entities.Event
	err := sqlx.GetContext(ctx, r.db, &event, r.db.Rebind(query), id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, entities.ErrEventNotFound
		}
		return nil, entities.NewStorageError("get event by id", err)
	}

	return &event, nil
}

func (r *EventRepositoryImpl) Update(ctx context.Context, event *entities.Event) error {
	query := `
		UPDATE events
		SET title = ?, description = ?, event_date = ?, event_time = ?, modified_at = ?
		WHERE id = ?`

	r.mu.Lock()
	defer r.mu.Unlock()

	rowsAffected, err := execAffected(ctx, r.db, query,
		event.Title, event.Description, event.Date, event.Time, utcPtr(event.ModifiedAt), event.ID)
	if err != nil {
		return entities.NewStorageError("update event", err)
	}

	if rowsAffected == 0 {
		return entities.ErrEventNotFound
	}

	return nil
}

func (r *EventRepositoryImpl) Delete(ctx context.Context, id int64) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	rowsAffected, err := execAffected(ctx, r.db, `DELETE FROM events WHERE id = ?`, id)
	if err != nil {
		return entities.NewStorageError("delete event", err)
	}

	if rowsAffected == 0 {
		return entities.ErrEventNotFound
	}

	return nil
}

func (r *EventRepositoryImpl) ListByDate(ctx context.Context, date string) ([]*entities.Event, error) {
	query := `SELECT ` + eventColumns + ` FROM events WHERE event_date = ? ORDER BY` + eventTimeOrder

	r.mu.RLock()
	defer r.mu.RUnlock()

	events := []*entities.Event{}
	if err := sqlx.SelectContext(ctx, r.db, &events, r.db.Rebind(query), date); err != nil {
		return nil, entities.NewStorageError("list events by date", err)
	}

	return events, nil
}

func (r *EventRepositoryImpl) List(ctx context.Context) ([]*entities.Event, error) {
	query := `SELECT ` + eventColumns + ` FROM events ORDER BY event_date ASC,` + eventTimeOrder

	r.mu.RLock()
	defer r.mu.RUnlock()

	events := []*entities.Event{}
	if err := sqlx.SelectContext(ctx, r.db, &events, query); err != nil {
		return nil, entities.NewStorageError("list events", err)
	}

	return events, nil
}
