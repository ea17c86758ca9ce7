package repository

import (
	"context"
	"sync"

	"github.com/jmoiron/sqlx"

	"github.com/taskmaster/assistant/internal/domain/entities"
	"github.com/taskmaster/assistant/internal/ports"
)

const sessionColumns = `id, session_date, session_time, duration_seconds, created_at`

// PomodoroRepositoryImpl implements the PomodoroRepository interface
type PomodoroRepositoryImpl struct {
	db sqlx.ExtContext
	mu *sync.RWMutex
}

// NewPomodoroRepository creates a new pomodoro repository
func NewPomodoroRepository(db *sqlx.DB) ports.PomodoroRepository {
	return &PomodoroRepositoryImpl{db: db, mu: &sync.RWMutex{}}
}

func (r *PomodoroRepositoryImpl) Create(ctx context.Context, session *entities.PomodoroSession) error {
	query := `
		INSERT INTO pomodoro_sessions (session_date, session_time, duration_seconds, created_at)
		VALUES (?, ?, ?, ?)`

	r.mu.Lock()
	defer r.mu.Unlock()

	id, err := insertReturningID(ctx, r.db, query,
		session.Date, session.Time, session.DurationSeconds, session.CreatedAt.UTC())
	if err != nil {
		return entities.NewStorageError("create pomodoro session", err)
	}

	session.ID = id
	return nil
}

// Stats aggregates all sessions and returns the newest recent ones, newest first
func (r *PomodoroRepositoryImpl) Stats(ctx context.Context, recent int) (*entities.PomodoroStats, error) {
	totals := `
		SELECT COUNT(*) AS completed, COALESCE(SUM(duration_seconds), 0) AS total
		FROM pomodoro_sessions`

	r.mu.RLock()
	defer r.mu.RUnlock()

	var row struct {
		Completed int `db:"completed"`
		Total     int `db:"total"`
	}
	if err := sqlx.GetContext(ctx, r.db, &row, totals); err != nil {
		return nil, entities.NewStorageError("pomodoro stats", err)
	}

	stats := &entities.PomodoroStats{
		CompletedCount: row.Completed,
		TotalDuration:  row.Total,
		RecentSessions: []*entities.PomodoroSession{},
	}

	if recent > 0 {
		query := `SELECT ` + sessionColumns + ` FROM pomodoro_sessions
			ORDER BY created_at DESC, id DESC
			LIMIT ?`
		if err := sqlx.SelectContext(ctx, r.db, &stats.RecentSessions, r.db.Rebind(query), recent); err != nil {
			return nil, entities.NewStorageError("recent pomodoro sessions", err)
		}
	}

	return stats, nil
}

func (r *PomodoroRepositoryImpl) List(ctx context.Context) ([]*entities.PomodoroSession, error) {
	query := `SELECT ` + sessionColumns + ` FROM pomodoro_sessions ORDER BY created_at ASC, id ASC`

	r.mu.RLock()
	defer r.mu.RUnlock()

	sessions := []*entities.PomodoroSession{}
	if err := sqlx.SelectContext(ctx, r.db, &sessions, query); err != nil {
		return nil, entities.NewStorageError("list pomodoro sessions", err)
	}

	return sessions, nil
}
