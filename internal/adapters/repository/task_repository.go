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

const taskColumns = `id, text, completed, priority, created_at`

// Active first, then High > Medium > Low, then oldest first
const taskOrder = `
	ORDER BY completed ASC,
		CASE priority WHEN 'High' THEN 0 WHEN 'Medium' THEN 1 WHEN 'Low' THEN 2 ELSE 3 END ASC,
		created_at ASC, id ASC`

// TaskRepositoryImpl implements the TaskRepository interface
type TaskRepositoryImpl struct {
	db sqlx.ExtContext
	mu *sync.RWMutex
}

// NewTaskRepository creates a new task repository
func NewTaskRepository(db *sqlx.DB) ports.TaskRepository {
	return &TaskRepositoryImpl{db: db, mu: &sync.RWMutex{}}
}

func (r *TaskRepositoryImpl) Create(ctx context.Context, task *entities.Task) error {
	query := `
		INSERT INTO tasks (text, completed, priority, created_at)
		VALUES (?, ?, ?, ?)`

	r.mu.Lock()
	defer r.mu.Unlock()

	id, err := insertReturningID(ctx, r.db, query, task.Text, task.Completed, string(task.Priority), task.CreatedAt.UTC())
	if err != nil {
		return entities.NewStorageError("create task", err)
	}

	task.ID = id
	return nil
}

func (r *TaskRepositoryImpl) GetByID(ctx context.Context, id int64) (*entities.Task, error) {
	query := `SELECT ` + taskColumns + ` FROM tasks WHERE id = ?`

	r.mu.RLock()
	defer r.mu.RUnlock()

	var task entities.Task
	err := sqlx.GetContext(ctx, r.db, &task, r.db.Rebind(query), id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, entities.ErrTaskNotFound
		}
		return nil, entities.NewStorageError("get task by id", err)
	}

	return &task, nil
}

// Toggle flips completion in a single statement
func (r *TaskRepositoryImpl) Toggle(ctx context.Context, id int64) error {
	query := `UPDATE tasks SET completed = NOT completed WHERE id = ?`

	r.mu.Lock()
	defer r.mu.Unlock()

	rowsAffected, err := execAffected(ctx, r.db, query, id)
	if err != nil {
		return entities.NewStorageError("toggle task", err)
	}

	if rowsAffected == 0 {
		return entities.ErrTaskNotFound
	}

	return nil
}

func (r *TaskRepositoryImpl) Delete(ctx context.Context, id int64) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	rowsAffected, err := execAffected(ctx, r.db, `DELETE FROM tasks WHERE id = ?`, id)
	if err != nil {
		return entities.NewStorageError("delete task", err)
	}

	if rowsAffected == 0 {
		return entities.ErrTaskNotFound
	}

	return nil
}

func (r *TaskRepositoryImpl) List(ctx context.Context, filter entities.TaskFilter) ([]*entities.Task, error) {
	query := `SELECT ` + taskColumns + ` FROM tasks`
	var args []interface{}

	switch filter {
	case entities.TaskFilterAll, "":
	case entities.TaskFilterActive:
		query += ` WHERE completed = ?`
		args = append(args, false)
	case entities.TaskFilterCompleted:
		query += ` WHERE completed = ?`
		args = append(args, true)
	default:
		return nil, entities.ErrInvalidTaskFilter
	}
	query += taskOrder

	r.mu.RLock()
	defer r.mu.RUnlock()

	tasks := []*entities.Task{}
	if err := sqlx.SelectContext(ctx, r.db, &tasks, r.db.Rebind(query), args...); err != nil {
		return nil, entities.NewStorageError("list tasks", err)
	}

	return tasks, nil
}

func (r *TaskRepositoryImpl) DeleteCompleted(ctx context.Context) (int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	rowsAffected, err := execAffected(ctx, r.db, `DELETE FROM tasks WHERE completed = ?`, true)
	if err != nil {
		return 0, entities.NewStorageError("delete completed tasks", err)
	}

	return rowsAffected, nil
}

func (r *TaskRepositoryImpl) Stats(ctx context.Context) (*entities.TaskStats, error) {
	query := `
		SELECT
			COALESCE(SUM(CASE WHEN completed THEN 0 ELSE 1 END), 0) AS active,
			COALESCE(SUM(CASE WHEN completed THEN 1 ELSE 0 END), 0) AS completed
		FROM tasks`

	r.mu.RLock()
	defer r.mu.RUnlock()

	var stats entities.TaskStats
	if err := sqlx.GetContext(ctx, r.db, &stats, query); err != nil {
		return nil, entities.NewStorageError("task stats", err)
	}

	return &stats, nil
}
