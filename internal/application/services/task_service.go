package services

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/taskmaster/assistant/internal/domain/entities"
	"github.com/taskmaster/assistant/internal/infrastructure/logger"
	"github.com/taskmaster/assistant/internal/infrastructure/metrics"
	"github.com/taskmaster/assistant/internal/ports"
)

// TaskService handles todo operations
type TaskService struct {
	taskRepo ports.TaskRepository
	logger   *logger.Logger
	metrics  *metrics.Metrics
	now      func() time.Time
}

// NewTaskService creates a new task service
func NewTaskService(taskRepo ports.TaskRepository, logger *logger.Logger, m *metrics.Metrics) *TaskService {
	return &TaskService{
		taskRepo: taskRepo,
		logger:   logger.WithComponent("tasks"),
		metrics:  m,
		now:      time.Now,
	}
}

// AddTask creates an active task. An empty priority means Medium.
func (s *TaskService) AddTask(ctx context.Context, text, priority string) (int64, error) {
	text = strings.TrimSpace(text)
	if text == "" {
		return 0, fmt.Errorf("%w: task text is required", entities.ErrInvalidInput)
	}

	p, err := entities.ParsePriority(priority)
	if err != nil {
		return 0, err
	}

	task := &entities.Task{
		Text:      text,
		Priority:  p,
		CreatedAt: s.now(),
	}

	err = s.taskRepo.Create(ctx, task)
	s.metrics.ObserveStore("task", "create", err)
	if err != nil {
		s.logger.Errorw("Failed to add task", "error", err)
		return 0, fmt.Errorf("failed to add task: %w", err)
	}

	s.logger.Infow("Task added", "task_id", task.ID, "priority", task.Priority)
	return task.ID, nil
}

// ToggleTask flips completion; false when the task does not exist
func (s *TaskService) ToggleTask(ctx context.Context, id int64) (bool, error) {
	err := s.taskRepo.Toggle(ctx, id)
	s.metrics.ObserveStore("task", "toggle", err)
	if errors.Is(err, entities.ErrTaskNotFound) {
		return false, nil
	}
	if err != nil {
		s.logger.Errorw("Failed to toggle task", "task_id", id, "error", err)
		return false, fmt.Errorf("failed to toggle task: %w", err)
	}

	return true, nil
}

// GetTasks lists tasks: active first, then by priority, then oldest first
func (s *TaskService) GetTasks(ctx context.Context, filter entities.TaskFilter) ([]*entities.Task, error) {
	if filter == "" {
		filter = entities.TaskFilterAll
	}
	if !filter.IsValid() {
		return []*entities.Task{}, fmt.Errorf("%w: %q", entities.ErrInvalidTaskFilter, filter)
	}

	tasks, err := s.taskRepo.List(ctx, filter)
	s.metrics.ObserveStore("task", "list", err)
	if err != nil {
		s.logger.Errorw("Failed to list tasks", "filter", filter, "error", err)
		return []*entities.Task{}, fmt.Errorf("failed to list tasks: %w", err)
	}

	return tasks, nil
}

// DeleteTask removes a task; false when it did not exist
func (s *TaskService) DeleteTask(ctx context.Context, id int64) (bool, error) {
	err := s.taskRepo.Delete(ctx, id)
	s.metrics.ObserveStore("task", "delete", err)
	if errors.Is(err, entities.ErrTaskNotFound) {
		return false, nil
	}
	if err != nil {
		s.logger.Errorw("Failed to delete task", "task_id", id, "error", err)
		return false, fmt.Errorf("failed to delete task: %w", err)
	}

	return true, nil
}

// ClearCompletedTasks deletes every completed task and returns how many went
func (s *TaskService) ClearCompletedTasks(ctx context.Context) (int64, error) {
	count, err := s.taskRepo.DeleteCompleted(ctx)
	s.metrics.ObserveStore("task", "clear_completed", err)
	if err != nil {
		s.logger.Errorw("Failed to clear completed tasks", "error", err)
		return 0, fmt.Errorf("failed to clear completed tasks: %w", err)
	}

	s.logger.Infow("Completed tasks cleared", "count", count)
	return count, nil
}

// TaskStats counts active and completed tasks
func (s *TaskService) TaskStats(ctx context.Context) (*entities.TaskStats, error) {
	stats, err := s.taskRepo.Stats(ctx)
	s.metrics.ObserveStore("task", "stats", err)
	if err != nil {
		return &entities.TaskStats{}, fmt.Errorf("failed to count tasks: %w", err)
	}
	return stats, nil
}
