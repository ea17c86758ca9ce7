package services

import (
	"context"
	"fmt"
	"time"

	"github.com/taskmaster/assistant/internal/domain/entities"
	"github.com/taskmaster/assistant/internal/infrastructure/logger"
	"github.com/taskmaster/assistant/internal/infrastructure/metrics"
	"github.com/taskmaster/assistant/internal/ports"
)

// RecentSessionLimit bounds PomodoroStats.RecentSessions
const RecentSessionLimit = 10

// PomodoroService records focus sessions
type PomodoroService struct {
	pomodoroRepo ports.PomodoroRepository
	logger       *logger.Logger
	metrics      *metrics.Metrics
	now          func() time.Time
}

// NewPomodoroService creates a new pomodoro service
func NewPomodoroService(pomodoroRepo ports.PomodoroRepository, logger *logger.Logger, m *metrics.Metrics) *PomodoroService {
	return &PomodoroService{
		pomodoroRepo: pomodoroRepo,
		logger:       logger.WithComponent("pomodoro"),
		metrics:      m,
		now:          time.Now,
	}
}

// AddSession records a finished session of durationSeconds, stamped now
func (s *PomodoroService) AddSession(ctx context.Context, durationSeconds int) (int64, error) {
	if durationSeconds <= 0 {
		return 0, fmt.Errorf("%w: duration must be positive", entities.ErrInvalidInput)
	}

	now := s.now()
	session := &entities.PomodoroSession{
		Date:            now.Format(entities.DateLayout),
		Time:            now.Format(entities.SessionTimeLayout),
		DurationSeconds: durationSeconds,
		CreatedAt:       now,
	}

	err := s.pomodoroRepo.Create(ctx, session)
	s.metrics.ObserveStore("pomodoro", "create", err)
	if err != nil {
		s.logger.Errorw("Failed to record pomodoro session", "error", err)
		return 0, fmt.Errorf("failed to add pomodoro session: %w", err)
	}

	s.logger.Infow("Pomodoro session recorded", "session_id", session.ID, "duration", durationSeconds)
	return session.ID, nil
}

// Stats returns totals plus the newest sessions, newest first
func (s *PomodoroService) Stats(ctx context.Context) (*entities.PomodoroStats, error) {
	stats, err := s.pomodoroRepo.Stats(ctx, RecentSessionLimit)
	s.metrics.ObserveStore("pomodoro", "stats", err)
	if err != nil {
		s.logger.Errorw("Failed to read pomodoro stats", "error", err)
		return &entities.PomodoroStats{RecentSessions: []*entities.PomodoroSession{}}, fmt.Errorf("failed to read pomodoro stats: %w", err)
	}

	return stats, nil
}
