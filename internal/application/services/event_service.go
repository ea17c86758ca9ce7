package services

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"

	"github.com/taskmaster/assistant/internal/domain/entities"
	"github.com/taskmaster/assistant/internal/infrastructure/logger"
	"github.com/taskmaster/assistant/internal/infrastructure/metrics"
	"github.com/taskmaster/assistant/internal/ports"
)

// EventService handles calendar operations
type EventService struct {
	eventRepo ports.EventRepository
	validate  *validator.Validate
	logger    *logger.Logger
	metrics   *metrics.Metrics
	now       func() time.Time
}

// NewEventService creates a new event service
func NewEventService(eventRepo ports.EventRepository, logger *logger.Logger, m *metrics.Metrics) *EventService {
	return &EventService{
		eventRepo: eventRepo,
		validate:  validator.New(),
		logger:    logger.WithComponent("events"),
		metrics:   m,
		now:       time.Now,
	}
}

// buildEvent normalizes a request: blank optional fields become absent
func (s *EventService) buildEvent(req ports.CreateEventRequest) (*entities.Event, error) {
	event := &entities.Event{
		Title: strings.TrimSpace(req.Title),
		Date:  strings.TrimSpace(req.Date),
	}
	if req.Description != nil && *req.Description != "" {
		description := *req.Description
		event.Description = &description
	}
	if req.Time != nil && strings.TrimSpace(*req.Time) != "" {
		clock, err := entities.NormalizeClock(*req.Time)
		if err != nil {
			return nil, err
		}
		event.Time = &clock
	}

	if err := s.validate.Struct(event); err != nil {
		return nil, fmt.Errorf("%w: %v", entities.ErrInvalidInput, err)
	}
	return event, nil
}

// AddEvent creates a calendar entry
func (s *EventService) AddEvent(ctx context.Context, req ports.CreateEventRequest) (int64, error) {
	event, err := s.buildEvent(req)
	if err != nil {
		return 0, err
	}
	event.CreatedAt = s.now()

	err = s.eventRepo.Create(ctx, event)
	s.metrics.ObserveStore("event", "create", err)
	if err != nil {
		s.logger.Errorw("Failed to add event", "date", event.Date, "error", err)
		return 0, fmt.Errorf("failed to add event: %w", err)
	}

	s.logger.Infow("Event added", "event_id", event.ID, "date", event.Date)
	return event.ID, nil
}

// GetEventsByDate lists one day's events, timed ones first by clock
func (s *EventService) GetEventsByDate(ctx context.Context, date string) ([]*entities.Event, error) {
	if _, err := time.Parse(entities.DateLayout, date); err != nil {
		return []*entities.Event{}, fmt.Errorf("%w: date must be YYYY-MM-DD", entities.ErrInvalidInput)
	}

	events, err := s.eventRepo.ListByDate(ctx, date)
	s.metrics.ObserveStore("event", "list_by_date", err)
	if err != nil {
		s.logger.Errorw("Failed to list events", "date", date, "error", err)
		return []*entities.Event{}, fmt.Errorf("failed to list events: %w", err)
	}

	return events, nil
}

// GetEvents lists every event by date
func (s *EventService) GetEvents(ctx context.Context) ([]*entities.Event, error) {
	events, err := s.eventRepo.List(ctx)
	s.metrics.ObserveStore("event", "list", err)
	if err != nil {
		s.logger.Errorw("Failed to list events", "error", err)
		return []*entities.Event{}, fmt.Errorf("failed to list events: %w", err)
	}

	return events, nil
}

// UpdateEvent replaces an event's fields; false when it does not exist
func (s *EventService) UpdateEvent(ctx context.Context, id int64, req ports.UpdateEventRequest) (bool, error) {
	event, err := s.buildEvent(req)
	if err != nil {
		return false, err
	}
	now := s.now()
	event.ID = id
	event.ModifiedAt = &now

	err = s.eventRepo.Update(ctx, event)
	s.metrics.ObserveStore("event", "update", err)
	if errors.Is(err, entities.ErrEventNotFound) {
		return false, nil
	}
	if err != nil {
		s.logger.Errorw("Failed to update event", "event_id", id, "error", err)
		return false, fmt.Errorf("failed to update event: %w", err)
	}

	return true, nil
}

// DeleteEvent removes an event; false when it did not exist
func (s *EventService) DeleteEvent(ctx context.Context, id int64) (bool, error) {
	err := s.eventRepo.Delete(ctx, id)
	s.metrics.ObserveStore("event", "delete", err)
	if errors.Is(err, entities.ErrEventNotFound) {
		return false, nil
	}
	if err != nil {
		s.logger.Errorw("Failed to delete event", "event_id", id, "error", err)
		return false, fmt.Errorf("failed to delete event: %w", err)
	}

	return true, nil
}
