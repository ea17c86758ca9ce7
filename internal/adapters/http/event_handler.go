package http

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/taskmaster/assistant/internal/application/services"
	"github.com/taskmaster/assistant/internal/domain/entities"
	"github.com/taskmaster/assistant/internal/infrastructure/logger"
	"github.com/taskmaster/assistant/internal/ports"
)

// EventHandler handles calendar requests
type EventHandler struct {
	eventService *services.EventService
	logger       *logger.Logger
}

// NewEventHandler creates a new event handler
func NewEventHandler(eventService *services.EventService, logger *logger.Logger) *EventHandler {
	return &EventHandler{
		eventService: eventService,
		logger:       logger,
	}
}

// ListEvents returns one day's events when ?date= is given, otherwise all of them
func (h *EventHandler) ListEvents(c echo.Context) error {
	var (
		events []*entities.Event
		err    error
	)
	if date := c.QueryParam("date"); date != "" {
		events, err = h.eventService.GetEventsByDate(c.Request().Context(), date)
	} else {
		events, err = h.eventService.GetEvents(c.Request().Context())
	}
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, events)
}

// CreateEvent handles event creation
func (h *EventHandler) CreateEvent(c echo.Context) error {
	var req ports.CreateEventRequest
	if err := bindAndValidate(c, &req); err != nil {
		return err
	}

	id, err := h.eventService.AddEvent(c.Request().Context(), req)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusCreated, ports.IDResponse{ID: id})
}

// UpdateEvent replaces an event
func (h *EventHandler) UpdateEvent(c echo.Context) error {
	id, err := parseID(c)
	if err != nil {
		return err
	}

	var req ports.UpdateEventRequest
	if err := bindAndValidate(c, &req); err != nil {
		return err
	}

	updated, err := h.eventService.UpdateEvent(c.Request().Context(), id, req)
	if err != nil {
		return err
	}
	if !updated {
		return echo.NewHTTPError(http.StatusNotFound, "Event not found")
	}
	return c.NoContent(http.StatusNoContent)
}

// DeleteEvent handles event removal
func (h *EventHandler) DeleteEvent(c echo.Context) error {
	id, err := parseID(c)
	if err != nil {
		return err
	}

	deleted, err := h.eventService.DeleteEvent(c.Request().Context(), id)
	if err != nil {
		return err
	}
	if !deleted {
		return echo.NewHTTPError(http.StatusNotFound, "Event not found")
	}
	return c.NoContent(http.StatusNoContent)
}
