package http

import (
	"net/http"
	"strconv"

	"github.com/labstack/echo/v4"

	"github.com/taskmaster/assistant/internal/application/services"
	"github.com/taskmaster/assistant/internal/infrastructure/logger"
	"github.com/taskmaster/assistant/internal/ports"
)

// PomodoroHandler handles focus session requests
type PomodoroHandler struct {
	pomodoroService *services.PomodoroService
	logger          *logger.Logger
}

// NewPomodoroHandler creates a new pomodoro handler
func NewPomodoroHandler(pomodoroService *services.PomodoroService, logger *logger.Logger) *PomodoroHandler {
	return &PomodoroHandler{
		pomodoroService: pomodoroService,
		logger:          logger,
	}
}

// AddSession records a finished focus session; duration is in seconds
func (h *PomodoroHandler) AddSession(c echo.Context) error {
	var req ports.AddPomodoroSessionRequest
	if err := bindAndValidate(c, &req); err != nil {
		return err
	}

	id, err := h.pomodoroService.AddSession(c.Request().Context(), req.Duration)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusCreated, ports.IDResponse{ID: id})
}

func (h *PomodoroHandler) Stats(c echo.Context) error {
	stats, err := h.pomodoroService.Stats(c.Request().Context())
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, stats)
}

// StatusHandler reports configuration problems
type StatusHandler struct {
	statusService *services.StatusService
}

func NewStatusHandler(statusService *services.StatusService) *StatusHandler {
	return &StatusHandler{statusService: statusService}
}

// Status returns the configuration report; ?probe=true also pings the local model server
func (h *StatusHandler) Status(c echo.Context) error {
	probe, _ := strconv.ParseBool(c.QueryParam("probe"))
	return c.JSON(http.StatusOK, h.statusService.Status(c.Request().Context(), probe))
}
