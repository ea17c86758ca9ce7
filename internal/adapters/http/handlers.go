package http

import (
	"net/http"
	"strconv"

	"github.com/labstack/echo/v4"

	"github.com/taskmaster/assistant/internal/application/services"
	"github.com/taskmaster/assistant/internal/domain/entities"
	"github.com/taskmaster/assistant/internal/infrastructure/logger"
	"github.com/taskmaster/assistant/internal/ports"
)

// NoteHandler handles note requests
type NoteHandler struct {
	noteService *services.NoteService
	logger      *logger.Logger
}

// NewNoteHandler creates a new note handler
func NewNoteHandler(noteService *services.NoteService, logger *logger.Logger) *NoteHandler {
	return &NoteHandler{
		noteService: noteService,
		logger:      logger,
	}
}

// ListNotes returns all notes, newest change first, optionally filtered by ?search=
func (h *NoteHandler) ListNotes(c echo.Context) error {
	notes, err := h.noteService.GetNotes(c.Request().Context(), c.QueryParam("search"))
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, notes)
}

// CreateNote handles note creation
func (h *NoteHandler) CreateNote(c echo.Context) error {
	var req ports.CreateNoteRequest
	if err := bindAndValidate(c, &req); err != nil {
		return err
	}

	id, err := h.noteService.AddNote(c.Request().Context(), req.Title, req.Content)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusCreated, ports.IDResponse{ID: id})
}

// GetNote returns a single note
func (h *NoteHandler) GetNote(c echo.Context) error {
	id, err := parseID(c)
	if err != nil {
		return err
	}

	note, err := h.noteService.GetNote(c.Request().Context(), id)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, note)
}

// UpdateNote replaces a note's title and content
func (h *NoteHandler) UpdateNote(c echo.Context) error {
	id, err := parseID(c)
	if err != nil {
		return err
	}

	var req ports.UpdateNoteRequest
	if err := bindAndValidate(c, &req); err != nil {
		return err
	}

	updated, err := h.noteService.UpdateNote(c.Request().Context(), id, req.Title, req.Content)
	if err != nil {
		return err
	}
	if !updated {
		return echo.NewHTTPError(http.StatusNotFound, "Note not found")
	}
	return c.NoContent(http.StatusNoContent)
}

// DeleteNote handles note removal
func (h *NoteHandler) DeleteNote(c echo.Context) error {
	id, err := parseID(c)
	if err != nil {
		return err
	}

	deleted, err := h.noteService.DeleteNote(c.Request().Context(), id)
	if err != nil {
		return err
	}
	if !deleted {
		return echo.NewHTTPError(http.StatusNotFound, "Note not found")
	}
	return c.NoContent(http.StatusNoContent)
}

// TaskHandler handles todo list requests
type TaskHandler struct {
	taskService *services.TaskService
	logger      *logger.Logger
}

// NewTaskHandler creates a new task handler
func NewTaskHandler(taskService *services.TaskService, logger *logger.Logger) *TaskHandler {
	return &TaskHandler{
		taskService: taskService,
		logger:      logger,
	}
}

// ListTasks returns tasks selected by ?filter=all|active|completed
func (h *TaskHandler) ListTasks(c echo.Context) error {
	filter, err := entities.ParseTaskFilter(c.QueryParam("filter"))
	if err != nil {
		return err
	}

	tasks, err := h.taskService.GetTasks(c.Request().Context(), filter)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, tasks)
}

// CreateTask handles task creation
func (h *TaskHandler) CreateTask(c echo.Context) error {
	var req ports.CreateTaskRequest
	if err := bindAndValidate(c, &req); err != nil {
		return err
	}

	id, err := h.taskService.AddTask(c.Request().Context(), req.Text, req.Priority)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusCreated, ports.IDResponse{ID: id})
}

// ToggleTask flips a task's completion state
func (h *TaskHandler) ToggleTask(c echo.Context) error {
	id, err := parseID(c)
	if err != nil {
		return err
	}

	toggled, err := h.taskService.ToggleTask(c.Request().Context(), id)
	if err != nil {
		return err
	}
	if !toggled {
		return echo.NewHTTPError(http.StatusNotFound, "Task not found")
	}
	return c.NoContent(http.StatusNoContent)
}

// DeleteTask handles task removal
func (h *TaskHandler) DeleteTask(c echo.Context) error {
	id, err := parseID(c)
	if err != nil {
		return err
	}

	deleted, err := h.taskService.DeleteTask(c.Request().Context(), id)
	if err != nil {
		return err
	}
	if !deleted {
		return echo.NewHTTPError(http.StatusNotFound, "Task not found")
	}
	return c.NoContent(http.StatusNoContent)
}

// ClearCompleted removes every completed task. It requires ?completed=true
// so a bare DELETE on the collection never wipes the list.
func (h *TaskHandler) ClearCompleted(c echo.Context) error {
	if completed, _ := strconv.ParseBool(c.QueryParam("completed")); !completed {
		return echo.NewHTTPError(http.StatusBadRequest, "Only completed tasks can be cleared; pass completed=true")
	}

	count, err := h.taskService.ClearCompletedTasks(c.Request().Context())
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, ports.CountResponse{Count: count})
}

// Stats returns the active and completed counts
func (h *TaskHandler) Stats(c echo.Context) error {
	stats, err := h.taskService.TaskStats(c.Request().Context())
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, stats)
}

// Utility functions

func parseID(c echo.Context) (int64, error) {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil || id <= 0 {
		return 0, echo.NewHTTPError(http.StatusBadRequest, "Invalid id")
	}
	return id, nil
}

func bindAndValidate(c echo.Context, req interface{}) error {
	if err := c.Bind(req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "Invalid request format")
	}
	if err := c.Validate(req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	return nil
}
