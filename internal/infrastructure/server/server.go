package server

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"runtime"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"

	httpHandlers "github.com/taskmaster/assistant/internal/adapters/http"
	"github.com/taskmaster/assistant/internal/application"
	"github.com/taskmaster/assistant/internal/domain/entities"
	"github.com/taskmaster/assistant/internal/infrastructure/config"
	"github.com/taskmaster/assistant/internal/infrastructure/database"
	"github.com/taskmaster/assistant/internal/infrastructure/logger"
)

// Server represents the loopback HTTP API
type Server struct {
	echo   *echo.Echo
	config *config.Config
	logger *logger.Logger
	db     *database.DB
	app    *application.App
}

// CustomValidator wraps the validator
type CustomValidator struct {
	validator *validator.Validate
}

// Validate validates structs
func (cv *CustomValidator) Validate(i interface{}) error {
	return cv.validator.Struct(i)
}

// New creates a new server instance around the application services
func New(app *application.App, appLogger *logger.Logger) *Server {
	e := echo.New()

	e.Validator = &CustomValidator{validator: validator.New()}

	e.HideBanner = true
	e.HidePort = true

	e.HTTPErrorHandler = customErrorHandler(appLogger)

	cfg := app.Config
	e.Server.ReadTimeout = cfg.Server.ReadTimeout
	e.Server.WriteTimeout = cfg.Server.WriteTimeout
	e.Server.IdleTimeout = cfg.Server.IdleTimeout

	server := &Server{
		echo:   e,
		config: cfg,
		logger: appLogger.WithComponent("http"),
		db:     app.DB,
		app:    app,
	}

	server.setupMiddleware()
	server.setupRoutes()

	return server
}

// Handler exposes the router, mainly for tests
func (s *Server) Handler() http.Handler {
	return s.echo
}

// setupMiddleware configures middleware
func (s *Server) setupMiddleware() {
	s.echo.Use(middleware.Recover())
	s.echo.Use(requestID())
	s.echo.Use(requestLogger(s.logger))

	if s.config.Metrics.Enabled {
		s.echo.Use(observe(s.app.Metrics))
	}

	s.echo.Use(rateLimiter(s.config.Security))

	s.echo.Use(middleware.SecureWithConfig(middleware.SecureConfig{
		XSSProtection:         "1; mode=block",
		ContentTypeNosniff:    "nosniff",
		XFrameOptions:         "DENY",
		ContentSecurityPolicy: "default-src 'self'",
	}))

	// A chat request may take the whole model timeout
	s.echo.Use(middleware.ContextTimeoutWithConfig(middleware.ContextTimeoutConfig{
		Timeout: s.config.LLM.Timeout + 5*time.Second,
	}))
}

// setupRoutes configures all routes
func (s *Server) setupRoutes() {
	s.echo.GET("/health", s.healthCheck)
	s.echo.GET("/health/detailed", s.detailedHealthCheck)
	s.echo.GET("/ready", s.readinessCheck)

	if s.config.Metrics.Enabled && s.app.Metrics != nil {
		s.echo.GET("/metrics", echo.WrapHandler(s.app.Metrics.Handler()))
	}

	noteHandler := httpHandlers.NewNoteHandler(s.app.Notes, s.logger)
	taskHandler := httpHandlers.NewTaskHandler(s.app.Tasks, s.logger)
	eventHandler := httpHandlers.NewEventHandler(s.app.Events, s.logger)
	chatHandler := httpHandlers.NewChatHandler(s.app.Chat, s.app.Gateway, s.logger)
	pomodoroHandler := httpHandlers.NewPomodoroHandler(s.app.Pomodoro, s.logger)
	statusHandler := httpHandlers.NewStatusHandler(s.app.Status)

	v1 := s.echo.Group("/api/v1")

	notes := v1.Group("/notes")
	notes.GET("", noteHandler.ListNotes)
	notes.POST("", noteHandler.CreateNote)
	notes.GET("/:id", noteHandler.GetNote)
	notes.PUT("/:id", noteHandler.UpdateNote)
	notes.DELETE("/:id", noteHandler.DeleteNote)

	tasks := v1.Group("/tasks")
	tasks.GET("", taskHandler.ListTasks)
	tasks.POST("", taskHandler.CreateTask)
	tasks.DELETE("", taskHandler.ClearCompleted)
	tasks.GET("/stats", taskHandler.Stats)
	tasks.POST("/:id/toggle", taskHandler.ToggleTask)
	tasks.DELETE("/:id", taskHandler.DeleteTask)

	events := v1.Group("/events")
	events.GET("", eventHandler.ListEvents)
	events.POST("", eventHandler.CreateEvent)
	events.PUT("/:id", eventHandler.UpdateEvent)
	events.DELETE("/:id", eventHandler.DeleteEvent)

	chat := v1.Group("/chat")
	chat.GET("", chatHandler.History)
	chat.POST("", chatHandler.SendMessage)
	chat.DELETE("", chatHandler.ClearHistory)
	chat.GET("/model", chatHandler.GetModel)
	chat.PUT("/model", chatHandler.ChangeModel)

	pomodoro := v1.Group("/pomodoro")
	pomodoro.POST("/sessions", pomodoroHandler.AddSession)
	pomodoro.GET("/stats", pomodoroHandler.Stats)

	v1.GET("/status", statusHandler.Status)
}

// Health check handlers
func (s *Server) healthCheck(c echo.Context) error {
	return c.JSON(http.StatusOK, map[string]string{
		"status": "ok",
		"time":   time.Now().UTC().Format(time.RFC3339),
	})
}

func (s *Server) detailedHealthCheck(c echo.Context) error {
	status := "ok"
	checks := make(map[string]interface{})

	if err := s.db.HealthCheck(c.Request().Context()); err != nil {
		status = "error"
		checks["database"] = map[string]interface{}{
			"status": "error",
			"error":  err.Error(),
		}
	} else {
		dbCheck := map[string]interface{}{
			"status": "ok",
			"stats":  s.db.GetConnectionInfo(),
		}
		if migration, err := s.db.MigrationVersion(); err == nil {
			dbCheck["schema_version"] = migration.Version
			dbCheck["schema_dirty"] = migration.Dirty
		}
		checks["database"] = dbCheck
	}

	checks["llm"] = map[string]interface{}{
		"model":            s.app.Gateway.Model(),
		"cloud_configured": s.app.Gateway.CloudConfigured(),
	}

	response := map[string]interface{}{
		"status": status,
		"time":   time.Now().UTC().Format(time.RFC3339),
		"checks": checks,
		"version": map[string]string{
			"app": s.config.App.Version,
			"go":  runtime.Version(),
		},
	}

	if status == "ok" {
		return c.JSON(http.StatusOK, response)
	}
	return c.JSON(http.StatusServiceUnavailable, response)
}

func (s *Server) readinessCheck(c echo.Context) error {
	if err := s.db.HealthCheck(c.Request().Context()); err != nil {
		return c.JSON(http.StatusServiceUnavailable, map[string]string{
			"status": "not_ready",
			"reason": "database_not_ready",
		})
	}

	return c.JSON(http.StatusOK, map[string]string{
		"status": "ready",
		"time":   time.Now().UTC().Format(time.RFC3339),
	})
}

// Start serves until Shutdown; a clean shutdown returns nil
func (s *Server) Start(address string) error {
	s.logger.Infow("Starting server", "address", address)
	if err := s.echo.Start(address); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

// Shutdown gracefully shuts down the server
func (s *Server) Shutdown(ctx context.Context) error {
	s.logger.Info("Shutting down server")
	return s.echo.Shutdown(ctx)
}

// errorResponse maps an error to a status code and client message
func errorResponse(err error) (int, string) {
	var (
		he *echo.HTTPError
		ve validator.ValidationErrors
	)

	switch {
	case errors.As(err, &he):
		return he.Code, fmt.Sprint(he.Message)
	case errors.As(err, &ve):
		return http.StatusBadRequest, ve.Error()
	case errors.Is(err, entities.ErrNoteNotFound),
		errors.Is(err, entities.ErrTaskNotFound),
		errors.Is(err, entities.ErrEventNotFound):
		return http.StatusNotFound, err.Error()
	case errors.Is(err, entities.ErrInvalidInput),
		errors.Is(err, entities.ErrInvalidPriority),
		errors.Is(err, entities.ErrInvalidRole),
		errors.Is(err, entities.ErrInvalidTaskFilter):
		return http.StatusBadRequest, err.Error()
	default:
		return http.StatusInternalServerError, http.StatusText(http.StatusInternalServerError)
	}
}

// customErrorHandler writes every error as {"message": ...}
func customErrorHandler(logger *logger.Logger) echo.HTTPErrorHandler {
	return func(err error, c echo.Context) {
		code, msg := errorResponse(err)

		if code == http.StatusInternalServerError {
			logger.Errorw("Internal server error", "error", err, "path", c.Request().URL.Path)
		}

		if c.Response().Committed {
			return
		}

		if c.Request().Method == http.MethodHead {
			err = c.NoContent(code)
		} else {
			err = c.JSON(code, map[string]string{"message": msg})
		}
		if err != nil {
			logger.Errorw("Error sending response", "error", err)
		}
	}
}
