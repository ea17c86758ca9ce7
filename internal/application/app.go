package application

import (
	"github.com/taskmaster/assistant/internal/adapters/legacy"
	"github.com/taskmaster/assistant/internal/adapters/llm"
	"github.com/taskmaster/assistant/internal/adapters/repository"
	"github.com/taskmaster/assistant/internal/application/services"
	"github.com/taskmaster/assistant/internal/infrastructure/config"
	"github.com/taskmaster/assistant/internal/infrastructure/database"
	"github.com/taskmaster/assistant/internal/infrastructure/logger"
	"github.com/taskmaster/assistant/internal/infrastructure/metrics"
)

// App holds the services built around one open database.
// Both the API server and the command line work through it.
type App struct {
	Config  *config.Config
	DB      *database.DB
	Store   *repository.Store
	Metrics *metrics.Metrics

	Gateway  *services.Gateway
	Notes    *services.NoteService
	Tasks    *services.TaskService
	Events   *services.EventService
	Pomodoro *services.PomodoroService
	Chat     *services.ChatService
	Status   *services.StatusService

	Importer *legacy.Importer
	Exporter *legacy.Exporter

	logger *logger.Logger
}

// New wires repositories, chat backends and services. m may be nil.
func New(cfg *config.Config, db *database.DB, appLogger *logger.Logger, m *metrics.Metrics) *App {
	store := repository.NewStore(db)

	local := llm.NewOllamaClient(cfg.LLM, appLogger)
	cloud := llm.NewOpenAIClient(cfg.LLM, appLogger)
	gateway := services.NewGateway(local, cloud, cfg.LLM, cfg.App.Language, appLogger, m)

	return &App{
		Config:  cfg,
		DB:      db,
		Store:   store,
		Metrics: m,

		Gateway:  gateway,
		Notes:    services.NewNoteService(store.Notes(), appLogger, m),
		Tasks:    services.NewTaskService(store.Tasks(), appLogger, m),
		Events:   services.NewEventService(store.Events(), appLogger, m),
		Pomodoro: services.NewPomodoroService(store.Pomodoro(), appLogger, m),
		Chat:     services.NewChatService(store.Chat(), gateway, cfg.LLM.HistoryWindow, appLogger),
		Status:   services.NewStatusService(cfg, gateway, appLogger),

		Importer: legacy.NewImporter(store, appLogger),
		Exporter: legacy.NewExporter(store, appLogger),

		logger: appLogger,
	}
}

// Close waits for in-flight chat requests, then closes the database
func (a *App) Close() error {
	a.Chat.Wait()
	a.logger.Debug("Closing database")
	return a.DB.Close()
}
