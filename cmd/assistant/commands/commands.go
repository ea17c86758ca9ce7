package commands

import (
	"context"
	"fmt"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"github.com/taskmaster/assistant/internal/application"
	"github.com/taskmaster/assistant/internal/infrastructure/config"
	"github.com/taskmaster/assistant/internal/infrastructure/database"
	"github.com/taskmaster/assistant/internal/infrastructure/logger"
	"github.com/taskmaster/assistant/internal/infrastructure/metrics"
	"github.com/taskmaster/assistant/internal/infrastructure/server"
)

// NewRootCommand builds the assistant command tree
func NewRootCommand() *cobra.Command {
	rootCmd := &cobra.Command{
		Use:           "assistant",
		Short:         "Personal assistant core",
		Long:          "Notes, tasks, calendar events, pomodoro sessions and a chat with a local or cloud language model.",
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	rootCmd.AddCommand(
		NewServeCommand(),
		NewMigrateCommand(),
		NewImportCommand(),
		NewExportCommand(),
		NewChatCommand(),
		NewModelCommand(),
		NewStatusCommand(),
		NewNoteCommand(),
		NewTaskCommand(),
		NewEventCommand(),
		NewPomodoroCommand(),
	)

	return rootCmd
}

// loadConfig loads configuration and creates the logger
func loadConfig() (*config.Config, *logger.Logger, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, nil, fmt.Errorf("failed to load configuration: %w", err)
	}

	appLogger, err := logger.New(cfg.Logger)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to initialize logger: %w", err)
	}

	return cfg, appLogger, nil
}

// withApp opens the store, applies pending migrations and hands the wired
// services to fn. Everything is closed when fn returns.
func withApp(fn func(app *application.App, log *logger.Logger) error) error {
	cfg, appLogger, err := loadConfig()
	if err != nil {
		return err
	}
	defer appLogger.Close()

	db, err := database.New(cfg.Database)
	if err != nil {
		return fmt.Errorf("failed to open database: %w", err)
	}

	var m *metrics.Metrics
	if cfg.Metrics.Enabled {
		m = metrics.New()
	}

	app := application.New(cfg, db, appLogger, m)
	defer func() {
		if err := app.Close(); err != nil {
			appLogger.Warnw("Failed to close database", "error", err)
		}
	}()

	return fn(app, appLogger)
}

// NewServeCommand creates the serve command
func NewServeCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Start the loopback API server",
		Long:  "Start the REST API the presentation shell talks to, with health and metrics endpoints",
		RunE: func(cmd *cobra.Command, args []string) error {
			return withApp(func(app *application.App, log *logger.Logger) error {
				return runServer(cmd.Context(), app, log)
			})
		},
	}
}

func runServer(ctx context.Context, app *application.App, log *logger.Logger) error {
	ctx, stop := signal.NotifyContext(ctx, syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	srv := server.New(app, log)
	addr := app.Config.Server.Addr()

	log.Infow("Starting assistant API server",
		"address", addr,
		"environment", app.Config.App.Environment,
		"database", app.Config.Database.Driver,
		"model", app.Gateway.Model(),
	)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		return srv.Start(addr)
	})
	g.Go(func() error {
		<-gctx.Done()

		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	})

	if err := g.Wait(); err != nil {
		return fmt.Errorf("server failed: %w", err)
	}

	log.Info("Server stopped")
	return nil
}

// NewMigrateCommand creates the migrate command with subcommands
func NewMigrateCommand() *cobra.Command {
	migrateCmd := &cobra.Command{
		Use:   "migrate",
		Short: "Database migration commands",
		Long:  "Manage the record store schema (up, down, version)",
	}

	migrateCmd.AddCommand(&cobra.Command{
		Use:   "up",
		Short: "Apply all pending migrations",
		RunE: func(cmd *cobra.Command, args []string) error {
			return withDatabase(func(db *database.DB) error {
				if err := db.MigrateUp(); err != nil {
					return err
				}
				return printVersion(cmd, db)
			})
		},
	})

	migrateCmd.AddCommand(&cobra.Command{
		Use:   "down",
		Short: "Roll back all migrations; this drops every table",
		RunE: func(cmd *cobra.Command, args []string) error {
			return withDatabase(func(db *database.DB) error {
				if err := db.MigrateDown(); err != nil {
					return err
				}
				return printVersion(cmd, db)
			})
		},
	})

	migrateCmd.AddCommand(&cobra.Command{
		Use:   "version",
		Short: "Print the current migration version",
		RunE: func(cmd *cobra.Command, args []string) error {
			return withDatabase(func(db *database.DB) error {
				return printVersion(cmd, db)
			})
		},
	})

	return migrateCmd
}

// withDatabase connects without migrating so the migrate commands stay in control
func withDatabase(fn func(db *database.DB) error) error {
	cfg, appLogger, err := loadConfig()
	if err != nil {
		return err
	}
	defer appLogger.Close()

	db, err := database.Open(cfg.Database)
	if err != nil {
		return fmt.Errorf("failed to open database: %w", err)
	}
	defer db.Close()

	return fn(db)
}

func printVersion(cmd *cobra.Command, db *database.DB) error {
	status, err := db.MigrationVersion()
	if err != nil {
		return err
	}

	fmt.Fprintf(cmd.OutOrStdout(), "Current migration version: %d\n", status.Version)
	fmt.Fprintf(cmd.OutOrStdout(), "Dirty: %t\n", status.Dirty)
	return nil
}
