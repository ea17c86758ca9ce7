package database

import (
	"embed"
	"errors"
	"fmt"

	"github.com/golang-migrate/migrate/v4"
	migratedb "github.com/golang-migrate/migrate/v4/database"
	"github.com/golang-migrate/migrate/v4/database/postgres"
	"github.com/golang-migrate/migrate/v4/database/sqlite"
	"github.com/golang-migrate/migrate/v4/source/iofs"
)

//go:embed migrations
var migrationFiles embed.FS

// MigrationStatus describes the schema version of the store
type MigrationStatus struct {
	Version uint
	Dirty   bool
}

// MigrateUp applies every pending migration
func (db *DB) MigrateUp() error {
	return db.runMigration(func(m *migrate.Migrate) error {
		return m.Up()
	})
}

// MigrateDown rolls back every applied migration
func (db *DB) MigrateDown() error {
	return db.runMigration(func(m *migrate.Migrate) error {
		return m.Down()
	})
}

// MigrationVersion reports the applied schema version; zero when none is applied
func (db *DB) MigrationVersion() (MigrationStatus, error) {
	var status MigrationStatus
	err := db.withMigrator(func(m *migrate.Migrate) error {
		version, dirty, err := m.Version()
		if errors.Is(err, migrate.ErrNilVersion) {
			return nil
		}
		if err != nil {
			return fmt.Errorf("failed to get migration version: %w", err)
		}
		status = MigrationStatus{Version: version, Dirty: dirty}
		return nil
	})
	return status, err
}

func (db *DB) runMigration(step func(*migrate.Migrate) error) error {
	return db.withMigrator(func(m *migrate.Migrate) error {
		if err := step(m); err != nil && !errors.Is(err, migrate.ErrNoChange) {
			return fmt.Errorf("migration failed: %w", err)
		}
		return nil
	})
}

func (db *DB) withMigrator(fn func(*migrate.Migrate) error) error {
	driverName := db.config.Driver

	source, err := iofs.New(migrationFiles, "migrations/"+driverName)
	if err != nil {
		return fmt.Errorf("failed to load migrations: %w", err)
	}

	var target migratedb.Driver
	switch driverName {
	case DriverSQLite:
		target, err = sqlite.WithInstance(db.DB.DB, &sqlite.Config{})
	case DriverPostgres:
		target, err = postgres.WithInstance(db.DB.DB, &postgres.Config{})
	default:
		err = fmt.Errorf("unsupported database driver %q", driverName)
	}
	if err != nil {
		return fmt.Errorf("failed to create migration driver: %w", err)
	}

	m, err := migrate.NewWithInstance("iofs", source, driverName, target)
	if err != nil {
		return fmt.Errorf("failed to create migration instance: %w", err)
	}

	runErr := fn(m)

	// The sqlite driver closes the shared *sql.DB on Close; only the
	// postgres driver holds a dedicated connection that must be released.
	if driverName == DriverPostgres {
		if srcErr, dbErr := m.Close(); runErr == nil {
			if srcErr != nil {
				return srcErr
			}
			return dbErr
		}
	} else {
		_ = source.Close()
	}

	return runErr
}
