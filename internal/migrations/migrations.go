package migrations

import (
	"database/sql"
	"embed"
	"errors"
	"fmt"
	"log/slog"

	"github.com/golang-migrate/migrate/v4"
	"github.com/golang-migrate/migrate/v4/database/postgres"
	"github.com/golang-migrate/migrate/v4/source/iofs"
)

//go:embed *.sql
var MigrationFiles embed.FS

// RunMigrations applies pending migrations for the review_history and
// pipeline_runs tables. If autoMigrate is false, it only reports the current
// version.
func RunMigrations(db *sql.DB, autoMigrate bool) error {
	sourceDriver, err := iofs.New(MigrationFiles, ".")
	if err != nil {
		return fmt.Errorf("failed to create migration source: %w", err)
	}

	dbDriver, err := postgres.WithInstance(db, &postgres.Config{})
	if err != nil {
		return fmt.Errorf("failed to create database driver: %w", err)
	}

	m, err := migrate.NewWithInstance("iofs", sourceDriver, "postgres", dbDriver)
	if err != nil {
		return fmt.Errorf("failed to create migrate instance: %w", err)
	}

	version, dirty, err := m.Version()
	if err != nil && !errors.Is(err, migrate.ErrNilVersion) {
		return fmt.Errorf("failed to get current migration version: %w", err)
	}

	if dirty {
		slog.Warn("[Migrations] Dirty state, last migration was interrupted",
			"version", version,
			"action", "attempting automatic recovery",
		)

		// Roll the marker back one step so Up re-runs the interrupted file.
		// Migrations use IF [NOT] EXISTS and tolerate a partial first attempt.
		previous := int(version) - 1
		if previous < 1 {
			previous = -1 // nil version
		}
		if err := m.Force(previous); err != nil {
			return fmt.Errorf("failed to recover dirty migration state at version %d: %w", version, err)
		}
		slog.Info("[Migrations] Recovered dirty state", "version", version)
	}

	if !autoMigrate {
		slog.Info("[Migrations] Auto-migration disabled",
			"current_version", version,
			"dirty", dirty,
		)
		return nil
	}

	slog.Info("[Migrations] Applying", "current_version", version)

	if err := m.Up(); err != nil {
		if errors.Is(err, migrate.ErrNoChange) {
			slog.Info("[Migrations] Schema is up to date", "version", version)
			return nil
		}
		return fmt.Errorf("failed to run migrations: %w", err)
	}

	newVersion, _, err := m.Version()
	if err != nil {
		return fmt.Errorf("failed to get updated migration version: %w", err)
	}

	slog.Info("[Migrations] Completed",
		"from_version", version,
		"to_version", newVersion,
	)

	return nil
}
