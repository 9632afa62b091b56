package db

import (
	"context"
	"database/sql"
	"embed"
	"fmt"
	"sync"

	"github.com/pressly/goose/v3"

	"sourcing-backend/internal/shared/telemetry"
)

//go:embed migrations/*.sql
var migrationFiles embed.FS

const migrationsDir = "migrations"

var gooseOnce sync.Once
var gooseErr error

func setupGoose() error {
	gooseOnce.Do(func() {
		goose.SetBaseFS(migrationFiles)
		gooseErr = goose.SetDialect("postgres")
	})
	return gooseErr
}

// RunMigrations applies every pending migration. A nil database is a no-op.
func RunMigrations(ctx context.Context, database *sql.DB) error {
	return Migrate(ctx, database, "up")
}

// Migrate runs one goose command against the embedded migrations: up, down, status,
// version or reset.
func Migrate(ctx context.Context, database *sql.DB, command string) error {
	if database == nil {
		return nil
	}
	if err := setupGoose(); err != nil {
		return err
	}
	var err error
	switch command {
	case "up":
		err = goose.UpContext(ctx, database, migrationsDir)
	case "down":
		err = goose.DownContext(ctx, database, migrationsDir)
	case "reset":
		err = goose.ResetContext(ctx, database, migrationsDir)
	case "status":
		err = goose.StatusContext(ctx, database, migrationsDir)
	case "version":
		err = goose.VersionContext(ctx, database, migrationsDir)
	default:
		return fmt.Errorf("unknown migrate command %q", command)
	}
	if err != nil {
		return fmt.Errorf("goose %s: %w", command, err)
	}
	if command == "up" || command == "down" || command == "reset" {
		version, err := goose.GetDBVersionContext(ctx, database)
		if err != nil {
			return fmt.Errorf("goose version: %w", err)
		}
		telemetry.Info("db.migrated", map[string]any{"command": command, "version": version})
	}
	return nil
}
