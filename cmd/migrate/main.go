package main

// Manage the Postgres session schema:
//   go run ./cmd/migrate              apply pending migrations
//   go run ./cmd/migrate -cmd status  list applied and pending migrations
//   go run ./cmd/migrate -cmd down    roll back the latest migration

import (
	"context"
	"flag"
	"fmt"
	"os"

	"sourcing-backend/internal/shared/config"
	"sourcing-backend/internal/shared/storage/db"
)

func main() {
	command := flag.String("cmd", "up", "goose command: up, down, status, version or reset")
	flag.Parse()

	cfg := config.Load()
	ctx := context.Background()

	sqlDB, err := db.Connect(ctx, cfg.DatabaseURL, db.OptionsFromEnv(db.DefaultMigrateOptions()))
	if err != nil {
		exitErr("connect database", err)
	}
	defer sqlDB.Close()

	if err := db.Migrate(ctx, sqlDB, *command); err != nil {
		sqlDB.Close()
		exitErr("migrate", err)
	}
}

func exitErr(what string, err error) {
	fmt.Fprintf(os.Stderr, "%s: %v\n", what, err)
	os.Exit(1)
}
