package main

import (
	"context"
	"database/sql"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"time"

	"library/internal/platform/logging"
	"library/internal/platform/postgres"

	"github.com/jackc/pgx/v5/stdlib"
	"github.com/pressly/goose/v3"
)

func main() {
	var (
		command = flag.String("command", "up", "Migration command: up, down, status, create")
		name    = flag.String("name", "", "Name for 'create' command")
	)
	flag.Parse()

	cfg := loadSettings()
	logger := logging.New(logging.Config{Level: os.Getenv("LOG_LEVEL"), Format: os.Getenv("LOG_FORMAT")}, "migrate")

	if err := run(logger, cfg, *command, *name); err != nil {
		logger.Error("migration failed", "command", *command, "error", err)
		os.Exit(1)
	}
}

func run(logger *slog.Logger, cfg settings, command, name string) error {
	dir := cfg.dir
	if command == "create" {
		if name == "" {
			return fmt.Errorf("name is required for 'create' command")
		}
		if err := goose.Create(nil, dir, name, "sql"); err != nil {
			return err
		}
		logger.Info("migration created", "name", name, "dir", dir)
		return nil
	}

	pool, err := postgres.Open(context.Background(), cfg.dsn, 5*time.Second)
	if err != nil {
		return err
	}
	defer pool.Close()

	db := stdlib.OpenDBFromPool(pool)
	defer db.Close()

	goose.SetBaseFS(nil)
	if err := goose.SetDialect("postgres"); err != nil {
		return err
	}

	if err := apply(db, command, dir); err != nil {
		return err
	}
	logger.Info("migration command finished", "command", command, "dir", dir, "dsn", postgres.RedactDSN(cfg.dsn))
	return nil
}

func apply(db *sql.DB, command, dir string) error {
	switch command {
	case "up":
		return goose.Up(db, dir)
	case "down":
		return goose.Down(db, dir)
	case "status":
		return goose.Status(db, dir)
	default:
		return fmt.Errorf("unknown command %q, use: up, down, status, create", command)
	}
}
