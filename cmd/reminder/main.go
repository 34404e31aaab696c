package main

import (
	"context"
	"errors"
	"flag"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"library/internal/borrow"
	"library/internal/config"
	"library/internal/platform/logging"
	"library/internal/platform/mail"
	"library/internal/platform/postgres"
	"library/internal/reminder"
)

func main() {
	once := flag.Bool("once", false, "run a single sweep for today and exit")
	day := flag.String("day", "", "with -once, sweep this day (YYYY-MM-DD) instead of today")
	flag.Parse()

	cfg, err := config.Load()
	logger := logging.New(logging.Config{Level: cfg.LogLevel, Format: cfg.LogFormat}, "reminder")
	if err != nil {
		logger.Error("invalid configuration", "error", err)
		os.Exit(1)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, cfg, logger, *once, *day); err != nil && !errors.Is(err, context.Canceled) {
		logger.Error("reminder stopped", "error", err)
		os.Exit(1)
	}
}

func run(ctx context.Context, cfg config.Config, logger *slog.Logger, once bool, day string) error {
	pool, err := postgres.Open(ctx, cfg.DSN, 2*time.Second)
	if err != nil {
		return err
	}
	defer pool.Close()

	sweeper := reminder.NewSweeper(
		borrow.NewPostgresRepo(pool, cfg.DBTimeout),
		reminder.NewPostgresDeliveryLog(pool, cfg.DBTimeout),
		mail.New(mailConfig(cfg), logger),
		logger,
	)

	if once {
		when := time.Now()
		if day != "" {
			if when, err = time.Parse(time.DateOnly, day); err != nil {
				return err
			}
		}
		_, err := sweeper.Sweep(ctx, when)
		return err
	}

	logger.Info("reminder scheduler started", "interval", cfg.ReminderInterval.String())
	return reminder.NewScheduler(sweeper, cfg.ReminderInterval, time.Now, logger).Run(ctx)
}

func mailConfig(cfg config.Config) mail.SMTPConfig {
	return mail.SMTPConfig{
		Addr:     cfg.SMTPAddr,
		Username: cfg.SMTPUsername,
		Password: cfg.SMTPPassword,
		From:     cfg.MailFrom,
	}
}
