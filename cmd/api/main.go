package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"library/internal/auth"
	"library/internal/borrow"
	"library/internal/catalog"
	"library/internal/config"
	"library/internal/httpx"
	"library/internal/lending"
	"library/internal/platform/logging"
	"library/internal/platform/mail"
	"library/internal/platform/postgres"
	"library/internal/reminder"
	"library/internal/user"
)

const maxRequestBytes = 1 << 20

func main() {
	cfg, err := config.Load()
	logger := logging.New(logging.Config{Level: cfg.LogLevel, Format: cfg.LogFormat}, "api")
	if err != nil {
		logger.Error("invalid configuration", "error", err)
		os.Exit(1)
	}
	if err := cfg.RequireJWTSecret(); err != nil {
		logger.Error("invalid configuration", "error", err)
		os.Exit(1)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, cfg, logger); err != nil {
		logger.Error("server stopped", "error", err)
		os.Exit(1)
	}
}

func run(ctx context.Context, cfg config.Config, logger *slog.Logger) error {
	pool, err := postgres.Open(ctx, cfg.DSN, 2*time.Second)
	if err != nil {
		return err
	}
	defer pool.Close()
	logger.Info("database connection OK", "dsn", postgres.RedactDSN(cfg.DSN))

	userRepo := user.NewPostgresRepo(pool, cfg.DBTimeout)
	catalogRepo := catalog.NewPostgresRepo(pool, cfg.DBTimeout)
	borrowRepo := borrow.NewPostgresRepo(pool, cfg.DBTimeout)

	userService := user.NewService(userRepo)
	authService := auth.NewService(cfg.JWTSecret, cfg.AccessTokenTTL, userService)
	catalogService := catalog.NewService(catalogRepo)

	policy := lending.DefaultRetryPolicy()
	policy.MaxAttempts = cfg.LendingMaxAttempts
	lendingService := lending.NewService(
		lending.NewPostgresTxRunner(pool, cfg.DBTimeout),
		lending.WithRetryPolicy(policy),
		lending.WithLogger(logger.With("component", "lending")),
	)

	sweeper := reminder.NewSweeper(
		borrowRepo,
		reminder.NewPostgresDeliveryLog(pool, cfg.DBTimeout),
		mail.New(mailConfig(cfg), logger.With("component", "mail")),
		logger.With("component", "reminder"),
	)

	h := handlers{
		users:    user.NewHTTPHandler(userService),
		auth:     auth.NewHTTPHandler(authService),
		catalog:  catalog.NewHTTPHandler(catalogService),
		lending:  lending.NewHTTPHandler(lendingService),
		reminder: reminder.NewHTTPHandler(sweeper, cfg.InternalJobSecret),
	}
	router := newRouter(h, cfg.JWTSecret, pool.Ping)

	limiter := httpx.NewRateLimitMiddleware(ctx, cfg.RateLimitRPS, cfg.RateLimitBurst)
	handler := httpx.Chain(router,
		httpx.RequestIDMiddleware,
		httpx.RecoveryMiddleware(logger),
		httpx.AccessLogMiddleware(logger),
		httpx.SecurityHeadersMiddleware(false),
		httpx.CORSMiddleware(cfg.CORSOrigins),
		limiter.Middleware,
		httpx.RequestSizeLimitMiddleware(maxRequestBytes),
	)

	server := &http.Server{
		Addr:         cfg.Addr,
		Handler:      handler,
		ReadTimeout:  5 * time.Second,
		WriteTimeout: 10 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		logger.Info("starting server", "addr", cfg.Addr)
		errCh <- server.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return fmt.Errorf("server error: %w", err)
	case <-ctx.Done():
	}

	logger.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	return server.Shutdown(shutdownCtx)
}

func mailConfig(cfg config.Config) mail.SMTPConfig {
	return mail.SMTPConfig{
		Addr:     cfg.SMTPAddr,
		Username: cfg.SMTPUsername,
		Password: cfg.SMTPPassword,
		From:     cfg.MailFrom,
	}
}
