package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"
	"github.com/tabaani/jobqueue/internal/config"
	"github.com/tabaani/jobqueue/internal/events"
	"github.com/tabaani/jobqueue/internal/job"
	"github.com/tabaani/jobqueue/internal/logging"
	"github.com/tabaani/jobqueue/internal/router"
	"github.com/tabaani/jobqueue/internal/storage/postgres"
)

func main() {
	if err := run(); err != nil {
		log.Fatal(err)
	}
}

func run() error {
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found, using environment variables")
	}

	ctx := context.Background()

	cfg, err := config.LoadAPIConfig(ctx)
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}

	logger := logging.New(os.Stdout, cfg.Log.Level, cfg.Log.Format)
	slog.SetDefault(logger)

	logger.Info("starting api service", slog.String("addr", cfg.Addr))

	pgCfg, err := postgres.LoadConfigFromEnv(ctx)
	if err != nil {
		return fmt.Errorf("failed to load database config: %w", err)
	}

	db, err := postgres.ConnectDB(ctx, pgCfg)
	if err != nil {
		return fmt.Errorf("failed to connect to database: %w", err)
	}

	if err := postgres.Migrate(db); err != nil {
		return fmt.Errorf("failed to migrate database: %w", err)
	}

	var pub events.Publisher = events.NoopPublisher{}
	if cfg.Events.Enabled {
		amqpPub, err := events.NewAMQPPublisher(cfg.Events.URL, cfg.Events.Exchange, logger)
		if err != nil {
			return fmt.Errorf("failed to connect event publisher: %w", err)
		}
		pub = amqpPub
	}
	defer pub.Close()

	repo := postgres.NewJobRepository(db)
	service := job.NewJobService(repo, pub, logger)
	handler := job.NewJobHandler(service)

	srv := &http.Server{
		Addr:    cfg.Addr,
		Handler: router.New(handler, logger),
	}

	errChan := make(chan error, 1)
	go func() {
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errChan <- err
		}
	}()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, os.Interrupt, syscall.SIGTERM)

	select {
	case err := <-errChan:
		return fmt.Errorf("server error: %w", err)
	case sig := <-stop:
		logger.Info("shutting down", slog.String("signal", sig.String()))
	}

	shutdownCtx, cancel := context.WithTimeout(ctx, cfg.ShutdownTimeout)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("graceful shutdown failed: %w", err)
	}

	logger.Info("shutdown complete")
	return nil
}
