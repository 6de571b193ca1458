package main

import (
	"context"
	"fmt"
	"log"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"
	"github.com/tabaani/jobqueue/internal/config"
	"github.com/tabaani/jobqueue/internal/events"
	"github.com/tabaani/jobqueue/internal/logging"
	"github.com/tabaani/jobqueue/internal/pool"
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

	cfg, err := config.LoadWorkerConfig(ctx)
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}

	logger := logging.New(os.Stdout, cfg.Log.Level, cfg.Log.Format)
	slog.SetDefault(logger)

	logger.Info("starting worker service",
		slog.Int("workers", cfg.Count),
		slog.Any("queues", cfg.Queues),
	)

	pgCfg, err := postgres.LoadConfigFromEnv(ctx)
	if err != nil {
		return fmt.Errorf("failed to load database config: %w", err)
	}

	db, err := postgres.ConnectDB(ctx, pgCfg)
	if err != nil {
		return fmt.Errorf("failed to connect to database: %w", err)
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

	workerPool := pool.NewWorkerPool(cfg, repo, pub, logger)
	workerPool.Start()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, os.Interrupt, syscall.SIGTERM)
	sig := <-stop

	logger.Info("shutting down", slog.String("signal", sig.String()))
	workerPool.Stop()
	logger.Info("shutdown complete")

	return nil
}
