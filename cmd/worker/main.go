package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"lanhall/internal/config"
	"lanhall/internal/consumers"
	"lanhall/internal/database"
	"lanhall/internal/jobs"
	"lanhall/internal/logger"
	"lanhall/internal/messaging"
	"lanhall/internal/repository"
	"lanhall/internal/search"

	"github.com/joho/godotenv"
)

// The worker process owns everything that runs outside a request:
// the reservation expiry sweeper and the event consumers that archive
// settled sessions.
func main() {
	_ = godotenv.Load()

	cfg := config.Load()
	cfg.NATS.ClientID = "lanhall-worker"
	logger.Init(cfg.LogLevel, cfg.LogFormat)

	db, err := database.Connect(cfg.Database)
	if err != nil {
		logger.Fatal("Failed to connect to database", "error", err)
	}
	defer db.Close()

	natsClient, err := messaging.NewNATSClient(cfg.NATS)
	if err != nil {
		logger.Fatal("Failed to connect to NATS", "error", err)
	}
	defer natsClient.Close()

	archive, err := search.NewClient(config.LoadElasticsearchConfig())
	if err != nil {
		logger.Fatal("Failed to connect to Elasticsearch", "error", err)
	}

	repos := repository.NewRepositories(db)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sweeper := jobs.NewSweeper(repos.Seats, natsClient, cfg.Sweeper, nil)
	sweeper.Start(ctx)

	consumerService := consumers.NewConsumerService(natsClient, archive)
	if err := consumerService.Start(); err != nil {
		logger.Fatal("Failed to start consumers", "error", err)
	}

	logger.Get().Info("Worker started")

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Get().Info("Shutting down worker")

	sweeper.Stop()
	consumerService.Shutdown()

	logger.Get().Info("Worker stopped")
}
