// Command activity-worker drains the activity queue into the system log
// table.
package main

import (
	"context"
	"errors"
	"log"
	"os"
	"os/signal"
	"syscall"

	"go.uber.org/zap"

	"github.com/iliyamo/stadium-ops/internal/config"
	"github.com/iliyamo/stadium-ops/internal/database"
	"github.com/iliyamo/stadium-ops/internal/logging"
	"github.com/iliyamo/stadium-ops/internal/queue"
	"github.com/iliyamo/stadium-ops/internal/repository"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("config: %v", err)
	}
	logger, err := logging.New(cfg.Env, cfg.LogLevel)
	if err != nil {
		log.Fatalf("logger: %v", err)
	}
	defer func() { _ = logger.Sync() }()

	if cfg.RabbitMQURL == "" {
		logger.Fatal("RABBITMQ_URL is required")
	}

	db, err := database.Open(cfg.DBUser, cfg.DBPass, cfg.DBHost, cfg.DBPort, cfg.DBName)
	if err != nil {
		logger.Fatal("db", zap.Error(err))
	}
	defer db.Close()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	c := &queue.Consumer{
		URL:   cfg.RabbitMQURL,
		Queue: cfg.ActivityQueue,
		Logs:  repository.NewSystemLogRepo(db),
		Log:   logger,
	}
	logger.Info("activity-worker started", zap.String("queue", cfg.ActivityQueue))
	if err := c.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
		logger.Error("activity-worker stopped", zap.Error(err))
	}
}
