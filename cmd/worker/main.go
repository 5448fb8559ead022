package main

import (
	"context"
	"log"
	"os/signal"
	"syscall"

	"github.com/prometheus/client_golang/prometheus"

	"shopclone/internal/config"
	"shopclone/internal/logger"
	"shopclone/internal/worker"
)

func main() {
	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		log.Fatal("Failed to load configuration:", err)
	}

	// Initialize logger
	logger := logger.New(cfg.LogLevel, cfg.Env)
	defer logger.Sync()

	if len(cfg.Brokers()) == 0 {
		logger.Fatal("KAFKA_BROKERS is required for the history worker")
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	w := worker.New(cfg, logger, prometheus.NewRegistry())

	logger.Info("Starting worker on topic %s (group %s)...", cfg.HistoryTopic, cfg.HistoryGroupID)
	if err := w.Run(ctx); err != nil {
		logger.Error("Worker stopped: %v", err)
	}

	logger.Info("Shutting down worker...")
	if err := w.Stop(); err != nil {
		logger.Error("Failed to close reader: %v", err)
	}
}
