package main

import (
	"context"
	"log"
	"os/signal"
	"syscall"

	"shopclone/internal/cli"
	"shopclone/internal/config"
)

func main() {
	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		log.Fatal("Failed to load configuration:", err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// Start server
	if err := cli.Serve(ctx, cli.WithConfig(cfg)); err != nil {
		log.Fatal("Failed to start server:", err)
	}
}
