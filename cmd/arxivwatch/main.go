package main

import (
	"context"
	"os"

	"github.com/google/uuid"

	"github.com/major/arxivwatch/internal/app"
	"github.com/major/arxivwatch/internal/config"
	"github.com/major/arxivwatch/internal/logging"
)

func main() {
	ctx := context.Background()
	cfg := config.Load()
	logger := logging.New(cfg.Logging.Level).With("run_id", uuid.NewString())

	if err := cfg.Validate(); err != nil {
		logger.Error("invalid configuration", "error", err)
		os.Exit(1)
	}

	logger.Info("starting arxiv watcher", "feed_count", len(cfg.Feeds.URLs))

	application := app.New(cfg, logger)

	if err := application.Run(ctx); err != nil {
		logger.Error("arxiv watcher failed", "error", err)
		os.Exit(1)
	}
}
