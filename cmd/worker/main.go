package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/pep299/news-hydrator/internal/application"
	"github.com/pep299/news-hydrator/internal/config"
	"github.com/pep299/news-hydrator/internal/logger"
)

var (
	Version string = "dev"
	Commit  string = "unknown"
)

func main() {
	showVersion := flag.Bool("version", false, "Show version information")
	flag.Parse()

	if *showVersion {
		fmt.Printf("News Hydrator Worker\n")
		fmt.Printf("Version: %s\n", Version)
		fmt.Printf("Commit: %s\n", Commit)
		os.Exit(0)
	}

	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load configuration: %v\n", err)
		os.Exit(1)
	}
	if cfg.QueueType != "redis" {
		fmt.Fprintln(os.Stderr, "The worker consumes a shared queue: set QUEUE_TYPE=redis")
		os.Exit(1)
	}

	log := logger.New(cfg.LogLevel)
	defer log.Sync()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// Lexicons are loaded once here and shared by every job
	app, err := application.New(ctx, cfg, log)
	if err != nil {
		log.Fatalw("Failed to create application", "error", err)
	}
	defer app.Close()

	log.Infow("Worker starting",
		"queue", cfg.QueueName,
		"concurrency", cfg.WorkerConcurrency,
		"maxAttempts", cfg.RetryAttempts,
		"version", Version,
	)
	app.Pool().Run(ctx)
	log.Info("Worker stopped")
}
