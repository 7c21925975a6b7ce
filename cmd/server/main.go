package main

import (
	"context"
	"flag"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"github.com/robfig/cron/v3"

	"github.com/pep299/news-hydrator/internal/application"
	"github.com/pep299/news-hydrator/internal/config"
	"github.com/pep299/news-hydrator/internal/logger"
	"github.com/pep299/news-hydrator/internal/transport/server"
)

var (
	Version   string = "dev"
	Commit    string = "unknown"
	BuildTime string = "unknown"
)

func main() {
	var (
		showHelp    = flag.Bool("help", false, "Show help message")
		showVersion = flag.Bool("version", false, "Show version information")
	)
	flag.Parse()

	if *showHelp {
		fmt.Printf("News Hydrator Server\n\n")
		fmt.Printf("Usage: %s [options]\n\n", os.Args[0])
		fmt.Printf("Options:\n")
		flag.PrintDefaults()
		fmt.Printf("\nEnvironment Variables:\n")
		fmt.Printf("  API_AUTH_TOKEN        Bearer token for /v1/api (required)\n")
		fmt.Printf("  PORT                  Server port (default: 8080)\n")
		fmt.Printf("  HOST                  Server host (default: 0.0.0.0)\n")
		fmt.Printf("  QUEUE_TYPE            Queue: memory or redis (default: memory)\n")
		fmt.Printf("  STORE_TYPE            Store: memory, gcs or postgres (default: memory)\n")
		fmt.Printf("  FEEDS_CONFIG_PATH     Feeds file (default: configs/feeds.yaml)\n")
		fmt.Printf("  INGEST_SCHEDULE       Ingestion cron expression (default: */10 * * * *)\n")
		os.Exit(0)
	}

	if *showVersion {
		fmt.Printf("News Hydrator Server\n")
		fmt.Printf("Version: %s\n", Version)
		fmt.Printf("Commit: %s\n", Commit)
		fmt.Printf("Build Time: %s\n", BuildTime)
		os.Exit(0)
	}

	// Load configuration
	cfg, err := config.Load()
	if err == nil {
		err = cfg.ValidateServer()
	}
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load configuration: %v\n", err)
		os.Exit(1)
	}

	log := logger.New(cfg.LogLevel)
	defer log.Sync()
	server.Version = Version

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	app, err := application.New(ctx, cfg, log)
	if err != nil {
		log.Fatalw("Failed to create application", "error", err)
	}
	defer app.Close()

	httpServer := &http.Server{
		Addr:         fmt.Sprintf("%s:%s", cfg.Host, cfg.Port),
		Handler:      app.Router(),
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 60 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	var workers sync.WaitGroup

	// The in-memory queue is only visible to this process, so consume it here
	if cfg.QueueType == "memory" {
		pool := app.Pool()
		workers.Add(1)
		go func() {
			defer workers.Done()
			pool.Run(ctx)
		}()
		log.Infow("Started in-process workers", "concurrency", cfg.WorkerConcurrency)
	}

	c := cron.New()
	if cfg.IngestEnabled {
		ingester, err := app.Ingester()
		if err != nil {
			log.Fatalw("Failed to create ingester", "error", err)
		}

		_, err = c.AddFunc(cfg.IngestSchedule, func() {
			log.Infow("Scheduled ingestion starting", "feeds", len(ingester.Feeds()))
			if _, err := ingester.Run(ctx); err != nil {
				log.Errorw("Scheduled ingestion finished with errors", "error", err)
			}
		})
		if err != nil {
			log.Fatalw("Failed to schedule ingestion", "schedule", cfg.IngestSchedule, "error", err)
		}
		log.Infow("Scheduled ingestion", "schedule", cfg.IngestSchedule)
	}
	c.Start()

	// Setup graceful shutdown
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)

	go func() {
		log.Infow("Starting server", "addr", httpServer.Addr, "version", Version)
		if err := httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalw("Server failed to start", "error", err)
		}
	}()

	<-sigChan
	log.Info("Shutting down server...")

	// Stop cron and wait for a running ingestion
	<-c.Stop().Done()

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer shutdownCancel()

	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		log.Errorw("Server shutdown error", "error", err)
	}

	// Cancel background tasks and let workers finish their current job
	cancel()
	workers.Wait()

	log.Info("Server stopped")
}
