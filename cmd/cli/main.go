package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"io"
	"log"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"cloud.google.com/go/storage"

	"github.com/pep299/news-hydrator/internal/application"
	"github.com/pep299/news-hydrator/internal/config"
	"github.com/pep299/news-hydrator/internal/logger"
	"github.com/pep299/news-hydrator/internal/model"
	"github.com/pep299/news-hydrator/internal/publisher"
	"github.com/pep299/news-hydrator/internal/queue"
)

var Version string = "dev"

func main() {
	var (
		showHelp    = flag.Bool("help", false, "Show help message")
		showVersion = flag.Bool("version", false, "Show version information")
		file        = flag.String("file", "", "Read input from file instead of stdin")
		newsInput   = flag.Bool("news", false, "Input is a news JSON object instead of plain text")
		ingestOnce  = flag.Bool("ingest", false, "Run one ingestion pass over the configured feeds and hydrate the results")
		follow      = flag.Bool("follow", false, "Print hydrated news published on NEWS_CHANNEL until interrupted")
	)
	flag.Parse()

	if *showHelp {
		fmt.Printf("News Hydrator CLI\n\n")
		fmt.Printf("Usage: %s [options] < article.txt\n\n", os.Args[0])
		fmt.Printf("Options:\n")
		flag.PrintDefaults()
		os.Exit(0)
	}

	if *showVersion {
		fmt.Printf("News Hydrator CLI\n")
		fmt.Printf("Version: %s\n", Version)
		os.Exit(0)
	}

	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	ctx := context.Background()
	zlog := logger.NewWithWriter(os.Stderr, cfg.LogLevel)
	defer zlog.Sync()

	if *follow {
		if err := runFollow(ctx, cfg); err != nil {
			log.Fatalf("Follow failed: %v", err)
		}
		return
	}

	if *ingestOnce {
		if err := runIngest(ctx, cfg); err != nil {
			log.Fatalf("Ingestion failed: %v", err)
		}
		return
	}

	input, err := readInput(*file)
	if err != nil {
		log.Fatalf("Failed to read input: %v", err)
	}

	var gcs *storage.Client
	if cfg.LexiconSource == "gcs" {
		gcs, err = storage.NewClient(ctx)
		if err != nil {
			log.Fatalf("Failed to create storage client: %v", err)
		}
		defer gcs.Close()
	}

	hydrator, err := application.NewHydrator(ctx, cfg, zlog, gcs)
	if err != nil {
		log.Fatalf("Failed to create hydrator: %v", err)
	}

	var result interface{}
	if *newsInput {
		var news model.News
		if err := json.Unmarshal(input, &news); err != nil {
			log.Fatalf("Invalid news JSON: %v", err)
		}
		news.EnsureID()
		result, err = hydrator.Hydrate(ctx, news)
	} else {
		text := strings.TrimSpace(string(input))
		if text == "" {
			log.Fatalf("No text to analyze")
		}
		result, err = hydrator.Analyze(ctx, text)
	}
	if err != nil {
		log.Fatalf("Hydration failed: %v", err)
	}

	if err := printJSON(os.Stdout, result); err != nil {
		log.Fatalf("Failed to write result: %v", err)
	}
}

// runIngest fetches every feed once and hydrates what was enqueued
func runIngest(ctx context.Context, cfg *config.Config) error {
	zlog := logger.NewWithWriter(os.Stderr, cfg.LogLevel)
	app, err := application.New(ctx, cfg, zlog)
	if err != nil {
		return err
	}
	defer app.Close()

	ingester, err := app.Ingester()
	if err != nil {
		return err
	}

	result, ingestErr := ingester.Run(ctx)
	if ingestErr != nil {
		zlog.Warnw("Some feeds failed", "error", ingestErr)
	}

	hydrated := 0
	if cfg.QueueType == "memory" {
		hydrated, err = app.Pool().Drain(ctx)
		if err != nil {
			return err
		}
	}

	fmt.Printf("Processing completed: fetched=%d enqueued=%d skipped=%d hydrated=%d\n",
		result.Fetched, result.Enqueued, result.Skipped, hydrated)
	return nil
}

// runFollow streams hydrated news from the broker to stdout
func runFollow(ctx context.Context, cfg *config.Config) error {
	ctx, stop := signal.NotifyContext(ctx, syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	client, err := queue.NewRedisClient(ctx, cfg.RedisAddr, cfg.RedisPassword, cfg.RedisDB)
	if err != nil {
		return err
	}
	defer client.Close()

	stream, closeSub, err := publisher.Subscribe(ctx, client, cfg.NewsChannel)
	if err != nil {
		return err
	}
	defer closeSub()

	for {
		select {
		case <-ctx.Done():
			return nil
		case news, ok := <-stream:
			if !ok {
				return nil
			}
			if err := printJSON(os.Stdout, news); err != nil {
				return err
			}
		}
	}
}

func readInput(path string) ([]byte, error) {
	if path == "" {
		return io.ReadAll(os.Stdin)
	}
	return os.ReadFile(path)
}

func printJSON(w io.Writer, v interface{}) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	enc.SetEscapeHTML(false)
	return enc.Encode(v)
}
