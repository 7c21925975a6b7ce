package ingest

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/pep299/news-hydrator/internal/logger"
	"github.com/pep299/news-hydrator/internal/model"
	"github.com/pep299/news-hydrator/internal/queue"
	"github.com/pep299/news-hydrator/internal/repository"
)

// FeedFetcher turns a feed into news
type FeedFetcher interface {
	Fetch(ctx context.Context, feed Feed) ([]model.News, error)
}

// Recorder receives ingestion counts
type Recorder interface {
	ArticlesIngested(feed string, n int)
}

// Result summarizes one ingestion run
type Result struct {
	Fetched  int `json:"fetched"`
	Enqueued int `json:"enqueued"`
	Skipped  int `json:"skipped"`
}

// Ingester fetches feeds and enqueues one hydration job per unseen article
type Ingester struct {
	fetcher     FeedFetcher
	feeds       []Feed
	queue       queue.Queue
	store       repository.NewsStore
	recorder    Recorder
	concurrency int
	now         func() time.Time
	log         *zap.SugaredLogger

	mu   sync.Mutex
	seen map[string]bool
}

// Config holds Ingester collaborators. Store and Recorder are optional.
type Config struct {
	Fetcher     FeedFetcher
	Feeds       []Feed
	Queue       queue.Queue
	Store       repository.NewsStore
	Recorder    Recorder
	Concurrency int
	Logger      *zap.SugaredLogger
}

// NewIngester creates an ingester
func NewIngester(cfg Config) *Ingester {
	if cfg.Concurrency < 1 {
		cfg.Concurrency = 1
	}
	if cfg.Logger == nil {
		cfg.Logger = logger.Nop()
	}
	return &Ingester{
		fetcher:     cfg.Fetcher,
		feeds:       cfg.Feeds,
		queue:       cfg.Queue,
		store:       cfg.Store,
		recorder:    cfg.Recorder,
		concurrency: cfg.Concurrency,
		now:         time.Now,
		log:         cfg.Logger,
		seen:        make(map[string]bool),
	}
}

// Feeds returns the configured feeds
func (i *Ingester) Feeds() []Feed {
	return i.feeds
}

// Run ingests every enabled feed. A failing feed does not stop the others; its error is joined into the result.
func (i *Ingester) Run(ctx context.Context) (Result, error) {
	var (
		mu    sync.Mutex
		total Result
		errs  []error
		g     errgroup.Group
	)
	g.SetLimit(i.concurrency)

	for _, feed := range i.feeds {
		if !feed.IsEnabled() {
			i.log.Debugw("Skipping disabled feed", "feed", feed.Name)
			continue
		}
		feed := feed
		g.Go(func() error {
			result, err := i.RunFeed(ctx, feed)
			mu.Lock()
			defer mu.Unlock()
			total.Fetched += result.Fetched
			total.Enqueued += result.Enqueued
			total.Skipped += result.Skipped
			if err != nil {
				errs = append(errs, err)
			}
			return nil
		})
	}
	_ = g.Wait()

	i.log.Infow("Ingestion finished",
		"fetched", total.Fetched, "enqueued", total.Enqueued, "skipped", total.Skipped, "failedFeeds", len(errs))
	return total, errors.Join(errs...)
}

// RunFeed ingests a single feed
func (i *Ingester) RunFeed(ctx context.Context, feed Feed) (Result, error) {
	var result Result

	news, err := i.fetcher.Fetch(ctx, feed)
	if err != nil {
		i.log.Errorw("Failed to fetch feed", "feed", feed.Name, "error", err)
		return result, fmt.Errorf("feed %s: %w", feed.Name, err)
	}
	result.Fetched = len(news)

	news = FilterNews(UniqueNews(news), feed.Filter, i.now())

	for _, n := range news {
		unseen, err := i.markSeen(ctx, n.ID)
		if err != nil {
			return result, fmt.Errorf("feed %s: %w", feed.Name, err)
		}
		if !unseen {
			continue
		}

		if i.store != nil {
			if err := i.store.Save(ctx, n); err != nil {
				i.forget(n.ID)
				return result, fmt.Errorf("feed %s: %w", feed.Name, err)
			}
		}
		if err := i.queue.Enqueue(ctx, queue.NewJob(n)); err != nil {
			i.forget(n.ID)
			return result, fmt.Errorf("feed %s: enqueueing %s: %w", feed.Name, n.ID, err)
		}
		result.Enqueued++
	}
	result.Skipped = result.Fetched - result.Enqueued

	if i.recorder != nil && result.Enqueued > 0 {
		i.recorder.ArticlesIngested(feed.Name, result.Enqueued)
	}
	i.log.Infow("Ingested feed", "feed", feed.Name, "fetched", result.Fetched, "enqueued", result.Enqueued)
	return result, nil
}

// markSeen records id and reports whether it had not been ingested before
func (i *Ingester) markSeen(ctx context.Context, id string) (bool, error) {
	i.mu.Lock()
	if i.seen[id] {
		i.mu.Unlock()
		return false, nil
	}
	i.seen[id] = true
	i.mu.Unlock()

	if i.store == nil {
		return true, nil
	}

	_, err := i.store.GetOne(ctx, id)
	if err == nil {
		return false, nil
	}
	if errors.Is(err, repository.ErrNotFound) {
		return true, nil
	}
	i.forget(id)
	return false, fmt.Errorf("checking %s: %w", id, err)
}

func (i *Ingester) forget(id string) {
	i.mu.Lock()
	delete(i.seen, id)
	i.mu.Unlock()
}
