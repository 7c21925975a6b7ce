package application

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"cloud.google.com/go/storage"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/pep299/news-hydrator/internal/cache"
	"github.com/pep299/news-hydrator/internal/config"
	"github.com/pep299/news-hydrator/internal/gemini"
	"github.com/pep299/news-hydrator/internal/hydration"
	"github.com/pep299/news-hydrator/internal/ingest"
	"github.com/pep299/news-hydrator/internal/metrics"
	"github.com/pep299/news-hydrator/internal/nlp"
	"github.com/pep299/news-hydrator/internal/nlp/lexicon"
	"github.com/pep299/news-hydrator/internal/nlp/parser"
	"github.com/pep299/news-hydrator/internal/nlp/sentiment"
	"github.com/pep299/news-hydrator/internal/nlp/stopwords"
	"github.com/pep299/news-hydrator/internal/nlp/summarizer"
	"github.com/pep299/news-hydrator/internal/publisher"
	"github.com/pep299/news-hydrator/internal/queue"
	"github.com/pep299/news-hydrator/internal/repository"
	"github.com/pep299/news-hydrator/internal/retry"
	"github.com/pep299/news-hydrator/internal/slack"
	"github.com/pep299/news-hydrator/internal/transport/handler"
	"github.com/pep299/news-hydrator/internal/transport/server"
)

// Application holds every long-lived component, built once at start-up
type Application struct {
	Config    *config.Config
	Log       *zap.SugaredLogger
	Metrics   *metrics.Metrics
	Hydrator  *hydration.Hydrator
	Cache     *cache.Manager
	Queue     queue.Queue
	Store     repository.NewsStore
	Publisher publisher.Publisher

	cleanups []func() error
}

// New creates a new application instance with all dependencies
func New(ctx context.Context, cfg *config.Config, log *zap.SugaredLogger) (*Application, error) {
	app := &Application{
		Config:  cfg,
		Log:     log,
		Metrics: metrics.New(),
	}

	if err := app.build(ctx); err != nil {
		app.Close()
		return nil, err
	}
	return app, nil
}

func (a *Application) build(ctx context.Context) error {
	cfg := a.Config

	var gcs *storage.Client
	if cfg.LexiconSource == "gcs" || cfg.StoreType == "gcs" {
		client, err := storage.NewClient(ctx)
		if err != nil {
			return fmt.Errorf("creating storage client: %w", err)
		}
		gcs = client
		a.onClose(client.Close)
	}

	var rdb *redis.Client
	if cfg.QueueType == "redis" || cfg.CacheType == "redis" {
		client, err := queue.NewRedisClient(ctx, cfg.RedisAddr, cfg.RedisPassword, cfg.RedisDB)
		if err != nil {
			return fmt.Errorf("connecting to redis: %w", err)
		}
		rdb = client
		a.onClose(client.Close)
	}

	cacheDuration := time.Duration(cfg.CacheDuration) * time.Hour
	var cacheManager *cache.Manager
	if cfg.CacheType == "redis" {
		cacheManager = cache.NewManagerWithCache(cache.NewRedisCache(rdb, "cache:", cacheDuration))
	} else {
		manager, err := cache.NewManager(cfg.CacheType, cacheDuration)
		if err != nil {
			return fmt.Errorf("creating cache manager: %w", err)
		}
		cacheManager = manager
	}
	a.Cache = cacheManager
	a.onClose(cacheManager.Close)

	hydrator, err := NewHydrator(ctx, cfg, a.Log, gcs, hydration.WithCache(cacheManager))
	if err != nil {
		return err
	}
	a.Hydrator = hydrator

	var publishers publisher.Multi
	if cfg.QueueType == "redis" {
		a.Queue = queue.NewRedisQueue(rdb, cfg.QueueName)
		publishers = append(publishers, publisher.NewRedisPublisher(rdb, cfg.NewsChannel, publisher.DefaultRetry(), a.Log))
	} else {
		a.Queue = queue.NewMemoryQueue(1000)
	}
	if cfg.SlackEnabled() {
		publishers = append(publishers, slack.NewClient(cfg.SlackBotToken, cfg.SlackChannel))
	}
	a.Publisher = publishers

	store, err := NewStore(ctx, cfg, gcs)
	if err != nil {
		return err
	}
	a.Store = store
	a.onClose(store.Close)

	return nil
}

// NewHydrator loads lexicons once and builds the NLP pipeline. gcs may be nil unless lexicons live in Cloud Storage.
func NewHydrator(ctx context.Context, cfg *config.Config, log *zap.SugaredLogger, gcs *storage.Client, opts ...hydration.Option) (*hydration.Hydrator, error) {
	var src lexicon.Source
	switch cfg.LexiconSource {
	case "gcs":
		if gcs == nil {
			return nil, errors.New("lexicon source gcs needs a storage client")
		}
		src = lexicon.NewGCSSource(gcs, cfg.LexiconBucket, cfg.LexiconPrefix)
	default:
		src = lexicon.NewDirSource(cfg.LexiconDir)
	}

	lexicons, err := lexicon.Load(ctx, src)
	if err != nil {
		return nil, fmt.Errorf("loading lexicons: %w", err)
	}
	log.Infow("Lexicons loaded",
		"positive", lexicons.Positive.Len(),
		"negative", lexicons.Negative.Len(),
		"boosterIncrease", lexicons.BoosterIncrease.Len(),
		"boosterDecrease", lexicons.BoosterDecrease.Len(),
	)

	var p nlp.Parser
	switch cfg.ParserType {
	case "remote":
		p = parser.NewRemote(cfg.ParserURL,
			parser.WithRateLimit(cfg.ParserRateLimit),
			parser.WithRetry(retry.Config{MaxAttempts: cfg.RetryAttempts, Delay: cfg.RetryDelay, Backoff: true}),
			parser.WithLogger(log),
		)
	default:
		p = parser.NewSimple()
	}

	opts = append([]hydration.Option{hydration.WithLogger(log)}, opts...)
	if cfg.EntityProvider == "gemini" {
		opts = append(opts, hydration.WithEntityExtractor(gemini.NewClient(cfg.GeminiAPIKey, cfg.GeminiModel)))
	}

	return hydration.New(
		p,
		summarizer.New(stopwords.Spanish(), summarizer.DefaultConfig()),
		sentiment.NewScorer(lexicons),
		opts...,
	), nil
}

// NewStore opens the configured news store
func NewStore(ctx context.Context, cfg *config.Config, gcs *storage.Client) (repository.NewsStore, error) {
	switch cfg.StoreType {
	case "gcs":
		if gcs == nil {
			return nil, errors.New("store type gcs needs a storage client")
		}
		return repository.NewGCSStoreWithClient(gcs, cfg.StoreBucket), nil
	case "postgres":
		store, err := repository.NewPostgresStore(ctx, cfg.PostgresDSN)
		if err != nil {
			return nil, fmt.Errorf("opening postgres store: %w", err)
		}
		return store, nil
	default:
		return repository.NewMemoryStore(), nil
	}
}

// HandleJob hydrates the job's news, stores it and publishes it
func (a *Application) HandleJob(ctx context.Context, job queue.Job) error {
	hydrated, err := a.Hydrator.Hydrate(ctx, job.News)
	if err != nil {
		return err
	}
	if err := a.Store.Save(ctx, hydrated); err != nil {
		return fmt.Errorf("storing news %s: %w", hydrated.ID, err)
	}
	if err := a.Publisher.Publish(ctx, hydrated); err != nil {
		return fmt.Errorf("publishing news %s: %w", hydrated.ID, err)
	}
	a.Log.Infow("News hydrated", "news", hydrated.ID, "title", hydrated.Title, "attempt", job.Attempt)
	return nil
}

// Pool builds the worker pool consuming the hydration queue
func (a *Application) Pool() *queue.Pool {
	return queue.NewPool(a.Queue, a.HandleJob, queue.PoolConfig{
		Concurrency: a.Config.WorkerConcurrency,
		JobTimeout:  a.Config.JobTimeout,
		MaxAttempts: a.Config.RetryAttempts,
	}, a.Log, a.Metrics)
}

// Router builds the HTTP API
func (a *Application) Router() http.Handler {
	return server.NewRouter(server.Config{
		AuthToken: a.Config.APIAuthToken,
		NLP:       handler.NewNLP(a.Hydrator, a.Queue, a.Log),
		News:      handler.NewNews(a.Store, a.Log),
		Cache:     a.Cache,
		Metrics:   a.Metrics.Handler(),
		Logger:    a.Log,
	})
}

// Ingester builds the feed ingester from the feeds file and FEED_URLS
func (a *Application) Ingester() (*ingest.Ingester, error) {
	feeds, err := a.Feeds()
	if err != nil {
		return nil, err
	}

	fetcher := ingest.NewFetcher(
		ingest.WithRateLimit(float64(a.Config.MaxConcurrentRequests)),
		ingest.WithLogger(a.Log),
	)
	return ingest.NewIngester(ingest.Config{
		Fetcher:     fetcher,
		Feeds:       feeds,
		Queue:       a.Queue,
		Store:       a.Store,
		Recorder:    a.Metrics,
		Concurrency: a.Config.MaxConcurrentRequests,
		Logger:      a.Log,
	}), nil
}

// Feeds returns the configured feeds
func (a *Application) Feeds() ([]ingest.Feed, error) {
	var feeds []ingest.Feed
	if a.Config.FeedsConfigPath != "" {
		loaded, err := ingest.LoadFeeds(a.Config.FeedsConfigPath)
		if err != nil && len(a.Config.FeedURLs) == 0 {
			return nil, fmt.Errorf("loading feeds: %w", err)
		}
		if err != nil {
			a.Log.Warnw("Feeds file unavailable, using FEED_URLS only", "error", err)
		}
		feeds = loaded
	}
	for _, url := range a.Config.FeedURLs {
		feeds = append(feeds, ingest.Feed{Name: url, URL: url})
	}
	return feeds, nil
}

func (a *Application) onClose(fn func() error) {
	a.cleanups = append(a.cleanups, fn)
}

// Close releases resources in reverse creation order
func (a *Application) Close() error {
	var errs []error
	for i := len(a.cleanups) - 1; i >= 0; i-- {
		if err := a.cleanups[i](); err != nil {
			errs = append(errs, err)
		}
	}
	a.cleanups = nil
	return errors.Join(errs...)
}
