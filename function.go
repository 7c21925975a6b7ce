package cloudfunctions

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"sync"

	"github.com/GoogleCloudPlatform/functions-framework-go/funcframework"
	"github.com/GoogleCloudPlatform/functions-framework-go/functions"
	"github.com/gorilla/mux"

	"github.com/pep299/news-hydrator/internal/application"
	"github.com/pep299/news-hydrator/internal/config"
	"github.com/pep299/news-hydrator/internal/ingest"
	"github.com/pep299/news-hydrator/internal/logger"
	"github.com/pep299/news-hydrator/internal/transport/middleware"
	"github.com/pep299/news-hydrator/internal/transport/response"
)

func init() {
	// Register HTTP function for the API and scheduled ingestion
	functions.HTTP("NewsHydrator", NewsHydrator)
}

var (
	appOnce sync.Once
	handler http.Handler
	initErr error
)

// NewsHydrator serves the HTTP API plus POST /ingest for Cloud Scheduler.
// Lexicons are loaded on the first request and reused by warm instances.
func NewsHydrator(w http.ResponseWriter, r *http.Request) {
	appOnce.Do(func() {
		handler, initErr = newHandler(context.Background())
	})
	if initErr != nil {
		fmt.Fprintf(funcframework.LogWriter(r.Context()), "Failed to start news hydrator: %v\n", initErr)
		response.WriteUnavailable(w, "Service not initialized")
		return
	}
	handler.ServeHTTP(w, r)
}

func newHandler(ctx context.Context) (http.Handler, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, err
	}
	if err := cfg.ValidateServer(); err != nil {
		return nil, err
	}

	app, err := application.New(ctx, cfg, logger.New(cfg.LogLevel))
	if err != nil {
		return nil, err
	}
	return NewHandler(app), nil
}

// NewHandler routes /ingest to a synchronous ingestion run and everything
// else to the application API.
func NewHandler(app *application.Application) http.Handler {
	router := mux.NewRouter()
	ingestHandler := middleware.Auth(app.Config.APIAuthToken)(ingestRun(app))
	router.Handle("/ingest", middleware.Logging(app.Log)(ingestHandler)).Methods(http.MethodPost)
	router.NotFoundHandler = app.Router()
	return router
}

// ingestPayload optionally restricts a run to one feed
type ingestPayload struct {
	FeedName string `json:"feedName"`
}

// ingestSummary is returned after a run
type ingestSummary struct {
	ingest.Result
	Hydrated int      `json:"hydrated"`
	Errors   []string `json:"errors,omitempty"`
}

func ingestRun(app *application.Application) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()
		log := logger.NewWithWriter(funcframework.LogWriter(ctx), app.Config.LogLevel)

		var payload ingestPayload
		if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, 4096)).Decode(&payload); err != nil && !errors.Is(err, io.EOF) {
			response.WriteBadRequest(w, "Invalid JSON payload")
			return
		}

		ingester, err := app.Ingester()
		if err != nil {
			log.Errorw("Failed to create ingester", "error", err)
			response.WriteInternalError(w, "Ingestion not configured")
			return
		}

		var (
			result ingest.Result
			runErr error
		)
		if payload.FeedName == "" {
			result, runErr = ingester.Run(ctx)
		} else {
			feed, ok := findFeed(ingester.Feeds(), payload.FeedName)
			if !ok {
				response.WriteNotFound(w, fmt.Sprintf("Unknown feed: %s", payload.FeedName))
				return
			}
			result, runErr = ingester.RunFeed(ctx, feed)
		}

		summary := ingestSummary{Result: result}
		if runErr != nil {
			log.Warnw("Ingestion finished with errors", "feed", payload.FeedName, "error", runErr)
			summary.Errors = []string{runErr.Error()}
		}

		// Instances do not outlive the request, so in-memory jobs are hydrated now
		if app.Config.QueueType == "memory" {
			summary.Hydrated, err = app.Pool().Drain(ctx)
			if err != nil {
				log.Errorw("Failed to hydrate ingested news", "error", err)
				response.WriteInternalError(w, "Hydration interrupted")
				return
			}
		}

		log.Infow("Ingestion run completed",
			"feed", payload.FeedName, "enqueued", summary.Enqueued, "hydrated", summary.Hydrated)
		response.WriteSuccess(w, "Ingestion completed", summary)
	}
}

func findFeed(feeds []ingest.Feed, name string) (ingest.Feed, bool) {
	for _, f := range feeds {
		if f.Name == name {
			return f, true
		}
	}
	return ingest.Feed{}, false
}
