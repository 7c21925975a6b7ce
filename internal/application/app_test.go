package application

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/pep299/news-hydrator/internal/config"
	"github.com/pep299/news-hydrator/internal/logger"
	"github.com/pep299/news-hydrator/internal/model"
	"github.com/pep299/news-hydrator/internal/queue"
)

func testConfig(t *testing.T) *config.Config {
	t.Helper()
	return &config.Config{
		APIAuthToken:          "secret",
		LexiconSource:         "dir",
		LexiconDir:            filepath.Join("..", "..", "resources", "lexicon"),
		ParserType:            "simple",
		EntityProvider:        "parser",
		QueueType:             "memory",
		WorkerConcurrency:     2,
		RetryAttempts:         2,
		StoreType:             "memory",
		CacheType:             "memory",
		CacheDuration:         1,
		MaxConcurrentRequests: 2,
	}
}

func newTestApp(t *testing.T, cfg *config.Config) *Application {
	t.Helper()
	app, err := New(context.Background(), cfg, logger.Nop())
	if err != nil {
		t.Fatalf("New failed: %v", err)
	}
	t.Cleanup(func() { app.Close() })
	return app
}

type recordingPublisher struct {
	published []model.News
	err       error
}

func (p *recordingPublisher) Publish(_ context.Context, news model.News) error {
	p.published = append(p.published, news)
	return p.err
}

const article = "El Gobierno presentó hoy un plan muy ambicioso. La oposición criticó duramente la propuesta. " +
	"Los expertos consideran que el acuerdo es positivo para la economía. Las negociaciones continuarán la próxima semana."

func TestHandleJob(t *testing.T) {
	app := newTestApp(t, testConfig(t))
	pub := &recordingPublisher{}
	app.Publisher = pub

	job := queue.NewJob(model.News{ID: "n1", Title: "Plan", Content: article})
	if err := app.HandleJob(context.Background(), job); err != nil {
		t.Fatalf("HandleJob failed: %v", err)
	}

	stored, err := app.Store.GetOne(context.Background(), "n1")
	if err != nil {
		t.Fatalf("Expected hydrated news in store: %v", err)
	}
	if !stored.Hydrated || stored.Summary == nil || *stored.Summary == "" || stored.Sentiment == nil {
		t.Errorf("Expected hydrated news, got %+v", stored)
	}
	if len(pub.published) != 1 || pub.published[0].ID != "n1" {
		t.Errorf("Expected news to be published once, got %d", len(pub.published))
	}
}

func TestHandleJob_PublishFailure(t *testing.T) {
	app := newTestApp(t, testConfig(t))
	app.Publisher = &recordingPublisher{err: errors.New("redis down")}

	err := app.HandleJob(context.Background(), queue.NewJob(model.News{ID: "n1", Content: article}))
	if err == nil || !strings.Contains(err.Error(), "publishing news n1") {
		t.Errorf("Expected publish error, got %v", err)
	}
}

func TestNew_MissingLexicons(t *testing.T) {
	cfg := testConfig(t)
	cfg.LexiconDir = t.TempDir()

	if _, err := New(context.Background(), cfg, logger.Nop()); err == nil {
		t.Error("Expected start-up to fail without lexicons")
	}
}

func TestRouter(t *testing.T) {
	app := newTestApp(t, testConfig(t))
	router := app.Router()

	req := httptest.NewRequest(http.MethodPost, "/v1/api/nlp/sentiment", strings.NewReader(`{"text":"`+article+`"}`))
	req.Header.Set("Authorization", "Bearer secret")
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	if w.Code != http.StatusOK {
		t.Errorf("Expected 200, got %d: %s", w.Code, w.Body.String())
	}

	req = httptest.NewRequest(http.MethodPut, "/v1/api/nlp/hydrate", strings.NewReader(`{"title":"Plan","content":"`+article+`"}`))
	req.Header.Set("X-API-Key", "Bearer secret")
	w = httptest.NewRecorder()
	router.ServeHTTP(w, req)
	if w.Code != http.StatusNoContent {
		t.Fatalf("Expected 204, got %d", w.Code)
	}
	if n, _ := app.Queue.Len(context.Background()); n != 1 {
		t.Errorf("Expected 1 queued job, got %d", n)
	}
}

func TestFeeds(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "feeds.yaml")
	if err := os.WriteFile(path, []byte("feeds:\n  - name: abc\n    url: https://example.com/abc.xml\n"), 0o644); err != nil {
		t.Fatalf("Failed to write feeds: %v", err)
	}

	cfg := testConfig(t)
	cfg.FeedsConfigPath = path
	cfg.FeedURLs = []string{"https://example.com/extra.xml"}
	app := newTestApp(t, cfg)

	feeds, err := app.Feeds()
	if err != nil {
		t.Fatalf("Feeds failed: %v", err)
	}
	if len(feeds) != 2 || feeds[0].Name != "abc" || feeds[1].URL != "https://example.com/extra.xml" {
		t.Errorf("Unexpected feeds: %+v", feeds)
	}

	cfg.FeedsConfigPath = filepath.Join(dir, "missing.yaml")
	feeds, err = app.Feeds()
	if err != nil || len(feeds) != 1 {
		t.Errorf("Expected FEED_URLS fallback, got %v, %v", feeds, err)
	}

	cfg.FeedURLs = nil
	if _, err := app.Feeds(); err == nil {
		t.Error("Expected error without any feed source")
	}

	if _, err := app.Ingester(); err == nil {
		t.Error("Expected Ingester to fail without feeds")
	}
}
