package server

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/pep299/news-hydrator/internal/cache"
	"github.com/pep299/news-hydrator/internal/logger"
	"github.com/pep299/news-hydrator/internal/metrics"
	"github.com/pep299/news-hydrator/internal/model"
	"github.com/pep299/news-hydrator/internal/queue"
	"github.com/pep299/news-hydrator/internal/repository"
	"github.com/pep299/news-hydrator/internal/transport/handler"
)

type stubAnalyzer struct{}

func (stubAnalyzer) Process(context.Context, string) (model.NLPDoc, error) {
	return model.NLPDoc{Sentences: []string{"Hola."}, NamedEntities: []model.NamedEntity{}}, nil
}

func (stubAnalyzer) Entities(context.Context, string) ([]model.NamedEntity, error) {
	return []model.NamedEntity{}, nil
}

func (stubAnalyzer) Sentences(_ context.Context, text string) ([]string, error) {
	return []string{text}, nil
}

func (stubAnalyzer) Summary(_ context.Context, sentences []string) (string, error) {
	return strings.Join(sentences, " "), nil
}

func (stubAnalyzer) Sentiment(context.Context, string) (float64, error) {
	return 0, nil
}

func newTestRouter(t *testing.T) http.Handler {
	t.Helper()
	log := logger.Nop()
	store := repository.NewMemoryStore()
	if err := store.Save(context.Background(), model.News{ID: "n1", Title: "Noticia"}); err != nil {
		t.Fatalf("Save failed: %v", err)
	}
	m := metrics.New()
	m.SetQueueDepth(2)

	return NewRouter(Config{
		AuthToken: "secret",
		NLP:       handler.NewNLP(stubAnalyzer{}, queue.NewMemoryQueue(4), log),
		News:      handler.NewNews(store, log),
		Cache:     cache.NewManagerWithCache(cache.NewMemoryCache(time.Hour)),
		Metrics:   m.Handler(),
		Logger:    log,
	})
}

func TestRouter(t *testing.T) {
	router := newTestRouter(t)

	tests := []struct {
		name   string
		method string
		path   string
		body   string
		auth   string
		want   int
	}{
		{"health is public", http.MethodGet, "/health", "", "", http.StatusOK},
		{"metrics is public", http.MethodGet, "/metrics", "", "", http.StatusOK},
		{"nlp requires auth", http.MethodPost, "/v1/api/nlp", `{"text":"Hola."}`, "", http.StatusUnauthorized},
		{"nlp", http.MethodPost, "/v1/api/nlp", `{"text":"Hola."}`, "Bearer secret", http.StatusOK},
		{"entities", http.MethodPost, "/v1/api/nlp/entities", `{"text":"Hola."}`, "Bearer secret", http.StatusOK},
		{"summary", http.MethodPost, "/v1/api/nlp/summary", `{"sentences":["Hola."]}`, "Bearer secret", http.StatusOK},
		{"sentiment", http.MethodPost, "/v1/api/nlp/sentiment", `{"text":"Hola."}`, "Bearer secret", http.StatusOK},
		{"hydrate", http.MethodPut, "/v1/api/nlp/hydrate", `{"content":"Hola."}`, "Bearer secret", http.StatusNoContent},
		{"hydrate wrong method", http.MethodPost, "/v1/api/nlp/hydrate", `{"content":"Hola."}`, "Bearer secret", http.StatusMethodNotAllowed},
		{"news list", http.MethodGet, "/v1/api/news", "", "Bearer secret", http.StatusOK},
		{"news get", http.MethodGet, "/v1/api/news/n1", "", "Bearer secret", http.StatusOK},
		{"news missing", http.MethodGet, "/v1/api/news/none", "", "Bearer secret", http.StatusNotFound},
		{"news requires auth", http.MethodGet, "/v1/api/news", "", "Bearer wrong", http.StatusUnauthorized},
		{"cache stats", http.MethodGet, "/v1/api/cache/stats", "", "Bearer secret", http.StatusOK},
		{"unknown route", http.MethodGet, "/nope", "", "", http.StatusNotFound},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(tt.method, tt.path, strings.NewReader(tt.body))
			if tt.auth != "" {
				req.Header.Set("X-API-Key", tt.auth)
			}
			w := httptest.NewRecorder()
			router.ServeHTTP(w, req)

			if w.Code != tt.want {
				t.Errorf("%s %s: expected %d, got %d (%s)", tt.method, tt.path, tt.want, w.Code, w.Body.String())
			}
		})
	}
}

func TestRouter_MetricsBody(t *testing.T) {
	router := newTestRouter(t)

	w := httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/metrics", nil))

	if !strings.Contains(w.Body.String(), "queue_depth 2") {
		t.Errorf("Expected queue_depth gauge in metrics output")
	}
}
