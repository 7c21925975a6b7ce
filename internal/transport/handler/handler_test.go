package handler

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/mux"

	"github.com/pep299/news-hydrator/internal/logger"
	"github.com/pep299/news-hydrator/internal/model"
	"github.com/pep299/news-hydrator/internal/queue"
	"github.com/pep299/news-hydrator/internal/repository"
)

type fakeAnalyzer struct {
	err           error
	entitiesErr   error
	lastSentences []string
	processCalls  int
}

func (a *fakeAnalyzer) Process(_ context.Context, text string) (model.NLPDoc, error) {
	a.processCalls++
	if a.err != nil {
		return model.NLPDoc{}, a.err
	}
	if a.entitiesErr != nil {
		return model.NLPDoc{}, a.entitiesErr
	}
	return model.NLPDoc{
		Sentences:     strings.SplitAfter(text, ". "),
		NamedEntities: []model.NamedEntity{{Text: "madrid", Type: "LOC"}},
	}, nil
}

func (a *fakeAnalyzer) Entities(ctx context.Context, text string) ([]model.NamedEntity, error) {
	doc, err := a.Process(ctx, text)
	return doc.NamedEntities, err
}

func (a *fakeAnalyzer) Sentences(_ context.Context, text string) ([]string, error) {
	if a.err != nil {
		return nil, a.err
	}
	return strings.SplitAfter(text, ". "), nil
}

func (a *fakeAnalyzer) Summary(_ context.Context, sentences []string) (string, error) {
	a.lastSentences = sentences
	if a.err != nil {
		return "", a.err
	}
	return sentences[0], nil
}

func (a *fakeAnalyzer) Sentiment(_ context.Context, text string) (float64, error) {
	if a.err != nil {
		return 0, a.err
	}
	return 0.42, nil
}

type failingQueue struct{}

func (failingQueue) Enqueue(context.Context, queue.Job) error { return errors.New("redis down") }

func do(h http.HandlerFunc, method, target, body string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, target, strings.NewReader(body))
	w := httptest.NewRecorder()
	h(w, req)
	return w
}

func TestNLP_Process(t *testing.T) {
	h := NewNLP(&fakeAnalyzer{}, queue.NewMemoryQueue(1), logger.Nop())

	w := do(h.Process, http.MethodPost, "/v1/api/nlp", `{"text":"Hola Madrid. Adiós."}`)
	if w.Code != http.StatusOK {
		t.Fatalf("Expected 200, got %d: %s", w.Code, w.Body.String())
	}

	var doc model.NLPDoc
	if err := json.Unmarshal(w.Body.Bytes(), &doc); err != nil {
		t.Fatalf("Failed to decode response: %v", err)
	}
	if len(doc.Sentences) != 2 || len(doc.NamedEntities) != 1 {
		t.Errorf("Unexpected document: %+v", doc)
	}
	if !strings.Contains(w.Body.String(), `"named_entities"`) {
		t.Errorf("Expected named_entities key, got %s", w.Body.String())
	}
}

func TestNLP_BadRequests(t *testing.T) {
	h := NewNLP(&fakeAnalyzer{}, queue.NewMemoryQueue(1), logger.Nop())

	tests := []struct {
		name    string
		handler http.HandlerFunc
		body    string
	}{
		{"process invalid json", h.Process, `{`},
		{"process missing text", h.Process, `{}`},
		{"entities empty text", h.Entities, `{"text":""}`},
		{"sentiment wrong type", h.Sentiment, `{"text":3}`},
		{"summary nothing", h.Summary, `{"sentences":[]}`},
		{"hydrate without content", h.Hydrate, `{"title":"x"}`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := do(tt.handler, http.MethodPost, "/", tt.body)
			if w.Code != http.StatusBadRequest {
				t.Errorf("Expected 400, got %d", w.Code)
			}
		})
	}
}

func TestNLP_AnalyzerErrors(t *testing.T) {
	h := NewNLP(&fakeAnalyzer{err: errors.New("parser unavailable")}, queue.NewMemoryQueue(1), logger.Nop())

	for name, handler := range map[string]http.HandlerFunc{
		"process":   h.Process,
		"entities":  h.Entities,
		"sentiment": h.Sentiment,
		"summary":   h.Summary,
	} {
		t.Run(name, func(t *testing.T) {
			w := do(handler, http.MethodPost, "/", `{"text":"Algo.","sentences":["Algo."]}`)
			if w.Code != http.StatusInternalServerError {
				t.Errorf("Expected 500, got %d", w.Code)
			}
			if strings.Contains(w.Body.String(), "parser unavailable") {
				t.Error("Expected internal error details to stay out of the response")
			}
		})
	}
}

func TestNLP_Entities(t *testing.T) {
	h := NewNLP(&fakeAnalyzer{}, queue.NewMemoryQueue(1), logger.Nop())

	w := do(h.Entities, http.MethodPost, "/v1/api/nlp/entities", `{"text":"Hola Madrid."}`)
	if w.Code != http.StatusOK {
		t.Fatalf("Expected 200, got %d", w.Code)
	}

	var entities []model.NamedEntity
	if err := json.Unmarshal(w.Body.Bytes(), &entities); err != nil {
		t.Fatalf("Expected a JSON array: %v", err)
	}
	if len(entities) != 1 || entities[0].Text != "madrid" {
		t.Errorf("Unexpected entities: %+v", entities)
	}
}

func TestNLP_Summary(t *testing.T) {
	analyzer := &fakeAnalyzer{}
	h := NewNLP(analyzer, queue.NewMemoryQueue(1), logger.Nop())

	w := do(h.Summary, http.MethodPost, "/", `{"sentences":["Primera frase.","Segunda frase."]}`)
	if w.Code != http.StatusOK {
		t.Fatalf("Expected 200, got %d", w.Code)
	}
	if !strings.Contains(w.Body.String(), `"summary":"Primera frase."`) {
		t.Errorf("Unexpected body: %s", w.Body.String())
	}

	w = do(h.Summary, http.MethodPost, "/", `{"text":"Uno. Dos."}`)
	if w.Code != http.StatusOK {
		t.Fatalf("Expected 200, got %d", w.Code)
	}
	if len(analyzer.lastSentences) != 2 {
		t.Errorf("Expected text to be segmented into 2 sentences, got %v", analyzer.lastSentences)
	}
}

func TestNLP_SummaryDoesNotExtractEntities(t *testing.T) {
	analyzer := &fakeAnalyzer{entitiesErr: errors.New("gemini down")}
	h := NewNLP(analyzer, queue.NewMemoryQueue(1), logger.Nop())

	w := do(h.Summary, http.MethodPost, "/", `{"text":"Uno. Dos."}`)
	if w.Code != http.StatusOK {
		t.Fatalf("Expected 200 while entity extraction is down, got %d: %s", w.Code, w.Body.String())
	}
	if analyzer.processCalls != 0 {
		t.Errorf("Expected summary not to run entity extraction, got %d Process calls", analyzer.processCalls)
	}
}

func TestNLP_Sentiment(t *testing.T) {
	h := NewNLP(&fakeAnalyzer{}, queue.NewMemoryQueue(1), logger.Nop())

	w := do(h.Sentiment, http.MethodPost, "/", `{"text":"Muy bueno."}`)
	if w.Code != http.StatusOK {
		t.Fatalf("Expected 200, got %d", w.Code)
	}

	var result sentimentResponse
	if err := json.Unmarshal(w.Body.Bytes(), &result); err != nil {
		t.Fatalf("Failed to decode response: %v", err)
	}
	if result.Sentiment != 0.42 {
		t.Errorf("Expected 0.42, got %v", result.Sentiment)
	}
}

func TestNLP_Hydrate(t *testing.T) {
	q := queue.NewMemoryQueue(1)
	h := NewNLP(&fakeAnalyzer{}, q, logger.Nop())

	body := `{"title":"Titular","content":"Contenido de la noticia.","categories":["España"],"date":1700000000,"entities":null}`
	w := do(h.Hydrate, http.MethodPut, "/v1/api/nlp/hydrate", body)
	if w.Code != http.StatusNoContent {
		t.Fatalf("Expected 204, got %d: %s", w.Code, w.Body.String())
	}

	job, err := q.Dequeue(context.Background(), time.Second)
	if err != nil {
		t.Fatalf("Expected a queued job: %v", err)
	}
	if job.News.ID == "" {
		t.Error("Expected an ID to be assigned")
	}
	if job.News.Title != "Titular" || job.News.Date != 1700000000 || job.News.Hydrated {
		t.Errorf("Unexpected queued news: %+v", job.News)
	}
}

func TestNLP_HydrateQueueFailure(t *testing.T) {
	h := NewNLP(&fakeAnalyzer{}, failingQueue{}, logger.Nop())

	w := do(h.Hydrate, http.MethodPut, "/", `{"content":"Texto."}`)
	if w.Code != http.StatusServiceUnavailable {
		t.Errorf("Expected 503, got %d", w.Code)
	}
}

func seedStore(t *testing.T) *repository.MemoryStore {
	t.Helper()
	store := repository.NewMemoryStore()
	for _, n := range []model.News{
		{ID: "a", Title: "A", Date: 1, Source: "ABC"},
		{ID: "b", Title: "B", Date: 2, Source: "ABC", Hydrated: true},
		{ID: "c", Title: "C", Date: 3, Source: "El Confidencial", Hydrated: true},
	} {
		if err := store.Save(context.Background(), n); err != nil {
			t.Fatalf("Save failed: %v", err)
		}
	}
	return store
}

func TestNews_List(t *testing.T) {
	h := NewNews(seedStore(t), logger.Nop())

	tests := []struct {
		query string
		code  int
		ids   string
	}{
		{"", http.StatusOK, "c,b,a"},
		{"?hydrated=true", http.StatusOK, "c,b"},
		{"?source=ABC&limit=1", http.StatusOK, "b"},
		{"?hydrated=maybe", http.StatusBadRequest, ""},
		{"?limit=-1", http.StatusBadRequest, ""},
	}
	for _, tt := range tests {
		t.Run(tt.query, func(t *testing.T) {
			w := do(h.List, http.MethodGet, "/v1/api/news"+tt.query, "")
			if w.Code != tt.code {
				t.Fatalf("Expected %d, got %d", tt.code, w.Code)
			}
			if tt.code != http.StatusOK {
				return
			}

			var news []model.News
			if err := json.Unmarshal(w.Body.Bytes(), &news); err != nil {
				t.Fatalf("Failed to decode response: %v", err)
			}
			var ids []string
			for _, n := range news {
				ids = append(ids, n.ID)
			}
			if got := strings.Join(ids, ","); got != tt.ids {
				t.Errorf("Expected %s, got %s", tt.ids, got)
			}
		})
	}
}

func TestNews_Get(t *testing.T) {
	h := NewNews(seedStore(t), logger.Nop())

	router := mux.NewRouter()
	router.HandleFunc("/v1/api/news/{id}", h.Get)

	w := httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/v1/api/news/b", nil))
	if w.Code != http.StatusOK {
		t.Fatalf("Expected 200, got %d", w.Code)
	}
	var news model.News
	if err := json.Unmarshal(w.Body.Bytes(), &news); err != nil {
		t.Fatalf("Failed to decode response: %v", err)
	}
	if news.ID != "b" || !news.Hydrated {
		t.Errorf("Unexpected news: %+v", news)
	}

	w = httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/v1/api/news/zzz", nil))
	if w.Code != http.StatusNotFound {
		t.Errorf("Expected 404, got %d", w.Code)
	}
}

func TestHealth(t *testing.T) {
	w := do(Health("1.2.3"), http.MethodGet, "/health", "")
	if w.Code != http.StatusOK {
		t.Fatalf("Expected 200, got %d", w.Code)
	}
	if !strings.Contains(w.Body.String(), `"version":"1.2.3"`) {
		t.Errorf("Unexpected body: %s", w.Body.String())
	}
}
