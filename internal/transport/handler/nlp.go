package handler

import (
	"context"
	"encoding/json"
	"net/http"

	"go.uber.org/zap"

	"github.com/pep299/news-hydrator/internal/model"
	"github.com/pep299/news-hydrator/internal/queue"
	"github.com/pep299/news-hydrator/internal/transport/response"
)

const maxBodyBytes = 1 << 20

// Analyzer is the NLP surface exposed over HTTP
type Analyzer interface {
	Process(ctx context.Context, text string) (model.NLPDoc, error)
	Entities(ctx context.Context, text string) ([]model.NamedEntity, error)
	Sentences(ctx context.Context, text string) ([]string, error)
	Summary(ctx context.Context, sentences []string) (string, error)
	Sentiment(ctx context.Context, text string) (float64, error)
}

// Enqueuer accepts hydration jobs
type Enqueuer interface {
	Enqueue(ctx context.Context, job queue.Job) error
}

// NLP serves the text analysis endpoints
type NLP struct {
	analyzer Analyzer
	queue    Enqueuer
	log      *zap.SugaredLogger
}

// NewNLP creates the NLP handler
func NewNLP(analyzer Analyzer, q Enqueuer, log *zap.SugaredLogger) *NLP {
	return &NLP{analyzer: analyzer, queue: q, log: log}
}

type textRequest struct {
	Text string `json:"text"`
}

type summaryRequest struct {
	Sentences []string `json:"sentences"`
	Text      string   `json:"text"`
}

type summaryResponse struct {
	Summary string `json:"summary"`
}

type sentimentResponse struct {
	Sentiment float64 `json:"sentiment"`
}

type hydrateRequest struct {
	ID         string              `json:"id"`
	Title      string              `json:"title"`
	Content    string              `json:"content"`
	Categories []string            `json:"categories"`
	Date       float64             `json:"date"`
	Source     string              `json:"source"`
	Link       string              `json:"link"`
	Entities   []model.NamedEntity `json:"entities"`
}

// Process returns the sentences and entities of a text
func (h *NLP) Process(w http.ResponseWriter, r *http.Request) {
	text, ok := h.decodeText(w, r)
	if !ok {
		return
	}

	doc, err := h.analyzer.Process(r.Context(), text)
	if err != nil {
		h.log.Errorw("Failed to process text", "error", err)
		response.WriteInternalError(w, "failed to process text")
		return
	}
	response.WriteOK(w, doc)
}

// Entities returns the named entities of a text as a JSON array
func (h *NLP) Entities(w http.ResponseWriter, r *http.Request) {
	text, ok := h.decodeText(w, r)
	if !ok {
		return
	}

	entities, err := h.analyzer.Entities(r.Context(), text)
	if err != nil {
		h.log.Errorw("Failed to extract entities", "error", err)
		response.WriteInternalError(w, "failed to extract entities")
		return
	}
	if entities == nil {
		entities = []model.NamedEntity{}
	}
	response.WriteOK(w, entities)
}

// Summary summarizes the given sentences, or the sentences of the given text
func (h *NLP) Summary(w http.ResponseWriter, r *http.Request) {
	var req summaryRequest
	if err := decode(w, r, &req); err != nil {
		response.WriteBadRequest(w, "invalid request body")
		return
	}

	sentences := req.Sentences
	if len(sentences) == 0 {
		if req.Text == "" {
			response.WriteBadRequest(w, "sentences or text is required")
			return
		}
		segmented, err := h.analyzer.Sentences(r.Context(), req.Text)
		if err != nil {
			h.log.Errorw("Failed to segment text", "error", err)
			response.WriteInternalError(w, "failed to segment text")
			return
		}
		sentences = segmented
	}

	summary, err := h.analyzer.Summary(r.Context(), sentences)
	if err != nil {
		h.log.Errorw("Failed to summarize", "sentences", len(sentences), "error", err)
		response.WriteInternalError(w, "failed to summarize")
		return
	}
	response.WriteOK(w, summaryResponse{Summary: summary})
}

// Sentiment scores a text
func (h *NLP) Sentiment(w http.ResponseWriter, r *http.Request) {
	text, ok := h.decodeText(w, r)
	if !ok {
		return
	}

	score, err := h.analyzer.Sentiment(r.Context(), text)
	if err != nil {
		h.log.Errorw("Failed to score sentiment", "error", err)
		response.WriteInternalError(w, "failed to score sentiment")
		return
	}
	response.WriteOK(w, sentimentResponse{Sentiment: score})
}

// Hydrate enqueues a news for hydration and replies 204
func (h *NLP) Hydrate(w http.ResponseWriter, r *http.Request) {
	var req hydrateRequest
	if err := decode(w, r, &req); err != nil {
		response.WriteBadRequest(w, "invalid request body")
		return
	}
	if req.Content == "" {
		response.WriteBadRequest(w, "content is required")
		return
	}

	news := model.News{
		ID:         req.ID,
		Title:      req.Title,
		Content:    req.Content,
		Categories: req.Categories,
		Date:       req.Date,
		Source:     req.Source,
		Link:       req.Link,
		Entities:   req.Entities,
	}
	news.EnsureID()

	if err := h.queue.Enqueue(r.Context(), queue.NewJob(news)); err != nil {
		h.log.Errorw("Failed to enqueue hydration", "news", news.ID, "error", err)
		response.WriteUnavailable(w, "failed to enqueue hydration")
		return
	}
	h.log.Infow("Hydration enqueued", "news", news.ID, "title", news.Title)
	response.WriteNoContent(w)
}

func (h *NLP) decodeText(w http.ResponseWriter, r *http.Request) (string, bool) {
	var req textRequest
	if err := decode(w, r, &req); err != nil {
		response.WriteBadRequest(w, "invalid request body")
		return "", false
	}
	if req.Text == "" {
		response.WriteBadRequest(w, "text is required")
		return "", false
	}
	return req.Text, true
}

func decode(w http.ResponseWriter, r *http.Request, v interface{}) error {
	return json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes)).Decode(v)
}
