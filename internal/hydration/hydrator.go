package hydration

import (
	"context"
	"errors"
	"fmt"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/pep299/news-hydrator/internal/cache"
	"github.com/pep299/news-hydrator/internal/model"
	"github.com/pep299/news-hydrator/internal/nlp"
	"github.com/pep299/news-hydrator/internal/nlp/sentiment"
	"github.com/pep299/news-hydrator/internal/nlp/summarizer"
)

// EntityExtractor finds named entities in a text
type EntityExtractor interface {
	ExtractEntities(ctx context.Context, text string) ([]model.NamedEntity, error)
}

// Hydrator runs the NLP pipeline over article texts. All of its
// collaborators are read-only after construction, so one Hydrator is shared
// by every worker goroutine.
type Hydrator struct {
	parser     nlp.Parser
	summarizer *summarizer.Summarizer
	scorer     *sentiment.Scorer
	entities   EntityExtractor
	cache      *cache.Manager
	log        *zap.SugaredLogger
}

// Option customizes a Hydrator
type Option func(*Hydrator)

// WithEntityExtractor replaces the parser's own entities with an external
// extractor.
func WithEntityExtractor(e EntityExtractor) Option {
	return func(h *Hydrator) { h.entities = e }
}

// WithCache caches analyses by text
func WithCache(c *cache.Manager) Option {
	return func(h *Hydrator) { h.cache = c }
}

// WithLogger sets the logger
func WithLogger(log *zap.SugaredLogger) Option {
	return func(h *Hydrator) { h.log = log }
}

// New creates a hydrator
func New(parser nlp.Parser, sum *summarizer.Summarizer, scorer *sentiment.Scorer, opts ...Option) *Hydrator {
	h := &Hydrator{
		parser:     parser,
		summarizer: sum,
		scorer:     scorer,
		log:        zap.NewNop().Sugar(),
	}
	for _, opt := range opts {
		opt(h)
	}
	return h
}

// Hydrate fills the summary, sentiment and entities of news and marks it
// hydrated. The input value is not modified.
func (h *Hydrator) Hydrate(ctx context.Context, news model.News) (model.News, error) {
	analysis, err := h.Analyze(ctx, news.Text())
	if err != nil {
		return news, fmt.Errorf("hydrating news %s: %w", news.ID, err)
	}
	news.Apply(analysis)
	return news, nil
}

// Analyze parses text once and runs summary, sentiment and entity
// extraction concurrently.
func (h *Hydrator) Analyze(ctx context.Context, text string) (model.Analysis, error) {
	if h.cache != nil {
		cached, err := h.cache.GetAnalysis(ctx, text)
		if err == nil {
			return *cached, nil
		}
		if !errors.Is(err, cache.ErrCacheMiss) {
			h.log.Warnw("cache lookup failed", "error", err)
		}
	}

	doc, err := h.parser.Parse(ctx, text)
	if err != nil {
		return model.Analysis{}, fmt.Errorf("parsing: %w", err)
	}

	analysis := model.Analysis{Sentences: doc.Texts()}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		summary, err := h.summarizer.Summarize(analysis.Sentences)
		if err != nil {
			return fmt.Errorf("summarizing: %w", err)
		}
		analysis.Summary = summary
		return nil
	})
	g.Go(func() error {
		analysis.Sentiment = h.scorer.Score(doc.Sentences)
		return nil
	})
	g.Go(func() error {
		entities, err := h.extractEntities(gctx, text, doc)
		if err != nil {
			return fmt.Errorf("extracting entities: %w", err)
		}
		analysis.Entities = entities
		return nil
	})
	if err := g.Wait(); err != nil {
		return model.Analysis{}, err
	}

	if h.cache != nil {
		if err := h.cache.SetAnalysis(ctx, text, analysis); err != nil {
			h.log.Warnw("cache store failed", "error", err)
		}
	}
	return analysis, nil
}

// Process segments text and returns its sentences and entities
func (h *Hydrator) Process(ctx context.Context, text string) (model.NLPDoc, error) {
	doc, err := h.parser.Parse(ctx, text)
	if err != nil {
		return model.NLPDoc{}, fmt.Errorf("parsing: %w", err)
	}
	entities, err := h.extractEntities(ctx, text, doc)
	if err != nil {
		return model.NLPDoc{}, fmt.Errorf("extracting entities: %w", err)
	}
	return model.NLPDoc{Sentences: doc.Texts(), NamedEntities: entities}, nil
}

// Entities returns the named entities of text
func (h *Hydrator) Entities(ctx context.Context, text string) ([]model.NamedEntity, error) {
	doc, err := h.Process(ctx, text)
	if err != nil {
		return nil, err
	}
	return doc.NamedEntities, nil
}

// Sentences segments text without extracting entities
func (h *Hydrator) Sentences(ctx context.Context, text string) ([]string, error) {
	doc, err := h.parser.Parse(ctx, text)
	if err != nil {
		return nil, fmt.Errorf("parsing: %w", err)
	}
	return doc.Texts(), nil
}

// Summary summarizes already segmented sentences
func (h *Hydrator) Summary(_ context.Context, sentences []string) (string, error) {
	return h.summarizer.Summarize(sentences)
}

// Sentiment parses text and returns its sentiment score
func (h *Hydrator) Sentiment(ctx context.Context, text string) (float64, error) {
	doc, err := h.parser.Parse(ctx, text)
	if err != nil {
		return 0, fmt.Errorf("parsing: %w", err)
	}
	return h.scorer.Score(doc.Sentences), nil
}

func (h *Hydrator) extractEntities(ctx context.Context, text string, doc *nlp.Document) ([]model.NamedEntity, error) {
	if h.entities != nil {
		return h.entities.ExtractEntities(ctx, text)
	}
	entities := make([]model.NamedEntity, len(doc.Entities))
	for i, e := range doc.Entities {
		entities[i] = model.NamedEntity{Text: e.Text, Type: e.Type}
	}
	return model.NormalizeEntities(entities), nil
}
