package hydration

import (
	"context"
	"errors"
	"math"
	"reflect"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/pep299/news-hydrator/internal/cache"
	"github.com/pep299/news-hydrator/internal/model"
	"github.com/pep299/news-hydrator/internal/nlp"
	"github.com/pep299/news-hydrator/internal/nlp/lexicon"
	"github.com/pep299/news-hydrator/internal/nlp/parser"
	"github.com/pep299/news-hydrator/internal/nlp/sentiment"
	"github.com/pep299/news-hydrator/internal/nlp/stopwords"
	"github.com/pep299/news-hydrator/internal/nlp/summarizer"
)

const article = "Esta frase aporta significado. De eso y esto y lo otro pero nada. " +
	"De eso y esto y la otra frase pero nada. Una frase diferente pero con mucha importancia. " +
	"Esta frase aporta significado y significado."

// countingParser wraps a parser and counts calls
type countingParser struct {
	nlp.Parser
	calls int32
}

func (p *countingParser) Parse(ctx context.Context, text string) (*nlp.Document, error) {
	atomic.AddInt32(&p.calls, 1)
	return p.Parser.Parse(ctx, text)
}

type failingParser struct{}

func (failingParser) Parse(context.Context, string) (*nlp.Document, error) {
	return nil, errors.New("parser down")
}

// staticParser returns a fixed document
type staticParser struct {
	doc *nlp.Document
}

func (p staticParser) Parse(context.Context, string) (*nlp.Document, error) {
	return p.doc, nil
}

type mockExtractor struct {
	entities []model.NamedEntity
	err      error
}

func (m mockExtractor) ExtractEntities(context.Context, string) ([]model.NamedEntity, error) {
	return m.entities, m.err
}

func testScorer() *sentiment.Scorer {
	return sentiment.NewScorer(&lexicon.Lexicons{
		Positive:        lexicon.NewWordSet("importancia", "significado"),
		Negative:        lexicon.NewWordSet("nada"),
		BoosterIncrease: lexicon.NewWordSet("mucha"),
		BoosterDecrease: lexicon.NewWordSet(),
	})
}

func newTestHydrator(p nlp.Parser, opts ...Option) *Hydrator {
	sum := summarizer.New(stopwords.Spanish(), summarizer.DefaultConfig())
	return New(p, sum, testScorer(), opts...)
}

func TestHydrate(t *testing.T) {
	h := newTestHydrator(parser.NewSimple())

	news := model.News{ID: "n1", Title: "t", Content: article}
	hydrated, err := h.Hydrate(context.Background(), news)
	if err != nil {
		t.Fatalf("Hydrate failed: %v", err)
	}

	if !hydrated.Hydrated {
		t.Error("Expected news to be marked hydrated")
	}
	if news.Hydrated || news.Summary != nil {
		t.Error("Expected input news to be left untouched")
	}

	want := "Esta frase aporta significado. Una frase diferente pero con mucha importancia."
	if hydrated.Summary == nil || *hydrated.Summary != want {
		t.Errorf("Expected summary %q, got %v", want, hydrated.Summary)
	}

	// +1, -1, -1, +1, +2 per sentence with no boosters
	expected := 0.25 - 0.25 - 0.25 + 0.25 + 2/math.Sqrt(19)
	if hydrated.Sentiment == nil || math.Abs(*hydrated.Sentiment-expected) > 1e-12 {
		t.Errorf("Expected sentiment %f, got %v", expected, hydrated.Sentiment)
	}
	if len(hydrated.Entities) != 0 {
		t.Errorf("Expected no entities from simple parser, got %v", hydrated.Entities)
	}
}

func TestAnalyze_ParserEntities(t *testing.T) {
	doc := &nlp.Document{
		Sentences: []nlp.Sentence{{Text: "Ana vive en Madrid.", Tokens: []nlp.Token{
			{Text: "Ana", Lemma: "Ana", POS: "PROPN", Head: 1},
			{Text: "vive", Lemma: "vivir", POS: "VERB", Head: -1},
		}}},
		Entities: []nlp.Entity{{Text: "Ana", Type: "PER"}, {Text: "ANA", Type: "PER"}, {Text: "Madrid", Type: "LOC"}},
	}
	h := newTestHydrator(staticParser{doc: doc})

	analysis, err := h.Analyze(context.Background(), "Ana vive en Madrid.")
	if err != nil {
		t.Fatalf("Analyze failed: %v", err)
	}
	want := []model.NamedEntity{{Text: "ana", Type: "PER"}, {Text: "madrid", Type: "LOC"}}
	if !reflect.DeepEqual(analysis.Entities, want) {
		t.Errorf("Expected %+v, got %+v", want, analysis.Entities)
	}
	if analysis.Summary != "Ana vive en Madrid." {
		t.Errorf("Expected single sentence summary, got %q", analysis.Summary)
	}
}

func TestAnalyze_ExternalExtractor(t *testing.T) {
	extracted := []model.NamedEntity{{Text: "españa", Type: "LOC"}}
	h := newTestHydrator(parser.NewSimple(), WithEntityExtractor(mockExtractor{entities: extracted}))

	analysis, err := h.Analyze(context.Background(), "Viaje a España.")
	if err != nil {
		t.Fatalf("Analyze failed: %v", err)
	}
	if !reflect.DeepEqual(analysis.Entities, extracted) {
		t.Errorf("Expected extractor entities, got %+v", analysis.Entities)
	}
}

func TestAnalyze_Errors(t *testing.T) {
	tests := []struct {
		name string
		h    *Hydrator
		want string
	}{
		{"parser", newTestHydrator(failingParser{}), "parser down"},
		{"extractor", newTestHydrator(parser.NewSimple(), WithEntityExtractor(mockExtractor{err: errors.New("quota")})), "quota"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := tt.h.Analyze(context.Background(), article)
			if err == nil || !strings.Contains(err.Error(), tt.want) {
				t.Errorf("Expected error containing %q, got %v", tt.want, err)
			}
		})
	}
}

func TestHydrate_ErrorKeepsNews(t *testing.T) {
	h := newTestHydrator(failingParser{})
	news := model.News{ID: "n1", Content: "x"}

	got, err := h.Hydrate(context.Background(), news)
	if err == nil {
		t.Fatal("Expected error")
	}
	if !strings.Contains(err.Error(), "n1") {
		t.Errorf("Expected news ID in error, got %v", err)
	}
	if got.Hydrated {
		t.Error("Expected failed hydration to leave news unhydrated")
	}
}

func TestAnalyze_Cache(t *testing.T) {
	manager, err := cache.NewManager("memory", time.Hour)
	if err != nil {
		t.Fatalf("Failed to create cache: %v", err)
	}
	defer manager.Close()

	p := &countingParser{Parser: parser.NewSimple()}
	h := newTestHydrator(p, WithCache(manager))

	first, err := h.Analyze(context.Background(), article)
	if err != nil {
		t.Fatalf("Analyze failed: %v", err)
	}
	second, err := h.Analyze(context.Background(), article)
	if err != nil {
		t.Fatalf("Analyze failed: %v", err)
	}

	if got := atomic.LoadInt32(&p.calls); got != 1 {
		t.Errorf("Expected parser to run once, ran %d times", got)
	}
	if !reflect.DeepEqual(first, second) {
		t.Errorf("Expected cached analysis to match, got %+v and %+v", first, second)
	}
}

func TestProcessAndHelpers(t *testing.T) {
	h := newTestHydrator(parser.NewSimple())
	ctx := context.Background()

	doc, err := h.Process(ctx, article)
	if err != nil {
		t.Fatalf("Process failed: %v", err)
	}
	if len(doc.Sentences) != 5 {
		t.Errorf("Expected 5 sentences, got %d", len(doc.Sentences))
	}

	summary, err := h.Summary(ctx, doc.Sentences)
	if err != nil {
		t.Fatalf("Summary failed: %v", err)
	}
	if !strings.Contains(summary, "Una frase diferente pero con mucha importancia.") {
		t.Errorf("Unexpected summary %q", summary)
	}

	score, err := h.Sentiment(ctx, "Tiene mucha importancia.")
	if err != nil {
		t.Fatalf("Sentiment failed: %v", err)
	}
	if score <= 0 {
		t.Errorf("Expected positive sentiment, got %f", score)
	}

	entities, err := h.Entities(ctx, article)
	if err != nil {
		t.Fatalf("Entities failed: %v", err)
	}
	if len(entities) != 0 {
		t.Errorf("Expected no entities, got %v", entities)
	}
}

func TestSentences_SkipsEntityExtraction(t *testing.T) {
	h := newTestHydrator(parser.NewSimple(), WithEntityExtractor(mockExtractor{err: errors.New("gemini down")}))

	sentences, err := h.Sentences(context.Background(), article)
	if err != nil {
		t.Fatalf("Sentences failed: %v", err)
	}
	if len(sentences) != 5 {
		t.Errorf("Expected 5 sentences, got %d", len(sentences))
	}

	if _, err := h.Process(context.Background(), article); err == nil {
		t.Error("Expected Process to surface the extractor error")
	}
	if _, err := newTestHydrator(failingParser{}).Sentences(context.Background(), article); err == nil {
		t.Error("Expected parser error")
	}
}
