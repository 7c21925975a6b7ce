package model

import (
	"strings"

	"github.com/google/uuid"
)

// News is an ingested article and, once hydrated, its derived NLP fields
type News struct {
	ID         string        `json:"id"`
	Title      string        `json:"title"`
	Content    string        `json:"content"`
	Categories []string      `json:"categories"`
	Date       float64       `json:"date"` // unix seconds
	Source     string        `json:"source"`
	Link       string        `json:"link"`
	Hydrated   bool          `json:"hydrated"`
	Summary    *string       `json:"summary"`
	Sentiment  *float64      `json:"sentiment"`
	Entities   []NamedEntity `json:"entities"`
}

// NamedEntity is an entity mentioned in the article
type NamedEntity struct {
	Text string `json:"text"`
	Type string `json:"type"`
}

// NLPDoc is the response of the text processing endpoint
type NLPDoc struct {
	Sentences     []string      `json:"sentences"`
	NamedEntities []NamedEntity `json:"named_entities"`
}

// EnsureID assigns a random ID when the news has none and returns it
func (n *News) EnsureID() string {
	if n.ID == "" {
		n.ID = uuid.NewString()
	}
	return n.ID
}

// Text is the text that gets hydrated
func (n News) Text() string {
	return n.Content
}

// NormalizeEntities lower-cases entity texts and drops repeated text/type
// pairs, keeping the first occurrence.
func NormalizeEntities(entities []NamedEntity) []NamedEntity {
	seen := make(map[NamedEntity]struct{}, len(entities))
	result := make([]NamedEntity, 0, len(entities))
	for _, e := range entities {
		e.Text = strings.ToLower(strings.TrimSpace(e.Text))
		if e.Text == "" {
			continue
		}
		if _, ok := seen[e]; ok {
			continue
		}
		seen[e] = struct{}{}
		result = append(result, e)
	}
	return result
}

// Analysis is the result of running the NLP pipeline over a text
type Analysis struct {
	Sentences []string      `json:"sentences"`
	Summary   string        `json:"summary"`
	Sentiment float64       `json:"sentiment"`
	Entities  []NamedEntity `json:"entities"`
}

// Apply copies the analysis into the news and marks it hydrated
func (n *News) Apply(a Analysis) {
	summary := a.Summary
	sentiment := a.Sentiment
	n.Summary = &summary
	n.Sentiment = &sentiment
	n.Entities = a.Entities
	n.Hydrated = true
}
