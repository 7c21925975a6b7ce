package nlp

import (
	"context"
	"fmt"
)

// Part-of-speech tags used by the sentiment scorer. Parsers may emit any
// Universal Dependencies tag; only ADV carries meaning here.
const (
	POSAdverb      = "ADV"
	POSPunctuation = "PUNCT"
	POSOther       = "X"
)

// Parser segments raw text into sentences and annotates every token with a
// lemma, a part-of-speech tag and its syntactic head.
type Parser interface {
	Parse(ctx context.Context, text string) (*Document, error)
}

// Document is the parsed form of an article
type Document struct {
	Sentences []Sentence `json:"sentences"`
	Entities  []Entity   `json:"entities"`
}

// Entity is a named entity recognised by the parser
type Entity struct {
	Text string `json:"text"`
	Type string `json:"type"`
}

// Sentence owns its tokens. Token.Head indexes into Tokens, so the
// dependency tree lives entirely inside the slice.
type Sentence struct {
	Text   string  `json:"text"`
	Tokens []Token `json:"tokens"`
}

// Token is a single annotated word
type Token struct {
	Text  string `json:"text"`
	Lemma string `json:"lemma"`
	POS   string `json:"pos"`
	Head  int    `json:"head"` // -1 for the root
}

// IsAdverb reports whether the token is tagged as an adverb
func (t Token) IsAdverb() bool {
	return t.POS == POSAdverb
}

// Children returns the indices of the direct syntactic children of token i
// in ascending token order.
func (s Sentence) Children(i int) []int {
	var children []int
	for j, tok := range s.Tokens {
		if j != i && tok.Head == i {
			children = append(children, j)
		}
	}
	return children
}

// Texts returns the raw text of every sentence
func (d *Document) Texts() []string {
	texts := make([]string, len(d.Sentences))
	for i, s := range d.Sentences {
		texts[i] = s.Text
	}
	return texts
}

// Validate checks that every head points inside the sentence and that the
// head relation has no cycles.
func (s Sentence) Validate() error {
	n := len(s.Tokens)
	for i, tok := range s.Tokens {
		if tok.Head < -1 || tok.Head >= n {
			return fmt.Errorf("token %d: head %d out of range", i, tok.Head)
		}
		if tok.Head == i {
			return fmt.Errorf("token %d: token is its own head", i)
		}
	}

	// Walking up from any token must reach a root within n steps.
	for i := range s.Tokens {
		cur := i
		for steps := 0; cur != -1; steps++ {
			if steps > n {
				return fmt.Errorf("token %d: dependency cycle", i)
			}
			cur = s.Tokens[cur].Head
		}
	}
	return nil
}

// Validate checks every sentence of the document
func (d *Document) Validate() error {
	for i, s := range d.Sentences {
		if err := s.Validate(); err != nil {
			return fmt.Errorf("sentence %d: %w", i, err)
		}
	}
	return nil
}
