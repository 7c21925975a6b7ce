package sentiment

import (
	"math"
	"strings"

	"github.com/pep299/news-hydrator/internal/nlp"
	"github.com/pep299/news-hydrator/internal/nlp/lexicon"
)

const (
	increaseFactor = 1.2
	decreaseFactor = 0.8

	// saturation controls how quickly a sentence score approaches ±1
	saturation = 15
)

// Scorer computes lexicon based sentiment over dependency parsed sentences.
// The lexicons are shared read-only, so one Scorer serves every job.
type Scorer struct {
	lexicons *lexicon.Lexicons
}

// NewScorer creates a scorer over the given lexicons
func NewScorer(lex *lexicon.Lexicons) *Scorer {
	return &Scorer{lexicons: lex}
}

// Score returns the sum of the normalized sentence scores. The result is
// unbounded: longer texts accumulate larger magnitudes.
func (s *Scorer) Score(sentences []nlp.Sentence) float64 {
	total := 0.0
	for _, sentence := range sentences {
		total += s.SentenceScore(sentence)
	}
	return total
}

// SentenceScore sums the token scores of a sentence and squashes the sum
// into (-1, 1) with s / sqrt(s² + 15).
func (s *Scorer) SentenceScore(sentence nlp.Sentence) float64 {
	sum := 0.0
	for i := range sentence.Tokens {
		sum += s.TokenScore(sentence, i)
	}
	return sum / math.Sqrt(sum*sum+saturation)
}

// TokenScore returns the polarity of token i (-1, +1 or 0) multiplied by
// every booster adverb among its direct children, in child order.
func (s *Scorer) TokenScore(sentence nlp.Sentence, i int) float64 {
	lemma := strings.ToLower(sentence.Tokens[i].Lemma)

	var score float64
	switch {
	case s.lexicons.Negative.Contains(lemma):
		score = -1
	case s.lexicons.Positive.Contains(lemma):
		score = 1
	default:
		return 0
	}

	for _, c := range sentence.Children(i) {
		child := sentence.Tokens[c]
		if !child.IsAdverb() {
			continue
		}
		childLemma := strings.ToLower(child.Lemma)
		switch {
		case s.lexicons.BoosterIncrease.Contains(childLemma):
			score *= increaseFactor
		case s.lexicons.BoosterDecrease.Contains(childLemma):
			score *= decreaseFactor
		}
	}
	return score
}
