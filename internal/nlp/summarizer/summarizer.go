package summarizer

import (
	"fmt"
	"math"
	"sort"
	"strings"

	"gonum.org/v1/gonum/mat"

	"github.com/pep299/news-hydrator/internal/nlp/stopwords"
)

// Config holds the ranking parameters
type Config struct {
	Damping             float64
	Tolerance           float64
	MaxIterations       int
	SimilarityThreshold float64 // qualifiers above this similarity are duplicates
	MinSentences        int
	MaxSentences        int
}

// DefaultConfig returns the standard summarizer configuration
func DefaultConfig() Config {
	return Config{
		Damping:             0.85,
		Tolerance:           1e-6,
		MaxIterations:       100,
		SimilarityThreshold: 0.75,
		MinSentences:        2,
		MaxSentences:        10,
	}
}

// Summarizer builds extractive summaries. It is safe for concurrent use:
// every call works on its own matrices and the stop-word set is read-only.
type Summarizer struct {
	stopwords stopwords.Set
	config    Config
}

// New creates a summarizer using the given stop-words
func New(sw stopwords.Set, cfg Config) *Summarizer {
	return &Summarizer{stopwords: sw, config: cfg}
}

// Summarize returns the selected sentences in document order joined by a
// single space. No sentences yield an empty summary.
func (s *Summarizer) Summarize(sentences []string) (string, error) {
	selected, err := s.Select(sentences)
	if err != nil {
		return "", err
	}

	parts := make([]string, len(selected))
	for i, idx := range selected {
		parts[i] = sentences[idx]
	}
	return strings.Join(parts, " "), nil
}

// Select ranks the sentences and returns the indices of the summary
// sentences in ascending (document) order.
func (s *Summarizer) Select(sentences []string) ([]int, error) {
	n := len(sentences)
	if n == 0 {
		return nil, nil
	}

	prepared := Preprocess(sentences, s.stopwords)
	words := make([][]string, n)
	for i, p := range prepared {
		words[i] = p.Words
	}

	similarity := SimilarityMatrix(words, s.stopwords)

	ranks, err := PageRank(similarity, s.config.Damping, s.config.Tolerance, s.config.MaxIterations)
	if err != nil {
		return nil, fmt.Errorf("ranking %d sentences: %w", n, err)
	}

	scores := make([]float64, n)
	for i := range scores {
		scores[i] = ranks[i] * prepared[i].Entropy
	}

	ranked := rankOrder(scores)
	length := s.SummaryLength(n)
	if length > n {
		length = n
	}

	qualifiers := append([]int(nil), ranked[:length]...)
	nonQualifiers := append([]int(nil), ranked[length:]...)

	qualifiers = s.deduplicate(qualifiers, nonQualifiers, similarity, scores)

	sort.Ints(qualifiers)
	return qualifiers, nil
}

// SummaryLength is round(n/4) with halves rounded to even, clamped to the
// configured bounds.
func (s *Summarizer) SummaryLength(n int) int {
	length := int(math.RoundToEven(float64(n) / 4))
	if length < s.config.MinSentences {
		length = s.config.MinSentences
	}
	if length > s.config.MaxSentences {
		length = s.config.MaxSentences
	}
	return length
}

// deduplicate replaces the lower scored member of every qualifier pair whose
// similarity exceeds the threshold with the best remaining non-qualifier.
// Every pass consumes one non-qualifier, so the loop runs at most
// len(nonQualifiers) times.
func (s *Summarizer) deduplicate(qualifiers, nonQualifiers []int, similarity mat.Symmetric, scores []float64) []int {
	visited := make(map[[2]int]struct{})

	for len(nonQualifiers) > 0 {
		a, b, found := s.similarPair(qualifiers, similarity, visited)
		if !found {
			break
		}
		visited[pairKey(qualifiers[a], qualifiers[b])] = struct{}{}

		drop := b
		if scores[qualifiers[a]] < scores[qualifiers[b]] {
			drop = a
		}
		qualifiers = append(qualifiers[:drop], qualifiers[drop+1:]...)
		qualifiers = append(qualifiers, nonQualifiers[0])
		nonQualifiers = nonQualifiers[1:]
	}
	return qualifiers
}

// similarPair returns the positions of the first unvisited qualifier pair,
// in rank order, whose similarity exceeds the threshold.
func (s *Summarizer) similarPair(qualifiers []int, similarity mat.Symmetric, visited map[[2]int]struct{}) (int, int, bool) {
	for a := 0; a < len(qualifiers); a++ {
		for b := a + 1; b < len(qualifiers); b++ {
			if _, seen := visited[pairKey(qualifiers[a], qualifiers[b])]; seen {
				continue
			}
			if similarity.At(qualifiers[a], qualifiers[b]) > s.config.SimilarityThreshold {
				return a, b, true
			}
		}
	}
	return 0, 0, false
}

func pairKey(i, j int) [2]int {
	if i > j {
		i, j = j, i
	}
	return [2]int{i, j}
}

// rankOrder returns sentence indices by descending score. Ties keep
// document order.
func rankOrder(scores []float64) []int {
	order := make([]int, len(scores))
	for i := range order {
		order[i] = i
	}
	sort.SliceStable(order, func(a, b int) bool {
		return scores[order[a]] > scores[order[b]]
	})
	return order
}
