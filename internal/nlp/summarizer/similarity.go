package summarizer

import (
	"math"
	"sort"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/mat"

	"github.com/pep299/news-hydrator/internal/nlp/stopwords"
)

// SimilarityMatrix builds the sentence similarity matrix. Each unordered
// pair is computed once and stored in a symmetric matrix, so entry (i,j)
// always equals (j,i). The diagonal stays 0.
func SimilarityMatrix(sentences [][]string, sw stopwords.Set) *mat.SymDense {
	n := len(sentences)
	if n == 0 {
		return &mat.SymDense{}
	}

	m := mat.NewSymDense(n, nil)
	for i := 0; i < n; i++ {
		for j := i + 1; j < n; j++ {
			m.SetSym(i, j, SentenceSimilarity(sentences[i], sentences[j], sw))
		}
	}
	return m
}

// SentenceSimilarity returns 1 - cosine distance between the term-frequency
// vectors of both sentences over their union vocabulary. Stop-words count
// toward neither vector. An undefined distance (a zero vector) yields 0.
func SentenceSimilarity(a, b []string, sw stopwords.Set) float64 {
	vocab := unionVocabulary(a, b)

	v1 := termFrequencies(a, vocab, sw)
	v2 := termFrequencies(b, vocab, sw)

	distance := 1 - floats.Dot(v1, v2)/(floats.Norm(v1, 2)*floats.Norm(v2, 2))
	if math.IsNaN(distance) {
		return 0
	}
	return 1 - distance
}

func unionVocabulary(a, b []string) map[string]int {
	seen := make(map[string]struct{}, len(a)+len(b))
	for _, w := range a {
		seen[w] = struct{}{}
	}
	for _, w := range b {
		seen[w] = struct{}{}
	}

	words := make([]string, 0, len(seen))
	for w := range seen {
		words = append(words, w)
	}
	sort.Strings(words)

	vocab := make(map[string]int, len(words))
	for i, w := range words {
		vocab[w] = i
	}
	return vocab
}

func termFrequencies(words []string, vocab map[string]int, sw stopwords.Set) []float64 {
	vec := make([]float64, len(vocab))
	for _, w := range words {
		if sw.Contains(w) {
			continue
		}
		vec[vocab[w]]++
	}
	return vec
}
