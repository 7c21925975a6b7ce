package lexicon

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"strings"
)

// Lexicon file names expected in every source
const (
	PositiveFile        = "positive_lexicon.txt"
	NegativeFile        = "negative_lexicon.txt"
	BoosterIncreaseFile = "booster_increase.txt"
	BoosterDecreaseFile = "booster_decrease.txt"
)

// ErrMissingLexicon is returned when a source lacks one of the lexicon files
var ErrMissingLexicon = errors.New("lexicon file not found")

// Source opens lexicon files by name. Implementations return an error
// wrapping ErrMissingLexicon when the file does not exist.
type Source interface {
	Open(ctx context.Context, name string) (io.ReadCloser, error)
}

// WordSet is an immutable set of lower-cased words
type WordSet struct {
	words map[string]struct{}
}

// NewWordSet builds a set from the given words, lower-casing them
func NewWordSet(words ...string) WordSet {
	set := WordSet{words: make(map[string]struct{}, len(words))}
	for _, w := range words {
		if w = strings.ToLower(strings.TrimSpace(w)); w != "" {
			set.words[w] = struct{}{}
		}
	}
	return set
}

// Contains reports whether word is in the set
func (s WordSet) Contains(word string) bool {
	_, ok := s.words[word]
	return ok
}

// Len returns the number of words in the set
func (s WordSet) Len() int {
	return len(s.words)
}

// Lexicons holds the four sentiment word lists. It is built once at start-up
// and shared read-only between all hydration jobs.
type Lexicons struct {
	Positive        WordSet
	Negative        WordSet
	BoosterIncrease WordSet
	BoosterDecrease WordSet
}

// Load reads the four lexicon files from src
func Load(ctx context.Context, src Source) (*Lexicons, error) {
	lex := &Lexicons{}
	files := []struct {
		name string
		dst  *WordSet
	}{
		{PositiveFile, &lex.Positive},
		{NegativeFile, &lex.Negative},
		{BoosterIncreaseFile, &lex.BoosterIncrease},
		{BoosterDecreaseFile, &lex.BoosterDecrease},
	}

	for _, f := range files {
		set, err := readWordSet(ctx, src, f.name)
		if err != nil {
			return nil, err
		}
		*f.dst = set
	}
	return lex, nil
}

func readWordSet(ctx context.Context, src Source, name string) (WordSet, error) {
	r, err := src.Open(ctx, name)
	if err != nil {
		return WordSet{}, fmt.Errorf("opening lexicon %s: %w", name, err)
	}
	defer r.Close()

	var words []string
	scanner := bufio.NewScanner(r)
	for scanner.Scan() {
		words = append(words, scanner.Text())
	}
	if err := scanner.Err(); err != nil {
		return WordSet{}, fmt.Errorf("reading lexicon %s: %w", name, err)
	}
	return NewWordSet(words...), nil
}
