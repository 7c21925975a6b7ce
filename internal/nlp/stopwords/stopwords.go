package stopwords

import (
	_ "embed"
	"strings"
)

//go:embed spanish.txt
var spanishList string

// Set is a read-only set of words. The zero value is an empty set.
type Set struct {
	words map[string]struct{}
}

// NewSet creates a set from the given words as-is
func NewSet(words ...string) Set {
	set := Set{words: make(map[string]struct{}, len(words))}
	for _, w := range words {
		set.words[w] = struct{}{}
	}
	return set
}

// Contains reports whether word is in the set
func (s Set) Contains(word string) bool {
	_, ok := s.words[word]
	return ok
}

// Len returns the number of words in the set
func (s Set) Len() int {
	return len(s.words)
}

var spanish = Parse(spanishList)

// Spanish returns the embedded Spanish stop-word list
func Spanish() Set {
	return spanish
}

// Parse builds a set from newline-delimited words. Blank lines are skipped
// and words are trimmed and lower-cased.
func Parse(list string) Set {
	set := Set{words: make(map[string]struct{})}
	for _, line := range strings.Split(list, "\n") {
		word := strings.ToLower(strings.TrimSpace(line))
		if word == "" {
			continue
		}
		set.words[word] = struct{}{}
	}
	return set
}
