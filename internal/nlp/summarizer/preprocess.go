package summarizer

import (
	"strings"

	"golang.org/x/text/unicode/norm"

	"github.com/pep299/news-hydrator/internal/nlp/stopwords"
)

// asciiPunctuation matches the ASCII punctuation class. Inverted marks such
// as ¿ and ¡ are deliberately kept as part of the word.
const asciiPunctuation = "!\"#$%&'()*+,-./:;<=>?@[\\]^_`{|}~"

// Prepared is a sentence reduced to normalized words plus its entropy
type Prepared struct {
	Words   []string
	Entropy float64
}

// Preprocess normalizes every sentence and computes its entropy
func Preprocess(sentences []string, sw stopwords.Set) []Prepared {
	prepared := make([]Prepared, len(sentences))
	for i, sentence := range sentences {
		words := Words(sentence)
		prepared[i] = Prepared{
			Words:   words,
			Entropy: Entropy(words, sw),
		}
	}
	return prepared
}

// Words splits a sentence on single spaces, strips ASCII punctuation from
// every word and lower-cases it. Words left empty, such as a standalone dash
// or the gap between two spaces, are kept: they count as content words and
// as a shared term between sentences.
func Words(sentence string) []string {
	fields := strings.Split(norm.NFC.String(sentence), " ")
	words := make([]string, len(fields))
	for i, field := range fields {
		words[i] = strings.ToLower(stripPunctuation(field))
	}
	return words
}

// Entropy is the fraction of words that are not stop-words. A sentence with
// no words has entropy 0.
func Entropy(words []string, sw stopwords.Set) float64 {
	if len(words) == 0 {
		return 0
	}
	content := 0
	for _, w := range words {
		if !sw.Contains(w) {
			content++
		}
	}
	return float64(content) / float64(len(words))
}

func stripPunctuation(word string) string {
	return strings.Map(func(r rune) rune {
		if r < 0x80 && strings.ContainsRune(asciiPunctuation, r) {
			return -1
		}
		return r
	}, word)
}
