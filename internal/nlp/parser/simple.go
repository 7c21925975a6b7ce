package parser

import (
	"context"
	"strings"
	"unicode"

	"golang.org/x/text/unicode/norm"

	"github.com/pep299/news-hydrator/internal/nlp"
)

// spanishAdverbs is the closed list of adverbs recognised by Simple, in
// addition to every word ending in -mente.
var spanishAdverbs = map[string]struct{}{
	"muy": {}, "mucho": {}, "poco": {}, "bastante": {}, "demasiado": {},
	"algo": {}, "apenas": {}, "casi": {}, "tan": {}, "tanto": {},
	"más": {}, "menos": {}, "siempre": {}, "nunca": {}, "jamás": {},
	"ya": {}, "también": {}, "tampoco": {}, "bien": {}, "mal": {},
	"aquí": {}, "allí": {}, "ahí": {}, "hoy": {}, "ayer": {},
	"todavía": {}, "aún": {}, "sólo": {}, "no": {}, "sí": {},
	"pronto": {}, "tarde": {}, "antes": {}, "después": {}, "luego": {},
	"extremadamente": {}, "sumamente": {}, "ligeramente": {},
}

// Simple is a rule based parser used when no external parser is
// configured. It produces flat trees where every adverb modifies the next
// content word, which is enough for booster detection.
type Simple struct{}

// NewSimple creates a rule based parser
func NewSimple() *Simple {
	return &Simple{}
}

// Parse segments and tokenizes text. It never returns entities.
func (p *Simple) Parse(ctx context.Context, text string) (*nlp.Document, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	doc := &nlp.Document{Sentences: []nlp.Sentence{}, Entities: []nlp.Entity{}}
	for _, s := range SplitSentences(norm.NFC.String(text)) {
		doc.Sentences = append(doc.Sentences, nlp.Sentence{
			Text:   s,
			Tokens: tokenize(s),
		})
	}
	return doc, nil
}

// SplitSentences splits text after runs of terminal punctuation that are
// followed by whitespace or the end of the text.
func SplitSentences(text string) []string {
	runes := []rune(text)
	var sentences []string
	start := 0
	for i := 0; i < len(runes); i++ {
		if !isTerminal(runes[i]) {
			continue
		}
		for i+1 < len(runes) && isTerminal(runes[i+1]) {
			i++
		}
		if i+1 == len(runes) || unicode.IsSpace(runes[i+1]) {
			if s := strings.TrimSpace(string(runes[start : i+1])); s != "" {
				sentences = append(sentences, s)
			}
			start = i + 1
		}
	}
	if s := strings.TrimSpace(string(runes[start:])); s != "" {
		sentences = append(sentences, s)
	}
	return sentences
}

func isTerminal(r rune) bool {
	return r == '.' || r == '!' || r == '?' || r == '…'
}

func tokenize(sentence string) []nlp.Token {
	var tokens []nlp.Token
	for _, field := range strings.Fields(sentence) {
		lead, word, trail := splitPunctuation(field)
		for _, p := range lead {
			tokens = append(tokens, punctToken(string(p)))
		}
		if word != "" {
			tokens = append(tokens, wordToken(word))
		}
		for _, p := range trail {
			tokens = append(tokens, punctToken(string(p)))
		}
	}
	attachAdverbs(tokens)
	return tokens
}

// splitPunctuation peels leading and trailing punctuation off a field
func splitPunctuation(field string) (lead, word, trail string) {
	isPunct := func(r rune) bool { return unicode.IsPunct(r) || unicode.IsSymbol(r) }
	word = strings.TrimLeftFunc(field, isPunct)
	lead = field[:len(field)-len(word)]
	trimmed := strings.TrimRightFunc(word, isPunct)
	trail = word[len(trimmed):]
	return lead, trimmed, trail
}

func punctToken(p string) nlp.Token {
	return nlp.Token{Text: p, Lemma: p, POS: nlp.POSPunctuation, Head: -1}
}

func wordToken(word string) nlp.Token {
	lemma := strings.ToLower(word)
	pos := nlp.POSOther
	if isAdverb(lemma) {
		pos = nlp.POSAdverb
	}
	return nlp.Token{Text: word, Lemma: lemma, POS: pos, Head: -1}
}

func isAdverb(lemma string) bool {
	if _, ok := spanishAdverbs[lemma]; ok {
		return true
	}
	return len([]rune(lemma)) > len("mente") && strings.HasSuffix(lemma, "mente")
}

// attachAdverbs makes every adverb a child of the next word that is neither
// an adverb nor punctuation. Adverbs with no such word stay roots.
func attachAdverbs(tokens []nlp.Token) {
	next := -1
	for i := len(tokens) - 1; i >= 0; i-- {
		switch tokens[i].POS {
		case nlp.POSAdverb:
			tokens[i].Head = next
		case nlp.POSPunctuation:
		default:
			next = i
		}
	}
}
