package stopwords

import "testing"

func TestSpanish(t *testing.T) {
	set := Spanish()

	if set.Len() != 313 {
		t.Errorf("Expected 313 stop-words, got %d", set.Len())
	}

	for _, word := range []string{"de", "y", "esta", "pero", "nada", "estuviésemos"} {
		if !set.Contains(word) {
			t.Errorf("Expected %q to be a stop-word", word)
		}
	}

	for _, word := range []string{"frase", "significado", "importancia", ""} {
		if set.Contains(word) {
			t.Errorf("Expected %q not to be a stop-word", word)
		}
	}
}

func TestParse(t *testing.T) {
	set := Parse("  Uno \n\ndos\r\nTRES\n")

	if set.Len() != 3 {
		t.Fatalf("Expected 3 words, got %d", set.Len())
	}
	for _, word := range []string{"uno", "dos", "tres"} {
		if !set.Contains(word) {
			t.Errorf("Expected %q in set", word)
		}
	}
}

func TestZeroSet(t *testing.T) {
	var set Set
	if set.Len() != 0 || set.Contains("de") {
		t.Error("Expected the zero set to be empty")
	}
}

func TestNewSet(t *testing.T) {
	words := []string{"el", "la"}
	set := NewSet(words...)
	words[0] = "los"

	if !set.Contains("el") || set.Contains("los") {
		t.Error("Expected set to keep its own copy of the words")
	}
	if set.Len() != 2 {
		t.Errorf("Expected 2 words, got %d", set.Len())
	}
}

func TestSpanish_SharedListIsStable(t *testing.T) {
	first := Spanish()
	_ = Parse("frase\nsignificado")
	second := Spanish()

	if first.Len() != second.Len() || second.Contains("frase") {
		t.Errorf("Expected the embedded list to stay unchanged, got %d words", second.Len())
	}
}
