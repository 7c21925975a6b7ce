package lexicon

import (
	"context"
	"errors"
	"testing"
	"testing/fstest"
)

func testFS() fstest.MapFS {
	return fstest.MapFS{
		PositiveFile:        {Data: []byte("bueno\nExcelente\n\n  feliz  \n")},
		NegativeFile:        {Data: []byte("malo\r\nterrible\n")},
		BoosterIncreaseFile: {Data: []byte("muy\nbastante\n")},
		BoosterDecreaseFile: {Data: []byte("poco\nalgo\n")},
	}
}

func TestLoad(t *testing.T) {
	lex, err := Load(context.Background(), NewFSSource(testFS()))
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}

	if lex.Positive.Len() != 3 {
		t.Errorf("Expected 3 positive words, got %d", lex.Positive.Len())
	}
	for _, w := range []string{"bueno", "excelente", "feliz"} {
		if !lex.Positive.Contains(w) {
			t.Errorf("Expected positive lexicon to contain %q", w)
		}
	}
	if !lex.Negative.Contains("malo") || !lex.Negative.Contains("terrible") {
		t.Error("Expected negative lexicon to contain malo and terrible")
	}
	if !lex.BoosterIncrease.Contains("muy") {
		t.Error("Expected increase booster muy")
	}
	if !lex.BoosterDecrease.Contains("poco") {
		t.Error("Expected decrease booster poco")
	}
	if lex.Positive.Contains("") {
		t.Error("Blank lines must be skipped")
	}
}

func TestLoad_MissingFile(t *testing.T) {
	fsys := testFS()
	delete(fsys, BoosterDecreaseFile)

	_, err := Load(context.Background(), NewFSSource(fsys))
	if err == nil {
		t.Fatal("Expected error for missing lexicon")
	}
	if !errors.Is(err, ErrMissingLexicon) {
		t.Errorf("Expected ErrMissingLexicon, got %v", err)
	}
}

func TestLoad_BundledResources(t *testing.T) {
	lex, err := Load(context.Background(), NewDirSource("../../../resources/lexicon"))
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}

	sets := map[string]WordSet{
		"positive":         lex.Positive,
		"negative":         lex.Negative,
		"booster increase": lex.BoosterIncrease,
		"booster decrease": lex.BoosterDecrease,
	}
	for name, set := range sets {
		if set.Len() == 0 {
			t.Errorf("Expected bundled %s lexicon to be non-empty", name)
		}
	}

	if !lex.Positive.Contains("bueno") || !lex.Negative.Contains("malo") {
		t.Error("Expected bundled lexicons to contain bueno and malo")
	}
}

func TestWordSet(t *testing.T) {
	set := NewWordSet("Hola", " adiós ", "")
	if set.Len() != 2 {
		t.Errorf("Expected 2 words, got %d", set.Len())
	}
	if !set.Contains("hola") || !set.Contains("adiós") {
		t.Error("Expected normalized words in set")
	}

	var empty WordSet
	if empty.Contains("hola") {
		t.Error("Zero value set must be empty")
	}
}
