package model

import (
	"encoding/json"
	"reflect"
	"testing"
)

func TestEnsureID(t *testing.T) {
	n := News{Title: "t"}
	id := n.EnsureID()
	if id == "" || n.ID != id {
		t.Fatalf("Expected generated ID, got %q", n.ID)
	}
	if again := n.EnsureID(); again != id {
		t.Errorf("Expected existing ID to be kept, got %q", again)
	}

	other := News{}
	if other.EnsureID() == id {
		t.Error("Expected distinct IDs")
	}
}

func TestNormalizeEntities(t *testing.T) {
	got := NormalizeEntities([]NamedEntity{
		{Text: "Madrid", Type: "LOC"},
		{Text: " madrid ", Type: "LOC"},
		{Text: "Madrid", Type: "ORG"},
		{Text: "  ", Type: "PER"},
		{Text: "Ana", Type: "PER"},
	})
	want := []NamedEntity{
		{Text: "madrid", Type: "LOC"},
		{Text: "madrid", Type: "ORG"},
		{Text: "ana", Type: "PER"},
	}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("NormalizeEntities = %+v, want %+v", got, want)
	}
}

func TestNewsJSONNullFields(t *testing.T) {
	data, err := json.Marshal(News{ID: "1"})
	if err != nil {
		t.Fatalf("Marshal failed: %v", err)
	}

	var raw map[string]interface{}
	if err := json.Unmarshal(data, &raw); err != nil {
		t.Fatalf("Unmarshal failed: %v", err)
	}
	if v, ok := raw["summary"]; !ok || v != nil {
		t.Errorf("Expected null summary for unhydrated news, got %v", v)
	}
	if raw["hydrated"] != false {
		t.Errorf("Expected hydrated=false, got %v", raw["hydrated"])
	}
}
