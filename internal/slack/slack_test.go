package slack

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/pep299/news-hydrator/internal/model"
)

func TestNewClient(t *testing.T) {
	client := NewClient("xoxb-test", "#test-channel")

	if client.botToken != "xoxb-test" {
		t.Errorf("Expected bot token 'xoxb-test', got '%s'", client.botToken)
	}
	if client.channel != "#test-channel" {
		t.Errorf("Expected channel '#test-channel', got '%s'", client.channel)
	}
	if client.apiURL != defaultAPIURL {
		t.Errorf("Expected default API URL, got '%s'", client.apiURL)
	}
}

func TestPublish(t *testing.T) {
	var received ChatPostMessageRequest
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != "POST" {
			t.Errorf("Expected POST request, got %s", r.Method)
		}
		if got := r.Header.Get("Authorization"); got != "Bearer xoxb-test" {
			t.Errorf("Expected bearer token, got '%s'", got)
		}
		if err := json.NewDecoder(r.Body).Decode(&received); err != nil {
			t.Errorf("Failed to decode request: %v", err)
		}
		w.Write([]byte(`{"ok":true}`))
	}))
	defer server.Close()

	summary := "Resumen del artículo."
	sentiment := -0.5
	news := model.News{
		Title:     "Titular",
		Source:    "elpais",
		Link:      "https://example.com/a",
		Summary:   &summary,
		Sentiment: &sentiment,
		Entities:  []model.NamedEntity{{Text: "madrid", Type: "LOC"}},
	}

	client := NewClient("xoxb-test", "#news").WithAPIURL(server.URL)
	if err := client.Publish(context.Background(), news); err != nil {
		t.Fatalf("Publish failed: %v", err)
	}

	if received.Channel != "#news" {
		t.Errorf("Expected channel '#news', got '%s'", received.Channel)
	}
	for _, want := range []string{"*Titular*", "elpais", "Resumen del artículo.", "-0.500", "madrid"} {
		if !strings.Contains(received.Text, want) {
			t.Errorf("Expected message to contain '%s', got '%s'", want, received.Text)
		}
	}
}

func TestSendSimpleMessageErrors(t *testing.T) {
	tests := []struct {
		name    string
		status  int
		body    string
		wantErr string
	}{
		{"http error", http.StatusInternalServerError, "oops", "status 500"},
		{"api error", http.StatusOK, `{"ok":false,"error":"channel_not_found"}`, "channel_not_found"},
		{"bad json", http.StatusOK, `not json`, "decoding response"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(tt.status)
				w.Write([]byte(tt.body))
			}))
			defer server.Close()

			client := NewClient("xoxb-test", "#test").WithAPIURL(server.URL)
			err := client.SendSimpleMessage(context.Background(), "Test message")
			if err == nil || !strings.Contains(err.Error(), tt.wantErr) {
				t.Errorf("Expected error containing '%s', got %v", tt.wantErr, err)
			}
		})
	}
}

func TestFormatNews_Unhydrated(t *testing.T) {
	text := formatNews(model.News{Title: "Solo título"})
	if strings.Contains(text, "Sentimiento") || strings.Contains(text, "Entidades") {
		t.Errorf("Expected no NLP fields for unhydrated news, got '%s'", text)
	}
}
