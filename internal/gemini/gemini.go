package gemini

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/pep299/news-hydrator/internal/model"
)

// maxPromptContent caps the article text sent to the model
const maxPromptContent = 10000

// Client extracts named entities with the Gemini generateContent API
type Client struct {
	apiKey     string
	model      string
	httpClient *http.Client
	baseURL    string
}

// NewClient creates a new Gemini API client
func NewClient(apiKey, model string) *Client {
	return &Client{
		apiKey:  apiKey,
		model:   model,
		baseURL: "https://generativelanguage.googleapis.com/v1beta/models",
		httpClient: &http.Client{
			Timeout: 60 * time.Second,
		},
	}
}

// WithBaseURL points the client at another endpoint
func (c *Client) WithBaseURL(baseURL string) *Client {
	c.baseURL = strings.TrimRight(baseURL, "/")
	return c
}

// geminiRequest represents the request structure for Gemini API
type geminiRequest struct {
	Contents         []geminiContent   `json:"contents"`
	GenerationConfig *generationConfig `json:"generationConfig,omitempty"`
}

type generationConfig struct {
	ResponseMimeType string `json:"responseMimeType,omitempty"`
}

type geminiContent struct {
	Parts []geminiPart `json:"parts"`
}

type geminiPart struct {
	Text string `json:"text"`
}

// geminiResponse represents the response structure from Gemini API
type geminiResponse struct {
	Candidates []geminiCandidate `json:"candidates"`
}

type geminiCandidate struct {
	Content geminiContent `json:"content"`
}

// ExtractEntities asks the model for the named entities in text. Entity
// texts are lower-cased and repeated pairs dropped.
func (c *Client) ExtractEntities(ctx context.Context, text string) ([]model.NamedEntity, error) {
	if strings.TrimSpace(text) == "" {
		return []model.NamedEntity{}, nil
	}

	responseText, err := c.generate(ctx, c.buildPrompt(text))
	if err != nil {
		return nil, err
	}

	entities, err := parseEntities(responseText)
	if err != nil {
		return nil, err
	}
	return model.NormalizeEntities(entities), nil
}

func (c *Client) generate(ctx context.Context, prompt string) (string, error) {
	geminiReq := geminiRequest{
		Contents: []geminiContent{
			{Parts: []geminiPart{{Text: prompt}}},
		},
		GenerationConfig: &generationConfig{ResponseMimeType: "application/json"},
	}

	body, err := json.Marshal(geminiReq)
	if err != nil {
		return "", fmt.Errorf("marshaling request: %w", err)
	}

	url := fmt.Sprintf("%s/%s:generateContent?key=%s", c.baseURL, c.model, c.apiKey)
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return "", fmt.Errorf("creating request: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(httpReq)
	if err != nil {
		return "", fmt.Errorf("sending request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		bodyBytes, _ := io.ReadAll(resp.Body)
		return "", fmt.Errorf("API request failed with status %d: %s", resp.StatusCode, string(bodyBytes))
	}

	var geminiResp geminiResponse
	if err := json.NewDecoder(resp.Body).Decode(&geminiResp); err != nil {
		return "", fmt.Errorf("decoding response: %w", err)
	}

	if len(geminiResp.Candidates) == 0 || len(geminiResp.Candidates[0].Content.Parts) == 0 {
		return "", fmt.Errorf("no content in response")
	}

	return geminiResp.Candidates[0].Content.Parts[0].Text, nil
}

// buildPrompt creates the entity extraction prompt
func (c *Client) buildPrompt(text string) string {
	if runes := []rune(text); len(runes) > maxPromptContent {
		text = string(runes[:maxPromptContent])
	}

	var prompt strings.Builder
	prompt.WriteString("Extrae las entidades nombradas del siguiente texto en español.\n")
	prompt.WriteString("Responde solo con un array JSON de objetos {\"text\": ..., \"type\": ...}\n")
	prompt.WriteString("donde type es uno de PER, LOC, ORG o MISC.\n\n")
	prompt.WriteString("Texto:\n")
	prompt.WriteString(text)
	return prompt.String()
}

// parseEntities extracts the JSON array from the model output, tolerating
// surrounding prose or code fences.
func parseEntities(responseText string) ([]model.NamedEntity, error) {
	start := strings.Index(responseText, "[")
	end := strings.LastIndex(responseText, "]") + 1
	if start == -1 || end <= start {
		return nil, fmt.Errorf("no entity list in response: %q", responseText)
	}

	var entities []model.NamedEntity
	if err := json.Unmarshal([]byte(responseText[start:end]), &entities); err != nil {
		return nil, fmt.Errorf("decoding entity list: %w", err)
	}
	return entities, nil
}
