package slack

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/pep299/news-hydrator/internal/model"
)

const defaultAPIURL = "https://slack.com/api/chat.postMessage"

// Client posts hydrated news to a Slack channel
type Client struct {
	botToken   string
	channel    string
	apiURL     string
	httpClient *http.Client
}

// NewClient creates a new Slack client
func NewClient(botToken, channel string) *Client {
	return &Client{
		botToken: botToken,
		channel:  channel,
		apiURL:   defaultAPIURL,
		httpClient: &http.Client{
			Timeout: 30 * time.Second,
		},
	}
}

// WithAPIURL overrides the chat.postMessage endpoint
func (c *Client) WithAPIURL(url string) *Client {
	c.apiURL = url
	return c
}

// ChatPostMessageRequest represents a Slack chat.postMessage request
type ChatPostMessageRequest struct {
	Channel   string `json:"channel"`
	Text      string `json:"text"`
	Username  string `json:"username,omitempty"`
	IconEmoji string `json:"icon_emoji,omitempty"`
}

// Publish sends a notification for hydrated news
func (c *Client) Publish(ctx context.Context, news model.News) error {
	return c.sendMessage(ctx, formatNews(news), c.channel)
}

// SendSimpleMessage sends a plain text message to the default channel
func (c *Client) SendSimpleMessage(ctx context.Context, text string) error {
	return c.sendMessage(ctx, text, c.channel)
}

func formatNews(news model.News) string {
	var b strings.Builder
	fmt.Fprintf(&b, "*%s*\n", news.Title)
	if news.Source != "" {
		fmt.Fprintf(&b, "Fuente: %s\n", news.Source)
	}
	if news.Link != "" {
		fmt.Fprintf(&b, "URL: %s\n", news.Link)
	}
	if news.Summary != nil && *news.Summary != "" {
		fmt.Fprintf(&b, "\n%s\n", *news.Summary)
	}
	if news.Sentiment != nil {
		fmt.Fprintf(&b, "\nSentimiento: %+.3f", *news.Sentiment)
	}
	if len(news.Entities) > 0 {
		names := make([]string, len(news.Entities))
		for i, e := range news.Entities {
			names[i] = e.Text
		}
		fmt.Fprintf(&b, "\nEntidades: %s", strings.Join(names, ", "))
	}
	return b.String()
}

// sendMessage sends a message to the specified Slack channel
func (c *Client) sendMessage(ctx context.Context, text string, channel string) error {
	req := ChatPostMessageRequest{
		Channel:   channel,
		Text:      text,
		Username:  "News Hydrator",
		IconEmoji: ":newspaper:",
	}

	body, err := json.Marshal(req)
	if err != nil {
		return fmt.Errorf("marshaling message: %w", err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, c.apiURL, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("creating request: %w", err)
	}

	httpReq.Header.Set("Authorization", "Bearer "+c.botToken)
	httpReq.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(httpReq)
	if err != nil {
		return fmt.Errorf("sending request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("slack API returned status %d", resp.StatusCode)
	}

	var slackResp struct {
		OK    bool   `json:"ok"`
		Error string `json:"error,omitempty"`
	}

	if err := json.NewDecoder(resp.Body).Decode(&slackResp); err != nil {
		return fmt.Errorf("decoding response: %w", err)
	}

	if !slackResp.OK {
		return fmt.Errorf("slack API error: %s", slackResp.Error)
	}

	return nil
}
