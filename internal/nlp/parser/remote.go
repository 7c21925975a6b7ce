package parser

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"go.uber.org/zap"
	"golang.org/x/time/rate"

	"github.com/pep299/news-hydrator/internal/nlp"
	"github.com/pep299/news-hydrator/internal/retry"
)

// Remote calls an external dependency parser over HTTP
type Remote struct {
	baseURL    string
	httpClient *http.Client
	limiter    *rate.Limiter
	retry      retry.Config
	log        *zap.SugaredLogger
}

// RemoteOption customizes a Remote parser
type RemoteOption func(*Remote)

// WithHTTPClient replaces the default HTTP client
func WithHTTPClient(c *http.Client) RemoteOption {
	return func(r *Remote) { r.httpClient = c }
}

// WithRateLimit caps outgoing requests per second. Zero or negative disables
// the limit.
func WithRateLimit(perSecond float64) RemoteOption {
	return func(r *Remote) {
		if perSecond <= 0 {
			r.limiter = rate.NewLimiter(rate.Inf, 1)
			return
		}
		r.limiter = rate.NewLimiter(rate.Limit(perSecond), 1)
	}
}

// WithRetry sets the retry policy for transient failures
func WithRetry(cfg retry.Config) RemoteOption {
	return func(r *Remote) { r.retry = cfg }
}

// WithLogger sets the logger
func WithLogger(log *zap.SugaredLogger) RemoteOption {
	return func(r *Remote) { r.log = log }
}

// NewRemote creates a client for the parser served at baseURL
func NewRemote(baseURL string, opts ...RemoteOption) *Remote {
	r := &Remote{
		baseURL: strings.TrimRight(baseURL, "/"),
		httpClient: &http.Client{
			Timeout: 60 * time.Second,
		},
		limiter: rate.NewLimiter(rate.Inf, 1),
		retry:   retry.Config{MaxAttempts: 3, Delay: time.Second, Backoff: true},
		log:     zap.NewNop().Sugar(),
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

type parseRequest struct {
	Text string `json:"text"`
}

// Parse sends text to the remote parser and validates the returned trees
func (r *Remote) Parse(ctx context.Context, text string) (*nlp.Document, error) {
	body, err := json.Marshal(parseRequest{Text: text})
	if err != nil {
		return nil, fmt.Errorf("marshaling request: %w", err)
	}

	var doc nlp.Document
	err = retry.WithRetry(ctx, r.retry, func() error {
		if err := r.limiter.Wait(ctx); err != nil {
			return retry.Permanent(err)
		}
		return r.do(ctx, body, &doc)
	})
	if err != nil {
		return nil, fmt.Errorf("parsing text: %w", err)
	}

	if err := doc.Validate(); err != nil {
		return nil, fmt.Errorf("invalid parse tree: %w", err)
	}
	return &doc, nil
}

func (r *Remote) do(ctx context.Context, body []byte, doc *nlp.Document) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, r.baseURL+"/parse", bytes.NewReader(body))
	if err != nil {
		return retry.Permanent(fmt.Errorf("creating request: %w", err))
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := r.httpClient.Do(req)
	if err != nil {
		r.log.Warnw("parser request failed", "error", err)
		return fmt.Errorf("sending request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		bodyBytes, _ := io.ReadAll(resp.Body)
		err := fmt.Errorf("parser returned status %d: %s", resp.StatusCode, strings.TrimSpace(string(bodyBytes)))
		if resp.StatusCode >= 400 && resp.StatusCode < 500 && resp.StatusCode != http.StatusTooManyRequests {
			return retry.Permanent(err)
		}
		r.log.Warnw("parser request failed", "status", resp.StatusCode)
		return err
	}

	*doc = nlp.Document{}
	if err := json.NewDecoder(resp.Body).Decode(doc); err != nil {
		return retry.Permanent(fmt.Errorf("decoding response: %w", err))
	}
	return nil
}
