package ingest

import (
	"context"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"
	"github.com/google/uuid"
	"github.com/mmcdole/gofeed"
	"go.uber.org/zap"
	"golang.org/x/time/rate"

	"github.com/pep299/news-hydrator/internal/logger"
	"github.com/pep299/news-hydrator/internal/model"
)

const userAgent = "news-hydrator/1.0"

// articleSelectors are tried in order until one yields paragraphs
var articleSelectors = []string{
	"article p",
	".article-body p",
	".article-content p",
	".content p",
	"main p",
	"p",
}

// Fetcher downloads feeds and converts their items to news
type Fetcher struct {
	httpClient  *http.Client
	limiter     *rate.Limiter
	extractBody bool
	now         func() time.Time
	log         *zap.SugaredLogger
}

// FetcherOption configures a Fetcher
type FetcherOption func(*Fetcher)

// WithHTTPClient replaces the default client
func WithHTTPClient(c *http.Client) FetcherOption {
	return func(f *Fetcher) { f.httpClient = c }
}

// WithRateLimit bounds outbound requests per second. Zero or less disables the limit.
func WithRateLimit(perSecond float64) FetcherOption {
	return func(f *Fetcher) {
		if perSecond <= 0 {
			f.limiter = rate.NewLimiter(rate.Inf, 0)
			return
		}
		f.limiter = rate.NewLimiter(rate.Limit(perSecond), 1)
	}
}

// WithBodyExtraction toggles downloading the article page for items without content
func WithBodyExtraction(enabled bool) FetcherOption {
	return func(f *Fetcher) { f.extractBody = enabled }
}

// WithLogger sets the logger
func WithLogger(log *zap.SugaredLogger) FetcherOption {
	return func(f *Fetcher) { f.log = log }
}

// NewFetcher creates a fetcher
func NewFetcher(opts ...FetcherOption) *Fetcher {
	f := &Fetcher{
		httpClient:  &http.Client{Timeout: 30 * time.Second},
		limiter:     rate.NewLimiter(rate.Inf, 0),
		extractBody: true,
		now:         time.Now,
		log:         logger.Nop(),
	}
	for _, opt := range opts {
		opt(f)
	}
	return f
}

// Fetch downloads feed and returns its items as unhydrated news
func (f *Fetcher) Fetch(ctx context.Context, feed Feed) ([]model.News, error) {
	if err := f.limiter.Wait(ctx); err != nil {
		return nil, fmt.Errorf("waiting for rate limiter: %w", err)
	}

	parser := gofeed.NewParser()
	parser.Client = f.httpClient
	parser.UserAgent = userAgent

	parsed, err := parser.ParseURLWithContext(feed.URL, ctx)
	if err != nil {
		return nil, fmt.Errorf("parsing feed %s: %w", feed.Name, err)
	}
	f.log.Infow("Fetched feed", "feed", feed.Name, "items", len(parsed.Items))

	source := feed.Source
	if source == "" {
		source = parsed.Title
	}

	news := make([]model.News, 0, len(parsed.Items))
	for _, item := range parsed.Items {
		n, ok := f.convert(ctx, item, source)
		if !ok {
			continue
		}
		news = append(news, n)
	}
	return news, nil
}

func (f *Fetcher) convert(ctx context.Context, item *gofeed.Item, source string) (model.News, bool) {
	key := ItemKey(item)
	if key == "" {
		return model.News{}, false
	}

	content := HTMLText(item.Content)
	if content == "" {
		content = HTMLText(item.Description)
	}
	if content == "" && f.extractBody && item.Link != "" {
		body, err := f.ExtractArticle(ctx, item.Link)
		if err != nil {
			f.log.Warnw("Failed to extract article body", "link", item.Link, "error", err)
		} else {
			content = body
		}
	}
	if content == "" {
		f.log.Debugw("Skipping item without content", "key", key)
		return model.News{}, false
	}

	date := f.now()
	if item.PublishedParsed != nil {
		date = *item.PublishedParsed
	} else if item.UpdatedParsed != nil {
		date = *item.UpdatedParsed
	}

	return model.News{
		ID:         NewsID(key),
		Title:      strings.TrimSpace(item.Title),
		Content:    content,
		Categories: item.Categories,
		Date:       float64(date.Unix()),
		Source:     source,
		Link:       item.Link,
	}, true
}

// ItemKey identifies a feed item by GUID, falling back to its link
func ItemKey(item *gofeed.Item) string {
	if item.GUID != "" {
		return item.GUID
	}
	return item.Link
}

// NewsID derives a stable news ID from an item key
func NewsID(key string) string {
	return uuid.NewSHA1(uuid.NameSpaceURL, []byte(key)).String()
}

// ExtractArticle downloads url and returns the text of its article paragraphs
func (f *Fetcher) ExtractArticle(ctx context.Context, url string) (string, error) {
	if err := f.limiter.Wait(ctx); err != nil {
		return "", fmt.Errorf("waiting for rate limiter: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return "", fmt.Errorf("creating request: %w", err)
	}
	req.Header.Set("User-Agent", userAgent)

	resp, err := f.httpClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("loading page: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("unexpected status code: %d", resp.StatusCode)
	}

	doc, err := goquery.NewDocumentFromReader(resp.Body)
	if err != nil {
		return "", fmt.Errorf("parsing HTML: %w", err)
	}

	content := extractParagraphs(doc)
	if content == "" {
		return "", fmt.Errorf("no article content found")
	}
	return content, nil
}

func extractParagraphs(doc *goquery.Document) string {
	var paragraphs []string
	for _, selector := range articleSelectors {
		doc.Find(selector).Each(func(_ int, s *goquery.Selection) {
			text := collapseSpaces(s.Text())
			if len([]rune(text)) > 10 {
				paragraphs = append(paragraphs, text)
			}
		})
		if len(paragraphs) > 0 {
			break
		}
	}
	return strings.Join(paragraphs, "\n\n")
}

// HTMLText strips markup from s. Escaped markup inside the text is stripped too.
func HTMLText(s string) string {
	text := strings.TrimSpace(s)
	for i := 0; i < 3 && strings.ContainsAny(text, "<&"); i++ {
		doc, err := goquery.NewDocumentFromReader(strings.NewReader(text))
		if err != nil {
			break
		}
		stripped := strings.TrimSpace(doc.Text())
		if stripped == text {
			break
		}
		text = stripped
	}
	return collapseSpaces(text)
}

func collapseSpaces(s string) string {
	return strings.Join(strings.Fields(s), " ")
}
