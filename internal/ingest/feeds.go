package ingest

import (
	"fmt"
	"os"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/pep299/news-hydrator/internal/model"
)

// Feed describes one RSS/Atom source
type Feed struct {
	Name    string        `yaml:"name"`
	URL     string        `yaml:"url"`
	Source  string        `yaml:"source"`
	Enabled *bool         `yaml:"enabled"`
	Filter  FilterOptions `yaml:"filter"`
}

// IsEnabled reports whether the feed should be fetched. Feeds are enabled unless disabled explicitly.
func (f Feed) IsEnabled() bool {
	return f.Enabled == nil || *f.Enabled
}

// FeedsConfig is the layout of the feeds file
//
//	feeds:
//	  - name: abc
//	    url: https://www.abc.es/rss/feeds/abc_EspanaEspana.xml
//	    source: ABC
type FeedsConfig struct {
	Feeds []Feed `yaml:"feeds"`
}

// LoadFeeds reads the feed list from a YAML file
func LoadFeeds(path string) ([]Feed, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("opening feeds file: %w", err)
	}
	defer f.Close()

	var cfg FeedsConfig
	if err := yaml.NewDecoder(f).Decode(&cfg); err != nil {
		return nil, fmt.Errorf("decoding feeds file: %w", err)
	}

	seen := make(map[string]bool, len(cfg.Feeds))
	for i, feed := range cfg.Feeds {
		if feed.URL == "" {
			return nil, fmt.Errorf("feed %d: url is required", i)
		}
		if feed.Name == "" {
			cfg.Feeds[i].Name = feed.URL
		}
		if seen[cfg.Feeds[i].Name] {
			return nil, fmt.Errorf("feed %q: duplicate name", cfg.Feeds[i].Name)
		}
		seen[cfg.Feeds[i].Name] = true
	}
	return cfg.Feeds, nil
}

// FilterOptions holds per-feed filtering criteria
type FilterOptions struct {
	ExcludeCategories []string      `yaml:"exclude_categories"`
	MinTitleLength    int           `yaml:"min_title_length"`
	MaxAge            time.Duration `yaml:"max_age"`
	ExcludeKeywords   []string      `yaml:"exclude_keywords"`
}

// FilterNews keeps the news passing options
func FilterNews(news []model.News, options FilterOptions, now time.Time) []model.News {
	var filtered []model.News
	for _, n := range news {
		if shouldInclude(n, options, now) {
			filtered = append(filtered, n)
		}
	}
	return filtered
}

func shouldInclude(n model.News, options FilterOptions, now time.Time) bool {
	if options.MinTitleLength > 0 && len([]rune(n.Title)) < options.MinTitleLength {
		return false
	}

	if options.MaxAge > 0 && n.Date > 0 {
		published := time.Unix(int64(n.Date), 0)
		if now.Sub(published) > options.MaxAge {
			return false
		}
	}

	for _, category := range n.Categories {
		for _, excluded := range options.ExcludeCategories {
			if strings.EqualFold(category, excluded) {
				return false
			}
		}
	}

	titleLower := strings.ToLower(n.Title)
	contentLower := strings.ToLower(n.Content)
	for _, keyword := range options.ExcludeKeywords {
		keywordLower := strings.ToLower(keyword)
		if strings.Contains(titleLower, keywordLower) || strings.Contains(contentLower, keywordLower) {
			return false
		}
	}

	return true
}

// UniqueNews removes news sharing an ID, keeping the first
func UniqueNews(news []model.News) []model.News {
	seen := make(map[string]bool, len(news))
	var unique []model.News
	for _, n := range news {
		if n.ID != "" && !seen[n.ID] {
			seen[n.ID] = true
			unique = append(unique, n)
		}
	}
	return unique
}
