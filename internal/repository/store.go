package repository

import (
	"context"
	"errors"
	"sort"

	"github.com/pep299/news-hydrator/internal/model"
)

// ErrNotFound is returned when no news has the requested ID
var ErrNotFound = errors.New("news not found")

// NewsStore persists news documents
type NewsStore interface {
	Save(ctx context.Context, news model.News) error
	Get(ctx context.Context, filter Filter) ([]model.News, error)
	GetOne(ctx context.Context, id string) (model.News, error)
	Delete(ctx context.Context, id string) error
	Close() error
}

// Filter selects news in Get. Zero fields match everything.
type Filter struct {
	Hydrated *bool
	Source   string
	Limit    int
}

// Matches reports whether news passes the filter
func (f Filter) Matches(news model.News) bool {
	if f.Hydrated != nil && news.Hydrated != *f.Hydrated {
		return false
	}
	if f.Source != "" && news.Source != f.Source {
		return false
	}
	return true
}

// apply filters, sorts newest first and truncates to the limit
func (f Filter) apply(all []model.News) []model.News {
	result := make([]model.News, 0, len(all))
	for _, n := range all {
		if f.Matches(n) {
			result = append(result, n)
		}
	}
	sortNewest(result)
	if f.Limit > 0 && len(result) > f.Limit {
		result = result[:f.Limit]
	}
	return result
}

func sortNewest(news []model.News) {
	sort.SliceStable(news, func(i, j int) bool {
		if news[i].Date != news[j].Date {
			return news[i].Date > news[j].Date
		}
		return news[i].ID < news[j].ID
	})
}
