package repository

import (
	"context"
	"fmt"
	"sync"

	"github.com/pep299/news-hydrator/internal/model"
)

// MemoryStore keeps news in a map
type MemoryStore struct {
	mu   sync.RWMutex
	news map[string]model.News
}

// NewMemoryStore creates an empty store
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{news: make(map[string]model.News)}
}

// Save inserts or replaces news by ID
func (s *MemoryStore) Save(_ context.Context, news model.News) error {
	if news.ID == "" {
		return fmt.Errorf("saving news: empty id")
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.news[news.ID] = news
	return nil
}

// Get returns the news matching filter, newest first
func (s *MemoryStore) Get(_ context.Context, filter Filter) ([]model.News, error) {
	s.mu.RLock()
	all := make([]model.News, 0, len(s.news))
	for _, n := range s.news {
		all = append(all, n)
	}
	s.mu.RUnlock()
	return filter.apply(all), nil
}

// GetOne returns the news with id
func (s *MemoryStore) GetOne(_ context.Context, id string) (model.News, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	n, ok := s.news[id]
	if !ok {
		return model.News{}, ErrNotFound
	}
	return n, nil
}

// Delete removes the news with id
func (s *MemoryStore) Delete(_ context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.news[id]; !ok {
		return ErrNotFound
	}
	delete(s.news, id)
	return nil
}

// Close is a no-op
func (s *MemoryStore) Close() error {
	return nil
}
