package repository

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"strings"

	"cloud.google.com/go/storage"
	"google.golang.org/api/iterator"

	"github.com/pep299/news-hydrator/internal/model"
)

// GCSStore keeps one JSON object per news under news/ in a bucket
type GCSStore struct {
	client     *storage.Client
	bucketName string
	prefix     string
	ownsClient bool
}

// NewGCSStore creates a store with its own storage client
func NewGCSStore(ctx context.Context, bucketName string) (*GCSStore, error) {
	client, err := storage.NewClient(ctx)
	if err != nil {
		return nil, fmt.Errorf("creating storage client: %w", err)
	}
	store := NewGCSStoreWithClient(client, bucketName)
	store.ownsClient = true
	return store, nil
}

// NewGCSStoreWithClient creates a store sharing client
func NewGCSStoreWithClient(client *storage.Client, bucketName string) *GCSStore {
	return &GCSStore{
		client:     client,
		bucketName: bucketName,
		prefix:     "news/",
	}
}

func (s *GCSStore) objectName(id string) string {
	return s.prefix + id + ".json"
}

// Save writes news as JSON, replacing any previous version
func (s *GCSStore) Save(ctx context.Context, news model.News) error {
	if news.ID == "" {
		return fmt.Errorf("saving news: empty id")
	}

	data, err := json.Marshal(news)
	if err != nil {
		return fmt.Errorf("marshaling news: %w", err)
	}

	writer := s.client.Bucket(s.bucketName).Object(s.objectName(news.ID)).NewWriter(ctx)
	writer.ContentType = "application/json"

	if _, err := writer.Write(data); err != nil {
		writer.Close()
		return fmt.Errorf("writing object data: %w", err)
	}
	if err := writer.Close(); err != nil {
		return fmt.Errorf("closing object writer: %w", err)
	}
	return nil
}

// Get lists every news object and returns the ones matching filter
func (s *GCSStore) Get(ctx context.Context, filter Filter) ([]model.News, error) {
	bucket := s.client.Bucket(s.bucketName)
	it := bucket.Objects(ctx, &storage.Query{Prefix: s.prefix})

	var all []model.News
	for {
		attrs, err := it.Next()
		if err == iterator.Done {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("listing objects: %w", err)
		}
		if !strings.HasSuffix(attrs.Name, ".json") {
			continue
		}

		news, err := s.read(ctx, attrs.Name)
		if errors.Is(err, ErrNotFound) {
			continue // deleted while listing
		}
		if err != nil {
			return nil, err
		}
		all = append(all, news)
	}
	return filter.apply(all), nil
}

// GetOne reads the news with id
func (s *GCSStore) GetOne(ctx context.Context, id string) (model.News, error) {
	return s.read(ctx, s.objectName(id))
}

func (s *GCSStore) read(ctx context.Context, objectName string) (model.News, error) {
	reader, err := s.client.Bucket(s.bucketName).Object(objectName).NewReader(ctx)
	if err != nil {
		if errors.Is(err, storage.ErrObjectNotExist) {
			return model.News{}, ErrNotFound
		}
		return model.News{}, fmt.Errorf("opening object reader: %w", err)
	}
	defer reader.Close()

	data, err := io.ReadAll(reader)
	if err != nil {
		return model.News{}, fmt.Errorf("reading object data: %w", err)
	}

	var news model.News
	if err := json.Unmarshal(data, &news); err != nil {
		return model.News{}, fmt.Errorf("unmarshaling news %s: %w", objectName, err)
	}
	return news, nil
}

// Delete removes the news object with id
func (s *GCSStore) Delete(ctx context.Context, id string) error {
	err := s.client.Bucket(s.bucketName).Object(s.objectName(id)).Delete(ctx)
	if err != nil {
		if errors.Is(err, storage.ErrObjectNotExist) {
			return ErrNotFound
		}
		return fmt.Errorf("deleting object: %w", err)
	}
	return nil
}

// Close closes the storage client if the store created it
func (s *GCSStore) Close() error {
	if s.ownsClient {
		return s.client.Close()
	}
	return nil
}
