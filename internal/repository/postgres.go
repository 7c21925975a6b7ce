package repository

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/lib/pq"

	"github.com/pep299/news-hydrator/internal/model"
)

// PostgresStore keeps news in a PostgreSQL table
type PostgresStore struct {
	db *sql.DB
}

// NewPostgresStore connects to dsn and creates the schema if needed
func NewPostgresStore(ctx context.Context, dsn string) (*PostgresStore, error) {
	db, err := sql.Open("postgres", dsn)
	if err != nil {
		return nil, fmt.Errorf("opening database: %w", err)
	}

	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("pinging database: %w", err)
	}

	store := &PostgresStore{db: db}
	if err := store.initSchema(ctx); err != nil {
		db.Close()
		return nil, err
	}
	return store, nil
}

func (s *PostgresStore) initSchema(ctx context.Context) error {
	schema := `
	CREATE TABLE IF NOT EXISTS news (
		id TEXT PRIMARY KEY,
		title TEXT NOT NULL,
		content TEXT NOT NULL,
		categories TEXT[] NOT NULL DEFAULT '{}',
		date DOUBLE PRECISION NOT NULL,
		source TEXT NOT NULL DEFAULT '',
		link TEXT NOT NULL DEFAULT '',
		hydrated BOOLEAN NOT NULL DEFAULT FALSE,
		summary TEXT,
		sentiment DOUBLE PRECISION,
		entities JSONB NOT NULL DEFAULT '[]'
	);

	CREATE INDEX IF NOT EXISTS idx_news_date ON news(date DESC);
	CREATE INDEX IF NOT EXISTS idx_news_source ON news(source);
	`
	if _, err := s.db.ExecContext(ctx, schema); err != nil {
		return fmt.Errorf("creating schema: %w", err)
	}
	return nil
}

// Save upserts news by ID
func (s *PostgresStore) Save(ctx context.Context, news model.News) error {
	if news.ID == "" {
		return fmt.Errorf("saving news: empty id")
	}

	entities := news.Entities
	if entities == nil {
		entities = []model.NamedEntity{}
	}
	entitiesJSON, err := json.Marshal(entities)
	if err != nil {
		return fmt.Errorf("marshaling entities: %w", err)
	}

	query := `
		INSERT INTO news (id, title, content, categories, date, source, link, hydrated, summary, sentiment, entities)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)
		ON CONFLICT (id) DO UPDATE SET
			title = EXCLUDED.title,
			content = EXCLUDED.content,
			categories = EXCLUDED.categories,
			date = EXCLUDED.date,
			source = EXCLUDED.source,
			link = EXCLUDED.link,
			hydrated = EXCLUDED.hydrated,
			summary = EXCLUDED.summary,
			sentiment = EXCLUDED.sentiment,
			entities = EXCLUDED.entities
	`
	_, err = s.db.ExecContext(ctx, query,
		news.ID, news.Title, news.Content, pq.Array(news.Categories), news.Date,
		news.Source, news.Link, news.Hydrated, news.Summary, news.Sentiment, entitiesJSON,
	)
	if err != nil {
		return fmt.Errorf("saving news %s: %w", news.ID, err)
	}
	return nil
}

const selectColumns = `id, title, content, categories, date, source, link, hydrated, summary, sentiment, entities`

// Get returns the news matching filter, newest first
func (s *PostgresStore) Get(ctx context.Context, filter Filter) ([]model.News, error) {
	query, args := buildSelect(filter)
	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("querying news: %w", err)
	}
	defer rows.Close()

	result := []model.News{}
	for rows.Next() {
		news, err := scanNews(rows)
		if err != nil {
			return nil, err
		}
		result = append(result, news)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating news: %w", err)
	}
	return result, nil
}

// buildSelect turns a filter into a parameterized query
func buildSelect(filter Filter) (string, []interface{}) {
	var (
		conditions []string
		args       []interface{}
	)
	if filter.Hydrated != nil {
		args = append(args, *filter.Hydrated)
		conditions = append(conditions, fmt.Sprintf("hydrated = $%d", len(args)))
	}
	if filter.Source != "" {
		args = append(args, filter.Source)
		conditions = append(conditions, fmt.Sprintf("source = $%d", len(args)))
	}

	query := "SELECT " + selectColumns + " FROM news"
	if len(conditions) > 0 {
		query += " WHERE " + strings.Join(conditions, " AND ")
	}
	query += " ORDER BY date DESC, id ASC"
	if filter.Limit > 0 {
		args = append(args, filter.Limit)
		query += fmt.Sprintf(" LIMIT $%d", len(args))
	}
	return query, args
}

// GetOne returns the news with id
func (s *PostgresStore) GetOne(ctx context.Context, id string) (model.News, error) {
	row := s.db.QueryRowContext(ctx, "SELECT "+selectColumns+" FROM news WHERE id = $1", id)
	news, err := scanNews(row)
	if errors.Is(err, sql.ErrNoRows) {
		return model.News{}, ErrNotFound
	}
	return news, err
}

// Delete removes the news with id
func (s *PostgresStore) Delete(ctx context.Context, id string) error {
	result, err := s.db.ExecContext(ctx, "DELETE FROM news WHERE id = $1", id)
	if err != nil {
		return fmt.Errorf("deleting news %s: %w", id, err)
	}
	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("deleting news %s: %w", id, err)
	}
	if rows == 0 {
		return ErrNotFound
	}
	return nil
}

// Close closes the database
func (s *PostgresStore) Close() error {
	return s.db.Close()
}

type scanner interface {
	Scan(dest ...interface{}) error
}

func scanNews(row scanner) (model.News, error) {
	var (
		news         model.News
		summary      sql.NullString
		sentiment    sql.NullFloat64
		entitiesJSON []byte
	)
	err := row.Scan(
		&news.ID, &news.Title, &news.Content, pq.Array(&news.Categories), &news.Date,
		&news.Source, &news.Link, &news.Hydrated, &summary, &sentiment, &entitiesJSON,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return model.News{}, err
		}
		return model.News{}, fmt.Errorf("scanning news: %w", err)
	}

	if summary.Valid {
		news.Summary = &summary.String
	}
	if sentiment.Valid {
		news.Sentiment = &sentiment.Float64
	}
	if err := json.Unmarshal(entitiesJSON, &news.Entities); err != nil {
		return model.News{}, fmt.Errorf("unmarshaling entities: %w", err)
	}
	return news, nil
}
