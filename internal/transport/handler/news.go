package handler

import (
	"context"
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/gorilla/mux"
	"go.uber.org/zap"

	"github.com/pep299/news-hydrator/internal/model"
	"github.com/pep299/news-hydrator/internal/repository"
	"github.com/pep299/news-hydrator/internal/transport/response"
)

// NewsReader reads stored news
type NewsReader interface {
	Get(ctx context.Context, filter repository.Filter) ([]model.News, error)
	GetOne(ctx context.Context, id string) (model.News, error)
}

// News serves the stored news
type News struct {
	store NewsReader
	log   *zap.SugaredLogger
}

// NewNews creates the news handler
func NewNews(store NewsReader, log *zap.SugaredLogger) *News {
	return &News{store: store, log: log}
}

// List returns stored news filtered by the hydrated, source and limit query parameters
func (h *News) List(w http.ResponseWriter, r *http.Request) {
	filter, err := parseFilter(r)
	if err != nil {
		response.WriteBadRequest(w, err.Error())
		return
	}

	news, err := h.store.Get(r.Context(), filter)
	if err != nil {
		h.log.Errorw("Failed to list news", "error", err)
		response.WriteInternalError(w, "failed to list news")
		return
	}
	response.WriteOK(w, news)
}

// Get returns one news by ID
func (h *News) Get(w http.ResponseWriter, r *http.Request) {
	id := mux.Vars(r)["id"]

	news, err := h.store.GetOne(r.Context(), id)
	if errors.Is(err, repository.ErrNotFound) {
		response.WriteNotFound(w, "news not found")
		return
	}
	if err != nil {
		h.log.Errorw("Failed to get news", "id", id, "error", err)
		response.WriteInternalError(w, "failed to get news")
		return
	}
	response.WriteOK(w, news)
}

func parseFilter(r *http.Request) (repository.Filter, error) {
	query := r.URL.Query()
	filter := repository.Filter{Source: query.Get("source")}

	if v := query.Get("hydrated"); v != "" {
		hydrated, err := strconv.ParseBool(v)
		if err != nil {
			return filter, errors.New("hydrated must be a boolean")
		}
		filter.Hydrated = &hydrated
	}
	if v := query.Get("limit"); v != "" {
		limit, err := strconv.Atoi(v)
		if err != nil || limit < 0 {
			return filter, errors.New("limit must be a non-negative integer")
		}
		filter.Limit = limit
	}
	return filter, nil
}

// Health reports liveness
func Health(version string) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		response.WriteOK(w, map[string]interface{}{
			"status":    "ok",
			"timestamp": time.Now().Unix(),
			"version":   version,
		})
	}
}
