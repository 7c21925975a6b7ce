package server

import (
	"net/http"

	"github.com/gorilla/mux"
	"go.uber.org/zap"

	"github.com/pep299/news-hydrator/internal/transport/handler"
	"github.com/pep299/news-hydrator/internal/transport/middleware"
)

// Version is reported by the health endpoint
var Version = "dev"

// Config holds what the router serves
type Config struct {
	AuthToken string
	NLP       *handler.NLP
	News      *handler.News
	Cache     handler.StatsReader
	Metrics   http.Handler
	Logger    *zap.SugaredLogger
}

// NewRouter configures HTTP routes
func NewRouter(cfg Config) *mux.Router {
	r := mux.NewRouter()
	r.Use(middleware.CORS)
	r.Use(mux.MiddlewareFunc(middleware.Logging(cfg.Logger)))

	r.HandleFunc("/health", handler.Health(Version)).Methods(http.MethodGet)
	if cfg.Metrics != nil {
		r.Handle("/metrics", cfg.Metrics).Methods(http.MethodGet)
	}

	api := r.PathPrefix("/v1/api").Subrouter()
	api.Use(mux.MiddlewareFunc(middleware.Auth(cfg.AuthToken)))

	if cfg.NLP != nil {
		api.HandleFunc("/nlp", cfg.NLP.Process).Methods(http.MethodPost)
		api.HandleFunc("/nlp/entities", cfg.NLP.Entities).Methods(http.MethodPost)
		api.HandleFunc("/nlp/summary", cfg.NLP.Summary).Methods(http.MethodPost)
		api.HandleFunc("/nlp/sentiment", cfg.NLP.Sentiment).Methods(http.MethodPost)
		api.HandleFunc("/nlp/hydrate", cfg.NLP.Hydrate).Methods(http.MethodPut)
	}

	if cfg.News != nil {
		api.HandleFunc("/news", cfg.News.List).Methods(http.MethodGet)
		api.HandleFunc("/news/{id}", cfg.News.Get).Methods(http.MethodGet)
	}

	if cfg.Cache != nil {
		api.HandleFunc("/cache/stats", handler.CacheStats(cfg.Cache, cfg.Logger)).Methods(http.MethodGet)
	}

	return r
}
