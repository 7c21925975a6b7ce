package handler

import (
	"context"
	"net/http"

	"go.uber.org/zap"

	"github.com/pep299/news-hydrator/internal/cache"
	"github.com/pep299/news-hydrator/internal/transport/response"
)

// StatsReader reports analysis cache statistics
type StatsReader interface {
	GetStats(ctx context.Context) (*cache.Stats, error)
}

// CacheStats returns the analysis cache statistics
func CacheStats(stats StatsReader, log *zap.SugaredLogger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		s, err := stats.GetStats(r.Context())
		if err != nil {
			log.Errorw("Failed to read cache stats", "error", err)
			response.WriteInternalError(w, "Failed to read cache stats")
			return
		}
		response.WriteOK(w, s)
	}
}
