package services

import (
	"context"
	"net/http"
	"time"

	"github.com/ledgerbank/backend/internal/logger"
	"github.com/ledgerbank/backend/internal/storage"
)

const healthTimeout = 2 * time.Second

// Health reports whether the backing store answers within healthTimeout.
func Health(store storage.Pinger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, cancel := context.WithTimeout(r.Context(), healthTimeout)
		defer cancel()

		if err := store.Ping(ctx); err != nil {
			logger.FromContext(r.Context()).Error().Err(err).Msg("health check failed")
			writeJSON(w, http.StatusServiceUnavailable, map[string]string{"status": "error"})
			return
		}
		writeJSON(w, http.StatusOK, map[string]string{"status": "healthy"})
	}
}
