package handlers

import (
	"context"
	"net/http"

	"go.uber.org/zap"

	"spinroute/backend/services/station-refresh/internal/models"
)

// StatusReader returns the latest run summary, nil when there is none.
type StatusReader interface {
	Last(ctx context.Context) (*models.RunSummary, error)
}

// NewStatusHandler returns GET /internal/refresh/status handler.
func NewStatusHandler(status StatusReader, logger *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		summary, err := status.Last(r.Context())
		if err != nil {
			logger.Warn("failed to read run status", zap.Error(err))
			writeError(w, http.StatusInternalServerError, "failed to read run status")
			return
		}
		if summary == nil {
			writeError(w, http.StatusNotFound, "no refresh run recorded")
			return
		}
		writeJSON(w, http.StatusOK, summary)
	}
}
