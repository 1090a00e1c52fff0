package handlers

import (
	"context"
	"net/http"
	"strings"

	"go.uber.org/zap"
)

// StationCounter counts stored stations of one network.
type StationCounter interface {
	CountByNetwork(ctx context.Context, networkID string) (int, error)
}

// NewStationCountHandler returns GET /internal/refresh/stations?network_id= handler.
func NewStationCountHandler(counter StationCounter, logger *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		networkID := strings.TrimSpace(r.URL.Query().Get("network_id"))
		if networkID == "" {
			writeError(w, http.StatusBadRequest, "network_id required")
			return
		}
		count, err := counter.CountByNetwork(r.Context(), networkID)
		if err != nil {
			logger.Error("failed to count stations", zap.String("network_id", networkID), zap.Error(err))
			writeError(w, http.StatusInternalServerError, "failed to count stations")
			return
		}
		writeJSON(w, http.StatusOK, map[string]interface{}{
			"network_id": networkID,
			"stations":   count,
		})
	}
}
