package handlers

import (
	"context"
	"errors"
	"net/http"
	"strconv"

	"go.uber.org/zap"

	"spinroute/backend/services/station-refresh/internal/models"
	"spinroute/backend/services/station-refresh/internal/scheduler"
	"spinroute/backend/services/station-refresh/internal/service"
)

// RefreshTrigger starts one refresh cycle.
type RefreshTrigger interface {
	Trigger(ctx context.Context, opts service.Options) (*models.RunSummary, error)
}

// NewRefreshHandler returns POST /internal/refresh handler. Query parameters
// dry_run and batch_size override the configured defaults for this run only.
func NewRefreshHandler(trigger RefreshTrigger, defaults service.Options, logger *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		opts := defaults
		query := r.URL.Query()
		if raw := query.Get("dry_run"); raw != "" {
			dryRun, err := strconv.ParseBool(raw)
			if err != nil {
				writeError(w, http.StatusBadRequest, "invalid dry_run")
				return
			}
			opts.DryRun = dryRun
		}
		if raw := query.Get("batch_size"); raw != "" {
			size, err := strconv.Atoi(raw)
			if err != nil || size <= 0 {
				writeError(w, http.StatusBadRequest, "invalid batch_size")
				return
			}
			opts.BatchSize = size
		}

		summary, err := trigger.Trigger(r.Context(), opts)
		switch {
		case errors.Is(err, scheduler.ErrRunInProgress):
			writeError(w, http.StatusConflict, "refresh already in progress")
			return
		case err != nil:
			logger.Error("manual refresh failed", zap.Error(err))
			writeError(w, http.StatusInternalServerError, "refresh failed")
			return
		}
		writeJSON(w, http.StatusOK, summary)
	}
}
