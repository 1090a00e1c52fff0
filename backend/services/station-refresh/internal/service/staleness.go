package service

import (
	"context"
	"sort"
	"time"

	"go.uber.org/zap"

	"spinroute/backend/services/station-refresh/internal/models"
)

// NetworkLister lists networks that can be refreshed.
type NetworkLister interface {
	ListRefreshable(ctx context.Context) ([]models.Network, error)
}

// FreshnessReader reports the oldest fetched_at of one network.
type FreshnessReader interface {
	OldestFetchedAt(ctx context.Context, networkID string) (time.Time, bool, error)
}

// StaleQuerier computes the whole candidate list inside the store.
type StaleQuerier interface {
	StaleNetworks(ctx context.Context, cutoff time.Time, limit int) ([]models.StaleNetwork, error)
}

// StalenessFinder selects networks whose station data needs a refresh.
type StalenessFinder struct {
	networks  NetworkLister
	stations  FreshnessReader
	aggregate StaleQuerier
	now       func() time.Time
	logger    *zap.Logger
}

// NewStalenessFinder builds the per-network baseline finder.
func NewStalenessFinder(networks NetworkLister, stations FreshnessReader, logger *zap.Logger) *StalenessFinder {
	return &StalenessFinder{
		networks: networks,
		stations: stations,
		now:      time.Now,
		logger:   logger,
	}
}

// WithAggregate pushes the computation down to a single store query.
func (f *StalenessFinder) WithAggregate(q StaleQuerier) *StalenessFinder {
	f.aggregate = q
	return f
}

// WithClock overrides the time source.
func (f *StalenessFinder) WithClock(now func() time.Time) *StalenessFinder {
	f.now = now
	return f
}

// Find returns at most limit networks that have no stations or whose oldest
// station was fetched before now-threshold, stalest first.
func (f *StalenessFinder) Find(ctx context.Context, threshold time.Duration, limit int) ([]models.StaleNetwork, error) {
	if limit <= 0 {
		return nil, nil
	}
	cutoff := f.now().Add(-threshold)

	if f.aggregate != nil {
		return f.aggregate.StaleNetworks(ctx, cutoff, limit)
	}

	networks, err := f.networks.ListRefreshable(ctx)
	if err != nil {
		return nil, err
	}

	var stale []models.StaleNetwork
	for _, n := range networks {
		if n.SourceID == "" {
			continue
		}
		oldest, ok, err := f.stations.OldestFetchedAt(ctx, n.ID)
		if err != nil {
			return nil, err
		}
		if ok && !oldest.Before(cutoff) {
			continue
		}
		stale = append(stale, models.StaleNetwork{Network: n, HasStations: ok, OldestFetchedAt: oldest})
	}

	SortStalestFirst(stale)
	if len(stale) > limit {
		f.logger.Debug("staleness batch truncated", zap.Int("stale", len(stale)), zap.Int("limit", limit))
		stale = stale[:limit]
	}
	return stale, nil
}

// SortStalestFirst orders never-refreshed networks first, then by oldest
// fetched_at ascending, ties broken by network id.
func SortStalestFirst(networks []models.StaleNetwork) {
	sort.SliceStable(networks, func(i, j int) bool {
		a, b := networks[i], networks[j]
		if a.HasStations != b.HasStations {
			return !a.HasStations
		}
		if !a.OldestFetchedAt.Equal(b.OldestFetchedAt) {
			return a.OldestFetchedAt.Before(b.OldestFetchedAt)
		}
		return a.ID < b.ID
	})
}
