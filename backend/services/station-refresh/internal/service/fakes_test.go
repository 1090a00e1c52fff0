package service

import (
	"context"
	"errors"
	"sort"
	"sync"
	"time"

	"spinroute/backend/services/station-refresh/internal/models"
)

// memoryStore is an in-memory stand-in for the networks and stations tables.
type memoryStore struct {
	mu        sync.Mutex
	networks  []models.Network
	stations  map[string]models.Station
	listErr   error
	writeErr  map[string]error
	upserts   int
	aggregate int
}

func newMemoryStore(networks ...models.Network) *memoryStore {
	return &memoryStore{
		networks: networks,
		stations: make(map[string]models.Station),
		writeErr: make(map[string]error),
	}
}

func (m *memoryStore) ListRefreshable(ctx context.Context) ([]models.Network, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.listErr != nil {
		return nil, m.listErr
	}
	var out []models.Network
	for _, n := range m.networks {
		if n.SourceID != "" {
			out = append(out, n)
		}
	}
	return out, nil
}

func (m *memoryStore) OldestFetchedAt(ctx context.Context, networkID string) (time.Time, bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.oldestLocked(networkID)
}

func (m *memoryStore) oldestLocked(networkID string) (time.Time, bool, error) {
	var (
		oldest time.Time
		found  bool
	)
	for _, st := range m.stations {
		if st.NetworkID != networkID {
			continue
		}
		if !found || st.FetchedAt.Before(oldest) {
			oldest = st.FetchedAt
			found = true
		}
	}
	return oldest, found, nil
}

func (m *memoryStore) StaleNetworks(ctx context.Context, cutoff time.Time, limit int) ([]models.StaleNetwork, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.aggregate++
	if m.listErr != nil {
		return nil, m.listErr
	}
	var out []models.StaleNetwork
	for _, n := range m.networks {
		if n.SourceID == "" {
			continue
		}
		oldest, ok, _ := m.oldestLocked(n.ID)
		if ok && !oldest.Before(cutoff) {
			continue
		}
		out = append(out, models.StaleNetwork{Network: n, HasStations: ok, OldestFetchedAt: oldest})
	}
	SortStalestFirst(out)
	if len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

func (m *memoryStore) UpsertBatch(ctx context.Context, stations []models.Station) (int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if len(stations) > 0 {
		if err := m.writeErr[stations[0].NetworkID]; err != nil {
			return 0, err
		}
	}
	for _, st := range stations {
		m.stations[st.ID] = st
	}
	m.upserts++
	return len(stations), nil
}

func (m *memoryStore) seed(networkID string, fetchedAt time.Time, ids ...string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, id := range ids {
		m.stations[id] = models.Station{ID: id, NetworkID: networkID, FetchedAt: fetchedAt}
	}
}

func (m *memoryStore) snapshot() []models.Station {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]models.Station, 0, len(m.stations))
	for _, st := range m.stations {
		out = append(out, st)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}

type recordingStatus struct {
	mu    sync.Mutex
	saved []models.RunSummary
	err   error
}

func (r *recordingStatus) Save(ctx context.Context, summary models.RunSummary) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.saved = append(r.saved, summary)
	return r.err
}

type failingFinder struct{}

func (failingFinder) Find(context.Context, time.Duration, int) ([]models.StaleNetwork, error) {
	return nil, errors.New("connection refused")
}
