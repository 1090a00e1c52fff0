package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"spinroute/backend/services/station-refresh/internal/models"
)

var now = time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)

func clock() time.Time { return now }

func network(id, source string) models.Network {
	return models.Network{ID: id, Name: "Network " + id, SourceID: source}
}

// A fetched 5 minutes ago, B 60 minutes ago, C never.
func abcStore() *memoryStore {
	store := newMemoryStore(network("A", "a"), network("B", "b"), network("C", "c"))
	store.seed("A", now.Add(-5*time.Minute), "a1", "a2")
	store.seed("B", now.Add(-60*time.Minute), "b1")
	store.seed("B", now.Add(-10*time.Minute), "b2")
	return store
}

func ids(networks []models.StaleNetwork) []string {
	out := make([]string, 0, len(networks))
	for _, n := range networks {
		out = append(out, n.ID)
	}
	return out
}

func TestFindOrdersStalestFirst(t *testing.T) {
	store := abcStore()
	finder := NewStalenessFinder(store, store, zap.NewNop()).WithClock(clock)

	got, err := finder.Find(context.Background(), 30*time.Minute, 100)
	require.NoError(t, err)

	assert.Equal(t, []string{"C", "B"}, ids(got))
	assert.False(t, got[0].HasStations)
	assert.True(t, got[1].HasStations)
	assert.Equal(t, now.Add(-60*time.Minute), got[1].OldestFetchedAt)
}

func TestFindAggregateMatchesBaseline(t *testing.T) {
	store := abcStore()
	baseline, err := NewStalenessFinder(store, store, zap.NewNop()).WithClock(clock).
		Find(context.Background(), 30*time.Minute, 100)
	require.NoError(t, err)

	pushed, err := NewStalenessFinder(store, store, zap.NewNop()).WithClock(clock).WithAggregate(store).
		Find(context.Background(), 30*time.Minute, 100)
	require.NoError(t, err)

	assert.Equal(t, baseline, pushed)
	assert.Equal(t, 1, store.aggregate)
}

func TestFindExcludesNetworksWithoutSource(t *testing.T) {
	store := newMemoryStore(network("A", ""), network("B", "b"))
	finder := NewStalenessFinder(store, store, zap.NewNop()).WithClock(clock)

	got, err := finder.Find(context.Background(), 30*time.Minute, 10)
	require.NoError(t, err)
	assert.Equal(t, []string{"B"}, ids(got))
}

func TestFindRespectsBatchSize(t *testing.T) {
	store := newMemoryStore(network("A", "a"), network("B", "b"), network("C", "c"), network("D", "d"))
	store.seed("A", now.Add(-2*time.Hour), "a1")
	store.seed("B", now.Add(-3*time.Hour), "b1")
	finder := NewStalenessFinder(store, store, zap.NewNop()).WithClock(clock)

	got, err := finder.Find(context.Background(), 30*time.Minute, 3)
	require.NoError(t, err)
	assert.Equal(t, []string{"C", "D", "B"}, ids(got))

	got, err = finder.Find(context.Background(), 30*time.Minute, 0)
	require.NoError(t, err)
	assert.Empty(t, got)
}

func TestFindBoundaryIsNotStale(t *testing.T) {
	store := newMemoryStore(network("A", "a"))
	store.seed("A", now.Add(-30*time.Minute), "a1")
	finder := NewStalenessFinder(store, store, zap.NewNop()).WithClock(clock)

	got, err := finder.Find(context.Background(), 30*time.Minute, 10)
	require.NoError(t, err)
	assert.Empty(t, got)
}

func TestFindPropagatesStoreError(t *testing.T) {
	store := newMemoryStore()
	store.listErr = errors.New("db down")
	finder := NewStalenessFinder(store, store, zap.NewNop())

	_, err := finder.Find(context.Background(), time.Minute, 10)
	assert.EqualError(t, err, "db down")
}
