package redisstore

import (
	"context"
	"os"
	"testing"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"spinroute/backend/services/station-refresh/internal/models"
)

func testClient(t *testing.T) *redis.Client {
	t.Helper()
	addr := os.Getenv("REDIS_TEST_ADDR")
	if addr == "" {
		t.Skip("REDIS_TEST_ADDR not set")
	}
	client := redis.NewClient(&redis.Options{Addr: addr, DB: 15})
	t.Cleanup(func() {
		client.Del(context.Background(), lastRunKey)
		client.Close()
	})
	return client
}

func TestStatusStoreRoundTrip(t *testing.T) {
	client := testClient(t)
	store := NewStatusStore(client, time.Minute)
	ctx := context.Background()
	require.NoError(t, client.Del(ctx, lastRunKey).Err())

	last, err := store.Last(ctx)
	require.NoError(t, err)
	assert.Nil(t, last)

	summary := models.RunSummary{
		StartedAt:       time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC),
		FinishedAt:      time.Date(2025, 6, 1, 12, 0, 9, 0, time.UTC),
		Found:           2,
		Succeeded:       1,
		Failed:          1,
		StationsWritten: 40,
	}
	require.NoError(t, store.Save(ctx, summary))

	last, err = store.Last(ctx)
	require.NoError(t, err)
	require.NotNil(t, last)
	assert.Equal(t, 40, last.StationsWritten)
	assert.True(t, summary.StartedAt.Equal(last.StartedAt))

	ttl, err := client.TTL(ctx, lastRunKey).Result()
	require.NoError(t, err)
	assert.Greater(t, ttl, time.Duration(0))
}

func TestStatusStoreUnreachable(t *testing.T) {
	client := redis.NewClient(&redis.Options{
		Addr:        "127.0.0.1:1",
		DialTimeout: 100 * time.Millisecond,
		MaxRetries:  -1,
	})
	defer client.Close()
	store := NewStatusStore(client, time.Minute)

	assert.Error(t, store.Save(context.Background(), models.RunSummary{}))
	_, err := store.Last(context.Background())
	assert.Error(t, err)
}
