package redisstore

import (
	"context"
	"errors"
	"time"

	json "github.com/goccy/go-json"
	"github.com/redis/go-redis/v9"

	"spinroute/backend/services/station-refresh/internal/models"
)

const lastRunKey = "stations:refresh:last"

// StatusStore keeps the summary of the latest refresh run.
type StatusStore struct {
	client redis.Cmdable
	ttl    time.Duration
}

// NewStatusStore returns redis-backed store.
func NewStatusStore(client redis.Cmdable, ttl time.Duration) *StatusStore {
	return &StatusStore{client: client, ttl: ttl}
}

// Save overwrites the last run summary.
func (s *StatusStore) Save(ctx context.Context, summary models.RunSummary) error {
	data, err := json.Marshal(summary)
	if err != nil {
		return err
	}
	return s.client.Set(ctx, lastRunKey, data, s.ttl).Err()
}

// Last returns the stored summary, or nil when no run has been recorded.
func (s *StatusStore) Last(ctx context.Context) (*models.RunSummary, error) {
	result, err := s.client.Get(ctx, lastRunKey).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	var summary models.RunSummary
	if err := json.Unmarshal(result, &summary); err != nil {
		return nil, err
	}
	return &summary, nil
}
