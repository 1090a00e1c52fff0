package db

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestNewPostgresDBRejectsEmptyDSN(t *testing.T) {
	_, err := NewPostgresDB(context.Background(), "   ", PoolConfig{})
	assert.EqualError(t, err, "db: empty DSN")
}

func TestPoolConfigDefaults(t *testing.T) {
	cfg := PoolConfig{MaxOpenConns: 4}.withDefaults()

	assert.Equal(t, 4, cfg.MaxOpenConns)
	assert.Equal(t, defaultMaxIdleConns, cfg.MaxIdleConns)
	assert.Equal(t, defaultConnLifetime, cfg.ConnLifetime)
	assert.Equal(t, defaultConnIdleTime, cfg.ConnIdleTime)
	assert.Equal(t, 5*time.Second, cfg.PingTimeout)
}
