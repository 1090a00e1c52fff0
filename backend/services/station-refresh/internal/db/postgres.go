package db

import (
	"context"
	"database/sql"

	libdb "spinroute/backend/libs/db"
	"spinroute/backend/services/station-refresh/internal/config"
)

// NewPostgres connects to Postgres using shared library helper.
func NewPostgres(ctx context.Context, cfg config.Database) (*sql.DB, error) {
	return libdb.NewPostgresDB(ctx, cfg.DSN, libdb.PoolConfig{MaxOpenConns: cfg.MaxOpenConns})
}
