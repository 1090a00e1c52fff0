package repository

import (
	"context"
	"database/sql"

	"spinroute/backend/services/station-refresh/internal/models"
)

// sourceIDExpr extracts the aggregator id from the network's stored payload.
const sourceIDExpr = `NULLIF(TRIM(n.raw_data->>'id'), '')`

// NetworkRepository reads bikeshare networks. Networks are owned by the
// ingestion path; this repository never writes them.
type NetworkRepository struct {
	db *sql.DB
}

// NewNetworkRepository returns repository.
func NewNetworkRepository(db *sql.DB) *NetworkRepository {
	return &NetworkRepository{db: db}
}

// ListRefreshable returns networks that carry an upstream source id.
func (r *NetworkRepository) ListRefreshable(ctx context.Context) ([]models.Network, error) {
	const query = `
		SELECT n.id, COALESCE(n.name, ''), ` + sourceIDExpr + ` AS source_id, n.station_status_url, n.station_information_url
		FROM networks n
		WHERE ` + sourceIDExpr + ` IS NOT NULL
		ORDER BY n.id
	`
	rows, err := r.db.QueryContext(ctx, query)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var networks []models.Network
	for rows.Next() {
		var n models.Network
		if err := rows.Scan(&n.ID, &n.Name, &n.SourceID, &n.StationStatusURL, &n.StationInformationURL); err != nil {
			return nil, err
		}
		networks = append(networks, n)
	}
	return networks, rows.Err()
}
