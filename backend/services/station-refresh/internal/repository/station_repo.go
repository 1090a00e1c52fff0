package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"spinroute/backend/services/station-refresh/internal/models"
)

// upsertChunkSize keeps a single statement well below the 65535 bind parameter limit.
const upsertChunkSize = 500

const stationColumns = `id, network_id, name, location, capacity,
	num_regular_bikes_available, num_ebikes_available, num_docks_available,
	is_operational, is_renting, is_returning, is_virtual,
	last_reported, fetched_at, raw_data`

// params per row: location takes two (lon, lat)
const paramsPerRow = 16

const upsertConflictClause = `
	ON CONFLICT (id) DO UPDATE SET
		network_id = EXCLUDED.network_id,
		name = EXCLUDED.name,
		location = EXCLUDED.location,
		capacity = EXCLUDED.capacity,
		num_regular_bikes_available = EXCLUDED.num_regular_bikes_available,
		num_ebikes_available = EXCLUDED.num_ebikes_available,
		num_docks_available = EXCLUDED.num_docks_available,
		is_operational = EXCLUDED.is_operational,
		is_renting = EXCLUDED.is_renting,
		is_returning = EXCLUDED.is_returning,
		is_virtual = EXCLUDED.is_virtual,
		last_reported = EXCLUDED.last_reported,
		fetched_at = EXCLUDED.fetched_at,
		raw_data = EXCLUDED.raw_data`

// StationRepository persists normalized station snapshots.
type StationRepository struct {
	db *sql.DB
}

// NewStationRepository returns repository.
func NewStationRepository(db *sql.DB) *StationRepository {
	return &StationRepository{db: db}
}

// OldestFetchedAt returns the oldest fetched_at of a network's stations.
// ok is false when the network has no stations yet.
func (r *StationRepository) OldestFetchedAt(ctx context.Context, networkID string) (time.Time, bool, error) {
	const query = `
		SELECT fetched_at
		FROM stations
		WHERE network_id = $1
		ORDER BY fetched_at ASC
		LIMIT 1
	`
	var fetchedAt time.Time
	err := r.db.QueryRowContext(ctx, query, networkID).Scan(&fetchedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return time.Time{}, false, nil
	}
	if err != nil {
		return time.Time{}, false, err
	}
	return fetchedAt, true, nil
}

// StaleNetworks answers the staleness question in one aggregate query: networks
// with a source id whose oldest station is older than cutoff, or that have no
// stations, stalest first.
func (r *StationRepository) StaleNetworks(ctx context.Context, cutoff time.Time, limit int) ([]models.StaleNetwork, error) {
	const query = `
		SELECT n.id, COALESCE(n.name, ''), ` + sourceIDExpr + ` AS source_id,
			n.station_status_url, n.station_information_url, MIN(s.fetched_at) AS oldest
		FROM networks n
		LEFT JOIN stations s ON s.network_id = n.id
		WHERE ` + sourceIDExpr + ` IS NOT NULL
		GROUP BY n.id
		HAVING MIN(s.fetched_at) IS NULL OR MIN(s.fetched_at) < $1
		ORDER BY oldest ASC NULLS FIRST, n.id
		LIMIT $2
	`
	rows, err := r.db.QueryContext(ctx, query, cutoff, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []models.StaleNetwork
	for rows.Next() {
		var (
			sn     models.StaleNetwork
			oldest sql.NullTime
		)
		if err := rows.Scan(&sn.ID, &sn.Name, &sn.SourceID, &sn.StationStatusURL, &sn.StationInformationURL, &oldest); err != nil {
			return nil, err
		}
		sn.HasStations = oldest.Valid
		sn.OldestFetchedAt = oldest.Time
		out = append(out, sn)
	}
	return out, rows.Err()
}

// UpsertBatch writes all stations in one transaction, last write wins per id.
// Duplicate ids inside the batch are collapsed first since Postgres refuses to
// touch the same row twice in one ON CONFLICT statement.
func (r *StationRepository) UpsertBatch(ctx context.Context, stations []models.Station) (int, error) {
	rows := dedupeByID(stations)
	if len(rows) == 0 {
		return 0, nil
	}

	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return 0, fmt.Errorf("begin upsert: %w", err)
	}
	defer tx.Rollback()

	for start := 0; start < len(rows); start += upsertChunkSize {
		end := start + upsertChunkSize
		if end > len(rows) {
			end = len(rows)
		}
		query, args := buildUpsert(rows[start:end])
		if _, err := tx.ExecContext(ctx, query, args...); err != nil {
			return 0, fmt.Errorf("upsert stations %d-%d: %w", start, end, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return 0, fmt.Errorf("commit upsert: %w", err)
	}
	return len(rows), nil
}

// CountByNetwork returns how many station rows a network has.
func (r *StationRepository) CountByNetwork(ctx context.Context, networkID string) (int, error) {
	const query = `SELECT COUNT(*) FROM stations WHERE network_id = $1`
	var count int
	if err := r.db.QueryRowContext(ctx, query, networkID).Scan(&count); err != nil {
		return 0, err
	}
	return count, nil
}

func buildUpsert(rows []models.Station) (string, []interface{}) {
	var sb strings.Builder
	args := make([]interface{}, 0, len(rows)*paramsPerRow)

	sb.WriteString("INSERT INTO stations (")
	sb.WriteString(stationColumns)
	sb.WriteString(") VALUES ")

	for i, st := range rows {
		if i > 0 {
			sb.WriteString(", ")
		}
		base := i * paramsPerRow
		fmt.Fprintf(&sb,
			"($%d, $%d, $%d, ST_SetSRID(ST_MakePoint($%d, $%d), 4326), $%d, $%d, $%d, $%d, $%d, $%d, $%d, $%d, $%d, $%d, $%d)",
			base+1, base+2, base+3, base+4, base+5, base+6, base+7, base+8,
			base+9, base+10, base+11, base+12, base+13, base+14, base+15, base+16,
		)
		args = append(args,
			st.ID,
			st.NetworkID,
			st.Name,
			st.Location.Lon,
			st.Location.Lat,
			st.Capacity,
			st.NumRegularBikesAvailable,
			st.NumEbikesAvailable,
			st.NumDocksAvailable,
			st.IsOperational,
			st.IsRenting,
			st.IsReturning,
			st.IsVirtual,
			st.LastReported.UTC(),
			st.FetchedAt.UTC(),
			rawJSON(st.RawData),
		)
	}
	sb.WriteString(upsertConflictClause)
	return sb.String(), args
}

func rawJSON(raw []byte) interface{} {
	if len(raw) == 0 {
		return nil
	}
	return string(raw)
}

func dedupeByID(stations []models.Station) []models.Station {
	index := make(map[string]int, len(stations))
	out := make([]models.Station, 0, len(stations))
	for _, st := range stations {
		if i, ok := index[st.ID]; ok {
			out[i] = st
			continue
		}
		index[st.ID] = len(out)
		out = append(out, st)
	}
	return out
}
