package models

import (
	"database/sql"
	"time"
)

// Network is a bikeshare system as stored in the networks table.
type Network struct {
	ID                    string         `db:"id" json:"id"`
	Name                  string         `db:"name" json:"name"`
	SourceID              string         `db:"source_id" json:"source_id"`
	StationStatusURL      sql.NullString `db:"station_status_url" json:"-"`
	StationInformationURL sql.NullString `db:"station_information_url" json:"-"`
}

// StaleNetwork is a refresh candidate. HasStations is false when the network
// has never been refreshed, in which case OldestFetchedAt is zero.
type StaleNetwork struct {
	Network
	HasStations     bool      `json:"has_stations"`
	OldestFetchedAt time.Time `json:"oldest_fetched_at"`
}
