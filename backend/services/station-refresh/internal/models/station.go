package models

import (
	"encoding/json"
	"time"
)

// Point is a WGS84 position.
type Point struct {
	Lon float64 `json:"lon"`
	Lat float64 `json:"lat"`
}

// Station is one normalized row of the stations table.
type Station struct {
	ID                       string          `db:"id" json:"id"`
	NetworkID                string          `db:"network_id" json:"network_id"`
	UpstreamID               string          `db:"-" json:"upstream_id"`
	Name                     string          `db:"name" json:"name"`
	Location                 Point           `db:"location" json:"location"`
	Capacity                 int             `db:"capacity" json:"capacity"`
	NumRegularBikesAvailable int             `db:"num_regular_bikes_available" json:"num_regular_bikes_available"`
	NumEbikesAvailable       int             `db:"num_ebikes_available" json:"num_ebikes_available"`
	NumDocksAvailable        int             `db:"num_docks_available" json:"num_docks_available"`
	IsOperational            bool            `db:"is_operational" json:"is_operational"`
	IsRenting                TriState        `db:"is_renting" json:"is_renting"`
	IsReturning              TriState        `db:"is_returning" json:"is_returning"`
	IsVirtual                bool            `db:"is_virtual" json:"is_virtual"`
	LastReported             time.Time       `db:"last_reported" json:"last_reported"`
	FetchedAt                time.Time       `db:"fetched_at" json:"fetched_at"`
	RawData                  json.RawMessage `db:"raw_data" json:"raw_data,omitempty"`
}
