package models

import "time"

// NetworkOutcome classifies what happened to one network during a run.
type NetworkOutcome string

const (
	OutcomeUpdated     NetworkOutcome = "updated"
	OutcomeDryRun      NetworkOutcome = "dry_run"
	OutcomeNoData      NetworkOutcome = "no_data"
	OutcomeWriteFailed NetworkOutcome = "write_failed"
)

// Succeeded reports whether the network counts as processed.
func (o NetworkOutcome) Succeeded() bool {
	return o == OutcomeUpdated || o == OutcomeDryRun
}

// NetworkResult is the per-network line of a run summary.
type NetworkResult struct {
	NetworkID string         `json:"network_id"`
	Name      string         `json:"name"`
	SourceID  string         `json:"source_id"`
	Outcome   NetworkOutcome `json:"outcome"`
	Fetched   int            `json:"fetched"`
	Written   int            `json:"written"`
	Error     string         `json:"error,omitempty"`
}

// RunSummary describes one refresh cycle.
type RunSummary struct {
	StartedAt       time.Time       `json:"started_at"`
	FinishedAt      time.Time       `json:"finished_at"`
	DryRun          bool            `json:"dry_run"`
	Found           int             `json:"found"`
	Succeeded       int             `json:"succeeded"`
	Failed          int             `json:"failed"`
	StationsWritten int             `json:"stations_written"`
	StationsPlanned int             `json:"stations_planned"`
	Networks        []NetworkResult `json:"networks"`
}
