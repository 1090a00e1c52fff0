// Package normalize converts aggregator station records into station rows.
//
// Providers disagree on how they report capacity and availability, so every
// attribute is resolved through an ordered list of sources and always ends in a
// concrete value. The order for each attribute:
//
//	is_virtual      extra.virtual, extra.uid == "virtual", false
//	capacity        virtual: extra.slots, free_bikes, 0
//	                docked:  empty_slots+free_bikes, extra.slots, free_bikes, 0
//	is_operational  extra.operational, extra.online, closed/offline status, capacity > 0
//	is_renting      not operational, extra.renting, status, free_bikes, unknown
//	is_returning    not operational, extra.returning, status, virtual, empty_slots, unknown
package normalize

import (
	"math"
	"time"

	"go.uber.org/zap"

	"spinroute/backend/services/station-refresh/internal/ident"
	"spinroute/backend/services/station-refresh/internal/models"
)

// Normalizer is safe for concurrent use.
type Normalizer struct {
	now    func() time.Time
	logger *zap.Logger
}

// NewNormalizer returns a normalizer stamping rows with the wall clock.
func NewNormalizer(logger *zap.Logger) *Normalizer {
	return NewNormalizerWithClock(time.Now, logger)
}

// NewNormalizerWithClock allows tests to pin fetched_at.
func NewNormalizerWithClock(now func() time.Time, logger *zap.Logger) *Normalizer {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Normalizer{now: now, logger: logger}
}

// Stations normalizes a whole network payload. All rows share one fetched_at.
func (n *Normalizer) Stations(records []models.UpstreamStation, networkID string) []models.Station {
	now := n.now().UTC()
	out := make([]models.Station, 0, len(records))
	for _, rec := range records {
		out = append(out, n.station(rec, networkID, now))
	}
	return out
}

// Station normalizes a single record.
func (n *Normalizer) Station(rec models.UpstreamStation, networkID string) models.Station {
	return n.station(rec, networkID, n.now().UTC())
}

func (n *Normalizer) station(rec models.UpstreamStation, networkID string, now time.Time) models.Station {
	extra := rec.Extra
	virtual := isVirtual(extra)
	capacity := resolveCapacity(rec, virtual)
	operational := resolveOperational(extra, capacity)

	ebikes := nonNegative(extra.Ebikes.OrZero())
	var regular int
	if extra.NormalBikes.Valid {
		regular = nonNegative(extra.NormalBikes.Value)
	} else {
		regular = nonNegative(rec.FreeBikes.OrZero() - float64(ebikes))
	}

	lastReported, ok := ident.ParseTimestamp(string(rec.Timestamp))
	if !ok {
		if rec.Timestamp != "" {
			n.logger.Debug("unparseable station timestamp",
				zap.String("station", string(rec.ID)),
				zap.String("timestamp", string(rec.Timestamp)))
		}
		lastReported = now
	}

	return models.Station{
		ID:                       ident.StationID(string(rec.ID)),
		NetworkID:                networkID,
		UpstreamID:               string(rec.ID),
		Name:                     string(rec.Name),
		Location:                 models.Point{Lon: rec.Longitude.OrZero(), Lat: rec.Latitude.OrZero()},
		Capacity:                 capacity,
		NumRegularBikesAvailable: regular,
		NumEbikesAvailable:       ebikes,
		NumDocksAvailable:        nonNegative(rec.EmptySlots.OrZero()),
		IsOperational:            operational,
		IsRenting:                resolveRenting(rec, operational),
		IsReturning:              resolveReturning(rec, operational, virtual),
		IsVirtual:                virtual,
		LastReported:             lastReported,
		FetchedAt:                now,
		RawData:                  rec.Raw,
	}
}

func isVirtual(extra models.Extra) bool {
	if extra.Virtual.IsTrue() {
		return true
	}
	return extra.UID == "virtual"
}

func resolveCapacity(rec models.UpstreamStation, virtual bool) int {
	extra := rec.Extra
	if virtual {
		switch {
		case extra.Slots.Truthy():
			return nonNegative(extra.Slots.Value)
		case rec.FreeBikes.Truthy():
			return nonNegative(rec.FreeBikes.Value)
		default:
			return 0
		}
	}

	switch {
	case rec.EmptySlots.Valid && rec.EmptySlots.Value >= 0 && rec.FreeBikes.Valid && rec.FreeBikes.Value >= 0:
		return toInt(rec.EmptySlots.Value + rec.FreeBikes.Value)
	case extra.Slots.Valid && extra.Slots.Value > 0:
		return toInt(extra.Slots.Value)
	case rec.FreeBikes.Valid && rec.FreeBikes.Value > 0:
		return toInt(rec.FreeBikes.Value)
	default:
		return 0
	}
}

func resolveOperational(extra models.Extra, capacity int) bool {
	switch {
	case extra.Operational.Present():
		return extra.Operational.IsTrue()
	case extra.Online.Present():
		return extra.Online.IsTrue()
	case extra.Status == "closed" || extra.Status == "offline":
		return false
	default:
		return capacity > 0
	}
}

func statusClosed(status string) bool {
	return status == "closed" || status == "offline" || status == "maintenance"
}

func statusOpen(status string) bool {
	return status == "open" || status == "active"
}

func resolveRenting(rec models.UpstreamStation, operational bool) models.TriState {
	extra := rec.Extra
	switch {
	case !operational:
		return models.False
	case extra.Renting.Present():
		return extra.Renting.Tri()
	case statusClosed(extra.Status):
		return models.False
	case statusOpen(extra.Status):
		return models.True
	case rec.FreeBikes.Valid && rec.FreeBikes.Value > 0:
		return models.True
	case rec.FreeBikes.Valid && rec.FreeBikes.Value == 0:
		return models.False
	default:
		return models.Unknown
	}
}

func resolveReturning(rec models.UpstreamStation, operational, virtual bool) models.TriState {
	extra := rec.Extra
	switch {
	case !operational:
		return models.False
	case extra.Returning.Present():
		return extra.Returning.Tri()
	case statusClosed(extra.Status):
		return models.False
	case statusOpen(extra.Status):
		return models.True
	case virtual:
		// free-floating zones accept returns even when empty_slots reads 0
		return models.True
	case rec.EmptySlots.Valid && rec.EmptySlots.Value > 0:
		return models.True
	default:
		return models.Unknown
	}
}

func toInt(v float64) int {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return 0
	}
	return int(math.Round(v))
}

func nonNegative(v float64) int {
	n := toInt(v)
	if n < 0 {
		return 0
	}
	return n
}
