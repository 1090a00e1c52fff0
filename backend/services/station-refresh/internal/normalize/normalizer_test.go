package normalize

import (
	"testing"
	"time"

	json "github.com/goccy/go-json"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"spinroute/backend/services/station-refresh/internal/ident"
	"spinroute/backend/services/station-refresh/internal/models"
)

var fixedNow = time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)

func newTestNormalizer() *Normalizer {
	return NewNormalizerWithClock(func() time.Time { return fixedNow }, nil)
}

func decode(t *testing.T, body string) models.UpstreamStation {
	t.Helper()
	var rec models.UpstreamStation
	require.NoError(t, json.Unmarshal([]byte(body), &rec))
	return rec
}

func TestDockedStationCapacity(t *testing.T) {
	st := newTestNormalizer().Station(decode(t, `{
		"id": "s1", "name": "Dock", "latitude": 40.1, "longitude": -73.9,
		"free_bikes": 3, "empty_slots": 7, "timestamp": "2025-06-01T11:58:00Z"
	}`), "net-1")

	assert.Equal(t, 10, st.Capacity)
	assert.Equal(t, 7, st.NumDocksAvailable)
	assert.Equal(t, 3, st.NumRegularBikesAvailable)
	assert.Equal(t, 0, st.NumEbikesAvailable)
	assert.False(t, st.IsVirtual)
	assert.True(t, st.IsOperational)
	assert.Equal(t, models.True, st.IsRenting)
	assert.Equal(t, models.True, st.IsReturning)
	assert.Equal(t, models.Point{Lon: -73.9, Lat: 40.1}, st.Location)
	assert.Equal(t, ident.StationID("s1"), st.ID)
	assert.Equal(t, "net-1", st.NetworkID)
	assert.Equal(t, time.Date(2025, 6, 1, 11, 58, 0, 0, time.UTC), st.LastReported)
	assert.Equal(t, fixedNow, st.FetchedAt)
	assert.JSONEq(t, `{"id": "s1", "name": "Dock", "latitude": 40.1, "longitude": -73.9,
		"free_bikes": 3, "empty_slots": 7, "timestamp": "2025-06-01T11:58:00Z"}`, string(st.RawData))
}

func TestVirtualStationFallsBackToFreeBikes(t *testing.T) {
	st := newTestNormalizer().Station(decode(t, `{
		"id": "v1", "free_bikes": 4, "empty_slots": null, "extra": {"virtual": true, "slots": 0}
	}`), "net-1")

	assert.True(t, st.IsVirtual)
	assert.Equal(t, 4, st.Capacity)
	assert.True(t, st.IsOperational)
	assert.Equal(t, models.True, st.IsRenting)
	assert.Equal(t, models.True, st.IsReturning)
	assert.Equal(t, 0, st.NumDocksAvailable)
}

func TestVirtualStationUsesSlots(t *testing.T) {
	st := newTestNormalizer().Station(decode(t, `{
		"id": "v2", "free_bikes": 1, "empty_slots": 0, "extra": {"uid": "virtual", "slots": 25}
	}`), "net-1")

	assert.True(t, st.IsVirtual)
	assert.Equal(t, 25, st.Capacity)
	// virtual and operational wins over empty_slots == 0
	assert.Equal(t, models.True, st.IsReturning)
}

func TestVirtualNumericFlag(t *testing.T) {
	st := newTestNormalizer().Station(decode(t, `{"id": "v3", "free_bikes": 0, "extra": {"virtual": 1}}`), "n")

	assert.True(t, st.IsVirtual)
	assert.Equal(t, 0, st.Capacity)
	assert.False(t, st.IsOperational)
	assert.Equal(t, models.False, st.IsRenting)
	assert.Equal(t, models.False, st.IsReturning)
}

func TestClosedStatusOverridesEverything(t *testing.T) {
	st := newTestNormalizer().Station(decode(t, `{
		"id": "c1", "free_bikes": 2, "empty_slots": 5, "extra": {"status": "closed"}
	}`), "net-1")

	assert.Equal(t, 7, st.Capacity)
	assert.False(t, st.IsOperational)
	assert.Equal(t, models.False, st.IsRenting)
	assert.Equal(t, models.False, st.IsReturning)
}

func TestOperationalFlagBeatsOnlineAndStatus(t *testing.T) {
	st := newTestNormalizer().Station(decode(t, `{
		"id": "o1", "free_bikes": 0, "empty_slots": 0,
		"extra": {"operational": 1, "online": false, "status": "offline"}
	}`), "net-1")

	assert.True(t, st.IsOperational)
	// status still pins renting/returning once operational is settled
	assert.Equal(t, models.False, st.IsRenting)
	assert.Equal(t, models.False, st.IsReturning)
}

func TestOnlineFlagOverridesCapacity(t *testing.T) {
	st := newTestNormalizer().Station(decode(t, `{
		"id": "o2", "free_bikes": 5, "empty_slots": 5, "extra": {"online": false}
	}`), "net-1")

	assert.False(t, st.IsOperational)
	assert.Equal(t, models.False, st.IsRenting)
}

func TestExplicitRentingReturning(t *testing.T) {
	st := newTestNormalizer().Station(decode(t, `{
		"id": "r1", "free_bikes": 0, "empty_slots": 10,
		"extra": {"renting": true, "returning": 0, "status": "open"}
	}`), "net-1")

	assert.Equal(t, models.True, st.IsRenting)
	assert.Equal(t, models.False, st.IsReturning)
}

func TestStatusOpenAndMaintenance(t *testing.T) {
	n := newTestNormalizer()

	open := n.Station(decode(t, `{"id": "a", "free_bikes": 0, "empty_slots": 0, "extra": {"slots": 10, "status": "Active"}}`), "n")
	assert.Equal(t, 0, open.Capacity)
	assert.False(t, open.IsOperational)

	open = n.Station(decode(t, `{"id": "a", "free_bikes": 0, "empty_slots": 4, "extra": {"status": "active"}}`), "n")
	assert.True(t, open.IsOperational)
	assert.Equal(t, models.True, open.IsRenting)
	assert.Equal(t, models.True, open.IsReturning)

	maint := n.Station(decode(t, `{"id": "b", "free_bikes": 3, "empty_slots": 4, "extra": {"status": "maintenance"}}`), "n")
	assert.True(t, maint.IsOperational)
	assert.Equal(t, models.False, maint.IsRenting)
	assert.Equal(t, models.False, maint.IsReturning)
}

func TestUnknownTriStates(t *testing.T) {
	// capacity from extra.slots, no bike or dock counts at all
	st := newTestNormalizer().Station(decode(t, `{"id": "u1", "extra": {"slots": 12}}`), "n")

	assert.Equal(t, 12, st.Capacity)
	assert.True(t, st.IsOperational)
	assert.Equal(t, models.Unknown, st.IsRenting)
	assert.Equal(t, models.Unknown, st.IsReturning)
}

func TestEmptyBikesKnownFalseRenting(t *testing.T) {
	st := newTestNormalizer().Station(decode(t, `{"id": "u2", "free_bikes": 0, "empty_slots": 0, "extra": {"slots": 12}}`), "n")

	// docked sum is 0, which is a valid capacity, so the station is not operational
	assert.Equal(t, 0, st.Capacity)
	assert.False(t, st.IsOperational)

	st = newTestNormalizer().Station(decode(t, `{"id": "u3", "free_bikes": 0, "extra": {"slots": 12}}`), "n")
	assert.Equal(t, 12, st.Capacity)
	assert.Equal(t, models.False, st.IsRenting)
	assert.Equal(t, models.Unknown, st.IsReturning)
}

func TestNegativeSlotsFallBack(t *testing.T) {
	st := newTestNormalizer().Station(decode(t, `{"id": "n1", "free_bikes": 6, "empty_slots": -1}`), "n")

	assert.Equal(t, 6, st.Capacity)
	assert.Equal(t, 0, st.NumDocksAvailable)
	assert.Equal(t, models.Unknown, st.IsReturning)
}

func TestBikeCounts(t *testing.T) {
	n := newTestNormalizer()

	st := n.Station(decode(t, `{"id": "b1", "free_bikes": 5, "empty_slots": 1, "extra": {"ebikes": 2}}`), "n")
	assert.Equal(t, 2, st.NumEbikesAvailable)
	assert.Equal(t, 3, st.NumRegularBikesAvailable)

	st = n.Station(decode(t, `{"id": "b2", "free_bikes": 5, "empty_slots": 1, "extra": {"ebikes": 2, "normal_bikes": 4}}`), "n")
	assert.Equal(t, 4, st.NumRegularBikesAvailable)

	st = n.Station(decode(t, `{"id": "b3", "free_bikes": 1, "empty_slots": 1, "extra": {"ebikes": 3}}`), "n")
	assert.Equal(t, 0, st.NumRegularBikesAvailable)
}

func TestBadTimestampFallsBackToNow(t *testing.T) {
	st := newTestNormalizer().Station(decode(t, `{"id": "t1", "timestamp": "not a time"}`), "n")
	assert.Equal(t, fixedNow, st.LastReported)

	st = newTestNormalizer().Station(decode(t, `{"id": "t2"}`), "n")
	assert.Equal(t, fixedNow, st.LastReported)
}

func TestStationsSharesFetchedAt(t *testing.T) {
	calls := 0
	n := NewNormalizerWithClock(func() time.Time {
		calls++
		return fixedNow.Add(time.Duration(calls) * time.Second)
	}, nil)

	rows := n.Stations([]models.UpstreamStation{
		decode(t, `{"id": "a"}`),
		decode(t, `{"id": "b"}`),
	}, "net")

	require.Len(t, rows, 2)
	assert.Equal(t, 1, calls)
	assert.Equal(t, rows[0].FetchedAt, rows[1].FetchedAt)
	assert.NotEqual(t, rows[0].ID, rows[1].ID)
}
