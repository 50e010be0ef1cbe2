// Package query federates the live context store and the historical
// store behind one read-only surface. It never writes to either
// backing store.
package query

import (
	"errors"
	"time"

	"github.com/airgrid/airgrid/internal/reading"
	"github.com/airgrid/airgrid/internal/station"
)

// Federator errors.
var (
	// ErrNoStationInRadius is a typed "not found" outcome for nearby
	// lookups, distinct from transport or store failures.
	ErrNoStationInRadius = errors.New("no station within radius")

	// ErrInvalidCompareSet signals a comparison request outside the
	// supported 2 to 10 station codes.
	ErrInvalidCompareSet = errors.New("compare requires between 2 and 10 station codes")
)

// PageMeta describes a paginated history result. Pages are 1-based.
type PageMeta struct {
	Total      int `json:"total"`
	Page       int `json:"page"`
	Limit      int `json:"limit"`
	TotalPages int `json:"totalPages"`
}

// HistoryPage is one page of historical readings with its metadata.
// Data is always non-nil, also for pages beyond the last.
type HistoryPage struct {
	Data []reading.Reading `json:"data"`
	Meta PageMeta          `json:"meta"`
}

// NearbyInclude selects which live data to attach to a nearby result.
// The zero value includes the current reading only.
type NearbyInclude struct {
	Current  bool `json:"current"`
	Forecast bool `json:"forecast"`
}

// NearbyResult is the resolved nearest station with its requested live
// data. ValidUntil is an upper bound on result freshness for client
// caching; an ingestion run completing earlier may supersede the data
// before that instant, so it is not a freshness guarantee.
type NearbyResult struct {
	Station    station.Station   `json:"station"`
	DistanceKm float64           `json:"distanceKm"`
	Current    *reading.Reading  `json:"current,omitempty"`
	Forecast   []reading.Reading `json:"forecast,omitempty"`
	ValidUntil time.Time         `json:"validUntil"`
}

// CompareEntry is one station's slot in a comparison. Data is null
// for stations with no current reading; the slot itself is never
// omitted.
type CompareEntry struct {
	StationCode string           `json:"stationCode"`
	Data        *reading.Reading `json:"data"`
}
