// Package ingest drives provider fetches across all configured
// stations, normalizes the results into canonical readings and
// publishes them into the context store.
package ingest

import (
	"time"

	"github.com/airgrid/airgrid/internal/reading"
)

// Outcome is the per-station result of one ingestion attempt.
type Outcome struct {
	StationCode string `json:"stationCode"`
	OK          bool   `json:"ok"`
	Error       string `json:"error,omitempty"`
}

// BatchReport summarizes one ingestion run for one domain. It is
// returned to the caller and never persisted; the shape is directly
// serializable for the trigger surface.
type BatchReport struct {
	RunID     string        `json:"runId"`
	Domain    reading.Kind  `json:"domain"`
	Success   int           `json:"success"`
	Failed    int           `json:"failed"`
	Failures  []Outcome     `json:"failures,omitempty"`
	StartedAt time.Time     `json:"startedAt"`
	Duration  time.Duration `json:"durationNs"`
}

// Total returns the number of stations the run accounted for.
func (r *BatchReport) Total() int {
	return r.Success + r.Failed
}

// CombinedReport aggregates the two independent per-domain reports of
// a full run. Failure in one domain never affects the other.
type CombinedReport struct {
	Weather    *BatchReport `json:"weather"`
	AirQuality *BatchReport `json:"airQuality"`
}
