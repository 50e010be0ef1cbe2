// Package contextstore defines the live-state store holding the single
// latest reading and the active forecast entries per station. The
// ingestion orchestrator is the sole writer; the query federator holds
// a read capability only.
package contextstore

import (
	"context"
	"time"

	"github.com/airgrid/airgrid/internal/reading"
)

// Reader is the query-side capability over the live-state store.
type Reader interface {
	// Latest returns the current reading for one station and kind, or
	// nil when the station has no current reading yet.
	Latest(ctx context.Context, kind reading.Kind, stationCode string) (*reading.Reading, error)

	// ListLatest returns the current reading of every station that has
	// one, ordered by station code.
	ListLatest(ctx context.Context, kind reading.Kind) ([]reading.Reading, error)

	// ActiveForecasts returns forecast readings whose validity window
	// has not elapsed at now, ordered by ValidFrom ascending. An empty
	// stationCode selects all stations.
	ActiveForecasts(ctx context.Context, kind reading.Kind, stationCode string, now time.Time) ([]reading.Reading, error)
}

// Store is the full upsert-by-key contract used by ingestion.
type Store interface {
	Reader

	// UpsertCurrent replaces the station's current reading. Writes
	// older than the stored reading's ObservedAt are ignored so the
	// per-station current reading stays monotonic.
	UpsertCurrent(ctx context.Context, r reading.Reading) error

	// UpsertForecast inserts forecast readings, replacing any stored
	// entry for the same station and kind whose validity window
	// overlaps a new entry.
	UpsertForecast(ctx context.Context, entries []reading.Reading) error

	// PruneExpired drops forecast entries whose window ended at or
	// before the cutoff and returns how many were removed.
	PruneExpired(ctx context.Context, cutoff time.Time) (int, error)
}
