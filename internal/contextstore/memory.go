package contextstore

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/airgrid/airgrid/internal/reading"
)

// entityKey addresses one station's entity within a kind.
type entityKey struct {
	kind    reading.Kind
	station string
}

// Memory is an in-process Store implementation. Reads never block
// longer than the copy of the requested slice; last-write-wins per key
// is enforced under one mutex.
type Memory struct {
	mu        sync.RWMutex
	current   map[entityKey]reading.Reading
	forecasts map[entityKey][]reading.Reading
}

// NewMemory creates an empty in-memory context store.
func NewMemory() *Memory {
	return &Memory{
		current:   make(map[entityKey]reading.Reading),
		forecasts: make(map[entityKey][]reading.Reading),
	}
}

// UpsertCurrent replaces the current reading for (station, kind).
// A write carrying an older ObservedAt than the stored reading is
// dropped, keeping the current reading monotonic per station.
func (m *Memory) UpsertCurrent(_ context.Context, r reading.Reading) error {
	key := entityKey{kind: r.Kind, station: r.StationCode}

	m.mu.Lock()
	defer m.mu.Unlock()

	if existing, ok := m.current[key]; ok && r.ObservedAt.Before(existing.ObservedAt) {
		return nil
	}
	m.current[key] = r
	return nil
}

// UpsertForecast inserts entries, replacing stored entries for the same
// station and kind with overlapping validity windows.
func (m *Memory) UpsertForecast(_ context.Context, entries []reading.Reading) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	for _, entry := range entries {
		key := entityKey{kind: entry.Kind, station: entry.StationCode}

		kept := m.forecasts[key][:0:0]
		for _, existing := range m.forecasts[key] {
			if !existing.OverlapsWindow(entry.ValidFrom, entry.ValidTo) {
				kept = append(kept, existing)
			}
		}
		kept = append(kept, entry)
		sort.Slice(kept, func(i, j int) bool {
			return kept[i].ValidFrom.Before(kept[j].ValidFrom)
		})
		m.forecasts[key] = kept
	}
	return nil
}

// Latest returns the current reading for one station, or nil.
func (m *Memory) Latest(_ context.Context, kind reading.Kind, stationCode string) (*reading.Reading, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	r, ok := m.current[entityKey{kind: kind, station: stationCode}]
	if !ok {
		return nil, nil
	}
	return &r, nil
}

// ListLatest returns every station's current reading, ordered by code.
func (m *Memory) ListLatest(_ context.Context, kind reading.Kind) ([]reading.Reading, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	var out []reading.Reading
	for key, r := range m.current {
		if key.kind == kind {
			out = append(out, r)
		}
	}
	sort.Slice(out, func(i, j int) bool {
		return out[i].StationCode < out[j].StationCode
	})
	return out, nil
}

// ActiveForecasts returns non-expired forecast readings ordered by
// ValidFrom ascending.
func (m *Memory) ActiveForecasts(_ context.Context, kind reading.Kind, stationCode string, now time.Time) ([]reading.Reading, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	var out []reading.Reading
	for key, entries := range m.forecasts {
		if key.kind != kind {
			continue
		}
		if stationCode != "" && key.station != stationCode {
			continue
		}
		for _, entry := range entries {
			if now.Before(entry.ValidTo) {
				out = append(out, entry)
			}
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if !out[i].ValidFrom.Equal(out[j].ValidFrom) {
			return out[i].ValidFrom.Before(out[j].ValidFrom)
		}
		return out[i].StationCode < out[j].StationCode
	})
	return out, nil
}

// PruneExpired drops forecast entries with ValidTo at or before cutoff.
func (m *Memory) PruneExpired(_ context.Context, cutoff time.Time) (int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	pruned := 0
	for key, entries := range m.forecasts {
		kept := entries[:0:0]
		for _, entry := range entries {
			if entry.ValidTo.After(cutoff) {
				kept = append(kept, entry)
			} else {
				pruned++
			}
		}
		if len(kept) == 0 {
			delete(m.forecasts, key)
		} else {
			m.forecasts[key] = kept
		}
	}
	return pruned, nil
}
