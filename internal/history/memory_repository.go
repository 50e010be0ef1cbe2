package history

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/airgrid/airgrid/internal/reading"
)

// MemoryRepository is an in-memory Repository for tests and local
// development.
type MemoryRepository struct {
	mu       sync.RWMutex
	readings []reading.Reading
}

// NewMemoryRepository creates an empty in-memory historical store.
func NewMemoryRepository() *MemoryRepository {
	return &MemoryRepository{}
}

// Insert appends one reading.
func (r *MemoryRepository) Insert(_ context.Context, rd reading.Reading) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.readings = append(r.readings, rd)
	return nil
}

// Query returns matching readings ordered by ObservedAt ascending with
// 1-based pagination.
func (r *MemoryRepository) Query(_ context.Context, f Filter, page, limit int) ([]reading.Reading, int, error) {
	if page < 1 {
		page = 1
	}
	if limit < 1 {
		limit = 50
	}

	r.mu.RLock()
	matched := r.match(f)
	r.mu.RUnlock()

	sort.Slice(matched, func(i, j int) bool {
		return matched[i].ObservedAt.Before(matched[j].ObservedAt)
	})

	total := len(matched)
	offset := (page - 1) * limit
	if offset >= total {
		return []reading.Reading{}, total, nil
	}
	end := offset + limit
	if end > total {
		end = total
	}
	return matched[offset:end], total, nil
}

// Averages reduces readings in [start, end] to per-key means.
func (r *MemoryRepository) Averages(_ context.Context, start, end time.Time) (Averages, error) {
	r.mu.RLock()
	matched := r.match(Filter{Start: start, End: end})
	r.mu.RUnlock()

	if len(matched) == 0 {
		return zeroAverages(), nil
	}
	return reduceAverages(matched), nil
}

// match copies readings satisfying the filter. Caller holds the lock.
func (r *MemoryRepository) match(f Filter) []reading.Reading {
	var out []reading.Reading
	for _, rd := range r.readings {
		if f.StationCode != "" && rd.StationCode != f.StationCode {
			continue
		}
		if f.Kind != "" && rd.Kind != f.Kind {
			continue
		}
		if !f.Start.IsZero() && rd.ObservedAt.Before(f.Start) {
			continue
		}
		if !f.End.IsZero() && rd.ObservedAt.After(f.End) {
			continue
		}
		out = append(out, rd)
	}
	return out
}

// Len returns the number of stored readings.
func (r *MemoryRepository) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.readings)
}
