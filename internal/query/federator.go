package query

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"github.com/airgrid/airgrid/internal/contextstore"
	"github.com/airgrid/airgrid/internal/geo"
	"github.com/airgrid/airgrid/internal/history"
	"github.com/airgrid/airgrid/internal/reading"
	"github.com/airgrid/airgrid/internal/station"
)

const (
	defaultStaleness    = time.Hour
	defaultHistoryLimit = 50
	maxHistoryLimit     = 500

	compareMin = 2
	compareMax = 10
)

// Config holds configuration for the Federator.
type Config struct {
	// Stations is the monitoring location registry (required).
	Stations *station.Registry

	// Store is the live-state read capability (required).
	Store contextstore.Reader

	// History is the durable time-series store (required).
	History history.Repository

	// Logger for query events.
	Logger zerolog.Logger

	// Staleness is the current-data cache window used for nearby
	// ValidUntil stamps. Default: 1h.
	Staleness time.Duration

	// Now returns the request time. Overridable in tests.
	Now func() time.Time
}

// Federator answers the five read shapes over the two backing stores.
type Federator struct {
	stations  *station.Registry
	store     contextstore.Reader
	history   history.Repository
	logger    zerolog.Logger
	staleness time.Duration
	now       func() time.Time
}

// New creates a query federator.
func New(cfg Config) *Federator {
	staleness := cfg.Staleness
	if staleness <= 0 {
		staleness = defaultStaleness
	}

	now := cfg.Now
	if now == nil {
		now = func() time.Time { return time.Now().UTC() }
	}

	return &Federator{
		stations:  cfg.Stations,
		store:     cfg.Store,
		history:   cfg.History,
		logger:    cfg.Logger,
		staleness: staleness,
		now:       now,
	}
}

// Current returns the latest reading per station. An empty stationCode
// selects every station that has a current reading. A known station
// without a current reading yields an empty list, not an error; an
// unknown station yields station.ErrNotFound.
func (f *Federator) Current(ctx context.Context, kind reading.Kind, stationCode string) ([]reading.Reading, error) {
	if stationCode == "" {
		return f.store.ListLatest(ctx, kind)
	}

	if !f.stations.Has(stationCode) {
		return nil, fmt.Errorf("station %q: %w", stationCode, station.ErrNotFound)
	}

	r, err := f.store.Latest(ctx, kind, stationCode)
	if err != nil {
		return nil, fmt.Errorf("reading current state: %w", err)
	}
	if r == nil {
		return []reading.Reading{}, nil
	}
	return []reading.Reading{*r}, nil
}

// Forecast returns the non-expired forecast readings for the
// station(s), ordered by ValidFrom ascending.
func (f *Federator) Forecast(ctx context.Context, kind reading.Kind, stationCode string) ([]reading.Reading, error) {
	if stationCode != "" && !f.stations.Has(stationCode) {
		return nil, fmt.Errorf("station %q: %w", stationCode, station.ErrNotFound)
	}

	entries, err := f.store.ActiveForecasts(ctx, kind, stationCode, f.now())
	if err != nil {
		return nil, fmt.Errorf("reading forecast state: %w", err)
	}
	if entries == nil {
		entries = []reading.Reading{}
	}
	return entries, nil
}

// History returns one page of historical readings over the closed
// interval in the filter. A page past the last returns empty data with
// accurate metadata.
func (f *Federator) History(ctx context.Context, filter history.Filter, page, limit int) (HistoryPage, error) {
	if filter.StationCode != "" && !f.stations.Has(filter.StationCode) {
		return HistoryPage{}, fmt.Errorf("station %q: %w", filter.StationCode, station.ErrNotFound)
	}

	if page < 1 {
		page = 1
	}
	if limit < 1 {
		limit = defaultHistoryLimit
	}
	if limit > maxHistoryLimit {
		limit = maxHistoryLimit
	}

	data, total, err := f.history.Query(ctx, filter, page, limit)
	if err != nil {
		return HistoryPage{}, fmt.Errorf("querying history: %w", err)
	}
	if data == nil {
		data = []reading.Reading{}
	}

	return HistoryPage{
		Data: data,
		Meta: PageMeta{
			Total:      total,
			Page:       page,
			Limit:      limit,
			TotalPages: (total + limit - 1) / limit,
		},
	}, nil
}

// Nearby resolves the nearest station within radiusKm of the point and
// attaches the requested live data. It returns ErrNoStationInRadius
// when nothing qualifies.
func (f *Federator) Nearby(ctx context.Context, kind reading.Kind, point station.Coordinate, radiusKm float64, include NearbyInclude) (*NearbyResult, error) {
	matches := geo.FindNearest(point, f.stations.All(), radiusKm, 1)
	if len(matches) == 0 {
		return nil, ErrNoStationInRadius
	}
	match := matches[0]

	if !include.Current && !include.Forecast {
		include.Current = true
	}

	result := &NearbyResult{
		Station:    match.Station,
		DistanceKm: match.DistanceKm,
		ValidUntil: f.now().Add(f.staleness),
	}

	if include.Current {
		r, err := f.store.Latest(ctx, kind, match.Station.Code)
		if err != nil {
			return nil, fmt.Errorf("reading current state: %w", err)
		}
		result.Current = r
	}

	if include.Forecast {
		entries, err := f.store.ActiveForecasts(ctx, kind, match.Station.Code, f.now())
		if err != nil {
			return nil, fmt.Errorf("reading forecast state: %w", err)
		}
		result.Forecast = entries
	}

	return result, nil
}

// Compare fans out current-reading lookups for 2 to 10 station codes
// in parallel. The result holds exactly one entry per requested code
// in the requested order; a station with no current reading occupies
// its slot with nil Data.
func (f *Federator) Compare(ctx context.Context, kind reading.Kind, codes []string) ([]CompareEntry, error) {
	if len(codes) < compareMin || len(codes) > compareMax {
		return nil, ErrInvalidCompareSet
	}

	entries := make([]CompareEntry, len(codes))

	var wg sync.WaitGroup
	for i, code := range codes {
		entries[i].StationCode = code

		wg.Add(1)
		go func(i int, code string) {
			defer wg.Done()

			r, err := f.store.Latest(ctx, kind, code)
			if err != nil {
				f.logger.Warn().
					Str("station", code).
					Err(err).
					Msg("comparison lookup failed")
				return
			}
			entries[i].Data = r
		}(i, code)
	}
	wg.Wait()

	return entries, nil
}

// Averages computes arithmetic means per pollutant and weather metric
// over the closed interval. An empty range yields zero means and a
// zero data-point count.
func (f *Federator) Averages(ctx context.Context, start, end time.Time) (history.Averages, error) {
	avg, err := f.history.Averages(ctx, start, end)
	if err != nil {
		return history.Averages{}, fmt.Errorf("computing averages: %w", err)
	}
	return avg, nil
}
