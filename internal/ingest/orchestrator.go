package ingest

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/airgrid/airgrid/internal/contextstore"
	"github.com/airgrid/airgrid/internal/history"
	"github.com/airgrid/airgrid/internal/provider"
	"github.com/airgrid/airgrid/internal/reading"
	"github.com/airgrid/airgrid/internal/station"
)

// Config holds configuration for the Orchestrator.
type Config struct {
	// Provider is the upstream telemetry client (required).
	Provider provider.Client

	// Store is the context store the orchestrator writes into
	// (required). The orchestrator is its sole writer.
	Store contextstore.Store

	// History receives an append of every current reading. Optional;
	// nil disables historical recording.
	History history.Repository

	// Logger for orchestration events.
	Logger zerolog.Logger

	// Concurrency is the worker pool size, bounded to respect provider
	// rate limits. Default: 4.
	Concurrency int

	// StationTimeout bounds one station's fetch+normalize+upsert
	// sequence. Default: 30s.
	StationTimeout time.Duration

	// IncludeForecast also fetches and upserts the forecast series per
	// station. Default: true.
	IncludeForecast *bool
}

// Orchestrator runs ingestion batches with per-station failure
// isolation: one station's failure is converted into an Outcome and
// never aborts sibling stations.
type Orchestrator struct {
	provider        provider.Client
	store           contextstore.Store
	history         history.Repository
	logger          zerolog.Logger
	concurrency     int
	stationTimeout  time.Duration
	includeForecast bool
}

// New creates an ingestion orchestrator.
func New(cfg Config) *Orchestrator {
	concurrency := cfg.Concurrency
	if concurrency <= 0 {
		concurrency = 4
	}

	stationTimeout := cfg.StationTimeout
	if stationTimeout <= 0 {
		stationTimeout = 30 * time.Second
	}

	includeForecast := true
	if cfg.IncludeForecast != nil {
		includeForecast = *cfg.IncludeForecast
	}

	return &Orchestrator{
		provider:        cfg.Provider,
		store:           cfg.Store,
		history:         cfg.History,
		logger:          cfg.Logger,
		concurrency:     concurrency,
		stationTimeout:  stationTimeout,
		includeForecast: includeForecast,
	}
}

// Run ingests one domain across the given stations. It returns once
// every dispatched unit has completed or the context is cancelled;
// cancellation yields a partial but valid report covering the units
// that finished.
func (o *Orchestrator) Run(ctx context.Context, domain reading.Kind, stations []station.Station) *BatchReport {
	report := &BatchReport{
		RunID:     uuid.NewString(),
		Domain:    domain,
		StartedAt: time.Now(),
	}

	o.logger.Info().
		Str("run_id", report.RunID).
		Str("domain", string(domain)).
		Int("stations", len(stations)).
		Int("concurrency", o.concurrency).
		Msg("starting ingestion run")

	work := make(chan station.Station, len(stations))
	results := make(chan Outcome, len(stations))

	var wg sync.WaitGroup
	for i := 0; i < o.concurrency; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for s := range work {
				select {
				case <-ctx.Done():
					return
				default:
					results <- o.ingestStation(ctx, domain, s)
				}
			}
		}()
	}

	for _, s := range stations {
		work <- s
	}
	close(work)

	go func() {
		wg.Wait()
		close(results)
	}()

	for outcome := range results {
		if outcome.OK {
			report.Success++
		} else {
			report.Failed++
			report.Failures = append(report.Failures, outcome)
		}
	}

	report.Duration = time.Since(report.StartedAt)

	o.logger.Info().
		Str("run_id", report.RunID).
		Str("domain", string(domain)).
		Int("success", report.Success).
		Int("failed", report.Failed).
		Dur("duration", report.Duration).
		Msg("ingestion run completed")

	return report
}

// RunAll ingests both domains. The two runs are independent: a total
// failure in one leaves the other's report untouched.
func (o *Orchestrator) RunAll(ctx context.Context, stations []station.Station) *CombinedReport {
	combined := &CombinedReport{}

	var wg sync.WaitGroup
	wg.Add(2)
	go func() {
		defer wg.Done()
		combined.Weather = o.Run(ctx, reading.KindWeather, stations)
	}()
	go func() {
		defer wg.Done()
		combined.AirQuality = o.Run(ctx, reading.KindAirQuality, stations)
	}()
	wg.Wait()

	return combined
}

// ingestStation is one independent unit of work: fetch, normalize,
// upsert. Any failure is captured as the station's Outcome.
func (o *Orchestrator) ingestStation(ctx context.Context, domain reading.Kind, s station.Station) Outcome {
	unitCtx, cancel := context.WithTimeout(ctx, o.stationTimeout)
	defer cancel()

	raw, err := o.provider.FetchCurrent(unitCtx, domain, s.Coordinate)
	if err != nil {
		return o.failure(domain, s, "fetch current", err)
	}

	current := normalize(domain, s, *raw)
	if err := o.store.UpsertCurrent(unitCtx, current); err != nil {
		return o.failure(domain, s, "upsert current", err)
	}

	if o.history != nil {
		if err := o.history.Insert(unitCtx, current); err != nil {
			return o.failure(domain, s, "record history", err)
		}
	}

	if o.includeForecast {
		entries, err := o.provider.FetchForecast(unitCtx, domain, s.Coordinate)
		if err != nil {
			return o.failure(domain, s, "fetch forecast", err)
		}

		forecasts := make([]reading.Reading, 0, len(entries))
		for _, entry := range entries {
			r := normalize(domain, s, entry.Observation)
			r.ValidFrom = entry.ValidFrom
			r.ValidTo = entry.ValidTo
			forecasts = append(forecasts, r)
		}
		if err := o.store.UpsertForecast(unitCtx, forecasts); err != nil {
			return o.failure(domain, s, "upsert forecast", err)
		}
	}

	return Outcome{StationCode: s.Code, OK: true}
}

func (o *Orchestrator) failure(domain reading.Kind, s station.Station, stage string, err error) Outcome {
	o.logger.Warn().
		Str("domain", string(domain)).
		Str("station", s.Code).
		Str("stage", stage).
		Err(err).
		Msg("station ingestion failed")

	return Outcome{
		StationCode: s.Code,
		OK:          false,
		Error:       fmt.Sprintf("%s: %v", stage, err),
	}
}
