package worker

import (
	"context"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"github.com/airgrid/airgrid/internal/contextstore"
	"github.com/airgrid/airgrid/internal/ingest"
	"github.com/airgrid/airgrid/internal/reading"
	"github.com/airgrid/airgrid/internal/station"
)

// IngestJob drives scheduled ingestion runs and forecast pruning.
type IngestJob struct {
	config       IngestionConfig
	logger       zerolog.Logger
	orchestrator *ingest.Orchestrator
	stations     *station.Registry
	store        contextstore.Store

	jobMetrics *JobMetrics
	stats      *IngestStats
}

// IngestStats tracks cumulative job statistics.
type IngestStats struct {
	mu sync.RWMutex

	TotalRuns          int64
	SuccessfulStations int64
	FailedStations     int64
	PrunedForecasts    int64

	LastRunAt       time.Time
	LastRunDuration time.Duration
}

// IngestJobConfig holds configuration for creating an IngestJob.
type IngestJobConfig struct {
	Config       IngestionConfig
	Logger       zerolog.Logger
	Orchestrator *ingest.Orchestrator
	Stations     *station.Registry
	Store        contextstore.Store
	Metrics      *JobMetrics
}

// NewIngestJob creates a new ingestion job processor.
func NewIngestJob(cfg IngestJobConfig) *IngestJob {
	config := cfg.Config
	if config.Interval <= 0 {
		config = DefaultIngestionConfig()
	}

	return &IngestJob{
		config:       config,
		logger:       cfg.Logger,
		orchestrator: cfg.Orchestrator,
		stations:     cfg.Stations,
		store:        cfg.Store,
		jobMetrics:   cfg.Metrics,
		stats:        &IngestStats{},
	}
}

// JobResult contains the result of one scheduled run.
type JobResult struct {
	StartTime  time.Time
	EndTime    time.Time
	Duration   time.Duration
	Weather    *ingest.BatchReport
	AirQuality *ingest.BatchReport
}

// TotalFailed returns the failed station count across both domains.
func (r *JobResult) TotalFailed() int {
	total := 0
	if r.Weather != nil {
		total += r.Weather.Failed
	}
	if r.AirQuality != nil {
		total += r.AirQuality.Failed
	}
	return total
}

// TotalSuccessful returns the successful station count across both domains.
func (r *JobResult) TotalSuccessful() int {
	total := 0
	if r.Weather != nil {
		total += r.Weather.Success
	}
	if r.AirQuality != nil {
		total += r.AirQuality.Success
	}
	return total
}

// Run executes one ingestion pass over the enabled domains.
func (j *IngestJob) Run(ctx context.Context) *JobResult {
	result := &JobResult{StartTime: time.Now()}
	stations := j.stations.All()

	j.logger.Info().
		Int("stations", len(stations)).
		Bool("weather", j.config.IngestWeather).
		Bool("air_quality", j.config.IngestAirQuality).
		Msg("starting scheduled ingestion run")

	if j.config.IngestWeather {
		result.Weather = j.orchestrator.Run(ctx, reading.KindWeather, stations)
		j.jobMetrics.RecordRun("weather", result.Weather.Duration, result.Weather.Success, result.Weather.Failed)
	}
	if j.config.IngestAirQuality {
		result.AirQuality = j.orchestrator.Run(ctx, reading.KindAirQuality, stations)
		j.jobMetrics.RecordRun("airquality", result.AirQuality.Duration, result.AirQuality.Success, result.AirQuality.Failed)
	}

	result.EndTime = time.Now()
	result.Duration = result.EndTime.Sub(result.StartTime)
	j.updateStats(result)

	j.logger.Info().
		Dur("duration", result.Duration).
		Int("successful", result.TotalSuccessful()).
		Int("failed", result.TotalFailed()).
		Msg("scheduled ingestion run completed")

	return result
}

// Prune removes expired forecast entries from the context store.
func (j *IngestJob) Prune(ctx context.Context) (int, error) {
	removed, err := j.store.PruneExpired(ctx, time.Now().UTC())
	if err != nil {
		j.logger.Error().Err(err).Msg("forecast prune failed")
		return 0, err
	}

	j.jobMetrics.RecordPrune(removed)
	j.stats.mu.Lock()
	j.stats.PrunedForecasts += int64(removed)
	j.stats.mu.Unlock()

	if removed > 0 {
		j.logger.Info().Int("removed", removed).Msg("pruned expired forecasts")
	}
	return removed, nil
}

// RunLoop runs ingestion on the configured interval until the context
// is cancelled. The first run starts immediately.
func (j *IngestJob) RunLoop(ctx context.Context) {
	ticker := time.NewTicker(j.config.Interval)
	defer ticker.Stop()

	pruneTicker := time.NewTicker(j.config.PruneInterval)
	defer pruneTicker.Stop()

	j.Run(ctx)

	for {
		select {
		case <-ctx.Done():
			j.logger.Info().Msg("ingestion loop stopped")
			return
		case <-ticker.C:
			j.Run(ctx)
		case <-pruneTicker.C:
			_, _ = j.Prune(ctx)
		}
	}
}

func (j *IngestJob) updateStats(result *JobResult) {
	j.stats.mu.Lock()
	defer j.stats.mu.Unlock()

	j.stats.TotalRuns++
	j.stats.SuccessfulStations += int64(result.TotalSuccessful())
	j.stats.FailedStations += int64(result.TotalFailed())
	j.stats.LastRunAt = result.EndTime
	j.stats.LastRunDuration = result.Duration
}

// Stats returns a copy of the cumulative job statistics.
func (j *IngestJob) Stats() IngestStats {
	j.stats.mu.RLock()
	defer j.stats.mu.RUnlock()

	return IngestStats{
		TotalRuns:          j.stats.TotalRuns,
		SuccessfulStations: j.stats.SuccessfulStations,
		FailedStations:     j.stats.FailedStations,
		PrunedForecasts:    j.stats.PrunedForecasts,
		LastRunAt:          j.stats.LastRunAt,
		LastRunDuration:    j.stats.LastRunDuration,
	}
}

// StatsSnapshot returns the cumulative statistics as a map.
func (j *IngestJob) StatsSnapshot() map[string]interface{} {
	s := j.Stats()
	return map[string]interface{}{
		"total_runs":          s.TotalRuns,
		"successful_stations": s.SuccessfulStations,
		"failed_stations":     s.FailedStations,
		"pruned_forecasts":    s.PrunedForecasts,
		"last_run_at":         s.LastRunAt,
		"last_run_duration":   s.LastRunDuration.String(),
	}
}
