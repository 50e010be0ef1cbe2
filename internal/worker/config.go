// Package worker provides background ingestion processing for AirGrid.
package worker

import (
	"time"
)

// IngestionConfig holds configuration for the scheduled ingestion job.
type IngestionConfig struct {
	// Interval between scheduled ingestion runs.
	// Default: 10 minutes
	Interval time.Duration

	// IngestWeather enables the weather domain.
	// Default: true
	IngestWeather bool

	// IngestAirQuality enables the air quality domain.
	// Default: true
	IngestAirQuality bool

	// PruneInterval between forecast-entry prune passes.
	// Default: 1 hour
	PruneInterval time.Duration
}

// DefaultIngestionConfig returns the default ingestion configuration.
func DefaultIngestionConfig() IngestionConfig {
	return IngestionConfig{
		Interval:         10 * time.Minute,
		IngestWeather:    true,
		IngestAirQuality: true,
		PruneInterval:    time.Hour,
	}
}
