// Package provider defines the upstream telemetry provider contract and
// the uniform failure taxonomy the ingestion orchestrator depends on.
package provider

import (
	"context"
	"errors"
	"time"

	"github.com/airgrid/airgrid/internal/aqi"
	"github.com/airgrid/airgrid/internal/reading"
	"github.com/airgrid/airgrid/internal/station"
)

// Typed provider failures. The orchestrator uses this taxonomy to decide
// how a per-station failure is reported; it never receives unstructured
// transport errors.
var (
	// ErrUnavailable covers transport failures, timeouts, 5xx responses
	// and open circuit breakers. Transient and recoverable.
	ErrUnavailable = errors.New("provider unavailable")

	// ErrRateLimited is returned on 429 responses. Transient; the caller
	// should back off before the next batch.
	ErrRateLimited = errors.New("provider rate limited")

	// ErrMalformedPayload covers undecodable or structurally invalid
	// response bodies. Not recoverable for the attempt.
	ErrMalformedPayload = errors.New("malformed provider payload")
)

// RawObservation is the provider-native payload for one point at one
// instant, before normalization. Weather fields are populated for the
// weather domain, Concentrations and AQIBucket for air quality.
type RawObservation struct {
	Coordinate station.Coordinate
	ObservedAt time.Time

	Temperature   float64
	Humidity      float64
	Pressure      float64
	WindSpeed     float64
	WindDirection float64
	CloudCover    float64
	Description   string

	Concentrations aqi.Concentrations
	AQIBucket      int
}

// ForecastEntry is one forward-looking observation with its half-open
// validity window [ValidFrom, ValidTo).
type ForecastEntry struct {
	Observation RawObservation
	ValidFrom   time.Time
	ValidTo     time.Time
}

// Client fetches current and forecast telemetry for one geographic
// point. Implementations hold no mutable state and are safe for
// concurrent use; every call honors the context deadline.
type Client interface {
	FetchCurrent(ctx context.Context, domain reading.Kind, point station.Coordinate) (*RawObservation, error)
	FetchForecast(ctx context.Context, domain reading.Kind, point station.Coordinate) ([]ForecastEntry, error)
}
