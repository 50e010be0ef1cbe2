// Package history provides the append-only time-series store of past
// readings. Readings are inserted once and never overwritten.
package history

import (
	"context"
	"time"

	"github.com/airgrid/airgrid/internal/aqi"
	"github.com/airgrid/airgrid/internal/reading"
)

// Filter selects readings over the closed interval [Start, End].
// An empty StationCode selects all stations; a zero Kind selects all
// kinds.
type Filter struct {
	StationCode string
	Kind        reading.Kind
	Start       time.Time
	End         time.Time
}

// Averages holds arithmetic means per pollutant and weather metric over
// a scanned range. An empty range yields zero means and DataPoints 0.
type Averages struct {
	Means      map[string]float64 `json:"means"`
	DataPoints int                `json:"dataPoints"`
}

// Repository is the historical store contract.
type Repository interface {
	// Insert appends one reading.
	Insert(ctx context.Context, r reading.Reading) error

	// Query returns readings matching the filter ordered by ObservedAt
	// ascending, with 1-based page numbering, plus the total match
	// count before pagination.
	Query(ctx context.Context, f Filter, page, limit int) ([]reading.Reading, int, error)

	// Averages scans readings in [start, end] and reduces them to
	// per-pollutant and per-metric means.
	Averages(ctx context.Context, start, end time.Time) (Averages, error)
}

// Weather metric keys used in Averages.Means.
const (
	MetricTemperature = "temperature"
	MetricHumidity    = "humidity"
	MetricPressure    = "pressure"
	MetricWindSpeed   = "windSpeed"
)

// reduceAverages computes arithmetic means across readings. Pollutant
// keys come from air quality concentration blocks, metric keys from
// weather blocks. Shared by all Repository implementations so the two
// stores agree on the aggregate shape.
func reduceAverages(readings []reading.Reading) Averages {
	sums := make(map[string]float64)
	counts := make(map[string]int)

	add := func(key string, v float64) {
		sums[key] += v
		counts[key]++
	}

	for _, r := range readings {
		if r.AirQuality != nil {
			for pollutant, value := range r.AirQuality.Concentrations {
				add(string(pollutant), value)
			}
		}
		if r.Weather != nil {
			add(MetricTemperature, r.Weather.Temperature)
			add(MetricHumidity, r.Weather.Humidity)
			add(MetricPressure, r.Weather.Pressure)
			add(MetricWindSpeed, r.Weather.WindSpeed)
		}
	}

	means := make(map[string]float64, len(sums))
	for key, sum := range sums {
		means[key] = sum / float64(counts[key])
	}

	return Averages{Means: means, DataPoints: len(readings)}
}

// zeroAverages returns the well-defined empty aggregate: every known
// pollutant at mean 0 and DataPoints 0, never a division fault.
func zeroAverages() Averages {
	means := make(map[string]float64)
	for _, p := range []aqi.Pollutant{
		aqi.PollutantCO, aqi.PollutantNO, aqi.PollutantNO2, aqi.PollutantO3,
		aqi.PollutantSO2, aqi.PollutantPM25, aqi.PollutantPM10, aqi.PollutantNH3,
	} {
		means[string(p)] = 0
	}
	return Averages{Means: means, DataPoints: 0}
}
