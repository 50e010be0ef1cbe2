// Package reading defines the canonical normalized entity model for
// environmental telemetry. Readings are produced by ingestion, held in
// the context store, and appended to the historical store.
package reading

import (
	"time"

	"github.com/airgrid/airgrid/internal/aqi"
	"github.com/airgrid/airgrid/internal/station"
)

// Kind discriminates the two reading domains.
type Kind string

const (
	KindWeather    Kind = "weather"
	KindAirQuality Kind = "airquality"
)

// Valid reports whether k is a known kind.
func (k Kind) Valid() bool {
	return k == KindWeather || k == KindAirQuality
}

// WeatherData is the weather measurement block of a reading.
type WeatherData struct {
	Temperature   float64 `json:"temperature"`             // °C
	Humidity      float64 `json:"humidity"`                // %
	Pressure      float64 `json:"pressure"`                // hPa
	WindSpeed     float64 `json:"windSpeed"`               // m/s
	WindDirection float64 `json:"windDirection"`           // degrees
	CloudCover    float64 `json:"cloudCover"`              // %
	Description   string  `json:"description,omitempty"`
}

// AirQualityData is the air quality measurement block of a reading.
// Either score may be nil when the calculator could not produce one;
// a missing score must stay absent rather than default to zero.
type AirQualityData struct {
	Concentrations aqi.Concentrations `json:"concentrations"`
	OpenWeather    *aqi.Score         `json:"openWeatherAQI,omitempty"`
	EPA            *aqi.Score         `json:"epaAQI,omitempty"`
}

// Reading is one canonical observation for a station at an instant,
// keyed by (StationCode, ObservedAt). Forecast readings additionally
// carry a [ValidFrom, ValidTo) validity window.
type Reading struct {
	StationCode string             `json:"stationCode"`
	Kind        Kind               `json:"kind"`
	Coordinate  station.Coordinate `json:"coordinate"`
	Address     string             `json:"address,omitempty"`
	ObservedAt  time.Time          `json:"observedAt"`

	Weather    *WeatherData    `json:"weather,omitempty"`
	AirQuality *AirQualityData `json:"airQuality,omitempty"`

	ValidFrom time.Time `json:"validFrom,omitzero"`
	ValidTo   time.Time `json:"validTo,omitzero"`
}

// IsForecast reports whether the reading carries a validity window.
func (r Reading) IsForecast() bool {
	return !r.ValidFrom.IsZero() || !r.ValidTo.IsZero()
}

// ActiveAt reports whether a forecast reading's half-open validity
// window [ValidFrom, ValidTo) covers t.
func (r Reading) ActiveAt(t time.Time) bool {
	return !t.Before(r.ValidFrom) && t.Before(r.ValidTo)
}

// OverlapsWindow reports whether the reading's validity window overlaps
// the half-open interval [from, to).
func (r Reading) OverlapsWindow(from, to time.Time) bool {
	return r.ValidFrom.Before(to) && from.Before(r.ValidTo)
}
