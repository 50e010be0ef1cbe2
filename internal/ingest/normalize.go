package ingest

import (
	"time"

	"github.com/airgrid/airgrid/internal/aqi"
	"github.com/airgrid/airgrid/internal/provider"
	"github.com/airgrid/airgrid/internal/reading"
	"github.com/airgrid/airgrid/internal/station"
)

// normalize maps a provider-native observation onto the canonical
// reading model. Station metadata is authoritative for location; a
// calculator signal degrades the affected score to absent without
// failing the station's ingestion.
func normalize(domain reading.Kind, s station.Station, raw provider.RawObservation) reading.Reading {
	observedAt := raw.ObservedAt
	if observedAt.IsZero() {
		observedAt = time.Now().UTC()
	}

	r := reading.Reading{
		StationCode: s.Code,
		Kind:        domain,
		Coordinate:  s.Coordinate,
		ObservedAt:  observedAt,
	}

	switch domain {
	case reading.KindWeather:
		r.Weather = &reading.WeatherData{
			Temperature:   raw.Temperature,
			Humidity:      raw.Humidity,
			Pressure:      raw.Pressure,
			WindSpeed:     raw.WindSpeed,
			WindDirection: raw.WindDirection,
			CloudCover:    raw.CloudCover,
			Description:   raw.Description,
		}
	case reading.KindAirQuality:
		data := &reading.AirQualityData{
			Concentrations: raw.Concentrations,
		}
		if score, err := aqi.OpenWeatherScore(raw.AQIBucket); err == nil {
			data.OpenWeather = &score
		}
		if score, err := aqi.EPAScore(raw.Concentrations); err == nil {
			data.EPA = &score
		}
		r.AirQuality = data
	}

	return r
}
