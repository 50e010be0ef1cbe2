// Package aqi converts raw pollutant concentrations into air quality
// index scores on two scales: the provider-native 1-5 bucket scale and
// the US EPA 0-500 composite scale.
package aqi

import "errors"

// Calculator errors. Both describe degraded input data, not failures:
// callers are expected to omit the affected score and continue.
var (
	ErrInvalidIndexInput = errors.New("index input outside valid range")
	ErrInsufficientData  = errors.New("insufficient pollutant data for index")
)

// Pollutant identifies a measured pollutant species.
type Pollutant string

const (
	PollutantCO   Pollutant = "CO"
	PollutantNO   Pollutant = "NO"
	PollutantNO2  Pollutant = "NO2"
	PollutantO3   Pollutant = "O3"
	PollutantSO2  Pollutant = "SO2"
	PollutantPM25 Pollutant = "PM25"
	PollutantPM10 Pollutant = "PM10"
	PollutantNH3  Pollutant = "NH3"
)

// Concentrations maps pollutants to measured values in µg/m³.
// A pollutant absent from the map has no defined concentration.
type Concentrations map[Pollutant]float64

// Score is an air quality index on one scale: a numeric index and its
// human-readable level label.
type Score struct {
	Index int    `json:"index"`
	Level string `json:"level"`
}
