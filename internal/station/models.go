// Package station holds the immutable monitoring location reference
// data. The station list is loaded once at startup and never mutated.
package station

import "errors"

// Station errors.
var (
	ErrNotFound     = errors.New("station not found")
	ErrInvalidCoord = errors.New("invalid coordinates")
	ErrDuplicate    = errors.New("duplicate station code")
)

// Coordinate is a WGS84 point.
type Coordinate struct {
	Lat float64 `json:"lat" yaml:"lat"`
	Lon float64 `json:"lon" yaml:"lon"`
}

// Valid reports whether the coordinate is within WGS84 bounds.
func (c Coordinate) Valid() bool {
	return c.Lat >= -90 && c.Lat <= 90 && c.Lon >= -180 && c.Lon <= 180
}

// Station is a monitoring location.
type Station struct {
	Code       string     `json:"code" yaml:"code"`
	Name       string     `json:"name" yaml:"name"`
	City       string     `json:"city" yaml:"city"`
	District   string     `json:"district,omitempty" yaml:"district,omitempty"`
	Coordinate Coordinate `json:"coordinate" yaml:"coordinate"`
}
