// Package geo computes great-circle distances and ranks monitoring
// stations by proximity to a query point.
package geo

import (
	"math"
	"sort"

	"github.com/airgrid/airgrid/internal/station"
)

// earthRadiusKm is the spherical Earth model radius.
const earthRadiusKm = 6371

// DistanceKm returns the haversine great-circle distance between two
// coordinates in kilometers. Symmetric, zero for identical points.
func DistanceKm(a, b station.Coordinate) float64 {
	lat1 := a.Lat * math.Pi / 180
	lat2 := b.Lat * math.Pi / 180
	deltaLat := (b.Lat - a.Lat) * math.Pi / 180
	deltaLon := (b.Lon - a.Lon) * math.Pi / 180

	h := math.Sin(deltaLat/2)*math.Sin(deltaLat/2) +
		math.Cos(lat1)*math.Cos(lat2)*
			math.Sin(deltaLon/2)*math.Sin(deltaLon/2)
	c := 2 * math.Atan2(math.Sqrt(h), math.Sqrt(1-h))

	return earthRadiusKm * c
}

// Match pairs a station with its distance from a query point.
type Match struct {
	Station    station.Station
	DistanceKm float64
}

// FindNearest returns stations within radiusKm of point, ordered by
// ascending distance with ties broken by station code, truncated to
// limit. An empty result is a valid outcome, not an error. A limit of
// zero or less means unbounded.
func FindNearest(point station.Coordinate, candidates []station.Station, radiusKm float64, limit int) []Match {
	matches := make([]Match, 0, len(candidates))

	for _, s := range candidates {
		d := DistanceKm(point, s.Coordinate)
		if d <= radiusKm {
			matches = append(matches, Match{Station: s, DistanceKm: d})
		}
	}

	sort.Slice(matches, func(i, j int) bool {
		if matches[i].DistanceKm != matches[j].DistanceKm {
			return matches[i].DistanceKm < matches[j].DistanceKm
		}
		return matches[i].Station.Code < matches[j].Station.Code
	})

	if limit > 0 && len(matches) > limit {
		matches = matches[:limit]
	}

	return matches
}
