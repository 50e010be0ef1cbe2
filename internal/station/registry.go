package station

import (
	"fmt"
	"os"
	"sort"

	"gopkg.in/yaml.v3"
)

// Registry is a read-only lookup over the configured station list.
type Registry struct {
	byCode  map[string]Station
	ordered []Station
}

// NewRegistry builds a registry from a station list. Codes must be
// unique and coordinates valid.
func NewRegistry(stations []Station) (*Registry, error) {
	byCode := make(map[string]Station, len(stations))

	for _, s := range stations {
		if s.Code == "" {
			return nil, fmt.Errorf("station %q: empty code", s.Name)
		}
		if !s.Coordinate.Valid() {
			return nil, fmt.Errorf("station %s: %w", s.Code, ErrInvalidCoord)
		}
		if _, exists := byCode[s.Code]; exists {
			return nil, fmt.Errorf("station %s: %w", s.Code, ErrDuplicate)
		}
		byCode[s.Code] = s
	}

	ordered := make([]Station, 0, len(byCode))
	for _, s := range byCode {
		ordered = append(ordered, s)
	}
	sort.Slice(ordered, func(i, j int) bool {
		return ordered[i].Code < ordered[j].Code
	})

	return &Registry{byCode: byCode, ordered: ordered}, nil
}

// stationsFile is the YAML document shape for station configuration.
type stationsFile struct {
	Stations []Station `yaml:"stations"`
}

// LoadFile reads a station registry from a YAML file.
func LoadFile(path string) (*Registry, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read stations file: %w", err)
	}

	var doc stationsFile
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("parse stations file: %w", err)
	}
	if len(doc.Stations) == 0 {
		return nil, fmt.Errorf("stations file %s: no stations defined", path)
	}

	return NewRegistry(doc.Stations)
}

// Get looks up a station by code.
func (r *Registry) Get(code string) (Station, error) {
	s, ok := r.byCode[code]
	if !ok {
		return Station{}, ErrNotFound
	}
	return s, nil
}

// Has reports whether a station code is configured.
func (r *Registry) Has(code string) bool {
	_, ok := r.byCode[code]
	return ok
}

// All returns the stations ordered by code. Callers must not mutate
// the returned slice.
func (r *Registry) All() []Station {
	return r.ordered
}

// Len returns the number of configured stations.
func (r *Registry) Len() int {
	return len(r.byCode)
}

// DefaultStations returns the built-in monitoring locations, used when
// no stations file is configured.
func DefaultStations() []Station {
	return []Station{
		{Code: "AMS-C", Name: "Amsterdam Centrum", City: "Amsterdam", District: "Centrum", Coordinate: Coordinate{Lat: 52.3702, Lon: 4.8952}},
		{Code: "AMS-N", Name: "Amsterdam Noord", City: "Amsterdam", District: "Noord", Coordinate: Coordinate{Lat: 52.3894, Lon: 4.9006}},
		{Code: "AMS-ZO", Name: "Amsterdam Zuidoost", City: "Amsterdam", District: "Zuidoost", Coordinate: Coordinate{Lat: 52.3114, Lon: 4.9469}},
		{Code: "RTM-C", Name: "Rotterdam Centrum", City: "Rotterdam", District: "Centrum", Coordinate: Coordinate{Lat: 51.9244, Lon: 4.4777}},
		{Code: "RTM-Z", Name: "Rotterdam Zuid", City: "Rotterdam", District: "Zuid", Coordinate: Coordinate{Lat: 51.9062, Lon: 4.4874}},
		{Code: "DH-C", Name: "Den Haag Centrum", City: "Den Haag", District: "Centrum", Coordinate: Coordinate{Lat: 52.0705, Lon: 4.3007}},
		{Code: "UTR-C", Name: "Utrecht Centrum", City: "Utrecht", District: "Centrum", Coordinate: Coordinate{Lat: 52.0894, Lon: 5.1102}},
		{Code: "EIN-C", Name: "Eindhoven Centrum", City: "Eindhoven", District: "Centrum", Coordinate: Coordinate{Lat: 51.4416, Lon: 5.4697}},
	}
}
