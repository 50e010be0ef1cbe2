package handler

import (
	"errors"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"github.com/airgrid/airgrid/internal/api/models"
	"github.com/airgrid/airgrid/internal/api/response"
	"github.com/airgrid/airgrid/internal/history"
	"github.com/airgrid/airgrid/internal/query"
	"github.com/airgrid/airgrid/internal/reading"
	"github.com/airgrid/airgrid/internal/station"
)

// ReadingsHandler serves the live and historical reading queries.
type ReadingsHandler struct {
	federator *query.Federator
	logger    zerolog.Logger
}

// NewReadingsHandler creates a new ReadingsHandler.
func NewReadingsHandler(federator *query.Federator, logger zerolog.Logger) *ReadingsHandler {
	return &ReadingsHandler{federator: federator, logger: logger}
}

// Current handles GET /v1/{domain}/current for one reading kind.
// The optional station query parameter narrows to one station.
func (h *ReadingsHandler) Current(kind reading.Kind) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		readings, err := h.federator.Current(r.Context(), kind, r.URL.Query().Get("station"))
		if err != nil {
			h.writeQueryError(w, r, err)
			return
		}
		response.JSON(w, r, http.StatusOK, map[string]interface{}{"data": readings})
	}
}

// Forecast handles GET /v1/{domain}/forecast for one reading kind.
func (h *ReadingsHandler) Forecast(kind reading.Kind) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		readings, err := h.federator.Forecast(r.Context(), kind, r.URL.Query().Get("station"))
		if err != nil {
			h.writeQueryError(w, r, err)
			return
		}
		response.JSON(w, r, http.StatusOK, map[string]interface{}{"data": readings})
	}
}

// History handles GET /v1/{domain}/history for one reading kind.
// Requires start and end (RFC3339); supports station, page and limit.
func (h *ReadingsHandler) History(kind reading.Kind) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		q := r.URL.Query()

		start, end, fieldErrs := parseRange(q.Get("start"), q.Get("end"))
		if len(fieldErrs) > 0 {
			response.BadRequest(w, r, "invalid history range", fieldErrs)
			return
		}

		page, _ := strconv.Atoi(q.Get("page"))
		limit, _ := strconv.Atoi(q.Get("limit"))

		filter := history.Filter{
			StationCode: q.Get("station"),
			Kind:        kind,
			Start:       start,
			End:         end,
		}

		result, err := h.federator.History(r.Context(), filter, page, limit)
		if err != nil {
			h.writeQueryError(w, r, err)
			return
		}
		response.JSON(w, r, http.StatusOK, result)
	}
}

// Averages handles GET /v1/air-quality/averages. Requires start and
// end (RFC3339); means cover pollutants and weather metrics in range.
func (h *ReadingsHandler) Averages(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()

	start, end, fieldErrs := parseRange(q.Get("start"), q.Get("end"))
	if len(fieldErrs) > 0 {
		response.BadRequest(w, r, "invalid averages range", fieldErrs)
		return
	}

	avg, err := h.federator.Averages(r.Context(), start, end)
	if err != nil {
		h.writeQueryError(w, r, err)
		return
	}
	response.JSON(w, r, http.StatusOK, avg)
}

// Nearby handles GET /v1/nearby. Requires lat and lon; radiusKm
// defaults to 50, kind to air-quality, include to current.
func (h *ReadingsHandler) Nearby(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()

	var fieldErrs []models.FieldError
	lat, err := strconv.ParseFloat(q.Get("lat"), 64)
	if err != nil {
		fieldErrs = append(fieldErrs, models.FieldError{Field: "lat", Message: "must be a number"})
	}
	lon, err := strconv.ParseFloat(q.Get("lon"), 64)
	if err != nil {
		fieldErrs = append(fieldErrs, models.FieldError{Field: "lon", Message: "must be a number"})
	}

	radiusKm := 50.0
	if raw := q.Get("radiusKm"); raw != "" {
		radiusKm, err = strconv.ParseFloat(raw, 64)
		if err != nil || radiusKm <= 0 {
			fieldErrs = append(fieldErrs, models.FieldError{Field: "radiusKm", Message: "must be a positive number"})
		}
	}

	kind, kindErr := parseKind(q.Get("kind"))
	if kindErr != nil {
		fieldErrs = append(fieldErrs, *kindErr)
	}

	include, includeErr := parseInclude(q.Get("include"))
	if includeErr != nil {
		fieldErrs = append(fieldErrs, *includeErr)
	}

	if len(fieldErrs) > 0 {
		response.BadRequest(w, r, "invalid nearby request", fieldErrs)
		return
	}

	point := station.Coordinate{Lat: lat, Lon: lon}
	if !point.Valid() {
		response.BadRequest(w, r, "coordinate out of range", []models.FieldError{
			{Field: "lat", Message: "must be within WGS84 bounds"},
		})
		return
	}

	result, err := h.federator.Nearby(r.Context(), kind, point, radiusKm, include)
	if err != nil {
		h.writeQueryError(w, r, err)
		return
	}
	response.JSON(w, r, http.StatusOK, result)
}

// Compare handles GET /v1/compare. The stations parameter is a comma
// separated list of 2 to 10 codes; the result has one slot per
// requested code in order, null data for stations without a current
// reading.
func (h *ReadingsHandler) Compare(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()

	raw := strings.TrimSpace(q.Get("stations"))
	if raw == "" {
		response.BadRequest(w, r, "stations parameter is required", []models.FieldError{
			{Field: "stations", Message: "comma separated list of station codes"},
		})
		return
	}
	codes := strings.Split(raw, ",")
	for i := range codes {
		codes[i] = strings.TrimSpace(codes[i])
	}

	kind, kindErr := parseKind(q.Get("kind"))
	if kindErr != nil {
		response.BadRequest(w, r, "invalid compare request", []models.FieldError{*kindErr})
		return
	}

	entries, err := h.federator.Compare(r.Context(), kind, codes)
	if err != nil {
		h.writeQueryError(w, r, err)
		return
	}
	response.JSON(w, r, http.StatusOK, map[string]interface{}{"data": entries})
}

// writeQueryError maps federator errors onto problem responses.
func (h *ReadingsHandler) writeQueryError(w http.ResponseWriter, r *http.Request, err error) {
	switch {
	case errors.Is(err, station.ErrNotFound):
		response.NotFound(w, r, "unknown station code")
	case errors.Is(err, query.ErrNoStationInRadius):
		response.NotFound(w, r, "no station within the requested radius")
	case errors.Is(err, query.ErrInvalidCompareSet):
		response.BadRequest(w, r, err.Error(), []models.FieldError{
			{Field: "stations", Message: "between 2 and 10 station codes"},
		})
	default:
		h.logger.Error().Err(err).Str("path", r.URL.Path).Msg("query failed")
		response.InternalError(w, r, "query failed")
	}
}

func parseRange(rawStart, rawEnd string) (start, end time.Time, fieldErrs []models.FieldError) {
	var err error
	start, err = time.Parse(time.RFC3339, rawStart)
	if err != nil {
		fieldErrs = append(fieldErrs, models.FieldError{Field: "start", Message: "must be an RFC3339 timestamp"})
	}
	end, err = time.Parse(time.RFC3339, rawEnd)
	if err != nil {
		fieldErrs = append(fieldErrs, models.FieldError{Field: "end", Message: "must be an RFC3339 timestamp"})
	}
	if len(fieldErrs) == 0 && end.Before(start) {
		fieldErrs = append(fieldErrs, models.FieldError{Field: "end", Message: "must not precede start"})
	}
	return start, end, fieldErrs
}

func parseKind(raw string) (reading.Kind, *models.FieldError) {
	switch raw {
	case "", "air-quality":
		return reading.KindAirQuality, nil
	case "weather":
		return reading.KindWeather, nil
	default:
		return "", &models.FieldError{Field: "kind", Message: "must be weather or air-quality"}
	}
}

func parseInclude(raw string) (query.NearbyInclude, *models.FieldError) {
	if raw == "" {
		return query.NearbyInclude{Current: true}, nil
	}

	var include query.NearbyInclude
	for _, part := range strings.Split(raw, ",") {
		switch strings.TrimSpace(part) {
		case "current":
			include.Current = true
		case "forecast":
			include.Forecast = true
		default:
			return query.NearbyInclude{}, &models.FieldError{Field: "include", Message: "must list current and/or forecast"}
		}
	}
	return include, nil
}
