package api_test

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/airgrid/airgrid/internal/api"
	"github.com/airgrid/airgrid/internal/api/handler"
	"github.com/airgrid/airgrid/internal/api/models"
	"github.com/airgrid/airgrid/internal/aqi"
	"github.com/airgrid/airgrid/internal/contextstore"
	"github.com/airgrid/airgrid/internal/history"
	"github.com/airgrid/airgrid/internal/ingest"
	"github.com/airgrid/airgrid/internal/provider"
	"github.com/airgrid/airgrid/internal/query"
	"github.com/airgrid/airgrid/internal/reading"
	"github.com/airgrid/airgrid/internal/station"
)

// fakeProvider serves deterministic observations for router tests.
type fakeProvider struct {
	err error
}

func (p *fakeProvider) FetchCurrent(_ context.Context, domain reading.Kind, point station.Coordinate) (*provider.RawObservation, error) {
	if p.err != nil {
		return nil, p.err
	}
	obs := &provider.RawObservation{
		Coordinate: point,
		ObservedAt: time.Now().UTC(),
	}
	if domain == reading.KindWeather {
		obs.Temperature = 14.2
	} else {
		obs.Concentrations = aqi.Concentrations{aqi.PollutantPM25: 9}
		obs.AQIBucket = 1
	}
	return obs, nil
}

func (p *fakeProvider) FetchForecast(ctx context.Context, domain reading.Kind, point station.Coordinate) ([]provider.ForecastEntry, error) {
	if p.err != nil {
		return nil, p.err
	}
	obs, err := p.FetchCurrent(ctx, domain, point)
	if err != nil {
		return nil, err
	}
	from := time.Now().UTC().Truncate(time.Hour)
	return []provider.ForecastEntry{
		{Observation: *obs, ValidFrom: from, ValidTo: from.Add(time.Hour)},
	}, nil
}

type testEnv struct {
	router http.Handler
	store  contextstore.Store
	repo   *history.MemoryRepository
}

func newTestEnv(t *testing.T, checks ...handler.ReadinessCheck) *testEnv {
	t.Helper()

	registry, err := station.NewRegistry(station.DefaultStations())
	require.NoError(t, err)

	logger := zerolog.New(io.Discard)
	store := contextstore.NewMemory()
	repo := history.NewMemoryRepository()

	orchestrator := ingest.New(ingest.Config{
		Provider: &fakeProvider{},
		Store:    store,
		History:  repo,
		Logger:   logger,
	})

	federator := query.New(query.Config{
		Stations: registry,
		Store:    store,
		History:  repo,
		Logger:   logger,
	})

	router := api.NewRouter(api.RouterConfig{
		Version:         "test",
		BuildTime:       "2024-01-01T00:00:00Z",
		Logger:          logger,
		Federator:       federator,
		Orchestrator:    orchestrator,
		Stations:        registry,
		ReadinessChecks: checks,
	})

	return &testEnv{router: router, store: store, repo: repo}
}

func (e *testEnv) get(path string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodGet, path, http.NoBody)
	w := httptest.NewRecorder()
	e.router.ServeHTTP(w, req)
	return w
}

func (e *testEnv) seed(t *testing.T, codes ...string) {
	t.Helper()
	for _, code := range codes {
		r := reading.Reading{
			StationCode: code,
			Kind:        reading.KindAirQuality,
			ObservedAt:  time.Now().UTC(),
			AirQuality: &reading.AirQualityData{
				Concentrations: aqi.Concentrations{aqi.PollutantPM25: 11},
			},
		}
		require.NoError(t, e.store.UpsertCurrent(context.Background(), r))
	}
}

func TestRouter_HealthCheck(t *testing.T) {
	env := newTestEnv(t)

	w := env.get("/v1/ops/health")

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "application/json", w.Header().Get("Content-Type"))
	assert.NotEmpty(t, w.Header().Get("X-Request-Id"))

	var health models.Health
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &health))
	assert.Equal(t, models.HealthStatusOK, health.Status)
	assert.Equal(t, "test", health.Details["version"])
}

func TestRouter_ReadinessCheck(t *testing.T) {
	env := newTestEnv(t, handler.ReadinessCheck{
		Name:  "postgres",
		Check: func(context.Context) error { return nil },
	})

	w := env.get("/v1/ops/ready")
	assert.Equal(t, http.StatusOK, w.Code)

	var readiness models.Readiness
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &readiness))
	assert.Equal(t, models.HealthStatusOK, readiness.Status)
	require.Len(t, readiness.Subsystems, 1)
	assert.Equal(t, "postgres", readiness.Subsystems[0].Name)
}

func TestRouter_ReadinessCheckFailure(t *testing.T) {
	env := newTestEnv(t, handler.ReadinessCheck{
		Name:  "postgres",
		Check: func(context.Context) error { return errors.New("connection refused") },
	})

	w := env.get("/v1/ops/ready")
	assert.Equal(t, http.StatusServiceUnavailable, w.Code)

	var readiness models.Readiness
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &readiness))
	assert.Equal(t, models.HealthStatusFail, readiness.Status)
}

func TestRouter_TriggerIngestAllDomains(t *testing.T) {
	env := newTestEnv(t)

	req := httptest.NewRequest(http.MethodPost, "/v1/ops/ingest", http.NoBody)
	w := httptest.NewRecorder()
	env.router.ServeHTTP(w, req)

	require.Equal(t, http.StatusOK, w.Code)

	var combined ingest.CombinedReport
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &combined))
	require.NotNil(t, combined.Weather)
	require.NotNil(t, combined.AirQuality)
	assert.Equal(t, 8, combined.Weather.Success)
	assert.Equal(t, 8, combined.AirQuality.Success)

	// Ingested data is visible through the query surface.
	w = env.get("/v1/air-quality/current")
	require.Equal(t, http.StatusOK, w.Code)

	var body struct {
		Data []reading.Reading `json:"data"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	assert.Len(t, body.Data, 8)
}

func TestRouter_TriggerIngestInvalidDomain(t *testing.T) {
	env := newTestEnv(t)

	req := httptest.NewRequest(http.MethodPost, "/v1/ops/ingest?domain=pollen", http.NoBody)
	w := httptest.NewRecorder()
	env.router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, "application/problem+json", w.Header().Get("Content-Type"))
}

func TestRouter_ListStations(t *testing.T) {
	env := newTestEnv(t)

	w := env.get("/v1/stations")
	require.Equal(t, http.StatusOK, w.Code)

	var body struct {
		Data []station.Station `json:"data"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	assert.Len(t, body.Data, 8)
}

func TestRouter_CurrentEmptyStore(t *testing.T) {
	env := newTestEnv(t)

	w := env.get("/v1/weather/current")
	require.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"data":[]}`, w.Body.String())
}

func TestRouter_CurrentUnknownStation(t *testing.T) {
	env := newTestEnv(t)

	w := env.get("/v1/air-quality/current?station=XX-404")
	assert.Equal(t, http.StatusNotFound, w.Code)
	assert.Equal(t, "application/problem+json", w.Header().Get("Content-Type"))
}

func TestRouter_HistoryValidation(t *testing.T) {
	env := newTestEnv(t)

	w := env.get("/v1/air-quality/history?start=notadate&end=2025-01-01T00:00:00Z")
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Contains(t, w.Body.String(), "start")
}

func TestRouter_HistoryPagination(t *testing.T) {
	env := newTestEnv(t)

	base := time.Date(2025, 3, 1, 0, 0, 0, 0, time.UTC)
	for i := 0; i < 5; i++ {
		r := reading.Reading{
			StationCode: "AMS-C",
			Kind:        reading.KindAirQuality,
			ObservedAt:  base.Add(time.Duration(i) * time.Hour),
			AirQuality: &reading.AirQualityData{
				Concentrations: aqi.Concentrations{aqi.PollutantPM25: 10},
			},
		}
		require.NoError(t, env.repo.Insert(context.Background(), r))
	}

	path := fmt.Sprintf("/v1/air-quality/history?start=%s&end=%s&page=3&limit=2",
		base.Format(time.RFC3339), base.Add(24*time.Hour).Format(time.RFC3339))
	w := env.get(path)
	require.Equal(t, http.StatusOK, w.Code)

	var page query.HistoryPage
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &page))
	assert.Len(t, page.Data, 1)
	assert.Equal(t, 5, page.Meta.Total)
	assert.Equal(t, 3, page.Meta.TotalPages)
}

func TestRouter_Averages(t *testing.T) {
	env := newTestEnv(t)

	start := time.Date(2025, 3, 1, 0, 0, 0, 0, time.UTC)
	path := fmt.Sprintf("/v1/air-quality/averages?start=%s&end=%s",
		start.Format(time.RFC3339), start.Add(time.Hour).Format(time.RFC3339))
	w := env.get(path)
	require.Equal(t, http.StatusOK, w.Code)

	var avg history.Averages
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &avg))
	assert.Zero(t, avg.DataPoints)
}

func TestRouter_Nearby(t *testing.T) {
	env := newTestEnv(t)
	env.seed(t, "AMS-C")

	w := env.get("/v1/nearby?lat=52.372&lon=4.895&radiusKm=25")
	require.Equal(t, http.StatusOK, w.Code)

	var result query.NearbyResult
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &result))
	assert.Equal(t, "AMS-C", result.Station.Code)
	require.NotNil(t, result.Current)
	assert.False(t, result.ValidUntil.IsZero())
}

func TestRouter_NearbyOutOfRadius(t *testing.T) {
	env := newTestEnv(t)

	w := env.get("/v1/nearby?lat=30&lon=-40&radiusKm=50")
	assert.Equal(t, http.StatusNotFound, w.Code)
	assert.Contains(t, w.Body.String(), "radius")
}

func TestRouter_NearbyValidation(t *testing.T) {
	env := newTestEnv(t)

	w := env.get("/v1/nearby?lat=abc&lon=4.9")
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Contains(t, w.Body.String(), "lat")
}

func TestRouter_CompareWithMissingStation(t *testing.T) {
	env := newTestEnv(t)
	env.seed(t, "AMS-C")

	w := env.get("/v1/compare?stations=AMS-C,RTM-C")
	require.Equal(t, http.StatusOK, w.Code)

	var body struct {
		Data []query.CompareEntry `json:"data"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	require.Len(t, body.Data, 2)
	assert.Equal(t, "AMS-C", body.Data[0].StationCode)
	assert.NotNil(t, body.Data[0].Data)
	assert.Equal(t, "RTM-C", body.Data[1].StationCode)
	assert.Nil(t, body.Data[1].Data)
}

func TestRouter_CompareTooFewStations(t *testing.T) {
	env := newTestEnv(t)

	w := env.get("/v1/compare?stations=AMS-C")
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestRouter_SecurityHeaders(t *testing.T) {
	env := newTestEnv(t)

	w := env.get("/v1/ops/health")
	assert.Equal(t, "nosniff", w.Header().Get("X-Content-Type-Options"))
	assert.Equal(t, "DENY", w.Header().Get("X-Frame-Options"))
	assert.NotEmpty(t, w.Header().Get("Strict-Transport-Security"))
}

func TestRouter_NotFoundRoute(t *testing.T) {
	env := newTestEnv(t)

	w := env.get("/v1/does-not-exist")
	assert.Equal(t, http.StatusNotFound, w.Code)
}
