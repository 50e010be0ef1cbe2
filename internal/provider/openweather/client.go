// Package openweather implements the provider contract against the
// OpenWeather current, forecast and air pollution APIs.
package openweather

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/rs/zerolog"

	"github.com/airgrid/airgrid/internal/aqi"
	"github.com/airgrid/airgrid/internal/provider"
	"github.com/airgrid/airgrid/internal/provider/resilience"
	"github.com/airgrid/airgrid/internal/reading"
	"github.com/airgrid/airgrid/internal/station"
)

const (
	// ProviderName identifies this provider.
	ProviderName = "openweather"

	// DefaultBaseURL is the OpenWeather API base URL.
	DefaultBaseURL = "https://api.openweathermap.org/data/2.5"

	// Forecast step widths of the two forecast endpoints.
	weatherForecastStep    = 3 * time.Hour
	airQualityForecastStep = time.Hour
)

// HTTPDoer abstracts HTTP request execution.
type HTTPDoer interface {
	Do(req *http.Request) (*http.Response, error)
}

// ClientConfig holds configuration for the OpenWeather client.
type ClientConfig struct {
	// APIKey is the OpenWeather API key (required).
	APIKey string

	// BaseURL overrides the API base URL (optional).
	BaseURL string

	// HTTPClient is the HTTP client to use (optional).
	// If nil, a resilient client with defaults is created.
	HTTPClient HTTPDoer

	// Logger for client operations.
	Logger zerolog.Logger
}

// Client is an OpenWeather API client. It holds no mutable state and is
// safe for concurrent use.
type Client struct {
	apiKey     string
	baseURL    string
	httpClient HTTPDoer
	logger     zerolog.Logger
}

// NewClient creates a new OpenWeather client.
func NewClient(cfg ClientConfig) *Client {
	baseURL := cfg.BaseURL
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}

	httpClient := cfg.HTTPClient
	if httpClient == nil {
		httpClient = resilience.NewClient(resilience.DefaultClientConfig(ProviderName))
	}

	return &Client{
		apiKey:     cfg.APIKey,
		baseURL:    baseURL,
		httpClient: httpClient,
		logger:     cfg.Logger,
	}
}

// Name returns the provider name.
func (c *Client) Name() string {
	return ProviderName
}

// FetchCurrent fetches the current observation for one point.
func (c *Client) FetchCurrent(ctx context.Context, domain reading.Kind, point station.Coordinate) (*provider.RawObservation, error) {
	switch domain {
	case reading.KindWeather:
		return c.fetchCurrentWeather(ctx, point)
	case reading.KindAirQuality:
		return c.fetchCurrentAirQuality(ctx, point)
	default:
		return nil, fmt.Errorf("unsupported domain %q", domain)
	}
}

// FetchForecast fetches the forward-looking series for one point.
func (c *Client) FetchForecast(ctx context.Context, domain reading.Kind, point station.Coordinate) ([]provider.ForecastEntry, error) {
	switch domain {
	case reading.KindWeather:
		return c.fetchWeatherForecast(ctx, point)
	case reading.KindAirQuality:
		return c.fetchAirQualityForecast(ctx, point)
	default:
		return nil, fmt.Errorf("unsupported domain %q", domain)
	}
}

func (c *Client) fetchCurrentWeather(ctx context.Context, point station.Coordinate) (*provider.RawObservation, error) {
	url := fmt.Sprintf("%s/weather?lat=%.6f&lon=%.6f&appid=%s&units=metric",
		c.baseURL, point.Lat, point.Lon, c.apiKey)

	var body currentWeatherResponse
	if err := c.getJSON(ctx, url, &body); err != nil {
		return nil, err
	}

	obs := weatherObservation(body.Main, body.Wind, body.Clouds, body.Weather)
	obs.Coordinate = station.Coordinate{Lat: body.Coord.Lat, Lon: body.Coord.Lon}
	obs.ObservedAt = time.Unix(body.Dt, 0).UTC()
	return &obs, nil
}

func (c *Client) fetchWeatherForecast(ctx context.Context, point station.Coordinate) ([]provider.ForecastEntry, error) {
	url := fmt.Sprintf("%s/forecast?lat=%.6f&lon=%.6f&appid=%s&units=metric",
		c.baseURL, point.Lat, point.Lon, c.apiKey)

	var body weatherForecastResponse
	if err := c.getJSON(ctx, url, &body); err != nil {
		return nil, err
	}
	if len(body.List) == 0 {
		return nil, fmt.Errorf("%w: empty forecast list", provider.ErrMalformedPayload)
	}

	entries := make([]provider.ForecastEntry, 0, len(body.List))
	for _, item := range body.List {
		obs := weatherObservation(item.Main, item.Wind, item.Clouds, item.Weather)
		obs.Coordinate = point
		obs.ObservedAt = time.Unix(item.Dt, 0).UTC()

		entries = append(entries, provider.ForecastEntry{
			Observation: obs,
			ValidFrom:   obs.ObservedAt,
			ValidTo:     obs.ObservedAt.Add(weatherForecastStep),
		})
	}
	return entries, nil
}

func (c *Client) fetchCurrentAirQuality(ctx context.Context, point station.Coordinate) (*provider.RawObservation, error) {
	url := fmt.Sprintf("%s/air_pollution?lat=%.6f&lon=%.6f&appid=%s",
		c.baseURL, point.Lat, point.Lon, c.apiKey)

	var body airPollutionResponse
	if err := c.getJSON(ctx, url, &body); err != nil {
		return nil, err
	}
	if len(body.List) == 0 {
		return nil, fmt.Errorf("%w: empty air pollution list", provider.ErrMalformedPayload)
	}

	obs := airQualityObservation(body.List[0])
	obs.Coordinate = point
	return &obs, nil
}

func (c *Client) fetchAirQualityForecast(ctx context.Context, point station.Coordinate) ([]provider.ForecastEntry, error) {
	url := fmt.Sprintf("%s/air_pollution/forecast?lat=%.6f&lon=%.6f&appid=%s",
		c.baseURL, point.Lat, point.Lon, c.apiKey)

	var body airPollutionResponse
	if err := c.getJSON(ctx, url, &body); err != nil {
		return nil, err
	}
	if len(body.List) == 0 {
		return nil, fmt.Errorf("%w: empty air pollution forecast list", provider.ErrMalformedPayload)
	}

	entries := make([]provider.ForecastEntry, 0, len(body.List))
	for _, item := range body.List {
		obs := airQualityObservation(item)
		obs.Coordinate = point

		entries = append(entries, provider.ForecastEntry{
			Observation: obs,
			ValidFrom:   obs.ObservedAt,
			ValidTo:     obs.ObservedAt.Add(airQualityForecastStep),
		})
	}
	return entries, nil
}

// getJSON performs a GET and decodes the body, translating transport and
// payload failures into the provider taxonomy.
func (c *Client) getJSON(ctx context.Context, url string, out any) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, http.NoBody)
	if err != nil {
		return fmt.Errorf("%w: creating request: %v", provider.ErrUnavailable, err)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("%w: %v", provider.ErrUnavailable, err)
	}
	defer resp.Body.Close()

	switch {
	case resp.StatusCode == http.StatusOK:
		// fall through to decode
	case resp.StatusCode == http.StatusTooManyRequests:
		return provider.ErrRateLimited
	default:
		c.logger.Warn().
			Int("status", resp.StatusCode).
			Str("provider", ProviderName).
			Msg("unexpected provider response status")
		return fmt.Errorf("%w: status %d", provider.ErrUnavailable, resp.StatusCode)
	}

	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("%w: %v", provider.ErrMalformedPayload, err)
	}
	return nil
}

// weatherObservation maps the shared weather payload blocks.
func weatherObservation(main mainBlock, wind windBlock, clouds cloudsBlock, conditions []conditionBlock) provider.RawObservation {
	obs := provider.RawObservation{
		Temperature:   main.Temp,
		Humidity:      main.Humidity,
		Pressure:      main.Pressure,
		WindSpeed:     wind.Speed,
		WindDirection: wind.Deg,
		CloudCover:    clouds.All,
	}
	if len(conditions) > 0 {
		obs.Description = conditions[0].Description
	}
	return obs
}

// airQualityObservation maps one air pollution list item.
func airQualityObservation(item airPollutionItem) provider.RawObservation {
	conc := aqi.Concentrations{}
	set := func(p aqi.Pollutant, v *float64) {
		if v != nil {
			conc[p] = *v
		}
	}
	set(aqi.PollutantCO, item.Components.CO)
	set(aqi.PollutantNO, item.Components.NO)
	set(aqi.PollutantNO2, item.Components.NO2)
	set(aqi.PollutantO3, item.Components.O3)
	set(aqi.PollutantSO2, item.Components.SO2)
	set(aqi.PollutantPM25, item.Components.PM25)
	set(aqi.PollutantPM10, item.Components.PM10)
	set(aqi.PollutantNH3, item.Components.NH3)

	return provider.RawObservation{
		ObservedAt:     time.Unix(item.Dt, 0).UTC(),
		Concentrations: conc,
		AQIBucket:      item.Main.AQI,
	}
}

// OpenWeather API response structures.

type mainBlock struct {
	Temp     float64 `json:"temp"`
	Pressure float64 `json:"pressure"`
	Humidity float64 `json:"humidity"`
}

type windBlock struct {
	Speed float64 `json:"speed"`
	Deg   float64 `json:"deg"`
}

type cloudsBlock struct {
	All float64 `json:"all"`
}

type conditionBlock struct {
	Main        string `json:"main"`
	Description string `json:"description"`
}

type currentWeatherResponse struct {
	Coord struct {
		Lat float64 `json:"lat"`
		Lon float64 `json:"lon"`
	} `json:"coord"`
	Weather []conditionBlock `json:"weather"`
	Main    mainBlock        `json:"main"`
	Wind    windBlock        `json:"wind"`
	Clouds  cloudsBlock      `json:"clouds"`
	Dt      int64            `json:"dt"`
}

type weatherForecastResponse struct {
	List []struct {
		Dt      int64            `json:"dt"`
		Main    mainBlock        `json:"main"`
		Wind    windBlock        `json:"wind"`
		Clouds  cloudsBlock      `json:"clouds"`
		Weather []conditionBlock `json:"weather"`
	} `json:"list"`
}

type airPollutionItem struct {
	Dt   int64 `json:"dt"`
	Main struct {
		AQI int `json:"aqi"`
	} `json:"main"`
	Components struct {
		CO   *float64 `json:"co"`
		NO   *float64 `json:"no"`
		NO2  *float64 `json:"no2"`
		O3   *float64 `json:"o3"`
		SO2  *float64 `json:"so2"`
		PM25 *float64 `json:"pm2_5"`
		PM10 *float64 `json:"pm10"`
		NH3  *float64 `json:"nh3"`
	} `json:"components"`
}

type airPollutionResponse struct {
	List []airPollutionItem `json:"list"`
}
