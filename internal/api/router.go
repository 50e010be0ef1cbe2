// Package api provides the HTTP API for AirGrid.
package api

import (
	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/rs/zerolog"

	"github.com/airgrid/airgrid/internal/api/handler"
	"github.com/airgrid/airgrid/internal/api/middleware"
	"github.com/airgrid/airgrid/internal/ingest"
	"github.com/airgrid/airgrid/internal/provider/resilience"
	"github.com/airgrid/airgrid/internal/query"
	"github.com/airgrid/airgrid/internal/reading"
	"github.com/airgrid/airgrid/internal/station"
)

// RouterConfig holds configuration for the router.
type RouterConfig struct {
	Version         string
	BuildTime       string
	Logger          zerolog.Logger
	ServiceName     string
	Metrics         *middleware.Metrics
	Federator       *query.Federator
	Orchestrator    *ingest.Orchestrator
	Stations        *station.Registry
	ReadinessChecks []handler.ReadinessCheck
	ProviderHealth  *resilience.Health
}

// NewRouter creates a new chi router with all API routes configured.
func NewRouter(cfg RouterConfig) *chi.Mux {
	r := chi.NewRouter()

	serviceName := cfg.ServiceName
	if serviceName == "" {
		serviceName = "airgrid-api"
	}

	// Global middleware - order matters
	r.Use(middleware.RequestID)            // Generate/propagate request ID first
	r.Use(middleware.Tracing(serviceName)) // Distributed tracing
	if cfg.Metrics != nil {
		r.Use(cfg.Metrics.Middleware()) // HTTP metrics
	}
	r.Use(middleware.Logger(cfg.Logger))   // Structured logging
	r.Use(middleware.Recovery(cfg.Logger)) // Panic recovery
	r.Use(chimiddleware.RealIP)            // Real IP extraction
	r.Use(middleware.SecurityHeaders)      // Security headers (HSTS, CSP, etc.)
	r.Use(middleware.RequireTLS)           // TLS enforcement (enabled via REQUIRE_TLS=true)
	r.Use(middleware.ContentTypeJSON)      // JSON content type

	readingsHandler := handler.NewReadingsHandler(cfg.Federator, cfg.Logger)
	stationsHandler := handler.NewStationsHandler(cfg.Stations)
	opsHandler := handler.NewOpsHandler(handler.OpsConfig{
		Version:        cfg.Version,
		BuildTime:      cfg.BuildTime,
		Orchestrator:   cfg.Orchestrator,
		Stations:       cfg.Stations,
		Checks:         cfg.ReadinessChecks,
		ProviderHealth: cfg.ProviderHealth,
	})

	opsRateLimit := middleware.RateLimitByIP(middleware.OpsRateLimit)             // 10 req/min
	expensiveRateLimit := middleware.RateLimitByIP(middleware.ExpensiveRateLimit) // 30 req/min
	standardRateLimit := middleware.RateLimitByIP(middleware.StandardRateLimit)   // 100 req/min

	r.Route("/v1", func(r chi.Router) {
		// Ops endpoints
		r.Route("/ops", func(r chi.Router) {
			r.Get("/health", opsHandler.HealthCheck)
			r.Get("/ready", opsHandler.ReadinessCheck)
			// Manual ingestion trigger - strict rate limiting
			r.With(opsRateLimit).Post("/ingest", opsHandler.TriggerIngest)
		})

		// Station reference data
		r.With(standardRateLimit).Get("/stations", stationsHandler.List)

		// Per-domain reading queries
		r.Route("/weather", func(r chi.Router) {
			r.Use(standardRateLimit)
			r.Get("/current", readingsHandler.Current(reading.KindWeather))
			r.Get("/forecast", readingsHandler.Forecast(reading.KindWeather))
			r.Get("/history", readingsHandler.History(reading.KindWeather))
		})
		r.Route("/air-quality", func(r chi.Router) {
			r.Use(standardRateLimit)
			r.Get("/current", readingsHandler.Current(reading.KindAirQuality))
			r.Get("/forecast", readingsHandler.Forecast(reading.KindAirQuality))
			r.Get("/history", readingsHandler.History(reading.KindAirQuality))
			r.Get("/averages", readingsHandler.Averages)
		})

		// Cross-store composition queries - fan-out, stricter limits
		r.With(expensiveRateLimit).Get("/nearby", readingsHandler.Nearby)
		r.With(expensiveRateLimit).Get("/compare", readingsHandler.Compare)
	})

	return r
}
