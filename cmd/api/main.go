// Package main provides the entrypoint for the AirGrid API server.
package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog"

	"github.com/airgrid/airgrid/internal/api"
	"github.com/airgrid/airgrid/internal/api/handler"
	"github.com/airgrid/airgrid/internal/api/middleware"
	"github.com/airgrid/airgrid/internal/contextstore"
	"github.com/airgrid/airgrid/internal/database"
	"github.com/airgrid/airgrid/internal/history"
	"github.com/airgrid/airgrid/internal/ingest"
	"github.com/airgrid/airgrid/internal/provider/openweather"
	"github.com/airgrid/airgrid/internal/provider/resilience"
	"github.com/airgrid/airgrid/internal/query"
	"github.com/airgrid/airgrid/internal/station"
	"github.com/airgrid/airgrid/internal/telemetry"
)

// Version and BuildTime are set at compile time via ldflags.
var (
	Version   = "dev"
	BuildTime = "unknown"
)

func main() {
	const serviceName = "airgrid-api"

	// Setup structured logging
	log := zerolog.New(os.Stdout).
		With().
		Timestamp().
		Str("service", serviceName).
		Str("version", Version).
		Logger()

	log.Info().
		Str("build_time", BuildTime).
		Msg("starting AirGrid API")

	// Get configuration from environment
	port := os.Getenv("APP_PORT")
	if port == "" {
		port = "8080"
	}

	otlpEndpoint := os.Getenv("OTEL_EXPORTER_OTLP_ENDPOINT")
	if otlpEndpoint == "" {
		otlpEndpoint = "localhost:4317"
	}

	env := os.Getenv("APP_ENV")
	if env == "" {
		env = "development"
	}

	// Initialize OpenTelemetry
	ctx := context.Background()
	telemetryEnabled := os.Getenv("OTEL_ENABLED") == "true"

	tp, err := telemetry.Init(ctx, telemetry.Config{
		ServiceName:    serviceName,
		ServiceVersion: Version,
		Environment:    env,
		OTLPEndpoint:   otlpEndpoint,
		Enabled:        telemetryEnabled,
	})
	if err != nil {
		log.Fatal().Err(err).Msg("failed to initialize telemetry")
	}
	defer func() {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if shutdownErr := tp.Shutdown(shutdownCtx); shutdownErr != nil {
			log.Error().Err(shutdownErr).Msg("failed to shutdown telemetry")
		}
	}()

	if telemetryEnabled {
		log.Info().
			Str("otlp_endpoint", otlpEndpoint).
			Msg("OpenTelemetry initialized")
	}

	// Initialize metrics
	metrics, err := middleware.NewMetrics()
	if err != nil {
		log.Error().Err(err).Msg("failed to initialize metrics")
		os.Exit(1) //nolint:gocritic // intentional exit, telemetry cleanup is best-effort
	}

	// Connect to database
	dbConfig := database.ConfigFromEnv()
	pool, err := database.Connect(ctx, dbConfig)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to connect to database")
	}
	defer pool.Close()
	log.Info().
		Str("host", dbConfig.Host).
		Int("port", dbConfig.Port).
		Str("database", dbConfig.Database).
		Msg("database connected")

	// Load the station registry
	stations, err := loadStations()
	if err != nil {
		log.Fatal().Err(err).Msg("failed to load station registry")
	}
	log.Info().Int("stations", len(stations.All())).Msg("station registry loaded")

	// Initialize the upstream provider client behind a resilient
	// HTTP client so its health is visible to the readiness probe.
	apiKey := os.Getenv("OPENWEATHER_API_KEY")
	if apiKey == "" {
		log.Warn().Msg("OPENWEATHER_API_KEY not set - ingestion will fail until configured")
	}

	resilientClient := resilience.NewClient(resilience.DefaultClientConfig(openweather.ProviderName))
	providerClient := openweather.NewClient(openweather.ClientConfig{
		APIKey:     apiKey,
		HTTPClient: resilientClient,
		Logger:     log,
	})
	log.Info().Msg("provider client initialized")

	// Initialize the context store and history repository
	store := contextstore.NewMemory()
	historyRepo := history.NewPostgresRepository(pool)

	// Initialize ingestion and query federation
	orchestrator := ingest.New(ingest.Config{
		Provider: providerClient,
		Store:    store,
		History:  historyRepo,
		Logger:   log,
	})

	federator := query.New(query.Config{
		Stations: stations,
		Store:    store,
		History:  historyRepo,
		Logger:   log,
	})
	log.Info().Msg("query federator initialized")

	// Create router with configuration
	router := api.NewRouter(api.RouterConfig{
		Version:      Version,
		BuildTime:    BuildTime,
		Logger:       log,
		ServiceName:  serviceName,
		Metrics:      metrics,
		Federator:    federator,
		Orchestrator: orchestrator,
		Stations:     stations,
		ReadinessChecks: []handler.ReadinessCheck{
			{Name: "postgres", Check: pool.Ping},
		},
		ProviderHealth: resilientClient.Health(),
	})

	// Create HTTP server
	server := &http.Server{
		Addr:         ":" + port,
		Handler:      router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	// Start server in goroutine
	go func() {
		log.Info().
			Str("addr", server.Addr).
			Msg("server listening")

		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal().Err(err).Msg("server error")
		}
	}()

	// Wait for interrupt signal
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info().Msg("shutting down server")

	// Graceful shutdown with timeout
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := server.Shutdown(ctx); err != nil {
		log.Error().Err(err).Msg("server forced to shutdown")
		os.Exit(1)
	}

	log.Info().Msg("server stopped")
}

// loadStations reads the registry from STATIONS_FILE when set and
// falls back to the built-in network otherwise.
func loadStations() (*station.Registry, error) {
	if path := os.Getenv("STATIONS_FILE"); path != "" {
		return station.LoadFile(path)
	}
	return station.NewRegistry(station.DefaultStations())
}
