// Package main provides the entrypoint for the AirGrid ingestion worker.
package main

import (
	"context"
	"encoding/json"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog"

	"github.com/airgrid/airgrid/internal/contextstore"
	"github.com/airgrid/airgrid/internal/database"
	"github.com/airgrid/airgrid/internal/history"
	"github.com/airgrid/airgrid/internal/ingest"
	"github.com/airgrid/airgrid/internal/provider/openweather"
	"github.com/airgrid/airgrid/internal/provider/resilience"
	"github.com/airgrid/airgrid/internal/station"
	"github.com/airgrid/airgrid/internal/telemetry"
	"github.com/airgrid/airgrid/internal/worker"
)

// Version and BuildTime are set at compile time via ldflags.
var (
	Version   = "dev"
	BuildTime = "unknown"
)

func main() {
	const serviceName = "airgrid-worker"

	// Setup structured logging
	log := zerolog.New(os.Stdout).
		With().
		Timestamp().
		Str("service", serviceName).
		Str("version", Version).
		Logger()

	log.Info().
		Str("build_time", BuildTime).
		Msg("starting AirGrid worker")

	// Worker also exposes a health endpoint for Cloud Run
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
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

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
		shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer shutdownCancel()
		if shutdownErr := tp.Shutdown(shutdownCtx); shutdownErr != nil {
			log.Error().Err(shutdownErr).Msg("failed to shutdown telemetry")
		}
	}()

	// Connect to database
	dbConfig := database.ConfigFromEnv()
	pool, err := database.Connect(ctx, dbConfig)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to connect to database")
	}
	defer pool.Close()
	log.Info().
		Str("host", dbConfig.Host).
		Str("database", dbConfig.Database).
		Msg("database connected")

	// Load the station registry
	stations, err := loadStations()
	if err != nil {
		log.Fatal().Err(err).Msg("failed to load station registry")
	}

	// Initialize the upstream provider client
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

	// Initialize stores and the ingestion pipeline
	store := contextstore.NewMemory()
	historyRepo := history.NewPostgresRepository(pool)

	orchestrator := ingest.New(ingest.Config{
		Provider: providerClient,
		Store:    store,
		History:  historyRepo,
		Logger:   log,
	})

	jobMetrics, err := worker.NewJobMetrics()
	if err != nil {
		log.Error().Err(err).Msg("failed to initialize job metrics")
		os.Exit(1) //nolint:gocritic // intentional exit, telemetry cleanup is best-effort
	}

	job := worker.NewIngestJob(worker.IngestJobConfig{
		Config:       ingestionConfigFromEnv(log),
		Logger:       log,
		Orchestrator: orchestrator,
		Stations:     stations,
		Store:        store,
		Metrics:      jobMetrics,
	})

	// Create HTTP server for health checks
	mux := http.NewServeMux()
	mux.HandleFunc("/health", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		_ = json.NewEncoder(w).Encode(map[string]interface{}{
			"status":  "healthy",
			"version": Version,
			"stats":   job.StatsSnapshot(),
		})
	})

	server := &http.Server{
		Addr:         ":" + port,
		Handler:      mux,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
	}

	// Start health check server
	go func() {
		log.Info().Str("addr", server.Addr).Msg("health server listening")
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal().Err(err).Msg("health server error")
		}
	}()

	// Start the periodic ingestion loop
	go job.RunLoop(ctx)

	// Optionally consume on-demand jobs from Pub/Sub
	if subscription := os.Getenv("PUBSUB_SUBSCRIPTION"); subscription != "" {
		projectID := os.Getenv("GOOGLE_CLOUD_PROJECT")
		pubsubHandler, err := worker.NewPubSubHandler(ctx, worker.PubSubConfig{
			ProjectID:        projectID,
			SubscriptionName: subscription,
			Job:              job,
			Logger:           log,
		})
		if err != nil {
			log.Fatal().Err(err).Msg("failed to initialize pubsub handler")
		}
		defer func() {
			if closeErr := pubsubHandler.Close(); closeErr != nil {
				log.Error().Err(closeErr).Msg("failed to close pubsub handler")
			}
		}()

		go func() {
			log.Info().
				Str("subscription", subscription).
				Msg("pubsub consumer started")
			if err := pubsubHandler.Start(ctx); err != nil {
				log.Error().Err(err).Msg("pubsub consumer stopped")
			}
		}()
	}

	// Wait for interrupt signal
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info().Msg("shutting down worker")
	cancel()

	// Graceful shutdown
	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer shutdownCancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("health server forced to shutdown")
	}

	log.Info().Msg("worker stopped")
}

// loadStations reads the registry from STATIONS_FILE when set and
// falls back to the built-in network otherwise.
func loadStations() (*station.Registry, error) {
	if path := os.Getenv("STATIONS_FILE"); path != "" {
		return station.LoadFile(path)
	}
	return station.NewRegistry(station.DefaultStations())
}

// ingestionConfigFromEnv builds the loop configuration, honoring the
// INGEST_INTERVAL and PRUNE_INTERVAL overrides when parseable.
func ingestionConfigFromEnv(log zerolog.Logger) worker.IngestionConfig {
	cfg := worker.DefaultIngestionConfig()

	if raw := os.Getenv("INGEST_INTERVAL"); raw != "" {
		if d, err := time.ParseDuration(raw); err == nil && d > 0 {
			cfg.Interval = d
		} else {
			log.Warn().Str("value", raw).Msg("invalid INGEST_INTERVAL, using default")
		}
	}
	if raw := os.Getenv("PRUNE_INTERVAL"); raw != "" {
		if d, err := time.ParseDuration(raw); err == nil && d > 0 {
			cfg.PruneInterval = d
		} else {
			log.Warn().Str("value", raw).Msg("invalid PRUNE_INTERVAL, using default")
		}
	}

	return cfg
}
