// Package handler provides HTTP handlers for the AirGrid API.
package handler

import (
	"context"
	"net/http"
	"time"

	"github.com/airgrid/airgrid/internal/api/models"
	"github.com/airgrid/airgrid/internal/api/response"
	"github.com/airgrid/airgrid/internal/ingest"
	"github.com/airgrid/airgrid/internal/provider/resilience"
	"github.com/airgrid/airgrid/internal/reading"
	"github.com/airgrid/airgrid/internal/station"
)

// ReadinessCheck probes one backing dependency.
type ReadinessCheck struct {
	Name  string
	Check func(ctx context.Context) error
}

// OpsConfig holds configuration for the OpsHandler.
type OpsConfig struct {
	Version        string
	BuildTime      string
	Orchestrator   *ingest.Orchestrator
	Stations       *station.Registry
	Checks         []ReadinessCheck
	ProviderHealth *resilience.Health
}

// OpsHandler handles operational endpoints.
type OpsHandler struct {
	version        string
	buildTime      string
	orchestrator   *ingest.Orchestrator
	stations       *station.Registry
	checks         []ReadinessCheck
	providerHealth *resilience.Health
}

// NewOpsHandler creates a new OpsHandler.
func NewOpsHandler(cfg OpsConfig) *OpsHandler {
	return &OpsHandler{
		version:        cfg.Version,
		buildTime:      cfg.BuildTime,
		orchestrator:   cfg.Orchestrator,
		stations:       cfg.Stations,
		checks:         cfg.Checks,
		providerHealth: cfg.ProviderHealth,
	}
}

// HealthCheck handles GET /v1/ops/health - liveness check.
func (h *OpsHandler) HealthCheck(w http.ResponseWriter, r *http.Request) {
	health := models.Health{
		Status: models.HealthStatusOK,
		Time:   models.Timestamp(time.Now()),
		Details: map[string]interface{}{
			"version":   h.version,
			"buildTime": h.buildTime,
		},
	}
	response.JSON(w, r, http.StatusOK, health)
}

// ReadinessCheck handles GET /v1/ops/ready - readiness check. It runs
// every configured dependency probe and reports per-subsystem status;
// any failing probe degrades the aggregate to FAIL with a 503.
func (h *OpsHandler) ReadinessCheck(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	readiness := models.Readiness{
		Status: models.HealthStatusOK,
		Time:   models.Timestamp(time.Now()),
	}

	for _, check := range h.checks {
		sub := models.SubsystemStatus{Name: check.Name, Status: models.HealthStatusOK}
		if err := check.Check(ctx); err != nil {
			detail := err.Error()
			sub.Status = models.HealthStatusFail
			sub.Detail = &detail
			readiness.Status = models.HealthStatusFail
		}
		readiness.Subsystems = append(readiness.Subsystems, sub)
	}

	if h.providerHealth != nil {
		status := h.providerHealth.Status()
		sub := models.SubsystemStatus{Name: status.Name, Status: models.HealthStatusOK}
		if status.LastFailureAt.After(status.LastSuccessAt) {
			sub.Status = models.HealthStatusDegraded
			if status.LastError != "" {
				detail := status.LastError
				sub.Detail = &detail
			}
			if readiness.Status == models.HealthStatusOK {
				readiness.Status = models.HealthStatusDegraded
			}
		}
		readiness.Subsystems = append(readiness.Subsystems, sub)
	}

	code := http.StatusOK
	if readiness.Status == models.HealthStatusFail {
		code = http.StatusServiceUnavailable
	}
	response.JSON(w, r, code, readiness)
}

// TriggerIngest handles POST /v1/ops/ingest - manual ingestion trigger.
// The domain query parameter selects weather, air-quality or all
// (default all). A partially failed batch is still a 200; the report
// body carries the per-station failures.
func (h *OpsHandler) TriggerIngest(w http.ResponseWriter, r *http.Request) {
	stations := h.stations.All()

	switch r.URL.Query().Get("domain") {
	case "", "all":
		report := h.orchestrator.RunAll(r.Context(), stations)
		response.JSON(w, r, http.StatusOK, report)
	case "weather":
		report := h.orchestrator.Run(r.Context(), reading.KindWeather, stations)
		response.JSON(w, r, http.StatusOK, report)
	case "air-quality":
		report := h.orchestrator.Run(r.Context(), reading.KindAirQuality, stations)
		response.JSON(w, r, http.StatusOK, report)
	default:
		response.BadRequest(w, r, "domain must be weather, air-quality or all", []models.FieldError{
			{Field: "domain", Message: "must be one of: weather, air-quality, all"},
		})
	}
}
