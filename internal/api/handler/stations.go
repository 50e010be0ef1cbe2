package handler

import (
	"net/http"

	"github.com/airgrid/airgrid/internal/api/response"
	"github.com/airgrid/airgrid/internal/station"
)

// StationsHandler serves the monitoring location reference data.
type StationsHandler struct {
	stations *station.Registry
}

// NewStationsHandler creates a new StationsHandler.
func NewStationsHandler(stations *station.Registry) *StationsHandler {
	return &StationsHandler{stations: stations}
}

// List handles GET /v1/stations.
func (h *StationsHandler) List(w http.ResponseWriter, r *http.Request) {
	response.JSON(w, r, http.StatusOK, map[string]interface{}{
		"data": h.stations.All(),
	})
}
