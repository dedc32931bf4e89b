// FilePath: api/resources/api.resource.telemetry.go
package resources

import (
	"net/http"

	"github.com/gearlog/wican-hub/internal/errors"
	"github.com/gearlog/wican-hub/internal/hubservice"
	"github.com/gearlog/wican-hub/internal/models"
	"github.com/gorilla/mux"
	nuts "github.com/vaudience/go-nuts"
)

// TelemetryHandlers encapsulates the telemetry read handlers
type TelemetryHandlers struct {
	hubservice *hubservice.HubService
}

// @Summary List telemetry readings
// @Description Get raw parameter readings for a vehicle
// @Tags telemetry
// @Produce json
// @Param vin path string true "Vehicle VIN"
// @Param parameter query string false "Parameter key"
// @Param start query string false "Range start (RFC3339)"
// @Param end query string false "Range end (RFC3339)"
// @Param limit query int false "Limit"
// @Success 200 {array} models.TelemetryReading
// @Router /vehicles/{vin}/telemetry [get]
// @Security BearerAuth
func (h *TelemetryHandlers) ListReadings(w http.ResponseWriter, r *http.Request) {
	vars := mux.Vars(r)
	vin := vars["vin"]
	requestID := nuts.NID("req", 12)

	var filters models.ReadingFilters
	if err := queryDecoder.Decode(&filters, r.URL.Query()); err != nil {
		respondWithError(w, errors.NewValidationError("invalid query parameters", err).WithRequestID(requestID))
		return
	}

	readings, err := h.hubservice.ListReadings(r.Context(), vin, filters)
	if err != nil {
		respondWithError(w, errors.NewInternalError("failed to list telemetry", err).WithRequestID(requestID))
		return
	}

	respondWithJSON(w, http.StatusOK, readings)
}

// @Summary List daily telemetry summaries
// @Description Get per-day min/max/avg rollups for a vehicle
// @Tags telemetry
// @Produce json
// @Param vin path string true "Vehicle VIN"
// @Param parameter query string false "Parameter key"
// @Param start query string false "Range start (RFC3339)"
// @Param end query string false "Range end (RFC3339)"
// @Success 200 {array} models.TelemetryDailySummary
// @Router /vehicles/{vin}/telemetry/summary [get]
// @Security BearerAuth
func (h *TelemetryHandlers) ListSummaries(w http.ResponseWriter, r *http.Request) {
	vars := mux.Vars(r)
	vin := vars["vin"]
	requestID := nuts.NID("req", 12)

	var filters models.SummaryFilters
	if err := queryDecoder.Decode(&filters, r.URL.Query()); err != nil {
		respondWithError(w, errors.NewValidationError("invalid query parameters", err).WithRequestID(requestID))
		return
	}

	summaries, err := h.hubservice.ListSummaries(r.Context(), vin, filters)
	if err != nil {
		respondWithError(w, errors.NewInternalError("failed to list summaries", err).WithRequestID(requestID))
		return
	}

	respondWithJSON(w, http.StatusOK, summaries)
}
