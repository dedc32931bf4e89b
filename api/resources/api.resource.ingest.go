// FilePath: api/resources/api.resource.ingest.go
package resources

import (
	"encoding/json"
	"net/http"

	"github.com/gearlog/wican-hub/api/middleware"
	"github.com/gearlog/wican-hub/internal/errors"
	"github.com/gearlog/wican-hub/internal/hubservice"
	"github.com/gearlog/wican-hub/internal/models"
	nuts "github.com/vaudience/go-nuts"
)

// IngestHandlers encapsulates the WiCAN ingestion endpoint
type IngestHandlers struct {
	hubservice *hubservice.HubService
}

// @Summary Ingest a WiCAN payload
// @Description Accept one telemetry/status payload from a WiCAN device
// @Tags ingest
// @Accept json
// @Produce json
// @Param payload body models.IngestPayload true "Device payload"
// @Success 202 {object} models.IngestResult
// @Failure 401 {object} errors.APIError
// @Failure 422 {object} errors.APIError
// @Router /ingest [post]
// @Security BearerAuth
func (h *IngestHandlers) Ingest(w http.ResponseWriter, r *http.Request) {
	requestID := nuts.NID("req", 12)

	token := middleware.ExtractToken(r)
	if token == "" {
		respondWithError(w, errors.NewAuthError("invalid or missing token", nil).WithRequestID(requestID))
		return
	}

	var payload models.IngestPayload
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		respondWithError(w, errors.NewValidationError("invalid request body", err).WithRequestID(requestID))
		return
	}
	if err := payload.Validate(); err != nil {
		respondWithError(w, errors.NewValidationError(err.Error(), err).WithRequestID(requestID))
		return
	}

	deviceID := ""
	if payload.Status != nil {
		deviceID = payload.Status.DeviceID
	}
	if err := h.hubservice.ValidateToken(r.Context(), token, deviceID); err != nil {
		respondWithError(w, errors.NewAuthError("invalid or missing token", err).WithRequestID(requestID))
		return
	}

	result := h.hubservice.Ingest(r.Context(), token, &payload)
	respondWithJSON(w, http.StatusAccepted, result)
}
