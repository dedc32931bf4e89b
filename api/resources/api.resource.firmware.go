// FilePath: api/resources/api.resource.firmware.go
package resources

import (
	"net/http"

	"github.com/gearlog/wican-hub/internal/errors"
	"github.com/gearlog/wican-hub/internal/hubservice"
	"github.com/gearlog/wican-hub/internal/models"
	nuts "github.com/vaudience/go-nuts"
)

// FirmwareHandlers encapsulates the firmware advisory handlers
type FirmwareHandlers struct {
	hubservice *hubservice.HubService
}

// @Summary Get the latest known firmware release
// @Description Return the most recently fetched upstream release metadata
// @Tags firmware
// @Produce json
// @Success 200 {object} models.FirmwareRelease
// @Failure 404 {object} errors.APIError
// @Router /firmware/latest [get]
// @Security BearerAuth
func (h *FirmwareHandlers) GetLatest(w http.ResponseWriter, r *http.Request) {
	requestID := nuts.NID("req", 12)

	release, found, err := h.hubservice.Firmware.GetLatest(r.Context())
	if err != nil {
		respondWithError(w, errors.NewInternalError("failed to read firmware cache", err).WithRequestID(requestID))
		return
	}
	if !found {
		respondWithError(w, errors.NewNotFoundError("no firmware release fetched yet", nil).WithRequestID(requestID))
		return
	}

	respondWithJSON(w, http.StatusOK, release)
}

// @Summary List devices with outdated firmware
// @Description Compare each device's reported version against the latest release
// @Tags firmware
// @Produce json
// @Success 200 {array} models.DeviceFirmwareStatus
// @Router /firmware/outdated [get]
// @Security BearerAuth
func (h *FirmwareHandlers) ListOutdated(w http.ResponseWriter, r *http.Request) {
	requestID := nuts.NID("req", 12)

	outdated, err := h.hubservice.Firmware.GetDevicesNeedingUpdate(r.Context())
	if err != nil {
		respondWithError(w, errors.NewInternalError("failed to list outdated devices", err).WithRequestID(requestID))
		return
	}
	if outdated == nil {
		outdated = []*models.DeviceFirmwareStatus{}
	}

	respondWithJSON(w, http.StatusOK, outdated)
}
