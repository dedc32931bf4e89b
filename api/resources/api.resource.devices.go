// FilePath: api/resources/api.resource.devices.go
package resources

import (
	"encoding/json"
	"net/http"

	"github.com/gearlog/wican-hub/api/middleware"
	"github.com/gearlog/wican-hub/internal/errors"
	"github.com/gearlog/wican-hub/internal/hubservice"
	"github.com/gearlog/wican-hub/internal/models"
	"github.com/gorilla/mux"
	"github.com/itsatony/struccy"
	nuts "github.com/vaudience/go-nuts"
)

// DeviceHandlers encapsulates the device-related HTTP handlers
type DeviceHandlers struct {
	hubservice *hubservice.HubService
}

// @Summary List devices
// @Description Get a paginated list of known WiCAN devices
// @Tags devices
// @Produce json
// @Param offset query int false "Offset for pagination"
// @Param limit query int false "Limit for pagination"
// @Success 200 {array} models.Device
// @Router /devices [get]
// @Security BearerAuth
func (h *DeviceHandlers) ListDevices(w http.ResponseWriter, r *http.Request) {
	requestID := nuts.NID("req", 12)
	offset, limit := getPaginationParams(r)

	devices, err := h.hubservice.ListDevices(r.Context(), offset, limit)
	if err != nil {
		respondWithError(w, errors.NewInternalError("failed to list devices", err).WithRequestID(requestID))
		return
	}

	roles := middleware.RolesFromContext(r.Context())
	views := make([]map[string]any, 0, len(devices))
	for _, device := range devices {
		view, err := deviceView(device, roles)
		if err != nil {
			respondWithError(w, errors.NewInternalError("failed to render device", err).WithRequestID(requestID))
			return
		}
		views = append(views, view)
	}

	respondWithJSON(w, http.StatusOK, views)
}

// @Summary Get a device by ID
// @Description Get detailed information about a specific device
// @Tags devices
// @Produce json
// @Param id path string true "Device ID"
// @Success 200 {object} models.Device
// @Failure 404 {object} errors.APIError
// @Router /devices/{id} [get]
// @Security BearerAuth
func (h *DeviceHandlers) GetDevice(w http.ResponseWriter, r *http.Request) {
	vars := mux.Vars(r)
	id := vars["id"]
	requestID := nuts.NID("req", 12)

	device, err := h.hubservice.GetDevice(r.Context(), id)
	if err != nil {
		respondWithError(w, errors.NewNotFoundError("device not found", err).WithRequestID(requestID))
		return
	}

	view, err := deviceView(device, middleware.RolesFromContext(r.Context()))
	if err != nil {
		respondWithError(w, errors.NewInternalError("failed to render device", err).WithRequestID(requestID))
		return
	}

	respondWithJSON(w, http.StatusOK, view)
}

type linkRequest struct {
	VIN string `json:"vin"`
}

// @Summary Link a device to a vehicle
// @Description Attach a device to a vehicle by VIN
// @Tags devices
// @Accept json
// @Produce json
// @Param id path string true "Device ID"
// @Param link body linkRequest true "Vehicle VIN"
// @Success 200 {object} models.Device
// @Failure 404 {object} errors.APIError
// @Router /devices/{id}/link [post]
// @Security BearerAuth
func (h *DeviceHandlers) LinkDevice(w http.ResponseWriter, r *http.Request) {
	vars := mux.Vars(r)
	id := vars["id"]
	requestID := nuts.NID("req", 12)

	var req linkRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.VIN == "" {
		respondWithError(w, errors.NewValidationError("vin is required", err).WithRequestID(requestID))
		return
	}

	device, err := h.hubservice.LinkDevice(r.Context(), id, req.VIN)
	if err != nil {
		if errors.IsNotFound(err) {
			respondWithError(w, errors.NewNotFoundError("device or vehicle not found", err).WithRequestID(requestID))
			return
		}
		respondWithError(w, errors.NewInternalError("failed to link device", err).WithRequestID(requestID))
		return
	}

	view, err := deviceView(device, middleware.RolesFromContext(r.Context()))
	if err != nil {
		respondWithError(w, errors.NewInternalError("failed to render device", err).WithRequestID(requestID))
		return
	}

	respondWithJSON(w, http.StatusOK, view)
}

// @Summary Unlink a device
// @Description Detach a device from its vehicle
// @Tags devices
// @Produce json
// @Param id path string true "Device ID"
// @Success 204 "No Content"
// @Failure 404 {object} errors.APIError
// @Router /devices/{id}/link [delete]
// @Security BearerAuth
func (h *DeviceHandlers) UnlinkDevice(w http.ResponseWriter, r *http.Request) {
	vars := mux.Vars(r)
	id := vars["id"]
	requestID := nuts.NID("req", 12)

	if err := h.hubservice.UnlinkDevice(r.Context(), id); err != nil {
		if errors.IsNotFound(err) {
			respondWithError(w, errors.NewNotFoundError("device not found", err).WithRequestID(requestID))
			return
		}
		respondWithError(w, errors.NewInternalError("failed to unlink device", err).WithRequestID(requestID))
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

// deviceView filters device fields by the caller's roles so the stored
// per-device token only reaches admin readers.
func deviceView(device *models.Device, roles []string) (map[string]any, error) {
	return struccy.StructToMapFieldsWithReadXS(device, roles)
}
