// FilePath: api/resources/api.resource.dtcs.go
package resources

import (
	"encoding/json"
	"net/http"
	"strconv"

	"github.com/gearlog/wican-hub/internal/errors"
	"github.com/gearlog/wican-hub/internal/hubservice"
	"github.com/gorilla/mux"
	nuts "github.com/vaudience/go-nuts"
)

// DTCHandlers encapsulates the trouble-code HTTP handlers
type DTCHandlers struct {
	hubservice *hubservice.HubService
}

// @Summary List vehicle trouble codes
// @Description Get the trouble-code records of a vehicle
// @Tags dtcs
// @Produce json
// @Param vin path string true "Vehicle VIN"
// @Param active query bool false "Only active records"
// @Success 200 {array} models.VehicleDTC
// @Router /vehicles/{vin}/dtcs [get]
// @Security BearerAuth
func (h *DTCHandlers) ListVehicleDTCs(w http.ResponseWriter, r *http.Request) {
	vars := mux.Vars(r)
	vin := vars["vin"]
	requestID := nuts.NID("req", 12)
	activeOnly, _ := strconv.ParseBool(r.URL.Query().Get("active"))

	dtcs, err := h.hubservice.ListVehicleDTCs(r.Context(), vin, activeOnly)
	if err != nil {
		respondWithError(w, errors.NewInternalError("failed to list trouble codes", err).WithRequestID(requestID))
		return
	}

	respondWithJSON(w, http.StatusOK, dtcs)
}

type clearRequest struct {
	Notes string `json:"notes"`
}

// @Summary Clear a trouble code
// @Description Explicitly deactivate a trouble-code record
// @Tags dtcs
// @Accept json
// @Produce json
// @Param id path string true "Record ID"
// @Param clear body clearRequest false "Clearing notes"
// @Success 200 {object} models.VehicleDTC
// @Failure 404 {object} errors.APIError
// @Router /dtcs/{id}/clear [post]
// @Security BearerAuth
func (h *DTCHandlers) ClearDTC(w http.ResponseWriter, r *http.Request) {
	vars := mux.Vars(r)
	id := vars["id"]
	requestID := nuts.NID("req", 12)

	var req clearRequest
	if r.Body != nil {
		_ = json.NewDecoder(r.Body).Decode(&req)
	}

	dtc, err := h.hubservice.ClearDTC(r.Context(), id, req.Notes)
	if err != nil {
		if errors.IsNotFound(err) {
			respondWithError(w, errors.NewNotFoundError("active trouble code not found", err).WithRequestID(requestID))
			return
		}
		respondWithError(w, errors.NewInternalError("failed to clear trouble code", err).WithRequestID(requestID))
		return
	}

	respondWithJSON(w, http.StatusOK, dtc)
}

// @Summary Look up a trouble code definition
// @Description Get the static definition of one code
// @Tags dtcs
// @Produce json
// @Param code path string true "Trouble code"
// @Success 200 {object} models.DTCDefinition
// @Failure 404 {object} errors.APIError
// @Router /dtc-definitions/{code} [get]
// @Security BearerAuth
func (h *DTCHandlers) LookupDefinition(w http.ResponseWriter, r *http.Request) {
	vars := mux.Vars(r)
	code := vars["code"]
	requestID := nuts.NID("req", 12)

	def, err := h.hubservice.LookupDTC(r.Context(), code)
	if err != nil {
		respondWithError(w, errors.NewNotFoundError("unknown trouble code", err).WithRequestID(requestID))
		return
	}

	respondWithJSON(w, http.StatusOK, def)
}

// @Summary Search trouble code definitions
// @Description Match definitions by code prefix or description substring
// @Tags dtcs
// @Produce json
// @Param q query string true "Search query"
// @Success 200 {array} models.DTCDefinition
// @Router /dtc-definitions [get]
// @Security BearerAuth
func (h *DTCHandlers) SearchDefinitions(w http.ResponseWriter, r *http.Request) {
	requestID := nuts.NID("req", 12)
	query := r.URL.Query().Get("q")
	_, limit := getPaginationParams(r)

	defs, err := h.hubservice.SearchDTCDefinitions(r.Context(), query, limit)
	if err != nil {
		respondWithError(w, errors.NewInternalError("failed to search definitions", err).WithRequestID(requestID))
		return
	}

	respondWithJSON(w, http.StatusOK, defs)
}
