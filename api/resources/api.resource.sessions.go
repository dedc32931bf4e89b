// FilePath: api/resources/api.resource.sessions.go
package resources

import (
	"net/http"

	"github.com/gearlog/wican-hub/internal/errors"
	"github.com/gearlog/wican-hub/internal/hubservice"
	"github.com/gearlog/wican-hub/internal/models"
	"github.com/gorilla/mux"
	nuts "github.com/vaudience/go-nuts"
)

// SessionHandlers encapsulates the drive-session HTTP handlers
type SessionHandlers struct {
	hubservice *hubservice.HubService
}

// @Summary List drive sessions
// @Description Get the drive-session history of a vehicle
// @Tags sessions
// @Produce json
// @Param vin path string true "Vehicle VIN"
// @Param open query bool false "Only the open session"
// @Param limit query int false "Limit"
// @Param offset query int false "Offset"
// @Success 200 {array} models.DriveSession
// @Router /vehicles/{vin}/sessions [get]
// @Security BearerAuth
func (h *SessionHandlers) ListSessions(w http.ResponseWriter, r *http.Request) {
	vars := mux.Vars(r)
	vin := vars["vin"]
	requestID := nuts.NID("req", 12)

	var filters models.SessionFilters
	if err := queryDecoder.Decode(&filters, r.URL.Query()); err != nil {
		respondWithError(w, errors.NewValidationError("invalid query parameters", err).WithRequestID(requestID))
		return
	}

	sessions, err := h.hubservice.ListSessions(r.Context(), vin, filters)
	if err != nil {
		respondWithError(w, errors.NewInternalError("failed to list sessions", err).WithRequestID(requestID))
		return
	}

	respondWithJSON(w, http.StatusOK, sessions)
}
