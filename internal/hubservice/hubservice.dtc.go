// FilePath: internal/hubservice/hubservice.dtc.go
package hubservice

import (
	"context"
	"strings"
	"time"

	"github.com/gearlog/wican-hub/internal/errors"
	"github.com/gearlog/wican-hub/internal/models"
	"github.com/gearlog/wican-hub/internal/repository"
	nuts "github.com/vaudience/go-nuts"
)

// ProcessDTCs reconciles a reported code list against the active records
// for the vehicle. Repeat sightings bump last_seen; first sightings
// create an active record enriched from the static definitions table.
// Codes absent from the list are deliberately left untouched: a single
// missed read must not mark a fault as resolved, so only an explicit
// clear deactivates a record.
func (s *HubService) ProcessDTCs(ctx context.Context, vin, deviceID string, codes []string, at time.Time) ([]*models.VehicleDTC, error) {
	seen := map[string]bool{}
	result := []*models.VehicleDTC{}

	for _, raw := range codes {
		code := strings.ToUpper(strings.TrimSpace(raw))
		if code == "" || seen[code] {
			continue
		}
		seen[code] = true

		dtc, err := s.recordDTCSighting(ctx, vin, deviceID, code, at)
		if err != nil {
			return result, err
		}
		result = append(result, dtc)
	}
	return result, nil
}

func (s *HubService) recordDTCSighting(ctx context.Context, vin, deviceID, code string, at time.Time) (*models.VehicleDTC, error) {
	existing, err := s.DTCs.GetActive(ctx, vin, code)
	if err == nil {
		if err := s.DTCs.Touch(ctx, existing.ID, at); err != nil {
			return nil, err
		}
		existing.LastSeen = at
		existing.IsActive = true
		return existing, nil
	}
	if !errors.IsNotFound(err) {
		return nil, err
	}

	dtc := &models.VehicleDTC{
		ID:        nuts.NID("dtc", 12),
		VIN:       vin,
		DeviceID:  deviceID,
		Code:      code,
		Severity:  models.SeverityWarning,
		FirstSeen: at,
		LastSeen:  at,
		IsActive:  true,
	}
	if def, defErr := s.DTCs.GetDefinition(ctx, code); defErr == nil {
		desc := def.Description
		dtc.Description = &desc
		dtc.Severity = def.Severity
	}

	err = s.DTCs.Create(ctx, dtc)
	if err == repository.ErrDuplicate {
		// Concurrent first sighting: the winner's row is authoritative.
		winner, getErr := s.DTCs.GetActive(ctx, vin, code)
		if getErr != nil {
			return nil, getErr
		}
		if touchErr := s.DTCs.Touch(ctx, winner.ID, at); touchErr != nil {
			return nil, touchErr
		}
		return winner, nil
	}
	if err != nil {
		return nil, err
	}

	nuts.L.Infof("[DTC] New active code %s for vin %s (severity %s)", code, vin, dtc.Severity)
	return dtc, nil
}

// ClearDTC explicitly deactivates a trouble-code record, stamping
// cleared_at and appending the user's notes.
func (s *HubService) ClearDTC(ctx context.Context, id, notes string) (*models.VehicleDTC, error) {
	if err := s.DTCs.Clear(ctx, id, time.Now(), notes); err != nil {
		return nil, err
	}
	return s.DTCs.Get(ctx, id)
}

// ListVehicleDTCs returns the trouble-code history of a vehicle.
func (s *HubService) ListVehicleDTCs(ctx context.Context, vin string, activeOnly bool) ([]*models.VehicleDTC, error) {
	return s.DTCs.ListByVIN(ctx, vin, activeOnly)
}

// LookupDTC returns the static definition of one code.
func (s *HubService) LookupDTC(ctx context.Context, code string) (*models.DTCDefinition, error) {
	return s.DTCs.GetDefinition(ctx, strings.ToUpper(strings.TrimSpace(code)))
}

// SearchDTCDefinitions matches definitions by code prefix or description
// substring.
func (s *HubService) SearchDTCDefinitions(ctx context.Context, query string, limit int) ([]*models.DTCDefinition, error) {
	return s.DTCs.SearchDefinitions(ctx, strings.TrimSpace(query), limit)
}

// SplitDTCList parses the comma-separated DIAGNOSTIC_TROUBLE_CODES value.
func SplitDTCList(raw string) []string {
	parts := strings.Split(raw, ",")
	codes := make([]string, 0, len(parts))
	for _, part := range parts {
		if trimmed := strings.TrimSpace(part); trimmed != "" {
			codes = append(codes, trimmed)
		}
	}
	return codes
}
