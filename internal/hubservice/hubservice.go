// FilePath: internal/hubservice/hubservice.go
// Package hubservice carries the WiCAN ingestion core: token
// validation, device auto-discovery, drive-session tracking, telemetry
// persistence with threshold alerting and trouble-code reconciliation.
package hubservice

import (
	"github.com/gearlog/wican-hub/internal/errors"
	"github.com/gearlog/wican-hub/internal/firmware"
	"github.com/gearlog/wican-hub/internal/notify"
	"github.com/gearlog/wican-hub/internal/repository"
	"github.com/gearlog/wican-hub/internal/settings"
)

// HubService contains all repositories and service-wide dependencies
type HubService struct {
	Devices   repository.DeviceRepository
	Vehicles  repository.VehicleRepository
	Sessions  repository.SessionRepository
	Telemetry repository.TelemetryRepository
	DTCs      repository.DTCRepository
	Settings  *settings.Loader
	Notify    *notify.Dispatcher
	Firmware  *firmware.Advisor

	globalToken string
}

// New creates a new HubService instance
func New(
	devices repository.DeviceRepository,
	vehicles repository.VehicleRepository,
	sessions repository.SessionRepository,
	telemetry repository.TelemetryRepository,
	dtcs repository.DTCRepository,
	settingsLoader *settings.Loader,
	dispatcher *notify.Dispatcher,
	advisor *firmware.Advisor,
	globalToken string,
) *HubService {
	return &HubService{
		Devices:     devices,
		Vehicles:    vehicles,
		Sessions:    sessions,
		Telemetry:   telemetry,
		DTCs:        dtcs,
		Settings:    settingsLoader,
		Notify:      dispatcher,
		Firmware:    advisor,
		globalToken: globalToken,
	}
}

// Validate checks if all required dependencies are initialized
func (s *HubService) Validate() error {
	if s.Devices == nil {
		return errMissingDependency("devices")
	}
	if s.Vehicles == nil {
		return errMissingDependency("vehicles")
	}
	if s.Sessions == nil {
		return errMissingDependency("sessions")
	}
	if s.Telemetry == nil {
		return errMissingDependency("telemetry")
	}
	if s.DTCs == nil {
		return errMissingDependency("dtcs")
	}
	if s.Settings == nil {
		return errMissingDependency("settings")
	}
	if s.Notify == nil {
		return errMissingDependency("notify")
	}
	return nil
}

func errMissingDependency(name string) error {
	return errors.NewInternalError("missing dependency: "+name, nil)
}
