// FilePath: internal/hubservice/hubservice.devices.go
package hubservice

import (
	"context"
	"time"

	"github.com/gearlog/wican-hub/internal/errors"
	"github.com/gearlog/wican-hub/internal/models"
	"github.com/gearlog/wican-hub/internal/notify"
)

// AutoDiscoverDevice upserts device identity on a status payload. An
// unseen device id creates an unlinked row (vin = NULL); a known id only
// refreshes version and network fields. Idempotent, keyed on device_id.
func (s *HubService) AutoDiscoverDevice(ctx context.Context, status *models.StatusBlock, seenAt time.Time) (*models.Device, bool, error) {
	device, err := s.Devices.Get(ctx, status.DeviceID)
	if err == nil {
		return device, false, nil
	}
	if !errors.IsNotFound(err) {
		return nil, false, err
	}

	device = &models.Device{
		DeviceID:       status.DeviceID,
		HWVersion:      status.HWVersion,
		FWVersion:      status.FWVersion,
		GitVersion:     status.GitVersion,
		StaIP:          status.StaIP,
		RSSI:           status.RSSI,
		BatteryVoltage: status.BatteryVoltage,
		ECUStatus:      status.ECUStatus,
		DeviceStatus:   models.StateOnline,
		VIN:            nil,
		Enabled:        true,
		LastSeen:       seenAt,
		CreatedAt:      seenAt,
		UpdatedAt:      seenAt,
	}
	if err := s.Devices.Create(ctx, device); err != nil {
		return nil, false, err
	}

	s.Notify.Emit(notify.AlertEvent{
		Name:     notify.EventDeviceDiscovered,
		DeviceID: device.DeviceID,
		Message:  "new WiCAN device discovered",
	})
	return device, true, nil
}

// UpdateDeviceStatus overwrites a device's mutable fields from a full
// status payload. A reporting device is by definition online.
func (s *HubService) UpdateDeviceStatus(ctx context.Context, device *models.Device, status *models.StatusBlock, seenAt time.Time) error {
	device.HWVersion = status.HWVersion
	device.FWVersion = status.FWVersion
	device.GitVersion = status.GitVersion
	device.StaIP = status.StaIP
	device.RSSI = status.RSSI
	device.BatteryVoltage = status.BatteryVoltage
	device.ECUStatus = status.ECUStatus
	device.DeviceStatus = models.StateOnline
	device.LastSeen = seenAt
	device.UpdatedAt = seenAt
	return s.Devices.UpdateStatus(ctx, device)
}

// TouchDeviceHeartbeat records liveness for a telemetry-only payload
// without disturbing version or network fields.
func (s *HubService) TouchDeviceHeartbeat(ctx context.Context, deviceID string, seenAt time.Time) error {
	return s.Devices.TouchHeartbeat(ctx, deviceID, seenAt)
}

// GetDevice returns one device by id.
func (s *HubService) GetDevice(ctx context.Context, deviceID string) (*models.Device, error) {
	return s.Devices.Get(ctx, deviceID)
}

// ListDevices returns a page of known devices, most recently seen first.
func (s *HubService) ListDevices(ctx context.Context, offset, limit int) ([]*models.Device, error) {
	return s.Devices.List(ctx, offset, limit)
}

// LinkDevice attaches a device to a vehicle by VIN. The vehicle must
// exist; linking drives session tracking and telemetry attribution.
func (s *HubService) LinkDevice(ctx context.Context, deviceID, vin string) (*models.Device, error) {
	if _, err := s.Vehicles.GetByVIN(ctx, vin); err != nil {
		return nil, err
	}
	if err := s.Devices.SetVIN(ctx, deviceID, &vin); err != nil {
		return nil, err
	}
	return s.Devices.Get(ctx, deviceID)
}

// UnlinkDevice detaches a device from its vehicle.
func (s *HubService) UnlinkDevice(ctx context.Context, deviceID string) error {
	return s.Devices.SetVIN(ctx, deviceID, nil)
}

// SweepOfflineDevices flips device_status to offline for devices silent
// longer than the timeout and emits one alert per transition when the
// offline-notify flag is on.
func (s *HubService) SweepOfflineDevices(ctx context.Context, timeout time.Duration, notifyOffline bool) ([]*models.Device, error) {
	cutoff := time.Now().Add(-timeout)
	flipped, err := s.Devices.MarkOfflineOlderThan(ctx, cutoff)
	if err != nil {
		return nil, err
	}

	if notifyOffline {
		for _, device := range flipped {
			event := notify.AlertEvent{
				Name:     notify.EventDeviceOffline,
				DeviceID: device.DeviceID,
				Message:  "device has gone silent",
			}
			if device.VIN != nil {
				event.VIN = *device.VIN
			}
			s.Notify.Emit(event)
		}
	}
	return flipped, nil
}
