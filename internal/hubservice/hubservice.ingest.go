// FilePath: internal/hubservice/hubservice.ingest.go
package hubservice

import (
	"context"
	"time"

	"github.com/gearlog/wican-hub/internal/database"
	"github.com/gearlog/wican-hub/internal/errors"
	"github.com/gearlog/wican-hub/internal/models"
	"github.com/gearlog/wican-hub/internal/settings"
	nuts "github.com/vaudience/go-nuts"
)

// Ingest processes one authenticated WiCAN payload as a single unit of
// work. Failures after auth are absorbed: the device gets a 202-shaped
// "accepted" result with processing_error set, never a retry-triggering
// status; from its side the send is fire-and-forget.
func (s *HubService) Ingest(ctx context.Context, token string, payload *models.IngestPayload) *models.IngestResult {
	now := time.Now()
	result := &models.IngestResult{
		Status:    models.IngestAccepted,
		Timestamp: now,
	}

	snap, err := s.Settings.Load(ctx)
	if err != nil {
		result.ProcessingError = "settings unavailable"
		nuts.L.Errorf("[Ingest] Failed to load settings snapshot: %v", err)
		return result
	}
	if !snap.Enabled() {
		result.Status = models.IngestDisabled
		return result
	}

	at := payload.EffectiveTime(now)

	tx, err := s.Devices.BeginTx(ctx)
	if err != nil {
		result.ProcessingError = err.Error()
		return result
	}
	// All repository writes below run inside the transaction.
	ctx = database.WithTx(ctx, tx)
	committed := false
	defer func() {
		if !committed {
			_ = tx.Rollback()
		}
	}()

	device, isNew, err := s.resolveIngestDevice(ctx, token, payload, at)
	if err != nil {
		if errors.IsUnresolvedDevice(err) {
			result.Status = models.IngestRejected
			if apiErr, ok := err.(*errors.APIError); ok {
				result.Message = apiErr.Message
			}
			return result
		}
		result.ProcessingError = err.Error()
		nuts.L.Errorf("[Ingest] Device resolution failed: %v", err)
		return result
	}
	result.DeviceID = device.DeviceID

	if !device.Enabled {
		result.Status = models.IngestDisabled
		return result
	}

	if payload.Status != nil {
		result.DeviceNew = &isNew
	}
	linked := device.VIN != nil
	result.DeviceLinked = &linked

	if err := s.processIngest(ctx, device, payload, snap, at, result); err != nil {
		result.ProcessingError = err.Error()
		nuts.L.Errorf("[Ingest] Processing failed for device %s: %v", device.DeviceID, err)
		return result
	}

	if err := tx.Commit(); err != nil {
		result.ProcessingError = err.Error()
		return result
	}
	committed = true
	return result
}

// resolveIngestDevice identifies the sending device: via the status
// block when present (auto-discovering unknown devices), otherwise via
// the presented token.
func (s *HubService) resolveIngestDevice(ctx context.Context, token string, payload *models.IngestPayload, at time.Time) (*models.Device, bool, error) {
	if payload.Status != nil {
		device, isNew, err := s.AutoDiscoverDevice(ctx, payload.Status, at)
		if err != nil {
			return nil, false, err
		}
		if !isNew {
			if err := s.UpdateDeviceStatus(ctx, device, payload.Status, at); err != nil {
				return nil, false, err
			}
		}
		return device, isNew, nil
	}

	device, err := s.ResolveDeviceByToken(ctx, token)
	if err != nil {
		return nil, false, err
	}
	if err := s.TouchDeviceHeartbeat(ctx, device.DeviceID, at); err != nil {
		return nil, false, err
	}
	device.LastSeen = at
	return device, false, nil
}

// processIngest runs session transitions, telemetry persistence and DTC
// reconciliation for a resolved device. Telemetry and sessions need a
// vehicle attribution, so an unlinked device only has its status
// recorded.
func (s *HubService) processIngest(ctx context.Context, device *models.Device, payload *models.IngestPayload, snap *settings.Snapshot, at time.Time, result *models.IngestResult) error {
	if device.VIN == nil {
		return nil
	}
	vin := *device.VIN

	if payload.Status != nil {
		switch payload.Status.ECUStatus {
		case models.StateOnline:
			if _, err := s.HandleECUOnline(ctx, vin, device.DeviceID, at); err != nil {
				return err
			}
		case models.StateOffline:
			if _, err := s.HandleECUOffline(ctx, vin, at); err != nil {
				return err
			}
		}
	}

	stored, err := s.StoreTelemetry(ctx, vin, device.DeviceID, payload.AutoPIDData, payload.Config, snap, at)
	if err != nil {
		return err
	}
	result.ParametersStored = &stored

	if raw, ok := payload.AutoPIDData[models.DTCParamKey]; ok && raw.Kind == models.ParamString {
		dtcs, err := s.ProcessDTCs(ctx, vin, device.DeviceID, SplitDTCList(raw.Str), at)
		if err != nil {
			return err
		}
		recorded := len(dtcs)
		result.DTCsRecorded = &recorded
	}
	return nil
}
