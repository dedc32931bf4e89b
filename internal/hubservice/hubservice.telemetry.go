// FilePath: internal/hubservice/hubservice.telemetry.go
package hubservice

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"github.com/gearlog/wican-hub/internal/models"
	"github.com/gearlog/wican-hub/internal/notify"
	"github.com/gearlog/wican-hub/internal/settings"
	nuts "github.com/vaudience/go-nuts"
)

// StoreTelemetry persists one reading per non-null key of autopid_data,
// attaching unit/class metadata from the payload config when present.
// The DTC pseudo-parameter and null values are skipped. String values
// that parse as a number are stored numerically; other strings are kept
// verbatim in value_text and never threshold-checked. Returns the
// number of readings stored.
func (s *HubService) StoreTelemetry(ctx context.Context, vin, deviceID string, data map[string]models.ParamValue, config map[string]models.ParamConfig, snap *settings.Snapshot, at time.Time) (int, error) {
	stored := 0
	for key, value := range data {
		if key == models.DTCParamKey || value.Kind == models.ParamNull {
			continue
		}

		reading := &models.TelemetryReading{
			ID:           nuts.NID("tr", 12),
			VIN:          vin,
			DeviceID:     deviceID,
			ParameterKey: key,
			Timestamp:    at,
		}
		numeric, isNumeric := numericValue(value)
		if isNumeric {
			reading.Value = numeric
		} else {
			text := value.Str
			reading.ValueText = &text
		}
		if meta, ok := config[key]; ok {
			reading.Unit = meta.Unit
			reading.Class = meta.Class
		}

		if err := s.Telemetry.InsertReading(ctx, reading); err != nil {
			return stored, err
		}
		stored++

		if isNumeric {
			s.CheckThresholds(vin, deviceID, key, numeric, snap)
		}
	}
	return stored, nil
}

// CheckThresholds compares a value against the configured bounds for its
// parameter and emits an alert on breach. Fire-and-forget: a breach (or
// a dispatch problem) never fails the ingest.
func (s *HubService) CheckThresholds(vin, deviceID, paramKey string, value float64, snap *settings.Snapshot) {
	rule, ok := snap.ThresholdRules()[paramKey]
	if !ok {
		return
	}

	var message string
	switch {
	case rule.Min != nil && value < *rule.Min:
		message = fmt.Sprintf("%s %.2f below threshold %.2f", paramKey, value, *rule.Min)
	case rule.Max != nil && value > *rule.Max:
		message = fmt.Sprintf("%s %.2f above threshold %.2f", paramKey, value, *rule.Max)
	default:
		return
	}

	s.Notify.Emit(notify.AlertEvent{
		Name:     notify.EventThresholdBreach,
		VIN:      vin,
		DeviceID: deviceID,
		Message:  message,
		Labels:   map[string]string{"parameter": paramKey},
	})
}

// GenerateDailySummary rolls the given day's raw readings up into
// per-(vin, parameter) min/max/avg rows. Idempotent: re-running a day
// overwrites rather than duplicates.
func (s *HubService) GenerateDailySummary(ctx context.Context, day time.Time) (int64, error) {
	rows, err := s.Telemetry.UpsertDailySummaries(ctx, day)
	if err != nil {
		return 0, err
	}
	nuts.L.Infof("[Telemetry] Summarized %d parameter-days for %s", rows, day.Format("2006-01-02"))
	return rows, nil
}

// PruneOldTelemetry bulk-deletes raw readings past the retention window.
// Summary rows are never pruned.
func (s *HubService) PruneOldTelemetry(ctx context.Context, retentionDays int) (int64, error) {
	cutoff := time.Now().AddDate(0, 0, -retentionDays)
	return s.Telemetry.DeleteOlderThan(ctx, cutoff)
}

// ListReadings returns raw telemetry for a vehicle.
func (s *HubService) ListReadings(ctx context.Context, vin string, filters models.ReadingFilters) ([]*models.TelemetryReading, error) {
	return s.Telemetry.ListReadings(ctx, vin, filters)
}

// ListSummaries returns daily rollups for a vehicle.
func (s *HubService) ListSummaries(ctx context.Context, vin string, filters models.SummaryFilters) ([]*models.TelemetryDailySummary, error) {
	return s.Telemetry.ListSummaries(ctx, vin, filters)
}

// numericValue extracts a float from a parameter value. Strings are
// accepted when they parse as a number; WiCAN firmware quotes some PIDs.
func numericValue(value models.ParamValue) (float64, bool) {
	switch value.Kind {
	case models.ParamNumber:
		return value.Number, true
	case models.ParamString:
		num, err := strconv.ParseFloat(value.Str, 64)
		if err != nil {
			return 0, false
		}
		return num, true
	default:
		return 0, false
	}
}
