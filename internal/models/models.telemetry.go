// FilePath: internal/models/models.telemetry.go
package models

import "time"

// TelemetryReading is a single decoded OBD2 parameter value. Rows are
// append-only; the prune job deletes them in bulk past the retention
// window after they have been rolled up into daily summaries.
// Values that carry no number (VIN reads, raw hex frames) land in
// ValueText with Value zero; such rows are excluded from rollups.
type TelemetryReading struct {
	ID           string    `json:"id" db:"id"`
	VIN          string    `json:"vin" db:"vin"`
	DeviceID     string    `json:"device_id" db:"device_id"`
	ParameterKey string    `json:"parameter_key" db:"parameter_key"`
	Value        float64   `json:"value" db:"value"`
	ValueText    *string   `json:"value_text,omitempty" db:"value_text"`
	Unit         string    `json:"unit" db:"unit"`
	Class        string    `json:"class" db:"class"`
	Timestamp    time.Time `json:"timestamp" db:"timestamp"`
}

// TelemetryDailySummary is the per-day min/max/avg rollup of one
// parameter for one vehicle. Summaries survive pruning indefinitely.
type TelemetryDailySummary struct {
	ID           string    `json:"id" db:"id"`
	VIN          string    `json:"vin" db:"vin"`
	ParameterKey string    `json:"parameter_key" db:"parameter_key"`
	Day          time.Time `json:"day" db:"day"`
	MinValue     float64   `json:"min_value" db:"min_value"`
	MaxValue     float64   `json:"max_value" db:"max_value"`
	AvgValue     float64   `json:"avg_value" db:"avg_value"`
	ReadingCount int       `json:"reading_count" db:"reading_count"`
	CreatedAt    time.Time `json:"created_at" db:"created_at"`
}
