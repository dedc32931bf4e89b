// FilePath: internal/models/models.dtc.go
package models

import "time"

// DTCSeverity classifies a diagnostic trouble code.
type DTCSeverity string

const (
	SeverityInfo     DTCSeverity = "info"
	SeverityWarning  DTCSeverity = "warning"
	SeverityCritical DTCSeverity = "critical"
)

// VehicleDTC is one logical trouble-code occurrence for a vehicle. At
// most one active row may exist per (vin, code); repeat sightings bump
// LastSeen on the active row. Codes are never cleared implicitly; only
// an explicit clear call deactivates a record.
type VehicleDTC struct {
	ID          string      `json:"id" db:"id"`
	VIN         string      `json:"vin" db:"vin"`
	DeviceID    string      `json:"device_id" db:"device_id"`
	Code        string      `json:"code" db:"code"`
	Description *string     `json:"description" db:"description"`
	Severity    DTCSeverity `json:"severity" db:"severity"`
	FirstSeen   time.Time   `json:"first_seen" db:"first_seen"`
	LastSeen    time.Time   `json:"last_seen" db:"last_seen"`
	ClearedAt   *time.Time  `json:"cleared_at" db:"cleared_at"`
	IsActive    bool        `json:"is_active" db:"is_active"`
	UserNotes   string      `json:"user_notes" db:"user_notes"`
}

// DTCDefinition is a row of the static trouble-code reference table.
type DTCDefinition struct {
	Code        string      `json:"code" db:"code"`
	Description string      `json:"description" db:"description"`
	Severity    DTCSeverity `json:"severity" db:"severity"`
}
