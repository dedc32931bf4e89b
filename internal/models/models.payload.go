// FilePath: internal/models/models.payload.go
package models

import (
	"encoding/json"
	"fmt"
	"time"
)

// DTCParamKey is the autopid_data key whose value is a comma-separated
// list of trouble codes rather than a numeric reading.
const DTCParamKey = "DIAGNOSTIC_TROUBLE_CODES"

// ParamKind discriminates the value kinds a WiCAN parameter may carry.
type ParamKind int

const (
	ParamNull ParamKind = iota
	ParamNumber
	ParamString
)

// ParamValue is a number|string|null sum type. WiCAN payloads mix
// numeric readings with string fields (e.g. the DTC list), so values are
// decoded once at the boundary instead of being sniffed downstream.
type ParamValue struct {
	Kind   ParamKind
	Number float64
	Str    string
}

// UnmarshalJSON implements json.Unmarshaler
func (v *ParamValue) UnmarshalJSON(data []byte) error {
	if string(data) == "null" {
		*v = ParamValue{Kind: ParamNull}
		return nil
	}
	var num float64
	if err := json.Unmarshal(data, &num); err == nil {
		*v = ParamValue{Kind: ParamNumber, Number: num}
		return nil
	}
	var str string
	if err := json.Unmarshal(data, &str); err == nil {
		*v = ParamValue{Kind: ParamString, Str: str}
		return nil
	}
	return fmt.Errorf("parameter value must be number, string or null, got %s", data)
}

// MarshalJSON implements json.Marshaler
func (v ParamValue) MarshalJSON() ([]byte, error) {
	switch v.Kind {
	case ParamNumber:
		return json.Marshal(v.Number)
	case ParamString:
		return json.Marshal(v.Str)
	default:
		return []byte("null"), nil
	}
}

// ParamConfig carries the unit/class metadata a device may attach to a
// parameter key in its payload.
type ParamConfig struct {
	Unit  string `json:"unit"`
	Class string `json:"class"`
}

// StatusBlock is the optional device status section of an ingest payload.
type StatusBlock struct {
	DeviceID       string    `json:"device_id"`
	HWVersion      string    `json:"hw_version"`
	FWVersion      string    `json:"fw_version"`
	GitVersion     string    `json:"git_version"`
	StaIP          string    `json:"sta_ip"`
	RSSI           int       `json:"rssi"`
	BatteryVoltage float64   `json:"battery_voltage"`
	ECUStatus      ConnState `json:"ecu_status"`
}

// IngestPayload is the validated shape of a WiCAN POST body.
type IngestPayload struct {
	AutoPIDData map[string]ParamValue  `json:"autopid_data"`
	Config      map[string]ParamConfig `json:"config,omitempty"`
	Status      *StatusBlock           `json:"status,omitempty"`
	Timestamp   string                 `json:"timestamp,omitempty"`
}

// Validate checks structural requirements before any service is touched.
func (p *IngestPayload) Validate() error {
	if p.AutoPIDData == nil {
		return fmt.Errorf("autopid_data is required (may be empty)")
	}
	if p.Status != nil {
		if p.Status.DeviceID == "" {
			return fmt.Errorf("status.device_id is required")
		}
		switch p.Status.ECUStatus {
		case StateOnline, StateOffline:
		default:
			return fmt.Errorf("status.ecu_status must be %q or %q", StateOnline, StateOffline)
		}
	}
	if p.Timestamp != "" {
		if _, err := time.Parse(time.RFC3339, p.Timestamp); err != nil {
			return fmt.Errorf("timestamp must be RFC3339: %w", err)
		}
	}
	return nil
}

// EffectiveTime resolves the reading timestamp, falling back to now.
func (p *IngestPayload) EffectiveTime(now time.Time) time.Time {
	if p.Timestamp == "" {
		return now
	}
	ts, err := time.Parse(time.RFC3339, p.Timestamp)
	if err != nil {
		return now
	}
	return ts
}

// IngestResult is the 202 response envelope for the ingest endpoint.
type IngestResult struct {
	Status           string    `json:"status"`
	Timestamp        time.Time `json:"timestamp"`
	DeviceID         string    `json:"device_id,omitempty"`
	DeviceNew        *bool     `json:"device_new,omitempty"`
	DeviceLinked     *bool     `json:"device_linked,omitempty"`
	ParametersStored *int      `json:"parameters_stored,omitempty"`
	DTCsRecorded     *int      `json:"dtcs_recorded,omitempty"`
	ProcessingError  string    `json:"processing_error,omitempty"`
	Message          string    `json:"message,omitempty"`
}

// Ingest result statuses
const (
	IngestAccepted = "accepted"
	IngestDisabled = "disabled"
	IngestRejected = "rejected"
)
