// FilePath: internal/models/models.device.go
package models

import "time"

// ConnState is the reported online/offline state of the ECU or the
// WiCAN device itself.
type ConnState string

const (
	StateOnline  ConnState = "online"
	StateOffline ConnState = "offline"
)

// Device is a WiCAN OBD2 bridge known to the hub. Rows are created by
// auto-discovery on the first status payload; everything except DeviceID
// and the vehicle link is overwritten on each subsequent status payload.
type Device struct {
	DeviceID       string    `json:"device_id" db:"device_id"`
	HWVersion      string    `json:"hw_version" db:"hw_version"`
	FWVersion      string    `json:"fw_version" db:"fw_version"`
	GitVersion     string    `json:"git_version" db:"git_version"`
	StaIP          string    `json:"sta_ip" db:"sta_ip"`
	RSSI           int       `json:"rssi" db:"rssi"`
	BatteryVoltage float64   `json:"battery_voltage" db:"battery_voltage"`
	ECUStatus      ConnState `json:"ecu_status" db:"ecu_status"`
	DeviceStatus   ConnState `json:"device_status" db:"device_status"`
	VIN            *string   `json:"vin" db:"vin"`
	Enabled        bool      `json:"enabled" db:"enabled"`
	Label          string    `json:"label" db:"label"`
	LastSeen       time.Time `json:"last_seen" db:"last_seen"`
	DeviceToken    string    `json:"device_token,omitempty" db:"device_token" readxs:"admin,system" writexs:"admin,system"`
	CreatedAt      time.Time `json:"created_at" db:"created_at"`
	UpdatedAt      time.Time `json:"updated_at" db:"updated_at"`
}

// Vehicle is the minimal vehicle projection the ingestion core needs.
// Full vehicle CRUD lives outside this service.
type Vehicle struct {
	VIN         string    `json:"vin" db:"vin"`
	DisplayName string    `json:"display_name" db:"display_name"`
	CreatedAt   time.Time `json:"created_at" db:"created_at"`
}
