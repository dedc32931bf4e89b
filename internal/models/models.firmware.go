// FilePath: internal/models/models.firmware.go
package models

import "time"

// FirmwareRelease is the cached descriptor of the newest upstream WiCAN
// firmware release. Stored as a single keyed cache entry and overwritten
// wholesale on each successful poll; absence means "never checked".
type FirmwareRelease struct {
	LatestVersion string    `json:"latest_version"`
	LatestTag     string    `json:"latest_tag"`
	ReleaseURL    string    `json:"release_url"`
	ReleaseNotes  string    `json:"release_notes"`
	CheckedAt     time.Time `json:"checked_at"`
}

// DeviceFirmwareStatus pairs a device with the version gap against the
// cached latest release.
type DeviceFirmwareStatus struct {
	DeviceID       string  `json:"device_id"`
	VIN            *string `json:"vin"`
	CurrentVersion string  `json:"current_version"`
	LatestVersion  string  `json:"latest_version"`
	UpdateURL      string  `json:"update_url,omitempty"`
}
