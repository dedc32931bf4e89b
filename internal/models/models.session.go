// FilePath: internal/models/models.session.go
package models

import "time"

// DriveSession is one continuous ECU-online interval for a vehicle.
// A NULL EndTime marks the session as open; at most one open session
// may exist per VIN (enforced by a partial unique index).
type DriveSession struct {
	ID        string     `json:"id" db:"id"`
	VIN       string     `json:"vin" db:"vin"`
	DeviceID  string     `json:"device_id" db:"device_id"`
	StartTime time.Time  `json:"start_time" db:"start_time"`
	EndTime   *time.Time `json:"end_time" db:"end_time"`
	CreatedAt time.Time  `json:"created_at" db:"created_at"`
}

// IsOpen reports whether the session has not been closed yet.
func (s *DriveSession) IsOpen() bool {
	return s.EndTime == nil
}
