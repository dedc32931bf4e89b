// FilePath: internal/repository/repository.go
package repository

import (
	"context"
	"errors"
	"time"

	"github.com/gearlog/wican-hub/internal/database"
	"github.com/gearlog/wican-hub/internal/models"
)

var (
	// ErrNotFound indicates that a requested resource was not found
	ErrNotFound = errors.New("resource not found")
	// ErrDuplicate indicates that a resource already exists
	ErrDuplicate = errors.New("resource already exists")
	// ErrInvalidInput indicates that the input data is invalid
	ErrInvalidInput = errors.New("invalid input")
)

// DeviceRepository defines the interface for WiCAN device persistence
type DeviceRepository interface {
	database.Repository
	Create(ctx context.Context, device *models.Device) error
	Get(ctx context.Context, deviceID string) (*models.Device, error)
	// GetByToken resolves the most recently seen device owning the token.
	GetByToken(ctx context.Context, token string) (*models.Device, error)
	UpdateStatus(ctx context.Context, device *models.Device) error
	// TouchHeartbeat updates only last_seen and device_status, leaving
	// version and network fields alone.
	TouchHeartbeat(ctx context.Context, deviceID string, seenAt time.Time) error
	SetVIN(ctx context.Context, deviceID string, vin *string) error
	List(ctx context.Context, offset, limit int) ([]*models.Device, error)
	// MarkOfflineOlderThan flips device_status to offline for online
	// devices not seen since the cutoff and returns the flipped rows.
	MarkOfflineOlderThan(ctx context.Context, cutoff time.Time) ([]*models.Device, error)
}

// VehicleRepository is the read-only vehicle lookup this core consumes
type VehicleRepository interface {
	GetByVIN(ctx context.Context, vin string) (*models.Vehicle, error)
}

// SessionRepository defines the interface for drive session persistence
type SessionRepository interface {
	database.Repository
	Create(ctx context.Context, session *models.DriveSession) error
	GetOpenByVIN(ctx context.Context, vin string) (*models.DriveSession, error)
	Close(ctx context.Context, id string, endTime time.Time) error
	ListByVIN(ctx context.Context, vin string, filters models.SessionFilters) ([]*models.DriveSession, error)
	// ListOpenStale returns open sessions whose owning device has not
	// been seen since the cutoff.
	ListOpenStale(ctx context.Context, cutoff time.Time) ([]*models.DriveSession, error)
}

// TelemetryRepository defines the interface for parameter readings
type TelemetryRepository interface {
	database.Repository
	InsertReading(ctx context.Context, reading *models.TelemetryReading) error
	ListReadings(ctx context.Context, vin string, filters models.ReadingFilters) ([]*models.TelemetryReading, error)
	// DeleteOlderThan bulk-deletes raw readings before the cutoff and
	// returns the number of rows removed. Summary rows are untouched.
	DeleteOlderThan(ctx context.Context, before time.Time) (int64, error)
	// UpsertDailySummaries aggregates raw readings of the given UTC day
	// into per-(vin, parameter) rollups, overwriting existing rows for
	// that day. Returns the number of summary rows written.
	UpsertDailySummaries(ctx context.Context, day time.Time) (int64, error)
	ListSummaries(ctx context.Context, vin string, filters models.SummaryFilters) ([]*models.TelemetryDailySummary, error)
}

// DTCRepository defines the interface for trouble-code records
type DTCRepository interface {
	database.Repository
	Get(ctx context.Context, id string) (*models.VehicleDTC, error)
	GetActive(ctx context.Context, vin, code string) (*models.VehicleDTC, error)
	Create(ctx context.Context, dtc *models.VehicleDTC) error
	// Touch bumps last_seen and forces the record active.
	Touch(ctx context.Context, id string, seenAt time.Time) error
	Clear(ctx context.Context, id string, clearedAt time.Time, notes string) error
	ListByVIN(ctx context.Context, vin string, activeOnly bool) ([]*models.VehicleDTC, error)
	GetDefinition(ctx context.Context, code string) (*models.DTCDefinition, error)
	SearchDefinitions(ctx context.Context, query string, limit int) ([]*models.DTCDefinition, error)
}

// SettingsRepository exposes the key/value feature-flag store
type SettingsRepository interface {
	GetAll(ctx context.Context) (map[string]string, error)
}
