// FilePath: internal/repository/postgres/postgres.device.go
package postgres

import (
	"context"
	"database/sql"
	"time"

	"github.com/gearlog/wican-hub/internal/database"
	"github.com/gearlog/wican-hub/internal/errors"
	"github.com/gearlog/wican-hub/internal/models"
)

type DeviceRepo struct {
	PostgresBaseRepo
}

func NewDeviceRepository(db database.DB) *DeviceRepo {
	repo := &PostgresBaseRepo{db: db}
	return &DeviceRepo{PostgresBaseRepo: *repo}
}

func (r *DeviceRepo) Create(ctx context.Context, device *models.Device) error {
	query := `
		INSERT INTO devices (
			device_id, hw_version, fw_version, git_version, sta_ip,
			rssi, battery_voltage, ecu_status, device_status, vin,
			enabled, label, last_seen, device_token, created_at, updated_at
		) VALUES (
			:device_id, :hw_version, :fw_version, :git_version, :sta_ip,
			:rssi, :battery_voltage, :ecu_status, :device_status, :vin,
			:enabled, :label, :last_seen, :device_token, :created_at, :updated_at
		)`

	_, err := r.q(ctx).NamedExecContext(ctx, query, device)
	if err != nil {
		return errors.NewDatabaseError("failed to create device", err)
	}
	return nil
}

func (r *DeviceRepo) Get(ctx context.Context, deviceID string) (*models.Device, error) {
	device := &models.Device{}
	query := `SELECT * FROM devices WHERE device_id = $1`

	err := r.q(ctx).GetContext(ctx, device, query, deviceID)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, errors.NewNotFoundError("device not found", err)
		}
		return nil, errors.NewDatabaseError("failed to get device", err)
	}
	return device, nil
}

func (r *DeviceRepo) GetByToken(ctx context.Context, token string) (*models.Device, error) {
	device := &models.Device{}
	query := `
		SELECT * FROM devices
		WHERE device_token = $1 AND device_token <> ''
		ORDER BY last_seen DESC
		LIMIT 1`

	err := r.q(ctx).GetContext(ctx, device, query, token)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, errors.NewNotFoundError("no device owns this token", err)
		}
		return nil, errors.NewDatabaseError("failed to get device by token", err)
	}
	return device, nil
}

// UpdateStatus overwrites every mutable field except the vehicle link
// and the device token.
func (r *DeviceRepo) UpdateStatus(ctx context.Context, device *models.Device) error {
	query := `
		UPDATE devices SET
			hw_version = :hw_version,
			fw_version = :fw_version,
			git_version = :git_version,
			sta_ip = :sta_ip,
			rssi = :rssi,
			battery_voltage = :battery_voltage,
			ecu_status = :ecu_status,
			device_status = :device_status,
			last_seen = :last_seen,
			updated_at = :updated_at
		WHERE device_id = :device_id`

	result, err := r.q(ctx).NamedExecContext(ctx, query, device)
	if err != nil {
		return errors.NewDatabaseError("failed to update device status", err)
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return errors.NewDatabaseError("failed to get rows affected", err)
	}
	if rows == 0 {
		return errors.NewNotFoundError("device not found", nil)
	}
	return nil
}

func (r *DeviceRepo) TouchHeartbeat(ctx context.Context, deviceID string, seenAt time.Time) error {
	query := `
		UPDATE devices
		SET last_seen = $1, device_status = $2, updated_at = $1
		WHERE device_id = $3`

	result, err := r.q(ctx).ExecContext(ctx, query, seenAt, models.StateOnline, deviceID)
	if err != nil {
		return errors.NewDatabaseError("failed to touch device heartbeat", err)
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return errors.NewDatabaseError("failed to get rows affected", err)
	}
	if rows == 0 {
		return errors.NewNotFoundError("device not found", nil)
	}
	return nil
}

func (r *DeviceRepo) SetVIN(ctx context.Context, deviceID string, vin *string) error {
	query := `UPDATE devices SET vin = $1, updated_at = NOW() WHERE device_id = $2`

	result, err := r.q(ctx).ExecContext(ctx, query, vin, deviceID)
	if err != nil {
		return errors.NewDatabaseError("failed to set device vin", err)
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return errors.NewDatabaseError("failed to get rows affected", err)
	}
	if rows == 0 {
		return errors.NewNotFoundError("device not found", nil)
	}
	return nil
}

func (r *DeviceRepo) List(ctx context.Context, offset, limit int) ([]*models.Device, error) {
	devices := []*models.Device{}
	query := `SELECT * FROM devices ORDER BY last_seen DESC LIMIT $1 OFFSET $2`

	err := r.q(ctx).SelectContext(ctx, &devices, query, limit, offset)
	if err != nil {
		return nil, errors.NewDatabaseError("failed to list devices", err)
	}
	return devices, nil
}

func (r *DeviceRepo) MarkOfflineOlderThan(ctx context.Context, cutoff time.Time) ([]*models.Device, error) {
	devices := []*models.Device{}
	query := `
		UPDATE devices
		SET device_status = $1, updated_at = NOW()
		WHERE device_status = $2 AND last_seen < $3
		RETURNING *`

	err := r.q(ctx).SelectContext(ctx, &devices, query, models.StateOffline, models.StateOnline, cutoff)
	if err != nil {
		return nil, errors.NewDatabaseError("failed to mark devices offline", err)
	}
	return devices, nil
}
