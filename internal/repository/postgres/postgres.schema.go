// FilePath: internal/repository/postgres/postgres.schema.go
package postgres

import (
	"github.com/gearlog/wican-hub/internal/database"
	"github.com/gearlog/wican-hub/internal/errors"
)

// InitializeSchema creates the tables and indexes the hub needs. The
// partial unique indexes carry two invariants the services rely on:
// at most one open session per vin, and at most one active trouble-code
// record per (vin, code).
func InitializeSchema(db database.DB) error {
	queries := []string{
		`CREATE TABLE IF NOT EXISTS vehicles (
			vin TEXT PRIMARY KEY,
			display_name TEXT NOT NULL DEFAULT '',
			created_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
		)`,
		`CREATE TABLE IF NOT EXISTS devices (
			device_id TEXT PRIMARY KEY,
			hw_version TEXT NOT NULL DEFAULT '',
			fw_version TEXT NOT NULL DEFAULT '',
			git_version TEXT NOT NULL DEFAULT '',
			sta_ip TEXT NOT NULL DEFAULT '',
			rssi INTEGER NOT NULL DEFAULT 0,
			battery_voltage DOUBLE PRECISION NOT NULL DEFAULT 0,
			ecu_status TEXT NOT NULL DEFAULT 'offline',
			device_status TEXT NOT NULL DEFAULT 'offline',
			vin TEXT REFERENCES vehicles(vin),
			enabled BOOLEAN NOT NULL DEFAULT TRUE,
			label TEXT NOT NULL DEFAULT '',
			last_seen TIMESTAMPTZ NOT NULL DEFAULT NOW(),
			device_token TEXT NOT NULL DEFAULT '',
			created_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
			updated_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
		)`,
		`CREATE INDEX IF NOT EXISTS idx_devices_token
			ON devices(device_token) WHERE device_token <> ''`,
		`CREATE TABLE IF NOT EXISTS drive_sessions (
			id TEXT PRIMARY KEY,
			vin TEXT NOT NULL,
			device_id TEXT NOT NULL,
			start_time TIMESTAMPTZ NOT NULL,
			end_time TIMESTAMPTZ,
			created_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
		)`,
		`CREATE UNIQUE INDEX IF NOT EXISTS idx_drive_sessions_open_vin
			ON drive_sessions(vin) WHERE end_time IS NULL`,
		`CREATE INDEX IF NOT EXISTS idx_drive_sessions_vin_start
			ON drive_sessions(vin, start_time DESC)`,
		`CREATE TABLE IF NOT EXISTS telemetry_readings (
			id TEXT PRIMARY KEY,
			vin TEXT NOT NULL,
			device_id TEXT NOT NULL,
			parameter_key TEXT NOT NULL,
			value DOUBLE PRECISION NOT NULL,
			value_text TEXT,
			unit TEXT NOT NULL DEFAULT '',
			class TEXT NOT NULL DEFAULT '',
			timestamp TIMESTAMPTZ NOT NULL
		)`,
		`CREATE INDEX IF NOT EXISTS idx_telemetry_vin_param_ts
			ON telemetry_readings(vin, parameter_key, timestamp DESC)`,
		`CREATE INDEX IF NOT EXISTS idx_telemetry_ts
			ON telemetry_readings(timestamp)`,
		`CREATE TABLE IF NOT EXISTS telemetry_daily_summaries (
			id TEXT PRIMARY KEY,
			vin TEXT NOT NULL,
			parameter_key TEXT NOT NULL,
			day DATE NOT NULL,
			min_value DOUBLE PRECISION NOT NULL,
			max_value DOUBLE PRECISION NOT NULL,
			avg_value DOUBLE PRECISION NOT NULL,
			reading_count INTEGER NOT NULL,
			created_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
			UNIQUE (vin, parameter_key, day)
		)`,
		`CREATE TABLE IF NOT EXISTS vehicle_dtcs (
			id TEXT PRIMARY KEY,
			vin TEXT NOT NULL,
			device_id TEXT NOT NULL,
			code TEXT NOT NULL,
			description TEXT,
			severity TEXT NOT NULL DEFAULT 'warning',
			first_seen TIMESTAMPTZ NOT NULL,
			last_seen TIMESTAMPTZ NOT NULL,
			cleared_at TIMESTAMPTZ,
			is_active BOOLEAN NOT NULL DEFAULT TRUE,
			user_notes TEXT NOT NULL DEFAULT ''
		)`,
		`CREATE UNIQUE INDEX IF NOT EXISTS idx_vehicle_dtcs_active
			ON vehicle_dtcs(vin, code) WHERE is_active`,
		`CREATE TABLE IF NOT EXISTS dtc_definitions (
			code TEXT PRIMARY KEY,
			description TEXT NOT NULL,
			severity TEXT NOT NULL DEFAULT 'warning'
		)`,
		`CREATE TABLE IF NOT EXISTS settings (
			key TEXT PRIMARY KEY,
			value TEXT NOT NULL
		)`,
	}

	for _, query := range queries {
		_, err := db.GetDB().Exec(query)
		if err != nil {
			return errors.NewDatabaseError("failed to initialize schema", err)
		}
	}
	return seedDTCDefinitions(db)
}

// seedDTCDefinitions loads a starter set of common OBD2 codes. Existing
// rows win so operator edits survive restarts.
func seedDTCDefinitions(db database.DB) error {
	seed := []struct {
		code, description, severity string
	}{
		{"P0101", "Mass air flow sensor circuit range/performance", "warning"},
		{"P0128", "Coolant thermostat below regulating temperature", "info"},
		{"P0171", "System too lean (bank 1)", "warning"},
		{"P0300", "Random/multiple cylinder misfire detected", "critical"},
		{"P0301", "Cylinder 1 misfire detected", "critical"},
		{"P0420", "Catalyst system efficiency below threshold (bank 1)", "warning"},
		{"P0442", "Evaporative emission system leak detected (small)", "info"},
		{"P0500", "Vehicle speed sensor malfunction", "warning"},
		{"P0562", "System voltage low", "warning"},
		{"U0100", "Lost communication with ECM/PCM", "critical"},
	}

	query := `
		INSERT INTO dtc_definitions (code, description, severity)
		VALUES ($1, $2, $3)
		ON CONFLICT (code) DO NOTHING`
	for _, def := range seed {
		if _, err := db.GetDB().Exec(query, def.code, def.description, def.severity); err != nil {
			return errors.NewDatabaseError("failed to seed dtc definitions", err)
		}
	}
	return nil
}
