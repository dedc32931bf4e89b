// FilePath: internal/repository/postgres/postgres.telemetry.go
package postgres

import (
	"context"
	"time"

	"github.com/gearlog/wican-hub/internal/database"
	"github.com/gearlog/wican-hub/internal/errors"
	"github.com/gearlog/wican-hub/internal/models"
	nuts "github.com/vaudience/go-nuts"
)

type TelemetryRepo struct {
	PostgresBaseRepo
}

func NewTelemetryRepository(db database.DB) *TelemetryRepo {
	repo := &PostgresBaseRepo{db: db}
	return &TelemetryRepo{PostgresBaseRepo: *repo}
}

func (r *TelemetryRepo) InsertReading(ctx context.Context, reading *models.TelemetryReading) error {
	query := `
		INSERT INTO telemetry_readings (id, vin, device_id, parameter_key, value, value_text, unit, class, timestamp)
		VALUES (:id, :vin, :device_id, :parameter_key, :value, :value_text, :unit, :class, :timestamp)`

	_, err := r.q(ctx).NamedExecContext(ctx, query, reading)
	if err != nil {
		return errors.NewDatabaseError("failed to insert telemetry reading", err)
	}
	return nil
}

func (r *TelemetryRepo) ListReadings(ctx context.Context, vin string, filters models.ReadingFilters) ([]*models.TelemetryReading, error) {
	readings := []*models.TelemetryReading{}
	limit := filters.Limit
	if limit <= 0 || limit > 1000 {
		limit = 200
	}
	start := time.Time{}
	if filters.Start != nil {
		start = *filters.Start
	}
	end := time.Now().Add(24 * time.Hour)
	if filters.End != nil {
		end = *filters.End
	}

	query := `
		SELECT * FROM telemetry_readings
		WHERE vin = $1
		  AND ($2 = '' OR parameter_key = $2)
		  AND timestamp BETWEEN $3 AND $4
		ORDER BY timestamp DESC
		LIMIT $5`

	err := r.q(ctx).SelectContext(ctx, &readings, query, vin, filters.ParameterKey, start, end, limit)
	if err != nil {
		return nil, errors.NewDatabaseError("failed to list telemetry readings", err)
	}
	return readings, nil
}

func (r *TelemetryRepo) DeleteOlderThan(ctx context.Context, before time.Time) (int64, error) {
	query := `DELETE FROM telemetry_readings WHERE timestamp < $1`

	result, err := r.q(ctx).ExecContext(ctx, query, before)
	if err != nil {
		return 0, errors.NewDatabaseError("failed to delete old telemetry", err)
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return 0, errors.NewDatabaseError("failed to get rows affected", err)
	}

	nuts.L.Infof("[TelemetryRepo] Deleted %d telemetry readings before %v", rows, before)
	return rows, nil
}

// UpsertDailySummaries rolls one UTC day of raw readings up into
// per-(vin, parameter) min/max/avg rows. Text readings are excluded.
// Re-running for an already summarized day overwrites the existing rows.
func (r *TelemetryRepo) UpsertDailySummaries(ctx context.Context, day time.Time) (int64, error) {
	dayStart := time.Date(day.Year(), day.Month(), day.Day(), 0, 0, 0, 0, time.UTC)
	dayEnd := dayStart.Add(24 * time.Hour)

	query := `
		INSERT INTO telemetry_daily_summaries
			(id, vin, parameter_key, day, min_value, max_value, avg_value, reading_count)
		SELECT
			$1 || '_' || vin || '_' || parameter_key,
			vin,
			parameter_key,
			$2::date,
			MIN(value),
			MAX(value),
			AVG(value),
			COUNT(*)
		FROM telemetry_readings
		WHERE timestamp >= $2 AND timestamp < $3 AND value_text IS NULL
		GROUP BY vin, parameter_key
		ON CONFLICT (vin, parameter_key, day) DO UPDATE SET
			min_value = EXCLUDED.min_value,
			max_value = EXCLUDED.max_value,
			avg_value = EXCLUDED.avg_value,
			reading_count = EXCLUDED.reading_count`

	result, err := r.q(ctx).ExecContext(ctx, query, dayStart.Format("2006-01-02"), dayStart, dayEnd)
	if err != nil {
		return 0, errors.NewDatabaseError("failed to upsert daily summaries", err)
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return 0, errors.NewDatabaseError("failed to get rows affected", err)
	}
	return rows, nil
}

func (r *TelemetryRepo) ListSummaries(ctx context.Context, vin string, filters models.SummaryFilters) ([]*models.TelemetryDailySummary, error) {
	summaries := []*models.TelemetryDailySummary{}
	start := time.Time{}
	if filters.Start != nil {
		start = *filters.Start
	}
	end := time.Now().Add(24 * time.Hour)
	if filters.End != nil {
		end = *filters.End
	}

	query := `
		SELECT * FROM telemetry_daily_summaries
		WHERE vin = $1
		  AND ($2 = '' OR parameter_key = $2)
		  AND day BETWEEN $3 AND $4
		ORDER BY day DESC`

	err := r.q(ctx).SelectContext(ctx, &summaries, query, vin, filters.ParameterKey, start, end)
	if err != nil {
		return nil, errors.NewDatabaseError("failed to list daily summaries", err)
	}
	return summaries, nil
}
