// FilePath: internal/repository/postgres/postgres.dtc.go
package postgres

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/gearlog/wican-hub/internal/database"
	apperrors "github.com/gearlog/wican-hub/internal/errors"
	"github.com/gearlog/wican-hub/internal/models"
	"github.com/gearlog/wican-hub/internal/repository"
	"github.com/lib/pq"
)

type DTCRepo struct {
	PostgresBaseRepo
}

func NewDTCRepository(db database.DB) *DTCRepo {
	repo := &PostgresBaseRepo{db: db}
	return &DTCRepo{PostgresBaseRepo: *repo}
}

func (r *DTCRepo) Get(ctx context.Context, id string) (*models.VehicleDTC, error) {
	dtc := &models.VehicleDTC{}
	query := `SELECT * FROM vehicle_dtcs WHERE id = $1`

	err := r.q(ctx).GetContext(ctx, dtc, query, id)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, apperrors.NewNotFoundError("trouble code record not found", err)
		}
		return nil, apperrors.NewDatabaseError("failed to get trouble code record", err)
	}
	return dtc, nil
}

func (r *DTCRepo) GetActive(ctx context.Context, vin, code string) (*models.VehicleDTC, error) {
	dtc := &models.VehicleDTC{}
	query := `SELECT * FROM vehicle_dtcs WHERE vin = $1 AND code = $2 AND is_active`

	err := r.q(ctx).GetContext(ctx, dtc, query, vin, code)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, apperrors.NewNotFoundError("no active record for code", err)
		}
		return nil, apperrors.NewDatabaseError("failed to get active trouble code", err)
	}
	return dtc, nil
}

// Create inserts a new active record. The partial unique index on
// (vin, code) WHERE is_active maps a concurrent first-sighting race to
// repository.ErrDuplicate.
func (r *DTCRepo) Create(ctx context.Context, dtc *models.VehicleDTC) error {
	query := `
		INSERT INTO vehicle_dtcs (
			id, vin, device_id, code, description, severity,
			first_seen, last_seen, cleared_at, is_active, user_notes
		) VALUES (
			:id, :vin, :device_id, :code, :description, :severity,
			:first_seen, :last_seen, :cleared_at, :is_active, :user_notes
		)`

	_, err := r.q(ctx).NamedExecContext(ctx, query, dtc)
	if err != nil {
		var pqErr *pq.Error
		if errors.As(err, &pqErr) && pqErr.Code == pgUniqueViolation {
			return repository.ErrDuplicate
		}
		return apperrors.NewDatabaseError("failed to create trouble code record", err)
	}
	return nil
}

func (r *DTCRepo) Touch(ctx context.Context, id string, seenAt time.Time) error {
	query := `
		UPDATE vehicle_dtcs
		SET last_seen = $1, is_active = TRUE, cleared_at = NULL
		WHERE id = $2`

	result, err := r.q(ctx).ExecContext(ctx, query, seenAt, id)
	if err != nil {
		return apperrors.NewDatabaseError("failed to touch trouble code record", err)
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return apperrors.NewDatabaseError("failed to get rows affected", err)
	}
	if rows == 0 {
		return apperrors.NewNotFoundError("trouble code record not found", nil)
	}
	return nil
}

func (r *DTCRepo) Clear(ctx context.Context, id string, clearedAt time.Time, notes string) error {
	query := `
		UPDATE vehicle_dtcs
		SET is_active = FALSE,
			cleared_at = $1,
			user_notes = CASE WHEN $2 = '' THEN user_notes
				WHEN user_notes = '' THEN $2
				ELSE user_notes || E'\n' || $2 END
		WHERE id = $3 AND is_active`

	result, err := r.q(ctx).ExecContext(ctx, query, clearedAt, notes, id)
	if err != nil {
		return apperrors.NewDatabaseError("failed to clear trouble code", err)
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return apperrors.NewDatabaseError("failed to get rows affected", err)
	}
	if rows == 0 {
		return apperrors.NewNotFoundError("active trouble code not found", nil)
	}
	return nil
}

func (r *DTCRepo) ListByVIN(ctx context.Context, vin string, activeOnly bool) ([]*models.VehicleDTC, error) {
	dtcs := []*models.VehicleDTC{}
	query := `
		SELECT * FROM vehicle_dtcs
		WHERE vin = $1 AND ($2 = FALSE OR is_active)
		ORDER BY last_seen DESC`

	err := r.q(ctx).SelectContext(ctx, &dtcs, query, vin, activeOnly)
	if err != nil {
		return nil, apperrors.NewDatabaseError("failed to list trouble codes", err)
	}
	return dtcs, nil
}

func (r *DTCRepo) GetDefinition(ctx context.Context, code string) (*models.DTCDefinition, error) {
	def := &models.DTCDefinition{}
	query := `SELECT * FROM dtc_definitions WHERE code = $1`

	err := r.q(ctx).GetContext(ctx, def, query, code)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, apperrors.NewNotFoundError("unknown trouble code", err)
		}
		return nil, apperrors.NewDatabaseError("failed to get code definition", err)
	}
	return def, nil
}

func (r *DTCRepo) SearchDefinitions(ctx context.Context, query string, limit int) ([]*models.DTCDefinition, error) {
	defs := []*models.DTCDefinition{}
	if limit <= 0 || limit > 200 {
		limit = 50
	}

	sqlQuery := `
		SELECT * FROM dtc_definitions
		WHERE code LIKE $1 || '%' OR description ILIKE '%' || $2 || '%'
		ORDER BY code
		LIMIT $3`

	err := r.q(ctx).SelectContext(ctx, &defs, sqlQuery, query, query, limit)
	if err != nil {
		return nil, apperrors.NewDatabaseError("failed to search code definitions", err)
	}
	return defs, nil
}
