// FilePath: internal/repository/postgres/postgres.session.go
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

const pgUniqueViolation = "23505"

type SessionRepo struct {
	PostgresBaseRepo
}

func NewSessionRepository(db database.DB) *SessionRepo {
	repo := &PostgresBaseRepo{db: db}
	return &SessionRepo{PostgresBaseRepo: *repo}
}

// Create inserts a new open session. The partial unique index on
// (vin) WHERE end_time IS NULL turns a concurrent double-open into
// repository.ErrDuplicate instead of a second open row.
func (r *SessionRepo) Create(ctx context.Context, session *models.DriveSession) error {
	query := `
		INSERT INTO drive_sessions (id, vin, device_id, start_time, end_time, created_at)
		VALUES (:id, :vin, :device_id, :start_time, :end_time, :created_at)`

	_, err := r.q(ctx).NamedExecContext(ctx, query, session)
	if err != nil {
		var pqErr *pq.Error
		if errors.As(err, &pqErr) && pqErr.Code == pgUniqueViolation {
			return repository.ErrDuplicate
		}
		return apperrors.NewDatabaseError("failed to create drive session", err)
	}
	return nil
}

func (r *SessionRepo) GetOpenByVIN(ctx context.Context, vin string) (*models.DriveSession, error) {
	session := &models.DriveSession{}
	query := `SELECT * FROM drive_sessions WHERE vin = $1 AND end_time IS NULL`

	err := r.q(ctx).GetContext(ctx, session, query, vin)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, apperrors.NewNotFoundError("no open session for vehicle", err)
		}
		return nil, apperrors.NewDatabaseError("failed to get open session", err)
	}
	return session, nil
}

func (r *SessionRepo) Close(ctx context.Context, id string, endTime time.Time) error {
	query := `UPDATE drive_sessions SET end_time = $1 WHERE id = $2 AND end_time IS NULL`

	result, err := r.q(ctx).ExecContext(ctx, query, endTime, id)
	if err != nil {
		return apperrors.NewDatabaseError("failed to close drive session", err)
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return apperrors.NewDatabaseError("failed to get rows affected", err)
	}
	if rows == 0 {
		return apperrors.NewNotFoundError("open session not found", nil)
	}
	return nil
}

func (r *SessionRepo) ListByVIN(ctx context.Context, vin string, filters models.SessionFilters) ([]*models.DriveSession, error) {
	sessions := []*models.DriveSession{}
	limit := filters.Limit
	if limit <= 0 || limit > 500 {
		limit = 100
	}

	query := `
		SELECT * FROM drive_sessions
		WHERE vin = $1 AND ($2 = FALSE OR end_time IS NULL)
		ORDER BY start_time DESC
		LIMIT $3 OFFSET $4`

	err := r.q(ctx).SelectContext(ctx, &sessions, query, vin, filters.OpenOnly, limit, filters.Offset)
	if err != nil {
		return nil, apperrors.NewDatabaseError("failed to list drive sessions", err)
	}
	return sessions, nil
}

func (r *SessionRepo) ListOpenStale(ctx context.Context, cutoff time.Time) ([]*models.DriveSession, error) {
	sessions := []*models.DriveSession{}
	query := `
		SELECT s.* FROM drive_sessions s
		JOIN devices d ON d.device_id = s.device_id
		WHERE s.end_time IS NULL AND d.last_seen < $1`

	err := r.q(ctx).SelectContext(ctx, &sessions, query, cutoff)
	if err != nil {
		return nil, apperrors.NewDatabaseError("failed to list stale open sessions", err)
	}
	return sessions, nil
}
