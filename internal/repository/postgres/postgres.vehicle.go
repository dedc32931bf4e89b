// FilePath: internal/repository/postgres/postgres.vehicle.go
package postgres

import (
	"context"
	"database/sql"

	"github.com/gearlog/wican-hub/internal/database"
	"github.com/gearlog/wican-hub/internal/errors"
	"github.com/gearlog/wican-hub/internal/models"
)

type VehicleRepo struct {
	PostgresBaseRepo
}

func NewVehicleRepository(db database.DB) *VehicleRepo {
	repo := &PostgresBaseRepo{db: db}
	return &VehicleRepo{PostgresBaseRepo: *repo}
}

func (r *VehicleRepo) GetByVIN(ctx context.Context, vin string) (*models.Vehicle, error) {
	vehicle := &models.Vehicle{}
	query := `SELECT * FROM vehicles WHERE vin = $1`

	err := r.q(ctx).GetContext(ctx, vehicle, query, vin)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, errors.NewNotFoundError("vehicle not found", err)
		}
		return nil, errors.NewDatabaseError("failed to get vehicle", err)
	}
	return vehicle, nil
}
