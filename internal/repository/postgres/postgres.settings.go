// FilePath: internal/repository/postgres/postgres.settings.go
package postgres

import (
	"context"

	"github.com/gearlog/wican-hub/internal/database"
	"github.com/gearlog/wican-hub/internal/errors"
)

type SettingsRepo struct {
	PostgresBaseRepo
}

func NewSettingsRepository(db database.DB) *SettingsRepo {
	repo := &PostgresBaseRepo{db: db}
	return &SettingsRepo{PostgresBaseRepo: *repo}
}

type settingRow struct {
	Key   string `db:"key"`
	Value string `db:"value"`
}

func (r *SettingsRepo) GetAll(ctx context.Context) (map[string]string, error) {
	rows := []settingRow{}
	query := `SELECT key, value FROM settings`

	err := r.q(ctx).SelectContext(ctx, &rows, query)
	if err != nil {
		return nil, errors.NewDatabaseError("failed to load settings", err)
	}

	result := make(map[string]string, len(rows))
	for _, row := range rows {
		result[row.Key] = row.Value
	}
	return result, nil
}
