// FilePath: internal/repository/postgres/postgres.baserepo.go
package postgres

import (
	"context"

	"github.com/gearlog/wican-hub/internal/database"
	"github.com/gearlog/wican-hub/internal/errors"
)

// PostgresBaseRepo carries the shared connection handle and the
// transaction plumbing every repository embeds.
type PostgresBaseRepo struct {
	db database.DB
}

// BeginTx opens a transaction. Callers thread it through their context
// with database.WithTx so subsequent repository calls join it.
func (r *PostgresBaseRepo) BeginTx(ctx context.Context) (database.Transaction, error) {
	tx, err := r.db.GetDB().BeginTxx(ctx, nil)
	if err != nil {
		return nil, errors.NewDatabaseError("failed to begin transaction", err)
	}
	return tx, nil
}

// q resolves the queryer for one call: the transaction carried by the
// context when present, otherwise the pool.
func (r *PostgresBaseRepo) q(ctx context.Context) database.Queryer {
	return database.QueryerFromContext(ctx, r.db.GetDB())
}
