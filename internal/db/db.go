// Package db wires durable storage for funds, transactions, documents and
// text chunks on top of bun/Postgres.
package db

import (
	"context"
	"database/sql"

	"github.com/uptrace/bun"
	"github.com/uptrace/bun/dialect/pgdialect"
	"github.com/uptrace/bun/driver/pgdriver"
	"github.com/uptrace/bun/extra/bundebug"

	"github.com/anggi-susanto/fund-perfromance-analysis/internal/config"
	"github.com/anggi-susanto/fund-perfromance-analysis/internal/models"
)

// ConnectDB opens the Postgres connection using bun's own driver.
func ConnectDB(cfg *config.DatabaseConfig) (*sql.DB, error) {
	return sql.OpenDB(pgdriver.NewConnector(
		pgdriver.WithDSN(cfg.DSN),
		pgdriver.WithPassword(cfg.Password),
	)), nil
}

// NewDB wraps the sql.DB in bun. The query hook only logs in debug mode.
func NewDB(sqldb *sql.DB, debug bool) *bun.DB {
	db := bun.NewDB(sqldb, pgdialect.New())
	if debug {
		db.AddQueryHook(bundebug.NewQueryHook(bundebug.WithVerbose(true)))
	}
	return db
}

var schemaModels = []interface{}{
	(*models.Fund)(nil),
	(*models.Document)(nil),
	(*models.CapitalCall)(nil),
	(*models.Distribution)(nil),
	(*models.Adjustment)(nil),
	(*models.TextChunk)(nil),
}

// InitDB creates all tables if they do not exist yet.
func InitDB(ctx context.Context, db *bun.DB) error {
	for _, m := range schemaModels {
		if _, err := db.NewCreateTable().Model(m).IfNotExists().Exec(ctx); err != nil {
			return err
		}
	}
	return nil
}
