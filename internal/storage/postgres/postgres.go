// Package postgres implements the console stores on PostgreSQL.
package postgres

import (
	"context"
	"fmt"

	pgxdecimal "github.com/jackc/pgx-shopspring-decimal"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/xenking/vending-console/db"
)

// schemaLockKey serializes schema application between the console server
// and cmd/seed-db starting against the same database.
const schemaLockKey int64 = 0x636f6e736f6c65 // "console"

// NewPool connects to databaseURL and checks the connection. NUMERIC columns
// scan into decimal.Decimal on every pooled connection.
func NewPool(ctx context.Context, databaseURL string) (*pgxpool.Pool, error) {
	cfg, err := pgxpool.ParseConfig(databaseURL)
	if err != nil {
		return nil, fmt.Errorf("parsing database url: %w", err)
	}
	cfg.AfterConnect = func(_ context.Context, conn *pgx.Conn) error {
		pgxdecimal.Register(conn.TypeMap())
		return nil
	}

	pool, err := pgxpool.NewWithConfig(ctx, cfg)
	if err != nil {
		return nil, fmt.Errorf("opening catalog database: %w", err)
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("pinging catalog database: %w", err)
	}
	return pool, nil
}

// ApplySchema creates the catalog and api key tables if they are missing.
// It holds a transaction-scoped advisory lock while doing so.
func ApplySchema(ctx context.Context, pool *pgxpool.Pool) error {
	err := pgx.BeginFunc(ctx, pool, func(tx pgx.Tx) error {
		if _, err := tx.Exec(ctx, "SELECT pg_advisory_xact_lock($1)", schemaLockKey); err != nil {
			return fmt.Errorf("locking schema: %w", err)
		}
		if _, err := tx.Exec(ctx, db.Schema); err != nil {
			return fmt.Errorf("creating catalog tables: %w", err)
		}
		return nil
	})
	if err != nil {
		return fmt.Errorf("applying schema: %w", err)
	}
	return nil
}
