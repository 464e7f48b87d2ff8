// Package db provides the PostgreSQL connection pool and bulk-load
// helpers shared by the run-history store.
package db

import (
	"context"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/rotisserie/eris"
)

// Pool is the subset of pgxpool.Pool the store uses. pgxmock satisfies it
// too, so store queries are testable without a live database.
type Pool interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
	CopyFrom(ctx context.Context, tableName pgx.Identifier, columnNames []string, rowSrc pgx.CopyFromSource) (int64, error)
	Ping(ctx context.Context) error
	Close()
}

// PoolConfig holds optional connection pool tuning parameters.
type PoolConfig struct {
	MaxConns int32 `yaml:"max_conns" mapstructure:"max_conns"`
	MinConns int32 `yaml:"min_conns" mapstructure:"min_conns"`
}

// Connect opens a tuned pgx pool and verifies connectivity.
func Connect(ctx context.Context, connString string, cfg *PoolConfig) (*pgxpool.Pool, error) {
	pgxCfg, err := pgxpool.ParseConfig(connString)
	if err != nil {
		return nil, eris.Wrap(err, "db: parse connection string")
	}

	maxConns := int32(10)
	minConns := int32(2)
	if cfg != nil {
		if cfg.MaxConns > 0 {
			maxConns = cfg.MaxConns
		}
		if cfg.MinConns > 0 {
			minConns = cfg.MinConns
		}
	}
	pgxCfg.MaxConns = maxConns
	pgxCfg.MinConns = minConns
	pgxCfg.MaxConnLifetime = 30 * time.Minute
	pgxCfg.MaxConnIdleTime = 5 * time.Minute

	pool, err := pgxpool.NewWithConfig(ctx, pgxCfg)
	if err != nil {
		return nil, eris.Wrap(err, "db: create pool")
	}
	// The database may still be starting when the service does; give
	// it a few attempts before giving up.
	if err := withRetry(ctx, defaultRetryConfig(), "ping", pool.Ping); err != nil {
		pool.Close()
		return nil, eris.Wrap(err, "db: ping")
	}
	return pool, nil
}
