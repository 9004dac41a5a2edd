// Package store is the Postgres-backed persistence layer for toll events,
// statement drafts/statements, the manual-review queue, and the local
// read-replica of the identity service's vehicle catalog. Built directly
// against pgx/v5 + pgxpool, instrumented with otelpgx, mirroring the
// reference monorepo's db.Querier + pgxpool.Pool pairing (every apps/*
// service wires a *pgxpool.Pool through exaring/otelpgx the same way).
package store

import (
	"context"
	"fmt"

	"github.com/exaring/otelpgx"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/tollhub/pipeline/internal/model"
)

// Store wraps a connection pool and exposes one method set per aggregate.
type Store struct {
	Pool *pgxpool.Pool
}

// Open creates an instrumented pgxpool.Pool from a DSN and wraps it in a Store.
func Open(ctx context.Context, dsn string) (*Store, error) {
	cfg, err := pgxpool.ParseConfig(dsn)
	if err != nil {
		return nil, fmt.Errorf("%w: parse db dsn: %v", model.ErrConfiguration, err)
	}
	cfg.ConnConfig.Tracer = otelpgx.NewTracer()

	pool, err := pgxpool.NewWithConfig(ctx, cfg)
	if err != nil {
		return nil, fmt.Errorf("%w: open db pool: %v", model.ErrTransient, err)
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("%w: ping db: %v", model.ErrTransient, err)
	}

	return &Store{Pool: pool}, nil
}

// Close releases the underlying connection pool.
func (s *Store) Close() {
	s.Pool.Close()
}
