package db

import (
	"context"
	"errors"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"

	"psy-assess/internal/config"
)

// ErrNotConfigured indica que DATABASE_URL no está definido; el servicio corre sin Postgres.
var ErrNotConfigured = errors.New("database not configured")

// NewPool construye y devuelve un pool de conexiones configurado.
func NewPool(ctx context.Context, cfg *config.Config) (*pgxpool.Pool, error) {
	if cfg.DatabaseURL == "" {
		return nil, ErrNotConfigured
	}
	poolCfg, err := pgxpool.ParseConfig(cfg.DatabaseURL)
	if err != nil {
		return nil, err
	}

	poolCfg.MaxConns = 10
	poolCfg.MinConns = 1
	poolCfg.MaxConnLifetime = 30 * time.Minute
	poolCfg.MaxConnIdleTime = 5 * time.Minute
	poolCfg.HealthCheckPeriod = 30 * time.Second
	poolCfg.ConnConfig.ConnectTimeout = 5 * time.Second

	return pgxpool.NewWithConfig(ctx, poolCfg)
}

// Ping verifica conectividad con la base de datos.
func Ping(ctx context.Context, pool *pgxpool.Pool) error {
	return pool.Ping(ctx)
}

const schema = `
CREATE TABLE IF NOT EXISTS assessment_snapshots (
	run_id     TEXT PRIMARY KEY,
	catalog    TEXT NOT NULL,
	state      TEXT NOT NULL,
	gender     TEXT NOT NULL DEFAULT '',
	phase      INTEGER NOT NULL DEFAULT 0,
	data       JSONB NOT NULL,
	updated_at TIMESTAMPTZ NOT NULL
);

CREATE TABLE IF NOT EXISTS assessment_results (
	id         TEXT PRIMARY KEY,
	run_id     TEXT NOT NULL UNIQUE,
	catalog    TEXT NOT NULL,
	gender     TEXT NOT NULL,
	primary_id TEXT NOT NULL,
	confidence DOUBLE PRECISION NOT NULL,
	result     JSONB NOT NULL,
	created_at TIMESTAMPTZ NOT NULL
);

CREATE INDEX IF NOT EXISTS assessment_results_primary_idx ON assessment_results (primary_id);
`

// EnsureSchema crea las tablas de snapshots y resultados si no existen.
func EnsureSchema(ctx context.Context, pool *pgxpool.Pool) error {
	_, err := pool.Exec(ctx, schema)
	return err
}
