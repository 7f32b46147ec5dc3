package repository

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"

	"psy-assess/internal/domain"
)

// DBTX es el subconjunto de pgxpool.Pool que usan los repositorios.
type DBTX interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

type SnapshotRepository interface {
	Upsert(ctx context.Context, snap domain.Snapshot) error
	GetByRunID(ctx context.Context, runID string) (domain.Snapshot, error)
	Delete(ctx context.Context, runID string) error
}

type PgSnapshotRepository struct {
	db DBTX
}

func NewPgSnapshotRepository(db DBTX) *PgSnapshotRepository {
	return &PgSnapshotRepository{db: db}
}

// Upsert guarda el snapshot completo como JSONB; las columnas sueltas sirven para consultas.
func (r *PgSnapshotRepository) Upsert(ctx context.Context, snap domain.Snapshot) error {
	data, err := json.Marshal(snap)
	if err != nil {
		return fmt.Errorf("marshal snapshot: %w", err)
	}
	const query = `
		INSERT INTO assessment_snapshots (run_id, catalog, state, gender, phase, data, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		ON CONFLICT (run_id) DO UPDATE SET
			catalog = EXCLUDED.catalog,
			state = EXCLUDED.state,
			gender = EXCLUDED.gender,
			phase = EXCLUDED.phase,
			data = EXCLUDED.data,
			updated_at = EXCLUDED.updated_at
	`
	_, err = r.db.Exec(ctx, query,
		snap.RunID,
		snap.Catalog,
		string(snap.State),
		string(snap.Gender),
		snap.Phase,
		data,
		snap.UpdatedAt,
	)
	return err
}

func (r *PgSnapshotRepository) GetByRunID(ctx context.Context, runID string) (domain.Snapshot, error) {
	const query = `
		SELECT data
		FROM assessment_snapshots
		WHERE run_id = $1
	`
	var data []byte
	err := r.db.QueryRow(ctx, query, runID).Scan(&data)
	if errors.Is(err, pgx.ErrNoRows) {
		return domain.Snapshot{}, err
	}
	if err != nil {
		return domain.Snapshot{}, err
	}
	var snap domain.Snapshot
	if err := json.Unmarshal(data, &snap); err != nil {
		return domain.Snapshot{}, fmt.Errorf("decode snapshot %s: %w", runID, err)
	}
	return snap, nil
}

func (r *PgSnapshotRepository) Delete(ctx context.Context, runID string) error {
	const query = `DELETE FROM assessment_snapshots WHERE run_id = $1`
	_, err := r.db.Exec(ctx, query, runID)
	return err
}
