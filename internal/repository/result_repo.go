package repository

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"

	"psy-assess/internal/domain"
)

type ResultRepository interface {
	Create(ctx context.Context, rec domain.ResultRecord) error
	GetByRunID(ctx context.Context, runID string) (domain.ResultRecord, error)
}

type PgResultRepository struct {
	db DBTX
}

func NewPgResultRepository(db DBTX) *PgResultRepository {
	return &PgResultRepository{db: db}
}

// Create inserta el resultado; una corrida se finaliza una sola vez, por eso
// un run_id repetido no pisa la fila existente.
func (r *PgResultRepository) Create(ctx context.Context, rec domain.ResultRecord) error {
	payload, err := json.Marshal(rec.Result)
	if err != nil {
		return fmt.Errorf("marshal result: %w", err)
	}
	const query = `
		INSERT INTO assessment_results (id, run_id, catalog, gender, primary_id, confidence, result, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		ON CONFLICT (run_id) DO NOTHING
	`
	_, err = r.db.Exec(ctx, query,
		rec.ID,
		rec.RunID,
		rec.Catalog,
		string(rec.Gender),
		rec.PrimaryID,
		rec.Confidence,
		payload,
		rec.CreatedAt,
	)
	return err
}

func (r *PgResultRepository) GetByRunID(ctx context.Context, runID string) (domain.ResultRecord, error) {
	const query = `
		SELECT id, run_id, catalog, gender, primary_id, confidence, result, created_at
		FROM assessment_results
		WHERE run_id = $1
	`
	var (
		rec     domain.ResultRecord
		gender  string
		payload []byte
		created time.Time
	)
	err := r.db.QueryRow(ctx, query, runID).Scan(
		&rec.ID,
		&rec.RunID,
		&rec.Catalog,
		&gender,
		&rec.PrimaryID,
		&rec.Confidence,
		&payload,
		&created,
	)
	if errors.Is(err, pgx.ErrNoRows) {
		return domain.ResultRecord{}, err
	}
	if err != nil {
		return domain.ResultRecord{}, err
	}
	if err := json.Unmarshal(payload, &rec.Result); err != nil {
		return domain.ResultRecord{}, fmt.Errorf("decode result %s: %w", runID, err)
	}
	rec.Gender = domain.Gender(gender)
	rec.CreatedAt = created
	return rec, nil
}
