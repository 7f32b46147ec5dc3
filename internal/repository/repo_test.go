package repository

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"testing"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"

	"psy-assess/internal/domain"
)

type fakeRow struct {
	values []any
	err    error
}

func (r fakeRow) Scan(dest ...any) error {
	if r.err != nil {
		return r.err
	}
	if len(dest) != len(r.values) {
		return fmt.Errorf("scan: %d destinations for %d values", len(dest), len(r.values))
	}
	for i, d := range dest {
		switch p := d.(type) {
		case *string:
			*p = r.values[i].(string)
		case *[]byte:
			*p = r.values[i].([]byte)
		case *float64:
			*p = r.values[i].(float64)
		case *time.Time:
			*p = r.values[i].(time.Time)
		default:
			return fmt.Errorf("scan: unsupported destination %T", d)
		}
	}
	return nil
}

type fakeDB struct {
	lastSQL  string
	lastArgs []any
	execErr  error
	row      fakeRow
}

func (f *fakeDB) Exec(_ context.Context, sql string, args ...any) (pgconn.CommandTag, error) {
	f.lastSQL = sql
	f.lastArgs = args
	if f.execErr != nil {
		return pgconn.CommandTag{}, f.execErr
	}
	return pgconn.NewCommandTag("INSERT 0 1"), nil
}

func (f *fakeDB) QueryRow(_ context.Context, sql string, args ...any) pgx.Row {
	f.lastSQL = sql
	f.lastArgs = args
	return f.row
}

func sampleSnapshot() domain.Snapshot {
	return domain.Snapshot{
		RunID:         "run-1",
		Catalog:       "archetype",
		State:         domain.StateInPhase,
		Phase:         2,
		QuestionIndex: 3,
		Gender:        domain.GenderFemale,
		Answers: map[string]domain.Answer{
			"q1": {QuestionID: "q1", Phase: 1, Value: domain.SingleChoice(0)},
		},
		History:   []string{"q1"},
		UpdatedAt: time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC),
	}
}

func TestPgSnapshotRepository_UpsertAndGet(t *testing.T) {
	db := &fakeDB{}
	repo := NewPgSnapshotRepository(db)
	snap := sampleSnapshot()

	if err := repo.Upsert(context.Background(), snap); err != nil {
		t.Fatalf("upsert: %v", err)
	}
	if !strings.Contains(db.lastSQL, "ON CONFLICT (run_id)") {
		t.Fatalf("expected upsert statement, got %q", db.lastSQL)
	}
	if len(db.lastArgs) != 7 || db.lastArgs[0] != "run-1" || db.lastArgs[2] != "in_phase" || db.lastArgs[3] != "female" {
		t.Fatalf("unexpected args %+v", db.lastArgs)
	}
	data, ok := db.lastArgs[5].([]byte)
	if !ok {
		t.Fatalf("expected JSON payload, got %T", db.lastArgs[5])
	}

	db.row = fakeRow{values: []any{data}}
	got, err := repo.GetByRunID(context.Background(), "run-1")
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if got.RunID != "run-1" || got.Phase != 2 || got.QuestionIndex != 3 || got.Gender != domain.GenderFemale {
		t.Fatalf("unexpected snapshot %+v", got)
	}
	if a := got.Answers["q1"]; a.Value.Kind != domain.AnswerSingle || a.Value.Index != 0 {
		t.Fatalf("answer not preserved: %+v", a)
	}
	if db.lastArgs[0] != "run-1" {
		t.Fatalf("unexpected query args %+v", db.lastArgs)
	}
}

func TestPgSnapshotRepository_Errors(t *testing.T) {
	db := &fakeDB{row: fakeRow{err: pgx.ErrNoRows}}
	repo := NewPgSnapshotRepository(db)
	if _, err := repo.GetByRunID(context.Background(), "missing"); !errors.Is(err, pgx.ErrNoRows) {
		t.Fatalf("expected ErrNoRows, got %v", err)
	}

	db.row = fakeRow{values: []any{[]byte("{not json")}}
	if _, err := repo.GetByRunID(context.Background(), "broken"); err == nil {
		t.Fatal("expected decode error")
	}

	db.execErr = errors.New("connection reset")
	if err := repo.Delete(context.Background(), "run-1"); err == nil {
		t.Fatal("expected delete error")
	}
	if !strings.HasPrefix(db.lastSQL, "DELETE FROM assessment_snapshots") {
		t.Fatalf("unexpected delete statement %q", db.lastSQL)
	}
}

func TestPgResultRepository_CreateAndGet(t *testing.T) {
	db := &fakeDB{}
	repo := NewPgResultRepository(db)
	created := time.Date(2026, 3, 2, 10, 0, 0, 0, time.UTC)
	rec := domain.ResultRecord{
		ID:         "res-1",
		RunID:      "run-1",
		Catalog:    "archetype",
		Gender:     domain.GenderMale,
		PrimaryID:  "alpha_xi",
		Confidence: 31.5,
		Result: domain.Result{
			Gender:  domain.GenderMale,
			Primary: domain.RankedCategory{ID: "alpha_xi", ParentType: "alpha", Confidence: 31.5},
		},
		CreatedAt: created,
	}
	if err := repo.Create(context.Background(), rec); err != nil {
		t.Fatalf("create: %v", err)
	}
	if !strings.Contains(db.lastSQL, "DO NOTHING") {
		t.Fatalf("expected idempotent insert, got %q", db.lastSQL)
	}
	payload := db.lastArgs[6].([]byte)

	var decoded domain.Result
	if err := json.Unmarshal(payload, &decoded); err != nil || decoded.Primary.ID != "alpha_xi" {
		t.Fatalf("unexpected payload %s (%v)", payload, err)
	}

	db.row = fakeRow{values: []any{"res-1", "run-1", "archetype", "male", "alpha_xi", 31.5, payload, created}}
	got, err := repo.GetByRunID(context.Background(), "run-1")
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if got.Gender != domain.GenderMale || got.Result.Primary.ParentType != "alpha" || !got.CreatedAt.Equal(created) {
		t.Fatalf("unexpected record %+v", got)
	}
}
