package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/redis/go-redis/v9"

	"psy-assess/internal/domain"
	"psy-assess/internal/repository"
)

// ErrSnapshotNotFound indica que no hay snapshot guardado para la corrida.
var ErrSnapshotNotFound = errors.New("snapshot not found")

// SnapshotStore persiste el estado de una corrida indexado por run id.
type SnapshotStore interface {
	Save(ctx context.Context, snap domain.Snapshot) error
	Load(ctx context.Context, runID string) (domain.Snapshot, error)
	Clear(ctx context.Context, runID string) error
}

type memorySnapshot struct {
	snap      domain.Snapshot
	expiresAt time.Time
}

type memorySnapshotStore struct {
	mu    sync.Mutex
	ttl   time.Duration
	now   func() time.Time
	items map[string]memorySnapshot
}

// NewMemorySnapshotStore guarda snapshots en memoria; ttl <= 0 no expira.
func NewMemorySnapshotStore(ttl time.Duration) SnapshotStore {
	return &memorySnapshotStore{
		ttl:   ttl,
		now:   time.Now,
		items: make(map[string]memorySnapshot),
	}
}

func (s *memorySnapshotStore) Save(_ context.Context, snap domain.Snapshot) error {
	if strings.TrimSpace(snap.RunID) == "" {
		return errors.New("snapshot without run id")
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	item := memorySnapshot{snap: snap}
	if s.ttl > 0 {
		item.expiresAt = s.now().Add(s.ttl)
	}
	s.items[snap.RunID] = item
	return nil
}

func (s *memorySnapshotStore) Load(_ context.Context, runID string) (domain.Snapshot, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	item, ok := s.items[runID]
	if !ok {
		return domain.Snapshot{}, ErrSnapshotNotFound
	}
	if !item.expiresAt.IsZero() && s.now().After(item.expiresAt) {
		delete(s.items, runID)
		return domain.Snapshot{}, ErrSnapshotNotFound
	}
	return item.snap, nil
}

func (s *memorySnapshotStore) Clear(_ context.Context, runID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.items, runID)
	return nil
}

type redisKVClient interface {
	Set(ctx context.Context, key string, value interface{}, expiration time.Duration) *redis.StatusCmd
	Get(ctx context.Context, key string) *redis.StringCmd
	Del(ctx context.Context, keys ...string) *redis.IntCmd
}

type redisSnapshotStore struct {
	client  redisKVClient
	ttl     time.Duration
	prefix  string
	timeout time.Duration
}

// NewRedisSnapshotStore guarda snapshots como JSON con TTL. Devuelve nil sin cliente.
func NewRedisSnapshotStore(client *redis.Client, ttl time.Duration) SnapshotStore {
	if client == nil {
		return nil
	}
	if ttl <= 0 {
		ttl = 24 * time.Hour
	}
	return &redisSnapshotStore{
		client:  client,
		ttl:     ttl,
		prefix:  "assess:snapshot:",
		timeout: 500 * time.Millisecond,
	}
}

func (s *redisSnapshotStore) Save(ctx context.Context, snap domain.Snapshot) error {
	runID := strings.TrimSpace(snap.RunID)
	if runID == "" {
		return errors.New("snapshot without run id")
	}
	data, err := json.Marshal(snap)
	if err != nil {
		return fmt.Errorf("marshal snapshot: %w", err)
	}
	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()
	return s.client.Set(ctx, s.prefix+runID, data, s.ttl).Err()
}

func (s *redisSnapshotStore) Load(ctx context.Context, runID string) (domain.Snapshot, error) {
	runID = strings.TrimSpace(runID)
	if runID == "" {
		return domain.Snapshot{}, ErrSnapshotNotFound
	}
	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()
	data, err := s.client.Get(ctx, s.prefix+runID).Bytes()
	if errors.Is(err, redis.Nil) {
		return domain.Snapshot{}, ErrSnapshotNotFound
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

func (s *redisSnapshotStore) Clear(ctx context.Context, runID string) error {
	runID = strings.TrimSpace(runID)
	if runID == "" {
		return nil
	}
	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()
	return s.client.Del(ctx, s.prefix+runID).Err()
}

type pgSnapshotStore struct {
	repo repository.SnapshotRepository
}

// NewPgSnapshotStore adapta el repositorio de Postgres a SnapshotStore.
func NewPgSnapshotStore(repo repository.SnapshotRepository) SnapshotStore {
	if repo == nil {
		return nil
	}
	return &pgSnapshotStore{repo: repo}
}

func (s *pgSnapshotStore) Save(ctx context.Context, snap domain.Snapshot) error {
	return s.repo.Upsert(ctx, snap)
}

func (s *pgSnapshotStore) Load(ctx context.Context, runID string) (domain.Snapshot, error) {
	snap, err := s.repo.GetByRunID(ctx, runID)
	if errors.Is(err, pgx.ErrNoRows) {
		return domain.Snapshot{}, ErrSnapshotNotFound
	}
	return snap, err
}

func (s *pgSnapshotStore) Clear(ctx context.Context, runID string) error {
	return s.repo.Delete(ctx, runID)
}

type tieredSnapshotStore struct {
	tiers []SnapshotStore
}

// NewTieredSnapshotStore escribe en todas las capas y lee de la primera que
// tenga el snapshot (p.ej. redis delante de postgres). Las capas nil se ignoran.
func NewTieredSnapshotStore(tiers ...SnapshotStore) SnapshotStore {
	var kept []SnapshotStore
	for _, t := range tiers {
		if t != nil {
			kept = append(kept, t)
		}
	}
	if len(kept) == 1 {
		return kept[0]
	}
	return &tieredSnapshotStore{tiers: kept}
}

func (s *tieredSnapshotStore) Save(ctx context.Context, snap domain.Snapshot) error {
	var errs []error
	for _, t := range s.tiers {
		if err := t.Save(ctx, snap); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

func (s *tieredSnapshotStore) Load(ctx context.Context, runID string) (domain.Snapshot, error) {
	var errs []error
	for _, t := range s.tiers {
		snap, err := t.Load(ctx, runID)
		if err == nil {
			return snap, nil
		}
		if !errors.Is(err, ErrSnapshotNotFound) {
			errs = append(errs, err)
		}
	}
	if len(errs) > 0 {
		return domain.Snapshot{}, errors.Join(errs...)
	}
	return domain.Snapshot{}, ErrSnapshotNotFound
}

func (s *tieredSnapshotStore) Clear(ctx context.Context, runID string) error {
	var errs []error
	for _, t := range s.tiers {
		if err := t.Clear(ctx, runID); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}
