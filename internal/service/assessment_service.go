package service

import (
	"context"
	"errors"
	"fmt"
	"math/rand/v2"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"golang.org/x/sync/singleflight"

	"psy-assess/internal/catalog"
	"psy-assess/internal/domain"
	"psy-assess/internal/engine"
	"psy-assess/internal/repository"
)

var (
	ErrRunNotFound    = errors.New("assessment run not found")
	ErrRateLimited    = errors.New("too many assessment starts")
	ErrResultNotReady = errors.New("assessment not finalized")
)

// AssessmentOptions configura el servicio. Store, Results y Limiter son opcionales.
type AssessmentOptions struct {
	CatalogName string
	Store       SnapshotStore
	Results     repository.ResultRepository
	Limiter     StartLimiter
	Clock       func() time.Time
	RandSource  func() *rand.Rand
}

// AssessmentService mantiene el registro de corridas activas y decide qué se
// persiste. Cada corrida se serializa con su propio mutex.
type AssessmentService struct {
	logger      *zap.Logger
	loader      catalog.Loader
	catalogName string
	store       SnapshotStore
	results     repository.ResultRepository
	limiter     StartLimiter
	now         func() time.Time
	randSource  func() *rand.Rand

	mu      sync.Mutex
	runs    map[string]*runSlot
	restore singleflight.Group
}

// runSlot marcado como abandoned ya no se muta ni se persiste.
type runSlot struct {
	mu        sync.Mutex
	run       *engine.Run
	abandoned bool
}

// RunView es lo que la capa de presentación necesita de una corrida.
type RunView struct {
	RunID            string           `json:"run_id"`
	Catalog          string           `json:"catalog"`
	State            domain.RunState  `json:"state"`
	Gender           domain.Gender    `json:"gender,omitempty"`
	Bracket          domain.Bracket   `json:"bracket,omitempty"`
	Progress         domain.Progress  `json:"progress"`
	PhaseTitle       string           `json:"phase_title,omitempty"`
	PhaseDescription string           `json:"phase_description,omitempty"`
	Question         *domain.Question `json:"question,omitempty"`
	Answer           *domain.Answer   `json:"answer,omitempty"`
}

func NewAssessmentService(logger *zap.Logger, loader catalog.Loader, opts AssessmentOptions) *AssessmentService {
	if logger == nil {
		logger = zap.NewNop()
	}
	if opts.CatalogName == "" {
		opts.CatalogName = catalog.DefaultName
	}
	if opts.Store == nil {
		opts.Store = NewMemorySnapshotStore(0)
	}
	if opts.Clock == nil {
		opts.Clock = time.Now
	}
	return &AssessmentService{
		logger:      logger,
		loader:      loader,
		catalogName: opts.CatalogName,
		store:       opts.Store,
		results:     opts.Results,
		limiter:     opts.Limiter,
		now:         opts.Clock,
		randSource:  opts.RandSource,
		runs:        make(map[string]*runSlot),
	}
}

// Start crea una corrida nueva. clientKey identifica al cliente para el limitador.
func (s *AssessmentService) Start(ctx context.Context, clientKey string) (RunView, error) {
	if s.limiter != nil && !s.limiter.Allow(clientKey) {
		return RunView{}, ErrRateLimited
	}
	cat, err := s.loader.Load(ctx, s.catalogName)
	if err != nil {
		return RunView{}, fmt.Errorf("start assessment: %w", err)
	}
	run := engine.NewRun(cat, s.runOptions(uuid.NewString()))
	slot := &runSlot{run: run}

	s.mu.Lock()
	s.runs[run.ID()] = slot
	s.mu.Unlock()

	slot.mu.Lock()
	defer slot.mu.Unlock()
	s.persist(ctx, run)
	s.logger.Info("assessment started",
		zap.String("run_id", run.ID()),
		zap.String("catalog", cat.Name),
		zap.Int("catalog_version", cat.Version),
	)
	return viewOf(run), nil
}

func (s *AssessmentService) View(ctx context.Context, runID string) (RunView, error) {
	slot, err := s.lockSlot(ctx, runID)
	if err != nil {
		return RunView{}, err
	}
	defer slot.mu.Unlock()
	return viewOf(slot.run), nil
}

func (s *AssessmentService) SelectGender(ctx context.Context, runID string, g domain.Gender) (RunView, error) {
	return s.mutate(ctx, runID, func(r *engine.Run) error { return r.SelectGender(g) })
}

func (s *AssessmentService) SelectBracket(ctx context.Context, runID string, b domain.Bracket) (RunView, error) {
	return s.mutate(ctx, runID, func(r *engine.Run) error { return r.SelectBracket(b) })
}

func (s *AssessmentService) Answer(ctx context.Context, runID string, v domain.AnswerValue) (RunView, error) {
	return s.mutate(ctx, runID, func(r *engine.Run) error { return r.Answer(v) })
}

func (s *AssessmentService) Next(ctx context.Context, runID string) (RunView, error) {
	return s.mutate(ctx, runID, func(r *engine.Run) error { return r.Next() })
}

func (s *AssessmentService) Prev(ctx context.Context, runID string) (RunView, error) {
	return s.mutate(ctx, runID, func(r *engine.Run) error { return r.Prev() })
}

// Finalize cierra la corrida explícitamente y devuelve el resultado.
func (s *AssessmentService) Finalize(ctx context.Context, runID string) (*domain.Result, error) {
	var res *domain.Result
	_, err := s.mutate(ctx, runID, func(r *engine.Run) error {
		out, err := r.Finalize()
		res = out
		return err
	})
	if err != nil {
		return nil, err
	}
	return res, nil
}

func (s *AssessmentService) Result(ctx context.Context, runID string) (*domain.Result, error) {
	slot, err := s.lockSlot(ctx, runID)
	if err != nil {
		return nil, err
	}
	defer slot.mu.Unlock()
	res, ok := slot.run.Result()
	if !ok {
		return nil, ErrResultNotReady
	}
	return res, nil
}

func (s *AssessmentService) Export(ctx context.Context, runID string) (domain.Export, error) {
	slot, err := s.lockSlot(ctx, runID)
	if err != nil {
		return domain.Export{}, err
	}
	defer slot.mu.Unlock()
	return slot.run.Export(), nil
}

// Abandon descarta la corrida por completo, en memoria y en persistencia.
// Espera a que termine cualquier operación en curso sobre la corrida; las que
// lleguen después ven la corrida como inexistente.
func (s *AssessmentService) Abandon(ctx context.Context, runID string) error {
	slot, err := s.lockSlot(ctx, runID)
	switch {
	case err == nil:
		defer slot.mu.Unlock()
		slot.abandoned = true
		s.mu.Lock()
		if s.runs[runID] == slot {
			delete(s.runs, runID)
		}
		s.mu.Unlock()
	case errors.Is(err, ErrRunNotFound):
		// Un snapshot ilegible igual se descarta.
		if _, loadErr := s.store.Load(ctx, runID); loadErr != nil {
			return ErrRunNotFound
		}
	default:
		return err
	}

	if err := s.store.Clear(ctx, runID); err != nil {
		s.logger.Warn("snapshot clear failed", zap.String("run_id", runID), zap.Error(err))
	}
	s.logger.Info("assessment abandoned", zap.String("run_id", runID))
	return nil
}

// mutate aplica op bajo el lock de la corrida. Si op falla el estado no
// cambió y no se persiste nada.
func (s *AssessmentService) mutate(ctx context.Context, runID string, op func(*engine.Run) error) (RunView, error) {
	slot, err := s.lockSlot(ctx, runID)
	if err != nil {
		return RunView{}, err
	}
	defer slot.mu.Unlock()

	wasFinal := slot.run.State() == domain.StateFinalized
	if err := op(slot.run); err != nil {
		return RunView{}, err
	}
	s.persist(ctx, slot.run)
	if !wasFinal && slot.run.State() == domain.StateFinalized {
		s.recordResult(ctx, slot.run)
	}
	return viewOf(slot.run), nil
}

// lockSlot devuelve la corrida con su mutex tomado. Una corrida abandonada
// mientras se esperaba el lock cuenta como inexistente.
func (s *AssessmentService) lockSlot(ctx context.Context, runID string) (*runSlot, error) {
	slot, err := s.slot(ctx, runID)
	if err != nil {
		return nil, err
	}
	slot.mu.Lock()
	if slot.abandoned {
		slot.mu.Unlock()
		return nil, ErrRunNotFound
	}
	return slot, nil
}

// slot busca la corrida en memoria o la reconstruye desde el snapshot guardado.
func (s *AssessmentService) slot(ctx context.Context, runID string) (*runSlot, error) {
	s.mu.Lock()
	slot, ok := s.runs[runID]
	s.mu.Unlock()
	if ok {
		return slot, nil
	}

	v, err, _ := s.restore.Do(runID, func() (interface{}, error) {
		s.mu.Lock()
		existing, ok := s.runs[runID]
		s.mu.Unlock()
		if ok {
			return existing, nil
		}
		snap, err := s.store.Load(ctx, runID)
		if errors.Is(err, ErrSnapshotNotFound) {
			return nil, ErrRunNotFound
		}
		if err != nil {
			s.logger.Warn("snapshot load failed", zap.String("run_id", runID), zap.Error(err))
			return nil, ErrRunNotFound
		}
		cat, err := s.loader.Load(ctx, snap.Catalog)
		if err != nil {
			return nil, fmt.Errorf("restore run %s: %w", runID, err)
		}
		run, err := engine.Restore(cat, snap, s.runOptions(runID))
		if err != nil {
			s.logger.Warn("snapshot rejected", zap.String("run_id", runID), zap.Error(err))
			return nil, fmt.Errorf("%w: %v", ErrRunNotFound, err)
		}
		restored := &runSlot{run: run}
		s.mu.Lock()
		s.runs[runID] = restored
		s.mu.Unlock()
		s.logger.Info("assessment restored", zap.String("run_id", runID), zap.String("state", string(run.State())))
		return restored, nil
	})
	if err != nil {
		return nil, err
	}
	return v.(*runSlot), nil
}

func (s *AssessmentService) runOptions(runID string) engine.Options {
	opts := engine.Options{ID: runID, Logger: s.logger, Clock: s.now}
	if s.randSource != nil {
		opts.Rand = s.randSource()
	}
	return opts
}

// persist guarda el snapshot; una falla se registra y la corrida sigue desde memoria.
func (s *AssessmentService) persist(ctx context.Context, run *engine.Run) {
	if err := s.store.Save(ctx, run.Snapshot()); err != nil {
		s.logger.Warn("snapshot save failed", zap.String("run_id", run.ID()), zap.Error(err))
	}
}

func (s *AssessmentService) recordResult(ctx context.Context, run *engine.Run) {
	if s.results == nil {
		return
	}
	res, ok := run.Result()
	if !ok {
		return
	}
	rec := domain.ResultRecord{
		ID:         uuid.NewString(),
		RunID:      run.ID(),
		Catalog:    run.Catalog().Name,
		Gender:     run.Gender(),
		PrimaryID:  res.Primary.ID,
		Confidence: res.ConfidenceLevels.Primary,
		Result:     *res,
		CreatedAt:  res.CompletedAt,
	}
	if err := s.results.Create(ctx, rec); err != nil {
		s.logger.Warn("result save failed", zap.String("run_id", run.ID()), zap.Error(err))
	}
}

func viewOf(r *engine.Run) RunView {
	v := RunView{
		RunID:    r.ID(),
		Catalog:  r.Catalog().Name,
		State:    r.State(),
		Gender:   r.Gender(),
		Bracket:  r.Bracket(),
		Progress: r.Progress(),
	}
	if p, ok := r.Catalog().Phase(r.Phase()); ok {
		v.PhaseTitle = p.Title
		v.PhaseDescription = p.Description
	}
	if q, ok := r.Current(); ok {
		v.Question = &q
		if a, ok := r.AnswerFor(q.ID); ok {
			v.Answer = &a
		}
	}
	return v
}
