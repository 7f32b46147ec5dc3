package engine

import (
	"fmt"
	"math/rand/v2"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"psy-assess/internal/catalog"
	"psy-assess/internal/domain"
)

// Options inyecta las dependencias de una corrida. Los campos vacíos toman
// valores por defecto (uuid nuevo, zap.NewNop, time.Now, PCG sembrado con el reloj).
type Options struct {
	ID     string
	Logger *zap.Logger
	Clock  func() time.Time
	Rand   *rand.Rand
}

// Run es la máquina de estados de una evaluación:
// GenderSelect → BracketSelect → fases → Finalized.
// No es segura para uso concurrente; el llamador serializa las operaciones.
type Run struct {
	id     string
	cat    *catalog.Catalog
	logger *zap.Logger
	now    func() time.Time
	rng    *rand.Rand

	state   domain.RunState
	gender  domain.Gender
	bracket domain.Bracket

	phases    []int
	phasePos  int
	sequences map[int][]domain.Question
	cursor    int

	answers     map[string]domain.Answer
	deltas      map[string][]Delta
	context     domain.ContextAnswers
	aspirations []domain.AspirationAnswer
	board       *domain.ScoreBoard

	result *domain.Result
}

func NewRun(cat *catalog.Catalog, opts Options) *Run {
	if opts.ID == "" {
		opts.ID = uuid.NewString()
	}
	if opts.Logger == nil {
		opts.Logger = zap.NewNop()
	}
	if opts.Clock == nil {
		opts.Clock = time.Now
	}
	if opts.Rand == nil {
		seed := uint64(opts.Clock().UnixNano())
		opts.Rand = rand.New(rand.NewPCG(seed, seed>>1))
	}
	return &Run{
		id:        opts.ID,
		cat:       cat,
		logger:    opts.Logger.With(zap.String("run_id", opts.ID)),
		now:       opts.Clock,
		rng:       opts.Rand,
		state:     domain.StateGenderSelect,
		phases:    cat.PhaseNumbers(),
		sequences: make(map[int][]domain.Question),
		answers:   make(map[string]domain.Answer),
		deltas:    make(map[string][]Delta),
		context:   make(domain.ContextAnswers),
		board:     domain.NewScoreBoard(nil),
	}
}

func (r *Run) ID() string                { return r.id }
func (r *Run) State() domain.RunState    { return r.state }
func (r *Run) Gender() domain.Gender     { return r.gender }
func (r *Run) Bracket() domain.Bracket   { return r.bracket }
func (r *Run) Catalog() *catalog.Catalog { return r.cat }

// Phase devuelve el número de fase activa, o 0 antes de la primera fase.
func (r *Run) Phase() int {
	if r.state != domain.StateInPhase && r.state != domain.StateFinalized {
		return 0
	}
	if len(r.phases) == 0 {
		return 0
	}
	return r.phases[r.phasePos]
}

// SelectGender fija el género e inicializa todas las categorías conocidas.
func (r *Run) SelectGender(g domain.Gender) error {
	if r.state != domain.StateGenderSelect {
		return fmt.Errorf("select gender: %w", ErrInvalidState)
	}
	if g != domain.GenderMale && g != domain.GenderFemale {
		return fmt.Errorf("%w: unknown gender %q", ErrValidation, g)
	}
	r.gender = g
	r.board = domain.NewScoreBoard(CategoryIDs(r.cat, g))
	r.state = domain.StateBracketSelect
	r.logger.Debug("gender selected", zap.String("gender", string(g)), zap.Int("categories", len(r.board.IDs())))
	return nil
}

// SelectBracket fija el bracket (puede ser vacío) y entra en la primera fase con preguntas.
func (r *Run) SelectBracket(b domain.Bracket) error {
	if r.state != domain.StateBracketSelect {
		return fmt.Errorf("select bracket: %w", ErrInvalidState)
	}
	if _, ok := domain.ParseBracket(string(b)); !ok {
		return fmt.Errorf("%w: unknown bracket %q", ErrValidation, b)
	}
	r.bracket = b
	if !r.enterPhase(0) {
		r.logger.Warn("catalog has no questions for this run")
		r.finalize()
	}
	return nil
}

// Current devuelve la pregunta bajo el cursor.
func (r *Run) Current() (domain.Question, bool) {
	if r.state != domain.StateInPhase {
		return domain.Question{}, false
	}
	seq := r.sequences[r.Phase()]
	if r.cursor < 0 || r.cursor >= len(seq) {
		return domain.Question{}, false
	}
	return seq[r.cursor], true
}

// Sequence devuelve la secuencia de la fase activa.
func (r *Run) Sequence() []domain.Question {
	seq := r.sequences[r.Phase()]
	out := make([]domain.Question, len(seq))
	copy(out, seq)
	return out
}

func (r *Run) Progress() domain.Progress {
	if r.state != domain.StateInPhase {
		return domain.Progress{Phase: r.Phase()}
	}
	return domain.Progress{Phase: r.Phase(), CurrentIndex: r.cursor, Total: len(r.sequences[r.Phase()])}
}

// Answer registra la respuesta de la pregunta actual; una respuesta previa se reemplaza.
func (r *Run) Answer(v domain.AnswerValue) error {
	q, ok := r.Current()
	if !ok {
		return fmt.Errorf("answer: %w", ErrInvalidState)
	}
	return r.record(q, v)
}

func (r *Run) AnswerFor(questionID string) (domain.Answer, bool) {
	a, ok := r.answers[questionID]
	return a, ok
}

// Next avanza el cursor. La pregunta actual debe estar respondida; al pasar la
// última pregunta de la última fase la corrida se finaliza.
func (r *Run) Next() error {
	q, ok := r.Current()
	if !ok {
		return fmt.Errorf("next: %w", ErrInvalidState)
	}
	if _, answered := r.answers[q.ID]; !answered {
		return fmt.Errorf("%w: question %q is not answered", ErrValidation, q.ID)
	}
	if r.cursor+1 < len(r.sequences[r.Phase()]) {
		r.cursor++
		return nil
	}
	if r.enterPhase(r.phasePos + 1) {
		return nil
	}
	r.finalize()
	return nil
}

// Prev retrocede el cursor, cruzando a la fase anterior si hace falta. No puntúa.
func (r *Run) Prev() error {
	if r.state != domain.StateInPhase {
		return fmt.Errorf("prev: %w", ErrInvalidState)
	}
	if r.cursor > 0 {
		r.cursor--
		return nil
	}
	for pos := r.phasePos - 1; pos >= 0; pos-- {
		if seq := r.sequences[r.phases[pos]]; len(seq) > 0 {
			r.phasePos = pos
			r.cursor = len(seq) - 1
			return nil
		}
	}
	return fmt.Errorf("prev: already at first question: %w", ErrInvalidState)
}

// Finalize cierra la corrida. Solo puede llamarse una vez y con todas las
// preguntas respondidas.
func (r *Run) Finalize() (*domain.Result, error) {
	switch r.state {
	case domain.StateFinalized:
		return nil, ErrAlreadyFinalized
	case domain.StateInPhase:
	default:
		return nil, fmt.Errorf("finalize: %w", ErrInvalidState)
	}
	// Las fases posteriores ya recorridas (se volvió con Prev) cuentan como alcanzadas.
	for pos := r.phasePos + 1; pos < len(r.phases); pos++ {
		n := r.phases[pos]
		if _, built := r.sequences[n]; !built && r.phaseHasQuestions(n) {
			return nil, fmt.Errorf("%w: phase %d not reached", ErrValidation, n)
		}
	}
	for _, id := range r.History() {
		if _, ok := r.answers[id]; !ok {
			return nil, fmt.Errorf("%w: question %q is not answered", ErrValidation, id)
		}
	}
	r.finalize()
	res, _ := r.Result()
	return res, nil
}

// Result devuelve una copia del resultado si la corrida está finalizada.
func (r *Run) Result() (*domain.Result, bool) {
	if r.result == nil {
		return nil, false
	}
	return cloneResult(r.result), true
}

// Scores devuelve una copia de los puntajes actuales.
func (r *Run) Scores() map[string]domain.CategoryScore {
	return r.board.Map()
}

func (r *Run) ContextAnswers() domain.ContextAnswers {
	return copyContext(r.context)
}

func (r *Run) Aspirations() []domain.AspirationAnswer {
	return copyAspirations(r.aspirations)
}

// History devuelve los ids presentados en todas las fases construidas, en orden.
func (r *Run) History() []string {
	var out []string
	for _, n := range r.phases {
		for _, q := range r.sequences[n] {
			out = append(out, q.ID)
		}
	}
	return out
}

func (r *Run) phaseHasQuestions(n int) bool {
	p, ok := r.cat.Phase(n)
	return ok && len(p.Pool(r.gender)) > 0
}

// enterPhase entra en la primera fase con preguntas desde pos. La secuencia se
// construye una sola vez por fase y se reutiliza al volver.
func (r *Run) enterPhase(pos int) bool {
	for ; pos < len(r.phases); pos++ {
		n := r.phases[pos]
		if !r.phaseHasQuestions(n) {
			continue
		}
		if _, built := r.sequences[n]; !built {
			p, _ := r.cat.Phase(n)
			r.sequences[n] = BuildSequence(p, SequenceContext{Gender: r.gender, Bracket: r.bracket, Rand: r.rng})
			r.logger.Debug("phase sequence built",
				zap.Int("phase", n),
				zap.Int("questions", len(r.sequences[n])),
				zap.String("bracket", string(r.bracket)),
			)
		}
		r.phasePos = pos
		r.cursor = 0
		r.state = domain.StateInPhase
		return true
	}
	return false
}

func (r *Run) record(q domain.Question, v domain.AnswerValue) error {
	nv, err := NormalizeAnswer(q, v)
	if err != nil {
		return err
	}
	_, existed := r.answers[q.ID]
	r.answers[q.ID] = domain.Answer{QuestionID: q.ID, Phase: q.Phase, Value: nv, Timestamp: r.now()}

	switch {
	case q.IsRespectContext:
		r.context.Set(q.RespectContextKey, q.RespectContextType, nv.Value)

	case q.IsAspiration:
		var targets []string
		for _, idx := range nv.Selected() {
			t := q.Options[idx].AspirationTarget
			if t == "" {
				r.logIssue(IntegrityIssue{QuestionID: q.ID, Option: idx, Reason: "aspiration option without target"})
				continue
			}
			targets = append(targets, t)
		}
		r.setAspiration(q.ID, targets)

	default:
		deltas, issues := ScoreAnswer(q, nv, r.gender)
		for _, i := range issues {
			r.logIssue(i)
		}
		kept := deltas[:0]
		for _, d := range deltas {
			if !r.board.Has(d.Category) {
				r.logIssue(IntegrityIssue{QuestionID: q.ID, Option: -1, Category: d.Category, Reason: "unknown category"})
				continue
			}
			kept = append(kept, d)
		}
		r.deltas[q.ID] = kept
		if existed {
			r.rebuildBoard()
		} else {
			for _, d := range kept {
				r.board.Add(d.Category, d.Phase, d.Amount)
			}
		}
	}
	return nil
}

func (r *Run) setAspiration(questionID string, targets []string) {
	for i := range r.aspirations {
		if r.aspirations[i].QuestionID == questionID {
			r.aspirations[i].Targets = targets
			return
		}
	}
	r.aspirations = append(r.aspirations, domain.AspirationAnswer{QuestionID: questionID, Targets: targets})
}

// rebuildBoard recalcula los puntajes sumando las contribuciones vigentes en
// orden de presentación; así un reemplazo nunca acumula dos veces.
func (r *Run) rebuildBoard() {
	board := domain.NewScoreBoard(CategoryIDs(r.cat, r.gender))
	for _, id := range r.History() {
		for _, d := range r.deltas[id] {
			board.Add(d.Category, d.Phase, d.Amount)
		}
	}
	r.board = board
}

func (r *Run) finalize() {
	var provision []float64
	for _, id := range r.History() {
		q, ok := r.cat.Question(id)
		if !ok || !q.IsProvision {
			continue
		}
		if a, ok := r.answers[id]; ok && a.Value.Kind == domain.AnswerScale {
			provision = append(provision, a.Value.Value)
		}
	}

	adj := ComputeAdjustments(AdjustmentInput{
		Gender:          r.gender,
		Context:         r.context,
		Aspirations:     r.aspirations,
		ProvisionValues: provision,
		Behavioral:      BehavioralRanking(r.board, r.gender),
	})
	adj.Apply(r.board, r.gender)

	res := Aggregate(r.cat, r.board, r.gender)
	res.Adjustments = adj.Factors
	res.Insights = BuildInsights(r.cat, r.board, r.gender, r.aspirations, adj)
	res.CompletedAt = r.now()
	r.result = &res
	r.state = domain.StateFinalized

	r.logger.Info("run finalized",
		zap.String("primary", res.Primary.ID),
		zap.Float64("confidence", res.ConfidenceLevels.Primary),
		zap.String("respect_pattern", string(adj.RespectPattern)),
		zap.Int("adjusted_categories", len(adj.Factors)),
	)
}

func (r *Run) logIssue(i IntegrityIssue) {
	r.logger.Warn("catalog integrity issue",
		zap.String("question_id", i.QuestionID),
		zap.String("category", i.Category),
		zap.String("issue", i.String()),
	)
}

func copyContext(c domain.ContextAnswers) domain.ContextAnswers {
	out := make(domain.ContextAnswers, len(c))
	for k, inner := range c {
		for m, v := range inner {
			out.Set(k, m, v)
		}
	}
	return out
}

func copyAspirations(in []domain.AspirationAnswer) []domain.AspirationAnswer {
	out := make([]domain.AspirationAnswer, len(in))
	for i, a := range in {
		out[i] = domain.AspirationAnswer{QuestionID: a.QuestionID, Targets: append([]string(nil), a.Targets...)}
	}
	return out
}

func cloneResult(in *domain.Result) *domain.Result {
	if in == nil {
		return nil
	}
	out := *in
	if in.Secondary != nil {
		sec := *in.Secondary
		out.Secondary = &sec
	}
	if in.Tertiary != nil {
		ter := *in.Tertiary
		out.Tertiary = &ter
	}
	out.Ranking = append([]domain.RankedCategory(nil), in.Ranking...)
	out.Insights.CoreGroups = append([]domain.GroupScore(nil), in.Insights.CoreGroups...)
	out.Insights.TopSubtypes = append([]domain.InsightEntry(nil), in.Insights.TopSubtypes...)
	out.Insights.Shadow = append([]domain.InsightEntry(nil), in.Insights.Shadow...)
	out.Insights.Aspirational = append([]domain.InsightEntry(nil), in.Insights.Aspirational...)
	if in.Adjustments != nil {
		out.Adjustments = make(map[string]float64, len(in.Adjustments))
		for k, v := range in.Adjustments {
			out.Adjustments[k] = v
		}
	}
	return &out
}
