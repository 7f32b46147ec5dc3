package domain

// PhaseCount es la cantidad máxima de fases puntuables.
const PhaseCount = 5

// CategoryScore acumula sub-puntajes por fase. Total y Weighted se derivan.
type CategoryScore struct {
	Phases   [PhaseCount]float64 `json:"phases"`
	Total    float64             `json:"total"`
	Weighted float64             `json:"weighted"`
}

// Phase devuelve el sub-puntaje de la fase (1-indexada); fuera de rango devuelve 0.
func (s CategoryScore) Phase(n int) float64 {
	if n < 1 || n > PhaseCount {
		return 0
	}
	return s.Phases[n-1]
}

// Add suma una contribución a la fase indicada.
func (s *CategoryScore) Add(phase int, amount float64) bool {
	if phase < 1 || phase > PhaseCount {
		return false
	}
	s.Phases[phase-1] += amount
	return true
}

// Recompute recalcula Total y Weighted con la tabla de pesos por fase.
func (s *CategoryScore) Recompute(weights [PhaseCount]float64) {
	s.Total = 0
	s.Weighted = 0
	for i, v := range s.Phases {
		s.Total += v
		s.Weighted += v * weights[i]
	}
}

// ScoreBoard mantiene los puntajes por categoría con orden de iteración estable.
type ScoreBoard struct {
	order  []string
	scores map[string]*CategoryScore
}

func NewScoreBoard(ids []string) *ScoreBoard {
	b := &ScoreBoard{scores: make(map[string]*CategoryScore, len(ids))}
	for _, id := range ids {
		if _, ok := b.scores[id]; ok {
			continue
		}
		b.order = append(b.order, id)
		b.scores[id] = &CategoryScore{}
	}
	return b
}

// IDs devuelve los ids en orden de inicialización.
func (b *ScoreBoard) IDs() []string {
	out := make([]string, len(b.order))
	copy(out, b.order)
	return out
}

func (b *ScoreBoard) Has(id string) bool {
	_, ok := b.scores[id]
	return ok
}

// Get devuelve una copia del puntaje.
func (b *ScoreBoard) Get(id string) (CategoryScore, bool) {
	s, ok := b.scores[id]
	if !ok {
		return CategoryScore{}, false
	}
	return *s, true
}

// Add suma en la fase; devuelve false si la categoría no está inicializada.
func (b *ScoreBoard) Add(id string, phase int, amount float64) bool {
	s, ok := b.scores[id]
	if !ok {
		return false
	}
	return s.Add(phase, amount)
}

// Scale multiplica el sub-puntaje de una fase.
func (b *ScoreBoard) Scale(id string, phase int, factor float64) {
	s, ok := b.scores[id]
	if !ok || phase < 1 || phase > PhaseCount {
		return
	}
	s.Phases[phase-1] *= factor
}

// RecomputeAll recalcula totales y ponderados de todas las categorías.
func (b *ScoreBoard) RecomputeAll(weights [PhaseCount]float64) {
	for _, id := range b.order {
		b.scores[id].Recompute(weights)
	}
}

// Clone devuelve una copia profunda.
func (b *ScoreBoard) Clone() *ScoreBoard {
	out := &ScoreBoard{
		order:  make([]string, len(b.order)),
		scores: make(map[string]*CategoryScore, len(b.scores)),
	}
	copy(out.order, b.order)
	for id, s := range b.scores {
		cp := *s
		out.scores[id] = &cp
	}
	return out
}

// Map exporta los puntajes como mapa plano (para snapshots y export).
func (b *ScoreBoard) Map() map[string]CategoryScore {
	out := make(map[string]CategoryScore, len(b.scores))
	for id, s := range b.scores {
		out[id] = *s
	}
	return out
}
