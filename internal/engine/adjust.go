package engine

import (
	"sort"

	"psy-assess/internal/domain"
)

// AspirationRule: si el objetivo más citado es Aspired, se repite al menos
// MinCount veces, no está en el top-2 conductual y Behavioral sí lo está, se
// potencia Behavioral y se atenúa Aspired.
type AspirationRule struct {
	Aspired    string
	Behavioral string
	MinCount   int
	Boost      float64
	Suppress   float64
}

var aspirationRules = map[domain.Gender][]AspirationRule{
	domain.GenderMale: {
		{Aspired: "alpha", Behavioral: "gamma", MinCount: 2, Boost: 1.3, Suppress: 0.85},
		{Aspired: "alpha", Behavioral: "beta", MinCount: 2, Boost: 1.25, Suppress: 0.85},
		{Aspired: "alpha", Behavioral: "delta", MinCount: 2, Boost: 1.2, Suppress: 0.85},
		{Aspired: "alpha", Behavioral: "omega", MinCount: 2, Boost: 1.4, Suppress: 0.8},
		{Aspired: "sigma", Behavioral: "gamma", MinCount: 2, Boost: 1.3, Suppress: 0.8},
		{Aspired: "sigma", Behavioral: "omega", MinCount: 2, Boost: 1.3, Suppress: 0.8},
		{Aspired: "phi", Behavioral: "gamma", MinCount: 2, Boost: 1.2, Suppress: 0.8},
	},
	domain.GenderFemale: {
		{Aspired: "alpha", Behavioral: "beta", MinCount: 2, Boost: 1.25, Suppress: 0.85},
		{Aspired: "alpha", Behavioral: "gamma", MinCount: 2, Boost: 1.3, Suppress: 0.85},
		{Aspired: "alpha", Behavioral: "omega", MinCount: 2, Boost: 1.35, Suppress: 0.8},
		{Aspired: "sigma", Behavioral: "gamma", MinCount: 2, Boost: 1.25, Suppress: 0.8},
		{Aspired: "beta", Behavioral: "omega", MinCount: 2, Boost: 1.2, Suppress: 0.85},
	},
}

// Band clasifica un promedio en low, mid o high.
type Band string

const (
	BandLow  Band = "low"
	BandMid  Band = "mid"
	BandHigh Band = "high"
)

// RespectPattern combina las bandas social y business, p.ej. "low_high".
type RespectPattern string

const (
	RespectLowHigh  RespectPattern = "low_high"
	RespectHighLow  RespectPattern = "high_low"
	RespectLowLow   RespectPattern = "low_low"
	RespectHighHigh RespectPattern = "high_high"
)

var respectTables = map[RespectPattern]map[string]float64{
	RespectLowHigh:  {"alpha": 0.8, "delta": 1.15, "gamma": 1.1, "sigma": 1.1},
	RespectHighLow:  {"beta": 1.15, "alpha": 0.9, "delta": 0.9},
	RespectLowLow:   {"alpha": 0.75, "omega": 1.2, "gamma": 1.1, "sigma": 1.1},
	RespectHighHigh: {"alpha": 1.15, "alpha_xi": 1.1, "omega": 0.8},
}

var lowProvisionTable = map[string]float64{
	"alpha":    0.78,
	"sigma":    0.78,
	"delta":    1.22,
	"beta_nu":  1.2,
	"delta_mu": 1.18,
	"beta":     1.18,
}

func respectBand(v float64) Band {
	switch {
	case v <= 2:
		return BandLow
	case v >= 4:
		return BandHigh
	}
	return BandMid
}

func provisionBand(v float64) Band {
	switch {
	case v <= 2.5:
		return BandLow
	case v >= 4:
		return BandHigh
	}
	return BandMid
}

// AdjustmentInput reúne las señales secundarias de una corrida. Behavioral es
// el ranking por fase1+fase2 en ids neutrales.
type AdjustmentInput struct {
	Gender          domain.Gender
	Context         domain.ContextAnswers
	Aspirations     []domain.AspirationAnswer
	ProvisionValues []float64
	Behavioral      []string
}

// Adjustments son los multiplicadores por id neutral, ya combinados entre fuentes.
type Adjustments struct {
	Factors        map[string]float64
	Aspiration     map[string]float64
	Respect        map[string]float64
	Provision      map[string]float64
	RespectPattern RespectPattern
	ProvisionLevel Band
	AspiredTarget  string
	AspiredCount   int
}

// ComputeAdjustments deriva las tres fuentes de ajuste y las combina
// multiplicando; una categoría ausente del mapa queda en 1.0.
func ComputeAdjustments(in AdjustmentInput) Adjustments {
	g := in.Gender.Resolved()
	out := Adjustments{
		Factors:    make(map[string]float64),
		Aspiration: make(map[string]float64),
		Respect:    make(map[string]float64),
		Provision:  make(map[string]float64),
	}

	out.AspiredTarget, out.AspiredCount = mostCited(in.Aspirations)
	if out.AspiredTarget != "" {
		top := in.Behavioral
		if len(top) > 2 {
			top = top[:2]
		}
		for _, rule := range aspirationRules[g] {
			if rule.Aspired != out.AspiredTarget || out.AspiredCount < rule.MinCount {
				continue
			}
			if contains(top, rule.Aspired) || !contains(top, rule.Behavioral) {
				continue
			}
			out.Aspiration[rule.Behavioral] = rule.Boost
			out.Aspiration[rule.Aspired] = rule.Suppress
		}
	}

	if pattern, ok := respectPatternOf(in.Context); ok {
		out.RespectPattern = pattern
		for id, f := range respectTables[pattern] {
			out.Respect[id] = f
		}
	}

	if g == domain.GenderMale && len(in.ProvisionValues) > 0 {
		out.ProvisionLevel = provisionBand(mean(in.ProvisionValues))
		if out.ProvisionLevel == BandLow {
			for id, f := range lowProvisionTable {
				out.Provision[id] = f
			}
		}
	}

	for _, src := range []map[string]float64{out.Aspiration, out.Respect, out.Provision} {
		for id, f := range src {
			if cur, ok := out.Factors[id]; ok {
				out.Factors[id] = cur * f
				continue
			}
			out.Factors[id] = f
		}
	}
	return out
}

// Apply multiplica fase1 y fase2 de cada categoría ajustada. Debe llamarse una
// sola vez por corrida.
func (a Adjustments) Apply(board *domain.ScoreBoard, g domain.Gender) {
	ids := make([]string, 0, len(a.Factors))
	for id := range a.Factors {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	for _, id := range ids {
		target := Remap(g, id)
		board.Scale(target, 1, a.Factors[id])
		board.Scale(target, 2, a.Factors[id])
	}
}

func respectPatternOf(ctx domain.ContextAnswers) (RespectPattern, bool) {
	social, okS := contextMean(ctx[domain.RespectSocial])
	business, okB := contextMean(ctx[domain.RespectBusiness])
	if !okS || !okB {
		return "", false
	}
	return RespectPattern(string(respectBand(social)) + "_" + string(respectBand(business))), true
}

func contextMean(m map[domain.RespectMeasure]float64) (float64, bool) {
	var vals []float64
	for _, measure := range []domain.RespectMeasure{domain.RespectFeel, domain.RespectDeference} {
		if v, ok := m[measure]; ok {
			vals = append(vals, v)
		}
	}
	if len(vals) == 0 {
		return 0, false
	}
	return mean(vals), true
}

// mostCited devuelve el objetivo más frecuente; el empate lo gana el primero citado.
func mostCited(answers []domain.AspirationAnswer) (string, int) {
	counts := make(map[string]int)
	var order []string
	for _, a := range answers {
		for _, t := range a.Targets {
			if t == "" {
				continue
			}
			if counts[t] == 0 {
				order = append(order, t)
			}
			counts[t]++
		}
	}
	best, bestN := "", 0
	for _, t := range order {
		if counts[t] > bestN {
			best, bestN = t, counts[t]
		}
	}
	return best, bestN
}

// BehavioralRanking ordena las categorías por fase1+fase2 y las devuelve en ids neutrales.
func BehavioralRanking(board *domain.ScoreBoard, g domain.Gender) []string {
	ids := board.IDs()
	early := make(map[string]float64, len(ids))
	for _, id := range ids {
		s, _ := board.Get(id)
		early[id] = s.Phase(1) + s.Phase(2)
	}
	sort.SliceStable(ids, func(i, j int) bool { return early[ids[i]] > early[ids[j]] })
	out := make([]string, len(ids))
	for i, id := range ids {
		out[i] = BaseID(g, id)
	}
	return out
}

func mean(vs []float64) float64 {
	if len(vs) == 0 {
		return 0
	}
	sum := 0.0
	for _, v := range vs {
		sum += v
	}
	return sum / float64(len(vs))
}

func contains(ids []string, id string) bool {
	for _, x := range ids {
		if x == id {
			return true
		}
	}
	return false
}
