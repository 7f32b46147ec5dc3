package engine

import (
	"sort"

	"psy-assess/internal/catalog"
	"psy-assess/internal/domain"
)

const (
	secondaryThreshold = 0.25
	tertiaryThreshold  = 0.15

	// thresholdTolerance absorbe el redondeo de los pesos de fase: una fracción
	// exacta del primario no califica.
	thresholdTolerance = 1e-9
)

// Aggregate recalcula total y ponderado con la tabla del género, ordena y
// elige primaria, secundaria y terciaria. Los ajustes ya deben estar aplicados
// al tablero.
func Aggregate(cat *catalog.Catalog, board *domain.ScoreBoard, g domain.Gender) domain.Result {
	board.RecomputeAll(PhaseWeights(g))

	ids := board.IDs()
	scores := make(map[string]domain.CategoryScore, len(ids))
	sum := 0.0
	for i, id := range ids {
		ids[i] = Remap(g, id)
		s, _ := board.Get(id)
		scores[ids[i]] = s
		sum += s.Weighted
	}
	sort.SliceStable(ids, func(i, j int) bool { return scores[ids[i]].Weighted > scores[ids[j]].Weighted })

	res := domain.Result{Gender: g, Ranking: make([]domain.RankedCategory, 0, len(ids))}
	for _, id := range ids {
		res.Ranking = append(res.Ranking, rankedEntry(cat, id, scores[id], sum))
	}
	if len(res.Ranking) == 0 {
		return res
	}

	top := res.Ranking[0]
	res.Primary = refineSubtype(cat, board, top)
	res.ConfidenceLevels.Primary = top.Confidence

	if len(res.Ranking) > 1 && exceeds(res.Ranking[1].Score, top.Score, secondaryThreshold) {
		sec := refineSubtype(cat, board, res.Ranking[1])
		res.Secondary = &sec
		res.ConfidenceLevels.Secondary = sec.Confidence
	}
	if len(res.Ranking) > 2 && exceeds(res.Ranking[2].Score, top.Score, tertiaryThreshold) {
		ter := refineSubtype(cat, board, res.Ranking[2])
		res.Tertiary = &ter
		res.ConfidenceLevels.Tertiary = ter.Confidence
	}
	return res
}

// exceeds indica si score supera estrictamente la fracción frac de top.
func exceeds(score, top, frac float64) bool {
	return score > frac*top*(1+thresholdTolerance)
}

func rankedEntry(cat *catalog.Catalog, id string, s domain.CategoryScore, sum float64) domain.RankedCategory {
	e := domain.RankedCategory{ID: id, Name: id, Score: s.Weighted, TotalScore: s.Total}
	if sum > 0 {
		e.Confidence = s.Weighted / sum * 100
	}
	if c, ok := cat.Category(id); ok {
		e.Name = c.Name
		e.ParentType = c.ParentType
		e.SocialRole = c.SocialRole
		e.Description = c.Description
	}
	return e
}

// refineSubtype sustituye la identidad mostrada por el subtipo con mayor
// puntaje de fase2, solo si es estrictamente positivo. Puntaje y confianza
// siguen siendo los de la categoría padre.
func refineSubtype(cat *catalog.Catalog, board *domain.ScoreBoard, e domain.RankedCategory) domain.RankedCategory {
	c, ok := cat.Category(e.ID)
	if !ok || len(c.Subtypes) == 0 {
		return e
	}
	best, bestScore := "", 0.0
	for _, sub := range c.Subtypes {
		s, ok := board.Get(sub)
		if !ok {
			continue
		}
		if p2 := s.Phase(2); p2 > bestScore {
			best, bestScore = sub, p2
		}
	}
	if best == "" {
		return e
	}
	out := e
	out.ID = best
	out.Name = best
	out.ParentType = e.ID
	out.SocialRole = ""
	out.Description = ""
	if sc, ok := cat.Category(best); ok {
		out.Name = sc.Name
		out.SocialRole = sc.SocialRole
		out.Description = sc.Description
	}
	return out
}
