package engine

import (
	"math"
	"math/rand/v2"
	"sort"

	"psy-assess/internal/catalog"
	"psy-assess/internal/domain"
)

// diversityShare es la fracción del cupo que se llena priorizando categorías nuevas.
const diversityShare = 0.7

// SequenceContext lleva lo que la construcción de secuencia necesita de la corrida.
type SequenceContext struct {
	Gender  domain.Gender
	Bracket domain.Bracket
	Rand    *rand.Rand
}

// BuildSequence arma la secuencia de preguntas de una fase: filtra por
// relevancia si hay bracket, reincorpora las preguntas de contexto y mezcla.
func BuildSequence(p catalog.Phase, sc SequenceContext) []domain.Question {
	pool := p.Pool(sc.Gender)

	var carved, others []domain.Question
	for _, q := range pool {
		if q.IsContextOnly() {
			carved = append(carved, q)
			continue
		}
		others = append(others, q)
	}

	selected := others
	if p.Target > 0 && p.Target < len(others) {
		switch sc.Bracket {
		case domain.BracketUnset:
		case domain.BracketUnknown:
			selected = others[:p.Target]
		default:
			selected = filterByRelevance(others, p.Target, sc.Bracket, sc.Rand)
		}
	}

	out := make([]domain.Question, 0, len(selected)+len(carved))
	out = append(out, selected...)
	out = append(out, carved...)
	if sc.Rand != nil {
		sc.Rand.Shuffle(len(out), func(i, j int) { out[i], out[j] = out[j], out[i] })
	}
	return out
}

type rankedQuestion struct {
	q     domain.Question
	score int
	tie   float64
	ids   []string
	taken bool
}

func filterByRelevance(pool []domain.Question, target int, b domain.Bracket, rng *rand.Rand) []domain.Question {
	ranked := make([]*rankedQuestion, len(pool))
	for i, q := range pool {
		ids := q.LinkedCategories()
		rq := &rankedQuestion{q: q, ids: ids, score: Relevance(b, ids)}
		if rng != nil {
			rq.tie = rng.Float64()
		}
		ranked[i] = rq
	}
	sort.SliceStable(ranked, func(i, j int) bool {
		if ranked[i].score != ranked[j].score {
			return ranked[i].score > ranked[j].score
		}
		return ranked[i].tie < ranked[j].tie
	})

	diversityQuota := int(math.Ceil(diversityShare * float64(target)))
	seen := make(map[string]struct{})
	selected := make([]domain.Question, 0, target)
	for _, rq := range ranked {
		if len(selected) >= target {
			break
		}
		novel := false
		for _, id := range rq.ids {
			if _, ok := seen[id]; !ok {
				novel = true
				break
			}
		}
		if !novel && len(selected) < diversityQuota {
			continue
		}
		rq.taken = true
		selected = append(selected, rq.q)
		for _, id := range rq.ids {
			seen[id] = struct{}{}
		}
	}
	for _, rq := range ranked {
		if len(selected) >= target {
			break
		}
		if !rq.taken {
			rq.taken = true
			selected = append(selected, rq.q)
		}
	}
	return selected
}
