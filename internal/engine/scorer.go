package engine

import (
	"fmt"
	"math"
	"sort"

	"psy-assess/internal/domain"
)

// Delta es una contribución ya multiplicada y traducida al género.
type Delta struct {
	Category string  `json:"category"`
	Phase    int     `json:"phase"`
	Amount   float64 `json:"amount"`
}

// NormalizeAnswer valida el valor contra el tipo de pregunta y lo deja en su
// forma canónica: índices sin repetir y ordenados, un único índice como
// SingleChoice cuando la pregunta no admite varios.
func NormalizeAnswer(q domain.Question, v domain.AnswerValue) (domain.AnswerValue, error) {
	switch {
	case q.Type.IsSelection():
		var picked []int
		switch v.Kind {
		case domain.AnswerSingle, domain.AnswerMulti:
			picked = v.Selected()
		default:
			return domain.AnswerValue{}, fmt.Errorf("%w: question %q expects a selection", ErrValidation, q.ID)
		}
		seen := make(map[int]struct{}, len(picked))
		uniq := make([]int, 0, len(picked))
		for _, i := range picked {
			if i < 0 || i >= len(q.Options) {
				return domain.AnswerValue{}, fmt.Errorf("%w: question %q has no option %d", ErrValidation, q.ID, i)
			}
			if _, dup := seen[i]; dup {
				continue
			}
			seen[i] = struct{}{}
			uniq = append(uniq, i)
		}
		if len(uniq) == 0 {
			return domain.AnswerValue{}, fmt.Errorf("%w: question %q needs at least one option", ErrValidation, q.ID)
		}
		if !q.Type.AllowsMultiple() {
			if len(uniq) > 1 {
				return domain.AnswerValue{}, fmt.Errorf("%w: question %q accepts a single option", ErrValidation, q.ID)
			}
			return domain.SingleChoice(uniq[0]), nil
		}
		sort.Ints(uniq)
		return domain.MultiChoice(uniq...), nil

	case q.Type.IsScale():
		if v.Kind != domain.AnswerScale {
			return domain.AnswerValue{}, fmt.Errorf("%w: question %q expects a scale value", ErrValidation, q.ID)
		}
		if math.IsNaN(v.Value) || v.Value < 1 || v.Value > float64(q.ScaleMax()) {
			return domain.AnswerValue{}, fmt.Errorf("%w: question %q value %v outside 1..%d", ErrValidation, q.ID, v.Value, q.ScaleMax())
		}
		return domain.Scale(v.Value), nil
	}
	return domain.AnswerValue{}, fmt.Errorf("%w: question %q has unsupported type %q", ErrValidation, q.ID, q.Type)
}

// ScoreAnswer convierte una respuesta normalizada en contribuciones por
// categoría. Las preguntas de contexto no puntúan. Los datos incompletos se
// devuelven como IntegrityIssue y se omiten.
func ScoreAnswer(q domain.Question, v domain.AnswerValue, g domain.Gender) ([]Delta, []IntegrityIssue) {
	if q.IsContextOnly() {
		return nil, nil
	}
	mult := Multiplier(q.Phase)
	if mult == 0 {
		return nil, []IntegrityIssue{{QuestionID: q.ID, Option: -1, Reason: fmt.Sprintf("phase %d has no multiplier", q.Phase)}}
	}

	var deltas []Delta
	var issues []IntegrityIssue
	switch {
	case q.Type.IsSelection():
		for _, idx := range v.Selected() {
			if idx < 0 || idx >= len(q.Options) {
				issues = append(issues, IntegrityIssue{QuestionID: q.ID, Option: idx, Reason: "option out of range"})
				continue
			}
			opt := q.Options[idx]
			if len(opt.Categories) == 0 {
				issues = append(issues, IntegrityIssue{QuestionID: q.ID, Option: idx, Reason: "option has no categories"})
				continue
			}
			amount := opt.EffectiveWeight() * mult
			for _, id := range opt.Categories {
				if id == "" {
					issues = append(issues, IntegrityIssue{QuestionID: q.ID, Option: idx, Reason: "empty category id"})
					continue
				}
				deltas = append(deltas, Delta{Category: Remap(g, id), Phase: q.Phase, Amount: amount})
			}
		}

	case q.Type.IsScale():
		if v.Kind != domain.AnswerScale {
			return nil, []IntegrityIssue{{QuestionID: q.ID, Option: -1, Reason: "scale question without scale value"}}
		}
		if len(q.Categories) == 0 {
			return nil, []IntegrityIssue{{QuestionID: q.ID, Option: -1, Reason: "scale question has no categories"}}
		}
		centered := v.Value - q.ScaleMidpoint()
		for _, wc := range q.Categories {
			if wc.ID == "" {
				issues = append(issues, IntegrityIssue{QuestionID: q.ID, Option: -1, Reason: "empty category id"})
				continue
			}
			deltas = append(deltas, Delta{Category: Remap(g, wc.ID), Phase: q.Phase, Amount: centered * wc.EffectiveWeight() * mult})
		}
	}
	return deltas, issues
}
