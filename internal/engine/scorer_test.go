package engine

import (
	"errors"
	"math"
	"testing"

	"psy-assess/internal/domain"
)

func TestScoreAnswer_ForcedChoiceUsesPhaseMultiplier(t *testing.T) {
	q := domain.Question{
		ID:    "q1",
		Phase: 1,
		Type:  domain.QuestionForcedChoice,
		Options: []domain.Option{
			{Text: "a", Categories: []string{"beta"}},
			{Text: "b", Categories: []string{"alpha"}, Weight: 2},
		},
	}
	deltas, issues := ScoreAnswer(q, domain.SingleChoice(1), domain.GenderMale)
	if len(issues) != 0 {
		t.Fatalf("unexpected issues: %v", issues)
	}
	if len(deltas) != 1 {
		t.Fatalf("expected one delta, got %v", deltas)
	}
	if d := deltas[0]; d.Category != "alpha" || d.Phase != 1 || d.Amount != 6 {
		t.Fatalf("unexpected delta %+v", d)
	}
}

func TestScoreAnswer_LikertCentersOnMidpoint(t *testing.T) {
	q := domain.Question{
		ID:         "q2",
		Phase:      2,
		Type:       domain.QuestionLikert,
		Categories: []domain.WeightedCategory{{ID: "gamma", Weight: 1}, {ID: "sigma"}},
	}
	cases := []struct {
		value float64
		want  float64
	}{
		{5, 4},
		{3, 0},
		{1, -4},
	}
	for _, tc := range cases {
		deltas, _ := ScoreAnswer(q, domain.Scale(tc.value), domain.GenderMale)
		if len(deltas) != 2 {
			t.Fatalf("expected two deltas, got %v", deltas)
		}
		for _, d := range deltas {
			if d.Amount != tc.want {
				t.Fatalf("value %v: %s got %v, want %v", tc.value, d.Category, d.Amount, tc.want)
			}
		}
	}
}

func TestScoreAnswer_FemaleRemap(t *testing.T) {
	q := domain.Question{
		ID:      "q3",
		Phase:   1,
		Type:    domain.QuestionForcedChoice,
		Options: []domain.Option{{Text: "lead", Categories: []string{"alpha"}}},
	}
	deltas, _ := ScoreAnswer(q, domain.SingleChoice(0), domain.GenderFemale)
	if len(deltas) != 1 || deltas[0].Category != "alpha_female" {
		t.Fatalf("expected alpha_female delta, got %v", deltas)
	}
}

func TestScoreAnswer_MultiSelectFansOut(t *testing.T) {
	q := domain.Question{
		ID:    "q4",
		Phase: 4,
		Type:  domain.QuestionMultiSelect,
		Options: []domain.Option{
			{Text: "a", Categories: []string{"alpha", "gamma"}},
			{Text: "b", Categories: []string{"beta"}, Weight: 3},
		},
	}
	deltas, _ := ScoreAnswer(q, domain.MultiChoice(0, 1), domain.GenderMale)
	got := make(map[string]float64)
	for _, d := range deltas {
		got[d.Category] += d.Amount
	}
	want := map[string]float64{"alpha": 0.5, "gamma": 0.5, "beta": 1.5}
	for id, v := range want {
		if got[id] != v {
			t.Fatalf("%s: got %v, want %v", id, got[id], v)
		}
	}
}

func TestScoreAnswer_MalformedOptionIsSkipped(t *testing.T) {
	q := domain.Question{
		ID:    "q5",
		Phase: 1,
		Type:  domain.QuestionMultiSelect,
		Options: []domain.Option{
			{Text: "empty"},
			{Text: "ok", Categories: []string{"delta"}},
		},
	}
	deltas, issues := ScoreAnswer(q, domain.MultiChoice(0, 1), domain.GenderMale)
	if len(issues) != 1 || issues[0].Option != 0 {
		t.Fatalf("expected one issue for option 0, got %v", issues)
	}
	if len(deltas) != 1 || deltas[0].Category != "delta" {
		t.Fatalf("expected delta contribution to survive, got %v", deltas)
	}
}

func TestScoreAnswer_ContextOnlyDoesNotScore(t *testing.T) {
	respect := domain.Question{
		ID: "r", Phase: 3, Type: domain.QuestionLikert,
		IsRespectContext: true, RespectContextKey: domain.RespectSocial, RespectContextType: domain.RespectFeel,
		Categories: []domain.WeightedCategory{{ID: "alpha", Weight: 1}},
	}
	if deltas, issues := ScoreAnswer(respect, domain.Scale(5), domain.GenderMale); deltas != nil || issues != nil {
		t.Fatalf("respect question scored: %v %v", deltas, issues)
	}
	aspiration := domain.Question{
		ID: "a", Phase: 3, Type: domain.QuestionMultiSelect, IsAspiration: true,
		Options: []domain.Option{{Text: "x", Categories: []string{"alpha"}, AspirationTarget: "alpha"}},
	}
	if deltas, _ := ScoreAnswer(aspiration, domain.MultiChoice(0), domain.GenderMale); deltas != nil {
		t.Fatalf("aspiration question scored: %v", deltas)
	}
}

func TestNormalizeAnswer(t *testing.T) {
	single := domain.Question{ID: "s", Phase: 1, Type: domain.QuestionForcedChoice, Options: []domain.Option{{Text: "a"}, {Text: "b"}}}
	multi := domain.Question{ID: "m", Phase: 1, Type: domain.QuestionMultiSelect, Options: []domain.Option{{Text: "a"}, {Text: "b"}, {Text: "c"}}}
	likert := domain.Question{ID: "l", Phase: 2, Type: domain.QuestionLikert}
	scaled := domain.Question{ID: "x", Phase: 2, Type: domain.QuestionScaled, Scale: 7}

	got, err := NormalizeAnswer(multi, domain.MultiChoice(2, 0, 2))
	if err != nil {
		t.Fatalf("normalize multi: %v", err)
	}
	if got.Kind != domain.AnswerMulti || len(got.Indices) != 2 || got.Indices[0] != 0 || got.Indices[1] != 2 {
		t.Fatalf("unexpected normalized multi %+v", got)
	}

	got, err = NormalizeAnswer(single, domain.MultiChoice(1))
	if err != nil {
		t.Fatalf("normalize single from multi: %v", err)
	}
	if got.Kind != domain.AnswerSingle || got.Index != 1 {
		t.Fatalf("expected single choice 1, got %+v", got)
	}

	if _, err := NormalizeAnswer(scaled, domain.Scale(7)); err != nil {
		t.Fatalf("scaled 7 should be valid: %v", err)
	}

	bad := []struct {
		name string
		q    domain.Question
		v    domain.AnswerValue
	}{
		{"index out of range", single, domain.SingleChoice(2)},
		{"negative index", single, domain.SingleChoice(-1)},
		{"two options on single", single, domain.MultiChoice(0, 1)},
		{"empty multi", multi, domain.MultiChoice()},
		{"scale on selection", single, domain.Scale(3)},
		{"selection on scale", likert, domain.SingleChoice(0)},
		{"scale too high", likert, domain.Scale(6)},
		{"scale too low", likert, domain.Scale(0)},
		{"nan", likert, domain.Scale(math.NaN())},
		{"unsupported type", domain.Question{ID: "u", Type: "essay"}, domain.Scale(1)},
	}
	for _, tc := range bad {
		t.Run(tc.name, func(t *testing.T) {
			if _, err := NormalizeAnswer(tc.q, tc.v); !errors.Is(err, ErrValidation) {
				t.Fatalf("expected ErrValidation, got %v", err)
			}
		})
	}
}
