package engine

import (
	"testing"

	"psy-assess/internal/domain"
)

func respectContext(socialFeel, socialDef, businessFeel, businessDef float64) domain.ContextAnswers {
	ctx := make(domain.ContextAnswers)
	ctx.Set(domain.RespectSocial, domain.RespectFeel, socialFeel)
	ctx.Set(domain.RespectSocial, domain.RespectDeference, socialDef)
	ctx.Set(domain.RespectBusiness, domain.RespectFeel, businessFeel)
	ctx.Set(domain.RespectBusiness, domain.RespectDeference, businessDef)
	return ctx
}

func TestComputeAdjustments_RespectLowHighDampensAlpha(t *testing.T) {
	adj := ComputeAdjustments(AdjustmentInput{
		Gender:  domain.GenderMale,
		Context: respectContext(1, 2, 4, 5),
	})
	if adj.RespectPattern != RespectLowHigh {
		t.Fatalf("expected low_high, got %q", adj.RespectPattern)
	}

	board := domain.NewScoreBoard([]string{"alpha", "delta"})
	board.Add("alpha", 1, 10)
	board.Add("alpha", 3, 10)
	board.Add("delta", 2, 4)
	adj.Apply(board, domain.GenderMale)

	alpha, _ := board.Get("alpha")
	if !approx(alpha.Phase(1), 8) {
		t.Fatalf("alpha phase1 = %v, want 8", alpha.Phase(1))
	}
	if alpha.Phase(3) != 10 {
		t.Fatalf("phase3 must not be adjusted, got %v", alpha.Phase(3))
	}
	delta, _ := board.Get("delta")
	if !approx(delta.Phase(2), 4.6) {
		t.Fatalf("delta phase2 = %v, want 4.6", delta.Phase(2))
	}
}

func TestComputeAdjustments_RespectWithoutTable(t *testing.T) {
	adj := ComputeAdjustments(AdjustmentInput{Gender: domain.GenderMale, Context: respectContext(3, 3, 5, 5)})
	if adj.RespectPattern != "mid_high" {
		t.Fatalf("expected mid_high, got %q", adj.RespectPattern)
	}
	if len(adj.Factors) != 0 {
		t.Fatalf("mid pattern must not adjust, got %v", adj.Factors)
	}
}

func TestComputeAdjustments_RespectNeedsBothContexts(t *testing.T) {
	ctx := make(domain.ContextAnswers)
	ctx.Set(domain.RespectSocial, domain.RespectFeel, 1)
	adj := ComputeAdjustments(AdjustmentInput{Gender: domain.GenderMale, Context: ctx})
	if adj.RespectPattern != "" || len(adj.Respect) != 0 {
		t.Fatalf("expected no respect adjustment, got %q %v", adj.RespectPattern, adj.Respect)
	}

	ctx.Set(domain.RespectBusiness, domain.RespectDeference, 1)
	adj = ComputeAdjustments(AdjustmentInput{Gender: domain.GenderMale, Context: ctx})
	if adj.RespectPattern != RespectLowLow {
		t.Fatalf("a single measure per context is enough, got %q", adj.RespectPattern)
	}
}

func TestComputeAdjustments_Aspiration(t *testing.T) {
	adj := ComputeAdjustments(AdjustmentInput{
		Gender: domain.GenderMale,
		Aspirations: []domain.AspirationAnswer{
			{QuestionID: "a1", Targets: []string{"alpha"}},
			{QuestionID: "a2", Targets: []string{"alpha", "sigma"}},
		},
		Behavioral: []string{"gamma", "omega", "alpha"},
	})
	if adj.AspiredTarget != "alpha" || adj.AspiredCount != 2 {
		t.Fatalf("unexpected aspired target %q x%d", adj.AspiredTarget, adj.AspiredCount)
	}
	want := map[string]float64{"gamma": 1.3, "omega": 1.4, "alpha": 0.8}
	if len(adj.Aspiration) != len(want) {
		t.Fatalf("unexpected aspiration factors %v", adj.Aspiration)
	}
	for id, f := range want {
		if adj.Aspiration[id] != f {
			t.Fatalf("%s: got %v, want %v", id, adj.Aspiration[id], f)
		}
	}
}

func TestComputeAdjustments_AspirationSkipped(t *testing.T) {
	cases := []struct {
		name        string
		aspirations []domain.AspirationAnswer
		behavioral  []string
	}{
		{
			name:        "aspired already in top two",
			aspirations: []domain.AspirationAnswer{{Targets: []string{"alpha"}}, {Targets: []string{"alpha"}}},
			behavioral:  []string{"gamma", "alpha"},
		},
		{
			name:        "cited only once",
			aspirations: []domain.AspirationAnswer{{Targets: []string{"alpha", "sigma"}}},
			behavioral:  []string{"gamma", "omega"},
		},
		{
			name:        "behavioral not in top two",
			aspirations: []domain.AspirationAnswer{{Targets: []string{"alpha"}}, {Targets: []string{"alpha"}}},
			behavioral:  []string{"sigma", "phi", "gamma"},
		},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			adj := ComputeAdjustments(AdjustmentInput{Gender: domain.GenderMale, Aspirations: tc.aspirations, Behavioral: tc.behavioral})
			if len(adj.Aspiration) != 0 {
				t.Fatalf("expected no aspiration factors, got %v", adj.Aspiration)
			}
		})
	}
}

func TestComputeAdjustments_Provision(t *testing.T) {
	low := ComputeAdjustments(AdjustmentInput{Gender: domain.GenderMale, ProvisionValues: []float64{2, 3}})
	if low.ProvisionLevel != BandLow || low.Factors["delta"] != 1.22 || low.Factors["alpha"] != 0.78 {
		t.Fatalf("unexpected low provision %q %v", low.ProvisionLevel, low.Factors)
	}

	high := ComputeAdjustments(AdjustmentInput{Gender: domain.GenderMale, ProvisionValues: []float64{4, 5}})
	if high.ProvisionLevel != BandHigh || len(high.Factors) != 0 {
		t.Fatalf("unexpected high provision %q %v", high.ProvisionLevel, high.Factors)
	}

	female := ComputeAdjustments(AdjustmentInput{Gender: domain.GenderFemale, ProvisionValues: []float64{1}})
	if female.ProvisionLevel != "" || len(female.Factors) != 0 {
		t.Fatalf("provision applies to male runs only, got %q %v", female.ProvisionLevel, female.Factors)
	}
}

func TestComputeAdjustments_CombinesMultiplicatively(t *testing.T) {
	adj := ComputeAdjustments(AdjustmentInput{
		Gender:          domain.GenderMale,
		Context:         respectContext(1, 2, 5, 4),
		ProvisionValues: []float64{2, 3},
	})
	if !approx(adj.Factors["alpha"], 0.8*0.78) {
		t.Fatalf("alpha factor = %v", adj.Factors["alpha"])
	}
	if !approx(adj.Factors["delta"], 1.15*1.22) {
		t.Fatalf("delta factor = %v", adj.Factors["delta"])
	}
	if adj.Factors["gamma"] != 1.1 || adj.Factors["beta_nu"] != 1.2 {
		t.Fatalf("single-source factors changed: %v", adj.Factors)
	}
}

func TestAdjustmentsApply_Female(t *testing.T) {
	adj := ComputeAdjustments(AdjustmentInput{Gender: domain.GenderFemale, Context: respectContext(1, 1, 5, 5)})
	board := domain.NewScoreBoard([]string{"alpha_female", "gamma_female"})
	board.Add("alpha_female", 1, 10)
	board.Add("gamma_female", 2, 10)
	adj.Apply(board, domain.GenderFemale)

	if s, _ := board.Get("alpha_female"); !approx(s.Phase(1), 8) {
		t.Fatalf("alpha_female phase1 = %v, want 8", s.Phase(1))
	}
	if s, _ := board.Get("gamma_female"); !approx(s.Phase(2), 11) {
		t.Fatalf("gamma_female phase2 = %v, want 11", s.Phase(2))
	}
}

func TestBehavioralRanking(t *testing.T) {
	board := domain.NewScoreBoard([]string{"alpha_female", "beta_female", "alpha_xi_female"})
	board.Add("beta_female", 1, 3)
	board.Add("alpha_xi_female", 2, 5)
	board.Add("alpha_female", 3, 50)

	got := BehavioralRanking(board, domain.GenderFemale)
	want := []string{"alpha_xi", "beta", "alpha"}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("ranking = %v, want %v", got, want)
		}
	}
}
