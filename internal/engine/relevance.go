package engine

import "psy-assess/internal/domain"

const (
	strongRelevance      = 3
	implausibleRelevance = -1
)

type relevanceSet struct {
	strong      []string
	partial     map[string]int
	implausible []string
}

var bracketRelevance = map[domain.Bracket]relevanceSet{
	domain.BracketLow: {
		strong:      []string{"delta", "beta", "omega"},
		partial:     map[string]int{"alpha": 1, "beta_nu": 2, "delta_mu": 2},
		implausible: []string{"gamma", "phi", "sigma_lambda"},
	},
	domain.BracketAverage: {
		strong:      []string{"alpha", "beta", "delta"},
		partial:     map[string]int{"gamma": 1, "sigma": 1, "omega": 1, "alpha_xi": 2, "beta_nu": 2},
		implausible: []string{"phi"},
	},
	domain.BracketAboveAverage: {
		strong:      []string{"gamma", "sigma", "alpha_rho"},
		partial:     map[string]int{"alpha": 2, "gamma_theta": 2, "sigma_kappa": 1, "delta": 1},
		implausible: []string{"dark_omega"},
	},
	domain.BracketGifted: {
		strong:      []string{"gamma", "sigma", "phi"},
		partial:     map[string]int{"gamma_pi": 2, "sigma_lambda": 2, "alpha_rho": 1},
		implausible: []string{"delta", "beta_iota"},
	},
}

func (s relevanceSet) weight(id string) int {
	for _, x := range s.strong {
		if x == id {
			return strongRelevance
		}
	}
	if w, ok := s.partial[id]; ok {
		return w
	}
	for _, x := range s.implausible {
		if x == id {
			return implausibleRelevance
		}
	}
	return 0
}

// Relevance puntúa una lista de ids neutrales contra el bracket. Brackets sin
// tabla (unset, unknown) puntúan 0.
func Relevance(b domain.Bracket, ids []string) int {
	set, ok := bracketRelevance[b]
	if !ok {
		return 0
	}
	score := 0
	for _, id := range ids {
		score += set.weight(id)
	}
	return score
}
