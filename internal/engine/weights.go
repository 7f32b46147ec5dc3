package engine

import "psy-assess/internal/domain"

// phaseMultipliers se aplican a cada contribución antes de acumularla.
var phaseMultipliers = [domain.PhaseCount]float64{3, 2, 1, 0.5, 1}

// Multiplier devuelve el multiplicador de la fase; fuera de rango es 0.
func Multiplier(phase int) float64 {
	if phase < 1 || phase > domain.PhaseCount {
		return 0
	}
	return phaseMultipliers[phase-1]
}

// Pesos de fase calibrados para que, junto con los multiplicadores, la
// contribución efectiva sea 45/28/14/7/6 % (male) y 42/28/14/7/9 % (female).
var (
	maleWeights   = [domain.PhaseCount]float64{0.2380952, 0.2222222, 0.2222222, 0.2222222, 0.0952381}
	femaleWeights = [domain.PhaseCount]float64{0.2153846, 0.2153846, 0.2153846, 0.2153846, 0.1384615}
)

// PhaseWeights devuelve la tabla de pesos del género; unset usa la de male.
func PhaseWeights(g domain.Gender) [domain.PhaseCount]float64 {
	if g == domain.GenderFemale {
		return femaleWeights
	}
	return maleWeights
}
