package domain

import "time"

// RankedCategory es una categoría en el ranking final.
type RankedCategory struct {
	ID          string  `json:"id"`
	Name        string  `json:"name"`
	ParentType  string  `json:"parent_type,omitempty"`
	Score       float64 `json:"score"`
	TotalScore  float64 `json:"total_score"`
	Confidence  float64 `json:"confidence"`
	SocialRole  string  `json:"social_role,omitempty"`
	Description string  `json:"description,omitempty"`
}

// ConfidenceLevels resume las confianzas reportadas.
type ConfidenceLevels struct {
	Primary   float64 `json:"primary"`
	Secondary float64 `json:"secondary"`
	Tertiary  float64 `json:"tertiary"`
}

// GroupScore es el puntaje de fase 1 agregado por grupo núcleo.
type GroupScore struct {
	GroupID string  `json:"group_id"`
	Score   float64 `json:"score"`
}

// InsightEntry es un elemento de los análisis intermedios por fase.
type InsightEntry struct {
	ID          string  `json:"id"`
	Name        string  `json:"name,omitempty"`
	Score       float64 `json:"score,omitempty"`
	Description string  `json:"description,omitempty"`
}

// PhaseInsights conserva los análisis de cierre de fase.
type PhaseInsights struct {
	CoreGroups     []GroupScore   `json:"core_groups,omitempty"`
	TopSubtypes    []InsightEntry `json:"top_subtypes,omitempty"`
	Shadow         []InsightEntry `json:"shadow,omitempty"`
	Aspirational   []InsightEntry `json:"aspirational,omitempty"`
	RespectPattern string         `json:"respect_pattern,omitempty"`
	ProvisionLevel string         `json:"provision_level,omitempty"`
}

// Result es inmutable una vez producido por el agregador.
type Result struct {
	Gender           Gender             `json:"gender"`
	Primary          RankedCategory     `json:"primary"`
	Secondary        *RankedCategory    `json:"secondary,omitempty"`
	Tertiary         *RankedCategory    `json:"tertiary,omitempty"`
	ConfidenceLevels ConfidenceLevels   `json:"confidence_levels"`
	Ranking          []RankedCategory   `json:"ranking"`
	Adjustments      map[string]float64 `json:"adjustments,omitempty"`
	Insights         PhaseInsights      `json:"insights"`
	CompletedAt      time.Time          `json:"completed_at"`
}

// Progress es la señal de avance hacia la capa de presentación.
type Progress struct {
	Phase        int `json:"phase"`
	CurrentIndex int `json:"current_index"`
	Total        int `json:"total"`
}
