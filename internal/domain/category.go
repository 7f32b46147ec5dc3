package domain

// Gender es la selección de género de una corrida. Vacío significa sin definir.
type Gender string

const (
	GenderUnset  Gender = ""
	GenderMale   Gender = "male"
	GenderFemale Gender = "female"
)

// ParseGender acepta "male"/"female"; cualquier otro valor es inválido.
func ParseGender(s string) (Gender, bool) {
	switch Gender(s) {
	case GenderMale, GenderFemale:
		return Gender(s), true
	}
	return GenderUnset, false
}

// Resolved devuelve el género efectivo: todo lo que no sea female cae en male.
func (g Gender) Resolved() Gender {
	if g == GenderFemale {
		return GenderFemale
	}
	return GenderMale
}

// Bracket es la señal opcional de "fast-track" (rango de IQ) para filtrar preguntas.
type Bracket string

const (
	BracketUnset        Bracket = ""
	BracketUnknown      Bracket = "unknown"
	BracketLow          Bracket = "low"
	BracketAverage      Bracket = "average"
	BracketAboveAverage Bracket = "above_average"
	BracketGifted       Bracket = "gifted"
)

// ParseBracket valida un bracket recibido desde afuera.
func ParseBracket(s string) (Bracket, bool) {
	switch b := Bracket(s); b {
	case BracketUnset, BracketUnknown, BracketLow, BracketAverage, BracketAboveAverage, BracketGifted:
		return b, true
	}
	return BracketUnset, false
}

// Category es un arquetipo (o vector, dimensión) que acumula evidencia.
type Category struct {
	ID          string   `yaml:"id" json:"id"`
	Name        string   `yaml:"name" json:"name"`
	SocialRole  string   `yaml:"socialRole,omitempty" json:"social_role,omitempty"`
	Description string   `yaml:"description,omitempty" json:"description,omitempty"`
	GrowthEdge  string   `yaml:"growthEdge,omitempty" json:"growth_edge,omitempty"`
	Gender      Gender   `yaml:"gender,omitempty" json:"gender,omitempty"`
	Subtypes    []string `yaml:"subtypes,omitempty" json:"subtypes,omitempty"`
	ParentType  string   `yaml:"parentType,omitempty" json:"parent_type,omitempty"`
	IsShadow    bool     `yaml:"isShadow,omitempty" json:"is_shadow,omitempty"`
}

// Group agrupa categorías de un mismo núcleo (alpha, beta, ...).
type Group struct {
	ID      string   `yaml:"id" json:"id"`
	Members []string `yaml:"members" json:"members"`
}
