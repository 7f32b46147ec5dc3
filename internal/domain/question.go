package domain

// QuestionType identifica el formato de respuesta de una pregunta.
type QuestionType string

const (
	QuestionForcedChoice QuestionType = "forced_choice"
	QuestionMultiSelect  QuestionType = "multi_select"
	QuestionLikert       QuestionType = "likert"
	QuestionNarrative    QuestionType = "narrative"
	QuestionScaled       QuestionType = "scaled"
	QuestionScenario     QuestionType = "scenario"
	QuestionNeedChain    QuestionType = "need_chain"
)

// IsSelection indica si la pregunta se responde eligiendo opciones.
func (t QuestionType) IsSelection() bool {
	switch t {
	case QuestionForcedChoice, QuestionMultiSelect, QuestionNarrative, QuestionScenario, QuestionNeedChain:
		return true
	}
	return false
}

// IsScale indica si la pregunta se responde con un valor en escala lineal.
func (t QuestionType) IsScale() bool {
	return t == QuestionLikert || t == QuestionScaled
}

// AllowsMultiple indica si se aceptan varias opciones a la vez.
func (t QuestionType) AllowsMultiple() bool {
	return t == QuestionMultiSelect || t == QuestionNeedChain
}

// RespectContext es el ámbito de una pregunta de contexto de respeto.
type RespectContext string

const (
	RespectSocial   RespectContext = "social"
	RespectBusiness RespectContext = "business"
)

// RespectMeasure es la dimensión medida dentro de un contexto de respeto.
type RespectMeasure string

const (
	RespectFeel      RespectMeasure = "feel"
	RespectDeference RespectMeasure = "deference"
)

const DefaultLikertScale = 5

// WeightedCategory vincula una pregunta de escala con una categoría.
type WeightedCategory struct {
	ID     string  `yaml:"id" json:"id"`
	Weight float64 `yaml:"weight" json:"weight"`
}

// EffectiveWeight devuelve el peso; 0 (o ausente) se interpreta como 1.
func (c WeightedCategory) EffectiveWeight() float64 {
	if c.Weight == 0 {
		return 1
	}
	return c.Weight
}

// Option es una alternativa de una pregunta de selección.
type Option struct {
	Text             string   `yaml:"text" json:"text"`
	Categories       []string `yaml:"archetypes" json:"archetypes"`
	Weight           float64  `yaml:"weight" json:"weight"`
	AspirationTarget string   `yaml:"aspirationTarget,omitempty" json:"aspiration_target,omitempty"`
}

// EffectiveWeight devuelve el peso de la opción; 0 se interpreta como 1.
func (o Option) EffectiveWeight() float64 {
	if o.Weight == 0 {
		return 1
	}
	return o.Weight
}

// Question es inmutable una vez cargada del catálogo.
type Question struct {
	ID                 string             `yaml:"id" json:"id"`
	Phase              int                `yaml:"phase" json:"phase"`
	Type               QuestionType       `yaml:"type" json:"type"`
	Text               string             `yaml:"question" json:"question"`
	Scale              int                `yaml:"scale,omitempty" json:"scale,omitempty"`
	Labels             []string           `yaml:"labels,omitempty" json:"labels,omitempty"`
	Options            []Option           `yaml:"options,omitempty" json:"options,omitempty"`
	Categories         []WeightedCategory `yaml:"archetypes,omitempty" json:"archetypes,omitempty"`
	IsAspiration       bool               `yaml:"isAspiration,omitempty" json:"is_aspiration,omitempty"`
	IsRespectContext   bool               `yaml:"isRespectContext,omitempty" json:"is_respect_context,omitempty"`
	RespectContextKey  RespectContext     `yaml:"respectContextKey,omitempty" json:"respect_context_key,omitempty"`
	RespectContextType RespectMeasure     `yaml:"respectContextType,omitempty" json:"respect_context_type,omitempty"`
	IsProvision        bool               `yaml:"isProvision,omitempty" json:"is_provision,omitempty"`
}

// ScaleMax devuelve el máximo de la escala (5 por defecto).
func (q Question) ScaleMax() int {
	if q.Scale <= 0 {
		return DefaultLikertScale
	}
	return q.Scale
}

// ScaleMidpoint es el valor neutro de la escala: 3 para una likert 1..5.
func (q Question) ScaleMidpoint() float64 {
	return float64(q.ScaleMax()+1) / 2
}

// IsContextOnly indica si la respuesta alimenta ajustes en lugar de puntajes.
func (q Question) IsContextOnly() bool {
	return q.IsAspiration || q.IsRespectContext
}

// LinkedCategories devuelve los ids de categoría referenciados, sin repetir y en orden de aparición.
func (q Question) LinkedCategories() []string {
	seen := make(map[string]struct{})
	var out []string
	add := func(id string) {
		if id == "" {
			return
		}
		if _, ok := seen[id]; ok {
			return
		}
		seen[id] = struct{}{}
		out = append(out, id)
	}
	for _, c := range q.Categories {
		add(c.ID)
	}
	for _, o := range q.Options {
		for _, id := range o.Categories {
			add(id)
		}
	}
	return out
}
