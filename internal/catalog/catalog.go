package catalog

import (
	"sort"

	"psy-assess/internal/domain"
)

// Phase agrupa las preguntas de una fase. Las fases con ByGender usan un
// sub-catálogo por género en lugar de Questions.
type Phase struct {
	Number      int                                 `yaml:"number" json:"number"`
	Title       string                              `yaml:"title" json:"title"`
	Description string                              `yaml:"description,omitempty" json:"description,omitempty"`
	Target      int                                 `yaml:"target,omitempty" json:"target,omitempty"`
	Questions   []domain.Question                   `yaml:"questions,omitempty" json:"questions,omitempty"`
	ByGender    map[domain.Gender][]domain.Question `yaml:"byGender,omitempty" json:"by_gender,omitempty"`
}

// Gendered indica si la fase depende del género elegido.
func (p Phase) Gendered() bool {
	return len(p.ByGender) > 0
}

// Pool devuelve el conjunto de preguntas disponible para el género dado.
// Un género sin sub-catálogo propio cae en male.
func (p Phase) Pool(g domain.Gender) []domain.Question {
	if !p.Gendered() {
		return p.Questions
	}
	if qs, ok := p.ByGender[g.Resolved()]; ok {
		return qs
	}
	return p.ByGender[domain.GenderMale]
}

// Catalog es inmutable una vez cargado; puede compartirse entre corridas.
type Catalog struct {
	Name       string            `yaml:"name" json:"name"`
	Version    int               `yaml:"version" json:"version"`
	Categories []domain.Category `yaml:"categories" json:"categories"`
	Groups     []domain.Group    `yaml:"groups,omitempty" json:"groups,omitempty"`
	Phases     []Phase           `yaml:"phases" json:"phases"`

	categoryIdx map[string]int
	phaseIdx    map[int]int
	questionIdx map[string]domain.Question
}

func (c *Catalog) index() {
	c.categoryIdx = make(map[string]int, len(c.Categories))
	for i, cat := range c.Categories {
		c.categoryIdx[cat.ID] = i
	}
	sort.SliceStable(c.Phases, func(i, j int) bool { return c.Phases[i].Number < c.Phases[j].Number })
	c.phaseIdx = make(map[int]int, len(c.Phases))
	c.questionIdx = make(map[string]domain.Question)
	for i, p := range c.Phases {
		c.phaseIdx[p.Number] = i
		for _, q := range p.Questions {
			c.questionIdx[q.ID] = q
		}
		for _, qs := range p.ByGender {
			for _, q := range qs {
				c.questionIdx[q.ID] = q
			}
		}
	}
}

// Category busca una categoría por id.
func (c *Catalog) Category(id string) (domain.Category, bool) {
	i, ok := c.categoryIdx[id]
	if !ok {
		return domain.Category{}, false
	}
	return c.Categories[i], true
}

func (c *Catalog) HasCategory(id string) bool {
	_, ok := c.categoryIdx[id]
	return ok
}

// Question busca una pregunta por id en todas las fases y sub-catálogos.
func (c *Catalog) Question(id string) (domain.Question, bool) {
	q, ok := c.questionIdx[id]
	return q, ok
}

func (c *Catalog) Phase(number int) (Phase, bool) {
	i, ok := c.phaseIdx[number]
	if !ok {
		return Phase{}, false
	}
	return c.Phases[i], true
}

// PhaseNumbers devuelve los números de fase en orden ascendente.
func (c *Catalog) PhaseNumbers() []int {
	out := make([]int, len(c.Phases))
	for i, p := range c.Phases {
		out[i] = p.Number
	}
	return out
}

// QuestionCount cuenta todas las preguntas, incluyendo cada sub-catálogo por género.
func (c *Catalog) QuestionCount() int {
	return len(c.questionIdx)
}
