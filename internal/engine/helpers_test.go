package engine

import (
	"math"
	"math/rand/v2"
	"testing"
	"time"

	"psy-assess/internal/catalog"
	"psy-assess/internal/domain"
)

const testCatalogYAML = `
name: test
version: 1
categories:
  - {id: alpha, name: Alpha, subtypes: [alpha_xi, dark_alpha]}
  - {id: alpha_xi, name: Alpha-Xi, parentType: alpha}
  - {id: dark_alpha, name: Dark Alpha, parentType: alpha, isShadow: true}
  - {id: beta, name: Beta}
  - {id: gamma, name: Gamma}
  - {id: delta, name: Delta}
  - {id: sigma, name: Sigma}
  - {id: omega, name: Omega}
  - {id: alpha_female, name: Alpha Female, gender: female, subtypes: [alpha_xi_female, dark_alpha_female]}
  - {id: alpha_xi_female, name: Alpha-Xi Female, gender: female, parentType: alpha_female}
  - {id: dark_alpha_female, name: Dark Alpha Female, gender: female, parentType: alpha_female, isShadow: true}
  - {id: beta_female, name: Beta Female, gender: female}
  - {id: gamma_female, name: Gamma Female, gender: female}
  - {id: delta_female, name: Delta Female, gender: female}
  - {id: sigma_female, name: Sigma Female, gender: female}
  - {id: omega_female, name: Omega Female, gender: female}
groups:
  - {id: alpha, members: [alpha, alpha_xi, dark_alpha]}
  - {id: beta, members: [beta]}
  - {id: gamma, members: [gamma]}
phases:
  - number: 1
    title: Core
    questions:
      - id: p1a
        type: forced_choice
        question: a
        options:
          - {text: lead, archetypes: [alpha], weight: 3}
          - {text: support, archetypes: [beta], weight: 3}
          - {text: think, archetypes: [gamma], weight: 3}
          - {text: work, archetypes: [delta], weight: 3}
      - id: p1b
        type: forced_choice
        question: b
        options:
          - {text: lead, archetypes: [alpha]}
          - {text: alone, archetypes: [sigma]}
          - {text: withdraw, archetypes: [omega]}
  - number: 2
    title: Refine
    questions:
      - {id: p2a, type: likert, question: protect, archetypes: [{id: alpha_xi, weight: 1}]}
      - {id: p2b, type: likert, question: ideas, archetypes: [{id: beta, weight: 1}, {id: gamma, weight: 2}]}
  - number: 3
    title: Shadow
    questions:
      - id: p3a
        type: forced_choice
        question: shadow
        options:
          - {text: control, archetypes: [dark_alpha]}
          - {text: flee, archetypes: [sigma]}
      - id: asp1
        type: multi_select
        question: desire
        isAspiration: true
        options:
          - {text: lead, archetypes: [alpha], aspirationTarget: alpha}
          - {text: think, archetypes: [gamma], aspirationTarget: gamma}
          - {text: help, archetypes: [beta], aspirationTarget: beta}
      - id: asp2
        type: multi_select
        question: admire
        isAspiration: true
        options:
          - {text: lead, archetypes: [alpha], aspirationTarget: alpha}
          - {text: think, archetypes: [gamma], aspirationTarget: gamma}
          - {text: help, archetypes: [beta], aspirationTarget: beta}
      - {id: rs_feel, type: likert, question: s, isRespectContext: true, respectContextKey: social, respectContextType: feel}
      - {id: rs_def, type: likert, question: s, isRespectContext: true, respectContextKey: social, respectContextType: deference}
      - {id: rb_feel, type: likert, question: b, isRespectContext: true, respectContextKey: business, respectContextType: feel}
      - {id: rb_def, type: likert, question: b, isRespectContext: true, respectContextKey: business, respectContextType: deference}
  - number: 4
    title: Narrative
    questions:
      - id: p4a
        type: narrative
        question: story
        options:
          - {text: one, archetypes: [alpha], weight: 2}
          - {text: two, archetypes: [beta], weight: 2}
  - number: 5
    title: Markers
    byGender:
      male:
        - {id: m_prov1, type: likert, question: fund, isProvision: true, archetypes: [{id: delta, weight: 1}]}
        - {id: m_prov2, type: likert, question: save, isProvision: true, archetypes: [{id: delta, weight: 1}]}
      female:
        - {id: f_loyal, type: likert, question: loyal, archetypes: [{id: beta, weight: 1}]}
`

var fixedNow = time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC)

func testCatalog(t *testing.T) *catalog.Catalog {
	t.Helper()
	cat, err := catalog.Parse([]byte(testCatalogYAML))
	if err != nil {
		t.Fatalf("parse test catalog: %v", err)
	}
	return cat
}

func newTestRun(t *testing.T, seed uint64) *Run {
	t.Helper()
	return NewRun(testCatalog(t), Options{
		ID:    "run-1",
		Clock: func() time.Time { return fixedNow },
		Rand:  rand.New(rand.NewPCG(seed, seed+1)),
	})
}

// scriptedAnswers responde el catálogo de prueba de forma fija.
var scriptedAnswers = map[string]domain.AnswerValue{
	"p1a":     domain.SingleChoice(0),
	"p1b":     domain.SingleChoice(1),
	"p2a":     domain.Scale(5),
	"p2b":     domain.Scale(3),
	"p3a":     domain.SingleChoice(0),
	"asp1":    domain.MultiChoice(0),
	"asp2":    domain.MultiChoice(0),
	"rs_feel": domain.Scale(1),
	"rs_def":  domain.Scale(2),
	"rb_feel": domain.Scale(5),
	"rb_def":  domain.Scale(4),
	"p4a":     domain.SingleChoice(1),
	"m_prov1": domain.Scale(2),
	"m_prov2": domain.Scale(3),
	"f_loyal": domain.Scale(4),
}

func scripted(q domain.Question) domain.AnswerValue {
	return scriptedAnswers[q.ID]
}

// walk responde y avanza hasta que stop devuelve true o la corrida termina.
func walk(t *testing.T, r *Run, answer func(domain.Question) domain.AnswerValue, stop func(domain.Question) bool) {
	t.Helper()
	for r.State() == domain.StateInPhase {
		q, ok := r.Current()
		if !ok {
			t.Fatalf("no current question in phase %d", r.Phase())
		}
		if stop != nil && stop(q) {
			return
		}
		if err := r.Answer(answer(q)); err != nil {
			t.Fatalf("answer %s: %v", q.ID, err)
		}
		if err := r.Next(); err != nil {
			t.Fatalf("next after %s: %v", q.ID, err)
		}
	}
}

func startRun(t *testing.T, r *Run, g domain.Gender, b domain.Bracket) {
	t.Helper()
	if err := r.SelectGender(g); err != nil {
		t.Fatalf("select gender: %v", err)
	}
	if err := r.SelectBracket(b); err != nil {
		t.Fatalf("select bracket: %v", err)
	}
}

func approx(a, b float64) bool {
	return math.Abs(a-b) < 1e-9
}
