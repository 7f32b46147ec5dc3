package domain

import "time"

// RunState es el estado de la máquina de la corrida.
type RunState string

const (
	StateGenderSelect  RunState = "gender_select"
	StateBracketSelect RunState = "bracket_select"
	StateInPhase       RunState = "in_phase"
	StateFinalized     RunState = "finalized"
)

// Snapshot es la forma persistida de una corrida. Los puntajes son informativos:
// al restaurar se recalculan a partir de las respuestas.
type Snapshot struct {
	RunID            string                   `json:"run_id"`
	Catalog          string                   `json:"catalog"`
	State            RunState                 `json:"state"`
	Phase            int                      `json:"phase"`
	QuestionIndex    int                      `json:"question_index"`
	Gender           Gender                   `json:"gender"`
	Bracket          Bracket                  `json:"bracket"`
	Answers          map[string]Answer        `json:"answers"`
	ContextAnswers   ContextAnswers           `json:"context_answers"`
	Aspirations      []AspirationAnswer       `json:"aspirations,omitempty"`
	CategoryScores   map[string]CategoryScore `json:"category_scores"`
	QuestionSequence []string                 `json:"question_sequence"`
	History          []string                 `json:"history,omitempty"`
	Result           *Result                  `json:"result,omitempty"`
	UpdatedAt        time.Time                `json:"updated_at"`
}

// Export es el registro plano que se entrega a los formateadores externos.
type Export struct {
	RunID            string            `json:"run_id"`
	Catalog          string            `json:"catalog"`
	Gender           Gender            `json:"gender"`
	Bracket          Bracket           `json:"bracket,omitempty"`
	Result           *Result           `json:"result,omitempty"`
	Answers          map[string]Answer `json:"answers"`
	QuestionSequence []string          `json:"question_sequence"`
	ExportedAt       time.Time         `json:"exported_at"`
}
