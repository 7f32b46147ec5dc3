package engine

import (
	"fmt"

	"go.uber.org/zap"

	"psy-assess/internal/catalog"
	"psy-assess/internal/domain"
)

// Snapshot captura el estado persistible de la corrida.
func (r *Run) Snapshot() domain.Snapshot {
	answers := make(map[string]domain.Answer, len(r.answers))
	for id, a := range r.answers {
		answers[id] = a
	}
	seq := make([]string, 0, len(r.sequences[r.Phase()]))
	for _, q := range r.sequences[r.Phase()] {
		seq = append(seq, q.ID)
	}
	return domain.Snapshot{
		RunID:            r.id,
		Catalog:          r.cat.Name,
		State:            r.state,
		Phase:            r.Phase(),
		QuestionIndex:    r.cursor,
		Gender:           r.gender,
		Bracket:          r.bracket,
		Answers:          answers,
		ContextAnswers:   copyContext(r.context),
		Aspirations:      copyAspirations(r.aspirations),
		CategoryScores:   r.board.Map(),
		QuestionSequence: seq,
		History:          r.History(),
		Result:           cloneResult(r.result),
		UpdatedAt:        r.now(),
	}
}

// Export arma el registro plano para los formateadores externos.
func (r *Run) Export() domain.Export {
	answers := make(map[string]domain.Answer, len(r.answers))
	for id, a := range r.answers {
		answers[id] = a
	}
	return domain.Export{
		RunID:            r.id,
		Catalog:          r.cat.Name,
		Gender:           r.gender,
		Bracket:          r.bracket,
		Result:           cloneResult(r.result),
		Answers:          answers,
		QuestionSequence: r.History(),
		ExportedAt:       r.now(),
	}
}

// Restore reconstruye una corrida desde un snapshot. Los puntajes se derivan
// de nuevo reproduciendo las respuestas; los del snapshot no se usan.
func Restore(cat *catalog.Catalog, snap domain.Snapshot, opts Options) (*Run, error) {
	if opts.ID == "" {
		opts.ID = snap.RunID
	}
	r := NewRun(cat, opts)

	switch snap.State {
	case domain.StateGenderSelect:
		return r, nil
	case domain.StateBracketSelect, domain.StateInPhase, domain.StateFinalized:
	default:
		return nil, fmt.Errorf("%w: unknown state %q", ErrInvalidSnapshot, snap.State)
	}

	if err := r.SelectGender(snap.Gender); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidSnapshot, err)
	}
	if snap.State == domain.StateBracketSelect {
		return r, nil
	}
	if _, ok := domain.ParseBracket(string(snap.Bracket)); !ok {
		return nil, fmt.Errorf("%w: unknown bracket %q", ErrInvalidSnapshot, snap.Bracket)
	}
	r.bracket = snap.Bracket

	history := snap.History
	if len(history) == 0 {
		history = snap.QuestionSequence
	}
	for _, id := range history {
		q, ok := cat.Question(id)
		if !ok {
			return nil, fmt.Errorf("%w: question %q not in catalog %q", ErrInvalidSnapshot, id, cat.Name)
		}
		r.sequences[q.Phase] = append(r.sequences[q.Phase], q)
	}

	replayed := 0
	for _, id := range r.History() {
		a, ok := snap.Answers[id]
		if !ok {
			continue
		}
		q, _ := cat.Question(id)
		if err := r.record(q, a.Value); err != nil {
			return nil, fmt.Errorf("%w: %v", ErrInvalidSnapshot, err)
		}
		if !a.Timestamp.IsZero() {
			stamped := r.answers[id]
			stamped.Timestamp = a.Timestamp
			r.answers[id] = stamped
		}
		replayed++
	}
	if skipped := len(snap.Answers) - replayed; skipped > 0 {
		r.logger.Warn("snapshot answers outside presented sequence ignored", zap.Int("skipped", skipped))
	}

	pos := -1
	for i, n := range r.phases {
		if n == snap.Phase {
			pos = i
			break
		}
	}
	if pos < 0 || len(r.sequences[snap.Phase]) == 0 {
		return nil, fmt.Errorf("%w: phase %d has no presented questions", ErrInvalidSnapshot, snap.Phase)
	}
	if snap.QuestionIndex < 0 || snap.QuestionIndex >= len(r.sequences[snap.Phase]) {
		return nil, fmt.Errorf("%w: question index %d out of range", ErrInvalidSnapshot, snap.QuestionIndex)
	}
	r.phasePos = pos
	r.cursor = snap.QuestionIndex
	r.state = domain.StateInPhase

	if snap.State == domain.StateFinalized {
		r.finalize()
		if snap.Result != nil && !snap.Result.CompletedAt.IsZero() {
			r.result.CompletedAt = snap.Result.CompletedAt
		}
	}
	r.logger.Debug("run restored", zap.String("state", string(r.state)), zap.Int("answers", replayed))
	return r, nil
}
