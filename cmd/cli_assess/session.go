package main

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"

	"psy-assess/internal/domain"
	"psy-assess/internal/engine"
)

const (
	colorGreen = "\033[32m"
	colorCyan  = "\033[36m"
	colorReset = "\033[0m"
)

var errQuit = errors.New("quit requested")

// session conduce una corrida por terminal. save se invoca después de cada
// paso aceptado.
type session struct {
	run  *engine.Run
	in   *bufio.Reader
	out  io.Writer
	save func(*engine.Run) error
}

func newSession(run *engine.Run, in io.Reader, out io.Writer, save func(*engine.Run) error) *session {
	if save == nil {
		save = func(*engine.Run) error { return nil }
	}
	return &session{run: run, in: bufio.NewReader(in), out: out, save: save}
}

// play avanza hasta finalizar. Devuelve errQuit si el usuario sale antes.
func (s *session) play() error {
	lastPhase := 0
	for {
		var err error
		switch s.run.State() {
		case domain.StateGenderSelect:
			err = s.askGender()
		case domain.StateBracketSelect:
			err = s.askBracket()
		case domain.StateInPhase:
			if p := s.run.Phase(); p != lastPhase {
				s.printPhase(p)
				lastPhase = p
			}
			err = s.askQuestion()
		case domain.StateFinalized:
			res, _ := s.run.Result()
			printResult(s.out, res)
			return nil
		}
		switch {
		case errors.Is(err, errQuit), errors.Is(err, io.EOF):
			return errQuit
		case errors.Is(err, engine.ErrValidation), errors.Is(err, engine.ErrInvalidState):
			fmt.Fprintf(s.out, "  %v\n", err)
			continue
		case err != nil:
			return err
		}
		if err := s.save(s.run); err != nil {
			fmt.Fprintf(s.out, "  warning: could not save progress: %v\n", err)
		}
	}
}

func (s *session) readLine(prompt string) (string, error) {
	fmt.Fprint(s.out, prompt)
	line, err := s.in.ReadString('\n')
	if err != nil && (line == "" || !errors.Is(err, io.EOF)) {
		return "", err
	}
	line = strings.TrimSpace(line)
	if line == "q" || line == "quit" {
		return "", errQuit
	}
	return line, nil
}

func (s *session) askGender() error {
	line, err := s.readLine("Gender [male/female]: ")
	if err != nil {
		return err
	}
	g, ok := domain.ParseGender(strings.ToLower(line))
	if !ok {
		return fmt.Errorf("%w: answer male or female", engine.ErrValidation)
	}
	return s.run.SelectGender(g)
}

func (s *session) askBracket() error {
	line, err := s.readLine("Bracket [low/average/above_average/gifted/unknown, enter to skip]: ")
	if err != nil {
		return err
	}
	b, ok := domain.ParseBracket(strings.ToLower(line))
	if !ok {
		return fmt.Errorf("%w: unknown bracket %q", engine.ErrValidation, line)
	}
	return s.run.SelectBracket(b)
}

func (s *session) printPhase(n int) {
	p, ok := s.run.Catalog().Phase(n)
	if !ok {
		return
	}
	fmt.Fprintf(s.out, "\n%s== Phase %d: %s ==%s\n", colorGreen, n, p.Title, colorReset)
	if p.Description != "" {
		fmt.Fprintln(s.out, p.Description)
	}
}

func (s *session) askQuestion() error {
	q, _ := s.run.Current()
	prog := s.run.Progress()
	fmt.Fprintf(s.out, "\n%s[%d/%d]%s %s\n", colorCyan, prog.CurrentIndex+1, prog.Total, colorReset, q.Text)
	printChoices(s.out, q)
	if prev, ok := s.run.AnswerFor(q.ID); ok {
		fmt.Fprintf(s.out, "  (current answer: %s)\n", formatAnswer(prev.Value))
	}

	line, err := s.readLine("> ")
	if err != nil {
		return err
	}
	switch line {
	case "b", "back":
		return s.run.Prev()
	case "":
		if _, ok := s.run.AnswerFor(q.ID); ok {
			return s.run.Next()
		}
	}
	v, err := parseAnswer(q, line)
	if err != nil {
		return err
	}
	if err := s.run.Answer(v); err != nil {
		return err
	}
	return s.run.Next()
}

func printChoices(w io.Writer, q domain.Question) {
	if q.Type.IsScale() {
		top := q.ScaleMax()
		for i := 1; i <= top; i++ {
			label := ""
			if i-1 < len(q.Labels) {
				label = " " + q.Labels[i-1]
			}
			fmt.Fprintf(w, "  %d)%s\n", i, label)
		}
		return
	}
	for i, o := range q.Options {
		fmt.Fprintf(w, "  %d) %s\n", i+1, o.Text)
	}
	if q.Type.AllowsMultiple() {
		fmt.Fprintln(w, "  (several allowed, separated by commas)")
	}
}

// parseAnswer interpreta la entrada del usuario. Las opciones se numeran desde 1.
func parseAnswer(q domain.Question, line string) (domain.AnswerValue, error) {
	line = strings.TrimSpace(line)
	if line == "" {
		return domain.AnswerValue{}, fmt.Errorf("%w: empty answer", engine.ErrValidation)
	}
	if q.Type.IsScale() {
		n, err := strconv.ParseFloat(line, 64)
		if err != nil {
			return domain.AnswerValue{}, fmt.Errorf("%w: %q is not a number", engine.ErrValidation, line)
		}
		return domain.Scale(n), nil
	}
	parts := strings.FieldsFunc(line, func(r rune) bool { return r == ',' || r == ' ' })
	indices := make([]int, 0, len(parts))
	for _, p := range parts {
		n, err := strconv.Atoi(p)
		if err != nil {
			return domain.AnswerValue{}, fmt.Errorf("%w: %q is not an option number", engine.ErrValidation, p)
		}
		indices = append(indices, n-1)
	}
	if len(indices) == 1 {
		return domain.SingleChoice(indices[0]), nil
	}
	return domain.MultiChoice(indices...), nil
}

func formatAnswer(v domain.AnswerValue) string {
	switch v.Kind {
	case domain.AnswerScale:
		return strconv.FormatFloat(v.Value, 'f', -1, 64)
	default:
		sel := v.Selected()
		parts := make([]string, len(sel))
		for i, idx := range sel {
			parts[i] = strconv.Itoa(idx + 1)
		}
		return strings.Join(parts, ",")
	}
}

func printResult(w io.Writer, res *domain.Result) {
	if res == nil {
		return
	}
	fmt.Fprintf(w, "\n%s== Result ==%s\n", colorGreen, colorReset)
	fmt.Fprintf(w, "Primary:   %s (%.0f%%)\n", res.Primary.Name, res.ConfidenceLevels.Primary)
	if res.Primary.Description != "" {
		fmt.Fprintf(w, "           %s\n", res.Primary.Description)
	}
	if res.Secondary != nil {
		fmt.Fprintf(w, "Secondary: %s (%.0f%%)\n", res.Secondary.Name, res.ConfidenceLevels.Secondary)
	}
	if res.Tertiary != nil {
		fmt.Fprintf(w, "Tertiary:  %s (%.0f%%)\n", res.Tertiary.Name, res.ConfidenceLevels.Tertiary)
	}
	if len(res.Insights.Shadow) > 0 {
		names := make([]string, len(res.Insights.Shadow))
		for i, e := range res.Insights.Shadow {
			names[i] = e.Name
		}
		fmt.Fprintf(w, "Shadow indicators: %s\n", strings.Join(names, ", "))
	}
	if len(res.Insights.Aspirational) > 0 {
		names := make([]string, len(res.Insights.Aspirational))
		for i, e := range res.Insights.Aspirational {
			names[i] = e.Name
		}
		fmt.Fprintf(w, "Aspirations: %s\n", strings.Join(names, ", "))
	}
}
