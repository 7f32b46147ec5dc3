package domain

import (
	"encoding/json"
	"errors"
	"fmt"
	"time"
)

// AnswerKind discrimina la unión de valores de respuesta.
type AnswerKind string

const (
	AnswerSingle AnswerKind = "single"
	AnswerMulti  AnswerKind = "multi"
	AnswerScale  AnswerKind = "scale"
)

// AnswerValue es la unión etiquetada SingleChoice | MultiChoice | Scale.
// Se resuelve una sola vez al registrar la respuesta.
type AnswerValue struct {
	Kind    AnswerKind `json:"kind"`
	Index   int        `json:"index,omitempty"`
	Indices []int      `json:"indices,omitempty"`
	Value   float64    `json:"value,omitempty"`
}

func SingleChoice(index int) AnswerValue {
	return AnswerValue{Kind: AnswerSingle, Index: index}
}

func MultiChoice(indices ...int) AnswerValue {
	cp := make([]int, len(indices))
	copy(cp, indices)
	return AnswerValue{Kind: AnswerMulti, Indices: cp}
}

func Scale(value float64) AnswerValue {
	return AnswerValue{Kind: AnswerScale, Value: value}
}

// Selected devuelve los índices elegidos para respuestas de selección.
func (v AnswerValue) Selected() []int {
	switch v.Kind {
	case AnswerSingle:
		return []int{v.Index}
	case AnswerMulti:
		return v.Indices
	}
	return nil
}

var errUnknownAnswerKind = errors.New("unknown answer kind")

// MarshalJSON siempre emite el índice, incluso cuando es 0.
func (v AnswerValue) MarshalJSON() ([]byte, error) {
	switch v.Kind {
	case AnswerSingle:
		return json.Marshal(struct {
			Kind  AnswerKind `json:"kind"`
			Index int        `json:"index"`
		}{v.Kind, v.Index})
	case AnswerMulti:
		indices := v.Indices
		if indices == nil {
			indices = []int{}
		}
		return json.Marshal(struct {
			Kind    AnswerKind `json:"kind"`
			Indices []int      `json:"indices"`
		}{v.Kind, indices})
	case AnswerScale:
		return json.Marshal(struct {
			Kind  AnswerKind `json:"kind"`
			Value float64    `json:"value"`
		}{v.Kind, v.Value})
	}
	return nil, fmt.Errorf("marshal answer value: %w", errUnknownAnswerKind)
}

// Answer es el registro de una respuesta; el último en escribirse gana.
type Answer struct {
	QuestionID string      `json:"question_id"`
	Phase      int         `json:"phase"`
	Value      AnswerValue `json:"value"`
	Timestamp  time.Time   `json:"timestamp"`
}

// ContextAnswers guarda las respuestas de contexto de respeto por ámbito y medida.
type ContextAnswers map[RespectContext]map[RespectMeasure]float64

// Set registra un valor de contexto, sobrescribiendo el anterior.
func (c ContextAnswers) Set(key RespectContext, measure RespectMeasure, value float64) {
	inner, ok := c[key]
	if !ok {
		inner = make(map[RespectMeasure]float64)
		c[key] = inner
	}
	inner[measure] = value
}

// AspirationAnswer agrupa los objetivos aspiracionales elegidos en una pregunta.
type AspirationAnswer struct {
	QuestionID string   `json:"question_id"`
	Targets    []string `json:"targets"`
}
