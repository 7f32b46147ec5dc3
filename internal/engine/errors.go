package engine

import (
	"errors"
	"fmt"
)

var (
	// ErrValidation indica una entrada rechazada; el estado de la corrida no cambia.
	ErrValidation = errors.New("validation failed")
	// ErrAlreadyFinalized se devuelve al intentar finalizar dos veces.
	ErrAlreadyFinalized = errors.New("run already finalized")
	// ErrInvalidState indica una operación que no corresponde al estado actual.
	ErrInvalidState = errors.New("operation not allowed in current state")
	// ErrInvalidSnapshot indica un snapshot que no puede restaurarse contra el catálogo.
	ErrInvalidSnapshot = errors.New("invalid snapshot")
)

// IntegrityIssue describe un dato del catálogo que no puede puntuarse.
// Se registra y se omite; nunca se devuelve como error.
type IntegrityIssue struct {
	QuestionID string
	Option     int
	Category   string
	Reason     string
}

func (i IntegrityIssue) String() string {
	switch {
	case i.QuestionID == "":
		return fmt.Sprintf("category %q: %s", i.Category, i.Reason)
	case i.Option >= 0:
		return fmt.Sprintf("question %q option %d: %s", i.QuestionID, i.Option, i.Reason)
	default:
		return fmt.Sprintf("question %q: %s", i.QuestionID, i.Reason)
	}
}
