package domain

import "time"

// ResultRecord es la fila persistida de una evaluación finalizada.
type ResultRecord struct {
	ID         string    `json:"id"`
	RunID      string    `json:"run_id"`
	Catalog    string    `json:"catalog"`
	Gender     Gender    `json:"gender"`
	PrimaryID  string    `json:"primary_id"`
	Confidence float64   `json:"confidence"`
	Result     Result    `json:"result"`
	CreatedAt  time.Time `json:"created_at"`
}
