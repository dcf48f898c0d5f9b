package entity

import (
	"encoding/json"
	"time"
)

// Tipos de entidad de la trazabilidad.
const (
	TraceEntityKit  = "kit"
	TraceEntityCase = "case"
)

// TraceabilityEvent fila inmutable del registro de auditoría. Las correcciones son eventos nuevos.
type TraceabilityEvent struct {
	ID         string
	Seq        int64 // orden de inserción; desempata eventos con el mismo timestamp
	EntityType string
	EntityID   string
	Action     string
	FromState  string
	ToState    string
	Actor      string
	Metadata   json.RawMessage
	CreatedAt  time.Time
}
