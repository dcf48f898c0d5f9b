package dto

import (
	"encoding/json"
	"time"
)

// TraceEventResponse evento de la línea de tiempo.
type TraceEventResponse struct {
	ID         string          `json:"id"`
	EntityType string          `json:"entity_type"`
	EntityID   string          `json:"entity_id"`
	Action     string          `json:"action"`
	FromState  string          `json:"from_state,omitempty"`
	ToState    string          `json:"to_state,omitempty"`
	Actor      string          `json:"actor"`
	Metadata   json.RawMessage `json:"metadata,omitempty" swaggertype:"object"`
	CreatedAt  time.Time       `json:"created_at"`
}

// TimelineResponse línea de tiempo de un kit o de un caso.
type TimelineResponse struct {
	EntityType string               `json:"entity_type"`
	EntityID   string               `json:"entity_id"`
	Events     []TraceEventResponse `json:"events"`
}
