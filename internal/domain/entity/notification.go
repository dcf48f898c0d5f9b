package entity

import (
	"encoding/json"
	"time"
)

// Tipos de notificación.
const (
	NotificationLowStock  = "stock_bajo"
	NotificationKitStatus = "cambio_estado_kit"
)

// Estados de una notificación en la bandeja de salida.
const (
	OutboxPendiente = "pendiente"
	OutboxEnviado   = "enviado"
	OutboxFallido   = "fallido"
)

// OutboxNotification notificación registrada en la misma transacción que la mutación
// y entregada después del commit por el despachador.
type OutboxNotification struct {
	ID            string
	Type          string
	Payload       json.RawMessage
	Status        string
	Attempts      int
	LastError     string
	NextAttemptAt time.Time
	CreatedAt     time.Time
	SentAt        *time.Time
}

// LowStockPayload datos de una alerta de stock bajo.
type LowStockPayload struct {
	ProductID   string `json:"product_id"`
	ProductName string `json:"product_name"`
	LocationID  string `json:"location_id"`
	CurrentQty  string `json:"current_qty"`
	MinQty      string `json:"min_qty"`
}

// KitStatusPayload datos de un cambio de estado de kit.
type KitStatusPayload struct {
	KitID      string   `json:"kit_id"`
	CaseNumber string   `json:"case_number"`
	FromState  string   `json:"from_state"`
	ToState    string   `json:"to_state"`
	Actors     []string `json:"actors,omitempty"`
}
