package dto

import (
	"time"

	"github.com/shopspring/decimal"
)

// KitLineRequest producto solicitado dentro de un kit.
type KitLineRequest struct {
	ProductID string          `json:"product_id" validate:"required"`
	Quantity  decimal.Decimal `json:"quantity"`
	Lot       string          `json:"lot" validate:"max=100"`
	ExpiresAt *time.Time      `json:"expires_at,omitempty"`
}

// CreateKitRequest body para POST /api/kits.
type CreateKitRequest struct {
	CaseID           string           `json:"case_id" validate:"required"`
	CaseNumber       string           `json:"case_number" validate:"required,max=100"`
	SourceLocationID string           `json:"source_location_id" validate:"required"`
	Notes            string           `json:"notes" validate:"max=1000"`
	Lines            []KitLineRequest `json:"lines" validate:"required,min=1,dive"`
}

// LineQuantity cantidad reportada para una línea del kit.
type LineQuantity struct {
	LineID   string          `json:"line_id" validate:"required"`
	Quantity decimal.Decimal `json:"quantity"`
}

// ApproveKitRequest body para solicitado → preparando.
type ApproveKitRequest struct {
	ExpectedState string `json:"expected_state" validate:"required"`
}

// MarkReadyRequest body para preparando → listo_envio.
// Lines omitidas se preparan por lo solicitado. RequireFullStock convierte el faltante
// de stock en error en lugar de envío parcial con advertencia.
type MarkReadyRequest struct {
	ExpectedState    string         `json:"expected_state" validate:"required"`
	Lines            []LineQuantity `json:"lines" validate:"dive"`
	RequireFullStock bool           `json:"require_full_stock"`
}

// DispatchRequest body para listo_envio → en_transito.
type DispatchRequest struct {
	ExpectedState string `json:"expected_state" validate:"required"`
	CourierID     string `json:"courier_id"`
}

// DeliverRequest body para en_transito → entregado. Lines omitidas se reciben completas.
type DeliverRequest struct {
	ExpectedState string         `json:"expected_state" validate:"required"`
	LocationID    string         `json:"location_id"`
	Lines         []LineQuantity `json:"lines" validate:"dive"`
}

// UsageRequest body para entregado → en_uso. Lines omitidas se registran sin consumo.
type UsageRequest struct {
	ExpectedState string         `json:"expected_state" validate:"required"`
	Lines         []LineQuantity `json:"lines" validate:"dive"`
}

// ReturnLine estado del empaque de una línea devuelta.
type ReturnLine struct {
	LineID string `json:"line_id" validate:"required"`
	Opened *bool  `json:"opened,omitempty"`
}

// ReturnRequest body para en_uso|entregado → devuelto. LocationID vacío devuelve a la bodega de origen.
type ReturnRequest struct {
	ExpectedState string       `json:"expected_state" validate:"required"`
	LocationID    string       `json:"location_id"`
	Lines         []ReturnLine `json:"lines" validate:"dive"`
}

// FinalizeRequest body para en_limpieza → finalizado.
type FinalizeRequest struct {
	ExpectedState string `json:"expected_state" validate:"required"`
}

// CancelRequest body para cancelar un kit no terminal.
type CancelRequest struct {
	ExpectedState string `json:"expected_state" validate:"required"`
	Reason        string `json:"reason" validate:"required,max=500"`
}

// KitLineResponse línea del kit.
type KitLineResponse struct {
	ID         string          `json:"id"`
	ProductID  string          `json:"product_id"`
	Requested  decimal.Decimal `json:"requested"`
	Prepared   decimal.Decimal `json:"prepared"`
	Sent       decimal.Decimal `json:"sent"`
	Received   decimal.Decimal `json:"received"`
	Used       decimal.Decimal `json:"used"`
	Returned   decimal.Decimal `json:"returned"`
	Disposable bool            `json:"disposable"`
	Lot        string          `json:"lot,omitempty"`
	ExpiresAt  *time.Time      `json:"expires_at,omitempty"`
	Notes      string          `json:"notes,omitempty"`
}

// PhaseResponse sello de una fase del kit.
type PhaseResponse struct {
	State string    `json:"state"`
	At    time.Time `json:"at"`
	Actor string    `json:"actor"`
}

// KitResponse salida de un kit con sus líneas.
// Applied es false cuando la transición pedida ya estaba aplicada (no-op).
type KitResponse struct {
	ID               string            `json:"id"`
	Code             string            `json:"code"`
	CaseID           string            `json:"case_id"`
	CaseNumber       string            `json:"case_number"`
	Status           string            `json:"status"`
	QRToken          string            `json:"qr_token,omitempty"`
	SourceLocationID string            `json:"source_location_id"`
	LocationID       string            `json:"location_id"`
	CourierID        string            `json:"courier_id,omitempty"`
	Notes            string            `json:"notes,omitempty"`
	CancelReason     string            `json:"cancel_reason,omitempty"`
	Phases           []PhaseResponse   `json:"phases"`
	NextStates       []string          `json:"next_states"`
	Lines            []KitLineResponse `json:"lines"`
	Warnings         []string          `json:"warnings,omitempty"`
	Applied          bool              `json:"applied"`
	CreatedAt        time.Time         `json:"created_at"`
	UpdatedAt        time.Time         `json:"updated_at"`
}

// KitListResponse lista paginada de kits (sin líneas).
type KitListResponse struct {
	Items []KitResponse `json:"items"`
	Page  PageResponse  `json:"page"`
}
