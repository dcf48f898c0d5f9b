package dto

import (
	"time"

	"github.com/shopspring/decimal"
)

// CleaningTransitionRequest body para iniciar o esterilizar un ítem.
type CleaningTransitionRequest struct {
	ExpectedState string `json:"expected_state" validate:"required"`
	Notes         string `json:"notes" validate:"max=1000"`
}

// ApproveCleaningRequest body para aprobar un ítem. Quantity omitida aprueba todo lo recuperable;
// un valor menor registra pérdida o rotura.
type ApproveCleaningRequest struct {
	ExpectedState string           `json:"expected_state" validate:"required"`
	Quantity      *decimal.Decimal `json:"quantity,omitempty"`
	Notes         string           `json:"notes" validate:"max=1000"`
}

// DiscardCleaningRequest body para desechar un ítem.
type DiscardCleaningRequest struct {
	ExpectedState string `json:"expected_state" validate:"required"`
	Reason        string `json:"reason" validate:"required,max=500"`
}

// CleaningItemResponse ítem del sub-flujo de limpieza.
type CleaningItemResponse struct {
	ID               string          `json:"id"`
	KitID            string          `json:"kit_id"`
	KitProductLineID string          `json:"kit_product_line_id"`
	ProductID        string          `json:"product_id"`
	LocationID       string          `json:"location_id"`
	ToRecover        decimal.Decimal `json:"to_recover"`
	Approved         decimal.Decimal `json:"approved"`
	Status           string          `json:"status"`
	Disposable       bool            `json:"disposable"`
	ApprovedBy       string          `json:"approved_by,omitempty"`
	Notes            string          `json:"notes,omitempty"`
	KitStatus        string          `json:"kit_status,omitempty"`
	Applied          bool            `json:"applied"`
	CreatedAt        time.Time       `json:"created_at"`
	UpdatedAt        time.Time       `json:"updated_at"`
}

// CleaningListResponse lista paginada de ítems de limpieza.
type CleaningListResponse struct {
	Items []CleaningItemResponse `json:"items"`
	Page  PageResponse           `json:"page"`
}
