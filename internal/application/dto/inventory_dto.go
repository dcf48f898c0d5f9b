package dto

import (
	"time"

	"github.com/shopspring/decimal"
)

// RegisterMovementRequest body para POST /api/inventory/movements.
// Para entrada/salida/ajuste: product_id, location_id, quantity (ajuste admite negativo).
// Para transferencia: product_id, from_location_id, to_location_id, quantity.
type RegisterMovementRequest struct {
	ProductID      string          `json:"product_id" validate:"required"`
	LocationID     string          `json:"location_id,omitempty"`
	FromLocationID string          `json:"from_location_id,omitempty"`
	ToLocationID   string          `json:"to_location_id,omitempty"`
	Type           string          `json:"type" validate:"required,oneof=entrada salida ajuste transferencia"`
	Quantity       decimal.Decimal `json:"quantity"`
	Reason         string          `json:"reason" validate:"max=500"`
}

// SetMinimumRequest body para fijar el stock mínimo de un producto en una ubicación.
type SetMinimumRequest struct {
	ProductID  string          `json:"product_id" validate:"required"`
	LocationID string          `json:"location_id" validate:"required"`
	Minimum    decimal.Decimal `json:"minimum"`
}

// StockResponse stock de un producto en una ubicación.
type StockResponse struct {
	ProductID  string          `json:"product_id"`
	LocationID string          `json:"location_id"`
	Quantity   decimal.Decimal `json:"quantity"`
	Minimum    decimal.Decimal `json:"minimum"`
	Status     string          `json:"status"`
	UpdatedAt  time.Time       `json:"updated_at"`
}

// MovementResponse movimiento del libro de inventario.
type MovementResponse struct {
	ID             string          `json:"id"`
	ProductID      string          `json:"product_id"`
	LocationID     string          `json:"location_id"`
	Type           string          `json:"type"`
	Quantity       decimal.Decimal `json:"quantity"`
	ResultQuantity decimal.Decimal `json:"result_quantity"`
	RefType        string          `json:"ref_type,omitempty"`
	RefID          string          `json:"ref_id,omitempty"`
	Reason         string          `json:"reason,omitempty"`
	CreatedAt      time.Time       `json:"created_at"`
	CreatedBy      string          `json:"created_by"`
}

// LowStockDTO producto en o bajo su stock mínimo en una ubicación.
type LowStockDTO struct {
	ProductID  string          `json:"product_id"`
	LocationID string          `json:"location_id"`
	Quantity   decimal.Decimal `json:"quantity"`
	Minimum    decimal.Decimal `json:"minimum"`
	Deficit    decimal.Decimal `json:"deficit"`  // mínimo − cantidad
	Priority   int             `json:"priority"` // 1 = mayor déficit
}

// BalanceCheckResponse contraste entre el stock materializado y la suma de movimientos.
type BalanceCheckResponse struct {
	ProductID   string          `json:"product_id"`
	LocationID  string          `json:"location_id"`
	Quantity    decimal.Decimal `json:"quantity"`
	MovementSum decimal.Decimal `json:"movement_sum"`
	Balanced    bool            `json:"balanced"`
}
