package entity

import (
	"time"

	"github.com/shopspring/decimal"
)

// MovementType tipo de movimiento de inventario.
type MovementType string

// Tipos de movimiento de inventario.
const (
	MovementEntrada            MovementType = "entrada"
	MovementSalida             MovementType = "salida"
	MovementAjuste             MovementType = "ajuste"
	MovementTransferencia      MovementType = "transferencia"
	MovementDevolucionLimpieza MovementType = "devolucion_limpieza"
)

// Tipos de referencia de un movimiento.
const (
	RefKit      = "kit"
	RefLimpieza = "limpieza"
	RefManual   = "manual"
)

// Valid indica si el tipo es conocido.
func (t MovementType) Valid() bool {
	switch t {
	case MovementEntrada, MovementSalida, MovementAjuste, MovementTransferencia, MovementDevolucionLimpieza:
		return true
	}
	return false
}

// MovementRef referencia al origen de un movimiento (kit, ítem de limpieza o manual).
type MovementRef struct {
	Type string
	ID   string
}

// InventoryMovement fila inmutable del libro de inventario.
type InventoryMovement struct {
	ID             string
	ProductID      string
	LocationID     string
	Type           MovementType
	Quantity       decimal.Decimal // positivo entrada, negativo salida
	ResultQuantity decimal.Decimal // stock resultante tras aplicar el movimiento
	Reference      MovementRef
	Reason         string
	CreatedAt      time.Time
	CreatedBy      string
}
