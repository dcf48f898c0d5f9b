package entity

import (
	"time"

	"github.com/shopspring/decimal"
)

// Estados de un registro de inventario.
const (
	StockDisponible = "disponible"
	StockAgotado    = "agotado"
)

// InventoryRecord stock actual de un producto en una ubicación (tabla materializada).
// Solo lo modifica el libro de inventario; Quantity es siempre la suma de sus movimientos.
type InventoryRecord struct {
	ProductID  string
	LocationID string
	Quantity   decimal.Decimal
	MinStock   decimal.Decimal // stock_minimo
	Status     string          // disponible, agotado
	UpdatedAt  time.Time
}

// StatusFor devuelve el estado correspondiente a una cantidad.
func StatusFor(qty decimal.Decimal) string {
	if qty.GreaterThan(decimal.Zero) {
		return StockDisponible
	}
	return StockAgotado
}

// CrossedMinimum indica si una salida llevó el stock de encima del mínimo a igual o por debajo.
// Solo el cruce cuenta; seguir por debajo no vuelve a disparar la alerta.
func CrossedMinimum(previous, current, minimum decimal.Decimal) bool {
	return previous.GreaterThan(minimum) && current.LessThanOrEqual(minimum)
}
