package entity

import (
	"time"

	"github.com/shopspring/decimal"
)

// KitProductLine cantidades de un producto dentro de un kit (una fila por producto por kit).
// Invariante: Prepared ≤ Requested, Sent ≤ Prepared, Used ≤ Sent.
type KitProductLine struct {
	ID         string
	KitID      string
	ProductID  string
	Requested  decimal.Decimal // cantidad_solicitada
	Prepared   decimal.Decimal // cantidad_preparada (reservada desde listo_envio)
	Sent       decimal.Decimal // cantidad_enviada
	Received   decimal.Decimal // cantidad_recibida por el técnico
	Used       decimal.Decimal // cantidad_utilizada
	Returned   decimal.Decimal // cantidad_devuelta (a inventario o a limpieza)
	Disposable bool
	Lot        string
	ExpiresAt  *time.Time
	Notes      string // discrepancias registradas en la entrega
	CreatedAt  time.Time
	UpdatedAt  time.Time
}

// Recoverable cantidad recuperable: enviada − utilizada para reutilizables, 0 para desechables.
func (l *KitProductLine) Recoverable() decimal.Decimal {
	if l.Disposable {
		return decimal.Zero
	}
	r := l.Sent.Sub(l.Used)
	if r.IsNegative() {
		return decimal.Zero
	}
	return r
}

// Outstanding cantidad reservada que aún no se consumió (se libera al cancelar).
func (l *KitProductLine) Outstanding() decimal.Decimal {
	r := l.Prepared.Sub(l.Used)
	if r.IsNegative() {
		return decimal.Zero
	}
	return r
}

// QuantitiesConsistent verifica el orden solicitada ≥ preparada ≥ enviada ≥ utilizada ≥ 0.
func (l *KitProductLine) QuantitiesConsistent() bool {
	if l.Used.IsNegative() || l.Requested.IsNegative() {
		return false
	}
	return l.Prepared.LessThanOrEqual(l.Requested) &&
		l.Sent.LessThanOrEqual(l.Prepared) &&
		l.Used.LessThanOrEqual(l.Sent)
}
