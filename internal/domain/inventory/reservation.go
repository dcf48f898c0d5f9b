package inventory

import "github.com/shopspring/decimal"

// PartialReservation reparte una reserva entre lo que se puede apartar y el faltante.
// reservable = min(solicitado, disponible); faltante = solicitado − reservable.
func PartialReservation(requested, available decimal.Decimal) (reservable, shortfall decimal.Decimal) {
	if available.IsNegative() {
		available = decimal.Zero
	}
	reservable = decimal.Min(requested, available)
	return reservable, requested.Sub(reservable)
}
