// Package cleaning reglas del sub-flujo de limpieza y esterilización.
package cleaning

import (
	"fmt"

	"github.com/shopspring/decimal"

	"github.com/jhoicas/kitquirurgico-api/internal/domain"
	"github.com/jhoicas/kitquirurgico-api/internal/domain/entity"
)

var edges = map[entity.CleaningStatus][]entity.CleaningStatus{
	entity.CleaningPendiente:    {entity.CleaningEnProceso, entity.CleaningDesechado},
	entity.CleaningEnProceso:    {entity.CleaningEsterilizado, entity.CleaningDesechado},
	entity.CleaningEsterilizado: {entity.CleaningAprobado, entity.CleaningDesechado},
}

// CanTransition indica si existe la arista from → to.
func CanTransition(from, to entity.CleaningStatus) bool {
	for _, s := range edges[from] {
		if s == to {
			return true
		}
	}
	return false
}

// Check valida la transición de un ítem. applied=true si el ítem ya está en el destino.
func Check(item *entity.CleaningItem, expected, target entity.CleaningStatus) (applied bool, err error) {
	if !expected.Valid() || !target.Valid() {
		return false, domain.Invalid("estado de limpieza desconocido %q → %q", expected, target)
	}
	if item.Status == target {
		return true, nil
	}
	if item.Status != expected {
		return false, fmt.Errorf("%w: ítem %s está en %s, se esperaba %s", domain.ErrStaleState, item.ID, item.Status, expected)
	}
	if !CanTransition(expected, target) {
		return false, fmt.Errorf("%w: %s → %s", domain.ErrInvalidTransition, expected, target)
	}
	return false, nil
}

// ApprovedQuantity resuelve la cantidad aprobada: nil aprueba todo lo recuperable.
func ApprovedQuantity(item *entity.CleaningItem, requested *decimal.Decimal) (decimal.Decimal, error) {
	if requested == nil {
		return item.ToRecover, nil
	}
	q := *requested
	if q.IsNegative() || q.GreaterThan(item.ToRecover) {
		return decimal.Zero, domain.Invalid("cantidad aprobada %s fuera de rango [0, %s]", q, item.ToRecover)
	}
	return q, nil
}

// AllTerminal indica si todos los ítems están aprobados o desechados.
func AllTerminal(items []*entity.CleaningItem) bool {
	for _, it := range items {
		if !it.Status.Terminal() {
			return false
		}
	}
	return true
}
