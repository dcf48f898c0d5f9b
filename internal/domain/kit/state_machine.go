// Package kit contiene las reglas del ciclo de vida del kit quirúrgico:
// aristas legales, guardas y el plan de conciliación al devolver.
package kit

import (
	"fmt"

	"github.com/jhoicas/kitquirurgico-api/internal/domain"
	"github.com/jhoicas/kitquirurgico-api/internal/domain/entity"
)

var edges = map[entity.KitStatus][]entity.KitStatus{
	entity.KitSolicitado: {entity.KitPreparando, entity.KitCancelado},
	entity.KitPreparando: {entity.KitListoEnvio, entity.KitCancelado},
	entity.KitListoEnvio: {entity.KitEnTransito, entity.KitCancelado},
	entity.KitEnTransito: {entity.KitEntregado, entity.KitCancelado},
	entity.KitEntregado:  {entity.KitEnUso, entity.KitDevuelto, entity.KitCancelado},
	entity.KitEnUso:      {entity.KitDevuelto, entity.KitCancelado},
	entity.KitDevuelto:   {entity.KitEnLimpieza, entity.KitFinalizado, entity.KitCancelado},
	entity.KitEnLimpieza: {entity.KitFinalizado, entity.KitCancelado},
}

// CanTransition indica si existe la arista from → to.
func CanTransition(from, to entity.KitStatus) bool {
	for _, s := range edges[from] {
		if s == to {
			return true
		}
	}
	return false
}

// NextStates devuelve los destinos legales desde un estado.
func NextStates(from entity.KitStatus) []entity.KitStatus {
	out := make([]entity.KitStatus, len(edges[from]))
	copy(out, edges[from])
	return out
}

// AlreadyApplied indica si el kit ya alcanzó el estado destino en algún momento.
// Un kit cancelado solo "alcanzó" cancelado.
func AlreadyApplied(k *entity.Kit, target entity.KitStatus) bool {
	if k.Status == target {
		return true
	}
	if k.Status == entity.KitCancelado {
		return false
	}
	return k.Phase(target).Reached()
}

// Check valida una transición pedida con el estado previo esperado por el llamador.
// Devuelve applied=true cuando el destino ya fue alcanzado: la repetición es un no-op.
func Check(k *entity.Kit, expected, target entity.KitStatus) (applied bool, err error) {
	if !expected.Valid() || !target.Valid() {
		return false, domain.Invalid("estado desconocido %q → %q", expected, target)
	}
	if AlreadyApplied(k, target) {
		return true, nil
	}
	if k.Status != expected {
		return false, fmt.Errorf("%w: kit %s está en %s, se esperaba %s", domain.ErrStaleState, k.ID, k.Status, expected)
	}
	if !CanTransition(expected, target) {
		return false, fmt.Errorf("%w: %s → %s", domain.ErrInvalidTransition, expected, target)
	}
	return false, nil
}

// LocationAfter ubicación física del kit tras entrar en un estado, si cambia.
func LocationAfter(k *entity.Kit, target entity.KitStatus, destination string) string {
	switch target {
	case entity.KitEnTransito:
		return entity.LocationTransito
	case entity.KitEntregado:
		if destination != "" {
			return destination
		}
	case entity.KitDevuelto, entity.KitFinalizado, entity.KitCancelado:
		if destination != "" {
			return destination
		}
		return k.SourceLocationID
	}
	return k.LocationID
}
