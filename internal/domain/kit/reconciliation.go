package kit

import (
	"github.com/shopspring/decimal"

	"github.com/jhoicas/kitquirurgico-api/internal/domain/entity"
)

// Decision destino de una línea devuelta.
type Decision string

// Destinos posibles de una línea al conciliar.
const (
	DecisionDiscard Decision = "desechar"   // desechable: sin crédito
	DecisionRestock Decision = "reingresar" // nunca abierta: entrada directa a inventario
	DecisionClean   Decision = "limpiar"    // abierta: pasa por limpieza antes de acreditarse
	DecisionNone    Decision = "sin_saldo"  // todo se utilizó
)

// LinePlan decisión y cantidad para una línea.
type LinePlan struct {
	Line     *entity.KitProductLine
	Decision Decision
	Quantity decimal.Decimal
}

// Plan resultado de conciliar un kit devuelto.
type Plan struct {
	Lines []LinePlan
}

// NeedsCleaning indica si al menos una línea va a limpieza.
func (p Plan) NeedsCleaning() bool {
	for _, l := range p.Lines {
		if l.Decision == DecisionClean {
			return true
		}
	}
	return false
}

// NextState estado al que avanza el kit tras devuelto.
func (p Plan) NextState() entity.KitStatus {
	if p.NeedsCleaning() {
		return entity.KitEnLimpieza
	}
	return entity.KitFinalizado
}

// Reconcile decide el destino de cada línea de un kit devuelto.
// opened indica por línea si el empaque se abrió; sin dato se asume abierto cuando hubo consumo
// (cantidad_utilizada > 0).
func Reconcile(lines []*entity.KitProductLine, opened map[string]bool) Plan {
	plan := Plan{Lines: make([]LinePlan, 0, len(lines))}
	for _, line := range lines {
		lp := LinePlan{Line: line, Quantity: decimal.Zero}
		switch {
		case line.Disposable:
			lp.Decision = DecisionDiscard
		case !line.Recoverable().IsPositive():
			lp.Decision = DecisionNone
		default:
			lp.Quantity = line.Recoverable()
			isOpen, ok := opened[line.ID]
			if !ok {
				isOpen = line.Used.IsPositive()
			}
			if isOpen {
				lp.Decision = DecisionClean
			} else {
				lp.Decision = DecisionRestock
			}
		}
		plan.Lines = append(plan.Lines, lp)
	}
	return plan
}
