package notification

import (
	"context"

	"github.com/shopspring/decimal"

	"github.com/jhoicas/kitquirurgico-api/pkg/logger"
)

// LogNotifier deja las notificaciones en el log estructurado. Se usa cuando no hay broker configurado.
type LogNotifier struct {
	log *logger.Logger
}

// NewLogNotifier construye el notificador.
func NewLogNotifier(log *logger.Logger) *LogNotifier {
	if log == nil {
		log = logger.Nop()
	}
	return &LogNotifier{log: log.Component("notificaciones")}
}

// NotifyLowStock registra la alerta de stock bajo.
func (n *LogNotifier) NotifyLowStock(_ context.Context, userIDs []string, productID, name string, currentQty, minQty decimal.Decimal) error {
	n.log.Warn().
		Strs("users", userIDs).
		Str("product_id", productID).
		Str("product_name", name).
		Str("current_qty", currentQty.String()).
		Str("min_qty", minQty.String()).
		Msg("stock bajo")
	return nil
}

// NotifyKitStatusChange registra el cambio de estado del kit.
func (n *LogNotifier) NotifyKitStatusChange(_ context.Context, userIDs []string, kitID, caseNo, fromState, toState string) error {
	n.log.Info().
		Strs("users", userIDs).
		Str("kit_id", kitID).
		Str("case_number", caseNo).
		Str("from", fromState).
		Str("to", toState).
		Msg("cambio de estado de kit")
	return nil
}
