package ports

import (
	"context"

	"github.com/shopspring/decimal"
)

// Notifier servicio externo de notificaciones. Se invoca después del commit; su error
// nunca afecta la mutación que originó la notificación.
type Notifier interface {
	NotifyLowStock(ctx context.Context, userIDs []string, productID, name string, currentQty, minQty decimal.Decimal) error
	NotifyKitStatusChange(ctx context.Context, userIDs []string, kitID, caseNo, fromState, toState string) error
}

// Committed lo implementa quien quiera enterarse de que hay notificaciones nuevas en la
// bandeja de salida (el despachador). Llamado tras un commit exitoso.
type Committed interface {
	Kick()
}

// TransitionObserver recibe cada transición de kit confirmada (métricas).
type TransitionObserver interface {
	KitTransition(from, to string)
}

// CleaningObserver recibe cada cambio confirmado de un ítem de limpieza (métricas).
type CleaningObserver interface {
	CleaningTransition(from, to string)
}

// DeliveryObserver recibe el resultado de cada intento de entrega de una notificación.
type DeliveryObserver interface {
	NotificationDelivered(kind string)
	NotificationFailed(kind string, dead bool)
}
