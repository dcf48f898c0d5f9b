package notification

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/jhoicas/kitquirurgico-api/internal/domain/entity"
	"github.com/jhoicas/kitquirurgico-api/internal/domain/repository"
)

// EnqueueLowStock registra una alerta de stock bajo en la bandeja de salida (misma transacción
// que el débito que cruzó el mínimo).
func EnqueueLowStock(ctx context.Context, outbox repository.OutboxRepository, p entity.LowStockPayload, now time.Time) error {
	return enqueue(ctx, outbox, entity.NotificationLowStock, p, now)
}

// EnqueueKitStatus registra un cambio de estado de kit en la bandeja de salida.
func EnqueueKitStatus(ctx context.Context, outbox repository.OutboxRepository, p entity.KitStatusPayload, now time.Time) error {
	return enqueue(ctx, outbox, entity.NotificationKitStatus, p, now)
}

func enqueue(ctx context.Context, outbox repository.OutboxRepository, kind string, payload any, now time.Time) error {
	body, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("serializar notificación %s: %w", kind, err)
	}
	return outbox.Enqueue(ctx, &entity.OutboxNotification{
		ID:            uuid.New().String(),
		Type:          kind,
		Payload:       body,
		Status:        entity.OutboxPendiente,
		NextAttemptAt: now,
		CreatedAt:     now,
	})
}
