package repository

import (
	"context"
	"time"

	"github.com/jhoicas/kitquirurgico-api/internal/domain/entity"
)

// OutboxRepository bandeja de salida de notificaciones.
type OutboxRepository interface {
	Enqueue(ctx context.Context, n *entity.OutboxNotification) error
	// ClaimDue toma hasta limit notificaciones pendientes cuyo próximo intento ya venció.
	ClaimDue(ctx context.Context, now time.Time, limit int) ([]*entity.OutboxNotification, error)
	MarkSent(ctx context.Context, id string, at time.Time) error
	MarkFailed(ctx context.Context, id string, lastErr string, nextAttempt time.Time, dead bool) error
}
