package postgres

import (
	"context"
	"fmt"
	"time"

	"github.com/jhoicas/kitquirurgico-api/internal/domain"
	"github.com/jhoicas/kitquirurgico-api/internal/domain/entity"
	"github.com/jhoicas/kitquirurgico-api/internal/domain/repository"
)

var _ repository.OutboxRepository = (*OutboxRepo)(nil)

// OutboxRepo bandeja de salida sobre PostgreSQL.
type OutboxRepo struct {
	q Querier
}

// NewOutboxRepository construye el adaptador. Pasar pool o tx (Querier).
func NewOutboxRepository(q Querier) *OutboxRepo {
	return &OutboxRepo{q: q}
}

// Enqueue inserta la notificación en la transacción del llamador.
func (r *OutboxRepo) Enqueue(ctx context.Context, n *entity.OutboxNotification) error {
	query := `
		INSERT INTO outbox_notifications (id, type, payload, status, attempts, last_error, next_attempt_at, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)`
	_, err := r.q.Exec(ctx, query,
		n.ID, n.Type, string(n.Payload), n.Status, n.Attempts, n.LastError, n.NextAttemptAt, n.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("enqueue notification: %w", err)
	}
	return nil
}

// ClaimDue toma las notificaciones vencidas y las aparta un minuto para que otra réplica del
// despachador no las entregue en paralelo. SKIP LOCKED evita esperar filas tomadas por otra.
func (r *OutboxRepo) ClaimDue(ctx context.Context, now time.Time, limit int) ([]*entity.OutboxNotification, error) {
	query := `
		UPDATE outbox_notifications SET next_attempt_at = $2::timestamptz + interval '1 minute'
		WHERE id IN (
			SELECT id FROM outbox_notifications
			WHERE status = $1 AND next_attempt_at <= $2
			ORDER BY next_attempt_at, created_at
			LIMIT $3
			FOR UPDATE SKIP LOCKED
		)
		RETURNING id, type, payload, status, attempts, last_error, next_attempt_at, created_at, sent_at`
	rows, err := r.q.Query(ctx, query, entity.OutboxPendiente, now, limitOrAll(limit))
	if err != nil {
		return nil, fmt.Errorf("claim notifications: %w", err)
	}
	defer rows.Close()
	var list []*entity.OutboxNotification
	for rows.Next() {
		var (
			n       entity.OutboxNotification
			payload []byte
		)
		if err := rows.Scan(&n.ID, &n.Type, &payload, &n.Status, &n.Attempts, &n.LastError,
			&n.NextAttemptAt, &n.CreatedAt, &n.SentAt); err != nil {
			return nil, fmt.Errorf("scan notification: %w", err)
		}
		n.Payload = payload
		list = append(list, &n)
	}
	return list, rows.Err()
}

// MarkSent marca la notificación como entregada.
func (r *OutboxRepo) MarkSent(ctx context.Context, id string, at time.Time) error {
	return r.exec(ctx, `UPDATE outbox_notifications SET status = $2, sent_at = $3 WHERE id = $1`,
		id, entity.OutboxEnviado, at)
}

// MarkFailed registra el intento fallido y reprograma; dead la deja en fallido.
func (r *OutboxRepo) MarkFailed(ctx context.Context, id string, lastErr string, next time.Time, dead bool) error {
	query := `
		UPDATE outbox_notifications
		SET attempts = attempts + 1, last_error = $2, next_attempt_at = $3,
			status = CASE WHEN $4 THEN $5 ELSE status END
		WHERE id = $1`
	return r.exec(ctx, query, id, lastErr, next, dead, entity.OutboxFallido)
}

func (r *OutboxRepo) exec(ctx context.Context, query string, args ...any) error {
	tag, err := r.q.Exec(ctx, query, args...)
	if err != nil {
		return fmt.Errorf("update notification: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrNotFound
	}
	return nil
}
