package memory

import (
	"context"
	"time"

	"github.com/jhoicas/kitquirurgico-api/internal/domain"
	"github.com/jhoicas/kitquirurgico-api/internal/domain/entity"
)

type outboxRepo struct {
	s    *Store
	inTx bool
}

func (r *outboxRepo) Enqueue(_ context.Context, n *entity.OutboxNotification) error {
	return r.s.write(r.inTx, func(d *state) error {
		d.outbox = append(d.outbox, cloneNotification(n))
		return nil
	})
}

func (r *outboxRepo) ClaimDue(_ context.Context, now time.Time, limit int) ([]*entity.OutboxNotification, error) {
	var out []*entity.OutboxNotification
	r.s.read(r.inTx, func(d *state) {
		for _, n := range d.outbox {
			if limit > 0 && len(out) >= limit {
				return
			}
			if n.Status == entity.OutboxPendiente && !n.NextAttemptAt.After(now) {
				out = append(out, cloneNotification(n))
			}
		}
	})
	return out, nil
}

func (r *outboxRepo) MarkSent(_ context.Context, id string, at time.Time) error {
	return r.update(id, func(n *entity.OutboxNotification) {
		t := at
		n.Status = entity.OutboxEnviado
		n.SentAt = &t
	})
}

func (r *outboxRepo) MarkFailed(_ context.Context, id string, lastErr string, next time.Time, dead bool) error {
	return r.update(id, func(n *entity.OutboxNotification) {
		n.Attempts++
		n.LastError = lastErr
		n.NextAttemptAt = next
		if dead {
			n.Status = entity.OutboxFallido
		}
	})
}

func (r *outboxRepo) update(id string, f func(n *entity.OutboxNotification)) error {
	return r.s.write(r.inTx, func(d *state) error {
		for _, n := range d.outbox {
			if n.ID == id {
				f(n)
				return nil
			}
		}
		return domain.ErrNotFound
	})
}

// Outbox copia de todas las notificaciones registradas (pruebas y diagnóstico).
func (s *Store) Outbox() []*entity.OutboxNotification {
	var out []*entity.OutboxNotification
	s.read(false, func(d *state) {
		for _, n := range d.outbox {
			out = append(out, cloneNotification(n))
		}
	})
	return out
}
