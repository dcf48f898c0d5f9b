package memory

import (
	"context"
	"sort"

	"github.com/jhoicas/kitquirurgico-api/internal/domain/entity"
)

type traceRepo struct {
	s    *Store
	inTx bool
}

func (r *traceRepo) Append(_ context.Context, e *entity.TraceabilityEvent) error {
	return r.s.write(r.inTx, func(d *state) error {
		d.seq++
		e.Seq = d.seq
		d.events = append(d.events, cloneEvent(e))
		return nil
	})
}

func (r *traceRepo) ListByEntity(_ context.Context, entityType, entityID string) ([]*entity.TraceabilityEvent, error) {
	var out []*entity.TraceabilityEvent
	r.s.read(r.inTx, func(d *state) {
		for _, e := range d.events {
			if e.EntityType == entityType && e.EntityID == entityID {
				out = append(out, cloneEvent(e))
			}
		}
	})
	sortEvents(out)
	return out, nil
}

func (r *traceRepo) ListKitEventsByCase(_ context.Context, caseID string) ([]*entity.TraceabilityEvent, error) {
	var out []*entity.TraceabilityEvent
	r.s.read(r.inTx, func(d *state) {
		for _, e := range d.events {
			if e.EntityType != entity.TraceEntityKit {
				continue
			}
			if k, ok := d.kits[e.EntityID]; ok && k.CaseID == caseID {
				out = append(out, cloneEvent(e))
			}
		}
	})
	sortEvents(out)
	return out, nil
}

func sortEvents(events []*entity.TraceabilityEvent) {
	sort.SliceStable(events, func(i, j int) bool {
		if events[i].CreatedAt.Equal(events[j].CreatedAt) {
			return events[i].Seq < events[j].Seq
		}
		return events[i].CreatedAt.Before(events[j].CreatedAt)
	})
}
