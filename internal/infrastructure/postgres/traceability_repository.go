package postgres

import (
	"context"
	"fmt"

	"github.com/jhoicas/kitquirurgico-api/internal/domain/entity"
	"github.com/jhoicas/kitquirurgico-api/internal/domain/repository"
)

var _ repository.TraceabilityRepository = (*TraceabilityRepo)(nil)

// TraceabilityRepo registro de auditoría sobre PostgreSQL. La tabla no admite UPDATE ni DELETE
// desde la aplicación; seq (BIGSERIAL) desempata eventos con el mismo instante.
type TraceabilityRepo struct {
	q Querier
}

// NewTraceabilityRepository construye el adaptador. Pasar pool o tx (Querier).
func NewTraceabilityRepository(q Querier) *TraceabilityRepo {
	return &TraceabilityRepo{q: q}
}

// Append inserta un evento y completa su Seq.
func (r *TraceabilityRepo) Append(ctx context.Context, e *entity.TraceabilityEvent) error {
	query := `
		INSERT INTO traceability_events (id, entity_type, entity_id, action, from_state, to_state, actor, metadata, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
		RETURNING seq`
	var metadata any
	if len(e.Metadata) > 0 {
		metadata = string(e.Metadata)
	}
	err := r.q.QueryRow(ctx, query,
		e.ID, e.EntityType, e.EntityID, e.Action, e.FromState, e.ToState, e.Actor, metadata, e.CreatedAt,
	).Scan(&e.Seq)
	if err != nil {
		return fmt.Errorf("append trace event: %w", err)
	}
	return nil
}

const traceSelect = `
	SELECT e.seq, e.id, e.entity_type, e.entity_id, e.action, e.from_state, e.to_state, e.actor, e.metadata, e.created_at
	FROM traceability_events e`

// ListByEntity eventos de una entidad en orden cronológico.
func (r *TraceabilityRepo) ListByEntity(ctx context.Context, entityType, entityID string) ([]*entity.TraceabilityEvent, error) {
	query := traceSelect + ` WHERE e.entity_type = $1 AND e.entity_id = $2 ORDER BY e.created_at, e.seq`
	return r.list(ctx, query, entityType, entityID)
}

// ListKitEventsByCase eventos de todos los kits de un caso en orden cronológico.
func (r *TraceabilityRepo) ListKitEventsByCase(ctx context.Context, caseID string) ([]*entity.TraceabilityEvent, error) {
	query := traceSelect + `
		JOIN kits k ON k.id = e.entity_id
		WHERE e.entity_type = $1 AND k.case_id = $2
		ORDER BY e.created_at, e.seq`
	return r.list(ctx, query, entity.TraceEntityKit, caseID)
}

func (r *TraceabilityRepo) list(ctx context.Context, query string, args ...any) ([]*entity.TraceabilityEvent, error) {
	rows, err := r.q.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list trace events: %w", err)
	}
	defer rows.Close()
	var list []*entity.TraceabilityEvent
	for rows.Next() {
		var (
			e        entity.TraceabilityEvent
			metadata []byte
		)
		if err := rows.Scan(&e.Seq, &e.ID, &e.EntityType, &e.EntityID, &e.Action, &e.FromState, &e.ToState,
			&e.Actor, &metadata, &e.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan trace event: %w", err)
		}
		e.Metadata = metadata
		list = append(list, &e)
	}
	return list, rows.Err()
}
