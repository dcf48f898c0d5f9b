// Package traceability consultas sobre el registro de auditoría: línea de tiempo de un kit
// y línea de tiempo unificada de un caso (eventos del caso más los de todos sus kits).
package traceability

import (
	"context"

	"github.com/jhoicas/kitquirurgico-api/internal/application/dto"
	"github.com/jhoicas/kitquirurgico-api/internal/domain"
	"github.com/jhoicas/kitquirurgico-api/internal/domain/entity"
	"github.com/jhoicas/kitquirurgico-api/internal/domain/repository"
	timeline "github.com/jhoicas/kitquirurgico-api/internal/domain/traceability"
)

// UseCase lectura de líneas de tiempo. No escribe: los eventos los agregan las transiciones.
type UseCase struct {
	traceRepo repository.TraceabilityRepository
	kitRepo   repository.KitRepository
}

// NewUseCase construye el caso de uso.
func NewUseCase(traceRepo repository.TraceabilityRepository, kitRepo repository.KitRepository) *UseCase {
	return &UseCase{traceRepo: traceRepo, kitRepo: kitRepo}
}

// KitTimeline eventos de un kit en orden cronológico.
func (uc *UseCase) KitTimeline(ctx context.Context, kitID string) (*dto.TimelineResponse, error) {
	k, err := uc.kitRepo.GetByID(ctx, kitID)
	if err != nil {
		return nil, err
	}
	if k == nil {
		return nil, domain.ErrNotFound
	}
	events, err := uc.traceRepo.ListByEntity(ctx, entity.TraceEntityKit, kitID)
	if err != nil {
		return nil, err
	}
	return toTimeline(entity.TraceEntityKit, kitID, events), nil
}

// CaseTimeline mezcla por timestamp los eventos del caso con los de sus kits.
func (uc *UseCase) CaseTimeline(ctx context.Context, caseID string) (*dto.TimelineResponse, error) {
	if caseID == "" {
		return nil, domain.Invalid("case_id obligatorio")
	}
	caseEvents, err := uc.traceRepo.ListByEntity(ctx, entity.TraceEntityCase, caseID)
	if err != nil {
		return nil, err
	}
	kitEvents, err := uc.traceRepo.ListKitEventsByCase(ctx, caseID)
	if err != nil {
		return nil, err
	}
	if len(caseEvents) == 0 && len(kitEvents) == 0 {
		return nil, domain.ErrNotFound
	}
	return toTimeline(entity.TraceEntityCase, caseID, timeline.Merge(caseEvents, kitEvents)), nil
}

func toTimeline(entityType, entityID string, events []*entity.TraceabilityEvent) *dto.TimelineResponse {
	out := &dto.TimelineResponse{
		EntityType: entityType,
		EntityID:   entityID,
		Events:     make([]dto.TraceEventResponse, 0, len(events)),
	}
	for _, e := range events {
		out.Events = append(out.Events, dto.TraceEventResponse{
			ID:         e.ID,
			EntityType: e.EntityType,
			EntityID:   e.EntityID,
			Action:     e.Action,
			FromState:  e.FromState,
			ToState:    e.ToState,
			Actor:      e.Actor,
			Metadata:   e.Metadata,
			CreatedAt:  e.CreatedAt,
		})
	}
	return out
}
