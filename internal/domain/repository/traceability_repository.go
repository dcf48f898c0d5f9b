package repository

import (
	"context"

	"github.com/jhoicas/kitquirurgico-api/internal/domain/entity"
)

// TraceabilityRepository registro de auditoría: solo inserción y consulta, sin update ni delete.
type TraceabilityRepository interface {
	Append(ctx context.Context, event *entity.TraceabilityEvent) error
	// ListByEntity eventos de una entidad ordenados por timestamp.
	ListByEntity(ctx context.Context, entityType, entityID string) ([]*entity.TraceabilityEvent, error)
	// ListKitEventsByCase eventos de todos los kits de un caso ordenados por timestamp.
	ListKitEventsByCase(ctx context.Context, caseID string) ([]*entity.TraceabilityEvent, error)
}
