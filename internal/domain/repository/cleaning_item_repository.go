package repository

import (
	"context"

	"github.com/jhoicas/kitquirurgico-api/internal/domain/entity"
)

// CleaningItemRepository define el puerto del sub-flujo de limpieza.
type CleaningItemRepository interface {
	Create(ctx context.Context, item *entity.CleaningItem) error
	GetByID(ctx context.Context, id string) (*entity.CleaningItem, error)
	ListByKit(ctx context.Context, kitID string) ([]*entity.CleaningItem, error)
	ListByStatus(ctx context.Context, status entity.CleaningStatus, limit, offset int) ([]*entity.CleaningItem, error)
	// UpdateState persiste el ítem solo si su estado almacenado sigue siendo expected.
	UpdateState(ctx context.Context, item *entity.CleaningItem, expected entity.CleaningStatus) error
}
