package repository

import (
	"context"

	"github.com/jhoicas/kitquirurgico-api/internal/domain/entity"
)

// KitFilter filtros para listar kits. Campos vacíos no filtran.
type KitFilter struct {
	Status entity.KitStatus
	CaseID string
	Limit  int
	Offset int
}

// KitRepository define el puerto de persistencia del registro de kits.
type KitRepository interface {
	Create(ctx context.Context, kit *entity.Kit) error
	GetByID(ctx context.Context, id string) (*entity.Kit, error)
	GetByQRToken(ctx context.Context, token string) (*entity.Kit, error)
	List(ctx context.Context, filter KitFilter) ([]*entity.Kit, error)
	// UpdateState persiste el kit solo si su estado almacenado sigue siendo expected
	// (concurrencia optimista). Si no, devuelve domain.ErrStaleState.
	UpdateState(ctx context.Context, kit *entity.Kit, expected entity.KitStatus) error
	// LockByID obtiene el kit bloqueando su fila hasta el fin de la transacción.
	LockByID(ctx context.Context, id string) (*entity.Kit, error)
}

// KitLineRepository define el puerto del libro de productos por kit.
type KitLineRepository interface {
	Create(ctx context.Context, line *entity.KitProductLine) error
	ListByKit(ctx context.Context, kitID string) ([]*entity.KitProductLine, error)
	Update(ctx context.Context, line *entity.KitProductLine) error
}
