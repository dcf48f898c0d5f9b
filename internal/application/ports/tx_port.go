package ports

import (
	"context"

	"github.com/jhoicas/kitquirurgico-api/internal/domain/repository"
)

// Repos repositorios atados a una misma transacción.
type Repos struct {
	Products  repository.ProductRepository
	Locations repository.LocationRepository
	Kits      repository.KitRepository
	KitLines  repository.KitLineRepository
	Stock     repository.InventoryRecordRepository
	Movements repository.InventoryMovementRepository
	Cleaning  repository.CleaningItemRepository
	Trace     repository.TraceabilityRepository
	Outbox    repository.OutboxRepository
}

// TxRunner ejecuta fn dentro de una transacción: todo lo que fn escribe se confirma junto
// o no se confirma nada. Si fn devuelve error se hace rollback.
type TxRunner interface {
	Run(ctx context.Context, fn func(repos Repos) error) error
}
