package repository

import (
	"context"
	"time"

	"github.com/shopspring/decimal"

	"github.com/jhoicas/kitquirurgico-api/internal/domain/entity"
)

// MovementFilter filtros para listar movimientos.
type MovementFilter struct {
	ProductID  string
	LocationID string
	RefType    string
	RefID      string
	From, To   *time.Time
	Limit      int
	Offset     int
}

// InventoryMovementRepository define el puerto del libro de movimientos (solo inserción).
type InventoryMovementRepository interface {
	Create(ctx context.Context, movement *entity.InventoryMovement) error
	List(ctx context.Context, filter MovementFilter) ([]*entity.InventoryMovement, error)
	// Sum suma los deltas firmados de un par (producto, ubicación).
	Sum(ctx context.Context, productID, locationID string) (decimal.Decimal, error)
}
