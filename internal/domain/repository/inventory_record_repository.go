package repository

import (
	"context"

	"github.com/shopspring/decimal"

	"github.com/jhoicas/kitquirurgico-api/internal/domain/entity"
)

// StockChange valores devueltos atómicamente por un incremento o decremento.
type StockChange struct {
	Previous decimal.Decimal
	Current  decimal.Decimal
	Minimum  decimal.Decimal
}

// StockFilter filtros para listar registros de inventario.
type StockFilter struct {
	ProductID  string
	LocationID string
	Limit      int
	Offset     int
}

// InventoryRecordRepository define el puerto del stock por (producto, ubicación).
// Decrement e Increment son atómicos contra el valor almacenado: nunca leer-modificar-escribir
// desde un valor en memoria.
type InventoryRecordRepository interface {
	Get(ctx context.Context, productID, locationID string) (*entity.InventoryRecord, error)
	// Decrement resta qty si hay disponible; si no, devuelve *domain.InsufficientStockError.
	Decrement(ctx context.Context, productID, locationID string, qty decimal.Decimal) (*StockChange, error)
	// Increment suma qty creando el registro si no existe.
	Increment(ctx context.Context, productID, locationID string, qty decimal.Decimal) (*StockChange, error)
	SetMinimum(ctx context.Context, productID, locationID string, minimum decimal.Decimal) error
	List(ctx context.Context, filter StockFilter) ([]*entity.InventoryRecord, error)
	ListAtOrBelowMinimum(ctx context.Context, locationID string) ([]*entity.InventoryRecord, error)
}
