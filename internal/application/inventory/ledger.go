package inventory

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/jhoicas/kitquirurgico-api/internal/application/notification"
	"github.com/jhoicas/kitquirurgico-api/internal/application/ports"
	"github.com/jhoicas/kitquirurgico-api/internal/domain"
	"github.com/jhoicas/kitquirurgico-api/internal/domain/entity"
	"github.com/jhoicas/kitquirurgico-api/internal/domain/repository"
)

// MovementInput datos de un débito o crédito dentro de una transacción.
type MovementInput struct {
	ProductID  string
	LocationID string
	Quantity   decimal.Decimal // siempre positivo; el signo lo da la operación
	Type       entity.MovementType
	Ref        entity.MovementRef
	Reason     string
	Actor      string
	At         time.Time
}

// Ledger libro de inventario: única vía para modificar InventoryRecord.
// Cada débito o crédito escribe exactamente un InventoryMovement en la transacción del llamador,
// de modo que cantidad == Σ movimientos en todo momento.
type Ledger struct{}

// NewLedger construye el libro.
func NewLedger() *Ledger { return &Ledger{} }

// Reserve aparta stock para un kit (movimiento salida).
// Si qty excede lo disponible devuelve *domain.InsufficientStockError sin tocar nada;
// el llamador decide si reserva parcialmente o aborta.
func (l *Ledger) Reserve(ctx context.Context, repos ports.Repos, in MovementInput) (*entity.InventoryMovement, error) {
	in.Type = entity.MovementSalida
	return l.Debit(ctx, repos, in)
}

// Debit resta stock de forma atómica, registra el movimiento y encola la alerta de stock bajo
// cuando la salida cruza el mínimo.
func (l *Ledger) Debit(ctx context.Context, repos ports.Repos, in MovementInput) (*entity.InventoryMovement, error) {
	if err := validateMovement(in); err != nil {
		return nil, err
	}
	change, err := repos.Stock.Decrement(ctx, in.ProductID, in.LocationID, in.Quantity)
	if err != nil {
		return nil, err
	}
	mov, err := l.record(ctx, repos, in, in.Quantity.Neg(), change.Current)
	if err != nil {
		return nil, err
	}
	if entity.CrossedMinimum(change.Previous, change.Current, change.Minimum) {
		if err := l.enqueueLowStock(ctx, repos, in, change); err != nil {
			return nil, err
		}
	}
	return mov, nil
}

// Credit suma stock de forma atómica (crea el registro si no existe) y registra el movimiento.
func (l *Ledger) Credit(ctx context.Context, repos ports.Repos, in MovementInput) (*entity.InventoryMovement, error) {
	if in.Type == "" {
		in.Type = entity.MovementEntrada
	}
	if in.Type == entity.MovementSalida {
		return nil, domain.Invalid("un crédito no puede ser salida")
	}
	if err := validateMovement(in); err != nil {
		return nil, err
	}
	change, err := repos.Stock.Increment(ctx, in.ProductID, in.LocationID, in.Quantity)
	if err != nil {
		return nil, err
	}
	return l.record(ctx, repos, in, in.Quantity, change.Current)
}

func (l *Ledger) record(ctx context.Context, repos ports.Repos, in MovementInput, delta, result decimal.Decimal) (*entity.InventoryMovement, error) {
	at := in.At
	if at.IsZero() {
		at = time.Now().UTC()
	}
	mov := &entity.InventoryMovement{
		ID:             uuid.New().String(),
		ProductID:      in.ProductID,
		LocationID:     in.LocationID,
		Type:           in.Type,
		Quantity:       delta,
		ResultQuantity: result,
		Reference:      in.Ref,
		Reason:         in.Reason,
		CreatedAt:      at,
		CreatedBy:      in.Actor,
	}
	if err := repos.Movements.Create(ctx, mov); err != nil {
		return nil, err
	}
	return mov, nil
}

func (l *Ledger) enqueueLowStock(ctx context.Context, repos ports.Repos, in MovementInput, change *repository.StockChange) error {
	name := in.ProductID
	product, err := repos.Products.GetByID(ctx, in.ProductID)
	if err != nil {
		return fmt.Errorf("producto para alerta de stock: %w", err)
	}
	if product != nil {
		name = product.Name
	}
	at := in.At
	if at.IsZero() {
		at = time.Now().UTC()
	}
	return notification.EnqueueLowStock(ctx, repos.Outbox, entity.LowStockPayload{
		ProductID:   in.ProductID,
		ProductName: name,
		LocationID:  in.LocationID,
		CurrentQty:  change.Current.String(),
		MinQty:      change.Minimum.String(),
	}, at)
}

func validateMovement(in MovementInput) error {
	if in.ProductID == "" || in.LocationID == "" {
		return domain.Invalid("producto y ubicación son obligatorios")
	}
	if !in.Quantity.IsPositive() {
		return domain.Invalid("la cantidad debe ser positiva")
	}
	if !in.Type.Valid() {
		return domain.Invalid("tipo de movimiento %q", in.Type)
	}
	if in.Actor == "" {
		return domain.Invalid("actor obligatorio")
	}
	return nil
}
